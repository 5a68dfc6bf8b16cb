package main

import (
	"github.com/wasm-rgame/wargo/cmd"
)

func main() {
	cmd.Execute()
}

package util

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMappedSlice(t *testing.T) {
	files := []string{"index.html", "js/loader.js", "space_game_bg.wasm"}

	paths := MappedSlice(files, func(f string) string { return filepath.Join("out", f) })
	require.Equal(t, []string{"out/index.html", "out/js/loader.js", "out/space_game_bg.wasm"}, paths)

	require.Empty(t, MappedSlice([]int(nil), func(v int) int { return v }))
}

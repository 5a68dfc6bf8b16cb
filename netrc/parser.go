package netrc

import (
	"bufio"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"

	"github.com/wasm-rgame/wargo/log"
)

type BasicAuth struct {
	User     string
	Password string
}

// Netrc holds the credentials of a parsed .netrc file, keyed by machine name.
type Netrc struct {
	machines map[string]BasicAuth
}

// Parse reads netrc entries. Both the one-entry-per-line and the
// one-token-per-line layouts are accepted.
func Parse(r io.Reader) (Netrc, error) {
	result := Netrc{machines: map[string]BasicAuth{}}

	scanner := bufio.NewScanner(r)
	scanner.Split(bufio.ScanWords)

	currentMachine := ""
	for scanner.Scan() {
		switch scanner.Text() {
		case "machine":
			if !scanner.Scan() {
				break
			}
			currentMachine = scanner.Text()
		case "default":
			currentMachine = ""
		case "login":
			if !scanner.Scan() || currentMachine == "" {
				continue
			}
			auth := result.machines[currentMachine]
			auth.User = scanner.Text()
			result.machines[currentMachine] = auth
		case "password":
			if !scanner.Scan() || currentMachine == "" {
				continue
			}
			auth := result.machines[currentMachine]
			auth.Password = scanner.Text()
			result.machines[currentMachine] = auth
		}
	}

	return result, scanner.Err()
}

// Load parses the user's ~/.netrc file. A missing or unreadable file yields an
// empty Netrc.
func Load() Netrc {
	empty := Netrc{machines: map[string]BasicAuth{}}

	home, err := homedir.Dir()
	if err != nil {
		log.Debug("Unable to find home directory. netrc not parsed.\n")
		return empty
	}

	netrcPath := filepath.Join(home, ".netrc")
	file, err := os.Open(netrcPath)
	if err != nil {
		log.Debug("No netrc file at '%s'.\n", netrcPath)
		return empty
	}
	defer file.Close()

	result, err := Parse(file)
	if err != nil {
		log.Warning("Error reading '%s': %s.\n", netrcPath, err)
		return empty
	}
	return result
}

// AuthForURL returns the credentials stored for the host of urlString, or nil.
func (n Netrc) AuthForURL(urlString string) *BasicAuth {
	u, err := url.Parse(urlString)
	if err != nil {
		log.Warning("Invalid URL '%s'.\n", urlString)
		return nil
	}

	if auth, ok := n.machines[strings.ToLower(u.Hostname())]; ok {
		return &auth
	}
	return nil
}

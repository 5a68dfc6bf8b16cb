package netrc

import (
	"strings"
	"testing"

	"github.com/mitchellh/go-homedir"
	"github.com/stretchr/testify/require"
)

const sample = `machine github.com
  login octocat
  password s3cret

machine mirror.example.com login ci password token
default login anonymous password guest
`

func TestParse(t *testing.T) {
	n, err := Parse(strings.NewReader(sample))
	require.NoError(t, err)

	require.Equal(t, &BasicAuth{User: "octocat", Password: "s3cret"}, n.AuthForURL("https://github.com/DarrenTsung/wasm-rgame-js.git"))
	require.Equal(t, &BasicAuth{User: "ci", Password: "token"}, n.AuthForURL("https://mirror.example.com/wasm-rgame-js/v0.1.0.tar.gz"))
}

func TestUnknownHost(t *testing.T) {
	n, err := Parse(strings.NewReader(sample))
	require.NoError(t, err)

	require.Nil(t, n.AuthForURL("https://gitlab.com/foo.git"))
	require.Nil(t, n.AuthForURL("://bad"))
}

func TestLoadWithoutNetrc(t *testing.T) {
	homedir.DisableCache = true
	t.Setenv("HOME", t.TempDir())

	n := Load()
	require.Nil(t, n.AuthForURL("https://github.com/foo.git"))
}

package manifest

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wasm-rgame/wargo/log"
	"github.com/wasm-rgame/wargo/util"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()

	dir := t.TempDir()
	for path, content := range files {
		require.NoError(t, util.WriteFile(filepath.Join(dir, filepath.FromSlash(path)), []byte(content)))
	}
	return dir
}

var runtime = Runtime{Kind: "git", Source: "https://github.com/DarrenTsung/wasm-rgame-js.git", Tag: "v0.1.0"}

func TestGenerate(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"index.html":          "<html></html>",
		"js/loader.js":        "load()",
		"demo_bg.wasm":        "\x00asm",
		FileName:              "ignored",
		"js/nested/extras.js": "",
	})

	manifest, err := Generate(dir, Info{Project: "demo", Profile: "debug", Runtime: runtime})
	require.NoError(t, err)

	require.Equal(t, util.WargoVersion.String(), manifest.WargoVersion)
	require.Equal(t, "demo", manifest.Project)
	require.Equal(t, runtime, manifest.Runtime)
	require.Equal(t, []string{"demo_bg.wasm", "index.html", "js/loader.js", "js/nested/extras.js"}, filePaths(manifest.Files))
	require.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", manifest.Files[3].Sha256)
}

func TestReadWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)

	_, found, err := Read(path)
	require.NoError(t, err)
	require.False(t, found)

	manifest := Manifest{
		WargoVersion: "v0.3.0",
		Project:      "demo",
		Profile:      "release",
		Runtime:      runtime,
		Files:        []File{{Path: "index.html", Sha256: "abc"}},
	}
	require.NoError(t, Write(path, manifest))

	read, found, err := Read(path)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, manifest, read)
}

func TestReadCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("files: {not: [a list"), 0644))

	_, _, err := Read(path)
	require.Error(t, err)
}

func TestDiffIdentical(t *testing.T) {
	dir := writeTree(t, map[string]string{"index.html": "a", "js/loader.js": "b"})
	manifest, err := Generate(dir, Info{Project: "demo", Runtime: runtime})
	require.NoError(t, err)

	require.Equal(t, DiffResult{}, Diff(manifest, manifest))
}

func TestDiff(t *testing.T) {
	oldManifest := Manifest{
		WargoVersion: "v0.2.0",
		Runtime:      runtime,
		Files: []File{
			{Path: "index.html", Sha256: "1"},
			{Path: "js/old.js", Sha256: "2"},
			{Path: "js/loader.js", Sha256: "3"},
		},
	}
	newRuntime := runtime
	newRuntime.Tag = "v0.1.1"
	newManifest := Manifest{
		WargoVersion: "v0.3.0",
		Runtime:      newRuntime,
		Files: []File{
			{Path: "index.html", Sha256: "1"},
			{Path: "js/loader.js", Sha256: "4"},
			{Path: "demo.js", Sha256: "5"},
		},
	}

	result := Diff(newManifest, oldManifest)
	require.True(t, result.Differ)
	require.Equal(t, "wargo version changed from v0.2.0 to v0.3.0", result.WargoVersion)
	require.Contains(t, result.Runtime, "@v0.1.1")
	require.Empty(t, result.Profile)
	require.Equal(t, []File{{Path: "demo.js", Sha256: "5"}}, result.Added)
	require.Equal(t, []File{{Path: "js/old.js", Sha256: "2"}}, result.Removed)
	require.Equal(t, []FileDiff{{Path: "js/loader.js", Old: "3", New: "4"}}, result.Modified)
}

func TestDiffLog(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	color := log.Color
	log.Color = false
	defer func() {
		log.SetOutput(os.Stderr)
		log.Color = color
	}()

	DiffResult{}.Log()
	DiffResult{Differ: true, Added: []File{{Path: "demo.js"}}}.Log()

	require.Equal(t, "Bundle is unchanged since the last build.\n"+
		"Bundle changed since the last build:\n"+
		"  added    demo.js\n", buf.String())
}

func TestRuntimeString(t *testing.T) {
	require.Equal(t, "https://github.com/DarrenTsung/wasm-rgame-js.git@v0.1.0", runtime.String())
	require.Equal(t, "https://example.com/js.tar.gz (sha256 0123456789ab)",
		Runtime{Source: "https://example.com/js.tar.gz", Sha256: "0123456789abcdef"}.String())
	require.Equal(t, "/home/me/js", Runtime{Source: "/home/me/js"}.String())
}

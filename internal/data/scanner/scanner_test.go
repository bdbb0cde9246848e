package scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFiles(t *testing.T, root string, paths ...string) {
	t.Helper()
	for _, p := range paths {
		fullPath := filepath.Join(root, p)
		require.NoError(t, os.MkdirAll(filepath.Dir(fullPath), 0755))
		require.NoError(t, os.WriteFile(fullPath, []byte("content"), 0644))
	}
}

func paths(files []SessionFile) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.Path
	}
	return out
}

func TestFileScannerScanEmptyDirectory(t *testing.T) {
	files, err := NewFileScanner(t.TempDir(), nil).Scan()

	require.NoError(t, err)
	assert.Empty(t, files, "Empty directory should return no files")
}

func TestFileScannerScanNonExistentDirectory(t *testing.T) {
	files, err := NewFileScanner("/path/that/does/not/exist", nil).Scan()

	require.NoError(t, err, "Scanner should handle non-existent directory gracefully")
	assert.Empty(t, files)
}

func TestFileScannerScanWithJSONLFiles(t *testing.T) {
	tempDir := t.TempDir()
	writeFiles(t, tempDir,
		"proj-a/session1.jsonl",
		"proj-a/session2.jsonl",
		"proj-a/session3.JSONL",
		"proj-a/data.json",
		"proj-b/readme.txt",
		"proj-b/session4.jsonl",
		"proj-b/backup.jsonl.bak",
	)

	files, err := NewFileScanner(tempDir, nil).Scan()
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(tempDir, "proj-a/session1.jsonl"),
		filepath.Join(tempDir, "proj-a/session2.jsonl"),
		filepath.Join(tempDir, "proj-a/session3.JSONL"),
		filepath.Join(tempDir, "proj-b/session4.jsonl"),
	}, paths(files))
}

func TestFileScannerFillsMetadata(t *testing.T) {
	tempDir := t.TempDir()
	writeFiles(t, tempDir, "-home-dev-webapp/5f1c0a2e-1111-2222-3333-444455556666.jsonl")

	files, err := NewFileScanner(tempDir, nil).Scan()
	require.NoError(t, err)
	require.Len(t, files, 1)

	f := files[0]
	assert.Equal(t, "5f1c0a2e-1111-2222-3333-444455556666", f.SessionID)
	assert.Equal(t, "-home-dev-webapp", f.ProjectPath)
	assert.Equal(t, int64(len("content")), f.Size)
	assert.False(t, f.ModTime.IsZero())
}

func TestFileScannerScanPermissionDenied(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced for root")
	}
	tempDir := t.TempDir()
	writeFiles(t, tempDir, "test.jsonl", "restricted/restricted.jsonl")

	restrictedDir := filepath.Join(tempDir, "restricted")
	require.NoError(t, os.Chmod(restrictedDir, 0000))
	defer os.Chmod(restrictedDir, 0755)

	files, err := NewFileScanner(tempDir, nil).Scan()

	require.NoError(t, err)
	assert.Contains(t, paths(files), filepath.Join(tempDir, "test.jsonl"))
	assert.NotContains(t, paths(files), filepath.Join(restrictedDir, "restricted.jsonl"))
}

func TestFileScannerScanLargeDirectory(t *testing.T) {
	tempDir := t.TempDir()

	expected := 0
	for i := 0; i < 100; i++ {
		name := fmt.Sprintf("log%d.txt", i)
		if i%3 == 0 {
			name = fmt.Sprintf("session%d.jsonl", i)
			expected++
		}
		writeFiles(t, tempDir, name)
	}

	files, err := NewFileScanner(tempDir, nil).Scan()
	require.NoError(t, err)
	assert.Len(t, files, expected)
}

func TestProjectFromPath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{path: "/home/u/.claude/projects/-home-u-app/abc.jsonl", want: "-home-u-app"},
		{path: "/home/u/.claude/projects/-home-u-app/5f1c0a2e-1111-2222-3333-444455556666/agent.jsonl", want: "-home-u-app/5f1c0a2e-1111-2222-3333-444455556666"},
		{path: "/home/u/.claude/projects/5f1c0a2e-1111-2222-3333-444455556666/agent.jsonl", want: "5f1c0a2e-1111-2222-3333-444455556666"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ProjectFromPath(tt.path))
	}
}

func TestFilter(t *testing.T) {
	files := []SessionFile{
		{Path: "a", ProjectPath: "-home-u-WebApp"},
		{Path: "b", ProjectPath: "-home-u-cli"},
	}

	assert.Len(t, Filter(files, ""), 2)
	assert.Equal(t, []string{"a"}, paths(Filter(files, "webapp")))
	assert.Empty(t, Filter(files, "missing"))
}

package scanner

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/penwyp/go-claude-latency/internal/util"
)

// SessionFile is one session log found on disk.
type SessionFile struct {
	Path        string
	SessionID   string
	ProjectPath string
	ModTime     time.Time
	Size        int64
}

// FileScanner scans files in the specified directory
type FileScanner struct {
	baseDir string
	logger  util.LoggerInterface
}

// NewFileScanner creates a new FileScanner instance
func NewFileScanner(baseDir string, logger util.LoggerInterface) *FileScanner {
	if logger == nil {
		logger = util.NewNopLogger()
	}
	return &FileScanner{
		baseDir: baseDir,
		logger:  logger,
	}
}

// Scan walks the base directory and returns every .jsonl file sorted by path.
// Entries that cannot be read are skipped.
func (s *FileScanner) Scan() ([]SessionFile, error) {
	start := time.Now()
	var files []SessionFile
	dirCount := 0
	totalCount := 0

	s.logger.Debugf("Start scanning directory: %s", s.baseDir)

	err := filepath.Walk(s.baseDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			s.logger.Debugf("Skip file (error): %s - %v", path, err)
			return nil
		}

		if info.IsDir() {
			dirCount++
			return nil
		}

		totalCount++
		if strings.HasSuffix(strings.ToLower(path), ".jsonl") {
			files = append(files, SessionFile{
				Path:        path,
				SessionID:   SessionIDFromPath(path),
				ProjectPath: ProjectFromPath(path),
				ModTime:     info.ModTime(),
				Size:        info.Size(),
			})
		}

		return nil
	})

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })

	s.logger.Debugf("File scan completed: duration %v, scanned %d directories, %d files, found %d JSONL files",
		time.Since(start), dirCount, totalCount, len(files))

	return files, err
}

// Filter keeps files whose project contains project. An empty project keeps all.
func Filter(files []SessionFile, project string) []SessionFile {
	if project == "" {
		return files
	}
	needle := strings.ToLower(project)
	var kept []SessionFile
	for _, f := range files {
		if strings.Contains(strings.ToLower(f.ProjectPath), needle) {
			kept = append(kept, f)
		}
	}
	return kept
}

// SessionIDFromPath returns the file name without its extension.
func SessionIDFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ProjectFromPath names the project directory holding a session file.
// Sub-agent logs live one level deeper, under a directory named by UUID.
func ProjectFromPath(path string) string {
	dir := filepath.Dir(path)
	project := filepath.Base(dir)

	if isUUID(project) {
		parentDir := filepath.Dir(dir)
		parentName := filepath.Base(parentDir)
		if parentName != "projects" && parentName != "." {
			project = parentName + "/" + project
		}
	}

	return project
}

// isUUID checks if the given string is a UUID.
func isUUID(s string) bool {
	if len(s) != 36 {
		return false
	}

	parts := strings.Split(s, "-")
	if len(parts) != 5 {
		return false
	}

	return len(parts[0]) == 8 && len(parts[1]) == 4 &&
		len(parts[2]) == 4 && len(parts[3]) == 4 &&
		len(parts[4]) == 12
}

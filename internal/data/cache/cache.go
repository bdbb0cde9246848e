package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"

	"github.com/penwyp/go-claude-latency/internal/core/constants"
	"github.com/penwyp/go-claude-latency/internal/core/model"
	"github.com/penwyp/go-claude-latency/internal/core/segment"
	"github.com/penwyp/go-claude-latency/internal/data/parser"
	"github.com/penwyp/go-claude-latency/internal/util"
)

// SchemaVersion changes whenever FileResult or the segmentation rules change shape.
const SchemaVersion = 1

type CacheMissReason int

const (
	MissReasonNone CacheMissReason = iota
	MissReasonError
	MissReasonInode
	MissReasonSize
	MissReasonModTime
	MissReasonFingerprint
	MissReasonNoFingerprint
	MissReasonNotFound
	MissReasonRules
	MissReasonPath
)

func (r CacheMissReason) String() string {
	switch r {
	case MissReasonNone:
		return "hit"
	case MissReasonError:
		return "error"
	case MissReasonInode:
		return "inode changed"
	case MissReasonSize:
		return "size changed"
	case MissReasonModTime:
		return "modtime changed"
	case MissReasonFingerprint:
		return "fingerprint mismatch"
	case MissReasonNoFingerprint:
		return "no fingerprint"
	case MissReasonNotFound:
		return "not found"
	case MissReasonRules:
		return "rules changed"
	case MissReasonPath:
		return "path mismatch"
	default:
		return "unknown"
	}
}

// FileResult is everything derived from one session file.
type FileResult struct {
	SessionID          string             `json:"sessionId"`
	FilePath           string             `json:"filePath"`
	ProjectPath        string             `json:"projectPath"`
	Turns              []model.Turn       `json:"turns"`
	Decode             parser.DecodeStats `json:"decode"`
	Segment            segment.Stats      `json:"segment"`
	Rules              string             `json:"rules"`
	LastModified       int64              `json:"lastModified"`
	FileSize           int64              `json:"fileSize"`
	Inode              uint64             `json:"inode"`
	ContentFingerprint string             `json:"contentFingerprint,omitempty"`
}

type CacheResult struct {
	Data       *FileResult
	Found      bool
	MissReason CacheMissReason
}

// Cache stores FileResults under the key returned by Key.
type Cache interface {
	Get(key string) CacheResult
	Set(key string, data *FileResult) error
	Clear() error
	Preload() error
	BatchValidate(keys []string) map[string]BatchValidateResult
}

// Rules renders the settings a cached result depends on. Entries written
// under different rules are treated as misses.
func Rules(gap time.Duration, textWidth int) string {
	return fmt.Sprintf("v%d;gap=%s;width=%d", SchemaVersion, gap, textWidth)
}

// Key names the cache entry of the session log at path. Session ids repeat
// across projects, so the key carries a hash of the whole path.
func Key(path string) string {
	clean := filepath.Clean(path)
	id := uuid.NewSHA1(uuid.NameSpaceURL, []byte("file://"+clean))
	return fileStem(clean) + "_" + id.String()
}

func fileStem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

type FileCache struct {
	baseDir     string
	rules       string
	logger      util.LoggerInterface
	mu          sync.RWMutex
	memoryCache map[string]*FileResult
}

var _ Cache = (*FileCache)(nil)

func NewFileCache(baseDir, rules string, logger util.LoggerInterface) (*FileCache, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}
	if logger == nil {
		logger = util.NewNopLogger()
	}

	return &FileCache{
		baseDir:     baseDir,
		rules:       rules,
		logger:      logger,
		memoryCache: make(map[string]*FileResult),
	}, nil
}

func (c *FileCache) Get(key string) CacheResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lookup(key)
}

// lookup checks memory first, then disk. Callers hold the write lock.
func (c *FileCache) lookup(key string) CacheResult {
	if memData, exists := c.memoryCache[key]; exists {
		ret := c.validateCachedData(key, memData)
		if ret.cached {
			return CacheResult{Data: memData, Found: true, MissReason: MissReasonNone}
		}
		delete(c.memoryCache, key)
		return CacheResult{MissReason: ret.reason}
	}
	return c.getFromFile(key)
}

func (c *FileCache) cachePath(key string) string {
	return filepath.Join(c.baseDir, key+".json")
}

func (c *FileCache) getFromFile(key string) CacheResult {
	data, err := readResult(c.cachePath(key))
	if os.IsNotExist(err) {
		return CacheResult{MissReason: MissReasonNotFound}
	}
	if err != nil {
		c.logger.Debugf("Unreadable cache entry %s: %v", key, err)
		return CacheResult{MissReason: MissReasonError}
	}

	if ret := c.validateCachedData(key, data); !ret.cached {
		return CacheResult{MissReason: ret.reason}
	}

	c.memoryCache[key] = data
	return CacheResult{Data: data, Found: true, MissReason: MissReasonNone}
}

func readResult(path string) (*FileResult, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var data FileResult
	if err := sonic.Unmarshal(raw, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

type ValidateResult struct {
	cached bool
	reason CacheMissReason
}

func (c *FileCache) validateCachedData(key string, data *FileResult) ValidateResult {
	if data.FilePath == "" || Key(data.FilePath) != key {
		c.logger.Debugf("Cache entry %s belongs to %q", key, data.FilePath)
		return ValidateResult{cached: false, reason: MissReasonPath}
	}
	if data.Rules != c.rules {
		c.logger.Debugf("Cache invalidated for %s: rules changed (cached: %q, current: %q)",
			data.FilePath, data.Rules, c.rules)
		return ValidateResult{cached: false, reason: MissReasonRules}
	}

	currentInfo, err := util.GetFileInfo(data.FilePath)
	if err != nil {
		c.logger.Debugf("Cache validation failed for %s: unable to get file info: %v", data.FilePath, err)
		return ValidateResult{cached: false, reason: MissReasonError}
	}

	if currentInfo.Inode != data.Inode {
		c.logger.Debugf("Cache invalidated for %s: inode changed (cached: %d, current: %d)",
			data.FilePath, data.Inode, currentInfo.Inode)
		return ValidateResult{cached: false, reason: MissReasonInode}
	}
	if currentInfo.Size != data.FileSize {
		c.logger.Debugf("Cache invalidated for %s: size changed (cached: %d, current: %d)",
			data.FilePath, data.FileSize, currentInfo.Size)
		return ValidateResult{cached: false, reason: MissReasonSize}
	}
	if currentInfo.ModTime != data.LastModified {
		c.logger.Debugf("Cache invalidated for %s: modtime changed (cached: %d, current: %d)",
			data.FilePath, data.LastModified, currentInfo.ModTime)
		return ValidateResult{cached: false, reason: MissReasonModTime}
	}

	// Old files are append-only history; metadata alone is trusted.
	modTime := time.Unix(currentInfo.ModTime, 0)
	if time.Since(modTime) > constants.FingerprintSkipAge {
		return ValidateResult{cached: true, reason: MissReasonNone}
	}

	if data.ContentFingerprint == "" {
		c.logger.Debugf("Cache invalidated for %s: no fingerprint in cached data", data.FilePath)
		return ValidateResult{cached: false, reason: MissReasonNoFingerprint}
	}

	fingerprint, err := util.CalculateFileFingerprint(data.FilePath)
	if err != nil {
		c.logger.Debugf("Cache invalidated for %s: unable to calculate fingerprint: %v", data.FilePath, err)
		return ValidateResult{cached: false, reason: MissReasonNoFingerprint}
	}

	if fingerprint != data.ContentFingerprint {
		c.logger.Debugf("Cache invalidated for %s: fingerprint mismatch (cached: %s, current: %s)",
			data.FilePath, data.ContentFingerprint, fingerprint)
		return ValidateResult{cached: false, reason: MissReasonFingerprint}
	}
	return ValidateResult{cached: true, reason: MissReasonNone}
}

// Set stamps data with the current file metadata and rules, then stores it
// on disk and in memory.
func (c *FileCache) Set(key string, data *FileResult) error {
	if Key(data.FilePath) != key {
		return fmt.Errorf("cache key %s does not match %s", key, data.FilePath)
	}

	fileInfo, err := util.GetFileInfo(data.FilePath)
	if err != nil {
		return fmt.Errorf("stat %s: %w", data.FilePath, err)
	}

	data.LastModified = fileInfo.ModTime
	data.FileSize = fileInfo.Size
	data.Inode = fileInfo.Inode
	data.Rules = c.rules

	if fingerprint, err := util.CalculateFileFingerprint(data.FilePath); err == nil {
		data.ContentFingerprint = fingerprint
	}

	encoded, err := sonic.ConfigStd.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("encode cache entry %s: %w", key, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.WriteFile(c.cachePath(key), encoded, 0644); err != nil {
		return fmt.Errorf("write cache entry %s: %w", key, err)
	}
	c.memoryCache[key] = data

	return nil
}

func (c *FileCache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.memoryCache = make(map[string]*FileResult)

	return filepath.Walk(c.baseDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if !info.IsDir() && filepath.Ext(path) == ".json" {
			if err := os.Remove(path); err != nil {
				return err
			}
		}

		return nil
	})
}

func (c *FileCache) listCacheFiles() ([]string, error) {
	var cacheFiles []string
	err := filepath.Walk(c.baseDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && strings.HasSuffix(strings.ToLower(path), ".json") {
			cacheFiles = append(cacheFiles, path)
		}
		return nil
	})
	return cacheFiles, err
}

// Preload reads every cache file into memory with a worker pool, keeping
// only entries that still validate.
func (c *FileCache) Preload() error {
	c.logger.Debug("Start preloading cache files into memory")

	cacheFiles, err := c.listCacheFiles()
	if err != nil {
		return fmt.Errorf("scan cache directory: %w", err)
	}

	if len(cacheFiles) == 0 {
		c.logger.Debug("Cache directory is empty, skipping preload")
		return nil
	}

	numWorkers := runtime.NumCPU()
	if numWorkers > len(cacheFiles) {
		numWorkers = len(cacheFiles)
	}

	filesChan := make(chan string, len(cacheFiles))
	resultsChan := make(chan preloadResult, len(cacheFiles))

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go c.preloadWorker(filesChan, resultsChan, &wg)
	}

	for _, file := range cacheFiles {
		filesChan <- file
	}
	close(filesChan)

	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	loaded, invalid, failed := 0, 0, 0

	c.mu.Lock()
	for result := range resultsChan {
		switch {
		case result.err != nil:
			failed++
			c.logger.Warnf("Failed to preload cache file %s: %v", result.filePath, result.err)
		case c.validateCachedData(result.key, result.data).cached:
			c.memoryCache[result.key] = result.data
			loaded++
		default:
			invalid++
		}
	}
	c.mu.Unlock()

	c.logger.Debugf("Cache preload complete: %d loaded, %d invalid, %d errors (total %d)",
		loaded, invalid, failed, len(cacheFiles))
	return nil
}

type preloadResult struct {
	filePath string
	key      string
	data     *FileResult
	err      error
}

func (c *FileCache) preloadWorker(filesChan <-chan string, resultsChan chan<- preloadResult, wg *sync.WaitGroup) {
	defer wg.Done()

	for filePath := range filesChan {
		result := preloadResult{
			filePath: filePath,
			key:      fileStem(filePath),
		}

		data, err := readResult(filePath)
		if err != nil {
			result.err = err
		} else {
			result.data = data
		}
		resultsChan <- result
	}
}

func (c *FileCache) GetCacheStats() (memoryCount, fileCount int) {
	files, _ := c.listCacheFiles()

	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.memoryCache), len(files)
}

type BatchValidateResult struct {
	Valid      bool
	MissReason CacheMissReason
}

func (c *FileCache) BatchValidate(keys []string) map[string]BatchValidateResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	result := make(map[string]BatchValidateResult, len(keys))
	validCount := 0
	for _, key := range keys {
		lookup := c.lookup(key)
		result[key] = BatchValidateResult{Valid: lookup.Found, MissReason: lookup.MissReason}
		if lookup.Found {
			validCount++
		}
	}

	c.logger.Debugf("Batch validation complete: %d files, %d valid", len(keys), validCount)

	return result
}

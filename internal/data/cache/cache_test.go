package cache

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/penwyp/go-claude-latency/internal/core/model"
	"github.com/penwyp/go-claude-latency/internal/data/parser"
)

const testRules = "v1;gap=15m0s;width=80"

func newTestCache(t *testing.T) *FileCache {
	t.Helper()
	cache, err := NewFileCache(filepath.Join(t.TempDir(), "cache"), testRules, nil)
	require.NoError(t, err)
	return cache
}

func writeSession(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "session.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func sampleResult(path string) *FileResult {
	trigger := time.Date(2025, 1, 2, 10, 0, 0, 0, time.UTC)
	return &FileResult{
		SessionID:   "s1",
		FilePath:    path,
		ProjectPath: "-home-u-app",
		Turns: []model.Turn{{
			SessionID:              "s1",
			TriggerTimestamp:       trigger,
			TriggerText:            "hello",
			FirstResponseTimestamp: trigger.Add(1500 * time.Millisecond),
			LastResponseTimestamp:  trigger.Add(3 * time.Second),
			ActivityCount:          2,
		}},
		Decode: parser.DecodeStats{Lines: 3, Decoded: 3},
	}
}

func TestNewFileCacheInvalidDirectory(t *testing.T) {
	filePath := filepath.Join(t.TempDir(), "file.txt")
	require.NoError(t, os.WriteFile(filePath, []byte("content"), 0644))

	cache, err := NewFileCache(filepath.Join(filePath, "subdir"), testRules, nil)

	assert.Error(t, err)
	assert.Nil(t, cache)
}

func TestFileCacheSetAndGet(t *testing.T) {
	cache := newTestCache(t)
	path := writeSession(t, `{"type":"user"}`)
	key := Key(path)

	require.NoError(t, cache.Set(key, sampleResult(path)))

	result := cache.Get(key)
	require.True(t, result.Found)
	assert.Equal(t, MissReasonNone, result.MissReason)
	assert.Equal(t, "s1", result.Data.SessionID)
	assert.Equal(t, testRules, result.Data.Rules)
	assert.NotZero(t, result.Data.Inode)
	assert.NotEmpty(t, result.Data.ContentFingerprint)
	require.Len(t, result.Data.Turns, 1)
	assert.Equal(t, int64(1500), result.Data.Turns[0].LatencyMs())

	_, err := os.Stat(filepath.Join(cache.baseDir, key+".json"))
	assert.NoError(t, err)
}

func TestFileCacheGetFromDisk(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cache")
	path := writeSession(t, `{"type":"user"}`)

	writer, err := NewFileCache(dir, testRules, nil)
	require.NoError(t, err)
	require.NoError(t, writer.Set(Key(path), sampleResult(path)))

	reader, err := NewFileCache(dir, testRules, nil)
	require.NoError(t, err)

	result := reader.Get(Key(path))
	require.True(t, result.Found)
	assert.Equal(t, "hello", result.Data.Turns[0].TriggerText)
	assert.True(t, result.Data.Turns[0].TriggerTimestamp.Equal(time.Date(2025, 1, 2, 10, 0, 0, 0, time.UTC)))
}

func TestFileCacheGetNonExistent(t *testing.T) {
	result := newTestCache(t).Get("missing")

	assert.False(t, result.Found)
	assert.Nil(t, result.Data)
	assert.Equal(t, MissReasonNotFound, result.MissReason)
}

func TestFileCacheInvalidJSON(t *testing.T) {
	cache := newTestCache(t)
	require.NoError(t, os.WriteFile(filepath.Join(cache.baseDir, "bad.json"), []byte("{not json"), 0644))

	result := cache.Get("bad")
	assert.False(t, result.Found)
	assert.Equal(t, MissReasonError, result.MissReason)
}

func TestFileCacheInvalidatesOnChange(t *testing.T) {
	cache := newTestCache(t)
	path := writeSession(t, `{"type":"user"}`)
	require.NoError(t, cache.Set(Key(path), sampleResult(path)))

	require.NoError(t, os.WriteFile(path, []byte(`{"type":"user"}`+"\n"+`{"type":"assistant"}`), 0644))

	result := cache.Get(Key(path))
	assert.False(t, result.Found)
	assert.Equal(t, MissReasonSize, result.MissReason)
}

func TestFileCacheFingerprintCatchesSameSizeRewrite(t *testing.T) {
	cache := newTestCache(t)
	path := writeSession(t, "aaaa")
	require.NoError(t, cache.Set(Key(path), sampleResult(path)))

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, []byte("bbbb"), 0644))
	require.NoError(t, os.Chtimes(path, info.ModTime(), info.ModTime()))

	result := cache.Get(Key(path))
	assert.False(t, result.Found)
	assert.Equal(t, MissReasonFingerprint, result.MissReason)
}

func TestFileCacheOldFileSkipsFingerprint(t *testing.T) {
	cache := newTestCache(t)
	path := writeSession(t, "aaaa")
	old := time.Now().Add(-72 * time.Hour)
	require.NoError(t, os.Chtimes(path, old, old))

	data := sampleResult(path)
	require.NoError(t, cache.Set(Key(path), data))
	data.ContentFingerprint = ""

	assert.True(t, cache.validateCachedData(Key(path), data).cached)
}

func TestFileCacheRulesChange(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cache")
	path := writeSession(t, `{"type":"user"}`)

	writer, err := NewFileCache(dir, Rules(15*time.Minute, 80), nil)
	require.NoError(t, err)
	require.NoError(t, writer.Set(Key(path), sampleResult(path)))

	reader, err := NewFileCache(dir, Rules(5*time.Minute, 80), nil)
	require.NoError(t, err)

	result := reader.Get(Key(path))
	assert.False(t, result.Found)
	assert.Equal(t, MissReasonRules, result.MissReason)
}

func TestFileCacheTextWidthChange(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cache")
	path := writeSession(t, `{"type":"user"}`)

	writer, err := NewFileCache(dir, Rules(15*time.Minute, 80), nil)
	require.NoError(t, err)
	require.NoError(t, writer.Set(Key(path), sampleResult(path)))

	reader, err := NewFileCache(dir, Rules(15*time.Minute, 20), nil)
	require.NoError(t, err)

	result := reader.Get(Key(path))
	assert.False(t, result.Found)
	assert.Equal(t, MissReasonRules, result.MissReason)
}

func TestRules(t *testing.T) {
	assert.Equal(t, "v1;gap=15m0s;width=80", Rules(15*time.Minute, 80))
	assert.NotEqual(t, Rules(time.Minute, 80), Rules(2*time.Minute, 80))
	assert.NotEqual(t, Rules(time.Minute, 80), Rules(time.Minute, 40))
}

func TestKeyDistinguishesProjects(t *testing.T) {
	a := Key("/home/u/.claude/projects/-work-a/dup.jsonl")
	b := Key("/home/u/.claude/projects/-work-b/dup.jsonl")

	assert.NotEqual(t, a, b)
	assert.True(t, strings.HasPrefix(a, "dup_"))
	assert.Equal(t, a, Key("/home/u/.claude/projects/-work-a/./dup.jsonl"))
}

func TestFileCacheRejectsEntryForOtherPath(t *testing.T) {
	cache := newTestCache(t)
	first := writeSession(t, `{"type":"user"}`)
	second := writeSession(t, `{"type":"user"}`)
	require.NoError(t, cache.Set(Key(first), sampleResult(first)))

	// Simulate an entry written under the old session-id key layout.
	require.NoError(t, os.Rename(
		filepath.Join(cache.baseDir, Key(first)+".json"),
		filepath.Join(cache.baseDir, Key(second)+".json"),
	))
	cache.memoryCache = make(map[string]*FileResult)

	result := cache.Get(Key(second))
	assert.False(t, result.Found)
	assert.Equal(t, MissReasonPath, result.MissReason)
}

func TestFileCacheSetRejectsMismatchedKey(t *testing.T) {
	cache := newTestCache(t)
	path := writeSession(t, `{"type":"user"}`)

	assert.Error(t, cache.Set("s1", sampleResult(path)))
	assert.False(t, cache.Get("s1").Found)
}

func TestFileCacheClear(t *testing.T) {
	cache := newTestCache(t)
	path := writeSession(t, `{"type":"user"}`)
	require.NoError(t, cache.Set(Key(path), sampleResult(path)))

	require.NoError(t, cache.Clear())

	assert.Empty(t, cache.memoryCache)
	memory, files := cache.GetCacheStats()
	assert.Zero(t, memory)
	assert.Zero(t, files)
	assert.False(t, cache.Get(Key(path)).Found)
}

func TestFileCachePreload(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cache")
	path := writeSession(t, `{"type":"user"}`)

	writer, err := NewFileCache(dir, testRules, nil)
	require.NoError(t, err)
	require.NoError(t, writer.Set(Key(path), sampleResult(path)))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{"), 0644))

	reader, err := NewFileCache(dir, testRules, nil)
	require.NoError(t, err)
	require.NoError(t, reader.Preload())

	memory, files := reader.GetCacheStats()
	assert.Equal(t, 1, memory)
	assert.Equal(t, 2, files)
}

func TestFileCachePreloadEmptyDirectory(t *testing.T) {
	assert.NoError(t, newTestCache(t).Preload())
}

func TestFileCacheBatchValidate(t *testing.T) {
	cache := newTestCache(t)
	path := writeSession(t, `{"type":"user"}`)
	require.NoError(t, cache.Set(Key(path), sampleResult(path)))

	results := cache.BatchValidate([]string{Key(path), "s2"})

	require.Len(t, results, 2)
	assert.True(t, results[Key(path)].Valid)
	assert.False(t, results["s2"].Valid)
	assert.Equal(t, MissReasonNotFound, results["s2"].MissReason)
}

func TestFileCacheConcurrentAccess(t *testing.T) {
	cache := newTestCache(t)
	path := writeSession(t, `{"type":"user"}`)
	require.NoError(t, cache.Set(Key(path), sampleResult(path)))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				assert.True(t, cache.Get(Key(path)).Found)
				cache.BatchValidate([]string{Key(path), "other"})
			}
		}()
	}
	wg.Wait()
}

func TestCacheMissReasonString(t *testing.T) {
	assert.Equal(t, "hit", MissReasonNone.String())
	assert.Equal(t, "rules changed", MissReasonRules.String())
	assert.Equal(t, "path mismatch", MissReasonPath.String())
	assert.Equal(t, "fingerprint mismatch", MissReasonFingerprint.String())
	assert.Equal(t, "unknown", CacheMissReason(99).String())
}

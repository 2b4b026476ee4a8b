package code_normalizer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/meysamhadeli/codesim/code_normalizer/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test cache manager setup and basic operations
func TestCacheManager_BasicOperations(t *testing.T) {
	tempDir := t.TempDir()

	cacheManager, err := NewCacheManager(tempDir)
	require.NoError(t, err)
	require.NotNil(t, cacheManager)
	assert.Equal(t, tempDir, cacheManager.CacheDir())

	source := []byte("x = 1\n")
	tokens := models.TokenSequence{Placeholder, "=", "1"}

	cached, found := cacheManager.GetTokenCache(string(ModeToken), source)
	assert.False(t, found) // Should not be cached initially
	assert.Nil(t, cached)

	require.NoError(t, cacheManager.SetTokenCache(string(ModeToken), source, tokens))

	cached, found = cacheManager.GetTokenCache(string(ModeToken), source)
	assert.True(t, found)
	assert.Equal(t, tokens, cached)
}

// Entries are keyed by content and mode, so edits and mode switches miss
func TestCacheManager_ContentAndModeKeyed(t *testing.T) {
	cacheManager, err := NewCacheManager(t.TempDir())
	require.NoError(t, err)

	source := []byte("x = 1\n")
	require.NoError(t, cacheManager.SetTokenCache(string(ModeToken), source, models.TokenSequence{"a"}))

	_, found := cacheManager.GetTokenCache(string(ModeSubstring), source)
	assert.False(t, found)

	_, found = cacheManager.GetTokenCache(string(ModeToken), []byte("x = 2\n"))
	assert.False(t, found)

	_, found = cacheManager.GetTokenCache(string(ModeToken), source)
	assert.True(t, found)
}

func TestCacheManager_Statistics(t *testing.T) {
	cacheManager, err := NewCacheManager(t.TempDir())
	require.NoError(t, err)

	source := []byte("y = 2\n")
	cacheManager.GetTokenCache(string(ModeToken), source) // miss
	require.NoError(t, cacheManager.SetTokenCache(string(ModeToken), source, models.TokenSequence{"y"}))
	cacheManager.GetTokenCache(string(ModeToken), source) // hit
	cacheManager.GetTokenCache(string(ModeToken), source) // hit

	stats := cacheManager.GetPerformanceStats()
	assert.Equal(t, int64(3), stats["total_requests"])
	assert.Equal(t, int64(2), stats["cache_hits"])
	assert.Equal(t, int64(1), stats["cache_misses"])
	assert.InDelta(t, 66.66, stats["hit_rate_percent"], 0.01)

	cacheStats, err := cacheManager.GetCacheStats()
	require.NoError(t, err)
	assert.Equal(t, 1, cacheStats["cache_files"])
	assert.Greater(t, cacheStats["total_size"], int64(0))

	cacheManager.ResetPerformanceStats()
	stats = cacheManager.GetPerformanceStats()
	assert.Equal(t, int64(0), stats["total_requests"])
}

func TestCacheManager_ClearCache(t *testing.T) {
	tempDir := t.TempDir()
	cacheManager, err := NewCacheManager(tempDir)
	require.NoError(t, err)

	for _, src := range []string{"a = 1", "b = 2", "c = 3"} {
		require.NoError(t, cacheManager.SetTokenCache(string(ModeToken), []byte(src), models.TokenSequence{src}))
	}

	// Unrelated files in the cache directory are left alone
	require.NoError(t, os.WriteFile(filepath.Join(tempDir, "notes.txt"), []byte("keep"), 0644))

	deleted, err := cacheManager.ClearCache()
	require.NoError(t, err)
	assert.Equal(t, 3, deleted)

	_, err = os.Stat(filepath.Join(tempDir, "notes.txt"))
	assert.NoError(t, err)

	_, found := cacheManager.GetTokenCache(string(ModeToken), []byte("a = 1"))
	assert.False(t, found)
}

func TestCacheManager_SmartCleanup(t *testing.T) {
	cacheManager, err := NewCacheManager(t.TempDir())
	require.NoError(t, err)

	for _, src := range []string{"a = 1", "b = 2", "c = 3", "d = 4"} {
		require.NoError(t, cacheManager.SetTokenCache(string(ModeToken), []byte(src), models.TokenSequence{src}))
	}

	result, err := cacheManager.SmartCleanupCache(CacheCleanupOptions{MaxFiles: 2, DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, 4, result["files_before_cleanup"])
	assert.Equal(t, 2, result["files_marked_for_delete"])
	assert.Equal(t, true, result["dry_run"])

	stats, err := cacheManager.GetCacheStats()
	require.NoError(t, err)
	assert.Equal(t, 4, stats["cache_files"])

	result, err = cacheManager.SmartCleanupCache(CacheCleanupOptions{MaxFiles: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, result["files_actually_deleted"])
	assert.Equal(t, 2, result["deleted_by_count"])

	stats, err = cacheManager.GetCacheStats()
	require.NoError(t, err)
	assert.Equal(t, 2, stats["cache_files"])
}

func TestCacheManager_CorruptEntryMisses(t *testing.T) {
	cacheManager, err := NewCacheManager(t.TempDir())
	require.NoError(t, err)

	source := []byte("z = 3\n")
	key := tokenCacheKey(string(ModeToken), source)
	path := cacheManager.fileCache.getCachePath(cacheManager.fileCache.generateCacheKey(key))
	require.NoError(t, os.WriteFile(path, []byte("not gob"), 0644))

	_, found := cacheManager.GetTokenCache(string(ModeToken), source)
	assert.False(t, found)
}

func TestCacheIntegration_WithCodeNormalizer(t *testing.T) {
	tempDir := t.TempDir()
	cacheManager, err := NewCacheManager(filepath.Join(tempDir, ".cache"))
	require.NoError(t, err)

	normalizer := NewCodeNormalizer(ModeToken, cacheManager)

	path := filepath.Join(tempDir, "a.py")
	require.NoError(t, os.WriteFile(path, []byte("def f(x):\n    return x\n"), 0644))

	first, err := normalizer.NormalizeFile(context.Background(), path)
	require.NoError(t, err)

	second, err := normalizer.NormalizeFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	stats, err := normalizer.GetCacheStats()
	require.NoError(t, err)
	assert.Equal(t, true, stats["cache_enabled"])
	assert.Equal(t, int64(1), stats["cache_hits"])
	assert.Equal(t, int64(1), stats["cache_misses"])

	deleted, err := normalizer.ClearCache()
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)

	// Counters start over with the emptied cache
	stats, err = normalizer.GetCacheStats()
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats["total_requests"])
	assert.Equal(t, 0, stats["cache_files"])
}

func TestCacheManager_MismatchedEntryIsDropped(t *testing.T) {
	cacheManager, err := NewCacheManager(t.TempDir())
	require.NoError(t, err)

	source := []byte("w = 4\n")
	key := tokenCacheKey(string(ModeToken), source)
	require.NoError(t, cacheManager.fileCache.Set(key, &CacheEntry{
		Tokens:     models.TokenSequence{"stale"},
		Mode:       string(ModeToken),
		SourceSize: int64(len(source)) + 10,
	}))

	_, found := cacheManager.GetTokenCache(string(ModeToken), source)
	assert.False(t, found)

	_, err = os.Stat(cacheManager.fileCache.getCachePath(cacheManager.fileCache.generateCacheKey(key)))
	assert.True(t, os.IsNotExist(err))
}

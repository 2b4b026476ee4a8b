package code_normalizer

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/meysamhadeli/codesim/code_normalizer/models"
	"github.com/zeebo/xxh3"
)

const cacheFileSuffix = ".cache"

// CacheEntry is one cached token sequence with its metadata
type CacheEntry struct {
	Tokens     models.TokenSequence
	Mode       string
	SourceSize int64
	Timestamp  time.Time
	Hash       string
}

// FileCache stores gob-encoded entries, one file per key
type FileCache struct {
	cacheDir string
	mutex    sync.RWMutex
}

// CacheStats tracks cache performance metrics
type CacheStats struct {
	TotalRequests int64
	CacheHits     int64
	CacheMisses   int64
	LastResetTime time.Time
	mutex         sync.RWMutex
}

// CacheManager provides high-level caching of normalized token sequences.
// Entries are addressed by the content they were computed from, so an edited
// file simply misses and stale entries age out through cleanup.
type CacheManager struct {
	fileCache *FileCache
	stats     *CacheStats
}

// CacheCleanupOptions defines options for cache cleanup
type CacheCleanupOptions struct {
	MaxAge   time.Duration // Remove entries older than this
	MaxFiles int           // Remove oldest entries beyond this number of files
	DryRun   bool          // Only report what would be removed
}

// NewCacheManager creates a cache manager rooted at cacheDir.
// If cacheDir is empty, it defaults to ".cache" in the current working directory.
func NewCacheManager(cacheDir string) (*CacheManager, error) {
	if cacheDir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current working directory: %w", err)
		}
		cacheDir = filepath.Join(cwd, ".cache")
	}

	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	cacheManager := &CacheManager{
		fileCache: &FileCache{cacheDir: cacheDir},
		stats: &CacheStats{
			LastResetTime: time.Now(),
		},
	}

	cacheManager.performAutoCleanup()

	return cacheManager, nil
}

// tokenCacheKey identifies a token sequence by replacement mode and source content.
func tokenCacheKey(mode string, source []byte) string {
	h := xxh3.Hash128(append([]byte(mode+"\x00"), source...))
	return fmt.Sprintf("%016x%016x", h.Hi, h.Lo)
}

// generateCacheKey turns a logical key into a cache file name
func (fc *FileCache) generateCacheKey(key string) string {
	return fmt.Sprintf("%016x%s", xxh3.HashString(key), cacheFileSuffix)
}

func (fc *FileCache) getCachePath(cacheKey string) string {
	return filepath.Join(fc.cacheDir, cacheKey)
}

// Get returns the entry stored under key, if any
func (fc *FileCache) Get(key string) (*CacheEntry, bool) {
	fc.mutex.RLock()
	defer fc.mutex.RUnlock()

	data, err := os.ReadFile(fc.getCachePath(fc.generateCacheKey(key)))
	if err != nil {
		return nil, false
	}

	entry, err := decodeEntry(data)
	if err != nil {
		return nil, false
	}
	if entry.Hash != key {
		return nil, false
	}

	return entry, true
}

// Set stores entry under key
func (fc *FileCache) Set(key string, entry *CacheEntry) error {
	fc.mutex.Lock()
	defer fc.mutex.Unlock()

	entry.Hash = key

	var buffer bytes.Buffer
	if err := gob.NewEncoder(&buffer).Encode(entry); err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}

	cachePath := fc.getCachePath(fc.generateCacheKey(key))
	if err := os.WriteFile(cachePath, buffer.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}

	return nil
}

// Delete removes a cache entry
func (fc *FileCache) Delete(key string) error {
	fc.mutex.Lock()
	defer fc.mutex.Unlock()

	cachePath := fc.getCachePath(fc.generateCacheKey(key))
	if err := os.Remove(cachePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete cache file: %w", err)
	}

	return nil
}

func decodeEntry(data []byte) (*CacheEntry, error) {
	var entry CacheEntry
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// GetTokenCache retrieves the token sequence computed for source in the given mode
func (cm *CacheManager) GetTokenCache(mode string, source []byte) (models.TokenSequence, bool) {
	key := tokenCacheKey(mode, source)
	entry, found := cm.fileCache.Get(key)
	if !found {
		cm.recordCacheMiss()
		return nil, false
	}

	// A key collision or an entry written for other content is dropped
	if entry.Mode != mode || entry.SourceSize != int64(len(source)) {
		_ = cm.fileCache.Delete(key)
		cm.recordCacheMiss()
		return nil, false
	}

	cm.recordCacheHit()
	return entry.Tokens, true
}

// SetTokenCache stores the token sequence computed for source in the given mode
func (cm *CacheManager) SetTokenCache(mode string, source []byte, tokens models.TokenSequence) error {
	return cm.fileCache.Set(tokenCacheKey(mode, source), &CacheEntry{
		Tokens:     tokens,
		Mode:       mode,
		SourceSize: int64(len(source)),
		Timestamp:  time.Now(),
	})
}

// listCacheFiles returns the cache files in the cache directory
func (cm *CacheManager) listCacheFiles() ([]os.DirEntry, error) {
	entries, err := os.ReadDir(cm.fileCache.cacheDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read cache directory: %w", err)
	}

	files := make([]os.DirEntry, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), cacheFileSuffix) {
			files = append(files, entry)
		}
	}
	return files, nil
}

// GetCacheStats returns storage statistics of the cache directory
func (cm *CacheManager) GetCacheStats() (map[string]interface{}, error) {
	cm.fileCache.mutex.RLock()
	defer cm.fileCache.mutex.RUnlock()

	files, err := cm.listCacheFiles()
	if err != nil {
		return nil, err
	}

	var totalSize int64
	for _, file := range files {
		if info, err := file.Info(); err == nil {
			totalSize += info.Size()
		}
	}

	return map[string]interface{}{
		"cache_files":   len(files),
		"total_size":    totalSize,
		"total_size_mb": float64(totalSize) / (1024 * 1024),
		"cache_dir":     cm.fileCache.cacheDir,
	}, nil
}

// SmartCleanupCache removes entries older than MaxAge and then the oldest
// entries beyond MaxFiles.
func (cm *CacheManager) SmartCleanupCache(options CacheCleanupOptions) (map[string]interface{}, error) {
	cm.fileCache.mutex.Lock()
	defer cm.fileCache.mutex.Unlock()

	files, err := cm.listCacheFiles()
	if err != nil {
		return nil, err
	}

	type fileInfo struct {
		path     string
		entryAge time.Time
	}

	infos := make([]fileInfo, 0, len(files))
	for _, file := range files {
		cachePath := filepath.Join(cm.fileCache.cacheDir, file.Name())

		// Fall back to the file modification time for unreadable entries
		var entryAge time.Time
		if info, err := file.Info(); err == nil {
			entryAge = info.ModTime()
		}
		if data, err := os.ReadFile(cachePath); err == nil {
			if entry, err := decodeEntry(data); err == nil {
				entryAge = entry.Timestamp
			}
		}

		infos = append(infos, fileInfo{path: cachePath, entryAge: entryAge})
	}

	// Oldest first
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].entryAge.Before(infos[j].entryAge)
	})

	var toDelete []fileInfo
	var deletedByAge, deletedByCount int

	remaining := infos
	if options.MaxAge > 0 {
		cutoff := time.Now().Add(-options.MaxAge)
		kept := remaining[:0:0]
		for _, f := range remaining {
			if f.entryAge.Before(cutoff) {
				toDelete = append(toDelete, f)
				deletedByAge++
			} else {
				kept = append(kept, f)
			}
		}
		remaining = kept
	}

	if options.MaxFiles > 0 && len(remaining) > options.MaxFiles {
		excess := len(remaining) - options.MaxFiles
		toDelete = append(toDelete, remaining[:excess]...)
		deletedByCount = excess
	}

	actuallyDeleted := 0
	if options.DryRun {
		actuallyDeleted = len(toDelete)
	} else {
		for _, f := range toDelete {
			if err := os.Remove(f.path); err == nil {
				actuallyDeleted++
			}
		}
	}

	return map[string]interface{}{
		"files_before_cleanup":    len(infos),
		"files_marked_for_delete": len(toDelete),
		"files_actually_deleted":  actuallyDeleted,
		"deleted_by_age":          deletedByAge,
		"deleted_by_count":        deletedByCount,
		"files_after_cleanup":     len(infos) - actuallyDeleted,
		"dry_run":                 options.DryRun,
	}, nil
}

// performAutoCleanup applies conservative limits: 7 days, 1000 entries
func (cm *CacheManager) performAutoCleanup() {
	_, _ = cm.SmartCleanupCache(CacheCleanupOptions{
		MaxAge:   7 * 24 * time.Hour,
		MaxFiles: 1000,
	})
}

// ClearCache removes all cache entries and returns how many were deleted
func (cm *CacheManager) ClearCache() (int, error) {
	cm.fileCache.mutex.Lock()
	defer cm.fileCache.mutex.Unlock()

	files, err := cm.listCacheFiles()
	if err != nil {
		return 0, err
	}

	deletedCount := 0
	for _, file := range files {
		if err := os.Remove(filepath.Join(cm.fileCache.cacheDir, file.Name())); err == nil {
			deletedCount++
		}
	}

	return deletedCount, nil
}

// CacheDir returns the directory holding cache files
func (cm *CacheManager) CacheDir() string {
	return cm.fileCache.cacheDir
}

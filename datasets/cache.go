package datasets

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/Noofbiz/kand/logging"
)

// cacheVersion is incremented when the on-disk cache format changes.
const cacheVersion = 1

// cacheFormat is the on-disk representation of assembled labels and concepts.
// It includes metadata to validate cache integrity and support upgrades.
type cacheFormat struct {
	Version   int     // format version
	Variant   Variant // layout the records were read from
	Base      string  // absolute base path
	Split     string
	Samples   int   // number of samples covered by the cache
	CreatedAt int64 // unix timestamp when cache was created
	Records   []record
}

type cacheKey struct {
	variant Variant
	base    string
	split   string
	samples int
}

func newCacheKey(v Variant, base, split string, samples int) cacheKey {
	if abs, err := filepath.Abs(base); err == nil {
		base = abs
	}
	return cacheKey{variant: v, base: base, split: split, samples: samples}
}

// saveCache writes records into path as a zstd-compressed gob stream. It
// performs an atomic write (create temp file then rename).
func saveCache(path string, key cacheKey, recs []record) error {
	if path == "" {
		return fmt.Errorf("empty cache path")
	}

	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}

	tmpFile, err := os.CreateTemp(dir, filepath.Base(path)+".tmp.*")
	if err != nil {
		return fmt.Errorf("create temp cache file: %w", err)
	}
	tmpName := tmpFile.Name()
	defer func() {
		tmpFile.Close()
		_ = os.Remove(tmpName)
	}()

	pc := cacheFormat{
		Version:   cacheVersion,
		Variant:   key.variant,
		Base:      key.base,
		Split:     key.split,
		Samples:   key.samples,
		CreatedAt: time.Now().Unix(),
		Records:   recs,
	}
	zw, err := zstd.NewWriter(tmpFile)
	if err != nil {
		return fmt.Errorf("create cache compressor: %w", err)
	}
	if err := gob.NewEncoder(zw).Encode(&pc); err != nil {
		zw.Close()
		return fmt.Errorf("encode cache to temp file: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("flush cache compressor: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		logging.Logger.Warn("sync temp cache file", "err", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("close temp cache file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename temp cache to target: %w", err)
	}
	return nil
}

// loadCache reads records from path and validates that they were built for
// the same layout, base path, split and sample count.
func loadCache(path string, key cacheKey) ([]record, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open cache file %s: %w", path, err)
	}
	defer fh.Close()

	zr, err := zstd.NewReader(fh)
	if err != nil {
		return nil, fmt.Errorf("open cache decompressor: %w", err)
	}
	defer zr.Close()

	var pc cacheFormat
	if err := gob.NewDecoder(zr).Decode(&pc); err != nil {
		return nil, fmt.Errorf("decode cache %s: %w", path, err)
	}
	if pc.Version != cacheVersion {
		return nil, fmt.Errorf("cache version mismatch: cache=%d expected=%d", pc.Version, cacheVersion)
	}
	if pc.Variant != key.variant || pc.Base != key.base || pc.Split != key.split {
		return nil, fmt.Errorf("cache built for %s %s/%s, expected %s %s/%s",
			pc.Variant, pc.Base, pc.Split, key.variant, key.base, key.split)
	}
	if pc.Samples != key.samples || len(pc.Records) != key.samples {
		return nil, fmt.Errorf("cache size mismatch: cache=%d records=%d expected=%d",
			pc.Samples, len(pc.Records), key.samples)
	}
	return pc.Records, nil
}

// cachedRecords returns the records from the cache at path when it matches
// key, and otherwise runs scan and refreshes the cache. An empty path
// disables caching.
func cachedRecords(path string, key cacheKey, scan func() ([]record, error)) ([]record, error) {
	if path == "" {
		return scan()
	}
	recs, err := loadCache(path, key)
	if err == nil {
		logging.Logger.Debug("loaded record cache", "path", path, "samples", len(recs))
		return recs, nil
	}
	logging.Logger.Debug("record cache unusable, rescanning", "path", path, "err", err)

	recs, err = scan()
	if err != nil {
		return nil, err
	}
	if serr := saveCache(path, key, recs); serr != nil {
		logging.Logger.Warn("failed to save record cache", "path", path, "err", serr)
	}
	return recs, nil
}

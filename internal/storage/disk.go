package storage

import (
	"errors"
	"io/fs"
	"path/filepath"
)

// Usage is the on-disk footprint of the generated index files.
type Usage struct {
	IndexBytes    int64 `json:"index_bytes"`
	DatabaseBytes int64 `json:"database_bytes"`
}

// Total returns the combined size.
func (u Usage) Total() int64 {
	return u.IndexBytes + u.DatabaseBytes
}

// MeasureUsage sizes the index artifact and the optional SQLite mirror, including
// its WAL side files. Missing files count as zero.
func MeasureUsage(indexPath, dbPath string) (Usage, error) {
	var u Usage
	var err error
	if u.IndexBytes, err = sizeOf(indexPath); err != nil {
		return Usage{}, err
	}
	if dbPath != "" {
		if u.DatabaseBytes, err = sizeOf(dbPath, dbPath+"-wal", dbPath+"-shm"); err != nil {
			return Usage{}, err
		}
	}
	return u, nil
}

// sizeOf sums files and directory trees; missing paths contribute nothing.
func sizeOf(paths ...string) (int64, error) {
	var total int64
	for _, p := range paths {
		if p == "" {
			continue
		}
		err := filepath.WalkDir(p, func(_ string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			info, err := d.Info()
			if err != nil {
				return err
			}
			total += info.Size()
			return nil
		})
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return 0, err
		}
	}
	return total, nil
}

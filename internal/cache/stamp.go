// Package cache keeps per-subtree document snapshots fresh against the content tree.
package cache

import (
	"io/fs"
	"path/filepath"
	"sort"
	"time"

	"github.com/cespare/xxhash/v2"
)

// Stamp summarizes the state of a directory tree. Two walks of an untouched tree
// produce equal stamps; a touch with a later mtime raises MaxModTime and any
// addition, removal or rename changes Files or PathHash.
type Stamp struct {
	MaxModTime time.Time
	Files      int
	PathHash   uint64
}

// IsZero reports whether the stamp describes an empty or missing tree.
func (s Stamp) IsZero() bool {
	return s.Files == 0 && s.MaxModTime.IsZero() && s.PathHash == 0
}

// Equal reports whether two stamps describe the same tree state.
func (s Stamp) Equal(o Stamp) bool {
	return s.Files == o.Files && s.PathHash == o.PathHash && s.MaxModTime.Equal(o.MaxModTime)
}

// ComputeStamp walks every regular file under dir. Directories contribute nothing and
// unreadable entries are skipped. A missing dir yields the zero stamp.
func ComputeStamp(dir string) Stamp {
	var (
		st    Stamp
		paths []string
	)
	_ = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == dir {
				return err
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		if mt := info.ModTime(); mt.After(st.MaxModTime) {
			st.MaxModTime = mt
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			rel = p
		}
		paths = append(paths, filepath.ToSlash(rel))
		return nil
	})
	if len(paths) == 0 {
		return Stamp{}
	}
	sort.Strings(paths)
	h := xxhash.New()
	for _, p := range paths {
		_, _ = h.WriteString(p)
		_, _ = h.Write([]byte{0})
	}
	st.Files = len(paths)
	st.PathHash = h.Sum64()
	return st
}

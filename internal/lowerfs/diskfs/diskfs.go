// Copyright 2026 The uCore-SMP Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package diskfs implements lowerfs.FS over a real OS directory tree, so
// the inode table and page cache can be exercised end to end without a
// real FAT driver.
package diskfs

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/zouxianyu/uCore-SMP/internal/lowerfs"
)

// FS roots every path at Root, the way a mounted filesystem roots "/" at
// a device. Paths passed to its methods are always absolute slash paths
// relative to Root, matching the inode table's path keys.
type FS struct {
	Root string
}

// New returns an FS rooted at root, which must already exist.
func New(root string) *FS {
	return &FS{Root: root}
}

func (f *FS) native(path string) string {
	return filepath.Join(f.Root, filepath.FromSlash(path))
}

func (f *FS) OpenDir(path string) (lowerfs.Dir, error) {
	entries, err := os.ReadDir(f.native(path))
	if err != nil {
		return nil, err
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	return &dir{native: f.native(path), entries: entries}, nil
}

func (f *FS) OpenFile(path string, mode lowerfs.OpenMode) (lowerfs.File, error) {
	native := f.native(path)

	var flag int
	switch mode {
	case lowerfs.ModeRead:
		flag = os.O_RDONLY
	case lowerfs.ModeReadWrite:
		flag = os.O_RDWR
	case lowerfs.ModeCreateAlways:
		flag = os.O_RDWR | os.O_CREATE | os.O_TRUNC
	}

	fh, err := os.OpenFile(native, flag, 0o644)
	if err != nil {
		return nil, err
	}

	return &file{fh: fh}, nil
}

func (f *FS) Mkdir(path string) error {
	return os.Mkdir(f.native(path), 0o755)
}

func (f *FS) Unlink(path string) error {
	return os.Remove(f.native(path))
}

func (f *FS) Rename(oldPath, newPath string) error {
	return os.Rename(f.native(oldPath), f.native(newPath))
}

func (f *FS) Size(path string) (int64, error) {
	info, err := os.Stat(f.native(path))
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

type dir struct {
	native  string
	entries []os.DirEntry
	pos     int
}

func (d *dir) Next() (lowerfs.DirEntry, bool, error) {
	if d.pos == 0 {
		// Re-read at the start of each pass, so entries created after
		// OpenDir are listed. os.ReadDir returns them sorted by name.
		entries, err := os.ReadDir(d.native)
		if err != nil {
			return lowerfs.DirEntry{}, false, err
		}
		d.entries = entries
	}
	if d.pos >= len(d.entries) {
		return lowerfs.DirEntry{}, false, nil
	}

	e := d.entries[d.pos]
	d.pos++

	return lowerfs.DirEntry{Name: e.Name(), IsDir: e.IsDir()}, true, nil
}

func (d *dir) Rewind() error {
	d.pos = 0
	return nil
}

func (d *dir) Close() error {
	return nil
}

type file struct {
	fh *os.File
}

func (f *file) ReadAt(p []byte, off int64) (int, error) {
	return f.fh.ReadAt(p, off)
}

func (f *file) WriteAt(p []byte, off int64) (int, error) {
	return f.fh.WriteAt(p, off)
}

func (f *file) Size() (int64, error) {
	info, err := f.fh.Stat()
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

func (f *file) Truncate(size int64) error {
	return f.fh.Truncate(size)
}

func (f *file) Close() error {
	return f.fh.Close()
}

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

// Package inode implements the virtual inode layer: a fixed-capacity,
// path-keyed, reference-counted table of open handles sitting in front of
// a lowerfs.FS. See Table for the bulk of the behavior.
package inode

import (
	"github.com/jacobsa/syncutil"

	"github.com/zouxianyu/uCore-SMP/internal/lowerfs"
)

// Type is the closed set of kinds an inode can take. A tagged
// discriminator is used instead of a virtual-method hierarchy, following
// the same choice the teacher makes for its own closed GCS object/implicit
// directory variants.
type Type int

const (
	// TypeNone marks a free table slot.
	TypeNone Type = iota
	TypeDir
	TypeFile
	TypeDevice
)

func (t Type) String() string {
	switch t {
	case TypeDir:
		return "dir"
	case TypeFile:
		return "file"
	case TypeDevice:
		return "device"
	default:
		return "none"
	}
}

// Inode is a live slot in a Table.
//
// Dependencies
//
// table is the owning Table; every ref-count mutation and slot recycle
// goes through it, never through the Inode directly.
//
// Constant data
//
// dev never changes after the slot is populated.
//
// Mutable state
//
// path, typ, major, minor, unlinked, newPath are GUARDED_BY(table.mu).
// dir/file are opened/closed only while holding table.mu (in DirLookup,
// Create, and Put's last-reference branch), but read freely afterward by
// the holder of mu (the per-inode content lock) during I/O — the table
// lock is not held across that I/O, matching §5's lock-ordering note.
type Inode struct {
	table *Table

	dev uint32

	mu syncutil.InvariantMutex // GUARDED_BY: nothing; this *is* inode.lock

	path     string
	typ      Type
	ref      int
	major    int16
	minor    int16
	unlinked bool
	newPath  string

	dir  lowerfs.Dir
	file lowerfs.File
}

func newInode(t *Table) *Inode {
	ip := &Inode{table: t}
	ip.mu = syncutil.NewInvariantMutex(ip.checkInvariants)
	return ip
}

func (ip *Inode) checkInvariants() {
	// The content lock has nothing of its own to check; it exists to give
	// every inode a sleepable mutex per §5, guarding data I/O and state
	// transitions other than ref-count (which stays under table.mu).
}

// Table returns the owning table, so collaborating packages (the page
// cache) can call back into Dup/Put without a direct import cycle.
func (ip *Inode) Table() *Table { return ip.table }

// Path returns the inode's current absolute path. Supplements the
// distilled spec with original_source's ipath accessor.
func (ip *Inode) Path() string { return ip.path }

// Type returns the inode's kind.
func (ip *Inode) Type() Type { return ip.typ }

// Device returns the (major, minor) pair; meaningful only for TypeDevice.
func (ip *Inode) Device() (major, minor int16) { return ip.major, ip.minor }

// File returns the inode's open lower-FS file handle. Valid only for
// TypeFile/TypeDevice inodes; the page cache and byte I/O layers are the
// only callers, and both only ever touch file-typed inodes.
func (ip *Inode) File() lowerfs.File { return ip.file }

// RefCount returns the current reference count. For diagnostics/tests
// only — callers must not use it to decide locking.
func (ip *Inode) RefCount() int {
	ip.table.mu.Lock()
	defer ip.table.mu.Unlock()
	return ip.ref
}

// Lock acquires the inode's content lock. Panics if ref < 1, matching
// ilock's programmer-error check.
func (ip *Inode) Lock() {
	if ref := ip.RefCount(); ref < 1 {
		ip.table.log.Fatalf("inode.Lock: ref count is %d, want >= 1", ref)
	}
	ip.mu.Lock()
}

// Unlock releases the inode's content lock.
func (ip *Inode) Unlock() {
	ip.mu.Unlock()
}

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

package inode

import (
	"encoding/binary"
	"fmt"

	"github.com/jacobsa/syncutil"
	"golang.org/x/sys/unix"

	"github.com/zouxianyu/uCore-SMP/internal/errs"
	"github.com/zouxianyu/uCore-SMP/internal/kconfig"
	"github.com/zouxianyu/uCore-SMP/internal/klog"
	"github.com/zouxianyu/uCore-SMP/internal/lowerfs"
	"github.com/zouxianyu/uCore-SMP/internal/metrics"
)

// CacheInvalidator is the subset of the page cache's surface the table
// needs for Truncate and Link. Defined here (rather than imported from
// internal/pagecache) because the page cache in turn needs *Inode as its
// host type — this interface is how the two packages avoid an import
// cycle while remaining mutually aware.
type CacheInvalidator interface {
	ReleaseAll(ip *Inode) error
}

// Table is the fixed-capacity, path-keyed inode table: LOCK ORDERING
// level 1 (itable.lock), acquired before the page cache's table lock,
// which is acquired before any inode's own content lock.
//
// Dependencies
//
// lfs is the lower FS every slot's handle is opened against. cache, once
// attached, is invalidated by Truncate and Link. log and met are
// optional ambient collaborators (nil-safe).
//
// Constant data
//
// cfg fixes NInode/MaxPath/DirSiz/device-dir constants for the table's
// lifetime.
//
// Mutable state
//
// slots and the ref count/path/type/unlinked/newPath fields of each slot
// are GUARDED_BY(mu).
type Table struct {
	cfg kconfig.Config
	lfs lowerfs.FS
	log *klog.Logger
	met *metrics.Metrics

	cache CacheInvalidator

	mu    syncutil.InvariantMutex
	slots []*Inode // GUARDED_BY(mu)
}

// NewTable allocates a table of cfg.NInode slots backed by lfs. log may
// be nil, in which case klog.Discard() is used.
func NewTable(cfg kconfig.Config, lfs lowerfs.FS, log *klog.Logger, met *metrics.Metrics) *Table {
	if log == nil {
		log = klog.Discard()
	}

	t := &Table{cfg: cfg, lfs: lfs, log: log, met: met}
	t.mu = syncutil.NewInvariantMutex(t.checkInvariants)

	t.slots = make([]*Inode, cfg.NInode)
	for i := range t.slots {
		t.slots[i] = newInode(t)
	}

	return t
}

func (t *Table) checkInvariants() {
	seen := make(map[string]bool)
	for _, ip := range t.slots {
		if ip.ref < 0 {
			panic(fmt.Sprintf("inode table: negative ref count for %q", ip.path))
		}
		if ip.ref == 0 {
			continue
		}
		key := fmt.Sprintf("%d:%s", ip.dev, ip.path)
		if seen[key] {
			panic(fmt.Sprintf("inode table: duplicate live slot for %q", ip.path))
		}
		seen[key] = true
	}
}

// AttachCache wires the page cache in after both have been constructed,
// so Truncate and Link can invalidate cached pages.
func (t *Table) AttachCache(c CacheInvalidator) {
	t.cache = c
}

func (t *Table) occupancy() int {
	n := 0
	for _, ip := range t.slots {
		if ip.ref > 0 {
			n++
		}
	}
	return n
}

func (t *Table) reportOccupancy() {
	if t.met != nil {
		t.met.InodeOccupancy.Set(float64(t.occupancy()))
	}
}

// findLive returns a live slot already holding (dev, path), or nil.
// Must be called with mu held.
func (t *Table) findLive(path string) *Inode {
	for _, ip := range t.slots {
		if ip.ref > 0 && ip.dev == t.cfg.RootDev && ip.path == path {
			return ip
		}
	}
	return nil
}

// findFree returns a free slot, or nil if the table is full. Must be
// called with mu held.
func (t *Table) findFree() *Inode {
	for _, ip := range t.slots {
		if ip.ref == 0 {
			return ip
		}
	}
	return nil
}

// Root returns a ref to the singleton inode for "/", opening a directory
// cursor on the lower FS the first time it is requested.
func (t *Table) Root() *Inode {
	t.mu.Lock()
	defer t.mu.Unlock()

	if ip := t.findLive("/"); ip != nil {
		ip.ref++
		return ip
	}

	ip := t.findFree()
	if ip == nil {
		t.log.Fatalf("inode table exhausted allocating root")
	}

	dir, err := t.lfs.OpenDir("/")
	if err != nil {
		t.log.Fatalf("inode table: opening root directory: %v", err)
	}

	ip.dev = t.cfg.RootDev
	ip.ref = 1
	ip.typ = TypeDir
	ip.path = "/"
	ip.unlinked = false
	ip.newPath = ""
	ip.dir = dir
	ip.file = nil

	t.reportOccupancy()
	return ip
}

// Dup atomically increments ip's reference count.
func (t *Table) Dup(ip *Inode) *Inode {
	t.mu.Lock()
	defer t.mu.Unlock()
	ip.ref++
	return ip
}

// Put atomically decrements ip's reference count. On the last reference,
// while still under the table lock, it closes the lower-FS handle and
// then executes any deferred unlink or rename.
func (t *Table) Put(ip *Inode) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if ip.ref < 1 {
		t.log.Fatalf("inode table: Put on inode with ref count %d", ip.ref)
	}

	if ip.ref == 1 {
		var closeErr error
		if ip.typ == TypeDir {
			closeErr = ip.dir.Close()
		} else {
			closeErr = ip.file.Close()
		}
		if closeErr != nil {
			t.log.Fatalf("inode table: closing %q: %v", ip.path, closeErr)
		}

		switch {
		case ip.unlinked:
			if err := t.lfs.Unlink(ip.path); err != nil {
				t.log.Error("inode table: unlink on last put failed", "path", ip.path, "err", err)
			}
		case ip.newPath != "":
			if err := t.lfs.Rename(ip.path, ip.newPath); err != nil {
				t.log.Fatalf("inode table: rename on last put failed: %v", err)
			}
		}

		ip.dir = nil
		ip.file = nil
		ip.path = ""
		ip.typ = TypeNone
		ip.unlinked = false
		ip.newPath = ""
	}

	ip.ref--
	t.reportOccupancy()
	return nil
}

// DirLookup looks up name within dp, requiring dp to be a directory. It
// reuses any already-live slot for the resulting absolute path, otherwise
// allocates a free slot and probes the lower FS (directory, then file),
// detecting the device and symlink sentinel formats on a plain-file open.
func (t *Table) DirLookup(dp *Inode, name string) (*Inode, error) {
	if dp.typ != TypeDir {
		return nil, errs.ErrTypeMismatch
	}

	path := childPath(dp.path, name)

	t.mu.Lock()

	if ip := t.findLive(path); ip != nil {
		ip.ref++
		t.mu.Unlock()
		return ip, nil
	}

	ip := t.findFree()
	if ip == nil {
		t.mu.Unlock()
		t.log.Fatalf("inode table exhausted in DirLookup for %q", path)
	}

	if dir, err := t.lfs.OpenDir(path); err == nil {
		ip.dev = t.cfg.RootDev
		ip.ref = 1
		ip.typ = TypeDir
		ip.path = path
		ip.unlinked = false
		ip.newPath = ""
		ip.dir = dir
		ip.file = nil
		t.mu.Unlock()
		t.reportOccupancy()
		return ip, nil
	}

	file, err := t.lfs.OpenFile(path, lowerfs.ModeReadWrite)
	if err != nil {
		t.mu.Unlock()
		return nil, errs.ErrNotFound
	}

	resolved, typ, major, minor, err := t.classifyFile(path, file)
	if err != nil {
		t.mu.Unlock()
		return nil, err
	}

	if resolved.path != path {
		if live := t.findLive(resolved.path); live != nil {
			resolved.file.Close()
			live.ref++
			t.mu.Unlock()
			return live, nil
		}
	}

	ip.dev = t.cfg.RootDev
	ip.ref = 1
	ip.typ = typ
	ip.path = resolved.path
	ip.major = major
	ip.minor = minor
	ip.unlinked = false
	ip.newPath = ""
	ip.dir = nil
	ip.file = resolved.file

	t.mu.Unlock()
	t.reportOccupancy()
	return ip, nil
}

type classifiedFile struct {
	path string
	file lowerfs.File
}

// classifyFile inspects an opened plain file for the device/symlink
// sentinels. On a symlink it closes file and reopens the target,
// returning the target's path (the spec's documented aliasing: the
// slot's path becomes the target, the originating name is lost).
func (t *Table) classifyFile(path string, file lowerfs.File) (classifiedFile, Type, int16, int16, error) {
	probeSize := 4 + t.cfg.MaxPath + 1
	if probeSize < deviceRecordSize {
		probeSize = deviceRecordSize
	}

	probe, n, err := readSentinelProbe(file, probeSize)
	if err != nil {
		file.Close()
		return classifiedFile{}, TypeNone, 0, 0, fmt.Errorf("%w: probing %q: %v", errs.ErrIOError, path, err)
	}

	if n >= 4 && binary.LittleEndian.Uint32(probe[0:4]) == t.cfg.DeviceMagic {
		rec, ok := decodeDeviceRecord(probe[:min(n, deviceRecordSize)])
		if !ok {
			file.Close()
			return classifiedFile{}, TypeNone, 0, 0, fmt.Errorf("%w: truncated device record in %q", errs.ErrCorruption, path)
		}
		return classifiedFile{path: path, file: file}, TypeDevice, rec.Major, rec.Minor, nil
	}

	if n >= 4 && binary.LittleEndian.Uint32(probe[0:4]) == t.cfg.SymlinkMagic {
		target, ok := decodeSymlinkRecord(t.cfg.SymlinkMagic, probe, n)
		if !ok {
			file.Close()
			return classifiedFile{}, TypeNone, 0, 0, fmt.Errorf("%w: malformed symlink record in %q", errs.ErrCorruption, path)
		}
		file.Close()
		// Symlink resolution overwrites the slot's path with the target
		// path (aliasing kept deliberately, matching dirlookup's
		// strcpy(inode_ptr->path, symlink_info.path) — see DESIGN.md).
		target2, err := t.lfs.OpenFile(target, lowerfs.ModeReadWrite)
		if err != nil {
			return classifiedFile{}, TypeNone, 0, 0, errs.ErrNotFound
		}
		return classifiedFile{path: target, file: target2}, TypeFile, 0, 0, nil
	}

	return classifiedFile{path: path, file: file}, TypeFile, 0, 0, nil
}

// Create behaves like DirLookup, but on a miss it calls the lower FS's
// creation primitive for the requested type instead of merely opening.
// Re-creating an existing path returns the existing live slot.
func (t *Table) Create(dp *Inode, name string, typ Type, major, minor int16) (*Inode, error) {
	if dp.typ != TypeDir {
		return nil, errs.ErrTypeMismatch
	}

	path := childPath(dp.path, name)

	t.mu.Lock()

	if ip := t.findLive(path); ip != nil {
		ip.ref++
		t.mu.Unlock()
		return ip, nil
	}

	ip := t.findFree()
	if ip == nil {
		t.mu.Unlock()
		t.log.Fatalf("inode table exhausted in Create for %q", path)
	}

	switch typ {
	case TypeDir:
		if err := t.lfs.Mkdir(path); err != nil {
			t.mu.Unlock()
			return nil, fmt.Errorf("%w: mkdir %q: %v", errs.ErrIOError, path, err)
		}
		dir, err := t.lfs.OpenDir(path)
		if err != nil {
			t.mu.Unlock()
			return nil, fmt.Errorf("%w: opendir %q: %v", errs.ErrIOError, path, err)
		}
		ip.dir, ip.file = dir, nil

	case TypeFile:
		file, err := t.lfs.OpenFile(path, lowerfs.ModeCreateAlways)
		if err != nil {
			t.mu.Unlock()
			return nil, fmt.Errorf("%w: create %q: %v", errs.ErrIOError, path, err)
		}
		ip.dir, ip.file = nil, file

	case TypeDevice:
		file, err := t.lfs.OpenFile(path, lowerfs.ModeCreateAlways)
		if err != nil {
			t.mu.Unlock()
			return nil, fmt.Errorf("%w: create %q: %v", errs.ErrIOError, path, err)
		}
		record := encodeDeviceRecord(t.cfg.DeviceMagic, major, minor)
		if _, err := file.WriteAt(record, 0); err != nil {
			file.Close()
			t.mu.Unlock()
			return nil, fmt.Errorf("%w: writing device record for %q: %v", errs.ErrIOError, path, err)
		}
		ip.dir, ip.file = nil, file

	default:
		t.mu.Unlock()
		return nil, fmt.Errorf("%w: unknown inode type %v", errs.ErrTypeMismatch, typ)
	}

	ip.dev = t.cfg.RootDev
	ip.ref = 1
	ip.typ = typ
	ip.path = path
	ip.major = major
	ip.minor = minor
	ip.unlinked = false
	ip.newPath = ""

	t.mu.Unlock()
	t.reportOccupancy()
	return ip, nil
}

// Unlink marks ip to be removed from the lower FS on last put. Mutually
// exclusive with a pending rename — this is the spec's fix for the
// original's independent unlinked/new_path fields (see DESIGN.md).
func (t *Table) Unlink(ip *Inode) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	ip.unlinked = true
	ip.newPath = ""
	return nil
}

// Rename stores newPath for deferred execution at last put. Clears any
// pending unlink, for the same reason as Unlink.
func (t *Table) Rename(ip *Inode, newPath string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	ip.newPath = newPath
	ip.unlinked = false
	return nil
}

// Truncate requires file type; it rewinds and truncates the lower-FS
// file, then immediately drops any cached pages of ip — the spec's
// conservative fix for the original leaving stale post-EOF pages cached
// (see DESIGN.md / §9).
func (t *Table) Truncate(ip *Inode) error {
	if ip.typ != TypeFile {
		return errs.ErrTypeMismatch
	}

	if err := ip.file.Truncate(0); err != nil {
		return fmt.Errorf("%w: truncate %q: %v", errs.ErrIOError, ip.path, err)
	}

	if t.cache != nil {
		if err := t.cache.ReleaseAll(ip); err != nil {
			return err
		}
	}

	return nil
}

// Link writes a symlink record pointing at old.path into newIp, then
// drops any cached pages of newIp so a subsequent open re-reads and
// follows the redirection.
func (t *Table) Link(old, newIp *Inode) error {
	if newIp.typ != TypeFile {
		return errs.ErrTypeMismatch
	}

	record := encodeSymlinkRecord(t.cfg.SymlinkMagic, old.path)
	if _, err := newIp.file.WriteAt(record, 0); err != nil {
		return fmt.Errorf("%w: writing symlink record: %v", errs.ErrIOError, err)
	}
	if err := newIp.file.Truncate(int64(len(record))); err != nil {
		return fmt.Errorf("%w: truncating symlink record: %v", errs.ErrIOError, err)
	}

	if t.cache != nil {
		if err := t.cache.ReleaseAll(newIp); err != nil {
			return err
		}
	}

	return nil
}

// StatInfo is the subset of a POSIX stat structure this layer populates.
type StatInfo struct {
	Dev     uint32
	Rdev    uint64
	Nlink   uint32
	Blksize int32
	Mode    uint32
	Size    int64
	Blocks  int64
}

// Unix mode bits; the lower FS has no notion of these, so they're
// synthesized purely from the inode's Type.
const (
	modeDir  = 0o040000
	modeReg  = 0o100000
	modeChar = 0o020000
)

// Stat reports dev, nlink (always 1 — the lower FS lacks hard links),
// blksize, and type-dependent mode/size.
func (t *Table) Stat(ip *Inode) (StatInfo, error) {
	st := StatInfo{
		Dev:     ip.dev,
		Nlink:   1,
		Blksize: int32(t.cfg.BSize),
	}

	switch ip.typ {
	case TypeDir:
		st.Mode = modeDir
		st.Size = 4
	case TypeFile, TypeDevice:
		if ip.typ == TypeDevice {
			st.Mode = modeChar
			st.Rdev = unix.Mkdev(uint32(ip.major), uint32(ip.minor))
		} else {
			st.Mode = modeReg
		}
		size, err := ip.file.Size()
		if err != nil {
			return StatInfo{}, fmt.Errorf("%w: stat size of %q: %v", errs.ErrIOError, ip.path, err)
		}
		st.Size = size
	default:
		return StatInfo{}, errs.ErrTypeMismatch
	}

	st.Blocks = (st.Size + int64(t.cfg.BSize) - 1) / int64(t.cfg.BSize)
	return st, nil
}

// Directory entry type tags, matching the standard getdents64 d_type
// values (DT_DIR, DT_REG) the original source reuses directly.
const (
	dtDir byte = 4
	dtReg byte = 8
)

// Getdents drives dp's lower-FS directory cursor, filling buf with
// fixed-layout directory records until the next record would overflow
// it. Returns the number of bytes written.
func (t *Table) Getdents(dp *Inode, buf []byte) (int, error) {
	if dp.typ != TypeDir {
		return 0, errs.ErrTypeMismatch
	}

	pos := 0
	for {
		entry, ok, err := dp.dir.Next()
		if err != nil {
			return pos, fmt.Errorf("%w: reading directory %q: %v", errs.ErrIOError, dp.path, err)
		}
		if !ok {
			break
		}

		reclen := 8 + 8 + 2 + 1 + len(entry.Name) + 1
		if pos+reclen > len(buf) {
			break
		}

		dtype := dtReg
		if entry.IsDir {
			dtype = dtDir
		}

		writeDirentHeader(buf[pos:], 0, uint64(pos+reclen), uint16(reclen), dtype, entry.Name)
		pos += reclen
	}

	return pos, nil
}

// writeDirentHeader encodes one getdents record: d_ino, d_off, d_reclen,
// d_type, then the NUL-terminated name, matching the layout in §6.
func writeDirentHeader(dst []byte, ino, off uint64, reclen uint16, dtype byte, name string) {
	binary.LittleEndian.PutUint64(dst[0:8], ino)
	binary.LittleEndian.PutUint64(dst[8:16], off)
	binary.LittleEndian.PutUint16(dst[16:18], reclen)
	dst[18] = dtype
	copy(dst[19:], name)
	dst[19+len(name)] = 0
}

// childPath builds the absolute path of name within a directory whose
// own absolute path is dirPath.
func childPath(dirPath, name string) string {
	if dirPath == "/" {
		return "/" + name
	}
	return dirPath + "/" + name
}


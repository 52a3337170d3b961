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

// Package vfs orchestrates path resolution across the inode table, the
// page cache, and the process table — the driver described in §4.1's
// resolve(path, want_parent), plus the path-addressed operations a
// kernel's syscall layer would dispatch to (out of scope here, per §1).
package vfs

import (
	"fmt"

	"github.com/zouxianyu/uCore-SMP/internal/byteio"
	"github.com/zouxianyu/uCore-SMP/internal/errs"
	"github.com/zouxianyu/uCore-SMP/internal/inode"
	"github.com/zouxianyu/uCore-SMP/internal/kconfig"
	"github.com/zouxianyu/uCore-SMP/internal/klog"
	"github.com/zouxianyu/uCore-SMP/internal/lowerfs"
	"github.com/zouxianyu/uCore-SMP/internal/metrics"
	"github.com/zouxianyu/uCore-SMP/internal/pagealloc"
	"github.com/zouxianyu/uCore-SMP/internal/pagecache"
	"github.com/zouxianyu/uCore-SMP/internal/pathutil"
	"github.com/zouxianyu/uCore-SMP/internal/proctable"
)

// VFS bundles the four components of the OVERVIEW into one facade a CLI
// or test can drive without wiring each package by hand.
//
// Dependencies
//
// Table, Cache, and Proc are constructed together so Truncate/Link can
// invalidate cached pages and Resolve can read/write the working
// directory.
type VFS struct {
	cfg   kconfig.Config
	log   *klog.Logger
	Table *inode.Table
	Cache *pagecache.Cache
	Proc  *proctable.Table
}

// New wires a complete VFS over lfs. met may be nil to disable metrics
// reporting; log may be nil to discard log output.
func New(cfg kconfig.Config, lfs lowerfs.FS, log *klog.Logger, met *metrics.Metrics) *VFS {
	if log == nil {
		log = klog.Discard()
	}

	table := inode.NewTable(cfg, lfs, log, met)
	alloc := pagealloc.NewAllocator(cfg.PageSize)
	cache := pagecache.NewCache(cfg, alloc, log, met)
	table.AttachCache(cache)

	return &VFS{
		cfg:   cfg,
		log:   log,
		Table: table,
		Cache: cache,
		Proc:  proctable.New(),
	}
}

// Resolve drives the name-resolution loop of §4.1 step 3-4. With
// wantParent false it returns the inode the full path names; with
// wantParent true it returns the parent directory and the final
// component's name, stopping one level early.
func (v *VFS) Resolve(path string, wantParent bool) (ip *inode.Inode, lastName string, err error) {
	if v.Proc.WorkingDirectory() == nil {
		v.Proc.SetWorkingDirectory(v.Table.Root())
	}

	if isAbs(path) {
		ip = v.Table.Root()
	} else {
		ip = v.Table.Dup(v.Proc.WorkingDirectory())
	}

	rest := path
	for {
		name, tail, ok := pathutil.NextComponent(rest, v.cfg.DirSiz)
		if !ok {
			break
		}
		rest = tail

		ip.Lock()
		if ip.Type() != inode.TypeDir {
			ip.Unlock()
			v.Table.Put(ip)
			return nil, "", errs.ErrTypeMismatch
		}

		if wantParent && rest == "" {
			ip.Unlock()
			return ip, name, nil
		}

		next, derr := v.Table.DirLookup(ip, name)
		ip.Unlock()
		v.Table.Put(ip)
		if derr != nil {
			return nil, "", derr
		}
		ip = next
		lastName = name
	}

	if wantParent {
		v.Table.Put(ip)
		return nil, "", errs.ErrNotFound
	}

	return ip, lastName, nil
}

func isAbs(path string) bool { return pathutil.IsAbs(path) }

// ReadFile reads up to len(dst) bytes from path at off.
func (v *VFS) ReadFile(path string, dst []byte, off int64) (int, error) {
	ip, _, err := v.Resolve(path, false)
	if err != nil {
		return 0, err
	}
	defer v.Table.Put(ip)

	ip.Lock()
	defer ip.Unlock()

	return byteio.ReadI(v.Cache, ip, dst, off), nil
}

// WriteFile writes src to path at off.
func (v *VFS) WriteFile(path string, src []byte, off int64) (int, error) {
	ip, _, err := v.Resolve(path, false)
	if err != nil {
		return 0, err
	}
	defer v.Table.Put(ip)

	ip.Lock()
	defer ip.Unlock()

	return byteio.WriteI(v.Cache, ip, src, off), nil
}

// Open resolves path and returns the inode, holding one reference the
// caller must Put.
func (v *VFS) Open(path string) (*inode.Inode, error) {
	ip, _, err := v.Resolve(path, false)
	return ip, err
}

// Create resolves path's parent and creates name within it.
func (v *VFS) Create(path string, typ inode.Type, major, minor int16) (*inode.Inode, error) {
	dp, name, err := v.Resolve(path, true)
	if err != nil {
		return nil, err
	}
	defer v.Table.Put(dp)

	dp.Lock()
	defer dp.Unlock()

	return v.Table.Create(dp, name, typ, major, minor)
}

// Mkdir creates a directory at path.
func (v *VFS) Mkdir(path string) error {
	ip, err := v.Create(path, inode.TypeDir, 0, 0)
	if err != nil {
		return err
	}
	return v.Table.Put(ip)
}

// Unlink marks path's inode for removal on last put.
func (v *VFS) Unlink(path string) error {
	ip, _, err := v.Resolve(path, false)
	if err != nil {
		return err
	}
	defer v.Table.Put(ip)

	return v.Table.Unlink(ip)
}

// Rename stores newPath on path's inode for execution on last put.
func (v *VFS) Rename(path, newPath string) error {
	ip, _, err := v.Resolve(path, false)
	if err != nil {
		return err
	}
	defer v.Table.Put(ip)

	return v.Table.Rename(ip, newPath)
}

// Link makes newPath a symlink to oldPath's current target.
func (v *VFS) Link(oldPath, newPath string) error {
	oldIP, _, err := v.Resolve(oldPath, false)
	if err != nil {
		return err
	}
	defer v.Table.Put(oldIP)

	newIP, err := v.Create(newPath, inode.TypeFile, 0, 0)
	if err != nil {
		return err
	}
	defer v.Table.Put(newIP)

	newIP.Lock()
	defer newIP.Unlock()

	return v.Table.Link(oldIP, newIP)
}

// Truncate discards path's contents.
func (v *VFS) Truncate(path string) error {
	ip, _, err := v.Resolve(path, false)
	if err != nil {
		return err
	}
	defer v.Table.Put(ip)

	ip.Lock()
	defer ip.Unlock()

	return v.Table.Truncate(ip)
}

// Stat reports path's inode attributes.
func (v *VFS) Stat(path string) (inode.StatInfo, error) {
	ip, _, err := v.Resolve(path, false)
	if err != nil {
		return inode.StatInfo{}, err
	}
	defer v.Table.Put(ip)

	return v.Table.Stat(ip)
}

// Getdents lists path's directory entries into buf.
func (v *VFS) Getdents(path string, buf []byte) (int, error) {
	ip, _, err := v.Resolve(path, false)
	if err != nil {
		return 0, err
	}
	defer v.Table.Put(ip)

	ip.Lock()
	defer ip.Unlock()

	return v.Table.Getdents(ip, buf)
}

// Teardown flushes and releases every cached page and drops the working
// directory reference, the equivalent of calling release_all(null) at
// shutdown per §9's "Global mutable state" note.
func (v *VFS) Teardown() error {
	if cwd := v.Proc.WorkingDirectory(); cwd != nil {
		v.Table.Put(cwd)
		v.Proc.SetWorkingDirectory(nil)
	}
	if err := v.Cache.ReleaseAll(nil); err != nil {
		return fmt.Errorf("vfs teardown: %w", err)
	}
	return nil
}

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

// Package pagecache is the write-back page cache sitting between byte
// I/O and the lower FS: a fixed-capacity slot table keyed by (inode,
// page-aligned offset), LRU-evicted, with eviction gated on the
// underlying physical page's reference count. This is the centerpiece
// described in §4.3 — see Cache.Acquire.
package pagecache

import (
	"errors"
	"fmt"
	"io"

	"github.com/jacobsa/syncutil"

	"github.com/zouxianyu/uCore-SMP/internal/errs"
	"github.com/zouxianyu/uCore-SMP/internal/inode"
	"github.com/zouxianyu/uCore-SMP/internal/kconfig"
	"github.com/zouxianyu/uCore-SMP/internal/klog"
	"github.com/zouxianyu/uCore-SMP/internal/metrics"
	"github.com/zouxianyu/uCore-SMP/internal/pagealloc"
)

// Slot is one page-cache entry. LOCK ORDERING level 4 (cache_slot.lock):
// acquired after itable.lock, ctable.lock, and the host inode's content
// lock, and returned to Acquire's caller still held.
//
// Mutable state
//
// host, offset, page, valid, dirty are GUARDED_BY(Cache.mu) for
// allocation/teardown, and GUARDED_BY(mu) for content while a caller
// holds it between Acquire and Release.
type Slot struct {
	mu syncutil.InvariantMutex

	host   *inode.Inode
	offset int64
	page   *pagealloc.Page
	valid  bool
	dirty  bool
}

func (s *Slot) checkInvariants() {
	if s.valid && s.page == nil {
		panic("pagecache: valid slot has no page")
	}
}

// Lock acquires the slot's content lock. Exposed so Acquire can return a
// still-locked slot and the caller can release it explicitly.
func (s *Slot) Lock() { s.mu.Lock() }

// Unlock releases the slot's content lock.
func (s *Slot) Unlock() { s.mu.Unlock() }

// Page returns the slot's backing page. Callers must hold the slot lock.
func (s *Slot) Page() *pagealloc.Page { return s.page }

// Dirty reports whether the slot has been mutated since last fill/flush.
func (s *Slot) Dirty() bool { return s.dirty }

// MarkDirty flags the slot dirty; byteio calls this after every write.
func (s *Slot) MarkDirty() { s.dirty = true }

// Offset returns the page-aligned offset the slot caches.
func (s *Slot) Offset() int64 { return s.offset }

// PageSize returns the cache's fixed slot size.
func (c *Cache) PageSize() int { return c.pageSize }

// Cache is the fixed-capacity page-cache table: LOCK ORDERING level 2
// (ctable.lock), acquired after itable.lock and before any cache slot's
// own lock.
//
// Dependencies
//
// Fill and write-back I/O go through each host inode's open lower-FS
// file (Inode.File); alloc supplies physical page frames.
//
// Constant data
//
// pageSize is fixed for the cache's lifetime.
//
// Mutable state
//
// slots and lru are GUARDED_BY(mu).
type Cache struct {
	pageSize int
	alloc    *pagealloc.Allocator
	log      *klog.Logger
	met      *metrics.Metrics

	mu    syncutil.InvariantMutex
	slots []*Slot  // GUARDED_BY(mu)
	lru   []*Slot  // GUARDED_BY(mu); index 0 most recent, trailing nil is the tail
}

var _ inode.CacheInvalidator = (*Cache)(nil)

// NewCache allocates a cache of cfg.NCache slots.
func NewCache(cfg kconfig.Config, alloc *pagealloc.Allocator, log *klog.Logger, met *metrics.Metrics) *Cache {
	if log == nil {
		log = klog.Discard()
	}

	c := &Cache{pageSize: cfg.PageSize, alloc: alloc, log: log, met: met}
	c.mu = syncutil.NewInvariantMutex(c.checkInvariants)

	c.slots = make([]*Slot, cfg.NCache)
	for i := range c.slots {
		s := &Slot{}
		s.mu = syncutil.NewInvariantMutex(s.checkInvariants)
		c.slots[i] = s
	}
	c.lru = make([]*Slot, cfg.NCache)

	return c
}

func (c *Cache) checkInvariants() {
	live := make(map[*Slot]bool)
	byKey := make(map[string]bool)
	for _, s := range c.slots {
		if !s.valid {
			continue
		}
		live[s] = true
		key := fmt.Sprintf("%p:%d", s.host, s.offset)
		if byKey[key] {
			panic("pagecache: duplicate valid slot for (host, offset)")
		}
		byKey[key] = true
		if s.offset%int64(c.pageSize) != 0 {
			panic("pagecache: slot offset is not page-aligned")
		}
	}

	seenLRU := make(map[*Slot]bool)
	for _, s := range c.lru {
		if s == nil {
			continue
		}
		if !live[s] {
			panic("pagecache: LRU entry is not a valid slot")
		}
		if seenLRU[s] {
			panic("pagecache: duplicate LRU entry")
		}
		seenLRU[s] = true
	}
	if len(seenLRU) != len(live) {
		panic("pagecache: LRU entries and valid slots disagree in count")
	}
}

// Acquire finds or creates the slot caching the page-aligned offset of
// ip, filling it from the lower FS on a miss. It returns the slot locked;
// the caller must Unlock it when done. offset must be page-aligned.
func (c *Cache) Acquire(ip *inode.Inode, offset int64) (*Slot, error) {
	if offset%int64(c.pageSize) != 0 {
		c.log.Fatalf("pagecache.Acquire: offset %d is not page-aligned", offset)
	}

	c.mu.Lock()

	// Hit path.
	for _, s := range c.slots {
		s.Lock()
		if s.valid && s.host == ip && s.offset == offset {
			c.lruTouch(s)
			c.mu.Unlock()
			c.reportHit()
			return s, nil
		}
		s.Unlock()
	}

	firstChance := true
findAgain:
	for _, s := range c.slots {
		s.Lock()
		if !s.valid {
			s.host = ip
			s.offset = offset
			s.valid = true
			s.dirty = false
			s.page = c.alloc.Allocate()
			c.mu.Unlock()
			return c.fill(ip, s)
		}
		s.Unlock()
	}

	if firstChance {
		firstChance = false
		c.evictOneLocked()
		goto findAgain
	}

	c.mu.Unlock()
	c.reportMiss()
	return nil, errs.ErrNoSpace
}

// fill seeks and reads up to one page from ip's lower-FS file into s's
// page (s is already locked, table lock already released). Short reads
// at EOF are left zero-padded since the page was freshly allocated.
func (c *Cache) fill(ip *inode.Inode, s *Slot) (*Slot, error) {
	c.reportMiss()

	n, err := ip.File().ReadAt(s.page.Bytes(), s.offset)
	if err != nil && n == 0 && !errors.Is(err, io.EOF) {
		s.valid = false
		s.host = nil
		s.offset = 0
		s.dirty = false
		c.alloc.Recycle(s.page)
		s.page = nil
		s.Unlock()
		return nil, fmt.Errorf("%w: filling cache slot: %v", errs.ErrIOError, err)
	}

	ip.Table().Dup(ip)

	c.mu.Lock()
	c.lruAdd(s)
	c.mu.Unlock()

	return s, nil
}

func (c *Cache) reportHit() {
	if c.met != nil {
		c.met.CacheHits.Inc()
	}
}

func (c *Cache) reportMiss() {
	if c.met != nil {
		c.met.CacheMisses.Inc()
	}
}

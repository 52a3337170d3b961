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

package pagecache

import (
	"fmt"

	"github.com/zouxianyu/uCore-SMP/internal/errs"
	"github.com/zouxianyu/uCore-SMP/internal/inode"
)

// evictOneLocked scans the LRU vector from tail to front for the first
// entry whose physical page has ref count 1 (no external mapping shares
// it). If dirty, it is written back first — a write-back failure is
// fatal, since the cache cannot correctly continue with lost data.
// Caller must hold c.mu.
func (c *Cache) evictOneLocked() bool {
	for i := len(c.lru) - 1; i >= 0; i-- {
		s := c.lru[i]
		if s == nil {
			continue
		}

		s.Lock()
		if s.page.RefCount() != 1 {
			s.Unlock()
			continue
		}

		if s.dirty {
			if err := c.writeBack(s); err != nil {
				c.log.Fatalf("pagecache: write-back failed during eviction: %v", err)
			}
		}

		c.alloc.Recycle(s.page)
		host := s.host

		s.valid = false
		s.host = nil
		s.offset = 0
		s.dirty = false
		s.page = nil
		s.Unlock()

		c.lruRemoveLocked(s)

		// Put acquires itable.lock while ctable.lock (c.mu) is still
		// held, nesting the two in the opposite order from §5's stated
		// acquisition order. The original source does the same (iput
		// from inside ctable_lru_evict) — preserved rather than "fixed",
		// since nothing in the design notes flags it as a defect.
		if err := host.Table().Put(host); err != nil {
			c.log.Fatalf("pagecache: put on eviction failed: %v", err)
		}

		if c.met != nil {
			c.met.CacheEvictions.Inc()
		}

		return true
	}

	return false
}

// writeBack flushes a dirty slot's page to its host's lower-FS file,
// writing min(file_size - offset, pageSize) bytes. Caller must hold the
// slot lock.
func (c *Cache) writeBack(s *Slot) error {
	size, err := s.host.File().Size()
	if err != nil {
		return fmt.Errorf("%w: stat for write-back: %v", errs.ErrIOError, err)
	}

	n := int64(c.pageSize)
	if remaining := size - s.offset; remaining < n {
		n = remaining
	}
	if n <= 0 {
		return nil
	}

	if _, err := s.host.File().WriteAt(s.page.Bytes()[:n], s.offset); err != nil {
		return fmt.Errorf("%w: writing back dirty page: %v", errs.ErrIOError, err)
	}

	return nil
}

// ReleaseAll flushes and tears down every valid slot whose host matches
// ip, or every valid slot if ip is nil. Used on Link (to invalidate a
// just-written symlink) and for global teardown.
func (c *Cache) ReleaseAll(ip *inode.Inode) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, s := range c.slots {
		s.Lock()
		if !s.valid || (ip != nil && s.host != ip) {
			s.Unlock()
			continue
		}

		if s.dirty {
			if err := c.writeBack(s); err != nil {
				s.Unlock()
				c.log.Fatalf("pagecache: write-back failed during ReleaseAll: %v", err)
			}
		}

		if s.page.RefCount() != 1 {
			s.Unlock()
			c.log.Fatalf("pagecache: ReleaseAll found page with ref count %d, want 1", s.page.RefCount())
		}

		c.alloc.Recycle(s.page)
		host := s.host

		s.valid = false
		s.host = nil
		s.offset = 0
		s.dirty = false
		s.page = nil
		s.Unlock()

		c.lruRemoveLocked(s)

		if err := host.Table().Put(host); err != nil {
			return err
		}
	}

	return nil
}

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

// Package byteio translates byte-addressed reads and writes into a
// sequence of page-cache acquisitions plus bounded copies, per §4.4.
package byteio

import (
	"github.com/zouxianyu/uCore-SMP/internal/inode"
	"github.com/zouxianyu/uCore-SMP/internal/pagecache"
)

// ReadI copies up to len(dst) bytes from ip starting at off into dst,
// clamped to the file's current size. Returns 0 (rather than propagating
// an error) on a cache miss or copy failure, matching the original's
// "recoverable, surfaced as 0 bytes" tier.
func ReadI(cache *pagecache.Cache, ip *inode.Inode, dst []byte, off int64) int {
	size, err := ip.File().Size()
	if err != nil {
		return 0
	}
	if off >= size {
		return 0
	}

	n := int64(len(dst))
	if off+n > size {
		n = size - off
	}

	pageSize := int64(cache.PageSize())

	var copied int64
	for copied < n {
		cur := off + copied
		alignedOff := alignDown(cur, pageSize)

		slot, err := cache.Acquire(ip, alignedOff)
		if err != nil {
			return 0
		}

		inPage := cur - alignedOff
		want := pageSize - inPage
		if remaining := n - copied; want > remaining {
			want = remaining
		}

		copy(dst[copied:copied+want], slot.Page().Bytes()[inPage:inPage+want])
		slot.Unlock()

		copied += want
	}

	return int(copied)
}

// WriteI copies len(src) bytes from src into ip starting at off,
// extending the file first if the write would grow it. Each touched
// slot is marked dirty; nothing reaches the lower FS until eviction or
// teardown. Returns 0 (rather than a partial count) on a cache acquire
// failure, symmetric to ReadI.
func WriteI(cache *pagecache.Cache, ip *inode.Inode, src []byte, off int64) int {
	n := int64(len(src))

	size, err := ip.File().Size()
	if err != nil {
		return 0
	}
	if off+n > size {
		if err := ip.File().Truncate(off + n); err != nil {
			return 0
		}
	}

	pageSize := int64(cache.PageSize())

	var copied int64
	for copied < n {
		cur := off + copied
		alignedOff := alignDown(cur, pageSize)

		slot, err := cache.Acquire(ip, alignedOff)
		if err != nil {
			return 0
		}

		inPage := cur - alignedOff
		want := pageSize - inPage
		if remaining := n - copied; want > remaining {
			want = remaining
		}

		copy(slot.Page().Bytes()[inPage:inPage+want], src[copied:copied+want])
		slot.MarkDirty()
		slot.Unlock()

		copied += want
	}

	return int(copied)
}

func alignDown(off, pageSize int64) int64 {
	return off - off%pageSize
}

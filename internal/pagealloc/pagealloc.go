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

// Package pagealloc stands in for the kernel's physical page allocator:
// allocate, recycle, and query the reference count of a fixed-size page
// frame. The page cache is this package's only client; the address-space
// layer that would also hold references to these pages is out of scope.
package pagealloc

import "sync/atomic"

// Page is a physical page frame: a fixed-size buffer with an atomic
// reference count. The page cache holds one reference while a slot is
// valid; a count greater than one means some other subsystem (e.g. a user
// mapping) also holds the page, which is what blocks eviction.
type Page struct {
	buf []byte
	ref int32
}

// Bytes returns the page's backing buffer. Callers must hold whatever
// lock serializes access to the page (the page cache's per-slot mutex).
func (p *Page) Bytes() []byte {
	return p.buf
}

// RefCount returns the current reference count.
func (p *Page) RefCount() int32 {
	return atomic.LoadInt32(&p.ref)
}

// IncRef increments the reference count, for a new subsystem taking a
// share of the page (e.g. mapping it into a process address space).
func (p *Page) IncRef() {
	atomic.AddInt32(&p.ref, 1)
}

// DecRef drops one reference, returning the count after the decrement.
func (p *Page) DecRef() int32 {
	return atomic.AddInt32(&p.ref, -1)
}

// Allocator hands out zeroed pages and recycles them onto a free list for
// reuse, avoiding repeated allocation churn the way a real kernel reuses
// physical frames.
type Allocator struct {
	pageSize int
	free     []*Page
}

// NewAllocator returns an Allocator handing out pages of the given size.
func NewAllocator(pageSize int) *Allocator {
	return &Allocator{pageSize: pageSize}
}

// Allocate returns a zeroed page with ref count 1, reusing a recycled
// frame when one is available.
func (a *Allocator) Allocate() *Page {
	if n := len(a.free); n > 0 {
		p := a.free[n-1]
		a.free = a.free[:n-1]
		clear(p.buf)
		atomic.StoreInt32(&p.ref, 1)
		return p
	}

	return &Page{buf: make([]byte, a.pageSize), ref: 1}
}

// Recycle returns p to the free list. It neither checks nor changes the
// reference count; the page cache recycles a page only while it is the
// sole holder (RefCount() == 1), and Allocate resets the count to 1.
func (a *Allocator) Recycle(p *Page) {
	a.free = append(a.free, p)
}

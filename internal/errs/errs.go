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

// Package errs defines the sentinel error taxonomy shared by the inode
// table, page cache, and byte I/O layers.
package errs

import "errors"

var (
	// ErrNotFound is returned when a lookup finds no matching path, device,
	// or cache slot. Recoverable: callers surface it as a miss, not a crash.
	ErrNotFound = errors.New("not found")

	// ErrNoSpace is returned by the page cache when acquire cannot find or
	// evict a free slot.
	ErrNoSpace = errors.New("no space")

	// ErrIOError wraps a failure from the lower FS. Fatal on write-back
	// paths, recoverable on fill paths — see the call site.
	ErrIOError = errors.New("i/o error")

	// ErrTypeMismatch is returned when an operation requiring a directory
	// (or a file) is given the wrong inode type.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrCorruption is returned when a sentinel record's magic is invalid
	// but the record otherwise claims to be well-formed.
	ErrCorruption = errors.New("corrupt sentinel record")
)

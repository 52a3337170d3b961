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

// Package proctable stands in for the kernel's process table, named only
// by the interface Resolve consumes: the current process's working
// directory.
package proctable

import (
	"sync"

	"github.com/zouxianyu/uCore-SMP/internal/inode"
)

// Table is the minimal per-process state Resolve needs. A real kernel
// would key this by process id; this module only ever drives a single
// logical process (the shell, or a test), so one cwd slot suffices.
type Table struct {
	mu  sync.Mutex
	cwd *inode.Inode
}

// New returns an empty table; the working directory is initialized
// lazily to the root on first Resolve, per §4.1 step 1.
func New() *Table {
	return &Table{}
}

// WorkingDirectory returns the current working directory, or nil if it
// has not yet been initialized.
func (t *Table) WorkingDirectory() *inode.Inode {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cwd
}

// SetWorkingDirectory replaces the working directory.
func (t *Table) SetWorkingDirectory(ip *inode.Inode) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cwd = ip
}

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

package proctable

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/zouxianyu/uCore-SMP/internal/inode"
	"github.com/zouxianyu/uCore-SMP/internal/kconfig"
	"github.com/zouxianyu/uCore-SMP/internal/lowerfs/diskfs"
)

func TestNewTableStartsWithNoWorkingDirectory(t *testing.T) {
	tbl := New()
	assert.Nil(t, tbl.WorkingDirectory())
}

func TestSetWorkingDirectoryRoundTrips(t *testing.T) {
	it := inode.NewTable(kconfig.Default(), diskfs.New(t.TempDir()), nil, nil)
	root := it.Root()

	tbl := New()
	tbl.SetWorkingDirectory(root)

	assert.Same(t, root, tbl.WorkingDirectory())
}

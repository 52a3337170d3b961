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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zouxianyu/uCore-SMP/internal/errs"
	"github.com/zouxianyu/uCore-SMP/internal/kconfig"
	"github.com/zouxianyu/uCore-SMP/internal/lowerfs/diskfs"
)

func newTestTable(t *testing.T) *Table {
	t.Helper()
	return NewTable(kconfig.Default(), diskfs.New(t.TempDir()), nil, nil)
}

func TestRootIsSingleton(t *testing.T) {
	tbl := newTestTable(t)

	a := tbl.Root()
	b := tbl.Root()

	assert.Same(t, a, b)
	assert.Equal(t, 2, a.RefCount())
}

func TestCreateAndDirLookup(t *testing.T) {
	tbl := newTestTable(t)
	root := tbl.Root()

	root.Lock()
	file, err := tbl.Create(root, "a.txt", TypeFile, 0, 0)
	root.Unlock()
	require.NoError(t, err)
	assert.Equal(t, TypeFile, file.Type())
	require.NoError(t, tbl.Put(file))

	root.Lock()
	found, err := tbl.DirLookup(root, "a.txt")
	root.Unlock()
	require.NoError(t, err)
	assert.Equal(t, "/a.txt", found.Path())
	require.NoError(t, tbl.Put(found))

	require.NoError(t, tbl.Put(root))
}

func TestDirLookupMissingReturnsNotFound(t *testing.T) {
	tbl := newTestTable(t)
	root := tbl.Root()
	defer tbl.Put(root)

	root.Lock()
	_, err := tbl.DirLookup(root, "nope.txt")
	root.Unlock()

	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestDirLookupReusesLiveSlot(t *testing.T) {
	tbl := newTestTable(t)
	root := tbl.Root()
	defer tbl.Put(root)

	root.Lock()
	ip, err := tbl.Create(root, "f.txt", TypeFile, 0, 0)
	root.Unlock()
	require.NoError(t, err)
	defer tbl.Put(ip)

	root.Lock()
	again, err := tbl.DirLookup(root, "f.txt")
	root.Unlock()
	require.NoError(t, err)
	defer tbl.Put(again)

	assert.Same(t, ip, again)
	assert.Equal(t, 2, ip.RefCount())
}

func TestUnlinkRemovesOnLastPut(t *testing.T) {
	tbl := newTestTable(t)
	root := tbl.Root()
	defer tbl.Put(root)

	root.Lock()
	ip, err := tbl.Create(root, "doomed.txt", TypeFile, 0, 0)
	root.Unlock()
	require.NoError(t, err)

	require.NoError(t, tbl.Unlink(ip))
	require.NoError(t, tbl.Put(ip))

	root.Lock()
	_, err = tbl.DirLookup(root, "doomed.txt")
	root.Unlock()
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestRenameAppliesOnLastPut(t *testing.T) {
	tbl := newTestTable(t)
	root := tbl.Root()
	defer tbl.Put(root)

	root.Lock()
	ip, err := tbl.Create(root, "old.txt", TypeFile, 0, 0)
	root.Unlock()
	require.NoError(t, err)

	require.NoError(t, tbl.Rename(ip, "/new.txt"))
	require.NoError(t, tbl.Put(ip))

	root.Lock()
	found, err := tbl.DirLookup(root, "new.txt")
	root.Unlock()
	require.NoError(t, err)
	require.NoError(t, tbl.Put(found))
}

func TestCreateDeviceSentinelIsDetectedOnLookup(t *testing.T) {
	tbl := newTestTable(t)
	root := tbl.Root()
	defer tbl.Put(root)

	root.Lock()
	dev, err := tbl.Create(root, "console", TypeDevice, 1, 3)
	root.Unlock()
	require.NoError(t, err)
	require.NoError(t, tbl.Put(dev))

	root.Lock()
	found, err := tbl.DirLookup(root, "console")
	root.Unlock()
	require.NoError(t, err)
	defer tbl.Put(found)

	assert.Equal(t, TypeDevice, found.Type())
	major, minor := found.Device()
	assert.EqualValues(t, 1, major)
	assert.EqualValues(t, 3, minor)
}

func TestLinkCreatesFollowableSymlink(t *testing.T) {
	tbl := newTestTable(t)
	root := tbl.Root()
	defer tbl.Put(root)

	root.Lock()
	target, err := tbl.Create(root, "target.txt", TypeFile, 0, 0)
	root.Unlock()
	require.NoError(t, err)
	defer tbl.Put(target)

	root.Lock()
	link, err := tbl.Create(root, "link.txt", TypeFile, 0, 0)
	root.Unlock()
	require.NoError(t, err)

	link.Lock()
	err = tbl.Link(target, link)
	link.Unlock()
	require.NoError(t, err)
	require.NoError(t, tbl.Put(link))

	root.Lock()
	resolved, err := tbl.DirLookup(root, "link.txt")
	root.Unlock()
	require.NoError(t, err)
	defer tbl.Put(resolved)

	assert.Equal(t, "/target.txt", resolved.Path())
}

func TestStatReportsTypeDependentMode(t *testing.T) {
	tbl := newTestTable(t)
	root := tbl.Root()
	defer tbl.Put(root)

	st, err := tbl.Stat(root)
	require.NoError(t, err)
	assert.EqualValues(t, modeDir, st.Mode)

	root.Lock()
	f, err := tbl.Create(root, "sized.txt", TypeFile, 0, 0)
	root.Unlock()
	require.NoError(t, err)
	defer tbl.Put(f)

	_, err = f.File().WriteAt([]byte("0123456789"), 0)
	require.NoError(t, err)

	st, err = tbl.Stat(f)
	require.NoError(t, err)
	assert.EqualValues(t, modeReg, st.Mode)
	assert.EqualValues(t, 10, st.Size)
}

func TestGetdentsListsCreatedEntries(t *testing.T) {
	tbl := newTestTable(t)
	root := tbl.Root()
	defer tbl.Put(root)

	root.Lock()
	a, err := tbl.Create(root, "a.txt", TypeFile, 0, 0)
	root.Unlock()
	require.NoError(t, err)
	defer tbl.Put(a)

	root.Lock()
	names, err := tbl.Getdents(root, make([]byte, 4096))
	root.Unlock()
	require.NoError(t, err)
	assert.Greater(t, names, 0)
}

func TestPutOnZeroRefIsFatal(t *testing.T) {
	tbl := newTestTable(t)
	root := tbl.Root()
	require.NoError(t, tbl.Put(root))

	assert.Panics(t, func() {
		tbl.Put(root)
	})
}

func TestTableExhaustionIsFatal(t *testing.T) {
	cfg := kconfig.Default()
	cfg.NInode = 1
	tbl := NewTable(cfg, diskfs.New(t.TempDir()), nil, nil)

	root := tbl.Root()
	defer tbl.Put(root)

	root.Lock()
	defer root.Unlock()

	assert.Panics(t, func() {
		tbl.Create(root, "overflow.txt", TypeFile, 0, 0)
	})
}

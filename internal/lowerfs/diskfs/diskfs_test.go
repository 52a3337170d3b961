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

package diskfs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zouxianyu/uCore-SMP/internal/lowerfs"
)

func TestOpenFileCreateAndReadWrite(t *testing.T) {
	fs := New(t.TempDir())

	f, err := fs.OpenFile("/hello.txt", lowerfs.ModeCreateAlways)
	require.NoError(t, err)

	_, err = f.WriteAt([]byte("hello"), 0)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	f, err = fs.OpenFile("/hello.txt", lowerfs.ModeRead)
	require.NoError(t, err)
	defer f.Close()

	size, err := f.Size()
	require.NoError(t, err)
	assert.EqualValues(t, 5, size)

	buf := make([]byte, 5)
	n, err := f.ReadAt(buf, 0)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(buf[:n]))
}

func TestMkdirAndOpenDir(t *testing.T) {
	fs := New(t.TempDir())

	require.NoError(t, fs.Mkdir("/sub"))

	_, err := fs.OpenFile("/sub/a.txt", lowerfs.ModeCreateAlways)
	require.NoError(t, err)

	dir, err := fs.OpenDir("/")
	require.NoError(t, err)
	defer dir.Close()

	entry, ok, err := dir.Next()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "sub", entry.Name)
	assert.True(t, entry.IsDir)

	_, ok, err = dir.Next()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUnlinkAndRename(t *testing.T) {
	fs := New(t.TempDir())

	f, err := fs.OpenFile("/a.txt", lowerfs.ModeCreateAlways)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	require.NoError(t, fs.Rename("/a.txt", "/b.txt"))

	_, err = fs.OpenFile("/a.txt", lowerfs.ModeRead)
	assert.Error(t, err)

	_, err = fs.OpenFile("/b.txt", lowerfs.ModeRead)
	require.NoError(t, err)

	require.NoError(t, fs.Unlink("/b.txt"))

	_, err = fs.OpenFile("/b.txt", lowerfs.ModeRead)
	assert.Error(t, err)
}

func TestTruncate(t *testing.T) {
	fs := New(t.TempDir())

	f, err := fs.OpenFile("/t.txt", lowerfs.ModeCreateAlways)
	require.NoError(t, err)
	defer f.Close()

	_, err = f.WriteAt([]byte("0123456789"), 0)
	require.NoError(t, err)

	require.NoError(t, f.Truncate(4))

	size, err := f.Size()
	require.NoError(t, err)
	assert.EqualValues(t, 4, size)
}

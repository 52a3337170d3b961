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

package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zouxianyu/uCore-SMP/internal/kconfig"
	"github.com/zouxianyu/uCore-SMP/internal/lowerfs/diskfs"
	"github.com/zouxianyu/uCore-SMP/internal/vfs"
)

func newTestMachine(t *testing.T) *vfs.VFS {
	t.Helper()
	return vfs.New(kconfig.Default(), diskfs.New(t.TempDir()), nil, nil)
}

func TestShellMkdirTouchLs(t *testing.T) {
	machine := newTestMachine(t)
	defer machine.Teardown()

	script := "mkdir /a\ntouch /a/f.txt\nls /a\nexit\n"
	var out bytes.Buffer

	require.NoError(t, runShell(machine, strings.NewReader(script), &out))
	assert.Contains(t, out.String(), "f f.txt")
}

func TestShellWriteCat(t *testing.T) {
	machine := newTestMachine(t)
	defer machine.Teardown()

	script := "touch /f.txt\nwrite /f.txt hello there\ncat /f.txt\nexit\n"
	var out bytes.Buffer

	require.NoError(t, runShell(machine, strings.NewReader(script), &out))
	assert.Contains(t, out.String(), "hello there")
}

func TestShellRmThenStatErrors(t *testing.T) {
	machine := newTestMachine(t)
	defer machine.Teardown()

	script := "touch /f.txt\nrm /f.txt\nstat /f.txt\nexit\n"
	var out bytes.Buffer

	require.NoError(t, runShell(machine, strings.NewReader(script), &out))
	assert.Contains(t, out.String(), "error:")
}

func TestShellUnknownCommand(t *testing.T) {
	machine := newTestMachine(t)
	defer machine.Teardown()

	var out bytes.Buffer
	require.NoError(t, runShell(machine, strings.NewReader("bogus\nexit\n"), &out))
	assert.Contains(t, out.String(), `unknown command "bogus"`)
}

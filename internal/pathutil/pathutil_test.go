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

package pathutil_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/zouxianyu/uCore-SMP/internal/pathutil"
)

func TestNextComponent(t *testing.T) {
	cases := []struct {
		path string
		name string
		rest string
		ok   bool
	}{
		{"a/bb/c", "a", "bb/c", true},
		{"///a//bb", "a", "bb", true},
		{"a", "a", "", true},
		{"", "", "", false},
		{"////", "", "", false},
		{"/", "", "", false},
	}

	for _, c := range cases {
		name, rest, ok := pathutil.NextComponent(c.path, 255)
		assert.Equal(t, c.ok, ok, "path %q", c.path)
		if ok {
			assert.Equal(t, c.name, name, "path %q", c.path)
			assert.Equal(t, c.rest, rest, "path %q", c.path)
		}
	}
}

func TestNextComponentTruncatesLongComponent(t *testing.T) {
	name, rest, ok := pathutil.NextComponent("abcdef/g", 3)
	assert.True(t, ok)
	assert.Equal(t, "abc", name)
	assert.Equal(t, "g", rest)
}

func TestJoin(t *testing.T) {
	assert.Equal(t, "/a", pathutil.Join("/", "a"))
	assert.Equal(t, "/a/b", pathutil.Join("/a", "b"))
}

func TestIsAbs(t *testing.T) {
	assert.True(t, pathutil.IsAbs("/a"))
	assert.False(t, pathutil.IsAbs("a"))
	assert.False(t, pathutil.IsAbs(""))
}

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

// Package pathutil splits and normalizes the absolute path strings the
// inode table keys on.
package pathutil

// NextComponent skips leading separators, copies up to the next separator
// (bounded by dirSiz) into name, and skips trailing separators in rest.
// ok is false iff path contains no name.
//
//	NextComponent("a/bb/c", 255)   = ("a", "bb/c", true)
//	NextComponent("///a//bb", 255) = ("a", "bb", true)
//	NextComponent("a", 255)        = ("a", "", true)
//	NextComponent("", 255)         = ("", "", false)
func NextComponent(path string, dirSiz int) (name, rest string, ok bool) {
	i := 0
	for i < len(path) && path[i] == '/' {
		i++
	}
	if i == len(path) {
		return "", "", false
	}

	start := i
	for i < len(path) && path[i] != '/' {
		i++
	}
	end := i
	if end-start > dirSiz {
		end = start + dirSiz
	}
	name = path[start:end]

	for i < len(path) && path[i] == '/' {
		i++
	}
	rest = path[i:]

	return name, rest, true
}

// IsAbs reports whether path begins with a separator.
func IsAbs(path string) bool {
	return len(path) > 0 && path[0] == '/'
}

// Join joins dir and name with exactly one separator, the way dirlookup
// builds the absolute path of a directory entry.
func Join(dir, name string) string {
	if dir == "/" {
		return "/" + name
	}
	return dir + "/" + name
}

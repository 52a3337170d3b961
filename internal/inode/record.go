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
	"encoding/binary"

	"github.com/zouxianyu/uCore-SMP/internal/lowerfs"
)

// deviceRecordSize is magic(4) + major(2) + minor(2), the entire content
// of a device sentinel file.
const deviceRecordSize = 8

type deviceRecord struct {
	Magic uint32
	Major int16
	Minor int16
}

func encodeDeviceRecord(magic uint32, major, minor int16) []byte {
	buf := make([]byte, deviceRecordSize)
	binary.LittleEndian.PutUint32(buf[0:4], magic)
	binary.LittleEndian.PutUint16(buf[4:6], uint16(major))
	binary.LittleEndian.PutUint16(buf[6:8], uint16(minor))
	return buf
}

func decodeDeviceRecord(buf []byte) (deviceRecord, bool) {
	if len(buf) < deviceRecordSize {
		return deviceRecord{}, false
	}
	return deviceRecord{
		Magic: binary.LittleEndian.Uint32(buf[0:4]),
		Major: int16(binary.LittleEndian.Uint16(buf[4:6])),
		Minor: int16(binary.LittleEndian.Uint16(buf[6:8])),
	}, true
}

// encodeSymlinkRecord writes magic followed by the NUL-terminated target
// path, the format ilink's writei calls produce in the original source.
func encodeSymlinkRecord(magic uint32, target string) []byte {
	buf := make([]byte, 4+len(target)+1)
	binary.LittleEndian.PutUint32(buf[0:4], magic)
	copy(buf[4:], target)
	buf[len(buf)-1] = 0
	return buf
}

// decodeSymlinkRecord reports the target path if buf begins with magic
// and a NUL-terminated absolute path, per the symlink sentinel format.
func decodeSymlinkRecord(magic uint32, buf []byte, n int) (string, bool) {
	if n <= 4 {
		return "", false
	}
	if binary.LittleEndian.Uint32(buf[0:4]) != magic {
		return "", false
	}

	rest := buf[4:n]
	nul := -1
	for i, b := range rest {
		if b == 0 {
			nul = i
			break
		}
	}
	if nul < 0 {
		nul = len(rest)
	}

	target := string(rest[:nul])
	if len(target) == 0 || target[0] != '/' {
		return "", false
	}

	return target, true
}

// readSentinelProbe rewinds f and reads up to n bytes, returning what it
// got without treating a short read as an error — dirlookup uses this to
// sniff device/symlink magic before committing to a plain-file open.
func readSentinelProbe(f lowerfs.File, n int) ([]byte, int, error) {
	buf := make([]byte, n)
	read, err := f.ReadAt(buf, 0)
	if err != nil && read == 0 {
		return buf, 0, nil
	}
	return buf, read, nil
}

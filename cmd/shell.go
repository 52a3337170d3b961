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
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/zouxianyu/uCore-SMP/internal/inode"
	"github.com/zouxianyu/uCore-SMP/internal/vfs"
)

// runShell reads one command per line from in, dispatching to the
// corresponding vfs.VFS operation, until EOF or "exit".
func runShell(machine *vfs.VFS, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "ucore-smp> ")
		if !scanner.Scan() {
			break
		}

		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		cmd, args := fields[0], fields[1:]
		if cmd == "exit" || cmd == "quit" {
			break
		}

		if err := dispatch(machine, out, cmd, args); err != nil {
			fmt.Fprintln(out, "error:", err)
		}
	}
	return scanner.Err()
}

func dispatch(machine *vfs.VFS, out io.Writer, cmd string, args []string) error {
	switch cmd {
	case "ls":
		return shellLs(machine, out, requireArg(args, 0, "/"))

	case "cat":
		return shellCat(machine, out, args)

	case "write":
		return shellWrite(machine, args)

	case "mkdir":
		return shellMkdir(machine, args)

	case "touch":
		return shellTouch(machine, args)

	case "rm":
		return shellRm(machine, args)

	case "mv":
		return shellMv(machine, args)

	case "ln":
		return shellLn(machine, args)

	case "stat":
		return shellStat(machine, out, args)

	case "df":
		return shellDf(machine, out)

	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func requireArg(args []string, i int, dflt string) string {
	if i < len(args) {
		return args[i]
	}
	return dflt
}

func shellLs(machine *vfs.VFS, out io.Writer, path string) error {
	buf := make([]byte, 64*1024)
	n, err := machine.Getdents(path, buf)
	if err != nil {
		return err
	}

	pos := 0
	for pos < n {
		reclen := binary.LittleEndian.Uint16(buf[pos+16 : pos+18])
		dtype := buf[pos+18]
		name := cString(buf[pos+19 : pos+int(reclen)])
		kind := "f"
		if dtype == 4 {
			kind = "d"
		}
		fmt.Fprintf(out, "%s %s\n", kind, name)
		pos += int(reclen)
	}
	return nil
}

func cString(b []byte) string {
	if i := strings.IndexByte(string(b), 0); i >= 0 {
		return string(b[:i])
	}
	return string(b)
}

func shellCat(machine *vfs.VFS, out io.Writer, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: cat path")
	}
	buf := make([]byte, 64*1024)
	n, err := machine.ReadFile(args[0], buf, 0)
	if err != nil {
		return err
	}
	_, err = out.Write(buf[:n])
	return err
}

func shellWrite(machine *vfs.VFS, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: write path text...")
	}
	data := strings.Join(args[1:], " ")
	_, err := machine.WriteFile(args[0], []byte(data), 0)
	return err
}

func shellMkdir(machine *vfs.VFS, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: mkdir path")
	}
	return machine.Mkdir(args[0])
}

func shellTouch(machine *vfs.VFS, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: touch path")
	}
	ip, err := machine.Create(args[0], inode.TypeFile, 0, 0)
	if err != nil {
		return err
	}
	return machine.Table.Put(ip)
}

func shellRm(machine *vfs.VFS, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: rm path")
	}
	return machine.Unlink(args[0])
}

func shellMv(machine *vfs.VFS, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: mv src dst")
	}
	return machine.Rename(args[0], args[1])
}

func shellLn(machine *vfs.VFS, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: ln target linkpath")
	}
	return machine.Link(args[0], args[1])
}

func shellStat(machine *vfs.VFS, out io.Writer, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: stat path")
	}
	st, err := machine.Stat(args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "dev=%d rdev=%d nlink=%d mode=%s size=%d blocks=%d blksize=%d\n",
		st.Dev, st.Rdev, st.Nlink, strconv.FormatUint(uint64(st.Mode), 8), st.Size, st.Blocks, st.Blksize)
	return nil
}

func shellDf(machine *vfs.VFS, out io.Writer) error {
	fmt.Fprintf(out, "inode table / page cache occupancy reported via Prometheus metrics\n")
	return nil
}

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

// Package kconfig loads the kernel-wide constants the inode table and page
// cache are sized and keyed by.
package kconfig

import (
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config carries the fixed-capacity and sentinel constants from the
// external interfaces section.
type Config struct {
	// NInode is the capacity of the inode table.
	NInode int `mapstructure:"ninode"`

	// NCache is the capacity of the page cache.
	NCache int `mapstructure:"ncache"`

	// PageSize is the page-cache slot size; offsets acquired from the
	// cache must be a multiple of this.
	PageSize int `mapstructure:"page_size"`

	// MaxPath bounds an absolute path string.
	MaxPath int `mapstructure:"max_path"`

	// DirSiz bounds a single path component copied by NextComponent.
	DirSiz int `mapstructure:"dir_siz"`

	// BSize is the lower-FS block size used for blksize/blocks in stat.
	BSize int `mapstructure:"b_size"`

	// RootDev is the fixed device identifier reported for every inode.
	RootDev uint32 `mapstructure:"root_dev"`

	// DeviceMagic is the leading magic of a device sentinel record.
	DeviceMagic uint32 `mapstructure:"device_magic"`

	// SymlinkMagic is the leading magic of a symlink sentinel record.
	SymlinkMagic uint32 `mapstructure:"symlink_magic"`
}

// Default returns the constants used throughout the test suite and the
// shell's zero-flag invocation.
func Default() Config {
	return Config{
		NInode:       128,
		NCache:       64,
		PageSize:     4096,
		MaxPath:      1024,
		DirSiz:       255,
		BSize:        512,
		RootDev:      1,
		DeviceMagic:  0x44455649, // "DEVI"
		SymlinkMagic: 0x53594d4c, // "SYML"
	}
}

// BindFlags registers the override flags onto fs, in the style of the
// viper/pflag wiring in a cobra command's PersistentFlags.
func BindFlags(fs *pflag.FlagSet, v *viper.Viper) error {
	d := Default()

	fs.Int("ninode", d.NInode, "inode table capacity")
	fs.Int("ncache", d.NCache, "page cache capacity")
	fs.Int("page_size", d.PageSize, "page cache slot size in bytes")
	fs.Int("max_path", d.MaxPath, "maximum absolute path length")
	fs.Int("dir_siz", d.DirSiz, "maximum path component length")
	fs.Int("b_size", d.BSize, "lower FS block size")
	fs.Uint32("root_dev", d.RootDev, "root device identifier")

	for _, name := range []string{"ninode", "ncache", "page_size", "max_path", "dir_siz", "b_size", "root_dev"} {
		if err := v.BindPFlag(name, fs.Lookup(name)); err != nil {
			return err
		}
	}

	return nil
}

// Load reads v into a Config, falling back to Default for anything unset.
func Load(v *viper.Viper) (Config, error) {
	cfg := Default()
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

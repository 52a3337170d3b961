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

// Package cmd is the operator-facing CLI: a root directory is mounted
// under the virtual inode layer and driven from an interactive shell,
// standing in for the syscalls a real kernel would dispatch through.
package cmd

import (
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zouxianyu/uCore-SMP/internal/kconfig"
	"github.com/zouxianyu/uCore-SMP/internal/klog"
	"github.com/zouxianyu/uCore-SMP/internal/lowerfs/diskfs"
	"github.com/zouxianyu/uCore-SMP/internal/metrics"
	"github.com/zouxianyu/uCore-SMP/internal/vfs"
)

var (
	cfgFile  string
	jsonLog  bool
	logLevel string
	mountCfg kconfig.Config
	bindErr  error
	loadErr  error
	v        = viper.New()
)

var rootCmd = &cobra.Command{
	Use:   "ucore-smp [flags] root_dir",
	Short: "Drive the virtual inode layer and page cache over a directory",
	Long: `ucore-smp layers the uCore-SMP inode table and page cache over an
		  ordinary directory on the host filesystem, and opens an
		  interactive shell for exercising ls/cat/write/mkdir/rm/mv/ln/stat.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if bindErr != nil {
			return bindErr
		}
		if loadErr != nil {
			return loadErr
		}

		log := klog.New(klog.Options{
			MinSeverity: severityFromFlag(logLevel),
			JSON:        jsonLog,
		})

		met := metrics.New(prometheus.NewRegistry())

		lfs := diskfs.New(args[0])
		machine := vfs.New(mountCfg, lfs, log, met)
		defer func() {
			if err := machine.Teardown(); err != nil {
				log.Error("teardown failed", "err", err)
			}
		}()

		return runShell(machine, os.Stdin, os.Stdout)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config-file", "", "path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "trace|debug|info|warning|error")
	rootCmd.PersistentFlags().BoolVar(&jsonLog, "log-json", false, "emit structured JSON logs")

	bindErr = kconfig.BindFlags(rootCmd.PersistentFlags(), v)
}

func initConfig() {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			loadErr = fmt.Errorf("reading config file: %w", err)
			return
		}
	}

	mountCfg, loadErr = kconfig.Load(v)
}

func severityFromFlag(s string) klog.Severity {
	switch s {
	case "trace":
		return klog.Trace
	case "debug":
		return klog.Debug
	case "warning":
		return klog.Warning
	case "error":
		return klog.Error
	default:
		return klog.Info
	}
}

// Execute runs the root command, exiting the process on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

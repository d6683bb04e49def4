// Copyright 2022 gorse Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var command = &cobra.Command{
	Use:  "alecc source... [-o output]",
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		configPath, _ := cmd.PersistentFlags().GetString("config")
		config, err := LoadConfig(configPath)
		if err != nil {
			_, _ = fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		target, _ := cmd.PersistentFlags().GetString("target")
		if target == "" {
			target = config.Build.Target
		}
		optimize, _ := cmd.PersistentFlags().GetString("optimize")
		if optimize == "" {
			optimize = config.Build.Optimize
		}
		verbose, _ := cmd.PersistentFlags().GetBool("verbose")
		includeDirs, _ := cmd.PersistentFlags().GetStringSlice("include")
		libraryDirs, _ := cmd.PersistentFlags().GetStringSlice("library-path")
		libraries, _ := cmd.PersistentFlags().GetStringSlice("library")

		options := Options{
			InputFiles:   args,
			Target:       target,
			Optimization: optimize,
			IncludeDirs:  append(config.Paths.IncludeDirs, includeDirs...),
			LibraryDirs:  append(config.Paths.LibraryDirs, libraryDirs...),
			Libraries:    append(config.Paths.Libraries, libraries...),
			Verbose:      verbose || config.Build.Verbose,
		}
		options.Output, _ = cmd.PersistentFlags().GetString("output")
		options.CompileOnly, _ = cmd.PersistentFlags().GetBool("compile")
		options.AssemblyOnly, _ = cmd.PersistentFlags().GetBool("assemble")
		options.PreprocessOnly, _ = cmd.PersistentFlags().GetBool("preprocess")
		options.Defines, _ = cmd.PersistentFlags().GetStringSlice("define")
		options.Static, _ = cmd.PersistentFlags().GetBool("static")
		options.Shared, _ = cmd.PersistentFlags().GetBool("shared")
		options.PIC, _ = cmd.PersistentFlags().GetBool("pic")
		options.PIE, _ = cmd.PersistentFlags().GetBool("pie")
		options.Debug, _ = cmd.PersistentFlags().GetBool("debug")
		options.LTO, _ = cmd.PersistentFlags().GetBool("lto")
		options.Sysroot, _ = cmd.PersistentFlags().GetString("sysroot")

		compiler, err := NewCompiler(options)
		if err != nil {
			_, _ = fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		if err := compiler.Compile(); err != nil {
			_, _ = fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	},
}

func init() {
	command.PersistentFlags().StringP("output", "o", "", "output file name")
	command.PersistentFlags().StringP("target", "t", "", "target architecture (i386, amd64, arm64, native)")
	command.PersistentFlags().BoolP("compile", "c", false, "compile and assemble, but do not link")
	command.PersistentFlags().BoolP("assemble", "S", false, "compile only; do not assemble or link")
	command.PersistentFlags().BoolP("preprocess", "E", false, "preprocess only; do not compile")
	command.PersistentFlags().StringP("optimize", "O", "", "optimization level (0, 1, 2, 3, s, z)")
	command.PersistentFlags().StringSliceP("include", "I", nil, "additional include directory")
	command.PersistentFlags().StringSliceP("library-path", "L", nil, "additional library directory")
	command.PersistentFlags().StringSliceP("library", "l", nil, "library to link")
	command.PersistentFlags().StringSliceP("define", "D", nil, "define a preprocessor macro")
	command.PersistentFlags().Bool("static", false, "produce a statically linked executable")
	command.PersistentFlags().Bool("shared", false, "produce a shared library")
	command.PersistentFlags().Bool("pic", false, "position independent code")
	command.PersistentFlags().Bool("pie", false, "position independent executable")
	command.PersistentFlags().BoolP("debug", "g", false, "keep debug information in the link")
	command.PersistentFlags().Bool("lto", false, "enable link-time optimization")
	command.PersistentFlags().String("sysroot", "", "cross compilation sysroot")
	command.PersistentFlags().String("config", "", "path to alecc.toml")
	command.PersistentFlags().BoolP("verbose", "v", false, "if set, increase verbosity level")
}

func main() {
	if err := command.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

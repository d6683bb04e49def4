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

	"github.com/samber/lo"
)

// Linker builds and runs the host linker command line for one target.
type Linker struct {
	target       Target
	outputPath   string
	objectFiles  []string
	libraryPaths []string
	libraries    []string
	staticLink   bool
	shared       bool
	pic          bool
	pie          bool
	sysroot      string
	debug        bool
	lto          bool
	verbose      bool
}

func NewLinker(target Target) *Linker {
	return &Linker{target: target, outputPath: "a.out"}
}

func (l *Linker) SetOutputPath(path string)  { l.outputPath = path }
func (l *Linker) AddObjectFile(path string)  { l.objectFiles = append(l.objectFiles, path) }
func (l *Linker) AddLibraryPath(path string) { l.libraryPaths = append(l.libraryPaths, path) }
func (l *Linker) AddLibrary(name string)     { l.libraries = append(l.libraries, name) }
func (l *Linker) SetStaticLink(static bool)  { l.staticLink = static }
func (l *Linker) SetShared(shared bool)      { l.shared = shared }
func (l *Linker) SetPIC(pic bool)            { l.pic = pic }
func (l *Linker) SetPIE(pie bool)            { l.pie = pie }
func (l *Linker) SetSysroot(sysroot string)  { l.sysroot = sysroot }
func (l *Linker) SetDebug(debug bool)        { l.debug = debug }
func (l *Linker) SetLTO(lto bool)            { l.lto = lto }
func (l *Linker) SetVerbose(verbose bool)    { l.verbose = verbose }

// dynamicLinkers per target, used for dynamically linked executables.
var dynamicLinkers = map[Target]string{
	I386:  "/lib/ld-linux.so.2",
	Amd64: "/lib64/ld-linux-x86-64.so.2",
	Arm64: "/lib/ld-linux-aarch64.so.1",
}

// standardLibraryPaths per target, appended after -L paths.
var standardLibraryPaths = map[Target][]string{
	I386:  {"/usr/lib/i386-linux-gnu", "/lib/i386-linux-gnu", "/usr/lib32", "/lib32"},
	Amd64: {"/usr/lib/x86_64-linux-gnu", "/lib/x86_64-linux-gnu", "/usr/lib64", "/lib64"},
	Arm64: {"/usr/lib/aarch64-linux-gnu", "/lib/aarch64-linux-gnu"},
}

// Link produces an executable from the collected object files.
func (l *Linker) Link() error {
	if len(l.objectFiles) == 0 {
		return &LinkerError{Message: "No object files to link"}
	}
	command, err := l.buildLinkerCommand()
	if err != nil {
		return err
	}
	if _, err := runCommand(l.verbose, command[0], command[1:]...); err != nil {
		return &LinkerError{Message: fmt.Sprintf("Linker failed: %v", err)}
	}
	return nil
}

func (l *Linker) buildLinkerCommand() ([]string, error) {
	linker, emulation := l.target.LinkerCommand()
	command := append([]string{linker}, emulation...)
	command = append(command, "-o", l.outputPath)

	if l.sysroot != "" {
		command = append(command, "--sysroot", l.sysroot)
	}
	if l.pic {
		command = append(command, "-shared")
	}
	if l.pie {
		command = append(command, "-pie")
	}
	if l.staticLink {
		command = append(command, "-static")
	}
	if l.shared {
		command = append(command, "-shared")
	}
	if l.debug {
		command = append(command, "-g")
	}
	if l.lto {
		command = append(command, "--lto-O3")
	}
	if !l.staticLink && !l.shared {
		command = append(command, "-dynamic-linker", dynamicLinkers[l.target])
	}
	// No crt startup files: the generated _start replaces them.

	command = append(command, lo.FlatMap(l.libraryPaths, func(path string, _ int) []string {
		return []string{"-L", path}
	})...)
	command = append(command, lo.FlatMap(standardLibraryPaths[l.target], func(path string, _ int) []string {
		return []string{"-L", path}
	})...)
	command = append(command, l.objectFiles...)
	command = append(command, lo.Map(l.libraries, func(name string, _ int) string {
		return "-l" + name
	})...)
	if !l.staticLink {
		command = append(command, "-lc")
	}
	return command, nil
}

// LinkSharedLibrary produces a shared object instead of an executable.
func (l *Linker) LinkSharedLibrary(soname string) error {
	if len(l.objectFiles) == 0 {
		return &LinkerError{Message: "No object files to link"}
	}
	command, err := l.buildLinkerCommand()
	if err != nil {
		return err
	}
	// Strip executable-specific flags and force -shared.
	command = lo.Filter(command, func(arg string, i int) bool {
		return arg != "-pie" && arg != "-dynamic-linker" &&
			(i == 0 || command[i-1] != "-dynamic-linker")
	})
	if !lo.Contains(command, "-shared") {
		command = append(command, "-shared")
	}
	if soname != "" {
		command = append(command, "-soname", soname)
	}
	if _, err := runCommand(l.verbose, command[0], command[1:]...); err != nil {
		return &LinkerError{Message: fmt.Sprintf("Shared library linking failed: %v", err)}
	}
	return nil
}

// LinkStaticLibrary archives the object files with ar.
func (l *Linker) LinkStaticLibrary() error {
	args := append([]string{"rcs", l.outputPath}, l.objectFiles...)
	if _, err := runCommand(l.verbose, "ar", args...); err != nil {
		return &LinkerError{Message: fmt.Sprintf("Static library creation failed: %v", err)}
	}
	return nil
}

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
	"errors"
	"strings"
	"testing"

	"github.com/samber/lo"
)

func TestLinkerCommandExecutable(t *testing.T) {
	linker := NewLinker(Amd64)
	linker.SetOutputPath("demo")
	linker.AddObjectFile("demo.o")
	linker.AddLibraryPath("/custom/lib")
	linker.AddLibrary("m")

	command, err := linker.buildLinkerCommand()
	if err != nil {
		t.Fatalf("buildLinkerCommand failed: %v", err)
	}
	joined := strings.Join(command, " ")

	if command[0] != "ld" {
		t.Errorf("command[0] = %q, want ld", command[0])
	}
	for _, want := range []string{
		"-m elf_x86_64",
		"-o demo",
		"-dynamic-linker /lib64/ld-linux-x86-64.so.2",
		"-L /custom/lib",
		"-L /usr/lib/x86_64-linux-gnu",
		"demo.o",
		"-lm",
		"-lc",
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("command missing %q: %s", want, joined)
		}
	}
	// Objects come before libraries.
	if strings.Index(joined, "demo.o") > strings.Index(joined, "-lm") {
		t.Error("object files do not precede libraries")
	}
}

func TestLinkerCommandStatic(t *testing.T) {
	linker := NewLinker(I386)
	linker.AddObjectFile("x.o")
	linker.SetStaticLink(true)

	command, err := linker.buildLinkerCommand()
	if err != nil {
		t.Fatal(err)
	}
	joined := strings.Join(command, " ")
	for _, want := range []string{"-m elf_i386", "-static"} {
		if !strings.Contains(joined, want) {
			t.Errorf("command missing %q: %s", want, joined)
		}
	}
	for _, reject := range []string{"-dynamic-linker", "-lc"} {
		if strings.Contains(joined, reject) {
			t.Errorf("static link command contains %q: %s", reject, joined)
		}
	}
}

func TestLinkerCommandArm64(t *testing.T) {
	linker := NewLinker(Arm64)
	linker.AddObjectFile("x.o")
	linker.SetSysroot("/sysroot")
	linker.SetDebug(true)
	linker.SetLTO(true)

	command, err := linker.buildLinkerCommand()
	if err != nil {
		t.Fatal(err)
	}
	if command[0] != "aarch64-linux-gnu-ld" {
		t.Errorf("command[0] = %q, want aarch64-linux-gnu-ld", command[0])
	}
	joined := strings.Join(command, " ")
	for _, want := range []string{
		"-m aarch64linux",
		"--sysroot /sysroot",
		"-g",
		"--lto-O3",
		"-dynamic-linker /lib/ld-linux-aarch64.so.1",
		"-L /usr/lib/aarch64-linux-gnu",
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("command missing %q: %s", want, joined)
		}
	}
}

func TestLinkerCommandShared(t *testing.T) {
	linker := NewLinker(Amd64)
	linker.AddObjectFile("x.o")
	linker.SetShared(true)

	command, err := linker.buildLinkerCommand()
	if err != nil {
		t.Fatal(err)
	}
	if !lo.Contains(command, "-shared") {
		t.Errorf("command missing -shared: %v", command)
	}
	if lo.Contains(command, "-dynamic-linker") {
		t.Errorf("shared command contains -dynamic-linker: %v", command)
	}
}

func TestLinkerNoObjects(t *testing.T) {
	linker := NewLinker(Amd64)
	err := linker.Link()
	var linkerError *LinkerError
	if !errors.As(err, &linkerError) {
		t.Fatalf("error = %v, want *LinkerError", err)
	}
	if err := linker.LinkSharedLibrary(""); err == nil {
		t.Error("LinkSharedLibrary succeeded with no objects")
	}
}

func TestLinkerPIE(t *testing.T) {
	linker := NewLinker(Amd64)
	linker.AddObjectFile("x.o")
	linker.SetPIE(true)
	command, err := linker.buildLinkerCommand()
	if err != nil {
		t.Fatal(err)
	}
	if !lo.Contains(command, "-pie") {
		t.Errorf("command missing -pie: %v", command)
	}
}

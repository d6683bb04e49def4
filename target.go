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

import "runtime"

// Target identifies an output architecture.
type Target int

const (
	I386 Target = iota
	Amd64
	Arm64
)

// TargetFromString resolves a target name or common alias. The second result
// is false when the name matches no supported architecture.
func TargetFromString(s string) (Target, bool) {
	switch s {
	case "i386", "i686", "x86":
		return I386, true
	case "amd64", "x86_64", "x64":
		return Amd64, true
	case "arm64", "aarch64":
		return Arm64, true
	case "native":
		return NativeTarget(), true
	default:
		return 0, false
	}
}

// NativeTarget returns the target matching the host architecture.
func NativeTarget() Target {
	switch runtime.GOARCH {
	case "386":
		return I386
	case "amd64":
		return Amd64
	case "arm64":
		return Arm64
	default:
		return Amd64
	}
}

// PointerSize returns the width of a pointer in bytes.
func (t Target) PointerSize() int {
	switch t {
	case I386:
		return 4
	default:
		return 8
	}
}

// Alignment returns the natural word alignment in bytes.
func (t Target) Alignment() int {
	switch t {
	case I386:
		return 4
	default:
		return 8
	}
}

func (t Target) String() string {
	switch t {
	case I386:
		return "i386"
	case Amd64:
		return "amd64"
	case Arm64:
		return "arm64"
	default:
		return "unknown"
	}
}

// Triple returns the GNU target triple.
func (t Target) Triple() string {
	switch t {
	case I386:
		return "i386-unknown-linux-gnu"
	case Amd64:
		return "x86_64-unknown-linux-gnu"
	default:
		return "aarch64-unknown-linux-gnu"
	}
}

// Assembler returns the host assembler command and its fixed arguments.
func (t Target) Assembler() (string, []string) {
	switch t {
	case I386:
		return "as", []string{"--32"}
	case Amd64:
		return "as", []string{"--64"}
	default:
		return "aarch64-linux-gnu-as", nil
	}
}

// LinkerCommand returns the host linker command and its emulation arguments.
func (t Target) LinkerCommand() (string, []string) {
	switch t {
	case I386:
		return "ld", []string{"-m", "elf_i386"}
	case Amd64:
		return "ld", []string{"-m", "elf_x86_64"}
	default:
		return "aarch64-linux-gnu-ld", []string{"-m", "aarch64linux"}
	}
}

// ObjectFormat returns the ELF class of emitted objects.
func (t Target) ObjectFormat() string {
	if t == I386 {
		return "elf32"
	}
	return "elf64"
}

// CallingConvention tags the ABI used for generated and consumed code.
type CallingConvention int

const (
	Cdecl CallingConvention = iota
	SystemV
	Aapcs64
)

func (t Target) CallingConvention() CallingConvention {
	switch t {
	case I386:
		return Cdecl
	case Amd64:
		return SystemV
	default:
		return Aapcs64
	}
}

// RegisterSet names the registers of one architecture.
type RegisterSet int

const (
	X86_32 RegisterSet = iota
	X86_64
	Aarch64
)

func (t Target) Registers() RegisterSet {
	switch t {
	case I386:
		return X86_32
	case Amd64:
		return X86_64
	default:
		return Aarch64
	}
}

// GeneralPurposeRegisters returns the allocatable integer registers.
func (r RegisterSet) GeneralPurposeRegisters() []string {
	switch r {
	case X86_32:
		return []string{"eax", "ebx", "ecx", "edx", "esi", "edi"}
	case X86_64:
		return []string{
			"rax", "rbx", "rcx", "rdx", "rsi", "rdi",
			"r8", "r9", "r10", "r11", "r12", "r13", "r14", "r15",
		}
	default:
		return []string{
			"x0", "x1", "x2", "x3", "x4", "x5", "x6", "x7",
			"x8", "x9", "x10", "x11", "x12", "x13", "x14", "x15",
			"x16", "x17", "x18", "x19", "x20", "x21", "x22", "x23",
			"x24", "x25", "x26", "x27", "x28",
		}
	}
}

// ParameterRegisters returns the integer argument registers in ABI order.
// i386 passes every argument on the stack.
func (r RegisterSet) ParameterRegisters() []string {
	switch r {
	case X86_32:
		return nil
	case X86_64:
		return []string{"rdi", "rsi", "rdx", "rcx", "r8", "r9"}
	default:
		return []string{"x0", "x1", "x2", "x3", "x4", "x5", "x6", "x7"}
	}
}

func (r RegisterSet) ReturnRegister() string {
	switch r {
	case X86_32:
		return "eax"
	case X86_64:
		return "rax"
	default:
		return "x0"
	}
}

func (r RegisterSet) StackPointer() string {
	switch r {
	case X86_32:
		return "esp"
	case X86_64:
		return "rsp"
	default:
		return "sp"
	}
}

func (r RegisterSet) FramePointer() string {
	switch r {
	case X86_32:
		return "ebp"
	case X86_64:
		return "rbp"
	default:
		return "x29"
	}
}

// Endianness of emitted data. All supported targets are little-endian.
type Endianness int

const (
	LittleEndian Endianness = iota
	BigEndian
)

// TargetInfo bundles the ABI facts codegen and the driver query by name.
type TargetInfo struct {
	Target      Target
	Endianness  Endianness
	WordSize    int
	MaxAlign    int
	SupportsPIC bool
	SupportsPIE bool
}

func NewTargetInfo(target Target) TargetInfo {
	wordSize, maxAlign := 8, 8
	switch target {
	case I386:
		wordSize, maxAlign = 4, 4
	case Arm64:
		wordSize, maxAlign = 8, 16
	}
	return TargetInfo{
		Target:      target,
		Endianness:  LittleEndian,
		WordSize:    wordSize,
		MaxAlign:    maxAlign,
		SupportsPIC: true,
		SupportsPIE: true,
	}
}

// SizeOfType returns the size in bytes of a named C type, or false for an
// unknown name.
func (info TargetInfo) SizeOfType(name string) (int, bool) {
	switch name {
	case "char", "signed char", "unsigned char":
		return 1, true
	case "short", "unsigned short":
		return 2, true
	case "int", "unsigned int":
		return 4, true
	case "long", "unsigned long":
		return info.WordSize, true
	case "long long", "unsigned long long":
		return 8, true
	case "float":
		return 4, true
	case "double":
		return 8, true
	case "long double":
		if info.Target == I386 {
			return 12, true
		}
		return 16, true
	case "void*", "size_t", "ptrdiff_t":
		return info.WordSize, true
	default:
		return 0, false
	}
}

// AlignOfType returns the alignment in bytes of a named C type, or false for
// an unknown name. Alignment equals size except long double on i386.
func (info TargetInfo) AlignOfType(name string) (int, bool) {
	if name == "long double" {
		if info.Target == I386 {
			return 4, true
		}
		return 16, true
	}
	return info.SizeOfType(name)
}

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

import "fmt"

// x86Emitter serves both x86 targets. Output is GNU assembler Intel syntax.
// The accumulator is eax/rax, the secondary register ebx/rbx.
type x86Emitter struct {
	target Target
	is64   bool
}

func init() {
	RegisterEmitter(I386, &x86Emitter{target: I386})
	RegisterEmitter(Amd64, &x86Emitter{target: Amd64, is64: true})
}

// localScratchBytes is reserved below the parameter-copy area for locals,
// which are assigned slots while the body is walked, after the prologue is
// already out. A multiple of 16 so amd64 call-site alignment holds.
const localScratchBytes = 128

// amd64ParamRegisters in System V order.
var amd64ParamRegisters = []string{"rdi", "rsi", "rdx", "rcx", "r8", "r9"}

func (e *x86Emitter) Arch() Target {
	return e.target
}

func (e *x86Emitter) SlotSize() int {
	if e.is64 {
		return 8
	}
	return 4
}

func (e *x86Emitter) ParamRegisterCount() int {
	if e.is64 {
		return len(amd64ParamRegisters)
	}
	return 0
}

// acc returns the accumulator register name.
func (e *x86Emitter) acc() string {
	if e.is64 {
		return "rax"
	}
	return "eax"
}

func (e *x86Emitter) sec() string {
	if e.is64 {
		return "rbx"
	}
	return "ebx"
}

func (e *x86Emitter) ptr() string {
	if e.is64 {
		return "QWORD PTR"
	}
	return "DWORD PTR"
}

func (e *x86Emitter) fp() string {
	if e.is64 {
		return "rbp"
	}
	return "ebp"
}

func (e *x86Emitter) sp() string {
	if e.is64 {
		return "rsp"
	}
	return "esp"
}

func (e *x86Emitter) Header() []string {
	if e.is64 {
		return []string{".intel_syntax noprefix", ""}
	}
	return []string{".arch i386", ".intel_syntax noprefix", ""}
}

func (e *x86Emitter) Prologue(nparams int) []string {
	reserve := nparams*4 + localScratchBytes
	if e.is64 {
		reserve = alignUp(nparams*8, 16) + localScratchBytes
	}
	return []string{
		fmt.Sprintf("push %s", e.fp()),
		fmt.Sprintf("mov %s, %s", e.fp(), e.sp()),
		fmt.Sprintf("sub %s, %d", e.sp(), reserve),
	}
}

func (e *x86Emitter) CopyParamToSlot(i int) []string {
	slot := (i + 1) * e.SlotSize()
	if !e.is64 {
		// cdecl: everything arrives on the stack above the return address.
		return []string{
			fmt.Sprintf("mov eax, DWORD PTR [ebp+%d]", 8+4*i),
			fmt.Sprintf("mov DWORD PTR [ebp-%d], eax", slot),
		}
	}
	if i < len(amd64ParamRegisters) {
		return []string{
			fmt.Sprintf("mov QWORD PTR [rbp-%d], %s", slot, amd64ParamRegisters[i]),
		}
	}
	return []string{
		fmt.Sprintf("mov rax, QWORD PTR [rbp+%d]", 16+8*(i-len(amd64ParamRegisters))),
		fmt.Sprintf("mov QWORD PTR [rbp-%d], rax", slot),
	}
}

func (e *x86Emitter) Epilogue() []string {
	return []string{
		fmt.Sprintf("mov %s, %s", e.sp(), e.fp()),
		fmt.Sprintf("pop %s", e.fp()),
		"ret",
	}
}

func (e *x86Emitter) EntryStub() []string {
	if e.is64 {
		return []string{
			"push rbp",
			"mov rbp, rsp",
			"sub rsp, 8",
			"call main",
			"mov rdi, rax",
			"mov rax, 60",
			"syscall",
		}
	}
	return []string{
		"push ebp",
		"mov ebp, esp",
		"call main",
		"mov ebx, eax",
		"mov eax, 1",
		"int 0x80",
	}
}

func (e *x86Emitter) LoadImmediate(value int64) []string {
	return []string{fmt.Sprintf("mov %s, %d", e.acc(), value)}
}

func (e *x86Emitter) LoadStringLiteral(label string) []string {
	if e.is64 {
		return []string{fmt.Sprintf("lea rax, [%s]", label)}
	}
	return []string{fmt.Sprintf("mov eax, OFFSET %s", label)}
}

func (e *x86Emitter) LoadLocal(offset int) []string {
	return []string{fmt.Sprintf("mov %s, %s [%s-%d]", e.acc(), e.ptr(), e.fp(), offset)}
}

func (e *x86Emitter) StoreLocal(offset int) []string {
	return []string{fmt.Sprintf("mov %s [%s-%d], %s", e.ptr(), e.fp(), offset, e.acc())}
}

func (e *x86Emitter) LoadGlobal(name string) []string {
	return []string{fmt.Sprintf("mov %s, %s [%s]", e.acc(), e.ptr(), name)}
}

func (e *x86Emitter) StoreGlobal(name string) []string {
	return []string{fmt.Sprintf("mov %s [%s], %s", e.ptr(), name, e.acc())}
}

func (e *x86Emitter) AddressOfLocal(offset int) []string {
	return []string{fmt.Sprintf("lea %s, [%s-%d]", e.acc(), e.fp(), offset)}
}

func (e *x86Emitter) AddressOfGlobal(name string) []string {
	if e.is64 {
		return []string{fmt.Sprintf("lea rax, [%s]", name)}
	}
	return []string{fmt.Sprintf("mov eax, OFFSET %s", name)}
}

func (e *x86Emitter) Dereference() []string {
	return []string{fmt.Sprintf("mov %s, %s [%s]", e.acc(), e.ptr(), e.acc())}
}

func (e *x86Emitter) Push() []string {
	return []string{fmt.Sprintf("push %s", e.acc())}
}

func (e *x86Emitter) PopSecondary() []string {
	return []string{fmt.Sprintf("pop %s", e.sec())}
}

func (e *x86Emitter) MoveAccToSecondary() []string {
	return []string{fmt.Sprintf("mov %s, %s", e.sec(), e.acc())}
}

func (e *x86Emitter) MoveSecondaryToAcc() []string {
	return []string{fmt.Sprintf("mov %s, %s", e.acc(), e.sec())}
}

func (e *x86Emitter) AddImmediate(delta int64) []string {
	return []string{fmt.Sprintf("add %s, %d", e.acc(), delta)}
}

// signExtend widens the accumulator into the high half before idiv.
func (e *x86Emitter) signExtend() string {
	if e.is64 {
		return "cqo"
	}
	return "cdq"
}

var x86SetInstructions = map[BinaryOperator]string{
	OpEqual:        "sete",
	OpNotEqual:     "setne",
	OpLess:         "setl",
	OpGreater:      "setg",
	OpLessEqual:    "setle",
	OpGreaterEqual: "setge",
}

func (e *x86Emitter) compare(set string) []string {
	return []string{
		fmt.Sprintf("cmp %s, %s", e.acc(), e.sec()),
		fmt.Sprintf("%s al", set),
		fmt.Sprintf("movzx %s, al", e.acc()),
	}
}

func (e *x86Emitter) BinaryOp(op BinaryOperator) ([]string, error) {
	if set, ok := x86SetInstructions[op]; ok {
		return e.compare(set), nil
	}
	switch op {
	case OpAdd:
		return []string{fmt.Sprintf("add %s, %s", e.acc(), e.sec())}, nil
	case OpSubtract:
		return []string{fmt.Sprintf("sub %s, %s", e.acc(), e.sec())}, nil
	case OpMultiply:
		return []string{fmt.Sprintf("imul %s, %s", e.acc(), e.sec())}, nil
	case OpDivide:
		return []string{e.signExtend(), fmt.Sprintf("idiv %s", e.sec())}, nil
	case OpModulo:
		remainder := "edx"
		if e.is64 {
			remainder = "rdx"
		}
		return []string{
			e.signExtend(),
			fmt.Sprintf("idiv %s", e.sec()),
			fmt.Sprintf("mov %s, %s", e.acc(), remainder),
		}, nil
	case OpBitwiseAnd, OpLogicalAnd:
		return []string{fmt.Sprintf("and %s, %s", e.acc(), e.sec())}, nil
	case OpBitwiseOr, OpLogicalOr:
		return []string{fmt.Sprintf("or %s, %s", e.acc(), e.sec())}, nil
	case OpBitwiseXor:
		return []string{fmt.Sprintf("xor %s, %s", e.acc(), e.sec())}, nil
	case OpLeftShift:
		return e.shift("shl"), nil
	case OpRightShift:
		return e.shift("sar"), nil
	default:
		return nil, &CodegenError{Message: fmt.Sprintf("binary operator %d not implemented for %v", op, e.target)}
	}
}

func (e *x86Emitter) shift(instruction string) []string {
	count := "ecx"
	if e.is64 {
		count = "rcx"
	}
	return []string{
		fmt.Sprintf("mov %s, %s", count, e.sec()),
		fmt.Sprintf("%s %s, cl", instruction, e.acc()),
	}
}

func (e *x86Emitter) CompoundOp(op AssignmentOperator) ([]string, error) {
	switch op {
	case OpPlusAssign:
		return []string{fmt.Sprintf("add %s, %s", e.acc(), e.sec())}, nil
	case OpMinusAssign:
		return []string{
			fmt.Sprintf("sub %s, %s", e.sec(), e.acc()),
			fmt.Sprintf("mov %s, %s", e.acc(), e.sec()),
		}, nil
	case OpMultiplyAssign:
		return []string{fmt.Sprintf("imul %s, %s", e.acc(), e.sec())}, nil
	case OpDivideAssign:
		divisor := "ecx"
		if e.is64 {
			divisor = "rcx"
		}
		return []string{
			fmt.Sprintf("mov %s, %s", divisor, e.acc()),
			fmt.Sprintf("mov %s, %s", e.acc(), e.sec()),
			e.signExtend(),
			fmt.Sprintf("idiv %s", divisor),
		}, nil
	default:
		return nil, &CodegenError{Message: fmt.Sprintf("compound assignment operator %d not implemented", op)}
	}
}

func (e *x86Emitter) Negate() []string {
	return []string{fmt.Sprintf("neg %s", e.acc())}
}

func (e *x86Emitter) LogicalNot() []string {
	return []string{
		fmt.Sprintf("test %s, %s", e.acc(), e.acc()),
		"sete al",
		fmt.Sprintf("movzx %s, al", e.acc()),
	}
}

func (e *x86Emitter) BitwiseNot() []string {
	return []string{fmt.Sprintf("not %s", e.acc())}
}

func (e *x86Emitter) NormalizeBool() []string {
	return []string{
		fmt.Sprintf("test %s, %s", e.acc(), e.acc()),
		"setne al",
		fmt.Sprintf("movzx %s, al", e.acc()),
	}
}

func (e *x86Emitter) IndexAddress(offset int) []string {
	return []string{
		fmt.Sprintf("shl %s, 3", e.acc()),
		fmt.Sprintf("lea %s, [%s-%d]", e.sec(), e.fp(), offset),
		fmt.Sprintf("add %s, %s", e.acc(), e.sec()),
	}
}

func (e *x86Emitter) TestJumpZero(label string) []string {
	return []string{
		fmt.Sprintf("test %s, %s", e.acc(), e.acc()),
		fmt.Sprintf("jz %s", label),
	}
}

func (e *x86Emitter) Jump(label string) []string {
	return []string{fmt.Sprintf("jmp %s", label)}
}

func (e *x86Emitter) Call(name string) []string {
	return []string{fmt.Sprintf("call %s", name)}
}

func (e *x86Emitter) AllocStackArgs(int) []string {
	return nil // stack arguments are pushed
}

func (e *x86Emitter) StoreStackArg(int) []string {
	return []string{fmt.Sprintf("push %s", e.acc())}
}

func (e *x86Emitter) PushArgTemp() []string {
	return []string{fmt.Sprintf("push %s", e.acc())}
}

func (e *x86Emitter) PopArgRegister(i int) []string {
	return []string{fmt.Sprintf("pop %s", amd64ParamRegisters[i])}
}

func (e *x86Emitter) CleanupStackArgs(bytes int) []string {
	return []string{fmt.Sprintf("add %s, %d", e.sp(), bytes)}
}

// StackArgPad keeps rsp 16-byte aligned at the call instruction: when the
// pushed-argument byte count is 8 mod 16, an extra 8 bytes go in first and
// come off with the post-call cleanup.
func (e *x86Emitter) StackArgPad(stackArgBytes int) ([]string, int) {
	if e.is64 && stackArgBytes%16 == 8 {
		return []string{"sub rsp, 8"}, 8
	}
	return nil, 0
}

func alignUp(n, align int) int {
	return (n + align - 1) &^ (align - 1)
}

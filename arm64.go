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

// arm64Emitter emits AArch64 assembly in standard GNU syntax. The
// accumulator is x0, the secondary register x1; x9 is scratch for parameter
// copies. Stack traffic moves in 16-byte units so sp stays aligned.
type arm64Emitter struct{}

func init() {
	RegisterEmitter(Arm64, &arm64Emitter{})
}

const arm64ParamRegisterCount = 8

func (e *arm64Emitter) Arch() Target {
	return Arm64
}

func (e *arm64Emitter) SlotSize() int {
	return 8
}

func (e *arm64Emitter) ParamRegisterCount() int {
	return arm64ParamRegisterCount
}

func (e *arm64Emitter) Header() []string {
	return []string{".arch armv8-a", ""}
}

func (e *arm64Emitter) Prologue(nparams int) []string {
	reserve := alignUp(8*nparams, 16) + localScratchBytes
	return []string{
		"stp x29, x30, [sp, #-16]!",
		"mov x29, sp",
		fmt.Sprintf("sub sp, sp, #%d", reserve),
	}
}

func (e *arm64Emitter) CopyParamToSlot(i int) []string {
	slot := (i + 1) * 8
	if i < arm64ParamRegisterCount {
		return []string{fmt.Sprintf("str x%d, [x29, #-%d]", i, slot)}
	}
	return []string{
		fmt.Sprintf("ldr x9, [x29, #%d]", 16+8*(i-arm64ParamRegisterCount)),
		fmt.Sprintf("str x9, [x29, #-%d]", slot),
	}
}

func (e *arm64Emitter) Epilogue() []string {
	return []string{
		"mov sp, x29",
		"ldp x29, x30, [sp], #16",
		"ret",
	}
}

func (e *arm64Emitter) EntryStub() []string {
	return []string{
		"stp x29, x30, [sp, #-16]!",
		"mov x29, sp",
		"bl main",
		"mov x8, #93",
		"svc #0",
	}
}

func (e *arm64Emitter) LoadImmediate(value int64) []string {
	return []string{fmt.Sprintf("mov x0, #%d", value)}
}

func (e *arm64Emitter) LoadStringLiteral(label string) []string {
	return []string{
		fmt.Sprintf("adrp x0, %s", label),
		fmt.Sprintf("add x0, x0, :lo12:%s", label),
	}
}

func (e *arm64Emitter) LoadLocal(offset int) []string {
	return []string{fmt.Sprintf("ldr x0, [x29, #-%d]", offset)}
}

func (e *arm64Emitter) StoreLocal(offset int) []string {
	return []string{fmt.Sprintf("str x0, [x29, #-%d]", offset)}
}

func (e *arm64Emitter) LoadGlobal(name string) []string {
	return []string{
		fmt.Sprintf("adrp x1, %s", name),
		fmt.Sprintf("add x1, x1, :lo12:%s", name),
		"ldr x0, [x1]",
	}
}

func (e *arm64Emitter) StoreGlobal(name string) []string {
	return []string{
		fmt.Sprintf("adrp x1, %s", name),
		fmt.Sprintf("add x1, x1, :lo12:%s", name),
		"str x0, [x1]",
	}
}

func (e *arm64Emitter) AddressOfLocal(offset int) []string {
	return []string{fmt.Sprintf("sub x0, x29, #%d", offset)}
}

func (e *arm64Emitter) AddressOfGlobal(name string) []string {
	return []string{
		fmt.Sprintf("adrp x0, %s", name),
		fmt.Sprintf("add x0, x0, :lo12:%s", name),
	}
}

func (e *arm64Emitter) Dereference() []string {
	return []string{"ldr x0, [x0]"}
}

func (e *arm64Emitter) Push() []string {
	return []string{"str x0, [sp, #-16]!"}
}

func (e *arm64Emitter) PopSecondary() []string {
	return []string{"ldr x1, [sp], #16"}
}

func (e *arm64Emitter) MoveAccToSecondary() []string {
	return []string{"mov x1, x0"}
}

func (e *arm64Emitter) MoveSecondaryToAcc() []string {
	return []string{"mov x0, x1"}
}

func (e *arm64Emitter) AddImmediate(delta int64) []string {
	if delta < 0 {
		return []string{fmt.Sprintf("sub x0, x0, #%d", -delta)}
	}
	return []string{fmt.Sprintf("add x0, x0, #%d", delta)}
}

var arm64Conditions = map[BinaryOperator]string{
	OpEqual:        "eq",
	OpNotEqual:     "ne",
	OpLess:         "lt",
	OpGreater:      "gt",
	OpLessEqual:    "le",
	OpGreaterEqual: "ge",
}

func (e *arm64Emitter) BinaryOp(op BinaryOperator) ([]string, error) {
	if cond, ok := arm64Conditions[op]; ok {
		return []string{"cmp x0, x1", fmt.Sprintf("cset x0, %s", cond)}, nil
	}
	switch op {
	case OpAdd:
		return []string{"add x0, x0, x1"}, nil
	case OpSubtract:
		return []string{"sub x0, x0, x1"}, nil
	case OpMultiply:
		return []string{"mul x0, x0, x1"}, nil
	case OpDivide:
		return []string{"sdiv x0, x0, x1"}, nil
	case OpModulo:
		return []string{
			"sdiv x2, x0, x1",
			"msub x0, x2, x1, x0",
		}, nil
	case OpBitwiseAnd, OpLogicalAnd:
		return []string{"and x0, x0, x1"}, nil
	case OpBitwiseOr, OpLogicalOr:
		return []string{"orr x0, x0, x1"}, nil
	case OpBitwiseXor:
		return []string{"eor x0, x0, x1"}, nil
	case OpLeftShift:
		return []string{"lsl x0, x0, x1"}, nil
	case OpRightShift:
		return []string{"asr x0, x0, x1"}, nil
	default:
		return nil, &CodegenError{Message: fmt.Sprintf("binary operator %d not implemented for arm64", op)}
	}
}

func (e *arm64Emitter) CompoundOp(op AssignmentOperator) ([]string, error) {
	switch op {
	case OpPlusAssign:
		return []string{"add x0, x1, x0"}, nil
	case OpMinusAssign:
		return []string{"sub x0, x1, x0"}, nil
	case OpMultiplyAssign:
		return []string{"mul x0, x1, x0"}, nil
	case OpDivideAssign:
		return []string{"sdiv x0, x1, x0"}, nil
	default:
		return nil, &CodegenError{Message: fmt.Sprintf("compound assignment operator %d not implemented", op)}
	}
}

func (e *arm64Emitter) Negate() []string {
	return []string{"neg x0, x0"}
}

func (e *arm64Emitter) LogicalNot() []string {
	return []string{"cmp x0, #0", "cset x0, eq"}
}

func (e *arm64Emitter) BitwiseNot() []string {
	return []string{"mvn x0, x0"}
}

func (e *arm64Emitter) NormalizeBool() []string {
	return []string{"cmp x0, #0", "cset x0, ne"}
}

func (e *arm64Emitter) IndexAddress(offset int) []string {
	return []string{
		"lsl x0, x0, #3",
		fmt.Sprintf("sub x1, x29, #%d", offset),
		"add x0, x0, x1",
	}
}

func (e *arm64Emitter) TestJumpZero(label string) []string {
	return []string{fmt.Sprintf("cbz x0, %s", label)}
}

func (e *arm64Emitter) Jump(label string) []string {
	return []string{fmt.Sprintf("b %s", label)}
}

func (e *arm64Emitter) Call(name string) []string {
	return []string{fmt.Sprintf("bl %s", name)}
}

func (e *arm64Emitter) AllocStackArgs(bytes int) []string {
	return []string{fmt.Sprintf("sub sp, sp, #%d", bytes)}
}

func (e *arm64Emitter) StoreStackArg(slot int) []string {
	return []string{fmt.Sprintf("str x0, [sp, #%d]", slot*8)}
}

func (e *arm64Emitter) PushArgTemp() []string {
	return []string{"str x0, [sp, #-16]!"}
}

func (e *arm64Emitter) PopArgRegister(i int) []string {
	return []string{fmt.Sprintf("ldr x%d, [sp], #16", i)}
}

func (e *arm64Emitter) CleanupStackArgs(bytes int) []string {
	return []string{fmt.Sprintf("add sp, sp, #%d", bytes)}
}

// StackArgPad is a no-op: the outgoing-argument area is allocated in one
// 16-byte-aligned block.
func (e *arm64Emitter) StackArgPad(int) ([]string, int) {
	return nil, 0
}

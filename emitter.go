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

// Emitter produces the instruction sequences of one architecture. The code
// generator drives a fixed stack-machine discipline: every expression leaves
// its result in the accumulator (eax/rax/x0); binary operations pop their
// right operand into the secondary register (ebx/rbx/x1).
//
// Methods return instruction lines without indentation; the code generator
// owns layout, labels, and sections.
type Emitter interface {
	// Arch returns the target this emitter serves.
	Arch() Target

	// SlotSize returns the width of one stack slot in bytes.
	SlotSize() int

	// ParamRegisterCount returns how many leading arguments travel in
	// registers; the rest go on the stack.
	ParamRegisterCount() int

	// Header returns the directives opening the assembly file.
	Header() []string

	// Prologue establishes the frame and reserves the parameter-copy area
	// plus the local scratch region.
	Prologue(nparams int) []string

	// CopyParamToSlot moves incoming parameter i into the negative-offset
	// slot [fp-(i+1)*slot] so parameters address like locals.
	CopyParamToSlot(i int) []string

	// Epilogue tears the frame down and returns.
	Epilogue() []string

	// EntryStub emits _start: align, call main, exit via the OS.
	EntryStub() []string

	LoadImmediate(value int64) []string
	LoadStringLiteral(label string) []string
	LoadLocal(offset int) []string
	StoreLocal(offset int) []string
	LoadGlobal(name string) []string
	StoreGlobal(name string) []string
	AddressOfLocal(offset int) []string
	AddressOfGlobal(name string) []string
	Dereference() []string

	// Push spills the accumulator; PopSecondary reloads the spilled value
	// into the secondary register.
	Push() []string
	PopSecondary() []string
	MoveAccToSecondary() []string
	MoveSecondaryToAcc() []string
	AddImmediate(delta int64) []string

	// BinaryOp fuses accumulator (left) with secondary (right).
	BinaryOp(op BinaryOperator) ([]string, error)

	// CompoundOp recombines for compound assignment: secondary holds the
	// target's old value, the accumulator holds the right-hand side; the
	// result lands in the accumulator.
	CompoundOp(op AssignmentOperator) ([]string, error)

	Negate() []string
	LogicalNot() []string
	BitwiseNot() []string

	// NormalizeBool reduces the accumulator to 0 or 1.
	NormalizeBool() []string

	// IndexAddress computes the address of element [acc] of the local
	// array based at [fp-offset], with the fixed 8-byte element stride.
	IndexAddress(offset int) []string

	// TestJumpZero branches to label when the accumulator is zero.
	TestJumpZero(label string) []string
	Jump(label string) []string

	Call(name string) []string

	// AllocStackArgs and StoreStackArg place outgoing stack arguments;
	// slot counts from the first stack-passed argument. On x86 targets
	// AllocStackArgs is a no-op and StoreStackArg pushes.
	AllocStackArgs(bytes int) []string
	StoreStackArg(slot int) []string

	// PushArgTemp spills an evaluated register argument; PopArgRegister
	// reloads it into parameter register i.
	PushArgTemp() []string
	PopArgRegister(i int) []string

	// CleanupStackArgs releases outgoing-argument stack space (including
	// any alignment pad) after the call.
	CleanupStackArgs(bytes int) []string

	// StackArgPad returns the pad bytes to insert before pushing stack
	// arguments so the call site stays aligned, and the lines doing so.
	StackArgPad(stackArgBytes int) ([]string, int)
}

// emitters holds the registered per-architecture emitters.
var emitters = map[Target]Emitter{}

// RegisterEmitter registers an architecture emitter.
func RegisterEmitter(target Target, e Emitter) {
	emitters[target] = e
}

// GetEmitter returns the emitter for the given target.
func GetEmitter(target Target) (Emitter, error) {
	if e, ok := emitters[target]; ok {
		return e, nil
	}
	return nil, &CodegenError{Message: fmt.Sprintf("no emitter registered for target %v", target)}
}

// ListEmitters returns the targets with a registered emitter.
func ListEmitters() []Target {
	return lo.Keys(emitters)
}

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
	"strings"
)

// CodeGenerator lowers a Program directly to assembly text for one target.
// All state is per-invocation: label counter, string-literal table, and the
// per-function parameter/local offset maps.
type CodeGenerator struct {
	target  Target
	emitter Emitter
	output  strings.Builder

	labelCounter   int
	stringLiterals map[string]string
	stringOrder    []string
	globals        map[string]bool

	// Per-function state. Offsets are positive distances below the frame
	// pointer; parameters are copied into the leading slots so they
	// address exactly like locals.
	params       map[string]int
	locals       map[string]int
	stackOffset  int
	lastToReturn bool
}

func NewCodeGenerator(target Target) (*CodeGenerator, error) {
	emitter, err := GetEmitter(target)
	if err != nil {
		return nil, err
	}
	return &CodeGenerator{target: target, emitter: emitter}, nil
}

// Generate emits the whole translation unit: header, .rodata strings,
// .data globals, .text function bodies, and the _start entry stub.
func (c *CodeGenerator) Generate(program *Program) (string, error) {
	c.output.Reset()
	c.labelCounter = 0
	c.stringLiterals = make(map[string]string)
	c.stringOrder = nil
	c.globals = make(map[string]bool)
	for _, global := range program.GlobalVariables {
		c.globals[global.Name] = true
	}

	// String literals are collected for the whole program before any
	// emission so labels are stable and deduplicated by content.
	c.collectStringLiterals(program)

	for _, line := range c.emitter.Header() {
		c.emitRaw(line)
	}

	if len(c.stringOrder) > 0 {
		c.emitRaw(".section .rodata")
		for _, content := range c.stringOrder {
			c.emitRaw(c.stringLiterals[content] + ":")
			c.emit(fmt.Sprintf(".string \"%s\"", escapeString(content)))
		}
		c.emitRaw("")
	}

	if len(program.GlobalVariables) > 0 {
		c.emitRaw(".section .data")
		for _, global := range program.GlobalVariables {
			c.emitGlobalVariable(global)
		}
		c.emitRaw("")
	}

	c.emitRaw(".section .text")
	for i := range program.Functions {
		if err := c.generateFunction(&program.Functions[i]); err != nil {
			return "", err
		}
	}

	c.emitEntryStub()
	return c.output.String(), nil
}

func (c *CodeGenerator) generateFunction(function *Function) error {
	c.params = make(map[string]int)
	c.locals = make(map[string]int)
	c.stackOffset = len(function.Parameters) * c.emitter.SlotSize()
	c.lastToReturn = false

	c.emitRaw(fmt.Sprintf(".globl %s", function.Name))
	c.emitRaw(function.Name + ":")
	c.emitLines(c.emitter.Prologue(len(function.Parameters)))
	for i, param := range function.Parameters {
		c.emitLines(c.emitter.CopyParamToSlot(i))
		c.params[param.Name] = (i + 1) * c.emitter.SlotSize()
	}

	if err := c.generateStatement(function.Body); err != nil {
		return err
	}

	// Natural epilogue at the end of the body, unless the last statement
	// already returned.
	if !c.lastToReturn {
		c.emitLines(c.emitter.Epilogue())
	}
	c.emitRaw("")
	return nil
}

func (c *CodeGenerator) emitEntryStub() {
	c.emitRaw(".globl _start")
	c.emitRaw("_start:")
	c.emitLines(c.emitter.EntryStub())
}

func (c *CodeGenerator) emitGlobalVariable(global GlobalVariable) {
	// Globals are zero-initialized reservations; initializer expressions
	// are not emitted.
	c.emitRaw(global.Name + ":")
	switch size := c.typeSize(global.VarType); size {
	case 1:
		c.emit(".byte 0")
	case 2:
		c.emit(".word 0")
	case 4:
		c.emit(".long 0")
	case 8:
		c.emit(".quad 0")
	default:
		c.emit(fmt.Sprintf(".zero %d", size))
	}
}

// Statements

func (c *CodeGenerator) generateStatement(statement Statement) error {
	c.lastToReturn = false
	switch s := statement.(type) {
	case *ExpressionStmt:
		return c.generateExpression(s.Expr)
	case *DeclarationStmt:
		return c.generateDeclaration(s)
	case *BlockStmt:
		for _, inner := range s.Statements {
			if err := c.generateStatement(inner); err != nil {
				return err
			}
		}
		return nil
	case *IfStmt:
		return c.generateIf(s)
	case *WhileStmt:
		return c.generateWhile(s)
	case *ForStmt:
		return c.generateFor(s)
	case *ReturnStmt:
		if s.Value != nil {
			if err := c.generateExpression(s.Value); err != nil {
				return err
			}
		}
		c.emitLines(c.emitter.Epilogue())
		c.lastToReturn = true
		return nil
	default:
		return &CodegenError{Message: "Statement type not implemented"}
	}
}

func (c *CodeGenerator) generateDeclaration(s *DeclarationStmt) error {
	if array, ok := s.VarType.(*ArrayType); ok {
		length := 10
		if array.Length != nil {
			length = *array.Length
		}
		// Array elements occupy fixed 8-byte slots regardless of the
		// declared element type.
		c.stackOffset += 8 * length
		c.locals[s.Name] = c.stackOffset
	} else {
		c.stackOffset += c.emitter.SlotSize()
		c.locals[s.Name] = c.stackOffset
	}

	if s.Initializer != nil {
		if err := c.generateExpression(s.Initializer); err != nil {
			return err
		}
		c.emitLines(c.emitter.StoreLocal(c.locals[s.Name]))
	}
	return nil
}

func (c *CodeGenerator) generateIf(s *IfStmt) error {
	elseLabel := c.newLabel("else")
	endLabel := c.newLabel("endif")

	if err := c.generateExpression(s.Condition); err != nil {
		return err
	}
	c.emitLines(c.emitter.TestJumpZero(elseLabel))
	if err := c.generateStatement(s.Then); err != nil {
		return err
	}
	c.emitLines(c.emitter.Jump(endLabel))
	c.emitRaw(elseLabel + ":")
	if s.Else != nil {
		if err := c.generateStatement(s.Else); err != nil {
			return err
		}
	}
	c.emitRaw(endLabel + ":")
	c.lastToReturn = false
	return nil
}

func (c *CodeGenerator) generateWhile(s *WhileStmt) error {
	loopLabel := c.newLabel("loop")
	endLabel := c.newLabel("endloop")

	c.emitRaw(loopLabel + ":")
	if err := c.generateExpression(s.Condition); err != nil {
		return err
	}
	c.emitLines(c.emitter.TestJumpZero(endLabel))
	if err := c.generateStatement(s.Body); err != nil {
		return err
	}
	c.emitLines(c.emitter.Jump(loopLabel))
	c.emitRaw(endLabel + ":")
	c.lastToReturn = false
	return nil
}

func (c *CodeGenerator) generateFor(s *ForStmt) error {
	loopLabel := c.newLabel("for")
	endLabel := c.newLabel("endfor")

	if s.Init != nil {
		if err := c.generateStatement(s.Init); err != nil {
			return err
		}
	}
	c.emitRaw(loopLabel + ":")
	if s.Condition != nil {
		if err := c.generateExpression(s.Condition); err != nil {
			return err
		}
		c.emitLines(c.emitter.TestJumpZero(endLabel))
	}
	if err := c.generateStatement(s.Body); err != nil {
		return err
	}
	if s.Increment != nil {
		if err := c.generateExpression(s.Increment); err != nil {
			return err
		}
	}
	c.emitLines(c.emitter.Jump(loopLabel))
	c.emitRaw(endLabel + ":")
	c.lastToReturn = false
	return nil
}

// Expressions. Every expression leaves its result in the accumulator.

func (c *CodeGenerator) generateExpression(expression Expression) error {
	switch e := expression.(type) {
	case *IntegerLiteral:
		c.emitLines(c.emitter.LoadImmediate(e.Value))
		return nil
	case *FloatLiteral:
		return &CodegenError{Message: "Floating-point literals not supported"}
	case *CharLiteral:
		c.emitLines(c.emitter.LoadImmediate(int64(e.Value)))
		return nil
	case *BooleanLiteral:
		value := int64(0)
		if e.Value {
			value = 1
		}
		c.emitLines(c.emitter.LoadImmediate(value))
		return nil
	case *StringLiteral:
		c.emitLines(c.emitter.LoadStringLiteral(c.stringLiterals[e.Value]))
		return nil
	case *Identifier:
		c.generateLoadVariable(e.Name)
		return nil
	case *BinaryExpr:
		return c.generateBinary(e)
	case *UnaryExpr:
		return c.generateUnary(e)
	case *CallExpr:
		return c.generateCall(e)
	case *IndexExpr:
		return c.generateIndex(e)
	case *AssignExpr:
		return c.generateAssignment(e)
	case *CastExpr:
		// Casts change nothing at the word level.
		return c.generateExpression(e.Expr)
	case *SizeofExpr:
		c.emitLines(c.emitter.LoadImmediate(int64(c.typeSize(e.Type))))
		return nil
	case *MemberExpr:
		return &CodegenError{Message: "Member access not implemented"}
	case *ConditionalExpr:
		return &CodegenError{Message: "Conditional expressions not implemented"}
	default:
		return &CodegenError{Message: "Expression type not implemented"}
	}
}

// generateLoadVariable probes parameters, then locals, then falls back to a
// global symbol reference by name.
func (c *CodeGenerator) generateLoadVariable(name string) {
	if offset, ok := c.params[name]; ok {
		c.emitLines(c.emitter.LoadLocal(offset))
	} else if offset, ok := c.locals[name]; ok {
		c.emitLines(c.emitter.LoadLocal(offset))
	} else {
		c.emitLines(c.emitter.LoadGlobal(name))
	}
}

func (c *CodeGenerator) generateStoreVariable(name string) {
	if offset, ok := c.params[name]; ok {
		c.emitLines(c.emitter.StoreLocal(offset))
	} else if offset, ok := c.locals[name]; ok {
		c.emitLines(c.emitter.StoreLocal(offset))
	} else {
		c.emitLines(c.emitter.StoreGlobal(name))
	}
}

// generateBinary evaluates the right operand first, spills it, evaluates the
// left operand, then reloads the right into the secondary register and
// fuses. Logical && and || reduce both operands to 0/1 and combine bitwise;
// they do not short-circuit.
func (c *CodeGenerator) generateBinary(e *BinaryExpr) error {
	logical := e.Operator == OpLogicalAnd || e.Operator == OpLogicalOr

	if err := c.generateExpression(e.Right); err != nil {
		return err
	}
	if logical {
		c.emitLines(c.emitter.NormalizeBool())
	}
	c.emitLines(c.emitter.Push())
	if err := c.generateExpression(e.Left); err != nil {
		return err
	}
	if logical {
		c.emitLines(c.emitter.NormalizeBool())
	}
	c.emitLines(c.emitter.PopSecondary())

	lines, err := c.emitter.BinaryOp(e.Operator)
	if err != nil {
		return err
	}
	c.emitLines(lines)
	return nil
}

func (c *CodeGenerator) generateUnary(e *UnaryExpr) error {
	switch e.Operator {
	case UnaryPlus:
		return c.generateExpression(e.Operand)
	case UnaryMinus:
		if err := c.generateExpression(e.Operand); err != nil {
			return err
		}
		c.emitLines(c.emitter.Negate())
		return nil
	case UnaryLogicalNot:
		if err := c.generateExpression(e.Operand); err != nil {
			return err
		}
		c.emitLines(c.emitter.LogicalNot())
		return nil
	case UnaryBitwiseNot:
		if err := c.generateExpression(e.Operand); err != nil {
			return err
		}
		c.emitLines(c.emitter.BitwiseNot())
		return nil
	case PreIncrement, PreDecrement, PostIncrement, PostDecrement:
		return c.generateIncDec(e)
	case AddressOf:
		identifier, ok := e.Operand.(*Identifier)
		if !ok {
			return &CodegenError{Message: "Address-of requires a named variable"}
		}
		if offset, ok := c.params[identifier.Name]; ok {
			c.emitLines(c.emitter.AddressOfLocal(offset))
		} else if offset, ok := c.locals[identifier.Name]; ok {
			c.emitLines(c.emitter.AddressOfLocal(offset))
		} else if c.globals[identifier.Name] {
			c.emitLines(c.emitter.AddressOfGlobal(identifier.Name))
		} else {
			return &CodegenError{Message: fmt.Sprintf("Undefined variable in address-of: %s", identifier.Name)}
		}
		return nil
	case Dereference:
		if err := c.generateExpression(e.Operand); err != nil {
			return err
		}
		c.emitLines(c.emitter.Dereference())
		return nil
	default:
		return &CodegenError{Message: "Unary operator not implemented"}
	}
}

// generateIncDec updates an identifier in place. Prefix forms latch the
// updated value into the accumulator, postfix forms the original.
func (c *CodeGenerator) generateIncDec(e *UnaryExpr) error {
	identifier, ok := e.Operand.(*Identifier)
	if !ok {
		return &CodegenError{Message: "Increment/decrement requires a named variable"}
	}
	delta := int64(1)
	if e.Operator == PreDecrement || e.Operator == PostDecrement {
		delta = -1
	}

	c.generateLoadVariable(identifier.Name)
	switch e.Operator {
	case PreIncrement, PreDecrement:
		c.emitLines(c.emitter.AddImmediate(delta))
		c.generateStoreVariable(identifier.Name)
	default: // postfix
		c.emitLines(c.emitter.MoveAccToSecondary())
		c.emitLines(c.emitter.AddImmediate(delta))
		c.generateStoreVariable(identifier.Name)
		c.emitLines(c.emitter.MoveSecondaryToAcc())
	}
	return nil
}

// generateCall lowers arguments in an order that avoids clobbering: stack
// arguments are pushed last-to-first, then register arguments are evaluated
// last-to-first and spilled, and finally reloaded into the parameter
// registers in ABI order.
func (c *CodeGenerator) generateCall(e *CallExpr) error {
	callee, ok := e.Function.(*Identifier)
	if !ok {
		return &CodegenError{Message: "Indirect function calls not implemented"}
	}

	regCount := c.emitter.ParamRegisterCount()
	stackArgCount := 0
	if len(e.Arguments) > regCount {
		stackArgCount = len(e.Arguments) - regCount
	}
	stackArgBytes := stackArgCount * c.emitter.SlotSize()

	cleanup := 0
	if stackArgCount > 0 && c.target == Arm64 {
		cleanup = alignUp(stackArgBytes, 16)
		c.emitLines(c.emitter.AllocStackArgs(cleanup))
	} else {
		padLines, pad := c.emitter.StackArgPad(stackArgBytes)
		c.emitLines(padLines)
		cleanup = stackArgBytes + pad
	}

	for i := len(e.Arguments) - 1; i >= regCount; i-- {
		if err := c.generateExpression(e.Arguments[i]); err != nil {
			return err
		}
		c.emitLines(c.emitter.StoreStackArg(i - regCount))
	}

	registerArgs := len(e.Arguments)
	if registerArgs > regCount {
		registerArgs = regCount
	}
	for i := registerArgs - 1; i >= 0; i-- {
		if err := c.generateExpression(e.Arguments[i]); err != nil {
			return err
		}
		c.emitLines(c.emitter.PushArgTemp())
	}
	for i := 0; i < registerArgs; i++ {
		c.emitLines(c.emitter.PopArgRegister(i))
	}

	c.emitLines(c.emitter.Call(callee.Name))
	if cleanup > 0 {
		c.emitLines(c.emitter.CleanupStackArgs(cleanup))
	}
	return nil
}

func (c *CodeGenerator) generateIndex(e *IndexExpr) error {
	identifier, ok := e.Array.(*Identifier)
	if !ok {
		return &CodegenError{Message: "Array indexing requires a named local array"}
	}
	offset, ok := c.locals[identifier.Name]
	if !ok {
		return &CodegenError{Message: fmt.Sprintf("Array indexing requires a named local array: %s", identifier.Name)}
	}
	if err := c.generateExpression(e.Index); err != nil {
		return err
	}
	c.emitLines(c.emitter.IndexAddress(offset))
	c.emitLines(c.emitter.Dereference())
	return nil
}

func (c *CodeGenerator) generateAssignment(e *AssignExpr) error {
	identifier, ok := e.Target.(*Identifier)
	if !ok {
		return &CodegenError{Message: "Complex assignment targets not implemented"}
	}

	if e.Operator == OpAssign {
		if err := c.generateExpression(e.Value); err != nil {
			return err
		}
		c.generateStoreVariable(identifier.Name)
		return nil
	}

	// Compound form: load the current value, spill it, evaluate the
	// right-hand side, recombine, store.
	c.generateLoadVariable(identifier.Name)
	c.emitLines(c.emitter.Push())
	if err := c.generateExpression(e.Value); err != nil {
		return err
	}
	c.emitLines(c.emitter.PopSecondary())
	lines, err := c.emitter.CompoundOp(e.Operator)
	if err != nil {
		return err
	}
	c.emitLines(lines)
	c.generateStoreVariable(identifier.Name)
	return nil
}

// String literal collection walks every statement and expression before
// emission; labels are unique by content.

func (c *CodeGenerator) collectStringLiterals(program *Program) {
	for i := range program.Functions {
		c.collectStringsInStatement(program.Functions[i].Body)
	}
	for _, global := range program.GlobalVariables {
		if global.Initializer != nil {
			c.collectStringsInExpression(global.Initializer)
		}
	}
}

func (c *CodeGenerator) collectStringsInStatement(statement Statement) {
	switch s := statement.(type) {
	case *ExpressionStmt:
		c.collectStringsInExpression(s.Expr)
	case *DeclarationStmt:
		if s.Initializer != nil {
			c.collectStringsInExpression(s.Initializer)
		}
	case *BlockStmt:
		for _, inner := range s.Statements {
			c.collectStringsInStatement(inner)
		}
	case *IfStmt:
		c.collectStringsInExpression(s.Condition)
		c.collectStringsInStatement(s.Then)
		if s.Else != nil {
			c.collectStringsInStatement(s.Else)
		}
	case *WhileStmt:
		c.collectStringsInExpression(s.Condition)
		c.collectStringsInStatement(s.Body)
	case *ForStmt:
		if s.Init != nil {
			c.collectStringsInStatement(s.Init)
		}
		if s.Condition != nil {
			c.collectStringsInExpression(s.Condition)
		}
		if s.Increment != nil {
			c.collectStringsInExpression(s.Increment)
		}
		c.collectStringsInStatement(s.Body)
	case *DoWhileStmt:
		c.collectStringsInStatement(s.Body)
		c.collectStringsInExpression(s.Condition)
	case *SwitchStmt:
		c.collectStringsInExpression(s.Expr)
		for _, switchCase := range s.Cases {
			if switchCase.Value != nil {
				c.collectStringsInExpression(switchCase.Value)
			}
			for _, inner := range switchCase.Body {
				c.collectStringsInStatement(inner)
			}
		}
	case *ReturnStmt:
		if s.Value != nil {
			c.collectStringsInExpression(s.Value)
		}
	}
}

func (c *CodeGenerator) collectStringsInExpression(expression Expression) {
	switch e := expression.(type) {
	case *StringLiteral:
		if _, ok := c.stringLiterals[e.Value]; !ok {
			c.stringLiterals[e.Value] = fmt.Sprintf(".LC%d", len(c.stringLiterals))
			c.stringOrder = append(c.stringOrder, e.Value)
		}
	case *BinaryExpr:
		c.collectStringsInExpression(e.Left)
		c.collectStringsInExpression(e.Right)
	case *UnaryExpr:
		c.collectStringsInExpression(e.Operand)
	case *CallExpr:
		c.collectStringsInExpression(e.Function)
		for _, arg := range e.Arguments {
			c.collectStringsInExpression(arg)
		}
	case *MemberExpr:
		c.collectStringsInExpression(e.Object)
	case *IndexExpr:
		c.collectStringsInExpression(e.Array)
		c.collectStringsInExpression(e.Index)
	case *CastExpr:
		c.collectStringsInExpression(e.Expr)
	case *AssignExpr:
		c.collectStringsInExpression(e.Target)
		c.collectStringsInExpression(e.Value)
	case *ConditionalExpr:
		c.collectStringsInExpression(e.Condition)
		c.collectStringsInExpression(e.Then)
		c.collectStringsInExpression(e.Else)
	}
}

// Helpers

func (c *CodeGenerator) typeSize(t Type) int {
	pointerSize := c.target.PointerSize()
	switch t := t.(type) {
	case *BasicType:
		switch t.Kind {
		case TypeChar:
			return 1
		case TypeShort:
			return 2
		case TypeInt:
			return 4
		case TypeLong:
			return pointerSize
		case TypeFloat:
			return 4
		case TypeDouble:
			return 8
		default:
			return pointerSize
		}
	case *PointerType:
		return pointerSize
	case *ArrayType:
		length := 10
		if t.Length != nil {
			length = *t.Length
		}
		return 8 * length
	default:
		return pointerSize
	}
}

func (c *CodeGenerator) newLabel(prefix string) string {
	label := fmt.Sprintf(".L%s_%d", prefix, c.labelCounter)
	c.labelCounter++
	return label
}

// emit writes one indented instruction or directive line.
func (c *CodeGenerator) emit(line string) {
	c.output.WriteString("    ")
	c.output.WriteString(line)
	c.output.WriteByte('\n')
}

// emitRaw writes one line with no indentation (labels, section directives).
func (c *CodeGenerator) emitRaw(line string) {
	c.output.WriteString(line)
	c.output.WriteByte('\n')
}

func (c *CodeGenerator) emitLines(lines []string) {
	for _, line := range lines {
		c.emit(line)
	}
}

func escapeString(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "\"", "\\\"")
	s = strings.ReplaceAll(s, "\n", "\\n")
	s = strings.ReplaceAll(s, "\t", "\\t")
	s = strings.ReplaceAll(s, "\r", "\\r")
	return s
}

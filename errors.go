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

// LexError reports a malformed token at a source position.
type LexError struct {
	Line    int
	Column  int
	Message string
}

func (e *LexError) Error() string {
	return fmt.Sprintf("Lexical error at line %d, column %d: %s", e.Line, e.Column, e.Message)
}

// ParseError reports a grammar mismatch at a source position.
type ParseError struct {
	Line    int
	Column  int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("Parse error at line %d, column %d: %s", e.Line, e.Column, e.Message)
}

// SemanticError reports a program that lexes and parses but has no meaning.
type SemanticError struct {
	Message string
}

func (e *SemanticError) Error() string {
	return fmt.Sprintf("Semantic error: %s", e.Message)
}

// CodegenError reports an AST shape the code generator does not support.
type CodegenError struct {
	Message string
}

func (e *CodegenError) Error() string {
	return fmt.Sprintf("Code generation error: %s", e.Message)
}

// LinkerError reports a failure while building or running the link step.
type LinkerError struct {
	Message string
}

func (e *LinkerError) Error() string {
	return fmt.Sprintf("Linker error: %s", e.Message)
}

// UnsupportedTargetError reports a target string with no matching architecture.
type UnsupportedTargetError struct {
	Target string
}

func (e *UnsupportedTargetError) Error() string {
	return fmt.Sprintf("Target not supported: %s", e.Target)
}

// FileNotFoundError reports a missing input or include file.
type FileNotFoundError struct {
	Path string
}

func (e *FileNotFoundError) Error() string {
	return fmt.Sprintf("File not found: %s", e.Path)
}

// InvalidArgumentError reports a malformed driver invocation.
type InvalidArgumentError struct {
	Message string
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("Invalid argument: %s", e.Message)
}

// InternalError reports a bug in the compiler itself.
type InternalError struct {
	Message string
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("Internal compiler error: %s", e.Message)
}

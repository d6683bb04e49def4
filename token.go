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
	"strconv"
)

// TokenType enumerates every token kind the lexer can produce.
type TokenType int

const (
	// Literals
	IntegerLiteralToken TokenType = iota
	FloatLiteralToken
	StringLiteralToken
	CharLiteralToken

	// Identifiers
	IdentifierToken

	// C keywords
	KwAuto
	KwBreak
	KwCase
	KwChar
	KwConst
	KwContinue
	KwDefault
	KwDo
	KwDouble
	KwElse
	KwEnum
	KwExtern
	KwFloat
	KwFor
	KwGoto
	KwIf
	KwInt
	KwLong
	KwRegister
	KwReturn
	KwShort
	KwSigned
	KwSizeof
	KwStatic
	KwStruct
	KwSwitch
	KwTypedef
	KwUnion
	KwUnsigned
	KwVoid
	KwVolatile
	KwWhile

	// C++ keywords
	KwBool
	KwClass
	KwExplicit
	KwExport
	KwFalse
	KwFriend
	KwInline
	KwMutable
	KwNamespace
	KwNew
	KwOperator
	KwPrivate
	KwProtected
	KwPublic
	KwTemplate
	KwThis
	KwThrow
	KwTrue
	KwTry
	KwTypename
	KwUsing
	KwVirtual

	// Operators
	Plus
	Minus
	Multiply
	Divide
	Modulo
	Assign
	PlusAssign
	MinusAssign
	MultiplyAssign
	DivideAssign
	ModuloAssign
	Equal
	NotEqual
	Less
	Greater
	LessEqual
	GreaterEqual
	LogicalAnd
	LogicalOr
	LogicalNot
	BitwiseAnd
	BitwiseOr
	BitwiseXor
	BitwiseNot
	LeftShift
	RightShift
	LeftShiftAssign
	RightShiftAssign
	BitwiseAndAssign
	BitwiseOrAssign
	BitwiseXorAssign
	Increment
	Decrement
	Arrow
	Dot
	Question
	Colon

	// Delimiters
	LeftParen
	RightParen
	LeftBrace
	RightBrace
	LeftBracket
	RightBracket
	Semicolon
	Comma

	// Preprocessor
	Hash
	HashHash

	// Special
	Eof
	Newline
)

// keywords maps lexemes to their keyword token types, C and C++ sets both.
var keywords = map[string]TokenType{
	"auto": KwAuto, "break": KwBreak, "case": KwCase, "char": KwChar,
	"const": KwConst, "continue": KwContinue, "default": KwDefault, "do": KwDo,
	"double": KwDouble, "else": KwElse, "enum": KwEnum, "extern": KwExtern,
	"float": KwFloat, "for": KwFor, "goto": KwGoto, "if": KwIf,
	"int": KwInt, "long": KwLong, "register": KwRegister, "return": KwReturn,
	"short": KwShort, "signed": KwSigned, "sizeof": KwSizeof, "static": KwStatic,
	"struct": KwStruct, "switch": KwSwitch, "typedef": KwTypedef, "union": KwUnion,
	"unsigned": KwUnsigned, "void": KwVoid, "volatile": KwVolatile, "while": KwWhile,

	"bool": KwBool, "class": KwClass, "explicit": KwExplicit, "export": KwExport,
	"false": KwFalse, "friend": KwFriend, "inline": KwInline, "mutable": KwMutable,
	"namespace": KwNamespace, "new": KwNew, "operator": KwOperator, "private": KwPrivate,
	"protected": KwProtected, "public": KwPublic, "template": KwTemplate, "this": KwThis,
	"throw": KwThrow, "true": KwTrue, "try": KwTry, "typename": KwTypename,
	"using": KwUsing, "virtual": KwVirtual,
}

// tokenNames holds the canonical printed form of fixed-lexeme tokens.
var tokenNames = map[TokenType]string{
	Plus: "+", Minus: "-", Multiply: "*", Divide: "/", Modulo: "%",
	Assign: "=", PlusAssign: "+=", MinusAssign: "-=", MultiplyAssign: "*=",
	DivideAssign: "/=", ModuloAssign: "%=",
	Equal: "==", NotEqual: "!=", Less: "<", Greater: ">",
	LessEqual: "<=", GreaterEqual: ">=",
	LogicalAnd: "&&", LogicalOr: "||", LogicalNot: "!",
	BitwiseAnd: "&", BitwiseOr: "|", BitwiseXor: "^", BitwiseNot: "~",
	LeftShift: "<<", RightShift: ">>", LeftShiftAssign: "<<=", RightShiftAssign: ">>=",
	BitwiseAndAssign: "&=", BitwiseOrAssign: "|=", BitwiseXorAssign: "^=",
	Increment: "++", Decrement: "--", Arrow: "->", Dot: ".",
	Question: "?", Colon: ":",
	LeftParen: "(", RightParen: ")", LeftBrace: "{", RightBrace: "}",
	LeftBracket: "[", RightBracket: "]", Semicolon: ";", Comma: ",",
	Hash: "#", HashHash: "##",
	Eof: "<eof>", Newline: "\n",
}

func init() {
	for lexeme, tt := range keywords {
		tokenNames[tt] = lexeme
	}
}

// Token is one lexical unit with its source position. The value fields are
// populated only for the literal and identifier kinds.
type Token struct {
	Type       TokenType
	IntValue   int64
	FloatValue float64
	StrValue   string
	CharValue  rune
	Line       int
	Column     int
	Length     int
}

// String returns the canonical printed form of the token.
func (t Token) String() string {
	switch t.Type {
	case IntegerLiteralToken:
		return strconv.FormatInt(t.IntValue, 10)
	case FloatLiteralToken:
		return strconv.FormatFloat(t.FloatValue, 'g', -1, 64)
	case StringLiteralToken:
		return fmt.Sprintf("%q", t.StrValue)
	case CharLiteralToken:
		return fmt.Sprintf("'%c'", t.CharValue)
	case IdentifierToken:
		return t.StrValue
	default:
		if name, ok := tokenNames[t.Type]; ok {
			return name
		}
		return fmt.Sprintf("token(%d)", int(t.Type))
	}
}

// IsTypeKeyword reports whether the token can begin a type specifier.
func (t Token) IsTypeKeyword() bool {
	switch t.Type {
	case KwVoid, KwChar, KwShort, KwInt, KwLong, KwFloat, KwDouble, KwBool,
		KwStruct, KwUnion, KwEnum:
		return true
	default:
		return false
	}
}

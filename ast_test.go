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
	"reflect"
	"testing"
)

func TestProgramCloneIsDeep(t *testing.T) {
	program := parse(t, `
int g = 3;
int main(int n) { if (n > 0) return n * 2; return g; }
`)
	clone := program.Clone()
	if !reflect.DeepEqual(program, clone) {
		t.Fatal("clone differs from original")
	}

	// Mutate a leaf deep inside the clone; the original must not move.
	ifStmt := clone.Functions[0].Body.(*BlockStmt).Statements[0].(*IfStmt)
	mul := ifStmt.Then.(*ReturnStmt).Value.(*BinaryExpr)
	mul.Right.(*IntegerLiteral).Value = 99

	originalIf := program.Functions[0].Body.(*BlockStmt).Statements[0].(*IfStmt)
	originalMul := originalIf.Then.(*ReturnStmt).Value.(*BinaryExpr)
	if got := originalMul.Right.(*IntegerLiteral).Value; got != 2 {
		t.Errorf("original literal = %d, want 2 (clone mutation leaked)", got)
	}

	clone.GlobalVariables[0].Initializer.(*IntegerLiteral).Value = 7
	if got := program.GlobalVariables[0].Initializer.(*IntegerLiteral).Value; got != 3 {
		t.Errorf("original global initializer = %d, want 3", got)
	}

	clone.TypeDefinitions["t"] = &BasicType{Kind: TypeInt}
	if _, ok := program.TypeDefinitions["t"]; ok {
		t.Error("type definition map is shared")
	}
}

func TestArrayTypeCloneCopiesLength(t *testing.T) {
	length := 4
	array := &ArrayType{Elem: &BasicType{Kind: TypeInt}, Length: &length}
	clone := array.CloneType().(*ArrayType)
	*clone.Length = 8
	if *array.Length != 4 {
		t.Errorf("original length = %d, want 4", *array.Length)
	}

	unsized := &ArrayType{Elem: &BasicType{Kind: TypeChar}}
	if cloned := unsized.CloneType().(*ArrayType); cloned.Length != nil {
		t.Error("unsized array clone gained a length")
	}
}

func TestFunctionTypeClone(t *testing.T) {
	fn := &FunctionType{
		Return:   &PointerType{Elem: &BasicType{Kind: TypeChar}},
		Params:   []Type{&BasicType{Kind: TypeInt}, &PointerType{Elem: &BasicType{Kind: TypeVoid}}},
		Variadic: true,
	}
	clone := fn.CloneType().(*FunctionType)
	if !reflect.DeepEqual(fn, clone) {
		t.Fatal("clone differs")
	}
	clone.Params[0].(*BasicType).Kind = TypeLong
	if fn.Params[0].(*BasicType).Kind != TypeInt {
		t.Error("parameter types are shared")
	}
}

func TestStatementCloneCoversAllKinds(t *testing.T) {
	one := Expression(&IntegerLiteral{Value: 1})
	statements := []Statement{
		&ExpressionStmt{Expr: one.CloneExpr()},
		&DeclarationStmt{Name: "x", VarType: &BasicType{Kind: TypeInt}, Initializer: one.CloneExpr()},
		&BlockStmt{Statements: []Statement{&ReturnStmt{}}},
		&IfStmt{Condition: one.CloneExpr(), Then: &ReturnStmt{}, Else: &BreakStmt{}},
		&WhileStmt{Condition: one.CloneExpr(), Body: &ContinueStmt{}},
		&ForStmt{Body: &BlockStmt{}},
		&DoWhileStmt{Body: &BlockStmt{}, Condition: one.CloneExpr()},
		&SwitchStmt{Expr: one.CloneExpr(), Cases: []SwitchCase{{Value: one.CloneExpr(), Body: []Statement{&BreakStmt{}}}, {Body: []Statement{&ReturnStmt{}}}}},
		&ReturnStmt{Value: one.CloneExpr()},
		&GotoStmt{Label: "out"},
		&LabelStmt{Name: "out"},
	}
	for _, statement := range statements {
		clone := statement.CloneStmt()
		if !reflect.DeepEqual(statement, clone) {
			t.Errorf("%T clone differs from original", statement)
		}
		if clone == statement {
			t.Errorf("%T clone is the same node", statement)
		}
	}
}

func TestExpressionCloneCoversAllKinds(t *testing.T) {
	expressions := []Expression{
		&IntegerLiteral{Value: 42},
		&FloatLiteral{Value: 3.14},
		&StringLiteral{Value: "hi"},
		&CharLiteral{Value: 'a'},
		&BooleanLiteral{Value: true},
		&Identifier{Name: "x"},
		&BinaryExpr{Left: &Identifier{Name: "a"}, Operator: OpAdd, Right: &IntegerLiteral{Value: 1}},
		&UnaryExpr{Operator: UnaryMinus, Operand: &Identifier{Name: "a"}},
		&CallExpr{Function: &Identifier{Name: "f"}, Arguments: []Expression{&IntegerLiteral{Value: 1}}},
		&MemberExpr{Object: &Identifier{Name: "s"}, Member: "field", IsArrow: true},
		&IndexExpr{Array: &Identifier{Name: "a"}, Index: &IntegerLiteral{Value: 0}},
		&CastExpr{TargetType: &BasicType{Kind: TypeLong}, Expr: &Identifier{Name: "x"}},
		&SizeofExpr{Type: &PointerType{Elem: &BasicType{Kind: TypeChar}}},
		&AssignExpr{Target: &Identifier{Name: "x"}, Operator: OpPlusAssign, Value: &IntegerLiteral{Value: 2}},
		&ConditionalExpr{Condition: &Identifier{Name: "c"}, Then: &IntegerLiteral{Value: 1}, Else: &IntegerLiteral{Value: 0}},
	}
	for _, expression := range expressions {
		clone := expression.CloneExpr()
		if !reflect.DeepEqual(expression, clone) {
			t.Errorf("%T clone differs from original", expression)
		}
		if clone == expression {
			t.Errorf("%T clone is the same node", expression)
		}
	}
}

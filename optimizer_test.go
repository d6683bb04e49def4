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

func TestOptimizationLevelFromString(t *testing.T) {
	tests := []struct {
		input string
		want  OptimizationLevel
	}{
		{"0", OptNone},
		{"1", OptBasic},
		{"2", OptModerate},
		{"3", OptAggressive},
		{"s", OptSize},
		{"z", OptSizeZ},
		{"fast", OptNone},
		{"", OptNone},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := OptimizationLevelFromString(tt.input); got != tt.want {
				t.Errorf("OptimizationLevelFromString(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

const optimizerFixture = `
int counter;
int fib(int n) { if (n <= 1) return n; return fib(n - 1) + fib(n - 2); }
int main() { int s = 0; for(int i = 0; i < 10; i = i + 1) s = s + fib(i); return s; }
`

func TestOptimizerPreservesProgram(t *testing.T) {
	levels := []OptimizationLevel{OptNone, OptBasic, OptModerate, OptAggressive, OptSize, OptSizeZ}
	for _, level := range levels {
		t.Run(string(rune('0'+int(level))), func(t *testing.T) {
			program := parse(t, optimizerFixture)
			original := program.Clone()
			if err := NewOptimizer(level).Optimize(program); err != nil {
				t.Fatalf("Optimize failed: %v", err)
			}
			if !reflect.DeepEqual(program, original) {
				t.Error("program changed; all passes should currently be no-ops")
			}
		})
	}
}

func TestOptimizerIdempotent(t *testing.T) {
	program := parse(t, optimizerFixture)
	optimizer := NewOptimizer(OptAggressive)
	if err := optimizer.Optimize(program); err != nil {
		t.Fatalf("first Optimize failed: %v", err)
	}
	once := program.Clone()
	if err := optimizer.Optimize(program); err != nil {
		t.Fatalf("second Optimize failed: %v", err)
	}
	if !reflect.DeepEqual(program, once) {
		t.Error("second optimization changed the program")
	}
}

func TestOptimizedProgramStillGenerates(t *testing.T) {
	for _, level := range []OptimizationLevel{OptNone, OptBasic, OptModerate, OptAggressive, OptSize, OptSizeZ} {
		for _, target := range []Target{I386, Amd64, Arm64} {
			program := parse(t, optimizerFixture)
			if err := NewOptimizer(level).Optimize(program); err != nil {
				t.Fatalf("Optimize failed: %v", err)
			}
			codegen, err := NewCodeGenerator(target)
			if err != nil {
				t.Fatalf("NewCodeGenerator(%v) failed: %v", target, err)
			}
			assembly, err := codegen.Generate(program)
			if err != nil {
				t.Fatalf("Generate on %v at level %d failed: %v", target, level, err)
			}
			if assembly == "" {
				t.Errorf("empty assembly on %v at level %d", target, level)
			}
		}
	}
}

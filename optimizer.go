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

// OptimizationLevel selects which pass composition runs. Each level is a
// superset of the levels below it.
type OptimizationLevel int

const (
	OptNone       OptimizationLevel = iota // -O0
	OptBasic                               // -O1
	OptModerate                            // -O2
	OptAggressive                          // -O3
	OptSize                                // -Os
	OptSizeZ                               // -Oz
)

// OptimizationLevelFromString parses the -O argument. Unknown strings fall
// back to no optimization.
func OptimizationLevelFromString(s string) OptimizationLevel {
	switch s {
	case "0":
		return OptNone
	case "1":
		return OptBasic
	case "2":
		return OptModerate
	case "3":
		return OptAggressive
	case "s":
		return OptSize
	case "z":
		return OptSizeZ
	default:
		return OptNone
	}
}

// Optimizer runs in-place AST passes. Every pass slot must preserve AST
// well-formedness and semantic equivalence; the slots are fixed so the
// levels compose predictably even while individual passes are unimplemented.
type Optimizer struct {
	level OptimizationLevel
}

func NewOptimizer(level OptimizationLevel) *Optimizer {
	return &Optimizer{level: level}
}

// Optimize mutates program in place according to the configured level.
func (o *Optimizer) Optimize(program *Program) error {
	switch o.level {
	case OptNone:
		return nil
	case OptBasic:
		return o.basicOptimizations(program)
	case OptModerate:
		if err := o.basicOptimizations(program); err != nil {
			return err
		}
		return o.moderateOptimizations(program)
	case OptAggressive:
		if err := o.basicOptimizations(program); err != nil {
			return err
		}
		if err := o.moderateOptimizations(program); err != nil {
			return err
		}
		return o.aggressiveOptimizations(program)
	case OptSize:
		if err := o.basicOptimizations(program); err != nil {
			return err
		}
		return o.sizeOptimizations(program)
	case OptSizeZ:
		if err := o.basicOptimizations(program); err != nil {
			return err
		}
		if err := o.sizeOptimizations(program); err != nil {
			return err
		}
		return o.aggressiveSizeOptimizations(program)
	default:
		return nil
	}
}

func (o *Optimizer) basicOptimizations(program *Program) error {
	if err := o.eliminateDeadCode(program); err != nil {
		return err
	}
	if err := o.foldConstants(program); err != nil {
		return err
	}
	return o.basicStrengthReduction(program)
}

func (o *Optimizer) moderateOptimizations(program *Program) error {
	if err := o.optimizeLoops(program); err != nil {
		return err
	}
	if err := o.inlineSmallFunctions(program); err != nil {
		return err
	}
	return o.eliminateCommonSubexpressions(program)
}

func (o *Optimizer) aggressiveOptimizations(program *Program) error {
	if err := o.advancedLoopOptimizations(program); err != nil {
		return err
	}
	if err := o.aggressiveInlining(program); err != nil {
		return err
	}
	if err := o.interproceduralOptimizations(program); err != nil {
		return err
	}
	return o.autoVectorization(program)
}

func (o *Optimizer) sizeOptimizations(program *Program) error {
	if err := o.optimizeForSize(program); err != nil {
		return err
	}
	return o.mergeIdenticalFunctions(program)
}

func (o *Optimizer) aggressiveSizeOptimizations(program *Program) error {
	return o.ultraSizeOptimizations(program)
}

// Pass slots. Each is currently a no-op.

func (o *Optimizer) eliminateDeadCode(*Program) error {
	// TODO: remove unreachable statements and never-called functions.
	return nil
}

func (o *Optimizer) foldConstants(*Program) error {
	// TODO: evaluate constant subexpressions at compile time.
	return nil
}

func (o *Optimizer) basicStrengthReduction(*Program) error {
	// TODO: rewrite multiplication and division by powers of two as shifts.
	return nil
}

func (o *Optimizer) optimizeLoops(*Program) error {
	// TODO: loop-invariant code motion, unrolling of small loops.
	return nil
}

func (o *Optimizer) inlineSmallFunctions(*Program) error {
	// TODO: inline single-call-site and very small functions.
	return nil
}

func (o *Optimizer) eliminateCommonSubexpressions(*Program) error {
	// TODO: reuse values of repeated subexpressions.
	return nil
}

func (o *Optimizer) advancedLoopOptimizations(*Program) error {
	// TODO: loop fusion, interchange.
	return nil
}

func (o *Optimizer) aggressiveInlining(*Program) error {
	// TODO: inline across larger size thresholds.
	return nil
}

func (o *Optimizer) interproceduralOptimizations(*Program) error {
	// TODO: whole-program dead code elimination.
	return nil
}

func (o *Optimizer) autoVectorization(*Program) error {
	// TODO: vectorize counted loops on targets with SIMD.
	return nil
}

func (o *Optimizer) optimizeForSize(*Program) error {
	// TODO: prefer smaller instruction selections.
	return nil
}

func (o *Optimizer) mergeIdenticalFunctions(*Program) error {
	// TODO: merge functions with identical bodies.
	return nil
}

func (o *Optimizer) ultraSizeOptimizations(*Program) error {
	// TODO: trade performance for minimal code size.
	return nil
}

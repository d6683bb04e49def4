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
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/klauspost/asmfmt"
	"github.com/samber/lo"
)

// Options carries one driver invocation.
type Options struct {
	InputFiles     []string
	Output         string
	Target         string
	CompileOnly    bool
	AssemblyOnly   bool
	PreprocessOnly bool
	Optimization   string
	IncludeDirs    []string
	LibraryDirs    []string
	Libraries      []string
	Defines        []string
	Static         bool
	Shared         bool
	PIC            bool
	PIE            bool
	Debug          bool
	LTO            bool
	Sysroot        string
	Verbose        bool
}

// CompileSource runs the core pipeline on preprocessed source text: lexer,
// parser, optimizer, code generator. This is the whole compiler without the
// driver; it touches no files.
func CompileSource(source string, target Target, level OptimizationLevel) (string, error) {
	lexer := NewLexer(source)
	tokens, err := lexer.Tokenize()
	if err != nil {
		return "", err
	}

	parser := NewParser(tokens)
	program, err := parser.Parse()
	if err != nil {
		return "", err
	}

	optimizer := NewOptimizer(level)
	if err := optimizer.Optimize(program); err != nil {
		return "", err
	}

	codegen, err := NewCodeGenerator(target)
	if err != nil {
		return "", err
	}
	return codegen.Generate(program)
}

// Compiler drives the pipeline over a set of input files and hands the
// results to the host assembler and linker.
type Compiler struct {
	options   Options
	target    Target
	tempFiles []string
}

func NewCompiler(options Options) (*Compiler, error) {
	target, ok := TargetFromString(options.Target)
	if !ok {
		return nil, &UnsupportedTargetError{Target: options.Target}
	}
	return &Compiler{options: options, target: target}, nil
}

// Compile processes every input file and links the results unless a stop
// point (-E, -S, -c) was requested.
func (c *Compiler) Compile() error {
	if len(c.options.InputFiles) == 0 {
		return &InvalidArgumentError{Message: "No input files specified"}
	}
	c.logf("Compiling %d files for target %s", len(c.options.InputFiles), c.target)

	linkStage := !c.options.CompileOnly && !c.options.AssemblyOnly && !c.options.PreprocessOnly

	var objectFiles []string
	for _, inputFile := range c.options.InputFiles {
		switch strings.TrimPrefix(filepath.Ext(inputFile), ".") {
		case "c", "cpp", "cxx", "cc", "C":
			objectFile, err := c.compileSourceFile(inputFile)
			if err != nil {
				return err
			}
			if linkStage {
				objectFiles = append(objectFiles, objectFile)
			}
		case "s", "S":
			objectFile, err := c.assembleFile(inputFile)
			if err != nil {
				return err
			}
			if linkStage {
				objectFiles = append(objectFiles, objectFile)
			}
		case "o":
			objectFiles = append(objectFiles, inputFile)
		default:
			fmt.Fprintf(os.Stderr, "Unknown file extension for %s, treating as C source\n", inputFile)
			objectFile, err := c.compileSourceFile(inputFile)
			if err != nil {
				return err
			}
			if linkStage {
				objectFiles = append(objectFiles, objectFile)
			}
		}
	}

	if linkStage {
		if err := c.linkFiles(objectFiles); err != nil {
			return err
		}
	}
	return c.cleanup()
}

func (c *Compiler) compileSourceFile(inputFile string) (string, error) {
	c.logf("Compiling source file: %s", inputFile)

	source, err := os.ReadFile(inputFile)
	if err != nil {
		return "", &FileNotFoundError{Path: inputFile}
	}

	preprocessed, err := c.preprocess(string(source))
	if err != nil {
		return "", err
	}
	if c.options.PreprocessOnly {
		outputPath, err := c.getOutputPath(inputFile, "i")
		if err != nil {
			return "", err
		}
		return outputPath, os.WriteFile(outputPath, []byte(preprocessed), 0o644)
	}

	level := OptimizationLevelFromString(c.options.Optimization)
	assembly, err := CompileSource(preprocessed, c.target, level)
	if err != nil {
		return "", err
	}
	// Normalize the layout the same way generated assembly is formatted
	// elsewhere; keep the raw text if the formatter rejects it.
	if formatted, err := asmfmt.Format(strings.NewReader(assembly)); err == nil {
		assembly = string(formatted)
	}

	if c.options.AssemblyOnly {
		outputPath, err := c.getOutputPath(inputFile, "s")
		if err != nil {
			return "", err
		}
		return outputPath, os.WriteFile(outputPath, []byte(assembly), 0o644)
	}

	asmPath := c.createTempFile("s")
	if err := os.WriteFile(asmPath, []byte(assembly), 0o644); err != nil {
		return "", err
	}
	return c.assembleFile(asmPath)
}

// preprocess handles #include and #define line by line. Includes are
// resolved against the current directory, -I directories, and the
// per-target system directories, and are spliced in without recursive
// preprocessing. Macros expand by textual replacement.
func (c *Compiler) preprocess(source string) (string, error) {
	defines := make(map[string]string)
	for _, define := range c.options.Defines {
		if key, value, found := strings.Cut(define, "="); found {
			defines[key] = value
		} else {
			defines[define] = "1"
		}
	}

	var preprocessed strings.Builder
	for _, line := range strings.Split(source, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "#include"):
			includeFile, err := extractIncludeFile(trimmed)
			if err != nil {
				continue // skip malformed include
			}
			includePath, err := c.resolveIncludePath(includeFile)
			if err != nil {
				continue // skip unresolvable include
			}
			content, err := os.ReadFile(includePath)
			if err != nil {
				continue
			}
			preprocessed.Write(content)
			preprocessed.WriteByte('\n')
		case strings.HasPrefix(trimmed, "#define"):
			parts := strings.Fields(strings.TrimPrefix(trimmed, "#define"))
			if len(parts) > 0 {
				value := "1"
				if len(parts) > 1 {
					value = strings.Join(parts[1:], " ")
				}
				defines[parts[0]] = value
			}
		case strings.HasPrefix(trimmed, "#"):
			// Other directives are dropped.
		default:
			expanded := line
			for key, value := range defines {
				expanded = strings.ReplaceAll(expanded, key, value)
			}
			preprocessed.WriteString(expanded)
			preprocessed.WriteByte('\n')
		}
	}
	return preprocessed.String(), nil
}

func extractIncludeFile(line string) (string, error) {
	if start := strings.Index(line, "\""); start >= 0 {
		if end := strings.LastIndex(line, "\""); end > start {
			return line[start+1 : end], nil
		}
	}
	if start := strings.Index(line, "<"); start >= 0 {
		if end := strings.LastIndex(line, ">"); end > start {
			return line[start+1 : end], nil
		}
	}
	return "", &ParseError{Message: fmt.Sprintf("Invalid #include directive: %s", line)}
}

// systemIncludeDirs per target, searched after -I directories.
var systemIncludeDirs = map[Target][]string{
	I386:  {"/usr/include", "/usr/local/include", "/usr/include/i386-linux-gnu"},
	Amd64: {"/usr/include", "/usr/local/include", "/usr/include/x86_64-linux-gnu"},
	Arm64: {"/usr/include", "/usr/local/include", "/usr/include/aarch64-linux-gnu"},
}

func (c *Compiler) resolveIncludePath(includeFile string) (string, error) {
	candidates := append([]string{includeFile},
		lo.Map(c.options.IncludeDirs, func(dir string, _ int) string {
			return filepath.Join(dir, includeFile)
		})...)
	candidates = append(candidates,
		lo.Map(systemIncludeDirs[c.target], func(dir string, _ int) string {
			return filepath.Join(dir, includeFile)
		})...)
	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", &FileNotFoundError{Path: includeFile}
}

func (c *Compiler) assembleFile(asmFile string) (string, error) {
	c.logf("Assembling %s", asmFile)

	var objPath string
	if c.options.CompileOnly {
		var err error
		if objPath, err = c.getOutputPath(asmFile, "o"); err != nil {
			return "", err
		}
	} else {
		objPath = c.createTempFile("o")
	}

	assembler, args := c.target.Assembler()
	args = append(args, "-o", objPath, asmFile)
	if _, err := runCommand(c.options.Verbose, assembler, args...); err != nil {
		return "", &CodegenError{Message: fmt.Sprintf("Assembly failed: %v", err)}
	}
	return objPath, nil
}

func (c *Compiler) linkFiles(objectFiles []string) error {
	c.logf("Linking %d object files", len(objectFiles))

	linker := NewLinker(c.target)
	output := c.options.Output
	if output == "" {
		if c.options.Shared {
			output = "lib.so"
		} else {
			output = "a.out"
		}
	}
	linker.SetOutputPath(output)
	for _, objectFile := range objectFiles {
		linker.AddObjectFile(objectFile)
	}
	for _, libraryPath := range c.options.LibraryDirs {
		linker.AddLibraryPath(libraryPath)
	}
	for _, library := range c.options.Libraries {
		linker.AddLibrary(library)
	}
	linker.SetStaticLink(c.options.Static)
	linker.SetShared(c.options.Shared)
	linker.SetPIC(c.options.PIC)
	linker.SetPIE(c.options.PIE)
	linker.SetDebug(c.options.Debug)
	linker.SetLTO(c.options.LTO)
	linker.SetSysroot(c.options.Sysroot)
	linker.SetVerbose(c.options.Verbose)

	if c.options.Shared {
		return linker.LinkSharedLibrary("")
	}
	return linker.Link()
}

func (c *Compiler) getOutputPath(inputFile, extension string) (string, error) {
	if c.options.Output != "" {
		return c.options.Output, nil
	}
	base := filepath.Base(inputFile)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" {
		return "", &InvalidArgumentError{Message: "Invalid input file name"}
	}
	return fmt.Sprintf("%s.%s", stem, extension), nil
}

func (c *Compiler) createTempFile(extension string) string {
	path := filepath.Join(os.TempDir(),
		fmt.Sprintf("alecc_%d_%d.%s", os.Getpid(), len(c.tempFiles), extension))
	c.tempFiles = append(c.tempFiles, path)
	return path
}

func (c *Compiler) cleanup() error {
	for _, tempFile := range c.tempFiles {
		if err := os.Remove(tempFile); err != nil && !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Failed to remove temporary file %s: %v\n", tempFile, err)
		}
	}
	c.tempFiles = nil
	return nil
}

func (c *Compiler) logf(format string, args ...any) {
	if c.options.Verbose {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	}
}

// runCommand runs a command and extracts its output.
func runCommand(verbose bool, name string, arg ...string) (string, error) {
	if verbose {
		fmt.Fprintf(os.Stderr, "Running %v\n", append([]string{name}, arg...))
	}
	cmd := exec.Command(name, arg...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		if len(output) > 0 {
			return "", errors.New(string(output))
		}
		return "", err
	}
	return string(output), nil
}

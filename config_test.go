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
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()
	if config.Build.Target != "native" {
		t.Errorf("Target = %q, want native", config.Build.Target)
	}
	if config.Build.Optimize != "0" {
		t.Errorf("Optimize = %q, want 0", config.Build.Optimize)
	}
	if config.Build.Verbose {
		t.Error("Verbose = true, want false")
	}
	if len(config.Paths.IncludeDirs) != 0 {
		t.Errorf("IncludeDirs = %v, want empty", config.Paths.IncludeDirs)
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "alecc.toml")
	content := `
[build]
target = "arm64"
optimize = "2"
verbose = true

[paths]
include_dirs = ["/opt/include"]
library_dirs = ["/opt/lib"]
libraries = ["m"]
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if config.Build.Target != "arm64" {
		t.Errorf("Target = %q, want arm64", config.Build.Target)
	}
	if config.Build.Optimize != "2" {
		t.Errorf("Optimize = %q, want 2", config.Build.Optimize)
	}
	if !config.Build.Verbose {
		t.Error("Verbose = false, want true")
	}
	if len(config.Paths.IncludeDirs) != 1 || config.Paths.IncludeDirs[0] != "/opt/include" {
		t.Errorf("IncludeDirs = %v", config.Paths.IncludeDirs)
	}
	if len(config.Paths.Libraries) != 1 || config.Paths.Libraries[0] != "m" {
		t.Errorf("Libraries = %v", config.Paths.Libraries)
	}
}

func TestLoadConfigPartialFileKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "alecc.toml")
	if err := os.WriteFile(path, []byte("[build]\ntarget = \"i386\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if config.Build.Target != "i386" {
		t.Errorf("Target = %q, want i386", config.Build.Target)
	}
	if config.Build.Optimize != "0" {
		t.Errorf("Optimize = %q, want default 0", config.Build.Optimize)
	}
}

func TestLoadConfigImplicitMissing(t *testing.T) {
	cwd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	defer func() {
		if err := os.Chdir(cwd); err != nil {
			t.Fatal(err)
		}
	}()

	config, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if config.Build.Target != "native" {
		t.Errorf("Target = %q, want default native", config.Build.Target)
	}
}

func TestLoadConfigExplicitMissing(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	var notFound *FileNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("error = %v, want *FileNotFoundError", err)
	}
}

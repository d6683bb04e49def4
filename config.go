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
	"os"

	"github.com/BurntSushi/toml"
)

// Config is the optional alecc.toml build configuration. Command-line flags
// take precedence over file values.
type Config struct {
	Build struct {
		Target   string `toml:"target"`
		Optimize string `toml:"optimize"`
		Verbose  bool   `toml:"verbose"`
	} `toml:"build"`

	Paths struct {
		IncludeDirs []string `toml:"include_dirs"`
		LibraryDirs []string `toml:"library_dirs"`
		Libraries   []string `toml:"libraries"`
	} `toml:"paths"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	config := &Config{}
	config.Build.Target = "native"
	config.Build.Optimize = "0"
	return config
}

// LoadConfig reads path, or alecc.toml in the working directory when path is
// empty. A missing file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	explicit := path != ""
	if path == "" {
		path = "alecc.toml"
	}
	config := DefaultConfig()
	if _, err := os.Stat(path); err != nil {
		if explicit {
			return nil, &FileNotFoundError{Path: path}
		}
		return config, nil
	}
	if _, err := toml.DecodeFile(path, config); err != nil {
		return nil, err
	}
	return config, nil
}

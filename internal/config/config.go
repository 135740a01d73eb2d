// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	// BaseDir is the directory holding the source documents. Relative
	// document filenames are resolved against it.
	BaseDir string `yaml:"base_dir"`

	// Documents maps a document key (as referenced by rule source_docs)
	// to its filename.
	Documents map[string]string `yaml:"documents"`

	// Default settings
	Defaults struct {
		Format        string `yaml:"format"`
		Verbose       bool   `yaml:"verbose"`
		Debug         bool   `yaml:"debug"`
		NoColor       bool   `yaml:"no_color"`
		SnippetMargin int    `yaml:"snippet_margin"`
	} `yaml:"defaults"`
}

// defaultDocuments is the operator manual set checked when no config file
// overrides it.
func defaultDocuments() map[string]string {
	return map[string]string{
		"OpsSpecs": "Opspecs Brook BHSBEXBHT -BOB - 27-04-2025.pdf",
		"AOC":      "AOC 23-24.pdf",
		"OM-A":     "OMA - REV 05.docx",
		"OM-B":     "OMB - REV 05.docx",
		"OM-C":     "OMC  - REV 05.docx",
		"OM-D":     "OMD - REV 05.docx",
		"MEL":      "BROOK S-76 MEL 4X-BHS,BHP,BHT,BEX,BOB,BOA, BOI S76C++ Rev 6 (1 Aug 2025).docx",
		"MCM":      "BROOK MCM REV 4 - 1 Aug 2025.docx",
		"SMS":      "mod_Brook SMS Manual rev 0.docx",
		"ERP":      "ERP Draft - Final (1) (1).docx",
	}
}

// LoadConfig loads configuration from the specified file path
func LoadConfig(configPath string) (*Config, error) {
	// Default configuration
	config := &Config{
		BaseDir:   ".",
		Documents: defaultDocuments(),
	}
	config.Defaults.Format = "csv"
	config.Defaults.SnippetMargin = 120

	// If no config file specified, return default config
	if configPath == "" {
		return config, nil
	}

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", configPath, err)
	}

	if config.BaseDir == "" {
		config.BaseDir = "."
	}
	if config.Defaults.Format == "" {
		config.Defaults.Format = "csv"
	}
	if config.Defaults.SnippetMargin <= 0 {
		config.Defaults.SnippetMargin = 120
	}

	return config, nil
}

// FindConfigFile looks for a config file in standard locations
func FindConfigFile() string {
	candidates := []string{
		"ifr-compliance.yaml",
		"ifr-compliance.yml",
		".ifr-compliance.yaml",
	}

	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates,
			filepath.Join(home, ".ifr-compliance.yaml"),
		)
	}

	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

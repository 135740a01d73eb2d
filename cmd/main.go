// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"flag"
	"fmt"
	"os"

	"ifr-compliance/internal/config"
	"ifr-compliance/internal/extractors"
	"ifr-compliance/internal/observability"
	"ifr-compliance/internal/opsfacts"
	"ifr-compliance/internal/report"
	"ifr-compliance/internal/rules"
	"ifr-compliance/internal/version"

	"ifr-compliance/internal/formatters"
	_ "ifr-compliance/internal/formatters/csv"
	_ "ifr-compliance/internal/formatters/json"
	_ "ifr-compliance/internal/formatters/text"

	"github.com/fatih/color"
	"golang.org/x/term"
)

const (
	defaultRulesFile  = "brook_rules_from_spec.json"
	defaultReportFile = "brook_compliance_report.csv"
)

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s [flags] [rules-file] [output-report] [ops-facts-file]\n\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "Checks a rule set against the configured document corpus and writes a report.\n\n")
	fmt.Fprintf(os.Stderr, "Positional arguments:\n")
	fmt.Fprintf(os.Stderr, "  rules-file       rule set, YAML or JSON (default %q)\n", defaultRulesFile)
	fmt.Fprintf(os.Stderr, "  output-report    report destination (default %q)\n", defaultReportFile)
	fmt.Fprintf(os.Stderr, "  ops-facts-file   optional ops facts, YAML or JSON\n\n")
	fmt.Fprintf(os.Stderr, "Flags:\n")
	flag.PrintDefaults()
}

// loadConfiguration loads the configuration file or returns default config
func loadConfiguration(configFile string) *config.Config {
	configPath := configFile
	if configPath == "" {
		configPath = config.FindConfigFile()
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Error loading config file: %v\n", err)
		fmt.Fprintf(os.Stderr, "Using default configuration\n")
		cfg, _ = config.LoadConfig("")
	}
	return cfg
}

func main() {
	configFile := flag.String("config", "", "Path to configuration file")
	format := flag.String("format", "", "Output format (csv, json, text); inferred from the output path when omitted")
	docsDir := flag.String("docs-dir", "", "Directory containing the source documents (overrides config base_dir)")
	verbose := flag.Bool("verbose", false, "Include evidence details in the stdout summary")
	debug := flag.Bool("debug", false, "Emit timing/debug JSON on stderr")
	noColor := flag.Bool("no-color", false, "Disable colored output")
	showVersion := flag.Bool("version", false, "Print version information and exit")
	flag.Usage = usage
	flag.Parse()

	if *showVersion {
		fmt.Println(version.Info())
		return
	}

	rulesPath := defaultRulesFile
	outputPath := defaultReportFile
	factsPath := ""
	args := flag.Args()
	if len(args) > 0 {
		rulesPath = args[0]
	}
	if len(args) > 1 {
		outputPath = args[1]
	}
	if len(args) > 2 {
		factsPath = args[2]
	}
	if len(args) > 3 {
		usage()
		os.Exit(2)
	}

	cfg := loadConfiguration(*configFile)

	baseDir := cfg.BaseDir
	if *docsDir != "" {
		baseDir = *docsDir
	}

	disableColor := *noColor || cfg.Defaults.NoColor || !isTerminal(os.Stdout)
	if disableColor {
		color.NoColor = true
	}

	level := observability.ObservabilityMetrics
	if *debug || cfg.Defaults.Debug {
		level = observability.ObservabilityDebug
	}
	observer := observability.NewStandardObserver(level, os.Stderr)

	set, err := rules.Load(rulesPath)
	if err != nil {
		fatal("loading rules: %v", err)
	}
	facts := opsfacts.Load(factsPath)

	source := extractors.NewDocumentSource(baseDir, cfg.Documents)
	source.SetObserver(observer)

	assembler := report.NewAssembler(set, source, facts)
	assembler.SetObserver(observer)
	assembler.SetSnippetMargin(cfg.Defaults.SnippetMargin)

	rep, err := assembler.Run()
	if err != nil {
		fatal("evaluating rules: %v", err)
	}

	formatName := resolveFormat(*format, outputPath, cfg)
	options := formatters.FormatterOptions{
		Verbose: *verbose || cfg.Defaults.Verbose,
		NoColor: true, // report files never carry ANSI codes
	}
	output, err := formatters.Export(formatName, rep, options)
	if err != nil {
		fatal("%v", err)
	}
	if err := os.WriteFile(outputPath, []byte(output+"\n"), 0o644); err != nil {
		fatal("writing report: %v", err)
	}

	printSummary(rep, outputPath, formatters.FormatterOptions{
		Verbose: *verbose || cfg.Defaults.Verbose,
		NoColor: disableColor,
	})
}

// resolveFormat picks the output format: explicit flag, then the output
// file extension, then the configured default.
func resolveFormat(flagValue, outputPath string, cfg *config.Config) string {
	if flagValue != "" {
		return flagValue
	}
	if formatter, ok := formatters.ForExtension(outputPath); ok {
		return formatter.Name()
	}
	return cfg.Defaults.Format
}

// printSummary writes the human-readable run summary to stdout.
func printSummary(rep *report.Report, outputPath string, options formatters.FormatterOptions) {
	summaryText, err := formatters.Export("text", rep, options)
	if err == nil {
		fmt.Print(summaryText)
	}
	fmt.Printf("\nReport written to %s\n", outputPath)
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}

// isTerminal checks if the file descriptor is a terminal
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/oarkflow/casim"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	switch cmd {
	case "convert":
		handleConvert()
	case "validate":
		handleValidate()
	case "stats":
		handleStats()
	case "gaps":
		handleGaps()
	default:
		fmt.Printf("Unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("casim-config - Configuration tool for casim")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  casim-config convert <input> <output>  - Convert between formats")
	fmt.Println("  casim-config validate <file>           - Validate configuration")
	fmt.Println("  casim-config stats <file>              - Show configuration statistics")
	fmt.Println("  casim-config gaps <file>               - Run the coverage gap sweep")
	fmt.Println()
	fmt.Println("Supported formats: .yaml, .yml, .json")
}

func handleConvert() {
	if len(os.Args) < 4 {
		fmt.Println("Usage: casim-config convert <input> <output>")
		os.Exit(1)
	}

	inputFile := os.Args[2]
	outputFile := os.Args[3]

	cfg, err := loadConfig(inputFile)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	if err := saveConfig(cfg, outputFile); err != nil {
		fmt.Printf("Error saving config: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Converted %s -> %s\n", inputFile, outputFile)
}

func handleValidate() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: casim-config validate <file>")
		os.Exit(1)
	}

	filename := os.Args[2]
	cfg, err := loadConfig(filename)
	if err != nil {
		fmt.Printf("Invalid configuration: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Printf("Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Configuration is valid\n")
	fmt.Printf("  Version: %d\n", cfg.Version)
	fmt.Printf("  Policies: %d\n", len(cfg.Policies))
	fmt.Printf("  Strengths: %d\n", len(cfg.Strengths))
	fmt.Printf("  Personas: %d\n", len(cfg.Personas))
}

func handleStats() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: casim-config stats <file>")
		os.Exit(1)
	}

	filename := os.Args[2]
	cfg, err := loadConfig(filename)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	stat, _ := os.Stat(filename)

	fmt.Println("Configuration Statistics")
	fmt.Println("========================")
	if stat != nil {
		fmt.Printf("File size: %d bytes\n", stat.Size())
	}
	fmt.Printf("Version: %d\n", cfg.Version)
	fmt.Println()

	fmt.Println("Components:")
	fmt.Printf("  Policies:  %d\n", len(cfg.Policies))
	fmt.Printf("  Strengths: %d\n", len(cfg.Strengths))
	fmt.Printf("  Personas:  %d\n", len(cfg.Personas))
	fmt.Println()

	if len(cfg.Policies) > 0 {
		enabled, reportOnly, disabled, blocking := 0, 0, 0, 0
		for _, p := range cfg.Policies {
			switch p.State {
			case casim.StateEnabled:
				enabled++
			case casim.StateReportOnly:
				reportOnly++
			case casim.StateDisabled:
				disabled++
			}
			if p.Grant != nil && p.Grant.RequiresBlock() {
				blocking++
			}
		}
		fmt.Println("Policy Details:")
		fmt.Printf("  Enabled:     %d\n", enabled)
		fmt.Printf("  Report-only: %d\n", reportOnly)
		fmt.Printf("  Disabled:    %d\n", disabled)
		fmt.Printf("  Blocking:    %d\n", blocking)
		fmt.Println()
	}

	dims := cfg.Sweep.Dimensions
	if dims.Count() <= 1 {
		dims = casim.DefaultSweepDimensions()
	}
	fmt.Println("Sweep Configuration:")
	fmt.Printf("  Combinations: %d\n", dims.Count())
	bound := cfg.Sweep.MaxCombinations
	if bound <= 0 {
		bound = casim.DefaultSweepCap
	}
	fmt.Printf("  Cap:          %d\n", bound)
	fmt.Printf("  Workers:      %d\n", cfg.Sweep.Workers)
}

func handleGaps() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: casim-config gaps <file>")
		os.Exit(1)
	}

	filename := os.Args[2]
	cfg, err := loadConfig(filename)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	engine := casim.NewEngine(casim.NewMemoryPolicyStore())

	ctx := context.Background()
	if err := engine.ApplyConfig(ctx, cfg); err != nil {
		fmt.Printf("Error applying config: %v\n", err)
		os.Exit(1)
	}

	sweepCfg := cfg.Sweep
	if len(sweepCfg.Personas) == 0 {
		sweepCfg.Personas = cfg.Personas
	}
	if sweepCfg.Dimensions.Count() <= 1 {
		sweepCfg.Dimensions = casim.DefaultSweepDimensions()
	}

	report, err := engine.RunSweep(ctx, sweepCfg)
	if err != nil {
		fmt.Printf("Error running sweep: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Swept %d combinations (cap %d)\n", report.Combinations, report.Cap)
	for persona, gaps := range report.Gaps {
		fmt.Printf("\nPersona %s: %d uncovered combinations\n", persona, len(gaps))
		for _, g := range gaps {
			fmt.Printf("  #%d platform=%s client=%s trusted=%v signin=%s user=%s compliant=%v join=%s\n",
				g.Index, g.Platform, g.ClientApp, g.Trusted, g.SignInRisk, g.UserRisk,
				g.Device.Compliant, g.Device.JoinType)
		}
	}
	if len(report.Gaps) == 0 {
		fmt.Println("No coverage gaps found")
	}
}

func loadConfig(filename string) (*casim.Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	ext := strings.ToLower(filepath.Ext(filename))

	switch ext {
	case ".yaml", ".yml":
		loader := casim.NewConfigLoader()
		return loader.LoadYAML(data)
	case ".json":
		loader := casim.NewConfigLoader()
		return loader.LoadJSON(data)
	default:
		return nil, fmt.Errorf("unsupported file format: %s", ext)
	}
}

func saveConfig(cfg *casim.Config, filename string) error {
	ext := strings.ToLower(filepath.Ext(filename))

	var data []byte
	var err error

	switch ext {
	case ".yaml", ".yml":
		data, err = cfg.ToYAML()
	case ".json":
		data, err = cfg.ToJSON()
	default:
		return fmt.Errorf("unsupported file format: %s", ext)
	}

	if err != nil {
		return err
	}

	return os.WriteFile(filename, data, 0644)
}

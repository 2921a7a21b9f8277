package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vango-dev/defo/internal/config"
	derrors "github.com/vango-dev/defo/internal/errors"
	"github.com/vango-dev/defo/pkg/observer"
)

func checkCmd(flags *globalFlags) *cobra.Command {
	var (
		initFile bool
		codes    bool
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate defo.json and the observer registry",
		Long: `Validate the configuration and build the observer registry it
selects, without scanning any markup.

Examples:
  defo check
  defo check --init
  defo check --codes`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if codes {
				printCodes()
				return nil
			}
			if initFile {
				return runInit()
			}
			return runCheck(flags)
		},
	}

	cmd.Flags().BoolVar(&initFile, "init", false, "Write a default defo.json in the working directory")
	cmd.Flags().BoolVar(&codes, "codes", false, "List error codes")

	return cmd
}

func runCheck(flags *globalFlags) error {
	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}
	reg, err := registry(cfg)
	if err != nil {
		return err
	}

	if cfg.Path() == "" {
		warn("No %s found, using defaults", config.ConfigFileName)
	} else {
		success("Loaded %s", cfg.Path())
	}
	success("Prefix %q", cfg.Prefix)
	success("%d observer(s) registered", reg.Len())
	for _, name := range reg.Names() {
		info("%-12s %s", name, observer.AttributeKeyFor(cfg.Prefix, name))
	}
	return nil
}

func runInit() error {
	wd, err := os.Getwd()
	if err != nil {
		return err
	}
	if config.Exists(wd) {
		return derrors.Newf(derrors.CategoryCLI, "%s already exists", config.ConfigFileName).
			WithSubject(filepath.Join(wd, config.ConfigFileName))
	}
	path := filepath.Join(wd, config.ConfigFileName)
	if err := config.New().SaveTo(path); err != nil {
		return err
	}
	success("Wrote %s", path)
	return nil
}

func printCodes() {
	for _, code := range derrors.GetAllCodes() {
		t, _ := derrors.GetTemplate(code)
		fmt.Printf("  %s  %-9s %s\n", code, t.Category, t.Message)
	}
}

// Package cliapp wires the cobra command surface: one subcommand per
// pipeline stage (extract-mask, extract-text, merge, roundtrip, translate),
// plus a --init-config flag on the root command for writing out a starter
// TOML config. Persistent flags live on the root command; extract.go holds
// extract-mask and extract-text, merge.go holds merge and roundtrip, and
// translate.go holds translate. PersistentPreRunE builds the logger and
// loads the config once, into the package-level appLogger and appConfig
// variables the subcommands read.
package cliapp

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/sentinelmt/docxtranslate/internal/config"
	"github.com/sentinelmt/docxtranslate/internal/logger"
)

var (
	cfgPath     string
	debugFlag   bool
	initConfig  bool
	appLogger   *logger.ZapLogger
	appConfig   *config.Config
)

// NewRootCommand builds the docxtranslate root cobra command with every
// subcommand registered.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "docxtranslate",
		Short: "Lossless DOCX machine-translation pipeline",
		Long: "docxtranslate decomposes a DOCX file into translatable text slots, " +
			"freezes content that must never be translated, drives a chunked " +
			"translation backend with automatic repair on malformed output, and " +
			"merges the result back into a byte-faithful DOCX.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			appLogger = logger.New(debugFlag, "")
			if initConfig {
				return writeInitConfig()
			}
			cfg := config.Default()
			if cfgPath != "" {
				loaded, err := config.Load(cfgPath)
				if err != nil {
					return fmt.Errorf("load config %s: %w", cfgPath, err)
				}
				cfg = loaded
			}
			appConfig = cfg
			return nil
		},
	}

	root.PersistentFlags().StringVar(&cfgPath, "config", "", "path to a TOML config file")
	root.PersistentFlags().BoolVar(&debugFlag, "debug", false, "enable debug logging")
	root.PersistentFlags().BoolVar(&initConfig, "init-config", false, "write a starter config file to --config and exit")

	root.AddCommand(
		newExtractMaskCommand(),
		newExtractTextCommand(),
		newMergeCommand(),
		newRoundtripCommand(),
		newTranslateCommand(),
	)

	return root
}

func writeInitConfig() error {
	path := cfgPath
	if path == "" {
		path = "docxtranslate.toml"
	}
	if err := config.Save(path, config.Default()); err != nil {
		return fmt.Errorf("write starter config: %w", err)
	}
	color.Green("wrote starter config to %s", path)
	os.Exit(0)
	return nil
}

func diagf(format string, args ...interface{}) {
	color.New(color.FgCyan).Fprintf(os.Stderr, format+"\n", args...)
}

func warnf(format string, args ...interface{}) {
	color.New(color.FgYellow).Fprintf(os.Stderr, format+"\n", args...)
}

func errorf(format string, args ...interface{}) {
	color.New(color.FgRed).Fprintf(os.Stderr, format+"\n", args...)
}

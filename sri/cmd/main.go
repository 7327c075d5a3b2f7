// Package main provides the sri CLI that adds Subresource
// Integrity attributes to a web build output and writes the
// chunk map service worker.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/byte4ever/rules_sri/config"
	"github.com/byte4ever/rules_sri/digester"
	"github.com/byte4ever/rules_sri/sri"
)

var errFindings = errors.New("integrity check failed")

type options struct {
	configFile  string
	outputDir   string
	algorithm   string
	publicPaths []string
}

// load builds the run configuration: defaults, then the config
// file, then explicit flags.
func (op *options) load(cmd *cobra.Command) (config.Config, error) {
	const errCtx = "loading options"

	cfg := config.Default()

	if op.configFile != "" {
		var err error

		cfg, err = config.Load(op.configFile)
		if err != nil {
			return config.Config{}, fmt.Errorf("%s: %w", errCtx, err)
		}
	}

	if cmd.Flags().Changed("dist") {
		cfg.OutputDir = op.outputDir
	}

	if cmd.Flags().Changed("algorithm") {
		cfg.Algorithm = digester.Algorithm(op.algorithm)
	}

	if cmd.Flags().Changed("public-path") {
		cfg.PublicPaths = op.publicPaths
	}

	return cfg, nil
}

func newRootCmd() *cobra.Command {
	op := &options{}

	root := &cobra.Command{
		Use:   "sri",
		Short: "Add Subresource Integrity to a web build output",
		Long: "sri hashes the scripts and stylesheets referenced by the " +
			"entry-point HTML files of a build output directory, adds " +
			"integrity and crossorigin attributes to them, and writes a " +
			"service worker that enforces integrity on dynamically loaded chunks.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := op.load(cmd)
			if err != nil {
				return err
			}

			rep, err := sri.Generate(cfg)
			if err != nil {
				return err
			}

			color.New(color.FgGreen, color.Bold).Fprintf(
				cmd.OutOrStdout(),
				"SRI generation complete: %d html file(s), %d element(s), %d chunk(s)\n",
				len(rep.HTMLFiles), rep.Annotated, rep.MapEntries,
			)

			return nil
		},
	}

	fl := root.PersistentFlags()
	fl.StringVar(
		&op.configFile, "config", "",
		"configuration file (.yaml, .yml, .toml or .json)",
	)
	fl.StringVar(
		&op.outputDir, "dist", config.Default().OutputDir,
		"build output directory",
	)
	fl.StringVar(
		&op.algorithm, "algorithm", string(digester.Default),
		"integrity hash algorithm (sha256, sha384, sha512)",
	)
	fl.StringArrayVar(
		&op.publicPaths, "public-path", nil,
		"public base URL served from the output directory (repeatable)",
	)

	root.AddCommand(newCheckCmd(op))

	return root
}

func newCheckCmd(op *options) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Report missing or stale integrity metadata without writing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := op.load(cmd)
			if err != nil {
				return err
			}

			findings, err := sri.Check(cfg)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()

			if len(findings) == 0 {
				color.New(color.FgGreen).Fprintln(out, "integrity up to date")
				return nil
			}

			warn := color.New(color.FgYellow)
			for _, fi := range findings {
				warn.Fprintln(out, fi.String())
			}

			return fmt.Errorf("%w: %d finding(s)", errFindings, len(findings))
		},
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
}

// Package cli implements the clientcore command line.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"clientcore/internal/config"
)

// Version is overridden at build time with -ldflags "-X clientcore/internal/cli.Version=...".
var Version = "dev"

const defaultConfigPath = "clientcore.yaml"

// Execute runs the root command and returns the process exit code.
func Execute() int {
	return run(os.Args[1:], os.Stdout, os.Stderr)
}

func run(args []string, stdout, stderr io.Writer) int {
	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		var silent silentError
		if !errors.As(err, &silent) {
			_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}

// silentError signals failure after the command already reported it.
type silentError struct{ err error }

func (e silentError) Error() string { return e.err.Error() }
func (e silentError) Unwrap() error { return e.err }

type globalOptions struct {
	configPath string
	policy     string
	storage    string
}

// load resolves configuration: file, then CLIENTCORE_* env, then flags.
func (g *globalOptions) load(cmd *cobra.Command) (*config.Config, error) {
	path := g.configPath
	if !cmd.Flags().Changed("config") {
		if v := os.Getenv(config.EnvPrefix + "CONFIG"); v != "" {
			path = v
		}
	}
	cfg, err := config.LoadFromEnv(path)
	if err != nil {
		return nil, err
	}
	if g.policy != "" {
		cfg.Policy = g.policy
	}
	if g.storage != "" {
		cfg.Storage.Driver = g.storage
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &globalOptions{}
	rootCmd := &cobra.Command{
		Use:           "clientcore",
		Short:         "Client registry with RUT and savings accounts",
		Long:          "clientcore keeps a registry of clients and their RUT and savings accounts, enforcing the configured account policy.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", defaultConfigPath, "Path to the YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&opts.policy, "policy", "", "Account policy override (flexible, rut_mandatory)")
	rootCmd.PersistentFlags().StringVar(&opts.storage, "storage", "", "Storage driver override (memory, file, sqlite, postgres, redis, object)")

	rootCmd.AddCommand(newServeCmd(opts))
	rootCmd.AddCommand(newAuditCmd(opts))
	rootCmd.AddCommand(newExportCmd(opts))
	rootCmd.AddCommand(newVersionCmd())
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the clientcore version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "clientcore %s\n", Version)
			return err
		},
	}
}

package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigFile string

	// Config resolves settings from flags, NODEQL_* variables and the
	// config file.
	Config *viper.Viper
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootOptions returns options with a fresh configuration.
func NewRootOptions() *RootOptions {
	return &RootOptions{Format: "text", Config: newConfig()}
}

// Settings returns the resolved configuration.
func (o *RootOptions) Settings() Settings {
	return settingsFrom(o.Config)
}

// NewRootCommand creates the root command for the nodeql CLI.
func NewRootCommand() *cobra.Command {
	opts := NewRootOptions()

	cmd := &cobra.Command{
		Use:   "nodeql",
		Short: "nodeql - query typed node graphs",
		Long: `Parse, compile and run where-clause queries over the nodes of a graph catalog.

Settings are read from flags, NODEQL_* environment variables and nodeql.yaml
(in . or $HOME/.nodeql), in that order.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Validate format flag
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return readConfig(opts.Config, opts.ConfigFile)
		},
	}

	// Global flags
	flags := cmd.PersistentFlags()
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	flags.StringVar(&opts.Format, "format", "text", "output format (json|text)")
	flags.StringVar(&opts.ConfigFile, "config", "", "config file (default nodeql.yaml in . or $HOME/.nodeql)")
	bindConfigFlags(opts.Config, flags)

	// Add subcommands
	cmd.AddCommand(NewParseCommand(opts))
	cmd.AddCommand(NewCompileCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewQueryCommand(opts))
	cmd.AddCommand(NewSearchCommand(opts))
	cmd.AddCommand(NewReindexCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

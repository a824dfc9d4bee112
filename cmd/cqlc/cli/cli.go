// Package cli implements the cqlc command tree: compiling, inspecting and
// batch-checking CQL queries against a field mapping.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"catalogcql/internal/compiler"
	"catalogcql/internal/fieldmap"
	"catalogcql/internal/home"
	"catalogcql/internal/logging"
)

// Environment variables consulted when the matching flag is not set.
const (
	EnvHome     = "CQLC_HOME"
	EnvMapping  = "CQLC_MAPPING"
	EnvLogLevel = "CQLC_LOG_LEVEL"
)

// app carries what the subcommands share. It is filled in by the root
// command's PersistentPreRunE.
type app struct {
	stdout io.Writer
	stderr io.Writer

	logger *slog.Logger
	filter *logging.ComponentFilterHandler
}

// NewRootCommand returns the cqlc command with all subcommands wired in.
// Command output goes to stdout; logs and error displays go to stderr.
func NewRootCommand(stdout, stderr io.Writer, version string) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr, logger: logging.Discard()}

	cmd := &cobra.Command{
		Use:           "cqlc",
		Short:         "Compile CQL queries into search-engine bool queries",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setupLogging(cmd)
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	pf := cmd.PersistentFlags()
	pf.String("home", "", "home directory (or "+EnvHome+" env; default: platform config dir)")
	pf.String("mapping", "", "field mapping YAML file (or "+EnvMapping+" env; default: <home>/mapping.yaml, else built-in)")
	pf.String("log-level", "", "log level: debug, info, warn or error (or "+EnvLogLevel+" env; default: warn)")
	pf.String("log-format", logging.FormatText, "log format: text or json")
	pf.StringSlice("debug", nil, "log these components at debug level (e.g. compiler,batch)")
	pf.Int("max-input-length", 0, "maximum query length in bytes (0: default)")
	pf.Int("max-depth", 0, "maximum parenthesis nesting depth (0: default)")
	pf.Int("max-clauses", 0, "maximum number of clauses per query (0: default)")
	pf.Int("max-term-length", 0, "maximum term length in characters (0: default)")

	cmd.AddCommand(
		a.newCompileCmd(),
		a.newParseCmd(),
		a.newFieldsCmd(),
		a.newBatchCmd(),
		a.newWatchCmd(),
		a.newInitCmd(),
		a.newReplCmd(),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, args []string) {
				_, _ = fmt.Fprintln(a.stdout, version)
			},
		},
	)

	return cmd
}

// setupLogging builds the logger from the persistent flags. The base
// handler passes every level; the component filter decides.
func (a *app) setupLogging(cmd *cobra.Command) error {
	levelText, _ := cmd.Flags().GetString("log-level")
	if levelText == "" {
		levelText = os.Getenv(EnvLogLevel)
	}
	level := slog.LevelWarn
	if levelText != "" {
		var err error
		if level, err = logging.ParseLevel(levelText); err != nil {
			return err
		}
	}

	format, _ := cmd.Flags().GetString("log-format")
	base, err := logging.NewHandler(a.stderr, format)
	if err != nil {
		return err
	}

	a.filter = logging.NewComponentFilterHandler(base, level)
	debug, _ := cmd.Flags().GetStringSlice("debug")
	for _, component := range debug {
		a.filter.SetLevel(component, slog.LevelDebug)
	}
	a.logger = slog.New(a.filter)
	return nil
}

// resolveHome returns the --home flag, the environment, or the platform default.
func resolveHome(cmd *cobra.Command) (home.Dir, error) {
	root, _ := cmd.Flags().GetString("home")
	if root == "" {
		root = os.Getenv(EnvHome)
	}
	if root != "" {
		return home.New(root), nil
	}
	return home.Default()
}

// mappingPath returns the mapping file to load: the --mapping flag, the
// environment, or the home directory's mapping when it exists. An empty
// result means the built-in mapping.
func mappingPath(cmd *cobra.Command) string {
	path, _ := cmd.Flags().GetString("mapping")
	if path == "" {
		path = os.Getenv(EnvMapping)
	}
	if path != "" {
		return path
	}
	if hd, err := resolveHome(cmd); err == nil && hd.HasMapping() {
		return hd.MappingPath()
	}
	return ""
}

// loadMapping returns the configured mapping, or the built-in one.
func (a *app) loadMapping(cmd *cobra.Command) (*fieldmap.Mapping, error) {
	path := mappingPath(cmd)
	if path == "" {
		a.logger.Debug("using built-in field mapping", "component", "cli")
		return fieldmap.Default(), nil
	}
	m, err := fieldmap.LoadFile(path)
	if err != nil {
		return nil, err
	}
	a.logger.Info("loaded field mapping", "component", "cli", "path", path, "version", m.Version, "scopes", len(m.Scopes))
	return m, nil
}

// newCompiler builds a compiler from the persistent flags.
func (a *app) newCompiler(cmd *cobra.Command) (*compiler.Compiler, error) {
	m, err := a.loadMapping(cmd)
	if err != nil {
		return nil, err
	}
	return a.compilerFor(cmd, m)
}

func (a *app) compilerFor(cmd *cobra.Command, m *fieldmap.Mapping) (*compiler.Compiler, error) {
	maxInput, _ := cmd.Flags().GetInt("max-input-length")
	maxDepth, _ := cmd.Flags().GetInt("max-depth")
	maxClauses, _ := cmd.Flags().GetInt("max-clauses")
	maxTerm, _ := cmd.Flags().GetInt("max-term-length")
	return compiler.New(compiler.Config{
		Mapping:        m,
		Logger:         a.logger,
		MaxInputLength: maxInput,
		MaxDepth:       maxDepth,
		MaxClauses:     maxClauses,
		MaxTermLength:  maxTerm,
	})
}

// outputFormat returns the --output flag of cmd.
func outputFormat(cmd *cobra.Command) string {
	f, _ := cmd.Flags().GetString("output")
	return f
}

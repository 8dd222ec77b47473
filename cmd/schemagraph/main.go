package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tordrt/schemagraph"
	"github.com/tordrt/schemagraph/internal/config"
	"github.com/tordrt/schemagraph/internal/errs"
	"github.com/tordrt/schemagraph/internal/formatter"
	"github.com/tordrt/schemagraph/internal/logger"
	"github.com/tordrt/schemagraph/internal/reader"
	"github.com/tordrt/schemagraph/internal/server"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

var (
	configPath     string
	provider       string
	connString     string
	owner          string
	driverName     string
	excludeTables  string
	excludeViews   string
	excludeProcs   string
	logLevel       string
	logFormat      string
	outputFile     string
	outputDir      string
	tables         string
	format         string
	splitThreshold int
	showDiag       bool
	listenAddr     string
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "schemagraph",
		Short:         "Read a database catalog into a normalized schema graph",
		Long:          `schemagraph reads tables, keys, indexes, views and routines from SQL Server, PostgreSQL, MySQL, Oracle, SQLite and Sybase catalogs, resolves every cross reference and renders the graph as text, markdown or YAML.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "Config file (default: .schemagraph.yaml in the working directory)")
	pf.StringVar(&provider, "provider", "", "Provider or dialect (postgresql, mysql, sqlserver, oracle, sqlite, sybase, ...)")
	pf.StringVar(&connString, "conn", "", "Connection string or URL")
	pf.StringVar(&owner, "owner", "", "Schema/owner to read (default: public for PostgreSQL, the DSN database for MySQL)")
	pf.StringVar(&driverName, "driver", "", "Override the database/sql driver name")
	pf.StringVar(&excludeTables, "exclude-tables", "", "Table name globs to skip (comma-separated)")
	pf.StringVar(&excludeViews, "exclude-views", "", "View name globs to skip (comma-separated)")
	pf.StringVar(&excludeProcs, "exclude-procedures", "", "Procedure and function name globs to skip (comma-separated)")
	pf.StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	pf.StringVar(&logFormat, "log-format", "", "Log format: console or json")

	rootCmd.AddCommand(newReadCmd(), newOwnersCmd(), newTablesCmd(), newTableCmd(), newServeCmd(), newVersionCmd())
	return rootCmd
}

func newReadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "read",
		Short: "Read the whole catalog and render it",
		Args:  cobra.NoArgs,
		RunE:  runRead,
	}
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")
	cmd.Flags().StringVarP(&outputDir, "output-dir", "d", "", "Output directory for multi-file output")
	cmd.Flags().StringVarP(&tables, "tables", "t", "", "Specific tables (comma-separated, optional)")
	cmd.Flags().StringVarP(&format, "format", "f", formatter.FormatText, "Output format: text, markdown or yaml")
	cmd.Flags().IntVar(&splitThreshold, "split-threshold", 0, "Split into multiple files when table count exceeds this (requires --output-dir)")
	cmd.Flags().BoolVar(&showDiag, "diagnostics", false, "Print degraded-read diagnostics to stderr")
	return cmd
}

func newOwnersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "owners",
		Short: "List the schemas or owners visible to the connection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withReader(cmd, func(ctx context.Context, r *schemagraph.Reader) error {
				owners, err := r.Owners(ctx)
				if err != nil {
					return err
				}
				for _, o := range owners {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), o)
				}
				return nil
			})
		},
	}
}

func newTablesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List table names without loading detail",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withReader(cmd, func(ctx context.Context, r *schemagraph.Reader) error {
				keys, err := r.TableList(ctx)
				if err != nil {
					return err
				}
				for _, k := range keys {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), k)
				}
				return nil
			})
		},
	}
}

func newTableCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "table NAME",
		Short: "Load a single table with its keys, indexes and triggers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withReader(cmd, func(ctx context.Context, r *schemagraph.Reader) error {
				t, err := r.Table(ctx, args[0])
				if err != nil {
					return err
				}
				if t == nil {
					return errs.Newf(errs.ErrKindNotFound, "table %q not found", args[0])
				}
				return render(cmd.OutOrStdout(), r.Schema(), format)
			})
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", formatter.FormatText, "Output format: text, markdown or yaml")
	return cmd
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Read the catalog and browse it over HTTP",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	cmd.Flags().StringVar(&listenAddr, "addr", "", "Listen address (default from config, :8080)")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "schemagraph %s\n", version)
		},
	}
}

// loadConfig layers flags over the config file and environment.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	applyFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("provider") {
		cfg.Provider = provider
	}
	if flags.Changed("conn") {
		cfg.ConnectionString = connString
	}
	if flags.Changed("owner") {
		cfg.Owner = owner
	}
	if flags.Changed("driver") {
		cfg.DriverName = driverName
	}
	if flags.Changed("exclude-tables") {
		cfg.Exclude.Tables = config.SplitList(excludeTables)
	}
	if flags.Changed("exclude-views") {
		cfg.Exclude.Views = config.SplitList(excludeViews)
	}
	if flags.Changed("exclude-procedures") {
		cfg.Exclude.Procedures = config.SplitList(excludeProcs)
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = logLevel
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = logFormat
	}
	if flags.Lookup("addr") != nil && flags.Changed("addr") {
		cfg.Server.Addr = listenAddr
	}
}

func openReader(ctx context.Context, cfg *config.Config, log *logger.Logger) (*schemagraph.Reader, error) {
	return schemagraph.Open(ctx, schemagraph.Options{
		ConnectionString: cfg.ConnectionString,
		Provider:         cfg.Provider,
		Owner:            cfg.Owner,
		DriverName:       cfg.DriverName,
		Exclude:          cfg.Exclusions(),
		Pool:             &cfg.Pool,
		Logger:           log,
		OnProgress: func(p reader.Progress) {
			log.DebugWith("progress", map[string]any{
				"phase": p.Phase.String(),
				"kind":  p.Kind,
				"name":  p.Name,
				"index": p.Index,
				"count": p.Count,
			})
		},
	})
}

// withReader loads configuration, opens a session and closes it after fn.
func withReader(cmd *cobra.Command, fn func(context.Context, *schemagraph.Reader) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log := logger.New(&cfg.Log)
	logger.SetGlobal(log)

	ctx := cmd.Context()
	r, err := openReader(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := r.Close(); err != nil {
			log.WarnWith("failed to close connection", err, nil)
		}
	}()
	return fn(ctx, r)
}

func runRead(cmd *cobra.Command, _ []string) error {
	// Validate flag combinations
	if outputDir != "" && outputFile != "" {
		return fmt.Errorf("cannot use both --output-dir and --output flags")
	}

	return withReader(cmd, func(ctx context.Context, r *schemagraph.Reader) error {
		s, err := readSchema(ctx, r, config.SplitList(tables))
		if err != nil {
			return fmt.Errorf("failed to read schema: %w", err)
		}

		if showDiag {
			for _, d := range r.Diagnostics() {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "%s %s %s: %s\n", d.Kind, d.Capability, d.Object, d.Message)
			}
		}

		// Check if we should use multi-file output
		shouldSplit := outputDir != "" && (splitThreshold == 0 || len(s.Tables) > splitThreshold)
		if shouldSplit {
			if err := formatter.NewMultiFileFormatter(outputDir, format).Format(s); err != nil {
				return fmt.Errorf("failed to format output: %w", err)
			}
			return nil
		}

		// Single-file output
		var writer = cmd.OutOrStdout()
		if outputFile != "" {
			f, err := os.Create(outputFile)
			if err != nil {
				return fmt.Errorf("failed to create output file: %w", err)
			}
			defer func() {
				if err := f.Close(); err != nil {
					_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "warning: failed to close output file: %v\n", err)
				}
			}()
			writer = f
		}
		return render(writer, s, format)
	})
}

// readSchema runs a bulk read, or targeted loads when names are given.
func readSchema(ctx context.Context, r *schemagraph.Reader, names []string) (*schemagraph.Schema, error) {
	if len(names) == 0 {
		return r.ReadAll(ctx)
	}
	for _, name := range names {
		t, err := r.Table(ctx, name)
		if err != nil {
			return nil, err
		}
		if t == nil {
			return nil, errs.Newf(errs.ErrKindNotFound, "table %q not found", name)
		}
	}
	return r.Schema(), nil
}

func render(w io.Writer, s *schemagraph.Schema, format string) error {
	f, err := formatter.New(format, w)
	if err != nil {
		return errs.Wrap(errs.ErrKindInvalidInput, "format", err)
	}
	if err := f.Format(s); err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}
	return nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log := logger.New(&cfg.Log)
	logger.SetGlobal(log)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	r, err := openReader(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() { _ = r.Close() }()

	srv := server.New(server.Config{
		Addr:            cfg.Server.Addr,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}, r, log.With().Str("component", "server").Logger())
	if err := srv.Load(ctx); err != nil {
		return fmt.Errorf("failed to read schema: %w", err)
	}
	return srv.Run(ctx)
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

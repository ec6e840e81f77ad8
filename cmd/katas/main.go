package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pbaille/katas/internal/api"
	"github.com/pbaille/katas/internal/clock"
	"github.com/pbaille/katas/internal/config"
	"github.com/pbaille/katas/internal/domain"
	"github.com/pbaille/katas/internal/fetcher"
	"github.com/pbaille/katas/internal/logging"
	"github.com/pbaille/katas/internal/onehot"
	"github.com/pbaille/katas/internal/store"
	"github.com/spf13/cobra"
)

var (
	configPath string
	dbPath     string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "katas",
		Short: "One-hot encoding and world clock exercises",
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (toml, yaml or json)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "history database path (overrides store.path)")

	rootCmd.AddCommand(encodeCmd())
	rootCmd.AddCommand(yearCmd())
	rootCmd.AddCommand(historyCmd())
	rootCmd.AddCommand(showCmd())
	rootCmd.AddCommand(serveCmd())

	return rootCmd
}

// env bundles what every subcommand needs
type env struct {
	cfg *config.Config
	log *slog.Logger
}

func loadEnv(cmd *cobra.Command) (*env, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if dbPath != "" {
		cfg.Store.Path = dbPath
	}
	return &env{cfg: cfg, log: logging.New(cfg.Logging, cmd.ErrOrStderr())}, nil
}

func (e *env) openStore() (*store.Store, error) {
	path, err := e.cfg.DBPath()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	return store.New(path)
}

func (e *env) clockClient() (*fetcher.Client, error) {
	return fetcher.New(fetcher.Options{
		URL:       e.cfg.Clock.URL,
		Timeout:   time.Duration(e.cfg.Clock.TimeoutSeconds) * time.Second,
		UserAgent: e.cfg.Clock.UserAgent,
		Logger:    e.log,
	})
}

func encodeCmd() *cobra.Command {
	var asJSON, noSave bool

	cmd := &cobra.Command{
		Use:   "encode [label...]",
		Short: "One-hot encode labels in order of first appearance",
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := onehot.Encode(args...)
			if err != nil {
				return err
			}

			e, err := loadEnv(cmd)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				if err := writeJSON(out, rows); err != nil {
					return err
				}
			} else {
				printRows(out, rows)
			}

			if noSave {
				return nil
			}

			s, err := e.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			run, err := s.RecordEncode(args, rows)
			if err != nil {
				return err
			}
			e.log.Debug("recorded run", "id", run.ID, "kind", run.Kind)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print rows as JSON")
	cmd.Flags().BoolVar(&noSave, "no-save", false, "don't record the run in history")
	return cmd
}

func printRows(w io.Writer, rows []domain.EncodedRow) {
	width := 0
	for _, r := range rows {
		if len(r.Label) > width {
			width = len(r.Label)
		}
	}
	for _, r := range rows {
		var sb strings.Builder
		for _, b := range r.Code {
			fmt.Fprint(&sb, b)
		}
		fmt.Fprintf(w, "%-*s  %s\n", width, r.Label, sb.String())
	}
}

func yearCmd() *cobra.Command {
	var url string
	var noSave bool

	cmd := &cobra.Command{
		Use:   "year",
		Short: "Fetch the current year from the world clock API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			if url != "" {
				e.cfg.Clock.URL = url
			}

			client, err := e.clockClient()
			if err != nil {
				return err
			}

			reading, err := clock.Lookup(cmd.Context(), client)
			if err != nil {
				return err
			}
			e.log.Debug("clock reading", "raw", reading.Raw, "format", reading.Format)

			fmt.Fprintln(cmd.OutOrStdout(), reading.Year)

			if noSave {
				return nil
			}

			s, err := e.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			_, err = s.RecordYear(reading)
			return err
		},
	}

	cmd.Flags().StringVar(&url, "url", "", "clock endpoint (overrides clock.url)")
	cmd.Flags().BoolVar(&noSave, "no-save", false, "don't record the run in history")
	return cmd
}

func historyCmd() *cobra.Command {
	var limit int
	var kind string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch domain.RunKind(kind) {
			case "", domain.KindEncode, domain.KindYear:
			default:
				return fmt.Errorf("unknown kind %q (want encode or year)", kind)
			}

			e, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			s, err := e.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			runs, err := s.ListRuns(domain.RunKind(kind), limit, 0)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs yet. Use 'katas encode' or 'katas year' to create one.")
				return nil
			}

			for _, r := range runs {
				fmt.Fprintf(out, "%s  %-6s  %s\n", r.ID[:8], r.Kind, truncate(r.Input, 60))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of runs to show")
	cmd.Flags().StringVar(&kind, "kind", "", "only show runs of this kind (encode, year)")
	return cmd
}

func showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [id]",
		Short: "Show run details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			s, err := e.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			run, err := s.FindRun(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "ID:      %s\n", run.ID)
			fmt.Fprintf(out, "Kind:    %s\n", run.Kind)
			fmt.Fprintf(out, "Created: %s\n", run.CreatedAt.Local().Format("2006-01-02 15:04:05"))
			fmt.Fprintf(out, "Input:   %s\n", run.Input)
			fmt.Fprintf(out, "Output:  %s\n", run.Output)
			return nil
		},
	}
}

func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the REST API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			if addr != "" {
				e.cfg.Server.Addr = addr
			}

			client, err := e.clockClient()
			if err != nil {
				return err
			}

			s, err := e.openStore()
			if err != nil {
				return err
			}
			// Note: don't defer s.Close() as server runs indefinitely

			return api.New(s, client, e.cfg.Server.Addr, e.log).Run()
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "server address (overrides server.addr)")
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func truncate(s string, max int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

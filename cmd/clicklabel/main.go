package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/TobiSchelling/clicklabel/internal/config"
	"github.com/TobiSchelling/clicklabel/internal/database"
	"github.com/TobiSchelling/clicklabel/internal/engine"
	"github.com/TobiSchelling/clicklabel/internal/instructions"
	"github.com/TobiSchelling/clicklabel/internal/logger"
	"github.com/TobiSchelling/clicklabel/internal/server"
	"github.com/TobiSchelling/clicklabel/internal/stats"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	cfg        *config.Config
	log        *logger.Logger
)

func main() {
	err := rootCmd.Execute()
	if log != nil {
		log.Sync()
	}
	if err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "clicklabel",
	Short:   "Crowd labeling of clickbait videos",
	Long:    "clicklabel hands out videos to labelers one at a time, records their clickbait judgments, and reports progress.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			log = logger.Nop()
			return nil
		}

		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		level := cfg.Logging.Level
		if verbose {
			level = "debug"
		}
		log, err = logger.New(cfg.Logging.Mode, level)
		if err != nil {
			return fmt.Errorf("creating logger: %w", err)
		}
		return nil
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(usersCmd)
	rootCmd.AddCommand(itemsCmd)
	rootCmd.AddCommand(acquireCmd)
	rootCmd.AddCommand(labelCmd)
	rootCmd.AddCommand(skipCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(leaderboardCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(instructionsCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("clicklabel", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/clicklabel/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Edit it to change the lease TTL, listen address, and data directory.")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show database and labeling status",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		counts, err := newAggregator(db).Dashboard(cmd.Context())
		if err != nil {
			return fmt.Errorf("getting stats: %w", err)
		}

		fmt.Printf("Today: %s\n", database.GetToday())
		fmt.Printf("Database: %s\n\n", db.Path())
		fmt.Println("Items:")
		fmt.Printf("  Total: %d\n", counts.TotalItems)
		fmt.Printf("  Ready: %d\n", counts.ReadyItems)
		fmt.Printf("  Labeled: %s\n", color.New(color.FgGreen).Sprint(counts.LabeledItems))
		fmt.Printf("  Remaining: %d\n", counts.ReadyItems-counts.LabeledItems)
		fmt.Println("\nActivity:")
		fmt.Printf("  Labelers: %d\n", counts.Labelers)
		fmt.Printf("  Active leases: %s\n", color.New(color.FgYellow).Sprint(counts.ActiveLeases))
		fmt.Printf("  Skips: %d\n", counts.Skips)
		fmt.Printf("  Lease TTL: %s\n", cfg.Labeling.LeaseTTL)
		return nil
	},
}

// --- serve command ---

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the labeling API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		srv, err := server.New(server.Deps{
			DB:           db,
			Engine:       newEngine(db),
			Stats:        newAggregator(db),
			Instructions: instructions.NewStore(db),
			Log:          log,
		})
		if err != nil {
			return err
		}

		addr := serveAddr
		if addr == "" {
			addr = cfg.ListenAddr()
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		fmt.Printf("Starting server at http://%s\n", addr)
		fmt.Println("Press Ctrl+C to stop")
		return srv.Serve(ctx, addr)
	},
}

func init() {
	serveCmd.Flags().StringVarP(&serveAddr, "addr", "a", "", "Listen address (default from config)")
}

func openDB() (*database.DB, error) {
	return database.Open(cfg.DatabasePath(), log)
}

func newEngine(db *database.DB) *engine.Engine {
	return engine.New(db,
		engine.WithLeaseTTL(cfg.Labeling.LeaseTTL),
		engine.WithLogger(log),
	)
}

func newAggregator(db *database.DB) *stats.Aggregator {
	return stats.New(db, cfg.Labeling.LeaseTTL, cfg.Labeling.LeaderboardSize)
}

// lookupUser resolves a --user flag value to a registered user.
func lookupUser(ctx context.Context, db *database.DB, name string) (*database.User, error) {
	if name == "" {
		return nil, errors.New("--user is required")
	}
	u, err := db.GetUserByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, fmt.Errorf("user %q not found (add one with: clicklabel users add %s)", name, name)
	}
	return u, nil
}

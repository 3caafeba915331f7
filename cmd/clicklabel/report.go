package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/TobiSchelling/clicklabel/internal/server"
)

var statsUser string

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show a user's contributions",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		u, err := lookupUser(cmd.Context(), db, statsUser)
		if err != nil {
			return err
		}
		s, err := newAggregator(db).UserStats(cmd.Context(), u.ID)
		if err != nil {
			return err
		}

		fmt.Printf("%s: %d labels, %d skipped\n\n", s.Username, s.Total, s.Skipped)
		for _, d := range s.Daily {
			bar := strings.Repeat("#", d.Count)
			fmt.Printf("  %s %3d %s\n", d.Day, d.Count, color.New(color.FgCyan).Sprint(bar))
		}
		return nil
	},
}

var leaderboardSize int

var leaderboardCmd = &cobra.Command{
	Use:   "leaderboard",
	Short: "Show the top contributors",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		top, err := newAggregator(db).Leaderboard(cmd.Context(), leaderboardSize)
		if err != nil {
			return err
		}
		if len(top) == 0 {
			fmt.Println("No labels yet.")
			return nil
		}
		for i, c := range top {
			rank := fmt.Sprintf("%2d.", i+1)
			if i == 0 {
				rank = color.New(color.FgYellow, color.Bold).Sprint(rank)
			}
			fmt.Printf("  %s %-20s %d\n", rank, c.Username, c.Count)
		}
		return nil
	},
}

var exportOutput string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export all labels as CSV",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		rows, err := newAggregator(db).Export(cmd.Context())
		if err != nil {
			return err
		}

		var w io.Writer = os.Stdout
		toFile := exportOutput != "" && exportOutput != "-"
		if toFile {
			f, err := os.Create(exportOutput)
			if err != nil {
				return fmt.Errorf("creating %s: %w", exportOutput, err)
			}
			defer f.Close()
			w = f
		}
		if err := server.WriteCSV(w, rows); err != nil {
			return err
		}
		if toFile {
			fmt.Fprintf(os.Stderr, "Exported %d labels to %s\n", len(rows), exportOutput)
		}
		return nil
	},
}

func init() {
	statsCmd.Flags().StringVarP(&statsUser, "user", "u", "", "Username to report on")
	leaderboardCmd.Flags().IntVarP(&leaderboardSize, "limit", "n", 0, "Number of contributors (default from config)")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file (default stdout)")
}

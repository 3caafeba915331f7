package main

import (
	"fmt"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var workUser string

var acquireCmd = &cobra.Command{
	Use:   "acquire",
	Short: "Lease the next video to a user",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		u, err := lookupUser(cmd.Context(), db, workUser)
		if err != nil {
			return err
		}
		a, err := newEngine(db).Acquire(cmd.Context(), u.ID)
		if err != nil {
			return err
		}
		if a == nil {
			fmt.Println("No videos available right now.")
			return nil
		}

		state := color.New(color.FgGreen).Sprint("NEW")
		if a.Resumed {
			state = color.New(color.FgYellow).Sprint("RESUMED")
		}
		fmt.Printf("%s [%d] %s  %s\n", state, a.Item.ID, a.Item.Key, title(a.Item.Title))
		if a.Item.VideoURL != nil {
			fmt.Printf("  %s\n", *a.Item.VideoURL)
		}
		fmt.Printf("  lease expires %s\n", a.ExpiresAt.Local().Format("15:04:05"))
		return nil
	},
}

var labelCmd = &cobra.Command{
	Use:   "label [item-id] [yes|no] [confidence 1-4]",
	Short: "Record a clickbait judgment",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		itemID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid item ID: %s", args[0])
		}
		positive, err := parseVerdict(args[1])
		if err != nil {
			return err
		}
		confidence, err := strconv.Atoi(args[2])
		if err != nil {
			return fmt.Errorf("invalid confidence: %s", args[2])
		}

		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		u, err := lookupUser(cmd.Context(), db, workUser)
		if err != nil {
			return err
		}
		ack, err := newEngine(db).Record(cmd.Context(), itemID, u.ID, positive, confidence)
		if err != nil {
			return err
		}
		if ack.Duplicate {
			fmt.Printf("Item [%d] was already labeled by %s; nothing changed.\n", itemID, u.Username)
			return nil
		}
		fmt.Printf("Recorded label [%d] for item [%d]\n", ack.LabelID, itemID)
		return nil
	},
}

var skipCmd = &cobra.Command{
	Use:   "skip [item-key]",
	Short: "Never offer this video to the user again",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		u, err := lookupUser(cmd.Context(), db, workUser)
		if err != nil {
			return err
		}
		skipped, err := newEngine(db).Skip(cmd.Context(), args[0], u.ID)
		if err != nil {
			return err
		}
		if !skipped {
			fmt.Printf("%s had already skipped %s\n", u.Username, args[0])
			return nil
		}
		fmt.Printf("Skipped %s\n", args[0])
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{acquireCmd, labelCmd, skipCmd} {
		c.Flags().StringVarP(&workUser, "user", "u", "", "Username acting")
	}
}

func parseVerdict(s string) (bool, error) {
	switch s {
	case "yes", "y", "true", "clickbait":
		return true, nil
	case "no", "n", "false":
		return false, nil
	}
	return false, fmt.Errorf("verdict must be yes or no, got %q", s)
}

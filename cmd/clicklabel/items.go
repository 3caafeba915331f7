package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/TobiSchelling/clicklabel/internal/database"
)

var itemsCmd = &cobra.Command{
	Use:   "items",
	Short: "Ingest and inspect videos",
}

var (
	itemTitle       string
	itemDescription string
	itemChannel     string
	itemURL         string
	itemThumbnail   string
	itemViews       int64
	itemLikes       int64
	itemDuration    int64
	itemReady       bool
)

var itemsAddCmd = &cobra.Command{
	Use:   "add [key]",
	Short: "Add a video or update its metadata",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		var p database.Payload
		flags := cmd.Flags()
		if flags.Changed("title") {
			p.Title = &itemTitle
		}
		if flags.Changed("description") {
			p.Description = &itemDescription
		}
		if flags.Changed("channel") {
			p.ChannelName = &itemChannel
		}
		if flags.Changed("url") {
			p.VideoURL = &itemURL
		}
		if flags.Changed("thumbnail") {
			p.ThumbnailURL = &itemThumbnail
		}
		if flags.Changed("views") {
			p.ViewCount = &itemViews
		}
		if flags.Changed("likes") {
			p.LikeCount = &itemLikes
		}
		if flags.Changed("duration") {
			p.DurationSeconds = &itemDuration
		}

		ctx := cmd.Context()
		id, err := db.UpsertItem(ctx, args[0], p)
		if err != nil {
			return err
		}
		if itemReady {
			if err := db.MarkReady(ctx, args[0]); err != nil {
				return err
			}
		}
		fmt.Printf("Stored item [%d]: %s\n", id, args[0])
		return nil
	},
}

var itemsReadyCmd = &cobra.Command{
	Use:   "ready [key...]",
	Short: "Mark videos as ready for labeling",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		for _, key := range args {
			if err := db.MarkReady(cmd.Context(), key); err != nil {
				return err
			}
			fmt.Printf("Ready: %s\n", key)
		}
		return nil
	},
}

var pendingLimit int

var itemsPendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "List videos not yet ready for labeling",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		items, err := db.ListPending(cmd.Context(), pendingLimit)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			fmt.Println("Nothing pending.")
			return nil
		}
		for _, it := range items {
			fmt.Printf("  [%d] %s  %s\n", it.ID, it.Key, title(it.Title))
		}
		return nil
	},
}

var itemsShowCmd = &cobra.Command{
	Use:   "show [key]",
	Short: "Print a video as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		item, err := db.GetItemByKey(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if item == nil {
			return fmt.Errorf("item %s not found", args[0])
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(item)
	},
}

func init() {
	f := itemsAddCmd.Flags()
	f.StringVar(&itemTitle, "title", "", "Video title")
	f.StringVar(&itemDescription, "description", "", "Video description")
	f.StringVar(&itemChannel, "channel", "", "Channel name")
	f.StringVar(&itemURL, "url", "", "Video URL")
	f.StringVar(&itemThumbnail, "thumbnail", "", "Thumbnail URL")
	f.Int64Var(&itemViews, "views", 0, "View count")
	f.Int64Var(&itemLikes, "likes", 0, "Like count")
	f.Int64Var(&itemDuration, "duration", 0, "Duration in seconds")
	f.BoolVar(&itemReady, "ready", false, "Mark the item ready right away")

	itemsPendingCmd.Flags().IntVarP(&pendingLimit, "limit", "n", 0, "Maximum number of items (0 = all)")

	itemsCmd.AddCommand(itemsAddCmd)
	itemsCmd.AddCommand(itemsReadyCmd)
	itemsCmd.AddCommand(itemsPendingCmd)
	itemsCmd.AddCommand(itemsShowCmd)
}

func title(s *string) string {
	if s == nil || *s == "" {
		return color.New(color.Faint).Sprint("(untitled)")
	}
	return *s
}

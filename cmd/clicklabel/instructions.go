package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/TobiSchelling/clicklabel/internal/instructions"
)

var instructionsCmd = &cobra.Command{
	Use:   "instructions",
	Short: "Show or replace the labeling instructions",
}

var instructionsHTML bool

var instructionsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the current instructions",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		in, err := instructions.NewStore(db).Get(cmd.Context())
		if err != nil {
			return err
		}
		if instructionsHTML {
			fmt.Println(in.RenderHTML())
			return nil
		}
		fmt.Printf("Version %d\n\n%s\n", in.Version, in.Body)
		return nil
	},
}

var expectedVersion int

var instructionsSetCmd = &cobra.Command{
	Use:   "set [file|-]",
	Short: "Save new instructions from a markdown file or stdin",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var body []byte
		var err error
		if args[0] == "-" {
			body, err = io.ReadAll(os.Stdin)
		} else {
			body, err = os.ReadFile(args[0])
		}
		if err != nil {
			return fmt.Errorf("reading instructions: %w", err)
		}

		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		in, err := instructions.NewStore(db).Set(cmd.Context(), string(body), expectedVersion)
		if err != nil {
			return err
		}
		fmt.Printf("Saved instructions version %d\n", in.Version)
		return nil
	},
}

func init() {
	instructionsShowCmd.Flags().BoolVar(&instructionsHTML, "html", false, "Render as HTML")
	instructionsSetCmd.Flags().IntVar(&expectedVersion, "expected-version", -1, "Fail unless this is the current version")

	instructionsCmd.AddCommand(instructionsShowCmd)
	instructionsCmd.AddCommand(instructionsSetCmd)
}

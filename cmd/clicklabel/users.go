package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage labelers and administrators",
}

var userIsAdmin bool

var usersAddCmd = &cobra.Command{
	Use:   "add [username]",
	Short: "Register a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		id, err := db.CreateUser(cmd.Context(), args[0], userIsAdmin)
		if err != nil {
			return err
		}
		role := "labeler"
		if userIsAdmin {
			role = "admin"
		}
		fmt.Printf("Added %s [%d]: %s\n", role, id, args[0])
		return nil
	},
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all users",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		users, err := db.ListUsers(cmd.Context())
		if err != nil {
			return err
		}
		if len(users) == 0 {
			fmt.Println("No users yet. Add one with: clicklabel users add")
			return nil
		}

		for _, u := range users {
			marker := ""
			if u.IsAdmin {
				marker = color.New(color.FgHiMagenta).Sprint(" [admin]")
			}
			fmt.Printf("  [%d] %s%s\n", u.ID, u.Username, marker)
		}
		return nil
	},
}

func init() {
	usersAddCmd.Flags().BoolVar(&userIsAdmin, "admin", false, "Grant administrator access")

	usersCmd.AddCommand(usersAddCmd)
	usersCmd.AddCommand(usersListCmd)
}

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"graphdeck/internal/application/commands"
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Save and list custom queries",
}

var queryCreateCmd = &cobra.Command{
	Use:   "create <name> <text>",
	Short: "Save a custom query",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		q, err := commands.NewCreateQueryCommand(GetSession(), args[0], args[1]).Execute(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("Created query %d: %s\n", q.ID, q.Name)
		return nil
	},
}

var queryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved queries",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		queries, err := commands.NewShowQueriesCommand(GetSession()).Execute(cmd.Context())
		if err != nil {
			return err
		}
		if len(queries) == 0 {
			fmt.Println("No queries")
			return nil
		}
		for _, q := range queries {
			fmt.Printf("%d %s\n  %s\n", q.ID, q.Name, q.Text)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.AddCommand(queryCreateCmd, queryListCmd)
}

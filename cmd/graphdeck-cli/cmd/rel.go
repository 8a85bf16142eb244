package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"graphdeck/internal/application/commands"
)

var relCmd = &cobra.Command{
	Use:   "rel",
	Short: "Create, show and remove relationships between cards",
}

var relCreateCmd = &cobra.Command{
	Use:   "create <start-card-id> <type> <end-card-id>",
	Short: "Relate two cards",
	Long: `Create a directed relationship from one card to another.

Examples:
  graphdeck-cli rel create 3 blocks 7
  graphdeck-cli rel create 7 "depends on" 2`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		start, err := parseID(args[0])
		if err != nil {
			return err
		}
		end, err := parseID(args[2])
		if err != nil {
			return err
		}
		result, err := commands.NewCreateRelationshipCommand(GetSession(), args[1], start, end).Execute(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Println(result.Message)
		return nil
	},
}

var relShowCmd = &cobra.Command{
	Use:   "show <card-id>...",
	Short: "Show the relationships touching the given cards",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ids, err := parseIDs(args)
		if err != nil {
			return err
		}
		rels, err := commands.NewShowRelationshipsCommand(GetSession(), ids).Execute(cmd.Context())
		if err != nil {
			return err
		}
		if len(rels) == 0 {
			fmt.Println("No relationships")
			return nil
		}
		for _, r := range rels {
			fmt.Printf("%d %d -[%s]-> %d\n", r.ID, r.StartCardID, r.Type, r.EndCardID)
		}
		return nil
	},
}

var relRemoveCmd = &cobra.Command{
	Use:   "rm <relationship-id>",
	Short: "Delete a relationship",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		result, err := commands.NewRemoveRelationshipCommand(GetSession(), id).Execute(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Println(result.Message)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(relCmd)
	relCmd.AddCommand(relCreateCmd, relShowCmd, relRemoveCmd)
}

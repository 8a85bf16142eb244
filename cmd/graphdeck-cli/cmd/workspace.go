package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"graphdeck/internal/application/commands"
)

var workspaceCmd = &cobra.Command{
	Use:     "workspace",
	Aliases: []string{"ws"},
	Short:   "Create, list and open workspaces",
}

var workspaceCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a workspace",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := commands.NewCreateWorkspaceCommand(GetSession(), args[0]).Execute(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Println(result.Message)
		return nil
	},
}

var workspaceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List workspaces and their boards",
	Long: `List workspaces and their boards. The workspace opened last is marked
with *.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		list, err := commands.NewShowWorkspacesCommand(GetSession()).Execute(cmd.Context())
		if err != nil {
			return err
		}
		if len(list.Workspaces) == 0 {
			fmt.Println("No workspaces")
			return nil
		}
		for _, ws := range list.Workspaces {
			mark := " "
			if ws.ID == list.LastOpened {
				mark = "*"
			}
			boards := make([]string, len(ws.BoardIDs))
			for i, id := range ws.BoardIDs {
				boards[i] = strconv.FormatInt(id, 10)
			}
			fmt.Printf("%s %d %s  boards: %s\n", mark, ws.ID, ws.Name, strings.Join(boards, ", "))
		}
		return nil
	},
}

var workspaceOpenCmd = &cobra.Command{
	Use:   "open <workspace-id> [board-id]",
	Short: "Record the board to reopen, or print it",
	Long: `With a board ID, record it as the board to reopen in the workspace.
Without one, print the board opened last.

Examples:
  graphdeck-cli workspace open 1 3
  graphdeck-cli workspace open 1`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ids, err := parseIDs(args)
		if err != nil {
			return err
		}
		var boardID int64
		if len(ids) == 2 {
			boardID = ids[1]
		}
		open, err := commands.NewOpenBoardCommand(GetSession(), ids[0], boardID).Execute(cmd.Context())
		if err != nil {
			return err
		}
		if open == 0 {
			fmt.Println("No board opened yet")
			return nil
		}
		fmt.Println(open)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(workspaceCmd)
	workspaceCmd.AddCommand(workspaceCreateCmd, workspaceListCmd, workspaceOpenCmd)
}

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"graphdeck/internal/adapters/editor"
	"graphdeck/internal/adapters/filesystem"
	"graphdeck/internal/application/commands"
)

var unsavedCmd = &cobra.Command{
	Use:   "unsaved",
	Short: "Inspect changes that could not be saved",
}

var unsavedShowCmd = &cobra.Command{
	Use:         "show",
	Short:       "Print the unsaved log",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{offline: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		content, err := filesystem.NewUnsavedLog(cfg.UnsavedLog).Read()
		if err != nil {
			return err
		}
		if content == "" {
			fmt.Println("Nothing unsaved")
			return nil
		}
		fmt.Print(content)
		return nil
	},
}

var unsavedEditCmd = &cobra.Command{
	Use:         "edit",
	Short:       "Open the unsaved log in $EDITOR",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{offline: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		return editor.NewOpener(cfg.Editor).OpenFile(cfg.UnsavedLog)
	},
}

var clearErrorCmd = &cobra.Command{
	Use:   "clear-error",
	Short: "Resume the store queue after a failure",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := commands.NewClearErrorCommand(GetSession()).Execute(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Println(result.Message)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(unsavedCmd, clearErrorCmd)
	unsavedCmd.AddCommand(unsavedShowCmd, unsavedEditCmd)
}

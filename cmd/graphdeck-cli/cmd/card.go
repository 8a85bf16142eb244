package cmd

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"graphdeck/internal/application/commands"
	"graphdeck/internal/domain"
)

var cardCmd = &cobra.Command{
	Use:   "card",
	Short: "Create, show, edit and remove cards",
}

var (
	cardText   string
	cardLabels []string
	cardTitle  string
	cardSet    map[string]string
	cardUnset  []string
)

var cardCreateCmd = &cobra.Command{
	Use:   "create <title>",
	Short: "Create a new card",
	Long: `Create a new card. The card gets the next free card ID.

Examples:
  graphdeck-cli card create "Write release notes"
  graphdeck-cli card create "Fix login" --text "Fails with SSO" --labels bug,auth`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		createCmd := commands.NewCreateCardCommand(GetSession(), args[0], cardText, cardLabels)
		result, err := createCmd.Execute(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Println(result.Message)
		return nil
	},
}

var cardShowCmd = &cobra.Command{
	Use:   "show <card-id>...",
	Short: "Show cards",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ids, err := parseIDs(args)
		if err != nil {
			return err
		}
		cards, err := commands.NewShowCardsCommand(GetSession(), ids).Execute(cmd.Context())
		if err != nil {
			return err
		}
		for _, c := range cards {
			printCard(c)
		}
		return nil
	},
}

var cardEditCmd = &cobra.Command{
	Use:   "edit <card-id>",
	Short: "Change fields of a card",
	Long: `Change fields of a card. Only the given flags are changed.

Examples:
  graphdeck-cli card edit 4 --title "Fix SSO login"
  graphdeck-cli card edit 4 --set owner=ana --unset due`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		editCmd := commands.NewUpdateCardCommand(GetSession(), id)
		flags := cmd.Flags()
		if flags.Changed("title") {
			editCmd.Title = &cardTitle
		}
		if flags.Changed("text") {
			editCmd.Text = &cardText
		}
		if flags.Changed("labels") {
			editCmd.Labels = append([]string{}, cardLabels...)
		}
		editCmd.SetProperties = cardSet
		editCmd.RemoveProperties = cardUnset

		card, err := editCmd.Execute(cmd.Context())
		if err != nil {
			return err
		}
		printCard(*card)
		return nil
	},
}

var cardRemoveCmd = &cobra.Command{
	Use:   "rm <card-id>",
	Short: "Delete a card and its relationships",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		result, err := commands.NewRemoveCardCommand(GetSession(), id).Execute(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Println(result.Message)
		return nil
	},
}

func printCard(c domain.Card) {
	fmt.Printf("%d %s\n", c.ID, c.Title)
	if len(c.Labels) > 0 {
		fmt.Printf("  labels: %s\n", strings.Join(c.Labels, ", "))
	}
	for _, k := range slices.Sorted(maps.Keys(c.Properties)) {
		fmt.Printf("  %s: %s\n", k, c.Properties[k])
	}
	if c.Text != "" {
		fmt.Printf("  %s\n", strings.ReplaceAll(c.Text, "\n", "\n  "))
	}
}

func init() {
	rootCmd.AddCommand(cardCmd)
	cardCmd.AddCommand(cardCreateCmd, cardShowCmd, cardEditCmd, cardRemoveCmd)

	cardCreateCmd.Flags().StringVar(&cardText, "text", "", "card text")
	cardCreateCmd.Flags().StringSliceVar(&cardLabels, "labels", nil, "comma-separated labels")

	cardEditCmd.Flags().StringVar(&cardTitle, "title", "", "new title")
	cardEditCmd.Flags().StringVar(&cardText, "text", "", "new text")
	cardEditCmd.Flags().StringSliceVar(&cardLabels, "labels", nil, "labels replacing the current ones")
	cardEditCmd.Flags().StringToStringVar(&cardSet, "set", nil, "set properties (key=value)")
	cardEditCmd.Flags().StringSliceVar(&cardUnset, "unset", nil, "remove properties")
}

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"graphdeck/internal/application/commands"
	"graphdeck/internal/domain"
)

var boardCmd = &cobra.Command{
	Use:   "board",
	Short: "Create and show boards, place cards on them",
}

var (
	placeRect    domain.Rect
	placeUnplace bool
	viewX, viewY float64
	viewZoom     float64
)

var boardCreateCmd = &cobra.Command{
	Use:   "create <workspace-id> <name>",
	Short: "Create a board in a workspace",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		wsID, err := parseID(args[0])
		if err != nil {
			return err
		}
		result, err := commands.NewCreateBoardCommand(GetSession(), wsID, args[1]).Execute(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Println(result.Message)
		return nil
	},
}

var boardShowCmd = &cobra.Command{
	Use:   "show <board-id>",
	Short: "Show a board with its view and placed cards",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		details, err := commands.NewShowBoardCommand(GetSession(), id).Execute(cmd.Context())
		if err != nil {
			return err
		}
		b := details.Board
		fmt.Printf("%d %s\n", b.ID, b.Name)
		view := details.View
		fmt.Printf("  view: (%g, %g) zoom %g", view.TopLeft.X, view.TopLeft.Y, view.Zoom)
		if !details.HasView {
			fmt.Print(" (default)")
		}
		fmt.Println()
		for _, c := range details.Cards {
			r := b.Placements[c.ID]
			fmt.Printf("  %d %s at (%g, %g) %gx%g\n", c.ID, c.Title, r.X, r.Y, r.Width, r.Height)
		}
		return nil
	},
}

var boardPlaceCmd = &cobra.Command{
	Use:   "place <board-id> <card-id>",
	Short: "Place a card on a board, or move it",
	Long: `Place a card on a board at the given rectangle. Placing a card that is
already on the board moves it.

Examples:
  graphdeck-cli board place 1 4 --x 40 --y 80
  graphdeck-cli board place 1 4 --unplace`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ids, err := parseIDs(args)
		if err != nil {
			return err
		}
		placeCmd := commands.NewPlaceCardCommand(GetSession(), ids[0], ids[1], placeRect)
		placeCmd.Unplace = placeUnplace
		if _, err := placeCmd.Execute(cmd.Context()); err != nil {
			return err
		}
		if placeUnplace {
			fmt.Printf("Removed card %d from board %d\n", ids[1], ids[0])
		} else {
			fmt.Printf("Placed card %d on board %d\n", ids[1], ids[0])
		}
		return nil
	},
}

var boardViewCmd = &cobra.Command{
	Use:   "view <board-id>",
	Short: "Save the viewport of a board",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		view := domain.BoardView{TopLeft: domain.Point{X: viewX, Y: viewY}, Zoom: viewZoom}
		if err := commands.NewSaveBoardViewCommand(GetSession(), id, view).Execute(cmd.Context()); err != nil {
			return err
		}
		fmt.Printf("Saved view of board %d\n", id)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(boardCmd)
	boardCmd.AddCommand(boardCreateCmd, boardShowCmd, boardPlaceCmd, boardViewCmd)

	f := boardPlaceCmd.Flags()
	f.Float64Var(&placeRect.X, "x", 0, "left edge")
	f.Float64Var(&placeRect.Y, "y", 0, "top edge")
	f.Float64Var(&placeRect.Width, "w", 200, "width")
	f.Float64Var(&placeRect.Height, "h", 120, "height")
	f.BoolVar(&placeUnplace, "unplace", false, "remove the card from the board")

	f = boardViewCmd.Flags()
	f.Float64Var(&viewX, "x", 0, "left edge of the viewport")
	f.Float64Var(&viewY, "y", 0, "top edge of the viewport")
	f.Float64Var(&viewZoom, "zoom", 1, "zoom factor")
}

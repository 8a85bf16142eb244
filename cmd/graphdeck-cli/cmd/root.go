package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"graphdeck/internal/application/commands"
	"graphdeck/internal/config"
	"graphdeck/internal/wiring"
)

var (
	cfg config.Config
	rt  *wiring.Runtime
)

var rootCmd = &cobra.Command{
	Use:   "graphdeck-cli",
	Short: "CLI for graphdeck cards, boards and workspaces",
	Long: `graphdeck-cli reads and edits the card graph behind graphdeck.

It provides commands to create, show and remove cards, relationships,
boards, workspaces and saved queries. Writes that fail are copied to the
unsaved log, which can be inspected with "graphdeck-cli unsaved show".

Configuration comes from GRAPHDECK_* environment variables.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip initialization for help commands
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}
		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}
		if cmd.Annotations[offline] == "true" {
			return nil
		}
		rt, err = wiring.Open(cmd.Context(), cfg, cfg.NewLogger(os.Stderr))
		return err
	},
}

// offline marks commands that only touch local files
const offline = "offline"

// Execute runs the root command. The runtime is shut down even when the
// command fails, so writes already accepted still reach the store.
func Execute() {
	err := rootCmd.ExecuteContext(context.Background())
	if rt != nil {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.StoreTimeout)
		if serr := rt.Shutdown(ctx); serr != nil {
			err = errors.Join(err, fmt.Errorf("some changes may not be saved, see %s: %w", rt.Unsaved.Path(), serr))
		}
		cancel()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// GetSession returns the initialized command session
func GetSession() *commands.Session {
	return rt.Session
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid ID %q", s)
	}
	return id, nil
}

func parseIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, a := range args {
		id, err := parseID(a)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

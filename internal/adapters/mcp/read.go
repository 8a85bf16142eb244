package mcp

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"graphdeck/internal/application/commands"
	"graphdeck/internal/domain"
)

// RegisterReadTools adds all read-only graph tools to the MCP server.
func RegisterReadTools(s *server.MCPServer, session *commands.Session) {
	s.AddTool(showCardsTool(), showCardsHandler(session))
	s.AddTool(showRelationshipsTool(), showRelationshipsHandler(session))
	s.AddTool(showBoardTool(), showBoardHandler(session))
	s.AddTool(listWorkspacesTool(), listWorkspacesHandler(session))
	s.AddTool(lastOpenedBoardTool(), lastOpenedBoardHandler(session))
	s.AddTool(listQueriesTool(), listQueriesHandler(session))
}

// --- show_cards ---

func showCardsTool() mcp.Tool {
	return mcp.NewTool("show_cards",
		mcp.WithDescription("Show cards by ID with their title, labels, properties and text. Unknown IDs are skipped."),
		mcp.WithString("ids",
			mcp.Description("Comma-separated card IDs (e.g. 3,7,12)"),
			mcp.Required(),
		),
	)
}

func showCardsHandler(session *commands.Session) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ids, err := parseIDs(req.GetString("ids", ""))
		if err != nil {
			return toolError(err)
		}
		cards, err := commands.NewShowCardsCommand(session, ids).Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		return formatEntities(cards, formatCard)
	}
}

// --- show_relationships ---

func showRelationshipsTool() mcp.Tool {
	return mcp.NewTool("show_relationships",
		mcp.WithDescription("Show the relationships whose both ends are among the given cards."),
		mcp.WithString("card_ids",
			mcp.Description("Comma-separated card IDs"),
			mcp.Required(),
		),
	)
}

func showRelationshipsHandler(session *commands.Session) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ids, err := parseIDs(req.GetString("card_ids", ""))
		if err != nil {
			return toolError(err)
		}
		rels, err := commands.NewShowRelationshipsCommand(session, ids).Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		return formatEntities(rels, formatRelationship)
	}
}

// --- show_board ---

func showBoardTool() mcp.Tool {
	return mcp.NewTool("show_board",
		mcp.WithDescription("Show a board: its saved viewport and every placed card with its position."),
		mcp.WithNumber("board_id",
			mcp.Description("Board ID"),
			mcp.Required(),
		),
	)
}

func showBoardHandler(session *commands.Session) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		details, err := commands.NewShowBoardCommand(session, int64(req.GetInt("board_id", 0))).Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		return mcp.NewToolResultText(formatBoard(details)), nil
	}
}

// --- list_workspaces ---

func listWorkspacesTool() mcp.Tool {
	return mcp.NewTool("list_workspaces",
		mcp.WithDescription("List workspaces with their boards. The last opened workspace is marked with *."),
	)
}

func listWorkspacesHandler(session *commands.Session) server.ToolHandlerFunc {
	return func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		list, err := commands.NewShowWorkspacesCommand(session).Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		return formatEntities(list.Workspaces, func(ws domain.Workspace) string {
			return formatWorkspace(ws, ws.ID == list.LastOpened)
		})
	}
}

// --- last_opened_board ---

func lastOpenedBoardTool() mcp.Tool {
	return mcp.NewTool("last_opened_board",
		mcp.WithDescription("Get the board last opened in a workspace."),
		mcp.WithNumber("workspace_id",
			mcp.Description("Workspace ID"),
			mcp.Required(),
		),
	)
}

func lastOpenedBoardHandler(session *commands.Session) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := commands.NewOpenBoardCommand(session, int64(req.GetInt("workspace_id", 0)), 0).Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		if id == 0 {
			return mcp.NewToolResultText("No board opened yet."), nil
		}
		return mcp.NewToolResultText(strconv.FormatInt(id, 10)), nil
	}
}

// --- list_queries ---

func listQueriesTool() mcp.Tool {
	return mcp.NewTool("list_queries",
		mcp.WithDescription("List the saved custom queries."),
	)
}

func listQueriesHandler(session *commands.Session) server.ToolHandlerFunc {
	return func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		qs, err := commands.NewShowQueriesCommand(session).Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		return formatEntities(qs, formatQuery)
	}
}

// --- helpers ---

func toolError(err error) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultError(err.Error()), nil
}

func parseIDs(s string) ([]int64, error) {
	var ids []int64
	for field := range strings.SplitSeq(s, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		id, err := strconv.ParseInt(field, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid ID %q", field)
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("at least one ID is required")
	}
	return ids, nil
}

func formatEntities[T any](entities []T, format func(T) string) (*mcp.CallToolResult, error) {
	if len(entities) == 0 {
		return mcp.NewToolResultText("No results."), nil
	}
	var sb strings.Builder
	for _, e := range entities {
		sb.WriteString(format(e))
		sb.WriteByte('\n')
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func formatCard(c domain.Card) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d  %s", c.ID, c.Title)
	if len(c.Labels) > 0 {
		fmt.Fprintf(&sb, "  [%s]", strings.Join(c.Labels, ", "))
	}
	for _, k := range slices.Sorted(maps.Keys(c.Properties)) {
		fmt.Fprintf(&sb, "\n  %s: %s", k, c.Properties[k])
	}
	if c.Text != "" {
		fmt.Fprintf(&sb, "\n  %s", strings.ReplaceAll(c.Text, "\n", "\n  "))
	}
	return sb.String()
}

func formatRelationship(r domain.Relationship) string {
	return fmt.Sprintf("%d  %d -[%s]-> %d", r.ID, r.StartCardID, r.Type, r.EndCardID)
}

func formatWorkspace(ws domain.Workspace, current bool) string {
	mark := " "
	if current {
		mark = "*"
	}
	return fmt.Sprintf("%s %d  %s  boards: %s", mark, ws.ID, ws.Name, joinIDs(ws.BoardIDs))
}

func formatQuery(q domain.CustomQuery) string {
	return fmt.Sprintf("%d  %s  %s", q.ID, q.Name, q.Text)
}

func formatBoard(d *commands.BoardDetails) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d  %s\n", d.Board.ID, d.Board.Name)
	fmt.Fprintf(&sb, "view: (%g, %g) zoom %g", d.View.TopLeft.X, d.View.TopLeft.Y, d.View.Zoom)
	if !d.HasView {
		sb.WriteString(" (default)")
	}
	sb.WriteByte('\n')
	for _, c := range d.Cards {
		r := d.Board.Placements[c.ID]
		fmt.Fprintf(&sb, "%d  %s  at (%g, %g) %gx%g\n", c.ID, c.Title, r.X, r.Y, r.Width, r.Height)
	}
	return sb.String()
}

func joinIDs(ids []int64) string {
	if len(ids) == 0 {
		return "-"
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}

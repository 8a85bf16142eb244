package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"graphdeck/internal/application/commands"
	"graphdeck/internal/domain"
)

// RegisterWriteTools adds all graph-changing tools to the MCP server.
func RegisterWriteTools(s *server.MCPServer, session *commands.Session) {
	s.AddTool(createCardTool(), createCardHandler(session))
	s.AddTool(updateCardTool(), updateCardHandler(session))
	s.AddTool(removeCardTool(), removeCardHandler(session))
	s.AddTool(relateTool(), relateHandler(session))
	s.AddTool(unrelateTool(), unrelateHandler(session))
	s.AddTool(createWorkspaceTool(), createWorkspaceHandler(session))
	s.AddTool(createBoardTool(), createBoardHandler(session))
	s.AddTool(placeCardTool(), placeCardHandler(session))
	s.AddTool(openBoardTool(), openBoardHandler(session))
	s.AddTool(createQueryTool(), createQueryHandler(session))
	s.AddTool(clearErrorTool(), clearErrorHandler(session))
}

// --- create_card ---

func createCardTool() mcp.Tool {
	return mcp.NewTool("create_card",
		mcp.WithDescription("Create a new card. Returns the reserved card ID."),
		mcp.WithString("title",
			mcp.Description("Card title"),
			mcp.Required(),
		),
		mcp.WithString("text",
			mcp.Description("Card body text"),
		),
		mcp.WithString("labels",
			mcp.Description("Comma-separated labels"),
		),
	)
}

func createCardHandler(session *commands.Session) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		cmd := commands.NewCreateCardCommand(session,
			req.GetString("title", ""),
			req.GetString("text", ""),
			splitLabels(req.GetString("labels", "")))
		result, err := cmd.Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		return mcp.NewToolResultText(result.Message), nil
	}
}

// --- update_card ---

func updateCardTool() mcp.Tool {
	return mcp.NewTool("update_card",
		mcp.WithDescription("Change the title, text or labels of a card. Omitted fields are left untouched."),
		mcp.WithNumber("card_id",
			mcp.Description("Card ID"),
			mcp.Required(),
		),
		mcp.WithString("title",
			mcp.Description("New title"),
		),
		mcp.WithString("text",
			mcp.Description("New body text"),
		),
		mcp.WithString("labels",
			mcp.Description("Comma-separated labels replacing the current ones"),
		),
	)
}

func updateCardHandler(session *commands.Session) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		cmd := commands.NewUpdateCardCommand(session, int64(req.GetInt("card_id", 0)))
		args := req.GetArguments()
		if _, ok := args["title"]; ok {
			title := req.GetString("title", "")
			cmd.Title = &title
		}
		if _, ok := args["text"]; ok {
			text := req.GetString("text", "")
			cmd.Text = &text
		}
		if _, ok := args["labels"]; ok {
			cmd.Labels = splitLabels(req.GetString("labels", ""))
			if cmd.Labels == nil {
				cmd.Labels = []string{}
			}
		}
		card, err := cmd.Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		return mcp.NewToolResultText(formatCard(*card)), nil
	}
}

// --- remove_card ---

func removeCardTool() mcp.Tool {
	return mcp.NewTool("remove_card",
		mcp.WithDescription("Delete a card and every relationship touching it."),
		mcp.WithNumber("card_id",
			mcp.Description("Card ID"),
			mcp.Required(),
		),
	)
}

func removeCardHandler(session *commands.Session) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result, err := commands.NewRemoveCardCommand(session, int64(req.GetInt("card_id", 0))).Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		return mcp.NewToolResultText(result.Message), nil
	}
}

// --- relate ---

func relateTool() mcp.Tool {
	return mcp.NewTool("relate",
		mcp.WithDescription("Create a typed relationship from one card to another."),
		mcp.WithString("type",
			mcp.Description("Relationship type (e.g. blocks, refines)"),
			mcp.Required(),
		),
		mcp.WithNumber("start_card_id",
			mcp.Description("Card the relationship starts from"),
			mcp.Required(),
		),
		mcp.WithNumber("end_card_id",
			mcp.Description("Card the relationship points to"),
			mcp.Required(),
		),
	)
}

func relateHandler(session *commands.Session) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		cmd := commands.NewCreateRelationshipCommand(session,
			req.GetString("type", ""),
			int64(req.GetInt("start_card_id", 0)),
			int64(req.GetInt("end_card_id", 0)))
		result, err := cmd.Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		return mcp.NewToolResultText(result.Message), nil
	}
}

// --- unrelate ---

func unrelateTool() mcp.Tool {
	return mcp.NewTool("unrelate",
		mcp.WithDescription("Delete a relationship."),
		mcp.WithNumber("relationship_id",
			mcp.Description("Relationship ID"),
			mcp.Required(),
		),
	)
}

func unrelateHandler(session *commands.Session) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result, err := commands.NewRemoveRelationshipCommand(session, int64(req.GetInt("relationship_id", 0))).Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		return mcp.NewToolResultText(result.Message), nil
	}
}

// --- create_workspace ---

func createWorkspaceTool() mcp.Tool {
	return mcp.NewTool("create_workspace",
		mcp.WithDescription("Create an empty workspace."),
		mcp.WithString("name",
			mcp.Description("Workspace name"),
			mcp.Required(),
		),
	)
}

func createWorkspaceHandler(session *commands.Session) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result, err := commands.NewCreateWorkspaceCommand(session, req.GetString("name", "")).Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		return mcp.NewToolResultText(result.Message), nil
	}
}

// --- create_board ---

func createBoardTool() mcp.Tool {
	return mcp.NewTool("create_board",
		mcp.WithDescription("Create an empty board in a workspace."),
		mcp.WithNumber("workspace_id",
			mcp.Description("Workspace the board belongs to"),
			mcp.Required(),
		),
		mcp.WithString("name",
			mcp.Description("Board name"),
			mcp.Required(),
		),
	)
}

func createBoardHandler(session *commands.Session) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		cmd := commands.NewCreateBoardCommand(session, int64(req.GetInt("workspace_id", 0)), req.GetString("name", ""))
		result, err := cmd.Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		return mcp.NewToolResultText(result.Message), nil
	}
}

// --- place_card ---

func placeCardTool() mcp.Tool {
	return mcp.NewTool("place_card",
		mcp.WithDescription("Place a card on a board at the given rectangle, move it there, or take it off the board."),
		mcp.WithNumber("board_id",
			mcp.Description("Board ID"),
			mcp.Required(),
		),
		mcp.WithNumber("card_id",
			mcp.Description("Card ID"),
			mcp.Required(),
		),
		mcp.WithNumber("x", mcp.Description("Left edge")),
		mcp.WithNumber("y", mcp.Description("Top edge")),
		mcp.WithNumber("width", mcp.Description("Width (default 200)")),
		mcp.WithNumber("height", mcp.Description("Height (default 120)")),
		mcp.WithBoolean("unplace",
			mcp.Description("Remove the card from the board instead"),
		),
	)
}

func placeCardHandler(session *commands.Session) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		boardID := int64(req.GetInt("board_id", 0))
		cardID := int64(req.GetInt("card_id", 0))
		rect := domain.Rect{
			X:      req.GetFloat("x", 0),
			Y:      req.GetFloat("y", 0),
			Width:  req.GetFloat("width", 200),
			Height: req.GetFloat("height", 120),
		}
		cmd := commands.NewPlaceCardCommand(session, boardID, cardID, rect)
		cmd.Unplace = req.GetBool("unplace", false)
		if _, err := cmd.Execute(ctx); err != nil {
			return toolError(err)
		}
		if cmd.Unplace {
			return mcp.NewToolResultText(fmt.Sprintf("Removed card %d from board %d", cardID, boardID)), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Placed card %d on board %d", cardID, boardID)), nil
	}
}

// --- open_board ---

func openBoardTool() mcp.Tool {
	return mcp.NewTool("open_board",
		mcp.WithDescription("Remember a board as the last opened one of its workspace."),
		mcp.WithNumber("workspace_id",
			mcp.Description("Workspace ID"),
			mcp.Required(),
		),
		mcp.WithNumber("board_id",
			mcp.Description("Board ID, which must belong to the workspace"),
			mcp.Required(),
		),
	)
}

func openBoardHandler(session *commands.Session) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		wsID := int64(req.GetInt("workspace_id", 0))
		id, err := commands.NewOpenBoardCommand(session, wsID, int64(req.GetInt("board_id", 0))).Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		return mcp.NewToolResultText(fmt.Sprintf("Opened board %d in workspace %d", id, wsID)), nil
	}
}

// --- create_query ---

func createQueryTool() mcp.Tool {
	return mcp.NewTool("create_query",
		mcp.WithDescription("Save a named custom query."),
		mcp.WithString("name",
			mcp.Description("Query name"),
			mcp.Required(),
		),
		mcp.WithString("text",
			mcp.Description("Query text"),
			mcp.Required(),
		),
	)
}

func createQueryHandler(session *commands.Session) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		q, err := commands.NewCreateQueryCommand(session, req.GetString("name", ""), req.GetString("text", "")).Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		return mcp.NewToolResultText(fmt.Sprintf("Created query %d: %s", q.ID, q.Name)), nil
	}
}

// --- clear_error ---

func clearErrorTool() mcp.Tool {
	return mcp.NewTool("clear_error",
		mcp.WithDescription("Let requests reach the graph store again after a failed write. Failed writes are kept in the unsaved log."),
	)
}

func clearErrorHandler(session *commands.Session) server.ToolHandlerFunc {
	return func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result, err := commands.NewClearErrorCommand(session).Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		return mcp.NewToolResultText(result.Message), nil
	}
}

func splitLabels(s string) []string {
	var labels []string
	for l := range strings.SplitSeq(s, ",") {
		if l = strings.TrimSpace(l); l != "" {
			labels = append(labels, l)
		}
	}
	return labels
}

package server

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/maryam97/pyactr/internal/store"
)

// ListRunsTool handles the list_runs MCP tool.
type ListRunsTool struct {
	runs RunLister
}

// NewListRunsTool creates a ListRunsTool.
func NewListRunsTool(runs RunLister) *ListRunsTool {
	return &ListRunsTool{runs: runs}
}

// Definition returns the MCP tool definition for list_runs.
func (t *ListRunsTool) Definition() mcp.Tool {
	return mcp.NewTool("list_runs",
		mcp.WithDescription("List stored experiment runs, newest first, with accuracy and mean reaction time."),
		mcp.WithString("note",
			mcp.Description("Only runs whose note contains this text"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Max results (default: 10)"),
		),
	)
}

// Handle processes the list_runs tool call.
func (t *ListRunsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	runs, err := t.runs.ListRuns(ctx, store.ListParams{
		Note:  req.GetString("note", ""),
		Limit: intArg(req, "limit", 10),
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list failed: %v", err)), nil
	}
	if len(runs) == 0 {
		return mcp.NewToolResultText("No runs stored."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d runs:\n\n", len(runs))
	for i, r := range runs {
		fmt.Fprintf(&b, "[%d] %s  %s\n    trials %d, accuracy %.2f, mean RT %.1f ms, mas %g",
			i+1, r.ID, r.CreatedAt.Format("2006-01-02 15:04:05"),
			r.TrialCount, r.Accuracy, r.MeanRT*1000, r.Config.StrengthOfAssociation)
		if r.Note != "" {
			fmt.Fprintf(&b, "\n    %s", r.Note)
		}
		b.WriteString("\n\n")
	}
	return mcp.NewToolResultText(b.String()), nil
}

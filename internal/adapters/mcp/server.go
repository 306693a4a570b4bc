// Package mcpadapter exposes the study tools over the Model Context Protocol
// so assistants can query a user's notebook directly.
package mcpadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/Htaaxx/NotebookLLM/internal/core/domain"
	"github.com/Htaaxx/NotebookLLM/internal/core/ports"
)

const serverName = "notebook-llm"

type Handlers struct {
	query   ports.DocumentQueryService
	mindmap ports.MindmapBuilder
	recall  ports.RecallService
}

func NewHandlers(query ports.DocumentQueryService, mindmap ports.MindmapBuilder, recall ports.RecallService) *Handlers {
	return &Handlers{query: query, mindmap: mindmap, recall: recall}
}

// NewServer registers the tools whose service is configured.
func NewServer(version string, h *Handlers) *server.MCPServer {
	s := server.NewMCPServer(serverName, version, server.WithToolCapabilities(false))

	if h.query != nil {
		s.AddTool(mcp.NewTool("ask_documents",
			mcp.WithDescription("Answer a question from the user's documents with numbered citations."),
			mcp.WithString("user_id", mcp.Required(), mcp.Description("Owner of the document collection.")),
			mcp.WithString("question", mcp.Required(), mcp.Description("Question to answer.")),
			mcp.WithArray("document_ids", mcp.Description("Documents to search. Defaults to the user's selected documents."), mcp.WithStringItems()),
		), h.askDocuments)
	}
	if h.mindmap != nil {
		s.AddTool(mcp.NewTool("build_mindmap",
			mcp.WithDescription("Cluster document chunks into topics and return a markdown outline."),
			mcp.WithString("user_id", mcp.Required()),
			mcp.WithArray("document_ids", mcp.Required(), mcp.WithStringItems()),
			mcp.WithNumber("num_clusters", mcp.Description("Number of topics. Zero uses the server default.")),
		), h.buildMindmap)
	}
	if h.recall != nil {
		s.AddTool(mcp.NewTool("start_recall",
			mcp.WithDescription("Start an active-recall quiz on a topic and return the first question."),
			mcp.WithString("user_id", mcp.Required()),
			mcp.WithString("topic", mcp.Required()),
		), h.startRecall)
		s.AddTool(mcp.NewTool("answer_recall",
			mcp.WithDescription("Submit an answer in a recall session and get feedback plus the next question."),
			mcp.WithString("session_id", mcp.Required()),
			mcp.WithString("user_answer", mcp.Required()),
		), h.answerRecall)
	}
	return s
}

// ServeStdio blocks serving the MCP protocol on stdin/stdout.
func ServeStdio(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

func (h *Handlers) askDocuments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID, err := req.RequireString("user_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	question, err := req.RequireString("question")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	answer, err := h.query.Answer(ctx, domain.Question{
		UserID:      userID,
		Question:    question,
		DocumentIDs: req.GetStringSlice("document_ids", nil),
	})
	if err != nil {
		return toolError("ask_documents", err), nil
	}
	return mcp.NewToolResultText(renderAnswer(answer)), nil
}

func (h *Handlers) buildMindmap(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID, err := req.RequireString("user_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	mindmap, err := h.mindmap.Build(ctx, domain.MindmapRequest{
		UserID:      userID,
		DocumentIDs: req.GetStringSlice("document_ids", nil),
		NumClusters: req.GetInt("num_clusters", 0),
	})
	if err != nil {
		return toolError("build_mindmap", err), nil
	}
	return mcp.NewToolResultText(mindmap.Markdown), nil
}

func (h *Handlers) startRecall(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID, err := req.RequireString("user_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	topic, err := req.RequireString("topic")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	start, err := h.recall.Start(ctx, userID, topic)
	if err != nil {
		return toolError("start_recall", err), nil
	}
	return jsonResult(start)
}

func (h *Handlers) answerRecall(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := req.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	answer, err := req.RequireString("user_answer")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	feedback, err := h.recall.Answer(ctx, sessionID, answer)
	if err != nil {
		return toolError("answer_recall", err), nil
	}
	return jsonResult(feedback)
}

// renderAnswer prints the answer followed by a numbered source list.
func renderAnswer(answer *domain.Answer) string {
	var b strings.Builder
	b.WriteString(answer.Text)
	if len(answer.Citations) == 0 {
		return b.String()
	}
	b.WriteString("\n\nSources:")
	for i := 1; i <= len(answer.Citations); i++ {
		c, ok := answer.Citations[fmt.Sprint(i)]
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "\n[%d] %s, page %d", i, c.Filename, c.PageNumber)
	}
	return b.String()
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode tool result: %w", err)
	}
	return mcp.NewToolResultText(string(raw)), nil
}

// toolError reports domain failures to the model as tool errors rather
// than protocol errors so it can correct its arguments.
func toolError(tool string, err error) *mcp.CallToolResult {
	slog.Warn("mcp_tool_failed", "tool", tool, "error", err)
	return mcp.NewToolResultError(err.Error())
}

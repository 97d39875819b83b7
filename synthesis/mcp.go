package synthesis

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// RegisterMCP registers synthesis tools on an MCP server.
func (g *Gateway) RegisterMCP(srv *mcp.Server) {
	g.registerAssessmentTool(srv)
	g.registerGapTool(srv)
	g.registerSyllabusTool(srv)
}

func structuredResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(b)}},
	}, nil
}

// --- generate_assessment ---

type assessmentToolReq struct {
	Subject      string `json:"subject"`
	Unit         string `json:"unit"`
	Difficulty   string `json:"difficulty,omitempty"`
	NumQuestions int    `json:"num_questions,omitempty"`
}

func (g *Gateway) registerAssessmentTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "generate_assessment",
		Description: "Generate an assessment (MCQ and short-answer questions) for a subject and unit.",
	}
	mcp.AddTool(srv, tool, func(ctx context.Context, _ *mcp.CallToolRequest, in assessmentToolReq) (*mcp.CallToolResult, any, error) {
		a, outcome, err := g.GenerateAssessment(ctx, AssessmentSpec{
			Subject:      in.Subject,
			Unit:         in.Unit,
			Difficulty:   in.Difficulty,
			NumQuestions: in.NumQuestions,
		})
		if err != nil {
			return nil, nil, err
		}
		res, err := structuredResult(map[string]any{"outcome": outcome, "assessment": a})
		return res, nil, err
	})
}

// --- detect_gaps ---

type gapToolReq struct {
	PerformanceSummary string   `json:"performance_summary"`
	SyllabusTopics     []string `json:"syllabus_topics"`
}

func (g *Gateway) registerGapTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "detect_gaps",
		Description: "Cross-reference a class performance summary with syllabus topics to find learning gaps.",
	}
	mcp.AddTool(srv, tool, func(ctx context.Context, _ *mcp.CallToolRequest, in gapToolReq) (*mcp.CallToolResult, any, error) {
		gr, _, err := g.DetectGaps(ctx, in.PerformanceSummary, in.SyllabusTopics)
		if err != nil {
			return nil, nil, err
		}
		res, err := structuredResult(gr)
		return res, nil, err
	})
}

// --- analyze_syllabus ---

type syllabusToolReq struct {
	Text string `json:"text"`
}

func (g *Gateway) registerSyllabusTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "analyze_syllabus",
		Description: "Extract major topics and assessment focus areas from syllabus text.",
	}
	mcp.AddTool(srv, tool, func(ctx context.Context, _ *mcp.CallToolRequest, in syllabusToolReq) (*mcp.CallToolResult, any, error) {
		si, _, err := g.AnalyzeSyllabus(ctx, in.Text)
		if err != nil {
			return nil, nil, err
		}
		res, err := structuredResult(si)
		return res, nil, err
	})
}

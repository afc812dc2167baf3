package server

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/maryam97/pyactr/internal/config"
	"github.com/maryam97/pyactr/internal/store"
)

func makeReq(args map[string]interface{}) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

// resultText extracts the text content from a tool result.
func resultText(r *mcp.CallToolResult) string {
	if r == nil || len(r.Content) == 0 {
		return ""
	}
	for _, c := range r.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestSimulateTool_Definition(t *testing.T) {
	def := NewSimulateTool(config.Default(), nil, nil).Definition()
	if def.Name != "simulate_trial" {
		t.Errorf("tool name = %q, want %q", def.Name, "simulate_trial")
	}
	for _, p := range []string{"prime", "target", "nonword", "mas", "noise", "seed", "trace"} {
		if _, ok := def.InputSchema.Properties[p]; !ok {
			t.Errorf("missing %q parameter", p)
		}
	}
}

func TestSimulateTool_Handle(t *testing.T) {
	tool := NewSimulateTool(config.Default(), nil, nil)
	tests := []struct {
		name    string
		args    map[string]interface{}
		isError bool
		want    string
	}{
		{"word", map[string]interface{}{"prime": "body", "target": "abdomen"}, false, "Key J"},
		{"nonword", map[string]interface{}{"prime": "body", "target": "abdomin", "nonword": true}, false, "Key F"},
		{"high mas", map[string]interface{}{"prime": "body", "target": "abdomen", "mas": 10.0}, false, "mas=10"},
		{"trace", map[string]interface{}{"prime": "body", "target": "abdomen", "trace": true}, false, "RULE FIRED: target_retrieved"},
		{"missing target", map[string]interface{}{"prime": "body"}, true, "required"},
		{"negative noise", map[string]interface{}{"prime": "body", "target": "abdomen", "noise": -1.0}, true, "noise_magnitude"},
		{"negative seed", map[string]interface{}{"prime": "body", "target": "abdomen", "seed": -3.0}, true, "seed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := tool.Handle(context.Background(), makeReq(tt.args))
			if err != nil {
				t.Fatalf("handle: %v", err)
			}
			if result.IsError != tt.isError {
				t.Fatalf("IsError = %v, want %v: %s", result.IsError, tt.isError, resultText(result))
			}
			if text := resultText(result); !strings.Contains(text, tt.want) {
				t.Errorf("expected %q in:\n%s", tt.want, text)
			}
		})
	}
}

type fakeRuns struct {
	runs []store.Run
	err  error
	got  store.ListParams
}

func (f *fakeRuns) ListRuns(_ context.Context, p store.ListParams) ([]store.Run, error) {
	f.got = p
	return f.runs, f.err
}

func TestListRunsTool(t *testing.T) {
	cfg := config.Default()
	runs := &fakeRuns{runs: []store.Run{
		{ID: "01RUN", CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), Note: "baseline",
			Config: cfg, Accuracy: 1, MeanRT: 0.69, TrialCount: 2},
	}}
	tool := NewListRunsTool(runs)

	result, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{"note": "base", "limit": 5.0}))
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	text := resultText(result)
	for _, want := range []string{"01RUN", "baseline", "690.0 ms", "mas 1.6"} {
		if !strings.Contains(text, want) {
			t.Errorf("expected %q in:\n%s", want, text)
		}
	}
	if runs.got.Note != "base" || runs.got.Limit != 5 {
		t.Errorf("unexpected list params %+v", runs.got)
	}

	runs.runs = nil
	result, _ = tool.Handle(context.Background(), makeReq(nil))
	if !strings.Contains(resultText(result), "No runs") {
		t.Errorf("expected empty message, got %s", resultText(result))
	}
	if runs.got.Limit != 10 {
		t.Errorf("expected default limit 10, got %d", runs.got.Limit)
	}

	runs.err = errors.New("disk gone")
	result, _ = tool.Handle(context.Background(), makeReq(nil))
	if !result.IsError {
		t.Error("expected error result")
	}
}

func TestNewRegistersTools(t *testing.T) {
	if s := New(Deps{Config: config.Default(), Runs: &fakeRuns{}}); s == nil {
		t.Fatal("expected server")
	}
}

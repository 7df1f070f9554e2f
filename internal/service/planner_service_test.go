package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dashgen-backend/config"
	"dashgen-backend/internal/model"
)

func geminiReply(t *testing.T, text string) []byte {
	t.Helper()
	body, err := json.Marshal(GeminiResponse{Candidates: []GeminiCandidate{{
		Content: GeminiContent{Parts: []GeminiPart{{Text: text}}},
	}}})
	require.NoError(t, err)
	return body
}

func newTestGeminiPlanner(url string) Planner {
	cfg := &config.Config{APIKey: "test-key"}
	cfg.Planner.BaseURL = url
	cfg.Planner.Model = "test-model"
	cfg.Planner.Timeout = 5 * time.Second
	return NewGeminiPlanner(cfg)
}

func TestGeminiPlanner_Plan(t *testing.T) {
	reply := "```json\n" + `{"title":"Sales","components":[{"id":"k","type":"kpi","title":"Rows","config":{"value_expr":"count"}},{"id":"c","type":"bar","title":"By region","config":{"x":"region","y":"amount"}}]}` + "\n```"

	var gotPath, gotKey string
	var gotBody GeminiRequestBody
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = w.Write(geminiReply(t, reply))
	}))
	defer srv.Close()

	cfg, err := newTestGeminiPlanner(srv.URL).Plan(context.Background(), PlanRequest{
		Summary:     "region: string\namount: float64",
		Instruction: "sales by region",
	})
	require.NoError(t, err)

	assert.Equal(t, "/models/test-model:generateContent", gotPath)
	assert.Equal(t, "test-key", gotKey)
	require.Len(t, gotBody.Contents, 1)
	assert.Contains(t, gotBody.Contents[0].Parts[0].Text, "sales by region")
	assert.Equal(t, "application/json", gotBody.GenerationConfig.ResponseMimeType)

	assert.Equal(t, "Sales", cfg.Title)
	require.Len(t, cfg.Components, 2)
	assert.Equal(t, model.ComponentKPI, cfg.Components[0].Type)
	assert.Equal(t, model.ComponentChart, cfg.Components[1].Type)
	assert.Equal(t, model.ChartBar, cfg.Components[1].Chart.Kind)
	assert.Equal(t, "region", cfg.Components[1].Chart.X)
}

func TestGeminiPlanner_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    func(t *testing.T) []byte
		wantErr string
	}{
		{
			name:    "non-ok status",
			status:  http.StatusTooManyRequests,
			body:    func(*testing.T) []byte { return []byte(`{"error":"quota"}`) },
			wantErr: "status code 429",
		},
		{
			name:    "no candidates",
			status:  http.StatusOK,
			body:    func(*testing.T) []byte { return []byte(`{"candidates":[]}`) },
			wantErr: "empty or invalid response",
		},
		{
			name:    "no json in text",
			status:  http.StatusOK,
			body:    func(t *testing.T) []byte { return geminiReply(t, "I cannot help with that.") },
			wantErr: "did not return valid JSON",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write(tt.body(t))
			}))
			defer srv.Close()

			_, err := newTestGeminiPlanner(srv.URL).Plan(context.Background(), PlanRequest{Summary: "x"})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestCleanLLMJsonOutput(t *testing.T) {
	assert.Equal(t, `{"a":1}`, cleanLLMJsonOutput("here you go: {\"a\":1} enjoy"))
	assert.Equal(t, "", cleanLLMJsonOutput("no braces"))
	assert.Equal(t, "", cleanLLMJsonOutput("} backwards {"))
	assert.Equal(t, "", cleanLLMJsonOutput("{not json}"))
}

func TestNewPlanner_FallsBackWithoutAPIKey(t *testing.T) {
	_, ok := NewPlanner(&config.Config{}).(heuristicPlanner)
	assert.True(t, ok)
}

func TestHeuristicPlanner_Plan(t *testing.T) {
	table := &model.Table{
		Columns: []string{"region", "amount", "order_date", "lat", "lon"},
		Types: map[string]string{
			"region": "string", "amount": "float64", "order_date": "string",
			"lat": "float64", "lon": "float64",
		},
		Rows: []model.Row{
			{"region": "North", "amount": 10.0, "order_date": "2024-01-01", "lat": 1.0, "lon": 2.0},
			{"region": "South", "amount": 5.0, "order_date": "2024-01-02", "lat": 1.5, "lon": 2.5},
		},
	}
	cfg, err := NewHeuristicPlanner().Plan(context.Background(), PlanRequest{
		Instruction: "  regional sales  ",
		Columns:     table.Columns,
		ColTypes:    table.Types,
		Table:       table,
	})
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "regional sales", cfg.Title)
	types := map[model.ComponentType]int{}
	for _, c := range cfg.Components {
		types[c.Type]++
	}
	assert.Equal(t, 2, types[model.ComponentKPI])
	assert.Equal(t, 1, types[model.ComponentMap])
	assert.GreaterOrEqual(t, types[model.ComponentChart], 2)

	var kinds []model.ChartType
	for _, c := range cfg.Components {
		if c.Chart != nil {
			kinds = append(kinds, c.Chart.Kind)
		}
	}
	assert.Contains(t, kinds, model.ChartLine)
	assert.Contains(t, kinds, model.ChartPie)
}

func TestHeuristicPlanner_NoColumns(t *testing.T) {
	_, err := NewHeuristicPlanner().Plan(context.Background(), PlanRequest{})
	assert.Error(t, err)
}

package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"dashgen-backend/config"
	"dashgen-backend/internal/model"
)

type GeminiPart struct {
	Text string `json:"text"`
}
type GeminiContent struct {
	Parts []GeminiPart `json:"parts"`
	Role  string       `json:"role,omitempty"`
}
type GeminiGenerationConfig struct {
	ResponseMimeType string  `json:"responseMimeType,omitempty"`
	Temperature      float64 `json:"temperature"`
}
type GeminiRequestBody struct {
	SystemInstruction *GeminiContent         `json:"systemInstruction,omitempty"`
	Contents          []GeminiContent        `json:"contents"`
	GenerationConfig  GeminiGenerationConfig `json:"generationConfig"`
}

type GeminiCandidate struct {
	Content      GeminiContent `json:"content"`
	FinishReason string        `json:"finishReason"`
	Index        int           `json:"index"`
}

type GeminiResponse struct {
	Candidates []GeminiCandidate `json:"candidates"`
}

// PlanRequest is what the planner sees of an uploaded dataset.
type PlanRequest struct {
	Summary     string
	Instruction string
	Columns     []string
	ColTypes    map[string]string
	// Table is the parsed dataset; remote planners only see Summary.
	Table *model.Table
}

// Planner turns a dataset summary and a user instruction into a dashboard
// configuration.
type Planner interface {
	Plan(ctx context.Context, req PlanRequest) (*model.DashboardConfig, error)
}

const plannerSystemPrompt = `You are a data visualization expert working with Apache ECharts and Leaflet.
Analyze the dataset summary and design a dashboard that answers the user's instruction.
Respond ONLY with valid JSON, no markdown and no commentary.
STRUCTURE:
{
  "title": "...",
  "components": [
    {"id": "kpi_total", "type": "kpi", "title": "...", "description": "...", "config": {"value_expr": "count" | "sum:<column>" | "avg:<column>" | "min:<column>" | "max:<column>"}},
    {"id": "chart_1", "type": "chart", "chart_type": "bar" | "line" | "pie", "title": "...", "description": "...", "config": {"x": "<category column>", "y": "<numeric column>" | "count"}},
    {"id": "map_1", "type": "map", "title": "...", "config": {"lat": "<latitude column>", "lon": "<longitude column>"}}
  ]
}
Rules: use only column names that appear in the summary, exactly as written. Ids must be unique.
Produce 1 to 2 KPIs and about 3 charts. Add a map only when latitude and longitude columns exist.`

type geminiPlanner struct {
	apiKey      string
	baseURL     string
	httpClient  *http.Client
	modelID     string
	temperature float64
}

// NewPlanner returns the Gemini planner, or the column heuristic when no API
// key is configured.
func NewPlanner(cfg *config.Config) Planner {
	if cfg.APIKey == "" {
		log.Warn().Msg("API_KEY not set, dashboards are planned from column heuristics")
		return NewHeuristicPlanner()
	}
	return NewGeminiPlanner(cfg)
}

func NewGeminiPlanner(cfg *config.Config) Planner {
	timeout := cfg.Planner.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	modelID := cfg.Planner.Model
	if modelID == "" {
		modelID = "gemini-2.5-flash"
	}
	baseURL := strings.TrimRight(cfg.Planner.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	return &geminiPlanner{
		apiKey:  cfg.APIKey,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		modelID:     modelID,
		temperature: cfg.Planner.Temperature,
	}
}

func (p *geminiPlanner) Plan(ctx context.Context, req PlanRequest) (*model.DashboardConfig, error) {
	log.Info().Str("instruction", req.Instruction).Str("model", p.modelID).Msg("Gemini planner: generating dashboard")

	requestBody := GeminiRequestBody{
		SystemInstruction: &GeminiContent{Parts: []GeminiPart{{Text: plannerSystemPrompt}}},
		Contents: []GeminiContent{{
			Role:  "user",
			Parts: []GeminiPart{{Text: buildPlanPrompt(req)}},
		}},
		GenerationConfig: GeminiGenerationConfig{
			ResponseMimeType: "application/json",
			Temperature:      p.temperature,
		},
	}
	bodyBytes, err := json.Marshal(requestBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	respBodyBytes, err := p.callGeminiAPI(ctx, bodyBytes)
	if err != nil {
		return nil, err
	}

	var geminiResp GeminiResponse
	if err := json.Unmarshal(respBodyBytes, &geminiResp); err != nil {
		log.Error().Err(err).Bytes("response_body", respBodyBytes).Msg("Failed to unmarshal Gemini API response")
		return nil, fmt.Errorf("failed to parse Gemini response: %w", err)
	}
	if len(geminiResp.Candidates) == 0 || len(geminiResp.Candidates[0].Content.Parts) == 0 {
		log.Error().Interface("gemini_response", geminiResp).Msg("Gemini response has no candidates or parts")
		return nil, errors.New("received empty or invalid response structure from Gemini")
	}

	generatedText := geminiResp.Candidates[0].Content.Parts[0].Text
	log.Debug().Str("generated_text", generatedText).Msg("Gemini planner: extracted generated text")

	cleanedJson := cleanLLMJsonOutput(generatedText)
	if cleanedJson == "" {
		log.Error().Str("raw_text", generatedText).Msg("Failed to extract valid JSON from Gemini response text")
		return nil, errors.New("LLM did not return valid JSON in its response")
	}

	var cfg model.DashboardConfig
	if err := json.Unmarshal([]byte(cleanedJson), &cfg); err != nil {
		log.Error().Err(err).Str("cleaned_json", cleanedJson).Msg("Failed to decode dashboard config from Gemini response")
		return nil, fmt.Errorf("failed to parse dashboard config from LLM: %w", err)
	}
	log.Info().Str("title", cfg.Title).Int("components", len(cfg.Components)).Msg("Gemini planner: dashboard planned")
	return &cfg, nil
}

func (p *geminiPlanner) callGeminiAPI(ctx context.Context, bodyBytes []byte) ([]byte, error) {
	url := fmt.Sprintf("%s/models/%s:generateContent", p.baseURL, p.modelID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		log.Error().Err(err).Msg("Gemini HTTP request failed")
		return nil, fmt.Errorf("gemini request failed: %w", err)
	}
	defer resp.Body.Close()

	respBodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		log.Error().Int("status_code", resp.StatusCode).Bytes("response_body", respBodyBytes).Msg("Gemini API returned non-OK status")
		return nil, fmt.Errorf("gemini API error: status code %d", resp.StatusCode)
	}
	return respBodyBytes, nil
}

func buildPlanPrompt(req PlanRequest) string {
	return fmt.Sprintf("DATASET:\n%s\nUSER:\n%s", req.Summary, req.Instruction)
}

// cleanLLMJsonOutput cuts the outermost JSON object out of raw, or returns ""
// when there is none.
func cleanLLMJsonOutput(raw string) string {
	startIndex := strings.Index(raw, "{")
	if startIndex == -1 {
		return ""
	}
	endIndex := strings.LastIndex(raw, "}")
	if endIndex == -1 || endIndex < startIndex {
		return ""
	}

	potentialJson := raw[startIndex : endIndex+1]
	var js map[string]interface{}
	if json.Unmarshal([]byte(potentialJson), &js) == nil {
		return potentialJson
	}

	log.Warn().Str("potential_json", potentialJson).Msg("Could not validate potential JSON extracted from LLM response")
	return ""
}

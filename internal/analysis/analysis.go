// Package analysis is the optional deep-analysis collaborator: a
// model-backed second pass over a single message, used only on the
// detail view and never on the bulk listing path. Failures degrade to
// a stub result, never to a failed request.
package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/AshwiniGoutam/pitchub-sub000/internal/credential"
	"github.com/AshwiniGoutam/pitchub-sub000/internal/model"
)

const (
	apiURL     = "https://api.anthropic.com/v1/messages"
	apiVersion = "2023-06-01"

	defaultModel     = "claude-sonnet-4-20250514"
	defaultMaxTokens = 1024

	// maxBodyChars bounds how much message content is sent for
	// analysis.
	maxBodyChars = 8000
)

// Result is the deep-analysis annotation for one message.
type Result struct {
	Summary   string `json:"summary"`
	Sector    string `json:"sector"`
	Available bool   `json:"available"`
}

// StubResult is returned whenever analysis is unavailable or fails.
func StubResult() Result {
	return Result{Summary: "", Sector: "", Available: false}
}

// Analyzer calls the Anthropic Messages API to summarize and classify
// a single message.
type Analyzer struct {
	apiKey    string
	model     string
	maxTokens int
	client    *http.Client
	logger    *zap.Logger
}

// New creates an Analyzer from configuration. The API key comes from
// the credential store; without one the analyzer still constructs and
// every call returns the stub.
func New(cfg model.AnalysisConfig, logger *zap.Logger) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	modelName := cfg.Model
	if modelName == "" {
		modelName = defaultModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	apiKey, err := credential.Get(credential.KeyAnalysisAPIKey)
	if err != nil {
		logger.Debug("no analysis api key available, deep analysis disabled")
		apiKey = ""
	}

	return &Analyzer{
		apiKey:    apiKey,
		model:     modelName,
		maxTokens: maxTokens,
		client:    &http.Client{Timeout: 20 * time.Second},
		logger:    logger,
	}
}

// Analyze returns a summary and sector suggestion for the message.
// Any failure returns the stub result with a logged warning; the
// heuristic classifier's sector already on the message keeps
// precedence unless the caller explicitly prefers this result.
func (a *Analyzer) Analyze(ctx context.Context, msg *model.Message) Result {
	if a.apiKey == "" {
		return StubResult()
	}

	result, err := a.callAPI(ctx, msg)
	if err != nil {
		a.logger.Warn("deep analysis failed, returning stub",
			zap.String("external_id", msg.ExternalID),
			zap.Error(err))
		return StubResult()
	}
	return result
}

type apiRequest struct {
	Model     string       `json:"model"`
	MaxTokens int          `json:"max_tokens"`
	System    string       `json:"system"`
	Messages  []apiMessage `json:"messages"`
}

type apiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type apiResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

type apiErrorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// callAPI makes a single request to the Claude Messages API.
func (a *Analyzer) callAPI(ctx context.Context, msg *model.Message) (Result, error) {
	body := msg.Content
	if len(body) > maxBodyChars {
		body = body[:maxBodyChars]
	}

	prompt := fmt.Sprintf(
		"From: %s <%s>\nSubject: %s\n\n%s",
		msg.From, msg.FromEmail, msg.Subject, body,
	)

	reqBody := apiRequest{
		Model:     a.model,
		MaxTokens: a.maxTokens,
		System: "You analyze startup pitch emails for a venture investor. " +
			"Respond with a JSON object containing exactly two keys: " +
			`"summary" (two sentences) and "sector" (a single industry label).`,
		Messages: []apiMessage{{Role: "user", Content: prompt}},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return Result{}, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, apiURL, bytes.NewReader(bodyBytes),
	)
	if err != nil {
		return Result{}, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", a.apiKey)
	req.Header.Set("anthropic-version", apiVersion)

	resp, err := a.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("calling analysis API: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr apiErrorResponse
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error.Message != "" {
			return Result{}, fmt.Errorf("API error (%d): %s", resp.StatusCode, apiErr.Error.Message)
		}
		return Result{}, fmt.Errorf("API error (%d): %s", resp.StatusCode, string(respBody))
	}

	var parsed apiResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return Result{}, fmt.Errorf("decoding response: %w", err)
	}

	var text strings.Builder
	for _, block := range parsed.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	var result Result
	if err := json.Unmarshal([]byte(extractJSON(text.String())), &result); err != nil {
		return Result{}, fmt.Errorf("parsing analysis output: %w", err)
	}
	result.Available = true
	return result, nil
}

// extractJSON pulls the first JSON object out of model output that may
// wrap it in prose or code fences.
func extractJSON(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return s
	}
	return s[start : end+1]
}

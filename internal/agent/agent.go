package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// DefaultModel is the Gemini model used for translation suggestions.
const DefaultModel = "gemini-2.5-flash-preview-09-2025"

// ErrEmptySuggestion is returned when the model answers without a usable value.
var ErrEmptySuggestion = errors.New("agent returned an empty suggestion")

// generateFunc sends one system+user prompt pair and returns the raw text answer.
type generateFunc func(ctx context.Context, system, prompt string) (string, error)

// Agent wraps the Gemini client and model used by the translations editor.
type Agent struct {
	client   *genai.Client
	generate generateFunc
}

// SuggestionRequest describes the string an admin wants translated.
type SuggestionRequest struct {
	Key          string `json:"key" binding:"required"`
	SourceLocale string `json:"sourceLocale"`
	SourceText   string `json:"sourceText"`
	TargetLocale string `json:"targetLocale" binding:"required"`
	// Context is free text shown to the model, e.g. the step the label appears on.
	Context string `json:"context,omitempty"`
}

// Suggestion is the structured JSON we expect from the LLM.
type Suggestion struct {
	Key          string   `json:"key"`
	Locale       string   `json:"locale"`
	Value        string   `json:"value"`
	Alternatives []string `json:"alternatives,omitempty"`
}

// NewAgent initializes the Gemini client. If the API key is empty,
// the caller receives a nil Agent and no error so that commands can
// decide how to handle missing configuration.
func NewAgent(ctx context.Context, apiKey string) (*Agent, error) {
	if apiKey == "" {
		return nil, nil
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	model := client.GenerativeModel(DefaultModel)
	model.SetTemperature(0.2)
	model.ResponseMIMEType = "application/json"

	return &Agent{
		client:   client,
		generate: modelGenerator(model),
	}, nil
}

func modelGenerator(model *genai.GenerativeModel) generateFunc {
	return func(ctx context.Context, system, prompt string) (string, error) {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}

		resp, err := model.GenerateContent(ctx, genai.Text(prompt))
		if err != nil {
			return "", fmt.Errorf("failed to generate content: %w", err)
		}
		if len(resp.Candidates) == 0 || resp.Candidates[0] == nil ||
			resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
			return "", fmt.Errorf("no response from agent")
		}

		part := resp.Candidates[0].Content.Parts[0]
		textPart, ok := part.(genai.Text)
		if !ok {
			return "", fmt.Errorf("unexpected response type from agent: %T", part)
		}
		return string(textPart), nil
	}
}

// Close releases underlying resources.
func (a *Agent) Close() {
	if a == nil || a.client == nil {
		return
	}
	if err := a.client.Close(); err != nil {
		log.Printf("⚠️ Failed to close Gemini client: %v", err)
	}
}

const translatorPrompt = `You translate user interface strings for a merchant onboarding wizard
used by a Slovak payment terminal provider (terminals, payment gateways, SoftPOS).

RULES:
1.  Keep placeholders such as {name}, %s or {{count}} exactly as they are.
2.  Keep the register formal and concise; labels stay short, sentences stay sentences.
3.  Do not translate company names, legal form abbreviations (s.r.o., a.s.) or IBAN/ICO/DIC.
4.  Respond ONLY with a single, minified JSON object. Do not include markdown ticks or any other text.
5.  The JSON format MUST be: {"value": "best translation", "alternatives": ["alt1", "alt2"]}
`

// SuggestTranslation asks the model for a translation of one catalog entry.
func (a *Agent) SuggestTranslation(ctx context.Context, req SuggestionRequest) (*Suggestion, error) {
	if a == nil || a.generate == nil {
		return nil, fmt.Errorf("ai agent is not initialized")
	}
	if strings.TrimSpace(req.SourceText) == "" || strings.TrimSpace(req.TargetLocale) == "" {
		return nil, fmt.Errorf("source text and target locale are required")
	}

	raw, err := a.generate(ctx, translatorPrompt, userPrompt(req))
	if err != nil {
		return nil, err
	}
	log.Printf("🤖 Translation agent raw response for %s: %s", req.Key, raw)

	var parsed struct {
		Value        string   `json:"value"`
		Alternatives []string `json:"alternatives"`
	}
	cleaned := cleanJSONResponse(raw)
	if uErr := json.Unmarshal([]byte(cleaned), &parsed); uErr != nil {
		return nil, fmt.Errorf("failed to parse agent's JSON response: %w (response was: %s)", uErr, raw)
	}
	parsed.Value = strings.TrimSpace(parsed.Value)
	if parsed.Value == "" {
		return nil, ErrEmptySuggestion
	}

	return &Suggestion{
		Key:          req.Key,
		Locale:       req.TargetLocale,
		Value:        parsed.Value,
		Alternatives: dedupe(parsed.Alternatives, parsed.Value),
	}, nil
}

func userPrompt(req SuggestionRequest) string {
	source := req.SourceLocale
	if source == "" {
		source = "sk"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Key: %q\n", req.Key)
	fmt.Fprintf(&b, "Source locale: %s\n", source)
	fmt.Fprintf(&b, "Target locale: %s\n", req.TargetLocale)
	if req.Context != "" {
		fmt.Fprintf(&b, "Context: %q\n", req.Context)
	}
	fmt.Fprintf(&b, "Text: %q", req.SourceText)
	return b.String()
}

func dedupe(values []string, exclude string) []string {
	seen := map[string]bool{exclude: true}
	var out []string
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

// cleanJSONResponse removes markdown code block wrappers around a JSON answer.
func cleanJSONResponse(response string) string {
	cleaned := strings.TrimSpace(response)

	if strings.HasPrefix(cleaned, "```json") {
		if firstNewline := strings.Index(cleaned, "\n"); firstNewline != -1 {
			cleaned = cleaned[firstNewline+1:]
		}
	}
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	if json.Valid([]byte(cleaned)) {
		return cleaned
	}

	// Fall back to the outermost object.
	firstBrace := strings.Index(cleaned, "{")
	lastBrace := strings.LastIndex(cleaned, "}")
	if firstBrace != -1 && lastBrace > firstBrace {
		extracted := cleaned[firstBrace : lastBrace+1]
		if json.Valid([]byte(extracted)) {
			return extracted
		}
	}

	return response
}

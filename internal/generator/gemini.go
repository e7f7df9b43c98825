package generator

import (
	"context"
	stdErrors "errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"git.home.luguber.info/inful/autopipe/internal/config"
	"git.home.luguber.info/inful/autopipe/internal/foundation/errors"
)

const geminiTemperature float32 = 0.2

// GeminiOptions configures the Gemini provider.
type GeminiOptions struct {
	APIKey   string
	Model    string
	Endpoint string
	// HTTPClient carries the request timeout; nil uses a fresh client.
	HTTPClient *http.Client
}

// Gemini calls the Gemini API once per Generate through the genai SDK.
type Gemini struct {
	apiKey     string
	model      string
	endpoint   string
	httpClient *http.Client
}

func NewGemini(opts GeminiOptions) *Gemini {
	g := &Gemini{
		apiKey:     strings.TrimSpace(opts.APIKey),
		model:      opts.Model,
		endpoint:   strings.TrimRight(opts.Endpoint, "/"),
		httpClient: opts.HTTPClient,
	}
	if g.model == "" {
		g.model = config.DefaultGeminiModel
	}
	if g.endpoint == "" {
		g.endpoint = config.DefaultGeminiEndpoint
	}
	if g.httpClient == nil {
		g.httpClient = &http.Client{}
	}
	return g
}

// client pins the backend and base URL so GOOGLE_GENAI_USE_VERTEXAI and
// GOOGLE_GEMINI_BASE_URL in the environment cannot redirect the call.
func (g *Gemini) client(ctx context.Context) (*genai.Client, error) {
	return genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     g.apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: g.httpClient,
		HTTPOptions: genai.HTTPOptions{
			BaseURL: g.endpoint + "/",
		},
	})
}

// Generate sends the prompt and returns the text of the first candidate.
func (g *Gemini) Generate(ctx context.Context, req DefinitionRequest) (string, error) {
	if g.apiKey == "" {
		return "", errors.GenerationError("GEMINI_API_KEY not configured").Build()
	}
	prompt, err := buildPrompt(req)
	if err != nil {
		return "", errors.WrapError(err, errors.CategoryGeneration, "failed to build prompt").Build()
	}

	client, err := g.client(ctx)
	if err != nil {
		return "", errors.WrapError(err, errors.CategoryGeneration, "failed to create generation client").
			WithContext("model", g.model).
			Build()
	}

	resp, err := client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature: genai.Ptr(geminiTemperature),
	})
	if err != nil {
		return "", g.requestError(err)
	}

	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return "", errors.GenerationError("prompt blocked by generation service").
			WithContext("reason", string(resp.PromptFeedback.BlockReason)).
			Build()
	}
	if len(resp.Candidates) == 0 {
		return "", errors.GenerationError("generation service returned no candidates").Build()
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", errors.GenerationError("generation service returned empty text").
			WithContext("finish_reason", string(resp.Candidates[0].FinishReason)).
			Build()
	}
	return text, nil
}

// requestError folds SDK failures into the generation category, keeping the
// service's status and message when it answered.
func (g *Gemini) requestError(err error) error {
	var apiErr genai.APIError
	if stdErrors.As(err, &apiErr) {
		msg := apiErr.Message
		if msg == "" {
			msg = apiErr.Status
		}
		return errors.GenerationError(fmt.Sprintf("generation service responded %d: %s", apiErr.Code, msg)).
			WithCause(err).
			WithContext("code", apiErr.Code).
			WithContext("model", g.model).
			Build()
	}
	return errors.WrapError(err, errors.CategoryGeneration, "generation request failed").
		WithContext("model", g.model).
		Build()
}

package disambiguate

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"google.golang.org/genai"
)

// DefaultGeminiModel is used when no Gemini model is configured.
const DefaultGeminiModel = "gemini-2.5-flash"

// contentGenerator is the subset of *genai.Models used here.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiResolver asks a Gemini model for a JSON array of answers.
type GeminiResolver struct {
	models contentGenerator
	model  string
}

// NewGeminiResolver builds a Gemini API client. baseURL is optional.
func NewGeminiResolver(ctx context.Context, apiKey, model, baseURL string) (*GeminiResolver, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, eris.New("disambiguate: gemini api key is required")
	}
	cc := &genai.ClientConfig{
		APIKey:  strings.TrimSpace(apiKey),
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cc.HTTPOptions.BaseURL = baseURL
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, eris.Wrap(err, "disambiguate: gemini client")
	}
	return newGeminiResolver(client.Models, model), nil
}

func newGeminiResolver(m contentGenerator, model string) *GeminiResolver {
	if model == "" {
		model = DefaultGeminiModel
	}
	return &GeminiResolver{models: m, model: model}
}

var answersSchema = &genai.Schema{
	Type:  genai.TypeArray,
	Items: &genai.Schema{Type: genai.TypeString},
}

func (r *GeminiResolver) Name() string { return "gemini" }

// Resolve sends one GenerateContent call for the whole batch.
func (r *GeminiResolver) Resolve(ctx context.Context, reqs []Request) ([]string, error) {
	resp, err := r.models.GenerateContent(ctx, r.model,
		genai.Text(userPrompt(reqs)),
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
			CandidateCount:    1,
			ResponseMIMEType:  "application/json",
			ResponseSchema:    answersSchema,
		},
	)
	if err != nil {
		return nil, eris.Wrap(err, "disambiguate: gemini call")
	}
	return ParseAnswers(resp.Text())
}

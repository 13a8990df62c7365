package ai

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	genai "google.golang.org/genai"

	"github.com/thywilljoshua/pdf-chapters/internal/document"
)

const (
	DefaultModel       = "gemini-2.5-flash"
	DefaultLanguage    = "Korean"
	DefaultTemperature = float32(0.2)
)

// contentGenerator is the part of *genai.Models the analyzer needs.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Options configures a Gemini analyzer. Empty or nil fields fall back to
// defaults; a temperature of 0 is kept.
type Options struct {
	Model       string
	Language    string
	Temperature *float32
	BaseURL     string
	Logger      *zap.Logger
}

// Gemini analyzes PDFs with the Gemini API. A client is built per call from
// the credential handed in, so the key is never held by the analyzer.
type Gemini struct {
	model       string
	language    string
	temperature float32
	baseURL     string
	log         *zap.Logger

	connect func(ctx context.Context, apiKey string) (contentGenerator, error)
}

func NewGemini(opts Options) *Gemini {
	g := &Gemini{
		model:       opts.Model,
		language:    opts.Language,
		temperature: DefaultTemperature,
		baseURL:     opts.BaseURL,
		log:         opts.Logger,
	}
	if g.model == "" {
		g.model = DefaultModel
	}
	if g.language == "" {
		g.language = DefaultLanguage
	}
	if opts.Temperature != nil {
		g.temperature = *opts.Temperature
	}
	if g.log == nil {
		g.log = zap.NewNop()
	}
	g.log = g.log.Named("gemini")
	g.connect = g.newModels
	return g
}

func (g *Gemini) newModels(ctx context.Context, apiKey string) (contentGenerator, error) {
	cfg := &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI}
	if g.baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: g.baseURL}
	}
	c, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return c.Models, nil
}

// Analyze sends the document inline with the fixed instruction and response
// schema and returns the validated result. It never returns a partial result.
func (g *Gemini) Analyze(ctx context.Context, base64Document, credential string) (AnalysisResult, error) {
	var out AnalysisResult
	if strings.TrimSpace(credential) == "" {
		return out, ErrMissingCredential
	}
	data, err := document.Decode(base64Document)
	if err != nil {
		return out, err
	}

	models, err := g.connect(ctx, credential)
	if err != nil {
		return out, &RemoteError{Err: err}
	}

	content := []*genai.Content{
		{
			Role: genai.RoleUser,
			Parts: []*genai.Part{
				{InlineData: &genai.Blob{MIMEType: document.MIMETypePDF, Data: data}},
				{Text: instruction(g.language)},
			},
		},
	}
	g.log.Debug("sending document", zap.String("model", g.model), zap.Int("bytes", len(data)))
	res, err := models.GenerateContent(ctx, g.model, content, g.generationConfig())
	if err != nil {
		return out, &RemoteError{Err: err}
	}
	if res == nil {
		return out, ErrEmptyResponse
	}
	js := res.Text()
	if strings.TrimSpace(js) == "" {
		return out, ErrEmptyResponse
	}
	g.log.Debug("model responded", zap.Int("bytes", len(js)))

	out, err = parseResult(js)
	if err != nil {
		return AnalysisResult{}, err
	}
	return out, nil
}

func (g *Gemini) generationConfig() *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   analysisSchema(),
		Temperature:      genai.Ptr(g.temperature),
	}
}

func instruction(language string) string {
	return fmt.Sprintf("Analyze this PDF document. Write the overall title and an overall summary, "+
		"then split the document by chapter (or major section) and extract for each one its chapter number, "+
		"title, a summary and 3 to 5 key points. Write everything in %s.", language)
}

func analysisSchema() *genai.Schema {
	chapter := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"chapterNumber": {
				Type:        genai.TypeString,
				Description: "The chapter number or section identifier (e.g., 'Chapter 1', 'Section A').",
			},
			"title": {
				Type:        genai.TypeString,
				Description: "The title of the chapter.",
			},
			"summary": {
				Type:        genai.TypeString,
				Description: "A concise summary of the chapter's content.",
			},
			"keyPoints": {
				Type:        genai.TypeArray,
				Description: "3-5 bullet points extracting the most important information.",
				Items:       &genai.Schema{Type: genai.TypeString},
			},
		},
		Required:         []string{"chapterNumber", "title", "summary", "keyPoints"},
		PropertyOrdering: []string{"chapterNumber", "title", "summary", "keyPoints"},
	}
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"title": {
				Type:        genai.TypeString,
				Description: "The main title of the document.",
			},
			"overallSummary": {
				Type:        genai.TypeString,
				Description: "A brief executive summary of the entire document.",
			},
			"chapters": {
				Type:        genai.TypeArray,
				Description: "A list of chapters or major sections found in the document.",
				Items:       chapter,
			},
		},
		Required:         []string{"title", "overallSummary", "chapters"},
		PropertyOrdering: []string{"title", "overallSummary", "chapters"},
	}
}

package llmclient

import (
	"context"
	"errors"
	"fmt"
	"strings"

	genai "google.golang.org/genai"

	"promptlab/internal/llm"
)

const (
	DefaultTextModel  = "gemini-2.0-flash"
	DefaultImageModel = "gemini-3-pro-image-preview"
)

// GeminiClient is a thin wrapper around the official genai client.
// It only focuses on the API call itself. Retries and logging are
// applied via llm.Middleware.
type GeminiClient struct {
	cli        *genai.Client
	textModel  string
	imageModel string
}

type GeminiOptions struct {
	APIKey     string
	TextModel  string
	ImageModel string
}

func NewGeminiClient(ctx context.Context, opts GeminiOptions) (*GeminiClient, error) {
	key := strings.TrimSpace(opts.APIKey)
	if key == "" {
		return nil, errors.New("gemini api key is required")
	}
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: key, Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, fmt.Errorf("init genai client: %w", err)
	}
	g := &GeminiClient{cli: cli, textModel: opts.TextModel, imageModel: opts.ImageModel}
	if g.textModel == "" {
		g.textModel = DefaultTextModel
	}
	if g.imageModel == "" {
		g.imageModel = DefaultImageModel
	}
	return g, nil
}

func (g *GeminiClient) Name() string { return "Gemini:" + g.imageModel }

func (g *GeminiClient) Translate(ctx context.Context, instructions, text string) (string, error) {
	return g.text(ctx, llm.Instructed(instructions, text), nil)
}

// Decompose asks for JSON; the response is still parsed defensively upstream.
func (g *GeminiClient) Decompose(ctx context.Context, instructions, raw string) (string, error) {
	return g.text(ctx, llm.Instructed(instructions, raw), &genai.GenerateContentConfig{ResponseMIMEType: "application/json"})
}

func (g *GeminiClient) text(ctx context.Context, full string, cfg *genai.GenerateContentConfig) (string, error) {
	resp, err := g.cli.Models.GenerateContent(ctx, g.textModel,
		[]*genai.Content{{Role: "user", Parts: []*genai.Part{{Text: full}}}},
		cfg,
	)
	if err != nil {
		return "", classify(err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", classify(ErrEmptyResponse)
	}
	return strings.TrimSpace(resp.Candidates[0].Content.Parts[0].Text), nil
}

// GenerateImage sends the prompt first and then each reference image in
// the order given.
func (g *GeminiClient) GenerateImage(ctx context.Context, req llm.GenerateRequest) (llm.Image, error) {
	parts := make([]*genai.Part, 0, len(req.Images)+1)
	parts = append(parts, &genai.Part{Text: req.Prompt})
	for _, img := range req.Images {
		parts = append(parts, &genai.Part{InlineData: &genai.Blob{MIMEType: img.MIMEType, Data: img.Data}})
	}
	cfg := &genai.GenerateContentConfig{
		ResponseModalities: []string{"TEXT", "IMAGE"},
		ImageConfig: &genai.ImageConfig{
			AspectRatio: req.AspectRatio,
			ImageSize:   req.ImageSize,
		},
	}
	resp, err := g.cli.Models.GenerateContent(ctx, g.imageModel, []*genai.Content{{Role: "user", Parts: parts}}, cfg)
	if err != nil {
		return llm.Image{}, classify(err)
	}
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, p := range cand.Content.Parts {
			if p != nil && p.InlineData != nil && len(p.InlineData.Data) > 0 {
				mime := p.InlineData.MIMEType
				if mime == "" {
					mime = "image/png"
				}
				return llm.Image{MIMEType: mime, Data: p.InlineData.Data}, nil
			}
		}
	}
	return llm.Image{}, classify(ErrNoImage)
}

// classify attaches the HTTP status carried by genai errors.
func classify(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return llm.ClassifyStatus(apiErr.Code, err)
	}
	if errors.Is(err, ErrEmptyResponse) || errors.Is(err, ErrNoImage) {
		return llm.ClassifyStatus(502, err)
	}
	return llm.Classify(err)
}

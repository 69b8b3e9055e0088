// Package gemini adapts the Gemini API to ports.LanguageModel.
package gemini

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/samirrijal/orbital/internal/core/domain"
	"github.com/samirrijal/orbital/internal/core/ports"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-2.0-flash"

// Satellite imagery of disaster areas trips the default filters.
var safetySettings = []*genai.SafetySetting{
	{Category: genai.HarmCategoryHarassment, Threshold: genai.HarmBlockThresholdBlockNone},
	{Category: genai.HarmCategoryHateSpeech, Threshold: genai.HarmBlockThresholdBlockNone},
	{Category: genai.HarmCategorySexuallyExplicit, Threshold: genai.HarmBlockThresholdBlockNone},
	{Category: genai.HarmCategoryDangerousContent, Threshold: genai.HarmBlockThresholdBlockNone},
}

// Client implements ports.LanguageModel.
type Client struct {
	client *genai.Client
	model  string
}

// Options configures the client. BaseURL is only set in tests.
type Options struct {
	APIKey  string
	Model   string
	BaseURL string
}

// New creates a Gemini API client.
func New(ctx context.Context, opts Options) (*Client, error) {
	cfg := &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if opts.BaseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: opts.BaseURL}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}

	model := opts.Model
	if model == "" {
		model = DefaultModel
	}
	return &Client{client: client, model: model}, nil
}

// GenerateText returns the text of a single-turn answer.
func (c *Client) GenerateText(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	return resp.Text(), nil
}

// CallTool offers tool as the only callable function.
func (c *Client) CallTool(ctx context.Context, prompt string, tool ports.Tool) ([]ports.ToolCall, error) {
	cfg := &genai.GenerateContentConfig{
		Tools: []*genai.Tool{{FunctionDeclarations: []*genai.FunctionDeclaration{declaration(tool)}}},
		ToolConfig: &genai.ToolConfig{
			FunctionCallingConfig: &genai.FunctionCallingConfig{
				Mode:                 genai.FunctionCallingConfigModeAny,
				AllowedFunctionNames: []string{tool.Name},
			},
		},
	}
	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini tool call: %w", err)
	}

	var calls []ports.ToolCall
	for _, fc := range resp.FunctionCalls() {
		calls = append(calls, ports.ToolCall{Name: fc.Name, Args: fc.Args})
	}
	return calls, nil
}

// GenerateWithImages sends prompt followed by every image as inline data.
func (c *Client) GenerateWithImages(ctx context.Context, prompt string, images []domain.ImageAsset) (string, error) {
	parts := make([]*genai.Part, 0, len(images)+1)
	parts = append(parts, genai.NewPartFromText(prompt))
	for _, img := range images {
		parts = append(parts, genai.NewPartFromBytes(img.Data, img.MimeType))
	}

	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, &genai.GenerateContentConfig{
		SafetySettings: safetySettings,
	})
	if err != nil {
		return "", fmt.Errorf("gemini synthesis: %w", err)
	}
	return resp.Text(), nil
}

func declaration(tool ports.Tool) *genai.FunctionDeclaration {
	props := make(map[string]*genai.Schema, len(tool.Params))
	var required []string
	for _, p := range tool.Params {
		props[p.Name] = &genai.Schema{Type: genai.TypeString, Description: p.Description}
		if p.Required {
			required = append(required, p.Name)
		}
	}
	return &genai.FunctionDeclaration{
		Name:        tool.Name,
		Description: tool.Description,
		Parameters: &genai.Schema{
			Type:       genai.TypeObject,
			Properties: props,
			Required:   required,
		},
	}
}

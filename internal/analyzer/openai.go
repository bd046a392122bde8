package analyzer

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"

	"github.com/sashabaranov/go-openai"

	"github.com/meltforce/fitvision/internal/nutrition"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gpt-4o-mini"

const systemPrompt = `You are a nutrition assistant. Identify the foods in the photo and estimate their calories.
Reply with a single JSON object:
{"mealName": string, "totalCalories": number, "items": [{"name": string, "calories": number}],
 "macros": {"protein": number, "carbs": number, "fat": number}}
Use whole numbers. Omit "macros" if you cannot estimate them.`

// OpenAI analyzes meal photos with a vision-capable chat model.
type OpenAI struct {
	client *openai.Client
	model  string
	logger *slog.Logger
}

// NewOpenAI creates an analyzer for apiKey. An empty baseURL uses the
// public OpenAI endpoint.
func NewOpenAI(apiKey, model, baseURL string, logger *slog.Logger) *OpenAI {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = DefaultModel
	}
	return &OpenAI{client: openai.NewClientWithConfig(cfg), model: model, logger: logger}
}

func (o *OpenAI) Analyze(ctx context.Context, image []byte, mimeType string) (*nutrition.Analysis, error) {
	if len(image) == 0 {
		return nil, fmt.Errorf("%w: empty image", ErrUnavailable)
	}
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	dataURL := "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(image)

	req := openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: "Analyze this meal."},
					{
						Type:     openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{URL: dataURL, Detail: openai.ImageURLDetailLow},
					},
				},
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
	}

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		o.logger.Error("meal analysis request failed", "model", o.model, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices returned", ErrUnavailable)
	}
	o.logger.Debug("meal analysis complete", "model", o.model, "finish_reason", resp.Choices[0].FinishReason)
	return decodeResult(resp.Choices[0].Message.Content)
}

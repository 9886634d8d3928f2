// Package vision turns a photo of a hand-written workout log into a
// domain.WorkoutDraft using an OpenAI-compatible chat completion model.
package vision

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
	log "github.com/sirupsen/logrus"

	"peakpt/workout-app/internal/config"
	"peakpt/workout-app/internal/domain"
)

var ErrEmptyResponse = errors.New("vision model returned no content")

// Extractor reads workout data out of an image.
type Extractor interface {
	ExtractWorkout(ctx context.Context, date string, image []byte, contentType string) (*domain.WorkoutDraft, error)
}

type openAIExtractor struct {
	client    *openai.Client
	model     string
	maxTokens int
}

// NewOpenAIExtractor builds an Extractor talking to the configured endpoint.
// An empty BaseURL means the public OpenAI API.
func NewOpenAIExtractor(cfg config.VisionConfig) Extractor {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1000
	}
	return &openAIExtractor{
		client:    openai.NewClientWithConfig(clientCfg),
		model:     model,
		maxTokens: maxTokens,
	}
}

func (e *openAIExtractor) ExtractWorkout(ctx context.Context, date string, image []byte, contentType string) (*domain.WorkoutDraft, error) {
	if contentType == "" {
		contentType = "image/jpeg"
	}
	dataURL := "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(image)

	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     e.model,
		MaxTokens: e.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: buildPrompt(date)},
					{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{URL: dataURL}},
				},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return nil, ErrEmptyResponse
	}

	content := resp.Choices[0].Message.Content
	log.WithFields(log.Fields{
		"date":          date,
		"finishReason":  resp.Choices[0].FinishReason,
		"contentLength": len(content),
	}).Debug("vision response received")

	draft, err := ParseDraft(content)
	if err != nil {
		return nil, err
	}
	// the photo is filed under the requested day whatever the model read
	draft.Date = date
	if strings.TrimSpace(draft.Name) == "" {
		draft.Name = domain.ImportedWorkoutName
	}
	return draft, nil
}

// ParseDraft decodes the model output, tolerating a surrounding markdown code fence.
func ParseDraft(content string) (*domain.WorkoutDraft, error) {
	cleaned := stripCodeFence(content)
	var draft domain.WorkoutDraft
	if err := json.Unmarshal([]byte(cleaned), &draft); err != nil {
		preview := cleaned
		if len(preview) > 100 {
			preview = preview[:100]
		}
		return nil, fmt.Errorf("decode vision response %q: %w", preview, err)
	}
	return &draft, nil
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	// drop the opening fence line, e.g. ```json
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	} else {
		s = strings.TrimPrefix(s, "```")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

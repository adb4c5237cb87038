package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"docshelf/internal/config"

	"github.com/cloudwego/eino-ext/components/model/claude"
	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"
)

const (
	// Input limits in runes. Longer inputs are cut before the model call.
	maxSummaryInput   = 8000
	maxTranslateInput = 12000
)

// Client generates document summaries and translations through a chat model.
type Client struct {
	chat model.BaseChatModel
}

// NewClient builds the chat model for the configured provider.
func NewClient(ctx context.Context, cfg config.AIConfig) (*Client, error) {
	var (
		chat model.BaseChatModel
		err  error
	)
	switch cfg.Provider {
	case "openai":
		chat, err = openai.NewChatModel(ctx, &openai.ChatModelConfig{
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			APIKey:  cfg.APIKey,
		})
	case "gemini":
		var client *genai.Client
		client, err = genai.NewClient(ctx, &genai.ClientConfig{
			APIKey: cfg.APIKey,
		})
		if err != nil {
			return nil, fmt.Errorf("create gemini client: %w", err)
		}
		chat, err = gemini.NewChatModel(ctx, &gemini.Config{
			Client: client,
			Model:  cfg.Model,
		})
	case "claude":
		var baseURL *string
		if cfg.BaseURL != "" {
			baseURL = &cfg.BaseURL
		}
		chat, err = claude.NewChatModel(ctx, &claude.Config{
			APIKey:    cfg.APIKey,
			Model:     cfg.Model,
			BaseURL:   baseURL,
			MaxTokens: 4096,
		})
	default:
		return nil, fmt.Errorf("invalid provider: %s", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("init %s chat model: %w", cfg.Provider, err)
	}
	return &Client{chat: chat}, nil
}

// Summarize asks the model for a short summary of the document text.
func (c *Client) Summarize(ctx context.Context, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", errors.New("no text to summarize")
	}
	text = truncateRunes(text, maxSummaryInput)

	messages := []*schema.Message{
		schema.SystemMessage(summarySystem),
		schema.UserMessage(text),
	}
	resp, err := c.chat.Generate(ctx, messages, model.WithMaxTokens(512))
	if err != nil {
		return "", fmt.Errorf("generate summary: %w", err)
	}
	summary := strings.TrimSpace(resp.Content)
	if summary == "" {
		return "", errors.New("model returned an empty summary")
	}
	return summary, nil
}

// Translate renders the text into every target language in one model call.
// The model must answer with a single JSON object keyed by language; any
// other shape fails, there is no partial result.
func (c *Client) Translate(ctx context.Context, text string, targetLanguages []string) (map[string]string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.New("no text to translate")
	}
	languages := dedupeLanguages(targetLanguages)
	if len(languages) == 0 {
		return nil, errors.New("no target languages")
	}
	text = truncateRunes(text, maxTranslateInput)

	messages := []*schema.Message{
		schema.SystemMessage(translateSystem),
		schema.UserMessage(translatePrompt(text, languages)),
	}
	resp, err := c.chat.Generate(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("generate translations: %w", err)
	}
	raw := stripFences(resp.Content)
	var translations map[string]string
	if err := json.Unmarshal([]byte(raw), &translations); err != nil {
		return nil, fmt.Errorf("model response is not a JSON object: %w", err)
	}
	for _, lang := range languages {
		if _, ok := translations[lang]; !ok {
			return nil, fmt.Errorf("model response is missing %q", lang)
		}
	}
	return translations, nil
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

func dedupeLanguages(languages []string) []string {
	seen := make(map[string]struct{}, len(languages))
	out := make([]string, 0, len(languages))
	for _, lang := range languages {
		lang = strings.TrimSpace(lang)
		if lang == "" {
			continue
		}
		if _, ok := seen[lang]; ok {
			continue
		}
		seen[lang] = struct{}{}
		out = append(out, lang)
	}
	return out
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

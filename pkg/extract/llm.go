package extract

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-pkgz/lgr"
	"github.com/sashabaranov/go-openai"

	"github.com/fundscope/fundscope/pkg/config"
	"github.com/fundscope/fundscope/pkg/domain"
)

// LLMExtractor is an alternative extraction strategy backed by an
// OpenAI-compatible endpoint. It implements the same Extractor interface as the
// regex strategy, filtering and tagging code does not change when it is enabled.
type LLMExtractor struct {
	client *openai.Client
	cfg    config.LLMConfig
}

const llmSystemPrompt = `You extract structured funding data from news article text.
Respond with a single JSON object, no prose, with these keys:
- title: article title, empty string if unknown
- amount_usd: round size as an integer number of US dollars, 0 if unknown
- round: funding round label (e.g. "Seed", "Series B"), empty string if none
- investors: short clause naming the investors, empty string if none
- pub_date: publish date as YYYY-MM-DD, empty string if unknown
Never invent values, use the empty defaults when the text does not say.`

// maximum article text sent to the model
const llmMaxChars = 6000

// NewLLMExtractor creates an LLM-backed extraction strategy.
func NewLLMExtractor(cfg config.LLMConfig) *LLMExtractor {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.Endpoint != "" {
		clientConfig.BaseURL = cfg.Endpoint
	}
	return &LLMExtractor{client: openai.NewClientWithConfig(clientConfig), cfg: cfg}
}

// Extract sends the article text to the model and parses the structured reply.
// Any failure degrades to empty fields, extraction is never fatal.
func (e *LLMExtractor) Extract(ctx context.Context, html string) domain.ExtractedFields {
	var fields domain.ExtractedFields

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		lgr.Printf("[DEBUG] failed to parse html: %v", err)
		return fields
	}
	fields.Title = strings.TrimSpace(doc.Find("title").First().Text())

	text := visibleText(doc)
	if len(text) > llmMaxChars {
		text = text[:llmMaxChars]
	}

	ctx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	// retry on malformed JSON, the model occasionally wraps it in prose
	for attempt := 0; attempt < 3; attempt++ {
		resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:       e.cfg.Model,
			Temperature: float32(e.cfg.Temperature),
			MaxTokens:   e.cfg.MaxTokens,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: llmSystemPrompt},
				{Role: openai.ChatMessageRoleUser, Content: text},
			},
		})
		if err != nil {
			lgr.Printf("[WARN] llm extraction failed: %v", err)
			return fields
		}
		if len(resp.Choices) == 0 {
			lgr.Printf("[WARN] llm extraction returned no choices")
			return fields
		}

		parsed, err := parseLLMFields(resp.Choices[0].Message.Content)
		if err != nil {
			lgr.Printf("[DEBUG] llm response parse failed (attempt %d): %v", attempt+1, err)
			continue
		}
		if parsed.Title == "" {
			parsed.Title = fields.Title
		}
		return parsed
	}
	return fields
}

// parseLLMFields extracts the JSON object from the model reply, tolerating
// markdown code fences around it.
func parseLLMFields(content string) (domain.ExtractedFields, error) {
	var fields domain.ExtractedFields

	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start == -1 || end == -1 || end < start {
		return fields, errNoJSONObject
	}

	var raw struct {
		Title     string `json:"title"`
		AmountUSD int64  `json:"amount_usd"`
		Round     string `json:"round"`
		Investors string `json:"investors"`
		PubDate   string `json:"pub_date"`
	}
	if err := json.Unmarshal([]byte(content[start:end+1]), &raw); err != nil {
		return fields, err
	}

	fields.Title = strings.TrimSpace(raw.Title)
	if raw.AmountUSD > 0 {
		fields.AmountUSD = raw.AmountUSD
	}
	fields.Round = strings.TrimSpace(raw.Round)
	fields.Investors = strings.TrimSpace(raw.Investors)
	fields.PubDate = strings.TrimSpace(raw.PubDate)
	return fields, nil
}

var errNoJSONObject = errors.New("no json object found in llm response")

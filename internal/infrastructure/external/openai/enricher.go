package openai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/djishijima/hellbuild-v3/internal/application/port"
	"github.com/djishijima/hellbuild-v3/internal/domain/entity"
)

// maxDocumentText bounds the document text sent to the model
const maxDocumentText = 12000

// ChatCompleter is the subset of the OpenAI client the enricher uses
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Config configures the OpenAI enricher
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// Enricher implements port.Enricher using OpenAI chat completions
type Enricher struct {
	client    ChatCompleter
	model     string
	prompts   *PromptConfig
	extractor port.TextExtractor
	logger    *zap.Logger
}

// NewEnricher creates a new OpenAI enricher. extractor may be nil, in which
// case PDF uploads are described to the model by file name only.
func NewEnricher(cfg Config, prompts *PromptConfig, extractor port.TextExtractor, logger *zap.Logger) *Enricher {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	if cfg.Timeout > 0 {
		clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}

	return NewEnricherWithClient(openai.NewClientWithConfig(clientCfg), cfg.Model, prompts, extractor, logger)
}

// NewEnricherWithClient creates an enricher around an existing chat client
func NewEnricherWithClient(client ChatCompleter, model string, prompts *PromptConfig, extractor port.TextExtractor, logger *zap.Logger) *Enricher {
	if model == "" {
		model = openai.GPT4oMini
	}
	return &Enricher{
		client:    client,
		model:     model,
		prompts:   prompts,
		extractor: extractor,
		logger:    logger,
	}
}

// Summarize condenses approval comments
func (e *Enricher) Summarize(ctx context.Context, text string) (string, error) {
	spec := e.prompts.Summarize
	prompt, err := renderTemplate(spec.UserTemplate, struct{ Text string }{Text: text})
	if err != nil {
		return "", err
	}

	content, err := e.complete(ctx, spec, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt,
	}, false)
	if err != nil {
		return "", err
	}

	summary := strings.TrimSpace(content)
	if summary == "" {
		return "", fmt.Errorf("%w: empty summary", port.ErrEnrichmentUnavailable)
	}

	e.logger.Debug("Summary generated", zap.Int("input_length", len(text)), zap.Int("summary_length", len(summary)))
	return summary, nil
}

// suggestionPrompt is the data rendered into the suggest_fields template
type suggestionPrompt struct {
	FileName   string
	Text       string
	Categories []string
	Subjects   []string
}

// modelSuggestion is the JSON shape the model answers with
type modelSuggestion struct {
	Category string                 `json:"category"`
	Fields   map[string]interface{} `json:"fields"`
}

// SuggestFields proposes form values for an uploaded document
func (e *Enricher) SuggestFields(ctx context.Context, doc port.Document) (*port.Suggestion, error) {
	data := suggestionPrompt{FileName: filepath.Base(doc.FileName)}
	for _, c := range entity.SupportedCategories() {
		data.Categories = append(data.Categories, string(c))
	}
	for _, s := range entity.ExpenseSubjects() {
		data.Subjects = append(data.Subjects, string(s))
	}

	mimeType := contentType(doc)
	isImage := strings.HasPrefix(mimeType, "image/")

	switch {
	case isImage:
	case mimeType == "application/pdf":
		if e.extractor != nil {
			text, err := e.extractor.ExtractText(ctx, doc.Content)
			if err != nil {
				e.logger.Warn("PDF text extraction failed", zap.String("file_name", doc.FileName), zap.Error(err))
			}
			data.Text = truncate(text, maxDocumentText)
		}
	case strings.HasPrefix(mimeType, "text/"):
		data.Text = truncate(string(doc.Content), maxDocumentText)
	default:
		return nil, fmt.Errorf("%w: unsupported content type %q", port.ErrEnrichmentUnavailable, mimeType)
	}

	spec := e.prompts.SuggestFields
	prompt, err := renderTemplate(spec.UserTemplate, data)
	if err != nil {
		return nil, err
	}

	msg := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: prompt}
	if isImage {
		msg = openai.ChatCompletionMessage{
			Role: openai.ChatMessageRoleUser,
			MultiContent: []openai.ChatMessagePart{
				{
					Type: openai.ChatMessagePartTypeText,
					Text: prompt,
				},
				{
					Type: openai.ChatMessagePartTypeImageURL,
					ImageURL: &openai.ChatMessageImageURL{
						URL:    fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(doc.Content)),
						Detail: openai.ImageURLDetailHigh,
					},
				},
			},
		}
	}

	content, err := e.complete(ctx, spec, msg, true)
	if err != nil {
		return nil, err
	}

	suggestion, err := parseSuggestion(content)
	if err != nil {
		e.logger.Error("Failed to parse OpenAI response", zap.Error(err), zap.String("content", content))
		return nil, err
	}

	e.logger.Info("Field suggestion completed",
		zap.String("file_name", doc.FileName),
		zap.String("category", string(suggestion.Category)),
		zap.Int("fields", len(suggestion.Fields)))

	return suggestion, nil
}

func (e *Enricher) complete(ctx context.Context, spec PromptSpec, msg openai.ChatCompletionMessage, jsonMode bool) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       e.model,
		Temperature: spec.Temperature,
		MaxTokens:   spec.MaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: spec.System,
			},
			msg,
		},
	}
	if jsonMode {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := e.client.CreateChatCompletion(ctx, req)
	if err != nil {
		e.logger.Error("OpenAI API call failed", zap.Error(err))
		return "", fmt.Errorf("%w: OpenAI API call failed: %v", port.ErrEnrichmentUnavailable, err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no response from OpenAI", port.ErrEnrichmentUnavailable)
	}

	return resp.Choices[0].Message.Content, nil
}

// parseSuggestion decodes the model answer, tolerating markdown fences around the JSON
func parseSuggestion(content string) (*port.Suggestion, error) {
	var result modelSuggestion
	if err := json.Unmarshal([]byte(content), &result); err != nil {
		jsonStr := extractJSON(content)
		if jsonStr == "" {
			return nil, fmt.Errorf("%w: failed to parse response: %v", port.ErrEnrichmentUnavailable, err)
		}
		if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
			return nil, fmt.Errorf("%w: failed to parse response: %v", port.ErrEnrichmentUnavailable, err)
		}
	}

	suggestion := &port.Suggestion{
		Fields: map[string]interface{}{},
		Source: port.SuggestionSourceModel,
	}

	category := entity.Category(strings.ToUpper(strings.TrimSpace(result.Category)))
	if category.IsSupported() {
		suggestion.Category = category
	}

	for name, value := range result.Fields {
		switch v := value.(type) {
		case nil:
			continue
		case string:
			if strings.TrimSpace(v) == "" {
				continue
			}
			suggestion.Fields[name] = strings.TrimSpace(v)
		case float64:
			suggestion.Fields[name] = strconv.FormatFloat(v, 'f', -1, 64)
		default:
			suggestion.Fields[name] = v
		}
	}

	if subject, ok := suggestion.Fields["subject"].(string); ok && !entity.ExpenseSubject(subject).IsValid() {
		delete(suggestion.Fields, "subject")
	}

	return suggestion, nil
}

// contentType resolves the document MIME type, falling back to its extension
func contentType(doc port.Document) string {
	if ct := strings.TrimSpace(strings.Split(doc.ContentType, ";")[0]); ct != "" && ct != "application/octet-stream" {
		return strings.ToLower(ct)
	}

	switch strings.ToLower(filepath.Ext(doc.FileName)) {
	case ".pdf":
		return "application/pdf"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".txt", ".csv":
		return "text/plain"
	}
	return http.DetectContentType(doc.Content)
}

func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit])
}

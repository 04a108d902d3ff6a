package openai

import (
	"context"
	"errors"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/djishijima/hellbuild-v3/internal/application/port"
	"github.com/djishijima/hellbuild-v3/internal/domain/entity"
)

type fakeChat struct {
	reply    string
	err      error
	requests []openai.ChatCompletionRequest
}

func (f *fakeChat) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return openai.ChatCompletionResponse{}, f.err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: f.reply}},
		},
	}, nil
}

type fakeExtractor struct {
	text string
}

func (f fakeExtractor) ExtractText(ctx context.Context, content []byte) (string, error) {
	return f.text, nil
}

func newTestEnricher(t *testing.T, chat *fakeChat, extractor port.TextExtractor) *Enricher {
	t.Helper()
	prompts, err := LoadPrompts("")
	require.NoError(t, err)
	return NewEnricherWithClient(chat, "", prompts, extractor, zap.NewNop())
}

func TestLoadPrompts_Default(t *testing.T) {
	prompts, err := LoadPrompts("")
	require.NoError(t, err)
	assert.NotEmpty(t, prompts.Summarize.System)
	assert.Contains(t, prompts.SuggestFields.UserTemplate, "{{.FileName}}")
}

func TestLoadPrompts_MissingFile(t *testing.T) {
	_, err := LoadPrompts("does-not-exist.yaml")
	assert.Error(t, err)
}

func TestRenderTemplate(t *testing.T) {
	out, err := renderTemplate("{{.Name}}さん", map[string]string{"Name": "鈴木"})
	require.NoError(t, err)
	assert.Equal(t, "鈴木さん", out)

	_, err = renderTemplate("{{.Name", nil)
	assert.Error(t, err)
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"plain", `{"a":1}`, `{"a":1}`},
		{"fenced", "```json\n{\"a\":{\"b\":2}}\n```", `{"a":{"b":2}}`},
		{"brace in string", `note {"t":"x}y"} tail`, `{"t":"x}y"}`},
		{"escaped quote", `{"t":"a\"}"}`, `{"t":"a\"}"}`},
		{"no object", "none", ""},
		{"unterminated", `{"a":1`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractJSON(tt.content))
		})
	}
}

func TestEnricher_Summarize(t *testing.T) {
	chat := &fakeChat{reply: "  金額の根拠を確認済み。  "}
	e := newTestEnricher(t, chat, nil)

	summary, err := e.Summarize(context.Background(), "長いコメント")
	require.NoError(t, err)
	assert.Equal(t, "金額の根拠を確認済み。", summary)

	require.Len(t, chat.requests, 1)
	req := chat.requests[0]
	assert.Equal(t, openai.GPT4oMini, req.Model)
	assert.Nil(t, req.ResponseFormat)
	assert.Contains(t, req.Messages[1].Content, "長いコメント")
}

func TestEnricher_SummarizeFailure(t *testing.T) {
	e := newTestEnricher(t, &fakeChat{err: errors.New("timeout")}, nil)
	_, err := e.Summarize(context.Background(), "text")
	assert.ErrorIs(t, err, port.ErrEnrichmentUnavailable)

	e = newTestEnricher(t, &fakeChat{reply: "   "}, nil)
	_, err = e.Summarize(context.Background(), "text")
	assert.ErrorIs(t, err, port.ErrEnrichmentUnavailable)
}

func TestEnricher_SuggestFieldsFromPDF(t *testing.T) {
	chat := &fakeChat{reply: "```json\n{\"category\":\"exp\",\"fields\":{\"title\":\"印刷代\",\"subject\":\"不明\",\"amount\":12000,\"content\":\"\"}}\n```"}
	e := newTestEnricher(t, chat, fakeExtractor{text: "請求金額 12,000円"})

	s, err := e.SuggestFields(context.Background(), port.Document{
		FileName: "invoice.pdf",
		Content:  []byte("%PDF-1.4"),
	})
	require.NoError(t, err)

	assert.Equal(t, entity.CategoryExpense, s.Category)
	assert.Equal(t, port.SuggestionSourceModel, s.Source)
	assert.Equal(t, "印刷代", s.Fields["title"])
	assert.Equal(t, "12000", s.Fields["amount"])
	assert.NotContains(t, s.Fields, "subject")
	assert.NotContains(t, s.Fields, "content")

	require.Len(t, chat.requests, 1)
	req := chat.requests[0]
	require.NotNil(t, req.ResponseFormat)
	assert.Equal(t, openai.ChatCompletionResponseFormatTypeJSONObject, req.ResponseFormat.Type)
	assert.Contains(t, req.Messages[1].Content, "請求金額 12,000円")
	assert.Contains(t, req.Messages[1].Content, "invoice.pdf")
}

func TestEnricher_SuggestFieldsFromImage(t *testing.T) {
	chat := &fakeChat{reply: `{"category":"TRP","fields":{"title":"交通費"}}`}
	e := newTestEnricher(t, chat, nil)

	s, err := e.SuggestFields(context.Background(), port.Document{
		FileName:    "receipt.png",
		ContentType: "image/png",
		Content:     []byte{0x89, 'P', 'N', 'G'},
	})
	require.NoError(t, err)
	assert.Equal(t, entity.CategoryTransport, s.Category)

	parts := chat.requests[0].Messages[1].MultiContent
	require.Len(t, parts, 2)
	assert.Equal(t, openai.ChatMessagePartTypeImageURL, parts[1].Type)
	assert.Contains(t, parts[1].ImageURL.URL, "data:image/png;base64,")
}

func TestEnricher_SuggestFieldsUnsupported(t *testing.T) {
	chat := &fakeChat{reply: "{}"}
	e := newTestEnricher(t, chat, nil)

	_, err := e.SuggestFields(context.Background(), port.Document{
		FileName:    "archive.zip",
		ContentType: "application/zip",
		Content:     []byte("PK"),
	})
	assert.ErrorIs(t, err, port.ErrEnrichmentUnavailable)
	assert.Empty(t, chat.requests)
}

func TestEnricher_SuggestFieldsBadJSON(t *testing.T) {
	e := newTestEnricher(t, &fakeChat{reply: "sorry"}, nil)
	_, err := e.SuggestFields(context.Background(), port.Document{FileName: "memo.txt", Content: []byte("memo")})
	assert.ErrorIs(t, err, port.ErrEnrichmentUnavailable)
}

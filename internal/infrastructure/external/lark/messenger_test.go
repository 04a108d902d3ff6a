package lark

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	larkcore "github.com/larksuite/oapi-sdk-go/v3/core"
	larkim "github.com/larksuite/oapi-sdk-go/v3/service/im/v1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeCreator struct {
	resp *larkim.CreateMessageResp
	err  error
	reqs []*larkim.CreateMessageReq
}

func (f *fakeCreator) Create(ctx context.Context, req *larkim.CreateMessageReq, options ...larkcore.RequestOptionFunc) (*larkim.CreateMessageResp, error) {
	f.reqs = append(f.reqs, req)
	return f.resp, f.err
}

func okResponse() *larkim.CreateMessageResp {
	return &larkim.CreateMessageResp{
		Data: &larkim.CreateMessageRespData{MessageId: larkcore.StringPtr("om_1")},
	}
}

type postedMessage struct {
	receiveIDType string
	auth          string
	body          struct {
		ReceiveID string `json:"receive_id"`
		MsgType   string `json:"msg_type"`
		Content   string `json:"content"`
	}
}

// newLarkServer serves the tenant token and IM message endpoints and records posted messages
func newLarkServer(t *testing.T, messageResponse string) (*httptest.Server, *[]postedMessage) {
	t.Helper()
	var (
		mu     sync.Mutex
		posted []postedMessage
	)

	mux := http.NewServeMux()
	mux.HandleFunc("/open-apis/auth/v3/tenant_access_token/internal", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"code":0,"msg":"ok","tenant_access_token":"t-test","expire":7200}`))
	})
	mux.HandleFunc("/open-apis/im/v1/messages", func(w http.ResponseWriter, r *http.Request) {
		var msg postedMessage
		msg.receiveIDType = r.URL.Query().Get("receive_id_type")
		msg.auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&msg.body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		mu.Lock()
		posted = append(posted, msg)
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(messageResponse))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &posted
}

func TestMessenger_SendText(t *testing.T) {
	srv, posted := newLarkServer(t, `{"code":0,"msg":"success","data":{"message_id":"om_1"}}`)
	client := NewSDKClient(Config{AppID: "cli_send_text", AppSecret: "secret", BaseURL: srv.URL})
	m := NewMessenger(client, zap.NewNop())

	text := "申請「備品購入」は承認済みになりました。\n\"引用\""
	require.NoError(t, m.SendText(context.Background(), "ou_123", text))

	require.Len(t, *posted, 1)
	msg := (*posted)[0]
	assert.Equal(t, receiveIDTypeOpenID, msg.receiveIDType)
	assert.Equal(t, "Bearer t-test", msg.auth)
	assert.Equal(t, "ou_123", msg.body.ReceiveID)
	assert.Equal(t, msgTypeText, msg.body.MsgType)

	var content map[string]string
	require.NoError(t, json.Unmarshal([]byte(msg.body.Content), &content))
	assert.Equal(t, text, content["text"])
}

func TestMessenger_SendTextAPIFailure(t *testing.T) {
	srv, posted := newLarkServer(t, `{"code":230002,"msg":"bot not in chat"}`)
	client := NewSDKClient(Config{AppID: "cli_api_failure", AppSecret: "secret", BaseURL: srv.URL})
	m := NewMessenger(client, zap.NewNop())

	err := m.SendText(context.Background(), "ou_123", "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "230002")
	assert.Len(t, *posted, 1)
}

func TestMessenger_SendTextErrors(t *testing.T) {
	tests := []struct {
		name    string
		openID  string
		text    string
		creator *fakeCreator
	}{
		{"empty open id", "", "hi", &fakeCreator{resp: okResponse()}},
		{"empty text", "ou_1", "", &fakeCreator{resp: okResponse()}},
		{"transport error", "ou_1", "hi", &fakeCreator{err: errors.New("dial tcp")}},
		{"api failure", "ou_1", "hi", &fakeCreator{resp: &larkim.CreateMessageResp{CodeError: larkcore.CodeError{Code: 230002, Msg: "bot not in chat"}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMessengerWithCreator(tt.creator, zap.NewNop())
			assert.Error(t, m.SendText(context.Background(), tt.openID, tt.text))
		})
	}
}

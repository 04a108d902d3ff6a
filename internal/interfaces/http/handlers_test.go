package http

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/djishijima/hellbuild-v3/internal/application/port"
	"github.com/djishijima/hellbuild-v3/internal/application/service"
	"github.com/djishijima/hellbuild-v3/internal/application/workflow"
	"github.com/djishijima/hellbuild-v3/internal/infrastructure/persistence/memory"
	"github.com/djishijima/hellbuild-v3/internal/infrastructure/persistence/seed"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type nopLogger struct{}

func (nopLogger) Info(msg string, keysAndValues ...interface{})  {}
func (nopLogger) Error(msg string, keysAndValues ...interface{}) {}

type fakeWriter struct {
	rows []port.ExportRow
}

func (w *fakeWriter) WriteApprovals(ctx context.Context, rows []port.ExportRow) ([]byte, error) {
	w.rows = rows
	return []byte("xlsx"), nil
}

type testEnv struct {
	server *Server
	store  *memory.Store
	writer *fakeWriter
}

func newTestEnv(t *testing.T, cfg ServerConfig, limiter port.RateLimiter) *testEnv {
	t.Helper()

	store := memory.NewSeededStore()
	logger := nopLogger{}
	approvals := service.NewApprovalService(
		workflow.NewEngine(),
		store.Approvals(),
		store.ApplicationCodes(),
		store.Recipients(),
		store.Users(),
		store.History(),
		store,
		nil,
		logger,
	)
	writer := &fakeWriter{}

	deps := Dependencies{
		Approvals:  approvals,
		References: service.NewReferenceService(store.ApplicationCodes(), store.Recipients(), store.Users(), nil, logger),
		Enrichment: service.NewEnrichmentService(nil, nil, nil, store.ApplicationCodes(), logger),
		Export:     service.NewExportService(approvals, writer, logger),
		Limiter:    limiter,
	}
	return &testEnv{server: NewServer(cfg, deps, logger), store: store, writer: writer}
}

func (e *testEnv) do(t *testing.T, method, path, userID string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		req.Header.Set(HeaderUserID, userID)
	}
	w := httptest.NewRecorder()
	e.server.Router().ServeHTTP(w, req)
	return w
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Details json.RawMessage `json:"details"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

func leaveRequest(status string) map[string]interface{} {
	return map[string]interface{}{
		"applicationCodeId": seed.LeaveCodeID,
		"status":            status,
		"formData": map[string]interface{}{
			"title":     "夏季休暇",
			"startDate": "2024-08-13",
			"endDate":   "2024-08-15",
			"leaveType": "全日",
			"reason":    "帰省",
		},
	}
}

type recordBody struct {
	ID         string `json:"id"`
	Status     string `json:"status"`
	ApproverID string `json:"approverId"`
	Remarks    string `json:"remarks"`
}

func createRecord(t *testing.T, e *testEnv, status string) recordBody {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/approvals", seed.StaffUserID, leaveRequest(status))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var rec recordBody
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &rec))
	return rec
}

func TestHealthCheck(t *testing.T) {
	e := newTestEnv(t, DefaultServerConfig(), nil)

	w := e.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}

func TestCreateApproval(t *testing.T) {
	tests := []struct {
		name       string
		userID     string
		body       map[string]interface{}
		wantCode   int
		wantStatus string
	}{
		{name: "draft by default", userID: seed.StaffUserID, body: leaveRequest(""), wantCode: http.StatusCreated, wantStatus: "draft"},
		{name: "submit directly", userID: seed.StaffUserID, body: leaveRequest("submitted"), wantCode: http.StatusCreated, wantStatus: "submitted"},
		{name: "legacy pending means submitted", userID: seed.StaffUserID, body: leaveRequest("pending"), wantCode: http.StatusCreated, wantStatus: "submitted"},
		{name: "approved is not a create status", userID: seed.StaffUserID, body: leaveRequest("approved"), wantCode: http.StatusBadRequest},
		{name: "missing identity", userID: "", body: leaveRequest(""), wantCode: http.StatusUnauthorized},
		{
			name:     "unknown code",
			userID:   seed.StaffUserID,
			body:     map[string]interface{}{"applicationCodeId": "missing", "formData": map[string]interface{}{"title": "x"}},
			wantCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEnv(t, DefaultServerConfig(), nil)

			w := e.do(t, http.MethodPost, "/api/approvals", tt.userID, tt.body)
			require.Equal(t, tt.wantCode, w.Code, w.Body.String())
			if tt.wantStatus == "" {
				return
			}

			var rec recordBody
			require.NoError(t, json.Unmarshal(decode(t, w).Data, &rec))
			assert.Equal(t, tt.wantStatus, rec.Status)
			assert.NotEmpty(t, rec.ID)
		})
	}
}

func TestCreateApproval_ValidationDetails(t *testing.T) {
	e := newTestEnv(t, DefaultServerConfig(), nil)

	body := leaveRequest("submitted")
	form := body["formData"].(map[string]interface{})
	delete(form, "reason")
	form["endDate"] = "2024-08-01"

	w := e.do(t, http.MethodPost, "/api/approvals", seed.StaffUserID, body)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())

	var details []struct {
		Field string `json:"field"`
		Code  string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Details, &details))

	fields := make(map[string]bool)
	for _, d := range details {
		fields[d.Field] = true
	}
	assert.True(t, fields["reason"])
	assert.True(t, fields["endDate"])
}

func TestApprovalLifecycle(t *testing.T) {
	e := newTestEnv(t, DefaultServerConfig(), nil)
	rec := createRecord(t, e, "submitted")
	base := "/api/approvals/" + rec.ID

	w := e.do(t, http.MethodPost, base+"/return", seed.ManagerUserID, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code, "return requires remarks")

	w = e.do(t, http.MethodPost, base+"/return", seed.ManagerUserID, map[string]string{"remarks": "日付を確認"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = e.do(t, http.MethodPost, base+"/submit", seed.StaffUserID, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = e.do(t, http.MethodPost, base+"/approve", seed.ManagerUserID, map[string]string{"remarks": "承認します"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var approved recordBody
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &approved))
	assert.Equal(t, "approved", approved.Status)
	assert.Equal(t, seed.ManagerUserID, approved.ApproverID)

	w = e.do(t, http.MethodPost, base+"/reject", seed.ManagerUserID, map[string]string{"remarks": "取消"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = e.do(t, http.MethodGet, base+"/history", seed.StaffUserID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var history []map[string]interface{}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &history))
	assert.Len(t, history, 4)
}

func TestTransitionApproval(t *testing.T) {
	e := newTestEnv(t, DefaultServerConfig(), nil)
	rec := createRecord(t, e, "")
	path := "/api/approvals/" + rec.ID + "/transition"

	w := e.do(t, http.MethodPost, path, seed.ManagerUserID, map[string]string{"status": "approved"})
	assert.Equal(t, http.StatusConflict, w.Code, "draft cannot be approved")

	w = e.do(t, http.MethodPost, path, seed.ManagerUserID, map[string]string{"status": "bogus"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(t, http.MethodPost, path, seed.StaffUserID, map[string]string{"status": "submitted"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var submitted recordBody
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &submitted))
	assert.Equal(t, "submitted", submitted.Status)
}

func TestGetApproval_NotFound(t *testing.T) {
	e := newTestEnv(t, DefaultServerConfig(), nil)

	w := e.do(t, http.MethodGet, "/api/approvals/missing", seed.StaffUserID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.False(t, decode(t, w).Success)
}

func TestListApprovals(t *testing.T) {
	e := newTestEnv(t, DefaultServerConfig(), nil)
	createRecord(t, e, "")
	createRecord(t, e, "submitted")
	createRecord(t, e, "submitted")

	tests := []struct {
		name      string
		query     string
		wantTotal int
		wantItems int
	}{
		{name: "all", query: "", wantTotal: 3, wantItems: 3},
		{name: "status filter", query: "?status=submitted", wantTotal: 2, wantItems: 2},
		{name: "legacy status", query: "?status=pending", wantTotal: 2, wantItems: 2},
		{name: "paged", query: "?limit=2&page=2", wantTotal: 3, wantItems: 1},
		{name: "search", query: "?search=" + url.QueryEscape("夏季"), wantTotal: 3, wantItems: 3},
		{name: "category", query: "?category=EXP", wantTotal: 0, wantItems: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := e.do(t, http.MethodGet, "/api/approvals"+tt.query, seed.StaffUserID, nil)
			require.Equal(t, http.StatusOK, w.Code)

			var result struct {
				Items []json.RawMessage `json:"items"`
				Total int               `json:"total"`
			}
			require.NoError(t, json.Unmarshal(decode(t, w).Data, &result))
			assert.Equal(t, tt.wantTotal, result.Total)
			assert.Len(t, result.Items, tt.wantItems)
		})
	}
}

func TestExportApprovals(t *testing.T) {
	e := newTestEnv(t, DefaultServerConfig(), nil)
	createRecord(t, e, "submitted")

	w := e.do(t, http.MethodGet, "/api/approvals/export", seed.StaffUserID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, ContentTypeXLSX, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "approvals.xlsx")
	assert.Equal(t, "xlsx", w.Body.String())
	assert.Len(t, e.writer.rows, 1)
}

func TestDashboardStats(t *testing.T) {
	e := newTestEnv(t, DefaultServerConfig(), nil)
	createRecord(t, e, "submitted")

	w := e.do(t, http.MethodGet, "/api/dashboard/stats", seed.StaffUserID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var stats service.DashboardStats
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &stats))
	assert.Equal(t, 1, stats.Total)
	assert.Equal(t, 1, stats.Pending)
	assert.Equal(t, 3, stats.TotalUsers)
}

func TestCreateApproval_RecipientReference(t *testing.T) {
	e := newTestEnv(t, DefaultServerConfig(), nil)

	body := func(recipientID string) map[string]interface{} {
		return map[string]interface{}{
			"applicationCodeId": seed.ExpenseCodeID,
			"status":            "submitted",
			"formData": map[string]interface{}{
				"title":          "印刷代",
				"subject":        "その他",
				"content":        "パンフレット印刷",
				"recipientId":    recipientID,
				"amount":         55000,
				"billingDate":    "2024-07-01",
				"paymentDueDate": "2024-07-31",
			},
		}
	}

	w := e.do(t, http.MethodPost, "/api/approvals", seed.StaffUserID, body(seed.PicoSystemRecipientID))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = e.do(t, http.MethodDelete, "/api/recipients/"+seed.PicoSystemRecipientID, seed.AdminUserID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	for _, id := range []string{seed.PicoSystemRecipientID, "does-not-exist"} {
		w = e.do(t, http.MethodPost, "/api/approvals", seed.StaffUserID, body(id))
		require.Equal(t, http.StatusUnprocessableEntity, w.Code, id)
		assert.Contains(t, string(decode(t, w).Details), "recipientId")
	}
}

func TestUsers(t *testing.T) {
	e := newTestEnv(t, DefaultServerConfig(), nil)

	w := e.do(t, http.MethodPost, "/api/users", seed.AdminUserID, map[string]interface{}{
		"employeeId": "E004",
		"email":      "yamada@example.co.jp",
		"name":       "山田次郎",
		"role":       "manager",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created struct {
		ID     string `json:"id"`
		Role   string `json:"role"`
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &created))
	require.NotEmpty(t, created.ID)
	assert.Equal(t, "manager", created.Role)
	assert.Equal(t, "active", created.Status)

	w = e.do(t, http.MethodPost, "/api/users", seed.AdminUserID, map[string]interface{}{
		"email": "yamada@example.co.jp",
		"name":  "山田花子",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = e.do(t, http.MethodPost, "/api/users", seed.AdminUserID, map[string]interface{}{"name": "名無し"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = e.do(t, http.MethodPut, "/api/users/"+created.ID, seed.AdminUserID, map[string]interface{}{
		"email": "yamada@example.co.jp",
		"name":  "山田次郎",
		"role":  "admin",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = e.do(t, http.MethodDelete, "/api/users/"+created.ID, seed.AdminUserID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = e.do(t, http.MethodGet, "/api/users/"+created.ID, seed.AdminUserID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got struct {
		Role   string `json:"role"`
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &got))
	assert.Equal(t, "admin", got.Role)
	assert.Equal(t, "inactive", got.Status)

	w = e.do(t, http.MethodGet, "/api/users", seed.AdminUserID, nil)
	var all []json.RawMessage
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &all))
	assert.Len(t, all, 4)

	w = e.do(t, http.MethodDelete, "/api/users/missing", seed.AdminUserID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRecipients(t *testing.T) {
	e := newTestEnv(t, DefaultServerConfig(), nil)

	valid := map[string]interface{}{
		"recipientName": "山田商事",
		"bankCode":      "0005",
		"bankName":      "三菱UFJ銀行",
		"branchCode":    "001",
		"branchName":    "本店",
		"accountType":   "普通",
		"accountNumber": "1234567",
		"accountHolder": "ヤマダシヨウジ",
	}

	w := e.do(t, http.MethodPost, "/api/recipients", seed.AdminUserID, valid)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &created))
	require.NotEmpty(t, created.ID)

	invalid := map[string]interface{}{"recipientName": "x", "bankCode": "12"}
	w = e.do(t, http.MethodPost, "/api/recipients", seed.AdminUserID, invalid)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = e.do(t, http.MethodDelete, "/api/recipients/"+created.ID, seed.AdminUserID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = e.do(t, http.MethodGet, "/api/recipients", seed.AdminUserID, nil)
	var active []json.RawMessage
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &active))
	assert.Len(t, active, 2)

	w = e.do(t, http.MethodGet, "/api/recipients?include_inactive=true", seed.AdminUserID, nil)
	var all []json.RawMessage
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &all))
	assert.Len(t, all, 3)

	w = e.do(t, http.MethodGet, "/api/recipients/missing", seed.AdminUserID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestApplicationCodes(t *testing.T) {
	e := newTestEnv(t, DefaultServerConfig(), nil)

	w := e.do(t, http.MethodGet, "/api/application-codes", seed.StaffUserID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var codes []json.RawMessage
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &codes))
	assert.Len(t, codes, 4)

	w = e.do(t, http.MethodPost, "/api/application-codes", seed.AdminUserID,
		map[string]interface{}{"code": "EXP001", "name": "重複", "category": "EXP", "isActive": true})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = e.do(t, http.MethodPost, "/api/application-codes", seed.AdminUserID,
		map[string]interface{}{"code": "ZZZ001", "name": "不明", "category": "UNKNOWN", "isActive": true})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSummarize_Unavailable(t *testing.T) {
	e := newTestEnv(t, DefaultServerConfig(), nil)

	w := e.do(t, http.MethodPost, "/api/enrichment/summarize", seed.StaffUserID, map[string]string{"text": "長い説明"})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = e.do(t, http.MethodPost, "/api/enrichment/summarize", seed.StaffUserID, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSuggest_FilenameFallback(t *testing.T) {
	e := newTestEnv(t, DefaultServerConfig(), nil)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "receipt.txt")
	require.NoError(t, err)
	_, err = part.Write([]byte("タクシー代 1200円"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/enrichment/suggest", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set(HeaderUserID, seed.StaffUserID)
	w := httptest.NewRecorder()
	e.server.Router().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var suggestion port.Suggestion
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &suggestion))
	assert.Equal(t, port.SuggestionSourceFilename, suggestion.Source)
}

func TestSuggest_MissingFile(t *testing.T) {
	e := newTestEnv(t, DefaultServerConfig(), nil)

	w := e.do(t, http.MethodPost, "/api/enrichment/suggest", seed.StaffUserID, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

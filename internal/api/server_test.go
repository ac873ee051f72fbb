package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/dgallion1/legalchunk/internal/chat"
	"github.com/dgallion1/legalchunk/internal/chat/mocks"
	"github.com/dgallion1/legalchunk/internal/chunker"
	"github.com/dgallion1/legalchunk/internal/config"
	"github.com/dgallion1/legalchunk/internal/llm"
)

var quietLog = slog.New(slog.NewTextHandler(io.Discard, nil))

func testConfig() config.Config {
	return config.Config{
		LLMProvider:    "groq",
		LLMModel:       "test-model",
		MaxUploadBytes: 1 << 20,
		ChunkProfile:   "vi",
	}
}

func decodeDetail(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return body["detail"]
}

func TestHealth(t *testing.T) {
	srv := NewServer(Deps{}, quietLog, testConfig())
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestAPIKeyGate(t *testing.T) {
	cfg := testConfig()
	cfg.APIKeys = []string{"alpha", "beta"}
	srv := NewServer(Deps{}, quietLog, cfg)

	body := `{"session_id":"s","message":"m"}`
	tests := []struct {
		name       string
		key        string
		wantStatus int
		wantDetail string
	}{
		{"missing", "", http.StatusUnauthorized, "Missing API Key"},
		{"invalid", "gamma", http.StatusForbidden, "Invalid API Key"},
		{"valid second key", "beta", http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/chat-messages", strings.NewReader(body))
			if tt.key != "" {
				req.Header.Set(APIKeyHeader, tt.key)
			}
			w := httptest.NewRecorder()
			srv.ServeHTTP(w, req)

			require.Equal(t, tt.wantStatus, w.Code)
			if tt.wantDetail != "" {
				assert.Equal(t, tt.wantDetail, decodeDetail(t, w))
			}
		})
	}
}

func TestAPIKeyGate_OpenWithoutKeys(t *testing.T) {
	srv := NewServer(Deps{}, quietLog, testConfig())
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/chat-messages", strings.NewReader(`{"session_id":"s","message":"m"}`)))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestChatMessages_Echo(t *testing.T) {
	srv := NewServer(Deps{}, quietLog, testConfig())
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/chat-messages",
		strings.NewReader(`{"session_id":"abc","message":"Điều 5 là gì?"}`)))

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"session_id":"abc","bot_message":"Echo: Điều 5 là gì?"}`, w.Body.String())
}

func TestChatMessages_EmptyStringsAccepted(t *testing.T) {
	srv := NewServer(Deps{}, quietLog, testConfig())
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/chat-messages",
		strings.NewReader(`{"session_id":"","message":""}`)))

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"session_id":"","bot_message":"Echo: "}`, w.Body.String())
}

func TestChatMessages_Validation(t *testing.T) {
	srv := NewServer(Deps{}, quietLog, testConfig())

	tests := map[string]string{
		"missing session":  `{"message":"m"}`,
		"missing message":  `{"session_id":"s"}`,
		"malformed json":   `{"session_id":`,
		"wrong type":       `{"session_id":1,"message":"m"}`,
		"excerpt no text":  `{"session_id":"s","message":"m","excerpts":[{"article":"Điều 1."}]}`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			w := httptest.NewRecorder()
			srv.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/chat-messages", strings.NewReader(body)))
			assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
			assert.NotEmpty(t, decodeDetail(t, w))
		})
	}
}

func TestChatMessages_ValidationNamesJSONFields(t *testing.T) {
	srv := NewServer(Deps{}, quietLog, testConfig())
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/chat-messages", strings.NewReader(`{"message":"m"}`)))

	assert.Contains(t, decodeDetail(t, w), "session_id: required")
}

func TestChatMessages_Service(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockService(ctrl)

	svc.EXPECT().
		Reply(gomock.Any(), chat.Request{
			SessionID: "s1",
			Message:   "Ai ký?",
			Excerpts:  []chunker.Chunk{{Content: "Điều 9. Ký\nThủ tướng", Article: "Điều 9. Ký"}},
		}).
		Return(chat.Response{SessionID: "s1", BotMessage: "Thủ tướng."}, nil)

	srv := NewServer(Deps{Chat: svc}, quietLog, testConfig())
	body := `{"session_id":"s1","message":"Ai ký?","excerpts":[{"content":"Điều 9. Ký\nThủ tướng","article":"Điều 9. Ký"}]}`
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/chat-messages", strings.NewReader(body)))

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"session_id":"s1","bot_message":"Thủ tướng."}`, w.Body.String())
}

func TestChatMessages_ServiceError(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockService(ctrl)
	svc.EXPECT().Reply(gomock.Any(), gomock.Any()).Return(chat.Response{}, errors.New("boom"))

	srv := NewServer(Deps{Chat: svc}, quietLog, testConfig())
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/chat-messages", strings.NewReader(`{"session_id":"s","message":"m"}`)))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Internal Server Error", decodeDetail(t, w))
}

func TestLLMStats(t *testing.T) {
	srv := NewServer(Deps{}, quietLog, testConfig())
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/stats/llm", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	stats := llm.NewLLMStats(0)
	stats.Record(120)
	srv = NewServer(Deps{Stats: stats}, quietLog, testConfig())
	w = httptest.NewRecorder()
	srv.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/stats/llm", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Model string            `json:"model"`
		Stats llm.StatsSnapshot `json:"stats"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "test-model", body.Model)
	assert.Equal(t, 1, body.Stats.Count)
}

func TestMetricsEndpoint(t *testing.T) {
	srv := NewServer(Deps{}, quietLog, testConfig())
	srv.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	w := httptest.NewRecorder()
	srv.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `legalchunk_http_requests_total{method="GET",route="/health",status_code="200"} 1`)
}

func multipartUpload(t *testing.T, filename string, content []byte, fields map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/chunk", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

const sampleLaw = `LUẬT MẪU
Chương I
QUY ĐỊNH CHUNG
Điều 1. Phạm vi điều chỉnh
Luật này quy định về mẫu.
Điều 2. Đối tượng áp dụng
Cơ quan, tổ chức, cá nhân.
./.
Nơi nhận: ...`

func TestChunk_JSON(t *testing.T) {
	srv := NewServer(Deps{}, quietLog, testConfig())
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, multipartUpload(t, "luat.txt", []byte(sampleLaw), map[string]string{
		"metadata": `{"so_hieu": "01/2024/QH15", "loai": "Luật"}`,
	}))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp chunkResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))

	assert.NotEmpty(t, resp.DocID)
	assert.Equal(t, resp.DocID, w.Header().Get("X-Document-ID"))
	assert.Equal(t, "vi", resp.Profile)
	require.Equal(t, 2, resp.ChunkCount)
	assert.Equal(t, "Điều 1. Phạm vi điều chỉnh\nLuật này quy định về mẫu.", resp.Chunks[0].Content)
	assert.Equal(t, "Chương I. QUY ĐỊNH CHUNG", resp.Chunks[0].Chapter)
	assert.Equal(t, "Điều 2. Đối tượng áp dụng", resp.Chunks[1].Article)
	assert.Equal(t, "Điều 2. Đối tượng áp dụng\nCơ quan, tổ chức, cá nhân.", resp.Chunks[1].Content)
	assert.Equal(t, []metaField{
		{Key: "so_hieu", Value: "01/2024/QH15"},
		{Key: "loai", Value: "Luật"},
	}, resp.Chunks[1].Metadata)
	assert.Equal(t, len([]rune(resp.Chunks[0].Content)), resp.Chunks[0].ContentLength)
}

func TestChunk_CSV(t *testing.T) {
	srv := NewServer(Deps{}, quietLog, testConfig())
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, multipartUpload(t, "luat.txt", []byte(sampleLaw), map[string]string{"format": "csv"}))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "luat_chunks.csv")
	assert.True(t, strings.HasPrefix(w.Body.String(), "\ufeffcontent,content_length,chapter,article\n"))
}

func TestChunk_EnglishProfile(t *testing.T) {
	srv := NewServer(Deps{}, quietLog, testConfig())
	doc := "# Chapter II: Rights\n\n## Article 4. Equality\n\nAll persons are equal.\n"
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, multipartUpload(t, "law.md", []byte(doc), map[string]string{"profile": "en", "format": "jsonl"}))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var row map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(w.Body.Bytes()), &row))
	assert.Equal(t, "Chapter II. Rights", row["chapter"])
	assert.Equal(t, "Article 4. Equality", row["article"])
}

func TestChunk_Errors(t *testing.T) {
	cfg := testConfig()
	cfg.MaxUploadBytes = 64
	srv := NewServer(Deps{}, quietLog, cfg)

	tests := []struct {
		name       string
		req        *http.Request
		wantStatus int
	}{
		{"no file", multipartUpload(t, "", nil, nil), http.StatusBadRequest},
		{"unsupported extension", multipartUpload(t, "law.rtf", []byte("x"), nil), http.StatusBadRequest},
		{"content mismatch", multipartUpload(t, "law.pdf", []byte("plain text"), nil), http.StatusBadRequest},
		{"no articles", multipartUpload(t, "law.txt", []byte("Chương I\nkhông có điều"), nil), http.StatusBadRequest},
		{"no lines", multipartUpload(t, "law.txt", []byte("\n  \n"), nil), http.StatusBadRequest},
		{"bad metadata", multipartUpload(t, "law.txt", []byte("Điều 1. A"), map[string]string{"metadata": "[1]"}), http.StatusBadRequest},
		{"unknown profile", multipartUpload(t, "law.txt", []byte("Điều 1. A"), map[string]string{"profile": "/etc/passwd"}), http.StatusBadRequest},
		{"bad format", multipartUpload(t, "law.txt", []byte("Điều 1. A"), map[string]string{"format": "xml"}), http.StatusBadRequest},
		{"too large", multipartUpload(t, "law.txt", bytes.Repeat([]byte("a"), 100), nil), http.StatusRequestEntityTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			srv.ServeHTTP(w, tt.req)
			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			assert.NotEmpty(t, decodeDetail(t, w))
		})
	}
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "law.docx", sanitizeFilename("../../etc/law.docx"))
	assert.Equal(t, "unnamed", sanitizeFilename(""))
}

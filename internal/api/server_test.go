package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/yizeng/gab/gin/gorm/chatboard/internal/config"
	"github.com/yizeng/gab/gin/gorm/chatboard/internal/db"
	"github.com/yizeng/gab/gin/gorm/chatboard/internal/domain"
	"github.com/yizeng/gab/gin/gorm/chatboard/internal/page"
	"github.com/yizeng/gab/gin/gorm/chatboard/internal/repository/dao"
)

type stubNotifier struct {
	mu     sync.Mutex
	result domain.NotifyResult
	texts  []string
}

func (n *stubNotifier) Notify(_ context.Context, text string) domain.NotifyResult {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.texts = append(n.texts, text)
	return n.result
}

type messageBody struct {
	Message    string `json:"message"`
	CreateTime string `json:"create_time"`
}

func testConfig(root string) *config.AppConfig {
	return &config.AppConfig{
		API: &config.APIConfig{
			Environment:    "test",
			Port:           "0",
			ListenHosts:    []string{"127.0.0.1"},
			BaseURL:        "localhost:2000",
			StaticRoot:     root,
			RequestTimeout: 5 * time.Second,
		},
		Gin: &config.GinConfig{Mode: "test"},
		Database: &config.DatabaseConfig{
			Driver:       config.DriverSQLite,
			DSN:          filepath.Join(root, "sqlite.db"),
			MaxOpenConns: 1,
			QueryTimeout: 5 * time.Second,
		},
		Page: &config.PageConfig{Path: filepath.Join(root, "index.html")},
	}
}

func newTestServer(t *testing.T, notifier *stubNotifier) (*Server, *gorm.DB) {
	t.Helper()

	root := t.TempDir()
	conf := testConfig(root)

	require.NoError(t, page.Write(conf.Page.Path))

	gdb, err := db.Open(conf.Database)
	require.NoError(t, err)
	require.NoError(t, dao.InitTables(gdb))
	t.Cleanup(func() { _ = db.Close(gdb) })

	return NewServer(conf, gdb, notifier), gdb
}

func send(s *Server, text string) *httptest.ResponseRecorder {
	form := url.Values{"message": {text}}
	req := httptest.NewRequest(http.MethodPost, "/send", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	s.Router.ServeHTTP(w, req)
	return w
}

func get(s *Server, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.Router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func TestServer_Index(t *testing.T) {
	s, _ := newTestServer(t, &stubNotifier{result: domain.NotifySuccess()})

	w := get(s, "/")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, string(page.Content()), w.Body.String())
}

func TestServer_SendThenList(t *testing.T) {
	notifier := &stubNotifier{result: domain.NotifySuccess()}
	s, _ := newTestServer(t, notifier)

	w := get(s, "/messages")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	for _, text := range []string{"a", "b"} {
		w = send(s, text)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"type":"success","message":"发送成功"}`, w.Body.String())
	}

	w = get(s, "/messages")
	require.Equal(t, http.StatusOK, w.Code)

	var got []messageBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].Message)
	assert.Equal(t, "a", got[1].Message)
	for _, m := range got {
		_, err := time.Parse(domain.TimeLayout, m.CreateTime)
		assert.NoError(t, err)
	}
	assert.Equal(t, []string{"a", "b"}, notifier.texts)

	w = get(s, "/messages?order=asc")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "a", got[0].Message)
}

func TestServer_NotifyFailureKeepsMessage(t *testing.T) {
	s, _ := newTestServer(t, &stubNotifier{result: domain.NotifyFailure("535 authentication failed")})

	w := send(s, "help")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"type":"error","message":"535 authentication failed"}`, w.Body.String())

	w = get(s, "/messages")
	var got []messageBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "help", got[0].Message)
}

func TestServer_StoreUnavailable(t *testing.T) {
	notifier := &stubNotifier{result: domain.NotifySuccess()}
	s, gdb := newTestServer(t, notifier)
	require.NoError(t, db.Close(gdb))

	w := send(s, "lost")
	assert.GreaterOrEqual(t, w.Code, http.StatusInternalServerError)
	assert.Empty(t, notifier.texts)

	w = get(s, "/healthz")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestServer_StaticFallback(t *testing.T) {
	s, _ := newTestServer(t, &stubNotifier{result: domain.NotifySuccess()})

	root := s.Config.API.StaticRoot
	require.NoError(t, os.MkdirAll(filepath.Join(root, "assets"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "assets", "app.css"), []byte("body{}"), 0o644))

	tests := []struct {
		name     string
		method   string
		target   string
		wantCode int
		wantBody string
	}{
		{name: "file", method: http.MethodGet, target: "/assets/app.css", wantCode: http.StatusOK, wantBody: "body{}"},
		{name: "missing file", method: http.MethodGet, target: "/assets/missing.css", wantCode: http.StatusNotFound},
		{name: "directory", method: http.MethodGet, target: "/assets", wantCode: http.StatusNotFound},
		{name: "escape root", method: http.MethodGet, target: "/../../etc/passwd", wantCode: http.StatusNotFound},
		{name: "unknown post", method: http.MethodPost, target: "/assets/app.css", wantCode: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			s.Router.ServeHTTP(w, httptest.NewRequest(tt.method, tt.target, nil))

			assert.Equal(t, tt.wantCode, w.Code)
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, w.Body.String())
			}
		})
	}
}

func TestServer_HealthAndDocs(t *testing.T) {
	s, _ := newTestServer(t, &stubNotifier{result: domain.NotifySuccess()})

	w := get(s, "/healthz")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = get(s, "/swagger/doc.json")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "/messages")
}

func TestServer_ServeShutsDownOnCancel(t *testing.T) {
	s, _ := newTestServer(t, &stubNotifier{result: domain.NotifySuccess()})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	resp, err := http.Get(fmt.Sprintf("http://%s/healthz", ln.Addr()))
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()

	select {
	case err = <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestServer_RunFailsOnBusyPort(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	s, _ := newTestServer(t, &stubNotifier{result: domain.NotifySuccess()})
	_, port, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)
	s.Config.API.Port = port

	assert.Error(t, s.Run(context.Background()))
}

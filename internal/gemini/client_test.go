package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"paperpipe/internal/config"
	"paperpipe/internal/util"

	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	mu            sync.Mutex
	uploadState   string
	getStates     []string
	getCalls      int
	generateCode  int
	generateText  string
	deleteCalls   int
	lastAPIKey    string
	generateCalls int
}

func (b *fakeBackend) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/upload/v1beta/files", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.lastAPIKey = r.Header.Get("x-goog-api-key")
		state := b.uploadState
		b.mu.Unlock()
		_ = json.NewEncoder(w).Encode(map[string]any{
			"file": map[string]string{"name": "files/abc123", "uri": "https://files/abc123", "state": state},
		})
	})
	mux.HandleFunc("/v1beta/files/abc123", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete {
			b.mu.Lock()
			b.deleteCalls++
			b.mu.Unlock()
			w.WriteHeader(http.StatusOK)
			return
		}
		b.mu.Lock()
		state := "ACTIVE"
		if b.getCalls < len(b.getStates) {
			state = b.getStates[b.getCalls]
		}
		b.getCalls++
		b.mu.Unlock()
		_ = json.NewEncoder(w).Encode(map[string]string{"name": "files/abc123", "uri": "https://files/abc123", "state": state})
	})
	mux.HandleFunc("/v1beta/models/gemini-2.5-flash:generateContent", func(w http.ResponseWriter, _ *http.Request) {
		b.mu.Lock()
		code := b.generateCode
		text := b.generateText
		b.generateCalls++
		b.mu.Unlock()
		if code >= 400 {
			w.WriteHeader(code)
			_, _ = fmt.Fprint(w, `{"error":{"message":"backend unavailable"}}`)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{{
				"content": map[string]any{"parts": []map[string]string{{"text": text}}},
			}},
		})
	})
	return mux
}

func (b *fakeBackend) deletes() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.deleteCalls
}

func (b *fakeBackend) apiKey() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastAPIKey
}

func (b *fakeBackend) fileGets() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.getCalls
}

func (b *fakeBackend) generates() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.generateCalls
}

func newTestClient(t *testing.T, b *fakeBackend) *Client {
	t.Helper()
	srv := httptest.NewServer(b.handler())
	t.Cleanup(srv.Close)
	return NewClient(config.Config{
		GeminiBaseURL:       srv.URL,
		GeminiAPIKey:        "test-key",
		GeminiModel:         "gemini-2.5-flash",
		UploadPollSecs:      1,
		GenerateTimeoutSecs: 10,
	})
}

func TestExtractOutlineHappyPathReleasesHandle(t *testing.T) {
	backend := &fakeBackend{
		uploadState:  "ACTIVE",
		generateText: `{"title":"Attention Is All You Need","authors":["A","B"],"sections":[{"title":"Abstract"},{"title":"Introduction"}],"keywords":["transformer"]}`,
	}
	c := newTestClient(t, backend)

	outline, err := c.ExtractOutline(context.Background(), []byte("%PDF-fake"))
	require.NoError(t, err)
	require.Equal(t, "Attention Is All You Need", outline.Title)
	require.Equal(t, []string{"A", "B"}, outline.Authors)
	require.Len(t, outline.Sections, 2)
	require.Equal(t, []string{"transformer"}, outline.Keywords)
	require.Equal(t, 1, backend.deletes())
	require.Equal(t, "test-key", backend.apiKey())
}

func TestExtractOutlineWaitsForProcessing(t *testing.T) {
	backend := &fakeBackend{
		uploadState:  "PROCESSING",
		getStates:    []string{"ACTIVE"},
		generateText: `{"title":"T","sections":[{"title":"Intro"}]}`,
	}
	c := newTestClient(t, backend)

	outline, err := c.ExtractOutline(context.Background(), []byte("%PDF-fake"))
	require.NoError(t, err)
	require.Equal(t, "T", outline.Title)
	require.Equal(t, 1, backend.fileGets())
	require.Equal(t, 1, backend.deletes())
}

func TestExtractOutlineFileProcessingFailed(t *testing.T) {
	backend := &fakeBackend{uploadState: "FAILED"}
	c := newTestClient(t, backend)

	_, err := c.ExtractOutline(context.Background(), []byte("%PDF-fake"))
	require.Error(t, err)
	require.True(t, errors.Is(err, util.ErrExtraction))
	require.Equal(t, 0, backend.generates())
	require.Equal(t, 1, backend.deletes())
}

func TestExtractOutlineGenerateFailureStillReleasesHandle(t *testing.T) {
	backend := &fakeBackend{uploadState: "ACTIVE", generateCode: http.StatusInternalServerError}
	c := newTestClient(t, backend)

	_, err := c.ExtractOutline(context.Background(), []byte("%PDF-fake"))
	require.Error(t, err)
	require.True(t, errors.Is(err, util.ErrExtraction))
	require.Equal(t, 1, backend.deletes())
}

func TestExtractOutlineRejectsInvalidShape(t *testing.T) {
	backend := &fakeBackend{uploadState: "ACTIVE", generateText: `{"title":"T","sections":[]}`}
	c := newTestClient(t, backend)

	_, err := c.ExtractOutline(context.Background(), []byte("%PDF-fake"))
	require.Error(t, err)
	require.True(t, errors.Is(err, util.ErrExtraction))
	require.Equal(t, 1, backend.deletes())
}

func TestExpandSection(t *testing.T) {
	backend := &fakeBackend{
		uploadState:  "ACTIVE",
		generateText: `{"section_title":"Introduction","summary":"S2","key_points":["p2","p3"],"citations":["[1]"]}`,
	}
	c := newTestClient(t, backend)

	expansion, err := c.ExpandSection(context.Background(), []byte("%PDF-fake"), "Introduction", "Motivation")
	require.NoError(t, err)
	require.Equal(t, "Introduction", expansion.SectionTitle)
	require.Equal(t, "S2", expansion.Summary)
	require.Equal(t, []string{"p2", "p3"}, expansion.KeyPoints)
	require.Equal(t, 1, backend.deletes())
}

func TestExpandSectionRejectsMissingSummary(t *testing.T) {
	backend := &fakeBackend{uploadState: "ACTIVE", generateText: `{"section_title":"Introduction"}`}
	c := newTestClient(t, backend)

	_, err := c.ExpandSection(context.Background(), []byte("%PDF-fake"), "Introduction", "")
	require.Error(t, err)
	require.True(t, errors.Is(err, util.ErrExtraction))
	require.Equal(t, 1, backend.deletes())
}

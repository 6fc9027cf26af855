package document

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"paperpipe/internal/util"

	"github.com/stretchr/testify/require"
)

func TestFetchNon2xxIsRetrievalError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	f := NewFetcher(5 * time.Second)
	_, err := f.Fetch(context.Background(), srv.URL+"/missing.pdf")
	require.Error(t, err)
	require.True(t, errors.Is(err, util.ErrRetrieval))
	require.Contains(t, err.Error(), "status 404")
}

func TestFetchRejectsNonPDFPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html>not a pdf</html>"))
	}))
	defer srv.Close()

	f := NewFetcher(5 * time.Second)
	_, err := f.Fetch(context.Background(), srv.URL+"/paper.pdf")
	require.Error(t, err)
	require.True(t, errors.Is(err, util.ErrRetrieval))
	require.Contains(t, err.Error(), "not a readable pdf")
}

func TestFetchRejectsTruncatedPDF(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("%PDF-1.4\nthis has a header but no xref table"))
	}))
	defer srv.Close()

	f := NewFetcher(5 * time.Second)
	_, err := f.Fetch(context.Background(), srv.URL+"/paper.pdf")
	require.Error(t, err)
	require.True(t, errors.Is(err, util.ErrRetrieval))
}

func TestFetchUnreachableHost(t *testing.T) {
	f := NewFetcher(time.Second)
	_, err := f.Fetch(context.Background(), "http://127.0.0.1:1/paper.pdf")
	require.Error(t, err)
	require.True(t, errors.Is(err, util.ErrRetrieval))
}

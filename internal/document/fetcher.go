package document

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"paperpipe/internal/util"

	"github.com/ledongthuc/pdf"
)

// File is a downloaded source document ready for upload to the extraction
// backend.
type File struct {
	URL   string
	Data  []byte
	Pages int
}

type Fetcher struct {
	client *http.Client
}

func NewFetcher(timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Fetcher{client: &http.Client{Timeout: timeout}}
}

// Fetch downloads the document at url and verifies it is a readable PDF.
// Any failure is fatal for the stage that called it.
func (f *Fetcher) Fetch(ctx context.Context, url string) (File, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return File{}, fmt.Errorf("%w: build request for %s: %v", util.ErrRetrieval, url, err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return File{}, fmt.Errorf("%w: fetch %s: %v", util.ErrRetrieval, url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return File{}, fmt.Errorf("%w: fetch %s: status %d", util.ErrRetrieval, url, resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return File{}, fmt.Errorf("%w: read %s: %v", util.ErrRetrieval, url, err)
	}
	pages, err := pdfPageCount(data)
	if err != nil {
		return File{}, fmt.Errorf("%w: %s is not a readable pdf: %v", util.ErrRetrieval, url, err)
	}
	return File{URL: url, Data: data, Pages: pages}, nil
}

func pdfPageCount(data []byte) (int, error) {
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		return 0, errors.New("missing %PDF header")
	}
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, err
	}
	return r.NumPage(), nil
}

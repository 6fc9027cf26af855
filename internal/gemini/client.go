package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"paperpipe/internal/config"
	"paperpipe/internal/models"
	"paperpipe/internal/util"
)

const (
	fileStateProcessing = "PROCESSING"
	fileStateActive     = "ACTIVE"
	fileStateFailed     = "FAILED"
)

// Client talks to the Gemini file and generation APIs. Each structured call
// uploads the document, waits for the file to become active, runs one guided
// generation, and deletes the uploaded handle again on every exit path.
type Client struct {
	baseURL      string
	apiKey       string
	model        string
	pollInterval time.Duration
	client       *http.Client
}

func NewClient(cfg config.Config) *Client {
	poll := time.Duration(cfg.UploadPollSecs) * time.Second
	if poll <= 0 {
		poll = 2 * time.Second
	}
	timeout := time.Duration(cfg.GenerateTimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 300 * time.Second
	}
	return &Client{
		baseURL:      cfg.GeminiBaseURL,
		apiKey:       cfg.GeminiAPIKey,
		model:        cfg.GeminiModel,
		pollInterval: poll,
		client:       &http.Client{Timeout: timeout},
	}
}

type fileHandle struct {
	Name  string `json:"name"`
	URI   string `json:"uri"`
	State string `json:"state"`
}

// ExtractOutline runs the outline extraction over the raw PDF bytes.
func (c *Client) ExtractOutline(ctx context.Context, data []byte) (models.Outline, error) {
	var outline models.Outline
	if err := c.generateStructured(ctx, data, outlinePrompt, OutlineSchema(), &outline); err != nil {
		return models.Outline{}, err
	}
	if err := outline.Validate(); err != nil {
		return models.Outline{}, err
	}
	return outline, nil
}

// ExpandSection runs the per-section extraction over the raw PDF bytes.
func (c *Client) ExpandSection(ctx context.Context, data []byte, title, description string) (models.SectionExpansion, error) {
	var expansion models.SectionExpansion
	if err := c.generateStructured(ctx, data, sectionPrompt(title, description), SectionExpansionSchema(), &expansion); err != nil {
		return models.SectionExpansion{}, err
	}
	if err := expansion.Validate(); err != nil {
		return models.SectionExpansion{}, err
	}
	return expansion, nil
}

func (c *Client) generateStructured(ctx context.Context, data []byte, prompt string, schema *Schema, out any) error {
	handle, err := c.uploadFile(ctx, data)
	if err != nil {
		return err
	}
	defer func() {
		_ = c.deleteFile(ctx, handle.Name)
	}()

	handle, err = c.waitUntilActive(ctx, handle)
	if err != nil {
		return err
	}

	text, err := c.generateContent(ctx, handle.URI, prompt, schema)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(text), out); err != nil {
		return fmt.Errorf("%w: decode structured response: %v", util.ErrExtraction, err)
	}
	return nil
}

func (c *Client) uploadFile(ctx context.Context, data []byte) (fileHandle, error) {
	url := c.baseURL + "/upload/v1beta/files?uploadType=media"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return fileHandle{}, fmt.Errorf("%w: build upload request: %v", util.ErrExtraction, err)
	}
	req.Header.Set("x-goog-api-key", c.apiKey)
	req.Header.Set("Content-Type", "application/pdf")
	resp, err := c.client.Do(req)
	if err != nil {
		return fileHandle{}, fmt.Errorf("%w: upload file: %v", util.ErrExtraction, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		return fileHandle{}, fmt.Errorf("%w: upload error %d: %s", util.ErrExtraction, resp.StatusCode, string(body))
	}
	var parsed struct {
		File fileHandle `json:"file"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return fileHandle{}, fmt.Errorf("%w: decode upload response: %v", util.ErrExtraction, err)
	}
	if parsed.File.Name == "" {
		return fileHandle{}, fmt.Errorf("%w: upload response has no file name", util.ErrExtraction)
	}
	return parsed.File, nil
}

// waitUntilActive polls the file state at a fixed interval. The enclosing
// activity carries the wall-clock timeout, so no backoff here.
func (c *Client) waitUntilActive(ctx context.Context, handle fileHandle) (fileHandle, error) {
	for handle.State == fileStateProcessing {
		select {
		case <-ctx.Done():
			return fileHandle{}, fmt.Errorf("%w: wait for file processing: %v", util.ErrExtraction, ctx.Err())
		case <-time.After(c.pollInterval):
		}
		var err error
		handle, err = c.getFile(ctx, handle.Name)
		if err != nil {
			return fileHandle{}, err
		}
	}
	if handle.State == fileStateFailed {
		return fileHandle{}, fmt.Errorf("%w: backend file processing failed for %s", util.ErrExtraction, handle.Name)
	}
	return handle, nil
}

func (c *Client) getFile(ctx context.Context, name string) (fileHandle, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1beta/"+name, nil)
	if err != nil {
		return fileHandle{}, fmt.Errorf("%w: build file status request: %v", util.ErrExtraction, err)
	}
	req.Header.Set("x-goog-api-key", c.apiKey)
	resp, err := c.client.Do(req)
	if err != nil {
		return fileHandle{}, fmt.Errorf("%w: get file status: %v", util.ErrExtraction, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		return fileHandle{}, fmt.Errorf("%w: file status error %d: %s", util.ErrExtraction, resp.StatusCode, string(body))
	}
	var handle fileHandle
	if err := json.Unmarshal(body, &handle); err != nil {
		return fileHandle{}, fmt.Errorf("%w: decode file status: %v", util.ErrExtraction, err)
	}
	return handle, nil
}

func (c *Client) deleteFile(ctx context.Context, name string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/v1beta/"+name, nil)
	if err != nil {
		return err
	}
	req.Header.Set("x-goog-api-key", c.apiKey)
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func (c *Client) generateContent(ctx context.Context, fileURI, prompt string, schema *Schema) (string, error) {
	payload, err := json.Marshal(map[string]any{
		"contents": []map[string]any{{
			"parts": []map[string]any{
				{"file_data": map[string]string{"mime_type": "application/pdf", "file_uri": fileURI}},
				{"text": prompt},
			},
		}},
		"generationConfig": map[string]any{
			"response_mime_type": "application/json",
			"response_schema":    schema,
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: encode generate request: %v", util.ErrExtraction, err)
	}
	url := c.baseURL + "/v1beta/models/" + c.model + ":generateContent"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("%w: build generate request: %v", util.ErrExtraction, err)
	}
	req.Header.Set("x-goog-api-key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: generate content: %v", util.ErrExtraction, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("%w: generate error %d: %s", util.ErrExtraction, resp.StatusCode, string(body))
	}
	var parsed struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("%w: decode generate response: %v", util.ErrExtraction, err)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("%w: generate returned no candidates", util.ErrExtraction)
	}
	return parsed.Candidates[0].Content.Parts[0].Text, nil
}

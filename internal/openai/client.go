package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"
)

// Client talks to the provider's assistants API: threads, runs, files and
// vector stores. Every call is fallible and returns an *APIError carrying
// the provider payload on non-2xx responses.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func New(apiKey, baseURL string) *Client {
	return &Client{
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 90 * time.Second},
	}
}

func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("OpenAI-Beta", "assistants=v2")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return parseAPIError(resp.StatusCode, respBody)
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("parse response: %w", err)
		}
	}
	return nil
}

func parseAPIError(status int, body []byte) error {
	var wrapper struct {
		Error APIError `json:"error"`
	}
	apiErr := APIError{StatusCode: status, Message: string(body)}
	if err := json.Unmarshal(body, &wrapper); err == nil && wrapper.Error.Message != "" {
		apiErr = wrapper.Error
		apiErr.StatusCode = status
	}
	return &apiErr
}

// --- Assistants ---

func (c *Client) RetrieveAssistant(ctx context.Context, assistantID string) (*Assistant, error) {
	var a Assistant
	if err := c.do(ctx, http.MethodGet, "/assistants/"+assistantID, nil, &a); err != nil {
		return nil, fmt.Errorf("retrieve assistant: %w", err)
	}
	return &a, nil
}

func (c *Client) UpdateAssistant(ctx context.Context, assistantID string, req *UpdateAssistantRequest) (*Assistant, error) {
	var a Assistant
	if err := c.do(ctx, http.MethodPost, "/assistants/"+assistantID, req, &a); err != nil {
		return nil, fmt.Errorf("update assistant: %w", err)
	}
	return &a, nil
}

// --- Threads & messages ---

func (c *Client) CreateThread(ctx context.Context) (*Thread, error) {
	var t Thread
	if err := c.do(ctx, http.MethodPost, "/threads", struct{}{}, &t); err != nil {
		return nil, fmt.Errorf("create thread: %w", err)
	}
	return &t, nil
}

func (c *Client) RetrieveThread(ctx context.Context, threadID string) (*Thread, error) {
	var t Thread
	if err := c.do(ctx, http.MethodGet, "/threads/"+threadID, nil, &t); err != nil {
		return nil, fmt.Errorf("retrieve thread: %w", err)
	}
	return &t, nil
}

func (c *Client) CreateMessage(ctx context.Context, threadID string, req *CreateMessageRequest) (*ThreadMessage, error) {
	var m ThreadMessage
	if err := c.do(ctx, http.MethodPost, "/threads/"+threadID+"/messages", req, &m); err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}
	return &m, nil
}

// ListMessages returns up to limit newest-first messages on the thread.
func (c *Client) ListMessages(ctx context.Context, threadID string, limit int) (*MessageList, error) {
	q := url.Values{}
	q.Set("order", "desc")
	if limit > 0 {
		q.Set("limit", fmt.Sprintf("%d", limit))
	}
	var list MessageList
	if err := c.do(ctx, http.MethodGet, "/threads/"+threadID+"/messages?"+q.Encode(), nil, &list); err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return &list, nil
}

// --- Runs ---

func (c *Client) CreateRun(ctx context.Context, threadID string, req *CreateRunRequest) (*Run, error) {
	var r Run
	if err := c.do(ctx, http.MethodPost, "/threads/"+threadID+"/runs", req, &r); err != nil {
		return nil, fmt.Errorf("create run: %w", err)
	}
	return &r, nil
}

func (c *Client) RetrieveRun(ctx context.Context, threadID, runID string) (*Run, error) {
	var r Run
	if err := c.do(ctx, http.MethodGet, "/threads/"+threadID+"/runs/"+runID, nil, &r); err != nil {
		return nil, fmt.Errorf("retrieve run: %w", err)
	}
	return &r, nil
}

func (c *Client) CancelRun(ctx context.Context, threadID, runID string) (*Run, error) {
	var r Run
	if err := c.do(ctx, http.MethodPost, "/threads/"+threadID+"/runs/"+runID+"/cancel", struct{}{}, &r); err != nil {
		return nil, fmt.Errorf("cancel run: %w", err)
	}
	return &r, nil
}

// --- Files ---

// UploadFile uploads raw bytes with purpose "assistants" so the file id can
// be referenced from a thread message.
func (c *Client) UploadFile(ctx context.Context, filename string, data io.Reader) (*File, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("purpose", "assistants"); err != nil {
		return nil, fmt.Errorf("write purpose field: %w", err)
	}
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, data); err != nil {
		return nil, fmt.Errorf("copy file data: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/files", &buf)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upload file: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, parseAPIError(resp.StatusCode, respBody)
	}

	var f File
	if err := json.Unmarshal(respBody, &f); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	return &f, nil
}

// --- Vector stores ---

func (c *Client) CreateVectorStore(ctx context.Context, req *CreateVectorStoreRequest) (*VectorStore, error) {
	var vs VectorStore
	if err := c.do(ctx, http.MethodPost, "/vector_stores", req, &vs); err != nil {
		return nil, fmt.Errorf("create vector store: %w", err)
	}
	return &vs, nil
}

func (c *Client) RetrieveVectorStore(ctx context.Context, vectorStoreID string) (*VectorStore, error) {
	var vs VectorStore
	if err := c.do(ctx, http.MethodGet, "/vector_stores/"+vectorStoreID, nil, &vs); err != nil {
		return nil, fmt.Errorf("retrieve vector store: %w", err)
	}
	return &vs, nil
}

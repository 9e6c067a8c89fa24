package actions

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"showrunner/internal/pipeline"
)

const userAgent = "Showrunner/0.1.0"

// backendClient posts JSON job requests to a compute backend and waits
// for the structured result. The backend call is synchronous from the
// action's point of view; the dispatcher already runs actions detached.
type backendClient struct {
	client  *http.Client
	timeout time.Duration
}

func newBackendClient(timeoutSeconds int) *backendClient {
	timeout := time.Duration(timeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	return &backendClient{
		client:  &http.Client{Timeout: timeout},
		timeout: timeout,
	}
}

type jobRequest struct {
	Kind      string `json:"kind"`
	ProjectID int64  `json:"project_id"`
	EntityID  int64  `json:"entity_id"`
	Phase     string `json:"phase"`
}

type jobResponse struct {
	Status string `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// post submits a job and fails unless the backend reports an accepted or
// completed status.
func (b *backendClient) post(ctx context.Context, baseURL, operation string, req jobRequest) error {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return pipeline.Wrap(pipeline.ErrExternalTool, "actions", operation, "backend not configured", nil)
	}

	body, err := json.Marshal(req)
	if err != nil {
		return pipeline.Wrap(pipeline.ErrExternalTool, "actions", operation, "encode request", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(callCtx, http.MethodPost, strings.TrimRight(baseURL, "/")+"/jobs", bytes.NewReader(body))
	if err != nil {
		return pipeline.Wrap(pipeline.ErrExternalTool, "actions", operation, "build request", err)
	}
	httpReq.Header.Set("User-Agent", userAgent)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(httpReq)
	if err != nil {
		return pipeline.Wrap(pipeline.ErrExternalTool, "actions", operation, "backend call", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return pipeline.Wrap(pipeline.ErrExternalTool, "actions", operation,
			fmt.Sprintf("backend returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet))), nil)
	}

	var result jobResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&result); err != nil {
		return pipeline.Wrap(pipeline.ErrExternalTool, "actions", operation, "decode response", err)
	}
	switch strings.ToLower(strings.TrimSpace(result.Status)) {
	case "ok", "accepted", "completed", "queued":
		return nil
	default:
		detail := strings.TrimSpace(result.Detail)
		if detail == "" {
			detail = "backend rejected job"
		}
		return pipeline.Wrap(pipeline.ErrExternalTool, "actions", operation, detail, nil)
	}
}

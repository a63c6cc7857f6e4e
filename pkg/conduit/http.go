package conduit

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	json "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/bench-ai/workbench-go/api/wire"
	"github.com/bench-ai/workbench-go/internal/config"
)

// HTTPConduit is the HTTP transport: the run document is posted as a
// multipart file upload to <base_url>/run, mirroring what `agent run <path>`
// reads from disk.
type HTTPConduit struct {
	baseURL string
	client  *http.Client
	log     *zap.Logger
}

// NewHTTP returns an HTTPConduit for cfg.BaseURL.
func NewHTTP(cfg config.AgentConfig, log *zap.Logger) *HTTPConduit {
	if log == nil {
		log = zap.NewNop()
	}
	return &HTTPConduit{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		client:  &http.Client{Timeout: cfg.HTTPTimeout},
		log:     log.Named("conduit.http").With(zap.String("base_url", cfg.BaseURL)),
	}
}

// Run posts the run document and returns the agent's textual output. A
// non-200 status carries the agent's message in the response body.
func (c *HTTPConduit) Run(ctx context.Context, doc wire.RunDocument) (string, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("marshaling run document: %w", err)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "config.json")
	if err != nil {
		return "", fmt.Errorf("building multipart body: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("building multipart body: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("building multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/run", &body)
	if err != nil {
		return "", fmt.Errorf("building run request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	c.log.Debug("dispatching batch run over http",
		zap.String("session_id", doc.SessionID),
		zap.Int("operation_count", len(doc.Operations)))

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("posting run document: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading agent response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", &AgentError{Op: "run", Body: string(respBody)}
	}
	return string(respBody), nil
}

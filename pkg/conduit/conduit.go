// Package conduit dispatches batch run documents to the external agent and
// wraps its session-management surface. Two transports exist: the agent
// executable as a subprocess, and an HTTP endpoint exposing the same run
// contract.
package conduit

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"strings"

	json "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/bench-ai/workbench-go/api/wire"
	"github.com/bench-ai/workbench-go/internal/config"
)

// versionPrefix is how a healthy agent executable identifies itself.
const versionPrefix = "Version"

// AgentError reports a failure surfaced by the agent itself: its stderr for
// the subprocess transport, the response body for HTTP. The agent signals
// batch failure through non-empty stderr, not through its exit code.
type AgentError struct {
	Op   string
	Body string
}

func (e *AgentError) Error() string {
	return fmt.Sprintf("agent %s failed: %s", e.Op, strings.TrimSpace(e.Body))
}

// Runner executes one agent invocation and returns its separated output
// streams. The real implementation shells out; tests substitute fakes.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr string, err error)
}

// Conduit is the subprocess transport.
type Conduit struct {
	agentPath string
	runner    Runner
	log       *zap.Logger
}

// New returns a Conduit invoking the executable named by cfg.Path.
func New(cfg config.AgentConfig, log *zap.Logger) *Conduit {
	return NewWithRunner(cfg.Path, execRunner{}, log)
}

// NewWithRunner returns a Conduit with a caller-supplied Runner.
func NewWithRunner(agentPath string, runner Runner, log *zap.Logger) *Conduit {
	if log == nil {
		log = zap.NewNop()
	}
	return &Conduit{
		agentPath: agentPath,
		runner:    runner,
		log:       log.Named("conduit").With(zap.String("agent_path", agentPath)),
	}
}

// invoke runs one agent subcommand and applies the stderr failure contract.
func (c *Conduit) invoke(ctx context.Context, op string, args ...string) (string, error) {
	stdout, stderr, err := c.runner.Run(ctx, c.agentPath, args...)
	if err != nil {
		return "", fmt.Errorf("invoking agent %s: %w", op, err)
	}
	if stderr != "" {
		return "", &AgentError{Op: op, Body: stderr}
	}
	return stdout, nil
}

// Run serializes the document to a temporary file and executes
// `agent run <path>`, returning the agent's textual output.
func (c *Conduit) Run(ctx context.Context, doc wire.RunDocument) (string, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("marshaling run document: %w", err)
	}

	f, err := os.CreateTemp("", "workbench-run-*.json")
	if err != nil {
		return "", fmt.Errorf("creating run config file: %w", err)
	}
	defer os.Remove(f.Name())

	if _, err := f.Write(data); err != nil {
		f.Close()
		return "", fmt.Errorf("writing run config file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("writing run config file: %w", err)
	}

	c.log.Debug("dispatching batch run",
		zap.String("session_id", doc.SessionID),
		zap.Int("operation_count", len(doc.Operations)))
	return c.invoke(ctx, "run", "run", f.Name())
}

// RunBase64 executes `agent run -b <blob>` with the document inlined as a
// base64 argument, avoiding the temporary file.
func (c *Conduit) RunBase64(ctx context.Context, doc wire.RunDocument) (string, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("marshaling run document: %w", err)
	}
	blob := base64.StdEncoding.EncodeToString(data)
	return c.invoke(ctx, "run", "run", "-b", blob)
}

// Version reports the agent's version string. Anything not starting with
// "Version" means the executable on the path is not the agent.
func (c *Conduit) Version(ctx context.Context) (string, error) {
	out, err := c.invoke(ctx, "version", "version")
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(out, versionPrefix) {
		return "", fmt.Errorf("executable %s is not the agent: unexpected version output %q",
			c.agentPath, strings.TrimSpace(out))
	}
	return strings.TrimSpace(out), nil
}

// ListSessions returns the ids of the sessions the agent knows about.
func (c *Conduit) ListSessions(ctx context.Context) ([]string, error) {
	out, err := c.invoke(ctx, "session ls", "session", "ls")
	if err != nil {
		return nil, err
	}
	return parseSessionList(out), nil
}

// RemoveSession deletes one stored session.
func (c *Conduit) RemoveSession(ctx context.Context, sessionID string) error {
	_, err := c.invoke(ctx, "session rm", "session", "rm", sessionID)
	return err
}

// RemoveAll deletes every stored session.
func (c *Conduit) RemoveAll(ctx context.Context) error {
	_, err := c.invoke(ctx, "session rm", "session", "rm", "-rf")
	return err
}

// parseSessionList decodes the agent's bracketed, comma-separated session
// listing. The format is plain text, not JSON; a lone empty element means no
// sessions exist.
func parseSessionList(out string) []string {
	trimmed := strings.TrimSpace(out)
	trimmed = strings.TrimPrefix(trimmed, "[")
	trimmed = strings.TrimSuffix(trimmed, "]")

	var ids []string
	for _, part := range strings.Split(trimmed, ",") {
		id := strings.Trim(strings.TrimSpace(part), `"'`)
		if id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

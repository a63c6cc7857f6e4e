// Package liveproto implements the file-based request/response protocol used
// by live sessions. The client is the sole writer of the commands/ directory
// and the sole reader of responses/; the external agent sits on the other
// side of both.
package liveproto

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	json "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/bench-ai/workbench-go/api/wire"
	"github.com/bench-ai/workbench-go/internal/paths"
)

var (
	// ErrSessionNotStarted means the agent has not yet created the commands/
	// directory; publishing before that is a client bug and fails fast.
	ErrSessionNotStarted = errors.New("live session has not started")
	// ErrSessionClosed means the exit marker exists; no further commands are
	// accepted.
	ErrSessionClosed = errors.New("live session has already exited")
	// ErrAwaitTimeout means no success or error marker appeared within the
	// command lifetime.
	ErrAwaitTimeout = errors.New("timed out waiting for agent response")
)

// Marker file names the agent writes per command.
const (
	successMarker  = "success.txt"
	errMarker      = "err.txt"
	completionFile = "completion.json"
)

// CommandError carries the agent-reported failure message from err.txt.
type CommandError struct {
	Message string
}

func (e *CommandError) Error() string {
	return "agent command failed: " + e.Message
}

// Publisher publishes command files into one live session and awaits the
// agent's response markers.
type Publisher struct {
	ws           paths.Workspace
	sessionID    string
	pollInterval time.Duration
	awaitTimeout time.Duration
	log          *zap.Logger
}

// NewPublisher returns a Publisher for one session. awaitTimeout bounds every
// Await call; pollInterval paces the marker polling.
func NewPublisher(ws paths.Workspace, sessionID string, pollInterval, awaitTimeout time.Duration, log *zap.Logger) *Publisher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Publisher{
		ws:           ws,
		sessionID:    sessionID,
		pollInterval: pollInterval,
		awaitTimeout: awaitTimeout,
		log:          log.Named("liveproto"),
	}
}

// Started reports whether the agent has created the session's commands/
// directory. The transition is detected, never caused, by this client.
func (p *Publisher) Started() bool {
	info, err := os.Stat(p.ws.CommandsDir(p.sessionID))
	return err == nil && info.IsDir()
}

// Exited reports whether the agent has written the session exit marker.
func (p *Publisher) Exited() bool {
	_, err := os.Stat(p.ws.ExitMarker(p.sessionID))
	return err == nil
}

// Publish atomically writes doc as a new command file and returns its id.
// The body is first written under a .tmp name and then renamed; the agent
// only picks up .json files, so it can never observe a partial write.
func (p *Publisher) Publish(doc any) (string, error) {
	if !p.Started() {
		return "", ErrSessionNotStarted
	}
	if p.Exited() {
		return "", ErrSessionClosed
	}

	uid := uuid.NewString()
	if err := p.writeCommandFile(uid, doc); err != nil {
		return "", err
	}

	p.log.Debug("published live command",
		zap.String("session_id", p.sessionID),
		zap.String("command_id", uid))
	return uid, nil
}

// PublishExit writes the exit command signaling the agent to terminate the
// session. Safe to call after exit; it reports ErrSessionClosed which callers
// treat as already done.
func (p *Publisher) PublishExit() (string, error) {
	return p.Publish(wire.ExitDoc{Type: wire.TypeExit})
}

func (p *Publisher) writeCommandFile(uid string, doc any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshaling command document: %w", err)
	}

	dir := p.ws.CommandsDir(p.sessionID)
	tmp := filepath.Join(dir, uid+".json.tmp")
	final := filepath.Join(dir, uid+".json")

	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing command file: %w", err)
	}
	// The rename is the publish: the agent only reads *.json.
	if err := os.Rename(tmp, final); err != nil {
		return fmt.Errorf("publishing command file: %w", err)
	}
	return nil
}

// Await polls the command's response directory until the agent drops a
// success or error marker. It honors ctx cancellation and gives up after the
// configured await timeout.
func (p *Publisher) Await(ctx context.Context, uid string) error {
	responseDir := p.ws.ResponseDir(p.sessionID, uid)
	deadline := time.Now().Add(p.awaitTimeout)

	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		if msg, failed := p.checkError(responseDir); failed {
			return &CommandError{Message: msg}
		}
		if fileExists(filepath.Join(responseDir, successMarker)) {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("command %s: %w", uid, ErrAwaitTimeout)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Completion decodes the command's completion.json payload into v.
func (p *Publisher) Completion(uid string, v any) error {
	path := filepath.Join(p.ws.ResponseDir(p.sessionID, uid), completionFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading completion payload: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decoding completion payload: %w", err)
	}
	return nil
}

func (p *Publisher) checkError(responseDir string) (string, bool) {
	data, err := os.ReadFile(filepath.Join(responseDir, errMarker))
	if err != nil {
		return "", false
	}
	return string(data), true
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

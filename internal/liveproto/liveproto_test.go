package liveproto

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bench-ai/workbench-go/api/wire"
	"github.com/bench-ai/workbench-go/internal/paths"
)

const testSession = "sess-1"

func newTestPublisher(t *testing.T) (*Publisher, paths.Workspace) {
	t.Helper()
	ws := paths.New(t.TempDir())
	return NewPublisher(ws, testSession, 5*time.Millisecond, 250*time.Millisecond, nil), ws
}

// startSession simulates the agent creating the command channel.
func startSession(t *testing.T, ws paths.Workspace) {
	t.Helper()
	require.NoError(t, os.MkdirAll(ws.CommandsDir(testSession), 0o755))
	require.NoError(t, os.MkdirAll(ws.ResponsesDir(testSession), 0o755))
}

func TestPublish_BeforeStart(t *testing.T) {
	t.Parallel()
	p, _ := newTestPublisher(t)

	_, err := p.Publish(wire.ExitDoc{Type: wire.TypeExit})
	require.ErrorIs(t, err, ErrSessionNotStarted)
}

func TestPublish_AfterExit(t *testing.T) {
	t.Parallel()
	p, ws := newTestPublisher(t)
	startSession(t, ws)
	require.NoError(t, os.WriteFile(ws.ExitMarker(testSession), nil, 0o644))

	_, err := p.Publish(wire.ExitDoc{Type: wire.TypeExit})
	require.ErrorIs(t, err, ErrSessionClosed)
}

// TestPublish_Atomic verifies the rename is the only producer of the final
// .json name: after publish the command file exists complete and no .tmp
// residue remains.
func TestPublish_Atomic(t *testing.T) {
	t.Parallel()
	p, ws := newTestPublisher(t)
	startSession(t, ws)

	uid, err := p.Publish(wire.LiveCommandDoc{Type: wire.TypeBrowser})
	require.NoError(t, err)

	final := filepath.Join(ws.CommandsDir(testSession), uid+".json")
	data, err := os.ReadFile(final)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"browser","command_list":null}`, string(data))

	entries, err := os.ReadDir(ws.CommandsDir(testSession))
	require.NoError(t, err)
	for _, e := range entries {
		assert.Equal(t, ".json", filepath.Ext(e.Name()))
	}
}

func TestAwait_Success(t *testing.T) {
	t.Parallel()
	p, ws := newTestPublisher(t)
	startSession(t, ws)

	uid, err := p.Publish(wire.LiveCommandDoc{Type: wire.TypeBrowser})
	require.NoError(t, err)

	respDir := ws.ResponseDir(testSession, uid)
	require.NoError(t, os.MkdirAll(respDir, 0o755))

	go func() {
		time.Sleep(20 * time.Millisecond)
		os.WriteFile(filepath.Join(respDir, "success.txt"), nil, 0o644)
	}()

	require.NoError(t, p.Await(context.Background(), uid))
}

func TestAwait_AgentError(t *testing.T) {
	t.Parallel()
	p, ws := newTestPublisher(t)
	startSession(t, ws)

	uid, err := p.Publish(wire.LiveCommandDoc{Type: wire.TypeBrowser})
	require.NoError(t, err)

	respDir := ws.ResponseDir(testSession, uid)
	require.NoError(t, os.MkdirAll(respDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(respDir, "err.txt"), []byte("element not found"), 0o644))

	err = p.Await(context.Background(), uid)
	var cmdErr *CommandError
	require.ErrorAs(t, err, &cmdErr)
	assert.Equal(t, "element not found", cmdErr.Message)
}

// TestAwait_Deadline verifies the poll loop is bounded: with no markers the
// call gives up after the configured await timeout instead of hanging.
func TestAwait_Deadline(t *testing.T) {
	t.Parallel()
	ws := paths.New(t.TempDir())
	p := NewPublisher(ws, testSession, 5*time.Millisecond, 30*time.Millisecond, nil)
	startSession(t, ws)

	start := time.Now()
	err := p.Await(context.Background(), "no-such-command")
	require.ErrorIs(t, err, ErrAwaitTimeout)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestAwait_ContextCancel(t *testing.T) {
	t.Parallel()
	p, ws := newTestPublisher(t)
	startSession(t, ws)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := p.Await(ctx, "no-such-command")
	require.ErrorIs(t, err, context.Canceled)
}

func TestCompletion(t *testing.T) {
	t.Parallel()
	p, ws := newTestPublisher(t)
	startSession(t, ws)

	respDir := ws.ResponseDir(testSession, "cmd-1")
	require.NoError(t, os.MkdirAll(respDir, 0o755))
	payload := `{"message_list":[{"message_type":"assistant","message":{"role":"assistant","content":"done"}}]}`
	require.NoError(t, os.WriteFile(filepath.Join(respDir, "completion.json"), []byte(payload), 0o644))

	var doc wire.CompletionDoc
	require.NoError(t, p.Completion("cmd-1", &doc))
	require.Len(t, doc.MessageList, 1)
	assert.Equal(t, "assistant", doc.MessageList[0].MessageType)
}

func TestPublishExit(t *testing.T) {
	t.Parallel()
	p, ws := newTestPublisher(t)
	startSession(t, ws)

	uid, err := p.PublishExit()
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(ws.CommandsDir(testSession), uid+".json"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"exit"}`, string(data))
}

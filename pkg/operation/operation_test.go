package operation_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	json "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bench-ai/workbench-go/internal/liveproto"
	"github.com/bench-ai/workbench-go/internal/paths"
	"github.com/bench-ai/workbench-go/pkg/command"
	"github.com/bench-ai/workbench-go/pkg/operation"
)

const testSessionID = "op-test-session"

func batchBinding(t *testing.T) operation.Binding {
	t.Helper()
	return operation.Binding{
		SaveRoot:  t.TempDir(),
		SessionID: testSessionID,
	}
}

// TestBrowserOperation_Doc pins the full batch wire shape for a three-command
// operation.
func TestBrowserOperation_Doc(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	op, err := operation.NewBrowser(batchBinding(t), false, 0)
	require.NoError(t, err)

	_, err = op.AddNavigate(ctx, "https://example.com")
	require.NoError(t, err)
	_, err = op.AddSleep(ctx, 2)
	require.NoError(t, err)
	_, err = op.AddSaveHTML(ctx, "s1")
	require.NoError(t, err)

	doc, err := op.Doc()
	require.NoError(t, err)
	data, err := json.Marshal(doc)
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"type": "browser",
		"settings": {"headless": false},
		"command_list": [
			{"command_name": "open_web_page", "params": {"url": "https://example.com"}},
			{"command_name": "sleep", "params": {"seconds": 2}},
			{"command_name": "save_html", "params": {"snapshot_name": "s1"}}
		]
	}`, string(data))
}

func TestOperation_TypeGuard(t *testing.T) {
	t.Parallel()

	browserOp, err := operation.NewBrowser(batchBinding(t), false, 0)
	require.NoError(t, err)
	err = browserOp.Append(command.NewStandard("user", "hi"))
	require.ErrorIs(t, err, operation.ErrTypeMismatch)
	assert.Zero(t, browserOp.Len())

	llmOp, err := operation.NewLLM(batchBinding(t), operation.LLMConfig{})
	require.NoError(t, err)
	err = llmOp.Append(command.NewSleep(1))
	require.ErrorIs(t, err, operation.ErrTypeMismatch)
	assert.Zero(t, llmOp.Len())
}

func TestOperation_TimeoutRange(t *testing.T) {
	t.Parallel()

	_, err := operation.NewBrowser(batchBinding(t), false, 40000)
	require.ErrorIs(t, err, operation.ErrTimeoutRange)

	_, err = operation.NewBrowser(batchBinding(t), false, -1)
	require.ErrorIs(t, err, operation.ErrTimeoutRange)

	op, err := operation.NewBrowser(batchBinding(t), true, 120)
	require.NoError(t, err)
	assert.Equal(t, 120, op.Settings()["timeout"])
}

// Timeout zero means unset and is omitted from the settings map.
func TestOperation_TimeoutOmittedWhenUnset(t *testing.T) {
	t.Parallel()

	op, err := operation.NewBrowser(batchBinding(t), true, 0)
	require.NoError(t, err)
	_, ok := op.Settings()["timeout"]
	assert.False(t, ok)
}

// Appending a file-producing command through an operation binds its artifact
// paths to the session workspace.
func TestBrowserOperation_BindsArtifacts(t *testing.T) {
	t.Parallel()
	bind := batchBinding(t)

	op, err := operation.NewBrowser(bind, false, 0)
	require.NoError(t, err)

	shot, err := op.AddFullPageScreenshot(context.Background(), 80, "f.png", "n1")
	require.NoError(t, err)

	want := filepath.Join(bind.SaveRoot, "agent", "sessions", testSessionID,
		"snapshots", "n1", "images", "f.png")
	assert.Equal(t, want, shot.FilePath())
}

func TestBrowserOperation_IterateRejectedLive(t *testing.T) {
	t.Parallel()
	bind := batchBinding(t)
	bind.Live = true
	bind.Publisher = liveproto.NewPublisher(
		paths.New(bind.SaveRoot), testSessionID, time.Millisecond, time.Second, nil)

	op, err := operation.NewBrowser(bind, false, 0)
	require.NoError(t, err)

	_, err = op.AddIterateHTML(command.IterateConfig{IterateLimit: 2})
	require.ErrorIs(t, err, operation.ErrIterateLive)
}

// Live dispatch publishes one single-command document and blocks on the
// response marker; the command is not recorded in the batch list.
func TestBrowserOperation_LiveDispatch(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	ws := paths.New(root)

	commandsDir := ws.CommandsDir(testSessionID)
	require.NoError(t, os.MkdirAll(commandsDir, 0o755))

	bind := operation.Binding{
		SaveRoot:  root,
		SessionID: testSessionID,
		Live:      true,
		Publisher: liveproto.NewPublisher(ws, testSessionID, 5*time.Millisecond, time.Second, nil),
	}
	op, err := operation.NewBrowser(bind, false, 0)
	require.NoError(t, err)

	// Answer the command as the agent would.
	go func() {
		for i := 0; i < 200; i++ {
			entries, _ := os.ReadDir(commandsDir)
			for _, e := range entries {
				// The agent only picks up *.json; skip in-flight .tmp files.
				if filepath.Ext(e.Name()) != ".json" {
					continue
				}
				uid := e.Name()[:len(e.Name())-len(".json")]
				respDir := ws.ResponseDir(testSessionID, uid)
				os.MkdirAll(respDir, 0o755)
				os.WriteFile(filepath.Join(respDir, "success.txt"), nil, 0o644)
				return
			}
			time.Sleep(5 * time.Millisecond)
		}
	}()

	_, err = op.AddNavigate(context.Background(), "https://example.com")
	require.NoError(t, err)

	// Live commands already ran; they are not queued for a batch run.
	assert.Zero(t, op.Len())

	entries, err := os.ReadDir(commandsDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	data, err := os.ReadFile(filepath.Join(commandsDir, entries[0].Name()))
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"type": "browser",
		"command_list": [{"command_name": "open_web_page", "params": {"url": "https://example.com"}}]
	}`, string(data))
}

func TestLLMOperation_Settings(t *testing.T) {
	t.Parallel()

	provider, err := operation.NewOpenAISettings("sk-test", "gpt-4o", 0.2)
	require.NoError(t, err)

	op, err := operation.NewLLM(batchBinding(t), operation.LLMConfig{
		TryLimit:     3,
		Timeout:      60,
		MaxTokens:    512,
		WorkflowType: "chat",
		Providers:    []operation.ProviderSettings{provider},
	})
	require.NoError(t, err)

	settings := op.Settings()
	assert.Equal(t, 3, settings["try_limit"])
	assert.Equal(t, 512, settings["max_tokens"])
	assert.Equal(t, "chat", settings["workflow_type"])
	assert.Equal(t, 60, settings["timeout"])

	providers, ok := settings["llm_settings"].([]map[string]any)
	require.True(t, ok)
	require.Len(t, providers, 1)
	assert.Equal(t, map[string]any{
		"name":        "OpenAI",
		"api_key":     "sk-test",
		"model":       "gpt-4o",
		"temperature": 0.2,
	}, providers[0])
}

func TestLLMOperation_ExecuteRequiresLive(t *testing.T) {
	t.Parallel()

	op, err := operation.NewLLM(batchBinding(t), operation.LLMConfig{})
	require.NoError(t, err)

	_, err = op.Execute(context.Background())
	require.ErrorIs(t, err, operation.ErrNotLive)
}

// TestLLMOperation_ExecuteLive runs the full RPC: publish the conversation,
// wait for the marker, and fold the assistant reply back into history.
func TestLLMOperation_ExecuteLive(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	ws := paths.New(root)

	commandsDir := ws.CommandsDir(testSessionID)
	require.NoError(t, os.MkdirAll(commandsDir, 0o755))

	bind := operation.Binding{
		SaveRoot:  root,
		SessionID: testSessionID,
		Live:      true,
		Publisher: liveproto.NewPublisher(ws, testSessionID, 5*time.Millisecond, time.Second, nil),
	}
	op, err := operation.NewLLM(bind, operation.LLMConfig{TryLimit: 1, MaxTokens: 64, WorkflowType: "chat"})
	require.NoError(t, err)
	_, err = op.AddStandard("user", "hello")
	require.NoError(t, err)

	go func() {
		for i := 0; i < 200; i++ {
			entries, _ := os.ReadDir(commandsDir)
			for _, e := range entries {
				// The agent only picks up *.json; skip in-flight .tmp files.
				if filepath.Ext(e.Name()) != ".json" {
					continue
				}
				uid := e.Name()[:len(e.Name())-len(".json")]
				respDir := ws.ResponseDir(testSessionID, uid)
				os.MkdirAll(respDir, 0o755)
				completion := `{"message_list":[
					{"message_type":"standard","message":{"role":"user","content":"hello"}},
					{"message_type":"assistant","message":{"role":"assistant","content":"hi there"}}
				]}`
				os.WriteFile(filepath.Join(respDir, "completion.json"), []byte(completion), 0o644)
				os.WriteFile(filepath.Join(respDir, "success.txt"), nil, 0o644)
				return
			}
			time.Sleep(5 * time.Millisecond)
		}
	}()

	reply, err := op.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "assistant", reply.Role)
	assert.Equal(t, "hi there", reply.Content)

	// The reply joins the conversation history.
	assert.Equal(t, 2, op.Len())
}

func TestProviderSettings_Validation(t *testing.T) {
	t.Parallel()

	_, err := operation.NewLLMSettings("", "key")
	require.ErrorIs(t, err, operation.ErrProviderSettings)
	_, err = operation.NewLLMSettings("Gemini", "")
	require.ErrorIs(t, err, operation.ErrProviderSettings)

	s, err := operation.NewLLMSettings("Gemini", "key")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"name": "Gemini", "api_key": "key"}, s.Doc())

	_, err = operation.NewOpenAISettings("key", "", 1.0)
	require.ErrorIs(t, err, operation.ErrProviderSettings)
}

func TestProviderSettingsFromDoc(t *testing.T) {
	t.Parallel()

	p, err := operation.ProviderSettingsFromDoc(map[string]any{
		"name": "OpenAI", "api_key": "k", "model": "gpt-4o", "temperature": 0.7,
	})
	require.NoError(t, err)
	openai, ok := p.(operation.OpenAISettings)
	require.True(t, ok)
	assert.Equal(t, "gpt-4o", openai.Model)
	assert.Equal(t, 0.7, openai.Temperature)

	p, err = operation.ProviderSettingsFromDoc(map[string]any{"name": "Gemini", "api_key": "k"})
	require.NoError(t, err)
	_, ok = p.(operation.LLMSettings)
	assert.True(t, ok)
}

package command_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	json "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bench-ai/workbench-go/pkg/command"
)

// TestMarshal_BrowserWire pins the exact envelope shape per browser variant.
func TestMarshal_BrowserWire(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		cmd  command.Command
		want string
	}{
		{
			"navigate",
			command.NewNavigate("https://example.com"),
			`{"command_name":"open_web_page","params":{"url":"https://example.com"}}`,
		},
		{
			"sleep",
			command.NewSleep(2),
			`{"command_name":"sleep","params":{"seconds":2}}`,
		},
		{
			"click",
			command.NewClick("//button[1]", "xpath"),
			`{"command_name":"click","params":{"selector":"//button[1]","query_type":"xpath"}}`,
		},
		{
			"full page screenshot",
			command.NewFullPageScreenshot(90, "shot.png", "s1"),
			`{"command_name":"full_page_screenshot","params":{"quality":90,"name":"shot.png","snapshot_name":"s1"}}`,
		},
		{
			"element screenshot",
			command.NewElementScreenshot(2, "//div[1]", "el.png", "s1"),
			`{"command_name":"element_screenshot","params":{"scale":2,"name":"el.png","selector":"//div[1]","snapshot_name":"s1"}}`,
		},
		{
			"collect nodes",
			command.NewCollectNodes("body", "s1", true, true, false, true),
			`{"command_name":"collect_nodes","params":{"wait_ready":true,"selector":"body","snapshot_name":"s1","recurse":true,"prepopulate":false,"get_styles":true}}`,
		},
		{
			"save html",
			command.NewSaveHTML("s1"),
			`{"command_name":"save_html","params":{"snapshot_name":"s1"}}`,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			data, err := command.Marshal(tc.cmd)
			require.NoError(t, err)
			assert.JSONEq(t, tc.want, string(data))
		})
	}
}

// TestRoundTrip_Browser decodes each marshaled command and re-marshals it,
// asserting byte-for-byte wire stability.
func TestRoundTrip_Browser(t *testing.T) {
	t.Parallel()

	commands := []command.Command{
		command.NewNavigate("https://example.com/a?b=c"),
		command.NewSleep(10),
		command.NewClick("#submit", "css"),
		command.NewFullPageScreenshot(50, "full.png", "snap"),
		command.NewElementScreenshot(1, "//img", "el.png", "snap"),
		command.NewCollectNodes("main", "snap", false, true, true, false),
		command.NewSaveHTML("snap"),
		command.NewIterateHTML(command.IterateConfig{
			IterateLimit: 3,
			SaveHTML:     true,
			SaveNodes:    true,
		}),
	}

	for _, c := range commands {
		c := c
		t.Run(c.Name(), func(t *testing.T) {
			t.Parallel()

			first, err := command.Marshal(c)
			require.NoError(t, err)

			decoded, err := command.UnmarshalBrowser(first)
			require.NoError(t, err)
			require.Equal(t, c.Name(), decoded.Name())
			require.Equal(t, command.KindBrowser, decoded.Kind())

			second, err := command.Marshal(decoded)
			require.NoError(t, err)
			assert.JSONEq(t, string(first), string(second))
		})
	}
}

func TestRoundTrip_LLM(t *testing.T) {
	t.Parallel()

	multi := command.NewMultimodal("user")
	require.NoError(t, multi.AddContent("text", "hi"))
	require.NoError(t, multi.AddContent("image_url", "http://x/y.png"))

	commands := []command.Command{
		command.NewStandard("user", "describe the page"),
		multi,
		command.NewAssistant("assistant", "done"),
		command.NewAssistantWithToolCalls("assistant", "", json.RawMessage(`[{"id":"call_1"}]`)),
		command.NewTool(json.RawMessage(`{"tool_call_id":"call_1","content":"ok"}`)),
	}

	for _, c := range commands {
		c := c
		t.Run(c.Name(), func(t *testing.T) {
			t.Parallel()

			first, err := command.Marshal(c)
			require.NoError(t, err)

			decoded, err := command.UnmarshalLLM(first)
			require.NoError(t, err)
			require.Equal(t, command.KindLLM, decoded.Kind())

			second, err := command.Marshal(decoded)
			require.NoError(t, err)
			assert.JSONEq(t, string(first), string(second))
		})
	}
}

func TestUnmarshal_UnknownTags(t *testing.T) {
	t.Parallel()

	_, err := command.UnmarshalBrowser([]byte(`{"command_name":"teleport","params":{}}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "teleport")

	_, err = command.UnmarshalLLM([]byte(`{"message_type":"oracle","message":{}}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "oracle")
}

// TestMultimodal_ContentOrder pins the ordered two-part content shape.
func TestMultimodal_ContentOrder(t *testing.T) {
	t.Parallel()

	c := command.NewMultimodal("user")
	require.NoError(t, c.AddContent("text", "hi"))
	require.NoError(t, c.AddContent("image_url", "http://x/y.png"))

	data, err := command.Marshal(c)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"message_type": "multimodal",
		"message": {
			"role": "user",
			"content": [
				{"type": "text", "text": "hi"},
				{"type": "image_url", "image_url": {"url": "http://x/y.png"}}
			]
		}
	}`, string(data))
}

func TestMultimodal_InvalidContentType(t *testing.T) {
	t.Parallel()

	c := command.NewMultimodal("user")
	err := c.AddContent("video", "http://x/y.mp4")
	require.ErrorIs(t, err, command.ErrInvalidContentType)
	assert.Empty(t, c.Content)
}

func TestMultimodal_AddContentBase64(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	img := filepath.Join(dir, "shot.png")
	require.NoError(t, os.WriteFile(img, []byte{0x89, 0x50, 0x4e, 0x47}, 0o644))

	c := command.NewMultimodal("user")
	require.NoError(t, c.AddContentBase64("image_url", img))
	require.Len(t, c.Content, 1)
	assert.True(t, strings.HasPrefix(c.Content[0].ImageURL.URL, "data:image/png;base64,"))

	err := c.AddContentBase64("image_url", filepath.Join(dir, "missing.png"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestStandard_Mutators(t *testing.T) {
	t.Parallel()

	c := command.NewStandard("user", "first")
	c.SetRole("system")
	c.SetContent("second")

	data, err := command.Marshal(c)
	require.NoError(t, err)
	assert.JSONEq(t, `{"message_type":"standard","message":{"role":"system","content":"second"}}`, string(data))
}

func TestAssistant_ToolCallsOmittedWhenAbsent(t *testing.T) {
	t.Parallel()

	data, err := command.Marshal(command.NewAssistant("assistant", "hello"))
	require.NoError(t, err)
	assert.NotContains(t, string(data), "tool_calls")

	data, err = command.Marshal(command.NewAssistantWithToolCalls("assistant", "", json.RawMessage(`[]`)))
	require.NoError(t, err)
	assert.Contains(t, string(data), "tool_calls")
}

func TestNode_Tag(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		node    command.Node
		want    string
		wantErr bool
	}{
		{"plain element", command.Node{XPath: "/html/body/div", Type: "Element"}, "div", false},
		{"indexed element", command.Node{XPath: "/html/body/div[2]", Type: "Element"}, "div", false},
		{"text node", command.Node{XPath: "/html/body/div/text()", Type: "Text"}, "", true},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := tc.node.Tag()
			if tc.wantErr {
				require.ErrorIs(t, err, command.ErrNotElement)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

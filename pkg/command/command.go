// Package command defines the atomic units executed by the external agent: one
// browser action or one LLM conversation message per command. Every variant
// round-trips through its canonical wire shape; see the wire package for the
// envelope contract.
package command

import (
	"errors"
	"fmt"

	json "github.com/json-iterator/go"

	"github.com/bench-ai/workbench-go/api/wire"
	"github.com/bench-ai/workbench-go/internal/paths"
)

// Kind separates the two command families. An operation only accepts commands
// of its own kind.
type Kind string

const (
	KindBrowser Kind = "browser"
	KindLLM     Kind = "llm"
)

// Browser command names as the agent dispatches them.
const (
	NameNavigate           = "open_web_page"
	NameFullPageScreenshot = "full_page_screenshot"
	NameElementScreenshot  = "element_screenshot"
	NameCollectNodes       = "collect_nodes"
	NameSaveHTML           = "save_html"
	NameSleep              = "sleep"
	NameClick              = "click"
	NameIterateHTML        = "iterate_html"
)

// LLM message types as the agent dispatches them.
const (
	NameStandard   = "standard"
	NameMultimodal = "multimodal"
	NameAssistant  = "assistant"
	NameTool       = "tool"
)

var (
	// ErrInvalidContentType rejects multimodal parts that are neither text nor
	// image references.
	ErrInvalidContentType = errors.New(`content type must be "text" or "image_url"`)
	// ErrNotBound is returned by artifact accessors before the command has been
	// registered on a session-bound operation.
	ErrNotBound = errors.New("command is not bound to a session workspace")
	// ErrNotElement is returned by Node.Tag for non-element nodes.
	ErrNotElement = errors.New("only nodes of type Element have a tag")
)

// Command is one unit of agent work.
type Command interface {
	// Kind reports the command family.
	Kind() Kind
	// Name is the wire dispatch tag: command_name for browser commands,
	// message_type for LLM commands.
	Name() string

	// payload yields the params/message body for serialization. Keeping it
	// unexported closes the set of variants to this package.
	payload() any
}

// FileCommand is implemented by browser commands whose execution produces an
// artifact at a derived path.
type FileCommand interface {
	Command
	FilePath() string
	Exists() bool
}

// Marshal serializes a command into its canonical envelope. Browser commands
// yield {"command_name", "params"}; LLM commands yield
// {"message_type", "message"}.
func Marshal(c Command) ([]byte, error) {
	body, err := json.Marshal(c.payload())
	if err != nil {
		return nil, fmt.Errorf("marshaling %s payload: %w", c.Name(), err)
	}

	switch c.Kind() {
	case KindBrowser:
		return json.Marshal(wire.BrowserEnvelope{CommandName: c.Name(), Params: body})
	case KindLLM:
		return json.Marshal(wire.LLMEnvelope{MessageType: c.Name(), Message: body})
	default:
		return nil, fmt.Errorf("unknown command kind %q", c.Kind())
	}
}

// UnmarshalBrowser decodes one browser envelope into its concrete variant.
// The command set is closed; unknown names are rejected.
func UnmarshalBrowser(data []byte) (Command, error) {
	var env wire.BrowserEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decoding browser envelope: %w", err)
	}

	var c Command
	switch env.CommandName {
	case NameNavigate:
		c = &Navigate{}
	case NameFullPageScreenshot:
		c = &FullPageScreenshot{}
	case NameElementScreenshot:
		c = &ElementScreenshot{}
	case NameCollectNodes:
		c = &CollectNodes{}
	case NameSaveHTML:
		c = &SaveHTML{}
	case NameSleep:
		c = &Sleep{}
	case NameClick:
		c = &Click{}
	case NameIterateHTML:
		c = &IterateHTML{}
	default:
		return nil, fmt.Errorf("%q is not a valid browser command", env.CommandName)
	}

	if err := json.Unmarshal(env.Params, c); err != nil {
		return nil, fmt.Errorf("decoding %s params: %w", env.CommandName, err)
	}
	return c, nil
}

// UnmarshalLLM decodes one LLM envelope into its concrete variant.
func UnmarshalLLM(data []byte) (Command, error) {
	var env wire.LLMEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decoding llm envelope: %w", err)
	}

	switch env.MessageType {
	case NameStandard:
		c := &Standard{}
		if err := json.Unmarshal(env.Message, c); err != nil {
			return nil, fmt.Errorf("decoding standard message: %w", err)
		}
		return c, nil
	case NameMultimodal:
		c := &Multimodal{}
		if err := json.Unmarshal(env.Message, c); err != nil {
			return nil, fmt.Errorf("decoding multimodal message: %w", err)
		}
		return c, nil
	case NameAssistant:
		c := &Assistant{}
		if err := json.Unmarshal(env.Message, c); err != nil {
			return nil, fmt.Errorf("decoding assistant message: %w", err)
		}
		return c, nil
	case NameTool:
		return NewTool(append(json.RawMessage(nil), env.Message...)), nil
	default:
		return nil, fmt.Errorf("%q is not a valid llm message type", env.MessageType)
	}
}

// binding ties a file-producing command to the session workspace it will
// execute in. It carries no wire fields; Bind is called by the owning
// operation when the command is registered.
type binding struct {
	ws        paths.Workspace
	sessionID string
	bound     bool
}

// Bind attaches the command to a save root and session id so artifact paths
// can be derived.
func (b *binding) Bind(saveRoot, sessionID string) {
	b.ws = paths.New(saveRoot)
	b.sessionID = sessionID
	b.bound = true
}

func (b *binding) require() error {
	if !b.bound {
		return ErrNotBound
	}
	return nil
}

package operation

import (
	"context"
	"fmt"

	json "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/bench-ai/workbench-go/api/wire"
	"github.com/bench-ai/workbench-go/pkg/command"
)

// LLMConfig carries the model-routing settings for one LLM operation.
// TryLimit and Timeout are passed through to the agent; no retries happen on
// this side.
type LLMConfig struct {
	TryLimit     int
	Timeout      int
	MaxTokens    int
	WorkflowType string
	Providers    []ProviderSettings
}

// LLMOperation batches conversation messages for the agent's model loop. In
// live sessions Execute runs the whole conversation as one synchronous RPC.
type LLMOperation struct {
	Operation
	tryLimit     int
	maxTokens    int
	workflowType string
	providers    []ProviderSettings
}

// NewLLM creates an empty LLM operation bound to a session.
func NewLLM(bind Binding, cfg LLMConfig) (*LLMOperation, error) {
	base, err := newOperation(command.KindLLM, cfg.Timeout, bind)
	if err != nil {
		return nil, err
	}
	return &LLMOperation{
		Operation:    base,
		tryLimit:     cfg.TryLimit,
		maxTokens:    cfg.MaxTokens,
		workflowType: cfg.WorkflowType,
		providers:    cfg.Providers,
	}, nil
}

// Providers returns the configured provider settings in order.
func (o *LLMOperation) Providers() []ProviderSettings {
	out := make([]ProviderSettings, len(o.providers))
	copy(out, o.providers)
	return out
}

// Settings returns the operation's wire settings map.
func (o *LLMOperation) Settings() map[string]any {
	providers := make([]map[string]any, 0, len(o.providers))
	for _, p := range o.providers {
		providers = append(providers, p.Doc())
	}

	settings := o.baseSettings()
	settings["try_limit"] = o.tryLimit
	settings["max_tokens"] = o.maxTokens
	settings["workflow_type"] = o.workflowType
	settings["llm_settings"] = providers
	return settings
}

// Doc returns the operation's wire document.
func (o *LLMOperation) Doc() (wire.OperationDoc, error) {
	return o.doc(o.Settings())
}

// AddStandard appends a plain-text conversation message.
func (o *LLMOperation) AddStandard(role, content string) (*command.Standard, error) {
	c := command.NewStandard(role, content)
	return c, o.Append(c)
}

// AddMultimodal appends an empty multimodal message; populate it with
// AddContent / AddContentBase64 before dispatch.
func (o *LLMOperation) AddMultimodal(role string) (*command.Multimodal, error) {
	c := command.NewMultimodal(role)
	return c, o.Append(c)
}

// AddAssistant appends a prior assistant turn to the conversation.
func (o *LLMOperation) AddAssistant(role, content string) (*command.Assistant, error) {
	c := command.NewAssistant(role, content)
	return c, o.Append(c)
}

// AddResponse appends an assistant reply obtained from a previous Execute.
func (o *LLMOperation) AddResponse(c *command.Assistant) error {
	return o.Append(c)
}

// assistantMessage is the completion payload shape for one assistant turn.
type assistantMessage struct {
	Role      string          `json:"role"`
	Content   string          `json:"content"`
	ToolCalls json.RawMessage `json:"tool_calls"`
}

// Execute sends the whole conversation to the live agent and blocks until the
// model answers. The final assistant turn is appended to this operation's
// history and returned, so the next Execute continues the conversation.
func (o *LLMOperation) Execute(ctx context.Context) (*command.Assistant, error) {
	if !o.bind.Live {
		return nil, ErrNotLive
	}

	doc, err := o.Doc()
	if err != nil {
		return nil, err
	}

	uid, err := o.bind.Publisher.Publish(doc)
	if err != nil {
		return nil, err
	}
	o.log.Debug("dispatched llm conversation",
		zap.String("command_id", uid),
		zap.Int("message_count", o.Len()))

	if err := o.bind.Publisher.Await(ctx, uid); err != nil {
		return nil, err
	}

	var completion wire.CompletionDoc
	if err := o.bind.Publisher.Completion(uid, &completion); err != nil {
		return nil, err
	}
	if len(completion.MessageList) == 0 {
		return nil, fmt.Errorf("completion for command %s has no messages", uid)
	}

	var msg assistantMessage
	last := completion.MessageList[len(completion.MessageList)-1]
	if err := json.Unmarshal(last.Message, &msg); err != nil {
		return nil, fmt.Errorf("decoding assistant reply: %w", err)
	}

	reply := command.NewAssistantWithToolCalls(msg.Role, msg.Content, msg.ToolCalls)
	if err := o.Append(reply); err != nil {
		return nil, err
	}
	return reply, nil
}

// Package operation groups commands into the ordered, homogeneously-typed
// batches the external agent executes. A browser operation drives page
// automation; an LLM operation drives a model conversation. In live sessions
// the operation doubles as the command channel into the running agent.
package operation

import (
	"context"
	"errors"
	"fmt"

	json "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/bench-ai/workbench-go/api/wire"
	"github.com/bench-ai/workbench-go/internal/liveproto"
	"github.com/bench-ai/workbench-go/pkg/command"
)

// Operation timeouts ride a smallint field on the agent side.
const maxTimeout = 32767

var (
	// ErrTypeMismatch rejects appending a command to an operation of the other
	// family.
	ErrTypeMismatch = errors.New("command kind does not match operation kind")
	// ErrTimeoutRange rejects timeouts outside 0..32767.
	ErrTimeoutRange = errors.New("timeout must be between 0 and 32767")
	// ErrNotLive rejects live-only calls on batch operations.
	ErrNotLive = errors.New("operation is not part of a live session")
	// ErrIterateLive rejects iterate_html in live sessions; its snapshot
	// bookkeeping only exists for batch runs.
	ErrIterateLive = errors.New("iterate_html cannot run in a live session")
)

// Binding carries the session context an operation needs: where artifacts
// land, which session it belongs to, and (live only) the publisher used to
// hand commands to the running agent.
type Binding struct {
	SaveRoot  string
	SessionID string
	Live      bool
	Publisher *liveproto.Publisher
	Log       *zap.Logger
}

// binder is implemented by commands whose artifact paths derive from the
// session workspace.
type binder interface {
	Bind(saveRoot, sessionID string)
}

// Operation is the shared core of both kinds: an ordered, append-only command
// list plus the optional timeout. Zero timeout means unset.
type Operation struct {
	kind     command.Kind
	timeout  int
	commands []command.Command

	bind Binding
	log  *zap.Logger
}

func newOperation(kind command.Kind, timeout int, bind Binding) (Operation, error) {
	if timeout < 0 || timeout > maxTimeout {
		return Operation{}, fmt.Errorf("%w, got %d", ErrTimeoutRange, timeout)
	}
	log := bind.Log
	if log == nil {
		log = zap.NewNop()
	}
	return Operation{
		kind:    kind,
		timeout: timeout,
		bind:    bind,
		log: log.Named("operation").With(
			zap.String("session_id", bind.SessionID),
			zap.String("operation_type", string(kind))),
	}, nil
}

// Kind reports the command family this operation accepts.
func (o *Operation) Kind() command.Kind { return o.kind }

// SessionID is the owning session's identifier.
func (o *Operation) SessionID() string { return o.bind.SessionID }

// Live reports whether the operation talks to a running agent.
func (o *Operation) Live() bool { return o.bind.Live }

// Timeout is the optional execution budget passed through to the agent; zero
// means unset.
func (o *Operation) Timeout() int { return o.timeout }

// Len is the number of appended commands.
func (o *Operation) Len() int { return len(o.commands) }

// Commands returns the appended commands in insertion order. The slice is a
// copy; the operation owns its list.
func (o *Operation) Commands() []command.Command {
	out := make([]command.Command, len(o.commands))
	copy(out, o.commands)
	return out
}

// Append adds a command, preserving insertion order. Insertion order is the
// execution order the agent follows.
func (o *Operation) Append(c command.Command) error {
	if c.Kind() != o.kind {
		return fmt.Errorf("%w: cannot append %s command to %s operation",
			ErrTypeMismatch, c.Kind(), o.kind)
	}
	if b, ok := c.(binder); ok {
		b.Bind(o.bind.SaveRoot, o.bind.SessionID)
	}
	o.commands = append(o.commands, c)
	return nil
}

// baseSettings is the kind-independent part of the settings map.
func (o *Operation) baseSettings() map[string]any {
	settings := map[string]any{}
	if o.timeout != 0 {
		settings["timeout"] = o.timeout
	}
	return settings
}

// doc assembles the wire shape using the kind-specific settings map.
func (o *Operation) doc(settings map[string]any) (wire.OperationDoc, error) {
	list := make([]json.RawMessage, 0, len(o.commands))
	for _, c := range o.commands {
		data, err := command.Marshal(c)
		if err != nil {
			return wire.OperationDoc{}, err
		}
		list = append(list, data)
	}
	return wire.OperationDoc{
		Type:        string(o.kind),
		Settings:    settings,
		CommandList: list,
	}, nil
}

// dispatch publishes a single-command document to the live agent and blocks
// until the agent drops a success or error marker for it.
func (o *Operation) dispatch(ctx context.Context, c command.Command) error {
	data, err := command.Marshal(c)
	if err != nil {
		return err
	}

	uid, err := o.bind.Publisher.Publish(wire.LiveCommandDoc{
		Type:        string(o.kind),
		CommandList: []json.RawMessage{data},
	})
	if err != nil {
		return err
	}

	o.log.Debug("dispatched live command",
		zap.String("command_name", c.Name()),
		zap.String("command_id", uid))
	return o.bind.Publisher.Await(ctx, uid)
}

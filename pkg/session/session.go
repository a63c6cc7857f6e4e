// Package session owns the root aggregate of a workbench run: a session
// identifier, its ordered operations, and the live-session lifecycle. A batch
// session only builds the run document; a live session additionally talks to
// a running agent through the filesystem protocol.
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	json "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/bench-ai/workbench-go/api/wire"
	"github.com/bench-ai/workbench-go/internal/config"
	"github.com/bench-ai/workbench-go/internal/liveproto"
	"github.com/bench-ai/workbench-go/internal/paths"
	"github.com/bench-ai/workbench-go/pkg/command"
	"github.com/bench-ai/workbench-go/pkg/operation"
)

var (
	// ErrLifetimes rejects sessions whose command lifetime is non-positive or
	// exceeds the session lifetime.
	ErrLifetimes = errors.New("command lifetime must be > 0 and <= session lifetime")
	// ErrNotLive rejects live-only calls on batch sessions.
	ErrNotLive = errors.New("session is not live")
	// ErrUnknownOperationType rejects run documents carrying an operation type
	// outside the closed browser/llm set.
	ErrUnknownOperationType = errors.New("unknown operation type")
)

// Op is the common surface of the two operation kinds as the session sees
// them.
type Op interface {
	Kind() command.Kind
	Doc() (wire.OperationDoc, error)
}

// Config describes a new session. Zero lifetimes and an empty save root fall
// back to the package defaults; an empty ID means "generate one".
type Config struct {
	ID              string
	Live            bool
	Headless        bool
	SessionLifetime int
	CommandLifetime int
	SaveRoot        string

	PollInterval time.Duration
	Log          *zap.Logger
}

// Session is the root aggregate. It exclusively owns its operations; each
// operation exclusively owns its commands.
type Session struct {
	id              string
	live            bool
	headless        bool
	sessionLifetime int
	commandLifetime int

	ws  paths.Workspace
	pub *liveproto.Publisher
	log *zap.Logger

	operations []Op
}

// New validates cfg and creates an empty session.
func New(cfg Config) (*Session, error) {
	defaults := config.NewDefaultConfig().Session
	if cfg.SessionLifetime == 0 {
		cfg.SessionLifetime = defaults.SessionLifetime
	}
	if cfg.CommandLifetime == 0 {
		cfg.CommandLifetime = defaults.CommandLifetime
	}
	if cfg.SaveRoot == "" {
		cfg.SaveRoot = defaults.SaveRoot
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = defaults.PollInterval
	}
	if cfg.Log == nil {
		cfg.Log = zap.NewNop()
	}

	if cfg.CommandLifetime <= 0 || cfg.CommandLifetime > cfg.SessionLifetime {
		return nil, fmt.Errorf("%w: command=%d session=%d",
			ErrLifetimes, cfg.CommandLifetime, cfg.SessionLifetime)
	}

	if cfg.ID == "" {
		cfg.ID = uuid.NewString()
	}

	s := &Session{
		id:              cfg.ID,
		live:            cfg.Live,
		headless:        cfg.Headless,
		sessionLifetime: cfg.SessionLifetime,
		commandLifetime: cfg.CommandLifetime,
		ws:              paths.New(cfg.SaveRoot),
		log:             cfg.Log.Named("session").With(zap.String("session_id", cfg.ID)),
	}
	if cfg.Live {
		awaitTimeout := time.Duration(cfg.CommandLifetime) * time.Millisecond
		s.pub = liveproto.NewPublisher(s.ws, cfg.ID, cfg.PollInterval, awaitTimeout, cfg.Log)
	}
	return s, nil
}

// ID is the session identifier.
func (s *Session) ID() string { return s.id }

// Live reports whether the session talks to a running agent.
func (s *Session) Live() bool { return s.live }

// Headless reports the browser window preference for this session.
func (s *Session) Headless() bool { return s.headless }

// SessionLifetime is the session budget in milliseconds.
func (s *Session) SessionLifetime() int { return s.sessionLifetime }

// CommandLifetime is the per-command budget in milliseconds.
func (s *Session) CommandLifetime() int { return s.commandLifetime }

// Operations returns the registered operations in creation order.
func (s *Session) Operations() []Op {
	out := make([]Op, len(s.operations))
	copy(out, s.operations)
	return out
}

func (s *Session) binding() operation.Binding {
	return operation.Binding{
		SaveRoot:  s.ws.Root(),
		SessionID: s.id,
		Live:      s.live,
		Publisher: s.pub,
		Log:       s.log,
	}
}

// NewBrowserOperation creates, registers, and returns an empty browser
// operation bound to this session. Populate it through its Add* builders.
func (s *Session) NewBrowserOperation(headless bool, timeout int) (*operation.BrowserOperation, error) {
	op, err := operation.NewBrowser(s.binding(), headless, timeout)
	if err != nil {
		return nil, err
	}
	s.operations = append(s.operations, op)
	return op, nil
}

// NewLLMOperation creates, registers, and returns an empty LLM operation
// bound to this session.
func (s *Session) NewLLMOperation(cfg operation.LLMConfig) (*operation.LLMOperation, error) {
	op, err := operation.NewLLM(s.binding(), cfg)
	if err != nil {
		return nil, err
	}
	s.operations = append(s.operations, op)
	return op, nil
}

// Doc assembles the batch run document the agent consumes.
func (s *Session) Doc() (wire.RunDocument, error) {
	ops := make([]wire.OperationDoc, 0, len(s.operations))
	for _, op := range s.operations {
		doc, err := op.Doc()
		if err != nil {
			return wire.RunDocument{}, err
		}
		ops = append(ops, doc)
	}
	return wire.RunDocument{SessionID: s.id, Operations: ops}, nil
}

// JSON serializes the run document.
func (s *Session) JSON() ([]byte, error) {
	doc, err := s.Doc()
	if err != nil {
		return nil, err
	}
	return json.Marshal(doc)
}

// Started reports whether the agent has created this session's command
// channel. Only meaningful for live sessions.
func (s *Session) Started() (bool, error) {
	if !s.live {
		return false, ErrNotLive
	}
	return s.pub.Started(), nil
}

// Exited reports whether the agent has terminated this session.
func (s *Session) Exited() (bool, error) {
	if !s.live {
		return false, ErrNotLive
	}
	return s.pub.Exited(), nil
}

// EndLive signals the agent to terminate the session. Idempotent: ending an
// already-exited session is a no-op.
func (s *Session) EndLive() error {
	if !s.live {
		return ErrNotLive
	}
	_, err := s.pub.PublishExit()
	if errors.Is(err, liveproto.ErrSessionClosed) {
		return nil
	}
	if err != nil {
		return err
	}
	s.log.Info("published live session exit")
	return nil
}

package session

import (
	"fmt"

	json "github.com/json-iterator/go"

	"github.com/bench-ai/workbench-go/api/wire"
	"github.com/bench-ai/workbench-go/pkg/command"
	"github.com/bench-ai/workbench-go/pkg/operation"
)

// Load reconstructs a session from a persisted run document. The document's
// session id wins over cfg.ID; everything else (lifetimes, save root, live
// flag) comes from cfg. Operations are rebuilt in document order through the
// same registration path a fresh session uses, so a Load followed by Doc
// reproduces the input.
func Load(data []byte, cfg Config) (*Session, error) {
	var doc wire.RunDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding run document: %w", err)
	}
	return LoadDoc(doc, cfg)
}

// LoadDoc is Load for an already-decoded run document.
func LoadDoc(doc wire.RunDocument, cfg Config) (*Session, error) {
	cfg.ID = doc.SessionID
	s, err := New(cfg)
	if err != nil {
		return nil, err
	}

	for i, opDoc := range doc.Operations {
		switch opDoc.Type {
		case wire.TypeBrowser:
			err = s.loadBrowserOperation(opDoc)
		case wire.TypeLLM:
			err = s.loadLLMOperation(opDoc)
		default:
			err = fmt.Errorf("%w: %q", ErrUnknownOperationType, opDoc.Type)
		}
		if err != nil {
			return nil, fmt.Errorf("operation %d: %w", i, err)
		}
	}
	return s, nil
}

func (s *Session) loadBrowserOperation(doc wire.OperationDoc) error {
	headless, _ := doc.Settings["headless"].(bool)
	op, err := s.NewBrowserOperation(headless, settingsTimeout(doc.Settings))
	if err != nil {
		return err
	}

	for _, raw := range doc.CommandList {
		c, err := command.UnmarshalBrowser(raw)
		if err != nil {
			return err
		}
		if err := op.Append(c); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) loadLLMOperation(doc wire.OperationDoc) error {
	cfg := operation.LLMConfig{
		TryLimit:  settingsInt(doc.Settings, "try_limit"),
		Timeout:   settingsTimeout(doc.Settings),
		MaxTokens: settingsInt(doc.Settings, "max_tokens"),
	}
	cfg.WorkflowType, _ = doc.Settings["workflow_type"].(string)

	if entries, ok := doc.Settings["llm_settings"].([]any); ok {
		for _, entry := range entries {
			m, ok := entry.(map[string]any)
			if !ok {
				return fmt.Errorf("llm_settings entry is not an object")
			}
			p, err := operation.ProviderSettingsFromDoc(m)
			if err != nil {
				return err
			}
			cfg.Providers = append(cfg.Providers, p)
		}
	}

	op, err := s.NewLLMOperation(cfg)
	if err != nil {
		return err
	}

	for _, raw := range doc.CommandList {
		c, err := command.UnmarshalLLM(raw)
		if err != nil {
			return err
		}
		if err := op.Append(c); err != nil {
			return err
		}
	}
	return nil
}

func settingsTimeout(settings map[string]any) int {
	return settingsInt(settings, "timeout")
}

// settingsInt reads a numeric settings key; JSON numbers decode as float64.
func settingsInt(settings map[string]any, key string) int {
	if f, ok := settings[key].(float64); ok {
		return int(f)
	}
	if n, ok := settings[key].(int); ok {
		return n
	}
	return 0
}

package operation

import (
	"errors"
	"fmt"
)

// ProviderSettings describes one LLM provider configuration the agent may
// route requests to. Implementations marshal flat into the operation's
// llm_settings list.
type ProviderSettings interface {
	// ProviderName identifies the provider ("OpenAI", "Gemini", ...).
	ProviderName() string
	// Doc returns the flat wire map for this provider.
	Doc() map[string]any
}

// ErrProviderSettings rejects incomplete provider configurations.
var ErrProviderSettings = errors.New("invalid provider settings")

// LLMSettings is the generic provider configuration: a provider name and the
// key used to reach its API.
type LLMSettings struct {
	Name   string
	APIKey string
}

// NewLLMSettings validates and returns a generic provider configuration.
func NewLLMSettings(name, apiKey string) (LLMSettings, error) {
	if name == "" {
		return LLMSettings{}, fmt.Errorf("%w: name must not be empty", ErrProviderSettings)
	}
	if apiKey == "" {
		return LLMSettings{}, fmt.Errorf("%w: api key must not be empty", ErrProviderSettings)
	}
	return LLMSettings{Name: name, APIKey: apiKey}, nil
}

func (s LLMSettings) ProviderName() string { return s.Name }

func (s LLMSettings) Doc() map[string]any {
	return map[string]any{
		"name":    s.Name,
		"api_key": s.APIKey,
	}
}

// OpenAISettings configures an OpenAI-shaped provider. The schema is closed:
// exactly these fields reach the wire.
type OpenAISettings struct {
	APIKey      string
	Model       string
	Temperature float64
}

// NewOpenAISettings validates and returns an OpenAI provider configuration.
func NewOpenAISettings(apiKey, model string, temperature float64) (OpenAISettings, error) {
	if apiKey == "" {
		return OpenAISettings{}, fmt.Errorf("%w: api key must not be empty", ErrProviderSettings)
	}
	if model == "" {
		return OpenAISettings{}, fmt.Errorf("%w: model must not be empty", ErrProviderSettings)
	}
	return OpenAISettings{APIKey: apiKey, Model: model, Temperature: temperature}, nil
}

func (s OpenAISettings) ProviderName() string { return "OpenAI" }

func (s OpenAISettings) Doc() map[string]any {
	return map[string]any{
		"name":        s.ProviderName(),
		"api_key":     s.APIKey,
		"model":       s.Model,
		"temperature": s.Temperature,
	}
}

// ProviderSettingsFromDoc reconstructs provider settings from a persisted
// llm_settings entry. OpenAI entries carrying a model round-trip into
// OpenAISettings; everything else becomes generic LLMSettings.
func ProviderSettingsFromDoc(doc map[string]any) (ProviderSettings, error) {
	name, _ := doc["name"].(string)
	apiKey, _ := doc["api_key"].(string)

	if model, ok := doc["model"].(string); ok && name == "OpenAI" {
		temperature, _ := doc["temperature"].(float64)
		return NewOpenAISettings(apiKey, model, temperature)
	}
	return NewLLMSettings(name, apiKey)
}

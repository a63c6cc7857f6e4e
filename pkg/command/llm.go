package command

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	json "github.com/json-iterator/go"
)

// ContentPart is one ordered element of a multimodal message body.
type ContentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageRef `json:"image_url,omitempty"`
}

// ImageRef wraps an image location the way providers expect it.
type ImageRef struct {
	URL string `json:"url"`
}

// Standard is a plain text conversation message.
type Standard struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// NewStandard returns a standard message with the given role and content.
func NewStandard(role, content string) *Standard {
	return &Standard{Role: role, Content: content}
}

func (c *Standard) Kind() Kind   { return KindLLM }
func (c *Standard) Name() string { return NameStandard }
func (c *Standard) payload() any { return c }

// SetRole replaces the message role.
func (c *Standard) SetRole(role string) { c.Role = role }

// SetContent replaces the message content.
func (c *Standard) SetContent(content string) { c.Content = content }

// Multimodal is a conversation message mixing text and image parts. Parts keep
// insertion order on the wire.
type Multimodal struct {
	Role    string        `json:"role"`
	Content []ContentPart `json:"content"`
}

// NewMultimodal returns an empty multimodal message for the given role.
func NewMultimodal(role string) *Multimodal {
	return &Multimodal{Role: role, Content: []ContentPart{}}
}

func (c *Multimodal) Kind() Kind   { return KindLLM }
func (c *Multimodal) Name() string { return NameMultimodal }
func (c *Multimodal) payload() any { return c }

// SetRole replaces the message role.
func (c *Multimodal) SetRole(role string) { c.Role = role }

// AddContent appends one part. partType must be "text" or "image_url"; for
// image parts the value is the image location.
func (c *Multimodal) AddContent(partType, value string) error {
	switch partType {
	case "text":
		c.Content = append(c.Content, ContentPart{Type: partType, Text: value})
	case "image_url":
		c.Content = append(c.Content, ContentPart{Type: partType, ImageURL: &ImageRef{URL: value}})
	default:
		return ErrInvalidContentType
	}
	return nil
}

// AddContentBase64 reads a local image file and appends it as a data URI
// image part. Fails if the file cannot be read.
func (c *Multimodal) AddContentBase64(partType, imagePath string) error {
	if partType != "image_url" {
		return ErrInvalidContentType
	}

	data, err := os.ReadFile(imagePath)
	if err != nil {
		return fmt.Errorf("reading image file: %w", err)
	}

	format := strings.TrimPrefix(filepath.Ext(imagePath), ".")
	if format == "" {
		format = "png"
	}
	uri := fmt.Sprintf("data:image/%s;base64,%s", format, base64.StdEncoding.EncodeToString(data))

	c.Content = append(c.Content, ContentPart{Type: partType, ImageURL: &ImageRef{URL: uri}})
	return nil
}

// Assistant is a model reply in the conversation history. ToolCalls carries
// the provider's raw tool-call list when present.
type Assistant struct {
	Role      string          `json:"role"`
	Content   string          `json:"content"`
	ToolCalls json.RawMessage `json:"tool_calls,omitempty"`
}

// NewAssistant returns an assistant message.
func NewAssistant(role, content string) *Assistant {
	return &Assistant{Role: role, Content: content}
}

// NewAssistantWithToolCalls returns an assistant message carrying the raw
// tool-call payload alongside the content.
func NewAssistantWithToolCalls(role, content string, toolCalls json.RawMessage) *Assistant {
	return &Assistant{Role: role, Content: content, ToolCalls: toolCalls}
}

func (c *Assistant) Kind() Kind   { return KindLLM }
func (c *Assistant) Name() string { return NameAssistant }
func (c *Assistant) payload() any { return c }

// Tool is an opaque tool message passed through to the provider unmodified.
type Tool struct {
	Message json.RawMessage
}

// NewTool wraps a raw tool message.
func NewTool(message json.RawMessage) *Tool {
	return &Tool{Message: message}
}

func (c *Tool) Kind() Kind   { return KindLLM }
func (c *Tool) Name() string { return NameTool }
func (c *Tool) payload() any { return c.Message }

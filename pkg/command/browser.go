package command

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	json "github.com/json-iterator/go"

	"github.com/bench-ai/workbench-go/api/wire"
)

// Artifact file names the agent writes for node and HTML captures.
const (
	nodeDataFile = "nodeData.json"
	htmlBodyFile = "body.txt"
)

// Navigate points the browser at a URL.
type Navigate struct {
	URL string `json:"url"`
}

// NewNavigate returns a navigate command for the given URL.
func NewNavigate(url string) *Navigate {
	return &Navigate{URL: url}
}

func (c *Navigate) Kind() Kind   { return KindBrowser }
func (c *Navigate) Name() string { return NameNavigate }
func (c *Navigate) payload() any { return c }

// Sleep pauses the browser for a number of seconds.
type Sleep struct {
	Seconds int `json:"seconds"`
}

// NewSleep returns a sleep command.
func NewSleep(seconds int) *Sleep {
	return &Sleep{Seconds: seconds}
}

func (c *Sleep) Kind() Kind   { return KindBrowser }
func (c *Sleep) Name() string { return NameSleep }
func (c *Sleep) payload() any { return c }

// Click activates the element matched by the selector. QueryType states how
// the selector is interpreted, e.g. "x_path".
type Click struct {
	Selector  string `json:"selector"`
	QueryType string `json:"query_type"`
}

// NewClick returns a click command.
func NewClick(selector, queryType string) *Click {
	return &Click{Selector: selector, QueryType: queryType}
}

func (c *Click) Kind() Kind   { return KindBrowser }
func (c *Click) Name() string { return NameClick }
func (c *Click) payload() any { return c }

// FullPageScreenshot captures the whole page into
// snapshots/<snapshot>/images/<name>. Quality scales JPEG quality upward.
type FullPageScreenshot struct {
	Quality      int    `json:"quality"`
	FileName     string `json:"name"`
	SnapshotName string `json:"snapshot_name"`

	binding
}

// NewFullPageScreenshot returns a full page screenshot command.
func NewFullPageScreenshot(quality int, name, snapshotName string) *FullPageScreenshot {
	return &FullPageScreenshot{Quality: quality, FileName: name, SnapshotName: snapshotName}
}

func (c *FullPageScreenshot) Kind() Kind   { return KindBrowser }
func (c *FullPageScreenshot) Name() string { return NameFullPageScreenshot }
func (c *FullPageScreenshot) payload() any { return c }

// FilePath is the derived artifact location; empty until bound.
func (c *FullPageScreenshot) FilePath() string {
	if !c.bound {
		return ""
	}
	return filepath.Join(c.ws.ImagesDir(c.sessionID, c.SnapshotName), c.FileName)
}

// Exists probes the filesystem for the artifact.
func (c *FullPageScreenshot) Exists() bool { return fileExists(c.FilePath()) }

// Image reads the screenshot bytes, failing with a not-found error until the
// agent has produced them.
func (c *FullPageScreenshot) Image() ([]byte, error) {
	if err := c.require(); err != nil {
		return nil, err
	}
	return readArtifact(c.FilePath())
}

// ElementScreenshot captures a single element selected by XPath. Scale trades
// size for quality.
type ElementScreenshot struct {
	Scale        int    `json:"scale"`
	FileName     string `json:"name"`
	Selector     string `json:"selector"`
	SnapshotName string `json:"snapshot_name"`

	binding
}

// NewElementScreenshot returns an element screenshot command.
func NewElementScreenshot(scale int, selector, name, snapshotName string) *ElementScreenshot {
	return &ElementScreenshot{Scale: scale, FileName: name, Selector: selector, SnapshotName: snapshotName}
}

func (c *ElementScreenshot) Kind() Kind   { return KindBrowser }
func (c *ElementScreenshot) Name() string { return NameElementScreenshot }
func (c *ElementScreenshot) payload() any { return c }

func (c *ElementScreenshot) FilePath() string {
	if !c.bound {
		return ""
	}
	return filepath.Join(c.ws.ImagesDir(c.sessionID, c.SnapshotName), c.FileName)
}

func (c *ElementScreenshot) Exists() bool { return fileExists(c.FilePath()) }

// Image reads the screenshot bytes.
func (c *ElementScreenshot) Image() ([]byte, error) {
	if err := c.require(); err != nil {
		return nil, err
	}
	return readArtifact(c.FilePath())
}

// CollectNodes extracts DOM nodes under a CSS selector into nodeData.json.
type CollectNodes struct {
	WaitReady    bool   `json:"wait_ready"`
	Selector     string `json:"selector"`
	SnapshotName string `json:"snapshot_name"`
	Recurse      bool   `json:"recurse"`
	Prepopulate  bool   `json:"prepopulate"`
	GetStyles    bool   `json:"get_styles"`

	binding
}

// NewCollectNodes returns a collect nodes command.
func NewCollectNodes(selector, snapshotName string, waitReady, recurse, prepopulate, getStyles bool) *CollectNodes {
	return &CollectNodes{
		WaitReady:    waitReady,
		Selector:     selector,
		SnapshotName: snapshotName,
		Recurse:      recurse,
		Prepopulate:  prepopulate,
		GetStyles:    getStyles,
	}
}

func (c *CollectNodes) Kind() Kind   { return KindBrowser }
func (c *CollectNodes) Name() string { return NameCollectNodes }
func (c *CollectNodes) payload() any { return c }

func (c *CollectNodes) FilePath() string {
	if !c.bound {
		return ""
	}
	return filepath.Join(c.ws.SnapshotDir(c.sessionID, c.SnapshotName), nodeDataFile)
}

func (c *CollectNodes) Exists() bool { return fileExists(c.FilePath()) }

// Nodes parses the collected node file into Node descriptors.
func (c *CollectNodes) Nodes() ([]Node, error) {
	if err := c.require(); err != nil {
		return nil, err
	}
	data, err := readArtifact(c.FilePath())
	if err != nil {
		return nil, err
	}

	var docs []wire.NodeDoc
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", nodeDataFile, err)
	}

	nodes := make([]Node, 0, len(docs))
	for _, d := range docs {
		nodes = append(nodes, nodeFromDoc(d))
	}
	return nodes, nil
}

// SaveHTML captures the page body into snapshots/<snapshot>/body.txt. Unlike
// screenshots the artifact does not live under images/.
type SaveHTML struct {
	SnapshotName string `json:"snapshot_name"`

	binding
}

// NewSaveHTML returns a save html command.
func NewSaveHTML(snapshotName string) *SaveHTML {
	return &SaveHTML{SnapshotName: snapshotName}
}

func (c *SaveHTML) Kind() Kind   { return KindBrowser }
func (c *SaveHTML) Name() string { return NameSaveHTML }
func (c *SaveHTML) payload() any { return c }

func (c *SaveHTML) FilePath() string {
	if !c.bound {
		return ""
	}
	return filepath.Join(c.ws.SnapshotDir(c.sessionID, c.SnapshotName), htmlBodyFile)
}

func (c *SaveHTML) Exists() bool { return fileExists(c.FilePath()) }

// HTML reads the saved page body.
func (c *SaveHTML) HTML() (string, error) {
	if err := c.require(); err != nil {
		return "", err
	}
	data, err := readArtifact(c.FilePath())
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// MoveArtifact copies a command's artifact file into destDir, keeping the base
// name. The artifact must already exist.
func MoveArtifact(c FileCommand, destDir string) error {
	src := c.FilePath()
	if src == "" {
		return ErrNotBound
	}
	data, err := readArtifact(src)
	if err != nil {
		return err
	}
	dest := filepath.Join(destDir, filepath.Base(src))
	if err := os.WriteFile(dest, data, 0o644); err != nil {
		return fmt.Errorf("writing artifact copy: %w", err)
	}
	return nil
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

func readArtifact(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading artifact: %w", err)
	}
	return data, nil
}

// trimXPathTail strips a positional predicate from the last xpath segment,
// e.g. "div[2]" -> "div".
func trimXPathTail(xpath string) string {
	tail := xpath
	if i := strings.LastIndex(tail, "/"); i >= 0 {
		tail = tail[i+1:]
	}
	if i := strings.Index(tail, "["); i >= 0 {
		tail = tail[:i]
	}
	return tail
}

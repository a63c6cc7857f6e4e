package command

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	json "github.com/json-iterator/go"

	"github.com/bench-ai/workbench-go/api/wire"
)

// IterateHTML snapshots a page repeatedly over time. Each construction gets a
// run-scoped snapshot prefix so concurrent runs never collide; the agent
// creates one numbered snapshot folder per iteration under that prefix.
type IterateHTML struct {
	IterateLimit      int    `json:"iter_limit"`
	PauseTime         int    `json:"pause_time"`
	StartingSnapshot  int    `json:"starting_snapshot"`
	SnapshotPrefix    string `json:"snapshot_name"`
	SaveHTML          bool   `json:"save_html"`
	SaveNodes         bool   `json:"save_node"`
	SaveFullPageImage bool   `json:"save_full_page_image"`

	binding
}

// IterateConfig configures a new IterateHTML command.
type IterateConfig struct {
	// IterateLimit caps how many snapshot iterations the agent takes.
	IterateLimit int
	// PauseTime is the sleep between iterations in milliseconds; 5000 when zero.
	PauseTime int
	// StartingSnapshot is the first iteration number.
	StartingSnapshot int
	// SnapshotName seeds the run-scoped prefix; "snapshot" when empty.
	SnapshotName string

	SaveHTML          bool
	SaveNodes         bool
	SaveFullPageImage bool
}

// NewIterateHTML returns an iterate command with a fresh unique prefix of the
// form <name>_bench_<uuid>.
func NewIterateHTML(cfg IterateConfig) *IterateHTML {
	name := cfg.SnapshotName
	if name == "" {
		name = "snapshot"
	}
	pause := cfg.PauseTime
	if pause == 0 {
		pause = 5000
	}

	uid := strings.ReplaceAll(uuid.NewString(), "-", "")
	return &IterateHTML{
		IterateLimit:      cfg.IterateLimit,
		PauseTime:         pause,
		StartingSnapshot:  cfg.StartingSnapshot,
		SnapshotPrefix:    name + "_bench_" + uid,
		SaveHTML:          cfg.SaveHTML,
		SaveNodes:         cfg.SaveNodes,
		SaveFullPageImage: cfg.SaveFullPageImage,
	}
}

func (c *IterateHTML) Kind() Kind   { return KindBrowser }
func (c *IterateHTML) Name() string { return NameIterateHTML }
func (c *IterateHTML) payload() any { return c }

// collect maps iteration index to snapshot directory by scanning the session's
// snapshots folder for entries named <prefix>-<i>.
func (c *IterateHTML) collect() (map[int]string, error) {
	if err := c.require(); err != nil {
		return nil, err
	}

	root := c.ws.SnapshotsDir(c.sessionID)
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("reading snapshots directory: %w", err)
	}

	marker := c.SnapshotPrefix + "-"
	found := make(map[int]string)
	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), marker) {
			continue
		}
		idx, ok := parseIterationIndex(strings.TrimPrefix(entry.Name(), marker))
		if !ok {
			continue
		}
		found[idx] = filepath.Join(root, entry.Name())
	}
	return found, nil
}

// Len reports how many snapshot iterations the agent has produced so far.
func (c *IterateHTML) Len() (int, error) {
	found, err := c.collect()
	if err != nil {
		return 0, err
	}
	return len(found), nil
}

// Exists reports whether at least one snapshot iteration has been produced.
func (c *IterateHTML) Exists() bool {
	n, err := c.Len()
	return err == nil && n > 0
}

// Snapshot returns the i-th iteration. Negative indices are rejected and
// indices past the produced set fail with an out-of-range error.
func (c *IterateHTML) Snapshot(i int) (*IterateSnapshot, error) {
	if i < 0 {
		return nil, fmt.Errorf("snapshot index must not be negative, got %d", i)
	}
	found, err := c.collect()
	if err != nil {
		return nil, err
	}
	dir, ok := found[i]
	if !ok {
		return nil, fmt.Errorf("snapshot index %d out of range (%d produced)", i, len(found))
	}
	return &IterateSnapshot{dir: dir, index: i}, nil
}

// All returns every produced iteration in index order. Each call rescans the
// snapshot directory, so the sequence is re-iterable as the agent makes
// progress.
func (c *IterateHTML) All() ([]*IterateSnapshot, error) {
	found, err := c.collect()
	if err != nil {
		return nil, err
	}

	indexes := make([]int, 0, len(found))
	for idx := range found {
		indexes = append(indexes, idx)
	}
	sort.Ints(indexes)

	snaps := make([]*IterateSnapshot, 0, len(indexes))
	for _, idx := range indexes {
		snaps = append(snaps, &IterateSnapshot{dir: found[idx], index: idx})
	}
	return snaps, nil
}

// IterateSnapshot is one captured iteration; whichever of the html, node and
// image artifacts were requested can be loaded from it.
type IterateSnapshot struct {
	dir   string
	index int
}

// Index is the iteration number of this snapshot.
func (s *IterateSnapshot) Index() int { return s.index }

// Dir is the snapshot folder on disk.
func (s *IterateSnapshot) Dir() string { return s.dir }

// HTML loads the captured page body.
func (s *IterateSnapshot) HTML() (string, error) {
	data, err := readArtifact(filepath.Join(s.dir, htmlBodyFile))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Nodes loads the captured DOM nodes.
func (s *IterateSnapshot) Nodes() ([]Node, error) {
	data, err := readArtifact(filepath.Join(s.dir, nodeDataFile))
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

// Image loads the captured full page screenshot. The agent picks the file
// name, so the first regular file under images/ is returned.
func (s *IterateSnapshot) Image() ([]byte, error) {
	imagesDir := filepath.Join(s.dir, "images")
	entries, err := os.ReadDir(imagesDir)
	if err != nil {
		return nil, fmt.Errorf("reading images directory: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		return readArtifact(filepath.Join(imagesDir, entry.Name()))
	}
	return nil, fmt.Errorf("reading artifact: no image in %s: %w", imagesDir, os.ErrNotExist)
}

// parseIterationIndex extracts the leading integer of a snapshot suffix.
func parseIterationIndex(suffix string) (int, bool) {
	digits := suffix
	for i, r := range suffix {
		if r < '0' || r > '9' {
			digits = suffix[:i]
			break
		}
	}
	if digits == "" {
		return 0, false
	}
	idx, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return idx, true
}

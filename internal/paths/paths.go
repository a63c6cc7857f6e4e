// Package paths derives the on-disk session layout shared with the external
// agent. Every path is a pure function of the save root and a session id; the
// save root is resolved once by the config layer, never re-read from the
// environment here.
package paths

import "path/filepath"

// Workspace anchors the agent directory tree under a resolved save root.
type Workspace struct {
	root string
}

// New returns a Workspace rooted at the given save directory.
func New(root string) Workspace {
	return Workspace{root: root}
}

// Root returns the resolved save root.
func (w Workspace) Root() string {
	return w.root
}

// SessionsDir is the directory holding every session the agent has materialized.
func (w Workspace) SessionsDir() string {
	return filepath.Join(w.root, "agent", "sessions")
}

// SessionDir is the root of one session's tree.
func (w Workspace) SessionDir(sessionID string) string {
	return filepath.Join(w.SessionsDir(), sessionID)
}

// CommandsDir is where the client publishes command files for a live session.
// Its existence marks the session as started.
func (w Workspace) CommandsDir(sessionID string) string {
	return filepath.Join(w.SessionDir(sessionID), "commands")
}

// ResponsesDir holds one subdirectory per published command.
func (w Workspace) ResponsesDir(sessionID string) string {
	return filepath.Join(w.SessionDir(sessionID), "responses")
}

// ResponseDir is the per-command response directory the agent writes markers into.
func (w Workspace) ResponseDir(sessionID, commandID string) string {
	return filepath.Join(w.ResponsesDir(sessionID), commandID)
}

// SnapshotsDir groups the named snapshot folders produced by browser commands.
func (w Workspace) SnapshotsDir(sessionID string) string {
	return filepath.Join(w.SessionDir(sessionID), "snapshots")
}

// SnapshotDir is one named snapshot folder.
func (w Workspace) SnapshotDir(sessionID, snapshotName string) string {
	return filepath.Join(w.SnapshotsDir(sessionID), snapshotName)
}

// ImagesDir is the screenshot subfolder of a snapshot.
func (w Workspace) ImagesDir(sessionID, snapshotName string) string {
	return filepath.Join(w.SnapshotDir(sessionID, snapshotName), "images")
}

// ExitMarker is the file the agent writes once a live session has terminated.
func (w Workspace) ExitMarker(sessionID string) string {
	return filepath.Join(w.SessionDir(sessionID), "exit.txt")
}

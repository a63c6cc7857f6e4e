package conduit

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
)

// execRunner shells out to the agent executable. A non-zero exit is not an
// error at this layer: the agent reports failure through stderr, which the
// caller inspects.
type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) (string, string, error) {
	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		return "", "", err
	}
	return stdout.String(), stderr.String(), nil
}

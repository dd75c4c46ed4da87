// Package runner executes snippets out of process. It is deliberately a thin,
// replaceable boundary: one exec call with a wall-clock timeout, no resource
// isolation beyond that.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/Prannn182/CodeCollab/domain"
)

type Runner struct {
	nodeBin   string
	pythonBin string
}

func New() *Runner {
	return &Runner{
		nodeBin:   "node",
		pythonBin: "python3",
	}
}

// Execute runs the snippet and returns its stdout. The ctx deadline is the
// hard timeout; on expiry the process is killed and an *ExecutionError is
// returned. Languages other than javascript and python are rejected.
func (r *Runner) Execute(ctx context.Context, code, language string) (string, error) {
	var cmd *exec.Cmd
	switch language {
	case "javascript":
		cmd = exec.CommandContext(ctx, r.nodeBin, "-e", code)
	case "python":
		file, err := writeTempSource(code, ".py")
		if err != nil {
			return "", &domain.ExecutionError{Message: "failed to stage code for execution"}
		}
		defer os.Remove(file)
		cmd = exec.CommandContext(ctx, r.pythonBin, file)
	default:
		return "", &domain.ExecutionError{Message: "Language not supported for execution."}
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return stdout.String(), &domain.ExecutionError{Message: "Execution timed out"}
	}
	if err != nil {
		msg := stderr.String()
		if msg == "" {
			msg = err.Error()
		}
		return stdout.String(), &domain.ExecutionError{Message: msg}
	}
	return stdout.String(), nil
}

func writeTempSource(code, ext string) (string, error) {
	name := filepath.Join(os.TempDir(), fmt.Sprintf("codecollab_%s%s", uuid.NewString(), ext))
	if err := os.WriteFile(name, []byte(code), 0o600); err != nil {
		return "", err
	}
	return name, nil
}

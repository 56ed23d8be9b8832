package common

import (
	"context"
	"os/exec"
	"strings"
)

// ToolRunner executes external command-line tools. Services accept this
// interface so signing and installer compilation can be exercised in tests
// without the platform tools installed.
type ToolRunner interface {
	// Run executes the tool and returns its combined output.
	Run(ctx context.Context, name string, args ...string) (string, error)
	// LookPath reports the absolute path of a tool, or an error if absent.
	LookPath(name string) (string, error)
}

// ExecRunner is the production ToolRunner backed by os/exec.
type ExecRunner struct{}

// Run executes the named tool and returns trimmed combined stdout/stderr.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	output, err := cmd.CombinedOutput()

	return strings.TrimSpace(string(output)), err
}

// LookPath resolves the tool on PATH.
func (ExecRunner) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

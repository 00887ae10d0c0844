// pkg/transform/command.go
package transform

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DefaultCommand is the external materialization job
const DefaultCommand = "dbt run"

// CommandRunner runs an external transform job such as dbt
type CommandRunner struct {
	args   []string
	dir    string
	logger *zap.Logger
}

// NewCommandRunner creates a runner for a whitespace separated command line
func NewCommandRunner(command, dir string, logger *zap.Logger) (*CommandRunner, error) {
	args := strings.Fields(command)
	if len(args) == 0 {
		return nil, errors.New("transform command cannot be empty")
	}
	return &CommandRunner{
		args:   args,
		dir:    dir,
		logger: logger.Named("transform-command"),
	}, nil
}

// Run executes the command and waits for it. A non-zero exit is an error; the
// combined output is logged and returned either way.
func (r *CommandRunner) Run(ctx context.Context) (*Result, error) {
	start := time.Now()

	cmd := exec.CommandContext(ctx, r.args[0], r.args[1:]...)
	cmd.Dir = r.dir
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	r.logger.Info("Running transform command",
		zap.Strings("args", r.args),
		zap.String("dir", r.dir))

	err := cmd.Run()
	result := &Result{
		Mode:     "command",
		Output:   out.String(),
		Duration: time.Since(start),
	}

	if err != nil {
		r.logger.Error("Transform command failed",
			zap.Strings("args", r.args),
			zap.String("output", result.Output),
			zap.Error(err))
		return result, fmt.Errorf("transform command %q failed: %w", strings.Join(r.args, " "), err)
	}

	r.logger.Info("Transform command finished",
		zap.Duration("duration", result.Duration),
		zap.Int("outputBytes", out.Len()))
	r.logger.Debug("Transform command output", zap.String("output", result.Output))

	return result, nil
}

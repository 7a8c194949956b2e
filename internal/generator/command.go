package generator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Conceptual-Machines/text2midi-studio/internal/models"
	"github.com/google/shlex"
)

// ErrNoCommand is returned when no model runner command line is configured
var ErrNoCommand = errors.New("generator command not configured (set GENERATOR_COMMAND)")

// CommandModel runs the music model as an external process.
//
// The runner is invoked as
//
//	<command...> --prompt P --temperature T --max-length N --output PATH
//
// and must write a MIDI file to PATH. The last non-empty line it prints on
// stdout is taken as the result value.
type CommandModel struct {
	argv    []string
	workDir string
}

// NewCommandModel parses a shell-style command line
func NewCommandModel(commandLine, workDir string) (*CommandModel, error) {
	argv, err := shlex.Split(commandLine)
	if err != nil {
		return nil, fmt.Errorf("invalid generator command %q: %w", commandLine, err)
	}
	if len(argv) == 0 {
		return nil, ErrNoCommand
	}
	return &CommandModel{argv: argv, workDir: workDir}, nil
}

// Name returns the runner executable name
func (m *CommandModel) Name() string {
	return filepath.Base(m.argv[0])
}

// Args returns the full argument list for a request, runner command included
func (m *CommandModel) Args(req models.GenerationRequest, outputPath string) []string {
	args := make([]string, 0, len(m.argv)+8)
	args = append(args, m.argv...)
	return append(args,
		"--prompt", req.Prompt,
		"--temperature", strconv.FormatFloat(req.Temperature, 'f', -1, 64),
		"--max-length", strconv.Itoa(req.MaxLength),
		"--output", outputPath,
	)
}

// Generate runs the model and returns the last line it printed
func (m *CommandModel) Generate(ctx context.Context, req models.GenerationRequest, outputPath string) (string, error) {
	args := m.Args(req, outputPath)

	var stdout, stderr bytes.Buffer
	cmd := newCommand(ctx, args[0], args[1:]...)
	cmd.Dir = m.workDir
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", fmt.Errorf("model runner interrupted: %w", ctxErr)
		}
		return "", fmt.Errorf("model runner failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	return lastLine(stdout.String()), nil
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}

// command is like exec.CommandContext but kills the whole process group on
// cancellation, so interpreters that fork workers do not outlive the request
type command struct {
	ctx context.Context
	*exec.Cmd
}

func newCommand(ctx context.Context, name string, args ...string) *command {
	return &command{ctx: ctx, Cmd: exec.Command(name, args...)}
}

func (c *command) Run() error {
	setProcessGroup(c.Cmd)
	if err := c.Cmd.Start(); err != nil {
		return err
	}

	done := make(chan struct{})
	go func() {
		select {
		case <-c.ctx.Done():
			killProcessGroup(c.Cmd.Process)
		case <-done:
		}
	}()

	err := c.Cmd.Wait()
	close(done)
	return err
}

type unconfiguredModel struct{}

// Unconfigured returns a model that fails every call with ErrNoCommand, so
// the pages and the gallery stay up while no runner is set
func Unconfigured() Model {
	return unconfiguredModel{}
}

func (unconfiguredModel) Name() string {
	return "unconfigured"
}

func (unconfiguredModel) Generate(context.Context, models.GenerationRequest, string) (string, error) {
	return "", ErrNoCommand
}

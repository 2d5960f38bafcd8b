package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/kindex/internal/compiler"
	"github.com/roach88/kindex/internal/indexing"
	"github.com/roach88/kindex/internal/store"
	"github.com/roach88/kindex/internal/term"
)

// Report is a command result. Each result type renders its own text form;
// JSON output wraps it in an Envelope.
type Report interface {
	WriteText(w io.Writer)
}

// Problem is one failure in command output.
type Problem struct {
	Code    string `json:"code"`              // "E005", "E201", ...
	Message string `json:"message"`
	Pos     string `json:"pos,omitempty"`     // file:line:col of a definition error
	Details any    `json:"details,omitempty"` // shown in text output only with --verbose

	exit int
}

// Envelope is the JSON shape of every command's output.
type Envelope struct {
	Status   string    `json:"status"` // "ok" or "error"
	Data     any       `json:"data,omitempty"`
	Error    *Problem  `json:"error,omitempty"`
	Problems []Problem `json:"problems,omitempty"` // every problem when there are several
}

// commandProblem reports bad inputs or environment; exits with ExitCommandError.
func commandProblem(code, message string) Problem {
	return Problem{Code: code, Message: message, exit: ExitCommandError}
}

// problemFor classifies err by the kindex error type it carries.
func problemFor(err error) Problem {
	var (
		indexErr   *indexing.Error
		loadErr    *LoadError
		compileErr *compiler.CompileError
		decodeErr  *term.DecodeError
	)
	switch {
	case errors.As(err, &indexErr):
		code := ErrCodeMalformedTerm
		if indexErr.Code == indexing.ErrCodeSchemaLookup {
			code = ErrCodeSchemaLookup
		}
		return Problem{
			Code:    code,
			Message: indexErr.Error(),
			Details: map[string]string{"kind": string(indexErr.Code), "label": indexErr.Label, "path": indexErr.Path},
			exit:    ExitFailure,
		}
	case errors.As(err, &loadErr):
		p := commandProblem(loadErr.Code, loadErr.Message)
		if loadErr.Pos.IsValid() {
			p.Pos = fmt.Sprintf("%s:%d:%d", loadErr.Pos.Filename(), loadErr.Pos.Line(), loadErr.Pos.Column())
		}
		return p
	case errors.As(err, &compileErr):
		return commandProblem(MapFieldToErrorCode(compileErr.Field), compileErr.Message)
	case errors.As(err, &decodeErr):
		return commandProblem(ErrCodeTermDecode, decodeErr.Error())
	case errors.Is(err, store.ErrNotFound):
		return commandProblem(ErrCodeNotFound, err.Error())
	case errors.Is(err, store.ErrSchemaVersion):
		return commandProblem(ErrCodeStore, err.Error())
	default:
		return commandProblem(ErrCodeGeneric, err.Error())
	}
}

// OutputFormatter writes command results as text or JSON.
// Results go to Writer; logs and metrics go to ErrWriter so that JSON on
// stdout stays parseable.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // defaults to Writer
	Verbose   bool

	logger *slog.Logger
}

func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}

func (f *OutputFormatter) isJSON() bool { return f.Format == "json" }

func (f *OutputFormatter) errWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}

// Logger returns the command's structured logger: debug level on ErrWriter
// with --verbose, discarded otherwise.
func (f *OutputFormatter) Logger() *slog.Logger {
	if f.logger == nil {
		if f.Verbose {
			f.logger = slog.New(slog.NewTextHandler(f.errWriter(), &slog.HandlerOptions{Level: slog.LevelDebug}))
		} else {
			f.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
		}
	}
	return f.logger
}

// Emit writes a successful result.
func (f *OutputFormatter) Emit(r Report) error {
	if f.isJSON() {
		return f.encode(Envelope{Status: "ok", Data: r})
	}
	r.WriteText(f.Writer)
	return nil
}

// EmitFailed writes a result that carries its own failure (e.g. a test run
// with failing scenarios) and returns the matching ExitError.
func (f *OutputFormatter) EmitFailed(r Report, p Problem) error {
	if f.isJSON() {
		if err := f.encode(Envelope{Status: "error", Data: r, Error: &p}); err != nil {
			return err
		}
	} else {
		r.WriteText(f.Writer)
	}
	return NewExitError(p.exit, fmt.Sprintf("%s: %s", p.Code, p.Message))
}

// Fail writes a single problem and returns the matching ExitError.
func (f *OutputFormatter) Fail(p Problem) error {
	if f.isJSON() {
		if err := f.encode(Envelope{Status: "error", Error: &p}); err != nil {
			return err
		}
	} else {
		f.writeProblem(p)
	}
	return NewExitError(p.exit, fmt.Sprintf("%s: %s", p.Code, p.Message))
}

// FailAll writes several problems under a heading. The exit code is the
// most severe one among them.
func (f *OutputFormatter) FailAll(heading string, problems []Problem) error {
	if len(problems) == 0 {
		return nil
	}
	exit := ExitFailure
	for _, p := range problems {
		exit = max(exit, p.exit)
	}
	message := fmt.Sprintf("%s: %d problem(s)", heading, len(problems))

	if f.isJSON() {
		if err := f.encode(Envelope{Status: "error", Error: &problems[0], Problems: problems}); err != nil {
			return err
		}
		return NewExitError(exit, message)
	}

	fmt.Fprintf(f.Writer, "✗ %s\n\n", heading)
	for _, p := range problems {
		if p.Pos != "" {
			fmt.Fprintln(f.Writer, p.Pos)
		}
		fmt.Fprintf(f.Writer, "  %s: %s\n\n", p.Code, p.Message)
	}
	return NewExitError(exit, message)
}

func (f *OutputFormatter) writeProblem(p Problem) {
	if p.Pos != "" {
		fmt.Fprintf(f.Writer, "%s: ", p.Pos)
	}
	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", p.Code, p.Message)
	if f.Verbose && p.Details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", p.Details)
	}
}

func (f *OutputFormatter) encode(env Envelope) error {
	enc := json.NewEncoder(f.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(env)
}

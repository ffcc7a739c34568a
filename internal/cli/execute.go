package cli

import (
	"context"
	"errors"
	"io"
	"slices"
)

// Execute runs the CLI with args and returns the process exit code.
// Errors are reported on stderr in the format selected by --format.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := NewRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return ExitSuccess
	}

	// cobra reports flag and argument problems as plain errors
	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		err = WrapExitError(ExitCommandError, "invalid command", err)
	}

	format := "text"
	if f := cmd.PersistentFlags().Lookup("format"); f != nil && slices.Contains(ValidFormats, f.Value.String()) {
		format = f.Value.String()
	}
	out := &OutputFormatter{Format: format, Writer: stderr}
	_ = out.Fail(err)

	return GetExitCode(err)
}

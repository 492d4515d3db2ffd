package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/aretw0/trawler/pkg/adapters/file"
	"github.com/aretw0/trawler/pkg/dsl"
)

// RunOptions contains all the configuration for the run command.
type RunOptions struct {
	ScriptPath string
	// Out writes the state tree to a file as well as stdout.
	Out string
	// SaveID persists the result in the configured store under this ID.
	SaveID string
}

// Run executes a script file and prints the state tree as JSON on stdout.
// The state is printed even when the workflow halts.
func Run(ctx context.Context, stack *Stack, opts RunOptions, stdout io.Writer) error {
	script, err := dsl.LoadFile(opts.ScriptPath)
	if err != nil {
		return err
	}

	r := stack.Runner()
	if opts.SaveID != "" {
		id := opts.SaveID
		r.NewID = func() string { return id }
	} else {
		// Only persist when asked.
		r.Store = nil
	}

	res, runErr := r.RunScript(ctx, script)
	if res == nil {
		return runErr
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res.State); err != nil {
		return fmt.Errorf("failed to write state: %w", err)
	}

	if opts.Out != "" {
		if err := file.WriteTree(opts.Out, res.State); err != nil {
			return errors.Join(runErr, err)
		}
	}

	if runErr == nil {
		stack.Logger.Info("workflow completed", "tasks", len(res.Report.Tasks), "failed_actions", res.Report.FailedActions(), "id", res.ID)
	}
	return runErr
}

// Validate strictly parses a script file and reports every invalid action.
func Validate(path string, stdout io.Writer) error {
	script, err := dsl.LoadFile(path)
	if err != nil {
		return err
	}
	tasks, err := script.Parse()
	if err != nil {
		return err
	}
	actions := 0
	for _, t := range tasks {
		actions += len(t)
	}
	fmt.Fprintf(stdout, "%s: %d task(s), %d action(s) OK\n", path, len(tasks), actions)
	return nil
}

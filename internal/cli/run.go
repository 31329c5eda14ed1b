package cli

import "context"

// Run is the black-box CLI entrypoint, suitable for integration tests and
// for main: it builds the command tree, executes it against args, and
// returns the semantic exit code of spec.md §6 plus any cobra-level
// parse/usage error (invalid flags, unknown subcommand).
func Run(ctx context.Context, args []string) (int, error) {
	exitCode := ExitSuccess
	root := NewRootCmd(ctx, &exitCode)
	root.SetArgs(args)

	if err := root.Execute(); err != nil {
		if exitCode == ExitSuccess {
			exitCode = ExitUserError
		}
		return exitCode, err
	}
	return exitCode, nil
}

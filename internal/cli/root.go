package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// NewRootCmd builds the "taskloom" command tree: four subcommands
// (offline, online, clean, version) sharing the common flag surface of
// spec.md §6, grounded on the pack's cobra-tree convention
// (AleutianLocal's cmd/aleutian, 88lin-divinesense's cmd/divinesense).
// exitCode receives the semantic exit code of whichever subcommand runs;
// main reads it after root.Execute returns.
func NewRootCmd(ctx context.Context, exitCode *int) *cobra.Command {
	var flags Flags

	root := &cobra.Command{
		Use:           "taskloom",
		Short:         "A declarative, incremental task-graph scheduler for command-line workflows.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.PersistentFlags().BoolVar(&flags.Debug, "debug", false, "enable verbose, structured JSON logging")
	root.PersistentFlags().IntVarP(&flags.Workers, "workers", "w", 0, "worker count (default: logical cores - 1)")
	root.PersistentFlags().StringVarP(&flags.AgendaPath, "agenda", "a", "agenda.yaml", "path to the agenda document")
	root.PersistentFlags().StringVarP(&flags.DependPath, "depend", "d", "depend.yaml", "path to the depend document")
	root.PersistentFlags().StringVarP(&flags.CachePath, "cache", "c", ".taskloom.cache", "path to the FileStat cache file")
	root.PersistentFlags().StringVarP(&flags.LogPath, "log", "l", "", "path to write logs to (default: stderr)")

	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if _, err := setupLogging(flags); err != nil {
			*exitCode = ExitUserError
			return err
		}
		return nil
	}

	offlineCmd := &cobra.Command{
		Use:   "offline",
		Short: "Evaluate the agenda once and exit.",
		RunE: func(cmd *cobra.Command, args []string) error {
			*exitCode = RunOffline(ctx, flags)
			return nil
		},
	}

	onlineCmd := &cobra.Command{
		Use:   "online",
		Short: "Evaluate the agenda, then keep watching for changes until interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			watchCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			*exitCode = RunOnline(watchCtx, flags)
			return nil
		},
	}

	cleanCmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove every file the agenda declares as a task output.",
		RunE: func(cmd *cobra.Command, args []string) error {
			*exitCode = RunClean(flags)
			return nil
		},
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the taskloom version.",
		RunE: func(cmd *cobra.Command, args []string) error {
			*exitCode = RunVersion()
			return nil
		},
	}

	root.AddCommand(offlineCmd, onlineCmd, cleanCmd, versionCmd)
	return root
}

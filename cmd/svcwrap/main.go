package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/svcwrap/svcwrap/internal/config"
	"github.com/svcwrap/svcwrap/internal/logging"
)

func main() {
	root, c := buildRoot()
	if err := root.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	os.Exit(c.exitCode)
}

// buildRoot creates the root command and the command state it reports
// through.
func buildRoot() (*cobra.Command, *command) {
	c := &command{}
	runFlags := &CommonFlags{}
	addFlags := &AddFlags{}
	removeFlags := &RemoveFlags{}

	root := createRootCommand()
	root.AddCommand(
		createRunCommand(c, runFlags),
		createAddCommand(c, addFlags),
		createRemoveCommand(c, removeFlags),
	)
	return root, c
}

func createRootCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "svcwrap",
		Short: "Wrap arbitrary commands as managed services",
		Long: `Svcwrap runs an unmodified executable under the host's service manager,
forwarding stop requests, supervising restarts, and capturing output.

Examples:
  svcwrap run --name myapp -- myapp.exe --port 8080
  svcwrap add --name myapp --restart -- myapp.exe --port 8080
  svcwrap remove --name myapp`,
		SilenceUsage: true,
	}
}

// addCommonFlags registers the service-definition flags shared by run and
// add.
func addCommonFlags(cmd *cobra.Command, f *CommonFlags) {
	cmd.Flags().StringVar(&f.ConfigPath, "config", "", "path to a TOML/YAML config file (flags win over file values)")
	cmd.Flags().StringVar(&f.Name, "name", "svcwrap", "service name")
	cmd.Flags().StringVar(&f.Cwd, "cwd", "", "working directory for the command (absolute)")
	cmd.Flags().StringArrayVar(&f.Env, "env", nil, "extra environment variable as KEY=value (repeatable)")
	cmd.Flags().StringArrayVar(&f.Path, "path", nil, "directory to prepend to the command's PATH (repeatable)")
	cmd.Flags().StringVar(&f.Priority, "priority", "", "process priority: "+strings.Join(config.PriorityNames, ", "))
	cmd.Flags().DurationVar(&f.StopTimeout, "stop-timeout", config.DefaultStopTimeout, "how long to wait for a graceful stop before force-killing")
	cmd.Flags().DurationVar(&f.RestartDelay, "restart-delay", 0, "minimum delay between restarts")

	cmd.Flags().BoolVar(&f.Restart, "restart", false, "always restart the command regardless of exit code")
	cmd.Flags().BoolVar(&f.NoRestart, "no-restart", false, "never restart the command")
	cmd.Flags().IntSliceVar(&f.RestartIf, "restart-if", nil, "restart only on these exit codes (comma-separated)")
	cmd.Flags().IntSliceVar(&f.RestartIfNot, "restart-if-not", nil, "restart except on these exit codes (comma-separated)")
	cmd.MarkFlagsMutuallyExclusive("restart", "no-restart", "restart-if", "restart-if-not")

	cmd.Flags().IntSliceVar(&f.Pass, "pass", nil, "exit codes treated as a successful stop (comma-separated)")
	cmd.Flags().BoolVar(&f.PassStartArgs, "pass-start-args", false, "append the service start arguments to the command")

	cmd.Flags().BoolVar(&f.NoLog, "no-log", false, "disable all logging")
	cmd.Flags().BoolVar(&f.NoLogCmd, "no-log-cmd", false, "do not log the command's stdout/stderr")
	cmd.Flags().StringVar(&f.LogDir, "log-dir", "", "log directory (defaults to the executable's directory)")
	cmd.Flags().StringVar(&f.LogAs, "log-as", "", "base name for the main log file")
	cmd.Flags().StringVar(&f.LogCmdAs, "log-cmd-as", "", "separate log file base name for the command's output")
	cmd.Flags().StringVar(&f.LogRotate, "log-rotate", "", "rotation trigger: daily, hourly, or bytes=n")
	cmd.Flags().IntVar(&f.LogRetain, "log-retain", logging.DefaultRetain, "rotated log files to keep")

	cmd.Flags().StringVar(&f.HistoryDSN, "history-dsn", "", "lifecycle history sink (sqlite path or postgres URL)")
	cmd.Flags().StringVar(&f.MetricsListen, "metrics-listen", "", "serve prometheus metrics on this address")
}

// wrappedCommand splits off the argv that follows "--".
func wrappedCommand(cmd *cobra.Command, args []string) []string {
	if dash := cmd.ArgsLenAtDash(); dash >= 0 {
		return args[dash:]
	}
	return args
}

func createRunCommand(c *command, flags *CommonFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [flags] -- command [arguments...]",
		Short: "Run a command as the current service",
		Long: `Run the given command for the lifetime of the service, restarting it
according to the restart policy and relaying stop requests from the host.
Invoked by the service manager; also runs in the foreground from a console.

Examples:
  svcwrap run --name myapp -- myapp.exe --port 8080
  svcwrap run --name batch --restart-if 2,3 --stop-timeout 10s -- batch.exe`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.Run(flags, cmd.Flags().Changed, wrappedCommand(cmd, args))
		},
	}
	addCommonFlags(cmd, flags)
	cmd.Flags().BoolVar(&flags.Console, "console", false, "run in the foreground even when started by a service manager")
	return cmd
}

func createAddCommand(c *command, flags *AddFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add [flags] -- command [arguments...]",
		Short: "Register the command as a service",
		Long: `Register a service that launches svcwrap run with the same options.

Examples:
  svcwrap add --name myapp -- myapp.exe --port 8080
  svcwrap add --name myapp --auto-start --dependencies Tcpip -- myapp.exe`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.Add(flags, cmd.Flags().Changed, wrappedCommand(cmd, args))
		},
	}
	addCommonFlags(cmd, &flags.Common)
	cmd.Flags().StringVar(&flags.DisplayName, "display-name", "", "display name shown by the service manager")
	cmd.Flags().StringVar(&flags.Description, "description", "", "service description")
	cmd.Flags().BoolVar(&flags.AutoStart, "auto-start", false, "start the service automatically at boot")
	cmd.Flags().StringSliceVar(&flags.Dependencies, "dependencies", nil, "services this service depends on (comma-separated)")
	if err := cmd.MarkFlagRequired("name"); err != nil {
		panic(err)
	}
	return cmd
}

func createRemoveCommand(c *command, flags *RemoveFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove",
		Short: "Unregister a service",
		Long: `Unregister a previously added service.

Example:
  svcwrap remove --name myapp`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.Remove(flags)
		},
	}
	cmd.Flags().StringVar(&flags.Name, "name", "", "service name (required)")
	if err := cmd.MarkFlagRequired("name"); err != nil {
		panic(err)
	}
	return cmd
}

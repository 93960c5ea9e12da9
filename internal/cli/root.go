package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/zyntracker/internal/models"
)

// RootCmd builds the zyn command tree bound to a.
func (a *App) RootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "zyn",
		Short:         "Track timestamped logs locally, optionally synced to a remote document",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if a.format != FormatText && a.format != FormatJSON {
				return fmt.Errorf("unknown format %q", a.format)
			}
			return a.ensureStore(cmd.Context())
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&a.cfgPath, "config", "c", "", "JSON config file")
	pf.StringVar(&a.dataDir, "data-dir", "", "data directory (default .zyn)")
	pf.StringVar(&a.mirror, "mirror", "", "mirror driver: sqlite|memory")
	pf.StringVar(&a.remote, "remote", "", "remote driver: github|s3")
	pf.StringVar(&a.format, "format", FormatText, "output format: text|json")

	root.AddCommand(
		a.addCmd(),
		a.listCmd(),
		a.editCmd(),
		a.rmCmd(),
		a.exportCmd(),
		a.statsCmd(),
		a.syncCmd(),
		a.shellCmd(),
	)
	return root
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimPrefix(s, "#"), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid log id %q", s)
	}
	return id, nil
}

func (a *App) addCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add [when]",
		Short: "Record a log, now or at a given time",
		Example: `  zyn add
  zyn add 2024-01-02T10:00
  zyn add "yesterday 9pm"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.Add(cmd.Context(), strings.Join(args, " "))
		},
	}
}

func (a *App) listCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List logs, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.List(cmd.Context())
		},
	}
}

func (a *App) editCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "edit <id> <when>",
		Short: "Change the time of a log",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return a.Edit(cmd.Context(), id, strings.Join(args[1:], " "))
		},
	}
}

func (a *App) rmCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a log",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return a.Remove(cmd.Context(), id)
		},
	}
}

func (a *App) exportCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export logs as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.Export(cmd.Context(), output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to file instead of stdout")
	return cmd
}

func (a *App) statsCmd() *cobra.Command {
	var window int
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show daily, weekly and monthly counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.Stats(cmd.Context(), window)
		},
	}
	cmd.Flags().IntVarP(&window, "window", "w", 0, "daily window in days, 1-365 (default from config)")
	return cmd
}

func (a *App) syncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Manage remote sync",
	}

	status := &cobra.Command{
		Use:   "status",
		Short: "Show sync configuration and state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.SyncStatus(cmd.Context())
		},
	}

	var cfg models.SyncConfig
	var noPrompt bool
	set := &cobra.Command{
		Use:   "set",
		Short: "Save the sync configuration and load the remote logs",
		Long: `Save the sync configuration. With a token, the remote document replaces
the local logs and every later change is pushed before it is applied.
Without --token the token is read from the terminal; an empty token keeps
sync disabled.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.SyncSet(cmd.Context(), cfg, !noPrompt && !cmd.Flags().Changed("token"))
		},
	}
	set.Flags().StringVar(&cfg.Owner, "owner", "", "repository owner")
	set.Flags().StringVar(&cfg.Repo, "repo", "", "repository name")
	set.Flags().StringVar(&cfg.Branch, "branch", "", "branch (default main)")
	set.Flags().StringVar(&cfg.Path, "path", "", "document path (default data/logs.json)")
	set.Flags().StringVar(&cfg.Token, "token", "", "access token")
	set.Flags().BoolVar(&noPrompt, "no-prompt", false, "do not ask for a missing token")

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Forget the sync configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.SyncClear(cmd.Context())
		},
	}

	reload := &cobra.Command{
		Use:   "reload",
		Short: "Replace local logs with the remote document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.SyncReload(cmd.Context())
		},
	}

	cmd.AddCommand(status, set, clearCmd, reload)
	return cmd
}

func (a *App) shellCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Start an interactive shell",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(a.out, "zyn shell (type 'help' for commands)")
			runREPL(cmd.Context(), a, a.prompt, a.in, a.out)
			return nil
		},
	}
}

func (a *App) prompt() string {
	st := a.store.SyncState()
	if !st.Enabled {
		return "zyn (local)> "
	}
	return fmt.Sprintf("zyn (%s)> ", st.Status)
}

// Execute runs the command line with args and returns the exit code.
func Execute(ctx context.Context, args []string, opts ...Option) int {
	a := NewApp(opts...)
	defer a.Close()

	root := a.RootCmd()
	root.SetArgs(args)
	root.SetOut(a.out)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(root.ErrOrStderr(), "Error:", err)
		return 1
	}
	return 0
}

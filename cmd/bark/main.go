package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"bark/internal/bootstrap"
	pluginin "bark/internal/modules/plugin/port/in"
	"bark/internal/platform/config"
	"bark/internal/platform/lockfile"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var debug bool

	root := &cobra.Command{
		Use:           "bark",
		Short:         "Dual-pane file manager with plugin providers and an embedded shell",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(debug)
		},
	}
	root.PersistentFlags().BoolVar(&debug, "debug", false, "verbose logging")

	tui := &cobra.Command{
		Use:   "tui",
		Short: "Run the terminal UI (the default)",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runTUI(debug)
		},
	}
	root.AddCommand(tui)
	root.AddCommand(newPluginsCmd(&debug))
	return root
}

func loadConfig(debug bool) (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	if debug {
		cfg.Debug = true
	}
	return cfg, nil
}

func runTUI(debug bool) error {
	cfg, err := loadConfig(debug)
	if err != nil {
		return err
	}
	if pid, running := lockfile.New(cfg.ConfigDir).ExistingInstance(); running {
		if !confirm(fmt.Sprintf("bark seems to be running already (pid %d). Start anyway? [y/N] ", pid)) {
			return nil
		}
	}
	app, err := bootstrap.New(cfg)
	if err != nil {
		return err
	}
	return app.Run()
}

func confirm(prompt string) bool {
	_, _ = fmt.Fprint(os.Stderr, prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

func newPluginsCmd(debug *bool) *cobra.Command {
	plugins := &cobra.Command{Use: "plugins", Short: "Inspect installed plugins"}

	list := &cobra.Command{
		Use:   "list",
		Short: "List discovered plugins",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cli, err := loadPluginCLI(*debug)
			if err != nil {
				return err
			}
			infos, err := cli.List(context.Background())
			if err != nil {
				return err
			}
			if len(infos) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no plugins installed")
				return nil
			}
			for _, info := range infos {
				extra := ""
				if len(info.Extensions) > 0 {
					extra = " ext=" + strings.Join(info.Extensions, ",")
				}
				if len(info.Schemes) > 0 {
					extra += " schemes=" + strings.Join(info.Schemes, ",")
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%-20s %-8s v%-8s %s%s\n",
					info.Name, info.Kind, info.Version, info.Source, extra)
			}
			return nil
		},
	}

	diagnostics := &cobra.Command{
		Use:   "diagnostics",
		Short: "Show why discovery skipped candidates",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cli, err := loadPluginCLI(*debug)
			if err != nil {
				return err
			}
			lines, err := cli.Diagnostics(context.Background())
			if err != nil {
				return err
			}
			if len(lines) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no diagnostics")
				return nil
			}
			for _, line := range lines {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			return nil
		},
	}

	plugins.AddCommand(list, diagnostics)
	return plugins
}

func loadPluginCLI(debug bool) (pluginin.Usecase, error) {
	cfg, err := loadConfig(debug)
	if err != nil {
		return nil, err
	}
	return bootstrap.NewPluginCLI(cfg)
}

package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/yllada/wifi-manager/common"
	"github.com/yllada/wifi-manager/config"
	"github.com/yllada/wifi-manager/history"
)

func newStatusCommand(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether the radio is on and what it is connected to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.runCLI(cmd, false, func(ctx context.Context, c *CLI) error {
				return c.Status(ctx)
			})
		},
	}
}

func newInfoCommand(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show details of the connected network",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.runCLI(cmd, false, func(ctx context.Context, c *CLI) error {
				return c.Info(ctx)
			})
		},
	}
}

func newScanCommand(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "Scan for networks in range",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.runCLI(cmd, false, func(ctx context.Context, c *CLI) error {
				return c.Scan(ctx)
			})
		},
	}
}

func newKnownCommand(o *options) *cobra.Command {
	return &cobra.Command{
		Use:     "known",
		Aliases: []string{"list"},
		Short:   "List saved networks",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.runCLI(cmd, false, func(ctx context.Context, c *CLI) error {
				return c.Known(ctx)
			})
		},
	}
}

func newConnectCommand(o *options) *cobra.Command {
	var (
		password string
		ask      bool
		save     bool
	)

	cmd := &cobra.Command{
		Use:   "connect <ssid>",
		Short: "Connect to a network in range",
		Long: "Connect to a network in range. Without --password the passphrase\n" +
			"is taken from the keyring, or prompted for with --ask.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" && ask {
				p, err := promptPassword(fmt.Sprintf("Passphrase for %s: ", args[0]))
				if err != nil {
					return err
				}
				password = p
			}
			return o.runCLI(cmd, true, func(ctx context.Context, c *CLI) error {
				return c.Connect(ctx, args[0], password, save)
			})
		},
	}

	cmd.Flags().StringVarP(&password, "password", "p", "", "network passphrase")
	cmd.Flags().BoolVarP(&ask, "ask", "a", false, "prompt for the passphrase")
	cmd.Flags().BoolVarP(&save, "save", "s", false, "store the passphrase in the keyring")
	return cmd
}

// promptPassword reads a passphrase from the terminal without echo.
func promptPassword(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("cannot prompt for a passphrase: stdin is not a terminal")
	}

	fmt.Fprint(os.Stderr, prompt)
	raw, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read passphrase: %w", err)
	}
	return strings.TrimRight(string(raw), "\r\n"), nil
}

func newDisconnectCommand(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "disconnect <network-id>",
		Short: "Remove the saved network with the given id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.runCLI(cmd, false, func(ctx context.Context, c *CLI) error {
				return c.Disconnect(ctx, args[0])
			})
		},
	}
}

func newSelectCommand(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "select <network-id|ssid>",
		Short: "Connect to a saved network",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.runCLI(cmd, false, func(ctx context.Context, c *CLI) error {
				return c.Select(ctx, args[0])
			})
		},
	}
}

func newForgetCommand(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "forget <network-id|ssid>",
		Short: "Forget a saved network and its stored passphrase",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.runCLI(cmd, true, func(ctx context.Context, c *CLI) error {
				return c.Forget(ctx, args[0])
			})
		},
	}
}

func newEnableCommand(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "enable",
		Short: "Turn the wireless radio on",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.runCLI(cmd, false, func(ctx context.Context, c *CLI) error {
				return c.Enable(ctx)
			})
		},
	}
}

func newDisableCommand(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "disable",
		Short: "Turn the wireless radio off",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.runCLI(cmd, false, func(ctx context.Context, c *CLI) error {
				return c.Disable(ctx)
			})
		},
	}
}

func newWatchCommand(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print daemon notifications as they arrive",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			_, proxy, closeFn, err := o.controller(ctx)
			if err != nil {
				return err
			}
			defer closeFn()
			if proxy == nil {
				return fmt.Errorf("the daemon is not running; start it with 'wifi-manager daemon'")
			}

			events, err := proxy.Subscribe(ctx)
			if err != nil {
				return err
			}

			c := New(proxy, nil, cmd.OutOrStdout())
			lastCtx, cancel := context.WithTimeout(ctx, o.config.CallTimeout)
			last, ok, err := proxy.LastNotification(lastCtx)
			cancel()
			if err == nil && ok {
				fmt.Fprintf(cmd.OutOrStdout(), "last     %s\n", formatEvent(last))
			}
			return c.Watch(ctx, events)
		},
	}
}

func newHistoryCommand(o *options) *cobra.Command {
	var (
		limit int
		prune time.Duration
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded notifications",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			path, err := history.DefaultPath()
			if err != nil {
				return err
			}
			store, err := history.Open(path, o.log.Named("history"))
			if err != nil {
				return err
			}
			defer store.Close()

			if prune > 0 {
				n, err := store.Prune(ctx, time.Now().Add(-prune))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d entries.\n", n)
				return nil
			}

			entries, err := store.Recent(ctx, limit)
			if err != nil {
				return err
			}
			New(nil, nil, cmd.OutOrStdout()).History(entries)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of entries to show")
	cmd.Flags().DurationVar(&prune, "prune", 0, "delete entries older than this instead of listing")
	return cmd
}

func newConfigCommand(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := yaml.Marshal(o.config)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write the default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := o.configPath
			if path == "" {
				p, err := config.DefaultPath()
				if err != nil {
					return err
				}
				path = p
			}
			if common.FileExists(path) {
				return fmt.Errorf("%s already exists", path)
			}
			if err := config.DefaultConfig().Save(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	})
	return cmd
}

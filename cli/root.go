package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/godbus/dbus/v5"
	"github.com/spf13/cobra"

	"github.com/yllada/wifi-manager/bus"
	"github.com/yllada/wifi-manager/common"
	"github.com/yllada/wifi-manager/config"
	"github.com/yllada/wifi-manager/keyring"
	"github.com/yllada/wifi-manager/service"
	"github.com/yllada/wifi-manager/wireless"
)

// BuildInfo is injected by main via ldflags.
type BuildInfo struct {
	Version string
	Time    string
	Commit  string
}

// options holds the persistent flags and the state derived from them.
type options struct {
	build      BuildInfo
	configPath string
	verbose    bool
	direct     bool

	config *config.Config
	log    *common.AppLogger
}

// Execute runs the root command and returns the process exit code.
func Execute(build BuildInfo) int {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	setupSignalHandler(cancel)

	defer common.CloseLogger()

	if err := NewRootCommand(build).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// NewRootCommand builds the command tree.
func NewRootCommand(build BuildInfo) *cobra.Command {
	o := &options{build: build}

	root := &cobra.Command{
		Use:           "wifi-manager",
		Short:         "Manage wireless networks through NetworkManager",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return o.init()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&o.configPath, "config", "c", "", "config file (default ~/.config/wifi-manager/config.yaml)")
	flags.BoolVarP(&o.verbose, "verbose", "v", false, "verbose output")
	flags.BoolVar(&o.direct, "direct", false, "talk to NetworkManager even if the daemon is running")

	root.AddCommand(
		newDaemonCommand(o),
		newStatusCommand(o),
		newInfoCommand(o),
		newScanCommand(o),
		newKnownCommand(o),
		newConnectCommand(o),
		newDisconnectCommand(o),
		newSelectCommand(o),
		newForgetCommand(o),
		newEnableCommand(o),
		newDisableCommand(o),
		newWatchCommand(o),
		newHistoryCommand(o),
		newTUICommand(o),
		newTrayCommand(o),
		newConfigCommand(o),
		newVersionCommand(o),
	)
	return root
}

// init loads the config file and sets up logging.
func (o *options) init() error {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return err
	}
	o.config = cfg

	level := common.ParseLogLevel(cfg.LogLevel)
	if o.verbose {
		level = common.LevelDebug
	}
	if err := common.InitLogger(common.LogConfig{
		Level:      level,
		EnableFile: cfg.LogToFile,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not initialize file logging: %v\n", err)
	}
	o.log = common.GetLogger()
	return nil
}

// dial opens the configured bus.
func (o *options) dial() (*dbus.Conn, error) {
	conn, err := bus.Dial(o.config.Bus)
	if err != nil {
		return nil, fmt.Errorf("%w: could not connect to the %s bus: %v", common.ErrTransport, o.config.Bus, err)
	}
	return conn, nil
}

// networkManager builds a direct client over NetworkManager.
func (o *options) networkManager(conn *dbus.Conn) (*bus.NetworkManager, *wireless.Client) {
	nm := bus.NewNetworkManager(conn, bus.Config{
		Interface: o.config.Interface,
		Logger:    o.log.Named("bus"),
	})
	client := wireless.NewClient(nm, wireless.ClientConfig{
		ScanSettle:     o.config.ScanSettle,
		ConnectTimeout: o.config.ConnectTimeout,
		Logger:         o.log.Named("wireless"),
	})
	return nm, client
}

// controller returns the daemon proxy when the daemon is running, and a
// direct client otherwise. The returned proxy is nil in the direct case.
func (o *options) controller(ctx context.Context) (wireless.Controller, *service.Proxy, func(), error) {
	conn, err := o.dial()
	if err != nil {
		return nil, nil, nil, err
	}
	closeFn := func() { conn.Close() }

	if !o.direct {
		proxy := service.NewProxy(conn, o.log.Named("proxy"))
		pingCtx, cancel := context.WithTimeout(ctx, o.config.CallTimeout)
		running := proxy.Ping(pingCtx)
		cancel()
		if running {
			o.log.Debug("Using daemon at %s", common.ServiceName)
			return proxy, proxy, closeFn, nil
		}
	}

	o.log.Debug("Talking to NetworkManager directly")
	_, client := o.networkManager(conn)
	return client, nil, closeFn, nil
}

// secrets opens the passphrase store. A failure is logged and yields nil.
func (o *options) secrets() *keyring.Store {
	store, err := keyring.New(keyring.Config{Logger: o.log.Named("keyring")})
	if err != nil {
		o.log.Warn("Passphrase storage unavailable: %v", err)
		return nil
	}
	return store
}

// runCLI opens a controller and runs fn against a CLI bound to it.
func (o *options) runCLI(cmd *cobra.Command, withSecrets bool, fn func(ctx context.Context, c *CLI) error) error {
	ctx := cmd.Context()
	ctrl, _, closeFn, err := o.controller(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	var secrets Secrets
	if withSecrets {
		if s := o.secrets(); s != nil {
			secrets = s
		}
	}
	return fn(ctx, New(ctrl, secrets, cmd.OutOrStdout()))
}

// setupSignalHandler configures graceful shutdown on SIGINT/SIGTERM.
func setupSignalHandler(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		common.LogInfo("Received signal %v, initiating graceful shutdown...", sig)
		cancel()
	}()
}

func newVersionCommand(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			printVersion(cmd.OutOrStdout(), o.build)
		},
	}
}

func printVersion(w io.Writer, build BuildInfo) {
	fmt.Fprintf(w, "%s v%s\n", common.AppName, build.Version)
	if build.Time != "" && build.Time != "unknown" {
		fmt.Fprintf(w, "  Build:  %s\n", build.Time)
		fmt.Fprintf(w, "  Commit: %s\n", build.Commit)
	}
}

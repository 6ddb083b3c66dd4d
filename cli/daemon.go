package cli

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/yllada/wifi-manager/common"
	"github.com/yllada/wifi-manager/history"
	"github.com/yllada/wifi-manager/service"
)

const (
	// historyRetention is how long recorded events are kept by the daemon.
	historyRetention = 30 * 24 * time.Hour
	// historyPruneInterval is how often the daemon drops expired events.
	historyPruneInterval = 6 * time.Hour
)

func newDaemonCommand(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Export the wireless service on the bus and emit notifications",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.runDaemon(cmd.Context())
		},
	}
}

// runDaemon serves the wireless interface until ctx is done.
func (o *options) runDaemon(ctx context.Context) error {
	log := o.log.Named("daemon")

	conn, err := o.dial()
	if err != nil {
		return err
	}
	nm, client := o.networkManager(conn)
	defer nm.Close()

	svc := service.New(conn, client, service.Config{
		CallTimeout:     o.config.CallTimeout,
		LongCallTimeout: o.config.ConnectTimeout + o.config.CallTimeout,
	}, o.log.Named("service"))

	notifier := service.NewNotifier(client, svc.Emit, service.NotifierConfig{
		PollInterval: o.config.PollInterval,
		CallTimeout:  o.config.CallTimeout,
	}, o.log.Named("notifier"))
	svc.AttachNotifier(notifier)

	var store *history.Store
	if o.config.History {
		if store = o.openHistory(); store != nil {
			defer store.Close()
			notifier.AddObserver(store.Observer())
		}
	}

	g, ctx := errgroup.WithContext(ctx)

	if err := svc.Export(ctx); err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			log.Warn("%v", err)
		}
	}()

	if err := nm.WatchDevices(ctx); err != nil {
		log.Warn("Device changes will not be tracked: %v", err)
	}

	g.Go(func() error {
		return notifier.Run(ctx)
	})
	if store != nil {
		g.Go(func() error {
			return pruneHistory(ctx, store, historyPruneInterval, o.log.Named("history"))
		})
	}

	log.Info("%s daemon started (poll every %s)", common.AppName, o.config.PollInterval)
	err = g.Wait()
	log.Info("%s daemon stopped", common.AppName)

	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// openHistory opens the history store. Failures are logged; the daemon
// runs without history.
func (o *options) openHistory() *history.Store {
	log := o.log.Named("history")

	path, err := history.DefaultPath()
	if err != nil {
		log.Warn("History disabled: %v", err)
		return nil
	}
	store, err := history.Open(path, log)
	if err != nil {
		log.Warn("History disabled: %v", err)
		return nil
	}
	return store
}

// pruneHistory drops entries older than historyRetention now and then
// every interval until ctx is done. Prune failures are logged.
func pruneHistory(ctx context.Context, store *history.Store, interval time.Duration, log common.Logger) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		n, err := store.Prune(ctx, time.Now().Add(-historyRetention))
		switch {
		case ctx.Err() != nil:
			return nil
		case err != nil:
			log.Warn("%v", err)
		case n > 0:
			log.Debug("Pruned %d history entries", n)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

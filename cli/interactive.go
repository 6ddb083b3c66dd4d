package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/yllada/wifi-manager/bus"
	"github.com/yllada/wifi-manager/model"
	"github.com/yllada/wifi-manager/service"
	"github.com/yllada/wifi-manager/tray"
	"github.com/yllada/wifi-manager/tui"
	"github.com/yllada/wifi-manager/wireless"
)

// startModel runs a reactive model over ctrl until ctx is done. The
// returned function waits for the model to stop.
func (o *options) startModel(ctx context.Context, ctrl wireless.Controller) (*model.Model, func()) {
	m := model.New(ctrl, model.Config{
		Workers:         o.config.Workers,
		CallTimeout:     o.config.CallTimeout,
		LongCallTimeout: o.config.ConnectTimeout + o.config.CallTimeout,
		Logger:          o.log.Named("model"),
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := m.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			o.log.Warn("Model stopped: %v", err)
		}
	}()
	return m, func() { <-done }
}

// localEvents runs a notifier in process for when no daemon is running.
func (o *options) localEvents(ctx context.Context, ctrl wireless.Controller) <-chan wireless.NotificationEvent {
	events := make(chan wireless.NotificationEvent, 1)
	emit := func(event wireless.NotificationEvent) error {
		select {
		case events <- event:
			return nil
		default:
			return errors.New("event queue full")
		}
	}

	notifier := service.NewNotifier(ctrl, emit, service.NotifierConfig{
		PollInterval: o.config.PollInterval,
		CallTimeout:  o.config.CallTimeout,
	}, o.log.Named("notifier"))
	go notifier.Run(ctx)
	return events
}

func newTUICommand(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the terminal dashboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			// Log lines would tear the alternate screen.
			o.log.DetachTerminal()

			ctrl, _, closeFn, err := o.controller(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			m, wait := o.startModel(ctx, ctrl)
			defer wait()
			defer cancel()

			var secrets tui.Secrets
			if s := o.secrets(); s != nil {
				secrets = s
			}
			err = tui.Run(ctx, m, secrets)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}

func newTrayCommand(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "tray",
		Short: "Show the system tray indicator",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			ctrl, proxy, closeFn, err := o.controller(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			m, wait := o.startModel(ctx, ctrl)
			defer wait()
			defer cancel()

			config := tray.Config{
				Model:  m,
				Logger: o.log.Named("tray"),
			}
			if proxy != nil {
				if events, err := proxy.Subscribe(ctx); err == nil {
					config.Events = events
				} else {
					o.log.Warn("%v", err)
				}
			} else {
				config.Events = o.localEvents(ctx, ctrl)
			}
			if o.config.ShowNotifications {
				if session, err := bus.Dial("session"); err == nil {
					defer session.Close()
					config.Notifier = tray.NewDesktopNotifier(session)
				} else {
					o.log.Warn("Desktop notifications unavailable: %v", err)
				}
			}

			tray.New(config).Run(ctx)
			return nil
		},
	}
}

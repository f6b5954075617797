package main

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"smartorder/client"

	"github.com/spf13/cobra"
)

var (
	watchInterval time.Duration
	watchRating   float64
	watchMessage  string
)

var watchCmd = &cobra.Command{
	Use:   "watch [orderId]",
	Short: "Follow an order until it is completed",
	Long: `Polls the order on a fixed interval and prints each status change.
Without an order id the last tracked order is resumed. When the order is
completed the feedback gate is checked; with --rating the feedback is sent.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		sess, err := newSession(cmd)
		if err != nil {
			return err
		}
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		w := newWatcher(cmd, sess, store)
		id := ""
		if len(args) == 1 {
			id = args[0]
			err = w.agent.Track(ctx, id)
		} else {
			id, err = w.agent.Resume(ctx)
		}
		if err != nil {
			return err
		}
		if id == "" {
			return errors.New("no order to watch: pass an order id")
		}
		return w.run(ctx)
	},
}

// watcher prints status changes of the tracked order and ends on completion
// or on an error that stops polling.
type watcher struct {
	agent    *client.Agent
	finished chan error

	mu         sync.Mutex
	lastStatus string
}

func newWatcher(cmd *cobra.Command, sess session, store client.Store) *watcher {
	out := cmd.OutOrStdout()
	w := &watcher{finished: make(chan error, 1)}
	w.agent = client.NewAgent(sess.api, store, client.AgentConfig{
		Interval: watchInterval,
		UserID:   sess.userID,
		Logger:   logger,
		OnUpdate: func(o *client.Order) {
			w.mu.Lock()
			defer w.mu.Unlock()
			if o.Status != w.lastStatus {
				w.lastStatus = o.Status
				fmt.Fprintf(out, "%s  order %s  table %s  %s\n", time.Now().Format(time.TimeOnly), o.ID, o.TableNumber, o.Status)
			}
		},
		OnComplete: func(o *client.Order) {
			w.finish(offerFeedback(cmd, sess, store, o))
		},
		OnError: func(id string, err error) {
			w.finish(fmt.Errorf("order %s: %w", id, err))
		},
	})
	return w
}

func (w *watcher) finish(err error) {
	select {
	case w.finished <- err:
	default:
	}
}

func (w *watcher) run(ctx context.Context) error {
	stop := w.agent.Start(ctx)
	defer stop()

	select {
	case <-ctx.Done():
		return nil
	case err := <-w.finished:
		return err
	}
}

func offerFeedback(cmd *cobra.Command, sess session, store client.Store, o *client.Order) error {
	out := cmd.OutOrStdout()
	gate := client.NewGate(sess.api, store, sess.authenticated())
	d, err := gate.Check(cmd.Context(), o.ID)
	if err != nil {
		return err
	}
	if !d.Eligible {
		fmt.Fprintf(out, "order %s is %s; feedback not available (%s)\n", o.ID, o.Status, d.Reason)
		return nil
	}
	if !cmd.Flags().Changed("rating") {
		fmt.Fprintf(out, "order %s is %s. Rate it with: orderctl feedback %s --rating 5\n", o.ID, o.Status, o.ID)
		return nil
	}
	if err := gate.Submit(cmd.Context(), o.ID, &watchRating, watchMessage); err != nil {
		return err
	}
	fmt.Fprintln(out, "thanks, feedback recorded")
	return nil
}

func init() {
	watchCmd.Flags().DurationVar(&watchInterval, "interval", client.DefaultPollInterval, "poll interval")
	watchCmd.Flags().Float64Var(&watchRating, "rating", 0, "submit this rating (0-5) once the order completes")
	watchCmd.Flags().StringVar(&watchMessage, "message", "", "feedback message")
}

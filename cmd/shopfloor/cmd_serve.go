package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"shopfloor_go/internal/shopfloor/httpapi"
	"shopfloor_go/internal/shopfloor/ipc"
	"shopfloor_go/internal/shopfloor/session"
)

func newServeCmd(flags *rootFlags) *cobra.Command {
	var httpAddr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a headless session behind the HTTP and unix socket surfaces",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context(), flags, false)
			if err != nil {
				return err
			}
			defer a.Close()
			if httpAddr != "" {
				a.cfg.HTTPAddr = httpAddr
			}
			if a.cfg.HTTPAddr == "" && a.cfg.IPCSocket == "" {
				return fmt.Errorf("nothing to serve: enable SHOPFLOOR_HTTP_ENABLED or SHOPFLOOR_IPC_ENABLED")
			}
			return serve(cmd.Context(), a)
		},
	}
	cmd.Flags().StringVar(&httpAddr, "http", "", "HTTP listen address, overrides SHOPFLOOR_HTTP_ADDR")
	return cmd
}

func serve(parent context.Context, a *app) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	sess := session.New(session.Options{
		ID:          a.sessionID,
		Transport:   a.transport,
		Observer:    a.metrics,
		Logger:      a.log.WithComponent("session").Logger,
		Scenario:    a.cfg.Scenario,
		Timeout:     a.cfg.RequestTimeout(),
		QtyCeiling:  a.cfg.QtyCeiling,
		PickedLimit: a.cfg.LastPickedLimit,
	})

	var wg sync.WaitGroup
	errs := make(chan error, 3)
	run := func(name string, fn func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(ctx); err != nil && !errors.Is(err, context.Canceled) {
				errs <- fmt.Errorf("%s: %w", name, err)
				stop()
			}
		}()
	}

	run("session", func(ctx context.Context) error {
		sess.Run(ctx)
		return nil
	})
	if _, err := sess.Start(ctx, ""); err != nil {
		stop()
		wg.Wait()
		return err
	}

	if a.cfg.HTTPAddr != "" {
		opts := httpapi.Options{
			Addr:    a.cfg.HTTPAddr,
			Session: sess,
			Metrics: a.metrics.Handler(),
			Logger:  a.log.WithComponent("http").Logger,
		}
		if a.journal != nil {
			opts.Journal = a.journal
		}
		srv := httpapi.New(opts)
		run("http", srv.Run)
	}
	if a.cfg.IPCSocket != "" {
		srv := ipc.New(a.cfg.IPCSocket, sess, a.log.WithComponent("ipc").Logger)
		run("ipc", srv.Run)
	}

	a.log.Info("serving", "http", a.cfg.HTTPAddr, "ipc", a.cfg.IPCSocket)
	<-ctx.Done()
	wg.Wait()
	close(errs)

	var joined error
	for err := range errs {
		joined = errors.Join(joined, err)
	}
	a.log.Info("stopped", "stats", sess.StatusText())
	return joined
}

package cli

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"workshopmods/internal/config"
	"workshopmods/internal/pipeline"
	"workshopmods/internal/server"
)

type serveFlags struct {
	addr    string
	every   time.Duration
	variant string
}

func newServeCommand(g *globalFlags) *cobra.Command {
	f := &serveFlags{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve run triggers, run history and metrics over HTTP",
		Long: `Serve starts an HTTP server exposing

  GET  /healthz
  GET  /api/runs
  GET  /api/runs/{id}
  POST /api/runs/{web|download}
  GET  /metrics

With --every the configured variant also runs on that interval.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, g, f)
		},
	}
	cmd.Flags().StringVar(&f.addr, "addr", "", "listen address (default from config, :8080)")
	cmd.Flags().DurationVar(&f.every, "every", 0, "run the scheduled variant on this interval")
	cmd.Flags().StringVar(&f.variant, "variant", "", "variant run by the scheduler: web or download")
	return cmd
}

// apply overrides cfg with the flags the user set.
func (f *serveFlags) apply(cfg config.ServeConfig, changed func(name string) bool) config.ServeConfig {
	if changed("addr") {
		cfg.Addr = f.addr
	}
	if changed("every") {
		cfg.Every = f.every
	}
	if changed("variant") {
		cfg.Variant = f.variant
	}
	return cfg
}

func runServe(cmd *cobra.Command, g *globalFlags, f *serveFlags) error {
	a, err := newApp(g, serveLog)
	if err != nil {
		return err
	}
	defer a.Close()

	opts := server.Options{Log: a.log, Runs: server.NewRuns(a.trigger), Metrics: a.metrics}
	if a.store != nil {
		opts.History = a.store
	}
	rt, err := newServeRuntime(f.apply(a.cfg.Serve, cmd.Flags().Changed), opts)
	if err != nil {
		return err
	}
	return rt.Run(cmd.Context())
}

// trigger builds a fresh pipeline for v from the source file and runs it.
func (a *app) trigger(ctx context.Context, v pipeline.Variant) (*pipeline.Run, error) {
	if v == pipeline.VariantDownload {
		p, err := a.downloadPipeline(nil)
		if err != nil {
			return nil, err
		}
		return p.Run(ctx)
	}
	return a.webPipeline(nil).Run(ctx)
}

const (
	shutdownGrace   = 200 * time.Millisecond
	shutdownTimeout = 5 * time.Second
	drainTimeout    = 30 * time.Second
)

// serveRuntime owns the HTTP server and the run scheduler of serve mode.
type serveRuntime struct {
	log       zerolog.Logger
	runs      *server.Runs
	srv       *http.Server
	scheduler *gocron.Scheduler
	every     time.Duration
	scheduled pipeline.Variant
	// drain bounds how long shutdown waits for runs still in flight.
	drain time.Duration

	shuttingDown atomic.Bool
}

func newServeRuntime(cfg config.ServeConfig, opts server.Options) (*serveRuntime, error) {
	scheduled, err := pipeline.ParseVariant(cfg.Variant)
	if err != nil {
		return nil, err
	}
	rt := &serveRuntime{
		log:       opts.Log,
		runs:      opts.Runs,
		scheduler: gocron.NewScheduler(time.UTC),
		every:     cfg.Every,
		scheduled: scheduled,
		drain:     drainTimeout,
	}
	rt.srv = &http.Server{
		Addr:        cfg.Addr,
		Handler:     server.WithShutdown(server.New(opts), &rt.shuttingDown),
		ReadTimeout: 5 * time.Second,
		IdleTimeout: 60 * time.Second,
	}
	return rt, nil
}

// Run serves until ctx is cancelled, then stops the scheduler, shuts the
// server down and waits up to drain for runs that are still going.
func (rt *serveRuntime) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if rt.every > 0 {
		_, err := rt.scheduler.Every(rt.every).Do(func() {
			if _, _, err := rt.runs.Do(ctx, rt.scheduled); err != nil {
				rt.log.Error().Err(err).Str("variant", string(rt.scheduled)).Msg("scheduled run")
			}
		})
		if err != nil {
			return err
		}
		rt.log.Info().Str("variant", string(rt.scheduled)).Dur("every", rt.every).Msg("scheduled runs enabled")
	}
	rt.scheduler.StartAsync()

	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()
		rt.shutdown()
	}()

	rt.log.Info().Str("addr", rt.srv.Addr).Msg("starting server")
	err := rt.srv.ListenAndServe()
	cancel()
	<-done
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (rt *serveRuntime) shutdown() {
	rt.shuttingDown.Store(true)
	rt.runs.Close()
	rt.scheduler.Stop()
	time.Sleep(shutdownGrace)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := rt.srv.Shutdown(shutdownCtx); err != nil {
		rt.log.Error().Err(err).Msg("server shutdown")
	}
	if !rt.runs.Wait(rt.drain) {
		rt.log.Warn().Dur("timeout", rt.drain).Msg("runs still in flight after shutdown")
	}
}

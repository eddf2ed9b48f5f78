package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/fsroute/fsroute"
	"github.com/fsroute/fsroute/pkg/chain"
	"github.com/fsroute/fsroute/pkg/host"
	"github.com/fsroute/fsroute/pkg/middleware"
)

// serveCmd runs a demo server with a built-in route convention, useful for
// poking at pattern compilation and chain behavior from a browser or curl.
func serveCmd() *cobra.Command {
	var addr string
	var verbose bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a demo server with a built-in route convention",
		Long: `Run an HTTP server mounting a small built-in convention:

  /              index, lists the demo routes
  /hello         plain text response
  /echo/[...rest]  echoes the captured segments as JSON
  /blog/[slug]   parameterized route`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

			rt := host.NewChiRouter(logger)
			if err := fsroute.Mount(rt, fsroute.Options{
				Modules: demoModules(logger),
				Logger:  logger,
				Verbose: verbose,
			}); err != nil {
				return err
			}

			srv := &http.Server{
				Addr:              addr,
				Handler:           rt,
				ReadHeaderTimeout: 5 * time.Second,
			}
			logger.Info("listening", "addr", addr)
			return srv.ListenAndServe()
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "log route registration")
	return cmd
}

func demoModules(logger *slog.Logger) map[string]fsroute.ModuleLoader {
	mod := func(m *fsroute.Module) fsroute.ModuleLoader {
		return func() (*fsroute.Module, error) { return m, nil }
	}

	return map[string]fsroute.ModuleLoader{
		"_middleware.ts": mod(&fsroute.Module{Exports: map[string]any{
			"OnRequest": middleware.Logging(logger),
		}}),
		"index.ts": mod(&fsroute.Module{Exports: map[string]any{
			"OnRequestGet": func(ctx *chain.Ctx) (any, error) {
				return "fsroute demo\n\n  GET /hello\n  GET /echo/a/b/c\n  GET /blog/some-slug\n", nil
			},
		}}),
		"hello.ts": mod(&fsroute.Module{Exports: map[string]any{
			"OnRequestGet": func(ctx *chain.Ctx) (any, error) {
				return "hello from fsroute", nil
			},
		}}),
		"echo/[...rest].ts": mod(&fsroute.Module{Exports: map[string]any{
			"OnRequestGet": func(ctx *chain.Ctx) (any, error) {
				return map[string]any{
					"segments": ctx.Params.All("rest"),
					"trace_id": ctx.TraceID(),
				}, nil
			},
		}}),
		"blog/[slug].ts": mod(&fsroute.Module{Exports: map[string]any{
			"OnRequestGet": func(ctx *chain.Ctx) (any, error) {
				return fmt.Sprintf("post: %s", strings.Join(ctx.Params.All("slug"), "/")), nil
			},
		}}),
	}
}

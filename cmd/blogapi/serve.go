package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/artpar/blogapi/app"
	"github.com/artpar/blogapi/bootstrap"
	"github.com/spf13/cobra"
)

var (
	hotReload bool
	serveSeed bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start the blogapi HTTP server.

Routes (under api.namespace when set):
  GET /{type}                    collection document
  GET /{type}/{id}               single resource document
  GET /{type}/{id}/{relation}    related resource(s) document
  GET /healthz                   liveness
  GET /metrics                   Prometheus metrics (metrics.path)

Every document route accepts ?include=a,b.c.

Examples:
  blogapi serve
  blogapi serve --config /etc/blogapi/blogapi.yaml
  blogapi serve --db :memory: --seed`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&hotReload, "hot-reload", true, "enable hot reload of configuration")
	serveCmd.Flags().BoolVar(&serveSeed, "seed", false, "insert the demo fixture before serving")
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := bootstrap.New(bootstrap.Options{
		ConfigPath: cfgFile,
		Override:   applyFlags,
		Watch:      hotReload,
		LogOutput:  os.Stdout,
	})
	if err != nil {
		return fmt.Errorf("create app: %w", err)
	}

	if serveSeed {
		if _, err := a.Seed(cmd.Context()); err != nil && !errors.Is(err, app.ErrAlreadySeeded) {
			a.Shutdown()
			return fmt.Errorf("seed: %w", err)
		}
	}

	return a.Run(cmd.Context())
}

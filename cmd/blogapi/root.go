package main

import (
	"fmt"
	"io"
	"os"

	"github.com/artpar/blogapi/bootstrap"
	"github.com/artpar/blogapi/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	dbDSN   string
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "blogapi",
	Short: "JSON:API compound documents for a blog data model",
	Long: `blogapi serves blog posts, users, comments, images and tags as
JSON:API documents, side-loading related resources on request.

Quick start:
  blogapi seed                                  # insert the demo fixture
  blogapi serve                                 # start the HTTP server
  blogapi show posts 7 --include comments.user  # print a document

Configuration comes from blogapi.yaml (or --config) with BLOGAPI_*
environment overrides.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", config.DefaultPath, "config file path")
	rootCmd.PersistentFlags().StringVar(&dbDSN, "db", "", `database DSN, overrides config (":memory:" for the in-memory store)`)
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log to stderr")
}

// appOptions builds bootstrap options for one-shot commands: logs are
// discarded unless --verbose, metrics stay out of the global registry.
func appOptions(cmd *cobra.Command) bootstrap.Options {
	var logOut io.Writer = io.Discard
	if verbose {
		logOut = cmd.ErrOrStderr()
	}
	return bootstrap.Options{
		ConfigPath: cfgFile,
		Override:   applyFlags,
		Registry:   prometheus.NewRegistry(),
		LogOutput:  logOut,
	}
}

func applyFlags(cfg *config.Config) {
	if dbDSN != "" {
		cfg.Database.DSN = dbDSN
	}
}

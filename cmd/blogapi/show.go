package main

import (
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/artpar/blogapi/app"
	"github.com/artpar/blogapi/bootstrap"
	"github.com/artpar/blogapi/config"
	"github.com/artpar/blogapi/core/formatter"
	"github.com/spf13/cobra"
)

var (
	showInclude []string
	showFormat  string
	showDomain  string
	showSeed    bool
	showCompact bool
)

var showCmd = &cobra.Command{
	Use:   "show <type> [id] [relation]",
	Short: "Print a document",
	Long: `Print the document the server would return for a resource type, one
record, or the records related to one record.

Examples:
  blogapi show posts
  blogapi show posts 7 --include image,comments.user
  blogapi show posts 7 tags --format table
  blogapi show users 1 --format yaml --db :memory: --seed`,
	Args: cobra.RangeArgs(1, 3),
	RunE: runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)

	showCmd.Flags().StringSliceVarP(&showInclude, "include", "i", nil, "relationship paths to side-load (a,b.c)")
	showCmd.Flags().StringVarP(&showFormat, "format", "f", "json", "output format: "+strings.Join(formatter.List(), ", "))
	showCmd.Flags().StringVar(&showDomain, "domain", "", "link domain (default: server.base_url or http://localhost:<port>)")
	showCmd.Flags().BoolVar(&showSeed, "seed", false, "insert the demo fixture first")
	showCmd.Flags().BoolVar(&showCompact, "compact", false, "compact json output")
}

func runShow(cmd *cobra.Command, args []string) error {
	f, ok := formatter.Get(showFormat)
	if !ok {
		return fmt.Errorf("unknown format %q (available: %s)", showFormat, strings.Join(formatter.List(), ", "))
	}

	a, err := bootstrap.New(appOptions(cmd))
	if err != nil {
		return fmt.Errorf("create app: %w", err)
	}
	defer a.Shutdown()

	if showSeed {
		if _, err := a.Seed(cmd.Context()); err != nil && !errors.Is(err, app.ErrAlreadySeeded) {
			return fmt.Errorf("seed: %w", err)
		}
	}

	q := app.Query{
		Resource: args[0],
		Include:  showInclude,
		Domain:   linkDomain(a.Config),
	}
	if len(args) > 1 {
		q.ID = args[1]
	}
	if len(args) > 2 {
		q.Relation = args[2]
	}

	doc, err := a.Catalog.Document(cmd.Context(), q)
	if err != nil {
		f.FormatError(cmd.ErrOrStderr(), err)
		return err
	}
	return f.FormatDocument(cmd.OutOrStdout(), doc, formatter.FormatOptions{Compact: showCompact})
}

func linkDomain(cfg *config.Config) string {
	switch {
	case showDomain != "":
		return strings.TrimRight(showDomain, "/")
	case cfg.Server.BaseURL != "":
		return cfg.Server.BaseURL
	}
	port, err := bootstrap.NormalizePort(cfg.Server.Port)
	if err != nil || strings.ContainsAny(port, `/\`) {
		return "http://localhost"
	}
	return "http://" + net.JoinHostPort("localhost", port)
}

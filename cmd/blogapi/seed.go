package main

import (
	"errors"
	"fmt"

	"github.com/artpar/blogapi/app"
	"github.com/artpar/blogapi/bootstrap"
	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert the demo fixture",
	Long: `Insert the demo fixture: post 7 by Ada with an image, three tags and
three comments, plus a draft post by Grace.

Seeding twice is a no-op.`,
	Args: cobra.NoArgs,
	RunE: runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, args []string) error {
	a, err := bootstrap.New(appOptions(cmd))
	if err != nil {
		return fmt.Errorf("create app: %w", err)
	}
	defer a.Shutdown()

	out := cmd.OutOrStdout()
	f, err := a.Seed(cmd.Context())
	if errors.Is(err, app.ErrAlreadySeeded) {
		fmt.Fprintln(out, "Fixture already present.")
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Seeded %d users, %d posts, 1 image, %d tags, %d comments.\n",
		len(f.Users), len(f.Posts), len(f.Tags), len(f.Comments))
	fmt.Fprintf(out, "Try: blogapi show posts %d --include image,tags,comments.user\n", app.FixturePostID)
	return nil
}

package main

import (
	"context"
	"encoding/json"
	"io"

	"github.com/spf13/cobra"

	"github.com/ewilliams-labs/shelfsound/internal/app"
	"github.com/ewilliams-labs/shelfsound/internal/config"
	"github.com/ewilliams-labs/shelfsound/internal/logging"
)

type cli struct {
	out        io.Writer
	loadConfig func() (*config.Config, error)
	logLevel   string
}

func newRootCmd(out io.Writer, loadConfig func() (*config.Config, error)) *cobra.Command {
	c := &cli{out: out, loadConfig: loadConfig}
	root := &cobra.Command{
		Use:           "shelfctl",
		Short:         "shelfctl classifies books and finds music to read them by.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	root.AddCommand(
		c.classifyCmd(),
		c.recommendCmd(),
		c.searchBooksCmd(),
		c.searchMusicCmd(),
		c.queriesCmd(),
	)
	return root
}

// run builds the application for one command and closes it afterwards.
// Catalog results are not persisted in the background.
func (c *cli) run(ctx context.Context, fn func(context.Context, *app.App) (any, error)) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	logging.Init(logging.Config{Level: c.logLevel, Format: "console"})

	a, err := app.Build(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	v, err := fn(ctx, a)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

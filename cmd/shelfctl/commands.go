package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/ewilliams-labs/shelfsound/internal/app"
	"github.com/ewilliams-labs/shelfsound/internal/core/domain"
	"github.com/ewilliams-labs/shelfsound/internal/core/services"
)

type queriesOutput struct {
	Classification domain.Classification `json:"classification"`
	Queries        []string              `json:"queries"`
}

func (c *cli) classifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classify <volumeId>",
		Short: "Classify a book's reading mood",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd.Context(), func(ctx context.Context, a *app.App) (any, error) {
				book, err := a.Orchestrator.ResolveBook(ctx, args[0])
				if err != nil {
					return nil, err
				}
				return a.Classifier.Classify(ctx, book), nil
			})
		},
	}
}

func (c *cli) recommendCmd() *cobra.Command {
	var req services.RecommendRequest
	cmd := &cobra.Command{
		Use:   "recommend <volumeId>",
		Short: "Recommend tracks and playlists for a book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.BookID = args[0]
			return c.run(cmd.Context(), func(ctx context.Context, a *app.App) (any, error) {
				return a.Orchestrator.RecommendMusic(ctx, req)
			})
		},
	}
	cmd.Flags().StringVar(&req.Mood, "mood", "", "override the classified mood")
	cmd.Flags().StringVar(&req.Energy, "energy", "", "override the classified energy")
	cmd.Flags().IntVar(&req.Limit, "limit", 20, "maximum number of tracks (1-50)")
	return cmd
}

func (c *cli) searchBooksCmd() *cobra.Command {
	var page, limit int
	cmd := &cobra.Command{
		Use:   "search-books <query>",
		Short: "Search the book catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd.Context(), func(ctx context.Context, a *app.App) (any, error) {
				return a.Orchestrator.SearchBooks(ctx, args[0], page, limit)
			})
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "result page (1-100)")
	cmd.Flags().IntVar(&limit, "limit", 10, "results per page (1-20)")
	return cmd
}

func (c *cli) searchMusicCmd() *cobra.Command {
	var kind string
	var limit int
	cmd := &cobra.Command{
		Use:   "search-music <query>",
		Short: "Search for tracks or playlists",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd.Context(), func(ctx context.Context, a *app.App) (any, error) {
				return a.Orchestrator.SearchMusic(ctx, args[0], kind, limit)
			})
		},
	}
	cmd.Flags().StringVar(&kind, "type", services.SearchTypeTrack, "track or playlist")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of results (1-50)")
	return cmd
}

func (c *cli) queriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "queries <volumeId>",
		Short: "Show the music search queries generated for a book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd.Context(), func(ctx context.Context, a *app.App) (any, error) {
				book, err := a.Orchestrator.ResolveBook(ctx, args[0])
				if err != nil {
					return nil, err
				}
				cl := a.Classifier.Classify(ctx, book).Normalize()
				return queriesOutput{Classification: cl, Queries: services.GenerateQueries(cl)}, nil
			})
		},
	}
}

package main

import (
	"fmt"

	"skillshare/internal/repository"
	"skillshare/internal/service"

	"github.com/spf13/cobra"
)

func newReconcileCmd(app *adminApp) *cobra.Command {
	return &cobra.Command{
		Use:       "reconcile [posts|edges|all]",
		Short:     "Repair counters and one-sided follow edges",
		Long:      "Recompute post like and comment counters from their lists and restore\nfollow edges that were stored on only one of the two users.",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"posts", "edges", "all"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target := "all"
			if len(args) == 1 {
				target = args[0]
			}

			db, err := app.connect()
			if err != nil {
				return err
			}
			svc := service.NewReconcileService(
				repository.NewPostRepository(db),
				repository.NewCommentRepository(db),
				repository.NewUserRepository(db),
				app.attempts,
			)

			ctx := cmd.Context()
			var report service.ReconcileReport
			if target == "posts" || target == "all" {
				r, err := svc.ReconcilePosts(ctx)
				if err != nil {
					return fmt.Errorf("reconcile posts: %w", err)
				}
				report.PostsScanned, report.PostsRepaired = r.PostsScanned, r.PostsRepaired
			}
			if target == "edges" || target == "all" {
				r, err := svc.ReconcileFollowEdges(ctx)
				if err != nil {
					return fmt.Errorf("reconcile follow edges: %w", err)
				}
				report.UsersScanned, report.EdgesRepaired, report.ListsCompacted = r.UsersScanned, r.EdgesRepaired, r.ListsCompacted
			}

			out := cmd.OutOrStdout()
			if app.asJSON {
				return app.printJSON(out, report)
			}
			fmt.Fprintf(out, "✅ Reconcile %s complete\n", target)
			fmt.Fprintf(out, "posts:  scanned=%d repaired=%d\n", report.PostsScanned, report.PostsRepaired)
			fmt.Fprintf(out, "users:  scanned=%d edges_repaired=%d lists_compacted=%d\n",
				report.UsersScanned, report.EdgesRepaired, report.ListsCompacted)
			return nil
		},
	}
}

package main

import (
	"fmt"
	"strconv"

	"skillshare/internal/models"
	"skillshare/internal/repository"

	"github.com/spf13/cobra"
)

func newListUsersCmd(app *adminApp) *cobra.Command {
	var limit, offset int
	cmd := &cobra.Command{
		Use:   "list-users",
		Short: "List accounts with their follow counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := app.connect()
			if err != nil {
				return err
			}
			users, err := repository.NewUserRepository(db).List(cmd.Context(), limit, offset)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if app.asJSON {
				return app.printJSON(out, users)
			}
			if len(users) == 0 {
				fmt.Fprintln(out, "No users found")
				return nil
			}
			fmt.Fprintln(out, "─────────────────────────────────────")
			for _, u := range users {
				fmt.Fprintf(out, "ID: %d | Username: %s | Email: %s | followers=%d following=%d\n",
					u.ID, u.Username, u.Email, len(u.Followers), len(u.Following))
			}
			fmt.Fprintln(out, "─────────────────────────────────────")
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum users to list")
	cmd.Flags().IntVar(&offset, "offset", 0, "Users to skip")
	return cmd
}

func newShowUserCmd(app *adminApp) *cobra.Command {
	return &cobra.Command{
		Use:   "show-user <id|email|username>",
		Short: "Show one account in detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := app.connect()
			if err != nil {
				return err
			}
			user, err := lookupUser(cmd, repository.NewUserRepository(db), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if app.asJSON {
				return app.printJSON(out, user)
			}
			fmt.Fprintf(out, "ID:        %d\n", user.ID)
			fmt.Fprintf(out, "Username:  %s\n", user.Username)
			fmt.Fprintf(out, "Email:     %s\n", user.Email)
			fmt.Fprintf(out, "Name:      %s\n", user.DisplayName())
			fmt.Fprintf(out, "Skills:    %v\n", []string(user.Skills))
			fmt.Fprintf(out, "Followers: %v\n", []uint(user.Followers))
			fmt.Fprintf(out, "Following: %v\n", []uint(user.Following))
			fmt.Fprintf(out, "Joined:    %s\n", user.CreatedAt.Format("2006-01-02"))
			return nil
		},
	}
}

func lookupUser(cmd *cobra.Command, repo repository.UserRepository, key string) (*models.User, error) {
	ctx := cmd.Context()
	var (
		user *models.User
		err  error
	)
	if id, convErr := strconv.ParseUint(key, 10, 64); convErr == nil {
		user, err = repo.GetByID(ctx, uint(id))
	} else if user, err = repo.GetByEmail(ctx, key); err == nil && user == nil {
		user, err = repo.GetByUsername(ctx, key)
	}

	if err != nil && !models.HasCode(err, models.CodeNotFound) {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("user %q not found", key)
	}
	return user, nil
}

package service

import (
	"context"
	"strings"

	"skillshare/internal/models"
	"skillshare/internal/repository"
)

// resolveActor maps an identity token (the account email) to its user.
func resolveActor(ctx context.Context, users repository.UserRepository, email string) (*models.User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, models.NewUnauthorizedError("Authentication required")
	}
	user, err := users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewNotFoundError("User", email)
	}
	return user, nil
}

// resolveViewer is resolveActor for optional identities: an empty email means anonymous.
func resolveViewer(ctx context.Context, users repository.UserRepository, email string) (*models.User, error) {
	if strings.TrimSpace(email) == "" {
		return nil, nil
	}
	return resolveActor(ctx, users, email)
}

// loadAuthors batches author lookups for read models. Ids that no longer
// resolve map to a summary carrying only the id.
func loadAuthors(ctx context.Context, users repository.UserRepository, ids []uint) (map[uint]models.AuthorSummary, error) {
	out := make(map[uint]models.AuthorSummary, len(ids))
	found, err := users.GetByIDs(ctx, models.DedupeIDs(ids, 0))
	if err != nil {
		return nil, err
	}
	for i := range found {
		out[found[i].ID] = found[i].Summary()
	}
	for _, id := range ids {
		if _, ok := out[id]; !ok {
			out[id] = models.AuthorSummary{ID: id}
		}
	}
	return out, nil
}

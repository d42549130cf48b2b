package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/Omakidx/link6ync/internal/model"
	"github.com/Omakidx/link6ync/internal/repository"
)

// findUserBySubject resolves a token subject claim to its account record.
func findUserBySubject(ctx context.Context, repo repository.UserRepository, subject string) (*model.User, error) {
	id, err := uuid.Parse(subject)
	if err != nil {
		return nil, err
	}
	return repo.FindByID(ctx, id)
}

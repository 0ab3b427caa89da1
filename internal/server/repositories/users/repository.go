// Package users declares the repository contract for identityd accounts.
package users

import (
	"context"

	"github.com/dmitrijs2005/fitcoach/internal/server/models"
)

type Repository interface {
	// Create inserts user. A taken email yields common.ErrAccountAlreadyExists.
	Create(ctx context.Context, user *models.User) (*models.User, error)
	// GetUserByEmail and GetUserByID return common.ErrNotFound when absent.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

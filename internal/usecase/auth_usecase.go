package usecase

import (
	"context"

	"back2me/internal/domain/entity"
	"back2me/internal/domain/repository"
	"back2me/internal/infrastructure/firebase"
	"back2me/pkg/errors"
)

type AuthUseCase struct {
	userRepo   repository.UserRepository
	authClient *firebase.AuthClient
	now        func() string
}

func NewAuthUseCase(userRepo repository.UserRepository, authClient *firebase.AuthClient) *AuthUseCase {
	return &AuthUseCase{
		userRepo:   userRepo,
		authClient: authClient,
		now:        nowUTC,
	}
}

type RegisterInput struct {
	Email       string
	Password    string
	DisplayName string
}

type UpdateProfileInput struct {
	DisplayName string
	PhotoURL    string
}

// Register creates the Firebase account and its profile document. Sign-in
// itself happens in the client SDK; the backend only verifies ID tokens.
func (uc *AuthUseCase) Register(ctx context.Context, input RegisterInput) (*entity.User, error) {
	uid, err := uc.authClient.CreateUser(ctx, input.Email, input.Password, input.DisplayName)
	if err != nil {
		return nil, errors.BadRequest("Failed to create account", err)
	}

	user := &entity.User{
		ID:          uid,
		Email:       input.Email,
		DisplayName: input.DisplayName,
		CreatedAt:   uc.now(),
	}

	if err := uc.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

func (uc *AuthUseCase) GetProfile(ctx context.Context, userID string) (*entity.User, error) {
	return uc.userRepo.GetByID(ctx, userID)
}

func (uc *AuthUseCase) UpdateProfile(ctx context.Context, userID string, input UpdateProfileInput) (*entity.User, error) {
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if input.DisplayName != "" {
		user.DisplayName = input.DisplayName
	}
	if input.PhotoURL != "" {
		user.PhotoURL = input.PhotoURL
	}

	if err := uc.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

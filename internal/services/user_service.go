package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"marketplace-chat/internal/cache"
	"marketplace-chat/internal/models"
	"marketplace-chat/internal/repositories/postgres"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Profiles change rarely; the long absolute TTL matches how existing
// deployments were tuned. Every profile write invalidates the key anyway.
const profileTTL = 30 * 24 * time.Hour

type UserService interface {
	Register(ctx context.Context, req *models.RegisterRequest) (*models.ProfileResponse, error)
	Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error)
	GetProfile(ctx context.Context, userID string) (*models.ProfileResponse, error)
	UpdateProfile(ctx context.Context, userID string, req *models.UpdateProfileRequest) (*models.ProfileResponse, error)
}

type userService struct {
	repo      postgres.UserRepository
	store     *cache.Store
	jwtSecret string
	jwtExpire time.Duration
}

func NewUserService(repo postgres.UserRepository, store *cache.Store, jwtSecret string, jwtExpire time.Duration) UserService {
	return &userService{
		repo:      repo,
		store:     store,
		jwtSecret: jwtSecret,
		jwtExpire: jwtExpire,
	}
}

func profileOf(user *models.User) *models.ProfileResponse {
	return &models.ProfileResponse{
		ID:      user.ID,
		Name:    user.Name,
		Email:   user.Email,
		Bio:     user.Bio,
		Balance: user.Balance,
	}
}

func (s *userService) Register(ctx context.Context, req *models.RegisterRequest) (*models.ProfileResponse, error) {
	if _, err := s.repo.FindByEmail(ctx, req.Email); err == nil {
		return nil, fmt.Errorf("%w: email already registered", ErrConflict)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("user lookup failed: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("password hash failed: %w", err)
	}

	user := &models.User{
		Name:     req.Name,
		Email:    req.Email,
		Password: string(hashed),
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("user create failed: %w", err)
	}

	return profileOf(user), nil
}

func (s *userService) Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error) {
	user, err := s.repo.FindByEmail(ctx, req.Email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("user lookup failed: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": user.ID,
		"email":   user.Email,
		"exp":     time.Now().Add(s.jwtExpire).Unix(),
	})
	signed, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return nil, fmt.Errorf("token signing failed: %w", err)
	}

	return &models.LoginResponse{Token: signed, User: *profileOf(user)}, nil
}

func (s *userService) GetProfile(ctx context.Context, userID string) (*models.ProfileResponse, error) {
	return cache.ReadThrough(ctx, s.store, cache.UserProfileKey(userID), cache.Absolute(profileTTL),
		func(ctx context.Context) (*models.ProfileResponse, error) {
			user, err := s.repo.FindByID(ctx, userID)
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: user %s", ErrNotFound, userID)
			}
			if err != nil {
				return nil, fmt.Errorf("user lookup failed: %w", err)
			}
			return profileOf(user), nil
		})
}

func (s *userService) UpdateProfile(ctx context.Context, userID string, req *models.UpdateProfileRequest) (*models.ProfileResponse, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: user %s", ErrNotFound, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("user lookup failed: %w", err)
	}

	if req.Name != "" {
		user.Name = req.Name
	}
	if req.Bio != "" {
		user.Bio = req.Bio
	}
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("user update failed: %w", err)
	}

	s.store.Invalidate(ctx, cache.UserProfileKey(userID))
	return profileOf(user), nil
}

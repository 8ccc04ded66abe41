package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shikunim/building_mgmt_app/internal/apperrors"
	portsrepo "github.com/shikunim/building_mgmt_app/internal/core/ports/repositories"
	portssvc "github.com/shikunim/building_mgmt_app/internal/core/ports/services"
	"github.com/shikunim/building_mgmt_app/internal/dto"
	"github.com/shikunim/building_mgmt_app/internal/middleware"
	"github.com/shikunim/building_mgmt_app/internal/utils"
	"github.com/shikunim/building_mgmt_app/pkg/config"
)

// authService authenticates committee members and issues JWT access
// tokens. The ledger core consumes only the token subject for audit
// attribution.
type authService struct {
	cfg      *config.Config
	userRepo portsrepo.UserRepositoryFacade
}

// NewAuthService creates the authentication service.
func NewAuthService(cfg *config.Config, userRepo portsrepo.UserRepositoryFacade) *authService {
	return &authService{cfg: cfg, userRepo: userRepo}
}

var _ portssvc.AuthSvcFacade = (*authService)(nil)

// Login verifies the credentials and returns a signed access token. A
// missing user and a wrong password produce the same error, so login
// responses do not leak which usernames exist.
func (s *authService) Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	user, err := s.userRepo.FindUserByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: invalid credentials", apperrors.ErrUnauthorized)
		}
		return nil, fmt.Errorf("failed to find user by username: %w", err)
	}

	if !utils.CheckPasswordHash(req.Password, user.PasswordHash) {
		logger.Warn("Login attempt with wrong password", slog.String("user_id", user.UserID))
		return nil, fmt.Errorf("%w: invalid credentials", apperrors.ErrUnauthorized)
	}

	token, err := utils.GenerateJWT(user.UserID, s.cfg.JWTSecret, s.cfg.JWTExpiryDuration, s.cfg.JWTIssuer)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	logger.Info("User logged in", slog.String("user_id", user.UserID))
	return &dto.LoginResponse{
		Token: token,
		User:  dto.ToUserResponse(user),
	}, nil
}

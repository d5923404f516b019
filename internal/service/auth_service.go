package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/catalog-service/internal/auth"
	"github.com/spec-kit/catalog-service/internal/config"
	"github.com/spec-kit/catalog-service/internal/domain"
	"github.com/spec-kit/catalog-service/internal/events"
	"github.com/spec-kit/catalog-service/internal/repository"
	"github.com/spec-kit/catalog-service/internal/validation"
	apperrors "github.com/spec-kit/catalog-service/pkg/util/errorutil"
)

// AuthService coordinates registration, login and session flows.
type AuthService struct {
	users      repository.UserRepository
	sessions   repository.SessionRepository
	resets     repository.PasswordResetRepository
	tokenMgr   *auth.TokenManager
	bcryptCost int
	resetTTL   time.Duration
	latency    time.Duration
	logger     *zap.Logger
	publisher
}

// AuthDependencies encapsulates repo requirements for auth service.
type AuthDependencies struct {
	UserRepo          repository.UserRepository
	SessionRepo       repository.SessionRepository
	PasswordResetRepo repository.PasswordResetRepository
	Dispatcher        events.Dispatcher
	Logger            *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		users:      deps.UserRepo,
		sessions:   deps.SessionRepo,
		resets:     deps.PasswordResetRepo,
		tokenMgr:   auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		bcryptCost: cfg.Auth.BcryptCost,
		resetTTL:   time.Duration(cfg.Auth.PasswordResetTTLMinutes) * time.Minute,
		latency:    cfg.Mock.AuthLatency(),
		logger:     logger,
		publisher:  publisher{dispatcher: deps.Dispatcher, now: time.Now},
	}
}

// HashPassword hashes with the configured bcrypt cost.
func (s *AuthService) HashPassword(password string) (string, error) {
	return auth.HashPassword(password, s.bcryptCost)
}

// Login checks the credentials and opens a new session.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.Session, error) {
	email = domain.NormalizeEmail(email)
	if err := simulateLatency(ctx, s.latency); err != nil {
		return nil, err
	}

	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}

	session, err := s.openSession(ctx, user)
	if err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.Event{
		Type:      events.EventUserLoggedIn,
		SubjectID: user.ID,
		Actor:     events.Actor{UserID: user.ID, Email: user.Email},
		Payload:   events.UserPayload{Email: user.Email},
	})
	return session, nil
}

// Register creates an account and logs it in.
func (s *AuthService) Register(ctx context.Context, email, password string) (*domain.Session, error) {
	email = domain.NormalizeEmail(email)
	if err := simulateLatency(ctx, s.latency); err != nil {
		return nil, err
	}

	if err := validation.Validate(validation.Registration{
		Email:           email,
		Password:        password,
		ConfirmPassword: password,
	}); err != nil {
		return nil, err
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, ErrUserExists
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NewInternalError(err)
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	user := &domain.User{Email: email, PasswordHash: hash}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrUserExists
		}
		return nil, apperrors.NewInternalError(err)
	}

	session, err := s.openSession(ctx, user)
	if err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.Event{
		Type:      events.EventUserRegistered,
		SubjectID: user.ID,
		Actor:     events.Actor{UserID: user.ID, Email: user.Email},
		Payload:   events.UserPayload{Email: user.Email},
	})
	return session, nil
}

func (s *AuthService) openSession(ctx context.Context, user *domain.User) (*domain.Session, error) {
	sessionID := uuid.NewString()
	token, issuedAt, expiresAt, err := s.tokenMgr.GenerateToken(sessionID, user.ID)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	session := &domain.Session{
		ID:        sessionID,
		Token:     token,
		User:      domain.User{ID: user.ID, Email: user.Email, CreatedAt: user.CreatedAt},
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return session, nil
}

// Logout ends the session. Unknown sessions are not an error.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if err := simulateLatency(ctx, s.latency); err != nil {
		return err
	}
	if sessionID == "" {
		return nil
	}
	if err := s.sessions.Delete(ctx, sessionID); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewInternalError(err)
	}
	return nil
}

// CurrentUser returns the user of the session carried by ctx.
func (s *AuthService) CurrentUser(ctx context.Context) (*domain.User, bool) {
	session, ok := auth.SessionFromContext(ctx)
	if !ok {
		return nil, false
	}
	user := session.User
	return &user, true
}

// Authenticate resolves a bearer token to its persisted, unexpired session.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.Session, error) {
	claims, err := s.tokenMgr.ParseToken(token)
	if err != nil {
		return nil, ErrSessionInvalid
	}
	session, err := s.sessions.Get(ctx, claims.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrSessionInvalid
	}
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if session.Token != token || session.Expired(time.Now()) {
		return nil, ErrSessionInvalid
	}
	return session, nil
}

// RequestPasswordReset persists a reset token for the account and returns
// it. The caller delivers the token out of band.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) (*domain.PasswordReset, error) {
	email = domain.NormalizeEmail(email)
	if err := simulateLatency(ctx, s.latency); err != nil {
		return nil, err
	}

	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NewNotFound("User", map[string]any{"email": email})
	}
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	now := time.Now().UTC()
	reset := &domain.PasswordReset{
		Token:     uuid.NewString(),
		UserID:    user.ID,
		Email:     user.Email,
		ExpiresAt: now.Add(s.resetTTL),
		CreatedAt: now,
	}
	if err := s.resets.Create(ctx, reset); err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	s.publishEvent(ctx, events.Event{
		Type:      events.EventPasswordResetRequested,
		SubjectID: user.ID,
		Payload: events.PasswordResetRequestedPayload{
			Email:     user.Email,
			Token:     reset.Token,
			ExpiresAt: reset.ExpiresAt,
		},
	})
	return reset, nil
}

// ConfirmPasswordReset validates the reset token and updates the password.
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, token, newPassword string) error {
	if err := simulateLatency(ctx, s.latency); err != nil {
		return err
	}

	if err := validation.Validate(validation.ResetConfirm{
		NewPassword:     newPassword,
		ConfirmPassword: newPassword,
	}); err != nil {
		return err
	}

	reset, err := s.resets.GetByToken(ctx, token)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrResetTokenInvalid
	}
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	now := time.Now()
	if !reset.Usable(now) {
		return ErrResetTokenInvalid
	}

	user, err := s.users.GetByID(ctx, reset.UserID)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return apperrors.NewInternalError(err)
	}

	// claim the token before touching the password; only one confirm wins
	if err := s.resets.MarkUsed(ctx, token, now.UTC()); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrResetTokenInvalid
		}
		return apperrors.NewInternalError(err)
	}
	user.PasswordHash = hash
	if err := s.users.Update(ctx, user); err != nil {
		return apperrors.NewInternalError(err)
	}
	s.logger.Info("password reset", zap.String("user_id", user.ID))
	return nil
}

// TokenManager exposes the underlying token manager.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

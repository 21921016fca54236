package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/amaravathi/tradeidentity/internal/common"
	"github.com/amaravathi/tradeidentity/internal/dbx"
	"github.com/amaravathi/tradeidentity/internal/logging"
	"github.com/amaravathi/tradeidentity/internal/password"
	"github.com/amaravathi/tradeidentity/internal/server/auth"
	"github.com/amaravathi/tradeidentity/internal/server/models"
	"github.com/amaravathi/tradeidentity/internal/server/repositories/repomanager"
)

// SignUpRequest carries everything collected on the enrollment form.
type SignUpRequest struct {
	Email    string
	Password string
	FullName string
	Phone    string

	ResidenceCountry        string
	City                    string
	PreferredLanguage       string
	Occupation              string
	Interest                string
	PreviousTradingExposure string
	TermsAccepted           bool
	CommunicationConsent    bool
}

// TokenPair is an access token plus the refresh token that renews it.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	ExpiresIn    int64
}

// Profile is the caller-visible view of an account.
type Profile struct {
	ID            int64
	Email         string
	FullName      string
	Phone         string
	Status        models.UserStatus
	EmailVerified bool
	PhoneVerified bool
	Roles         []string
}

// SignInResult is returned on successful authentication.
type SignInResult struct {
	Tokens  TokenPair
	Profile Profile
}

// AuthService is the facade the transport layer talks to: sign-up, sign-in,
// refresh, logout and profile lookup.
type AuthService struct {
	db           *sql.DB
	rm           repomanager.RepositoryManager
	hasher       password.Hasher
	tokens       *auth.TokenService
	sessions     *RefreshSessionService
	verification *VerificationService
	logger       logging.Logger
}

// NewAuthService wires the facade from its collaborators.
func NewAuthService(db *sql.DB, m repomanager.RepositoryManager, hasher password.Hasher,
	tokens *auth.TokenService, sessions *RefreshSessionService,
	verification *VerificationService, logger logging.Logger) *AuthService {
	return &AuthService{
		db:           db,
		rm:           m,
		hasher:       hasher,
		tokens:       tokens,
		sessions:     sessions,
		verification: verification,
		logger:       logger,
	}
}

// SignUp registers a new account, grants it the default role and sends the
// email-verification link. The email must not already be taken.
func (s *AuthService) SignUp(ctx context.Context, req *SignUpRequest) (*Profile, error) {
	email := strings.TrimSpace(req.Email)
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", common.ErrInvalidArgument)
	}
	if req.Password == "" {
		return nil, fmt.Errorf("%w: password is required", common.ErrInvalidArgument)
	}

	exists, err := s.rm.Users(s.db).ExistsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("checking email: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("%w: email is already registered", common.ErrConflict)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	var created *models.User
	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		user := &models.User{
			Email:                   email,
			Phone:                   strings.TrimSpace(req.Phone),
			FullName:                strings.TrimSpace(req.FullName),
			PasswordHash:            hash,
			Status:                  models.UserStatusEnrolled,
			ResidenceCountry:        req.ResidenceCountry,
			City:                    req.City,
			PreferredLanguage:       req.PreferredLanguage,
			Occupation:              req.Occupation,
			Interest:                req.Interest,
			PreviousTradingExposure: req.PreviousTradingExposure,
			TermsAccepted:           req.TermsAccepted,
			CommunicationConsent:    req.CommunicationConsent,
		}

		created, err = s.rm.Users(tx).Create(ctx, user)
		if err != nil {
			// the exists check above races with concurrent sign-ups
			if errors.Is(err, common.ErrConflict) {
				return fmt.Errorf("%w: email is already registered", common.ErrConflict)
			}
			return fmt.Errorf("creating user: %w", err)
		}

		role, err := s.rm.Roles(tx).GetByCode(ctx, models.DefaultRoleCode)
		if err != nil {
			return fmt.Errorf("resolving default role: %w", err)
		}
		if err := s.rm.Roles(tx).AddToUser(ctx, created.ID, role.ID); err != nil {
			return fmt.Errorf("granting default role: %w", err)
		}
		return nil
	}); err != nil {
		return nil, err
	}

	if err := s.verification.SendEmailVerifyLink(ctx, created.Email, ""); err != nil {
		// the account exists either way; the user can request another link
		s.logger.Warn(ctx, "sending verification link after sign-up", "userID", created.ID, "error", err.Error())
	}

	s.logger.Info(ctx, "user signed up", "userID", created.ID)
	return &Profile{
		ID:            created.ID,
		Email:         created.Email,
		FullName:      created.FullName,
		Phone:         created.Phone,
		Status:        created.Status,
		EmailVerified: created.EmailVerified,
		PhoneVerified: created.PhoneVerified,
		Roles:         []string{models.DefaultRoleCode},
	}, nil
}

// SignIn authenticates email/password and mints a token pair. Unknown email
// and wrong password collapse into the same invalid-credentials error.
func (s *AuthService) SignIn(ctx context.Context, email, plaintext string) (*SignInResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || plaintext == "" {
		return nil, fmt.Errorf("%w: email and password are required", common.ErrInvalidArgument)
	}

	user, err := s.rm.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("searching user: %w", err)
	}
	if !s.hasher.Verify(plaintext, user.PasswordHash) {
		return nil, common.ErrInvalidCredentials
	}
	if user.Status == models.UserStatusDisabled {
		return nil, common.ErrInvalidCredentials
	}

	roleCodes, err := s.rm.Roles(s.db).CodesForUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("resolving roles: %w", err)
	}

	pair, err := s.mintPair(ctx, user.ID, roleCodes)
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "user signed in", "userID", user.ID)
	return &SignInResult{
		Tokens: *pair,
		Profile: Profile{
			ID:            user.ID,
			Email:         user.Email,
			FullName:      user.FullName,
			Phone:         user.Phone,
			Status:        user.Status,
			EmailVerified: user.EmailVerified,
			PhoneVerified: user.PhoneVerified,
			Roles:         roleCodes,
		},
	}, nil
}

// Refresh validates a refresh token, rotates it and returns a new token
// pair. The presented token is single-use: after a successful call only the
// returned refresh token works.
func (s *AuthService) Refresh(ctx context.Context, rawRefreshToken string) (*TokenPair, error) {
	userID, err := s.sessions.ValidateAndGetUserID(ctx, rawRefreshToken)
	if err != nil {
		return nil, err
	}

	roleCodes, err := s.rm.Roles(s.db).CodesForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("resolving roles: %w", err)
	}

	access, err := s.tokens.Issue(userID, roleCodes)
	if err != nil {
		return nil, err
	}
	refresh, err := s.sessions.Rotate(ctx, rawRefreshToken, userID)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.tokens.TTL().Seconds()),
	}, nil
}

// Logout revokes the presented refresh token, or with everywhere set, every
// session of the token's owner. Single-session logout is idempotent and
// silent about unknown tokens; everywhere requires a valid token to name
// the owner.
func (s *AuthService) Logout(ctx context.Context, rawRefreshToken string, everywhere bool) error {
	if !everywhere {
		return s.sessions.RevokeOne(ctx, rawRefreshToken)
	}

	userID, err := s.sessions.ValidateAndGetUserID(ctx, rawRefreshToken)
	if err != nil {
		return err
	}
	count, err := s.sessions.RevokeAll(ctx, userID)
	if err != nil {
		return err
	}
	s.logger.Info(ctx, "user logged out everywhere", "userID", userID, "sessions", count)
	return nil
}

// Me returns the profile of the user identified by an already-verified
// access token.
func (s *AuthService) Me(ctx context.Context, userID int64) (*Profile, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("%w: invalid userId", common.ErrInvalidArgument)
	}

	user, err := s.rm.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("%w: user", common.ErrNotFound)
		}
		return nil, fmt.Errorf("loading user: %w", err)
	}
	roleCodes, err := s.rm.Roles(s.db).CodesForUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("resolving roles: %w", err)
	}

	return &Profile{
		ID:            user.ID,
		Email:         user.Email,
		FullName:      user.FullName,
		Phone:         user.Phone,
		Status:        user.Status,
		EmailVerified: user.EmailVerified,
		PhoneVerified: user.PhoneVerified,
		Roles:         roleCodes,
	}, nil
}

func (s *AuthService) mintPair(ctx context.Context, userID int64, roleCodes []string) (*TokenPair, error) {
	access, err := s.tokens.Issue(userID, roleCodes)
	if err != nil {
		return nil, err
	}
	refresh, err := s.sessions.Issue(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.tokens.TTL().Seconds()),
	}, nil
}

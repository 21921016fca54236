package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/amaravathi/tradeidentity/internal/common"
	"github.com/amaravathi/tradeidentity/internal/dbx"
	"github.com/amaravathi/tradeidentity/internal/logging"
	"github.com/amaravathi/tradeidentity/internal/mailer"
	"github.com/amaravathi/tradeidentity/internal/server/config"
	"github.com/amaravathi/tradeidentity/internal/server/models"
	"github.com/amaravathi/tradeidentity/internal/server/repositories/repomanager"
	"github.com/amaravathi/tradeidentity/internal/token"
)

// VerificationService issues and confirms single-use email-verification
// magic links.
type VerificationService struct {
	db      *sql.DB
	rm      repomanager.RepositoryManager
	sender  mailer.Sender
	logger  logging.Logger
	baseURL string
	ttl     time.Duration
	now     func() time.Time
}

// NewVerificationService constructs a VerificationService.
func NewVerificationService(db *sql.DB, m repomanager.RepositoryManager, sender mailer.Sender, logger logging.Logger, cfg *config.Config) *VerificationService {
	return &VerificationService{
		db:      db,
		rm:      m,
		sender:  sender,
		logger:  logger,
		baseURL: strings.TrimRight(cfg.FrontendBaseURL, "/"),
		ttl:     cfg.VerificationLinkTTL,
		now:     time.Now,
	}
}

// SendEmailVerifyLink creates a fresh magic link for the account behind
// email and hands it to the sender. If no account matches, the call
// succeeds silently so the endpoint cannot be used to probe which emails
// are registered. Earlier links for the same user stay valid until they
// are used or expire.
func (s *VerificationService) SendEmailVerifyLink(ctx context.Context, email, redirectURL string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return fmt.Errorf("%w: email is required", common.ErrInvalidArgument)
	}

	user, err := s.rm.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			s.logger.Info(ctx, "verification link requested for unknown email", "email", email)
			return nil
		}
		return fmt.Errorf("searching user: %w", err)
	}

	raw, err := token.Opaque()
	if err != nil {
		return fmt.Errorf("generating verification token: %w", err)
	}

	link := &models.VerificationLink{
		UserID:    user.ID,
		Purpose:   models.PurposeEmailVerify,
		TokenHash: token.Fingerprint(raw),
		ExpiresAt: s.now().Add(s.ttl),
	}
	if redirectURL != "" {
		link.RedirectURL = &redirectURL
	}
	if err := s.rm.VerificationLinks(s.db).Create(ctx, link); err != nil {
		return fmt.Errorf("creating verification link: %w", err)
	}

	url := s.baseURL + "/verify-email?token=" + raw
	if err := s.sender.Deliver(ctx, user.Email, url); err != nil {
		return fmt.Errorf("delivering verification link: %w", err)
	}

	s.logger.Debug(ctx, "verification link issued", "userID", user.ID, "link", token.MaskURL(url))
	return nil
}

// ConfirmEmail consumes the magic link for rawToken. In one transaction the
// link is marked used and the owning account gets its email flag set and is
// activated. Unknown, expired and already-used tokens all fail with the
// same invalid-token error. The returned redirect is the link's stored
// redirect URL, if any.
func (s *VerificationService) ConfirmEmail(ctx context.Context, rawToken string) (string, error) {
	if rawToken == "" {
		return "", fmt.Errorf("%w: token is required", common.ErrInvalidArgument)
	}

	hash := token.Fingerprint(rawToken)
	var redirect string

	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		link, err := s.rm.VerificationLinks(tx).FindByFingerprint(ctx, hash)
		if err != nil {
			if errors.Is(err, common.ErrNotFound) {
				return common.ErrInvalidToken
			}
			return fmt.Errorf("searching verification link: %w", err)
		}
		if link.Purpose != models.PurposeEmailVerify || !link.Valid(s.now()) {
			return common.ErrInvalidToken
		}

		if err := s.rm.VerificationLinks(tx).MarkUsed(ctx, link.ID, s.now()); err != nil {
			if errors.Is(err, common.ErrNotFound) {
				// a concurrent confirmation consumed the link first
				return common.ErrInvalidToken
			}
			return fmt.Errorf("consuming verification link: %w", err)
		}

		if err := s.rm.Users(tx).MarkEmailVerified(ctx, link.UserID); err != nil {
			return fmt.Errorf("marking email verified: %w", err)
		}

		if link.RedirectURL != nil {
			redirect = *link.RedirectURL
		}
		return nil
	}); err != nil {
		return "", err
	}

	return redirect, nil
}

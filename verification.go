package auth

import (
	"context"
	"database/sql"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// VerificationStatus is the outcome of a verification flow operation
type VerificationStatus string

const (
	// StatusConfirmed means this call flipped the confirmed flag
	StatusConfirmed VerificationStatus = "confirmed"
	// StatusAlreadyConfirmed means the identity was confirmed before the call
	StatusAlreadyConfirmed VerificationStatus = "already_confirmed"
	// StatusSent means a verification email was (re)queued
	StatusSent VerificationStatus = "sent"
)

// VerificationOutcome reports what a confirm or re-request call did.
type VerificationOutcome struct {
	Status VerificationStatus `json:"status"`
	Email  string             `json:"email,omitempty"`
}

// VerificationFlow issues and validates long-lived email confirmation
// tokens. Verification tokens carry no scope claim; they are distinguished
// by issuance context, so only this flow accepts them.
type VerificationFlow struct {
	repo         RepositoryManager
	tokenService TokenService
	sender       EmailSender
	config       Config
	logger       Logger
}

// NewVerificationFlow wires the flow with its collaborators. sender may be
// nil when the caller only needs Confirm.
func NewVerificationFlow(repo RepositoryManager, ts TokenService, sender EmailSender, cfg Config) *VerificationFlow {
	return &VerificationFlow{
		repo:         repo,
		tokenService: ts,
		sender:       sender,
		config:       cfg,
		logger:       defLogger{},
	}
}

func (v *VerificationFlow) WithLogger(logger Logger) *VerificationFlow {
	v.logger = logger
	return v
}

// IssueToken mints a verification token for email.
func (v *VerificationFlow) IssueToken(email string) (string, error) {
	return v.tokenService.SignClaims(NewVerificationClaims(email, v.config.GetVerificationTokenTTL()))
}

// Confirm validates a verification token and flips the identity's confirmed
// flag. The operation is idempotent: a second call with the same token
// reports StatusAlreadyConfirmed without touching the store. Every failure
// mode collapses into ErrVerificationFailed so the endpoint does not leak
// which part of the token was wrong.
func (v *VerificationFlow) Confirm(ctx context.Context, tokenString string) (*VerificationOutcome, error) {
	claims, err := v.tokenService.Validate(tokenString)
	if err != nil {
		v.logger.Debug("verification token rejected", "error", err)
		return nil, ErrVerificationFailed
	}

	// access and refresh tokens decode fine but carry a scope; a stolen
	// session token must not confirm an email
	if !claims.HasScope(ScopeNone) {
		return nil, ErrVerificationFailed
	}

	email := claims.Email()
	if email == "" {
		return nil, ErrVerificationFailed
	}

	outcome := &VerificationOutcome{Email: email}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err = v.repo.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		user, err := v.repo.Users().GetByEmailTx(ctx, tx, email)
		if err != nil {
			if goerrors.IsNotFound(err) {
				return ErrVerificationFailed
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user during confirmation")
		}

		if user.EmailVerified {
			outcome.Status = StatusAlreadyConfirmed
			return nil
		}

		if err := v.repo.Users().ConfirmEmailTx(ctx, tx, email); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to persist email confirmation")
		}

		outcome.Status = StatusConfirmed
		return nil
	})

	if err != nil {
		return nil, err
	}

	return outcome, nil
}

// RequestVerification re-issues a verification email for an unconfirmed
// identity. Unknown emails get the same StatusSent response as known ones so
// the endpoint does not disclose account existence. Email dispatch is best
// effort: send failures are logged and the caller still sees StatusSent.
func (v *VerificationFlow) RequestVerification(ctx context.Context, email, baseURL string) (*VerificationOutcome, error) {
	user, err := v.repo.Users().GetByEmail(ctx, email)
	if err != nil {
		if goerrors.IsNotFound(err) {
			return &VerificationOutcome{Status: StatusSent, Email: email}, nil
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user during verification request")
	}

	if user.EmailVerified {
		return &VerificationOutcome{Status: StatusAlreadyConfirmed, Email: email}, nil
	}

	v.sendEmail(ctx, user, baseURL)

	return &VerificationOutcome{Status: StatusSent, Email: email}, nil
}

func (v *VerificationFlow) sendEmail(ctx context.Context, user *User, baseURL string) {
	if v.sender == nil {
		return
	}

	token, err := v.IssueToken(user.Email)
	if err != nil {
		v.logger.Error("failed to issue verification token", "email", user.Email, "error", err)
		return
	}

	link := VerificationLink(baseURL, token)
	if err := v.sender.SendVerificationEmail(ctx, user.Email, user.Username, link); err != nil {
		v.logger.Error("failed to send verification email", "email", user.Email, "error", err)
	}
}

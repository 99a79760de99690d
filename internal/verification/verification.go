package verification

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	sl "account_service/internal/lib/logger"
	"account_service/internal/models"
)

var (
	ErrCooldownActive  = errors.New("verification requested too recently")
	ErrNoPendingRecord = errors.New("no pending verification")
	ErrInvalidCode     = errors.New("invalid verification code")
	ErrTooManyAttempts = errors.New("too many failed attempts")
)

// codeBytes yields an 8-character hex code.
const codeBytes = 4

// Service owns the lifecycle of pending signups: one live record per email,
// fixed TTL, capped failed attempts, single-use codes.
type Service struct {
	log         *slog.Logger
	store       RecordStore
	codeTTL     time.Duration
	cooldown    time.Duration
	maxAttempts int
	now         func() time.Time
}

type Option func(*Service)

// WithClock injects a custom clock (useful for tests).
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		if clock != nil {
			s.now = clock
		}
	}
}

func New(
	log *slog.Logger,
	store RecordStore,
	codeTTL, cooldown time.Duration,
	maxAttempts int,
	opts ...Option,
) *Service {
	s := &Service{
		log:         log,
		store:       store,
		codeTTL:     codeTTL,
		cooldown:    cooldown,
		maxAttempts: maxAttempts,
		now:         time.Now,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	return s
}

// RequestVerification creates a pending record for email and returns the code
// to be delivered. A live record created inside the cooldown window rejects
// the request; anything older is overwritten with a fresh code and reset
// attempt counter.
func (s *Service) RequestVerification(
	ctx context.Context,
	email string,
	userData models.PendingUser,
) (string, error) {
	const op = "verification.RequestVerification"

	key := NormalizeEmail(email)
	now := s.now()

	rec, ok, err := s.store.Get(ctx, key)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if ok && now.Before(rec.ExpiresAt) && now.Sub(rec.CreatedAt) < s.cooldown {
		s.log.Info("verification cooldown active", slog.String("op", op))
		return "", ErrCooldownActive
	}

	code, err := newCode()
	if err != nil {
		s.log.Error("failed to generate code", slog.String("op", op), sl.Err(err))
		return "", fmt.Errorf("%s: %w", op, err)
	}

	fresh := Record{
		Code:      code,
		UserData:  userData,
		CreatedAt: now,
		ExpiresAt: now.Add(s.codeTTL),
		Attempts:  0,
	}

	if err := s.store.Set(ctx, key, fresh, s.codeTTL); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return code, nil
}

// CheckCode validates a submitted code. Expired records are treated as absent.
// The attempt cap is checked before the code itself, so a correct code after
// too many failures is still rejected. A match consumes the record.
func (s *Service) CheckCode(
	ctx context.Context,
	email, submittedCode string,
) (models.PendingUser, error) {
	const op = "verification.CheckCode"

	key := NormalizeEmail(email)
	now := s.now()

	rec, ok, err := s.store.Get(ctx, key)
	if err != nil {
		return models.PendingUser{}, fmt.Errorf("%s: %w", op, err)
	}

	if !ok {
		return models.PendingUser{}, ErrNoPendingRecord
	}

	if now.After(rec.ExpiresAt) {
		if err := s.store.Delete(ctx, key); err != nil {
			s.log.Warn("failed to drop expired record", slog.String("op", op), sl.Err(err))
		}

		return models.PendingUser{}, ErrNoPendingRecord
	}

	if rec.Attempts >= s.maxAttempts {
		return models.PendingUser{}, ErrTooManyAttempts
	}

	if rec.Code != submittedCode {
		rec.Attempts++

		if err := s.store.Set(ctx, key, rec, rec.ExpiresAt.Sub(now)); err != nil {
			return models.PendingUser{}, fmt.Errorf("%s: %w", op, err)
		}

		return models.PendingUser{}, ErrInvalidCode
	}

	if err := s.store.Delete(ctx, key); err != nil {
		return models.PendingUser{}, fmt.Errorf("%s: %w", op, err)
	}

	return rec.UserData, nil
}

// CancelPending drops the pending record for email, if any. Lets a signup be
// retried immediately when the code could not be delivered.
func (s *Service) CancelPending(ctx context.Context, email string) error {
	const op = "verification.CancelPending"

	if err := s.store.Delete(ctx, NormalizeEmail(email)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// PendingUserData returns the candidate account fields of a live pending
// record without consuming it. Used by resend.
func (s *Service) PendingUserData(ctx context.Context, email string) (models.PendingUser, error) {
	const op = "verification.PendingUserData"

	key := NormalizeEmail(email)

	rec, ok, err := s.store.Get(ctx, key)
	if err != nil {
		return models.PendingUser{}, fmt.Errorf("%s: %w", op, err)
	}

	if !ok || s.now().After(rec.ExpiresAt) {
		return models.PendingUser{}, ErrNoPendingRecord
	}

	return rec.UserData, nil
}

// NormalizeEmail lower-cases and trims an email so every caller agrees on the
// record key.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func newCode() (string, error) {
	b := make([]byte, codeBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	return hex.EncodeToString(b), nil
}

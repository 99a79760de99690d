package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	jwtlib "account_service/internal/lib/jwt"
	sl "account_service/internal/lib/logger"
	"account_service/internal/models"
	"account_service/internal/storage"
	"account_service/internal/verification"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserExists         = errors.New("user already exists")
)

const defaultRole = "member"

type Auth struct {
	log          *slog.Logger
	usrSaver     UserSaver
	usrProvider  UserProvider
	verifier     *verification.Service
	accessSecret string
	accessTTL    time.Duration
	refreshTTL   time.Duration
}

type UserSaver interface {
	SaveUser(ctx context.Context, name, email string, passHash []byte, role string) (uid int64, err error)

	SaveRefreshToken(ctx context.Context, userID int64, tokenHash []byte, expiresAt time.Time) error
	UpdateRefreshToken(ctx context.Context, userID int64, oldTokenHash, newTokenHash []byte, expiresAt time.Time) error
	DeleteRefreshToken(ctx context.Context, tokenHash []byte) error
}

type UserProvider interface {
	User(ctx context.Context, email string) (models.User, error)
	UserByID(ctx context.Context, id int64) (models.User, error)
	GetRefreshToken(ctx context.Context, rawToken string) (models.RefreshToken, error)
}

func New(
	log *slog.Logger,
	userSaver UserSaver,
	userProvider UserProvider,
	verifier *verification.Service,
	accessSecret string,
	accessTTL, refreshTTL time.Duration,
) *Auth {
	return &Auth{
		log:          log,
		usrSaver:     userSaver,
		usrProvider:  userProvider,
		verifier:     verifier,
		accessSecret: accessSecret,
		accessTTL:    accessTTL,
		refreshTTL:   refreshTTL,
	}
}

// SignUp hashes the candidate password and parks the account fields in the
// verification store. Nothing is persisted until the code is confirmed.
func (a *Auth) SignUp(
	ctx context.Context,
	name, email, pass string,
) (code string, err error) {
	const op = "auth.SignUp"

	log := a.log.With(slog.String("op", op))

	if _, err := a.usrProvider.User(ctx, email); err == nil {
		log.Warn("user already exists")
		return "", ErrUserExists
	} else if !errors.Is(err, storage.ErrUserNotFound) {
		log.Error("failed to check for existing user", sl.Err(err))
		return "", fmt.Errorf("%s: %w", op, err)
	}

	passHash, err := bcrypt.GenerateFromPassword([]byte(pass), bcrypt.DefaultCost)
	if err != nil {
		log.Error("failed to generate password hash", sl.Err(err))
		return "", fmt.Errorf("%s: %w", op, err)
	}

	userData := models.PendingUser{
		Name:     name,
		Email:    verification.NormalizeEmail(email),
		PassHash: passHash,
	}

	code, err = a.verifier.RequestVerification(ctx, email, userData)
	if err != nil {
		return "", err
	}

	log.Info("signup pending verification")

	return code, nil
}

// AbortSignUp drops the pending record so a failed code delivery does not
// lock the email behind the resend cooldown.
func (a *Auth) AbortSignUp(ctx context.Context, email string) error {
	return a.verifier.CancelPending(ctx, email)
}

// ConfirmSignUp exchanges a valid code for a persisted user row plus a fresh
// token pair. The pending record is consumed on success.
func (a *Auth) ConfirmSignUp(
	ctx context.Context,
	email, code string,
) (models.User, string, string, error) {
	const op = "auth.ConfirmSignUp"

	log := a.log.With(slog.String("op", op))

	userData, err := a.verifier.CheckCode(ctx, email, code)
	if err != nil {
		return models.User{}, "", "", err
	}

	uid, err := a.usrSaver.SaveUser(ctx, userData.Name, userData.Email, userData.PassHash, defaultRole)
	if err != nil {
		if errors.Is(err, storage.ErrUserExists) {
			log.Warn("user already exists")
			return models.User{}, "", "", ErrUserExists
		}

		log.Error("failed to save user", sl.Err(err))
		return models.User{}, "", "", fmt.Errorf("%s: %w", op, err)
	}

	user := models.User{
		ID:       uid,
		Name:     userData.Name,
		Email:    userData.Email,
		PassHash: userData.PassHash,
		Role:     defaultRole,
	}

	accessToken, refreshToken, err := a.issueTokens(ctx, user)
	if err != nil {
		return models.User{}, "", "", fmt.Errorf("%s: %w", op, err)
	}

	log.Info("user registered", slog.Int64("uid", uid))

	return user, accessToken, refreshToken, nil
}

// ResendCode re-issues a verification code for a pending signup, subject to
// the same cooldown as the original request.
func (a *Auth) ResendCode(ctx context.Context, email string) (string, error) {
	const op = "auth.ResendCode"

	userData, err := a.verifier.PendingUserData(ctx, email)
	if err != nil {
		return "", err
	}

	code, err := a.verifier.RequestVerification(ctx, email, userData)
	if err != nil {
		return "", err
	}

	a.log.Info("verification code reissued", slog.String("op", op))

	return code, nil
}

// Login checks credentials and returns a token pair.
func (a *Auth) Login(
	ctx context.Context,
	email, password string,
) (models.User, string, string, error) {
	const op = "auth.Login"

	log := a.log.With(slog.String("op", op))

	user, err := a.usrProvider.User(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			log.Warn("user not found")
			return models.User{}, "", "", storage.ErrUserNotFound
		}

		log.Error("failed to get user", sl.Err(err))
		return models.User{}, "", "", fmt.Errorf("%s: %w", op, err)
	}

	if err := bcrypt.CompareHashAndPassword(user.PassHash, []byte(password)); err != nil {
		log.Info("invalid credentials", sl.Err(err))
		return models.User{}, "", "", ErrInvalidCredentials
	}

	accessToken, refreshToken, err := a.issueTokens(ctx, user)
	if err != nil {
		return models.User{}, "", "", fmt.Errorf("%s: %w", op, err)
	}

	log.Info("user logged in successfully", slog.Int64("uid", user.ID))

	return user, accessToken, refreshToken, nil
}

// Refresh rotates a valid refresh token and reissues the access token.
func (a *Auth) Refresh(
	ctx context.Context,
	rawRefreshToken string,
) (string, string, error) {
	const op = "auth.Refresh"

	log := a.log.With(slog.String("op", op))

	rt, err := a.usrProvider.GetRefreshToken(ctx, rawRefreshToken)
	if err != nil {
		log.Warn("refresh token not found", sl.Err(err))
		return "", "", ErrInvalidCredentials
	}

	if time.Now().After(rt.ExpiresAt) {
		log.Warn("refresh token expired")
		return "", "", ErrInvalidCredentials
	}

	user, err := a.usrProvider.UserByID(ctx, rt.UserID)
	if err != nil {
		log.Error("failed to load user", sl.Err(err))
		return "", "", ErrInvalidCredentials
	}

	accessToken, err := jwtlib.NewAccessToken(user, a.accessSecret, a.accessTTL)
	if err != nil {
		log.Error("failed to generate access token", sl.Err(err))
		return "", "", fmt.Errorf("%s: %w", op, err)
	}

	newRefresh, err := jwtlib.NewRefreshToken()
	if err != nil {
		log.Error("failed to generate refresh token", sl.Err(err))
		return "", "", fmt.Errorf("%s: %w", op, err)
	}

	newHash, err := bcrypt.GenerateFromPassword([]byte(newRefresh), bcrypt.DefaultCost)
	if err != nil {
		log.Error("failed to hash new refresh token", sl.Err(err))
		return "", "", fmt.Errorf("%s: %w", op, err)
	}

	err = a.usrSaver.UpdateRefreshToken(ctx, rt.UserID, rt.TokenHash, newHash, time.Now().Add(a.refreshTTL))
	if err != nil {
		log.Error("failed to update refresh token", sl.Err(err))
		return "", "", fmt.Errorf("%s: %w", op, err)
	}

	log.Info("refresh successful", slog.Int64("uid", user.ID))

	return accessToken, newRefresh, nil
}

// UserFromAccessToken verifies an access token and loads its user.
func (a *Auth) UserFromAccessToken(ctx context.Context, tokenStr string) (models.User, error) {
	const op = "auth.UserFromAccessToken"

	claims, err := jwtlib.ParseAccessToken(tokenStr, a.accessSecret)
	if err != nil {
		return models.User{}, ErrInvalidCredentials
	}

	uid, err := claims.UserID()
	if err != nil {
		return models.User{}, ErrInvalidCredentials
	}

	user, err := a.usrProvider.UserByID(ctx, uid)
	if err != nil {
		a.log.Warn("token subject not found", slog.String("op", op), sl.Err(err))
		return models.User{}, ErrInvalidCredentials
	}

	return user, nil
}

// Logout invalidates the stored refresh token. Missing tokens are not an
// error: the caller clears cookies unconditionally either way.
func (a *Auth) Logout(ctx context.Context, rawRefreshToken string) error {
	const op = "auth.Logout"

	log := a.log.With(slog.String("op", op))

	rt, err := a.usrProvider.GetRefreshToken(ctx, rawRefreshToken)
	if err != nil {
		log.Warn("refresh token not found", sl.Err(err))
		return nil
	}

	if err := a.usrSaver.DeleteRefreshToken(ctx, rt.TokenHash); err != nil {
		log.Error("failed to delete refresh token", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info("logout successful")

	return nil
}

func (a *Auth) issueTokens(ctx context.Context, user models.User) (string, string, error) {
	accessToken, err := jwtlib.NewAccessToken(user, a.accessSecret, a.accessTTL)
	if err != nil {
		return "", "", err
	}

	refreshToken, err := jwtlib.NewRefreshToken()
	if err != nil {
		return "", "", err
	}

	refreshHash, err := bcrypt.GenerateFromPassword([]byte(refreshToken), bcrypt.DefaultCost)
	if err != nil {
		return "", "", err
	}

	err = a.usrSaver.SaveRefreshToken(ctx, user.ID, refreshHash, time.Now().Add(a.refreshTTL))
	if err != nil {
		return "", "", err
	}

	return accessToken, refreshToken, nil
}

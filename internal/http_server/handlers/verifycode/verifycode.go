package verifycode

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"account_service/internal/auth"
	"account_service/internal/http_server/cookies"
	resp "account_service/internal/lib/api/response"
	sl "account_service/internal/lib/logger"
	"account_service/internal/models"
	"account_service/internal/verification"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

type Request struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,len=8,hexadecimal"`
}

type User struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type Response struct {
	resp.Response
	User User `json:"user"`
}

func New(
	log *slog.Logger,
	validate *validator.Validate,
	authService *auth.Auth,
	accessTTL, refreshTTL time.Duration,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.verifycode.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req Request

		err := render.DecodeJSON(r.Body, &req)
		if err != nil {
			log.Error("Failed to decode request body", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("Failed to decode request"))

			return
		}

		log.Info("Request body decoded")

		if err := validate.Struct(req); err != nil {
			validateErr := err.(validator.ValidationErrors)

			log.Error("Invalid request", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.ValidationError(validateErr))

			return
		}

		user, accessToken, refreshToken, err := authService.ConfirmSignUp(r.Context(), req.Email, req.Code)
		if err != nil {
			writeConfirmError(w, r, log, err)
			return
		}

		log.Info("user verified", slog.Int64("uid", user.ID))

		cookies.SetAuthCookies(w, accessToken, refreshToken, accessTTL, refreshTTL)

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, ResponseOK(user))
	}
}

func ResponseOK(user models.User) Response {
	return Response{
		Response: resp.Response{Status: resp.StatusOK, Message: "account created"},
		User: User{
			ID:    user.ID,
			Name:  user.Name,
			Email: user.Email,
			Role:  user.Role,
		},
	}
}

func writeConfirmError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	switch {
	case errors.Is(err, verification.ErrNoPendingRecord):
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, resp.ErrorCode(
			"no verification pending for this email",
			resp.CodeNoVerificationPending,
		))

	case errors.Is(err, verification.ErrTooManyAttempts):
		render.Status(r, http.StatusTooManyRequests)
		render.JSON(w, r, resp.ErrorCode(
			"too many failed attempts, request a new code",
			resp.CodeTooManyAttempts,
		))

	case errors.Is(err, verification.ErrInvalidCode):
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, resp.ErrorCode(
			"invalid verification code",
			resp.CodeInvalidCode,
		))

	case errors.Is(err, auth.ErrUserExists):
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, resp.Error("user already exists"))

	default:
		log.Error("failed to confirm signup", sl.Err(err))

		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, resp.Error("Internal error"))
	}
}

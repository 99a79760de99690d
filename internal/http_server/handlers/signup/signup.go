package signup

import (
	"errors"
	"log/slog"
	"net/http"

	"account_service/internal/auth"
	resp "account_service/internal/lib/api/response"
	sl "account_service/internal/lib/logger"
	"account_service/internal/verification"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

type Request struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type Response struct {
	resp.Response
}

func New(
	log *slog.Logger,
	validate *validator.Validate,
	authService *auth.Auth,
	msgSender verification.Publisher,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.signup.New"

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

		code, err := authService.SignUp(r.Context(), req.Name, req.Email, req.Password)
		if err != nil {
			if errors.Is(err, verification.ErrCooldownActive) {
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, resp.ErrorCode(
					"verification already requested, try again later",
					resp.CodeVerificationCooldown,
				))

				return
			}
			if errors.Is(err, auth.ErrUserExists) {
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, resp.Error("user already exists"))

				return
			}

			log.Error("failed to start signup", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		if err := verification.DeliverCode(r.Context(), log, msgSender, req.Email, code); err != nil {
			if abortErr := authService.AbortSignUp(r.Context(), req.Email); abortErr != nil {
				log.Error("failed to drop pending signup", sl.Err(abortErr))
			}

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.ErrorCode(
				"failed to send verification email",
				resp.CodeEmailSendFailed,
			))

			return
		}

		log.Info("verification code sent")

		render.Status(r, http.StatusAccepted)
		render.JSON(w, r, Response{
			Response: resp.Pending("verification code sent, check your email"),
		})
	}
}

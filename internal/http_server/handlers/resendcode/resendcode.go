package resendcode

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
	Email string `json:"email" validate:"required,email"`
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
		const op = "handlers.resendcode.New"

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

		code, err := authService.ResendCode(r.Context(), req.Email)
		if err != nil {
			if errors.Is(err, verification.ErrNoPendingRecord) {
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, resp.ErrorCode(
					"no verification pending for this email",
					resp.CodeNoVerificationPending,
				))

				return
			}
			if errors.Is(err, verification.ErrCooldownActive) {
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, resp.ErrorCode(
					"verification already requested, try again later",
					resp.CodeVerificationCooldown,
				))

				return
			}

			log.Error("failed to reissue code", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		if err := verification.DeliverCode(r.Context(), log, msgSender, req.Email, code); err != nil {
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.ErrorCode(
				"failed to send verification email",
				resp.CodeEmailSendFailed,
			))

			return
		}

		log.Info("verification code resent")

		render.JSON(w, r, Response{
			Response: resp.Response{Status: resp.StatusOK, Message: "verification code sent"},
		})
	}
}

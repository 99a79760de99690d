package me

import (
	"log/slog"
	"net/http"

	"account_service/internal/auth"
	"account_service/internal/http_server/cookies"
	sl "account_service/internal/lib/logger"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type User struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type Response struct {
	Authenticated bool  `json:"authenticated"`
	User          *User `json:"user,omitempty"`
}

func New(
	log *slog.Logger,
	authService *auth.Auth,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.me.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		cookie, err := r.Cookie(cookies.AccessTokenName)
		if err != nil || cookie.Value == "" {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, Response{Authenticated: false})

			return
		}

		user, err := authService.UserFromAccessToken(r.Context(), cookie.Value)
		if err != nil {
			log.Info("access token rejected", sl.Err(err))

			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, Response{Authenticated: false})

			return
		}

		render.JSON(w, r, Response{
			Authenticated: true,
			User: &User{
				ID:    user.ID,
				Name:  user.Name,
				Email: user.Email,
				Role:  user.Role,
			},
		})
	}
}

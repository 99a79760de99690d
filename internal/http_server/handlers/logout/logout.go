package logout

import (
	"log/slog"
	"net/http"

	"account_service/internal/auth"
	"account_service/internal/http_server/cookies"
	resp "account_service/internal/lib/api/response"
	sl "account_service/internal/lib/logger"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type Response struct {
	resp.Response
}

// New clears both token cookies unconditionally. Server-side invalidation of
// the refresh token is best-effort: its failure is logged, never surfaced.
func New(
	log *slog.Logger,
	authService *auth.Auth,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.logout.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		if cookie, err := r.Cookie(cookies.RefreshTokenName); err == nil && cookie.Value != "" {
			if err := authService.Logout(r.Context(), cookie.Value); err != nil {
				log.Error("failed to invalidate refresh token", sl.Err(err))
			}
		}

		cookies.ClearAuthCookies(w)

		log.Info("user logged out")

		render.JSON(w, r, Response{
			Response: resp.OK(),
		})
	}
}

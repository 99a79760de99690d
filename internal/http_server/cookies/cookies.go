package cookies

import (
	"net/http"
	"time"
)

const (
	AccessTokenName  = "access_token"
	RefreshTokenName = "refresh_token"
)

// SetAuthCookies writes both token cookies: httpOnly, SameSite=Lax, scoped to
// the whole site.
func SetAuthCookies(w http.ResponseWriter, accessToken, refreshToken string, accessTTL, refreshTTL time.Duration) {
	http.SetCookie(w, authCookie(AccessTokenName, accessToken, accessTTL))
	http.SetCookie(w, authCookie(RefreshTokenName, refreshToken, refreshTTL))
}

// ClearAuthCookies expires both token cookies.
func ClearAuthCookies(w http.ResponseWriter) {
	http.SetCookie(w, authCookie(AccessTokenName, "", -time.Hour))
	http.SetCookie(w, authCookie(RefreshTokenName, "", -time.Hour))
}

func authCookie(name, value string, ttl time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

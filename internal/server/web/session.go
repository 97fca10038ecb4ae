package web

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/portfolio/internal/common"
	"github.com/dmitrijs2005/portfolio/internal/server/auth"
	"github.com/dmitrijs2005/portfolio/internal/server/models"
	"github.com/labstack/echo/v4"
)

// session resolves the session cookie into the request identity. Invalid
// or expired cookies are cleared and the request continues anonymously.
func (s *Server) session(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		var id models.Identity

		if cookie, err := c.Cookie(common.SessionCookieName); err == nil && cookie.Value != "" {
			id, err = s.tokens.Parse(cookie.Value)
			if err != nil {
				s.logger.Debug(c.Request().Context(), "session rejected", "error", err)
				s.clearCookie(c, common.SessionCookieName)
			}
		}

		req := c.Request()
		c.SetRequest(req.WithContext(auth.WithIdentity(req.Context(), id)))
		return next(c)
	}
}

// identity returns the identity attached by the session middleware.
func identity(c echo.Context) models.Identity {
	return auth.IdentityFromContext(c.Request().Context())
}

func (s *Server) startSession(c echo.Context, id models.Identity) error {
	token, err := s.tokens.Issue(id)
	if err != nil {
		return err
	}
	s.setCookie(c, common.SessionCookieName, token, s.tokens.MaxAge())
	return nil
}

func (s *Server) endSession(c echo.Context) {
	s.clearCookie(c, common.SessionCookieName)
}

func (s *Server) setCookie(c echo.Context, name, value string, maxAge time.Duration) {
	c.SetCookie(&http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(maxAge / time.Second),
		Expires:  time.Now().Add(maxAge),
		HttpOnly: true,
		Secure:   s.opts.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearCookie(c echo.Context, name string) {
	c.SetCookie(&http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   s.opts.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

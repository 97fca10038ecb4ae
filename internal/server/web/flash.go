package web

import (
	"encoding/base64"
	"strings"
	"time"

	"github.com/dmitrijs2005/portfolio/internal/common"
	"github.com/labstack/echo/v4"
)

// Notice kinds.
const (
	NoticeSuccess = "success"
	NoticeError   = "error"
	NoticeWarning = "warning"
)

// flashMaxAge bounds how long an unread notice survives.
const flashMaxAge = time.Minute

// Notice is a one-shot message shown on the next rendered page.
type Notice struct {
	Kind    string
	Message string
}

func (s *Server) flash(c echo.Context, kind, message string) {
	value := kind + "." + base64.RawURLEncoding.EncodeToString([]byte(message))
	s.setCookie(c, common.FlashCookieName, value, flashMaxAge)
}

// takeFlash returns the pending notice, if any, and clears it.
func (s *Server) takeFlash(c echo.Context) *Notice {
	cookie, err := c.Cookie(common.FlashCookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}
	s.clearCookie(c, common.FlashCookieName)

	kind, encoded, ok := strings.Cut(cookie.Value, ".")
	if !ok {
		return nil
	}
	msg, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return nil
	}
	switch kind {
	case NoticeSuccess, NoticeError, NoticeWarning:
		return &Notice{Kind: kind, Message: string(msg)}
	default:
		return nil
	}
}

// warn sets the short-lived advisory cookie shown on the login and add pages.
func (s *Server) warn(c echo.Context, message string) {
	maxAge := s.opts.NoticeMaxAge
	if maxAge <= 0 {
		maxAge = common.DefaultNoticeMaxAge
	}
	s.setCookie(c, common.WarningCookieName, base64.RawURLEncoding.EncodeToString([]byte(message)), maxAge)
}

// takeWarning returns and clears the advisory message.
func (s *Server) takeWarning(c echo.Context) string {
	cookie, err := c.Cookie(common.WarningCookieName)
	if err != nil || cookie.Value == "" {
		return ""
	}
	s.clearCookie(c, common.WarningCookieName)

	msg, err := base64.RawURLEncoding.DecodeString(cookie.Value)
	if err != nil {
		return ""
	}
	return string(msg)
}

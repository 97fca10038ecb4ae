package web

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/portfolio/internal/common"
	"github.com/labstack/echo/v4"
)

func (s *Server) handleRegisterForm(c echo.Context) error {
	return s.render(c, http.StatusOK, "register", View{Title: "Register"})
}

func (s *Server) handleRegister(c echo.Context) error {
	ctx := c.Request().Context()

	_, err := s.accounts.Register(ctx, c.FormValue("name"), c.FormValue("email"), c.FormValue("password"))
	switch {
	case err == nil:
		return s.succeed(c, msgRegistered, "/login")
	case errors.Is(err, common.ErrEmailAlreadyExists):
		return s.fail(c, msgEmailTaken, "/register")
	case errors.Is(err, common.ErrorValidation):
		return s.fail(c, validationMessage(err), "/register")
	default:
		s.logger.Error(ctx, "register failed", "error", err)
		return s.fail(c, msgGeneric, "/register")
	}
}

func (s *Server) handleLoginForm(c echo.Context) error {
	return s.render(c, http.StatusOK, "login", View{Title: "Login", Warning: s.takeWarning(c)})
}

func (s *Server) handleLogin(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := s.accounts.Authenticate(ctx, c.FormValue("email"), c.FormValue("password"))
	if err != nil {
		if errors.Is(err, common.ErrInvalidCredentials) {
			return s.fail(c, msgBadCredentials, "/login")
		}
		s.logger.Error(ctx, "login failed", "error", err)
		return s.fail(c, msgGeneric, "/login")
	}

	if err := s.startSession(c, id); err != nil {
		s.logger.Error(ctx, "issue session failed", "user_id", id.ID, "error", err)
		return s.fail(c, msgGeneric, "/login")
	}

	s.logger.Info(ctx, "user logged in", "user_id", id.ID)
	return s.succeed(c, msgLoggedIn, "/")
}

func (s *Server) handleLogout(c echo.Context) error {
	s.endSession(c)
	s.warn(c, msgLoggedOut)
	return redirect(c, "/login")
}

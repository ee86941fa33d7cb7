package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/elternsprechtag/internal/config"
	"github.com/iliyamo/elternsprechtag/internal/middleware"
	"github.com/iliyamo/elternsprechtag/internal/model"
	"github.com/iliyamo/elternsprechtag/internal/repository"
	"github.com/iliyamo/elternsprechtag/internal/service"
	"github.com/iliyamo/elternsprechtag/internal/utils"
)

// UserReader looks up login accounts. *repository.UserRepo implements it.
type UserReader interface {
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	GetByID(ctx context.Context, id int64) (*model.User, error)
}

// AuthHandler serves login and the current-user endpoint.
type AuthHandler struct {
	Cfg    config.Config
	Users  UserReader
	Logger *zap.Logger
}

func NewAuthHandler(cfg config.Config, users UserReader, logger *zap.Logger) *AuthHandler {
	if users == nil || logger == nil {
		panic("nil dependency passed to NewAuthHandler")
	}
	return &AuthHandler{Cfg: cfg, Users: users, Logger: logger}
}

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type userResp struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Role      string `json:"role"`
	TeacherID *int64 `json:"teacherId"`
}

type loginResp struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
	User    userResp  `json:"user"`
}

var errBadCredentials = &service.AuthError{Message: "Benutzername oder Passwort falsch"}

func toUserResp(u *model.User) userResp {
	return userResp{ID: u.ID, Username: u.Username, Role: u.Role, TeacherID: u.TeacherID}
}

// Login checks username and password and issues an access token.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := bind(c, &req); err != nil {
		return err
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		return &service.ValidationError{
			Message: service.MsgInvalidInput,
			Fields:  map[string]string{"username": "Benutzername und Passwort sind erforderlich"},
		}
	}

	ctx, cancel := dbContext(c)
	defer cancel()

	u, err := h.Users.GetByUsername(ctx, req.Username)
	if errors.Is(err, repository.ErrNotFound) {
		return errBadCredentials
	}
	if err != nil {
		return err
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		h.Logger.Info("login failed", zap.String("username", u.Username), zap.String("ip", c.RealIP()))
		return errBadCredentials
	}

	id := utils.Identity{UserID: u.ID, Role: u.Role}
	if u.TeacherID != nil {
		id.TeacherID = *u.TeacherID
	}
	tok, err := utils.NewAccessToken(h.Cfg.JWTSecret, id, h.Cfg.AccessTTLMin)
	if err != nil {
		return err
	}
	h.Logger.Info("login", zap.Int64("user_id", u.ID), zap.String("role", u.Role))
	return c.JSON(http.StatusOK, loginResp{Token: tok.Token, Expires: tok.Exp, User: toUserResp(u)})
}

// Me returns the account behind the access token.
func (h *AuthHandler) Me(c echo.Context) error {
	ctx, cancel := dbContext(c)
	defer cancel()

	u, err := h.Users.GetByID(ctx, middleware.UserID(c))
	if errors.Is(err, repository.ErrNotFound) {
		return &service.AuthError{Message: "Konto existiert nicht mehr"}
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"user": toUserResp(u)})
}

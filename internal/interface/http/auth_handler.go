package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/tasko/internal/application"
	"github.com/oksasatya/tasko/internal/domain/entity"
	"github.com/oksasatya/tasko/internal/interface/middleware"
	"github.com/oksasatya/tasko/pkg/helpers"
	"github.com/oksasatya/tasko/pkg/response"
)

type AuthHandler struct {
	Svc     *application.UserService
	Logger  *logrus.Logger
	Cookies *helpers.Manager
}

func NewAuthHandler(svc *application.UserService, logger *logrus.Logger, cookieDomain string, cookieSecure bool) *AuthHandler {
	return &AuthHandler{Svc: svc, Logger: logger, Cookies: helpers.NewCookie(cookieDomain, cookieSecure)}
}

type registerRequest struct {
	Name     string           `json:"name" binding:"required,max=100"`
	Email    string           `json:"email" binding:"required,email"`
	Password string           `json:"password" binding:"required,pwd"`
	Role     string           `json:"role" binding:"required,signuprole"`
	Phone    string           `json:"phone" binding:"omitempty,phone"`
	Location *locationRequest `json:"location"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func tokenMeta(pair application.TokenPair) map[string]any {
	return map[string]any{"access_expires_at": pair.AccessTokenExpiry, "refresh_expires_at": pair.RefreshTokenExpiry}
}

func (h *AuthHandler) session(c *gin.Context, status int, u *entity.User, pair application.TokenPair, message string) {
	h.Cookies.SetPair(c, pair.AccessToken, pair.AccessTokenExpiry, pair.RefreshToken, pair.RefreshTokenExpiry)
	response.Success(c, status, gin.H{
		"token":        pair.AccessToken,
		"refreshToken": pair.RefreshToken,
		"user":         NewUserView(u),
	}, message, tokenMeta(pair))
}

// Register POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	in := application.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Phone:    req.Phone,
		Role:     entity.Role(req.Role),
	}
	if req.Location != nil {
		lng, lat, ok := req.Location.point()
		if !ok {
			respondError(c, h.Logger, errLocationPoint)
			return
		}
		in.Location = &entity.GeoPoint{Longitude: lng, Latitude: lat, Address: req.Location.Address}
	}

	u, pair, err := h.Svc.Register(c.Request.Context(), in)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	h.session(c, http.StatusCreated, u, pair, "registered")
}

// Login POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	u, pair, err := h.Svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	h.session(c, http.StatusOK, u, pair, "login successful")
}

// Refresh POST /api/auth/refresh. The refresh token comes from the cookie or the JSON body.
func (h *AuthHandler) Refresh(c *gin.Context) {
	refresh, _ := c.Cookie(helpers.RefreshCookie)
	if refresh == "" {
		var req refreshRequest
		_ = c.ShouldBindJSON(&req)
		refresh = req.RefreshToken
	}
	if refresh == "" {
		response.Error(c, http.StatusUnauthorized, "missing refresh token", nil)
		return
	}
	pair, u, err := h.Svc.Refresh(c.Request.Context(), refresh)
	if err != nil {
		response.Error(c, http.StatusUnauthorized, "invalid refresh token", nil)
		return
	}
	h.session(c, http.StatusOK, u, pair, "token refreshed")
}

// Logout POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	h.Svc.Logout(c.Request.Context(), middleware.Actor(c).ID)
	h.Cookies.Clear(c)
	response.Success(c, http.StatusOK, map[string]any{"logged_out": true}, "logged out", nil)
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/tasko/internal/application"
	"github.com/oksasatya/tasko/internal/interface/middleware"
	"github.com/oksasatya/tasko/pkg/response"
)

// MaxAvatarBytes caps avatar uploads.
const MaxAvatarBytes = 5 << 20

type UserHandler struct {
	Svc    *application.UserService
	Logger *logrus.Logger
}

func NewUserHandler(svc *application.UserService, logger *logrus.Logger) *UserHandler {
	return &UserHandler{Svc: svc, Logger: logger}
}

type updateProfileRequest struct {
	Name         *string  `json:"name" binding:"omitempty,max=100"`
	Phone        *string  `json:"phone" binding:"omitempty"`
	Skills       []string `json:"skills" binding:"omitempty,max=30,dive,max=50"`
	Availability *string  `json:"availability" binding:"omitempty,max=50"`
	Bio          *string  `json:"bio" binding:"omitempty,max=500"`
}

type updateLocationRequest struct {
	Lat     *float64 `json:"lat" binding:"required"`
	Lng     *float64 `json:"lng" binding:"required"`
	Address string   `json:"address" binding:"required"`
}

// Me GET /api/auth/me
func (h *UserHandler) Me(c *gin.Context) {
	u, err := h.Svc.GetProfile(c.Request.Context(), middleware.Actor(c).ID)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, NewUserView(u), "ok", nil)
}

// UpdateProfile PUT /api/auth/profile
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	u, err := h.Svc.UpdateProfile(c.Request.Context(), middleware.Actor(c).ID, application.ProfileFields{
		Name:         req.Name,
		Phone:        req.Phone,
		Skills:       req.Skills,
		Availability: req.Availability,
		Bio:          req.Bio,
	})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, NewUserView(u), "profile updated", nil)
}

// UpdateLocation PUT /api/auth/profile/location
func (h *UserHandler) UpdateLocation(c *gin.Context) {
	var req updateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	u, err := h.Svc.UpdateLocation(c.Request.Context(), middleware.Actor(c).ID, application.LocationUpdate{
		Latitude:  *req.Lat,
		Longitude: *req.Lng,
		Address:   req.Address,
	})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, NewUserView(u), "location updated", nil)
}

// UploadAvatar POST /api/auth/profile/avatar (multipart field "avatar")
func (h *UserHandler) UploadAvatar(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxAvatarBytes)
	fh, err := c.FormFile("avatar")
	if err != nil {
		response.Error(c, http.StatusBadRequest, "avatar file is required", nil)
		return
	}
	f, err := fh.Open()
	if err != nil {
		response.Error(c, http.StatusBadRequest, "cannot read avatar", nil)
		return
	}
	defer func() { _ = f.Close() }()

	u, err := h.Svc.UploadAvatar(c.Request.Context(), middleware.Actor(c).ID, f, fh.Header.Get("Content-Type"))
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, NewUserView(u), "avatar updated", nil)
}

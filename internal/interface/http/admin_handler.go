package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/tasko/internal/application"
	"github.com/oksasatya/tasko/pkg/response"
)

type AdminHandler struct {
	Svc    *application.AdminService
	Logger *logrus.Logger
}

func NewAdminHandler(svc *application.AdminService, logger *logrus.Logger) *AdminHandler {
	return &AdminHandler{Svc: svc, Logger: logger}
}

// ListUsers GET /api/admin/users
func (h *AdminHandler) ListUsers(c *gin.Context) {
	users, err := h.Svc.ListUsers(c.Request.Context())
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, NewUserViews(users), "ok", map[string]any{"count": len(users)})
}

// VerifyUser POST /api/admin/users/:id/verify
func (h *AdminHandler) VerifyUser(c *gin.Context) {
	u, err := h.Svc.VerifyUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, NewUserView(u), "user verified", nil)
}

// ListTasks GET /api/admin/tasks
func (h *AdminHandler) ListTasks(c *gin.Context) {
	tasks, err := h.Svc.ListAllTasks(c.Request.Context())
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, NewTaskViews(tasks), "ok", map[string]any{"count": len(tasks)})
}

// ListPayouts GET /api/admin/payouts
func (h *AdminHandler) ListPayouts(c *gin.Context) {
	payouts, err := h.Svc.ListPayouts(c.Request.Context())
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, payouts, "ok", map[string]any{"count": len(payouts)})
}

package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/tasko/internal/application"
	"github.com/oksasatya/tasko/internal/domain/entity"
	"github.com/oksasatya/tasko/internal/interface/middleware"
	"github.com/oksasatya/tasko/pkg/response"
)

type TaskHandler struct {
	Svc    *application.TaskService
	Logger *logrus.Logger
}

func NewTaskHandler(svc *application.TaskService, logger *logrus.Logger) *TaskHandler {
	return &TaskHandler{Svc: svc, Logger: logger}
}

type createTaskRequest struct {
	Title       string          `json:"title" binding:"required,max=200"`
	Description string          `json:"description" binding:"required"`
	Category    string          `json:"category" binding:"required,taskcategory"`
	Price       *float64        `json:"price" binding:"required,gte=0"`
	Deadline    lenientTime     `json:"deadline"`
	Location    locationRequest `json:"location"`
}

func (r createTaskRequest) input() entity.NewTaskInput {
	in := entity.NewTaskInput{
		Title:       r.Title,
		Description: r.Description,
		Category:    entity.Category(r.Category),
		Price:       *r.Price,
		Deadline:    r.Deadline.Time,
		IsRemote:    r.Location.IsRemote,
		Address:     r.Location.Address,
	}
	if lng, lat, ok := r.Location.point(); ok {
		in.Longitude, in.Latitude = &lng, &lat
	}
	return in
}

type reviewRequest struct {
	Rating  lenientInt `json:"rating" binding:"required,rating"`
	Comment string     `json:"comment" binding:"max=1000"`
}

// Create POST /api/tasks
func (h *TaskHandler) Create(c *gin.Context) {
	var req createTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	t, err := h.Svc.Create(c.Request.Context(), middleware.Actor(c), req.input())
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusCreated, NewTaskView(t), "task created", nil)
}

// ListClient GET /api/tasks/client
func (h *TaskHandler) ListClient(c *gin.Context) {
	tasks, err := h.Svc.ListClient(c.Request.Context(), middleware.Actor(c))
	h.list(c, tasks, err)
}

// ListWorker GET /api/tasks/worker
func (h *TaskHandler) ListWorker(c *gin.Context) {
	tasks, err := h.Svc.ListWorker(c.Request.Context(), middleware.Actor(c))
	h.list(c, tasks, err)
}

// floatQuery parses an optional float query parameter.
func floatQuery(c *gin.Context, key string) (*float64, error) {
	raw, ok := c.GetQuery(key)
	if !ok || raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be a number", entity.ErrValidation, key)
	}
	return &v, nil
}

// ListAvailable GET /api/tasks/available?lat=&lng=&radius=
func (h *TaskHandler) ListAvailable(c *gin.Context) {
	var f application.AvailableFilter
	var err error
	if f.Latitude, err = floatQuery(c, "lat"); err == nil {
		if f.Longitude, err = floatQuery(c, "lng"); err == nil {
			f.RadiusKm, err = floatQuery(c, "radius")
		}
	}
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	tasks, err := h.Svc.ListAvailable(c.Request.Context(), middleware.Actor(c), f)
	h.list(c, tasks, err)
}

// Search GET /api/tasks/search?q=&size=
func (h *TaskHandler) Search(c *gin.Context) {
	size, _ := strconv.Atoi(c.Query("size"))
	hits, err := h.Svc.Search(c.Request.Context(), middleware.Actor(c), c.Query("q"), size)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, hits, "ok", map[string]any{"count": len(hits)})
}

func (h *TaskHandler) list(c *gin.Context, tasks []entity.Task, err error) {
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, NewTaskViews(tasks), "ok", map[string]any{"count": len(tasks)})
}

type transitionFunc func(ctx context.Context, actor entity.Actor, id string) (*entity.Task, error)

func (h *TaskHandler) transition(c *gin.Context, message string, op transitionFunc) {
	t, err := op(c.Request.Context(), middleware.Actor(c), c.Param("id"))
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, NewTaskView(t), message, nil)
}

// Accept POST /api/tasks/:id/accept
func (h *TaskHandler) Accept(c *gin.Context) { h.transition(c, "task accepted", h.Svc.Accept) }

// Deposit POST /api/tasks/:id/deposit
func (h *TaskHandler) Deposit(c *gin.Context) { h.transition(c, "escrow deposited", h.Svc.Deposit) }

// Start POST /api/tasks/:id/start
func (h *TaskHandler) Start(c *gin.Context) { h.transition(c, "task started", h.Svc.Start) }

// Complete POST /api/tasks/:id/complete
func (h *TaskHandler) Complete(c *gin.Context) {
	res, err := h.Svc.Complete(c.Request.Context(), middleware.Actor(c), c.Param("id"))
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"task":       NewTaskView(res.Task),
		"commission": res.Commission,
		"payout":     res.Payout,
	}, "task completed", nil)
}

// Review POST /api/tasks/:id/review
func (h *TaskHandler) Review(c *gin.Context) {
	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	t, err := h.Svc.Review(c.Request.Context(), middleware.Actor(c), c.Param("id"), int(req.Rating), req.Comment)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, NewTaskView(t), "review added", nil)
}

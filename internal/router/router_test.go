package router

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/tasko/internal/application"
	"github.com/oksasatya/tasko/internal/domain/entity"
	"github.com/oksasatya/tasko/internal/testutil"
	"github.com/oksasatya/tasko/pkg/helpers"
	"github.com/oksasatya/tasko/pkg/validation"
)

type server struct {
	engine *gin.Engine
	store  *testutil.MemStore
	pub    *testutil.Publisher
}

func newServer(t *testing.T) *server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	validation.Init()

	store := testutil.NewMemStore()
	pub := &testutil.Publisher{}
	jwt := helpers.NewJWTManager("access", "refresh", time.Hour, 2*time.Hour)
	d := Deps{
		JWT:   jwt,
		Users: application.NewUserService(store.Users(), jwt, &testutil.Avatars{}, nil, 0, nil),
		Tasks: application.NewTaskService(store.Tasks(), store.Users(), store, &testutil.Payments{},
			application.NewNotifier(pub, nil, nil), nil, nil, nil),
		Admin: application.NewAdminService(store.Users(), store.Tasks(), 0.1, nil),
	}

	engine := gin.New()
	reg := NewRegistry(engine)
	InitModules(reg, d)
	reg.RegisterAll()
	return &server{engine: engine, store: store, pub: pub}
}

type envelope struct {
	Status  int             `json:"status"`
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   json.RawMessage `json:"error"`
}

func (s *server) do(t *testing.T, method, path, token string, body any) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w.Code, env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

type session struct {
	Token string `json:"token"`
	User  struct {
		ID   string `json:"id"`
		Role string `json:"role"`
	} `json:"user"`
}

func (s *server) register(t *testing.T, name, role string) session {
	t.Helper()
	code, env := s.do(t, http.MethodPost, "/api/auth/register", "", map[string]any{
		"name": name, "email": name + "@example.com", "password": "secret123", "role": role,
	})
	require.Equal(t, http.StatusCreated, code, env.Message)
	return decode[session](t, env.Data)
}

type taskBody struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Escrow struct {
		Deposited bool    `json:"deposited"`
		Amount    float64 `json:"amount"`
	} `json:"escrow"`
	Worker *struct {
		Name string `json:"name"`
	} `json:"worker"`
}

func (s *server) postTask(t *testing.T, token string, price float64) taskBody {
	t.Helper()
	code, env := s.do(t, http.MethodPost, "/api/tasks", token, map[string]any{
		"title":       "Deliver groceries",
		"description": "Two bags from the market",
		"category":    "delivery",
		"price":       price,
		"deadline":    "2026-11-01T12:00:00Z",
		"location":    map[string]any{"coordinates": []float64{36.8219, -1.2921}, "address": "Moi Avenue"},
	})
	require.Equal(t, http.StatusCreated, code, env.Message)
	return decode[taskBody](t, env.Data)
}

func TestHTTP_TaskLifecycle(t *testing.T) {
	s := newServer(t)
	client := s.register(t, "amina", "client")
	worker := s.register(t, "otieno", "worker")

	task := s.postTask(t, client.Token, 1000)
	assert.Equal(t, "open", task.Status)

	code, env := s.do(t, http.MethodGet, "/api/tasks/available?lat=-1.29&lng=36.82", worker.Token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, decode[[]taskBody](t, env.Data), 1)

	code, env = s.do(t, http.MethodPost, "/api/tasks/"+task.ID+"/start", client.Token, nil)
	assert.Equal(t, http.StatusBadRequest, code, "start on an open task")

	code, env = s.do(t, http.MethodPost, "/api/tasks/"+task.ID+"/accept", worker.Token, nil)
	require.Equal(t, http.StatusOK, code, env.Message)
	assert.Equal(t, "otieno", decode[taskBody](t, env.Data).Worker.Name)

	code, env = s.do(t, http.MethodPost, "/api/tasks/"+task.ID+"/accept", worker.Token, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "task not available", env.Message)

	code, env = s.do(t, http.MethodPost, "/api/tasks/"+task.ID+"/deposit", client.Token, nil)
	require.Equal(t, http.StatusOK, code, env.Message)
	deposited := decode[taskBody](t, env.Data)
	assert.True(t, deposited.Escrow.Deposited)
	assert.Equal(t, 1000.0, deposited.Escrow.Amount)

	code, _ = s.do(t, http.MethodPost, "/api/tasks/"+task.ID+"/start", worker.Token, nil)
	require.Equal(t, http.StatusOK, code)

	code, env = s.do(t, http.MethodPost, "/api/tasks/"+task.ID+"/complete", worker.Token, nil)
	require.Equal(t, http.StatusOK, code, env.Message)
	done := decode[struct {
		Task       taskBody `json:"task"`
		Commission float64  `json:"commission"`
		Payout     float64  `json:"payout"`
	}](t, env.Data)
	assert.Equal(t, "completed", done.Task.Status)
	assert.Equal(t, 100.0, done.Commission)
	assert.Equal(t, 900.0, done.Payout)

	code, _ = s.do(t, http.MethodPost, "/api/tasks/"+task.ID+"/review", client.Token, map[string]any{"rating": 7})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = s.do(t, http.MethodPost, "/api/tasks/"+task.ID+"/review", client.Token, map[string]any{"rating": 4, "comment": "good"})
	require.Equal(t, http.StatusOK, code)

	code, env = s.do(t, http.MethodGet, "/api/auth/me", worker.Token, nil)
	require.Equal(t, http.StatusOK, code)
	me := decode[struct {
		CompletedTasks   int     `json:"completedTasks"`
		ReliabilityScore float64 `json:"reliabilityScore"`
	}](t, env.Data)
	assert.Equal(t, 1, me.CompletedTasks)
	assert.Equal(t, 4.0, me.ReliabilityScore)

	assert.Len(t, s.pub.Jobs, 5)
}

func TestHTTP_ErrorMapping(t *testing.T) {
	s := newServer(t)
	client := s.register(t, "client", "client")
	other := s.register(t, "other", "client")
	worker := s.register(t, "worker", "worker")
	task := s.postTask(t, client.Token, 100)

	code, _ := s.do(t, http.MethodGet, "/api/tasks/client", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = s.do(t, http.MethodPost, "/api/tasks", worker.Token, map[string]any{})
	assert.Equal(t, http.StatusForbidden, code, "workers cannot post")

	code, env := s.do(t, http.MethodPost, "/api/tasks", client.Token, map[string]any{
		"title": "x", "description": "y", "category": "gardening", "price": 10, "deadline": "2026-11-01T12:00:00Z",
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, string(env.Error), "category")

	code, _ = s.do(t, http.MethodPost, "/api/tasks/"+task.ID+"/deposit", other.Token, nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = s.do(t, http.MethodPost, "/api/tasks/not-a-uuid/deposit", client.Token, nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = s.do(t, http.MethodGet, "/api/tasks/available", worker.Token, nil)
	assert.Equal(t, http.StatusBadRequest, code, "lat and lng are required")

	code, _ = s.do(t, http.MethodGet, "/api/tasks/available?lat=abc&lng=1", worker.Token, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = s.do(t, http.MethodGet, "/api/admin/users", client.Token, nil)
	assert.Equal(t, http.StatusForbidden, code)
}

func TestHTTP_InternalErrorsAreOpaque(t *testing.T) {
	s := newServer(t)
	client := s.register(t, "client", "client")
	worker := s.register(t, "worker", "worker")
	task := s.postTask(t, client.Token, 100)
	for _, step := range []struct{ action, token string }{
		{"accept", worker.Token}, {"deposit", client.Token}, {"start", worker.Token},
	} {
		code, env := s.do(t, http.MethodPost, "/api/tasks/"+task.ID+"/"+step.action, step.token, nil)
		require.Equal(t, http.StatusOK, code, env.Message)
	}

	s.store.FailReputation = errors.New("disk full")
	code, env := s.do(t, http.MethodPost, "/api/tasks/"+task.ID+"/complete", worker.Token, nil)

	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "server error", env.Message)
	assert.NotContains(t, string(env.Error), "disk full")
}

func TestHTTP_AuthFlows(t *testing.T) {
	s := newServer(t)
	s.register(t, "amina", "client")

	code, env := s.do(t, http.MethodPost, "/api/auth/register", "", map[string]any{
		"name": "dup", "email": "amina@example.com", "password": "secret123", "role": "worker",
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "user already exists", env.Message)

	code, _ = s.do(t, http.MethodPost, "/api/auth/register", "", map[string]any{
		"name": "root", "email": "root@example.com", "password": "secret123", "role": "admin",
	})
	assert.Equal(t, http.StatusBadRequest, code, "admin cannot self-register")

	code, env = s.do(t, http.MethodPost, "/api/auth/login", "", map[string]any{"email": "amina@example.com", "password": "wrong-pass"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "invalid credentials", env.Message)

	code, env = s.do(t, http.MethodPost, "/api/auth/login", "", map[string]any{"email": "amina@example.com", "password": "secret123"})
	require.Equal(t, http.StatusOK, code)
	sess := decode[struct {
		Token        string `json:"token"`
		RefreshToken string `json:"refreshToken"`
	}](t, env.Data)

	code, env = s.do(t, http.MethodPost, "/api/auth/refresh", "", map[string]any{"refresh_token": sess.RefreshToken})
	require.Equal(t, http.StatusOK, code, env.Message)

	code, env = s.do(t, http.MethodPut, "/api/auth/profile/location", sess.Token, map[string]any{"lat": -1.29, "lng": 36.82, "address": "Nairobi"})
	require.Equal(t, http.StatusOK, code, env.Message)
	view := decode[struct {
		Location struct {
			Coordinates []float64 `json:"coordinates"`
		} `json:"location"`
	}](t, env.Data)
	assert.Equal(t, []float64{36.82, -1.29}, view.Location.Coordinates)

	code, _ = s.do(t, http.MethodPost, "/api/auth/logout", sess.Token, nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestHTTP_WebClientBodies(t *testing.T) {
	s := newServer(t)

	code, env := s.do(t, http.MethodPost, "/api/auth/register", "", map[string]any{
		"name": "amina", "email": "amina@example.com", "password": "secret123", "phone": "", "role": "client",
		"location": map[string]any{"lat": -1.2921, "lng": 36.8219, "address": "Nairobi"},
	})
	require.Equal(t, http.StatusCreated, code, env.Message)
	client := decode[session](t, env.Data)
	worker := s.register(t, "otieno", "worker")

	type located struct {
		ID       string `json:"id"`
		Location struct {
			IsRemote    bool       `json:"isRemote"`
			Coordinates [2]float64 `json:"coordinates"`
			Address     string     `json:"address"`
		} `json:"location"`
	}
	code, env = s.do(t, http.MethodGet, "/api/auth/me", client.Token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, [2]float64{36.8219, -1.2921}, decode[located](t, env.Data).Location.Coordinates)

	code, env = s.do(t, http.MethodPost, "/api/auth/register", "", map[string]any{
		"name": "nopoint", "email": "nopoint@example.com", "password": "secret123", "role": "client",
		"location": map[string]any{"address": "Nairobi"},
	})
	assert.Equal(t, http.StatusBadRequest, code, env.Message)

	code, env = s.do(t, http.MethodPost, "/api/tasks", client.Token, map[string]any{
		"title": "Fix sink", "description": "Kitchen sink leaks", "category": "pickup",
		"price": 1500.0, "deadline": "2026-11-01T12:00",
		"lat": -1.28, "lng": 36.8, "address": "Nairobi", "isRemote": false,
		"location": map[string]any{"lat": -1.28, "lng": 36.8, "address": "Nairobi", "isRemote": false},
	})
	require.Equal(t, http.StatusCreated, code, env.Message)
	onsite := decode[located](t, env.Data)
	assert.False(t, onsite.Location.IsRemote)
	assert.Equal(t, [2]float64{36.8, -1.28}, onsite.Location.Coordinates)
	assert.Equal(t, "Nairobi", onsite.Location.Address)

	code, env = s.do(t, http.MethodPost, "/api/tasks", client.Token, map[string]any{
		"title": "Write copy", "description": "Landing page text", "category": "other",
		"price": 800.0, "deadline": "2026-11-02T09:30",
		"location": map[string]any{"lat": 0, "lng": 0, "address": "Remote", "isRemote": true},
	})
	require.Equal(t, http.StatusCreated, code, env.Message)
	remote := decode[located](t, env.Data)
	assert.True(t, remote.Location.IsRemote)
	assert.Equal(t, "Remote", remote.Location.Address)

	code, _ = s.do(t, http.MethodPost, "/api/tasks", client.Token, map[string]any{
		"title": "Bad date", "description": "x", "category": "other", "price": 1.0, "deadline": "next tuesday",
		"location": map[string]any{"isRemote": true},
	})
	assert.Equal(t, http.StatusBadRequest, code)

	for _, step := range []struct{ action, token string }{
		{"accept", worker.Token}, {"deposit", client.Token}, {"start", worker.Token}, {"complete", worker.Token},
	} {
		code, env := s.do(t, http.MethodPost, "/api/tasks/"+onsite.ID+"/"+step.action, step.token, nil)
		require.Equal(t, http.StatusOK, code, env.Message)
	}

	code, _ = s.do(t, http.MethodPost, "/api/tasks/"+onsite.ID+"/review", client.Token, map[string]any{"rating": "abc"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = s.do(t, http.MethodPost, "/api/tasks/"+onsite.ID+"/review", client.Token, map[string]any{"rating": "5", "comment": "quick fix"})
	require.Equal(t, http.StatusOK, code, env.Message)
	reviewed := decode[struct {
		Reviews []struct {
			Rating int `json:"rating"`
		} `json:"reviews"`
	}](t, env.Data)
	require.Len(t, reviewed.Reviews, 1)
	assert.Equal(t, 5, reviewed.Reviews[0].Rating)
}

func TestHTTP_Admin(t *testing.T) {
	s := newServer(t)
	client := s.register(t, "client", "client")
	worker := s.register(t, "worker", "worker")

	hash, err := helpers.HashPassword("admin-secret")
	require.NoError(t, err)
	require.NoError(t, s.store.Users().Create(context.Background(), &entity.User{
		Name: "Admin", Email: "admin@example.com", Password: hash, Role: entity.RoleAdmin,
	}))
	code, env := s.do(t, http.MethodPost, "/api/auth/login", "", map[string]any{"email": "admin@example.com", "password": "admin-secret"})
	require.Equal(t, http.StatusOK, code)
	admin := decode[session](t, env.Data)

	task := s.postTask(t, client.Token, 1000)
	for _, step := range []struct{ action, token string }{
		{"accept", worker.Token}, {"deposit", client.Token}, {"start", client.Token}, {"complete", worker.Token},
	} {
		code, env := s.do(t, http.MethodPost, "/api/tasks/"+task.ID+"/"+step.action, step.token, nil)
		require.Equal(t, http.StatusOK, code, env.Message)
	}

	code, env = s.do(t, http.MethodGet, "/api/admin/payouts", admin.Token, nil)
	require.Equal(t, http.StatusOK, code)
	payouts := decode[[]entity.Payout](t, env.Data)
	require.Len(t, payouts, 1)
	assert.Equal(t, entity.Payout{TaskID: task.ID, Worker: "worker", Amount: 900, Status: "pending"}, payouts[0])

	code, env = s.do(t, http.MethodPost, "/api/admin/users/"+worker.User.ID+"/verify", admin.Token, nil)
	require.Equal(t, http.StatusOK, code)
	verified := decode[struct {
		IsVerified bool     `json:"isVerified"`
		Badges     []string `json:"badges"`
	}](t, env.Data)
	assert.True(t, verified.IsVerified)
	assert.Equal(t, []string{"verified"}, verified.Badges)

	code, _ = s.do(t, http.MethodPost, "/api/admin/users/5d4f8a60-3f0e-4a57-9a53-2f4d2a0c0e11/verify", admin.Token, nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, env = s.do(t, http.MethodGet, "/api/admin/users", admin.Token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.NotContains(t, string(env.Data), "password")
}

func TestRegistry_HealthAndUnknownRoute(t *testing.T) {
	s := newServer(t)

	code, env := s.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, env.Success)

	code, env = s.do(t, http.MethodGet, "/api/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "route not found", env.Message)
}

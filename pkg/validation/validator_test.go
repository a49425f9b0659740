package validation

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
)

type sample struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,pwd"`
	Category string `json:"category" validate:"required,taskcategory"`
	Rating   int    `json:"rating" validate:"rating"`
	Role     string `json:"role" validate:"required,signuprole"`
}

func newValidate() *validator.Validate {
	v := validator.New()
	Register(v)
	return v
}

func TestAliases(t *testing.T) {
	v := newValidate()

	ok := sample{Email: "a@example.com", Password: "longenough", Category: "data-entry", Rating: 5, Role: "worker"}
	assert.NoError(t, v.Struct(ok))

	bad := sample{Email: "nope", Password: "short", Category: "gardening", Rating: 6, Role: "admin"}
	details := ToDetails(v.Struct(bad))

	assert.Equal(t, "must be a valid email", details["email"])
	assert.Equal(t, "must be at least 8 characters long", details["password"])
	assert.Contains(t, details["category"], "data-entry")
	assert.Equal(t, "must be between 1 and 5", details["rating"])
	assert.Equal(t, "must be one of [client, worker]", details["role"])
}

func TestToDetails_NonValidationError(t *testing.T) {
	assert.Nil(t, ToDetails(nil))
	assert.Equal(t, map[string]string{"payload": "invalid payload"}, ToDetails(assert.AnError))
}

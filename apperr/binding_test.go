package apperr

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type bindingPayload struct {
	Name string   `json:"name" binding:"required"`
	Kind string   `json:"kind" binding:"omitempty,oneof=percentage fixed"`
	Qty  *int     `json:"qty" binding:"omitempty,min=1"`
	Tags []string `json:"tags" binding:"omitempty,max=2"`
	Note string   `binding:"omitempty,max=3"`
}

func bind(t *testing.T, body string) error {
	t.Helper()
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("POST", "/", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	var p bindingPayload
	return c.ShouldBindJSON(&p)
}

func TestBindingItemizesTagViolations(t *testing.T) {
	err := bind(t, `{"kind":"bogo","qty":0,"tags":["a","b","c"],"Note":"long"}`)
	require.Error(t, err)

	e := Binding(err)
	assert.Equal(t, KindValidation, e.Kind)
	assert.Equal(t, "name is required", e.Message)
	assert.Equal(t, []FieldError{
		{Field: "name", Message: "is required"},
		{Field: "kind", Message: "must be one of percentage, fixed"},
		{Field: "qty", Message: "must be at least 1"},
		{Field: "tags", Message: "must contain at most 2 item(s)"},
		{Field: "Note", Message: "must be at most 3 character(s)"},
	}, e.Fields["fields"])
}

func TestBindingMalformedBody(t *testing.T) {
	err := bind(t, `{"name":`)
	require.Error(t, err)

	e := Binding(err)
	assert.Equal(t, KindValidation, e.Kind)
	assert.True(t, strings.HasPrefix(e.Message, "invalid input: "), e.Message)
	assert.Nil(t, e.Fields)
}

func TestCheck(t *testing.T) {
	qty := 2
	assert.NoError(t, Check(&bindingPayload{Name: "x", Qty: &qty}))
	assert.Empty(t, Violations(bindingPayload{Name: "x"}))

	err := Check(&bindingPayload{Kind: "fixed"})
	assert.True(t, Is(err, KindValidation))
	assert.Equal(t, []FieldError{{Field: "name", Message: "is required"}}, Violations(&bindingPayload{Kind: "fixed"}))
}

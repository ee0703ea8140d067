package errors

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func respond(fn func(c *gin.Context)) (*httptest.ResponseRecorder, APIError) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	fn(c)

	var body APIError
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return w, body
}

func TestHelpers(t *testing.T) {
	tests := []struct {
		name    string
		fn      func(c *gin.Context)
		status  int
		code    string
		message string
	}{
		{"unauthorized default", func(c *gin.Context) { Unauthorized(c, "") }, http.StatusUnauthorized, ErrCodeUnauthorized, "Authentication required"},
		{"forbidden", func(c *gin.Context) { Forbidden(c, "nope") }, http.StatusForbidden, ErrCodeForbidden, "nope"},
		{"not found", func(c *gin.Context) { NotFound(c, "Task not found") }, http.StatusNotFound, ErrCodeNotFound, "Task not found"},
		{"bad request default", func(c *gin.Context) { BadRequest(c, "") }, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid request"},
		{"internal", func(c *gin.Context) { InternalError(c, "") }, http.StatusInternalServerError, ErrCodeInternalError, "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, body := respond(tt.fn)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, body.Code)
			assert.Equal(t, tt.message, body.Message)
		})
	}
}

func TestValidationFailed(t *testing.T) {
	w, _ := respond(func(c *gin.Context) {
		ValidationFailed(c, map[string]string{"name": "is required"})
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var body struct {
		Code    string            `json:"code"`
		Details map[string]string `json:"details"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, ErrCodeValidationFailed, body.Code)
	assert.Equal(t, "is required", body.Details["name"])
}

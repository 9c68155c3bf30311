package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestValidationFailedListsFields(t *testing.T) {
	router := gin.New()
	router.POST("/", func(c *gin.Context) {
		var req struct {
			Email string `json:"email" binding:"required,email"`
			Name  string `json:"name" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			ValidationFailed(c, err)
			return
		}
		Success(c, nil)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", jsonBody(`{"email":"nope"}`)))
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp struct {
		Message string       `json:"message"`
		Data    []FieldError `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "validation failed", resp.Message)
	assert.ElementsMatch(t, []FieldError{{Field: "Email", Rule: "email"}, {Field: "Name", Rule: "required"}}, resp.Data)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", jsonBody(`{`)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "malformed request body")
}

func TestErrorEnvelopes(t *testing.T) {
	tests := []struct {
		name   string
		send   func(c *gin.Context)
		status int
		code   int
	}{
		{"created", func(c *gin.Context) { Created(c, gin.H{"id": 1}) }, http.StatusCreated, 0},
		{"unauthorized", func(c *gin.Context) { Unauthorized(c, "no") }, http.StatusUnauthorized, -1001},
		{"not found", func(c *gin.Context) { NotFound(c, "no") }, http.StatusNotFound, -1003},
		{"conflict", func(c *gin.Context) { Conflict(c, "no") }, http.StatusConflict, -1004},
		{"internal", func(c *gin.Context) { InternalError(c, "no") }, http.StatusInternalServerError, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			tt.send(c)

			var resp Response
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, resp.Code)
		})
	}
}

func jsonBody(s string) *strings.Reader {
	return strings.NewReader(s)
}

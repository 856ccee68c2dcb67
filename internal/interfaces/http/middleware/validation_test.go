package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localcooks/backend/internal/interfaces/http/dto"
)

func TestSetupValidator(t *testing.T) {
	SetupValidator()

	v, ok := binding.Validator.Engine().(*validator.Validate)
	assert.True(t, ok)
	assert.NotNil(t, v)
}

func TestHandleValidationError(t *testing.T) {
	type registerRequest struct {
		Email string `json:"email" binding:"required,email"`
		Role  string `json:"role" binding:"required,oneof=CHEF MANAGER PARTNER"`
	}

	SetupValidator()
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.POST("/register", func(c *gin.Context) {
		var req registerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	})

	postJSON := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest("POST", "/register", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	t.Run("invalid input returns field-level details", func(t *testing.T) {
		w := postJSON(`{"email": "not-an-email", "role": "ADMIN"}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)

		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

		assert.False(t, resp.Success)
		require.NotNil(t, resp.Error)
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
		assert.Equal(t, "Request validation failed", resp.Error.Message)
		assert.Len(t, resp.Error.Details, 2)
	})

	t.Run("field names come from the json tag", func(t *testing.T) {
		w := postJSON(`{"role": "CHEF"}`)

		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

		require.NotNil(t, resp.Error)
		require.Len(t, resp.Error.Details, 1)
		assert.Equal(t, "email", resp.Error.Details[0].Field)
	})

	t.Run("valid input passes through", func(t *testing.T) {
		w := postJSON(`{"email": "chef@example.com", "role": "CHEF"}`)

		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestGetValidationMessage(t *testing.T) {
	type bookingInput struct {
		LocationID  string `binding:"uuid"`
		Description string `binding:"required,max=10"`
		Hours       int    `binding:"gte=1,lte=12"`
		Role        string `binding:"oneof=CHEF MANAGER PARTNER"`
		Email       string `binding:"email"`
		Receipt     string `binding:"url"`
		Code        string `binding:"len=6"`
	}

	v := validator.New()
	v.SetTagName("binding")
	err := v.Struct(bookingInput{
		LocationID:  "not-a-uuid",
		Description: "",
		Hours:       0,
		Role:        "OWNER",
		Email:       "nope",
		Receipt:     "nope",
		Code:        "ab",
	})
	require.Error(t, err)

	expected := map[string]string{
		"LocationID":  "Invalid UUID format",
		"Description": "This field is required",
		"Hours":       "Must be greater than or equal to 1",
		"Role":        "Must be one of: CHEF MANAGER PARTNER",
		"Email":       "Invalid email format",
		"Receipt":     "Invalid URL format",
		"Code":        "Must be exactly 6 characters",
	}

	validationErrs := err.(validator.ValidationErrors)
	for _, e := range validationErrs {
		want, ok := expected[e.Field()]
		if !ok {
			continue
		}
		assert.Equal(t, want, getValidationMessage(e), "field %s", e.Field())
	}
}

func TestFormatValidationErrors_NonValidatorError(t *testing.T) {
	resp := FormatValidationErrors(assert.AnError, "req-123")

	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
	assert.Equal(t, "req-123", resp.Error.RequestID)
	assert.Empty(t, resp.Error.Details)
}

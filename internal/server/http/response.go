package httpserver

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// ErrorResponse standardizes API errors.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// ValidationError writes a 400 with the failing field tags, if any.
func ValidationError(c *gin.Context, err error) {
	resp := ErrorResponse{Error: "validation_error", Message: "invalid request"}
	var verr validator.ValidationErrors
	if errors.As(err, &verr) {
		resp.Details = make(map[string]string, len(verr))
		for _, field := range verr {
			resp.Details[lowerFirst(field.Field())] = field.Tag()
		}
	}
	c.JSON(http.StatusBadRequest, resp)
}

// BadRequest helper.
func BadRequest(c *gin.Context, code, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: code, Message: message})
}

// NotFound helper.
func NotFound(c *gin.Context, resource string) {
	c.JSON(http.StatusNotFound, ErrorResponse{Error: "not_found", Message: resource + " not found"})
}

// Unavailable helper.
func Unavailable(c *gin.Context, message string) {
	c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "loading", Message: message})
}

// Failure writes a 500 carrying the operation's user-facing message.
func Failure(c *gin.Context, code, message string) {
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: code, Message: message})
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

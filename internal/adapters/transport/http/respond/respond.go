package respond

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/streamhive/user-service/internal/domain/user/apperr"
)

// Every error kind maps to a response shape exactly once, here.
var statusByKind = map[apperr.Kind]int{
	apperr.Validation:        http.StatusBadRequest,
	apperr.Conflict:          http.StatusConflict,
	apperr.Unauthorized:      http.StatusUnauthorized,
	apperr.TokenExpired:      http.StatusUnauthorized,
	apperr.Forbidden:         http.StatusForbidden,
	apperr.NotFound:          http.StatusNotFound,
	apperr.InvalidCredential: http.StatusBadRequest,
	apperr.Internal:          http.StatusInternalServerError,
}

func StatusFor(k apperr.Kind) int {
	if s, ok := statusByKind[k]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// OK writes the success envelope shared by all handlers.
func OK(c *gin.Context, status int, message string, data any) {
	body := gin.H{"success": true, "message": message}
	if data != nil {
		body["data"] = data
	}
	c.JSON(status, body)
}

// Fail writes the error envelope and aborts the chain. Internal detail
// is suppressed unless dev is set.
func Fail(c *gin.Context, err error, dev bool) {
	e := apperr.From(err)

	message := e.Message
	if e.Kind == apperr.Internal && !dev {
		message = "internal server error"
	}

	body := gin.H{"success": false, "message": message}
	if len(e.Fields) > 0 {
		body["errors"] = e.Fields
	} else {
		body["errors"] = []string{}
	}

	_ = c.Error(err)
	c.AbortWithStatusJSON(StatusFor(e.Kind), body)
}

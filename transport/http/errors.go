package http

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/layer-3/walletauth/core"
	"go.uber.org/zap"
)

// FieldError points at an invalid request body field
type FieldError struct {
	Path     string `json:"path"`
	Location string `json:"location"`
	Msg      string `json:"msg"`
}

func statusFor(kind core.Kind) int {
	switch kind {
	case core.KindInvalidRequest:
		return http.StatusBadRequest
	case core.KindUnauthorized:
		return http.StatusUnauthorized
	case core.KindForbidden:
		return http.StatusForbidden
	case core.KindNotFound:
		return http.StatusNotFound
	case core.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondError is the only place where failures become HTTP statuses
func respondError(c *gin.Context, log *zap.Logger, err error) {
	kind := core.KindOf(err)
	status := statusFor(kind)

	fields := []zap.Field{
		zap.Int("status", status),
		zap.String("kind", kind.String()),
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.String("client_ip", c.ClientIP()),
		zap.Error(err),
	}
	if status >= http.StatusInternalServerError {
		log.Error("request failed", fields...)
	} else {
		log.Warn("request rejected", fields...)
	}

	c.AbortWithStatusJSON(status, gin.H{"message": core.PublicMessage(err)})
}

// bindJSON decodes the body into req and validates it. An empty body is
// validated as an empty object so that every missing field gets reported.
func bindJSON(c *gin.Context, req interface{}) bool {
	err := c.ShouldBindJSON(req)
	if errors.Is(err, io.EOF) {
		err = binding.Validator.ValidateStruct(req)
	}
	if err == nil {
		return true
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Invalid request."})
		return false
	}

	fieldErrors := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fieldErrors = append(fieldErrors, FieldError{
			Path:     fieldPath(fe.Namespace()),
			Location: "body",
			Msg:      "Invalid value",
		})
	}

	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
		"message": "Invalid request.",
		"errors":  fieldErrors,
	})
	return false
}

// fieldPath turns "createAddressRequest.Token.Symbol" into "token.symbol"
func fieldPath(namespace string) string {
	parts := strings.Split(namespace, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	for i, p := range parts {
		r, size := utf8.DecodeRuneInString(p)
		parts[i] = string(unicode.ToLower(r)) + p[size:]
	}
	return strings.Join(parts, ".")
}

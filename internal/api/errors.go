package api

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"pkg.mon.icu/social/internal/auth"
	"pkg.mon.icu/social/internal/media"
	"pkg.mon.icu/social/internal/service"
)

var statuses = []struct {
	err    error
	status int
}{
	{service.ErrNotFound, http.StatusNotFound},
	{service.ErrConflict, http.StatusConflict},
	{service.ErrForbidden, http.StatusForbidden},
	{service.ErrBadRequest, http.StatusBadRequest},
	{service.ErrValidation, http.StatusUnprocessableEntity},
	{auth.ErrInvalidCredentials, http.StatusUnauthorized},
	{auth.ErrWeakPassword, http.StatusUnprocessableEntity},
	{media.ErrUnsupportedMediaType, http.StatusUnsupportedMediaType},
	{media.ErrTooLarge, http.StatusRequestEntityTooLarge},
}

func statusOf(err error) (int, bool) {
	// http.MaxBytesReader has no exported error in this Go version.
	if strings.Contains(err.Error(), "request body too large") {
		return http.StatusRequestEntityTooLarge, true
	}
	for _, s := range statuses {
		if errors.Is(err, s.err) {
			return s.status, true
		}
	}
	return 0, false
}

// abort answers with the status mapped from err and its message as detail. Unknown errors are logged and hidden.
func (a *API) abort(c *gin.Context, err error) {
	status, ok := statusOf(err)
	if !ok {
		a.logger.Error("Request failed.",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err),
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"detail": "internal server error"})
		return
	}
	if status == http.StatusUnauthorized {
		c.Header("WWW-Authenticate", "Bearer")
	}
	c.AbortWithStatusJSON(status, gin.H{"detail": err.Error()})
}

// formUpload opens the multipart file in field. The caller closes it.
func formUpload(c *gin.Context, field string) (*service.Upload, io.Closer, error) {
	fh, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil, &service.Error{Kind: service.ErrValidation, Detail: field + " is required"}
	}
	if err != nil {
		return nil, nil, invalid(err)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, nil, err
	}
	return &service.Upload{Reader: f, Filename: fh.Filename, ContentType: fh.Header.Get("Content-Type")}, f, nil
}

func invalid(err error) error {
	return &service.Error{Kind: service.ErrValidation, Detail: err.Error()}
}

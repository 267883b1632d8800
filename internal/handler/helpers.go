package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/examgen/examgen/internal/pkg/errcode"
	appErr "github.com/examgen/examgen/internal/pkg/errors"
	"github.com/examgen/examgen/internal/pkg/response"
)

func getUserID(c *gin.Context) string {
	value, _ := c.Get("user_id")
	userID, _ := value.(string)
	return userID
}

func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	logutil.GetLogger(c.Request.Context()).Warn("request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.String("user_id", getUserID(c)),
		zap.Error(err),
	)
	switch {
	case errors.Is(err, appErr.ErrUnauthorized):
		response.Error(c, errcode.ErrUnauthorized, "unauthorized")
	case errors.Is(err, appErr.ErrForbidden):
		response.Error(c, errcode.ErrForbidden, "forbidden")
	case errors.Is(err, appErr.ErrNotFound):
		response.Error(c, errcode.ErrNotFound, "not found")
	case errors.Is(err, appErr.ErrInvalid):
		response.Error(c, errcode.ErrInvalid, "invalid request")
	case errors.Is(err, appErr.ErrConflict):
		response.Error(c, errcode.ErrConflict, "conflict")
	case errors.Is(err, appErr.ErrBusy):
		response.Error(c, errcode.ErrBusy, "operation already in progress")
	case errors.Is(err, appErr.ErrNotIndexed):
		response.Error(c, errcode.ErrSubjectNotIndexed, "subject has no indexed material")
	case errors.Is(err, appErr.ErrUnsupportedFile):
		response.Error(c, errcode.ErrInvalidFile, "unsupported file format")
	case errors.Is(err, appErr.ErrBackendDown):
		response.Error(c, errcode.ErrBackendUnavailable, "generation backend unavailable")
	default:
		response.Error(c, errcode.ErrInternal, "internal error")
	}
}

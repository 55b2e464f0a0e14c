// Package response defines the JSON envelope every API handler writes.
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "mediatrack/internal/pkg/errors"
)

// Response is the uniform envelope: code 0 means success.
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data"`
}

func Success(c *gin.Context, data interface{}) {
	if data == nil {
		data = struct{}{}
	}
	c.JSON(http.StatusOK, Response{
		Code: apperrors.Success,
		Data: data,
	})
}

func Created(c *gin.Context, data interface{}) {
	if data == nil {
		data = struct{}{}
	}
	c.JSON(http.StatusCreated, Response{
		Code: apperrors.Success,
		Data: data,
	})
}

// Fail writes the business error with its mapped HTTP status.
func Fail(c *gin.Context, err error) {
	appErr := apperrors.FromError(err)
	c.JSON(appErr.HTTPStatus(), Response{
		Code:    appErr.Code,
		Message: appErr.Message,
		Data:    struct{}{},
	})
}

func BadRequest(c *gin.Context, message string) {
	Fail(c, apperrors.New(apperrors.CodeBadRequest, message))
}

func Unauthorized(c *gin.Context, message string) {
	Fail(c, apperrors.New(apperrors.CodeUnauthorized, message))
}

func NotFound(c *gin.Context, message string) {
	Fail(c, apperrors.New(apperrors.CodeNotFound, message))
}

func Internal(c *gin.Context, message string) {
	Fail(c, apperrors.New(apperrors.CodeInternal, message))
}

package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/ats-pipeline/internal/application/apperr"
	"github.com/garyjia/ats-pipeline/internal/domain/workflow"
)

// Codes produced by the HTTP layer itself
const (
	CodeUnauthenticated = "unauthenticated"
	CodeInvalidRequest  = "invalid_request"
	CodeInvalidStage    = "invalid_stage"
	CodeTimeout         = "timeout"
	CodeCanceled        = "canceled"
)

var statusByCode = map[string]int{
	apperr.CodeInvalidTransition:      http.StatusBadRequest,
	apperr.CodeUnauthorized:           http.StatusForbidden,
	apperr.CodeNotFound:               http.StatusNotFound,
	apperr.CodeDuplicateApplication:   http.StatusConflict,
	apperr.CodeConcurrentModification: http.StatusConflict,
	apperr.CodeJobClosed:              http.StatusUnprocessableEntity,
}

// writeError maps a service error to its status and error body
func writeError(c *gin.Context, err error) {
	if errors.Is(err, workflow.ErrInvalidStage) {
		badRequest(c, CodeInvalidStage, err.Error())
		return
	}

	// The transaction was rolled back before commit
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusGatewayTimeout, Response{Success: false, Error: "request timed out", Code: CodeTimeout})
		return
	case errors.Is(err, context.Canceled):
		c.JSON(http.StatusServiceUnavailable, Response{Success: false, Error: "request canceled", Code: CodeCanceled})
		return
	}

	code := apperr.Code(err)
	status, ok := statusByCode[code]
	if !ok {
		c.JSON(http.StatusInternalServerError, Response{
			Success: false,
			Error:   "internal error",
			Code:    apperr.CodeInternal,
		})
		return
	}

	resp := Response{
		Success: false,
		Error:   err.Error(),
		Code:    code,
	}
	var authErr *apperr.AuthorizationError
	if errors.As(err, &authErr) {
		resp.Reason = authErr.Reason
	}
	c.JSON(status, resp)
}

func badRequest(c *gin.Context, code, msg string) {
	c.JSON(http.StatusBadRequest, Response{
		Success: false,
		Error:   msg,
		Code:    code,
	})
}

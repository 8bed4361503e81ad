package webserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stake-plus/agentgpt/src/agents/core"
	"github.com/stake-plus/agentgpt/src/agents/runner"
	"github.com/stake-plus/agentgpt/src/reports"
)

const (
	detailNotFound          = "Agent not found"
	detailUnsupportedFormat = "Unsupported export format"
)

// statusFor maps a domain error onto an HTTP status and client-facing detail.
func statusFor(err error) (int, string) {
	var (
		validation *core.ValidationError
		fault      *runner.RunFaultError
	)
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest, validation.Message
	case errors.Is(err, core.ErrAgentNotFound):
		return http.StatusNotFound, detailNotFound
	case errors.Is(err, reports.ErrUnsupportedFormat):
		return http.StatusBadRequest, detailUnsupportedFormat
	case errors.As(err, &fault):
		return http.StatusInternalServerError, fault.Error()
	default:
		return http.StatusInternalServerError, err.Error()
	}
}

func abortWithError(c *gin.Context, err error) {
	status, detail := statusFor(err)
	c.AbortWithStatusJSON(status, gin.H{"detail": detail})
}

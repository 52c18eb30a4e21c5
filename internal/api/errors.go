package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dstuartbryant/spacewego/internal/astroerr"
	"github.com/dstuartbryant/spacewego/internal/httputil"
	"github.com/dstuartbryant/spacewego/internal/propagation"
	"github.com/dstuartbryant/spacewego/internal/trajectory"
)

// errorResponse maps an error to a status code and JSON body.
//
//	DomainError, missing parameter, sample budget -> 400
//	ModelError, PropagationError                  -> 422
//	deadline                                      -> 504
func errorResponse(err error) (int, gin.H) {
	body := gin.H{"error": err.Error()}
	var (
		be   *trajectory.BudgetError
		perr *propagation.PropagationError
	)
	switch {
	case errors.As(err, &be):
		body["max_samples"] = be.Max
		body["samples_requested"] = be.Requested
		return http.StatusBadRequest, body
	case errors.Is(err, httputil.ErrMissing), errors.Is(err, astroerr.ErrDomain):
		return http.StatusBadRequest, body
	case errors.As(err, &perr):
		body["samples_completed"] = perr.Completed
		body["elapsed"] = perr.Elapsed
		return http.StatusUnprocessableEntity, body
	case errors.Is(err, astroerr.ErrModel):
		return http.StatusUnprocessableEntity, body
	case errors.Is(err, context.DeadlineExceeded):
		body["error"] = "propagation timed out"
		return http.StatusGatewayTimeout, body
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, body
	}
	return http.StatusInternalServerError, body
}

func writeError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(errorResponse(err))
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": msg})
}

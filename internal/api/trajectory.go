package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/dstuartbryant/spacewego/internal/trajectory"
)

// trajectoryRequest is a trajectory.Job plus the response format. Fields
// left out of the body keep their DefaultJob values.
type trajectoryRequest struct {
	trajectory.Job
	Format string `json:"format"`
}

type trajectoryResponse struct {
	RunID      string              `json:"run_id"`
	Epoch      string              `json:"epoch"`
	Frame      string              `json:"frame"`
	EarthModel string              `json:"earth_model"`
	Force      string              `json:"force"`
	Interval   float64             `json:"interval"`
	Samples    []trajectory.Record `json:"samples"`
}

// postTrajectory: POST /api/v1/trajectory
func (s *Server) postTrajectory(c *gin.Context) {
	req := trajectoryRequest{Job: trajectory.DefaultJob()}
	req.EarthModel = s.earthModel
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}
	format := strings.ToLower(strings.TrimSpace(req.Format))
	switch format {
	case "", "json":
		format = "json"
	case "text":
	default:
		badRequest(c, fmt.Sprintf("unknown format %q (want json or text)", req.Format))
		return
	}

	plan, err := req.Plan()
	if err != nil {
		writeError(c, err)
		return
	}
	if err := s.limits.Apply(&plan); err != nil {
		writeError(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.timeout)
	defer cancel()
	if err := s.sem.Acquire(ctx, 1); err != nil {
		writeError(c, fmt.Errorf("waiting for a propagation slot: %w", err))
		return
	}
	defer s.sem.Release(1)

	runID := uuid.NewString()
	res := s.pool.RunOne(ctx, plan.Request(runID))
	if res.Err != nil {
		status, body := errorResponse(res.Err)
		body["run_id"] = runID
		if len(res.Samples) > 0 {
			body["samples"] = trajectory.Records(res.Samples)
		}
		c.AbortWithStatusJSON(status, body)
		return
	}

	c.Header("X-Run-ID", runID)
	if format == "text" {
		h, err := trajectory.NewHeader(runID, plan.Model, plan.Epoch, plan.Initial.Frame, s.eop)
		if err != nil {
			writeError(c, err)
			return
		}
		var buf bytes.Buffer
		if err := trajectory.Write(&buf, h, res.Samples); err != nil {
			writeError(c, err)
			return
		}
		c.Data(http.StatusOK, "text/plain; charset=utf-8", buf.Bytes())
		return
	}

	c.JSON(http.StatusOK, trajectoryResponse{
		RunID:      runID,
		Epoch:      plan.Epoch.String(),
		Frame:      plan.Initial.Frame.String(),
		EarthModel: plan.Model.Name(),
		Force:      plan.Config.Force.String(),
		Interval:   plan.Interval.Seconds(),
		Samples:    trajectory.Records(res.Samples),
	})
}

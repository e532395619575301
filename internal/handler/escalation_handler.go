package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/KasumiMercury/primind-remind-escalation/internal/service/escalation"
)

type EscalationHandler struct {
	escalationService *escalation.Service
	clock             func() time.Time
}

func NewEscalationHandler(escalationService *escalation.Service) *EscalationHandler {
	return &EscalationHandler{
		escalationService: escalationService,
		clock:             time.Now,
	}
}

// HandleRun evaluates every task. The optional "from" query replaces the
// wall clock so past or future runs can be replayed.
func (h *EscalationHandler) HandleRun(c *gin.Context) {
	ctx := c.Request.Context()

	now := h.clock()
	if fromStr := c.Query("from"); fromStr != "" {
		parsed, err := time.Parse(time.RFC3339, fromStr)
		if err != nil {
			respondError(c, http.StatusBadRequest, "validation_error", "invalid from time format, expected RFC3339")
			return
		}
		now = parsed
		slog.InfoContext(ctx, "using virtual time",
			slog.Time("virtual_now", now),
		)
	}

	runID := c.GetHeader("X-Run-ID")
	if runID == "" {
		runID = uuid.NewString()
	}

	result, err := h.escalationService.Run(ctx, now, runID)
	if err != nil {
		if errors.Is(err, escalation.ErrRunInProgress) {
			respondError(c, http.StatusConflict, "run_in_progress", err.Error())
			return
		}

		slog.ErrorContext(ctx, "escalation run failed",
			slog.String("run_id", runID),
			slog.String("error", err.Error()),
		)
		respondError(c, http.StatusInternalServerError, "processing_error", err.Error())
		return
	}

	c.JSON(http.StatusOK, result)
}

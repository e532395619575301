package handler

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/KasumiMercury/primind-remind-escalation/internal/service/escalation"
)

type evaluateRequest struct {
	Now   *string `json:"now"`
	DueAt *string `json:"due_at"`
}

type evaluateResponse struct {
	Now time.Time `json:"now"`
	escalation.Evaluation
}

type PhaseHandler struct {
	escalationService *escalation.Service
	clock             func() time.Time
}

func NewPhaseHandler(escalationService *escalation.Service) *PhaseHandler {
	return &PhaseHandler{
		escalationService: escalationService,
		clock:             time.Now,
	}
}

func (h *PhaseHandler) HandleEvaluate(c *gin.Context) {
	var req evaluateRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(c, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	now := h.clock()
	if req.Now != nil && *req.Now != "" {
		parsed, err := time.Parse(time.RFC3339, *req.Now)
		if err != nil {
			respondError(c, http.StatusBadRequest, "validation_error", "invalid now format, expected RFC3339")
			return
		}
		now = parsed
	}

	var dueAt *time.Time
	if req.DueAt != nil && *req.DueAt != "" {
		parsed, err := time.Parse(time.RFC3339, *req.DueAt)
		if err != nil {
			respondError(c, http.StatusBadRequest, "validation_error", "invalid due_at format, expected RFC3339")
			return
		}
		dueAt = &parsed
	}

	c.JSON(http.StatusOK, evaluateResponse{
		Now:        now,
		Evaluation: h.escalationService.Evaluate(now, dueAt),
	})
}

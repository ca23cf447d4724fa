package handlers

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-core/internal/api/dto"
	"github.com/spec-kit/helpdesk-core/internal/domain"
	"github.com/spec-kit/helpdesk-core/internal/service"
	apperrors "github.com/spec-kit/helpdesk-core/pkg/util"
)

// WorkLogsHandler exposes the per-ticket work ledger.
type WorkLogsHandler struct {
	workLogs *service.WorkLogService
}

// NewWorkLogsHandler constructs handler.
func NewWorkLogsHandler(workLogs *service.WorkLogService) *WorkLogsHandler {
	return &WorkLogsHandler{workLogs: workLogs}
}

// Create POST /tickets/:id/worklogs.
func (h *WorkLogsHandler) Create(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	var req dto.WorkLogRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	workDate := time.Time{}
	if req.WorkDate != nil {
		workDate = *req.WorkDate
	}
	entry, err := h.workLogs.LogWork(c.UserContext(), actor, c.Params("id"), service.WorkLogInput{
		Hours:       req.Hours,
		Description: req.Description,
		WorkDate:    workDate,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": workLogResponse(entry)})
}

// List GET /tickets/:id/worklogs.
func (h *WorkLogsHandler) List(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	entries, err := h.workLogs.ListWork(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.WorkLogResponse, 0, len(entries))
	for i := range entries {
		items = append(items, workLogResponse(&entries[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

func workLogResponse(entry *domain.WorkLogEntry) dto.WorkLogResponse {
	return dto.WorkLogResponse{
		ID:          entry.ID,
		TicketID:    entry.TicketID,
		AgentID:     entry.AgentID,
		Hours:       entry.Hours,
		Description: entry.Description,
		WorkDate:    entry.WorkDate,
		CreatedAt:   entry.CreatedAt,
	}
}

package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-dashboard/internal/api/dto"
	"github.com/spec-kit/ticket-dashboard/internal/service"
	apperrors "github.com/spec-kit/ticket-dashboard/pkg/util/errorutil"
)

// DashboardHandler exposes sessions, events and computed views.
type DashboardHandler struct {
	service *service.DashboardService
}

// NewDashboardHandler constructs handler.
func NewDashboardHandler(dashboardService *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: dashboardService}
}

// Facets GET /v1/facets.
func (h *DashboardHandler) Facets(c *fiber.Ctx) error {
	f := h.service.Facets()
	resp := dto.FacetsResponse{
		APIVersion:  dto.APIVersion,
		Tickets:     f.Tickets,
		LoadedAt:    f.LoadedAt,
		Departments: f.Departments,
		Locations:   f.Locations,
		Statuses:    dto.Strings(f.Statuses),
		AgeBuckets:  dto.Strings(f.AgeBuckets),
		Dimensions:  dto.Strings(f.Dimensions),
	}
	if f.Bounds != nil {
		resp.DateRange = &dto.DateRangeResponse{Start: f.Bounds.Start, End: f.Bounds.End}
	}
	return c.JSON(fiber.Map{"data": resp})
}

// CreateSession POST /v1/sessions.
func (h *DashboardHandler) CreateSession(c *fiber.Ctx) error {
	snap := h.service.CreateSession()
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": snapshotResponse(snap)})
}

// GetSession GET /v1/sessions/:id.
func (h *DashboardHandler) GetSession(c *fiber.Ctx) error {
	snap, err := h.service.GetSession(c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": snapshotResponse(snap)})
}

// DeleteSession DELETE /v1/sessions/:id.
func (h *DashboardHandler) DeleteSession(c *fiber.Ctx) error {
	if err := h.service.DeleteSession(c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetDashboard GET /v1/sessions/:id/dashboard.
func (h *DashboardHandler) GetDashboard(c *fiber.Ctx) error {
	snap, err := h.service.Dashboard(c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": snapshotResponse(snap)})
}

// ApplyEvent POST /v1/sessions/:id/events.
func (h *DashboardHandler) ApplyEvent(c *fiber.Ctx) error {
	var req dto.EventRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ev, err := req.ToEvent()
	if err != nil {
		return err
	}
	snap, err := h.service.ApplyEvent(c.UserContext(), c.Params("id"), ev)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": snapshotResponse(snap)})
}

func snapshotResponse(snap *service.Snapshot) dto.SnapshotResponse {
	return dto.NewSnapshotResponse(snap.SessionID, snap.CreatedAt, snap.State, snap.Phase, snap.Dashboard)
}

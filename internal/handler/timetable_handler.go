package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edukita/timetable-api/internal/dto"
	"github.com/edukita/timetable-api/internal/models"
	"github.com/edukita/timetable-api/internal/service"
	appErrors "github.com/edukita/timetable-api/pkg/errors"
	"github.com/edukita/timetable-api/pkg/response"
)

type timetableGenerator interface {
	Generate(ctx context.Context, sectionID string, req dto.GenerateTimetableRequest) (*dto.GenerateTimetableResponse, error)
	GetTimetable(ctx context.Context, sectionID, sessionID string) ([]models.SlotAssignment, error)
	SetSlotLock(ctx context.Context, slotID string, locked bool) (*models.SlotAssignment, error)
	ListRuns(ctx context.Context, sectionID, sessionID string) ([]models.GenerationRun, error)
}

type timetableExporter interface {
	ExportTimetable(ctx context.Context, sectionID, sessionID, format string) (*service.ExportArtifact, error)
}

// TimetableHandler exposes generation and timetable view endpoints.
type TimetableHandler struct {
	service  timetableGenerator
	exporter timetableExporter
}

// NewTimetableHandler constructs the handler.
func NewTimetableHandler(svc *service.TimetableService, exporter *service.ExportService) *TimetableHandler {
	return &TimetableHandler{service: svc, exporter: exporter}
}

// Generate godoc
// @Summary Generate a section timetable
// @Description Runs the constraint solver for one section and commits the result atomically. Returns 409 when a run is already in progress or the teacher calendar changed mid-run.
// @Tags Timetable
// @Accept json
// @Produce json
// @Param id path string true "Section ID"
// @Param payload body dto.GenerateTimetableRequest true "Generation payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /sections/{id}/timetable/generate [post]
func (h *TimetableHandler) Generate(c *gin.Context) {
	var req dto.GenerateTimetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid generation payload"))
		return
	}
	result, err := h.service.Generate(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// Get godoc
// @Summary Get a section's committed timetable
// @Tags Timetable
// @Produce json
// @Param id path string true "Section ID"
// @Param sessionId query string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /sections/{id}/timetable [get]
func (h *TimetableHandler) Get(c *gin.Context) {
	assignments, err := h.service.GetTimetable(c.Request.Context(), c.Param("id"), c.Query("sessionId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignments)
}

// Lock godoc
// @Summary Toggle the publish lock on a slot assignment
// @Description Locked slots are preserved verbatim by subsequent generation runs.
// @Tags Timetable
// @Accept json
// @Produce json
// @Param slotId path string true "Slot assignment ID"
// @Param payload body dto.LockSlotRequest true "Lock payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /timetable/slots/{slotId}/lock [put]
func (h *TimetableHandler) Lock(c *gin.Context) {
	var req dto.LockSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid lock payload"))
		return
	}
	slot, err := h.service.SetSlotLock(c.Request.Context(), c.Param("slotId"), req.Locked)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slot)
}

// Runs godoc
// @Summary List generation runs for a section
// @Tags Timetable
// @Produce json
// @Param id path string true "Section ID"
// @Param sessionId query string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /sections/{id}/timetable/runs [get]
func (h *TimetableHandler) Runs(c *gin.Context) {
	runs, err := h.service.ListRuns(c.Request.Context(), c.Param("id"), c.Query("sessionId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, runs)
}

// Export godoc
// @Summary Export a section's timetable as CSV or PDF
// @Tags Timetable
// @Produce octet-stream
// @Param id path string true "Section ID"
// @Param sessionId query string true "Session ID"
// @Param format query string true "Export format" Enums(csv, pdf)
// @Success 200 {file} binary
// @Router /sections/{id}/timetable/export [get]
func (h *TimetableHandler) Export(c *gin.Context) {
	artifact, err := h.exporter.ExportTimetable(c.Request.Context(), c.Param("id"), c.Query("sessionId"), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+artifact.Filename+`"`)
	c.Data(http.StatusOK, artifact.ContentType, artifact.Content)
}

package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edukita/timetable-api/internal/models"
	appErrors "github.com/edukita/timetable-api/pkg/errors"
	"github.com/edukita/timetable-api/pkg/response"
)

type templateStore interface {
	FindByID(ctx context.Context, id string) (*models.PeriodTemplate, error)
	List(ctx context.Context) ([]models.PeriodTemplate, error)
}

// TemplateHandler exposes read access to period templates.
type TemplateHandler struct {
	templates templateStore
}

// NewTemplateHandler constructs the handler.
func NewTemplateHandler(templates templateStore) *TemplateHandler {
	return &TemplateHandler{templates: templates}
}

// List godoc
// @Summary List period templates
// @Tags Templates
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /templates [get]
func (h *TemplateHandler) List(c *gin.Context) {
	templates, err := h.templates.List(c.Request.Context())
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list period templates"))
		return
	}
	response.JSON(c, http.StatusOK, templates)
}

// Get godoc
// @Summary Get a period template
// @Tags Templates
// @Produce json
// @Param id path string true "Template ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /templates/{id} [get]
func (h *TemplateHandler) Get(c *gin.Context) {
	tpl, err := h.templates.FindByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "period template not found"))
			return
		}
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load period template"))
		return
	}
	response.JSON(c, http.StatusOK, tpl)
}

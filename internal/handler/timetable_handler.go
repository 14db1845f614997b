package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/danang-adp/timetable-api/internal/dto"
	"github.com/danang-adp/timetable-api/internal/models"
	appErrors "github.com/danang-adp/timetable-api/pkg/errors"
	"github.com/danang-adp/timetable-api/pkg/response"
)

type timetableGenerator interface {
	Generate(ctx context.Context, req dto.GenerateTimetableRequest) *dto.GenerateTimetableResult
}

type timetableValidator interface {
	Validate(ctx context.Context) *dto.ValidationResult
}

type timetableOptimizer interface {
	Suggest(ctx context.Context) []string
}

type timetableReader interface {
	ActiveEntries(ctx context.Context, classID string) ([]models.TimetableEntry, error)
	VersionHistory(ctx context.Context, classID string) ([]models.TimetableVersion, error)
}

// TimetableHandler exposes scheduling endpoints.
type TimetableHandler struct {
	generator timetableGenerator
	validator timetableValidator
	optimizer timetableOptimizer
	reader    timetableReader
}

// NewTimetableHandler constructs the timetable handler.
func NewTimetableHandler(generator timetableGenerator, validator timetableValidator, optimizer timetableOptimizer, reader timetableReader) *TimetableHandler {
	return &TimetableHandler{
		generator: generator,
		validator: validator,
		optimizer: optimizer,
		reader:    reader,
	}
}

// Generate godoc
// @Summary Generate a new timetable
// @Description Runs the randomized solver for one class or every class of a school. Infeasible inputs produce a structured failure payload, not an error status.
// @Tags Timetable
// @Accept json
// @Produce json
// @Param payload body dto.GenerateTimetableRequest true "Generation scope"
// @Success 200 {object} response.Envelope
// @Router /timetable/generate [post]
func (h *TimetableHandler) Generate(c *gin.Context) {
	if h.generator == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	var req dto.GenerateTimetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result := h.generator.Generate(c.Request.Context(), req)
	response.JSON(c, http.StatusOK, result, nil)
}

// Validate godoc
// @Summary Validate the active timetable
// @Description Checks the active schedule for teacher double-bookings, room clashes, and weekly frequency mismatches.
// @Tags Timetable
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /timetable/validate [get]
func (h *TimetableHandler) Validate(c *gin.Context) {
	if h.validator == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	result := h.validator.Validate(c.Request.Context())
	response.JSON(c, http.StatusOK, result, nil)
}

// Suggestions godoc
// @Summary Optimization suggestions
// @Description Analyses the active timetable and returns advisory balance suggestions. No schedule is modified.
// @Tags Timetable
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /timetable/suggestions [get]
func (h *TimetableHandler) Suggestions(c *gin.Context) {
	if h.optimizer == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	suggestions := h.optimizer.Suggest(c.Request.Context())
	response.JSON(c, http.StatusOK, dto.OptimizationResult{Suggestions: suggestions}, nil)
}

// Active godoc
// @Summary Active timetable entries
// @Tags Timetable
// @Produce json
// @Param classId query string false "Restrict to one class"
// @Success 200 {object} response.Envelope
// @Router /timetable/active [get]
func (h *TimetableHandler) Active(c *gin.Context) {
	if h.reader == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	entries, err := h.reader.ActiveEntries(c.Request.Context(), c.Query("classId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

// Versions godoc
// @Summary Version history for a class
// @Tags Timetable
// @Produce json
// @Param classId query string true "Class ID"
// @Success 200 {object} response.Envelope
// @Router /timetable/versions [get]
func (h *TimetableHandler) Versions(c *gin.Context) {
	if h.reader == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	classID := c.Query("classId")
	if classID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "classId is required"))
		return
	}
	versions, err := h.reader.VersionHistory(c.Request.Context(), classID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, versions, nil)
}

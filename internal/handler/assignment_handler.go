package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-intake-api/internal/dto"
	"github.com/noah-isme/timetable-intake-api/internal/service"
	appErrors "github.com/noah-isme/timetable-intake-api/pkg/errors"
	"github.com/noah-isme/timetable-intake-api/pkg/response"
)

type assignmentApplier interface {
	Board(ctx context.Context) (*dto.AssignmentBoard, error)
	Apply(ctx context.Context, req dto.ApplyAssignmentsRequest) error
}

type boardExporter interface {
	Render(ctx context.Context, format string) (*service.ExportResult, error)
}

// AssignmentHandler exposes the teacher-subject assignment board.
type AssignmentHandler struct {
	assignments assignmentApplier
	exports     boardExporter
	logger      *zap.Logger
}

// NewAssignmentHandler constructs handler.
func NewAssignmentHandler(assignments assignmentApplier, exports boardExporter, logger *zap.Logger) *AssignmentHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssignmentHandler{assignments: assignments, exports: exports, logger: logger}
}

// Board returns all teachers and all subjects with their current assignees.
func (h *AssignmentHandler) Board(c *gin.Context) {
	board, err := h.assignments.Board(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, board, nil)
}

// Apply replaces assignee sets for the posted subjects. The payload is either
// a JSON object keyed by subject id or a form multimap of the same shape.
func (h *AssignmentHandler) Apply(c *gin.Context) {
	req, err := h.bindAssignments(c)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid assignment payload"))
		return
	}

	if err := h.assignments.Apply(c.Request.Context(), req); err != nil {
		response.Error(c, err)
		return
	}
	response.Redirect(c, "/assign-teachers")
}

// Export streams the board as a downloadable CSV or PDF document.
func (h *AssignmentHandler) Export(c *gin.Context) {
	result, err := h.exports.Render(c.Request.Context(), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+result.Filename+`"`)
	c.Data(http.StatusOK, result.ContentType, result.Content)
}

func (h *AssignmentHandler) bindAssignments(c *gin.Context) (dto.ApplyAssignmentsRequest, error) {
	contentType := c.ContentType()
	if strings.Contains(contentType, "json") {
		var req dto.ApplyAssignmentsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			return nil, err
		}
		return req, nil
	}

	// Form posts arrive as one repeated field per assigned teacher, keyed by
	// subject id. A subject posted with no values clears its assignees.
	if err := c.Request.ParseForm(); err != nil {
		return nil, err
	}
	req := make(dto.ApplyAssignmentsRequest, len(c.Request.PostForm))
	for subjectID, teacherIDs := range c.Request.PostForm {
		req[subjectID] = dto.FlexibleIDList(teacherIDs)
	}
	return req, nil
}

package handler

import (
	"context"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-intake-api/internal/dto"
	"github.com/noah-isme/timetable-intake-api/internal/service"
	appErrors "github.com/noah-isme/timetable-intake-api/pkg/errors"
	"github.com/noah-isme/timetable-intake-api/pkg/response"
)

type ingestRunner interface {
	Run(ctx context.Context, uploads service.UploadSet) (*dto.IngestSummary, error)
	Counts(ctx context.Context) (map[string]int, error)
}

type uploadSaver interface {
	Save(field string, header *multipart.FileHeader) (string, error)
	RemoveAll(paths []string) error
}

// UploadHandler serves the intake overview and the spreadsheet upload endpoint.
type UploadHandler struct {
	ingest  ingestRunner
	spool   uploadSaver
	metrics *service.MetricsService
	logger  *zap.Logger
}

// NewUploadHandler constructs handler.
func NewUploadHandler(ingest ingestRunner, spool uploadSaver, metrics *service.MetricsService, logger *zap.Logger) *UploadHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UploadHandler{ingest: ingest, spool: spool, metrics: metrics, logger: logger}
}

var uploadFields = []dto.UploadField{
	{Name: "teachersFile", Required: true},
	{Name: "subjectsFile", Required: true},
	{Name: "roomsFile", Required: true},
	{Name: "fixedSlotsFile", Required: false},
}

// Overview returns the upload form contract and current collection counts.
// A count failure still renders the form fields so the client can retry.
func (h *UploadHandler) Overview(c *gin.Context) {
	overview := dto.IntakeOverview{UploadFields: uploadFields}

	counts, err := h.ingest.Counts(c.Request.Context())
	if err != nil {
		h.logger.Warn("failed to count collections", zap.Error(err))
		overview.Error = "collection counts unavailable"
	} else {
		overview.Counts = counts
	}

	response.JSON(c, http.StatusOK, overview, nil)
}

// Upload ingests the posted workbooks and redirects to the assignment board.
func (h *UploadHandler) Upload(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid multipart form"))
		return
	}

	headers := make(map[string]*multipart.FileHeader, len(uploadFields))
	for _, field := range uploadFields {
		files := form.File[field.Name]
		if len(files) == 0 {
			if field.Required {
				response.Error(c, appErrors.Clone(appErrors.ErrValidation, "missing required file "+field.Name))
				return
			}
			continue
		}
		headers[field.Name] = files[0]
	}

	var uploads service.UploadSet
	saved := make([]string, 0, len(headers))
	for field, header := range headers {
		path, err := h.spool.Save(field, header)
		if err != nil {
			h.cleanup(saved)
			response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store uploaded file"))
			return
		}
		saved = append(saved, path)
		switch field {
		case "teachersFile":
			uploads.Teachers = path
		case "subjectsFile":
			uploads.Subjects = path
		case "roomsFile":
			uploads.Rooms = path
		case "fixedSlotsFile":
			uploads.FixedSlots = path
		}
	}

	summary, err := h.ingest.Run(c.Request.Context(), uploads)
	if err != nil {
		if h.metrics != nil {
			h.metrics.ObserveIngestCycle(false, nil)
		}
		response.Error(c, err)
		return
	}

	if h.metrics != nil {
		h.metrics.ObserveIngestCycle(true, map[string]int{
			"teachers":  summary.Teachers,
			"subjects":  summary.Subjects,
			"rooms":     summary.Rooms,
			"divisions": summary.Divisions,
		})
	}
	response.Redirect(c, "/assign-teachers")
}

func (h *UploadHandler) cleanup(paths []string) {
	if len(paths) == 0 {
		return
	}
	if err := h.spool.RemoveAll(paths); err != nil {
		h.logger.Warn("failed to remove spooled uploads", zap.Error(err))
	}
}

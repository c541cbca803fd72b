package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/examdesk/core/internal/domain/entities"
	"github.com/examdesk/core/internal/infrastructure/logger"
	"github.com/examdesk/core/internal/ports"
)

// QuestionsHandler binds the GUI command surface to HTTP
type QuestionsHandler struct {
	questionsService ports.QuestionsService
	logger           *logger.Logger
}

// NewQuestionsHandler creates a new questions handler
func NewQuestionsHandler(questionsService ports.QuestionsService, logger *logger.Logger) *QuestionsHandler {
	return &QuestionsHandler{
		questionsService: questionsService,
		logger:           logger,
	}
}

// Greet handles the greet command
func (h *QuestionsHandler) Greet(c echo.Context) error {
	var req GreetRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	return c.JSON(http.StatusOK, MessageResponse{
		Message: h.questionsService.Greet(req.Name),
	})
}

// SaveQuestions handles persisting a new document
func (h *QuestionsHandler) SaveQuestions(c echo.Context) error {
	var req SaveQuestionsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	confirmation, err := h.questionsService.SaveQuestions(c.Request().Context(), req.QuestionsJSON)
	if err != nil {
		h.logger.Error("Save questions failed", "error", err)
		return storeErrorToHTTP(err)
	}

	return c.JSON(http.StatusOK, MessageResponse{Message: confirmation})
}

// ReadQuestions returns the raw document contents. The body is whatever
// is on disk, formatting included, so a corrupted file reaches the GUI
// unmodified.
func (h *QuestionsHandler) ReadQuestions(c echo.Context) error {
	contents, err := h.questionsService.ReadQuestions(c.Request().Context())
	if err != nil {
		h.logger.Error("Read questions failed", "error", err)
		return storeErrorToHTTP(err)
	}

	return c.Blob(http.StatusOK, echo.MIMEApplicationJSONCharsetUTF8, []byte(contents))
}

// AnalysisHandler exposes database inspection and merge maintenance
type AnalysisHandler struct {
	analysisService ports.AnalysisService
	mergeService    ports.MergeService
	logger          *logger.Logger
}

// NewAnalysisHandler creates a new analysis handler
func NewAnalysisHandler(analysisService ports.AnalysisService, mergeService ports.MergeService, logger *logger.Logger) *AnalysisHandler {
	return &AnalysisHandler{
		analysisService: analysisService,
		mergeService:    mergeService,
		logger:          logger,
	}
}

// Analyze handles questions database analysis
func (h *AnalysisHandler) Analyze(c echo.Context) error {
	report, err := h.analysisService.Analyze(c.Request().Context())
	if err != nil {
		h.logger.Error("Analysis failed", "error", err)
		return storeErrorToHTTP(err)
	}

	return c.JSON(http.StatusOK, report)
}

// Merge handles merging an extraction batch into the live document
func (h *AnalysisHandler) Merge(c echo.Context) error {
	var req ports.MergeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	report, err := h.mergeService.Merge(c.Request().Context(), req)
	if err != nil {
		h.logger.Error("Merge failed", "error", err)
		return storeErrorToHTTP(err)
	}

	return c.JSON(http.StatusOK, report)
}

// storeErrorToHTTP maps the storage error taxonomy onto status codes. A
// parse failure is the caller's fault; everything else is the backend's.
func storeErrorToHTTP(err error) error {
	switch entities.KindOf(err) {
	case entities.ErrorKindJSONParse:
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case entities.ErrorKindFileRead:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	case entities.ErrorKindFileWrite, entities.ErrorKindDirectoryCreate, entities.ErrorKindPathResolution:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

// Request/Response types
type GreetRequest struct {
	Name string `json:"name" validate:"required"`
}

type SaveQuestionsRequest struct {
	QuestionsJSON string `json:"questions_json" validate:"required"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/quizimport/internal/api/shared"
	"github.com/phrazzld/quizimport/internal/service"
)

// ImportAcceptedMessage is the message returned when an import is queued.
const ImportAcceptedMessage = "question import started"

// ImportHandler handles question import HTTP requests.
type ImportHandler struct {
	importService service.ImportService
	logger        *slog.Logger
}

// NewImportHandler creates a new ImportHandler.
func NewImportHandler(importService service.ImportService, logger *slog.Logger) *ImportHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ImportHandler{
		importService: importService,
		logger:        logger.With("component", "import_handler"),
	}
}

// Routes registers the import endpoints on r.
func (h *ImportHandler) Routes(r chi.Router) {
	r.Post("/questions/import", h.SubmitImport)
	r.Get("/questions/import/{token}", h.GetImportStatus)
}

// SubmitImport handles POST /api/questions/import requests. The import runs
// in the background; the response carries the token used to poll its status.
func (h *ImportHandler) SubmitImport(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(r, h.logger)

	var req ImportRequest
	if err := shared.DecodeJSON(w, r, &req); err != nil {
		msg := "Invalid request format"
		if errors.Is(err, shared.ErrEmptyBody) {
			msg = "Request body is required"
		}
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, msg, err)
		return
	}

	if err := shared.ValidateRequest(&req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	result, err := h.importService.Submit(r.Context(), service.SubmitRequest{
		Content: req.Content,
		Mode:    req.Mode,
		BankID:  req.BankID,
	})
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	log.Info("import accepted", "job_token", result.JobToken, "mode", result.Mode)
	shared.RespondWithJSON(w, r, http.StatusAccepted, ImportAcceptedResponse{
		Message:  ImportAcceptedMessage,
		JobToken: result.JobToken,
		Mode:     string(result.Mode),
	})
}

// GetImportStatus handles GET /api/questions/import/{token} requests.
func (h *ImportHandler) GetImportStatus(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	status, err := h.importService.Status(r.Context(), token)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, status)
}

// Health handles GET /health.
func Health(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, HealthResponse{Status: "ok"})
}

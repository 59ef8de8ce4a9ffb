// Package api is the Dispatch API's HTTP surface (spec.md section 6):
// submission create/list/get/delete and the language catalog, plus
// health endpoints. Grounded on the teacher's handler.go request
// decode/validate/respond shape, adapted from one execute-and-wait
// endpoint to the judge's full submission CRUD surface.
package api

import (
	"encoding/json"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/coderunr/judge/internal/apierr"
	"github.com/coderunr/judge/internal/language"
	"github.com/coderunr/judge/internal/submission"
	"github.com/coderunr/judge/internal/types"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Handler holds the dependencies the HTTP layer needs.
type Handler struct {
	submissions *submission.Service
	languages   *language.Repository
	logger      *logrus.Entry
}

// NewHandler wires a Handler, mirroring the teacher's NewHandler.
func NewHandler(submissions *submission.Service, languages *language.Repository, logger *logrus.Logger) *Handler {
	return &Handler{submissions: submissions, languages: languages, logger: logger.WithField("component", "api")}
}

type submissionRequest struct {
	SourceCode                         string                 `json:"source_code"`
	LanguageID                         int64                  `json:"language_id"`
	Stdin                              *string                `json:"stdin"`
	AdditionalFiles                    []types.AdditionalFile `json:"additional_files"`
	ExpectedOutput                     *string                `json:"expected_output"`
	CPUTimeLimit                       *float64               `json:"cpu_time_limit"`
	CPUExtraTime                       *float64               `json:"cpu_extra_time"`
	WallTimeLimit                      *float64               `json:"wall_time_limit"`
	MemoryLimit                        *int64                 `json:"memory_limit"`
	MaxProcessesAndOrThreads           *int                   `json:"max_processes_and_or_threads"`
	MaxFileSize                        *int64                 `json:"max_file_size"`
	NumberOfRuns                       *int                   `json:"number_of_runs"`
	EnablePerProcessAndThreadTimeLimit *bool                  `json:"enable_per_process_and_thread_time_limit"`
	EnablePerProcessAndThreadMemory    *bool                  `json:"enable_per_process_and_thread_memory_limit"`
	RedirectStderrToStdout             *bool                  `json:"redirect_stderr_to_stdout"`
	EnableNetwork                      *bool                  `json:"enable_network"`
}

func (req submissionRequest) toInput() (submission.CreateInput, error) {
	if strings.TrimSpace(req.SourceCode) == "" {
		return submission.CreateInput{}, apierr.NewValidationError("source_code must not be empty")
	}
	for _, f := range req.AdditionalFiles {
		if strings.TrimSpace(f.Name) == "" || strings.Contains(f.Name, "..") ||
			strings.ContainsRune(f.Name, os.PathSeparator) || strings.Contains(f.Name, "/") {
			return submission.CreateInput{}, apierr.NewValidationError("invalid additional file name: %s", f.Name)
		}
	}
	if req.NumberOfRuns != nil && *req.NumberOfRuns <= 0 {
		return submission.CreateInput{}, apierr.NewValidationError("number_of_runs must be > 0")
	}
	if req.CPUTimeLimit != nil && *req.CPUTimeLimit <= 0 {
		return submission.CreateInput{}, apierr.NewValidationError("cpu_time_limit must be > 0")
	}
	if req.CPUExtraTime != nil && *req.CPUExtraTime <= 0 {
		return submission.CreateInput{}, apierr.NewValidationError("cpu_extra_time must be > 0")
	}
	if req.WallTimeLimit != nil && *req.WallTimeLimit <= 0 {
		return submission.CreateInput{}, apierr.NewValidationError("wall_time_limit must be > 0")
	}
	if req.MemoryLimit != nil && *req.MemoryLimit <= 0 {
		return submission.CreateInput{}, apierr.NewValidationError("memory_limit must be > 0")
	}
	if req.MaxProcessesAndOrThreads != nil && *req.MaxProcessesAndOrThreads <= 0 {
		return submission.CreateInput{}, apierr.NewValidationError("max_processes_and_or_threads must be > 0")
	}
	if req.MaxFileSize != nil && *req.MaxFileSize <= 0 {
		return submission.CreateInput{}, apierr.NewValidationError("max_file_size must be > 0")
	}

	return submission.CreateInput{
		SourceCode:      req.SourceCode,
		LanguageID:      req.LanguageID,
		Stdin:           req.Stdin,
		AdditionalFiles: req.AdditionalFiles,
		ExpectedOutput:  req.ExpectedOutput,
		Limits: types.Limits{
			CPUTimeLimit:                       req.CPUTimeLimit,
			CPUExtraTime:                       req.CPUExtraTime,
			WallTimeLimit:                      req.WallTimeLimit,
			MemoryLimit:                        req.MemoryLimit,
			MaxProcessesAndOrThreads:           req.MaxProcessesAndOrThreads,
			MaxFileSize:                        req.MaxFileSize,
			NumberOfRuns:                       req.NumberOfRuns,
			EnablePerProcessAndThreadTimeLimit: req.EnablePerProcessAndThreadTimeLimit,
			EnablePerProcessAndThreadMemory:    req.EnablePerProcessAndThreadMemory,
			RedirectStderrToStdout:             req.RedirectStderrToStdout,
			EnableNetwork:                      req.EnableNetwork,
		},
	}, nil
}

// CreateSubmission handles POST /submissions/.
func (h *Handler) CreateSubmission(w http.ResponseWriter, r *http.Request) {
	var body submissionRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.sendError(w, apierr.NewValidationError("invalid JSON request"))
		return
	}

	input, err := body.toInput()
	if err != nil {
		h.sendError(w, err)
		return
	}

	base64Encoded := queryBool(r, "base64_encoded")
	wait := queryBool(r, "wait")

	sub, err := h.submissions.Create(r.Context(), input, base64Encoded, wait)
	if err != nil {
		h.sendError(w, err)
		return
	}

	if !wait {
		h.sendJSON(w, map[string]interface{}{"id": sub.ID}, http.StatusOK)
		return
	}
	h.sendJSON(w, sub, http.StatusOK)
}

// CreateBatch handles POST /submissions/batch.
func (h *Handler) CreateBatch(w http.ResponseWriter, r *http.Request) {
	var bodies []submissionRequest
	if err := json.NewDecoder(r.Body).Decode(&bodies); err != nil {
		h.sendError(w, apierr.NewValidationError("invalid JSON request"))
		return
	}

	inputs := make([]submission.CreateInput, 0, len(bodies))
	for _, body := range bodies {
		input, err := body.toInput()
		if err != nil {
			h.sendError(w, err)
			return
		}
		inputs = append(inputs, input)
	}

	base64Encoded := queryBool(r, "base64_encoded")
	subs, err := h.submissions.CreateBatch(r.Context(), inputs, base64Encoded)
	if err != nil {
		h.sendError(w, err)
		return
	}

	ids := make([]map[string]interface{}, len(subs))
	for i, sub := range subs {
		ids[i] = map[string]interface{}{"id": sub.ID}
	}
	h.sendJSON(w, ids, http.StatusCreated)
}

// ListSubmissions handles GET /submissions/.
func (h *Handler) ListSubmissions(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	pageSize := queryInt(r, "page_size", 20)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > 100 {
		pageSize = 100
	}

	result, err := h.submissions.List(r.Context(), page, pageSize, queryBool(r, "base64_encoded"), r.URL.Query().Get("fields"))
	if err != nil {
		h.sendError(w, err)
		return
	}
	h.sendJSON(w, result, http.StatusOK)
}

// GetBatch handles GET /submissions/batch?ids=uuid,uuid.
func (h *Handler) GetBatch(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("ids")
	if strings.TrimSpace(raw) == "" {
		h.sendError(w, apierr.NewValidationError("ids query parameter is required"))
		return
	}

	var ids []uuid.UUID
	for _, part := range strings.Split(raw, ",") {
		id, err := uuid.Parse(strings.TrimSpace(part))
		if err != nil {
			h.sendError(w, apierr.NewValidationError("invalid submission id: %s", part))
			return
		}
		ids = append(ids, id)
	}

	results, err := h.submissions.GetBatch(r.Context(), ids, queryBool(r, "base64_encoded"), r.URL.Query().Get("fields"))
	if err != nil {
		h.sendError(w, err)
		return
	}
	h.sendJSON(w, results, http.StatusOK)
}

// GetSubmission handles GET /submissions/{id}.
func (h *Handler) GetSubmission(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.sendError(w, apierr.NewValidationError("invalid submission id"))
		return
	}

	result, err := h.submissions.Get(r.Context(), id, queryBool(r, "base64_encoded"), r.URL.Query().Get("fields"))
	if err != nil {
		h.sendError(w, err)
		return
	}
	h.sendJSON(w, result, http.StatusOK)
}

// DeleteSubmission handles DELETE /submissions/{id}.
func (h *Handler) DeleteSubmission(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.sendError(w, apierr.NewValidationError("invalid submission id"))
		return
	}

	if err := h.submissions.Delete(r.Context(), id); err != nil {
		h.sendError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListLanguages handles GET /languages/.
func (h *Handler) ListLanguages(w http.ResponseWriter, r *http.Request) {
	languages, err := h.languages.List(r.Context())
	if err != nil {
		h.sendError(w, err)
		return
	}

	out := make([]map[string]interface{}, len(languages))
	for i, l := range languages {
		out[i] = map[string]interface{}{"id": l.ID, "name": l.Name, "version": l.Version}
	}
	h.sendJSON(w, out, http.StatusOK)
}

// GetLanguage handles GET /languages/{id}.
func (h *Handler) GetLanguage(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.sendError(w, apierr.NewValidationError("invalid language id"))
		return
	}

	lang, err := h.languages.GetByID(r.Context(), id)
	if err != nil {
		h.sendError(w, err)
		return
	}
	h.sendJSON(w, lang, http.StatusOK)
}

func (h *Handler) sendError(w http.ResponseWriter, err error) {
	status := apierr.StatusCode(err)
	h.sendJSON(w, map[string]interface{}{"message": err.Error(), "code": status}, status)
}

func (h *Handler) sendJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.WithError(err).Error("failed to encode response")
	}
}

func queryBool(r *http.Request, key string) bool {
	v := strings.ToLower(r.URL.Query().Get(key))
	return v == "true" || v == "1" || v == "yes"
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}

package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"enquete-backend/internal/dto"
	"enquete-backend/internal/service"
	"enquete-backend/pkg/middleware"
	"enquete-backend/utilities"
)

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// SurveyHandler serves the standalone survey API.
type SurveyHandler struct {
	surveys     service.SurveyService
	submissions service.SubmissionService
}

func NewSurveyHandler(surveys service.SurveyService, submissions service.SubmissionService) *SurveyHandler {
	return &SurveyHandler{surveys: surveys, submissions: submissions}
}

// Home handles GET /
func (h *SurveyHandler) Home(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Enquete API. See /enquetes for the open surveys."})
}

// ListSurveys handles GET /enquetes
func (h *SurveyHandler) ListSurveys(w http.ResponseWriter, r *http.Request) {
	surveys, err := h.surveys.ListOpen(r.Context())
	if err != nil {
		utilities.Error("list open surveys: %v", err)
		writeError(w, http.StatusInternalServerError, dto.GenericError)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewSurveyViews(surveys))
}

// Respond handles POST /enquetes/{id}/responder
func (h *SurveyHandler) Respond(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 32)
	if err != nil || id == 0 {
		writeJSON(w, http.StatusNotFound, dto.SubmissionResponse{Detail: "survey not found"})
		return
	}

	var payload dto.SubmissionPayload
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.SubmissionResponse{Detail: "invalid JSON body"})
		return
	}

	req, err := payload.ToRequest(uint(id), utilities.AccountFromContext(r.Context()))
	if err == nil {
		var receipt *service.SubmissionReceipt
		receipt, err = h.submissions.Submit(r.Context(), req)
		if err == nil {
			writeJSON(w, http.StatusCreated, dto.SubmissionCreated(receipt))
			return
		}
	}

	status, body, unexpected := dto.SubmissionFailure(err)
	if unexpected {
		utilities.Error("unexpected submission failure: %v", err)
	}
	writeJSON(w, status, body)
}

// Options configures NewRouter.
type Options struct {
	Tokens      *utilities.TokenIssuer
	Limiter     *middleware.IPRateLimiter
	RequestDump bool
}

func NewRouter(h *SurveyHandler, opts Options) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.HTTPRequestID)
	if opts.RequestDump {
		r.Use(middleware.HTTPRequestDump)
	}
	r.Use(utilities.HTTPAuthMiddleware(opts.Tokens, ""))

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)
	r.HandleFunc("/", h.Home).Methods(http.MethodGet)
	r.HandleFunc("/enquetes", h.ListSurveys).Methods(http.MethodGet)
	r.Handle("/enquetes/{id}/responder", middleware.HTTPRateLimit(opts.Limiter, http.HandlerFunc(h.Respond))).Methods(http.MethodPost)
	return r
}

// Package httpapi exposes the wizard engine over a JSON REST API.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sangamhq/vivah/internal/logging"
	"github.com/sangamhq/vivah/internal/metrics"
	"github.com/sangamhq/vivah/pkg/domain"
	"github.com/sangamhq/vivah/pkg/refdata"
	"github.com/sangamhq/vivah/pkg/schema"
	"github.com/sangamhq/vivah/pkg/session"
	"github.com/sangamhq/vivah/pkg/wizard"
)

// Server serves the wizard API over one session manager.
type Server struct {
	Sessions *session.Manager
	Logger   *slog.Logger
	Metrics  *metrics.Metrics // optional
}

// NewHandler creates the HTTP handler for the wizard API. The metrics
// argument may be nil.
func NewHandler(sessions *session.Manager, logger *slog.Logger, m *metrics.Metrics) http.Handler {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{Sessions: sessions, Logger: logger, Metrics: m}

	r := chi.NewRouter()
	r.Get("/healthz", s.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Route("/refdata", func(r chi.Router) {
			r.Get("/states", s.States)
			r.Get("/states/{state}/districts", s.Districts)
			r.Get("/states/{state}/districts/{district}/cities", s.Cities)
			r.Get("/enums", s.Enums)
		})
		r.Route("/wizards/{id}", func(r chi.Router) {
			r.Get("/", s.GetWizard)
			r.Post("/submit", s.Submit)
			r.Post("/back", s.Back)
			r.Post("/reset", s.Reset)
		})
	})

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Health handles GET /healthz.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// --- Reference data ---

// States handles GET /v1/refdata/states.
func (s *Server) States(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"states": refdata.States()})
}

// Districts handles GET /v1/refdata/states/{state}/districts.
func (s *Server) Districts(w http.ResponseWriter, r *http.Request) {
	state := chi.URLParam(r, "state")
	if !refdata.IsState(state) {
		http.Error(w, "unknown state", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"districts": refdata.DistrictsOf(state)})
}

// Cities handles GET /v1/refdata/states/{state}/districts/{district}/cities.
func (s *Server) Cities(w http.ResponseWriter, r *http.Request) {
	state := chi.URLParam(r, "state")
	district := chi.URLParam(r, "district")
	if !refdata.IsDistrictOf(state, district) {
		http.Error(w, "unknown district", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"cities": refdata.CitiesOf(state, district)})
}

// Enums handles GET /v1/refdata/enums.
func (s *Server) Enums(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"genders":          refdata.Genders(),
		"religions":        refdata.Religions(),
		"castes":           refdata.Castes(),
		"mother_tongues":   refdata.MotherTongues(),
		"marital_statuses": refdata.MaritalStatuses(),
		"educations":       refdata.Educations(),
		"income_bands":     refdata.IncomeBands(),
	})
}

// --- Wizard ---

// WizardResponse is the rendered view of one wizard.
type WizardResponse struct {
	WizardID   string         `json:"wizard_id"`
	StepIndex  int            `json:"step_index"`
	TotalSteps int            `json:"total_steps"`
	Complete   bool           `json:"complete"`
	StepName   string         `json:"step_name,omitempty"`
	StepTitle  string         `json:"step_title,omitempty"`
	StepFields []string       `json:"step_fields,omitempty"`
	Fields     map[string]any `json:"fields"`
}

// SubmitRequest is the body of POST /v1/wizards/{id}/submit.
type SubmitRequest struct {
	StepIndex int            `json:"step_index"`
	Values    map[string]any `json:"values"`
}

// ErrorResponse carries step-level or field-level failure details.
type ErrorResponse struct {
	Error  string              `json:"error"`
	Fields []*schema.FieldError `json:"fields,omitempty"`
}

func (s *Server) render(r *http.Request, wizardID string) *WizardResponse {
	ctx := r.Context()
	state := s.Sessions.State(ctx, wizardID)
	total := s.Sessions.Registry().TotalSteps()

	resp := &WizardResponse{
		WizardID:   wizardID,
		StepIndex:  state.StepIndex,
		TotalSteps: total,
		Complete:   state.CompletedAll(total),
		Fields:     state.Fields,
	}
	if step := s.Sessions.CurrentStep(ctx, wizardID); step != nil {
		resp.StepName = step.Name
		resp.StepTitle = step.Title
		resp.StepFields = step.Schema(state.Fields).Names()
	}
	return resp
}

// GetWizard handles GET /v1/wizards/{id}.
func (s *Server) GetWizard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.render(r, chi.URLParam(r, "id")))
}

// Submit handles POST /v1/wizards/{id}/submit.
func (s *Server) Submit(w http.ResponseWriter, r *http.Request) {
	wizardID := chi.URLParam(r, "id")

	var body SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		s.Logger.Warn("submit: invalid request body", "err", err)
		return
	}

	stepName := ""
	if step := s.Sessions.CurrentStep(r.Context(), wizardID); step != nil {
		stepName = step.Name
	}

	err := s.Sessions.Submit(r.Context(), wizardID, body.StepIndex, body.Values)
	s.countSubmit(stepName, err)
	// Even a failed submission may have persisted a snapshot for re-display.
	s.sampleActive(r.Context())
	if err != nil {
		s.writeSubmitError(w, wizardID, err)
		return
	}
	writeJSON(w, http.StatusOK, s.render(r, wizardID))
}

// sampleActive refreshes the active-wizard gauge from the store index.
// Called after every operation that creates or removes a snapshot.
func (s *Server) sampleActive(ctx context.Context) {
	if s.Metrics == nil {
		return
	}
	ids, err := s.Sessions.List(ctx)
	if err != nil {
		s.Logger.Warn("failed to list wizards for gauge", "err", err)
		return
	}
	s.Metrics.ActiveWizards.Set(float64(len(ids)))
}

// countSubmit records the submission outcome and any per-field failures.
func (s *Server) countSubmit(stepName string, err error) {
	if s.Metrics == nil {
		return
	}
	status := "ok"
	switch {
	case err == nil:
	case schema.FieldErrors(err) != nil:
		status = "validation_error"
		for _, fe := range schema.FieldErrors(err) {
			s.Metrics.ValidationFailures.WithLabelValues(stepName, fe.Field).Inc()
		}
	case domain.IsConflict(err):
		status = "conflict"
	default:
		status = "error"
	}
	s.Metrics.Submissions.WithLabelValues(stepName, status).Inc()
}

// writeSubmitError maps the error taxonomy onto HTTP statuses:
// validation -> 422, conflict -> 409, other side effects -> 502,
// concurrency guards -> 409, bad step index -> 400.
func (s *Server) writeSubmitError(w http.ResponseWriter, wizardID string, err error) {
	if fieldErrs := schema.FieldErrors(err); fieldErrs != nil {
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Error:  "validation failed",
			Fields: fieldErrs,
		})
		return
	}

	var effErr *domain.SideEffectError
	switch {
	case domain.IsConflict(err):
		writeJSON(w, http.StatusConflict, ErrorResponse{
			Error: "already registered — log in instead",
		})
	case errors.As(err, &effErr):
		s.Logger.Error("side effect failed", "wizard_id", wizardID, "op", effErr.Op, "err", err)
		writeJSON(w, http.StatusBadGateway, ErrorResponse{
			Error: "could not reach the registration service, please retry",
		})
	case errors.Is(err, domain.ErrSubmitInFlight), errors.Is(err, wizard.ErrWizardReset):
		writeJSON(w, http.StatusConflict, ErrorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrStepOutOfRange):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	default:
		s.Logger.Error("submit failed", "wizard_id", wizardID, "err", err)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}
}

// Back handles POST /v1/wizards/{id}/back.
func (s *Server) Back(w http.ResponseWriter, r *http.Request) {
	wizardID := chi.URLParam(r, "id")
	if err := s.Sessions.Back(r.Context(), wizardID); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, s.render(r, wizardID))
}

// Reset handles POST /v1/wizards/{id}/reset.
func (s *Server) Reset(w http.ResponseWriter, r *http.Request) {
	wizardID := chi.URLParam(r, "id")
	if err := s.Sessions.Reset(r.Context(), wizardID); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.sampleActive(r.Context())
	writeJSON(w, http.StatusOK, s.render(r, wizardID))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response encode failed", "err", err)
	}
}

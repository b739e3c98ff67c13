package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/stepflow"
	"github.com/aretw0/stepflow/internal/logging"
	"github.com/aretw0/stepflow/pkg/adapters/memory"
	"github.com/aretw0/stepflow/pkg/domain"
	"github.com/aretw0/stepflow/pkg/ports"
	"github.com/aretw0/stepflow/pkg/session"
	"github.com/go-chi/chi/v5"
)

// maxBodyBytes bounds request bodies. Task results of long studies stay well below it.
const maxBodyBytes = 1 << 20

// Navigator is what the server needs from a loaded task.
type Navigator interface {
	ports.StepNavigator
	Task() *domain.Task
	Watch(ctx context.Context) (<-chan struct{}, error)
}

var _ Navigator = (*stepflow.Flow)(nil)

// Server exposes a navigator and its runs over HTTP. Navigation endpoints are
// stateless: the client sends the TaskResult with every request. The /runs
// endpoints keep the TaskResult server-side through a session manager.
type Server struct {
	Nav      Navigator
	Sessions *session.Manager
	Streams  *StreamManager

	metrics http.Handler
	logger  *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithSessions sets the session manager backing /runs. Defaults to an in-memory store.
func WithSessions(m *session.Manager) Option {
	return func(s *Server) { s.Sessions = m }
}

// WithMetrics mounts h at /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// NewServer creates a Server for nav.
func NewServer(nav Navigator, opts ...Option) *Server {
	s := &Server{
		Nav:     nav,
		Streams: NewStreamManager(),
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.Sessions == nil {
		s.Sessions = session.NewManager(memory.NewStore(), session.WithLogger(s.logger))
	}
	s.Streams.logger = s.logger
	return s
}

// NewHandler creates a new HTTP handler for nav.
func NewHandler(nav Navigator, opts ...Option) http.Handler {
	return NewServer(nav, opts...).Routes()
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/events", s.SubscribeEvents)

	r.Route("/steps", func(r chi.Router) {
		r.Get("/", s.ListSteps)
		r.Get("/{id}", s.GetStep)
	})

	r.Route("/navigation", func(r chi.Router) {
		r.Post("/next", s.Next)
		r.Post("/previous", s.Previous)
		r.Post("/progress", s.Progress)
	})

	r.Route("/runs", func(r chi.Router) {
		r.Get("/", s.ListRuns)
		r.Get("/{id}", s.GetRun)
		r.Put("/{id}", s.PutRun)
		r.Delete("/{id}", s.DeleteRun)
		r.Post("/{id}/results", s.PostResult)
	})

	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}
	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// NavigationRequest is the body of the /navigation endpoints.
type NavigationRequest struct {
	// Current is the step the participant is on. Empty asks for the first step.
	Current string             `json:"current,omitempty"`
	Result  *domain.TaskResult `json:"result,omitempty"`
}

// NavigationResponse answers a navigation request. Step is null when the
// task is finished or there is no previous step.
type NavigationResponse struct {
	Step     domain.Step      `json:"step"`
	Finished bool             `json:"finished"`
	Progress *domain.Progress `json:"progress,omitempty"`
}

// RunResponse is returned after a result is recorded on a run.
type RunResponse struct {
	Result *domain.TaskResult `json:"result"`
	NavigationResponse
}

// TaskInfo describes the loaded task.
type TaskInfo struct {
	ID    string        `json:"identifier"`
	Title string        `json:"title,omitempty"`
	Steps []domain.Step `json:"steps"`
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":     "stepflow-http",
		"version": strings.TrimSpace(stepflow.Version),
		"task":    s.Nav.Task().ID,
	})
}

// ListSteps handles GET /steps.
func (s *Server) ListSteps(w http.ResponseWriter, r *http.Request) {
	task := s.Nav.Task()
	s.writeJSON(w, http.StatusOK, TaskInfo{ID: task.ID, Title: task.Title, Steps: s.Nav.Steps()})
}

// GetStep handles GET /steps/{id}.
func (s *Server) GetStep(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	step, ok := s.Nav.GetStep(id)
	if !ok {
		s.writeError(w, http.StatusNotFound, fmt.Errorf("%w: %q", domain.ErrStepNotFound, id))
		return
	}
	s.writeJSON(w, http.StatusOK, step)
}

// Next handles POST /navigation/next.
func (s *Server) Next(w http.ResponseWriter, r *http.Request) {
	req, current, ok := s.navigationRequest(w, r)
	if !ok {
		return
	}
	resp, err := s.advance(current, req.Result)
	if err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// Previous handles POST /navigation/previous.
func (s *Server) Previous(w http.ResponseWriter, r *http.Request) {
	req, current, ok := s.navigationRequest(w, r)
	if !ok {
		return
	}
	step, err := s.Nav.GetPreviousStep(current, req.Result)
	if err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}
	s.writeJSON(w, http.StatusOK, NavigationResponse{Step: step})
}

// Progress handles POST /navigation/progress.
func (s *Server) Progress(w http.ResponseWriter, r *http.Request) {
	req, current, ok := s.navigationRequest(w, r)
	if !ok {
		return
	}
	if current == nil {
		s.writeError(w, http.StatusBadRequest, errors.New("current step is required"))
		return
	}
	p, err := s.Nav.GetProgress(current, req.Result)
	if err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}
	s.writeJSON(w, http.StatusOK, p)
}

func (s *Server) navigationRequest(w http.ResponseWriter, r *http.Request) (NavigationRequest, domain.Step, bool) {
	var req NavigationRequest
	if err := s.decode(w, r, &req); err != nil {
		return req, nil, false
	}
	if req.Result == nil {
		req.Result = domain.NewTaskResult(s.Nav.Task().ID)
	}
	if req.Current == "" {
		return req, nil, true
	}
	step, ok := s.Nav.GetStep(req.Current)
	if !ok {
		s.writeError(w, http.StatusNotFound, fmt.Errorf("%w: %q", domain.ErrStepNotFound, req.Current))
		return req, nil, false
	}
	return req, step, true
}

func (s *Server) advance(current domain.Step, tr *domain.TaskResult) (NavigationResponse, error) {
	step, err := s.Nav.GetNextStep(current, tr)
	if err != nil {
		return NavigationResponse{}, err
	}
	if step == nil {
		return NavigationResponse{Finished: true}, nil
	}
	p, err := s.Nav.GetProgress(step, tr)
	if err != nil {
		return NavigationResponse{}, err
	}
	return NavigationResponse{Step: step, Progress: p}, nil
}

// ListRuns handles GET /runs.
func (s *Server) ListRuns(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Sessions.List(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string][]string{"runs": ids})
}

// GetRun handles GET /runs/{id}.
func (s *Server) GetRun(w http.ResponseWriter, r *http.Request) {
	tr, err := s.Sessions.Load(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}
	s.writeJSON(w, http.StatusOK, tr)
}

// PutRun handles PUT /runs/{id}, replacing the stored TaskResult.
func (s *Server) PutRun(w http.ResponseWriter, r *http.Request) {
	var tr domain.TaskResult
	if err := s.decode(w, r, &tr); err != nil {
		return
	}
	if tr.ID == "" {
		tr.ID = s.Nav.Task().ID
	}
	runID := chi.URLParam(r, "id")
	if err := s.Sessions.Save(r.Context(), runID, &tr); err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}
	s.writeJSON(w, http.StatusOK, &tr)
}

// DeleteRun handles DELETE /runs/{id}.
func (s *Server) DeleteRun(w http.ResponseWriter, r *http.Request) {
	if err := s.Sessions.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PostResult handles POST /runs/{id}/results. The body is one step result;
// its answers are checked against the step's input fields before it is
// appended to the run. The response carries the step that follows.
func (s *Server) PostResult(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	raw := json.RawMessage{}
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	res, err := domain.UnmarshalResult(raw)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	step, ok := s.Nav.GetStep(res.Identifier())
	if !ok {
		s.writeError(w, http.StatusNotFound, fmt.Errorf("%w: %q", domain.ErrStepNotFound, res.Identifier()))
		return
	}
	if err := validateResult(step, res); err != nil {
		s.writeError(w, http.StatusUnprocessableEntity, err)
		return
	}

	runID := chi.URLParam(r, "id")
	var resp RunResponse
	tr, err := s.Sessions.Update(r.Context(), runID, s.Nav.Task().ID, func(tr *domain.TaskResult) error {
		tr.AddStepHistory(res)
		var err error
		resp.NavigationResponse, err = s.advance(step, tr)
		return err
	})
	if err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}
	resp.Result = tr
	s.logger.Debug("result recorded", "run", runID, "step", step.Identifier(), "finished", resp.Finished)

	if b, err := json.Marshal(resp.NavigationResponse); err == nil {
		s.Streams.Broadcast(runID, string(b))
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.logger.Warn("invalid request body", "path", r.URL.Path, "err", err)
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return err
	}
	return nil
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "err", err)
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrTaskResultNotFound), errors.Is(err, domain.ErrStepNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrNavigationLoop):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

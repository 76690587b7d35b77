package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	app "github.com/doctrack/doctrack/internal/application/doctorate"
	"github.com/doctrack/doctrack/internal/domain/doctorate/domain"
	views "github.com/doctrack/doctrack/internal/domain/doctorate/dto"
	"github.com/doctrack/doctrack/internal/domain/doctorate/listing"
	dterrors "github.com/doctrack/doctrack/internal/errors"
	"github.com/doctrack/doctrack/internal/httpserver/dto"
	"github.com/doctrack/doctrack/internal/httpserver/middleware"
)

// maxBodyBytes bounds command bodies.
const maxBodyBytes = 1 << 20

// Service is the part of the doctorate service the API exposes.
type Service interface {
	Execute(ctx context.Context, c domain.Caller, cmd app.Command) (app.Result, error)
	GetDoctorate(ctx context.Context, id domain.DoctorateID) (views.DoctorateDTO, error)
	GetSupervisionGroup(ctx context.Context, id domain.DoctorateID) (views.SupervisionGroupDTO, error)
	ListConfirmationPapers(ctx context.Context, id domain.DoctorateID) ([]views.ConfirmationPaperDTO, error)
	LastConfirmationPaper(ctx context.Context, id domain.DoctorateID) (views.ConfirmationPaperDTO, error)
	GetJury(ctx context.Context, id domain.DoctorateID) (views.JuryDTO, error)
	GetAdmissibility(ctx context.Context, id domain.DoctorateID) (views.AdmissibilityDTO, error)
	ListAdmissibilities(ctx context.Context, id domain.DoctorateID) ([]views.AdmissibilityDTO, error)
	ListPrivateDefenses(ctx context.Context, id domain.DoctorateID) ([]views.PrivateDefenseDTO, error)
	CurrentPrivateDefense(ctx context.Context, id domain.DoctorateID) (views.PrivateDefenseDTO, error)
	GetPrivateDefense(ctx context.Context, id domain.DoctorateID, defenseID domain.PrivateDefenseID) (views.PrivateDefenseDTO, error)
	GetAuthorization(ctx context.Context, id domain.DoctorateID) (views.ThesisDistributionAuthorizationDTO, error)
	AllowedActions(ctx context.Context, c domain.Caller, id domain.DoctorateID) ([]string, error)
	ListDoctorates(ctx context.Context, c domain.Caller, f listing.Filter) (listing.PaginatedList, error)
}

// Publisher receives the outcome of every successful command.
type Publisher interface {
	Publish(ctx context.Context, event dto.ChangeEvent)
}

// CommandObserver records the outcome and duration of executed commands.
type CommandObserver interface {
	ObserveCommand(action string, err error, duration time.Duration)
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, dto.ChangeEvent) {}

type nopObserver struct{}

func (nopObserver) ObserveCommand(string, error, time.Duration) {}

// Doctorates serves the doctorate resources.
type Doctorates struct {
	svc Service
	pub Publisher
	obs CommandObserver
	now func() time.Time
}

// NewDoctorates creates the doctorate handlers. pub and obs may be nil.
func NewDoctorates(svc Service, pub Publisher, obs CommandObserver) *Doctorates {
	if pub == nil {
		pub = nopPublisher{}
	}
	if obs == nil {
		obs = nopObserver{}
	}
	return &Doctorates{svc: svc, pub: pub, obs: obs, now: time.Now}
}

// execute runs cmd and reports it to the observer.
func (h *Doctorates) execute(ctx context.Context, caller domain.Caller, action string, cmd app.Command) (app.Result, error) {
	start := h.now()
	res, err := h.svc.Execute(ctx, caller, cmd)
	h.obs.ObserveCommand(action, err, h.now().Sub(start))
	return res, err
}

func callerOf(r *http.Request) (domain.Caller, error) {
	c, ok := middleware.GetCaller(r)
	if !ok {
		return domain.Caller{}, dterrors.Permission("http.caller", "no authenticated caller")
	}
	return c, nil
}

func doctorateID(r *http.Request) domain.DoctorateID {
	return domain.DoctorateID(chi.URLParam(r, "id"))
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, dterrors.Wrap(err, dterrors.KindValidation, "http.readBody", "unreadable request body")
	}
	return body, nil
}

// Initialize handles POST /doctorates.
func (h *Doctorates) Initialize(w http.ResponseWriter, r *http.Request) {
	caller, err := callerOf(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	body, err := readBody(w, r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req dto.InitializeRequest
	if err := json.Unmarshal(body, &req); err != nil {
		respondError(w, r, dterrors.Wrap(err, dterrors.KindValidation, "http.Initialize", "malformed request body"))
		return
	}

	res, err := h.execute(r.Context(), caller, app.NameInitializeDoctorate, initializeCommand(req))
	if err != nil {
		respondError(w, r, err)
		return
	}
	h.respondCommand(w, r, caller, http.StatusCreated, app.NameInitializeDoctorate, res)
}

func initializeCommand(req dto.InitializeRequest) app.InitializeDoctorate {
	cmd := app.InitializeDoctorate{
		Student: domain.Student{
			PersonID:  req.Student.PersonID,
			Noma:      req.Student.Noma,
			FirstName: req.Student.FirstName,
			LastName:  req.Student.LastName,
			Email:     req.Student.Email,
			Language:  req.Student.Language,
		},
		Training: domain.Training{
			ID:            req.Training.ID,
			Code:          req.Training.Code,
			Acronym:       req.Training.Acronym,
			Title:         req.Training.Title,
			CDD:           req.Training.CDD,
			Sector:        req.Training.Sector,
			AcademicYear:  req.Training.AcademicYear,
			AdmissionType: req.Training.AdmissionType,
		},
	}
	if req.AdmittedAt != nil {
		cmd.AdmittedAt = *req.AdmittedAt
	}
	return cmd
}

// Execute handles POST /doctorates/{id}/actions/{action}.
func (h *Doctorates) Execute(w http.ResponseWriter, r *http.Request) {
	caller, err := callerOf(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	body, err := readBody(w, r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	action := chi.URLParam(r, "action")
	cmd, err := app.Decode(action, doctorateID(r), body)
	if err != nil {
		respondError(w, r, err)
		return
	}

	res, err := h.execute(r.Context(), caller, action, cmd)
	if err != nil {
		respondError(w, r, err)
		return
	}
	h.respondCommand(w, r, caller, http.StatusOK, action, res)
}

// respondCommand reports the post-command status and publishes the change.
// The command has committed, so a failing status read is only logged.
func (h *Doctorates) respondCommand(w http.ResponseWriter, r *http.Request, caller domain.Caller, status int, action string, res app.Result) {
	resp := dto.CommandResponse{DoctorateID: res.DoctorateID, ID: res.ID, Action: action}
	if d, err := h.svc.GetDoctorate(r.Context(), domain.DoctorateID(res.DoctorateID)); err == nil {
		resp.Status = string(d.Status)
	}

	event := dto.ChangeEvent{
		DoctorateID: res.DoctorateID,
		Action:      action,
		Status:      resp.Status,
		Actor:       caller.PersonID,
		Timestamp:   h.now().UTC(),
	}
	if action == app.NameInitializeDoctorate {
		event.Action = ""
	}
	h.pub.Publish(r.Context(), event)

	respondJSON(w, status, resp)
}

// Actions handles GET /doctorates/actions.
func (h *Doctorates) Actions(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, dto.ActionsResponse{Actions: app.CommandNames()})
}

// AllowedActions handles GET /doctorates/{id}/allowed-actions.
func (h *Doctorates) AllowedActions(w http.ResponseWriter, r *http.Request) {
	caller, err := callerOf(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	actions, err := h.svc.AllowedActions(r.Context(), caller, doctorateID(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	if actions == nil {
		actions = []string{}
	}
	respondJSON(w, http.StatusOK, dto.ActionsResponse{Actions: actions})
}

// List handles GET /doctorates.
func (h *Doctorates) List(w http.ResponseWriter, r *http.Request) {
	caller, err := callerOf(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	filter, err := parseFilter(r.URL.Query())
	if err != nil {
		respondError(w, r, err)
		return
	}
	list, err := h.svc.ListDoctorates(r.Context(), caller, filter)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}

// query adapts a read of one doctorate to a handler.
func query[T any](fn func(ctx context.Context, id domain.DoctorateID) (T, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := fn(r.Context(), doctorateID(r))
		if err != nil {
			respondError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, out)
	}
}

// listQuery is query for collections; it never answers null.
func listQuery[T any](fn func(ctx context.Context, id domain.DoctorateID) ([]T, error)) http.HandlerFunc {
	return query(func(ctx context.Context, id domain.DoctorateID) ([]T, error) {
		out, err := fn(ctx, id)
		if out == nil && err == nil {
			out = []T{}
		}
		return out, err
	})
}

// Get handles GET /doctorates/{id}.
func (h *Doctorates) Get() http.HandlerFunc { return query(h.svc.GetDoctorate) }

// Supervision handles GET /doctorates/{id}/supervision.
func (h *Doctorates) Supervision() http.HandlerFunc { return query(h.svc.GetSupervisionGroup) }

// Confirmations handles GET /doctorates/{id}/confirmations.
func (h *Doctorates) Confirmations() http.HandlerFunc {
	return listQuery(h.svc.ListConfirmationPapers)
}

// LastConfirmation handles GET /doctorates/{id}/confirmations/last.
func (h *Doctorates) LastConfirmation() http.HandlerFunc {
	return query(h.svc.LastConfirmationPaper)
}

// Jury handles GET /doctorates/{id}/jury.
func (h *Doctorates) Jury() http.HandlerFunc { return query(h.svc.GetJury) }

// Admissibility handles GET /doctorates/{id}/admissibility.
func (h *Doctorates) Admissibility() http.HandlerFunc { return query(h.svc.GetAdmissibility) }

// Admissibilities handles GET /doctorates/{id}/admissibilities.
func (h *Doctorates) Admissibilities() http.HandlerFunc {
	return listQuery(h.svc.ListAdmissibilities)
}

// PrivateDefenses handles GET /doctorates/{id}/private-defenses.
func (h *Doctorates) PrivateDefenses() http.HandlerFunc {
	return listQuery(h.svc.ListPrivateDefenses)
}

// CurrentPrivateDefense handles GET /doctorates/{id}/private-defenses/current.
func (h *Doctorates) CurrentPrivateDefense() http.HandlerFunc {
	return query(h.svc.CurrentPrivateDefense)
}

// PrivateDefense handles GET /doctorates/{id}/private-defenses/{defenseID}.
func (h *Doctorates) PrivateDefense(w http.ResponseWriter, r *http.Request) {
	defenseID := domain.PrivateDefenseID(chi.URLParam(r, "defenseID"))
	out, err := h.svc.GetPrivateDefense(r.Context(), doctorateID(r), defenseID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, out)
}

// Authorization handles GET /doctorates/{id}/authorization.
func (h *Doctorates) Authorization() http.HandlerFunc { return query(h.svc.GetAuthorization) }

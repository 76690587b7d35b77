package doctorate

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/doctrack/doctrack/internal/domain/doctorate/domain"
	"github.com/doctrack/doctrack/internal/domain/doctorate/listing"
	"github.com/doctrack/doctrack/internal/domain/doctorate/ports"
	dterrors "github.com/doctrack/doctrack/internal/errors"
)

// Institution holds the institution-wide settings the use cases need:
// the reference prefix and the managers notified outside any CDD.
type Institution struct {
	ReferencePrefix string
	ADREManagerIDs  []string
	ADRIManagerIDs  []string
	SCEBManagerIDs  []string
}

// Result identifies what a command changed. ID is the affected object: the
// doctorate itself, or the member, paper or defense the command created.
type Result struct {
	DoctorateID string `json:"doctorate_id"`
	ID          string `json:"id"`
}

// Service runs commands and queries against doctorates. Each command runs
// in its own unit of work.
type Service struct {
	uow         ports.UnitOfWork
	clock       ports.Clock
	institution Institution
	logger      *slog.Logger
}

// NewService creates the doctorate service.
func NewService(uow ports.UnitOfWork, clock ports.Clock, institution Institution) *Service {
	if clock == nil {
		clock = ports.RealClock{}
	}
	return &Service{
		uow:         uow,
		clock:       clock,
		institution: institution,
		logger:      slog.Default().With("usecase", "doctorate"),
	}
}

// session is the state of one command: the transaction, the loaded
// aggregates and the notifications to stage once the domain accepted it.
type session struct {
	ctx    context.Context
	tx     ports.Tx
	now    time.Time
	caller domain.Caller
	inst   Institution

	d      *domain.Doctorate
	group  *domain.SupervisionGroup
	jury   *domain.Jury
	papers []*domain.ConfirmationPaper

	result  string
	pending []ports.OutboxMessage
}

// run executes fn against the doctorate targeted by cmd and commits.
func (s *Service) run(ctx context.Context, c domain.Caller, cmd Command, fn func(x *session) error) (Result, error) {
	logger := s.logger.With("command", cmd.Name(), "doctorate_id", string(cmd.Doctorate()))

	tx, err := s.uow.Begin(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	x, err := s.open(ctx, tx, c, cmd.Doctorate())
	if err != nil {
		return Result{}, err
	}
	if err := fn(x); err != nil {
		logger.Debug("command rejected", "caller", c.PersonID, "error", err)
		return Result{}, err
	}
	return s.commit(x, logger)
}

// open loads the doctorate with its supervision group and jury, and binds
// the caller to the roles it holds in them.
func (s *Service) open(ctx context.Context, tx ports.Tx, c domain.Caller, id domain.DoctorateID) (*session, error) {
	d, err := tx.Doctorates().Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find doctorate: %w", err)
	}
	g, err := tx.SupervisionGroups().Get(ctx, d.SupervisionGroupID())
	if err != nil {
		return nil, fmt.Errorf("failed to find supervision group: %w", err)
	}
	j, err := tx.Juries().Get(ctx, d.JuryID())
	switch {
	case dterrors.IsKind(err, dterrors.KindNotFound):
		j = nil
	case err != nil:
		return nil, fmt.Errorf("failed to find jury: %w", err)
	}

	memberships := append([]domain.Membership(nil), c.Memberships...)
	memberships = append(memberships, g.MembershipsOf(c.PersonID)...)
	if j != nil {
		memberships = append(memberships, j.MembershipsOf(c.PersonID)...)
	}
	c.Memberships = memberships

	return &session{
		ctx:    ctx,
		tx:     tx,
		now:    s.clock.Now(),
		caller: c,
		inst:   s.institution,
		d:      d,
		group:  g,
		jury:   j,
		result: string(d.ID()),
	}, nil
}

// commit saves the doctorate, stages history and notifications, refreshes
// the search row and commits.
func (s *Service) commit(x *session, logger *slog.Logger) (Result, error) {
	if err := x.tx.Doctorates().Save(x.ctx, x.d); err != nil {
		return Result{}, fmt.Errorf("failed to save doctorate: %w", err)
	}
	for _, event := range x.d.DomainEvents() {
		if err := x.history(event); err != nil {
			return Result{}, err
		}
	}
	x.tx.Stage(x.pending...)

	papers, err := x.allPapers()
	if err != nil {
		return Result{}, err
	}
	if err := x.tx.Search().Upsert(x.ctx, listing.NewRow(x.d, x.group, x.jury, papers)); err != nil {
		return Result{}, fmt.Errorf("failed to index doctorate: %w", err)
	}

	if err := x.tx.Commit(x.ctx); err != nil {
		return Result{}, fmt.Errorf("failed to commit: %w", err)
	}
	x.d.ClearDomainEvents()

	logger.Info("command applied",
		"caller", x.caller.PersonID,
		"status", x.d.Status(),
		"outbox_messages", len(x.pending))
	return Result{DoctorateID: string(x.d.ID()), ID: x.result}, nil
}

func (x *session) saveGroup() error {
	if err := x.tx.SupervisionGroups().Save(x.ctx, x.group); err != nil {
		return fmt.Errorf("failed to save supervision group: %w", err)
	}
	return nil
}

// ensureJury creates the jury on first use, seeded with the promoters.
func (x *session) ensureJury() *domain.Jury {
	if x.jury == nil {
		x.jury = domain.NewJury(x.d, x.group)
	}
	return x.jury
}

func (x *session) saveJury() error {
	if err := x.tx.Juries().Save(x.ctx, x.jury); err != nil {
		return fmt.Errorf("failed to save jury: %w", err)
	}
	return nil
}

func (x *session) allPapers() ([]*domain.ConfirmationPaper, error) {
	if x.papers != nil {
		return x.papers, nil
	}
	papers, err := x.tx.ConfirmationPapers().ListByDoctorate(x.ctx, x.d.ID())
	if err != nil {
		return nil, fmt.Errorf("failed to list confirmation papers: %w", err)
	}
	x.papers = papers
	return papers, nil
}

// activePaper returns the paper under examination. The status is checked
// first so a doctorate past confirmation reports the status error.
func (x *session) activePaper(action domain.Action) (*domain.ConfirmationPaper, error) {
	papers, err := x.allPapers()
	if err != nil {
		return nil, err
	}
	p, err := domain.ActivePaper(papers)
	if err != nil {
		if checkErr := x.d.Check(action, x.caller); checkErr != nil {
			return nil, checkErr
		}
		return nil, err
	}
	return p, nil
}

func (x *session) savePaper(p *domain.ConfirmationPaper) error {
	if err := x.tx.ConfirmationPapers().Save(x.ctx, p); err != nil {
		return fmt.Errorf("failed to save confirmation paper: %w", err)
	}
	x.papers = nil
	return nil
}

// admissibility returns the current admissibility, or the status error of
// action when there is none.
func (x *session) admissibility(action domain.Action) (*domain.Admissibility, error) {
	id := x.d.CurrentAdmissibilityID()
	if id == "" {
		if err := x.d.Check(action, x.caller); err != nil {
			return nil, err
		}
		return nil, domain.ErrAdmissibilityNotFound
	}
	a, err := x.tx.Admissibilities().Get(x.ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find admissibility: %w", err)
	}
	return a, nil
}

func (x *session) saveAdmissibility(a *domain.Admissibility) error {
	if err := x.tx.Admissibilities().Save(x.ctx, a); err != nil {
		return fmt.Errorf("failed to save admissibility: %w", err)
	}
	return nil
}

// privateDefense returns the current private defense, or the status error
// of action when there is none.
func (x *session) privateDefense(action domain.Action) (*domain.PrivateDefense, error) {
	id := x.d.CurrentPrivateDefenseID()
	if id == "" {
		if err := x.d.Check(action, x.caller); err != nil {
			return nil, err
		}
		return nil, domain.ErrPrivateDefenseNotFound
	}
	p, err := x.tx.PrivateDefenses().Get(x.ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find private defense: %w", err)
	}
	return p, nil
}

func (x *session) savePrivateDefense(p *domain.PrivateDefense) error {
	if err := x.tx.PrivateDefenses().Save(x.ctx, p); err != nil {
		return fmt.Errorf("failed to save private defense: %w", err)
	}
	return nil
}

// authorization returns the current authorization, created on first use.
func (x *session) authorization() (*domain.ThesisDistributionAuthorization, error) {
	id := x.d.CurrentAuthorizationID()
	if id == "" {
		return domain.NewThesisDistributionAuthorization(x.d, x.now), nil
	}
	a, err := x.tx.Authorizations().Get(x.ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find authorization: %w", err)
	}
	return a, nil
}

func (x *session) saveAuthorization(a *domain.ThesisDistributionAuthorization) error {
	if err := x.tx.Authorizations().Save(x.ctx, a); err != nil {
		return fmt.Errorf("failed to save authorization: %w", err)
	}
	return nil
}

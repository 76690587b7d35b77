package doctorate

import (
	"context"
	"fmt"

	"github.com/doctrack/doctrack/internal/domain/doctorate/domain"
	dterrors "github.com/doctrack/doctrack/internal/errors"
)

// initialize creates a doctorate with its empty supervision group and its
// first confirmation paper. Serials are reserved outside the transaction,
// so a rejected command leaves a gap.
func (s *Service) initialize(ctx context.Context, c domain.Caller, cmd InitializeDoctorate) (Result, error) {
	logger := s.logger.With("command", cmd.Name(), "student_id", cmd.Student.PersonID)

	if !domain.IsADREManager(c, nil) {
		return Result{}, dterrors.Permission("doctorate.initialize", "only ADRE managers initialize doctorates")
	}

	tx, err := s.uow.Begin(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	serial, err := tx.NextSerial(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("failed to reserve serial: %w", err)
	}

	now := s.clock.Now()
	admittedAt := cmd.AdmittedAt
	if admittedAt.IsZero() {
		admittedAt = now
	}
	d, err := domain.NewDoctorate(s.institution.ReferencePrefix, cmd.Student, cmd.Training, serial, admittedAt)
	if err != nil {
		return Result{}, err
	}

	x := &session{
		ctx:    ctx,
		tx:     tx,
		now:    now,
		caller: c,
		inst:   s.institution,
		d:      d,
		group:  domain.NewSupervisionGroup(d),
		result: string(d.ID()),
	}
	if err := x.saveGroup(); err != nil {
		return Result{}, err
	}
	if err := x.savePaper(domain.NewConfirmationPaper(d, now)); err != nil {
		return Result{}, err
	}
	return s.commit(x, logger.With("doctorate_id", string(d.ID()), "reference", d.Reference()))
}

func (cmd ModifyProject) handle(x *session) error {
	return x.d.ModifyProject(x.caller, cmd.Project, x.now)
}

func (cmd ModifyFunding) handle(x *session) error {
	return x.d.ModifyFunding(x.caller, cmd.Funding, x.now)
}

func (cmd ModifyCotutelle) handle(x *session) error {
	return x.d.ModifyCotutelle(x.caller, cmd.Cotutelle, x.now)
}

func (cmd ModifyJuryPreparation) handle(x *session) error {
	return x.d.ModifyJuryPreparation(x.caller, cmd.JuryPreparation, x.now)
}

func (cmd SendMessageToStudent) handle(x *session) error {
	if err := x.d.SendMessageToStudent(x.caller, cmd.Message, x.now); err != nil {
		return err
	}
	return x.mail(cmd.Message, x.student(), nil)
}

func (cmd Abandon) handle(x *session) error {
	return x.d.Abandon(x.caller, x.now)
}

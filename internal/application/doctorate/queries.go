package doctorate

import (
	"context"
	"fmt"

	"github.com/doctrack/doctrack/internal/domain/doctorate/domain"
	"github.com/doctrack/doctrack/internal/domain/doctorate/dto"
	"github.com/doctrack/doctrack/internal/domain/doctorate/listing"
	"github.com/doctrack/doctrack/internal/domain/doctorate/ports"
	dterrors "github.com/doctrack/doctrack/internal/errors"
)

// read runs fn in a transaction that is always rolled back.
func (s *Service) read(ctx context.Context, fn func(tx ports.Tx) error) error {
	tx, err := s.uow.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	return fn(tx)
}

func notFound(op string, rule *dterrors.BusinessError) error {
	return dterrors.NotFound(op, rule.Message).WithDetail("status_code", rule.Code)
}

// GetDoctorate returns one doctorate.
func (s *Service) GetDoctorate(ctx context.Context, id domain.DoctorateID) (dto.DoctorateDTO, error) {
	var out dto.DoctorateDTO
	err := s.read(ctx, func(tx ports.Tx) error {
		d, err := tx.Doctorates().Get(ctx, id)
		if err != nil {
			return err
		}
		out = dto.FromDoctorate(d)
		return nil
	})
	return out, err
}

// GetSupervisionGroup returns the supervision group of a doctorate.
func (s *Service) GetSupervisionGroup(ctx context.Context, id domain.DoctorateID) (dto.SupervisionGroupDTO, error) {
	var out dto.SupervisionGroupDTO
	err := s.read(ctx, func(tx ports.Tx) error {
		d, err := tx.Doctorates().Get(ctx, id)
		if err != nil {
			return err
		}
		g, err := tx.SupervisionGroups().Get(ctx, d.SupervisionGroupID())
		if err != nil {
			return err
		}
		out = dto.FromSupervisionGroup(g)
		return nil
	})
	return out, err
}

// ListConfirmationPapers returns every paper of a doctorate, oldest first.
func (s *Service) ListConfirmationPapers(ctx context.Context, id domain.DoctorateID) ([]dto.ConfirmationPaperDTO, error) {
	var out []dto.ConfirmationPaperDTO
	err := s.read(ctx, func(tx ports.Tx) error {
		if _, err := tx.Doctorates().Get(ctx, id); err != nil {
			return err
		}
		papers, err := tx.ConfirmationPapers().ListByDoctorate(ctx, id)
		if err != nil {
			return err
		}
		out = make([]dto.ConfirmationPaperDTO, 0, len(papers))
		for _, p := range papers {
			out = append(out, dto.FromConfirmationPaper(p))
		}
		return nil
	})
	return out, err
}

// LastConfirmationPaper returns the most recent paper of a doctorate.
func (s *Service) LastConfirmationPaper(ctx context.Context, id domain.DoctorateID) (dto.ConfirmationPaperDTO, error) {
	papers, err := s.ListConfirmationPapers(ctx, id)
	if err != nil {
		return dto.ConfirmationPaperDTO{}, err
	}
	if len(papers) == 0 {
		return dto.ConfirmationPaperDTO{}, notFound("doctorate.LastConfirmationPaper", domain.ErrConfirmationPaperNotFound)
	}
	return papers[len(papers)-1], nil
}

// GetJury returns the jury of a doctorate with the codes of the conditions
// still preventing its submission. A jury never edited is reported with
// the promoters it will start with.
func (s *Service) GetJury(ctx context.Context, id domain.DoctorateID) (dto.JuryDTO, error) {
	var out dto.JuryDTO
	err := s.read(ctx, func(tx ports.Tx) error {
		d, err := tx.Doctorates().Get(ctx, id)
		if err != nil {
			return err
		}
		j, err := tx.Juries().Get(ctx, d.JuryID())
		if dterrors.IsKind(err, dterrors.KindNotFound) {
			g, gerr := tx.SupervisionGroups().Get(ctx, d.SupervisionGroupID())
			if gerr != nil {
				return gerr
			}
			j, err = domain.NewJury(d, g), nil
		}
		if err != nil {
			return err
		}
		conditions := dterrors.BusinessCodes(domain.Validate(j.SubmissionChecks(d)...))
		out = dto.FromJury(j, conditions)
		return nil
	})
	return out, err
}

// GetAdmissibility returns the current admissibility of a doctorate.
func (s *Service) GetAdmissibility(ctx context.Context, id domain.DoctorateID) (dto.AdmissibilityDTO, error) {
	var out dto.AdmissibilityDTO
	err := s.read(ctx, func(tx ports.Tx) error {
		d, err := tx.Doctorates().Get(ctx, id)
		if err != nil {
			return err
		}
		if d.CurrentAdmissibilityID() == "" {
			return notFound("doctorate.GetAdmissibility", domain.ErrAdmissibilityNotFound)
		}
		a, err := tx.Admissibilities().Get(ctx, d.CurrentAdmissibilityID())
		if err != nil {
			return err
		}
		out = dto.FromAdmissibility(a)
		return nil
	})
	return out, err
}

// ListAdmissibilities returns every admissibility of a doctorate, oldest first.
func (s *Service) ListAdmissibilities(ctx context.Context, id domain.DoctorateID) ([]dto.AdmissibilityDTO, error) {
	var out []dto.AdmissibilityDTO
	err := s.read(ctx, func(tx ports.Tx) error {
		if _, err := tx.Doctorates().Get(ctx, id); err != nil {
			return err
		}
		all, err := tx.Admissibilities().ListByDoctorate(ctx, id)
		if err != nil {
			return err
		}
		out = make([]dto.AdmissibilityDTO, 0, len(all))
		for _, a := range all {
			out = append(out, dto.FromAdmissibility(a))
		}
		return nil
	})
	return out, err
}

// ListPrivateDefenses returns every private defense of a doctorate, oldest first.
func (s *Service) ListPrivateDefenses(ctx context.Context, id domain.DoctorateID) ([]dto.PrivateDefenseDTO, error) {
	var out []dto.PrivateDefenseDTO
	err := s.read(ctx, func(tx ports.Tx) error {
		if _, err := tx.Doctorates().Get(ctx, id); err != nil {
			return err
		}
		all, err := tx.PrivateDefenses().ListByDoctorate(ctx, id)
		if err != nil {
			return err
		}
		out = make([]dto.PrivateDefenseDTO, 0, len(all))
		for _, p := range all {
			out = append(out, dto.FromPrivateDefense(p))
		}
		return nil
	})
	return out, err
}

// CurrentPrivateDefense returns the private defense being organised.
func (s *Service) CurrentPrivateDefense(ctx context.Context, id domain.DoctorateID) (dto.PrivateDefenseDTO, error) {
	var out dto.PrivateDefenseDTO
	err := s.read(ctx, func(tx ports.Tx) error {
		d, err := tx.Doctorates().Get(ctx, id)
		if err != nil {
			return err
		}
		if d.CurrentPrivateDefenseID() == "" {
			return notFound("doctorate.CurrentPrivateDefense", domain.ErrPrivateDefenseNotFound)
		}
		p, err := tx.PrivateDefenses().Get(ctx, d.CurrentPrivateDefenseID())
		if err != nil {
			return err
		}
		out = dto.FromPrivateDefense(p)
		return nil
	})
	return out, err
}

// GetPrivateDefense returns one private defense of a doctorate.
func (s *Service) GetPrivateDefense(ctx context.Context, id domain.DoctorateID, defenseID domain.PrivateDefenseID) (dto.PrivateDefenseDTO, error) {
	var out dto.PrivateDefenseDTO
	err := s.read(ctx, func(tx ports.Tx) error {
		p, err := tx.PrivateDefenses().Get(ctx, defenseID)
		if err != nil {
			return err
		}
		if p.DoctorateID != id {
			return notFound("doctorate.GetPrivateDefense", domain.ErrPrivateDefenseNotFound)
		}
		out = dto.FromPrivateDefense(p)
		return nil
	})
	return out, err
}

// GetAuthorization returns the thesis-distribution authorization.
func (s *Service) GetAuthorization(ctx context.Context, id domain.DoctorateID) (dto.ThesisDistributionAuthorizationDTO, error) {
	var out dto.ThesisDistributionAuthorizationDTO
	err := s.read(ctx, func(tx ports.Tx) error {
		d, err := tx.Doctorates().Get(ctx, id)
		if err != nil {
			return err
		}
		if d.CurrentAuthorizationID() == "" {
			return notFound("doctorate.GetAuthorization", domain.ErrAuthorizationNotFound)
		}
		a, err := tx.Authorizations().Get(ctx, d.CurrentAuthorizationID())
		if err != nil {
			return err
		}
		out = dto.FromAuthorization(a)
		return nil
	})
	return out, err
}

// AllowedActions returns the actions c may request on a doctorate now.
func (s *Service) AllowedActions(ctx context.Context, c domain.Caller, id domain.DoctorateID) ([]string, error) {
	var out []string
	err := s.read(ctx, func(tx ports.Tx) error {
		x, err := s.open(ctx, tx, c, id)
		if err != nil {
			return err
		}
		for _, a := range domain.AllowedActions(x.caller, x.d) {
			out = append(out, string(a))
		}
		return nil
	})
	return out, err
}

// ListDoctorates filters, sorts and pages the doctorates visible to c.
func (s *Service) ListDoctorates(ctx context.Context, c domain.Caller, f listing.Filter) (listing.PaginatedList, error) {
	var out listing.PaginatedList
	err := s.read(ctx, func(tx ports.Tx) error {
		rows, err := tx.Search().Rows(ctx)
		if err != nil {
			return fmt.Errorf("failed to read search index: %w", err)
		}
		out = listing.Apply(rows, f, c)
		return nil
	})
	return out, err
}

// Package dto provides the read models returned by doctorate queries.
package dto

import (
	"time"

	"github.com/doctrack/doctrack/internal/domain/doctorate/domain"
)

// TrainingDTO describes the training of a doctorate.
type TrainingDTO struct {
	ID            string `json:"id"`
	Code          string `json:"code"`
	Acronym       string `json:"acronym"`
	Title         string `json:"title,omitempty"`
	CDD           string `json:"cdd"`
	AcademicYear  int    `json:"academic_year"`
	AdmissionType string `json:"admission_type,omitempty"`
}

// StudentDTO describes the student.
type StudentDTO struct {
	PersonID  string `json:"person_id"`
	Noma      string `json:"noma,omitempty"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// DoctorateDTO is the full read model of a doctorate.
type DoctorateDTO struct {
	ID                      string                 `json:"id"`
	Reference               string                 `json:"reference"`
	Status                  domain.DoctorateStatus `json:"status"`
	Phase                   string                 `json:"phase"`
	Student                 StudentDTO             `json:"student"`
	Training                TrainingDTO            `json:"training"`
	AdmittedAt              time.Time              `json:"admitted_at"`
	Project                 domain.Project         `json:"project"`
	Cotutelle               domain.Cotutelle       `json:"cotutelle"`
	Funding                 domain.Funding         `json:"funding"`
	JuryPreparation         domain.JuryPreparation `json:"jury_preparation"`
	PublicDefense           domain.PublicDefense   `json:"public_defense"`
	SupervisionGroupID      string                 `json:"supervision_group_id"`
	JuryID                  string                 `json:"jury_id"`
	CurrentAdmissibilityID  string                 `json:"current_admissibility_id,omitempty"`
	CurrentPrivateDefenseID string                 `json:"current_private_defense_id,omitempty"`
	CurrentAuthorizationID  string                 `json:"current_authorization_id,omitempty"`
	Version                 int                    `json:"version"`
	UpdatedAt               time.Time              `json:"updated_at"`
}

// FromDoctorate builds the read model of d.
func FromDoctorate(d *domain.Doctorate) DoctorateDTO {
	s := d.Student()
	return DoctorateDTO{
		ID:                      string(d.ID()),
		Reference:               d.Reference(),
		Status:                  d.Status(),
		Phase:                   d.Status().Phase(),
		Student:                 StudentDTO{PersonID: s.PersonID, Noma: s.Noma, FirstName: s.FirstName, LastName: s.LastName},
		Training:                trainingDTO(d.Training()),
		AdmittedAt:              d.AdmittedAt(),
		Project:                 d.Project(),
		Cotutelle:               d.Cotutelle(),
		Funding:                 d.Funding(),
		JuryPreparation:         d.JuryPreparation(),
		PublicDefense:           d.PublicDefense(),
		SupervisionGroupID:      string(d.SupervisionGroupID()),
		JuryID:                  string(d.JuryID()),
		CurrentAdmissibilityID:  string(d.CurrentAdmissibilityID()),
		CurrentPrivateDefenseID: string(d.CurrentPrivateDefenseID()),
		CurrentAuthorizationID:  string(d.CurrentAuthorizationID()),
		Version:                 d.Version(),
		UpdatedAt:               d.UpdatedAt(),
	}
}

func trainingDTO(t domain.Training) TrainingDTO {
	return TrainingDTO{
		ID:            t.ID,
		Code:          t.Code,
		Acronym:       t.Acronym,
		Title:         t.Title,
		CDD:           t.CDD,
		AcademicYear:  t.AcademicYear,
		AdmissionType: t.AdmissionType,
	}
}

// DoctorateSearchDTO is one line of the doctorate listing.
type DoctorateSearchDTO struct {
	ID               string                 `json:"id"`
	Reference        string                 `json:"reference"`
	Status           domain.DoctorateStatus `json:"status"`
	StudentID        string                 `json:"student_id"`
	StudentFirstName string                 `json:"student_first_name"`
	StudentLastName  string                 `json:"student_last_name"`
	Training         TrainingDTO            `json:"training"`
	AdmittedAt       time.Time              `json:"admitted_at"`
	Scholarship      string                 `json:"scholarship,omitempty"`
	Cotutelle        bool                   `json:"cotutelle"`
}

// PersonDTO is an internal or external member. Internal members only carry
// their person id.
type PersonDTO struct {
	PersonID               string `json:"person_id,omitempty"`
	External               bool   `json:"external"`
	FirstName              string `json:"first_name,omitempty"`
	LastName               string `json:"last_name,omitempty"`
	Email                  string `json:"email,omitempty"`
	Institution            string `json:"institution,omitempty"`
	OtherInstitution       string `json:"other_institution,omitempty"`
	City                   string `json:"city,omitempty"`
	Country                string `json:"country,omitempty"`
	Language               string `json:"language,omitempty"`
	Title                  string `json:"title,omitempty"`
	Gender                 string `json:"gender,omitempty"`
	IsDoctor               bool   `json:"is_doctor,omitempty"`
	NonDoctorJustification string `json:"non_doctor_justification,omitempty"`
}

// FromIdentity builds the person read model of an identity.
func FromIdentity(id domain.Identity) PersonDTO {
	switch p := id.(type) {
	case domain.InternalPerson:
		return PersonDTO{PersonID: p.PersonID}
	case domain.ExternalPerson:
		return PersonDTO{
			External:               true,
			FirstName:              p.FirstName,
			LastName:               p.LastName,
			Email:                  p.Email,
			Institution:            p.Institution,
			OtherInstitution:       p.OtherInstitution,
			City:                   p.City,
			Country:                p.Country,
			Language:               p.Language,
			Title:                  p.Title,
			Gender:                 p.Gender,
			IsDoctor:               p.IsDoctor,
			NonDoctorJustification: p.NonDoctorJustification,
		}
	default:
		return PersonDTO{}
	}
}

// SignatureDTO is the response of a signatory.
type SignatureDTO struct {
	State           domain.SignatureState `json:"state"`
	At              *time.Time            `json:"at,omitempty"`
	InternalComment string                `json:"internal_comment,omitempty"`
	ExternalComment string                `json:"external_comment,omitempty"`
	RefusalReason   string                `json:"refusal_reason,omitempty"`
	PDF             []string              `json:"pdf,omitempty"`
}

func signatureDTO(s domain.Signature) SignatureDTO {
	return SignatureDTO{
		State:           s.State,
		At:              s.At,
		InternalComment: s.InternalComment,
		ExternalComment: s.ExternalComment,
		RefusalReason:   s.RefusalReason,
		PDF:             s.PDF,
	}
}

// SignatoryDTO is a member of a signature group.
type SignatoryDTO struct {
	ID        string       `json:"id"`
	Role      string       `json:"role"`
	Person    PersonDTO    `json:"person"`
	Signature SignatureDTO `json:"signature"`
}

func signatories[R ~string](in []domain.Signatory[R]) []SignatoryDTO {
	out := make([]SignatoryDTO, 0, len(in))
	for _, s := range in {
		out = append(out, SignatoryDTO{
			ID:        string(s.ID),
			Role:      string(s.Role),
			Person:    FromIdentity(s.Identity),
			Signature: signatureDTO(s.Signature),
		})
	}
	return out
}

// SupervisionGroupDTO is the read model of a supervision group.
type SupervisionGroupDTO struct {
	ID                string               `json:"id"`
	DoctorateID       string               `json:"doctorate_id"`
	SigningStatus     domain.SigningStatus `json:"signing_status"`
	ReferencePromoter string               `json:"reference_promoter,omitempty"`
	Promoters         []SignatoryDTO       `json:"promoters"`
	CAMembers         []SignatoryDTO       `json:"ca_members"`
	Approved          bool                 `json:"approved"`
}

// FromSupervisionGroup builds the read model of g.
func FromSupervisionGroup(g *domain.SupervisionGroup) SupervisionGroupDTO {
	return SupervisionGroupDTO{
		ID:                string(g.ID()),
		DoctorateID:       string(g.DoctorateID()),
		SigningStatus:     g.SigningStatus(),
		ReferencePromoter: string(g.ReferencePromoter()),
		Promoters:         signatories(g.Promoters()),
		CAMembers:         signatories(g.CAMembers()),
		Approved:          g.IsApproved(),
	}
}

// JuryMemberDTO is a jury member.
type JuryMemberDTO struct {
	SignatoryDTO
	IsPromoter bool `json:"is_promoter"`
}

// JuryDTO is the read model of a jury.
type JuryDTO struct {
	ID                  string               `json:"id"`
	DoctorateID         string               `json:"doctorate_id"`
	SigningStatus       domain.SigningStatus `json:"signing_status"`
	Members             []JuryMemberDTO      `json:"members"`
	Validations         []SignatoryDTO       `json:"validations,omitempty"`
	ApprovedByMembers   bool                 `json:"approved_by_members"`
	SignatureConditions []string             `json:"signature_conditions,omitempty"`
}

// FromJury builds the read model of j. conditions are the codes still
// preventing the jury from being submitted.
func FromJury(j *domain.Jury, conditions []string) JuryDTO {
	out := JuryDTO{
		ID:                  string(j.ID()),
		DoctorateID:         string(j.DoctorateID()),
		SigningStatus:       j.SigningStatus(),
		ApprovedByMembers:   j.IsApprovedByMembers(),
		SignatureConditions: conditions,
	}
	for _, s := range j.Signatories() {
		dto := signatories([]domain.Signatory[domain.JuryRole]{s})[0]
		if !s.Role.IsMemberRole() {
			out.Validations = append(out.Validations, dto)
			continue
		}
		out.Members = append(out.Members, JuryMemberDTO{SignatoryDTO: dto, IsPromoter: j.IsPromoter(s.ID)})
	}
	return out
}

// ConfirmationPaperDTO is the read model of a confirmation paper.
type ConfirmationPaperDTO struct {
	ID                            string     `json:"id"`
	DoctorateID                   string     `json:"doctorate_id"`
	Active                        bool       `json:"active"`
	Date                          *time.Time `json:"date,omitempty"`
	Deadline                      *time.Time `json:"deadline,omitempty"`
	ResearchReport                []string   `json:"research_report,omitempty"`
	SupervisorPanelReport         []string   `json:"supervisor_panel_report,omitempty"`
	ResearchMandateRenewalOpinion []string   `json:"research_mandate_renewal_opinion,omitempty"`
	ExtendedDeadline              *time.Time `json:"extended_deadline,omitempty"`
	ExtensionJustification        string     `json:"extension_justification,omitempty"`
	ExtensionLetter               []string   `json:"extension_letter,omitempty"`
	CDDOpinion                    string     `json:"cdd_opinion,omitempty"`
	CertificateOfAchievement      []string   `json:"certificate_of_achievement,omitempty"`
	CertificateOfFailure          []string   `json:"certificate_of_failure,omitempty"`
	Minutes                       []string   `json:"minutes,omitempty"`
	CreatedAt                     time.Time  `json:"created_at"`
}

// FromConfirmationPaper builds the read model of p.
func FromConfirmationPaper(p *domain.ConfirmationPaper) ConfirmationPaperDTO {
	return ConfirmationPaperDTO{
		ID:                            string(p.ID),
		DoctorateID:                   string(p.DoctorateID),
		Active:                        p.Active,
		Date:                          p.Date,
		Deadline:                      p.Deadline,
		ResearchReport:                p.ResearchReport,
		SupervisorPanelReport:         p.SupervisorPanelReport,
		ResearchMandateRenewalOpinion: p.ResearchMandateRenewalOpinion,
		ExtendedDeadline:              p.ExtendedDeadline,
		ExtensionJustification:        p.ExtensionJustification,
		ExtensionLetter:               p.ExtensionLetter,
		CDDOpinion:                    p.CDDOpinion,
		CertificateOfAchievement:      p.CertificateOfAchievement,
		CertificateOfFailure:          p.CertificateOfFailure,
		Minutes:                       p.Minutes,
		CreatedAt:                     p.CreatedAt,
	}
}

// AdmissibilityDTO is the read model of an admissibility review.
type AdmissibilityDTO struct {
	ID                       string     `json:"id"`
	DoctorateID              string     `json:"doctorate_id"`
	Active                   bool       `json:"active"`
	DecisionDate             *time.Time `json:"decision_date,omitempty"`
	ThesisExamBoardOpinion   []string   `json:"thesis_exam_board_opinion,omitempty"`
	ManuscriptSubmissionDate *time.Time `json:"manuscript_submission_date,omitempty"`
	Minutes                  []string   `json:"minutes,omitempty"`
	CreatedAt                time.Time  `json:"created_at"`
}

// FromAdmissibility builds the read model of a.
func FromAdmissibility(a *domain.Admissibility) AdmissibilityDTO {
	return AdmissibilityDTO{
		ID:                       string(a.ID),
		DoctorateID:              string(a.DoctorateID),
		Active:                   a.Active,
		DecisionDate:             a.DecisionDate,
		ThesisExamBoardOpinion:   a.ThesisExamBoardOpinion,
		ManuscriptSubmissionDate: a.ManuscriptSubmissionDate,
		Minutes:                  a.Minutes,
		CreatedAt:                a.CreatedAt,
	}
}

// PrivateDefenseDTO is the read model of a private defense.
type PrivateDefenseDTO struct {
	ID                       string     `json:"id"`
	DoctorateID              string     `json:"doctorate_id"`
	Active                   bool       `json:"active"`
	At                       *time.Time `json:"at,omitempty"`
	Place                    string     `json:"place,omitempty"`
	ManuscriptSubmissionDate *time.Time `json:"manuscript_submission_date,omitempty"`
	Minutes                  []string   `json:"minutes,omitempty"`
	CreatedAt                time.Time  `json:"created_at"`
}

// FromPrivateDefense builds the read model of p.
func FromPrivateDefense(p *domain.PrivateDefense) PrivateDefenseDTO {
	return PrivateDefenseDTO{
		ID:                       string(p.ID),
		DoctorateID:              string(p.DoctorateID),
		Active:                   p.Active,
		At:                       p.At,
		Place:                    p.Place,
		ManuscriptSubmissionDate: p.ManuscriptSubmissionDate,
		Minutes:                  p.Minutes,
		CreatedAt:                p.CreatedAt,
	}
}

// ThesisDistributionAuthorizationDTO is the read model of an authorization.
type ThesisDistributionAuthorizationDTO struct {
	ID                 string                     `json:"id"`
	DoctorateID        string                     `json:"doctorate_id"`
	Status             domain.AuthorizationStatus `json:"status"`
	Form               domain.AuthorizationForm   `json:"form"`
	AcceptedConditions string                     `json:"accepted_conditions,omitempty"`
	AcceptedOn         *time.Time                 `json:"accepted_on,omitempty"`
	Signatories        []SignatoryDTO             `json:"signatories"`
}

// FromAuthorization builds the read model of a.
func FromAuthorization(a *domain.ThesisDistributionAuthorization) ThesisDistributionAuthorizationDTO {
	return ThesisDistributionAuthorizationDTO{
		ID:                 string(a.ID()),
		DoctorateID:        string(a.DoctorateID()),
		Status:             a.Status(),
		Form:               a.Form(),
		AcceptedConditions: a.AcceptedConditions(),
		AcceptedOn:         a.AcceptedOn(),
		Signatories:        signatories(a.Signatories()),
	}
}

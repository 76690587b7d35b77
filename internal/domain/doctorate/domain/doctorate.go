package domain

import (
	"fmt"
	"strings"
	"time"

	dterrors "github.com/doctrack/doctrack/internal/errors"
)

// DefaultReferencePrefix prefixes formatted references when none is configured.
const DefaultReferencePrefix = "D"

// FormatReference returns the human reference of a doctorate, for instance
// D-SC3DP-000042.
func FormatReference(prefix, trainingCode string, serial int) string {
	if prefix == "" {
		prefix = DefaultReferencePrefix
	}
	return fmt.Sprintf("%s-%s-%06d", prefix, strings.ToUpper(trainingCode), serial)
}

// Training is the doctoral training the student is registered in.
type Training struct {
	ID            string
	Code          string
	Acronym       string
	Title         string
	CDD           string
	Sector        string
	AcademicYear  int
	AdmissionType string
}

// Student is the person following the trajectory.
type Student struct {
	PersonID  string
	Noma      string
	FirstName string
	LastName  string
	Email     string
	Language  string
}

// Project describes the research project.
type Project struct {
	Title               string
	Abstract            string
	Language            string
	Keywords            string
	Institute           string
	ProximityCommission string
	Documents           []string
	ProgramProposal     []string
}

// IsComplete reports whether the project can be submitted for signatures.
func (p Project) IsComplete() bool {
	return strings.TrimSpace(p.Title) != "" &&
		strings.TrimSpace(p.Abstract) != "" &&
		strings.TrimSpace(p.Language) != "" &&
		len(p.Documents) > 0 &&
		len(p.ProgramProposal) > 0
}

// Cotutelle is the joint supervision with another institution.
type Cotutelle struct {
	Enabled          bool
	Motivation       string
	Institution      string
	OtherInstitution string
	OpeningRequest   []string
	Convention       []string
}

// IsComplete reports whether the cotutelle fields are consistent with the flag.
func (c Cotutelle) IsComplete() bool {
	if !c.Enabled {
		return true
	}
	return strings.TrimSpace(c.Motivation) != "" &&
		(c.Institution != "" || c.OtherInstitution != "") &&
		len(c.OpeningRequest) > 0
}

// FundingType classifies how the doctorate is funded.
type FundingType string

// Funding types.
const (
	FundingNone         FundingType = ""
	FundingWorkContract FundingType = "WORK_CONTRACT"
	FundingScholarship  FundingType = "SEARCH_SCHOLARSHIP"
	FundingSelf         FundingType = "SELF_FUNDING"
)

// OtherScholarship is the scholarship code selecting international
// scholarships described free-form.
const OtherScholarship = "OTHER"

// Funding describes the funding of the doctorate.
type Funding struct {
	Type                          FundingType
	WorkContractType              string
	Scholarship                   string
	OtherInternationalScholarship string
	FNRSFRIAFRESH                 bool
	Start                         *time.Time
	End                           *time.Time
	Proof                         []string
	PlannedDurationMonths         int
	DedicatedTime                 string
}

// Checks returns the consistency checks of the funding block.
func (f Funding) Checks() []Check {
	consistent := true
	switch f.Type {
	case FundingNone, FundingSelf:
		consistent = f.WorkContractType == "" && f.Scholarship == "" && f.OtherInternationalScholarship == ""
	case FundingWorkContract:
		consistent = f.WorkContractType != "" && f.Scholarship == "" && f.OtherInternationalScholarship == ""
	case FundingScholarship:
		consistent = f.WorkContractType == "" && (f.Scholarship != "" || f.OtherInternationalScholarship != "")
	default:
		consistent = false
	}
	if f.Start != nil && f.End != nil && f.End.Before(*f.Start) {
		consistent = false
	}
	return []Check{Require(consistent, ErrFundingInconsistent)}
}

// IsComplete reports whether the funding block is filled in for submission.
func (f Funding) IsComplete() bool {
	if f.Type == FundingNone || f.PlannedDurationMonths <= 0 || strings.TrimSpace(f.DedicatedTime) == "" {
		return false
	}
	if f.Type == FundingScholarship {
		return f.Start != nil && f.End != nil && len(f.Proof) > 0
	}
	return true
}

// DefenseFormula tells whether private and public defenses are held separately.
type DefenseFormula string

// Defense formulas.
const (
	FormulaSeparate DefenseFormula = "SEPARATE"
	FormulaCombined DefenseFormula = "COMBINED"
)

// JuryPreparation holds the information prepared before composing the jury.
type JuryPreparation struct {
	ProposedTitle     string
	Formula           DefenseFormula
	IndicativeDate    *time.Time
	RedactionLanguage string
	DefenseLanguage   string
	Comment           string
}

// IsComplete reports whether the jury can be submitted.
func (j JuryPreparation) IsComplete() bool {
	return strings.TrimSpace(j.ProposedTitle) != "" &&
		(j.Formula == FormulaSeparate || j.Formula == FormulaCombined) &&
		j.IndicativeDate != nil &&
		j.RedactionLanguage != "" &&
		j.DefenseLanguage != ""
}

// PublicDefense is stored on the doctorate since there is only ever one.
type PublicDefense struct {
	Language            string
	At                  *time.Time
	Place               string
	LocalContact        string
	AnnouncementSummary string
	AnnouncementPhoto   []string
	Minutes             []string
	MinutesCanvas       []string
}

// Doctorate is the aggregate root of a doctoral trajectory. Children are
// referenced by identifier only.
type Doctorate struct {
	id        DoctorateID
	reference string
	serial    int
	student   Student
	training  Training
	status    DoctorateStatus

	admittedAt      time.Time
	project         Project
	cotutelle       Cotutelle
	funding         Funding
	juryPreparation JuryPreparation
	publicDefense   PublicDefense

	supervisionGroupID      SupervisionGroupID
	juryID                  JuryID
	currentAdmissibilityID  AdmissibilityID
	currentPrivateDefenseID PrivateDefenseID
	currentAuthorizationID  AuthorizationID

	version   int
	createdAt time.Time
	updatedAt time.Time

	domainEvents []DomainEvent
}

// NewDoctorate admits a student into a training. The doctorate starts in
// ADMITTED with empty supervision group and jury.
func NewDoctorate(prefix string, student Student, training Training, serial int, admittedAt time.Time) (*Doctorate, error) {
	if strings.TrimSpace(student.PersonID) == "" || strings.TrimSpace(training.Code) == "" || serial <= 0 {
		return nil, dterrors.Validation("domain.NewDoctorate", "a doctorate requires a student, a training code and a positive serial")
	}
	d := &Doctorate{
		id:                 NewDoctorateID(),
		serial:             serial,
		reference:          FormatReference(prefix, training.Code, serial),
		student:            student,
		training:           training,
		status:             StatusAdmitted,
		admittedAt:         admittedAt,
		supervisionGroupID: NewSupervisionGroupID(),
		juryID:             NewJuryID(),
		juryPreparation:    JuryPreparation{Formula: FormulaSeparate},
		createdAt:          admittedAt,
		updatedAt:          admittedAt,
	}
	d.addEvent(&DoctorateInitializedEvent{DoctorateID: d.id, Reference: d.reference, At: admittedAt})
	return d, nil
}

// ID returns the doctorate identifier.
func (d *Doctorate) ID() DoctorateID { return d.id }

// Reference returns the formatted reference.
func (d *Doctorate) Reference() string { return d.reference }

// Serial returns the numeric part of the reference.
func (d *Doctorate) Serial() int { return d.serial }

// StudentID returns the person id of the student.
func (d *Doctorate) StudentID() string { return d.student.PersonID }

// Student returns the student.
func (d *Doctorate) Student() Student { return d.student }

// Training returns the training.
func (d *Doctorate) Training() Training { return d.training }

// Status returns the current status.
func (d *Doctorate) Status() DoctorateStatus { return d.status }

// AdmittedAt returns the admission date.
func (d *Doctorate) AdmittedAt() time.Time { return d.admittedAt }

// Project returns the research project.
func (d *Doctorate) Project() Project { return d.project }

// Cotutelle returns the cotutelle block.
func (d *Doctorate) Cotutelle() Cotutelle { return d.cotutelle }

// Funding returns the funding block.
func (d *Doctorate) Funding() Funding { return d.funding }

// JuryPreparation returns the jury preparation block.
func (d *Doctorate) JuryPreparation() JuryPreparation { return d.juryPreparation }

// PublicDefense returns the public defense block.
func (d *Doctorate) PublicDefense() PublicDefense { return d.publicDefense }

// SupervisionGroupID returns the supervision group identifier.
func (d *Doctorate) SupervisionGroupID() SupervisionGroupID { return d.supervisionGroupID }

// JuryID returns the jury identifier.
func (d *Doctorate) JuryID() JuryID { return d.juryID }

// CurrentAdmissibilityID returns the current admissibility, if any.
func (d *Doctorate) CurrentAdmissibilityID() AdmissibilityID { return d.currentAdmissibilityID }

// CurrentPrivateDefenseID returns the current private defense, if any.
func (d *Doctorate) CurrentPrivateDefenseID() PrivateDefenseID { return d.currentPrivateDefenseID }

// CurrentAuthorizationID returns the current thesis-distribution authorization, if any.
func (d *Doctorate) CurrentAuthorizationID() AuthorizationID { return d.currentAuthorizationID }

// Version returns the optimistic concurrency version.
func (d *Doctorate) Version() int { return d.version }

// SetVersion is called by repositories after a successful save.
func (d *Doctorate) SetVersion(v int) { d.version = v }

// CreatedAt returns the creation time.
func (d *Doctorate) CreatedAt() time.Time { return d.createdAt }

// UpdatedAt returns the last modification time.
func (d *Doctorate) UpdatedAt() time.Time { return d.updatedAt }

// IsCombinedDefense reports whether private and public defenses are held together.
func (d *Doctorate) IsCombinedDefense() bool {
	return d.juryPreparation.Formula == FormulaCombined
}

// ModifyProject replaces the research project.
func (d *Doctorate) ModifyProject(c Caller, p Project, at time.Time) error {
	if err := d.Check(ActionModifyProject, c); err != nil {
		return err
	}
	p.Documents = copyStrings(p.Documents)
	p.ProgramProposal = copyStrings(p.ProgramProposal)
	d.project = p
	d.apply(ActionModifyProject, c, at)
	return nil
}

// ModifyFunding replaces the funding block after checking its consistency.
func (d *Doctorate) ModifyFunding(c Caller, f Funding, at time.Time) error {
	if err := d.Check(ActionModifyFunding, c); err != nil {
		return err
	}
	if err := Validate(f.Checks()...); err != nil {
		return err
	}
	f.Start = copyTime(f.Start)
	f.End = copyTime(f.End)
	f.Proof = copyStrings(f.Proof)
	d.funding = f
	d.apply(ActionModifyFunding, c, at)
	return nil
}

// ModifyCotutelle replaces the cotutelle block.
func (d *Doctorate) ModifyCotutelle(c Caller, ct Cotutelle, at time.Time) error {
	if err := d.Check(ActionModifyCotutelle, c); err != nil {
		return err
	}
	if !ct.Enabled {
		ct = Cotutelle{}
	}
	if err := Validate(Require(ct.IsComplete(), ErrCotutelleIncomplete)); err != nil {
		return err
	}
	ct.OpeningRequest = copyStrings(ct.OpeningRequest)
	ct.Convention = copyStrings(ct.Convention)
	d.cotutelle = ct
	d.apply(ActionModifyCotutelle, c, at)
	return nil
}

// ModifyJuryPreparation replaces the jury preparation block.
func (d *Doctorate) ModifyJuryPreparation(c Caller, j JuryPreparation, at time.Time) error {
	if err := d.Check(ActionModifyJuryPreparation, c); err != nil {
		return err
	}
	if j.Formula == "" {
		j.Formula = FormulaSeparate
	}
	j.IndicativeDate = copyTime(j.IndicativeDate)
	d.juryPreparation = j
	d.apply(ActionModifyJuryPreparation, c, at)
	return nil
}

// SendMessageToStudent records a free-form message sent by a manager.
func (d *Doctorate) SendMessageToStudent(c Caller, msg Message, at time.Time) error {
	if err := d.Check(ActionSendMessageToStudent, c); err != nil {
		return err
	}
	if err := Validate(msg.Checks()...); err != nil {
		return err
	}
	d.apply(ActionSendMessageToStudent, c, at)
	return nil
}

// Abandon ends the trajectory.
func (d *Doctorate) Abandon(c Caller, at time.Time) error {
	return d.Fire(ActionAbandon, c, at)
}

func (d *Doctorate) attachAdmissibility(id AdmissibilityID)   { d.currentAdmissibilityID = id }
func (d *Doctorate) attachPrivateDefense(id PrivateDefenseID) { d.currentPrivateDefenseID = id }
func (d *Doctorate) attachAuthorization(id AuthorizationID)   { d.currentAuthorizationID = id }

func (d *Doctorate) addEvent(e DomainEvent) {
	d.domainEvents = append(d.domainEvents, e)
}

// DomainEvents returns the events collected since the last clear.
func (d *Doctorate) DomainEvents() []DomainEvent {
	out := make([]DomainEvent, len(d.domainEvents))
	copy(out, d.domainEvents)
	return out
}

// ClearDomainEvents drops collected events once they have been staged.
func (d *Doctorate) ClearDomainEvents() {
	d.domainEvents = nil
}

// DoctorateSnapshot is the persisted form of a Doctorate.
type DoctorateSnapshot struct {
	ID                      DoctorateID
	Reference               string
	Serial                  int
	Student                 Student
	Training                Training
	Status                  DoctorateStatus
	AdmittedAt              time.Time
	Project                 Project
	Cotutelle               Cotutelle
	Funding                 Funding
	JuryPreparation         JuryPreparation
	PublicDefense           PublicDefense
	SupervisionGroupID      SupervisionGroupID
	JuryID                  JuryID
	CurrentAdmissibilityID  AdmissibilityID
	CurrentPrivateDefenseID PrivateDefenseID
	CurrentAuthorizationID  AuthorizationID
	Version                 int
	CreatedAt               time.Time
	UpdatedAt               time.Time
}

// Snapshot returns the persisted form of the doctorate.
func (d *Doctorate) Snapshot() DoctorateSnapshot {
	return DoctorateSnapshot{
		ID:                      d.id,
		Reference:               d.reference,
		Serial:                  d.serial,
		Student:                 d.student,
		Training:                d.training,
		Status:                  d.status,
		AdmittedAt:              d.admittedAt,
		Project:                 d.project,
		Cotutelle:               d.cotutelle,
		Funding:                 d.funding,
		JuryPreparation:         d.juryPreparation,
		PublicDefense:           d.publicDefense,
		SupervisionGroupID:      d.supervisionGroupID,
		JuryID:                  d.juryID,
		CurrentAdmissibilityID:  d.currentAdmissibilityID,
		CurrentPrivateDefenseID: d.currentPrivateDefenseID,
		CurrentAuthorizationID:  d.currentAuthorizationID,
		Version:                 d.version,
		CreatedAt:               d.createdAt,
		UpdatedAt:               d.updatedAt,
	}
}

// RestoreDoctorate rebuilds a doctorate from its persisted form. No events
// are collected.
func RestoreDoctorate(s DoctorateSnapshot) *Doctorate {
	return &Doctorate{
		id:                      s.ID,
		reference:               s.Reference,
		serial:                  s.Serial,
		student:                 s.Student,
		training:                s.Training,
		status:                  s.Status,
		admittedAt:              s.AdmittedAt,
		project:                 s.Project,
		cotutelle:               s.Cotutelle,
		funding:                 s.Funding,
		juryPreparation:         s.JuryPreparation,
		publicDefense:           s.PublicDefense,
		supervisionGroupID:      s.SupervisionGroupID,
		juryID:                  s.JuryID,
		currentAdmissibilityID:  s.CurrentAdmissibilityID,
		currentPrivateDefenseID: s.CurrentPrivateDefenseID,
		currentAuthorizationID:  s.CurrentAuthorizationID,
		version:                 s.Version,
		createdAt:               s.CreatedAt,
		updatedAt:               s.UpdatedAt,
	}
}

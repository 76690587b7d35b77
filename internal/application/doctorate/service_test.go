package doctorate

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doctrack/doctrack/internal/domain/doctorate/domain"
	"github.com/doctrack/doctrack/internal/domain/doctorate/listing"
	"github.com/doctrack/doctrack/internal/domain/doctorate/ports"
	dterrors "github.com/doctrack/doctrack/internal/errors"
	"github.com/doctrack/doctrack/internal/infrastructure/persistence"
)

var (
	testNow = time.Date(2022, 3, 1, 10, 0, 0, 0, time.UTC)

	adreManager = domain.Caller{PersonID: "adre-1", Grants: []domain.Grant{{Role: domain.RoleADREManager}}}
	cddManager  = domain.Caller{PersonID: "cdd-1", Grants: []domain.Grant{{Role: domain.RoleCDDManager, Scope: "CDA"}}}
	scebManager = domain.Caller{PersonID: "sceb-1", Grants: []domain.Grant{{Role: domain.RoleSCEBManager}}}
	student     = domain.Caller{PersonID: "student-1"}
	stranger    = domain.Caller{PersonID: "someone-else"}

	testInstitution = Institution{
		ReferencePrefix: "D",
		ADREManagerIDs:  []string{"adre-1"},
		ADRIManagerIDs:  []string{"adri-1"},
		SCEBManagerIDs:  []string{"sceb-1"},
	}

	decisionMessage = domain.Message{Subject: "Decision", Body: "Details of the decision"}
)

type fixture struct {
	t       *testing.T
	ctx     context.Context
	backend *persistence.MemoryBackend
	svc     *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	backend := persistence.NewMemoryBackend()
	clock := ports.FixedClock{At: testNow}
	return &fixture{
		t:       t,
		ctx:     context.Background(),
		backend: backend,
		svc:     NewService(persistence.NewUnitOfWorkFactory(backend, clock), clock, testInstitution),
	}
}

func date(year int, month time.Month, day int) *time.Time {
	return domain.DatePtr(year, month, day)
}

func (f *fixture) exec(c domain.Caller, cmd Command) Result {
	f.t.Helper()
	res, err := f.svc.Execute(f.ctx, c, cmd)
	require.NoError(f.t, err, cmd.Name())
	return res
}

func (f *fixture) initialize(studentID, cdd string) domain.DoctorateID {
	f.t.Helper()
	res := f.exec(adreManager, InitializeDoctorate{
		Student: domain.Student{PersonID: studentID, Noma: "12345678", LastName: "Doe", FirstName: "Jane", Email: studentID + "@uni.test", Language: "fr-BE"},
		Training: domain.Training{
			ID: "t-" + cdd, Code: "sc3dp", Acronym: "SC3DP", Title: "Doctorate in sciences",
			CDD: cdd, AcademicYear: 2021, AdmissionType: "ADMISSION",
		},
	})
	return domain.DoctorateID(res.DoctorateID)
}

func (f *fixture) status(id domain.DoctorateID) domain.DoctorateStatus {
	f.t.Helper()
	d, err := f.svc.GetDoctorate(f.ctx, id)
	require.NoError(f.t, err)
	return d.Status
}

// pending returns the undelivered outbox messages of kind, oldest first.
func (f *fixture) pending(kind ports.MessageKind) []ports.OutboxMessage {
	f.t.Helper()
	all, err := f.backend.Pending(f.ctx, 0)
	require.NoError(f.t, err)
	var out []ports.OutboxMessage
	for _, m := range all {
		if m.Kind == kind {
			out = append(out, m)
		}
	}
	return out
}

func (f *fixture) outboxSize() int {
	f.t.Helper()
	all, err := f.backend.Pending(f.ctx, 0)
	require.NoError(f.t, err)
	return len(all)
}

func payload[T any](t *testing.T, m ports.OutboxMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(m.Payload, &v))
	return v
}

func lastHistory(t *testing.T, f *fixture) ports.HistoryEntry {
	t.Helper()
	msgs := f.pending(ports.KindHistory)
	require.NotEmpty(t, msgs)
	return payload[ports.HistoryEntry](t, msgs[len(msgs)-1])
}

func lastEmail(t *testing.T, f *fixture) ports.EmailRequest {
	t.Helper()
	msgs := f.pending(ports.KindEmail)
	require.NotEmpty(t, msgs)
	return payload[ports.EmailRequest](t, msgs[len(msgs)-1])
}

func completeProject() domain.Project {
	return domain.Project{
		Title:           "Graph rewriting",
		Abstract:        "Abstract",
		Language:        "EN",
		Documents:       []string{"doc-1"},
		ProgramProposal: []string{"prog-1"},
	}
}

// admitted runs the supervision phase: two promoters and two CA members
// approve in person, promoter-1 being the reference.
func (f *fixture) admitted(id domain.DoctorateID) {
	f.t.Helper()
	f.exec(student, ModifyProject{Target: On(id), Project: completeProject()})

	members := map[string]domain.SupervisionRole{
		"promoter-1": domain.SupervisionPromoter,
		"promoter-2": domain.SupervisionPromoter,
		"ca-1":       domain.SupervisionCAMember,
		"ca-2":       domain.SupervisionCAMember,
	}
	signatories := make(map[string]domain.SignatoryID, len(members))
	for _, person := range []string{"promoter-1", "promoter-2", "ca-1", "ca-2"} {
		res := f.exec(student, IdentifySupervisionMember{Target: On(id), Role: members[person], PersonID: person})
		signatories[person] = domain.SignatoryID(res.ID)
	}
	f.exec(student, DesignateReferencePromoter{Target: On(id), SignatoryID: signatories["promoter-1"]})
	f.exec(student, RequestSignatures{Target: On(id)})
	require.Equal(f.t, domain.StatusWaitingForSignature, f.status(id))

	for _, person := range []string{"promoter-1", "promoter-2", "ca-1", "ca-2"} {
		f.exec(domain.Caller{PersonID: person}, ApproveSupervisionMember{Target: On(id), SignatoryID: signatories[person]})
	}
	require.Equal(f.t, domain.StatusAdmitted, f.status(id))
}

func (f *fixture) confirmationSubmitted(id domain.DoctorateID) {
	f.t.Helper()
	f.admitted(id)
	f.exec(student, SubmitConfirmation{Target: On(id), Date: date(2022, time.April, 1), ResearchReport: []string{"u1"}})
	require.Equal(f.t, domain.StatusConfirmationSubmitted, f.status(id))
}

func (f *fixture) confirmed(id domain.DoctorateID) {
	f.t.Helper()
	f.confirmationSubmitted(id)
	f.exec(cddManager, ConfirmSuccess{Target: On(id)})
	require.Equal(f.t, domain.StatusConfirmationSucceeded, f.status(id))
}

// juryApprovedByMembers composes a separate-defense jury on top of the two
// promoters and has every member approve it.
func (f *fixture) juryApprovedByMembers(id domain.DoctorateID) {
	f.t.Helper()
	f.confirmed(id)
	f.exec(student, ModifyJuryPreparation{Target: On(id), JuryPreparation: domain.JuryPreparation{
		ProposedTitle:     "Thesis",
		Formula:           domain.FormulaSeparate,
		IndicativeDate:    date(2024, time.June, 1),
		RedactionLanguage: "EN",
		DefenseLanguage:   "EN",
	}})
	f.exec(student, AddJuryMember{Target: On(id), Role: domain.JuryPresident, PersonID: "president-1"})
	f.exec(student, AddJuryMember{Target: On(id), Role: domain.JurySecretary, PersonID: "secretary-1"})
	f.exec(student, AddJuryMember{Target: On(id), Role: domain.JuryMember, External: &domain.ExternalPerson{
		FirstName: "Ext", LastName: "Person", Email: "ext@uni.org", Institution: "ULB",
		Country: "BE", Language: "FR", Title: "PROFESSOR", Gender: "F", IsDoctor: true,
	}})

	jury, err := f.svc.GetJury(f.ctx, id)
	require.NoError(f.t, err)
	require.Empty(f.t, jury.SignatureConditions)
	f.exec(student, SubmitJury{Target: On(id)})

	for _, m := range jury.Members {
		f.exec(cddManager, ApproveJuryMember{Target: On(id), SignatoryID: domain.SignatoryID(m.ID)})
	}
	require.Equal(f.t, domain.StatusJuryApprovedCA, f.status(id))
}

// privateDefenseAuthorized runs the workflow up to a scheduled and
// authorised private defense whose minutes are in.
func (f *fixture) privateDefenseAuthorized(id domain.DoctorateID) {
	f.t.Helper()
	f.juryApprovedByMembers(id)
	f.exec(cddManager, ApproveJuryByCDD{Target: On(id)})
	f.exec(adreManager, ApproveJuryByADRE{Target: On(id)})

	f.exec(student, ModifyAdmissibility{Target: On(id), DecisionDate: date(2024, time.April, 1), ManuscriptSubmissionDate: date(2024, time.March, 15)})
	f.exec(student, SubmitAdmissibility{Target: On(id)})
	f.exec(cddManager, SubmitAdmissibilityMinutes{Target: On(id), Minutes: []string{"admissibility-minutes"}})
	f.exec(cddManager, AdmissibilitySuccess{Target: On(id)})
	require.Equal(f.t, domain.StatusAdmissibilitySucceeded, f.status(id))

	f.exec(student, ModifyPrivateDefense{Target: On(id), At: date(2024, time.May, 10), Place: "Room 101", ManuscriptSubmissionDate: date(2024, time.April, 20)})
	f.exec(student, SubmitPrivateDefense{Target: On(id)})
	f.exec(cddManager, AuthorisePrivateDefense{Target: On(id), Message: decisionMessage})
	f.exec(cddManager, SubmitPrivateDefenseMinutes{Target: On(id), Minutes: []string{"defense-minutes"}})
	require.Equal(f.t, domain.StatusPrivateDefenseAuthorized, f.status(id))
}

func TestService_InitializeDoctorate(t *testing.T) {
	f := newFixture(t)

	id := f.initialize("student-1", "CDA")

	d, err := f.svc.GetDoctorate(f.ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAdmitted, d.Status)
	assert.Equal(t, domain.FormatReference("D", "sc3dp", 1), d.Reference)
	assert.True(t, testNow.Equal(d.AdmittedAt))

	papers, err := f.svc.ListConfirmationPapers(f.ctx, id)
	require.NoError(t, err)
	require.Len(t, papers, 1)
	assert.True(t, papers[0].Active)

	entry := lastHistory(t, f)
	assert.Equal(t, []string{domain.PhaseDoctorate, TagInitialized}, entry.Tags)
	assert.Equal(t, string(id), entry.ObjectID)
}

func TestService_InitializeRequiresADRE(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Execute(f.ctx, cddManager, InitializeDoctorate{
		Student:  domain.Student{PersonID: "student-1"},
		Training: domain.Training{Code: "sc3dp", CDD: "CDA"},
	})

	assert.True(t, dterrors.IsKind(err, dterrors.KindPermission))
	assert.Zero(t, f.outboxSize())
}

func TestService_SupervisionInvitations(t *testing.T) {
	f := newFixture(t)
	id := f.initialize("student-1", "CDA")
	f.exec(student, ModifyProject{Target: On(id), Project: completeProject()})
	ref := f.exec(student, IdentifySupervisionMember{Target: On(id), Role: domain.SupervisionPromoter, PersonID: "promoter-1"})
	f.exec(student, IdentifySupervisionMember{Target: On(id), Role: domain.SupervisionCAMember, PersonID: "ca-1"})
	f.exec(student, IdentifySupervisionMember{Target: On(id), Role: domain.SupervisionCAMember, PersonID: "ca-2"})
	f.exec(student, DesignateReferencePromoter{Target: On(id), SignatoryID: domain.SignatoryID(ref.ID)})

	f.exec(student, RequestSignatures{Target: On(id)})

	email := lastEmail(t, f)
	assert.Equal(t, TemplateSupervisionInvitation, email.Template)
	assert.Equal(t, "CDA", email.ManagementEntity)
	assert.ElementsMatch(t, []ports.Recipient{{PersonID: "promoter-1"}, {PersonID: "ca-1"}, {PersonID: "ca-2"}}, email.To)
	assert.Equal(t, "Jane", email.Vars["student_first_name"])
	assert.Len(t, f.pending(ports.KindWeb), 3)

	group, err := f.svc.GetSupervisionGroup(f.ctx, id)
	require.NoError(t, err)
	assert.Equal(t, ref.ID, group.ReferencePromoter)
}

func TestService_ConfirmationSuccess(t *testing.T) {
	f := newFixture(t)
	id := f.initialize("student-1", "CDA")
	f.confirmationSubmitted(id)

	submitted := lastEmail(t, f)
	assert.Equal(t, TemplateConfirmationSubmitted, submitted.Template)
	assert.Equal(t, []ports.Recipient{{PersonID: "adre-1"}}, submitted.To)

	res := f.exec(cddManager, ConfirmSuccess{Target: On(id)})

	assert.Equal(t, domain.StatusConfirmationSucceeded, f.status(id))
	entry := lastHistory(t, f)
	assert.Equal(t, []string{domain.PhaseConfirmation, domain.TagStatusChanged}, entry.Tags)
	assert.Equal(t, "cdd-1", entry.Author)

	tasks := f.pending(ports.KindTask)
	require.Len(t, tasks, 1)
	task := payload[ports.Task](t, tasks[0])
	assert.Equal(t, TaskGenerateCertificate, task.Name)
	assert.Equal(t, TaskKindConfirmationSuccess, task.Kind)
	assert.Equal(t, "student-1", task.Owner)
	assert.Equal(t, res.ID, task.Context["paper_id"])

	f.exec(domain.System, RecordConfirmationCertificate{Target: On(id), Certificate: []string{"certificate"}})
	paper, err := f.svc.LastConfirmationPaper(f.ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []string{"certificate"}, paper.CertificateOfAchievement)
}

func TestService_ConfirmationRequiresCDDManager(t *testing.T) {
	f := newFixture(t)
	id := f.initialize("student-1", "CDA")
	f.confirmationSubmitted(id)
	before := f.outboxSize()

	_, err := f.svc.Execute(f.ctx, student, ConfirmSuccess{Target: On(id)})

	assert.Error(t, err)
	assert.Equal(t, domain.StatusConfirmationSubmitted, f.status(id))
	assert.Equal(t, before, f.outboxSize())
}

func TestService_ConfirmationRetake(t *testing.T) {
	f := newFixture(t)
	id := f.initialize("student-1", "CDA")
	f.confirmationSubmitted(id)

	res := f.exec(cddManager, ConfirmRetake{Target: On(id), Message: decisionMessage, NewDeadline: date(2023, time.December, 31)})

	assert.Equal(t, domain.StatusConfirmationToRepeat, f.status(id))
	papers, err := f.svc.ListConfirmationPapers(f.ctx, id)
	require.NoError(t, err)
	require.Len(t, papers, 2)
	assert.False(t, papers[0].Active)
	assert.True(t, papers[1].Active)
	assert.Equal(t, res.ID, papers[1].ID)
	require.NotNil(t, papers[1].Deadline)
	assert.True(t, date(2023, time.December, 31).Equal(*papers[1].Deadline))

	email := lastEmail(t, f)
	assert.Equal(t, decisionMessage.Subject, email.Subject)
	assert.Equal(t, decisionMessage.Body, email.Body)
	assert.Equal(t, []ports.Recipient{{PersonID: "student-1", Email: "student-1@uni.test", Language: "fr-BE"}}, email.To)

	f.exec(student, SubmitConfirmation{Target: On(id), Date: date(2023, time.June, 1), ResearchReport: []string{"u2"}})
	assert.Equal(t, domain.StatusConfirmationSubmitted, f.status(id))
}

func TestService_ConfirmationFailure(t *testing.T) {
	f := newFixture(t)
	id := f.initialize("student-1", "CDA")
	f.confirmationSubmitted(id)

	f.exec(cddManager, ConfirmFailure{Target: On(id), Message: decisionMessage})

	assert.Equal(t, domain.StatusNotAuthorizedToContinue, f.status(id))
	email := lastEmail(t, f)
	assert.ElementsMatch(t, []ports.Recipient{{PersonID: "adre-1"}, {PersonID: "adri-1"}}, email.Cc)
	tasks := f.pending(ports.KindTask)
	require.Len(t, tasks, 1)
	assert.Equal(t, TaskKindConfirmationFailure, payload[ports.Task](t, tasks[0]).Kind)
}

func TestService_RejectJuryByCDD(t *testing.T) {
	f := newFixture(t)
	id := f.initialize("student-1", "CDA")
	f.juryApprovedByMembers(id)
	before := f.outboxSize()

	_, err := f.svc.Execute(f.ctx, cddManager, RejectJuryByCDD{Target: On(id)})

	assert.True(t, dterrors.HasCode(err, domain.ErrJuryRefusalReasonUnspecified.Code))
	assert.Equal(t, domain.StatusJuryApprovedCA, f.status(id))
	assert.Equal(t, before, f.outboxSize())

	f.exec(cddManager, RejectJuryByCDD{Target: On(id), Reason: "Not enough external members"})

	assert.Equal(t, domain.StatusJuryRejectedCDD, f.status(id))
	entry := lastHistory(t, f)
	assert.Equal(t, []string{domain.PhaseJury, domain.TagStatusChanged}, entry.Tags)
	email := lastEmail(t, f)
	assert.Equal(t, TemplateJuryRejected, email.Template)
	assert.Equal(t, "Not enough external members", email.Vars["reason"])

	jury, err := f.svc.GetJury(f.ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.SigningInProgress, jury.SigningStatus)
}

func TestService_JuryApprovalOpensAdmissibility(t *testing.T) {
	f := newFixture(t)
	id := f.initialize("student-1", "CDA")
	f.juryApprovedByMembers(id)

	_, err := f.svc.Execute(f.ctx, adreManager, ApproveJuryByADRE{Target: On(id)})
	assert.Error(t, err, "ADRE approves after the CDD")

	f.exec(cddManager, ApproveJuryByCDD{Target: On(id)})
	res := f.exec(adreManager, ApproveJuryByADRE{Target: On(id)})

	assert.Equal(t, domain.StatusJuryApprovedADRE, f.status(id))
	a, err := f.svc.GetAdmissibility(f.ctx, id)
	require.NoError(t, err)
	assert.Equal(t, res.ID, a.ID)
	assert.True(t, a.Active)
}

func TestService_PrivateDefenseRepeat(t *testing.T) {
	f := newFixture(t)
	id := f.initialize("student-1", "CDA")
	f.privateDefenseAuthorized(id)
	first, err := f.svc.CurrentPrivateDefense(f.ctx, id)
	require.NoError(t, err)

	res := f.exec(cddManager, PrivateDefenseRepeat{Target: On(id), Message: decisionMessage})

	assert.Equal(t, domain.StatusPrivateDefenseToRepeat, f.status(id))
	defenses, err := f.svc.ListPrivateDefenses(f.ctx, id)
	require.NoError(t, err)
	require.Len(t, defenses, 2)
	assert.False(t, defenses[0].Active)
	assert.Equal(t, []string{"defense-minutes"}, defenses[0].Minutes)
	assert.True(t, defenses[1].Active)
	assert.Nil(t, defenses[1].At)

	current, err := f.svc.CurrentPrivateDefense(f.ctx, id)
	require.NoError(t, err)
	assert.Equal(t, res.ID, current.ID)
	assert.NotEqual(t, first.ID, current.ID)

	old, err := f.svc.GetPrivateDefense(f.ctx, id, domain.PrivateDefenseID(first.ID))
	require.NoError(t, err)
	assert.False(t, old.Active)

	email := lastEmail(t, f)
	assert.Equal(t, decisionMessage.Subject, email.Subject)
	assert.ElementsMatch(t, []ports.Recipient{{PersonID: "promoter-1"}, {PersonID: "promoter-2"}}, email.Cc)
}

func TestService_AuthorizationChain(t *testing.T) {
	f := newFixture(t)
	id := f.initialize("student-1", "CDA")
	f.privateDefenseAuthorized(id)
	f.exec(cddManager, PrivateDefenseSuccess{Target: On(id)})
	require.Equal(t, domain.StatusPrivateDefenseSucceeded, f.status(id))

	f.exec(student, EncodeAuthorization{Target: On(id), Form: domain.AuthorizationForm{
		FundingSources:    "FNRS",
		EnglishAbstract:   "Abstract",
		RedactionLanguage: "EN",
		Keywords:          []string{"graphs"},
		Conditions:        domain.ConditionsFreeAccess,
	}})
	f.exec(student, SendAuthorizationToPromoter{Target: On(id), AcceptedConditions: "I accept"})
	email := lastEmail(t, f)
	assert.Equal(t, TemplateAuthorizationToSign, email.Template)
	assert.Equal(t, []ports.Recipient{{PersonID: "promoter-1"}}, email.To)

	_, err := f.svc.Execute(f.ctx, domain.Caller{PersonID: "promoter-2"}, ApproveAuthorization{Target: On(id), Role: domain.AuthorizationPromoter})
	assert.Error(t, err, "only the reference promoter signs")

	f.exec(domain.Caller{PersonID: "promoter-1"}, ApproveAuthorization{Target: On(id), Role: domain.AuthorizationPromoter})
	assert.Equal(t, []ports.Recipient{{PersonID: "adre-1"}}, lastEmail(t, f).To)

	f.exec(adreManager, ApproveAuthorization{Target: On(id), Role: domain.AuthorizationADRE})
	assert.Equal(t, []ports.Recipient{{PersonID: "sceb-1"}}, lastEmail(t, f).To)

	f.exec(scebManager, ApproveAuthorization{Target: On(id), Role: domain.AuthorizationSCEB})

	a, err := f.svc.GetAuthorization(f.ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.AuthorizationValidated, a.Status)
	assert.Len(t, a.Signatories, 3)
	assert.Equal(t, TemplateAuthorizationValidated, lastEmail(t, f).Template)
	assert.Equal(t, domain.StatusPrivateDefenseSucceeded, f.status(id))
	assert.Equal(t, []string{domain.PhaseAuthorization, "validated"}, lastHistory(t, f).Tags)
}

func TestService_RejectedCommandLeavesNoTrace(t *testing.T) {
	f := newFixture(t)
	id := f.initialize("student-1", "CDA")
	before := f.outboxSize()

	_, err := f.svc.Execute(f.ctx, stranger, ModifyProject{Target: On(id), Project: completeProject()})

	assert.Error(t, err)
	assert.Equal(t, before, f.outboxSize())
	d, err := f.svc.GetDoctorate(f.ctx, id)
	require.NoError(t, err)
	assert.Empty(t, d.Project.Title)
	assert.Equal(t, 1, d.Version)
}

func TestService_UnknownDoctorate(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Execute(f.ctx, adreManager, Abandon{Target: On("missing")})
	assert.True(t, dterrors.IsKind(err, dterrors.KindNotFound))

	_, err = f.svc.GetDoctorate(f.ctx, "missing")
	assert.True(t, dterrors.IsKind(err, dterrors.KindNotFound))
}

func TestService_MissingObjectsReportStatusFirst(t *testing.T) {
	f := newFixture(t)
	id := f.initialize("student-1", "CDA")

	_, err := f.svc.Execute(f.ctx, cddManager, AdmissibilitySuccess{Target: On(id)})
	assert.Error(t, err)
	assert.False(t, dterrors.HasCode(err, domain.ErrAdmissibilityNotFound.Code))

	_, err = f.svc.GetAdmissibility(f.ctx, id)
	assert.True(t, dterrors.IsKind(err, dterrors.KindNotFound))
	_, err = f.svc.GetAuthorization(f.ctx, id)
	assert.True(t, dterrors.IsKind(err, dterrors.KindNotFound))
}

func TestService_GetJuryBeforeAnyEdit(t *testing.T) {
	f := newFixture(t)
	id := f.initialize("student-1", "CDA")
	f.admitted(id)

	jury, err := f.svc.GetJury(f.ctx, id)

	require.NoError(t, err)
	require.Len(t, jury.Members, 2)
	for _, m := range jury.Members {
		assert.True(t, m.IsPromoter)
	}
	assert.Contains(t, jury.SignatureConditions, domain.ErrDefenseMethodIncomplete.Code)
	assert.Contains(t, jury.SignatureConditions, domain.ErrRolesNotAssigned.Code)
}

func TestService_AllowedActions(t *testing.T) {
	f := newFixture(t)
	id := f.initialize("student-1", "CDA")

	studentActions, err := f.svc.AllowedActions(f.ctx, student, id)
	require.NoError(t, err)
	assert.Contains(t, studentActions, string(domain.ActionModifyProject))
	assert.NotContains(t, studentActions, string(domain.ActionConfirmSuccess))

	strangerActions, err := f.svc.AllowedActions(f.ctx, stranger, id)
	require.NoError(t, err)
	assert.Empty(t, strangerActions)
}

func TestService_ListDoctorates(t *testing.T) {
	f := newFixture(t)
	var ids []domain.DoctorateID
	for i := 1; i <= 10; i++ {
		cdd := "CDA"
		if i%3 == 0 {
			cdd = "CDB"
		}
		ids = append(ids, f.initialize(fmt.Sprintf("student-%d", i), cdd))
	}

	all, err := f.svc.ListDoctorates(f.ctx, adreManager, listing.Filter{})
	require.NoError(t, err)
	assert.Equal(t, 10, all.Total)

	cda, err := f.svc.ListDoctorates(f.ctx, cddManager, listing.Filter{})
	require.NoError(t, err)
	assert.Equal(t, 7, cda.Total)

	cdb, err := f.svc.ListDoctorates(f.ctx, adreManager, listing.Filter{CDDs: []string{"CDB"}})
	require.NoError(t, err)
	assert.Equal(t, []string{string(ids[2]), string(ids[5]), string(ids[8])}, cdb.IDs)

	own, err := f.svc.ListDoctorates(f.ctx, domain.Caller{PersonID: "student-4"}, listing.Filter{})
	require.NoError(t, err)
	assert.Equal(t, []string{string(ids[3])}, own.IDs)

	page, err := f.svc.ListDoctorates(f.ctx, adreManager, listing.Filter{Page: 2, PageSize: 4})
	require.NoError(t, err)
	assert.Equal(t, 10, page.Total)
	require.Len(t, page.Items, 4)
	for i, item := range page.Items {
		assert.Equal(t, string(ids[4+i]), item.ID)
	}
}

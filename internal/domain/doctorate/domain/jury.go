package domain

import (
	"strings"
	"time"

	dterrors "github.com/doctrack/doctrack/internal/errors"
)

// JuryRole is the role of a jury signatory.
type JuryRole string

// Jury roles. CDD and ADRE are the signatures of the managers validating
// the composition; they are not jury members.
const (
	JuryPresident JuryRole = "PRESIDENT"
	JurySecretary JuryRole = "SECRETARY"
	JuryMember    JuryRole = "MEMBER"
	JuryCDD       JuryRole = "CDD"
	JuryADRE      JuryRole = "ADRE"
)

// MinJuryMembers is the smallest jury that can be submitted.
const MinJuryMembers = 4

// IsMemberRole reports whether r is held by a jury member rather than a
// validating manager.
func (r JuryRole) IsMemberRole() bool {
	return r == JuryPresident || r == JurySecretary || r == JuryMember
}

var juryCodes = SignatureCodes{
	NotFound:       ErrJuryMemberNotFound,
	NotInvited:     ErrJurySignatoryNotInvited,
	AlreadyInvited: ErrJurySignatoryAlreadyInvited,
	ReasonMissing:  ErrJuryRefusalReasonUnspecified,
}

// Jury is the examination board of a doctorate. Promoters of the
// supervision group sit in it as members and are managed from there.
type Jury struct {
	id            JuryID
	doctorateID   DoctorateID
	members       SignatureGroup[JuryRole]
	promoters     map[SignatoryID]bool
	signingStatus SigningStatus
	version       int
}

// NewJury creates the jury of a doctorate seeded with the promoters of its
// supervision group.
func NewJury(d *Doctorate, g *SupervisionGroup) *Jury {
	j := &Jury{
		id:            d.JuryID(),
		doctorateID:   d.ID(),
		members:       NewSignatureGroup[JuryRole](juryCodes),
		promoters:     make(map[SignatoryID]bool),
		signingStatus: SigningInProgress,
	}
	if g != nil {
		for _, p := range g.Promoters() {
			id := NewSignatoryID()
			j.members.Add(id, JuryMember, p.Identity)
			j.promoters[id] = true
		}
	}
	return j
}

// ID returns the jury identifier.
func (j *Jury) ID() JuryID { return j.id }

// DoctorateID returns the owning doctorate.
func (j *Jury) DoctorateID() DoctorateID { return j.doctorateID }

// Signatories returns members and manager signatures in insertion order.
func (j *Jury) Signatories() []Signatory[JuryRole] { return j.members.All() }

// Members returns the jury members, managers excluded.
func (j *Jury) Members() []Signatory[JuryRole] {
	var out []Signatory[JuryRole]
	for _, s := range j.members.All() {
		if s.Role.IsMemberRole() {
			out = append(out, s)
		}
	}
	return out
}

// Member returns one signatory.
func (j *Jury) Member(id SignatoryID) (Signatory[JuryRole], error) { return j.members.Find(id) }

// IsPromoter reports whether the member comes from the supervision group.
func (j *Jury) IsPromoter(id SignatoryID) bool { return j.promoters[id] }

// SigningStatus returns whether the jury is locked in a signing round.
func (j *Jury) SigningStatus() SigningStatus { return j.signingStatus }

// Version returns the optimistic concurrency version.
func (j *Jury) Version() int { return j.version }

// SetVersion is called by repositories after a successful save.
func (j *Jury) SetVersion(v int) { j.version = v }

// President returns the president, if any.
func (j *Jury) President() (Signatory[JuryRole], bool) { return j.holder(JuryPresident) }

// Secretary returns the secretary, if any.
func (j *Jury) Secretary() (Signatory[JuryRole], bool) { return j.holder(JurySecretary) }

func (j *Jury) holder(role JuryRole) (Signatory[JuryRole], bool) {
	members := j.members.WithRole(role)
	if len(members) == 0 {
		return Signatory[JuryRole]{}, false
	}
	return members[0], true
}

// IsApprovedByMembers reports whether every member approved.
func (j *Jury) IsApprovedByMembers() bool {
	return j.members.AllInState(SignatureApproved, func(s Signatory[JuryRole]) bool { return s.Role.IsMemberRole() })
}

// MembershipsOf returns the roles personID holds in the jury.
func (j *Jury) MembershipsOf(personID string) []Membership {
	if personID == "" {
		return nil
	}
	var out []Membership
	for _, s := range j.Members() {
		if PersonID(s.Identity) != personID {
			continue
		}
		role := RoleJuryMember
		switch s.Role {
		case JuryPresident:
			role = RoleJuryPresident
		case JurySecretary:
			role = RoleJurySecretary
		}
		out = append(out, Membership{DoctorateID: j.doctorateID, Role: role})
	}
	return out
}

func (j *Jury) unlocked() Check {
	return Require(j.signingStatus == SigningInProgress, ErrJuryLocked)
}

func juryExternalChecks(ext *ExternalPerson) []Check {
	if ext == nil {
		return nil
	}
	return []Check{
		Require(ext.IsDoctor || strings.TrimSpace(ext.NonDoctorJustification) != "", ErrNonDoctorWithoutJustified),
		Require(ext.Institution != "" || ext.OtherInstitution != "", ErrExternalWithoutInstitution),
		RequireText(ext.Country, ErrExternalWithoutCountry),
		RequireText(ext.LastName, ErrExternalWithoutLastName),
		RequireText(ext.FirstName, ErrExternalWithoutFirstName),
		RequireText(ext.Title, ErrExternalWithoutTitle),
		RequireText(ext.Gender, ErrExternalWithoutGender),
		RequireText(ext.Email, ErrExternalWithoutEmail),
		RequireText(ext.Language, ErrExternalWithoutLanguage),
	}
}

func (j *Jury) duplicateOf(identity Identity, except SignatoryID) Check {
	return func() error {
		for _, s := range j.members.All() {
			if s.ID != except && s.Role.IsMemberRole() && sameIdentity(s.Identity, identity) {
				return ErrAlreadyInJury
			}
		}
		return nil
	}
}

func (j *Jury) singleton(role JuryRole, except SignatoryID) Check {
	return func() error {
		if role != JuryPresident && role != JurySecretary {
			return nil
		}
		if h, ok := j.holder(role); ok && h.ID != except {
			return ErrTooManyRoles
		}
		return nil
	}
}

// AddMember adds an internal or external member with a member role.
func (j *Jury) AddMember(d *Doctorate, c Caller, role JuryRole, personID string, ext *ExternalPerson, at time.Time) (SignatoryID, error) {
	if err := d.Check(ActionAddJuryMember, c); err != nil {
		return "", err
	}
	identity, idErr := NewIdentity(personID, ext)
	err := ValidatorList{
		Contract: append([]Check{
			func() error { return idErr },
			Require(role.IsMemberRole(), ErrNotAJuryMember),
		}, juryExternalChecks(ext)...),
		Invariants: []Check{
			j.unlocked(),
			j.duplicateOf(identity, ""),
			j.singleton(role, ""),
		},
	}.Validate()
	if err != nil {
		return "", err
	}
	id := NewSignatoryID()
	j.members.Add(id, role, identity)
	d.apply(ActionAddJuryMember, c, at)
	return id, nil
}

// memberChecks guards edition of one non-promoter member.
func (j *Jury) memberChecks(id SignatoryID, promoterErr *dterrors.BusinessError) []Check {
	member, findErr := j.members.Find(id)
	return []Check{
		j.unlocked(),
		func() error { return findErr },
		Require(!j.promoters[id], promoterErr),
		Require(findErr != nil || member.Role.IsMemberRole(), ErrNotAJuryMember),
	}
}

// ModifyMember replaces the identity of a member. Promoters are edited in
// the supervision group.
func (j *Jury) ModifyMember(d *Doctorate, c Caller, id SignatoryID, personID string, ext *ExternalPerson, at time.Time) error {
	if err := d.Check(ActionModifyJuryMember, c); err != nil {
		return err
	}
	identity, idErr := NewIdentity(personID, ext)
	err := ValidatorList{
		Contract:   append([]Check{func() error { return idErr }}, juryExternalChecks(ext)...),
		Invariants: append(j.memberChecks(id, ErrPromoterModified), j.duplicateOf(identity, id)),
	}.Validate()
	if err != nil {
		return err
	}
	member, _ := j.members.Find(id)
	member.Identity = identity
	j.members.Put(member)
	d.apply(ActionModifyJuryMember, c, at)
	return nil
}

// RemoveMember removes a non-promoter member.
func (j *Jury) RemoveMember(d *Doctorate, c Caller, id SignatoryID, at time.Time) error {
	if err := d.Check(ActionRemoveJuryMember, c); err != nil {
		return err
	}
	if err := Validate(j.memberChecks(id, ErrPromoterRemoved)...); err != nil {
		return err
	}
	if err := j.members.Remove(id); err != nil {
		return err
	}
	d.apply(ActionRemoveJuryMember, c, at)
	return nil
}

// ModifyMemberRole changes the role of a member. Taking the president or
// secretary role demotes its previous holder to MEMBER.
func (j *Jury) ModifyMemberRole(d *Doctorate, c Caller, id SignatoryID, role JuryRole, at time.Time) error {
	if err := d.Check(ActionModifyJuryMemberRole, c); err != nil {
		return err
	}
	member, findErr := j.members.Find(id)
	err := ValidatorList{
		Contract: []Check{Require(role.IsMemberRole(), ErrNotAJuryMember)},
		Invariants: []Check{
			j.unlocked(),
			func() error { return findErr },
			Require(findErr != nil || member.Role.IsMemberRole(), ErrNotAJuryMember),
			Require(!(j.promoters[id] && role == JuryPresident), ErrPromoterPresident),
		},
	}.Validate()
	if err != nil {
		return err
	}
	if role != JuryMember {
		if h, ok := j.holder(role); ok && h.ID != id {
			h.Role = JuryMember
			j.members.Put(h)
		}
	}
	member.Role = role
	j.members.Put(member)
	d.apply(ActionModifyJuryMemberRole, c, at)
	return nil
}

// SubmissionChecks returns the conditions to request the members'
// signatures.
func (j *Jury) SubmissionChecks(d *Doctorate) []Check {
	members := j.Members()
	hasExternal := false
	for _, m := range members {
		if IsExternal(m.Identity) {
			hasExternal = true
		}
	}
	_, hasPresident := j.President()
	_, hasSecretary := j.Secretary()
	return []Check{
		Require(d.JuryPreparation().IsComplete(), ErrDefenseMethodIncomplete),
		Require(len(members) >= MinJuryMembers, ErrJuryNotEnoughMembers),
		Require(hasExternal, ErrJuryNoExternalMember),
		Require(hasPresident && hasSecretary, ErrRolesNotAssigned),
	}
}

// Submit locks the jury, drops the previous manager signatures and invites
// every member. It returns the invited members.
func (j *Jury) Submit(d *Doctorate, c Caller, at time.Time) ([]SignatoryID, error) {
	if err := d.Check(ActionSubmitJury, c); err != nil {
		return nil, err
	}
	if err := Validate(j.SubmissionChecks(d)...); err != nil {
		return nil, err
	}
	j.members.RemoveRole(JuryCDD)
	j.members.RemoveRole(JuryADRE)
	j.signingStatus = SigningSignatureProgress
	invited := j.members.Invite(at)
	d.apply(ActionSubmitJury, c, at)
	return invited, nil
}

// ResendInvitation returns the member to notify again.
func (j *Jury) ResendInvitation(d *Doctorate, c Caller, id SignatoryID, at time.Time) (Signatory[JuryRole], error) {
	if err := d.Check(ActionResendJuryInvite, c); err != nil {
		return Signatory[JuryRole]{}, err
	}
	if err := j.members.CheckInvitable(id); err != nil {
		return Signatory[JuryRole]{}, err
	}
	d.apply(ActionResendJuryInvite, c, at)
	s, _ := j.members.Find(id)
	return s, nil
}

// ApproveMember records the approval of a member. When every member
// approved the doctorate moves to JURY_APPROVED_CA; the flag reports it.
func (j *Jury) ApproveMember(d *Doctorate, c Caller, id SignatoryID, internalComment, externalComment string, at time.Time) (bool, error) {
	if err := d.Check(ActionApproveJuryMember, c); err != nil {
		return false, err
	}
	member, err := j.members.Find(id)
	if err != nil {
		return false, err
	}
	if err := respondingAs(c, d, member, "jury.ApproveMember"); err != nil {
		return false, err
	}
	if err := j.members.Approve(id, internalComment, externalComment, at); err != nil {
		return false, err
	}
	d.apply(ActionApproveJuryMember, c, at)
	return j.completeIfApproved(d, c, at), nil
}

// ApproveMemberByPDF records an approval attested by a signed document.
func (j *Jury) ApproveMemberByPDF(d *Doctorate, c Caller, id SignatoryID, pdf []string, at time.Time) (bool, error) {
	if err := d.Check(ActionApproveJuryMemberPDF, c); err != nil {
		return false, err
	}
	if err := Validate(RequireDocs(pdf, ErrApprovalDocumentMissing), func() error { return j.members.CheckInvited(id) }); err != nil {
		return false, err
	}
	if err := j.members.ApproveByPDF(id, pdf, at); err != nil {
		return false, err
	}
	d.apply(ActionApproveJuryMemberPDF, c, at)
	return j.completeIfApproved(d, c, at), nil
}

func (j *Jury) completeIfApproved(d *Doctorate, c Caller, at time.Time) bool {
	if !j.IsApprovedByMembers() {
		return false
	}
	return d.advance(ActionJuryApprovedByMembers, c, at)
}

// DeclineMember records a refusal, unlocks the jury and sends the doctorate
// back to jury edition.
func (j *Jury) DeclineMember(d *Doctorate, c Caller, id SignatoryID, reason, internalComment, externalComment string, at time.Time) error {
	if err := d.Check(ActionDeclineJuryMember, c); err != nil {
		return err
	}
	member, err := j.members.Find(id)
	if err != nil {
		return err
	}
	if err := respondingAs(c, d, member, "jury.DeclineMember"); err != nil {
		return err
	}
	if err := j.members.Decline(id, reason, internalComment, externalComment, at); err != nil {
		return err
	}
	j.signingStatus = SigningInProgress
	d.apply(ActionDeclineJuryMember, c, at)
	d.advance(ActionJuryDeclinedByMember, c, at)
	return nil
}

// ResetSignatures unlocks the jury and returns every member to NOT_INVITED.
func (j *Jury) ResetSignatures(d *Doctorate, c Caller, at time.Time) error {
	if err := d.Check(ActionResetJurySignatures, c); err != nil {
		return err
	}
	j.members.Reset()
	j.signingStatus = SigningInProgress
	d.apply(ActionResetJurySignatures, c, at)
	return nil
}

func (j *Jury) managerSignature(role JuryRole, c Caller, sig Signature) {
	j.members.RemoveRole(role)
	j.members.Put(Signatory[JuryRole]{
		ID:        NewSignatoryID(),
		Role:      role,
		Identity:  InternalPerson{PersonID: c.PersonID},
		Signature: sig,
	})
}

// ApproveByCDD records the approval of the CDD manager.
func (j *Jury) ApproveByCDD(d *Doctorate, c Caller, comment string, at time.Time) error {
	if err := d.Check(ActionApproveJuryCDD, c); err != nil {
		return err
	}
	j.managerSignature(JuryCDD, c, Signature{State: SignatureApproved, At: &at, InternalComment: comment})
	d.apply(ActionApproveJuryCDD, c, at)
	return nil
}

// ApproveByADRE records the approval of the ADRE manager and opens the
// admissibility review, which is returned.
func (j *Jury) ApproveByADRE(d *Doctorate, c Caller, comment string, at time.Time) (*Admissibility, error) {
	if err := d.Check(ActionApproveJuryADRE, c); err != nil {
		return nil, err
	}
	j.managerSignature(JuryADRE, c, Signature{State: SignatureApproved, At: &at, InternalComment: comment})
	d.apply(ActionApproveJuryADRE, c, at)
	return NewAdmissibility(d, at), nil
}

// RejectByCDD records the refusal of the CDD manager.
func (j *Jury) RejectByCDD(d *Doctorate, c Caller, reason, internalComment, externalComment string, at time.Time) error {
	return j.reject(d, c, ActionRejectJuryCDD, JuryCDD, reason, internalComment, externalComment, at)
}

// RejectByADRE records the refusal of the ADRE manager.
func (j *Jury) RejectByADRE(d *Doctorate, c Caller, reason, internalComment, externalComment string, at time.Time) error {
	return j.reject(d, c, ActionRejectJuryADRE, JuryADRE, reason, internalComment, externalComment, at)
}

// reject clears every signature so the jury can be edited and submitted
// again, then keeps the refusal as a DECLINED manager signature.
func (j *Jury) reject(d *Doctorate, c Caller, action Action, role JuryRole, reason, internalComment, externalComment string, at time.Time) error {
	if err := d.Check(action, c); err != nil {
		return err
	}
	if err := Validate(RequireText(reason, ErrJuryRefusalReasonUnspecified)); err != nil {
		return err
	}
	j.members.RemoveRole(JuryCDD)
	j.members.RemoveRole(JuryADRE)
	j.members.Reset()
	j.signingStatus = SigningInProgress
	j.managerSignature(role, c, Signature{
		State:           SignatureDeclined,
		At:              &at,
		InternalComment: internalComment,
		ExternalComment: externalComment,
		RefusalReason:   strings.TrimSpace(reason),
	})
	d.apply(action, c, at)
	return nil
}

// JurySnapshot is the persisted form of a Jury.
type JurySnapshot struct {
	ID            JuryID
	DoctorateID   DoctorateID
	Members       []Signatory[JuryRole]
	Promoters     []SignatoryID
	SigningStatus SigningStatus
	Version       int
}

// Snapshot returns the persisted form of the jury.
func (j *Jury) Snapshot() JurySnapshot {
	s := JurySnapshot{
		ID:            j.id,
		DoctorateID:   j.doctorateID,
		Members:       j.members.All(),
		SigningStatus: j.signingStatus,
		Version:       j.version,
	}
	for _, m := range s.Members {
		if j.promoters[m.ID] {
			s.Promoters = append(s.Promoters, m.ID)
		}
	}
	return s
}

// RestoreJury rebuilds a jury from its persisted form.
func RestoreJury(s JurySnapshot) *Jury {
	j := &Jury{
		id:            s.ID,
		doctorateID:   s.DoctorateID,
		members:       NewSignatureGroup[JuryRole](juryCodes),
		promoters:     make(map[SignatoryID]bool, len(s.Promoters)),
		signingStatus: s.SigningStatus,
		version:       s.Version,
	}
	j.members.Restore(s.Members)
	for _, id := range s.Promoters {
		j.promoters[id] = true
	}
	return j
}

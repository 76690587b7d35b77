package domain

import (
	"strings"
	"time"

	dterrors "github.com/doctrack/doctrack/internal/errors"
)

// SupervisionRole is the role of an actor of the supervision group.
type SupervisionRole string

// Supervision roles.
const (
	SupervisionPromoter SupervisionRole = "PROMOTER"
	SupervisionCAMember SupervisionRole = "CA_MEMBER"
)

// Supervision group size limits.
const (
	MaxPromoters = 4
	MaxCAMembers = 10
	MinCAMembers = 2
)

var supervisionCodes = SignatureCodes{
	NotFound:       ErrSignatoryNotFound,
	NotInvited:     ErrSignatoryNotInvited,
	AlreadyInvited: ErrSignatoryAlreadyInvited,
	ReasonMissing:  ErrSupervisionRefusalReasonAbsent,
}

// SupervisionGroup holds the promoters and CA members of a doctorate and
// their signatures.
type SupervisionGroup struct {
	id                SupervisionGroupID
	doctorateID       DoctorateID
	members           SignatureGroup[SupervisionRole]
	referencePromoter SignatoryID
	signingStatus     SigningStatus
	version           int
}

// NewSupervisionGroup creates the empty group of a doctorate.
func NewSupervisionGroup(d *Doctorate) *SupervisionGroup {
	return &SupervisionGroup{
		id:            d.SupervisionGroupID(),
		doctorateID:   d.ID(),
		members:       NewSignatureGroup[SupervisionRole](supervisionCodes),
		signingStatus: SigningInProgress,
	}
}

// ID returns the group identifier.
func (g *SupervisionGroup) ID() SupervisionGroupID { return g.id }

// DoctorateID returns the owning doctorate.
func (g *SupervisionGroup) DoctorateID() DoctorateID { return g.doctorateID }

// Members returns every actor in insertion order.
func (g *SupervisionGroup) Members() []Signatory[SupervisionRole] { return g.members.All() }

// Promoters returns the promoters.
func (g *SupervisionGroup) Promoters() []Signatory[SupervisionRole] {
	return g.members.WithRole(SupervisionPromoter)
}

// CAMembers returns the CA members.
func (g *SupervisionGroup) CAMembers() []Signatory[SupervisionRole] {
	return g.members.WithRole(SupervisionCAMember)
}

// Member returns one actor.
func (g *SupervisionGroup) Member(id SignatoryID) (Signatory[SupervisionRole], error) {
	return g.members.Find(id)
}

// ReferencePromoter returns the reference promoter id, or "" when none is set.
func (g *SupervisionGroup) ReferencePromoter() SignatoryID { return g.referencePromoter }

// ReferencePromoterPersonID returns the person id of the reference promoter.
func (g *SupervisionGroup) ReferencePromoterPersonID() string {
	s, err := g.members.Find(g.referencePromoter)
	if err != nil {
		return ""
	}
	return PersonID(s.Identity)
}

// SigningStatus returns whether the group is locked in a signing round.
func (g *SupervisionGroup) SigningStatus() SigningStatus { return g.signingStatus }

// Version returns the optimistic concurrency version.
func (g *SupervisionGroup) Version() int { return g.version }

// SetVersion is called by repositories after a successful save.
func (g *SupervisionGroup) SetVersion(v int) { g.version = v }

// IsApproved is the supervision quorum: every promoter and every CA member
// approved and a reference promoter designated.
func (g *SupervisionGroup) IsApproved() bool {
	if g.referencePromoter == "" {
		return false
	}
	approved := func(r SupervisionRole) bool {
		return g.members.AllInState(SignatureApproved, func(s Signatory[SupervisionRole]) bool { return s.Role == r })
	}
	return approved(SupervisionPromoter) && approved(SupervisionCAMember)
}

// MembershipsOf returns the roles personID holds in the group.
func (g *SupervisionGroup) MembershipsOf(personID string) []Membership {
	if personID == "" {
		return nil
	}
	var out []Membership
	for _, s := range g.members.All() {
		if PersonID(s.Identity) != personID {
			continue
		}
		role := RoleCAMember
		if s.Role == SupervisionPromoter {
			role = RolePromoter
		}
		out = append(out, Membership{DoctorateID: g.doctorateID, Role: role})
	}
	return out
}

func (g *SupervisionGroup) unlocked() Check {
	return Require(g.signingStatus == SigningInProgress, ErrSignatureRequestStarted)
}

func externalChecks(ext *ExternalPerson) []Check {
	if ext == nil {
		return nil
	}
	return []Check{
		Require(strings.TrimSpace(ext.FirstName) != "" &&
			strings.TrimSpace(ext.LastName) != "" &&
			strings.TrimSpace(ext.Email) != "", ErrExternalMemberIncomplete),
	}
}

// IdentifyMember adds a promoter or a CA member, either internal (personID)
// or external.
func (g *SupervisionGroup) IdentifyMember(d *Doctorate, c Caller, role SupervisionRole, personID string, ext *ExternalPerson, at time.Time) (SignatoryID, error) {
	if err := d.Check(ActionIdentifySupervisionMember, c); err != nil {
		return "", err
	}
	limit, full := MaxPromoters, ErrPromotersFull
	switch role {
	case SupervisionPromoter:
	case SupervisionCAMember:
		limit, full = MaxCAMembers, ErrCAMembersFull
	default:
		return "", dterrors.Validation("supervision.IdentifyMember", "unknown supervision role "+string(role))
	}
	identity, idErr := NewIdentity(personID, ext)
	err := ValidatorList{
		Contract: append([]Check{func() error { return idErr }}, externalChecks(ext)...),
		Invariants: []Check{
			g.unlocked(),
			Require(g.members.Count(role) < limit, full),
			func() error {
				if _, dup := g.members.FindByIdentity(identity); dup {
					return ErrAlreadyMember
				}
				return nil
			},
		},
	}.Validate()
	if err != nil {
		return "", err
	}
	id := NewSignatoryID()
	g.members.Add(id, role, identity)
	d.apply(ActionIdentifySupervisionMember, c, at)
	return id, nil
}

// ModifyExternalMember replaces the description of an external actor.
func (g *SupervisionGroup) ModifyExternalMember(d *Doctorate, c Caller, id SignatoryID, ext ExternalPerson, at time.Time) error {
	if err := d.Check(ActionModifySupervisionMember, c); err != nil {
		return err
	}
	member, findErr := g.members.Find(id)
	err := ValidatorList{
		Contract: externalChecks(&ext),
		Invariants: []Check{
			g.unlocked(),
			func() error { return findErr },
			Require(findErr != nil || IsExternal(member.Identity), ErrNotExternalMember),
			func() error {
				other, dup := g.members.FindByIdentity(ext)
				if dup && other.ID != id {
					return ErrAlreadyMember
				}
				return nil
			},
		},
	}.Validate()
	if err != nil {
		return err
	}
	member.Identity = ext
	g.members.Put(member)
	d.apply(ActionModifySupervisionMember, c, at)
	return nil
}

// RemoveMember removes an actor. Removing the reference promoter clears the
// designation.
func (g *SupervisionGroup) RemoveMember(d *Doctorate, c Caller, id SignatoryID, at time.Time) error {
	if err := d.Check(ActionRemoveSupervisionMember, c); err != nil {
		return err
	}
	if err := Validate(g.unlocked(), func() error { _, err := g.members.Find(id); return err }); err != nil {
		return err
	}
	if err := g.members.Remove(id); err != nil {
		return err
	}
	if g.referencePromoter == id {
		g.referencePromoter = ""
	}
	d.apply(ActionRemoveSupervisionMember, c, at)
	return nil
}

// DesignateReferencePromoter makes a promoter the reference promoter.
func (g *SupervisionGroup) DesignateReferencePromoter(d *Doctorate, c Caller, id SignatoryID, at time.Time) error {
	if err := d.Check(ActionDesignateReferencePromoter, c); err != nil {
		return err
	}
	member, findErr := g.members.Find(id)
	err := Validate(
		g.unlocked(),
		Require(findErr == nil && member.Role == SupervisionPromoter, ErrPromoterNotFound),
	)
	if err != nil {
		return err
	}
	g.referencePromoter = id
	d.apply(ActionDesignateReferencePromoter, c, at)
	return nil
}

// SignatureRequestChecks returns the conditions to open a signing round.
func (g *SupervisionGroup) SignatureRequestChecks(d *Doctorate) []Check {
	hasExternalPromoter := false
	for _, p := range g.Promoters() {
		if IsExternal(p.Identity) {
			hasExternalPromoter = true
		}
	}
	cotutelle := d.Cotutelle()
	return []Check{
		g.unlocked(),
		Require(g.members.Count(SupervisionPromoter) >= 1, ErrMissingPromoter),
		Require(g.members.Count(SupervisionCAMember) >= MinCAMembers, ErrMissingCAMember),
		Require(g.referencePromoter != "", ErrMissingReferencePromoter),
		Require(cotutelle.IsComplete(), ErrCotutelleIncomplete),
		Require(!cotutelle.Enabled || hasExternalPromoter, ErrCotutelleWithoutExternal),
		Require(d.Project().IsComplete(), ErrProjectIncomplete),
	}
}

// RequestSignatures locks the group and invites every actor. It returns the
// invited actors.
func (g *SupervisionGroup) RequestSignatures(d *Doctorate, c Caller, at time.Time) ([]SignatoryID, error) {
	if err := d.Check(ActionRequestSignatures, c); err != nil {
		return nil, err
	}
	if err := Validate(g.SignatureRequestChecks(d)...); err != nil {
		return nil, err
	}
	g.signingStatus = SigningSignatureProgress
	invited := g.members.Invite(at)
	d.apply(ActionRequestSignatures, c, at)
	return invited, nil
}

// ResendInvitation returns the actor to notify again. The actor must still
// be waiting for a response.
func (g *SupervisionGroup) ResendInvitation(d *Doctorate, c Caller, id SignatoryID, at time.Time) (Signatory[SupervisionRole], error) {
	if err := d.Check(ActionResendSupervisionInvite, c); err != nil {
		return Signatory[SupervisionRole]{}, err
	}
	if err := g.members.CheckInvitable(id); err != nil {
		return Signatory[SupervisionRole]{}, err
	}
	d.apply(ActionResendSupervisionInvite, c, at)
	s, _ := g.members.Find(id)
	return s, nil
}

// respondingAs fails unless c answers for the actor itself; managers may
// answer for anyone.
func respondingAs[R ~string](c Caller, d *Doctorate, s Signatory[R], op string) error {
	if IsManager(c, d) {
		return nil
	}
	if pid := PersonID(s.Identity); pid != "" && pid != c.PersonID {
		return dterrors.Permission(op, "caller cannot answer for another signatory")
	}
	return nil
}

// ApproveMember records the approval of an actor. When the quorum is reached
// the doctorate returns to ADMITTED; the returned flag reports it.
func (g *SupervisionGroup) ApproveMember(d *Doctorate, c Caller, id SignatoryID, internalComment, externalComment string, at time.Time) (bool, error) {
	if err := d.Check(ActionApproveMember, c); err != nil {
		return false, err
	}
	member, err := g.members.Find(id)
	if err != nil {
		return false, err
	}
	if err := respondingAs(c, d, member, "supervision.ApproveMember"); err != nil {
		return false, err
	}
	if err := g.members.Approve(id, internalComment, externalComment, at); err != nil {
		return false, err
	}
	d.apply(ActionApproveMember, c, at)
	return g.completeIfApproved(d, c, at), nil
}

// ApproveMemberByPDF records an approval attested by a signed document.
func (g *SupervisionGroup) ApproveMemberByPDF(d *Doctorate, c Caller, id SignatoryID, pdf []string, at time.Time) (bool, error) {
	if err := d.Check(ActionApproveMemberByPDF, c); err != nil {
		return false, err
	}
	if err := Validate(RequireDocs(pdf, ErrApprovalDocumentMissing), func() error { return g.members.CheckInvited(id) }); err != nil {
		return false, err
	}
	if err := g.members.ApproveByPDF(id, pdf, at); err != nil {
		return false, err
	}
	d.apply(ActionApproveMemberByPDF, c, at)
	return g.completeIfApproved(d, c, at), nil
}

func (g *SupervisionGroup) completeIfApproved(d *Doctorate, c Caller, at time.Time) bool {
	if !g.IsApproved() {
		return false
	}
	return d.advance(ActionSupervisionApproved, c, at)
}

// DeclineMember records a refusal. The reason is mandatory.
func (g *SupervisionGroup) DeclineMember(d *Doctorate, c Caller, id SignatoryID, reason, internalComment, externalComment string, at time.Time) error {
	if err := d.Check(ActionDeclineMember, c); err != nil {
		return err
	}
	member, err := g.members.Find(id)
	if err != nil {
		return err
	}
	if err := respondingAs(c, d, member, "supervision.DeclineMember"); err != nil {
		return err
	}
	if err := g.members.Decline(id, reason, internalComment, externalComment, at); err != nil {
		return err
	}
	d.apply(ActionDeclineMember, c, at)
	return nil
}

// ResetSignatures unlocks the group and returns every actor to NOT_INVITED.
func (g *SupervisionGroup) ResetSignatures(d *Doctorate, c Caller, at time.Time) error {
	if err := d.Check(ActionResetSupervisionSignatures, c); err != nil {
		return err
	}
	g.members.Reset()
	g.signingStatus = SigningInProgress
	d.apply(ActionResetSupervisionSignatures, c, at)
	return nil
}

// SupervisionGroupSnapshot is the persisted form of a SupervisionGroup.
type SupervisionGroupSnapshot struct {
	ID                SupervisionGroupID
	DoctorateID       DoctorateID
	Members           []Signatory[SupervisionRole]
	ReferencePromoter SignatoryID
	SigningStatus     SigningStatus
	Version           int
}

// Snapshot returns the persisted form of the group.
func (g *SupervisionGroup) Snapshot() SupervisionGroupSnapshot {
	return SupervisionGroupSnapshot{
		ID:                g.id,
		DoctorateID:       g.doctorateID,
		Members:           g.members.All(),
		ReferencePromoter: g.referencePromoter,
		SigningStatus:     g.signingStatus,
		Version:           g.version,
	}
}

// RestoreSupervisionGroup rebuilds a group from its persisted form.
func RestoreSupervisionGroup(s SupervisionGroupSnapshot) *SupervisionGroup {
	g := &SupervisionGroup{
		id:                s.ID,
		doctorateID:       s.DoctorateID,
		members:           NewSignatureGroup[SupervisionRole](supervisionCodes),
		referencePromoter: s.ReferencePromoter,
		signingStatus:     s.SigningStatus,
		version:           s.Version,
	}
	g.members.Restore(s.Members)
	return g
}

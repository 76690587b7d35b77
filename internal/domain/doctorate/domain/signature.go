package domain

import (
	"strings"
	"time"

	dterrors "github.com/doctrack/doctrack/internal/errors"
)

// SignatureState is the state of one signatory within a signing round.
type SignatureState string

// Signature states.
const (
	SignatureNotInvited SignatureState = "NOT_INVITED"
	SignatureInvited    SignatureState = "INVITED"
	SignatureApproved   SignatureState = "APPROVED"
	SignatureDeclined   SignatureState = "DECLINED"
)

// SigningStatus tells whether a group is open for edition or locked in a round.
type SigningStatus string

// Signing statuses.
const (
	SigningInProgress        SigningStatus = "IN_PROGRESS"
	SigningSignatureProgress SigningStatus = "SIGNING_IN_PROGRESS"
)

// Signature is the response of one signatory.
type Signature struct {
	State           SignatureState
	At              *time.Time
	InternalComment string
	ExternalComment string
	RefusalReason   string
	PDF             []string
}

// Identity is either an InternalPerson or an ExternalPerson.
type Identity interface {
	isIdentity()
}

// InternalPerson is a person known to the institution.
type InternalPerson struct {
	PersonID string
}

func (InternalPerson) isIdentity() {}

// ExternalPerson is a person outside the institution, described free-form.
type ExternalPerson struct {
	FirstName              string
	LastName               string
	Email                  string
	Institution            string
	OtherInstitution       string
	City                   string
	Country                string
	Language               string
	Title                  string
	Gender                 string
	IsDoctor               bool
	NonDoctorJustification string
}

func (ExternalPerson) isIdentity() {}

// NewIdentity builds the identity of a new member from a person id or an
// external description, never both.
func NewIdentity(personID string, external *ExternalPerson) (Identity, error) {
	hasInternal := strings.TrimSpace(personID) != ""
	if hasInternal == (external != nil) {
		return nil, ErrMemberInternalOrExternal
	}
	if hasInternal {
		return InternalPerson{PersonID: personID}, nil
	}
	return *external, nil
}

// PersonID returns the internal person id, or "" for externals.
func PersonID(id Identity) string {
	if p, ok := id.(InternalPerson); ok {
		return p.PersonID
	}
	return ""
}

// IsExternal reports whether the identity is an external person.
func IsExternal(id Identity) bool {
	_, ok := id.(ExternalPerson)
	return ok
}

// sameIdentity compares internal persons by id and externals by email.
func sameIdentity(a, b Identity) bool {
	switch x := a.(type) {
	case InternalPerson:
		y, ok := b.(InternalPerson)
		return ok && x.PersonID == y.PersonID
	case ExternalPerson:
		y, ok := b.(ExternalPerson)
		return ok && x.Email != "" && strings.EqualFold(x.Email, y.Email)
	default:
		return false
	}
}

// Signatory is a role-bound member of a signature group.
type Signatory[R ~string] struct {
	ID        SignatoryID
	Role      R
	Identity  Identity
	Signature Signature
}

// SignatureCodes are the business errors a group reports.
type SignatureCodes struct {
	NotFound       *dterrors.BusinessError
	NotInvited     *dterrors.BusinessError
	AlreadyInvited *dterrors.BusinessError
	ReasonMissing  *dterrors.BusinessError
}

// SignatureGroup is an ordered set of signatories going through signing
// rounds: invite, respond, reset.
type SignatureGroup[R ~string] struct {
	codes       SignatureCodes
	signatories []Signatory[R]
}

// NewSignatureGroup creates an empty group reporting the given codes.
func NewSignatureGroup[R ~string](codes SignatureCodes, signatories ...Signatory[R]) SignatureGroup[R] {
	g := SignatureGroup[R]{codes: codes}
	g.signatories = append(g.signatories, signatories...)
	return g
}

// All returns a copy of every signatory in insertion order.
func (g *SignatureGroup[R]) All() []Signatory[R] {
	out := make([]Signatory[R], len(g.signatories))
	copy(out, g.signatories)
	return out
}

// WithRole returns the signatories holding role.
func (g *SignatureGroup[R]) WithRole(role R) []Signatory[R] {
	var out []Signatory[R]
	for _, s := range g.signatories {
		if s.Role == role {
			out = append(out, s)
		}
	}
	return out
}

// Count returns how many signatories hold role.
func (g *SignatureGroup[R]) Count(role R) int {
	return len(g.WithRole(role))
}

// Find returns the signatory with the given id.
func (g *SignatureGroup[R]) Find(id SignatoryID) (Signatory[R], error) {
	for _, s := range g.signatories {
		if s.ID == id {
			return s, nil
		}
	}
	return Signatory[R]{}, g.codes.NotFound
}

// FindByIdentity returns the signatory matching the person or external email.
func (g *SignatureGroup[R]) FindByIdentity(identity Identity) (Signatory[R], bool) {
	for _, s := range g.signatories {
		if sameIdentity(s.Identity, identity) {
			return s, true
		}
	}
	return Signatory[R]{}, false
}

// Add appends a signatory in NOT_INVITED state.
func (g *SignatureGroup[R]) Add(id SignatoryID, role R, identity Identity) {
	g.signatories = append(g.signatories, Signatory[R]{
		ID:        id,
		Role:      role,
		Identity:  identity,
		Signature: Signature{State: SignatureNotInvited},
	})
}

// Put appends s, replacing any signatory with the same id.
func (g *SignatureGroup[R]) Put(s Signatory[R]) {
	for i := range g.signatories {
		if g.signatories[i].ID == s.ID {
			g.signatories[i] = s
			return
		}
	}
	g.signatories = append(g.signatories, s)
}

// Remove deletes the signatory with the given id.
func (g *SignatureGroup[R]) Remove(id SignatoryID) error {
	for i, s := range g.signatories {
		if s.ID == id {
			g.signatories = append(g.signatories[:i], g.signatories[i+1:]...)
			return nil
		}
	}
	return g.codes.NotFound
}

// RemoveRole deletes every signatory holding role.
func (g *SignatureGroup[R]) RemoveRole(role R) {
	kept := g.signatories[:0]
	for _, s := range g.signatories {
		if s.Role != role {
			kept = append(kept, s)
		}
	}
	g.signatories = kept
}

func (g *SignatureGroup[R]) update(id SignatoryID, fn func(*Signatory[R])) error {
	for i := range g.signatories {
		if g.signatories[i].ID == id {
			fn(&g.signatories[i])
			return nil
		}
	}
	return g.codes.NotFound
}

// Invite moves every NOT_INVITED or DECLINED signatory to INVITED and
// clears previous responses. It returns the invited ids.
func (g *SignatureGroup[R]) Invite(at time.Time) []SignatoryID {
	return g.InviteWhere(func(Signatory[R]) bool { return true }, at)
}

// InviteWhere is Invite restricted to the signatories matching pred.
func (g *SignatureGroup[R]) InviteWhere(pred func(Signatory[R]) bool, at time.Time) []SignatoryID {
	var invited []SignatoryID
	for i := range g.signatories {
		s := &g.signatories[i]
		if !pred(*s) {
			continue
		}
		if s.Signature.State != SignatureNotInvited && s.Signature.State != SignatureDeclined {
			continue
		}
		invitedAt := at
		s.Signature = Signature{State: SignatureInvited, At: &invitedAt}
		invited = append(invited, s.ID)
	}
	return invited
}

// CheckInvitable fails unless the signatory can be sent a new invitation.
func (g *SignatureGroup[R]) CheckInvitable(id SignatoryID) error {
	s, err := g.Find(id)
	if err != nil {
		return err
	}
	if s.Signature.State == SignatureInvited {
		return nil
	}
	return g.codes.NotInvited
}

// CheckInvited fails unless the signatory exists and is INVITED.
func (g *SignatureGroup[R]) CheckInvited(id SignatoryID) error {
	s, err := g.Find(id)
	if err != nil {
		return err
	}
	if s.Signature.State != SignatureInvited {
		return g.codes.NotInvited
	}
	return nil
}

// Approve records an approval with optional comments.
func (g *SignatureGroup[R]) Approve(id SignatoryID, internalComment, externalComment string, at time.Time) error {
	if err := g.CheckInvited(id); err != nil {
		return err
	}
	return g.update(id, func(s *Signatory[R]) {
		s.Signature = Signature{
			State:           SignatureApproved,
			At:              &at,
			InternalComment: internalComment,
			ExternalComment: externalComment,
		}
	})
}

// ApproveByPDF records an approval attested by a signed document.
func (g *SignatureGroup[R]) ApproveByPDF(id SignatoryID, pdf []string, at time.Time) error {
	if err := g.CheckInvited(id); err != nil {
		return err
	}
	return g.update(id, func(s *Signatory[R]) {
		s.Signature = Signature{State: SignatureApproved, At: &at, PDF: copyStrings(pdf)}
	})
}

// DeclineChecks returns the checks guarding a decline, so callers can merge
// them into a wider validator list.
func (g *SignatureGroup[R]) DeclineChecks(id SignatoryID, reason string) []Check {
	return []Check{
		RequireText(reason, g.codes.ReasonMissing),
		func() error { return g.CheckInvited(id) },
	}
}

// Decline records a refusal. The reason must not be blank.
func (g *SignatureGroup[R]) Decline(id SignatoryID, reason, internalComment, externalComment string, at time.Time) error {
	if err := Validate(g.DeclineChecks(id, reason)...); err != nil {
		return err
	}
	return g.update(id, func(s *Signatory[R]) {
		s.Signature = Signature{
			State:           SignatureDeclined,
			At:              &at,
			InternalComment: internalComment,
			ExternalComment: externalComment,
			RefusalReason:   strings.TrimSpace(reason),
		}
	})
}

// Reset puts every signatory back to NOT_INVITED and drops all responses.
func (g *SignatureGroup[R]) Reset() {
	for i := range g.signatories {
		g.signatories[i].Signature = Signature{State: SignatureNotInvited}
	}
}

// AllInState reports whether every signatory matching pred is in state.
// An empty selection is never satisfied.
func (g *SignatureGroup[R]) AllInState(state SignatureState, pred func(Signatory[R]) bool) bool {
	seen := false
	for _, s := range g.signatories {
		if !pred(s) {
			continue
		}
		seen = true
		if s.Signature.State != state {
			return false
		}
	}
	return seen
}

// AnyInState reports whether some signatory is in state.
func (g *SignatureGroup[R]) AnyInState(state SignatureState) bool {
	for _, s := range g.signatories {
		if s.Signature.State == state {
			return true
		}
	}
	return false
}

// Restore replaces the content of the group, for repositories.
func (g *SignatureGroup[R]) Restore(signatories []Signatory[R]) {
	g.signatories = make([]Signatory[R], len(signatories))
	copy(g.signatories, signatories)
}

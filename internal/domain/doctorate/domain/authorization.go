package domain

import (
	"slices"
	"strings"
	"time"
)

// AuthorizationStatus is the state of a thesis-distribution authorization.
type AuthorizationStatus string

// Authorization statuses.
const (
	AuthorizationNotSubmitted     AuthorizationStatus = "NOT_SUBMITTED"
	AuthorizationSubmitted        AuthorizationStatus = "SUBMITTED"
	AuthorizationApprovedPromoter AuthorizationStatus = "APPROVED_PROMOTER"
	AuthorizationApprovedADRE     AuthorizationStatus = "APPROVED_ADRE"
	AuthorizationValidated        AuthorizationStatus = "VALIDATED"
	AuthorizationRefusedPromoter  AuthorizationStatus = "REFUSED_PROMOTER"
	AuthorizationRefusedADRE      AuthorizationStatus = "REFUSED_ADRE"
	AuthorizationRefusedSCEB      AuthorizationStatus = "REFUSED_SCEB"
)

// IsRefused reports whether one party refused the authorization.
func (s AuthorizationStatus) IsRefused() bool {
	return s == AuthorizationRefusedPromoter || s == AuthorizationRefusedADRE || s == AuthorizationRefusedSCEB
}

// Editable reports whether the form can be encoded and sent.
func (s AuthorizationStatus) Editable() bool {
	return s == AuthorizationNotSubmitted || s.IsRefused()
}

// AuthorizationRole is a party of the approval chain.
type AuthorizationRole string

// Authorization roles, in chain order.
const (
	AuthorizationPromoter AuthorizationRole = "PROMOTER"
	AuthorizationADRE     AuthorizationRole = "ADRE"
	AuthorizationSCEB     AuthorizationRole = "SCEB"
)

// DistributionConditions restrict access to the thesis.
type DistributionConditions string

// Distribution conditions.
const (
	ConditionsFreeAccess DistributionConditions = "FREE_ACCESS"
	ConditionsEmbargo    DistributionConditions = "EMBARGO"
	ConditionsRestricted DistributionConditions = "RESTRICTED"
)

// AuthorizationForm is the part of the authorization the student encodes.
type AuthorizationForm struct {
	FundingSources        string
	EnglishAbstract       string
	OtherLanguageAbstract string
	RedactionLanguage     string
	Keywords              []string
	Conditions            DistributionConditions
	EmbargoDate           *time.Time
	AdditionalLimitations string
}

func (f AuthorizationForm) contract() []Check {
	return []Check{
		Require(f.EmbargoDate == nil || f.Conditions == ConditionsEmbargo, ErrEmbargoDateUnexpected),
	}
}

func (f AuthorizationForm) equal(o AuthorizationForm) bool {
	sameEmbargo := f.EmbargoDate == o.EmbargoDate ||
		(f.EmbargoDate != nil && o.EmbargoDate != nil && f.EmbargoDate.Equal(*o.EmbargoDate))
	return sameEmbargo &&
		f.FundingSources == o.FundingSources &&
		f.EnglishAbstract == o.EnglishAbstract &&
		f.OtherLanguageAbstract == o.OtherLanguageAbstract &&
		f.RedactionLanguage == o.RedactionLanguage &&
		slices.Equal(f.Keywords, o.Keywords) &&
		f.Conditions == o.Conditions &&
		f.AdditionalLimitations == o.AdditionalLimitations
}

func (f AuthorizationForm) completeness(acceptedConditions string) []Check {
	return []Check{
		RequireText(f.FundingSources, ErrFundingSourcesMissing),
		RequireText(f.EnglishAbstract, ErrEnglishAbstractMissing),
		RequireText(f.RedactionLanguage, ErrRedactionLanguageMissing),
		Require(len(f.Keywords) > 0, ErrKeywordsMissing),
		Require(f.Conditions != "", ErrConditionsMissing),
		Require(f.Conditions != ConditionsEmbargo || f.EmbargoDate != nil, ErrEmbargoDateMissing),
		RequireText(acceptedConditions, ErrConditionsNotAccepted),
	}
}

var authorizationCodes = SignatureCodes{
	NotFound:       ErrAuthorizationSignatory,
	NotInvited:     ErrAuthorizationStatus,
	AlreadyInvited: ErrAuthorizationStatus,
	ReasonMissing:  ErrAuthorizationReasonMissing,
}

// chainStep is one link of PROMOTER → ADRE → SCEB.
type chainStep struct {
	role     AuthorizationRole
	expected AuthorizationStatus
	approved AuthorizationStatus
	refused  AuthorizationStatus
	next     AuthorizationRole
	approve  Action
	refuse   Action
}

var authorizationChain = map[AuthorizationRole]chainStep{
	AuthorizationPromoter: {
		role: AuthorizationPromoter, expected: AuthorizationSubmitted,
		approved: AuthorizationApprovedPromoter, refused: AuthorizationRefusedPromoter, next: AuthorizationADRE,
		approve: ActionApproveAuthorizationByPromoter, refuse: ActionRefuseAuthorizationByPromoter,
	},
	AuthorizationADRE: {
		role: AuthorizationADRE, expected: AuthorizationApprovedPromoter,
		approved: AuthorizationApprovedADRE, refused: AuthorizationRefusedADRE, next: AuthorizationSCEB,
		approve: ActionApproveAuthorizationByADRE, refuse: ActionRefuseAuthorizationByADRE,
	},
	AuthorizationSCEB: {
		role: AuthorizationSCEB, expected: AuthorizationApprovedADRE,
		approved: AuthorizationValidated, refused: AuthorizationRefusedSCEB,
		approve: ActionApproveAuthorizationBySCEB, refuse: ActionRefuseAuthorizationBySCEB,
	},
}

// ThesisDistributionAuthorization is the agreement on how the thesis is
// published, approved by the reference promoter, then ADRE, then SCEB.
type ThesisDistributionAuthorization struct {
	id                 AuthorizationID
	doctorateID        DoctorateID
	form               AuthorizationForm
	acceptedConditions string
	acceptedOn         *time.Time
	status             AuthorizationStatus
	signatories        SignatureGroup[AuthorizationRole]
	version            int
	createdAt          time.Time
}

// NewThesisDistributionAuthorization creates the current authorization of d.
func NewThesisDistributionAuthorization(d *Doctorate, at time.Time) *ThesisDistributionAuthorization {
	a := &ThesisDistributionAuthorization{
		id:          NewAuthorizationID(),
		doctorateID: d.ID(),
		status:      AuthorizationNotSubmitted,
		signatories: NewSignatureGroup[AuthorizationRole](authorizationCodes),
		createdAt:   at,
	}
	d.attachAuthorization(a.id)
	return a
}

// ID returns the authorization identifier.
func (a *ThesisDistributionAuthorization) ID() AuthorizationID { return a.id }

// DoctorateID returns the owning doctorate.
func (a *ThesisDistributionAuthorization) DoctorateID() DoctorateID { return a.doctorateID }

// Form returns the encoded form.
func (a *ThesisDistributionAuthorization) Form() AuthorizationForm { return a.form }

// AcceptedConditions returns the conditions text the student accepted.
func (a *ThesisDistributionAuthorization) AcceptedConditions() string { return a.acceptedConditions }

// AcceptedOn returns when the student accepted the conditions.
func (a *ThesisDistributionAuthorization) AcceptedOn() *time.Time { return copyTime(a.acceptedOn) }

// Status returns the chain status.
func (a *ThesisDistributionAuthorization) Status() AuthorizationStatus { return a.status }

// Signatories returns the chain signatories in order.
func (a *ThesisDistributionAuthorization) Signatories() []Signatory[AuthorizationRole] {
	return a.signatories.All()
}

// Signatory returns the signatory holding role.
func (a *ThesisDistributionAuthorization) Signatory(role AuthorizationRole) (Signatory[AuthorizationRole], bool) {
	s := a.signatories.WithRole(role)
	if len(s) == 0 {
		return Signatory[AuthorizationRole]{}, false
	}
	return s[0], true
}

// Version returns the optimistic concurrency version.
func (a *ThesisDistributionAuthorization) Version() int { return a.version }

// SetVersion is called by repositories after a successful save.
func (a *ThesisDistributionAuthorization) SetVersion(v int) { a.version = v }

// CreatedAt returns the creation time.
func (a *ThesisDistributionAuthorization) CreatedAt() time.Time { return a.createdAt }

func (a *ThesisDistributionAuthorization) editable() Check {
	return Require(a.status.Editable(), ErrAuthorizationStatus)
}

// Encode replaces the form. Encoding the form already stored changes
// nothing and records no history.
func (a *ThesisDistributionAuthorization) Encode(d *Doctorate, c Caller, form AuthorizationForm, at time.Time) error {
	if err := d.Check(ActionEncodeAuthorization, c); err != nil {
		return err
	}
	err := ValidatorList{Contract: form.contract(), Invariants: []Check{a.editable()}}.Validate()
	if err != nil {
		return err
	}
	if a.form.equal(form) {
		return nil
	}
	form.Keywords = copyStrings(form.Keywords)
	form.EmbargoDate = copyTime(form.EmbargoDate)
	a.form = form
	d.apply(ActionEncodeAuthorization, c, at)
	return nil
}

// SendToPromoter checks the form, restarts the chain and invites the
// reference promoter. It returns the invited signatory.
func (a *ThesisDistributionAuthorization) SendToPromoter(d *Doctorate, c Caller, referencePromoterID, acceptedConditions string, at time.Time) (SignatoryID, error) {
	if err := d.Check(ActionSendAuthorizationToPromoter, c); err != nil {
		return "", err
	}
	err := ValidatorList{
		Contract: append(a.form.contract(), a.form.completeness(acceptedConditions)...),
		Invariants: []Check{
			a.editable(),
			RequireText(referencePromoterID, ErrMissingReferencePromoter),
		},
	}.Validate()
	if err != nil {
		return "", err
	}
	a.acceptedConditions = strings.TrimSpace(acceptedConditions)
	accepted := at
	a.acceptedOn = &accepted
	a.signatories.Restore(nil)
	id := NewSignatoryID()
	a.signatories.Add(id, AuthorizationPromoter, InternalPerson{PersonID: referencePromoterID})
	a.signatories.Invite(at)
	a.status = AuthorizationSubmitted
	d.apply(ActionSendAuthorizationToPromoter, c, at)
	return id, nil
}

// stepFor checks the chain is waiting on role and that c answers for it.
// The promoter must be the invited person; ADRE and SCEB are answered by
// any manager holding the role.
func (a *ThesisDistributionAuthorization) stepFor(c Caller, role AuthorizationRole) (chainStep, Signatory[AuthorizationRole], error) {
	step := authorizationChain[role]
	if a.status != step.expected {
		return step, Signatory[AuthorizationRole]{}, ErrAuthorizationStatus
	}
	s, ok := a.Signatory(role)
	if !ok || s.Signature.State != SignatureInvited {
		return step, s, ErrAuthorizationStatus
	}
	if pid := PersonID(s.Identity); pid != "" && pid != c.PersonID {
		return step, s, ErrAuthorizationSignatory
	}
	return step, s, nil
}

// Approve records the approval of role and invites the next party. It
// returns the newly invited role, or "" once the chain is validated.
func (a *ThesisDistributionAuthorization) Approve(d *Doctorate, c Caller, role AuthorizationRole, internalComment string, at time.Time) (AuthorizationRole, error) {
	step := authorizationChain[role]
	if step.role == "" {
		return "", ErrAuthorizationSignatory
	}
	if err := d.Check(step.approve, c); err != nil {
		return "", err
	}
	_, s, err := a.stepFor(c, role)
	if err != nil {
		return "", err
	}
	s.Identity = InternalPerson{PersonID: c.PersonID}
	a.signatories.Put(s)
	if err := a.signatories.Approve(s.ID, internalComment, "", at); err != nil {
		return "", err
	}
	a.status = step.approved
	if step.next != "" {
		a.signatories.Add(NewSignatoryID(), step.next, InternalPerson{})
		a.signatories.InviteWhere(func(x Signatory[AuthorizationRole]) bool { return x.Role == step.next }, at)
	}
	d.apply(step.approve, c, at)
	return step.next, nil
}

// Refuse records the refusal of role and halts the chain. The reason is
// mandatory.
func (a *ThesisDistributionAuthorization) Refuse(d *Doctorate, c Caller, role AuthorizationRole, reason, internalComment string, at time.Time) error {
	step := authorizationChain[role]
	if step.role == "" {
		return ErrAuthorizationSignatory
	}
	if err := d.Check(step.refuse, c); err != nil {
		return err
	}
	_, s, err := a.stepFor(c, role)
	if err != nil {
		return err
	}
	if err := Validate(RequireText(reason, ErrAuthorizationReasonMissing)); err != nil {
		return err
	}
	s.Identity = InternalPerson{PersonID: c.PersonID}
	a.signatories.Put(s)
	if err := a.signatories.Decline(s.ID, reason, internalComment, "", at); err != nil {
		return err
	}
	a.status = step.refused
	d.apply(step.refuse, c, at)
	return nil
}

// AuthorizationSnapshot is the persisted form of an authorization.
type AuthorizationSnapshot struct {
	ID                 AuthorizationID
	DoctorateID        DoctorateID
	Form               AuthorizationForm
	AcceptedConditions string
	AcceptedOn         *time.Time
	Status             AuthorizationStatus
	Signatories        []Signatory[AuthorizationRole]
	Version            int
	CreatedAt          time.Time
}

// Snapshot returns the persisted form of the authorization.
func (a *ThesisDistributionAuthorization) Snapshot() AuthorizationSnapshot {
	return AuthorizationSnapshot{
		ID:                 a.id,
		DoctorateID:        a.doctorateID,
		Form:               a.form,
		AcceptedConditions: a.acceptedConditions,
		AcceptedOn:         copyTime(a.acceptedOn),
		Status:             a.status,
		Signatories:        a.signatories.All(),
		Version:            a.version,
		CreatedAt:          a.createdAt,
	}
}

// RestoreAuthorization rebuilds an authorization from its persisted form.
func RestoreAuthorization(s AuthorizationSnapshot) *ThesisDistributionAuthorization {
	a := &ThesisDistributionAuthorization{
		id:                 s.ID,
		doctorateID:        s.DoctorateID,
		form:               s.Form,
		acceptedConditions: s.AcceptedConditions,
		acceptedOn:         copyTime(s.AcceptedOn),
		status:             s.Status,
		signatories:        NewSignatureGroup[AuthorizationRole](authorizationCodes),
		version:            s.Version,
		createdAt:          s.CreatedAt,
	}
	a.signatories.Restore(s.Signatories)
	return a
}

// Package persistence provides infrastructure implementations for data persistence.
package persistence

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/doctrack/doctrack/internal/domain/doctorate/domain"
)

// Kind names the aggregate type of a stored record.
type Kind string

// Record kinds.
const (
	KindDoctorate         Kind = "doctorate"
	KindSupervisionGroup  Kind = "supervision_group"
	KindJury              Kind = "jury"
	KindConfirmationPaper Kind = "confirmation_paper"
	KindAdmissibility     Kind = "admissibility"
	KindPrivateDefense    Kind = "private_defense"
	KindAuthorization     Kind = "authorization"
)

// Record is the stored form of one aggregate. ParentID is the owning
// doctorate, empty for doctorates themselves.
type Record struct {
	Kind     Kind
	ID       string
	ParentID string
	Version  int
	Data     []byte
}

// identityRecord serializes the Identity union.
type identityRecord struct {
	PersonID string                 `json:"person_id,omitempty"`
	External *domain.ExternalPerson `json:"external,omitempty"`
}

func toIdentityRecord(id domain.Identity) identityRecord {
	switch p := id.(type) {
	case domain.InternalPerson:
		return identityRecord{PersonID: p.PersonID}
	case domain.ExternalPerson:
		ext := p
		return identityRecord{External: &ext}
	default:
		return identityRecord{}
	}
}

// identity decodes the union. An empty record is an internal person not
// known yet, such as a manager role invited before anyone answers for it.
func (r identityRecord) identity() domain.Identity {
	if r.External != nil {
		return *r.External
	}
	return domain.InternalPerson{PersonID: r.PersonID}
}

type signatoryRecord struct {
	ID        domain.SignatoryID `json:"id"`
	Role      string             `json:"role"`
	Identity  identityRecord     `json:"identity"`
	Signature domain.Signature   `json:"signature"`
}

func toSignatoryRecords[R ~string](in []domain.Signatory[R]) []signatoryRecord {
	out := make([]signatoryRecord, len(in))
	for i, s := range in {
		out[i] = signatoryRecord{
			ID:        s.ID,
			Role:      string(s.Role),
			Identity:  toIdentityRecord(s.Identity),
			Signature: s.Signature,
		}
	}
	return out
}

func fromSignatoryRecords[R ~string](in []signatoryRecord) []domain.Signatory[R] {
	out := make([]domain.Signatory[R], len(in))
	for i, r := range in {
		out[i] = domain.Signatory[R]{ID: r.ID, Role: R(r.Role), Identity: r.Identity.identity(), Signature: r.Signature}
	}
	return out
}

type supervisionGroupRecord struct {
	ID                domain.SupervisionGroupID `json:"id"`
	DoctorateID       domain.DoctorateID        `json:"doctorate_id"`
	Members           []signatoryRecord         `json:"members"`
	ReferencePromoter domain.SignatoryID        `json:"reference_promoter,omitempty"`
	SigningStatus     domain.SigningStatus      `json:"signing_status"`
}

type juryRecord struct {
	ID            domain.JuryID        `json:"id"`
	DoctorateID   domain.DoctorateID   `json:"doctorate_id"`
	Members       []signatoryRecord    `json:"members"`
	Promoters     []domain.SignatoryID `json:"promoters,omitempty"`
	SigningStatus domain.SigningStatus `json:"signing_status"`
}

type authorizationRecord struct {
	ID                 domain.AuthorizationID     `json:"id"`
	DoctorateID        domain.DoctorateID         `json:"doctorate_id"`
	Form               domain.AuthorizationForm   `json:"form"`
	AcceptedConditions string                     `json:"accepted_conditions,omitempty"`
	AcceptedOn         *time.Time                 `json:"accepted_on,omitempty"`
	Status             domain.AuthorizationStatus `json:"status"`
	Signatories        []signatoryRecord          `json:"signatories"`
	CreatedAt          time.Time                  `json:"created_at"`
}

// codec converts one aggregate type to and from records.
type codec[T any] struct {
	kind       Kind
	id         func(T) string
	parent     func(T) string
	version    func(T) int
	setVersion func(T, int)
	encode     func(T) ([]byte, error)
	decode     func(data []byte, version int) (T, error)
}

func (c codec[T]) record(v T) (Record, error) {
	data, err := c.encode(v)
	if err != nil {
		return Record{}, fmt.Errorf("encode %s %s: %w", c.kind, c.id(v), err)
	}
	return Record{Kind: c.kind, ID: c.id(v), ParentID: c.parent(v), Version: c.version(v), Data: data}, nil
}

var doctorateCodec = codec[*domain.Doctorate]{
	kind:       KindDoctorate,
	id:         func(d *domain.Doctorate) string { return string(d.ID()) },
	parent:     func(*domain.Doctorate) string { return "" },
	version:    func(d *domain.Doctorate) int { return d.Version() },
	setVersion: func(d *domain.Doctorate, v int) { d.SetVersion(v) },
	encode: func(d *domain.Doctorate) ([]byte, error) {
		return json.Marshal(d.Snapshot())
	},
	decode: func(data []byte, version int) (*domain.Doctorate, error) {
		var s domain.DoctorateSnapshot
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, err
		}
		s.Version = version
		return domain.RestoreDoctorate(s), nil
	},
}

var supervisionGroupCodec = codec[*domain.SupervisionGroup]{
	kind:       KindSupervisionGroup,
	id:         func(g *domain.SupervisionGroup) string { return string(g.ID()) },
	parent:     func(g *domain.SupervisionGroup) string { return string(g.DoctorateID()) },
	version:    func(g *domain.SupervisionGroup) int { return g.Version() },
	setVersion: func(g *domain.SupervisionGroup, v int) { g.SetVersion(v) },
	encode: func(g *domain.SupervisionGroup) ([]byte, error) {
		s := g.Snapshot()
		return json.Marshal(supervisionGroupRecord{
			ID:                s.ID,
			DoctorateID:       s.DoctorateID,
			Members:           toSignatoryRecords(s.Members),
			ReferencePromoter: s.ReferencePromoter,
			SigningStatus:     s.SigningStatus,
		})
	},
	decode: func(data []byte, version int) (*domain.SupervisionGroup, error) {
		var r supervisionGroupRecord
		if err := json.Unmarshal(data, &r); err != nil {
			return nil, err
		}
		members := fromSignatoryRecords[domain.SupervisionRole](r.Members)
		return domain.RestoreSupervisionGroup(domain.SupervisionGroupSnapshot{
			ID:                r.ID,
			DoctorateID:       r.DoctorateID,
			Members:           members,
			ReferencePromoter: r.ReferencePromoter,
			SigningStatus:     r.SigningStatus,
			Version:           version,
		}), nil
	},
}

var juryCodec = codec[*domain.Jury]{
	kind:       KindJury,
	id:         func(j *domain.Jury) string { return string(j.ID()) },
	parent:     func(j *domain.Jury) string { return string(j.DoctorateID()) },
	version:    func(j *domain.Jury) int { return j.Version() },
	setVersion: func(j *domain.Jury, v int) { j.SetVersion(v) },
	encode: func(j *domain.Jury) ([]byte, error) {
		s := j.Snapshot()
		return json.Marshal(juryRecord{
			ID:            s.ID,
			DoctorateID:   s.DoctorateID,
			Members:       toSignatoryRecords(s.Members),
			Promoters:     s.Promoters,
			SigningStatus: s.SigningStatus,
		})
	},
	decode: func(data []byte, version int) (*domain.Jury, error) {
		var r juryRecord
		if err := json.Unmarshal(data, &r); err != nil {
			return nil, err
		}
		members := fromSignatoryRecords[domain.JuryRole](r.Members)
		return domain.RestoreJury(domain.JurySnapshot{
			ID:            r.ID,
			DoctorateID:   r.DoctorateID,
			Members:       members,
			Promoters:     r.Promoters,
			SigningStatus: r.SigningStatus,
			Version:       version,
		}), nil
	},
}

var authorizationCodec = codec[*domain.ThesisDistributionAuthorization]{
	kind:       KindAuthorization,
	id:         func(a *domain.ThesisDistributionAuthorization) string { return string(a.ID()) },
	parent:     func(a *domain.ThesisDistributionAuthorization) string { return string(a.DoctorateID()) },
	version:    func(a *domain.ThesisDistributionAuthorization) int { return a.Version() },
	setVersion: func(a *domain.ThesisDistributionAuthorization, v int) { a.SetVersion(v) },
	encode: func(a *domain.ThesisDistributionAuthorization) ([]byte, error) {
		s := a.Snapshot()
		return json.Marshal(authorizationRecord{
			ID:                 s.ID,
			DoctorateID:        s.DoctorateID,
			Form:               s.Form,
			AcceptedConditions: s.AcceptedConditions,
			AcceptedOn:         s.AcceptedOn,
			Status:             s.Status,
			Signatories:        toSignatoryRecords(s.Signatories),
			CreatedAt:          s.CreatedAt,
		})
	},
	decode: func(data []byte, version int) (*domain.ThesisDistributionAuthorization, error) {
		var r authorizationRecord
		if err := json.Unmarshal(data, &r); err != nil {
			return nil, err
		}
		signatories := fromSignatoryRecords[domain.AuthorizationRole](r.Signatories)
		return domain.RestoreAuthorization(domain.AuthorizationSnapshot{
			ID:                 r.ID,
			DoctorateID:        r.DoctorateID,
			Form:               r.Form,
			AcceptedConditions: r.AcceptedConditions,
			AcceptedOn:         r.AcceptedOn,
			Status:             r.Status,
			Signatories:        signatories,
			Version:            version,
			CreatedAt:          r.CreatedAt,
		}), nil
	},
}

// plainCodec serves the child entities whose state is a plain struct with
// an exported Version field.
func plainCodec[T any](kind Kind, id, parent func(*T) string, version func(*T) *int) codec[*T] {
	return codec[*T]{
		kind:       kind,
		id:         id,
		parent:     parent,
		version:    func(v *T) int { return *version(v) },
		setVersion: func(v *T, n int) { *version(v) = n },
		encode: func(v *T) ([]byte, error) {
			return json.Marshal(v)
		},
		decode: func(data []byte, n int) (*T, error) {
			v := new(T)
			if err := json.Unmarshal(data, v); err != nil {
				return nil, err
			}
			*version(v) = n
			return v, nil
		},
	}
}

var confirmationPaperCodec = plainCodec(KindConfirmationPaper,
	func(p *domain.ConfirmationPaper) string { return string(p.ID) },
	func(p *domain.ConfirmationPaper) string { return string(p.DoctorateID) },
	func(p *domain.ConfirmationPaper) *int { return &p.Version },
)

var admissibilityCodec = plainCodec(KindAdmissibility,
	func(a *domain.Admissibility) string { return string(a.ID) },
	func(a *domain.Admissibility) string { return string(a.DoctorateID) },
	func(a *domain.Admissibility) *int { return &a.Version },
)

var privateDefenseCodec = plainCodec(KindPrivateDefense,
	func(p *domain.PrivateDefense) string { return string(p.ID) },
	func(p *domain.PrivateDefense) string { return string(p.DoctorateID) },
	func(p *domain.PrivateDefense) *int { return &p.Version },
)

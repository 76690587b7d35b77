package doctorate

import (
	"encoding/json"
	"fmt"

	"github.com/doctrack/doctrack/internal/domain/doctorate/domain"
	"github.com/doctrack/doctrack/internal/domain/doctorate/ports"
	dterrors "github.com/doctrack/doctrack/internal/errors"
)

// Notification templates. The catalog shipped with the notification
// adapter provides each of them.
const (
	TemplateSupervisionInvitation   = "supervision-invitation"
	TemplateConfirmationSubmitted   = "confirmation-submitted"
	TemplateJurySubmitted           = "jury-submitted"
	TemplateJuryInvitation          = "jury-invitation"
	TemplateJuryRejected            = "jury-rejected"
	TemplatePrivateDefenseSubmitted = "private-defense-submitted"
	TemplatePrivateDefenseInvite    = "private-defense-invitation"
	TemplatePrivateDefenseSuccess   = "private-defense-success"
	TemplatePublicDefenseAuthorised = "public-defense-authorised"
	TemplateProclaimed              = "proclaimed"
	TemplateAuthorizationToSign     = "authorization-to-sign"
	TemplateAuthorizationRefused    = "authorization-refused"
	TemplateAuthorizationValidated  = "authorization-validated"
)

// Async tasks.
const (
	TaskGenerateCertificate = "generate-certificate"
)

// Extra history tags.
const (
	TagInitialized = "initialized"
)

func (x *session) stage(kind ports.MessageKind, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return dterrors.InternalWrap(err, "doctorate.stage", "encode outbox payload")
	}
	x.pending = append(x.pending, ports.OutboxMessage{
		AggregateID: string(x.d.ID()),
		Kind:        kind,
		Payload:     raw,
	})
	return nil
}

// history stages the history entry of a domain event. History entries are
// staged ahead of the notifications of the same command.
func (x *session) history(event domain.DomainEvent) error {
	entry := ports.HistoryEntry{
		ObjectID: string(x.d.ID()),
		Author:   x.caller.PersonID,
		At:       event.OccurredAt(),
	}
	switch e := event.(type) {
	case *domain.ActionAppliedEvent:
		entry.Tags = e.Tags
		entry.Author = e.Actor
		if e.StatusChanged() {
			entry.Message = fmt.Sprintf("%s: %s -> %s", e.Action, e.From, e.To)
		} else {
			entry.Message = string(e.Action)
		}
	case *domain.DoctorateInitializedEvent:
		entry.Tags = []string{domain.PhaseDoctorate, TagInitialized}
		entry.Message = "doctorate " + e.Reference + " initialized"
	default:
		return nil
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		return dterrors.InternalWrap(err, "doctorate.history", "encode history entry")
	}
	x.tx.Stage(ports.OutboxMessage{
		AggregateID: string(x.d.ID()),
		Kind:        ports.KindHistory,
		Payload:     raw,
	})
	return nil
}

// vars are the template variables every notification gets.
func (x *session) vars(extra ...string) map[string]string {
	st := x.d.Student()
	v := map[string]string{
		"reference":          x.d.Reference(),
		"student_first_name": st.FirstName,
		"student_last_name":  st.LastName,
		"training":           x.d.Training().Title,
		"training_acronym":   x.d.Training().Acronym,
		"status":             string(x.d.Status()),
	}
	for i := 0; i+1 < len(extra); i += 2 {
		v[extra[i]] = extra[i+1]
	}
	return v
}

// notify stages a templated email.
func (x *session) notify(template string, to, cc []ports.Recipient, extra ...string) error {
	if len(to) == 0 {
		return nil
	}
	return x.stage(ports.KindEmail, ports.EmailRequest{
		Template:         template,
		ManagementEntity: x.d.Training().CDD,
		To:               to,
		Cc:               cc,
		Vars:             x.vars(extra...),
	})
}

// mail stages the email a manager wrote while recording a decision.
func (x *session) mail(msg domain.Message, to, cc []ports.Recipient) error {
	return x.stage(ports.KindEmail, ports.EmailRequest{
		ManagementEntity: x.d.Training().CDD,
		To:               to,
		Cc:               cc,
		Subject:          msg.Subject,
		Body:             msg.Body,
	})
}

// web stages an in-app notification for every internal recipient.
func (x *session) web(template string, to []ports.Recipient, extra ...string) error {
	for _, r := range to {
		if r.PersonID == "" {
			continue
		}
		if err := x.stage(ports.KindWeb, ports.WebRequest{
			PersonID:         r.PersonID,
			Template:         template,
			ManagementEntity: x.d.Training().CDD,
			Vars:             x.vars(extra...),
		}); err != nil {
			return err
		}
	}
	return nil
}

// invite notifies signatories by email, and internal ones in-app as well.
func (x *session) invite(template string, to []ports.Recipient) error {
	if err := x.notify(template, to, nil); err != nil {
		return err
	}
	return x.web(template, to)
}

func (x *session) schedule(task ports.Task) error {
	return x.stage(ports.KindTask, task)
}

func (x *session) student() []ports.Recipient {
	st := x.d.Student()
	return []ports.Recipient{{PersonID: st.PersonID, Email: st.Email, Language: st.Language}}
}

func recipientOf(id domain.Identity) ports.Recipient {
	switch p := id.(type) {
	case domain.ExternalPerson:
		return ports.Recipient{Email: p.Email, Language: p.Language}
	case domain.InternalPerson:
		return ports.Recipient{PersonID: p.PersonID}
	default:
		return ports.Recipient{}
	}
}

func recipientsOf[R ~string](signatories []domain.Signatory[R]) []ports.Recipient {
	out := make([]ports.Recipient, 0, len(signatories))
	for _, s := range signatories {
		if r := recipientOf(s.Identity); r.PersonID != "" || r.Email != "" {
			out = append(out, r)
		}
	}
	return out
}

func people(ids []string) []ports.Recipient {
	out := make([]ports.Recipient, 0, len(ids))
	for _, id := range ids {
		out = append(out, ports.Recipient{PersonID: id})
	}
	return out
}

func (x *session) promoters() []ports.Recipient {
	return recipientsOf(x.group.Promoters())
}

func (x *session) juryMembers() []ports.Recipient {
	if x.jury == nil {
		return nil
	}
	return recipientsOf(x.jury.Members())
}

// signatoriesByID keeps the signatories whose id is in ids.
func signatoriesByID[R ~string](all []domain.Signatory[R], ids []domain.SignatoryID) []domain.Signatory[R] {
	want := make(map[domain.SignatoryID]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []domain.Signatory[R]
	for _, s := range all {
		if want[s.ID] {
			out = append(out, s)
		}
	}
	return out
}

package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"strings"

	"github.com/doctrack/doctrack/internal/domain/doctorate/ports"
	dterrors "github.com/doctrack/doctrack/internal/errors"
)

// Renderer fills a template with variables.
type Renderer interface {
	Render(ctx context.Context, tmpl ports.Template, vars map[string]string) (ports.Template, error)
}

// Collaborators are the services outbox messages are delivered to.
type Collaborators struct {
	Email     ports.EmailNotifier
	Web       ports.WebNotifier
	History   ports.History
	Tasks     ports.TaskScheduler
	People    ports.PersonDirectory
	Templates ports.TemplateResolver
	Renderer  Renderer
	// DefaultLanguage is used for recipients without a known language.
	DefaultLanguage string
}

// Dispatcher decodes an outbox message and hands it to its collaborator.
type Dispatcher struct {
	c Collaborators
}

// NewDispatcher creates a dispatcher.
func NewDispatcher(c Collaborators) *Dispatcher {
	if c.DefaultLanguage == "" {
		c.DefaultLanguage = "en"
	}
	return &Dispatcher{c: c}
}

// Dispatch delivers one message. Errors keep the kind reported by the
// collaborator so retries can tell transient failures from permanent ones.
func (d *Dispatcher) Dispatch(ctx context.Context, msg ports.OutboxMessage) error {
	switch msg.Kind {
	case ports.KindHistory:
		var entry ports.HistoryEntry
		if err := decode(msg, &entry); err != nil {
			return err
		}
		return d.c.History.Record(ctx, entry)
	case ports.KindTask:
		var task ports.Task
		if err := decode(msg, &task); err != nil {
			return err
		}
		return d.c.Tasks.Schedule(ctx, task)
	case ports.KindEmail:
		var req ports.EmailRequest
		if err := decode(msg, &req); err != nil {
			return err
		}
		return d.sendEmail(ctx, req)
	case ports.KindWeb:
		var req ports.WebRequest
		if err := decode(msg, &req); err != nil {
			return err
		}
		return d.sendWeb(ctx, req)
	default:
		return dterrors.Validation("outbox.Dispatch", fmt.Sprintf("unknown message kind %q", msg.Kind))
	}
}

func decode(msg ports.OutboxMessage, v any) error {
	if err := json.Unmarshal(msg.Payload, v); err != nil {
		return dterrors.Wrap(err, dterrors.KindValidation, "outbox.Dispatch", fmt.Sprintf("malformed %s payload", msg.Kind))
	}
	return nil
}

// contact is a recipient with its address and language resolved.
type contact struct {
	personID  string
	email     string
	language  string
	firstName string
	lastName  string
}

func (d *Dispatcher) resolve(ctx context.Context, r ports.Recipient) (contact, error) {
	c := contact{personID: r.PersonID, email: r.Email, language: r.Language}
	if r.PersonID != "" {
		p, err := d.c.People.Lookup(ctx, r.PersonID)
		switch {
		case err == nil:
		case dterrors.IsKind(err, dterrors.KindNotFound) && r.Email != "":
			// The message carries the address, e.g. students known only
			// through their admission.
			return withDefaultLanguage(c, d.c.DefaultLanguage), nil
		default:
			return contact{}, fmt.Errorf("failed to resolve person %s: %w", r.PersonID, err)
		}
		c.firstName, c.lastName = p.FirstName, p.LastName
		if c.email == "" {
			c.email = p.Email
		}
		if c.language == "" {
			c.language = p.Language
		}
	}
	return withDefaultLanguage(c, d.c.DefaultLanguage), nil
}

func withDefaultLanguage(c contact, lang string) contact {
	if c.language == "" {
		c.language = lang
	}
	return c
}

// sendEmail sends one email per recipient, each in the recipient's
// language, copying every cc address.
func (d *Dispatcher) sendEmail(ctx context.Context, req ports.EmailRequest) error {
	cc := make([]string, 0, len(req.Cc))
	for _, r := range req.Cc {
		c, err := d.resolve(ctx, r)
		if err != nil {
			return err
		}
		if c.email != "" {
			cc = append(cc, c.email)
		}
	}

	for _, r := range req.To {
		to, err := d.resolve(ctx, r)
		if err != nil {
			return err
		}
		if to.email == "" {
			return dterrors.Validation("outbox.sendEmail", "recipient has no email address")
		}

		content := ports.Template{Subject: req.Subject, Body: req.Body}
		if req.Subject == "" || req.Body == "" {
			content, err = d.render(ctx, req.Template, req.ManagementEntity, to, req.Vars)
			if err != nil {
				return err
			}
		}

		if err := d.c.Email.Send(ctx, ports.Email{
			To:       []string{to.email},
			Cc:       cc,
			Subject:  content.Subject,
			HTML:     toHTML(content.Body),
			Plain:    content.Body,
			Language: to.language,
			PersonID: to.personID,
		}); err != nil {
			return err
		}
	}
	return nil
}

func (d *Dispatcher) sendWeb(ctx context.Context, req ports.WebRequest) error {
	to, err := d.resolve(ctx, ports.Recipient{PersonID: req.PersonID})
	if err != nil {
		return err
	}
	content, err := d.render(ctx, req.Template, req.ManagementEntity, to, req.Vars)
	if err != nil {
		return err
	}
	return d.c.Web.Send(ctx, ports.WebNotification{
		PersonID: req.PersonID,
		Content:  content.Body,
		Language: to.language,
	})
}

func (d *Dispatcher) render(ctx context.Context, name, entity string, to contact, vars map[string]string) (ports.Template, error) {
	if name == "" {
		return ports.Template{}, dterrors.Validation("outbox.render", "notification has neither a template nor a written content")
	}
	tmpl, err := d.c.Templates.Resolve(name, entity, to.language)
	if err != nil {
		return ports.Template{}, err
	}
	all := make(map[string]string, len(vars)+2)
	for k, v := range vars {
		all[k] = v
	}
	all["recipient_first_name"] = to.firstName
	all["recipient_last_name"] = to.lastName
	return d.c.Renderer.Render(ctx, tmpl, all)
}

// toHTML turns a plain-text body into escaped paragraphs.
func toHTML(plain string) string {
	var b strings.Builder
	for _, para := range strings.Split(strings.TrimSpace(plain), "\n\n") {
		if para == "" {
			continue
		}
		b.WriteString("<p>")
		b.WriteString(strings.ReplaceAll(html.EscapeString(para), "\n", "<br>"))
		b.WriteString("</p>\n")
	}
	return b.String()
}

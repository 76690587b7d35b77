package outbox

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doctrack/doctrack/internal/application/doctorate"
	"github.com/doctrack/doctrack/internal/domain/doctorate/ports"
	dterrors "github.com/doctrack/doctrack/internal/errors"
	"github.com/doctrack/doctrack/internal/infrastructure/notification"
)

type dispatchFixture struct {
	recorder   *notification.Recorder
	dispatcher *Dispatcher
}

func newDispatchFixture(t *testing.T) dispatchFixture {
	t.Helper()

	catalog, err := notification.NewCatalog()
	require.NoError(t, err)

	rec := notification.NewRecorder()
	people := notification.NewDirectory(
		ports.Person{ID: "promoter-1", FirstName: "Marie", LastName: "Curie", Email: "curie@uni.test", Language: "fr-BE"},
		ports.Person{ID: "adre-1", FirstName: "Alan", LastName: "Turing", Email: "turing@uni.test"},
	)
	return dispatchFixture{
		recorder: rec,
		dispatcher: NewDispatcher(Collaborators{
			Email:     rec.EmailNotifier(),
			Web:       rec.WebNotifier(),
			History:   rec,
			Tasks:     rec,
			People:    people,
			Templates: catalog,
			Renderer:  notification.NewRenderer(0),
		}),
	}
}

func message(t *testing.T, kind ports.MessageKind, payload any) ports.OutboxMessage {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	return ports.OutboxMessage{ID: "m-1", AggregateID: "d-1", Kind: kind, Payload: raw}
}

func TestDispatch_History(t *testing.T) {
	f := newDispatchFixture(t)
	at := time.Date(2022, 3, 1, 10, 0, 0, 0, time.UTC)

	err := f.dispatcher.Dispatch(context.Background(), message(t, ports.KindHistory, ports.HistoryEntry{
		ObjectID: "d-1",
		Tags:     []string{"jury", "status-changed"},
		Message:  "reject_jury_cdd",
		Author:   "cdd-1",
		At:       at,
	}))

	require.NoError(t, err)
	entries := f.recorder.HistoryOf("d-1")
	require.Len(t, entries, 1)
	assert.Equal(t, []string{"jury", "status-changed"}, entries[0].Tags)
	assert.True(t, at.Equal(entries[0].At))
}

func TestDispatch_Task(t *testing.T) {
	f := newDispatchFixture(t)

	err := f.dispatcher.Dispatch(context.Background(), message(t, ports.KindTask, ports.Task{
		Name:    doctorate.TaskGenerateCertificate,
		Owner:   "student-1",
		Kind:    "confirmation-success",
		Context: map[string]string{"doctorate_id": "d-1"},
	}))

	require.NoError(t, err)
	require.Len(t, f.recorder.Tasks(), 1)
	assert.Equal(t, "d-1", f.recorder.Tasks()[0].Context["doctorate_id"])
}

func TestDispatch_TemplatedEmailPerRecipientLanguage(t *testing.T) {
	f := newDispatchFixture(t)

	err := f.dispatcher.Dispatch(context.Background(), message(t, ports.KindEmail, ports.EmailRequest{
		Template: doctorate.TemplateJuryInvitation,
		To: []ports.Recipient{
			{PersonID: "promoter-1"},
			{Email: "external@other.test", Language: "en"},
		},
		Cc:   []ports.Recipient{{PersonID: "adre-1"}},
		Vars: map[string]string{"reference": "D-2022-1", "student_first_name": "Ada", "student_last_name": "Lovelace"},
	}))

	require.NoError(t, err)
	emails := f.recorder.Emails()
	require.Len(t, emails, 2)

	assert.Equal(t, []string{"curie@uni.test"}, emails[0].To)
	assert.Equal(t, []string{"turing@uni.test"}, emails[0].Cc)
	assert.Equal(t, "fr-BE", emails[0].Language)
	assert.Equal(t, "promoter-1", emails[0].PersonID)
	assert.Equal(t, "Invitation au jury du doctorat D-2022-1", emails[0].Subject)
	assert.Contains(t, emails[0].Plain, "Bonjour Marie Curie")
	assert.Contains(t, emails[0].HTML, "<p>")

	assert.Equal(t, []string{"external@other.test"}, emails[1].To)
	assert.Equal(t, "en", emails[1].Language)
	assert.Empty(t, emails[1].PersonID)
	assert.Equal(t, "Invitation to the jury of D-2022-1", emails[1].Subject)
}

func TestDispatch_WrittenEmailIsSentAsIs(t *testing.T) {
	f := newDispatchFixture(t)

	err := f.dispatcher.Dispatch(context.Background(), message(t, ports.KindEmail, ports.EmailRequest{
		To:      []ports.Recipient{{Email: "student@uni.test", Language: "fr-BE"}},
		Subject: "Décision",
		Body:    "Réussite <confirmée>.\n\nBravo.",
	}))

	require.NoError(t, err)
	emails := f.recorder.Emails()
	require.Len(t, emails, 1)
	assert.Equal(t, "Décision", emails[0].Subject)
	assert.Equal(t, "Réussite <confirmée>.\n\nBravo.", emails[0].Plain)
	assert.Equal(t, "<p>Réussite &lt;confirmée&gt;.</p>\n<p>Bravo.</p>\n", emails[0].HTML)
}

func TestDispatch_UnknownPersonWithAddress(t *testing.T) {
	f := newDispatchFixture(t)

	err := f.dispatcher.Dispatch(context.Background(), message(t, ports.KindEmail, ports.EmailRequest{
		To:      []ports.Recipient{{PersonID: "student-1", Email: "student@uni.test"}},
		Subject: "Hello",
		Body:    "Body",
	}))

	require.NoError(t, err)
	emails := f.recorder.Emails()
	require.Len(t, emails, 1)
	assert.Equal(t, []string{"student@uni.test"}, emails[0].To)
	assert.Equal(t, "en", emails[0].Language)
	assert.Equal(t, "student-1", emails[0].PersonID)
}

func TestDispatch_WebNotification(t *testing.T) {
	f := newDispatchFixture(t)

	err := f.dispatcher.Dispatch(context.Background(), message(t, ports.KindWeb, ports.WebRequest{
		PersonID: "adre-1",
		Template: doctorate.TemplateAuthorizationToSign,
		Vars:     map[string]string{"reference": "D-2022-1"},
	}))

	require.NoError(t, err)
	web := f.recorder.WebNotifications()
	require.Len(t, web, 1)
	assert.Equal(t, "adre-1", web[0].PersonID)
	assert.Equal(t, "en", web[0].Language)
	assert.Contains(t, web[0].Content, "Dear Alan Turing")
}

func TestDispatch_PermanentFailures(t *testing.T) {
	f := newDispatchFixture(t)
	ctx := context.Background()

	err := f.dispatcher.Dispatch(ctx, message(t, ports.KindWeb, ports.WebRequest{
		PersonID: "nobody",
		Template: doctorate.TemplateJuryInvitation,
	}))
	assert.True(t, dterrors.IsKind(err, dterrors.KindNotFound))
	assert.False(t, IsRetryable(err))

	err = f.dispatcher.Dispatch(ctx, message(t, ports.KindEmail, ports.EmailRequest{
		Template: "no-such-template",
		To:       []ports.Recipient{{Email: "a@uni.test"}},
	}))
	assert.True(t, dterrors.IsKind(err, dterrors.KindNotFound))

	err = f.dispatcher.Dispatch(ctx, ports.OutboxMessage{Kind: ports.KindHistory, Payload: json.RawMessage(`{`)})
	assert.True(t, dterrors.IsKind(err, dterrors.KindValidation))

	err = f.dispatcher.Dispatch(ctx, ports.OutboxMessage{Kind: "fax", Payload: json.RawMessage(`{}`)})
	assert.True(t, dterrors.IsKind(err, dterrors.KindValidation))

	assert.Empty(t, f.recorder.Emails())
	assert.Empty(t, f.recorder.WebNotifications())
}

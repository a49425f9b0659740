package main

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/tasko/pkg/mailer"
	mailtpl "github.com/oksasatya/tasko/pkg/mailer/templates"
)

type sent struct{ to, subject, text, html string }

type fakeSender struct {
	err  error
	sent []sent
}

func (f *fakeSender) Send(_ context.Context, to, subject, text, html string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sent{to, subject, text, html})
	return nil
}

func jobBody(t *testing.T, job mailer.EmailJob) []byte {
	t.Helper()
	b, err := json.Marshal(job)
	require.NoError(t, err)
	return b
}

func TestHandle_RendersEventTemplate(t *testing.T) {
	data := mailtpl.NewTaskEventData(nil, mailtpl.TaskAccepted, "Amina", "",
		mailtpl.WithTask("t-1", "Deliver groceries", "assigned", 500),
		mailtpl.WithActor("Otieno"),
	)
	s := &fakeSender{}

	requeue, err := handle(context.Background(), s, jobBody(t, mailer.EmailJob{
		To: "amina@example.com", Template: mailtpl.TaskAccepted, Data: data,
	}))

	require.NoError(t, err)
	assert.False(t, requeue)
	require.Len(t, s.sent, 1)
	assert.Equal(t, "amina@example.com", s.sent[0].to)
	assert.Equal(t, "A worker accepted Deliver groceries", s.sent[0].subject)
	assert.NotEmpty(t, s.sent[0].html)
}

func TestHandle_ExplicitSubjectWins(t *testing.T) {
	s := &fakeSender{}
	_, err := handle(context.Background(), s, jobBody(t, mailer.EmailJob{
		To: "a@example.com", Subject: "Hello", Text: "plain",
	}))

	require.NoError(t, err)
	assert.Equal(t, sent{"a@example.com", "Hello", "plain", ""}, s.sent[0])
}

func TestHandle_Failures(t *testing.T) {
	requeue, err := handle(context.Background(), &fakeSender{}, []byte("{not json"))
	assert.Error(t, err)
	assert.False(t, requeue, "malformed messages are dropped")

	requeue, err = handle(context.Background(), &fakeSender{}, jobBody(t, mailer.EmailJob{To: "a@example.com", Template: "missing"}))
	assert.Error(t, err)
	assert.False(t, requeue)

	requeue, err = handle(context.Background(), &fakeSender{err: errors.New("mailgun down")}, jobBody(t, mailer.EmailJob{To: "a@example.com", Text: "x"}))
	assert.Error(t, err)
	assert.True(t, requeue, "send failures are retried")
}

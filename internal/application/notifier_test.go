package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/oksasatya/tasko/config"
	"github.com/oksasatya/tasko/internal/domain/entity"
	"github.com/oksasatya/tasko/internal/testutil"
	tpl "github.com/oksasatya/tasko/pkg/mailer/templates"
)

func TestNotifier_Disabled(t *testing.T) {
	pub := &testutil.Publisher{}
	n := NewNotifier(pub, &config.Config{MailSendEnabled: false}, nil)

	n.Notify(context.Background(), tpl.TaskAccepted, &entity.Party{Email: "a@example.com"})

	assert.Empty(t, pub.Jobs)
}

func TestNotifier_SkipsMissingRecipient(t *testing.T) {
	pub := &testutil.Publisher{}
	n := NewNotifier(pub, nil, nil)

	n.Notify(context.Background(), tpl.TaskAccepted, nil)
	n.Notify(context.Background(), tpl.TaskAccepted, &entity.Party{Name: "no email"})

	assert.Empty(t, pub.Jobs)
}

func TestNotifier_BuildsUniversalJob(t *testing.T) {
	pub := &testutil.Publisher{}
	n := NewNotifier(pub, &config.Config{MailSendEnabled: true, CompanyName: "Tasko"}, nil)

	n.Notify(context.Background(), tpl.EscrowDeposited, &entity.Party{Name: "Otieno", Email: "o@example.com"},
		tpl.WithTask("t-1", "Laundry", "assigned", 300),
		tpl.WithEscrow(300, "mock_1"),
	)

	if assert.Len(t, pub.Jobs, 1) {
		job := pub.Jobs[0]
		assert.Equal(t, "o@example.com", job.To)
		assert.Equal(t, tpl.Universal, job.Template)
		assert.Equal(t, tpl.EscrowDeposited, job.Data["Type"])
		assert.Equal(t, "mock_1", job.Data["TransactionRef"])
		assert.Equal(t, "Tasko", job.Data["CompanyName"])
	}

	var nilNotifier *Notifier
	assert.NotPanics(t, func() {
		nilNotifier.Notify(context.Background(), tpl.TaskStarted, &entity.Party{Email: "x@example.com"})
	})
}

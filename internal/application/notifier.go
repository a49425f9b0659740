package application

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/tasko/config"
	"github.com/oksasatya/tasko/internal/domain/entity"
	"github.com/oksasatya/tasko/pkg/mailer"
	tpl "github.com/oksasatya/tasko/pkg/mailer/templates"
)

// JobPublisher enqueues email jobs; *helpers.RabbitPublisher satisfies it.
type JobPublisher interface {
	PublishJSON(ctx context.Context, body any) error
}

// Notifier turns lifecycle events into email jobs for the notify worker.
// Delivery is best-effort: failures are logged and never returned.
type Notifier struct {
	Pub    JobPublisher
	Cfg    *config.Config
	Logger *logrus.Logger
}

func NewNotifier(pub JobPublisher, cfg *config.Config, logger *logrus.Logger) *Notifier {
	return &Notifier{Pub: pub, Cfg: cfg, Logger: logger}
}

func (n *Notifier) enabled() bool {
	if n == nil || n.Pub == nil {
		return false
	}
	return n.Cfg == nil || n.Cfg.MailSendEnabled
}

// Notify publishes a universal-template job of type typ addressed to to.
func (n *Notifier) Notify(ctx context.Context, typ string, to *entity.Party, opts ...tpl.Option) {
	if !n.enabled() || to == nil || to.Email == "" {
		return
	}
	opts = append(opts, tpl.WithTime(time.Now()))
	job := mailer.EmailJob{
		To:       to.Email,
		Template: tpl.Universal,
		Data:     tpl.NewTaskEventData(n.Cfg, typ, to.Name, to.Email, opts...),
	}

	// the request may finish before the broker answers
	c, cancel := context.WithTimeout(context.WithoutCancel(ctx), 3*time.Second)
	defer cancel()
	if err := n.Pub.PublishJSON(c, job); err != nil && n.Logger != nil {
		n.Logger.WithError(err).WithFields(logrus.Fields{"type": typ, "to": to.Email}).Warn("enqueue notification failed")
	}
}

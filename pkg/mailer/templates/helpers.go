package templates

import (
	"time"

	"github.com/oksasatya/tasko/config"
)

// Option pattern
type Option func(*EmailData)

func WithTime(t time.Time) Option {
	return func(d *EmailData) {
		utc := t.UTC()
		d.TimeAt = utc
		d.Time = utc.Format("02 January 2006, 15:04")
	}
}

func WithTask(id, title, status string, price float64) Option {
	return func(d *EmailData) {
		d.TaskID = id
		d.TaskTitle = title
		d.TaskStatus = status
		d.Price = price
	}
}

// WithActor names the user whose action triggered the notification.
func WithActor(name string) Option { return func(d *EmailData) { d.ActorName = name } }

func WithEscrow(amount float64, ref string) Option {
	return func(d *EmailData) {
		d.EscrowAmount = amount
		d.TransactionRef = ref
	}
}

func WithSettlement(commission, payout float64) Option {
	return func(d *EmailData) {
		d.Commission = commission
		d.Payout = payout
	}
}

func WithReview(rating int, comment string, score float64) Option {
	return func(d *EmailData) {
		d.Rating = rating
		d.Comment = comment
		d.ReliabilityScore = score
	}
}

// NewBaseEmailData fills the shared fields from config, then applies options.
func NewBaseEmailData(cfg *config.Config, typ string, name, email string, opts ...Option) EmailData {
	d := EmailData{
		Name:           name,
		Email:          email,
		RecipientEmail: email,
		Type:           typ,
	}
	if cfg != nil {
		d.CompanyName = cfg.CompanyName
		d.CompanyAddress = cfg.CompanyAddress
		d.AppName = cfg.AppName
		d.LogoURL = cfg.LogoURL
		d.SupportURL = cfg.SupportURL
		d.DashboardURL = cfg.DashboardURL
	}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

// NewTaskEventData builds EmailJob.Data for a task notification.
func NewTaskEventData(cfg *config.Config, typ, name, email string, opts ...Option) map[string]any {
	return ToMap(NewBaseEmailData(cfg, typ, name, email, opts...))
}

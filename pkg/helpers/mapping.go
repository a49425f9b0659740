package helpers

import (
	"fmt"
	"strings"

	"github.com/oksasatya/tasko/pkg/mailer"
	mailtpl "github.com/oksasatya/tasko/pkg/mailer/templates"
)

func EnsureRecipientAndEmail(job *mailer.EmailJob) {
	if job.Data == nil {
		job.Data = map[string]any{}
	}
	if v, ok := job.Data["Email"]; !ok || fmt.Sprintf("%v", v) == "" {
		job.Data["Email"] = job.To
	}
	if v, ok := job.Data["RecipientEmail"]; !ok || fmt.Sprintf("%v", v) == "" {
		job.Data["RecipientEmail"] = job.To
	}
}

// MapEventToUniversal lets producers name the event as the template;
// every task event renders through the universal template.
func MapEventToUniversal(job *mailer.EmailJob) {
	switch strings.ToLower(job.Template) {
	case mailtpl.TaskAccepted, mailtpl.EscrowDeposited, mailtpl.TaskStarted, mailtpl.TaskCompleted, mailtpl.TaskReviewed:
		if job.Data == nil {
			job.Data = map[string]any{}
		}
		if _, ok := job.Data["Type"]; !ok || fmt.Sprintf("%v", job.Data["Type"]) == "" {
			job.Data["Type"] = job.Template
		}
		job.Template = mailtpl.Universal
	}
}

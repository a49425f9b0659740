package templates

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	htmpl "html/template"
	"reflect"
	"strings"
	texttpl "text/template"
	"time"
)

//go:embed *.tmpl
var FS embed.FS

// EmailData defines standard fields for task notification templates.
type EmailData struct {
	// Basic info
	Name           string `json:"Name"`
	Email          string `json:"Email"`
	RecipientEmail string `json:"RecipientEmail"`
	Type           string `json:"Type"`

	// Company info
	CompanyName    string `json:"CompanyName"`
	CompanyAddress string `json:"CompanyAddress"`
	AppName        string `json:"AppName"`

	// URLs
	LogoURL      string `json:"LogoURL"`
	SupportURL   string `json:"SupportURL"`
	DashboardURL string `json:"DashboardURL"`

	// Task
	TaskID     string  `json:"TaskID"`
	TaskTitle  string  `json:"TaskTitle"`
	TaskStatus string  `json:"TaskStatus"`
	Price      float64 `json:"Price"`
	ActorName  string  `json:"ActorName"`

	// Money
	EscrowAmount   float64 `json:"EscrowAmount"`
	TransactionRef string  `json:"TransactionRef"`
	Commission     float64 `json:"Commission"`
	Payout         float64 `json:"Payout"`

	// Review
	Rating           int     `json:"Rating"`
	Comment          string  `json:"Comment"`
	ReliabilityScore float64 `json:"ReliabilityScore"`

	Time   string    `json:"Time"`
	TimeAt time.Time `json:"TimeAt"`
}

// ToMap converts EmailData to a map[string]any for EmailJob.Data
func ToMap(d EmailData) map[string]any {
	b, _ := json.Marshal(d)
	var m map[string]any
	_ = json.Unmarshal(b, &m)
	return m
}

// defaultFn supports pipe usage: {{ .Value | default "Fallback" }}
func defaultFn(fallback any, value any) any {
	switch x := value.(type) {
	case string:
		if strings.TrimSpace(x) == "" {
			return fallback
		}
		return x
	case nil:
		return fallback
	default:
		rv := reflect.ValueOf(value)
		if !rv.IsValid() {
			return fallback
		}
		if rv.IsZero() {
			return fallback
		}
		return value
	}
}

// money renders numbers decoded from JSON (float64) with two decimals.
func money(v any) string {
	switch x := v.(type) {
	case float64:
		return fmt.Sprintf("%.2f", x)
	case int:
		return fmt.Sprintf("%d.00", x)
	}
	return fmt.Sprintf("%v", v)
}

func baseFuncs() map[string]any {
	return map[string]any{
		"now":     func() time.Time { return time.Now().UTC() },
		"upper":   strings.ToUpper,
		"default": defaultFn,
		"money":   money,
		"stars": func(v any) string {
			n := 0
			switch x := v.(type) {
			case float64:
				n = int(x)
			case int:
				n = x
			}
			if n < 0 || n > 5 {
				return ""
			}
			return strings.Repeat("★", n) + strings.Repeat("☆", 5-n)
		},
	}
}

var (
	htmlFuncMap = htmpl.FuncMap(baseFuncs())
	textFuncMap = texttpl.FuncMap(baseFuncs())
)

// ---- Notification types ----

const (
	TaskAccepted    = "task_accepted"
	EscrowDeposited = "escrow_deposited"
	TaskStarted     = "task_started"
	TaskCompleted   = "task_completed"
	TaskReviewed    = "task_reviewed"
)

// Universal is the single template that renders every notification type.
const Universal = "universal"

// renderFile loads and renders a single template file from the embedded FS.
// isHTML indicates whether to use html/template (true) or text/template (false).
func renderFile(filename string, isHTML bool, data any) (string, error) {
	var (
		buf bytes.Buffer
		err error
	)

	if isHTML {
		tpl, e := htmpl.New(filename).Funcs(htmlFuncMap).ParseFS(FS, filename)
		if e != nil {
			return "", fmt.Errorf("parse html %q: %w", filename, e)
		}
		err = tpl.Execute(&buf, data)
	} else {
		tpl, e := texttpl.New(filename).Funcs(textFuncMap).ParseFS(FS, filename)
		if e != nil {
			return "", fmt.Errorf("parse text %q: %w", filename, e)
		}
		err = tpl.Execute(&buf, data)
	}
	if err != nil {
		return "", fmt.Errorf("exec %q: %w", filename, err)
	}
	return buf.String(), nil
}

// Subject picks the subject line for a notification type.
func Subject(data map[string]any) string {
	title := strings.TrimSpace(fmt.Sprintf("%v", data["TaskTitle"]))
	if title == "" || title == "<nil>" {
		title = "your task"
	}
	switch strings.ToLower(fmt.Sprintf("%v", data["Type"])) {
	case TaskAccepted:
		return "A worker accepted " + title
	case EscrowDeposited:
		return "Payment secured for " + title
	case TaskStarted:
		return "Work has started on " + title
	case TaskCompleted:
		return title + " is complete"
	case TaskReviewed:
		return "You received a review for " + title
	default:
		return "Task update"
	}
}

// Render renders subject, text and html for name.
// Expects <name>.text.tmpl and <name>.html.tmpl; the subject comes from Subject.
func Render(name string, data map[string]any) (subject string, text string, html string, err error) {
	text, err = renderFile(name+".text.tmpl", false, data)
	if err != nil {
		return "", "", "", err
	}
	html, err = renderFile(name+".html.tmpl", true, data)
	if err != nil {
		return "", "", "", err
	}
	return Subject(data), text, html, nil
}

package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/oksasatya/tasko/pkg/mailer"
)

// Publisher records published email jobs.
type Publisher struct {
	mu   sync.Mutex
	Jobs []mailer.EmailJob
	Err  error
}

func (p *Publisher) PublishJSON(_ context.Context, body any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}
	var job mailer.EmailJob
	if err := json.Unmarshal(b, &job); err != nil {
		return err
	}
	p.Jobs = append(p.Jobs, job)
	return nil
}

// Types lists the Data["Type"] of every recorded job, in order.
func (p *Publisher) Types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.Jobs))
	for _, j := range p.Jobs {
		t, _ := j.Data["Type"].(string)
		out = append(out, t)
	}
	return out
}

// Payments returns sequential references.
type Payments struct {
	mu    sync.Mutex
	n     int
	Err   error
	Calls []float64

	// OnCharge, when set, runs after a successful charge and before Charge returns.
	OnCharge func(taskID string)
}

func (p *Payments) Charge(_ context.Context, taskID string, amount float64) (string, error) {
	p.mu.Lock()
	if p.Err != nil {
		p.mu.Unlock()
		return "", p.Err
	}
	p.n++
	p.Calls = append(p.Calls, amount)
	ref, hook := fmt.Sprintf("mock_%d", p.n), p.OnCharge
	p.mu.Unlock()

	if hook != nil {
		hook(taskID)
	}
	return ref, nil
}

// Avatars keeps uploaded objects in memory.
type Avatars struct {
	mu      sync.Mutex
	Objects map[string][]byte
}

func (a *Avatars) Upload(_ context.Context, objectPath, _ string, r io.Reader) (string, error) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return "", err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.Objects == nil {
		a.Objects = map[string][]byte{}
	}
	a.Objects[objectPath] = buf.Bytes()
	return "https://storage.googleapis.com/test-bucket/" + objectPath, nil
}

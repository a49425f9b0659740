package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// MockGateway accepts every charge and returns a time-based reference.
type MockGateway struct {
	Logger *logrus.Logger
	Now    func() time.Time
}

func NewMockGateway(logger *logrus.Logger) *MockGateway {
	return &MockGateway{Logger: logger, Now: time.Now}
}

func (g *MockGateway) Charge(ctx context.Context, taskID string, amount float64) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	ref := fmt.Sprintf("mock_%d", g.Now().UnixMilli())
	if g.Logger != nil {
		g.Logger.WithFields(logrus.Fields{"task_id": taskID, "amount": amount, "ref": ref}).Info("escrow charged")
	}
	return ref, nil
}

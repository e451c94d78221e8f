package services

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/teambalancer/teambalancer-api/internal/oracle"
)

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) AssignmentsGenerated(ctx context.Context, cycleDate time.Time) error {
	args := m.Called(ctx, cycleDate)
	return args.Error(0)
}

func (m *mockNotifier) WorkPortionCreated(ctx context.Context, portionName, createdBy string) error {
	args := m.Called(ctx, portionName, createdBy)
	return args.Error(0)
}

func (m *mockNotifier) SystemError(ctx context.Context, message string) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) BroadcastAssignmentsGenerated(runID string, cycleDate time.Time, count int) {
	m.Called(runID, cycleDate, count)
}

func (m *mockPublisher) BroadcastWorkPortionCreated(id int64, name string, weight int, createdBy int64) {
	m.Called(id, name, weight, createdBy)
}

type mockOracle struct {
	mock.Mock
}

func (m *mockOracle) Distribute(ctx context.Context, in oracle.Input) (oracle.Distribution, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(oracle.Distribution), args.Error(1)
}

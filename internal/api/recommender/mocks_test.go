package recommender

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/FACorreiaa/go-roteiro-planner/internal/types"
)

// MockClient is a mock implementation of roteiro.Client
type MockClient struct {
	mock.Mock
}

func (m *MockClient) Login(ctx context.Context, email, password string) (types.User, error) {
	args := m.Called(ctx, email, password)
	return args.Get(0).(types.User), args.Error(1)
}

func (m *MockClient) Preferences(ctx context.Context) ([]types.Preference, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Preference), args.Error(1)
}

func (m *MockClient) UserPreferences(ctx context.Context, userID int64) ([]types.Preference, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Preference), args.Error(1)
}

func (m *MockClient) SavePreferences(ctx context.Context, userID int64, names []string) error {
	args := m.Called(ctx, userID, names)
	return args.Error(0)
}

func (m *MockClient) Places(ctx context.Context, filter types.PlaceFilter) ([]types.Place, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Place), args.Error(1)
}

func (m *MockClient) Recommendations(ctx context.Context, userID int64) ([]types.Place, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Place), args.Error(1)
}

func (m *MockClient) CreateSchedule(ctx context.Context, req types.CreateScheduleRequest) (types.CreatedSchedule, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(types.CreatedSchedule), args.Error(1)
}

func (m *MockClient) SchedulesByUser(ctx context.Context, userID int64) ([]types.Schedule, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Schedule), args.Error(1)
}

package testutil

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/teambalancer/teambalancer-api/internal/models"
	"github.com/teambalancer/teambalancer-api/internal/oauth"
	"github.com/teambalancer/teambalancer-api/internal/services"
	"github.com/teambalancer/teambalancer-api/internal/sse"
)

// MockUserService mocks the UserService
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) FindOrCreateFromOAuth(ctx context.Context, info *oauth.UserInfo) (*models.User, error) {
	args := m.Called(ctx, info)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) GetByID(ctx context.Context, id int64) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) List(ctx context.Context) ([]models.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *MockUserService) UpdateRole(ctx context.Context, id int64, role string) (*models.User, error) {
	args := m.Called(ctx, id, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

// MockTokenService mocks the TokenService
type MockTokenService struct {
	mock.Mock
}

func (m *MockTokenService) StoreRefreshToken(ctx context.Context, userID int64, tokenHash string, expiresAt time.Time) error {
	args := m.Called(ctx, userID, tokenHash, expiresAt)
	return args.Error(0)
}

func (m *MockTokenService) ValidateRefreshToken(ctx context.Context, tokenHash string) (int64, error) {
	args := m.Called(ctx, tokenHash)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTokenService) RevokeRefreshToken(ctx context.Context, tokenHash string) error {
	args := m.Called(ctx, tokenHash)
	return args.Error(0)
}

func (m *MockTokenService) RevokeAllUserTokens(ctx context.Context, userID int64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// MockJWTService mocks the JWTService
type MockJWTService struct {
	mock.Mock
}

func (m *MockJWTService) GenerateTokenPair(userID int64, role string) (*services.TokenPair, error) {
	args := m.Called(userID, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.TokenPair), args.Error(1)
}

func (m *MockJWTService) ValidateRefreshToken(token string) (int64, error) {
	args := m.Called(token)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockJWTService) RefreshExpiry() time.Duration {
	args := m.Called()
	return args.Get(0).(time.Duration)
}

// MockUserClassService mocks the UserClassService
type MockUserClassService struct {
	mock.Mock
}

func (m *MockUserClassService) Create(ctx context.Context, name string, description *string) (*models.UserClass, error) {
	args := m.Called(ctx, name, description)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserClass), args.Error(1)
}

func (m *MockUserClassService) GetByID(ctx context.Context, id int64) (*models.UserClass, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserClass), args.Error(1)
}

func (m *MockUserClassService) List(ctx context.Context) ([]models.UserClass, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.UserClass), args.Error(1)
}

func (m *MockUserClassService) ClassesForUser(ctx context.Context, userID int64) ([]models.UserClass, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.UserClass), args.Error(1)
}

func (m *MockUserClassService) ListUsers(ctx context.Context, classID int64) ([]models.User, error) {
	args := m.Called(ctx, classID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *MockUserClassService) AssignUser(ctx context.Context, classID, userID, assignedBy int64) (*models.UserClassAssignment, error) {
	args := m.Called(ctx, classID, userID, assignedBy)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserClassAssignment), args.Error(1)
}

func (m *MockUserClassService) RemoveUser(ctx context.Context, classID, userID int64) error {
	args := m.Called(ctx, classID, userID)
	return args.Error(0)
}

// MockWorkPortionService mocks the WorkPortionService
type MockWorkPortionService struct {
	mock.Mock
}

func (m *MockWorkPortionService) Create(ctx context.Context, in services.WorkPortionInput, creator *models.User) (*models.WorkPortion, error) {
	args := m.Called(ctx, in, creator)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WorkPortion), args.Error(1)
}

func (m *MockWorkPortionService) GetByID(ctx context.Context, id int64) (*models.WorkPortion, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WorkPortion), args.Error(1)
}

func (m *MockWorkPortionService) List(ctx context.Context) ([]models.WorkPortion, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.WorkPortion), args.Error(1)
}

func (m *MockWorkPortionService) Update(ctx context.Context, id int64, in services.WorkPortionInput) (*models.WorkPortion, error) {
	args := m.Called(ctx, id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WorkPortion), args.Error(1)
}

func (m *MockWorkPortionService) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockWorkPortionService) GrantAccess(ctx context.Context, workPortionID, classID int64) error {
	args := m.Called(ctx, workPortionID, classID)
	return args.Error(0)
}

func (m *MockWorkPortionService) RevokeAccess(ctx context.Context, workPortionID, classID int64) error {
	args := m.Called(ctx, workPortionID, classID)
	return args.Error(0)
}

func (m *MockWorkPortionService) ListAccess(ctx context.Context, workPortionID int64) ([]models.UserClass, error) {
	args := m.Called(ctx, workPortionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.UserClass), args.Error(1)
}

// MockAccessService mocks the AccessService
type MockAccessService struct {
	mock.Mock
}

func (m *MockAccessService) HasAccess(ctx context.Context, userID, workPortionID int64) (bool, error) {
	args := m.Called(ctx, userID, workPortionID)
	return args.Bool(0), args.Error(1)
}

// MockPreferenceService mocks the PreferenceService
type MockPreferenceService struct {
	mock.Mock
}

func (m *MockPreferenceService) Set(ctx context.Context, userID, workPortionID int64, level int) (*models.WorkloadPreference, error) {
	args := m.Called(ctx, userID, workPortionID, level)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WorkloadPreference), args.Error(1)
}

func (m *MockPreferenceService) ListForUser(ctx context.Context, userID int64) ([]models.WorkloadPreference, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.WorkloadPreference), args.Error(1)
}

// MockAssignmentService mocks the AssignmentService
type MockAssignmentService struct {
	mock.Mock
}

func (m *MockAssignmentService) GenerateAndSave(ctx context.Context, cycleDate time.Time) (*services.GenerationResult, error) {
	args := m.Called(ctx, cycleDate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.GenerationResult), args.Error(1)
}

func (m *MockAssignmentService) Current(ctx context.Context, cycleDate time.Time) ([]models.WorkAssignmentDetail, error) {
	args := m.Called(ctx, cycleDate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.WorkAssignmentDetail), args.Error(1)
}

func (m *MockAssignmentService) HistoryForUser(ctx context.Context, userID int64) ([]models.AssignmentHistoryDetail, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.AssignmentHistoryDetail), args.Error(1)
}

func (m *MockAssignmentService) HistoryForWorkPortion(ctx context.Context, workPortionID int64) ([]models.AssignmentHistoryDetail, error) {
	args := m.Called(ctx, workPortionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.AssignmentHistoryDetail), args.Error(1)
}

func (m *MockAssignmentService) CompleteHistoryEntry(ctx context.Context, id, userID int64) (*models.AssignmentHistory, error) {
	args := m.Called(ctx, id, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AssignmentHistory), args.Error(1)
}

// MockHub mocks the SSE hub
type MockHub struct {
	mock.Mock
}

func (m *MockHub) Register(client *sse.Client) {
	m.Called(client)
}

func (m *MockHub) Unregister(client *sse.Client) {
	m.Called(client)
}

// MockPinger mocks a database health check
type MockPinger struct {
	mock.Mock
}

func (m *MockPinger) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

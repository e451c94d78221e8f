package handlers

import (
	"context"
	"time"

	"github.com/teambalancer/teambalancer-api/internal/models"
	"github.com/teambalancer/teambalancer-api/internal/oauth"
	"github.com/teambalancer/teambalancer-api/internal/services"
	"github.com/teambalancer/teambalancer-api/internal/sse"
)

// UserServiceInterface defines the methods used by handlers from UserService
type UserServiceInterface interface {
	FindOrCreateFromOAuth(ctx context.Context, info *oauth.UserInfo) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	UpdateRole(ctx context.Context, id int64, role string) (*models.User, error)
}

// TokenServiceInterface defines the methods used by handlers from TokenService
type TokenServiceInterface interface {
	StoreRefreshToken(ctx context.Context, userID int64, tokenHash string, expiresAt time.Time) error
	ValidateRefreshToken(ctx context.Context, tokenHash string) (int64, error)
	RevokeRefreshToken(ctx context.Context, tokenHash string) error
	RevokeAllUserTokens(ctx context.Context, userID int64) error
}

// JWTServiceInterface defines the methods used by handlers from JWTService
type JWTServiceInterface interface {
	GenerateTokenPair(userID int64, role string) (*services.TokenPair, error)
	ValidateRefreshToken(token string) (int64, error)
	RefreshExpiry() time.Duration
}

// UserClassServiceInterface defines the methods used by handlers from UserClassService
type UserClassServiceInterface interface {
	Create(ctx context.Context, name string, description *string) (*models.UserClass, error)
	GetByID(ctx context.Context, id int64) (*models.UserClass, error)
	List(ctx context.Context) ([]models.UserClass, error)
	ClassesForUser(ctx context.Context, userID int64) ([]models.UserClass, error)
	ListUsers(ctx context.Context, classID int64) ([]models.User, error)
	AssignUser(ctx context.Context, classID, userID, assignedBy int64) (*models.UserClassAssignment, error)
	RemoveUser(ctx context.Context, classID, userID int64) error
}

// WorkPortionServiceInterface defines the methods used by handlers from WorkPortionService
type WorkPortionServiceInterface interface {
	Create(ctx context.Context, in services.WorkPortionInput, creator *models.User) (*models.WorkPortion, error)
	GetByID(ctx context.Context, id int64) (*models.WorkPortion, error)
	List(ctx context.Context) ([]models.WorkPortion, error)
	Update(ctx context.Context, id int64, in services.WorkPortionInput) (*models.WorkPortion, error)
	Delete(ctx context.Context, id int64) error
	GrantAccess(ctx context.Context, workPortionID, classID int64) error
	RevokeAccess(ctx context.Context, workPortionID, classID int64) error
	ListAccess(ctx context.Context, workPortionID int64) ([]models.UserClass, error)
}

// AccessServiceInterface defines the methods used by handlers from AccessService
type AccessServiceInterface interface {
	HasAccess(ctx context.Context, userID, workPortionID int64) (bool, error)
}

// PreferenceServiceInterface defines the methods used by handlers from PreferenceService
type PreferenceServiceInterface interface {
	Set(ctx context.Context, userID, workPortionID int64, level int) (*models.WorkloadPreference, error)
	ListForUser(ctx context.Context, userID int64) ([]models.WorkloadPreference, error)
}

// AssignmentServiceInterface defines the methods used by handlers from AssignmentService
type AssignmentServiceInterface interface {
	GenerateAndSave(ctx context.Context, cycleDate time.Time) (*services.GenerationResult, error)
	Current(ctx context.Context, cycleDate time.Time) ([]models.WorkAssignmentDetail, error)
	HistoryForUser(ctx context.Context, userID int64) ([]models.AssignmentHistoryDetail, error)
	HistoryForWorkPortion(ctx context.Context, workPortionID int64) ([]models.AssignmentHistoryDetail, error)
	CompleteHistoryEntry(ctx context.Context, id, userID int64) (*models.AssignmentHistory, error)
}

// HubInterface defines the methods used by handlers from the SSE Hub
type HubInterface interface {
	Register(client *sse.Client)
	Unregister(client *sse.Client)
}

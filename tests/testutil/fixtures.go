package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/teambalancer/teambalancer-api/internal/database"
	"github.com/teambalancer/teambalancer-api/internal/models"
	"github.com/teambalancer/teambalancer-api/internal/oauth"
)

// Fixtures provides factory methods for creating test data
type Fixtures struct {
	db      *database.DB
	counter int
}

// NewFixtures creates a new fixtures factory
func NewFixtures(db *database.DB) *Fixtures {
	return &Fixtures{db: db}
}

// CreateUser inserts a user directly, bypassing the admin bootstrap claim
func (f *Fixtures) CreateUser(t *testing.T, opts ...UserOption) *models.User {
	t.Helper()
	f.counter++

	user := &models.User{
		DiscordID: fmt.Sprintf("discord-%d", f.counter),
		Username:  fmt.Sprintf("user%d", f.counter),
		Role:      models.RoleUser,
	}

	for _, opt := range opts {
		opt(user)
	}

	err := f.db.Pool.QueryRow(context.Background(), `
		INSERT INTO users (discord_id, username, avatar, role)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`, user.DiscordID, user.Username, user.Avatar, user.Role).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	return user
}

// UserOption configures a test user
type UserOption func(*models.User)

// WithUsername sets the user's username
func WithUsername(name string) UserOption {
	return func(u *models.User) {
		u.Username = name
	}
}

// WithDiscordID sets the user's Discord id
func WithDiscordID(id string) UserOption {
	return func(u *models.User) {
		u.DiscordID = id
	}
}

// AsAdmin gives the user the admin role
func AsAdmin() UserOption {
	return func(u *models.User) {
		u.Role = models.RoleAdmin
	}
}

// CreateUserClass creates a class with a unique name
func (f *Fixtures) CreateUserClass(t *testing.T) *models.UserClass {
	t.Helper()
	f.counter++

	class := &models.UserClass{Name: fmt.Sprintf("class-%d", f.counter)}
	err := f.db.Pool.QueryRow(context.Background(), `
		INSERT INTO user_classes (name) VALUES ($1)
		RETURNING id, created_at
	`, class.Name).Scan(&class.ID, &class.CreatedAt)
	if err != nil {
		t.Fatalf("failed to create user class: %v", err)
	}
	return class
}

// AddToClass puts user into class
func (f *Fixtures) AddToClass(t *testing.T, user *models.User, class *models.UserClass) {
	t.Helper()
	_, err := f.db.Pool.Exec(context.Background(), `
		INSERT INTO user_class_assignments (user_id, user_class_id) VALUES ($1, $2)
	`, user.ID, class.ID)
	if err != nil {
		t.Fatalf("failed to add user to class: %v", err)
	}
}

// CreateWorkPortion creates a work portion with the given weight
func (f *Fixtures) CreateWorkPortion(t *testing.T, creator *models.User, weight int) *models.WorkPortion {
	t.Helper()
	f.counter++

	wp := &models.WorkPortion{
		Name:      fmt.Sprintf("portion-%d", f.counter),
		Weight:    weight,
		CreatedBy: &creator.ID,
	}
	err := f.db.Pool.QueryRow(context.Background(), `
		INSERT INTO work_portions (name, weight, created_by) VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`, wp.Name, wp.Weight, creator.ID).Scan(&wp.ID, &wp.CreatedAt, &wp.UpdatedAt)
	if err != nil {
		t.Fatalf("failed to create work portion: %v", err)
	}
	return wp
}

// GrantAccess links a class to a work portion
func (f *Fixtures) GrantAccess(t *testing.T, wp *models.WorkPortion, class *models.UserClass) {
	t.Helper()
	_, err := f.db.Pool.Exec(context.Background(), `
		INSERT INTO work_portion_access (work_portion_id, user_class_id) VALUES ($1, $2)
	`, wp.ID, class.ID)
	if err != nil {
		t.Fatalf("failed to grant access: %v", err)
	}
}

// CreateAssignment inserts one active assignment row for cycle
func (f *Fixtures) CreateAssignment(t *testing.T, wp *models.WorkPortion, user *models.User, cycle time.Time) {
	t.Helper()
	_, err := f.db.Pool.Exec(context.Background(), `
		INSERT INTO work_assignments (work_portion_id, user_id, assignment_cycle) VALUES ($1, $2, $3)
	`, wp.ID, user.ID, cycle)
	if err != nil {
		t.Fatalf("failed to create assignment: %v", err)
	}
}

// DiscordUserInfo builds the identity a Discord sign-in would produce
func (f *Fixtures) DiscordUserInfo() *oauth.UserInfo {
	f.counter++
	return &oauth.UserInfo{
		ID:       fmt.Sprintf("discord-%d", f.counter),
		Username: fmt.Sprintf("signin%d", f.counter),
		Provider: "discord",
	}
}

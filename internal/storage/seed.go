package storage

import (
	"context"
	"fmt"

	"github.com/mmynk/splitsettle/internal/models"
)

// DemoUserID is the ID of the seeded demo account.
const DemoUserID = "demo-user"

// SeedDemo loads a demo user, three friends and two groups into an empty store.
func SeedDemo(ctx context.Context, s Store) error {
	users := []*models.User{
		{ID: DemoUserID, Username: "demo", Email: "demo@example.com", Name: "Demo User", Role: models.RoleMember},
		{ID: "user-1", Username: "john", Email: "john@example.com", Name: "John Doe", Role: models.RoleMember},
		{ID: "user-2", Username: "sarah", Email: "sarah@example.com", Name: "Sarah Miller", Role: models.RoleMember},
		{ID: "user-3", Username: "mike", Email: "mike@example.com", Name: "Mike Johnson", Role: models.RoleMember},
	}
	for _, u := range users {
		if err := s.CreateUser(ctx, u); err != nil {
			return fmt.Errorf("seed user %s: %w", u.ID, err)
		}
	}

	groups := []*models.Group{
		{
			ID:           "demo-group",
			Name:         "Weekend Trip",
			Description:  "Our weekend getaway expenses",
			CreatedBy:    DemoUserID,
			Participants: []string{DemoUserID, "user-1", "user-2", "user-3"},
		},
		{
			ID:           "work-group",
			Name:         "Office Lunch",
			Description:  "Team lunch expenses",
			CreatedBy:    DemoUserID,
			Participants: []string{DemoUserID, "user-1", "user-2"},
		},
	}
	for _, g := range groups {
		if err := s.CreateGroup(ctx, g); err != nil {
			return fmt.Errorf("seed group %s: %w", g.ID, err)
		}
	}
	return nil
}

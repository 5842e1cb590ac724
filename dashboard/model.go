// Package dashboard implements the backend of the web dashboard: the data
// model, an in-memory store that can follow a YAML dataset file, and the HTTP
// server exposing the JSON API and the index page.
//
// Routes:
//
//	GET /            HTML index page
//	GET /api/stats   dashboard statistics
//	GET /api/users   users, filtered with an optional "q" search document
//	GET /healthz     liveness probe
package dashboard

import (
	"errors"
	"fmt"
	"time"
)

// Role is the access level of a user.
type Role string

const (
	// RoleAdmin can manage everything.
	RoleAdmin Role = "admin"
	// RoleEditor can change content.
	RoleEditor Role = "editor"
	// RoleViewer can only read. It is the default role.
	RoleViewer Role = "viewer"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleEditor, RoleViewer:
		return true
	default:
		return false
	}
}

// User is a dashboard account.
type User struct {
	ID    int    `json:"id" yaml:"id"`
	Name  string `json:"name" yaml:"name"`
	Email string `json:"email,omitempty" yaml:"email"`
	Role  Role   `json:"role" yaml:"role"`
}

// Session is a login session of a user.
type Session struct {
	ID        string    `json:"id" yaml:"id"`
	UserID    int       `json:"user_id" yaml:"user_id"`
	StartedAt time.Time `json:"started_at" yaml:"started_at"`
	Active    bool      `json:"active" yaml:"active"`
}

// End marks the session as inactive.
func (s *Session) End() {
	s.Active = false
}

// Stats are the headline numbers of the dashboard.
type Stats struct {
	Users          int     `json:"users" yaml:"users"`
	ActiveSessions int     `json:"active_sessions" yaml:"active_sessions"`
	Revenue        float64 `json:"revenue" yaml:"revenue"`
	Uptime         string  `json:"uptime" yaml:"uptime"`
}

// Dataset is everything the dashboard serves.
type Dataset struct {
	Stats    Stats     `yaml:"stats"`
	Users    []User    `yaml:"users"`
	Sessions []Session `yaml:"sessions"`
}

// DefaultDataset returns the sample data served when no dataset file is configured.
func DefaultDataset() Dataset {
	return Dataset{
		Stats: Stats{
			Users:          1542,
			ActiveSessions: 87,
			Revenue:        24350.75,
			Uptime:         "99.97%",
		},
		Users: []User{
			{ID: 1, Name: "Alice", Email: "alice@example.com", Role: RoleAdmin},
			{ID: 2, Name: "Bob", Email: "bob@example.com", Role: RoleEditor},
			{ID: 3, Name: "Charlie", Email: "charlie@example.com", Role: RoleViewer},
		},
	}
}

// CurrentStats returns the stats of d. When sessions are listed, the number
// of active sessions is counted from them.
func (d Dataset) CurrentStats() Stats {
	stats := d.Stats
	if len(d.Sessions) == 0 {
		return stats
	}

	stats.ActiveSessions = 0
	for _, s := range d.Sessions {
		if s.Active {
			stats.ActiveSessions++
		}
	}

	return stats
}

// normalize fills default roles and checks that d is consistent.
func (d *Dataset) normalize() error {
	ids := make(map[int]struct{}, len(d.Users))

	for i := range d.Users {
		u := &d.Users[i]
		if u.Role == "" {
			u.Role = RoleViewer
		}
		if !u.Role.Valid() {
			return fmt.Errorf("user %d: unknown role %q", u.ID, u.Role)
		}
		if _, dup := ids[u.ID]; dup {
			return fmt.Errorf("user %d: duplicate id", u.ID)
		}
		ids[u.ID] = struct{}{}
	}

	for _, s := range d.Sessions {
		if _, ok := ids[s.UserID]; !ok {
			return fmt.Errorf("session %q: unknown user %d", s.ID, s.UserID)
		}
	}

	if d.Stats.Revenue < 0 {
		return errors.New("stats: revenue must not be negative")
	}

	return nil
}

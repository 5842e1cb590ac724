package dashboard

import (
	"testing"
	"time"

	"gotest.tools/v3/assert"
)

func TestRoleValid(t *testing.T) {
	t.Parallel()

	assert.Assert(t, RoleAdmin.Valid())
	assert.Assert(t, RoleEditor.Valid())
	assert.Assert(t, RoleViewer.Valid())
	assert.Assert(t, !Role("superuser").Valid())
	assert.Assert(t, !Role("").Valid())
}

func TestSessionEnd(t *testing.T) {
	t.Parallel()

	s := Session{ID: "s1", UserID: 1, StartedAt: time.Now(), Active: true}
	s.End()

	assert.Assert(t, !s.Active)
}

func TestCurrentStats(t *testing.T) {
	t.Parallel()

	data := DefaultDataset()
	assert.DeepEqual(t, data.CurrentStats(), Stats{
		Users:          1542,
		ActiveSessions: 87,
		Revenue:        24350.75,
		Uptime:         "99.97%",
	})

	data.Sessions = []Session{
		{ID: "a", UserID: 1, Active: true},
		{ID: "b", UserID: 2, Active: false},
		{ID: "c", UserID: 3, Active: true},
	}
	assert.Equal(t, data.CurrentStats().ActiveSessions, 2)
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	type input struct {
		data Dataset
	}

	type output struct {
		expectedErr string
	}

	tests := []struct {
		name   string
		input  input
		output output
	}{
		{
			name:  "default dataset is valid",
			input: input{data: DefaultDataset()},
		},
		{
			name: "unknown role",
			input: input{data: Dataset{Users: []User{
				{ID: 1, Name: "Eve", Role: "superuser"},
			}}},
			output: output{expectedErr: `user 1: unknown role "superuser"`},
		},
		{
			name: "duplicate id",
			input: input{data: Dataset{Users: []User{
				{ID: 1, Name: "Alice"},
				{ID: 1, Name: "Bob"},
			}}},
			output: output{expectedErr: "user 1: duplicate id"},
		},
		{
			name: "session of unknown user",
			input: input{data: Dataset{
				Users:    []User{{ID: 1, Name: "Alice"}},
				Sessions: []Session{{ID: "s9", UserID: 9}},
			}},
			output: output{expectedErr: `session "s9": unknown user 9`},
		},
		{
			name:   "negative revenue",
			input:  input{data: Dataset{Stats: Stats{Revenue: -1}}},
			output: output{expectedErr: "revenue must not be negative"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.input.data.normalize()
			if tt.output.expectedErr != "" {
				assert.ErrorContains(t, err, tt.output.expectedErr)
				return
			}
			assert.NilError(t, err)
		})
	}
}

func TestNormalizeDefaultsRole(t *testing.T) {
	t.Parallel()

	data := Dataset{Users: []User{{ID: 1, Name: "Alice"}}}
	assert.NilError(t, data.normalize())
	assert.Equal(t, data.Users[0].Role, RoleViewer)
}

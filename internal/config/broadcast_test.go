package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mentorbotdev/mentorbot/internal/core"
)

func TestParseDestinations(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []core.Destination
		wantErr bool
	}{
		{
			name:  "empty",
			input: "",
			want:  nil,
		},
		{
			name:  "mixed roles with negative group ids",
			input: "-1001234:ai, -1005678:deterministic",
			want: []core.Destination{
				{ChatID: -1001234, Role: core.RoleAI},
				{ChatID: -1005678, Role: core.RoleDeterministic},
			},
		},
		{
			name:  "trailing comma tolerated",
			input: "42:ai,",
			want:  []core.Destination{{ChatID: 42, Role: core.RoleAI}},
		},
		{
			name:    "missing role",
			input:   "42",
			wantErr: true,
		},
		{
			name:    "bad chat id",
			input:   "abc:ai",
			wantErr: true,
		},
		{
			name:    "unknown role",
			input:   "42:random",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &BroadcastConfig{Destinations: tt.input}
			got, err := cfg.ParseDestinations()
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

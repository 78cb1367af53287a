package config

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/mentorbotdev/mentorbot/internal/core"
	"github.com/mentorbotdev/mentorbot/pkg/log"
)

type BroadcastConfig struct {
	// Cron is a standard 5-field expression evaluated in Timezone.
	Cron     string `env:"BROADCAST_CRON" envDefault:"0 9 * * *"`
	Timezone string `env:"BROADCAST_TZ" envDefault:"Europe/Warsaw"`

	// Destinations is a comma-separated list of "chatID:role" pairs,
	// e.g. "-1001234:ai,-1005678:deterministic".
	Destinations string `env:"BROADCAST_DESTINATIONS"`
}

func NewBroadcastConfig(ctx context.Context) *BroadcastConfig {
	c := &BroadcastConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse Broadcast config")
	}
	return c
}

// ParseDestinations expands the Destinations string into typed entries.
func (c *BroadcastConfig) ParseDestinations() ([]core.Destination, error) {
	if strings.TrimSpace(c.Destinations) == "" {
		return nil, nil
	}

	var dests []core.Destination
	for _, entry := range strings.Split(c.Destinations, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		id, roleStr, ok := strings.Cut(entry, ":")
		if !ok {
			return nil, fmt.Errorf("destination %q: want chatID:role", entry)
		}

		chatID, err := strconv.ParseInt(strings.TrimSpace(id), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("destination %q: bad chat id: %w", entry, err)
		}

		role := core.Role(strings.TrimSpace(roleStr))
		switch role {
		case core.RoleAI, core.RoleDeterministic:
		default:
			return nil, fmt.Errorf("destination %q: unknown role %q", entry, role)
		}

		dests = append(dests, core.Destination{ChatID: chatID, Role: role})
	}
	return dests, nil
}

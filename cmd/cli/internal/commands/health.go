package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/wolfeidau/c2pa-signer/internal/util"
)

type HealthCmd struct {
	ClientFlags `embed:""`
}

func (h *HealthCmd) Run(ctx context.Context, globals *Globals) error {
	c := h.client(globals)

	health, err := c.Health(ctx)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	status, err := c.Status(ctx)
	if err != nil {
		return fmt.Errorf("failed to get server status: %w", err)
	}

	return util.WriteOutput(os.Stdout, h.Output, map[string]any{
		"health": health["status"],
		"server": status,
	})
}

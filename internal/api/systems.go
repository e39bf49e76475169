package api

import (
	"context"
	"encoding/json"
	"fmt"

	"que_bridge/internal/schema"
	"que_bridge/internal/types"
)

// GetSystems retrieves all AC systems registered to the account.
func (c *APIClient) GetSystems(ctx context.Context) ([]types.System, error) {
	data, err := c.get(ctx, systemsPath, nil)
	if err != nil {
		return nil, err
	}

	if err := c.validator.Validate(schema.Systems, data); err != nil {
		return nil, err
	}

	var resp types.SystemsResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal systems: %w", err)
	}

	return resp.Embedded.Systems, nil
}

// selectSystem picks the only system, or the one matching serial.
func selectSystem(systems []types.System, serial string) (types.System, error) {
	if serial == "" {
		if len(systems) == 1 {
			return systems[0], nil
		}
		return types.System{}, fmt.Errorf("%d systems on account and no serial configured: %w", len(systems), ErrSystemNotFound)
	}

	for _, s := range systems {
		if s.Serial == serial {
			return s, nil
		}
	}
	return types.System{}, fmt.Errorf("serial %s: %w", serial, ErrSystemNotFound)
}

package api

import (
	"context"
	"encoding/json"
	"time"

	"que_bridge/internal/mapper"
	"que_bridge/internal/request"
	"que_bridge/internal/schema"
	"que_bridge/internal/types"
)

// GetStatus retrieves and normalizes the latest status of the system.
// Soft failures are reported as a status with APIError set and a nil error;
// only fatal errors and cancellation are returned.
func (c *APIClient) GetStatus(ctx context.Context) (types.HvacStatus, error) {
	start := time.Now()
	defer func() {
		statusFetchDuration.Observe(time.Since(start).Seconds())
	}()

	data, err := c.get(ctx, statusPath, c.serialQuery())
	if err != nil {
		if request.IsFatal(err) {
			return types.HvacStatus{}, err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return types.HvacStatus{}, ctxErr
		}
		c.logger.Warn("Status unavailable", "serial", c.serial, "error", err)
		return types.HvacStatus{APIError: true}, nil
	}

	if err := c.validator.Validate(schema.Status, data); err != nil {
		return types.HvacStatus{APIError: true}, nil
	}

	var doc types.StatusResponse
	if err := json.Unmarshal(data, &doc); err != nil {
		c.logger.Warn("Failed to decode status", "serial", c.serial, "error", err)
		return types.HvacStatus{APIError: true}, nil
	}

	status := mapper.NormalizeStatus(doc)
	c.logger.Debug("Got status", "serial", c.serial, "power", status.PowerState,
		"mode", status.ClimateMode, "zones", len(status.Zones))
	return status, nil
}

package api

import (
	"context"
	"encoding/json"
	"net/http"

	"que_bridge/internal/commands"
	"que_bridge/internal/request"
	"que_bridge/internal/schema"
	"que_bridge/internal/types"
)

// Result is the outcome of a command round trip.
type Result string

const (
	ResultSuccess          Result = "SUCCESS"
	ResultFailure          Result = "FAILURE"
	ResultAPIError         Result = "API_ERROR"
	ResultCloudUnreachable Result = "CLOUD_UNREACHABLE"
)

const ackType = "ack"

// RunCommand encodes kind and sends it to the system. An "ack" response is
// SUCCESS and any other response type is FAILURE. An invalid response is
// API_ERROR and a soft transport failure is CLOUD_UNREACHABLE. Fatal errors
// and cancellation are returned as an error.
func (c *APIClient) RunCommand(ctx context.Context, kind commands.Kind, params commands.Params) (Result, error) {
	doc, err := commands.Encode(kind, params)
	if err != nil {
		return "", err
	}

	data, err := c.doRequest(ctx, http.MethodPost, commandPath, c.serialQuery(), doc)
	if err != nil {
		if request.IsFatal(err) {
			commandResults.WithLabelValues(string(ResultAPIError)).Inc()
			return ResultAPIError, err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ResultCloudUnreachable, ctxErr
		}
		c.logger.Warn("Command not delivered", "command", kind, "error", err)
		commandResults.WithLabelValues(string(ResultCloudUnreachable)).Inc()
		return ResultCloudUnreachable, nil
	}

	if err := c.validator.Validate(schema.CommandResponse, data); err != nil {
		commandResults.WithLabelValues(string(ResultAPIError)).Inc()
		return ResultAPIError, nil
	}

	var resp types.CommandResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		commandResults.WithLabelValues(string(ResultAPIError)).Inc()
		return ResultAPIError, nil
	}

	if resp.Type != ackType {
		c.logger.Warn("Command not acknowledged", "command", kind, "response_type", resp.Type,
			"settings", doc.Settings())
		commandResults.WithLabelValues(string(ResultFailure)).Inc()
		return ResultFailure, nil
	}

	c.logger.Debug("Command acknowledged", "command", kind, "correlation_id", resp.CorrelationID)
	commandResults.WithLabelValues(string(ResultSuccess)).Inc()
	return ResultSuccess, nil
}

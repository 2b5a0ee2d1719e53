package mcp

import (
	"fmt"
	"time"
)

// safeValueParams are tool parameters whose values are safe to record.
var safeValueParams = map[string]bool{
	"option": true,
	"format": true,
	"count":  true,
}

// presenceOnlyParams are recorded as "(set)": their values may carry
// credentials, local paths or account names.
var presenceOnlyParams = map[string]bool{
	"uri":      true,
	"output":   true,
	"username": true,
	"password": true,
}

// sanitizeToolParams returns loggable metadata for a tool call's parameters.
// Empty values are skipped, unknown keys are dropped, and "_param_count"
// always records how many parameters were set.
func sanitizeToolParams(params map[string]any) map[string]string {
	if params == nil {
		return nil
	}

	result := make(map[string]string)
	set := 0
	for key, val := range params {
		if val == nil || val == "" {
			continue
		}
		set++
		switch {
		case safeValueParams[key]:
			result[key] = fmt.Sprintf("%v", val)
		case presenceOnlyParams[key]:
			result[key] = "(set)"
		}
	}
	result["_param_count"] = fmt.Sprintf("%d", set)
	return result
}

// auditTool records a tool invocation in the event log and the debug log.
func (s *Server) auditTool(toolName string, start time.Time, err error, params map[string]any) {
	status := "success"
	fields := map[string]any{
		"tool":        toolName,
		"duration_ms": time.Since(start).Milliseconds(),
		"params":      sanitizeToolParams(params),
	}
	if err != nil {
		status = "error"
		fields["error"] = err.Error()
	}
	fields["status"] = status

	s.events.Log("tool_call", fields)
	s.logger.Debug("tool call", "tool", toolName, "status", status, "duration", time.Since(start))
}

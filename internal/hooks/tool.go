package hooks

import "encoding/json"

func handleTool(client *Client, input *HookInput) {
	if input.ShouldSkipTool() {
		return
	}

	for _, tuple := range ExtractTuples(input.ToolName, input.ToolInput) {
		body, err := json.Marshal(map[string]string{
			"path":    tuple.Path,
			"type":    tuple.Type,
			"context": tuple.Context,
		})
		if err != nil {
			continue
		}
		// Record errors are swallowed server-side; transport errors are
		// equally non-fatal here.
		client.Post("/api/record", body)
	}

	for _, sig := range DetectErrors(input.ToolResponse) {
		body, err := json.Marshal(map[string]string{
			"path":    sig,
			"type":    "error",
			"context": input.ToolName,
		})
		if err != nil {
			continue
		}
		client.Post("/api/record", body)
	}
}

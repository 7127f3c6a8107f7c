package hooks

import (
	"encoding/json"
	"fmt"
	"io"
)

// Handle reads HookInput from the given reader, dispatches to the
// appropriate handler based on the event argument, and writes output to
// stdout. Hook handlers degrade silently when the server is down — memory
// is best-effort and must never block the agent.
func Handle(event string, stdin io.Reader) {
	var input HookInput
	if err := json.NewDecoder(stdin).Decode(&input); err != nil {
		// Stdin may be empty for some events — degrade gracefully
		if event == "submit" {
			WriteSubmitOutput("")
			return
		}
		ExitError(fmt.Errorf("decode stdin: %w", err))
		return
	}

	client := NewClient()

	if !client.Healthy() {
		if event == "submit" {
			WriteSubmitOutput("")
		}
		return // silent exit — the server is down
	}

	switch event {
	case "tool":
		handleTool(client, &input)
	case "submit":
		handleSubmit(client, &input)
	default:
		ExitError(fmt.Errorf("unknown hook event: %s", event))
	}
}

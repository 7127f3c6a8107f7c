package hooks

import (
	"encoding/json"
	"fmt"
	"os"
)

// SubmitOutput is the JSON structure the agent host expects on stdout from
// the UserPromptSubmit hook.
type SubmitOutput struct {
	HookSpecificOutput struct {
		HookEventName     string `json:"hookEventName"`
		AdditionalContext string `json:"additionalContext"`
	} `json:"hookSpecificOutput"`
}

// WriteSubmitOutput writes the UserPromptSubmit response to stdout.
func WriteSubmitOutput(context string) error {
	out := SubmitOutput{}
	out.HookSpecificOutput.HookEventName = "UserPromptSubmit"
	out.HookSpecificOutput.AdditionalContext = context
	return json.NewEncoder(os.Stdout).Encode(out)
}

// ExitError logs to stderr and exits 0 (hooks must never crash the host).
func ExitError(err error) {
	fmt.Fprintf(os.Stderr, "brainbox hook: %v\n", err)
	os.Exit(0)
}

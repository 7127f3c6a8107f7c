package hooks

import "encoding/json"

// HookInput represents the JSON the agent host sends on stdin to hook
// handlers. All fields are optional — different events populate different
// subsets.
type HookInput struct {
	SessionID     string `json:"session_id"`
	CWD           string `json:"cwd"`
	HookEventName string `json:"hook_event_name"`

	// UserPromptSubmit
	Prompt string `json:"prompt,omitempty"`

	// PostToolUse
	ToolName     string          `json:"tool_name,omitempty"`
	ToolInput    json.RawMessage `json:"tool_input,omitempty"`
	ToolResponse json.RawMessage `json:"tool_response,omitempty"`
}

// skipTools are meta-tools that generate noise, not useful memory.
var skipTools = map[string]bool{
	"TodoRead":   true,
	"TodoWrite":  true,
	"Thinking":   true,
	"TaskList":   true,
	"TaskCreate": true,
	"TaskGet":    true,
	"TaskUpdate": true,
}

// ShouldSkipTool returns true if this tool should not be recorded.
func (h *HookInput) ShouldSkipTool() bool {
	return skipTools[h.ToolName]
}

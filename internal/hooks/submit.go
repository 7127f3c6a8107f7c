package hooks

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

// signalTriggers are phrases that indicate the user wants something
// remembered as a durable fact.
var signalTriggers = []string{
	"remember this", "don't forget",
	"always use", "never use", "always do", "never do",
	"we decided", "the trick is",
	"root cause", "the fix was",
}

// hasSignal returns true if the prompt contains any signal trigger phrase.
func hasSignal(prompt string) bool {
	lower := strings.ToLower(prompt)
	for _, trigger := range signalTriggers {
		if strings.Contains(lower, trigger) {
			return true
		}
	}
	return false
}

func handleSubmit(client *Client, input *HookInput) {
	// Capture explicit remember-this signals as semantic facts.
	if input.Prompt != "" && hasSignal(input.Prompt) {
		body, err := json.Marshal(map[string]string{
			"text":    input.Prompt,
			"context": input.CWD,
		})
		if err == nil {
			client.Post("/api/record/semantic", body)
		}
	}

	// Recall against the prompt and hand the results back as context.
	params := url.Values{}
	params.Set("q", input.Prompt)
	data, err := client.Get("/api/recall?" + params.Encode())
	if err != nil {
		WriteSubmitOutput("")
		return
	}

	var results []struct {
		Neuron struct {
			Path string `json:"path"`
			Type string `json:"type"`
		} `json:"neuron"`
		Confidence     float64 `json:"confidence"`
		ActivationPath string  `json:"activation_path"`
	}
	if err := json.Unmarshal(data, &results); err != nil || len(results) == 0 {
		WriteSubmitOutput("")
		return
	}

	var b strings.Builder
	b.WriteString("Relevant memory from previous sessions:\n")
	for _, r := range results {
		fmt.Fprintf(&b, "- [%s] %s (confidence %.2f, %s)\n",
			r.Neuron.Type, r.Neuron.Path, r.Confidence, r.ActivationPath)
	}
	WriteSubmitOutput(b.String())
}

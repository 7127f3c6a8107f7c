package hooks

import (
	"encoding/json"
	"strings"
)

// Tuple is one (path, context) pair extracted from a tool invocation.
type Tuple struct {
	Path    string
	Type    string // "file" or "tool"
	Context string
}

// pathKeys are tool-input fields that name a file on disk.
var pathKeys = []string{"file_path", "notebook_path", "path"}

// keywordKeys are tool-input fields whose values enrich the context with
// searchable keywords.
var keywordKeys = []string{"pattern", "query", "command"}

// ExtractTuples pulls (path, context) tuples out of a tool invocation.
// The tool itself is always recorded; any file-path fields in its input
// become file records. Keyword-bearing fields are appended to the context
// as "keywords:a,b,c".
func ExtractTuples(toolName string, toolInput json.RawMessage) []Tuple {
	var input map[string]any
	if len(toolInput) > 0 {
		// Undecodable input still records the bare tool access.
		json.Unmarshal(toolInput, &input)
	}

	context := toolName
	if kw := keywordsFromInput(input); kw != "" {
		context += " keywords:" + kw
	}

	tuples := []Tuple{{Path: toolName, Type: "tool", Context: context}}
	for _, key := range pathKeys {
		v, ok := input[key].(string)
		if !ok || v == "" {
			continue
		}
		tuples = append(tuples, Tuple{Path: v, Type: "file", Context: context})
	}
	return tuples
}

// keywordsFromInput collects keywords from keyword-bearing input fields
// using the same rule as recall: lowercase, whitespace split, length > 2.
func keywordsFromInput(input map[string]any) string {
	var keywords []string
	seen := map[string]bool{}
	for _, key := range keywordKeys {
		v, ok := input[key].(string)
		if !ok {
			continue
		}
		for _, tok := range strings.Fields(strings.ToLower(v)) {
			if len(tok) <= 2 || seen[tok] {
				continue
			}
			seen[tok] = true
			keywords = append(keywords, tok)
		}
	}
	return strings.Join(keywords, ",")
}

// errorMarkers are substrings that flag a line of tool output as an error
// signature worth remembering.
var errorMarkers = []string{
	"error:", "Error:", "ERROR:",
	"panic:", "fatal:", "FAILED",
	"exception", "Traceback",
}

// maxSignatureLen bounds stored error signatures.
const maxSignatureLen = 200

// DetectErrors scans tool output for error signatures. Each line yields at
// most one signature (from the first marker found), and each distinct
// signature is returned once — repeated occurrences of the same failure do
// not multiply records.
func DetectErrors(toolResponse json.RawMessage) []string {
	if len(toolResponse) == 0 {
		return nil
	}

	// Tool responses may be JSON strings or structured objects — scan the
	// raw text either way, unescaping embedded newlines.
	text := strings.ReplaceAll(string(toolResponse), "\\n", "\n")

	var signatures []string
	seen := map[string]bool{}
	for _, line := range strings.Split(text, "\n") {
		for _, marker := range errorMarkers {
			idx := strings.Index(line, marker)
			if idx < 0 {
				continue
			}
			sig := strings.TrimSpace(line[idx:])
			if len(sig) > maxSignatureLen {
				sig = sig[:maxSignatureLen]
			}
			if sig == "" || seen[sig] {
				continue
			}
			seen[sig] = true
			signatures = append(signatures, sig)
			break
		}
	}
	return signatures
}

package hooks

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestExtractTuplesFilePath(t *testing.T) {
	input := json.RawMessage(`{"file_path": "/src/main.go"}`)
	tuples := ExtractTuples("Read", input)

	if len(tuples) != 2 {
		t.Fatalf("got %d tuples, want 2", len(tuples))
	}
	if tuples[0].Path != "Read" || tuples[0].Type != "tool" {
		t.Errorf("tool tuple = %+v", tuples[0])
	}
	if tuples[1].Path != "/src/main.go" || tuples[1].Type != "file" {
		t.Errorf("file tuple = %+v", tuples[1])
	}
}

func TestExtractTuplesKeywordEnrichment(t *testing.T) {
	input := json.RawMessage(`{"pattern": "Handle Request", "path": "/src"}`)
	tuples := ExtractTuples("Grep", input)

	if len(tuples) != 2 {
		t.Fatalf("got %d tuples, want 2", len(tuples))
	}
	ctx := tuples[0].Context
	if !strings.Contains(ctx, "keywords:") {
		t.Fatalf("context missing keyword enrichment: %q", ctx)
	}
	if !strings.Contains(ctx, "handle") || !strings.Contains(ctx, "request") {
		t.Errorf("keywords not lowercased/split: %q", ctx)
	}
}

func TestExtractTuplesShortTokensDropped(t *testing.T) {
	input := json.RawMessage(`{"command": "ls -la go.mod"}`)
	tuples := ExtractTuples("Bash", input)

	ctx := tuples[0].Context
	if strings.Contains(ctx, "ls") || !strings.Contains(ctx, "go.mod") {
		t.Errorf("short token kept or long dropped: %q", ctx)
	}
}

func TestExtractTuplesBareTool(t *testing.T) {
	tuples := ExtractTuples("WebSearch", nil)
	if len(tuples) != 1 {
		t.Fatalf("got %d tuples, want 1", len(tuples))
	}
	if tuples[0].Path != "WebSearch" || tuples[0].Context != "WebSearch" {
		t.Errorf("bare tuple = %+v", tuples[0])
	}
}

func TestShouldSkipTool(t *testing.T) {
	in := HookInput{ToolName: "TodoWrite"}
	if !in.ShouldSkipTool() {
		t.Error("TodoWrite should be skipped")
	}
	in.ToolName = "Bash"
	if in.ShouldSkipTool() {
		t.Error("Bash should not be skipped")
	}
}

func TestDetectErrors(t *testing.T) {
	resp := json.RawMessage(`"compiling...\nerror: undefined symbol foo\nok"`)
	sigs := DetectErrors(resp)
	if len(sigs) != 1 {
		t.Fatalf("got %d signatures, want 1: %v", len(sigs), sigs)
	}
	if !strings.HasPrefix(sigs[0], "error:") {
		t.Errorf("signature = %q", sigs[0])
	}
}

func TestDetectErrorsDedupes(t *testing.T) {
	resp := json.RawMessage(`"error: boom\nerror: boom\npanic: runtime"`)
	sigs := DetectErrors(resp)
	if len(sigs) != 2 {
		t.Errorf("got %d signatures, want 2: %v", len(sigs), sigs)
	}
}

func TestDetectErrorsCleanOutput(t *testing.T) {
	resp := json.RawMessage(`"all tests passed\n"`)
	if sigs := DetectErrors(resp); len(sigs) != 0 {
		t.Errorf("clean output produced signatures: %v", sigs)
	}
}

func TestDetectErrorsTruncatesSignature(t *testing.T) {
	long := strings.Repeat("x", 500)
	resp := json.RawMessage(`"error: ` + long + `"`)
	sigs := DetectErrors(resp)
	if len(sigs) != 1 {
		t.Fatalf("got %d signatures, want 1", len(sigs))
	}
	if len(sigs[0]) > maxSignatureLen {
		t.Errorf("signature length = %d, want <= %d", len(sigs[0]), maxSignatureLen)
	}
}

func TestHasSignal(t *testing.T) {
	if !hasSignal("Remember this: the fix was in the retry loop") {
		t.Error("signal phrase not detected")
	}
	if hasSignal("just run the tests") {
		t.Error("false positive signal")
	}
}

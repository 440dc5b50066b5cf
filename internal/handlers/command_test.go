package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"todoflow/internal/config"
	"todoflow/internal/models"
	"todoflow/internal/services"
	"todoflow/internal/store"
	"todoflow/internal/tools"
)

// scriptedProvider serves canned chat-completions responses in order.
func scriptedProvider(t *testing.T, responses ...string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(responses) == 0 {
			t.Error("Provider ran out of scripted responses")
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		resp := responses[0]
		responses = responses[1:]
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, resp)
	}))
	t.Cleanup(server.Close)
	return server
}

func newCommandApp(t *testing.T, providerURL string) (*fiber.App, *store.Store) {
	t.Helper()

	st := store.New(filepath.Join(t.TempDir(), "todos.json"))
	registry := tools.NewRegistry()
	if err := tools.RegisterTodoTools(registry, st); err != nil {
		t.Fatalf("Failed to register tools: %v", err)
	}

	resolver := services.NewResolverService(config.LLMConfig{
		BaseURL:           providerURL,
		Model:             "test-model",
		RequestTimeout:    5 * time.Second,
		MaxToolIterations: 10,
	}, st, registry, services.NewSessionService())

	app := fiber.New()
	app.Post("/todos/process-command", NewCommandHandler(resolver).Process)

	return app, st
}

func processCommand(t *testing.T, app *fiber.App, command, threadID string) models.CommandResponse {
	t.Helper()

	target := "/todos/process-command?command=" + url.QueryEscape(command)
	if threadID != "" {
		target += "&thread_id=" + url.QueryEscape(threadID)
	}
	resp, err := app.Test(httptest.NewRequest("POST", target, nil), 10000)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}

	var out models.CommandResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	return out
}

func TestProcessCommand_MissingCommandParam(t *testing.T) {
	app, _ := newCommandApp(t, "http://localhost:0")

	resp, err := app.Test(httptest.NewRequest("POST", "/todos/process-command", nil))
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if resp.StatusCode != 400 {
		t.Errorf("Expected 400 without a command, got %d", resp.StatusCode)
	}
}

func TestProcessCommand_CreateFlow(t *testing.T) {
	provider := scriptedProvider(t,
		`{"choices": [{"message": {"content": "", "tool_calls": [{"id": "call_1", "type": "function", "function": {"name": "create_todo", "arguments": "{\"text\": \"buy milk\"}"}}]}, "finish_reason": "tool_calls"}]}`,
		`{"choices": [{"message": {"content": "Added buy milk to your list."}, "finish_reason": "stop"}]}`,
	)
	app, st := newCommandApp(t, provider.URL)

	out := processCommand(t, app, "add buy milk", "")

	if !out.Result.Success {
		t.Fatalf("Expected success, got %+v", out.Result)
	}
	if out.Action != "create" {
		t.Errorf("Expected action create, got %q", out.Action)
	}
	if out.TodoID == nil || *out.TodoID != 1 {
		t.Errorf("Expected todo_id 1, got %v", out.TodoID)
	}
	if out.TodoText != "buy milk" {
		t.Errorf("Expected todo_text, got %q", out.TodoText)
	}
	if out.Message != "Created todo: buy milk" {
		t.Errorf("Unexpected message: %s", out.Message)
	}
	if len(st.Load()) != 1 {
		t.Error("Expected todo persisted")
	}
}

func TestProcessCommand_NotFoundHasNoAction(t *testing.T) {
	provider := scriptedProvider(t,
		`{"choices": [{"message": {"content": "", "tool_calls": [{"id": "call_1", "type": "function", "function": {"name": "delete_todo", "arguments": "{\"todo_id\": 42}"}}]}, "finish_reason": "tool_calls"}]}`,
		`{"choices": [{"message": {"content": "There is no todo 42."}, "finish_reason": "stop"}]}`,
	)
	app, _ := newCommandApp(t, provider.URL)

	out := processCommand(t, app, "delete todo 42", "")

	if out.Result.Success {
		t.Error("Expected success=false for a missing todo")
	}
	if out.Action != "" {
		t.Errorf("Failed commands must not be classified, got %q", out.Action)
	}
	if out.Message != "Todo with ID 42 not found" {
		t.Errorf("Unexpected message: %s", out.Message)
	}
}

func TestProcessCommand_ProviderErrorReportedInBand(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	t.Cleanup(server.Close)
	app, _ := newCommandApp(t, server.URL)

	out := processCommand(t, app, "add milk", "")

	if out.Result.Success {
		t.Error("Expected success=false on provider failure")
	}
	if out.Action != "" {
		t.Errorf("Expected no action on failure, got %q", out.Action)
	}
	if out.Result.Message == "" || out.Message == "" {
		t.Error("Expected error details in both message fields")
	}
}

func TestClassifyAction(t *testing.T) {
	count := 0
	cases := []struct {
		name   string
		result models.ToolResult
		want   string
	}{
		{"create", models.ToolResult{Success: true, Message: "Created todo: milk"}, "create"},
		{"delete_all", models.ToolResult{Success: true, Message: "All todos deleted"}, "delete_all"},
		{"delete", models.ToolResult{Success: true, Message: "Deleted todo: milk"}, "delete"},
		{"update", models.ToolResult{Success: true, Message: "Updated todo 1 from 'a' to 'b'"}, "update"},
		{"complete", models.ToolResult{Success: true, Message: "Marked todo as completed: milk"}, "complete"},
		{"list", models.ToolResult{Success: true, Message: "Found 0 todos", Count: &count}, "list"},
		{"chitchat", models.ToolResult{Success: true, Message: "Hello there"}, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := classifyAction(tc.result); got != tc.want {
				t.Errorf("classifyAction(%q) = %q, want %q", tc.result.Message, got, tc.want)
			}
		})
	}
}

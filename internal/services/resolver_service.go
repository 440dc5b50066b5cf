package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"todoflow/internal/config"
	"todoflow/internal/logging"
	"todoflow/internal/models"
	"todoflow/internal/store"
	"todoflow/internal/tools"
)

// ResolverService turns free-form command text into mutation-tool invocations
// by running a bounded tool-calling loop against an OpenAI-compatible
// chat-completions provider. Built once at startup and shared by all requests.
type ResolverService struct {
	cfg        config.LLMConfig
	store      *store.Store
	registry   *tools.Registry
	sessions   *SessionService
	httpClient *http.Client
}

// NewResolverService creates a resolver bound to the given provider, store,
// tool registry and session memory.
func NewResolverService(cfg config.LLMConfig, st *store.Store, registry *tools.Registry, sessions *SessionService) *ResolverService {
	return &ResolverService{
		cfg:      cfg,
		store:    st,
		registry: registry,
		sessions: sessions,
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
	}
}

// ProcessCommand resolves one natural-language command against the thread's
// conversation history and returns the net ToolResult of the turn.
// Domain failures (id not found, iteration cap) come back as Success=false
// results; only transport/provider failures surface as errors.
func (s *ResolverService) ProcessCommand(ctx context.Context, command, threadID string) (models.ToolResult, error) {
	requestID := uuid.NewString()
	logger := logging.WithCommand(requestID, threadID)
	logger.Info("processing command", "command_len", len(command))

	if m := GetMetrics(); m != nil {
		m.RecordCommandRequest()
		start := time.Now()
		defer func() {
			m.RecordCommandLatency(time.Since(start).Seconds())
		}()
	}

	messages := s.sessions.Messages(threadID)

	// First turn of a thread: seed a snapshot of the current items so the
	// model can map natural references ("the milk one") to an id.
	if len(messages) == 0 {
		if snapshot := s.todoSnapshot(); snapshot != "" {
			messages = append(messages, map[string]interface{}{
				"role":    "system",
				"content": snapshot,
			})
		}
	}

	messages = append(messages, map[string]interface{}{
		"role":    "user",
		"content": command,
	})

	// turnStart marks where this turn's messages begin, so normalization
	// only considers tool results produced by this command.
	turnStart := len(messages)

	maxIterations := s.cfg.MaxToolIterations
	if maxIterations <= 0 {
		maxIterations = 10
	}

	availableTools := s.registry.List()
	finalContent := ""
	completed := false

	var iteration int
	for iteration = 0; iteration < maxIterations; iteration++ {
		logger.Debug("resolver iteration", "iteration", iteration+1, "max", maxIterations)

		message, err := s.chatCompletion(ctx, messages, availableTools)
		if err != nil {
			return models.ToolResult{}, err
		}

		if len(message.ToolCalls) == 0 {
			finalContent = message.Content
			completed = true
			// Keep the model's closing message in thread history
			messages = append(messages, map[string]interface{}{
				"role":    "assistant",
				"content": message.Content,
			})
			break
		}

		logger.Debug("model requested tools", "count", len(message.ToolCalls))

		// Echo the assistant's tool request into history before executing,
		// the provider requires it ahead of the role:"tool" results.
		toolCallsForMessage := make([]map[string]interface{}, 0, len(message.ToolCalls))
		for _, tc := range message.ToolCalls {
			toolCallsForMessage = append(toolCallsForMessage, map[string]interface{}{
				"id":   tc.ID,
				"type": tc.Type,
				"function": map[string]interface{}{
					"name":      tc.Function.Name,
					"arguments": tc.Function.Arguments,
				},
			})
		}
		assistantMsg := map[string]interface{}{
			"role":       "assistant",
			"tool_calls": toolCallsForMessage,
		}
		if message.Content != "" {
			assistantMsg["content"] = message.Content
		}
		messages = append(messages, assistantMsg)

		for _, tc := range message.ToolCalls {
			content := s.executeTool(logger, tc.Function.Name, tc.Function.Arguments)
			messages = append(messages, map[string]interface{}{
				"role":         "tool",
				"tool_call_id": tc.ID,
				"name":         tc.Function.Name,
				"content":      content,
			})
		}
	}

	s.sessions.SetMessages(threadID, messages)

	if m := GetMetrics(); m != nil {
		used := iteration
		if completed {
			used++
		}
		m.RecordResolverIterations(used)
	}

	if !completed {
		logger.Warn("iteration cap reached", "max", maxIterations)
		if m := GetMetrics(); m != nil {
			m.RecordCommandError("iteration_cap")
		}
		return models.ToolResult{
			Success: false,
			Message: fmt.Sprintf("Reached the maximum of %d tool iterations without a final response", maxIterations),
		}, nil
	}

	return normalizeResult(messages[turnStart:], finalContent), nil
}

// chatMessage is the slice of an OpenAI chat-completions choice the resolver
// cares about.
type chatMessage struct {
	Content   string `json:"content"`
	ToolCalls []struct {
		ID       string `json:"id"`
		Type     string `json:"type"`
		Function struct {
			Name      string `json:"name"`
			Arguments string `json:"arguments"`
		} `json:"function"`
	} `json:"tool_calls"`
}

// chatCompletion performs one non-streaming chat-completions request
func (s *ResolverService) chatCompletion(ctx context.Context, messages []map[string]interface{}, availableTools []map[string]interface{}) (*chatMessage, error) {
	reqBody := map[string]interface{}{
		"model":    s.cfg.Model,
		"messages": messages,
		"stream":   false,
	}
	if len(availableTools) > 0 {
		reqBody["tools"] = availableTools
	}

	reqJSON, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := strings.TrimSuffix(s.cfg.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewBuffer(reqJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if s.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		if m := GetMetrics(); m != nil {
			m.RecordCommandError("provider_unreachable")
		}
		return nil, fmt.Errorf("LLM request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		if m := GetMetrics(); m != nil {
			m.RecordCommandError("provider_status")
		}
		return nil, fmt.Errorf("LLM request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var apiResult struct {
		Choices []struct {
			Message      chatMessage `json:"message"`
			FinishReason string      `json:"finish_reason"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResult); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(apiResult.Choices) == 0 {
		return nil, fmt.Errorf("no choices in response")
	}

	return &apiResult.Choices[0].Message, nil
}

// executeTool runs one requested tool and returns the content to feed back to
// the model. Execution errors are embedded as a failure envelope so the model
// can react instead of the turn aborting.
func (s *ResolverService) executeTool(logger *slog.Logger, name, argsJSON string) string {
	logging.WithTool(logger, name).Info("executing tool")

	var args map[string]interface{}
	if argsJSON != "" {
		if err := json.Unmarshal([]byte(argsJSON), &args); err != nil {
			log.Printf("⚠️  [RESOLVER] Tool %s received invalid arguments %q: %v", name, argsJSON, err)
			if m := GetMetrics(); m != nil {
				m.RecordToolExecution(name, "error")
			}
			return errorEnvelope(fmt.Sprintf("invalid tool arguments: %v", err))
		}
	}

	result, err := s.registry.Execute(name, args)
	if err != nil {
		log.Printf("❌ [RESOLVER] Tool %s failed: %v", name, err)
		if m := GetMetrics(); m != nil {
			m.RecordToolExecution(name, "error")
		}
		return errorEnvelope(err.Error())
	}

	if m := GetMetrics(); m != nil {
		outcome := "success"
		var parsed models.ToolResult
		if json.Unmarshal([]byte(result), &parsed) == nil && !parsed.Success {
			outcome = "failure"
		}
		m.RecordToolExecution(name, outcome)
	}

	return result
}

// normalizeResult maps the turn's conversation tail to the stable ToolResult
// envelope: the most recent parseable tool output wins; a turn with no tool
// output falls back to wrapping the model's final text as a success. The
// fallback is a heuristic, not proof the turn did anything.
func normalizeResult(turnMessages []map[string]interface{}, finalContent string) models.ToolResult {
	for i := len(turnMessages) - 1; i >= 0; i-- {
		msg := turnMessages[i]
		if msg["role"] != "tool" {
			continue
		}
		content, _ := msg["content"].(string)
		var result models.ToolResult
		if err := json.Unmarshal([]byte(content), &result); err == nil && result.Message != "" {
			return result
		}
		if content != "" {
			return models.ToolResult{Success: true, Message: content}
		}
	}

	return models.ToolResult{Success: true, Message: finalContent}
}

// todoSnapshot renders the current items as "ID n: text (status)" lines for
// the first-turn system message, or "" when the store is empty.
func (s *ResolverService) todoSnapshot() string {
	todos := s.store.Load()
	if len(todos) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("You are a helpful todo assistant. Current todos:\n")
	for _, t := range todos {
		status := "pending"
		if t.Completed {
			status = "completed"
		}
		fmt.Fprintf(&b, "ID %d: %s (%s)\n", t.ID, t.Text, status)
	}
	b.WriteString("\nWhen the user asks about todos by text (not ID), find the matching ID from the list above.\n")
	b.WriteString("Always use the appropriate tool to perform actions.")
	return b.String()
}

func errorEnvelope(message string) string {
	data, _ := json.Marshal(models.ToolResult{Success: false, Message: message})
	return string(data)
}

package models

import "time"

// Todo represents a single todo item in the store
type Todo struct {
	ID        int       `json:"id"`
	Text      string    `json:"text"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"created_at"`
}

// TodoCreateRequest is the body for POST /todos
type TodoCreateRequest struct {
	Text string `json:"text"`
}

// TodoUpdateRequest is the body for PUT /todos/:id
// Nil fields are left unchanged.
type TodoUpdateRequest struct {
	Text      *string `json:"text"`
	Completed *bool   `json:"completed"`
}

// ToolResult is the uniform envelope every mutation tool returns.
// "Not found" is reported here as Success=false, never as a Go error.
type ToolResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Todo    *Todo  `json:"todo,omitempty"`
	Todos   []Todo `json:"todos,omitempty"`
	Count   *int   `json:"count,omitempty"`
}

// CommandResponse is the response shape for POST /todos/process-command.
// Action is a best-effort keyword classification derived from the result
// message, not an authoritative label.
type CommandResponse struct {
	Action   string     `json:"action,omitempty"`
	TodoID   *int       `json:"todo_id"`
	TodoText string     `json:"todo_text,omitempty"`
	Result   ToolResult `json:"result"`
	Message  string     `json:"message"`
}

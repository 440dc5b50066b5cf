package tools

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"todoflow/internal/models"
	"todoflow/internal/store"
)

// RegisterTodoTools registers the six todo mutation tools against st.
// Each tool performs one load → mutate → save cycle and reports its outcome
// in a JSON-encoded ToolResult.
func RegisterTodoTools(r *Registry, st *store.Store) error {
	all := []*Tool{
		newCreateTodoTool(st),
		newDeleteTodoTool(st),
		newUpdateTodoTool(st),
		newCompleteTodoTool(st),
		newDeleteAllTodosTool(st),
		newListTodosTool(st),
	}
	for _, tool := range all {
		if err := r.Register(tool); err != nil {
			return fmt.Errorf("failed to register %s: %w", tool.Name, err)
		}
	}
	return nil
}

func newCreateTodoTool(st *store.Store) *Tool {
	return &Tool{
		Name:        "create_todo",
		Description: "Create a new todo item with the given text.",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"text": map[string]interface{}{
					"type":        "string",
					"description": "The text of the todo item to create",
				},
			},
			"required": []string{"text"},
		},
		Execute: func(args map[string]interface{}) (string, error) {
			text, _ := args["text"].(string)
			if text == "" {
				return marshalResult(models.ToolResult{Success: false, Message: "Todo text is required"})
			}

			var created models.Todo
			err := st.Mutate(func(todos []models.Todo) ([]models.Todo, bool) {
				created = models.Todo{
					ID:        store.NextID(todos),
					Text:      text,
					Completed: false,
					CreatedAt: time.Now(),
				}
				return append(todos, created), true
			})
			if err != nil {
				return "", err
			}

			return marshalResult(models.ToolResult{
				Success: true,
				Message: fmt.Sprintf("Created todo: %s", text),
				Todo:    &created,
			})
		},
	}
}

func newDeleteTodoTool(st *store.Store) *Tool {
	return &Tool{
		Name:        "delete_todo",
		Description: "Delete a todo item by its ID.",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"todo_id": map[string]interface{}{
					"type":        "integer",
					"description": "The ID of the todo item to delete",
				},
			},
			"required": []string{"todo_id"},
		},
		Execute: func(args map[string]interface{}) (string, error) {
			id, ok := intArg(args, "todo_id")
			if !ok {
				return marshalResult(models.ToolResult{Success: false, Message: "todo_id is required"})
			}

			var deleted *models.Todo
			err := st.Mutate(func(todos []models.Todo) ([]models.Todo, bool) {
				idx := indexByID(todos, id)
				if idx < 0 {
					return todos, false
				}
				t := todos[idx]
				deleted = &t
				return append(todos[:idx], todos[idx+1:]...), true
			})
			if err != nil {
				return "", err
			}
			if deleted == nil {
				return marshalResult(notFound(id))
			}

			return marshalResult(models.ToolResult{
				Success: true,
				Message: fmt.Sprintf("Deleted todo: %s", deleted.Text),
			})
		},
	}
}

func newUpdateTodoTool(st *store.Store) *Tool {
	return &Tool{
		Name:        "update_todo",
		Description: "Update the text of a todo item by its ID.",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"todo_id": map[string]interface{}{
					"type":        "integer",
					"description": "The ID of the todo item to update",
				},
				"new_text": map[string]interface{}{
					"type":        "string",
					"description": "The replacement text for the todo item",
				},
			},
			"required": []string{"todo_id", "new_text"},
		},
		Execute: func(args map[string]interface{}) (string, error) {
			id, ok := intArg(args, "todo_id")
			if !ok {
				return marshalResult(models.ToolResult{Success: false, Message: "todo_id is required"})
			}
			newText, _ := args["new_text"].(string)
			if newText == "" {
				return marshalResult(models.ToolResult{Success: false, Message: "new_text is required"})
			}

			var oldText string
			found := false
			err := st.Mutate(func(todos []models.Todo) ([]models.Todo, bool) {
				idx := indexByID(todos, id)
				if idx < 0 {
					return todos, false
				}
				found = true
				oldText = todos[idx].Text
				todos[idx].Text = newText
				return todos, true
			})
			if err != nil {
				return "", err
			}
			if !found {
				return marshalResult(notFound(id))
			}

			return marshalResult(models.ToolResult{
				Success: true,
				Message: fmt.Sprintf("Updated todo %d from '%s' to '%s'", id, oldText, newText),
			})
		},
	}
}

func newCompleteTodoTool(st *store.Store) *Tool {
	return &Tool{
		Name:        "complete_todo",
		Description: "Mark a todo item as completed by its ID.",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"todo_id": map[string]interface{}{
					"type":        "integer",
					"description": "The ID of the todo item to mark as completed",
				},
			},
			"required": []string{"todo_id"},
		},
		Execute: func(args map[string]interface{}) (string, error) {
			id, ok := intArg(args, "todo_id")
			if !ok {
				return marshalResult(models.ToolResult{Success: false, Message: "todo_id is required"})
			}

			var text string
			found := false
			err := st.Mutate(func(todos []models.Todo) ([]models.Todo, bool) {
				idx := indexByID(todos, id)
				if idx < 0 {
					return todos, false
				}
				found = true
				text = todos[idx].Text
				todos[idx].Completed = true
				return todos, true
			})
			if err != nil {
				return "", err
			}
			if !found {
				return marshalResult(notFound(id))
			}

			return marshalResult(models.ToolResult{
				Success: true,
				Message: fmt.Sprintf("Marked todo as completed: %s", text),
			})
		},
	}
}

func newDeleteAllTodosTool(st *store.Store) *Tool {
	return &Tool{
		Name:        "delete_all_todos",
		Description: "Delete all todo items.",
		Parameters: map[string]interface{}{
			"type":       "object",
			"properties": map[string]interface{}{},
			"required":   []string{},
		},
		Execute: func(args map[string]interface{}) (string, error) {
			if err := st.Save([]models.Todo{}); err != nil {
				return "", err
			}
			return marshalResult(models.ToolResult{
				Success: true,
				Message: "All todos deleted",
			})
		},
	}
}

func newListTodosTool(st *store.Store) *Tool {
	return &Tool{
		Name:        "list_todos",
		Description: "Get all todos.",
		Parameters: map[string]interface{}{
			"type":       "object",
			"properties": map[string]interface{}{},
			"required":   []string{},
		},
		Execute: func(args map[string]interface{}) (string, error) {
			todos := st.Load()
			count := len(todos)
			return marshalResult(models.ToolResult{
				Success: true,
				Message: fmt.Sprintf("Found %d todos", count),
				Todos:   todos,
				Count:   &count,
			})
		},
	}
}

func notFound(id int) models.ToolResult {
	return models.ToolResult{
		Success: false,
		Message: fmt.Sprintf("Todo with ID %d not found", id),
	}
}

func indexByID(todos []models.Todo, id int) int {
	for i, t := range todos {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func marshalResult(result models.ToolResult) (string, error) {
	data, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("failed to serialize tool result: %w", err)
	}
	return string(data), nil
}

// intArg extracts an integer argument. Models deliver JSON numbers as
// float64 and occasionally quote them as strings.
func intArg(args map[string]interface{}, key string) (int, bool) {
	switch v := args[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, false
		}
		return int(n), true
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

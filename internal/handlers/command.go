package handlers

import (
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"

	"todoflow/internal/models"
	"todoflow/internal/services"
)

// CommandHandler handles natural-language command requests
type CommandHandler struct {
	resolver *services.ResolverService
}

// NewCommandHandler creates a new command handler
func NewCommandHandler(resolver *services.ResolverService) *CommandHandler {
	return &CommandHandler{resolver: resolver}
}

// Process resolves a natural-language command against the todo store
// POST /todos/process-command?command=...&thread_id=...
func (h *CommandHandler) Process(c *fiber.Ctx) error {
	command := c.Query("command")
	if command == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Query parameter 'command' is required",
		})
	}
	threadID := c.Query("thread_id", "default")

	result, err := h.resolver.ProcessCommand(c.Context(), command, threadID)
	if err != nil {
		log.Printf("❌ [COMMAND] Failed to process command: %v", err)
		// Resolution failures are reported in-band so clients get the same
		// envelope either way
		return c.JSON(models.CommandResponse{
			Result: models.ToolResult{
				Success: false,
				Message: "Error processing command: " + err.Error(),
			},
			Message: "Error: " + err.Error(),
		})
	}

	response := models.CommandResponse{
		Result:  result,
		Message: result.Message,
	}
	if result.Success {
		response.Action = classifyAction(result)
		if result.Todo != nil {
			response.TodoID = &result.Todo.ID
			response.TodoText = result.Todo.Text
		}
	}

	return c.JSON(response)
}

// classifyAction derives a coarse action label from the tool result message.
// Keyword order matters: "deleted all" must win over plain "deleted".
func classifyAction(result models.ToolResult) string {
	msg := strings.ToLower(result.Message)

	switch {
	case strings.Contains(msg, "created") || strings.Contains(msg, "create"):
		return "create"
	case strings.Contains(msg, "deleted") && strings.Contains(msg, "all"):
		return "delete_all"
	case strings.Contains(msg, "deleted"):
		return "delete"
	case strings.Contains(msg, "updated"):
		return "update"
	case strings.Contains(msg, "completed"):
		return "complete"
	case result.Todos != nil || result.Count != nil:
		return "list"
	}
	return ""
}

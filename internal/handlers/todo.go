package handlers

import (
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"todoflow/internal/models"
	"todoflow/internal/store"
)

// TodoHandler handles direct CRUD requests against the todo store
type TodoHandler struct {
	store *store.Store
}

// NewTodoHandler creates a new todo handler
func NewTodoHandler(st *store.Store) *TodoHandler {
	return &TodoHandler{store: st}
}

// List returns all todos
// GET /todos
func (h *TodoHandler) List(c *fiber.Ctx) error {
	return c.JSON(h.store.Load())
}

// Get returns a single todo by id
// GET /todos/:id
func (h *TodoHandler) Get(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid todo ID",
		})
	}

	for _, todo := range h.store.Load() {
		if todo.ID == id {
			return c.JSON(todo)
		}
	}

	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"error": "Todo not found",
	})
}

// Create appends a new todo
// POST /todos
func (h *TodoHandler) Create(c *fiber.Ctx) error {
	var req models.TodoCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if strings.TrimSpace(req.Text) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Todo text is required",
		})
	}

	var created models.Todo
	err := h.store.Mutate(func(todos []models.Todo) ([]models.Todo, bool) {
		created = models.Todo{
			ID:        store.NextID(todos),
			Text:      req.Text,
			Completed: false,
			CreatedAt: time.Now().UTC(),
		}
		return append(todos, created), true
	})
	if err != nil {
		log.Printf("❌ [TODOS] Failed to persist new todo: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to save todo",
		})
	}

	return c.JSON(created)
}

// Update modifies a todo's text and/or completed flag
// PUT /todos/:id
func (h *TodoHandler) Update(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid todo ID",
		})
	}

	var req models.TodoUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	var updated *models.Todo
	err = h.store.Mutate(func(todos []models.Todo) ([]models.Todo, bool) {
		for i := range todos {
			if todos[i].ID != id {
				continue
			}
			if req.Text != nil {
				todos[i].Text = *req.Text
			}
			if req.Completed != nil {
				todos[i].Completed = *req.Completed
			}
			updated = &todos[i]
			return todos, true
		}
		return todos, false
	})
	if err != nil {
		log.Printf("❌ [TODOS] Failed to persist todo update: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to save todo",
		})
	}

	if updated == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Todo not found",
		})
	}

	return c.JSON(*updated)
}

// Delete removes one todo by id
// DELETE /todos/:id
func (h *TodoHandler) Delete(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid todo ID",
		})
	}

	found := false
	err = h.store.Mutate(func(todos []models.Todo) ([]models.Todo, bool) {
		for i := range todos {
			if todos[i].ID == id {
				found = true
				return append(todos[:i], todos[i+1:]...), true
			}
		}
		return todos, false
	})
	if err != nil {
		log.Printf("❌ [TODOS] Failed to persist todo delete: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to save todos",
		})
	}

	if !found {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Todo not found",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Todo deleted successfully",
	})
}

// DeleteAll removes every todo
// DELETE /todos
func (h *TodoHandler) DeleteAll(c *fiber.Ctx) error {
	err := h.store.Mutate(func(todos []models.Todo) ([]models.Todo, bool) {
		return []models.Todo{}, true
	})
	if err != nil {
		log.Printf("❌ [TODOS] Failed to clear todos: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to save todos",
		})
	}

	return c.JSON(fiber.Map{
		"message": "All todos deleted successfully",
	})
}

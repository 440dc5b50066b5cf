package services

import (
	"fmt"
	"sync"
	"testing"
)

func TestSessionService_UnknownThreadIsEmpty(t *testing.T) {
	s := NewSessionService()

	if msgs := s.Messages("nope"); len(msgs) != 0 {
		t.Errorf("Expected empty history for unknown thread, got %d messages", len(msgs))
	}
	if s.Count() != 0 {
		t.Errorf("Expected 0 threads, got %d", s.Count())
	}
}

func TestSessionService_SetAndGet(t *testing.T) {
	s := NewSessionService()

	messages := []map[string]interface{}{
		{"role": "user", "content": "add milk"},
		{"role": "assistant", "content": "done"},
	}
	s.SetMessages("default", messages)

	got := s.Messages("default")
	if len(got) != 2 {
		t.Fatalf("Expected 2 messages, got %d", len(got))
	}
	if got[0]["content"] != "add milk" {
		t.Errorf("Unexpected first message: %v", got[0])
	}
	if s.Count() != 1 {
		t.Errorf("Expected 1 thread, got %d", s.Count())
	}
}

func TestSessionService_ReturnsCopy(t *testing.T) {
	s := NewSessionService()
	s.SetMessages("default", []map[string]interface{}{
		{"role": "user", "content": "original"},
	})

	got := s.Messages("default")
	got = append(got, map[string]interface{}{"role": "user", "content": "extra"})
	_ = got

	if len(s.Messages("default")) != 1 {
		t.Error("Appending to the returned slice must not grow the stored log")
	}
}

func TestSessionService_ThreadsAreIsolated(t *testing.T) {
	s := NewSessionService()

	s.SetMessages("a", []map[string]interface{}{{"role": "user", "content": "for a"}})
	s.SetMessages("b", []map[string]interface{}{{"role": "user", "content": "for b"}})

	if s.Messages("a")[0]["content"] == s.Messages("b")[0]["content"] {
		t.Error("Threads must not share history")
	}
	if s.Count() != 2 {
		t.Errorf("Expected 2 threads, got %d", s.Count())
	}
}

func TestSessionService_ConcurrentAccess(t *testing.T) {
	s := NewSessionService()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			thread := fmt.Sprintf("thread-%d", id%5)
			s.SetMessages(thread, []map[string]interface{}{
				{"role": "user", "content": "hello"},
			})
			s.Messages(thread)
			s.Count()
		}(i)
	}
	wg.Wait()

	if s.Count() != 5 {
		t.Errorf("Expected 5 threads after concurrent writes, got %d", s.Count())
	}
}

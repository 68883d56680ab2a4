package services

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"github.com/username/istisna/backend/src/models"
)

var ErrEmptyMessage = errors.New("message text must not be empty")

const mockAssistantReply = "Bu konuyu GİB kaynaklarına göre inceledim. GVK Mükerrer 20/B kapsamındaki istisna, " +
	"sosyal içerik üreticiliği hasılatınızın münhasıran istisnaya özel banka hesabınızda toplanması şartına bağlıdır. " +
	"Banka, bu hesaba gelen tutarlar üzerinden %15 stopajı otomatik olarak keser; ayrıca beyanname vermenize gerek yoktur."

// mockAssistantService answers every message with a fixed reply after a fixed
// delay. It stands in for a real reasoning backend behind the same interface.
type mockAssistantService struct {
	delay  time.Duration
	nextID atomic.Int64
}

func NewMockAssistantService(delay time.Duration) AssistantService {
	return &mockAssistantService{delay: delay}
}

func (s *mockAssistantService) SendMessage(ctx context.Context, text string) (models.ChatMessage, error) {
	if strings.TrimSpace(text) == "" {
		return models.ChatMessage{}, ErrEmptyMessage
	}

	select {
	case <-time.After(s.delay):
	case <-ctx.Done():
		return models.ChatMessage{}, ctx.Err()
	}

	return models.ChatMessage{
		ID:     s.nextID.Add(1),
		Text:   mockAssistantReply,
		Sender: "ai",
	}, nil
}

package services

import (
	"context"

	"github.com/username/istisna/backend/src/models"
)

// RateService retrieves the latest TCMB daily exchange rate bulletin. A mock
// or a direct upstream client can stand in behind the same interface.
type RateService interface {
	FetchRates(ctx context.Context) (*models.RateTable, error)
}

// PetitionService renders the exemption petition document for a profile.
type PetitionService interface {
	Build(profile PetitionProfile) ([]byte, error)
}

// AssistantService answers a user message. The current implementation is a
// placeholder with a fixed reply; a real backend replaces it without consumer
// changes.
type AssistantService interface {
	SendMessage(ctx context.Context, text string) (models.ChatMessage, error)
}

// EmailService sends transactional product mail.
type EmailService interface {
	SendWelcomeEmail(toEmail, firstName string) error
}

package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"prompt-studio/shared/interfaces"
)

// Mock PromptEventPublisher
type PromptEventPublisher struct {
	mock.Mock
}

func (m *PromptEventPublisher) PublishPromptEvent(ctx context.Context, event interfaces.PromptEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"prompt-studio/shared/models"
)

// Mock ChatRunner
type ChatRunner struct {
	mock.Mock
}

func (m *ChatRunner) RunChat(ctx context.Context, req models.ChatRequest) (*models.ChatResponse, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*models.ChatResponse)
	return resp, args.Error(1)
}

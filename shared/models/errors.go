package models

import "errors"

// Application-wide standard errors
var (
	// Common Resource Errors
	ErrNotFound      = errors.New("resource not found")
	ErrBadRequest    = errors.New("bad request")
	ErrUnauthorized  = errors.New("unauthorized") // 401/403 от бэкенда промптов
	ErrInternal      = errors.New("internal server error")
	ErrEmptyResponse = errors.New("backend returned an empty response")

	// Prompt editing
	ErrNoPromptSelected = errors.New("no prompt selected")
	ErrRowNotFound      = errors.New("row not found")
	ErrInvalidField     = errors.New("invalid example field")
	ErrEmptyPromptName  = errors.New("prompt name must not be empty")

	// Chat
	ErrChatBusy              = errors.New("chat request already in progress")
	ErrIntegrationNotFound   = errors.New("integration not found")
	ErrEmptyChatResponse     = errors.New("chat response contains no messages")
	ErrProviderNotConfigured = errors.New("ai provider is not configured")

	// Sessions
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionInvalid  = errors.New("session cookie is invalid")
)

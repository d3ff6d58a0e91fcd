package handler

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"prompt-studio/internal/viewmodel"
)

const (
	flashCookieName = "flash_message"
	flashCookieTTL  = 30 * time.Second
)

// FlashMessage хранит тип и текст сообщения для пользователя.
type FlashMessage struct {
	Type    string `json:"type"` // success, info, error
	Message string `json:"message"`
}

func flashType(level viewmodel.Level) string {
	switch level {
	case viewmodel.LevelSuccess:
		return "success"
	case viewmodel.LevelError:
		return "error"
	default:
		return "info"
	}
}

// flashNotifier собирает уведомления view-моделей за время запроса.
type flashNotifier struct {
	messages []FlashMessage
	hasError bool
}

func (n *flashNotifier) Notify(level viewmodel.Level, message string) {
	n.messages = append(n.messages, FlashMessage{Type: flashType(level), Message: message})
	if level == viewmodel.LevelError {
		n.hasError = true
	}
}

// setFlashMessages устанавливает подписанную куку с flash-сообщениями.
// Формат: base64(HMAC-SHA256(json) || json).
func setFlashMessages(c *gin.Context, messages []FlashMessage, secret []byte, secure bool) error {
	if len(messages) == 0 {
		return nil
	}
	jsonData, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("failed to marshal flash messages: %w", err)
	}

	mac := hmac.New(sha256.New, secret)
	mac.Write(jsonData)
	signature := mac.Sum(nil)

	signedData := append(signature, jsonData...)
	encodedValue := base64.URLEncoding.EncodeToString(signedData)

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(flashCookieName, encodedValue, int(flashCookieTTL.Seconds()), "/", "", secure, true)
	return nil
}

// getFlashMessages читает, проверяет и удаляет куку с flash-сообщениями.
func getFlashMessages(c *gin.Context, secret []byte, secure bool) ([]FlashMessage, error) {
	cookie, err := c.Cookie(flashCookieName)
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get flash cookie: %w", err)
	}

	// Кука одноразовая
	c.SetCookie(flashCookieName, "", -1, "/", "", secure, true)

	signedData, err := base64.URLEncoding.DecodeString(cookie)
	if err != nil {
		return nil, fmt.Errorf("failed to decode flash cookie: %w", err)
	}
	if len(signedData) < sha256.Size {
		return nil, fmt.Errorf("invalid flash cookie length")
	}

	receivedSig := signedData[:sha256.Size]
	jsonData := signedData[sha256.Size:]

	mac := hmac.New(sha256.New, secret)
	mac.Write(jsonData)
	if !hmac.Equal(receivedSig, mac.Sum(nil)) {
		return nil, fmt.Errorf("invalid flash cookie signature")
	}

	var messages []FlashMessage
	if err := json.Unmarshal(jsonData, &messages); err != nil {
		return nil, fmt.Errorf("failed to unmarshal flash messages: %w", err)
	}
	return messages, nil
}

package viewmodel

// ConfirmEvent - событие, которое модальное окно отдает слушателю.
type ConfirmEvent string

const (
	EventCloseConfirm ConfirmEvent = "close-confirm"
	EventDeletePrompt ConfirmEvent = "delete-prompt"
)

// ConfirmModal - окно подтверждения удаления промпта. Своего состояния, кроме
// переданного флага Loading, не хранит.
type ConfirmModal struct {
	Title   string
	Body    string
	Loading bool

	listener func(ConfirmEvent)
}

// NewDeletePromptModal создает окно подтверждения удаления промпта.
func NewDeletePromptModal(loading bool, listener func(ConfirmEvent)) ConfirmModal {
	return ConfirmModal{
		Title:    "Delete prompt?",
		Body:     "Are you sure to delete prompt?",
		Loading:  loading,
		listener: listener,
	}
}

// Cancel отдает close-confirm.
func (m ConfirmModal) Cancel() { m.emit(EventCloseConfirm) }

// Confirm отдает delete-prompt.
func (m ConfirmModal) Confirm() { m.emit(EventDeletePrompt) }

func (m ConfirmModal) emit(event ConfirmEvent) {
	if m.listener != nil {
		m.listener(event)
	}
}

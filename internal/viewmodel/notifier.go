package viewmodel

// Level - уровень всплывающего уведомления.
type Level string

const (
	LevelSuccess Level = "SUCCESS"
	LevelInfo    Level = "INFO"
	LevelError   Level = "ERROR"
)

// Notifier показывает уведомление пользователю.
type Notifier interface {
	Notify(level Level, message string)
}

// NotifierFunc позволяет использовать функцию как Notifier.
type NotifierFunc func(level Level, message string)

func (f NotifierFunc) Notify(level Level, message string) { f(level, message) }

// Тексты уведомлений.
const (
	msgExampleCreated = "Example was created."
	msgExampleUpdated = "Example was updated."
	msgExampleDeleted = "Example delete."
	msgPromptCreated  = "Prompt was created."
	msgPromptUpdated  = "Prompt was updated."
	msgPromptDeleted  = "Prompt was deleted."
	msgTagsUpdated    = "Tags were updated."
	msgVarCreated     = "Variable was created."
	msgVarUpdated     = "Variable was updated."
	msgVarDeleted     = "Variable was deleted."
)

package models

// Intent is the classified purpose of the latest user message.
type Intent string

const (
	IntentGeneralChat  Intent = "general_chat"
	IntentCreateTask   Intent = "create_task"
	IntentCompleteTask Intent = "complete_task"
	IntentUpdateTask   Intent = "update_task"
	IntentUnknown      Intent = "unknown"
)

// Intents lists every member of the closed intent enumeration.
func Intents() []Intent {
	return []Intent{IntentGeneralChat, IntentCreateTask, IntentCompleteTask, IntentUpdateTask, IntentUnknown}
}

// Valid returns true if the intent is a member of the enumeration.
func (i Intent) Valid() bool {
	switch i {
	case IntentGeneralChat, IntentCreateTask, IntentCompleteTask, IntentUpdateTask, IntentUnknown:
		return true
	default:
		return false
	}
}

// IsTask reports whether the intent belongs to the task management family.
func (i Intent) IsTask() bool {
	switch i {
	case IntentCreateTask, IntentCompleteTask, IntentUpdateTask:
		return true
	default:
		return false
	}
}

// ParseIntent maps a raw label to an Intent. The label must match a member
// of the enumeration exactly; anything else returns a *ClassificationError.
func ParseIntent(label string) (Intent, error) {
	i := Intent(label)
	if !i.Valid() {
		return "", &ClassificationError{Label: label}
	}
	return i, nil
}

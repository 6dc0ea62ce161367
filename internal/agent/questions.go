package agent

import (
	"fmt"
	"strings"

	"github.com/ShayCichocki/tasktalk/internal/dates"
	"github.com/ShayCichocki/tasktalk/pkg/models"
)

const (
	updateUnsupportedReply = "I can't change existing tasks yet. I can create a new task or mark one complete."
	askTaskIDReply         = "Which task should I mark complete? Please give me its ID."
	askDescriptionReply    = "I couldn't come up with a good description for that task. Could you describe it in a sentence?"
)

var fieldLabels = map[string]string{
	models.FieldTitle:    "a title",
	models.FieldPriority: "a priority (low, medium or high)",
	models.FieldDueDate:  "a due date",
}

var invalidNotes = map[string]string{
	models.FieldTitle:    "The title can't be empty.",
	models.FieldPriority: "Priority has to be low, medium or high.",
	models.FieldDueDate:  "I couldn't work out that due date.",
}

// clarifyQuestion asks for the fields in need, noting which of them were
// given but unusable.
func clarifyQuestion(d models.TaskDraft, need, invalid []string) string {
	var b strings.Builder
	for _, f := range invalid {
		if note, ok := invalidNotes[f]; ok {
			b.WriteString(note)
			b.WriteByte(' ')
		}
	}
	labels := make([]string, 0, len(need))
	for _, f := range need {
		labels = append(labels, fieldLabels[f])
	}
	if d.Title != nil {
		fmt.Fprintf(&b, "To create %q I still need %s.", *d.Title, joinLabels(labels))
	} else {
		fmt.Fprintf(&b, "To create this task I still need %s.", joinLabels(labels))
	}
	return b.String()
}

// confirmQuestion is used when every field is known but the model did not
// ask for the action.
func confirmQuestion(d models.TaskDraft) string {
	return fmt.Sprintf("I have %q at %s priority, due %s. Shall I create it?",
		*d.Title, *d.Priority, dates.Human(*d.DueDate))
}

func joinLabels(labels []string) string {
	switch len(labels) {
	case 0:
		return "nothing else"
	case 1:
		return labels[0]
	default:
		return strings.Join(labels[:len(labels)-1], ", ") + " and " + labels[len(labels)-1]
	}
}

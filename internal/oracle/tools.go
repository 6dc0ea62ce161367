package oracle

import (
	"github.com/ShayCichocki/tasktalk/pkg/models"
)

const (
	toolClassifyIntent   = "classify_intent"
	toolReviewTask       = "review_task"
	toolWriteDescription = "write_description"
)

// IntentArgs is the classify_intent tool input.
type IntentArgs struct {
	Intent string `json:"intent" jsonschema:"required,enum=general_chat,enum=create_task,enum=complete_task,enum=update_task,enum=unknown"`
}

// ReviewArgs is the review_task tool input.
type ReviewArgs struct {
	Title       string   `json:"title,omitempty" jsonschema:"description=Task title if the user gave one"`
	Priority    string   `json:"priority,omitempty" jsonschema:"description=low or medium or high if the user gave one"`
	DueDate     string   `json:"dueDate,omitempty" jsonschema:"description=Due date exactly as the user phrased it or as an ISO 8601 date"`
	Description string   `json:"description,omitempty" jsonschema:"description=A description of exactly 15 words"`
	TaskID      string   `json:"taskId,omitempty" jsonschema:"description=Identifier of an existing task the user referred to"`
	Sufficient  bool     `json:"sufficient" jsonschema:"required,description=True when title and priority and due date are all known"`
	Missing     []string `json:"missing" jsonschema:"required,description=Names of required fields that are still unknown"`
}

// DescriptionArgs is the write_description tool input.
type DescriptionArgs struct {
	Description string `json:"description" jsonschema:"required,description=Exactly 15 words describing the task"`
}

func classifyTool() ToolSpec {
	return ToolSpec{
		Name:        toolClassifyIntent,
		Description: "Record the intent of the latest user message.",
		Schema:      SchemaFor[IntentArgs](),
	}
}

func reviewTool() ToolSpec {
	return ToolSpec{
		Name:        toolReviewTask,
		Description: "Record every task field the user has provided so far and whether enough is known to create the task.",
		Schema:      SchemaFor[ReviewArgs](),
	}
}

func descriptionTool() ToolSpec {
	return ToolSpec{
		Name:        toolWriteDescription,
		Description: "Record a task description that is exactly 15 words long.",
		Schema:      SchemaFor[DescriptionArgs](),
	}
}

// ActionTools returns the durable actions the model may request.
func ActionTools() []ToolSpec {
	return []ToolSpec{
		{
			Name:        string(models.ActionCreateTask),
			Description: "Creates a new task with the given details.",
			Schema:      SchemaFor[models.CreateTaskArgs](),
		},
		{
			Name:        string(models.ActionCompleteTask),
			Description: "Marks the specified task as complete.",
			Schema:      SchemaFor[models.CompleteTaskArgs](),
		},
	}
}

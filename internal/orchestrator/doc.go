// Package orchestrator runs one conversational turn at a time through the
// assistant graph and checkpoints the result per thread.
//
// The graph has four nodes:
//   - IntentClassifier: labels the latest user message
//   - ChatAgent: answers general chat
//   - TaskAgent: collects task fields and proposes at most one action
//   - ToolCall: executes that action against the task store
//
// Routing after IntentClassifier depends on the intent; routing after
// TaskAgent depends on whether an action is pending. State is saved after
// every node so an interrupted turn resumes where it stopped.
//
// Example usage:
//
//	a, err := orchestrator.New(orchestrator.RequiredConfig{
//		Oracle:      o,
//		Store:       store,
//		Checkpoints: saver,
//	})
//	reply, err := a.Turn(ctx, "1", "remind me to call mom")
package orchestrator

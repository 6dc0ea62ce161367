// Package tui provides the full screen chat view for tasktalk.
//
// The view shows the conversation on one thread, a one-line activity strip
// fed by orchestrator events (which node is running, which action was
// dispatched) and an input box. Typing "exit" or pressing Ctrl+C quits.
//
// Usage:
//
//	program := tui.NewChatProgram(ctx, assistant, assistant.Events(), threadID)
//	if _, err := program.Run(); err != nil {
//	    return err
//	}
//
// Turns run off the UI goroutine; their replies arrive as ReplyMsg.
package tui

package orchestrator

import (
	"github.com/ShayCichocki/tasktalk/internal/agent"
	"github.com/ShayCichocki/tasktalk/internal/conversation"
	"github.com/ShayCichocki/tasktalk/internal/graph"
	"github.com/ShayCichocki/tasktalk/pkg/models"
)

// Node names.
const (
	NodeIntentClassifier = "IntentClassifier"
	NodeChatAgent        = "ChatAgent"
	NodeTaskAgent        = "TaskAgent"
	NodeToolCall         = "ToolCall"
)

// Router outcomes.
const (
	OutcomeChat     graph.Outcome = "chat"
	OutcomeTask     graph.Outcome = "task"
	OutcomeDispatch graph.Outcome = "dispatch"
	OutcomeFinish   graph.Outcome = "finish"
)

// AssistantGraph is the compiled conversation graph.
type AssistantGraph = graph.Graph[conversation.State, conversation.Update]

// PostClassification routes on the classified intent.
var PostClassification = graph.Router[conversation.State]{
	Name:     "post_classification",
	Outcomes: []graph.Outcome{OutcomeChat, OutcomeTask, OutcomeFinish},
	Decide: func(s conversation.State) graph.Outcome {
		switch {
		case s.Intent == models.IntentGeneralChat:
			return OutcomeChat
		case s.Intent.IsTask():
			return OutcomeTask
		default:
			return OutcomeFinish
		}
	},
}

// PostTask routes to the dispatcher only when an action is pending.
var PostTask = graph.Router[conversation.State]{
	Name:     "post_task",
	Outcomes: []graph.Outcome{OutcomeDispatch, OutcomeFinish},
	Decide: func(s conversation.State) graph.Outcome {
		if len(s.PendingInvocations()) > 0 {
			return OutcomeDispatch
		}
		return OutcomeFinish
	},
}

// BuildGraph wires the four stages into the assistant topology. Routing and
// node traces go to logger, which may be nil.
func BuildGraph(classifier, chat, task, dispatch agent.Stage, logger *DebugLogger) (*AssistantGraph, error) {
	g, err := graph.NewBuilder[conversation.State, conversation.Update](conversation.Merge).
		AddNode(NodeIntentClassifier, classifier.Run).
		AddNode(NodeChatAgent, chat.Run).
		AddNode(NodeTaskAgent, task.Run).
		AddNode(NodeToolCall, dispatch.Run).
		AddEdge(graph.Start, NodeIntentClassifier).
		AddConditionalEdges(NodeIntentClassifier, PostClassification, map[graph.Outcome]string{
			OutcomeChat:   NodeChatAgent,
			OutcomeTask:   NodeTaskAgent,
			OutcomeFinish: graph.End,
		}).
		AddEdge(NodeChatAgent, graph.End).
		AddConditionalEdges(NodeTaskAgent, PostTask, map[graph.Outcome]string{
			OutcomeDispatch: NodeToolCall,
			OutcomeFinish:   graph.End,
		}).
		AddEdge(NodeToolCall, graph.End).
		Compile()
	if err != nil {
		return nil, err
	}
	if logger != nil {
		g.SetDebugLog(logger.Log)
	}
	return g, nil
}

// Package graph provides a small state graph engine: named nodes, unconditional
// and routed edges, one entry point and an implicit end.
package graph

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
)

const (
	// Start is the virtual entry node.
	Start = "__start__"
	// End is the virtual terminal node.
	End = "__end__"
)

var (
	// ErrCycleDetected indicates the node edges form a loop.
	ErrCycleDetected = errors.New("cycle detected in graph")
	// ErrNoEntry indicates no edge leaves Start.
	ErrNoEntry = errors.New("graph has no entry edge")
	// ErrUnknownOutcome indicates a router returned a value it did not declare.
	ErrUnknownOutcome = errors.New("router returned an undeclared outcome")
)

// Outcome is a label returned by a router.
type Outcome string

// NodeFunc runs one stage against the current state and returns an update.
type NodeFunc[S, U any] func(ctx context.Context, state S) (U, error)

// MergeFunc folds a node's update into the state. It must not mutate state.
type MergeFunc[S, U any] func(state S, update U) S

// Router picks the next edge after a node. Outcomes declares every value
// Decide may return.
type Router[S any] struct {
	Name     string
	Outcomes []Outcome
	Decide   func(state S) Outcome
}

// NodeError reports which node failed.
type NodeError struct {
	Node string
	Err  error
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("node %s: %v", e.Node, e.Err)
}

func (e *NodeError) Unwrap() error {
	return e.Err
}

type conditional[S any] struct {
	router Router[S]
	routes map[Outcome]string
}

// Builder collects nodes and edges before Compile.
type Builder[S, U any] struct {
	nodes map[string]NodeFunc[S, U]
	order []string
	edges map[string]string
	conds map[string]conditional[S]
	merge MergeFunc[S, U]
	errs  []error
}

// NewBuilder starts a graph whose updates are folded in by merge.
func NewBuilder[S, U any](merge MergeFunc[S, U]) *Builder[S, U] {
	return &Builder[S, U]{
		nodes: make(map[string]NodeFunc[S, U]),
		edges: make(map[string]string),
		conds: make(map[string]conditional[S]),
		merge: merge,
	}
}

// AddNode registers a named node.
func (b *Builder[S, U]) AddNode(name string, fn NodeFunc[S, U]) *Builder[S, U] {
	switch {
	case name == Start || name == End || name == "":
		b.errs = append(b.errs, fmt.Errorf("node name %q is reserved", name))
	case fn == nil:
		b.errs = append(b.errs, fmt.Errorf("node %s has no function", name))
	case b.nodes[name] != nil:
		b.errs = append(b.errs, fmt.Errorf("node %s added twice", name))
	default:
		b.nodes[name] = fn
		b.order = append(b.order, name)
	}
	return b
}

// AddEdge adds an unconditional edge.
func (b *Builder[S, U]) AddEdge(from, to string) *Builder[S, U] {
	if b.hasOutgoing(from) {
		b.errs = append(b.errs, fmt.Errorf("node %s already has an outgoing edge", from))
		return b
	}
	b.edges[from] = to
	return b
}

// AddConditionalEdges routes from a node through router. routes must map
// every declared outcome and nothing else.
func (b *Builder[S, U]) AddConditionalEdges(from string, router Router[S], routes map[Outcome]string) *Builder[S, U] {
	if b.hasOutgoing(from) {
		b.errs = append(b.errs, fmt.Errorf("node %s already has an outgoing edge", from))
		return b
	}
	if router.Decide == nil {
		b.errs = append(b.errs, fmt.Errorf("router %s has no decide function", router.Name))
		return b
	}
	b.conds[from] = conditional[S]{router: router, routes: routes}
	return b
}

func (b *Builder[S, U]) hasOutgoing(from string) bool {
	_, e := b.edges[from]
	_, c := b.conds[from]
	return e || c
}

// Compile validates the topology and returns a runnable graph.
func (b *Builder[S, U]) Compile() (*Graph[S, U], error) {
	if len(b.errs) > 0 {
		return nil, errors.Join(b.errs...)
	}
	if b.merge == nil {
		return nil, errors.New("graph has no merge function")
	}

	known := func(name string) bool {
		return name == End || b.nodes[name] != nil
	}

	var errs []error
	entry, ok := b.edges[Start]
	if !ok {
		errs = append(errs, ErrNoEntry)
	} else if !known(entry) {
		errs = append(errs, fmt.Errorf("entry edge targets unknown node %s", entry))
	}
	if _, ok := b.conds[Start]; ok {
		errs = append(errs, errors.New("start cannot be routed conditionally"))
	}

	for from, to := range b.edges {
		if from != Start && b.nodes[from] == nil {
			errs = append(errs, fmt.Errorf("edge from unknown node %s", from))
		}
		if !known(to) {
			errs = append(errs, fmt.Errorf("edge %s -> %s targets unknown node", from, to))
		}
	}

	for from, c := range b.conds {
		if b.nodes[from] == nil {
			errs = append(errs, fmt.Errorf("router %s attached to unknown node %s", c.router.Name, from))
		}
		for _, o := range c.router.Outcomes {
			to, ok := c.routes[o]
			if !ok {
				errs = append(errs, fmt.Errorf("router %s outcome %q is not mapped", c.router.Name, o))
				continue
			}
			if !known(to) {
				errs = append(errs, fmt.Errorf("router %s outcome %q targets unknown node %s", c.router.Name, o, to))
			}
		}
		for o := range c.routes {
			if !slices.Contains(c.router.Outcomes, o) {
				errs = append(errs, fmt.Errorf("router %s maps undeclared outcome %q", c.router.Name, o))
			}
		}
	}

	for _, name := range b.order {
		if !b.hasOutgoing(name) {
			errs = append(errs, fmt.Errorf("node %s has no outgoing edge", name))
		}
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	if b.hasCycle() {
		return nil, ErrCycleDetected
	}

	return &Graph[S, U]{
		nodes:    b.nodes,
		edges:    b.edges,
		conds:    b.conds,
		merge:    b.merge,
		entry:    entry,
		debugLog: func(format string, args ...interface{}) {}, // no-op by default
	}, nil
}

// successors lists every node reachable in one step, sorted for stable traversal.
func (b *Builder[S, U]) successors(name string) []string {
	var out []string
	if to, ok := b.edges[name]; ok && to != End {
		out = append(out, to)
	}
	if c, ok := b.conds[name]; ok {
		for _, to := range c.routes {
			if to != End && !slices.Contains(out, to) {
				out = append(out, to)
			}
		}
	}
	sort.Strings(out)
	return out
}

// hasCycle uses depth-first search with coloring to detect back edges.
func (b *Builder[S, U]) hasCycle() bool {
	// 0 = unvisited, 1 = in progress, 2 = done.
	colors := make(map[string]int)

	var visit func(name string) bool
	visit = func(name string) bool {
		colors[name] = 1
		for _, next := range b.successors(name) {
			switch colors[next] {
			case 1:
				return true
			case 0:
				if visit(next) {
					return true
				}
			}
		}
		colors[name] = 2
		return false
	}

	for _, name := range b.order {
		if colors[name] == 0 && visit(name) {
			return true
		}
	}
	return false
}

// Hooks observe a run. NodeDone may return an error to abort the run, which
// is how callers checkpoint after each node.
type Hooks[S any] struct {
	NodeStart func(node string)
	NodeDone  func(node string, state S) error
}

// Graph is a compiled, immutable state graph. It is safe for concurrent Runs.
type Graph[S, U any] struct {
	nodes    map[string]NodeFunc[S, U]
	edges    map[string]string
	conds    map[string]conditional[S]
	merge    MergeFunc[S, U]
	entry    string
	debugLog func(format string, args ...interface{})
}

// SetDebugLog sets the debug logging function.
func (g *Graph[S, U]) SetDebugLog(fn func(format string, args ...interface{})) {
	if fn != nil {
		g.debugLog = fn
	}
}

// Next returns the node that follows from after state. It is a pure function
// of the compiled topology and the state.
func (g *Graph[S, U]) Next(from string, state S) (string, error) {
	if to, ok := g.edges[from]; ok {
		return to, nil
	}
	c, ok := g.conds[from]
	if !ok {
		return "", fmt.Errorf("node %s has no outgoing edge", from)
	}
	outcome := c.router.Decide(state)
	to, ok := c.routes[outcome]
	if !ok {
		return "", fmt.Errorf("router %s returned %q: %w", c.router.Name, outcome, ErrUnknownOutcome)
	}
	g.debugLog("[graph] router %s -> %s (%s)", c.router.Name, outcome, to)
	return to, nil
}

// Run executes nodes from the entry until End. Each node runs at most once.
// On failure it returns the state as of the last successful merge together
// with a *NodeError.
func (g *Graph[S, U]) Run(ctx context.Context, state S, hooks Hooks[S]) (S, error) {
	return g.RunFrom(ctx, g.entry, state, hooks)
}

// Resume continues a run whose last completed node was after. It returns
// state unchanged when after leads to End.
func (g *Graph[S, U]) Resume(ctx context.Context, after string, state S, hooks Hooks[S]) (S, error) {
	if after == "" || after == Start {
		return g.Run(ctx, state, hooks)
	}
	if _, ok := g.nodes[after]; !ok {
		return state, fmt.Errorf("resume after unknown node %q", after)
	}
	next, err := g.Next(after, state)
	if err != nil {
		return state, &NodeError{Node: after, Err: err}
	}
	return g.RunFrom(ctx, next, state, hooks)
}

// RunFrom executes nodes starting at node until End.
func (g *Graph[S, U]) RunFrom(ctx context.Context, node string, state S, hooks Hooks[S]) (S, error) {
	if node != End {
		if _, ok := g.nodes[node]; !ok {
			return state, fmt.Errorf("run from unknown node %q", node)
		}
	}
	visited := make(map[string]bool, len(g.nodes))
	current := node

	for current != End {
		if err := ctx.Err(); err != nil {
			return state, &NodeError{Node: current, Err: err}
		}
		if visited[current] {
			return state, &NodeError{Node: current, Err: ErrCycleDetected}
		}
		visited[current] = true

		if hooks.NodeStart != nil {
			hooks.NodeStart(current)
		}
		g.debugLog("[graph] running node %s", current)

		update, err := g.nodes[current](ctx, state)
		if err != nil {
			return state, &NodeError{Node: current, Err: err}
		}
		state = g.merge(state, update)

		if hooks.NodeDone != nil {
			if err := hooks.NodeDone(current, state); err != nil {
				return state, &NodeError{Node: current, Err: err}
			}
		}

		next, err := g.Next(current, state)
		if err != nil {
			return state, &NodeError{Node: current, Err: err}
		}
		current = next
	}
	return state, nil
}

package graph

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type testState struct {
	trace []string
	route Outcome
}

type testUpdate struct {
	step string
}

func mergeTest(s testState, u testUpdate) testState {
	out := s
	out.trace = append(append([]string(nil), s.trace...), u.step)
	return out
}

func step(name string) NodeFunc[testState, testUpdate] {
	return func(ctx context.Context, s testState) (testUpdate, error) {
		return testUpdate{step: name}, nil
	}
}

func routeRouter() Router[testState] {
	return Router[testState]{
		Name:     "route",
		Outcomes: []Outcome{"left", "right", "stop"},
		Decide:   func(s testState) Outcome { return s.route },
	}
}

func buildBranching(t *testing.T) *Graph[testState, testUpdate] {
	t.Helper()
	g, err := NewBuilder[testState, testUpdate](mergeTest).
		AddNode("classify", step("classify")).
		AddNode("left", step("left")).
		AddNode("right", step("right")).
		AddNode("after", step("after")).
		AddEdge(Start, "classify").
		AddConditionalEdges("classify", routeRouter(), map[Outcome]string{
			"left":  "left",
			"right": "right",
			"stop":  End,
		}).
		AddEdge("left", End).
		AddEdge("right", "after").
		AddEdge("after", End).
		Compile()
	if err != nil {
		t.Fatalf("Compile() error: %v", err)
	}
	return g
}

func TestRun_FollowsRoutes(t *testing.T) {
	g := buildBranching(t)

	tests := []struct {
		route Outcome
		want  string
	}{
		{"left", "classify,left"},
		{"right", "classify,right,after"},
		{"stop", "classify"},
	}

	for _, tt := range tests {
		t.Run(string(tt.route), func(t *testing.T) {
			got, err := g.Run(context.Background(), testState{route: tt.route}, Hooks[testState]{})
			if err != nil {
				t.Fatalf("Run() error: %v", err)
			}
			if trace := strings.Join(got.trace, ","); trace != tt.want {
				t.Errorf("trace = %q, want %q", trace, tt.want)
			}
		})
	}
}

func TestRun_HooksSeeEveryNode(t *testing.T) {
	g := buildBranching(t)

	var started, done []string
	_, err := g.Run(context.Background(), testState{route: "right"}, Hooks[testState]{
		NodeStart: func(n string) { started = append(started, n) },
		NodeDone: func(n string, s testState) error {
			done = append(done, n)
			if len(s.trace) != len(done) {
				t.Errorf("NodeDone(%s) saw %d merged updates, want %d", n, len(s.trace), len(done))
			}
			return nil
		},
	})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if strings.Join(started, ",") != "classify,right,after" || strings.Join(done, ",") != "classify,right,after" {
		t.Errorf("started = %v, done = %v", started, done)
	}
}

func TestRun_NodeErrorKeepsLastState(t *testing.T) {
	boom := errors.New("boom")
	g, err := NewBuilder[testState, testUpdate](mergeTest).
		AddNode("a", step("a")).
		AddNode("b", func(ctx context.Context, s testState) (testUpdate, error) {
			return testUpdate{}, boom
		}).
		AddEdge(Start, "a").
		AddEdge("a", "b").
		AddEdge("b", End).
		Compile()
	if err != nil {
		t.Fatalf("Compile() error: %v", err)
	}

	got, err := g.Run(context.Background(), testState{}, Hooks[testState]{})
	var nerr *NodeError
	if !errors.As(err, &nerr) || nerr.Node != "b" || !errors.Is(err, boom) {
		t.Fatalf("Run() error = %v, want NodeError at b wrapping boom", err)
	}
	if strings.Join(got.trace, ",") != "a" {
		t.Errorf("trace = %v, want [a]", got.trace)
	}
}

func TestRun_UndeclaredOutcome(t *testing.T) {
	g := buildBranching(t)
	_, err := g.Run(context.Background(), testState{route: "sideways"}, Hooks[testState]{})
	if !errors.Is(err, ErrUnknownOutcome) {
		t.Errorf("Run() error = %v, want ErrUnknownOutcome", err)
	}
}

func TestNext_IsPure(t *testing.T) {
	g := buildBranching(t)
	s := testState{route: "left"}
	first, err := g.Next("classify", s)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		if again, _ := g.Next("classify", s); again != first {
			t.Fatalf("Next() = %s on repeat, want %s", again, first)
		}
	}
}

func TestCompile_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		build func() *Builder[testState, testUpdate]
		want  string
	}{
		{
			name: "no entry",
			build: func() *Builder[testState, testUpdate] {
				return NewBuilder[testState, testUpdate](mergeTest).
					AddNode("a", step("a")).
					AddEdge("a", End)
			},
			want: "no entry",
		},
		{
			name: "unmapped outcome",
			build: func() *Builder[testState, testUpdate] {
				return NewBuilder[testState, testUpdate](mergeTest).
					AddNode("a", step("a")).
					AddEdge(Start, "a").
					AddConditionalEdges("a", routeRouter(), map[Outcome]string{"left": End, "right": End})
			},
			want: `outcome "stop" is not mapped`,
		},
		{
			name: "extra outcome",
			build: func() *Builder[testState, testUpdate] {
				return NewBuilder[testState, testUpdate](mergeTest).
					AddNode("a", step("a")).
					AddEdge(Start, "a").
					AddConditionalEdges("a", routeRouter(), map[Outcome]string{
						"left": End, "right": End, "stop": End, "up": End,
					})
			},
			want: `undeclared outcome "up"`,
		},
		{
			name: "unknown target",
			build: func() *Builder[testState, testUpdate] {
				return NewBuilder[testState, testUpdate](mergeTest).
					AddNode("a", step("a")).
					AddEdge(Start, "a").
					AddEdge("a", "nowhere")
			},
			want: "unknown node",
		},
		{
			name: "dangling node",
			build: func() *Builder[testState, testUpdate] {
				return NewBuilder[testState, testUpdate](mergeTest).
					AddNode("a", step("a")).
					AddNode("b", step("b")).
					AddEdge(Start, "a").
					AddEdge("a", End)
			},
			want: "node b has no outgoing edge",
		},
		{
			name: "cycle",
			build: func() *Builder[testState, testUpdate] {
				return NewBuilder[testState, testUpdate](mergeTest).
					AddNode("a", step("a")).
					AddNode("b", step("b")).
					AddEdge(Start, "a").
					AddEdge("a", "b").
					AddEdge("b", "a")
			},
			want: ErrCycleDetected.Error(),
		},
		{
			name: "duplicate node",
			build: func() *Builder[testState, testUpdate] {
				return NewBuilder[testState, testUpdate](mergeTest).
					AddNode("a", step("a")).
					AddNode("a", step("a"))
			},
			want: "added twice",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.build().Compile()
			if err == nil {
				t.Fatal("Compile() succeeded, want error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Compile() error = %q, want it to contain %q", err, tt.want)
			}
		})
	}
}

func TestResume(t *testing.T) {
	g := buildBranching(t)

	tests := []struct {
		name  string
		after string
		route Outcome
		want  string
	}{
		{"from start", Start, "left", "classify,left"},
		{"after router", "classify", "right", "right,after"},
		{"after plain edge", "right", "right", "after"},
		{"already finished", "after", "right", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := g.Resume(context.Background(), tt.after, testState{route: tt.route}, Hooks[testState]{})
			if err != nil {
				t.Fatalf("Resume() error: %v", err)
			}
			if trace := strings.Join(got.trace, ","); trace != tt.want {
				t.Errorf("trace = %q, want %q", trace, tt.want)
			}
		})
	}

	if _, err := g.Resume(context.Background(), "missing", testState{}, Hooks[testState]{}); err == nil {
		t.Error("Resume() from unknown node: want error")
	}
}

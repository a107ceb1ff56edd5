package router

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/ellie-edu/ellie/internal/domain"
	"github.com/ellie-edu/ellie/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.RegisterPipelineMetrics()
	os.Exit(m.Run())
}

// mockCompleter implements Completer for tests.
type mockCompleter struct {
	response string
	err      error
	lastReq  domain.CompletionRequest
}

func (m *mockCompleter) Complete(_ context.Context, req domain.CompletionRequest) (string, error) {
	m.lastReq = req
	return m.response, m.err
}

func TestRoute_ValidDecision(t *testing.T) {
	chat := &mockCompleter{response: `{
		"decision": "course_only",
		"reasons": "covered by week 3 slides",
		"k_course": 3,
		"k_web": 0,
		"web_queries": []
	}`}
	svc := New(chat, 0)

	got, err := svc.Route(context.Background(), "cs101", "what is a heap?", nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Decision != domain.RouteCourseOnly {
		t.Errorf("unexpected decision: %s", got.Decision)
	}
	if got.KCourse != 3 || got.KWeb != 0 {
		t.Errorf("unexpected k values: %d, %d", got.KCourse, got.KWeb)
	}
	if !chat.lastReq.ForceJSON {
		t.Error("expected JSON-forced completion")
	}
	if chat.lastReq.Temperature != 0 {
		t.Errorf("expected temperature 0, got %f", chat.lastReq.Temperature)
	}
}

func TestRoute_UnparseableFallsBack(t *testing.T) {
	chat := &mockCompleter{response: "I think you should use course materials."}
	svc := New(chat, 0)

	got, err := svc.Route(context.Background(), "cs101", "what is a heap?", nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := domain.FallbackDecision("what is a heap?")
	if got.Decision != want.Decision || got.Reasons != want.Reasons {
		t.Errorf("expected fallback decision, got %+v", got)
	}
	if got.KCourse != 4 || got.KWeb != 2 {
		t.Errorf("expected fallback k values 4/2, got %d/%d", got.KCourse, got.KWeb)
	}
	if len(got.WebQueries) != 1 || got.WebQueries[0] != "what is a heap?" {
		t.Errorf("expected original question as web query, got %v", got.WebQueries)
	}
}

func TestRoute_CompleterError(t *testing.T) {
	chat := &mockCompleter{err: errors.New("provider down")}
	svc := New(chat, 0)

	_, err := svc.Route(context.Background(), "cs101", "what is a heap?", nil, nil)
	if err == nil {
		t.Fatal("expected error from completer")
	}
}

func TestParseDecision_MissingFieldDefaults(t *testing.T) {
	got, err := parseDecision(`{"decision": "course_only"}`, "q")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.KCourse != 4 {
		t.Errorf("expected default k_course=4, got %d", got.KCourse)
	}
	if got.KWeb != 0 {
		t.Errorf("expected default k_web=0, got %d", got.KWeb)
	}
}

func TestParseDecision_ZeroKCoursePreserved(t *testing.T) {
	got, err := parseDecision(`{"decision": "web_primary", "k_course": 0, "k_web": 3, "web_queries": ["x"]}`, "q")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.KCourse != 0 {
		t.Errorf("expected explicit k_course=0 preserved, got %d", got.KCourse)
	}
}

func TestParseDecision_InvalidLabelCoerced(t *testing.T) {
	got, err := parseDecision(`{"decision": "web_only", "k_course": 2, "k_web": 2, "web_queries": ["x"]}`, "q")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Decision != domain.RouteCourseThenWeb {
		t.Errorf("expected coercion to course_then_web, got %s", got.Decision)
	}
}

func TestParseDecision_WebQuerySubstitution(t *testing.T) {
	got, err := parseDecision(`{"decision": "course_then_web", "k_course": 4, "k_web": 2}`, "original question")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.WebQueries) != 1 || got.WebQueries[0] != "original question" {
		t.Errorf("expected question substituted for empty web_queries, got %v", got.WebQueries)
	}
}

func TestParseDecision_NegativeKClamped(t *testing.T) {
	got, err := parseDecision(`{"decision": "course_only", "k_course": -3, "k_web": -1}`, "q")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.KCourse != 0 || got.KWeb != 0 {
		t.Errorf("expected negatives clamped to 0, got %d/%d", got.KCourse, got.KWeb)
	}
}

func TestBuildPreview_Empty(t *testing.T) {
	if got := buildPreview(nil); got != "(no matches)" {
		t.Errorf("unexpected empty preview: %q", got)
	}
}

func TestBuildPreview_TruncatesAndLimits(t *testing.T) {
	long := strings.Repeat("x", 500)
	chunks := []domain.ScoredChunk{
		{Chunk: domain.Chunk{PageTitle: "Intro", Text: long}, Score: 0.9},
		{Chunk: domain.Chunk{Title: "Two", Text: "b"}, Score: 0.8},
		{Chunk: domain.Chunk{FileName: "three.pdf", Text: "c"}, Score: 0.7},
		{Chunk: domain.Chunk{Title: "Four", Text: "d"}, Score: 0.6},
	}

	got := buildPreview(chunks)
	lines := strings.Split(got, "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 preview lines, got %d", len(lines))
	}
	if !strings.HasPrefix(lines[0], "- [score=0.9] Intro") {
		t.Errorf("unexpected first line: %q", lines[0])
	}
	if len([]rune(lines[0])) > len("- [score=0.9] Intro — ")+160 {
		t.Errorf("snippet not truncated: %d runes", len([]rune(lines[0])))
	}
}

func TestSummarizeHistory_Empty(t *testing.T) {
	if got := summarizeHistory(nil); got != "(no history)" {
		t.Errorf("unexpected empty summary: %q", got)
	}
}

func TestSummarizeHistory_LastTwoMessages(t *testing.T) {
	history := []domain.Message{
		{Role: domain.RoleUser, Content: "first"},
		{Role: domain.RoleAssistant, Content: "second"},
		{Role: domain.RoleUser, Content: "third\nwith newline"},
	}

	got := summarizeHistory(history)
	if got != "assistant: second | user: third with newline" {
		t.Errorf("unexpected summary: %q", got)
	}
}

func TestSummarizeHistory_TruncatesContent(t *testing.T) {
	history := []domain.Message{
		{Role: domain.RoleUser, Content: strings.Repeat("a", 300)},
	}

	got := summarizeHistory(history)
	if len([]rune(got)) != len("user: ")+120 {
		t.Errorf("expected content truncated to 120 runes, got %d", len([]rune(got)))
	}
}

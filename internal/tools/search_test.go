package tools

import (
	"context"
	"strings"
	"testing"

	"github.com/parsa-hm/lectern/internal/vectorstore"
)

func intPtr(n int) *int { return &n }

// fakeBackend is a scripted SearchBackend for tool tests.
type fakeBackend struct {
	results *vectorstore.SearchResults
	catalog []vectorstore.CourseMetadata

	lastQuery  string
	lastCourse string
	lastLesson *int
}

func (f *fakeBackend) Search(ctx context.Context, query, courseName string, lessonNumber *int, limit int) *vectorstore.SearchResults {
	f.lastQuery = query
	f.lastCourse = courseName
	f.lastLesson = lessonNumber
	if f.results == nil {
		return &vectorstore.SearchResults{}
	}
	return f.results
}

func (f *fakeBackend) ResolveCourseName(partial string) (string, bool) {
	for _, c := range f.catalog {
		if strings.Contains(strings.ToLower(c.Title), strings.ToLower(partial)) {
			return c.Title, true
		}
	}
	return "", false
}

func (f *fakeBackend) LessonLink(courseTitle string, lessonNumber int) string {
	for _, c := range f.catalog {
		if c.Title != courseTitle {
			continue
		}
		for _, l := range c.Lessons {
			if l.Number == lessonNumber {
				return l.Link
			}
		}
	}
	return ""
}

func (f *fakeBackend) CoursesMetadata() []vectorstore.CourseMetadata { return f.catalog }

func goCourse() vectorstore.CourseMetadata {
	return vectorstore.CourseMetadata{
		Title:      "Go Fundamentals",
		CourseLink: "https://example.com/go",
		Instructor: "Rob",
		Lessons: []vectorstore.Lesson{
			{Number: 1, Title: "Getting Started", Link: "https://example.com/go/1"},
			{Number: 2, Title: "Types and Values", Link: "https://example.com/go/2"},
		},
	}
}

func TestContentSearchFormatsHits(t *testing.T) {
	backend := &fakeBackend{
		catalog: []vectorstore.CourseMetadata{goCourse()},
		results: &vectorstore.SearchResults{
			Documents: []string{"Structs group fields.", "Maps hold pairs."},
			Metadata: []vectorstore.ChunkMetadata{
				{CourseTitle: "Go Fundamentals", LessonNumber: intPtr(2), ChunkIndex: 0},
				{CourseTitle: "Go Fundamentals", LessonNumber: intPtr(1), ChunkIndex: 3},
			},
			Distances: []float64{0.1, 0.4},
		},
	}
	tool := NewContentSearchTool(backend)

	out, err := tool.Execute(context.Background(), map[string]interface{}{"query": "structs"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	want := "[Go Fundamentals - Lesson 2]\nStructs group fields.\n\n[Go Fundamentals - Lesson 1]\nMaps hold pairs."
	if out != want {
		t.Fatalf("formatted output mismatch:\n got %q\nwant %q", out, want)
	}

	sources := tool.LastSources()
	if len(sources) != 2 {
		t.Fatalf("expected one source per document, got %d", len(sources))
	}
	if sources[0].Text != "Go Fundamentals - Lesson 2" || sources[0].URL != "https://example.com/go/2" {
		t.Fatalf("unexpected first source: %+v", sources[0])
	}
	if sources[1].URL != "https://example.com/go/1" {
		t.Fatalf("unexpected second source: %+v", sources[1])
	}
}

func TestContentSearchForwardsFilters(t *testing.T) {
	backend := &fakeBackend{}
	tool := NewContentSearchTool(backend)

	// JSON-decoded numbers arrive as float64.
	_, err := tool.Execute(context.Background(), map[string]interface{}{
		"query":         "maps",
		"course_name":   "Go",
		"lesson_number": float64(2),
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if backend.lastQuery != "maps" || backend.lastCourse != "Go" {
		t.Fatalf("filters not forwarded: query=%q course=%q", backend.lastQuery, backend.lastCourse)
	}
	if backend.lastLesson == nil || *backend.lastLesson != 2 {
		t.Fatalf("lesson filter not forwarded: %v", backend.lastLesson)
	}
}

func TestContentSearchEmptyResults(t *testing.T) {
	tool := NewContentSearchTool(&fakeBackend{})

	out, err := tool.Execute(context.Background(), map[string]interface{}{"query": "quantum"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if out != "No relevant content found." {
		t.Fatalf("unexpected fallback %q", out)
	}
	if len(tool.LastSources()) != 0 {
		t.Fatalf("empty result must record no sources")
	}

	out, err = tool.Execute(context.Background(), map[string]interface{}{
		"query":         "quantum",
		"course_name":   "Go",
		"lesson_number": float64(3),
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if out != "No relevant content found in course 'Go' in lesson 3." {
		t.Fatalf("unexpected qualified fallback %q", out)
	}
}

func TestContentSearchBackendError(t *testing.T) {
	tool := NewContentSearchTool(&fakeBackend{
		results: vectorstore.Empty("No course found matching 'Rust'"),
	})

	out, err := tool.Execute(context.Background(), map[string]interface{}{
		"query":       "ownership",
		"course_name": "Rust",
	})
	if err != nil {
		t.Fatalf("backend errors must surface as text, got error: %v", err)
	}
	if out != "No course found matching 'Rust'" {
		t.Fatalf("unexpected output %q", out)
	}
	if len(tool.LastSources()) != 0 {
		t.Fatalf("failed search must record no sources")
	}
}

func TestContentSearchMissingQuery(t *testing.T) {
	tool := NewContentSearchTool(&fakeBackend{})

	if _, err := tool.Execute(context.Background(), map[string]interface{}{}); err == nil {
		t.Fatalf("missing query must fault the invocation")
	}
}

func TestContentSearchSourcesOverwrittenPerExecution(t *testing.T) {
	backend := &fakeBackend{
		catalog: []vectorstore.CourseMetadata{goCourse()},
		results: &vectorstore.SearchResults{
			Documents: []string{"doc"},
			Metadata:  []vectorstore.ChunkMetadata{{CourseTitle: "Go Fundamentals", LessonNumber: intPtr(1)}},
			Distances: []float64{0.2},
		},
	}
	tool := NewContentSearchTool(backend)
	args := map[string]interface{}{"query": "doc"}

	if _, err := tool.Execute(context.Background(), args); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(tool.LastSources()) != 1 {
		t.Fatalf("expected 1 source, got %d", len(tool.LastSources()))
	}

	backend.results = &vectorstore.SearchResults{}
	if _, err := tool.Execute(context.Background(), args); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(tool.LastSources()) != 0 {
		t.Fatalf("stale sources survived a later execution")
	}

	tool.ResetSources()
	if tool.LastSources() != nil {
		t.Fatalf("reset must clear sources")
	}
}

func TestOptionalIntTolerance(t *testing.T) {
	cases := []struct {
		in   interface{}
		want *int
	}{
		{float64(3), intPtr(3)},
		{7, intPtr(7)},
		{"2", nil},
		{nil, nil},
	}
	for _, c := range cases {
		got := optionalInt(map[string]interface{}{"n": c.in}, "n")
		switch {
		case c.want == nil && got != nil:
			t.Fatalf("optionalInt(%v) = %d, want nil", c.in, *got)
		case c.want != nil && (got == nil || *got != *c.want):
			t.Fatalf("optionalInt(%v) = %v, want %d", c.in, got, *c.want)
		}
	}
	if optionalInt(map[string]interface{}{}, "n") != nil {
		t.Fatalf("absent key must yield nil")
	}
}

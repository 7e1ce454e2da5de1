package tools

import (
	"context"
	"strings"
	"testing"

	"github.com/parsa-hm/lectern/internal/vectorstore"
)

func TestCourseOutlineFormats(t *testing.T) {
	tool := NewCourseOutlineTool(&fakeBackend{catalog: []vectorstore.CourseMetadata{goCourse()}})

	out, err := tool.Execute(context.Background(), map[string]interface{}{"course_name": "fundamentals"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	for _, want := range []string{
		"Course: Go Fundamentals",
		"Instructor: Rob",
		"Course Link: https://example.com/go",
		"Total Lessons: 2",
		"1. Getting Started (https://example.com/go/1)",
		"2. Types and Values (https://example.com/go/2)",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("outline missing %q:\n%s", want, out)
		}
	}

	sources := tool.LastSources()
	if len(sources) != 1 {
		t.Fatalf("expected a single course source, got %d", len(sources))
	}
	if sources[0].Text != "Go Fundamentals" || sources[0].URL != "https://example.com/go" {
		t.Fatalf("unexpected source %+v", sources[0])
	}
}

func TestCourseOutlineUnresolvedCourse(t *testing.T) {
	tool := NewCourseOutlineTool(&fakeBackend{catalog: []vectorstore.CourseMetadata{goCourse()}})

	out, err := tool.Execute(context.Background(), map[string]interface{}{"course_name": "Rust"})
	if err != nil {
		t.Fatalf("resolution failures must surface as text, got error: %v", err)
	}
	if out != "No course found matching 'Rust'" {
		t.Fatalf("unexpected output %q", out)
	}
	if len(tool.LastSources()) != 0 {
		t.Fatalf("failed lookup must record no sources")
	}
}

func TestCourseOutlineMissingArgument(t *testing.T) {
	tool := NewCourseOutlineTool(&fakeBackend{})

	if _, err := tool.Execute(context.Background(), map[string]interface{}{}); err == nil {
		t.Fatalf("missing course_name must fault the invocation")
	}
}

func TestCourseOutlineOmitsEmptyFields(t *testing.T) {
	tool := NewCourseOutlineTool(&fakeBackend{catalog: []vectorstore.CourseMetadata{{
		Title:   "Bare Course",
		Lessons: []vectorstore.Lesson{{Number: 1, Title: "Only Lesson"}},
	}}})

	out, err := tool.Execute(context.Background(), map[string]interface{}{"course_name": "bare"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if strings.Contains(out, "Instructor:") || strings.Contains(out, "Course Link:") {
		t.Fatalf("empty fields must be omitted:\n%s", out)
	}
	if !strings.Contains(out, "1. Only Lesson") || strings.Contains(out, "Only Lesson (") {
		t.Fatalf("lesson without a link must not render one:\n%s", out)
	}
}

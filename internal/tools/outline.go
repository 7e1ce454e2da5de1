package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/parsa-hm/lectern/internal/vectorstore"
	"github.com/parsa-hm/lectern/provider"
)

// CourseOutlineTool returns the structure of a course: title, instructor,
// link and the full lesson list.
type CourseOutlineTool struct {
	backend     SearchBackend
	lastSources []Source
}

// NewCourseOutlineTool creates the outline lookup capability.
func NewCourseOutlineTool(backend SearchBackend) *CourseOutlineTool {
	return &CourseOutlineTool{backend: backend}
}

// Definition describes the tool to the model.
func (t *CourseOutlineTool) Definition() provider.ToolDefinition {
	return provider.ToolDefinition{
		Name:        "get_course_outline",
		Description: "Get the complete outline of a course including title, link, and all lessons",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"course_name": map[string]interface{}{
					"type":        "string",
					"description": "Course title (partial matches work, e.g. 'MCP', 'Introduction')",
				},
			},
			"required": []interface{}{"course_name"},
		},
	}
}

// Execute resolves the course name and formats its outline. Resolution
// failures come back as the returned text with no sources recorded.
func (t *CourseOutlineTool) Execute(ctx context.Context, args map[string]interface{}) (string, error) {
	courseName := optionalString(args, "course_name")
	if courseName == "" {
		return "", fmt.Errorf("get_course_outline requires a 'course_name' argument")
	}

	title, ok := t.backend.ResolveCourseName(courseName)
	if !ok {
		t.lastSources = nil
		return fmt.Sprintf("No course found matching '%s'", courseName), nil
	}
	var course *vectorstore.CourseMetadata
	for _, c := range t.backend.CoursesMetadata() {
		if c.Title == title {
			cc := c
			course = &cc
			break
		}
	}
	if course == nil {
		t.lastSources = nil
		return fmt.Sprintf("No course found matching '%s'", courseName), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Course: %s\n", course.Title)
	if course.Instructor != "" {
		fmt.Fprintf(&b, "Instructor: %s\n", course.Instructor)
	}
	if course.CourseLink != "" {
		fmt.Fprintf(&b, "Course Link: %s\n", course.CourseLink)
	}
	fmt.Fprintf(&b, "Total Lessons: %d\n", len(course.Lessons))
	for _, l := range course.Lessons {
		fmt.Fprintf(&b, "\n%d. %s", l.Number, l.Title)
		if l.Link != "" {
			fmt.Fprintf(&b, " (%s)", l.Link)
		}
	}

	t.lastSources = []Source{{Text: course.Title, URL: course.CourseLink}}
	return b.String(), nil
}

// LastSources returns the citations of the most recent execution.
func (t *CourseOutlineTool) LastSources() []Source { return t.lastSources }

// ResetSources clears the recorded citations.
func (t *CourseOutlineTool) ResetSources() { t.lastSources = nil }

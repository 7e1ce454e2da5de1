package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/parsa-hm/lectern/provider"
)

// ContentSearchTool searches course materials with optional course and
// lesson filters.
type ContentSearchTool struct {
	backend     SearchBackend
	lastSources []Source
}

// NewContentSearchTool creates the content search capability.
func NewContentSearchTool(backend SearchBackend) *ContentSearchTool {
	return &ContentSearchTool{backend: backend}
}

// Definition describes the tool to the model.
func (t *ContentSearchTool) Definition() provider.ToolDefinition {
	return provider.ToolDefinition{
		Name:        "search_course_content",
		Description: "Search course materials with smart course name matching and lesson filtering",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "What to search for in the course content",
				},
				"course_name": map[string]interface{}{
					"type":        "string",
					"description": "Course title (partial matches work, e.g. 'MCP', 'Introduction')",
				},
				"lesson_number": map[string]interface{}{
					"type":        "integer",
					"description": "Specific lesson number to search within (e.g. 1, 2, 3)",
				},
			},
			"required": []interface{}{"query"},
		},
	}
}

// Execute runs one search and formats the hits. Backend failures come back
// as the returned text with no sources recorded.
func (t *ContentSearchTool) Execute(ctx context.Context, args map[string]interface{}) (string, error) {
	query := optionalString(args, "query")
	if query == "" {
		return "", fmt.Errorf("search_course_content requires a 'query' argument")
	}
	courseName := optionalString(args, "course_name")
	lessonNumber := optionalInt(args, "lesson_number")

	results := t.backend.Search(ctx, query, courseName, lessonNumber, 0)
	if results.Error != "" {
		t.lastSources = nil
		return results.Error, nil
	}
	if results.IsEmpty() {
		t.lastSources = nil
		var filters strings.Builder
		if courseName != "" {
			fmt.Fprintf(&filters, " in course '%s'", courseName)
		}
		if lessonNumber != nil {
			fmt.Fprintf(&filters, " in lesson %d", *lessonNumber)
		}
		if filters.Len() > 0 {
			return fmt.Sprintf("No relevant content found%s.", filters.String()), nil
		}
		return "No relevant content found.", nil
	}

	var blocks []string
	sources := make([]Source, 0, len(results.Documents))
	for i, doc := range results.Documents {
		meta := results.Metadata[i]
		header := fmt.Sprintf("[%s]", meta.CourseTitle)
		label := meta.CourseTitle
		link := ""
		if meta.LessonNumber != nil {
			header = fmt.Sprintf("[%s - Lesson %d]", meta.CourseTitle, *meta.LessonNumber)
			label = fmt.Sprintf("%s - Lesson %d", meta.CourseTitle, *meta.LessonNumber)
			link = t.backend.LessonLink(meta.CourseTitle, *meta.LessonNumber)
		}
		blocks = append(blocks, header+"\n"+doc)
		sources = append(sources, Source{Text: label, URL: link})
	}
	t.lastSources = sources
	return strings.Join(blocks, "\n\n"), nil
}

// LastSources returns the citations of the most recent execution.
func (t *ContentSearchTool) LastSources() []Source { return t.lastSources }

// ResetSources clears the recorded citations.
func (t *ContentSearchTool) ResetSources() { t.lastSources = nil }

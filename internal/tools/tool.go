// Package tools holds the retrieval capabilities advertised to the model and
// the registry that dispatches them by name.
package tools

import (
	"context"

	"github.com/parsa-hm/lectern/internal/vectorstore"
	"github.com/parsa-hm/lectern/provider"
)

// Source is a human-readable citation produced by a tool execution.
type Source struct {
	Text string `json:"text"`
	URL  string `json:"url,omitempty"`
}

// Tool is a retrieval capability. Execute returns human-readable text;
// retrieval-backend failures are surfaced as that text, not as errors. A
// returned error means the invocation itself faulted (bad arguments) and is
// converted by the generation loop into an error-tagged tool result.
//
// Each execution overwrites the tool's recorded sources. They stay available
// until ResetSources, so at most one query may be in flight per tool
// instance.
type Tool interface {
	Definition() provider.ToolDefinition
	Execute(ctx context.Context, args map[string]interface{}) (string, error)
	LastSources() []Source
	ResetSources()
}

// SearchBackend is the retrieval capability consumed by the tools. It is
// satisfied by *vectorstore.Store.
type SearchBackend interface {
	Search(ctx context.Context, query, courseName string, lessonNumber *int, limit int) *vectorstore.SearchResults
	ResolveCourseName(partial string) (string, bool)
	LessonLink(courseTitle string, lessonNumber int) string
	CoursesMetadata() []vectorstore.CourseMetadata
}

// optionalString reads a string argument, tolerating absence.
func optionalString(args map[string]interface{}, key string) string {
	if v, ok := args[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// optionalInt reads an integer argument, tolerating absence. JSON numbers
// arrive as float64.
func optionalInt(args map[string]interface{}, key string) *int {
	v, ok := args[key]
	if !ok {
		return nil
	}
	switch n := v.(type) {
	case float64:
		i := int(n)
		return &i
	case int:
		i := n
		return &i
	}
	return nil
}

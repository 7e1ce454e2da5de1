package vectorstore

// ChunkMetadata describes where a retrieved chunk came from.
type ChunkMetadata struct {
	CourseTitle  string `json:"course_title"`
	LessonNumber *int   `json:"lesson_number,omitempty"`
	ChunkIndex   int    `json:"chunk_index"`
}

// SearchResults is the immutable result of one retrieval call. Documents,
// Metadata and Distances are parallel sequences of equal length; when Error
// is set all three are empty.
type SearchResults struct {
	Documents []string
	Metadata  []ChunkMetadata
	Distances []float64
	Error     string
}

// Empty constructs an error-carrying result with empty sequences.
func Empty(msg string) *SearchResults {
	return &SearchResults{Error: msg}
}

// IsEmpty reports whether the result holds no documents.
func (r *SearchResults) IsEmpty() bool {
	return len(r.Documents) == 0
}

// Package vectorstore indexes course chunks for hybrid retrieval: BM25 over
// a mem-only bleve index fused with cosine similarity over embedding
// vectors. Retrieval faults never escape as Go errors; they come back inside
// SearchResults so tool output stays plain text.
package vectorstore

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/blevesearch/bleve"

	"github.com/parsa-hm/lectern/provider"
)

const rrfK = 60 // reciprocal-rank-fusion constant

// Lesson is one lesson entry of a course.
type Lesson struct {
	Number int    `json:"lesson_number"`
	Title  string `json:"lesson_title"`
	Link   string `json:"lesson_link,omitempty"`
}

// CourseMetadata describes one ingested course.
type CourseMetadata struct {
	Title      string   `json:"title"`
	Instructor string   `json:"instructor"`
	CourseLink string   `json:"course_link,omitempty"`
	Lessons    []Lesson `json:"lessons"`
}

// Chunk is one searchable piece of course content.
type Chunk struct {
	ID           string
	Text         string
	CourseTitle  string
	LessonNumber *int
	ChunkIndex   int
}

type embedVec struct {
	id  string
	vec []float32
}

// Store holds the searchable corpus. Courses are added at ingestion time and
// only read afterwards.
type Store struct {
	embedder provider.Embedder
	index    bleve.Index
	limit    int

	mu      sync.RWMutex
	chunks  map[string]Chunk
	vectors []embedVec
	catalog []CourseMetadata
}

// indexedChunk is the shape handed to bleve; only the text is scored.
type indexedChunk struct {
	Text string `json:"text"`
}

// New creates an empty store with a mem-only bleve index. limit is the
// default number of results per search.
func New(embedder provider.Embedder, limit int) (*Store, error) {
	index, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create bleve index: %w", err)
	}
	if limit <= 0 {
		limit = 5
	}
	return &Store{
		embedder: embedder,
		index:    index,
		limit:    limit,
		chunks:   make(map[string]Chunk),
	}, nil
}

// AddCourse indexes a course's chunks and records its metadata. Chunk texts
// are embedded in one batch.
func (s *Store) AddCourse(ctx context.Context, meta CourseMetadata, chunks []Chunk) error {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vecs, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to embed chunks for %q: %w", meta.Title, err)
	}
	if len(vecs) != len(chunks) {
		return fmt.Errorf("embedder returned %d vectors for %d chunks", len(vecs), len(chunks))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, c := range chunks {
		if err := s.index.Index(c.ID, indexedChunk{Text: c.Text}); err != nil {
			return fmt.Errorf("failed to index chunk %s: %w", c.ID, err)
		}
		s.chunks[c.ID] = c
		s.vectors = append(s.vectors, embedVec{id: c.ID, vec: vecs[i]})
	}
	s.catalog = append(s.catalog, meta)
	return nil
}

// HasCourse reports whether a course with this exact title was ingested.
func (s *Store) HasCourse(title string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.catalog {
		if c.Title == title {
			return true
		}
	}
	return false
}

// CoursesMetadata returns the ingested courses in ingestion order.
func (s *Store) CoursesMetadata() []CourseMetadata {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]CourseMetadata, len(s.catalog))
	copy(out, s.catalog)
	return out
}

// CourseTitles returns the titles of all ingested courses.
func (s *Store) CourseTitles() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	titles := make([]string, len(s.catalog))
	for i, c := range s.catalog {
		titles[i] = c.Title
	}
	return titles
}

// ResolveCourseName maps a partial or fuzzy course name to the exact title
// of an ingested course. Matching tries exact, then substring, then word
// overlap, all case-insensitive.
func (s *Store) ResolveCourseName(partial string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	needle := strings.ToLower(strings.TrimSpace(partial))
	if needle == "" {
		return "", false
	}
	for _, c := range s.catalog {
		if strings.ToLower(c.Title) == needle {
			return c.Title, true
		}
	}
	for _, c := range s.catalog {
		if strings.Contains(strings.ToLower(c.Title), needle) {
			return c.Title, true
		}
	}
	best := ""
	bestOverlap := 0
	words := strings.Fields(needle)
	for _, c := range s.catalog {
		title := strings.ToLower(c.Title)
		overlap := 0
		for _, w := range words {
			if strings.Contains(title, w) {
				overlap++
			}
		}
		if overlap > bestOverlap {
			bestOverlap = overlap
			best = c.Title
		}
	}
	if bestOverlap > 0 {
		return best, true
	}
	return "", false
}

// LessonLink returns the link for a lesson of a course, or "" when the
// course or lesson is unknown or has no link.
func (s *Store) LessonLink(courseTitle string, lessonNumber int) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.catalog {
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

// Search runs a hybrid query over the corpus. courseName may be partial and
// is resolved first; lessonNumber further narrows candidates. A limit <= 0
// uses the store default. Failures are reported inside SearchResults.
func (s *Store) Search(ctx context.Context, query, courseName string, lessonNumber *int, limit int) *SearchResults {
	if limit <= 0 {
		limit = s.limit
	}

	resolved := ""
	if courseName != "" {
		exact, ok := s.ResolveCourseName(courseName)
		if !ok {
			return Empty(fmt.Sprintf("No course found matching '%s'", courseName))
		}
		resolved = exact
	}

	match := func(c Chunk) bool {
		if resolved != "" && c.CourseTitle != resolved {
			return false
		}
		if lessonNumber != nil && (c.LessonNumber == nil || *c.LessonNumber != *lessonNumber) {
			return false
		}
		return true
	}

	keyword, err := s.keywordSearch(query, match, limit)
	if err != nil {
		return Empty(fmt.Sprintf("Search error: %v", err))
	}
	vecs, err := s.embedder.Embed(ctx, []string{query})
	if err != nil {
		return Empty(fmt.Sprintf("Search error: %v", err))
	}
	var semantic []hit
	if len(vecs) == 1 {
		semantic = s.vectorSearch(vecs[0], match, limit)
	}

	fused := fuseRRF(keyword, semantic, limit)

	s.mu.RLock()
	defer s.mu.RUnlock()
	results := &SearchResults{}
	for _, h := range fused {
		c, ok := s.chunks[h.id]
		if !ok {
			continue
		}
		results.Documents = append(results.Documents, c.Text)
		results.Metadata = append(results.Metadata, ChunkMetadata{
			CourseTitle:  c.CourseTitle,
			LessonNumber: c.LessonNumber,
			ChunkIndex:   c.ChunkIndex,
		})
		results.Distances = append(results.Distances, 1.0/(1.0+h.score))
	}
	return results
}

type hit struct {
	id    string
	score float64
	rank  int
}

func (s *Store) keywordSearch(q string, match func(Chunk) bool, k int) ([]hit, error) {
	query := bleve.NewMatchQuery(q)
	searchReq := bleve.NewSearchRequestOptions(query, k*3, 0, false)
	res, err := s.index.Search(searchReq)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []hit
	for _, h := range res.Hits {
		c, ok := s.chunks[h.ID]
		if !ok || !match(c) {
			continue
		}
		out = append(out, hit{id: h.ID, score: h.Score, rank: len(out) + 1})
		if len(out) >= k {
			break
		}
	}
	return out, nil
}

func (s *Store) vectorSearch(q []float32, match func(Chunk) bool, k int) []hit {
	s.mu.RLock()
	defer s.mu.RUnlock()
	type scored struct {
		id    string
		score float64
	}
	var scoreds []scored
	for _, v := range s.vectors {
		c, ok := s.chunks[v.id]
		if !ok || !match(c) {
			continue
		}
		scoreds = append(scoreds, scored{id: v.id, score: cosine(q, v.vec)})
	}
	sort.Slice(scoreds, func(i, j int) bool { return scoreds[i].score > scoreds[j].score })
	var out []hit
	for i, sc := range scoreds {
		out = append(out, hit{id: sc.id, score: sc.score, rank: i + 1})
		if len(out) >= k {
			break
		}
	}
	return out
}

func fuseRRF(a, b []hit, k int) []hit {
	type agg struct {
		id    string
		score float64
		first int // order of first appearance, for stable ties
	}
	m := map[string]*agg{}
	order := 0
	add := func(list []hit) {
		for _, h := range list {
			x, ok := m[h.id]
			if !ok {
				x = &agg{id: h.id, first: order}
				order++
				m[h.id] = x
			}
			x.score += 1.0 / float64(rrfK+h.rank)
		}
	}
	add(a)
	add(b)
	items := make([]*agg, 0, len(m))
	for _, v := range m {
		items = append(items, v)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].score != items[j].score {
			return items[i].score > items[j].score
		}
		return items[i].first < items[j].first
	})
	if len(items) > k {
		items = items[:k]
	}
	out := make([]hit, len(items))
	for i, v := range items {
		out[i] = hit{id: v.id, score: v.score, rank: i + 1}
	}
	return out
}

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		ai := float64(a[i])
		bi := float64(b[i])
		dot += ai * bi
		na += ai * ai
		nb += bi * bi
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

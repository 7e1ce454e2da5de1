// Package ingest parses course transcript files into metadata and
// searchable chunks. A transcript starts with course headers, followed by
// lesson markers and lesson content:
//
//	Course Title: <title>
//	Course Link: <url>
//	Course Instructor: <name>
//
//	Lesson 0: Introduction
//	Lesson Link: <url>
//	<content...>
package ingest

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/parsa-hm/lectern/internal/vectorstore"
)

var (
	lessonMarker     = regexp.MustCompile(`^Lesson\s+(\d+):\s*(.+)$`)
	sentenceSplitter = regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`)
)

// ParsedCourse is the outcome of reading one transcript file.
type ParsedCourse struct {
	Metadata vectorstore.CourseMetadata
	Chunks   []vectorstore.Chunk
}

// Processor turns transcripts into chunked courses.
type Processor struct {
	chunkSize    int // target characters per chunk
	chunkOverlap int // characters carried over between chunks
}

// NewProcessor creates a processor with the given chunk sizing.
func NewProcessor(chunkSize, chunkOverlap int) *Processor {
	if chunkSize <= 0 {
		chunkSize = 800
	}
	if chunkOverlap < 0 {
		chunkOverlap = 0
	}
	return &Processor{chunkSize: chunkSize, chunkOverlap: chunkOverlap}
}

// ReadCourseFile parses one transcript file into metadata and chunks. Chunk
// texts carry a course/lesson context prefix so retrieval hits stay
// attributable when read in isolation.
func (p *Processor) ReadCourseFile(path string) (*ParsedCourse, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)

	meta := vectorstore.CourseMetadata{}
	var chunks []vectorstore.Chunk

	var lessonNumber *int
	lessonTitle := ""
	var content strings.Builder

	flush := func() {
		text := strings.TrimSpace(content.String())
		content.Reset()
		if text == "" {
			return
		}
		for _, piece := range p.chunkText(text) {
			var prefixed string
			if lessonNumber != nil {
				prefixed = fmt.Sprintf("Course %s Lesson %d content: %s", meta.Title, *lessonNumber, piece)
			} else {
				prefixed = fmt.Sprintf("Course %s content: %s", meta.Title, piece)
			}
			n := lessonNumber
			chunks = append(chunks, vectorstore.Chunk{
				ID:           uuid.NewString(),
				Text:         prefixed,
				CourseTitle:  meta.Title,
				LessonNumber: n,
				ChunkIndex:   len(chunks),
			})
		}
	}

	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)

		switch {
		case strings.HasPrefix(trimmed, "Course Title:"):
			meta.Title = strings.TrimSpace(strings.TrimPrefix(trimmed, "Course Title:"))
			continue
		case strings.HasPrefix(trimmed, "Course Link:"):
			meta.CourseLink = strings.TrimSpace(strings.TrimPrefix(trimmed, "Course Link:"))
			continue
		case strings.HasPrefix(trimmed, "Course Instructor:"):
			meta.Instructor = strings.TrimSpace(strings.TrimPrefix(trimmed, "Course Instructor:"))
			continue
		}

		if m := lessonMarker.FindStringSubmatch(trimmed); m != nil {
			flush()
			num, _ := strconv.Atoi(m[1])
			lessonNumber = &num
			lessonTitle = strings.TrimSpace(m[2])
			meta.Lessons = append(meta.Lessons, vectorstore.Lesson{
				Number: num,
				Title:  lessonTitle,
			})
			continue
		}
		if strings.HasPrefix(trimmed, "Lesson Link:") && len(meta.Lessons) > 0 {
			meta.Lessons[len(meta.Lessons)-1].Link = strings.TrimSpace(strings.TrimPrefix(trimmed, "Lesson Link:"))
			continue
		}

		content.WriteString(line)
		content.WriteString("\n")
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	flush()

	if meta.Title == "" {
		return nil, fmt.Errorf("%s: missing 'Course Title:' header", path)
	}
	return &ParsedCourse{Metadata: meta, Chunks: chunks}, nil
}

// chunkText splits text into sentence-aligned chunks of roughly chunkSize
// characters with chunkOverlap characters of trailing context repeated at
// the start of the next chunk.
func (p *Processor) chunkText(text string) []string {
	sentences := sentenceSplitter.FindAllString(text, -1)
	if len(sentences) == 0 {
		trimmed := strings.TrimSpace(text)
		if trimmed == "" {
			return nil
		}
		sentences = []string{trimmed}
	}
	for i := range sentences {
		sentences[i] = strings.TrimSpace(sentences[i])
	}

	var chunks []string
	i := 0
	for i < len(sentences) {
		size := 0
		end := i
		for end < len(sentences) {
			if size > 0 && size+len(sentences[end])+1 > p.chunkSize {
				break
			}
			size += len(sentences[end]) + 1
			end++
		}
		chunks = append(chunks, strings.Join(sentences[i:end], " "))
		if end == len(sentences) {
			break
		}

		// Walk back whole sentences until the overlap budget is spent.
		next := end
		carried := 0
		for next > i+1 && carried+len(sentences[next-1]) <= p.chunkOverlap {
			next--
			carried += len(sentences[next])
		}
		i = next
	}
	return chunks
}

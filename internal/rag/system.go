// Package rag wires retrieval, generation and session history into the
// answer path: one call per user query, in and out.
package rag

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/parsa-hm/lectern/internal/generator"
	"github.com/parsa-hm/lectern/internal/ingest"
	"github.com/parsa-hm/lectern/internal/telemetry"
	"github.com/parsa-hm/lectern/internal/tools"
	"github.com/parsa-hm/lectern/internal/vectorstore"
	"github.com/parsa-hm/lectern/session"
)

var ragTracer trace.Tracer = otel.Tracer("lectern/internal/rag")

// System coordinates one query end to end: fetch history, generate with
// tools, collect citations, persist the exchange.
//
// The registry's recorded sources belong to the in-flight query; System
// assumes at most one concurrent Answer call per registry instance.
type System struct {
	generator *generator.Generator
	registry  *tools.Registry
	store     *vectorstore.Store
	sessions  session.Store
	processor *ingest.Processor
	logger    *log.Logger
	telemetry *telemetry.Telemetry
}

// New assembles a System from its parts.
func New(gen *generator.Generator, registry *tools.Registry, store *vectorstore.Store, sessions session.Store, processor *ingest.Processor, logger *log.Logger, tele *telemetry.Telemetry) *System {
	if logger == nil {
		logger = log.New(log.Writer(), "[RAG] ", log.LstdFlags)
	}
	return &System{
		generator: gen,
		registry:  registry,
		store:     store,
		sessions:  sessions,
		processor: processor,
		logger:    logger,
		telemetry: tele,
	}
}

// Answer handles one user query. sessionID may be empty for a one-shot
// question. Returns the answer text and the citations the retrieval tools
// recorded for it; only model backend failures surface as errors.
func (s *System) Answer(ctx context.Context, query, sessionID string) (string, []tools.Source, error) {
	start := time.Now()
	ctx, span := ragTracer.Start(ctx, "rag.answer",
		trace.WithAttributes(attribute.String("session.id", sessionID)))
	defer span.End()

	history := ""
	if sessionID != "" {
		h, err := s.sessions.History(ctx, sessionID)
		if err != nil {
			// A broken history store degrades to a fresh conversation.
			s.logger.Printf("history lookup for session %s failed: %v", sessionID, err)
		} else {
			history = h
		}
	}

	answer, err := s.generator.Generate(ctx, query, history, s.registry.Definitions(), s.registry)

	// Sources are collected and cleared regardless of outcome so the next
	// query starts clean.
	sources := s.registry.Sources()
	s.registry.ResetSources()

	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		s.telemetry.RecordQuery(time.Since(start), false)
		return "", nil, err
	}

	if sessionID != "" {
		if err := s.sessions.AddExchange(ctx, sessionID, query, answer); err != nil {
			s.logger.Printf("failed to persist exchange for session %s: %v", sessionID, err)
		}
	}

	s.telemetry.RecordQuery(time.Since(start), true)
	return answer, sources, nil
}

// AddCourseFolder ingests every .txt transcript in a folder, skipping
// courses whose exact title is already indexed. Returns the number of
// courses and chunks added.
func (s *System) AddCourseFolder(ctx context.Context, folder string) (int, int, error) {
	entries, err := os.ReadDir(folder)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read corpus folder: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".txt") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	courses, chunks := 0, 0
	for _, name := range names {
		parsed, err := s.processor.ReadCourseFile(filepath.Join(folder, name))
		if err != nil {
			return courses, chunks, err
		}
		if s.store.HasCourse(parsed.Metadata.Title) {
			s.logger.Printf("skipping %s: course %q already indexed", name, parsed.Metadata.Title)
			continue
		}
		if err := s.store.AddCourse(ctx, parsed.Metadata, parsed.Chunks); err != nil {
			return courses, chunks, err
		}
		courses++
		chunks += len(parsed.Chunks)
		s.logger.Printf("indexed course %q (%d chunks)", parsed.Metadata.Title, len(parsed.Chunks))
	}
	return courses, chunks, nil
}

// CourseStats reports what is currently indexed, for the API.
func (s *System) CourseStats() (int, []string) {
	titles := s.store.CourseTitles()
	return len(titles), titles
}

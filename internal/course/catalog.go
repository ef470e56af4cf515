package course

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// ErrCourseNotFound is returned when the catalog has no course with the given ID.
var ErrCourseNotFound = errors.New("course not found")

// ErrDuplicateLecture is returned when a lecture ID is used by two courses.
var ErrDuplicateLecture = errors.New("lecture id used by another course")

// Catalog loads and caches course outlines from YAML files on disk.
type Catalog struct {
	rootDir string
	courses map[string]Course
	mu      sync.RWMutex
}

// NewCatalog creates a catalog and loads every course under rootDir.
func NewCatalog(rootDir string) (*Catalog, error) {
	c := &Catalog{
		rootDir: rootDir,
		courses: make(map[string]Course),
	}

	if err := c.loadAll(); err != nil {
		return nil, fmt.Errorf("loading course catalog: %w", err)
	}

	slog.Info("course catalog loaded", "courses", len(c.courses))
	return c, nil
}

// NewCatalogFromCourses builds a catalog from in-memory courses. A course
// reusing another course's lecture ID is skipped.
func NewCatalogFromCourses(courses ...Course) *Catalog {
	c := &Catalog{courses: make(map[string]Course, len(courses))}
	for _, crs := range courses {
		if err := c.add(crs); err != nil {
			slog.Warn("skipping course", "course_id", crs.ID, "error", err)
		}
	}
	return c
}

// FetchChapters returns the raw chapter data for a course.
func (c *Catalog) FetchChapters(_ context.Context, courseID string) ([]RawChapter, error) {
	crs, ok := c.Course(courseID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCourseNotFound, courseID)
	}
	return crs.Chapters, nil
}

// Course returns a course by ID.
func (c *Catalog) Course(id string) (Course, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	crs, ok := c.courses[id]
	return crs, ok
}

// AllCourses returns all loaded courses sorted by ID.
func (c *Catalog) AllCourses() []Course {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Course, 0, len(c.courses))
	for _, crs := range c.courses {
		out = append(out, crs)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// QuizBindings returns lecture ID -> bound quiz IDs across all courses.
// Lecture IDs are unique across the catalog.
func (c *Catalog) QuizBindings() map[string][]string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string][]string)
	for _, crs := range c.courses {
		for _, ch := range crs.Chapters {
			for _, l := range ch.Lectures {
				if len(l.QuizIDs) > 0 {
					out[l.ID] = append([]string(nil), l.QuizIDs...)
				}
			}
		}
	}
	return out
}

func (c *Catalog) loadAll() error {
	return filepath.Walk(c.rootDir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}
		if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
			return c.loadCourse(path)
		}
		return nil
	})
}

func (c *Catalog) loadCourse(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		slog.Warn("skipping invalid course YAML", "path", path, "error", err)
		return nil
	}
	if _, ok := doc["chapters"]; !ok {
		return nil // Not a course file
	}
	if err := Validate(doc); err != nil {
		slog.Warn("skipping course that fails schema validation", "path", path, "error", err)
		return nil
	}

	var crs Course
	if err := yaml.Unmarshal(data, &crs); err != nil {
		slog.Warn("skipping invalid course YAML", "path", path, "error", err)
		return nil
	}

	if err := c.add(crs); err != nil {
		slog.Warn("skipping course", "path", path, "error", err)
	}
	return nil
}

// add stores crs unless one of its lectures belongs to another course.
// Quiz bindings and completions are keyed by lecture ID alone.
func (c *Catalog) add(crs Course) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, other := range c.courses {
		if other.ID == crs.ID {
			continue
		}
		owned := make(map[string]bool)
		for _, ch := range other.Chapters {
			for _, l := range ch.Lectures {
				owned[l.ID] = true
			}
		}
		for _, ch := range crs.Chapters {
			for _, l := range ch.Lectures {
				if owned[l.ID] {
					return fmt.Errorf("%w: lecture %s already belongs to course %s", ErrDuplicateLecture, l.ID, other.ID)
				}
			}
		}
	}
	c.courses[crs.ID] = crs
	return nil
}

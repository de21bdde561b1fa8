package course

import (
	"fmt"
)

// IndexError reports an out-of-bounds page or step coordinate. These are
// caller errors: the operation boundary converts them rather than
// reporting them as internal faults.
type IndexError struct {
	What  string // "page" or "step"
	Scope string // page slug for step errors, empty for page errors
	Index int
	Count int
}

// Error implements the error interface.
func (e *IndexError) Error() string {
	if e.Scope != "" {
		return fmt.Sprintf("page %s: %s index %d out of range [0,%d)", e.Scope, e.What, e.Index, e.Count)
	}
	return fmt.Sprintf("%s index %d out of range [0,%d)", e.What, e.Index, e.Count)
}

// Kind classifies a step.
type Kind int

const (
	// Informational steps present prose and optionally a program to read.
	Informational Kind = iota
	// Exercise steps require a passing code submission and carry a
	// reference solution.
	Exercise
)

// String returns the YAML spelling of the kind.
func (k Kind) String() string {
	switch k {
	case Informational:
		return "informational"
	case Exercise:
		return "exercise"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Step is a single unit within a page. Immutable at runtime.
type Step struct {
	PageSlug string
	Name     string
	Kind     Kind

	// Text is the step's prose, as authored (markdown).
	Text string

	// Program is the display program for informational steps.
	Program string

	// Solution is the cleaned reference solution for exercise steps.
	// Empty for informational steps.
	Solution string
}

// PuzzleProgram returns the program the solution puzzle is built from:
// the cleaned reference solution for exercises, the literal display
// program otherwise.
func (s *Step) PuzzleProgram() string {
	if s.Kind == Exercise {
		return s.Solution
	}
	return s.Program
}

// Page is a named, ordered unit of the catalog. Immutable at runtime.
type Page struct {
	Slug      string
	Title     string
	Index     int
	StepNames []string

	steps map[string]*Step
}

// Step returns the named step, or false if the page has no such step.
func (p *Page) Step(name string) (*Step, bool) {
	s, ok := p.steps[name]
	return s, ok
}

// StepAt returns the step at the given position in the page's step order.
func (p *Page) StepAt(index int) (*Step, error) {
	if index < 0 || index >= len(p.StepNames) {
		return nil, &IndexError{What: "step", Scope: p.Slug, Index: index, Count: len(p.StepNames)}
	}
	return p.steps[p.StepNames[index]], nil
}

// StepCount returns the number of steps on the page.
func (p *Page) StepCount() int {
	return len(p.StepNames)
}

// StepIndex returns the position of the named step in the page's step
// order, or -1 if the page has no such step.
func (p *Page) StepIndex(name string) int {
	for i, n := range p.StepNames {
		if n == name {
			return i
		}
	}
	return -1
}

// StepInfo is the renderable metadata for one step, as exposed to the
// presentation layer by loadData.
type StepInfo struct {
	Name     string `json:"name"`
	Kind     string `json:"kind"`
	Text     string `json:"text"`
	Exercise bool   `json:"exercise"`
}

// Steps returns renderable metadata for every step in page order.
func (p *Page) Steps() []StepInfo {
	infos := make([]StepInfo, len(p.StepNames))
	for i, name := range p.StepNames {
		s := p.steps[name]
		infos[i] = StepInfo{
			Name:     s.Name,
			Kind:     s.Kind.String(),
			Text:     s.Text,
			Exercise: s.Kind == Exercise,
		}
	}
	return infos
}

// Catalog holds pages in index order plus a slug lookup.
// Constructed by Load; immutable afterwards.
type Catalog struct {
	pages  []*Page
	bySlug map[string]*Page
}

// Pages returns all pages in index order. Callers must not mutate the
// returned slice.
func (c *Catalog) Pages() []*Page {
	return c.pages
}

// Len returns the number of pages.
func (c *Catalog) Len() int {
	return len(c.pages)
}

// PageAt returns the page at the given catalog position.
func (c *Catalog) PageAt(index int) (*Page, error) {
	if index < 0 || index >= len(c.pages) {
		return nil, &IndexError{What: "page", Index: index, Count: len(c.pages)}
	}
	return c.pages[index], nil
}

// SlugAt returns the slug of the page at the given catalog position.
func (c *Catalog) SlugAt(index int) (string, error) {
	p, err := c.PageAt(index)
	if err != nil {
		return "", err
	}
	return p.Slug, nil
}

// Page returns the page with the given slug, or false if none exists.
func (c *Catalog) Page(slug string) (*Page, bool) {
	p, ok := c.bySlug[slug]
	return p, ok
}

// ResolveStep resolves (pageIndex, stepIndex) to a concrete step.
// Both indices are validated; out-of-range indices are caller errors.
func (c *Catalog) ResolveStep(pageIndex, stepIndex int) (*Page, *Step, error) {
	page, err := c.PageAt(pageIndex)
	if err != nil {
		return nil, nil, err
	}
	step, err := page.StepAt(stepIndex)
	if err != nil {
		return nil, nil, err
	}
	return page, step, nil
}

package course

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaCUE string

// Loader error codes (E200-E299).
const (
	ErrCodeFileRead      = "E200" // catalog file unreadable
	ErrCodeYAMLParse     = "E201" // catalog file is not valid YAML
	ErrCodeSchema        = "E202" // catalog violates the CUE schema
	ErrCodeDuplicateSlug = "E203" // two pages share a slug
	ErrCodeDuplicateStep = "E204" // two steps on one page share a name
)

// LoadError is a catalog loading or validation error.
type LoadError struct {
	Code    string
	Path    string // YAML field path if known (e.g. "pages.1.steps.0.name")
	Message string
}

// Error implements the error interface.
func (e *LoadError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Path, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// File-shape structs. Field tags serve both the YAML decoder and the CUE
// encoder used for schema validation.
type catalogFile struct {
	Pages []pageFile `yaml:"pages" json:"pages"`
}

type pageFile struct {
	Slug  string     `yaml:"slug" json:"slug"`
	Title string     `yaml:"title" json:"title"`
	Steps []stepFile `yaml:"steps" json:"steps"`
}

type stepFile struct {
	Name     string `yaml:"name" json:"name"`
	Kind     string `yaml:"kind" json:"kind"`
	Text     string `yaml:"text,omitempty" json:"text,omitempty"`
	Program  string `yaml:"program,omitempty" json:"program,omitempty"`
	Solution string `yaml:"solution,omitempty" json:"solution,omitempty"`
}

// Load reads a catalog from a YAML file, validates it against the embedded
// CUE schema, and builds an immutable Catalog.
//
// All text content is NFC-normalized on load so slugs and step names used
// as progress-map keys compare stably regardless of authoring encoding.
//
// Returns all validation errors found, not just the first.
func Load(path string) (*Catalog, []error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeFileRead, Message: err.Error()}}
	}

	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, []error{&LoadError{Code: ErrCodeYAMLParse, Message: err.Error()}}
	}

	if errs := validateSchema(&file); len(errs) > 0 {
		return nil, errs
	}

	var errs []error
	catalog := &Catalog{bySlug: make(map[string]*Page, len(file.Pages))}
	for i, pf := range file.Pages {
		slug := norm.NFC.String(pf.Slug)
		if _, dup := catalog.bySlug[slug]; dup {
			errs = append(errs, &LoadError{
				Code:    ErrCodeDuplicateSlug,
				Path:    fmt.Sprintf("pages.%d.slug", i),
				Message: fmt.Sprintf("duplicate page slug %q", slug),
			})
			continue
		}

		page := &Page{
			Slug:  slug,
			Title: norm.NFC.String(pf.Title),
			Index: i,
			steps: make(map[string]*Step, len(pf.Steps)),
		}
		for j, sf := range pf.Steps {
			name := norm.NFC.String(sf.Name)
			if _, dup := page.steps[name]; dup {
				errs = append(errs, &LoadError{
					Code:    ErrCodeDuplicateStep,
					Path:    fmt.Sprintf("pages.%d.steps.%d.name", i, j),
					Message: fmt.Sprintf("duplicate step name %q on page %q", name, slug),
				})
				continue
			}

			step := &Step{
				PageSlug: slug,
				Name:     name,
				Text:     norm.NFC.String(sf.Text),
				Program:  norm.NFC.String(sf.Program),
			}
			if sf.Kind == "exercise" {
				step.Kind = Exercise
				step.Solution = CleanProgram(norm.NFC.String(sf.Solution))
			}
			page.steps[name] = step
			page.StepNames = append(page.StepNames, name)
		}

		catalog.pages = append(catalog.pages, page)
		catalog.bySlug[slug] = page
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return catalog, nil
}

// validateSchema unifies the decoded file with the embedded CUE schema and
// collects every violation.
func validateSchema(file *catalogFile) []error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE)
	if err := schema.Err(); err != nil {
		// Embedded schema is part of the binary; failing to compile it
		// is a programming error, not a catalog error.
		panic(fmt.Sprintf("course: embedded schema invalid: %v", err))
	}

	value := ctx.Encode(file)
	if err := value.Err(); err != nil {
		return []error{&LoadError{Code: ErrCodeSchema, Message: err.Error()}}
	}

	unified := schema.Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		var errs []error
		for _, e := range cueerrors.Errors(err) {
			path := strings.Join(e.Path(), ".")
			errs = append(errs, &LoadError{
				Code:    ErrCodeSchema,
				Path:    path,
				Message: e.Error(),
			})
		}
		return errs
	}
	return nil
}

// CleanProgram normalizes a reference solution for display and puzzle
// generation: trailing whitespace per line is dropped, leading and trailing
// blank lines are stripped, and the common indentation of the remaining
// lines is removed. A trailing newline is preserved if the input had one.
func CleanProgram(src string) string {
	if src == "" {
		return ""
	}
	hadTrailingNewline := strings.HasSuffix(src, "\n")

	lines := strings.Split(src, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}

	start, end := 0, len(lines)
	for start < end && lines[start] == "" {
		start++
	}
	for end > start && lines[end-1] == "" {
		end--
	}
	lines = lines[start:end]
	if len(lines) == 0 {
		return ""
	}

	indent := -1
	for _, line := range lines {
		if line == "" {
			continue
		}
		n := len(line) - len(strings.TrimLeft(line, " \t"))
		if indent < 0 || n < indent {
			indent = n
		}
	}
	if indent > 0 {
		for i, line := range lines {
			if len(line) >= indent {
				lines[i] = line[indent:]
			}
		}
	}

	out := strings.Join(lines, "\n")
	if hadTrailingNewline {
		out += "\n"
	}
	return out
}

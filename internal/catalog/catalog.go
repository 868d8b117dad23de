// Package catalog holds the ordered registry of SQL statements that build and
// load the star schema.
//
// Statements are stored as files named sql/<category>/<NN>_<name>.sql. The
// numeric prefix is the statement's position within its category. The catalog
// is pure data: it never talks to the warehouse and raises no errors at run time.
package catalog

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/vvka-141/dwhetl/internal/checksum"
	"github.com/vvka-141/dwhetl/pkg/dwhetl"
)

//go:embed sql
var embedded embed.FS

// ErrInvalidCatalog indicates a statement tree that violates the file layout rules.
var ErrInvalidCatalog = errors.New("invalid statement catalog")

var fileNameRe = regexp.MustCompile(`^(\d+)_([a-z][a-z0-9_]*)\.sql$`)

// Stage is one category of the pipeline with its statements in execution order.
type Stage struct {
	Category   dwhetl.Category
	Statements []dwhetl.Statement
}

// Catalog is an immutable, validated set of statements.
type Catalog struct {
	statements  map[dwhetl.Category][]dwhetl.Statement
	fingerprint string
}

// Default returns the embedded star-schema catalog.
// Panics if the embedded tree is malformed, which is a build defect.
func Default() *Catalog {
	sub, err := fs.Sub(embedded, "sql")
	if err != nil {
		panic(fmt.Sprintf("embedded catalog: %v", err))
	}
	cat, err := Load(sub)
	if err != nil {
		panic(fmt.Sprintf("embedded catalog: %v", err))
	}
	return cat
}

// Load reads a statement tree whose top-level directories are category names.
// Missing category directories yield empty stages. Indices within a category
// must be unique and contiguous from 1.
func Load(fsys fs.FS) (*Catalog, error) {
	if fsys == nil {
		return nil, fmt.Errorf("filesystem is nil: %w", ErrInvalidCatalog)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog root: %w", err)
	}

	c := &Catalog{statements: make(map[dwhetl.Category][]dwhetl.Statement)}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		category, err := dwhetl.ParseCategory(entry.Name())
		if err != nil {
			return nil, fmt.Errorf("%v: %w", err, ErrInvalidCatalog)
		}
		stmts, err := loadCategory(fsys, category)
		if err != nil {
			return nil, err
		}
		c.statements[category] = stmts
	}

	c.fingerprint = fingerprint(c.Stages())
	return c, nil
}

func loadCategory(fsys fs.FS, category dwhetl.Category) ([]dwhetl.Statement, error) {
	dir := category.String()
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s statements: %w", dir, err)
	}

	var stmts []dwhetl.Statement
	seen := make(map[int]string)

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		m := fileNameRe.FindStringSubmatch(entry.Name())
		if m == nil {
			return nil, fmt.Errorf("%s/%s: file name must match NN_name.sql: %w", dir, entry.Name(), ErrInvalidCatalog)
		}
		index, _ := strconv.Atoi(m[1])
		if prev, dup := seen[index]; dup {
			return nil, fmt.Errorf("%s: index %d used by both %s and %s: %w", dir, index, prev, entry.Name(), ErrInvalidCatalog)
		}
		seen[index] = entry.Name()

		content, err := fs.ReadFile(fsys, path.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s/%s: %w", dir, entry.Name(), err)
		}
		text := strings.TrimSpace(string(content))
		if text == "" {
			return nil, fmt.Errorf("%s/%s is empty: %w", dir, entry.Name(), ErrInvalidCatalog)
		}

		stmts = append(stmts, dwhetl.Statement{
			Name:       m[2],
			Category:   category,
			Text:       text,
			OrderIndex: index,
		})
	}

	sort.Slice(stmts, func(i, j int) bool {
		return stmts[i].OrderIndex < stmts[j].OrderIndex
	})

	for i, s := range stmts {
		if s.OrderIndex != i+1 {
			return nil, fmt.Errorf("%s: expected index %d, found %d (%s): %w", dir, i+1, s.OrderIndex, s.Name, ErrInvalidCatalog)
		}
	}

	return stmts, nil
}

// Drops returns the drop statements in order.
func (c *Catalog) Drops() []dwhetl.Statement { return c.ByCategory(dwhetl.CategoryDrop) }

// Creates returns the create statements in order.
func (c *Catalog) Creates() []dwhetl.Statement { return c.ByCategory(dwhetl.CategoryCreate) }

// Copies returns the bulk-load statements in order.
func (c *Catalog) Copies() []dwhetl.Statement { return c.ByCategory(dwhetl.CategoryCopy) }

// Inserts returns the transform statements in order.
func (c *Catalog) Inserts() []dwhetl.Statement { return c.ByCategory(dwhetl.CategoryInsert) }

// ByCategory returns a copy of one category's statements.
func (c *Catalog) ByCategory(category dwhetl.Category) []dwhetl.Statement {
	src := c.statements[category]
	out := make([]dwhetl.Statement, len(src))
	copy(out, src)
	return out
}

// Stages returns the full pipeline in the fixed drop, create, copy, insert order.
func (c *Catalog) Stages() []Stage {
	stages := make([]Stage, 0, len(dwhetl.Categories))
	for _, category := range dwhetl.Categories {
		stages = append(stages, Stage{Category: category, Statements: c.ByCategory(category)})
	}
	return stages
}

// Len returns the total number of statements.
func (c *Catalog) Len() int {
	n := 0
	for _, stmts := range c.statements {
		n += len(stmts)
	}
	return n
}

// Tables returns the managed tables, taken from the drop statement names.
func (c *Catalog) Tables() []string {
	drops := c.statements[dwhetl.CategoryDrop]
	tables := make([]string, 0, len(drops))
	for _, s := range drops {
		tables = append(tables, s.Name)
	}
	return tables
}

// Fingerprint identifies the catalog content independent of formatting and comments.
func (c *Catalog) Fingerprint() string {
	return c.fingerprint
}

func fingerprint(stages []Stage) string {
	calc := checksum.New()
	var parts [][]byte
	for _, stage := range stages {
		for _, s := range stage.Statements {
			parts = append(parts, []byte(fmt.Sprintf("%s/%d_%s", s.Category, s.OrderIndex, s.Name)), []byte(s.Text))
		}
	}
	return calc.Combine(parts...)
}

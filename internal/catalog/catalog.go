package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// Widget is the shipped metadata for one catalog widget.
type Widget struct {
	ID            string
	Category      string
	Name          string
	Description   string
	Purpose       string
	Inputs        []string
	Outputs       []string
	ComponentPath string
	Deprecated    bool
	ReplacedBy    string

	// Index is the widget's position in canonical enumeration order:
	// lexicographic file order, then block order within a file.
	Index int
}

// Template is a shipped widget source, the fallback when no custom code is
// saved for the id.
type Template struct {
	ID     string
	Source string
}

// Catalog is an immutable view of one load of the catalog directory.
type Catalog struct {
	widgets   map[string]Widget
	templates map[string]Template
	order     []string
}

// Empty returns a catalog with no entries.
func Empty() *Catalog {
	return &Catalog{
		widgets:   make(map[string]Widget),
		templates: make(map[string]Template),
	}
}

// Widget looks up shipped metadata by id.
func (c *Catalog) Widget(id string) (Widget, bool) {
	w, ok := c.widgets[id]
	return w, ok
}

// Template looks up a shipped source by id.
func (c *Catalog) Template(id string) (Template, bool) {
	t, ok := c.templates[id]
	return t, ok
}

// Widgets returns all widgets in canonical enumeration order.
func (c *Catalog) Widgets() []Widget {
	out := make([]Widget, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.widgets[id])
	}
	return out
}

// Index returns the canonical position of a widget id. Ids outside the
// catalog sort after every catalog id.
func (c *Catalog) Index(id string) (int, bool) {
	w, ok := c.widgets[id]
	if !ok {
		return len(c.order), false
	}
	return w.Index, true
}

type fileModel struct {
	Widgets   []*widgetBlock   `hcl:"widget,block"`
	Templates []*templateBlock `hcl:"template,block"`
}

type widgetBlock struct {
	ID            string   `hcl:"id,label"`
	Category      string   `hcl:"category,optional"`
	Name          string   `hcl:"name,optional"`
	Description   string   `hcl:"description,optional"`
	Purpose       string   `hcl:"purpose,optional"`
	Inputs        []string `hcl:"inputs,optional"`
	Outputs       []string `hcl:"outputs,optional"`
	ComponentPath string   `hcl:"component_path,optional"`
	Deprecated    bool     `hcl:"deprecated,optional"`
	ReplacedBy    string   `hcl:"replaced_by,optional"`
}

type templateBlock struct {
	ID     string `hcl:"id,label"`
	Source string `hcl:"source"`
}

// Load parses every .hcl file in dir into a catalog. Files are read in
// lexicographic name order so enumeration order is reproducible. A widget
// and a template may share an id (that is how a widget ships its default
// source); duplicates within one kind are an error.
func Load(dir string) (*Catalog, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read catalog dir: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".hcl") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	cat := Empty()
	parser := hclparse.NewParser()
	for _, name := range names {
		file, diags := parser.ParseHCLFile(filepath.Join(dir, name))
		if diags.HasErrors() {
			return nil, fmt.Errorf("parse catalog file %s: %w", name, diags)
		}
		if err := cat.decodeFile(name, file.Body); err != nil {
			return nil, err
		}
	}
	return cat, nil
}

func (c *Catalog) decodeFile(name string, body hcl.Body) error {
	var model fileModel
	if diags := gohcl.DecodeBody(body, nil, &model); diags.HasErrors() {
		return fmt.Errorf("decode catalog file %s: %w", name, diags)
	}

	for _, block := range model.Widgets {
		if _, dup := c.widgets[block.ID]; dup {
			return fmt.Errorf("catalog file %s: duplicate widget id %q", name, block.ID)
		}
		c.widgets[block.ID] = Widget{
			ID:            block.ID,
			Category:      block.Category,
			Name:          block.Name,
			Description:   block.Description,
			Purpose:       block.Purpose,
			Inputs:        block.Inputs,
			Outputs:       block.Outputs,
			ComponentPath: block.ComponentPath,
			Deprecated:    block.Deprecated,
			ReplacedBy:    block.ReplacedBy,
			Index:         len(c.order),
		}
		c.order = append(c.order, block.ID)
	}
	for _, block := range model.Templates {
		if _, dup := c.templates[block.ID]; dup {
			return fmt.Errorf("catalog file %s: duplicate template id %q", name, block.ID)
		}
		c.templates[block.ID] = Template{ID: block.ID, Source: block.Source}
	}
	return nil
}

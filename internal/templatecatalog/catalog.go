// Package templatecatalog loads check-sheet templates from YAML files and
// imports them into the template repository.
package templatecatalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"

	"checksheet-backend/internal/domain/form"
	"checksheet-backend/internal/domain/template"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

var ErrNoFiles = errors.New("no template files match")

// File is the on-disk shape of one template. Sections use the same snake_case
// keys as the JSON wire format.
type File struct {
	ID        string    `yaml:"id"`
	ProductID string    `yaml:"product_id"`
	Version   int       `yaml:"version"`
	Name      string    `yaml:"name"`
	Active    *bool     `yaml:"active"`
	Sections  yaml.Node `yaml:"sections"`
}

// Parse decodes and validates one catalog file.
func Parse(data []byte) (*template.Template, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var f File
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("parse template: %w", err)
	}
	if f.ProductID == "" {
		return nil, fmt.Errorf("%w: missing product_id", form.ErrInvalidTemplate)
	}
	if f.Version < 1 {
		return nil, fmt.Errorf("%w: version must be >= 1", form.ErrInvalidTemplate)
	}

	sections, err := decodeSections(&f.Sections)
	if err != nil {
		return nil, err
	}
	if len(sections) == 0 {
		return nil, fmt.Errorf("%w: template has no sections", form.ErrInvalidTemplate)
	}

	id := f.ID
	if id == "" {
		id = StableID(f.ProductID, f.Version)
	} else if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: id %q is not a uuid", form.ErrInvalidTemplate, id)
	}
	ft := form.Template{ID: id, ProductID: f.ProductID, Version: f.Version, Sections: sections}
	if err := ft.Validate(); err != nil {
		return nil, err
	}

	t := template.FromForm(f.Name, ft)
	if f.Active != nil {
		t.IsActive = *f.Active
	}
	return t, nil
}

// decodeSections goes through JSON so the form types keep a single set of
// field names and custom unmarshalers.
func decodeSections(n *yaml.Node) ([]form.Section, error) {
	if n.Kind == 0 {
		return nil, nil
	}
	var raw interface{}
	if err := n.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode sections: %w", err)
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("decode sections: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	var out []form.Section
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: sections: %v", form.ErrInvalidTemplate, err)
	}
	return out, nil
}

// StableID derives the template id from product and version, so a catalog
// file without an id maps to the same row on every import.
func StableID(productID string, version int) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte("checksheet/template/"+productID+"/"+strconv.Itoa(version))).String()
}

// Load reads every file matching pattern (doublestar syntax, e.g.
// "templates/**/*.yaml"). All files are checked before any error is
// returned.
func Load(pattern string) ([]*template.Template, error) {
	paths, err := doublestar.FilepathGlob(pattern)
	if err != nil {
		return nil, fmt.Errorf("glob %q: %w", pattern, err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w %q", ErrNoFiles, pattern)
	}
	sort.Strings(paths)

	var (
		out  []*template.Template
		errs []error
		seen = map[string]string{}
	)
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", p, err))
			continue
		}
		t, err := Parse(data)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", p, err))
			continue
		}
		key := t.ProductID + "@" + strconv.Itoa(t.Version)
		if prev, dup := seen[key]; dup {
			errs = append(errs, fmt.Errorf("%s: %w: %s already defined in %s", p, form.ErrInvalidTemplate, key, prev))
			continue
		}
		seen[key] = p
		out = append(out, t)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return out, nil
}

// Import loads the catalog and upserts every template. It returns the number
// of templates written.
func Import(ctx context.Context, repo template.Repository, pattern string, log zerolog.Logger) (int, error) {
	tpls, err := Load(pattern)
	if err != nil {
		return 0, err
	}
	for i, t := range tpls {
		if err := repo.Upsert(ctx, t); err != nil {
			return i, fmt.Errorf("upsert template %s v%d: %w", t.ProductID, t.Version, err)
		}
		log.Info().
			Str("template_id", t.ID).
			Str("product_id", t.ProductID).
			Int("version", t.Version).
			Bool("active", t.IsActive).
			Msg("template imported")
	}
	return len(tpls), nil
}

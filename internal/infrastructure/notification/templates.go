// Package notification provides the collaborators outbox messages are
// delivered to: the template catalog, the renderer, HTTP notifiers and
// in-process sinks.
package notification

import (
	"embed"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/doctrack/doctrack/internal/domain/doctorate/ports"
	dterrors "github.com/doctrack/doctrack/internal/errors"
	"github.com/doctrack/doctrack/internal/fileutil"
)

//go:embed templates/catalog.yaml
var embeddedCatalog embed.FS

// maxCatalogBytes bounds an override catalog.
const maxCatalogBytes = 4 << 20

// DefaultLanguage is the language templates fall back to.
const DefaultLanguage = "en"

// entry is one template in one language.
type entry struct {
	Subject string `yaml:"subject"`
	Body    string `yaml:"body"`
}

// byLanguage holds the translations of one template.
type byLanguage map[string]entry

type catalogFile struct {
	Templates map[string]byLanguage            `yaml:"templates"`
	Entities  map[string]map[string]byLanguage `yaml:"entities"`
}

// Catalog resolves notification templates. It implements
// ports.TemplateResolver.
type Catalog struct {
	mu              sync.RWMutex
	generic         map[string]byLanguage
	entities        map[string]map[string]byLanguage
	defaultLanguage string
}

// CatalogOption configures a Catalog.
type CatalogOption func(*catalogConfig)

type catalogConfig struct {
	overridePath    string
	defaultLanguage string
}

// WithOverrideFile merges a YAML catalog over the embedded one.
func WithOverrideFile(path string) CatalogOption {
	return func(cfg *catalogConfig) {
		cfg.overridePath = path
	}
}

// WithDefaultLanguage sets the language used when the requested one has
// no translation.
func WithDefaultLanguage(lang string) CatalogOption {
	return func(cfg *catalogConfig) {
		cfg.defaultLanguage = lang
	}
}

// NewCatalog loads the embedded catalog and the optional override file.
func NewCatalog(opts ...CatalogOption) (*Catalog, error) {
	const op = "notification.NewCatalog"

	cfg := catalogConfig{defaultLanguage: DefaultLanguage}
	for _, opt := range opts {
		opt(&cfg)
	}

	c := &Catalog{
		generic:         make(map[string]byLanguage),
		entities:        make(map[string]map[string]byLanguage),
		defaultLanguage: normalize(cfg.defaultLanguage),
	}

	data, err := embeddedCatalog.ReadFile("templates/catalog.yaml")
	if err != nil {
		return nil, dterrors.InternalWrap(err, op, "failed to read embedded catalog")
	}
	if err := c.Load(data); err != nil {
		return nil, err
	}

	if cfg.overridePath != "" {
		data, err := fileutil.ReadFileLimited(cfg.overridePath, maxCatalogBytes)
		if err != nil {
			return nil, dterrors.ConfigWrap(err, op, fmt.Sprintf("failed to read template catalog %s", cfg.overridePath))
		}
		if err := c.Load(data); err != nil {
			return nil, err
		}
		slog.Debug("template catalog override loaded", "path", cfg.overridePath)
	}

	return c, nil
}

// Load merges a YAML catalog into c. Loaded translations replace the ones
// already present.
func (c *Catalog) Load(data []byte) error {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return dterrors.ConfigWrap(err, "notification.Load", "malformed template catalog")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	merge(c.generic, file.Templates)
	for entity, templates := range file.Entities {
		if c.entities[entity] == nil {
			c.entities[entity] = make(map[string]byLanguage)
		}
		merge(c.entities[entity], templates)
	}
	return nil
}

func merge(dst map[string]byLanguage, src map[string]byLanguage) {
	for name, translations := range src {
		if dst[name] == nil {
			dst[name] = make(byLanguage)
		}
		for lang, e := range translations {
			dst[name][normalize(lang)] = e
		}
	}
}

// Resolve returns template name for a management entity in lang. An
// entity template wins over the generic one; within a template the
// closest translation of lang wins, then the default language.
func (c *Catalog) Resolve(name, managementEntity, lang string) (ports.Template, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	candidates := []byLanguage{c.generic[name]}
	if managementEntity != "" {
		if override := c.entities[managementEntity][name]; len(override) > 0 {
			candidates = []byLanguage{override, c.generic[name]}
		}
	}

	for _, translations := range candidates {
		if e, ok := c.pick(translations, lang); ok {
			return ports.Template{Subject: e.Subject, Body: e.Body}, nil
		}
	}
	return ports.Template{}, dterrors.NotFound("notification.Resolve", fmt.Sprintf("template not found: %s", name))
}

// pick matches lang against the available translations.
func (c *Catalog) pick(translations byLanguage, lang string) (entry, bool) {
	if len(translations) == 0 {
		return entry{}, false
	}

	available := make([]string, 0, len(translations))
	for l := range translations {
		if l != c.defaultLanguage {
			available = append(available, l)
		}
	}
	sort.Strings(available)

	if lang != "" && len(available) > 0 {
		tags := make([]language.Tag, len(available))
		for i, l := range available {
			tags[i] = language.Make(l)
		}
		_, index, confidence := language.NewMatcher(tags).Match(language.Make(normalize(lang)))
		if confidence != language.No {
			return translations[available[index]], true
		}
	}

	if e, ok := translations[c.defaultLanguage]; ok {
		return e, true
	}
	if len(available) > 0 {
		return translations[available[0]], true
	}
	return entry{}, false
}

// Names lists the generic templates, sorted.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.generic))
	for name := range c.generic {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func normalize(lang string) string {
	return strings.ToLower(strings.ReplaceAll(lang, "_", "-"))
}

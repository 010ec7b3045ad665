package concierge

import (
	"embed"
	"encoding/json"
	"log/slog"
	"path"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed i18n/*.json
var messageFiles embed.FS

// Catalog holds every customer-facing text of the concierge
type Catalog struct {
	bundle *i18n.Bundle
}

// LoadCatalog parses the embedded message files. Brazilian Portuguese is the default.
func LoadCatalog() *Catalog {
	bundle := i18n.NewBundle(language.BrazilianPortuguese)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)
	entries, err := messageFiles.ReadDir("i18n")
	if err != nil {
		panic(err)
	}
	for _, entry := range entries {
		name := path.Join("i18n", entry.Name())
		data, err := messageFiles.ReadFile(name)
		if err != nil {
			panic(err)
		}
		bundle.MustParseMessageFileBytes(data, name)
	}
	return &Catalog{bundle: bundle}
}

// Texts returns the texts for a tenant language, falling back to the default.
// Missing messages are reported on logger, or slog.Default() when it is nil.
func (c *Catalog) Texts(lang string, logger *slog.Logger) *Texts {
	if lang == "" {
		lang = defaultLanguage
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Texts{localizer: i18n.NewLocalizer(c.bundle, lang, defaultLanguage), logger: logger}
}

// Texts localizes message ids for one language
type Texts struct {
	localizer *i18n.Localizer
	logger    *slog.Logger
}

// Get renders a message. Missing messages render as their id so a broken
// translation never blocks a reply.
func (t *Texts) Get(id string, data ...map[string]interface{}) string {
	config := &i18n.LocalizeConfig{MessageID: id}
	if len(data) > 0 {
		config.TemplateData = data[0]
	}
	text, err := t.localizer.Localize(config)
	if err != nil {
		t.logger.Error("missing concierge text", "id", id, "error", err)
		return id
	}
	return text
}

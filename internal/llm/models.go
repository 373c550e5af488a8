package llm

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// DefaultModelID is used whenever the catalog is empty or a caller asks for a
// model the catalog does not list.
const DefaultModelID = "gpt-4o"

// AcceptedModelPrefixes filters the hosted listing down to chat models.
var AcceptedModelPrefixes = []string{"gpt-4o", "gpt-4", "gpt-3.5", "o1", "o3", "o4"}

// ModelLister fetches the ids of models currently available from a provider.
type ModelLister interface {
	ListModelIDs(ctx context.Context) ([]string, error)
}

// OpenAIModelLister lists models through the official SDK.
type OpenAIModelLister struct {
	client openai.Client
}

// NewOpenAIModelLister builds a lister for the hosted provider. The SDK's own
// retries are disabled; a failed listing falls back to the default model.
func NewOpenAIModelLister(apiKey, baseURL string, timeout time.Duration) *OpenAIModelLister {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(strings.TrimRight(baseURL, "/")+"/"))
	}
	if timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(timeout))
	}
	return &OpenAIModelLister{client: openai.NewClient(opts...)}
}

func (l *OpenAIModelLister) ListModelIDs(ctx context.Context) ([]string, error) {
	page, err := l.client.Models.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}
	ids := make([]string, 0, len(page.Data))
	for _, m := range page.Data {
		ids = append(ids, m.ID)
	}
	return ids, nil
}

// ModelCatalog is an immutable, atomically replaced snapshot of usable model ids.
type ModelCatalog struct {
	lister    ModelLister
	defaultID string
	prefixes  []string
	logger    *slog.Logger
	snap      atomic.Pointer[[]ModelDescriptor]
}

// NewModelCatalog starts with a snapshot holding only the default model. A
// nil lister (no hosted credential) keeps it that way.
func NewModelCatalog(lister ModelLister, defaultID string, logger *slog.Logger) *ModelCatalog {
	if defaultID == "" {
		defaultID = DefaultModelID
	}
	if logger == nil {
		logger = slog.Default()
	}
	c := &ModelCatalog{
		lister:    lister,
		defaultID: defaultID,
		prefixes:  AcceptedModelPrefixes,
		logger:    logger,
	}
	c.store([]ModelDescriptor{{ID: defaultID}})
	return c
}

func (c *ModelCatalog) store(models []ModelDescriptor) {
	c.snap.Store(&models)
}

// Refresh queries the lister, keeps accepted prefixes, sorts, and swaps the
// snapshot. Errors and empty results leave a default-only catalog.
func (c *ModelCatalog) Refresh(ctx context.Context) []ModelDescriptor {
	if c.lister == nil {
		c.store([]ModelDescriptor{{ID: c.defaultID}})
		return c.Models()
	}
	ids, err := c.lister.ListModelIDs(ctx)
	if err != nil {
		c.logger.Warn("llm.models.refresh_failed", "error", err, "default", c.defaultID)
		c.store([]ModelDescriptor{{ID: c.defaultID}})
		return c.Models()
	}
	kept := FilterModelIDs(ids, c.prefixes)
	if len(kept) == 0 {
		c.logger.Warn("llm.models.refresh_empty", "listed", len(ids), "default", c.defaultID)
		c.store([]ModelDescriptor{{ID: c.defaultID}})
		return c.Models()
	}
	models := make([]ModelDescriptor, len(kept))
	for i, id := range kept {
		models[i] = ModelDescriptor{ID: id}
	}
	c.store(models)
	c.logger.Info("llm.models.refreshed", "listed", len(ids), "kept", len(models))
	return c.Models()
}

// FilterModelIDs keeps ids starting with any prefix, deduplicated and sorted.
func FilterModelIDs(ids, prefixes []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, id := range ids {
		if seen[id] {
			continue
		}
		for _, p := range prefixes {
			if strings.HasPrefix(id, p) {
				seen[id] = true
				out = append(out, id)
				break
			}
		}
	}
	sort.Strings(out)
	return out
}

// Models returns a copy of the current snapshot.
func (c *ModelCatalog) Models() []ModelDescriptor {
	cur := *c.snap.Load()
	out := make([]ModelDescriptor, len(cur))
	copy(out, cur)
	return out
}

// IDs returns the model ids of the current snapshot.
func (c *ModelCatalog) IDs() []string {
	cur := *c.snap.Load()
	out := make([]string, len(cur))
	for i, m := range cur {
		out[i] = m.ID
	}
	return out
}

// Default returns the fallback model id.
func (c *ModelCatalog) Default() string { return c.defaultID }

// Contains reports whether id is in the current snapshot.
func (c *ModelCatalog) Contains(id string) bool {
	for _, m := range *c.snap.Load() {
		if m.ID == id {
			return true
		}
	}
	return false
}

// Resolve returns id when the catalog lists it and the default otherwise.
// The bool is false when a substitution happened.
func (c *ModelCatalog) Resolve(id string) (string, bool) {
	if c.Contains(id) {
		return id, true
	}
	return c.defaultID, false
}

// Package ers provides the concurrent, rate-limited client for the Cisco
// ISE External RESTful Services (ERS) API: generic CRUD against any
// category, transparent pagination, and bulk fan-out with per-item
// outcomes. All calls pass through one shared admission gate enforcing
// the appliance's concurrent-connection and per-second rate limits.
package ers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/nuuday/NDCiscoISE/pkg/auth"
	"github.com/nuuday/NDCiscoISE/pkg/cache"
	"github.com/nuuday/NDCiscoISE/pkg/category"
	"github.com/nuuday/NDCiscoISE/pkg/fanout"
	"github.com/nuuday/NDCiscoISE/pkg/logging"
	"github.com/nuuday/NDCiscoISE/pkg/pagination"
	"github.com/nuuday/NDCiscoISE/pkg/ratelimit"
	"github.com/nuuday/NDCiscoISE/pkg/transport"
)

// Config holds the client configuration.
type Config struct {
	// Host is the ISE node address.
	Host string `validate:"required"`

	// Port is the ERS port (default 9060).
	Port int `validate:"gt=0"`

	// BaseURL overrides the https://<host>:<port>/ers composition.
	// Intended for tests against a local mock appliance.
	BaseURL string

	// Credentials for ERS basic auth.
	Username string `validate:"required"`
	Password string `validate:"required"`

	// VerifyTLS enables certificate verification. Appliances ship
	// self-signed certificates, so the default is off.
	VerifyTLS bool

	// Timeout is the per-request timeout.
	Timeout time.Duration

	// PageSize is the fixed server page size for collection fetches.
	PageSize int `validate:"gt=0"`

	// Gate holds the admission ceilings shared by every call this
	// client makes.
	Gate ratelimit.GateConfig

	// Redis enables the optional collection-fetch cache when non-nil.
	Redis *redis.Client

	// CacheTTL bounds how long cached collections are served.
	CacheTTL time.Duration
}

// DefaultConfig returns defaults matching the documented ERS limits:
// port 9060, page size 100, 30 concurrent / 30 per-second admissions.
func DefaultConfig(host, username, password string) Config {
	return Config{
		Host:     host,
		Port:     9060,
		Username: username,
		Password: password,
		Timeout:  60 * time.Second,
		PageSize: 100,
		Gate:     ratelimit.DefaultGateConfig(),
		CacheTTL: 60 * time.Second,
	}
}

// Update pairs one resource key (id or name, depending on the operation)
// with its replacement or patch payload.
type Update struct {
	Key     string
	Payload Resource
}

// Client is the ERS operation facade. All entry paths route through the
// same executor and gate, so rate-limiting guarantees are uniform.
type Client struct {
	cfg        Config
	baseURL    string
	executor   *Executor
	aggregator *pagination.Aggregator
	cache      *cache.Manager
	logger     zerolog.Logger
}

// New creates a client, validating the configuration and the category
// table before any network call can happen.
func New(cfg Config) (*Client, error) {
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if err := category.Validate(); err != nil {
		return nil, fmt.Errorf("category table: %w", err)
	}

	gate, err := ratelimit.NewGate(cfg.Gate, logging.NewLogger("gate"))
	if err != nil {
		return nil, fmt.Errorf("create gate: %w", err)
	}

	sender := transport.New(transport.Config{
		VerifyTLS: cfg.VerifyTLS,
		Timeout:   cfg.Timeout,
	})

	executor := NewExecutor(sender, gate, auth.Basic{
		Username: cfg.Username,
		Password: cfg.Password,
	}, logging.NewLogger("executor"))

	aggregator := pagination.NewAggregator(
		pagination.Config{PageSize: cfg.PageSize},
		logging.NewLogger("pagination"),
	)

	var cacheManager *cache.Manager
	if cfg.Redis != nil {
		cacheManager, err = cache.NewManager(cfg.Redis, cfg.CacheTTL)
		if err != nil {
			return nil, fmt.Errorf("create cache manager: %w", err)
		}
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = fmt.Sprintf("https://%s:%d/ers", cfg.Host, cfg.Port)
	}
	baseURL = strings.TrimRight(baseURL, "/")

	return &Client{
		cfg:        cfg,
		baseURL:    baseURL,
		executor:   executor,
		aggregator: aggregator,
		cache:      cacheManager,
		logger:     logging.NewLogger("ers"),
	}, nil
}

// pageFetcher adapts one (category, query) pair to the pagination
// aggregator. Every page call is executed through the gate.
type pageFetcher struct {
	client *Client
	cat    category.Category
	name   string
	query  string
	opID   string
}

func (f *pageFetcher) FetchPage(ctx context.Context, page int) ([]map[string]any, int, error) {
	outcome := f.client.executor.Execute(ctx, Descriptor{
		Verb:     VerbGet,
		URL:      f.client.collectionURL(f.cat, f.query, page),
		Category: f.name,
	})
	if !outcome.OK() {
		return nil, 0, fmt.Errorf("page %d: %w", page, outcome.Err)
	}
	items, total, ok := parseSearchResult(outcome.Payload)
	if !ok {
		// Some endpoints answer without a SearchResult envelope; treat
		// the whole payload as a single-item collection.
		return []map[string]any{outcome.Payload}, 1, nil
	}
	return items, total, nil
}

// parseSearchResult extracts resources and total count from the ERS
// collection envelope.
func parseSearchResult(payload Resource) (items []map[string]any, total int, ok bool) {
	sr, ok := payload["SearchResult"].(map[string]any)
	if !ok {
		return nil, 0, false
	}
	if n, isNum := sr["total"].(float64); isNum {
		total = int(n)
	}
	raw, _ := sr["resources"].([]any)
	items = make([]map[string]any, 0, len(raw))
	for _, r := range raw {
		if m, isMap := r.(map[string]any); isMap {
			items = append(items, m)
		}
	}
	return items, total, true
}

// GetAll fetches every resource of a category, transparently walking all
// pages. Narrow the fetch with WithFilter, WithFilterType and WithQuery;
// the parameters are carried unchanged on every page request. The
// result may be partial: check Collection.Complete and PageErrors.
func (c *Client) GetAll(ctx context.Context, categoryName string, opts ...QueryOption) (*Collection, error) {
	cat, err := category.Resolve(categoryName)
	if err != nil {
		return nil, err
	}
	query := buildQuery(opts)
	if query.hasFilter() && !cat.SupportsFilter {
		c.logger.Warn().
			Str("category", categoryName).
			Msg("Category does not support filters, ignoring")
		query.dropFilter()
	}
	encoded := query.encode()

	opID := uuid.NewString()
	logger := c.logger.With().Str("op_id", opID).Str("category", categoryName).Logger()

	if c.cache != nil {
		if entry, err := c.cache.Get(ctx, cache.Key{Category: categoryName, Filter: encoded}); err == nil {
			logger.Debug().Int("resources", len(entry.Resources)).Msg("Collection served from cache")
			return &Collection{Resources: entry.Resources, Total: entry.Total}, nil
		} else if !errors.Is(err, cache.ErrCacheMiss) {
			logger.Warn().Err(err).Msg("Cache get error")
		}
	}

	start := time.Now()
	fetcher := &pageFetcher{client: c, cat: cat, name: categoryName, query: encoded, opID: opID}
	result, err := c.aggregator.FetchAll(ctx, fetcher)
	if err != nil {
		logger.Error().Err(err).Msg("Collection fetch failed")
		return nil, fmt.Errorf("get all %s: %w: %w", categoryName, ErrFirstPageFailed, err)
	}

	collection := &Collection{
		Resources:  result.Items,
		Total:      result.Total,
		PageErrors: result.PageErrors,
	}

	if c.cache != nil && collection.Complete() {
		if err := c.cache.Set(ctx, cache.Key{Category: categoryName, Filter: encoded}, &cache.Entry{
			Resources: collection.Resources,
			Total:     collection.Total,
			FetchedAt: time.Now(),
		}); err != nil {
			logger.Warn().Err(err).Msg("Cache set error")
		}
	}

	logger.Info().
		Int("resources", len(collection.Resources)).
		Int("failed_pages", len(collection.PageErrors)).
		Dur("duration", time.Since(start)).
		Msg("Collection fetch done")

	return collection, nil
}

// GetByIDs fetches one resource per id. The result holds one outcome per
// id, in input order; a missing resource is a NotFound outcome, not an
// error.
func (c *Client) GetByIDs(ctx context.Context, categoryName string, ids []string) (AggregatedResult, error) {
	return c.fanOutKeys(ctx, categoryName, VerbGet, ids, false)
}

// GetByNames is GetByIDs addressed by resource name.
func (c *Client) GetByNames(ctx context.Context, categoryName string, names []string) (AggregatedResult, error) {
	return c.fanOutKeys(ctx, categoryName, VerbGet, names, true)
}

// DeleteByIDs deletes one resource per id. A 404 is reported as a
// NotFound outcome for that item; remaining items proceed regardless.
func (c *Client) DeleteByIDs(ctx context.Context, categoryName string, ids []string) (AggregatedResult, error) {
	result, err := c.fanOutKeys(ctx, categoryName, VerbDelete, ids, false)
	if err == nil {
		c.invalidate(ctx, categoryName)
	}
	return result, err
}

// DeleteByNames is DeleteByIDs addressed by resource name.
func (c *Client) DeleteByNames(ctx context.Context, categoryName string, names []string) (AggregatedResult, error) {
	result, err := c.fanOutKeys(ctx, categoryName, VerbDelete, names, true)
	if err == nil {
		c.invalidate(ctx, categoryName)
	}
	return result, err
}

// Create posts one payload per item. Each outcome carries the created
// resource id extracted from the 201 Location header.
func (c *Client) Create(ctx context.Context, categoryName string, payloads []Resource) (AggregatedResult, error) {
	cat, err := category.Resolve(categoryName)
	if err != nil {
		return AggregatedResult{}, err
	}
	if len(payloads) == 0 {
		return AggregatedResult{}, ErrEmptyBatch
	}

	descriptors := make([]Descriptor, len(payloads))
	for i, payload := range payloads {
		descriptors[i] = Descriptor{
			Verb:     VerbPost,
			URL:      c.baseURL + "/" + cat.BasePath,
			Body:     JSONBody(payload),
			Category: categoryName,
		}
	}

	result := c.runFanOut(ctx, categoryName, "create", descriptors)
	c.invalidate(ctx, categoryName)
	return result, nil
}

// UpdateByIDs replaces one resource per (id, payload) pair. Full-replace
// semantics: the payload must be complete. Use PatchByIDs for
// partial-field updates.
func (c *Client) UpdateByIDs(ctx context.Context, categoryName string, updates []Update) (AggregatedResult, error) {
	return c.fanOutUpdates(ctx, categoryName, VerbPut, updates, false)
}

// PatchByIDs applies partial-field updates; only supported by categories
// whose metadata allows patch.
func (c *Client) PatchByIDs(ctx context.Context, categoryName string, updates []Update) (AggregatedResult, error) {
	return c.fanOutUpdates(ctx, categoryName, VerbPatch, updates, false)
}

// UpdateByNames is UpdateByIDs addressed by resource name.
func (c *Client) UpdateByNames(ctx context.Context, categoryName string, updates []Update) (AggregatedResult, error) {
	return c.fanOutUpdates(ctx, categoryName, VerbPut, updates, true)
}

// PatchByNames is PatchByIDs addressed by resource name.
func (c *Client) PatchByNames(ctx context.Context, categoryName string, updates []Update) (AggregatedResult, error) {
	return c.fanOutUpdates(ctx, categoryName, VerbPatch, updates, true)
}

// Raw executes one call against an explicit path under the ERS root,
// bypassing the category table. Pass-through calls still go through the
// gate, so rate limiting stays uniform for surfaces the table does not
// cover.
func (c *Client) Raw(ctx context.Context, verb Verb, path string, body Body) CallOutcome {
	return c.executor.Execute(ctx, Descriptor{
		Verb: verb,
		URL:  c.baseURL + "/" + strings.TrimLeft(path, "/"),
		Body: body,
	})
}

// fanOutKeys issues one call per id or name for verbs without payloads.
func (c *Client) fanOutKeys(ctx context.Context, categoryName string, verb Verb, keys []string, byName bool) (AggregatedResult, error) {
	cat, err := category.Resolve(categoryName)
	if err != nil {
		return AggregatedResult{}, err
	}
	if len(keys) == 0 {
		return AggregatedResult{}, ErrEmptyBatch
	}
	if byName && !cat.SupportsNames {
		return AggregatedResult{}, fmt.Errorf("%w: %s", ErrNamesUnsupported, categoryName)
	}

	descriptors := make([]Descriptor, len(keys))
	for i, key := range keys {
		descriptors[i] = Descriptor{
			Verb:     verb,
			URL:      c.itemURL(cat, key, byName),
			Category: categoryName,
		}
	}

	return c.runFanOut(ctx, categoryName, strings.ToLower(string(verb)), descriptors), nil
}

// fanOutUpdates issues one call per (key, payload) pair.
func (c *Client) fanOutUpdates(ctx context.Context, categoryName string, verb Verb, updates []Update, byName bool) (AggregatedResult, error) {
	cat, err := category.Resolve(categoryName)
	if err != nil {
		return AggregatedResult{}, err
	}
	if len(updates) == 0 {
		return AggregatedResult{}, ErrEmptyBatch
	}
	if byName && !cat.SupportsNames {
		return AggregatedResult{}, fmt.Errorf("%w: %s", ErrNamesUnsupported, categoryName)
	}
	if verb == VerbPatch && !cat.SupportsPatch {
		return AggregatedResult{}, fmt.Errorf("%w: %s", ErrPatchUnsupported, categoryName)
	}

	descriptors := make([]Descriptor, len(updates))
	for i, u := range updates {
		descriptors[i] = Descriptor{
			Verb:     verb,
			URL:      c.itemURL(cat, u.Key, byName),
			Body:     JSONBody(u.Payload),
			Category: categoryName,
		}
	}

	result := c.runFanOut(ctx, categoryName, strings.ToLower(string(verb)), descriptors)
	c.invalidate(ctx, categoryName)
	return result, nil
}

// runFanOut dispatches the descriptors concurrently and aggregates
// per-item outcomes in input order.
func (c *Client) runFanOut(ctx context.Context, categoryName, operation string, descriptors []Descriptor) AggregatedResult {
	opID := uuid.NewString()
	start := time.Now()

	outcomes := fanout.Run(ctx, len(descriptors), func(ctx context.Context, index int) CallOutcome {
		return c.executor.Execute(ctx, descriptors[index])
	})

	result := AggregatedResult{Outcomes: outcomes}
	c.logger.Info().
		Str("op_id", opID).
		Str("category", categoryName).
		Str("operation", operation).
		Int("items", len(outcomes)).
		Int("failed", len(result.Failed())).
		Dur("duration", time.Since(start)).
		Msg("Bulk operation done")

	return result
}

// invalidate drops cached collections for a mutated category.
func (c *Client) invalidate(ctx context.Context, categoryName string) {
	if c.cache == nil {
		return
	}
	if err := c.cache.Invalidate(ctx, categoryName); err != nil {
		c.logger.Warn().Err(err).Str("category", categoryName).Msg("Cache invalidation error")
	}
}

// collectionURL builds the page URL for a collection fetch. The encoded
// query parameters, when present, come ahead of size and page so every
// page request carries them unchanged.
func (c *Client) collectionURL(cat category.Category, query string, page int) string {
	url := c.baseURL + "/" + cat.BasePath + "?"
	if query != "" {
		url += query + "&"
	}
	return fmt.Sprintf("%ssize=%d&page=%d", url, c.cfg.PageSize, page)
}

// itemURL builds the URL addressing one resource by id or name.
func (c *Client) itemURL(cat category.Category, key string, byName bool) string {
	if byName {
		return c.baseURL + "/" + cat.BasePath + "/name/" + key
	}
	return c.baseURL + "/" + cat.BasePath + "/" + key
}

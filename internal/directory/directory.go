package directory

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/roach88/oefquery/internal/query"
	"github.com/roach88/oefquery/internal/schema"
	"github.com/roach88/oefquery/internal/store"
	"github.com/roach88/oefquery/internal/wire"
)

// DefaultCacheTTL is how long a decoded query or description stays cached.
const DefaultCacheTTL = 10 * time.Minute

// TracerName is the instrumentation name of the default tracer.
const TracerName = "github.com/roach88/oefquery/internal/directory"

// Directory registers descriptions and answers searches over them.
type Directory struct {
	store   *store.Store
	clock   Sequencer
	ids     IDGenerator
	logger  *slog.Logger
	tracer  trace.Tracer
	metrics *Metrics

	cacheTTL time.Duration
	cache    *gocache.Cache // nil when caching is disabled
}

// Option configures a Directory.
type Option func(*Directory)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(d *Directory) { d.logger = l }
}

// WithTracer sets the tracer. Default: a no-op tracer.
func WithTracer(t trace.Tracer) Option {
	return func(d *Directory) { d.tracer = t }
}

// WithMetrics sets the metrics collectors. Default: none.
func WithMetrics(m *Metrics) Option {
	return func(d *Directory) { d.metrics = m }
}

// WithClock replaces the logical clock. By default the directory resumes
// after the highest seq in the store.
func WithClock(c Sequencer) Option {
	return func(d *Directory) { d.clock = c }
}

// WithIDGenerator sets the search id generator. Default: UUIDv7Generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(d *Directory) { d.ids = g }
}

// WithCacheTTL sets the decode cache lifetime. Zero or negative disables
// the cache.
func WithCacheTTL(ttl time.Duration) Option {
	return func(d *Directory) { d.cacheTTL = ttl }
}

// New creates a directory over st.
func New(ctx context.Context, st *store.Store, opts ...Option) (*Directory, error) {
	if st == nil {
		return nil, fmt.Errorf("new directory: nil store")
	}

	d := &Directory{
		store:    st,
		ids:      UUIDv7Generator{},
		logger:   slog.Default(),
		tracer:   noop.NewTracerProvider().Tracer(TracerName),
		cacheTTL: DefaultCacheTTL,
	}
	for _, opt := range opts {
		opt(d)
	}

	if d.clock == nil {
		seq, err := st.MaxSeq(ctx)
		if err != nil {
			return nil, fmt.Errorf("new directory: %w", err)
		}
		d.clock = NewClockAt(seq)
	}
	if d.cacheTTL > 0 {
		d.cache = gocache.New(d.cacheTTL, 2*d.cacheTTL)
	}

	return d, nil
}

// RegisterAgent stores desc as the description of the agent, replacing any
// previous one.
func (d *Directory) RegisterAgent(ctx context.Context, publicKey string, desc *schema.Description) error {
	reg, err := d.registration(publicKey, desc)
	if err != nil {
		return fmt.Errorf("register agent: %w", err)
	}
	if err := d.store.PutAgent(ctx, reg); err != nil {
		return fmt.Errorf("register agent: %w", err)
	}

	d.metrics.registered(store.KindAgent)
	d.logger.Debug("agent registered",
		"public_key", publicKey,
		"description_id", reg.DescriptionID,
		"seq", reg.Seq,
	)
	return nil
}

// RegisterService adds desc to the descriptions of the service.
// Registering a description the service already holds is a no-op.
func (d *Directory) RegisterService(ctx context.Context, publicKey string, desc *schema.Description) error {
	reg, err := d.registration(publicKey, desc)
	if err != nil {
		return fmt.Errorf("register service: %w", err)
	}
	inserted, err := d.store.AddService(ctx, reg)
	if err != nil {
		return fmt.Errorf("register service: %w", err)
	}

	if inserted {
		d.metrics.registered(store.KindService)
	}
	d.logger.Debug("service registered",
		"public_key", publicKey,
		"description_id", reg.DescriptionID,
		"seq", reg.Seq,
		"inserted", inserted,
	)
	return nil
}

// UnregisterAgent removes the agent. Returns ErrNotRegistered when the key
// holds no agent.
func (d *Directory) UnregisterAgent(ctx context.Context, publicKey string) error {
	removed, err := d.store.DeleteAgent(ctx, publicKey)
	if err != nil {
		return fmt.Errorf("unregister agent: %w", err)
	}
	if !removed {
		return fmt.Errorf("unregister agent %q: %w", publicKey, ErrNotRegistered)
	}

	d.metrics.unregistered(store.KindAgent, 1)
	d.logger.Debug("agent unregistered", "public_key", publicKey)
	return nil
}

// UnregisterService removes one description of the service, or all of them
// when desc is nil. Returns ErrNotRegistered when nothing was removed.
func (d *Directory) UnregisterService(ctx context.Context, publicKey string, desc *schema.Description) error {
	var descriptionID string
	if desc != nil {
		id, err := wire.DescriptionID(desc)
		if err != nil {
			return fmt.Errorf("unregister service: %w", err)
		}
		descriptionID = id
	}

	n, err := d.store.DeleteService(ctx, publicKey, descriptionID)
	if err != nil {
		return fmt.Errorf("unregister service: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("unregister service %q: %w", publicKey, ErrNotRegistered)
	}

	d.metrics.unregistered(store.KindService, n)
	d.logger.Debug("service unregistered",
		"public_key", publicKey,
		"description_id", descriptionID,
		"removed", n,
	)
	return nil
}

// SearchResult is the answer to one search.
type SearchResult struct {
	// ID identifies the search in the search log.
	ID string

	// Seq is the logical time of the search.
	Seq int64

	// PublicKeys lists the matching keys in byte order, without duplicates.
	// Never nil.
	PublicKeys []string
}

// SearchAgents returns the agents whose description satisfies q.
func (d *Directory) SearchAgents(ctx context.Context, q *query.Query) (SearchResult, error) {
	return d.Search(ctx, store.KindAgent, q)
}

// SearchServices returns the services with at least one description that
// satisfies q.
func (d *Directory) SearchServices(ctx context.Context, q *query.Query) (SearchResult, error) {
	return d.Search(ctx, store.KindService, q)
}

// SearchEncoded decodes an encoded query (through the cache) and searches
// with it.
func (d *Directory) SearchEncoded(ctx context.Context, kind store.Kind, encoded []byte) (SearchResult, error) {
	q, err := d.decodeQuery(encoded)
	if err != nil {
		d.metrics.searched(kind, 0, 0, err)
		return SearchResult{}, fmt.Errorf("search %s: %w", kind, err)
	}
	return d.Search(ctx, kind, q)
}

// Search returns the public keys of the given kind whose description is
// compatible with q's model and satisfies every constraint of q.
func (d *Directory) Search(ctx context.Context, kind store.Kind, q *query.Query) (result SearchResult, err error) {
	start := time.Now()
	result = SearchResult{ID: d.ids.Generate(), PublicKeys: []string{}}

	ctx, span := d.tracer.Start(ctx, "directory.search",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("search.id", result.ID),
			attribute.String("search.kind", string(kind)),
		),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetAttributes(attribute.Int("search.matches", len(result.PublicKeys)))
			span.SetStatus(codes.Ok, "")
		}
		span.End()
		d.metrics.searched(kind, len(result.PublicKeys), time.Since(start), err)
	}()

	if !kind.Valid() {
		return SearchResult{}, fmt.Errorf("search: unknown kind %q", kind)
	}
	if q == nil {
		return SearchResult{}, fmt.Errorf("search %s: nil query", kind)
	}

	queryID, err := wire.QueryID(q)
	if err != nil {
		return SearchResult{}, fmt.Errorf("search %s: %w", kind, err)
	}
	span.SetAttributes(
		attribute.String("search.query_id", queryID),
		attribute.Int("search.constraints", q.Len()),
	)

	regs, err := d.store.ReadRegistrations(ctx, kind)
	if err != nil {
		return SearchResult{}, fmt.Errorf("search %s: %w", kind, err)
	}

	for _, reg := range regs {
		// Rows arrive ordered by key; a service already matched is skipped.
		if n := len(result.PublicKeys); n > 0 && result.PublicKeys[n-1] == reg.PublicKey {
			continue
		}
		desc, err := d.decodeDescription(reg)
		if err != nil {
			// A row that no longer decodes is skipped, not fatal.
			d.logger.Warn("skipping undecodable registration",
				"kind", kind,
				"public_key", reg.PublicKey,
				"description_id", reg.DescriptionID,
				"error", err,
			)
			continue
		}
		if q.Compatible(desc) && q.Check(desc) {
			result.PublicKeys = append(result.PublicKeys, reg.PublicKey)
		}
	}

	result.Seq = d.clock.Next()
	if err := d.store.WriteSearch(ctx, store.SearchRecord{
		ID:          result.ID,
		Kind:        kind,
		QueryID:     queryID,
		ResultCount: len(result.PublicKeys),
		Seq:         result.Seq,
	}); err != nil {
		return SearchResult{}, fmt.Errorf("search %s: %w", kind, err)
	}

	d.logger.Debug("search answered",
		"search_id", result.ID,
		"kind", kind,
		"query_id", queryID,
		"matches", len(result.PublicKeys),
		"seq", result.Seq,
	)
	return result, nil
}

// Agent returns the description registered for an agent.
// Returns ErrNotRegistered when the key holds no agent.
func (d *Directory) Agent(ctx context.Context, publicKey string) (*schema.Description, error) {
	reg, err := d.store.ReadAgent(ctx, publicKey)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("agent %q: %w", publicKey, ErrNotRegistered)
		}
		return nil, fmt.Errorf("agent %q: %w", publicKey, err)
	}
	return d.decodeDescription(reg)
}

func (d *Directory) registration(publicKey string, desc *schema.Description) (store.Registration, error) {
	if publicKey == "" {
		return store.Registration{}, ErrEmptyPublicKey
	}
	b, err := wire.EncodeDescription(desc)
	if err != nil {
		return store.Registration{}, err
	}
	return store.Registration{
		PublicKey:     publicKey,
		DescriptionID: wire.DescriptionIDBytes(b),
		Description:   b,
		Seq:           d.clock.Next(),
	}, nil
}

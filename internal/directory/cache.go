package directory

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/oefquery/internal/query"
	"github.com/roach88/oefquery/internal/schema"
	"github.com/roach88/oefquery/internal/store"
	"github.com/roach88/oefquery/internal/wire"
)

const (
	cacheQuery       = "query"
	cacheDescription = "description"
)

// decodeQuery decodes an encoded query, keyed in the cache by its query id.
func (d *Directory) decodeQuery(b []byte) (*query.Query, error) {
	key := cacheQuery + ":" + wire.QueryIDBytes(b)
	if q, ok := cached[*query.Query](d, cacheQuery, key); ok {
		return q, nil
	}

	q, err := wire.DecodeQuery(b)
	if err != nil {
		return nil, err
	}
	d.put(key, q)
	return q, nil
}

// decodeDescription decodes a stored registration, keyed in the cache by
// its description id.
func (d *Directory) decodeDescription(reg store.Registration) (*schema.Description, error) {
	key := cacheDescription + ":" + reg.DescriptionID
	if desc, ok := cached[*schema.Description](d, cacheDescription, key); ok {
		return desc, nil
	}

	desc, err := wire.DecodeDescription(reg.Description)
	if err != nil {
		return nil, fmt.Errorf("registration %s/%s: %w", reg.Kind, reg.PublicKey, err)
	}
	d.put(key, desc)
	return desc, nil
}

// cached looks key up and records the hit or miss. A value of the wrong
// type counts as a miss.
func cached[V any](d *Directory, cache, key string) (V, bool) {
	var zero V
	if d.cache == nil {
		return zero, false
	}

	value, found := d.cache.Get(key)
	if !found {
		d.metrics.cacheLookup(cache, false)
		return zero, false
	}
	v, ok := value.(V)
	if !ok {
		d.logger.Error("wrong type in decode cache", "key", key)
		d.metrics.cacheLookup(cache, false)
		return zero, false
	}
	d.metrics.cacheLookup(cache, true)
	return v, true
}

func (d *Directory) put(key string, value any) {
	if d.cache == nil {
		return
	}
	d.cache.SetDefault(key, value)
}

// CacheLen returns the number of cached decoded values.
func (d *Directory) CacheLen() int {
	if d.cache == nil {
		return 0
	}
	return d.cache.ItemCount()
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// Package database exposes CRUD, bulk and schema operations against named
// remote tables, with a cache-aside read path: reads are served from the
// injected cache when possible, and any write to a table discards every
// cached read for that table rather than attempting fine-grained diffing.
package database

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"time"

	"github.com/mixcore/sdk-go/apiclient"
	"github.com/mixcore/sdk-go/cache"
	"github.com/mixcore/sdk-go/common"
	"github.com/mixcore/sdk-go/internal/logging"
	"github.com/mixcore/sdk-go/query"
)

// Record is an open-ended row. The SDK is schema-agnostic; column typing is
// deferred to the remote service.
type Record map[string]any

// Paging mirrors the paging envelope returned alongside list results.
type Paging struct {
	Page      int   `json:"page"`
	PageSize  int   `json:"pageSize"`
	Total     int64 `json:"total"`
	TotalPage int   `json:"totalPage"`
}

// Result is a page of rows.
type Result struct {
	Items  []Record `json:"items"`
	Paging Paging   `json:"pagingData"`
}

var tableNameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// Service is the data-access layer for one client instance.
type Service struct {
	api   *apiclient.Client
	cache *cache.Cache
	ttl   time.Duration
	log   logging.Logger
}

// NewService builds the data-access layer. The cache is an explicit
// dependency so tests can substitute an isolated instance; a nil cache gets
// a private one. A non-positive ttl falls back to cache.DefaultTTL.
func NewService(api *apiclient.Client, c *cache.Cache, ttl time.Duration, log logging.Logger) *Service {
	if c == nil {
		c = cache.New()
	}
	if ttl <= 0 {
		ttl = cache.DefaultTTL
	}
	if log == nil {
		log = logging.NewNop()
	}
	return &Service{api: api, cache: c, ttl: ttl, log: log}
}

// Cache exposes the cache backing this service.
func (s *Service) Cache() *cache.Cache { return s.cache }

func validateTable(table string) error {
	if table == "" {
		return common.NewValidationError("table", "is required")
	}
	if !tableNameRegex.MatchString(table) {
		return common.NewValidationError("table", "may only contain letters, digits, '-' and '_'")
	}
	return nil
}

func queryParams(q *query.Query) map[string]any {
	if q == nil {
		return map[string]any{}
	}
	return q.ToQueryParams()
}

func idSegment(id any) string {
	return url.PathEscape(fmt.Sprintf("%v", id))
}

// GetData lists rows matching q. Results are cached per table+query for the
// configured TTL.
func (s *Service) GetData(ctx context.Context, table string, q *query.Query) (*Result, error) {
	if err := validateTable(table); err != nil {
		return nil, err
	}
	params := queryParams(q)
	key := cache.Key("getData", table, params)
	if v, ok := s.cache.Get(key); ok {
		return v.(*Result), nil
	}

	var result Result
	if err := s.api.Get(ctx, "/database/"+table+"/data", params, &result); err != nil {
		return nil, fmt.Errorf("listing %s: %w", table, err)
	}
	s.cache.Set(key, &result, s.ttl)
	return &result, nil
}

// GetDataByID fetches a single row, cache-aside keyed by table+id.
func (s *Service) GetDataByID(ctx context.Context, table string, id any) (Record, error) {
	if err := validateTable(table); err != nil {
		return nil, err
	}
	key := cache.Key("getDataById", table, id)
	if v, ok := s.cache.Get(key); ok {
		return v.(Record), nil
	}

	var record Record
	if err := s.api.Get(ctx, "/database/"+table+"/data/"+idSegment(id), nil, &record); err != nil {
		return nil, fmt.Errorf("fetching %s/%v: %w", table, id, err)
	}
	s.cache.Set(key, record, s.ttl)
	return record, nil
}

// GetDataByColumn returns the first row where column equals value, or nil
// when nothing matches. "Not found" is not an error here.
func (s *Service) GetDataByColumn(ctx context.Context, table, column string, value any) (Record, error) {
	result, err := s.GetData(ctx, table, query.New().WhereEquals(column, value).Take(1))
	if err != nil {
		return nil, err
	}
	if len(result.Items) == 0 {
		return nil, nil
	}
	return result.Items[0], nil
}

// CreateData inserts a row and invalidates the table's cached reads.
func (s *Service) CreateData(ctx context.Context, table string, data Record) (Record, error) {
	if err := validateTable(table); err != nil {
		return nil, err
	}
	var created Record
	if err := s.api.Post(ctx, "/database/"+table+"/data", data, &created); err != nil {
		return nil, fmt.Errorf("creating row in %s: %w", table, err)
	}
	s.invalidate(ctx, table)
	return created, nil
}

// UpdateData patches a row by id and invalidates the table's cached reads.
func (s *Service) UpdateData(ctx context.Context, table string, id any, patch Record) (Record, error) {
	if err := validateTable(table); err != nil {
		return nil, err
	}
	var updated Record
	if err := s.api.Put(ctx, "/database/"+table+"/data/"+idSegment(id), patch, &updated); err != nil {
		return nil, fmt.Errorf("updating %s/%v: %w", table, id, err)
	}
	s.invalidate(ctx, table)
	return updated, nil
}

// UpdateManyData applies a bulk update and reports the number of rows the
// server touched.
func (s *Service) UpdateManyData(ctx context.Context, table string, items []Record) (int64, error) {
	if err := validateTable(table); err != nil {
		return 0, err
	}
	var out struct {
		Count int64 `json:"count"`
	}
	if err := s.api.Put(ctx, "/database/"+table+"/data", items, &out); err != nil {
		return 0, fmt.Errorf("bulk updating %s: %w", table, err)
	}
	s.invalidate(ctx, table)
	return out.Count, nil
}

// DeleteData removes a row by id. Transport failures are converted to false
// so bulk-delete flows can treat deletes as idempotent best-effort; the
// create/update paths deliberately do not share this behavior.
func (s *Service) DeleteData(ctx context.Context, table string, id any) bool {
	if err := validateTable(table); err != nil {
		s.log.Warn(ctx, "delete rejected", "table", table, "error", err)
		return false
	}
	if err := s.api.Delete(ctx, "/database/"+table+"/data/"+idSegment(id), nil, nil); err != nil {
		s.log.Warn(ctx, "delete failed", "table", table, "id", id, "error", err)
		return false
	}
	s.invalidate(ctx, table)
	return true
}

// ExportData streams an export of the table. Never cached.
func (s *Service) ExportData(ctx context.Context, table string, q *query.Query) (Record, error) {
	if err := validateTable(table); err != nil {
		return nil, err
	}
	var out Record
	if err := s.api.Get(ctx, "/database/"+table+"/export", queryParams(q), &out); err != nil {
		return nil, fmt.Errorf("exporting %s: %w", table, err)
	}
	return out, nil
}

// SearchData runs a keyword search constrained by q. Never cached.
func (s *Service) SearchData(ctx context.Context, table, keyword string, q *query.Query) (*Result, error) {
	if err := validateTable(table); err != nil {
		return nil, err
	}
	params := queryParams(q)
	params["keyword"] = keyword
	var result Result
	if err := s.api.Get(ctx, "/database/"+table+"/search", params, &result); err != nil {
		return nil, fmt.Errorf("searching %s: %w", table, err)
	}
	return &result, nil
}

// CountData returns the number of rows matching q. Never cached, though the
// count prefix participates in write invalidation for hosts that layer
// their own caching on top.
func (s *Service) CountData(ctx context.Context, table string, q *query.Query) (int64, error) {
	if err := validateTable(table); err != nil {
		return 0, err
	}
	var count int64
	if err := s.api.Get(ctx, "/database/"+table+"/count", queryParams(q), &count); err != nil {
		return 0, fmt.Errorf("counting %s: %w", table, err)
	}
	return count, nil
}

// CreateDatabase creates a table from a schema definition.
func (s *Service) CreateDatabase(ctx context.Context, table string, schema Record) (Record, error) {
	if err := validateTable(table); err != nil {
		return nil, err
	}
	var created Record
	if err := s.api.Post(ctx, "/database/"+table+"/schema", schema, &created); err != nil {
		return nil, fmt.Errorf("creating schema %s: %w", table, err)
	}
	s.invalidate(ctx, table)
	return created, nil
}

// UpdateDatabaseSchema alters a table definition.
func (s *Service) UpdateDatabaseSchema(ctx context.Context, table string, schema Record) (Record, error) {
	if err := validateTable(table); err != nil {
		return nil, err
	}
	var updated Record
	if err := s.api.Put(ctx, "/database/"+table+"/schema", schema, &updated); err != nil {
		return nil, fmt.Errorf("updating schema %s: %w", table, err)
	}
	s.invalidate(ctx, table)
	return updated, nil
}

// DeleteDatabase drops a table. Like DeleteData it reports false instead of
// propagating transport failures.
func (s *Service) DeleteDatabase(ctx context.Context, table string) bool {
	if err := validateTable(table); err != nil {
		s.log.Warn(ctx, "schema delete rejected", "table", table, "error", err)
		return false
	}
	if err := s.api.Delete(ctx, "/database/"+table+"/schema", nil, nil); err != nil {
		s.log.Warn(ctx, "schema delete failed", "table", table, "error", err)
		return false
	}
	s.invalidate(ctx, table)
	return true
}

// ListDatabases enumerates the table definitions visible to the session.
func (s *Service) ListDatabases(ctx context.Context) ([]Record, error) {
	var out []Record
	if err := s.api.Get(ctx, "/database/list", nil, &out); err != nil {
		return nil, fmt.Errorf("listing databases: %w", err)
	}
	return out, nil
}

// invalidate drops every cached read for the table: coarse, but correct.
func (s *Service) invalidate(ctx context.Context, table string) {
	removed := 0
	for _, op := range []string{"getData", "getDataById", "count"} {
		removed += s.cache.DeletePrefix(op + ":" + table + ":")
	}
	if removed > 0 {
		s.log.Debug(ctx, "cache invalidated", "table", table, "entries", removed)
	}
}

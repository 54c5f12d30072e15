package stats

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/alexivanou/weatherquery-api/internal/config"
	"github.com/jmoiron/sqlx"
)

type Stats struct {
	Timestamp time.Time         `json:"timestamp"`
	Memory    MemoryStats       `json:"memory"`
	Database  DatabaseStats     `json:"database"`
	Runtime   RuntimeStats      `json:"runtime"`
	Upstreams map[string]string `json:"upstreams,omitempty"`
}

type MemoryStats struct {
	Alloc        uint64 `json:"alloc"`
	TotalAlloc   uint64 `json:"total_alloc"`
	Sys          uint64 `json:"sys"`
	NumGC        uint32 `json:"num_gc"`
	HeapAlloc    uint64 `json:"heap_alloc"`
	HeapSys      uint64 `json:"heap_sys"`
	HeapInuse    uint64 `json:"heap_inuse"`
	HeapReleased uint64 `json:"heap_released"`
}

type DatabaseStats struct {
	Type             string      `json:"type"`
	SizeBytes        int64       `json:"size_bytes"`
	TableStats       []TableStat `json:"table_stats"`
	TotalLocations   int64       `json:"total_locations"`
	DistinctRegions  int64       `json:"distinct_regions"`
	MissingTimezones int64       `json:"missing_timezones"`
}

type TableStat struct {
	Name      string `json:"name"`
	RowCount  int64  `json:"row_count"`
	SizeBytes int64  `json:"size_bytes,omitempty"`
}

type RuntimeStats struct {
	NumGoroutines int   `json:"num_goroutines"`
	NumCPU        int   `json:"num_cpu"`
	UptimeSeconds int64 `json:"uptime_seconds"`
}

// BreakerReporter exposes per-upstream circuit breaker states.
type BreakerReporter interface {
	BreakerStates() map[string]string
}

type Collector struct {
	db         *sqlx.DB
	config     config.DBConfig
	breakers   BreakerReporter
	startTime  time.Time
	cachedMem  *MemoryStats
	cacheTime  time.Time
	cacheMutex sync.RWMutex
}

var (
	memStatsCacheDuration = 5 * time.Second
)

const locationsTable = "resolved_locations"

// NewCollector creates a collector. breakers may be nil.
func NewCollector(db *sqlx.DB, cfg config.DBConfig, breakers BreakerReporter) *Collector {
	return &Collector{
		db:        db,
		config:    cfg,
		breakers:  breakers,
		startTime: time.Now(),
	}
}

func (c *Collector) Collect(ctx context.Context) (*Stats, error) {
	stats := &Stats{
		Timestamp: time.Now(),
	}

	stats.Memory = c.collectMemoryStats()

	dbStats, err := c.collectDatabaseStats(ctx)
	if err != nil {
		return nil, err
	}
	stats.Database = *dbStats
	stats.Runtime = c.collectRuntimeStats()

	if c.breakers != nil {
		stats.Upstreams = c.breakers.BreakerStates()
	}

	return stats, nil
}

func (c *Collector) collectMemoryStats() MemoryStats {
	c.cacheMutex.RLock()
	if c.cachedMem != nil && time.Since(c.cacheTime) < memStatsCacheDuration {
		mem := *c.cachedMem
		c.cacheMutex.RUnlock()
		return mem
	}
	c.cacheMutex.RUnlock()

	c.cacheMutex.Lock()
	defer c.cacheMutex.Unlock()

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	mem := MemoryStats{
		Alloc:        m.Alloc,
		TotalAlloc:   m.TotalAlloc,
		Sys:          m.Sys,
		NumGC:        m.NumGC,
		HeapAlloc:    m.HeapAlloc,
		HeapSys:      m.HeapSys,
		HeapInuse:    m.HeapInuse,
		HeapReleased: m.HeapReleased,
	}

	c.cachedMem = &mem
	c.cacheTime = time.Now()

	return mem
}

func (c *Collector) collectDatabaseStats(ctx context.Context) (*DatabaseStats, error) {
	stats := &DatabaseStats{
		Type: string(c.config.Type),
	}

	if totalSize, err := c.getDatabaseSize(ctx); err == nil {
		stats.SizeBytes = totalSize
	}

	stat, err := c.getTableStat(ctx, locationsTable)
	if err != nil {
		return nil, fmt.Errorf("failed to get table stats: %w", err)
	}
	stats.TableStats = []TableStat{*stat}
	stats.TotalLocations = stat.RowCount

	summary, err := c.getLocationSummary(ctx)
	if err != nil {
		return nil, err
	}
	stats.DistinctRegions = summary.Regions
	stats.MissingTimezones = summary.MissingTimezones

	return stats, nil
}

type locationSummary struct {
	Regions          int64 `db:"regions"`
	MissingTimezones int64 `db:"missing_timezones"`
}

func (c *Collector) getLocationSummary(ctx context.Context) (*locationSummary, error) {
	querySQL := `
		SELECT
			COUNT(DISTINCT NULLIF(region, '')) AS regions,
			COUNT(*) - COUNT(timezone) AS missing_timezones
		FROM ` + locationsTable

	var summary locationSummary
	if err := c.db.GetContext(ctx, &summary, querySQL); err != nil {
		return nil, fmt.Errorf("failed to get location summary: %w", err)
	}
	return &summary, nil
}

func (c *Collector) getDatabaseSize(ctx context.Context) (int64, error) {
	var size int64
	var err error

	if c.config.Type == config.DBTypePostgreSQL {
		err = c.db.GetContext(ctx, &size, "SELECT pg_database_size(current_database())")
	} else {
		err = c.db.GetContext(ctx, &size, "SELECT page_count * page_size FROM pragma_page_count(), pragma_page_size()")
	}

	if err != nil {
		return 0, err
	}
	return size, nil
}

func (c *Collector) getTableStat(ctx context.Context, tableName string) (*TableStat, error) {
	stat := &TableStat{Name: tableName}

	countQuery := "SELECT COUNT(*) FROM " + tableName
	var count int64
	err := c.db.GetContext(ctx, &count, countQuery)
	if err != nil {
		return nil, err
	}
	stat.RowCount = count

	if c.config.Type == config.DBTypePostgreSQL {
		sizeQuery := `SELECT COALESCE(pg_total_relation_size($1::regclass), 0)`
		var size int64
		err = c.db.GetContext(ctx, &size, sizeQuery, tableName)
		if err == nil {
			stat.SizeBytes = size
		}
	} else {
		// dbstat is only present when sqlite is built with SQLITE_ENABLE_DBSTAT_VTAB
		sizeQuery := `SELECT COALESCE(SUM(pgsize), 0) FROM dbstat WHERE name = ?`
		var size int64
		_ = c.db.GetContext(ctx, &size, sizeQuery, tableName)
		stat.SizeBytes = size
	}

	return stat, nil
}

func (c *Collector) collectRuntimeStats() RuntimeStats {
	uptime := time.Since(c.startTime).Seconds()
	return RuntimeStats{
		NumGoroutines: runtime.NumGoroutine(),
		NumCPU:        runtime.NumCPU(),
		UptimeSeconds: int64(uptime),
	}
}

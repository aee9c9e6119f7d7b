// Package config loads the simulator's runtime configuration via flag +
// environment-variable fallback, following the teacher's envStr/envInt/
// envInt64 helper pattern exactly.
package config

import (
	"flag"
	"os"
	"strconv"
	"time"
)

// Config holds all simulator configuration.
type Config struct {
	// Server
	WSPort int
	Host   string

	// Static data
	MongoURI string

	// Venue
	VenueTimezone string

	// Simulation
	Seed           int64
	SendBufferSize int

	// Phase scheduling
	PhaseEndRangeJitterMinSec int
	PhaseEndRangeJitterMaxSec int

	// Historical replay
	HistoricalDatasource string

	// Relational historical-replay connection properties (spec §6), only
	// consulted when the configured datasource is DatasourceKindRelational.
	PGHost     string
	PGPort     string
	PGUser     string
	PGPassword string
	PGDatabase string

	// S3 audit archiver (opt-in: only active when S3Bucket is set)
	S3Bucket        string
	S3Region        string
	S3Prefix        string
	ArchiveMaxGB    int
	ArchiveInterval time.Duration

	// Metrics
	MetricsEnabled bool
}

func Load() *Config {
	c := &Config{}

	flag.IntVar(&c.WSPort, "port", envInt("SIM_PORT", 8100), "WebSocket/HTTP server port")
	flag.StringVar(&c.Host, "host", envStr("SIM_HOST", "0.0.0.0"), "Listen host")

	flag.StringVar(&c.MongoURI, "mongo-uri", envStr("MONGO_URI", "mongodb://localhost:27017/ordersim"), "MongoDB connection URI for static data")

	flag.StringVar(&c.VenueTimezone, "venue-timezone", envStr("VENUE_TIMEZONE", "America/New_York"), "IANA timezone the venue's phase schedule is evaluated in")

	flag.Int64Var(&c.Seed, "seed", envInt64("SIM_SEED", 0), "PRNG seed (0 = random)")
	flag.IntVar(&c.SendBufferSize, "send-buffer", envInt("SEND_BUFFER", 4096), "Per-client send buffer size")

	flag.IntVar(&c.PhaseEndRangeJitterMinSec, "phase-jitter-min", envInt("PHASE_JITTER_MIN_SEC", 0), "Minimum end-range jitter in seconds; not read by the phase scheduler, which takes jitter from each phase record's end range")
	flag.IntVar(&c.PhaseEndRangeJitterMaxSec, "phase-jitter-max", envInt("PHASE_JITTER_MAX_SEC", 0), "Maximum end-range jitter in seconds; not read by the phase scheduler, which takes jitter from each phase record's end range")

	flag.StringVar(&c.HistoricalDatasource, "historical-datasource", envStr("HISTORICAL_DATASOURCE", ""), "Name of the configured datasource to replay (empty = historical replay disabled)")

	flag.StringVar(&c.PGHost, "pg-host", envStr("PG_HOST", ""), "PostgreSQL host for relational historical datasources")
	flag.StringVar(&c.PGPort, "pg-port", envStr("PG_PORT", "5432"), "PostgreSQL port for relational historical datasources")
	flag.StringVar(&c.PGUser, "pg-user", envStr("PG_USER", ""), "PostgreSQL user for relational historical datasources")
	flag.StringVar(&c.PGPassword, "pg-password", envStr("PG_PASSWORD", ""), "PostgreSQL password for relational historical datasources")
	flag.StringVar(&c.PGDatabase, "pg-database", envStr("PG_DATABASE", ""), "PostgreSQL database name for relational historical datasources")

	flag.StringVar(&c.S3Bucket, "s3-bucket", envStr("S3_BUCKET", ""), "S3 bucket for message archival (empty = disabled)")
	flag.StringVar(&c.S3Region, "s3-region", envStr("S3_REGION", "us-east-1"), "AWS region for S3")
	flag.StringVar(&c.S3Prefix, "s3-prefix", envStr("S3_PREFIX", "ordersim"), "S3 key prefix for archived messages")
	flag.IntVar(&c.ArchiveMaxGB, "archive-max-gb", envInt("ARCHIVE_MAX_GB", 10), "Maximum size in GB the archived prefix may grow to before rotation")
	archiveIntervalSec := flag.Int("archive-interval-sec", envInt("ARCHIVE_INTERVAL_SEC", 3600), "Seconds between archive flush/rotate cycles")

	flag.BoolVar(&c.MetricsEnabled, "metrics", envBool("METRICS_ENABLED", true), "Mount the /metrics endpoint")

	flag.Parse()

	c.ArchiveInterval = time.Duration(*archiveIntervalSec) * time.Second

	return c
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envInt64(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return def
}

func envBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

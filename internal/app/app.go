// Package app wires configuration into the services shared by cmd/server and
// cmd/check-address.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/ignite/address-eligibility/internal/audit"
	"github.com/ignite/address-eligibility/internal/config"
	"github.com/ignite/address-eligibility/internal/datanorm"
	"github.com/ignite/address-eligibility/internal/metrics"
	"github.com/ignite/address-eligibility/internal/pkg/distlock"
	"github.com/ignite/address-eligibility/internal/pkg/logger"
	"github.com/ignite/address-eligibility/internal/repository/postgres"
	"github.com/ignite/address-eligibility/internal/service/addresslist"
	"github.com/ignite/address-eligibility/internal/service/eligibility"

	_ "github.com/lib/pq" // PostgreSQL driver
)

// App holds the long-lived dependencies of a process. Optional parts are nil
// when not configured.
type App struct {
	AdminDB   *sql.DB
	Redis     *redis.Client
	Connector *postgres.TrackedConnector
	Registry  *prometheus.Registry
	Metrics   *metrics.Metrics
	Audit     audit.Sink
	AuditLog  audit.Reader

	Eligibility *eligibility.Service
	Lists       *addresslist.Service
	Importer    *datanorm.Importer
	Objects     *datanorm.S3Source
}

// Open builds an App from cfg. Redis and S3 are optional and only logged
// when unreachable; an invalid policy or an unusable admin DSN is an error.
func Open(ctx context.Context, cfg *config.Config) (*App, error) {
	policy, err := buildPolicy(cfg.Eligibility)
	if err != nil {
		return nil, err
	}

	a := &App{Registry: prometheus.NewRegistry()}
	a.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	a.Metrics = metrics.New(a.Registry)

	if cfg.Database.URL != "" {
		db, err := sql.Open("postgres", cfg.Database.URL)
		if err != nil {
			return nil, fmt.Errorf("open admin database: %w", err)
		}
		db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
		db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
		db.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)
		db.SetConnMaxIdleTime(30 * time.Second)

		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		if err := db.PingContext(pingCtx); err != nil {
			logger.Warn("app: admin database unreachable, continuing", "error", err)
		}
		cancel()
		a.AdminDB = db
	}

	a.Redis = openRedis(ctx, cfg.Redis.URL)

	a.Connector = postgres.NewTrackedConnector(buildResolver(cfg, a.AdminDB), postgres.ConnectorOptions{
		MaxOpenConns:     cfg.Database.MaxOpenConns,
		MaxIdleConns:     cfg.Database.MaxIdleConns,
		ConnMaxLifetime:  time.Duration(cfg.Database.ConnMaxLifetime) * time.Second,
		ConnectTimeout:   cfg.Eligibility.ConnectTimeout(),
		CanonicalizeFunc: cfg.Eligibility.CanonicalizeFunction,
	})

	a.Audit = audit.NopSink{}
	a.AuditLog = audit.NopSink{}
	if cfg.Audit.Enabled && a.Redis != nil {
		s := audit.NewRedisStreamSink(a.Redis, cfg.Audit.Stream, cfg.Audit.MaxLen)
		a.Audit, a.AuditLog = s, s
	}

	native := datanorm.NewAddressCanonicalizer()
	opts := []eligibility.Option{
		eligibility.WithPolicy(policy),
		eligibility.WithCanonicalizer(native),
		eligibility.WithDefaultDatabase(cfg.Eligibility.DefaultDatabase),
		eligibility.WithRecorder(a.Metrics),
		eligibility.WithAudit(a.Audit),
	}
	var canonSource addresslist.CanonicalizerSource = addresslist.FixedCanonicalizer{Canonicalizer: native}
	if cfg.Eligibility.UseDatabaseCanonicalizer() {
		opts = append(opts, eligibility.WithSessionCanonicalizer())
		canonSource = a.Connector
	}
	a.Eligibility = eligibility.NewService(a.Connector, opts...)

	var locker addresslist.Locker
	if a.Redis != nil || a.AdminDB != nil {
		locker = distlock.NewFactory(a.Redis, a.AdminDB, 10*time.Second)
	}
	a.Lists = addresslist.NewService(postgres.NewAddressListRepo(a.Connector), canonSource, locker, a.Audit)
	a.Importer = datanorm.NewImporter(a.Lists, a.Audit)

	if cfg.Import.Enabled && cfg.Import.S3Bucket != "" {
		src, err := datanorm.NewS3Source(ctx, datanorm.Config{
			Bucket:     cfg.Import.S3Bucket,
			Region:     cfg.Import.S3Region,
			AWSProfile: cfg.Import.GetAWSProfile(),
			AccessKey:  cfg.Import.AccessKey,
			SecretKey:  cfg.Import.SecretKey,
			Prefix:     cfg.Import.Prefix,
		})
		if err != nil {
			logger.Warn("app: S3 import disabled", "bucket", cfg.Import.S3Bucket, "error", err)
		} else {
			a.Objects = src
		}
	}

	logger.Info("app: initialized",
		"occupancy_limit", a.Eligibility.Policy().OccupancyLimit,
		"lookup_failure", string(a.Eligibility.Policy().LookupFailure),
		"canonicalizer", cfg.Eligibility.Canonicalizer,
		"default_database", cfg.Eligibility.DefaultDatabase,
		"redis", a.Redis != nil,
		"s3_import", a.Objects != nil,
	)
	return a, nil
}

// Close releases pools and clients.
func (a *App) Close() error {
	var errs []error
	if a.Connector != nil {
		errs = append(errs, a.Connector.Close())
	}
	if a.Redis != nil {
		errs = append(errs, a.Redis.Close())
	}
	if a.AdminDB != nil {
		errs = append(errs, a.AdminDB.Close())
	}
	return errors.Join(errs...)
}

func buildPolicy(c config.EligibilityConfig) (eligibility.Policy, error) {
	fp, err := eligibility.ParseFailurePolicy(c.LookupFailurePolicy)
	if err != nil {
		return eligibility.Policy{}, err
	}
	return eligibility.Policy{OccupancyLimit: c.OccupancyLimit, LookupFailure: fp}, nil
}

// buildResolver prefers statically configured databases and falls back to
// tracked_connections in the admin database. Without any tracked database the
// admin database itself answers for the default ref.
func buildResolver(cfg *config.Config, admin *sql.DB) postgres.DSNResolver {
	static := postgres.StaticResolver{}
	for ref, td := range cfg.TrackedDatabases {
		static[ref] = postgres.Target{Name: ref, DSN: td.DSN, Schema: td.Schema}
	}
	if len(static) == 0 && cfg.Database.URL != "" {
		ref := cfg.Eligibility.DefaultDatabase
		static[ref] = postgres.Target{Name: ref, DSN: cfg.Database.URL}
	}

	chain := postgres.ChainResolver{static}
	if admin != nil {
		chain = append(chain, postgres.NewSQLResolver(admin))
	}
	return chain
}

// openRedis connects to url. An unreachable Redis is logged and returns nil
// so locks fall back to Postgres advisory locks.
func openRedis(ctx context.Context, url string) *redis.Client {
	if url == "" {
		logger.Info("app: Redis not configured, using PG advisory locks and no audit stream")
		return nil
	}
	var client *redis.Client
	if opts, err := redis.ParseURL(url); err == nil {
		client = redis.NewClient(opts)
	} else {
		client = redis.NewClient(&redis.Options{Addr: url})
	}

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("app: Redis unreachable, falling back to PG advisory locks", "error", err)
		client.Close()
		return nil
	}
	return client
}

// Package postgres provides a Postgres-backed article sink.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cosmicexplorer/SARS-CoV-2-coverage/internal/feed"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Config controls the Postgres connection pool used for article rows.
type Config struct {
	DSN             string
	Table           string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type execCloser interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Close()
}

// ArticleStore writes emitted article records into Postgres.
type ArticleStore struct {
	pool  execCloser
	table string
}

// NewArticleStore creates a Postgres-backed ArticleStore using the provided config.
func NewArticleStore(ctx context.Context, cfg Config) (*ArticleStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("db.dsn is required")
	}
	table := cfg.Table
	if table == "" {
		table = "articles"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &ArticleStore{
		pool:  pool,
		table: table,
	}, nil
}

// NewArticleStoreWithPool constructs a store from an existing pool (primarily for testing).
func NewArticleStoreWithPool(pool execCloser, table string) (*ArticleStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if table == "" {
		table = "articles"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &ArticleStore{pool: pool, table: table}, nil
}

// Close releases the underlying pool resources.
func (s *ArticleStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// StoreArticle inserts an article row into Postgres.
func (s *ArticleStore) StoreArticle(ctx context.Context, article feed.Article) error {
	if s == nil || s.pool == nil {
		return fmt.Errorf("article store is not configured")
	}
	if article.FetchID == "" {
		return fmt.Errorf("article fetch id is required")
	}
	authorsJSON, err := json.Marshal(article.Authors)
	if err != nil {
		return fmt.Errorf("marshal authors: %w", err)
	}
	tagsJSON, err := json.Marshal(article.Tags)
	if err != nil {
		return fmt.Errorf("marshal tags: %w", err)
	}
	linksJSON, err := json.Marshal(article.Links)
	if err != nil {
		return fmt.Errorf("marshal links: %w", err)
	}
	query := fmt.Sprintf(`
INSERT INTO %s (
	fetch_id,
	url,
	title,
	authors,
	tags,
	links,
	publish_timestamp,
	fetched_at,
	body_text,
	blob_uri
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`, s.table)

	if _, err := s.pool.Exec(ctx, query,
		article.FetchID,
		article.URL,
		article.Title,
		authorsJSON,
		tagsJSON,
		linksJSON,
		article.PublishTimestamp,
		article.FetchedAt,
		article.Text,
		article.BlobURI,
	); err != nil {
		return fmt.Errorf("insert article row: %w", err)
	}
	return nil
}

package repository

import (
	"context"
	"database/sql"
	"embed"
	"io/fs"

	sq "github.com/Masterminds/squirrel"
	"github.com/pressly/goose/v3"
	"github.com/sysu-ecnc-dev/feedback-system/backend/internal/config"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// psql 使用 $1, $2 ... 作为占位符
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type Repository struct {
	cfg    *config.Config
	dbpool *sql.DB
}

func NewRepository(cfg *config.Config, dbpool *sql.DB) *Repository {
	return &Repository{
		cfg:    cfg,
		dbpool: dbpool,
	}
}

// Migrate 将内嵌的迁移文件应用到数据库上
func Migrate(ctx context.Context, db *sql.DB) ([]*goose.MigrationResult, error) {
	fsys, err := fs.Sub(embedMigrations, "migrations")
	if err != nil {
		return nil, err
	}

	provider, err := goose.NewProvider(goose.DialectPostgres, db, fsys)
	if err != nil {
		return nil, err
	}

	return provider.Up(ctx)
}


package store

import (
	"context"
	"database/sql"
	"time"

	"workspace-cluster-manager/pkg/models"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `create table if not exists clusters (
	id text not null primary key,
	workspace_id text not null,
	context_name text,
	kubeconfig text,
	enabled integer not null default 1,
	managed integer not null default 0,
	display_order integer not null,
	created_at text
);`

// SQLiteBackend stores clusters in a sqlite database
type SQLiteBackend struct {
	db *sql.DB
}

// NewSQLiteBackend opens the database at path and runs the migration
func NewSQLiteBackend(ctx context.Context, path string) (*SQLiteBackend, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "unable to open sqlite db")
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		return nil, multierr.Append(errors.Wrap(err, "running migration"), db.Close())
	}
	return &SQLiteBackend{db: db}, nil
}

// Load returns all clusters ordered by workspace and display order
func (b *SQLiteBackend) Load() ([]models.Cluster, error) {
	rows, err := b.db.Query(`select id, workspace_id, context_name, kubeconfig, enabled, managed, display_order, created_at
		from clusters order by workspace_id, display_order`)
	if err != nil {
		return nil, errors.Wrap(err, "unable to query clusters")
	}
	defer rows.Close()

	var clusters []models.Cluster
	for rows.Next() {
		var (
			c         models.Cluster
			createdAt string
		)
		if err := rows.Scan(&c.ID, &c.WorkspaceID, &c.ContextName, &c.Kubeconfig, &c.Enabled, &c.IsManaged, &c.DisplayOrder, &createdAt); err != nil {
			return nil, errors.Wrap(err, "scanning cluster row")
		}
		if createdAt != "" {
			if c.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
				return nil, errors.Wrapf(err, "parsing created_at of %s", c.ID)
			}
		}
		clusters = append(clusters, c)
	}
	return clusters, rows.Err()
}

// Save replaces all rows in a single transaction
func (b *SQLiteBackend) Save(clusters []models.Cluster) (err error) {
	ctx := context.Background()
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "unable to begin a transaction")
	}
	defer func() {
		if err != nil {
			err = multierr.Append(err, tx.Rollback())
		}
	}()

	if _, err = tx.ExecContext(ctx, "delete from clusters"); err != nil {
		return errors.Wrap(err, "clearing clusters")
	}
	query := `insert into clusters(id, workspace_id, context_name, kubeconfig, enabled, managed, display_order, created_at)
		values(?, ?, ?, ?, ?, ?, ?, ?)`
	for _, c := range clusters {
		_, err = tx.ExecContext(ctx, query, c.ID, c.WorkspaceID, c.ContextName, c.Kubeconfig,
			c.Enabled, c.IsManaged, c.DisplayOrder, c.CreatedAt.Format(time.RFC3339Nano))
		if err != nil {
			return errors.Wrapf(err, "inserting cluster %s", c.ID)
		}
	}
	return tx.Commit()
}

func (b *SQLiteBackend) Close() error {
	return b.db.Close()
}

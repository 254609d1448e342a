package blueprint

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// SQLiteRepository implements Repository on a database/sql handle opened with
// the modernc.org/sqlite driver. The handle must have foreign keys enabled for
// Delete to cascade.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new Repository backed by the given SQLite handle.
func NewSQLiteRepository(db *sql.DB) Repository {
	return &SQLiteRepository{db: db}
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS blueprints (
    author TEXT NOT NULL,
    name TEXT NOT NULL,
    PRIMARY KEY (author, name)
);

CREATE TABLE IF NOT EXISTS blueprint_points (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    author TEXT NOT NULL,
    blueprint_name TEXT NOT NULL,
    x INTEGER NOT NULL,
    y INTEGER NOT NULL,
    position_index INTEGER NOT NULL,
    FOREIGN KEY (author, blueprint_name)
        REFERENCES blueprints(author, name)
        ON DELETE CASCADE
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_blueprint_points_position
    ON blueprint_points(author, blueprint_name, position_index);
`

// EnsureSchema creates the blueprint tables if they are missing.
func (r *SQLiteRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, sqliteSchema); err != nil {
		return storageErr("creating schema", err)
	}
	return nil
}

// isSQLiteDuplicate reports a primary key or unique violation. The driver
// enables extended result codes, so other constraint failures stay distinct.
func isSQLiteDuplicate(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	switch sqliteErr.Code() {
	case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE:
		return true
	}
	return false
}

// Save inserts the header and all points of bp in one transaction.
func (r *SQLiteRepository) Save(ctx context.Context, bp *Blueprint) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr("saving blueprint", fmt.Errorf("beginning transaction: %w", err))
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO blueprints (author, name) VALUES (?, ?)`,
		bp.Author, bp.Name,
	)
	if err != nil {
		if isSQLiteDuplicate(err) {
			return ErrDuplicateBlueprint
		}
		return storageErr("saving blueprint", fmt.Errorf("inserting blueprint header: %w", err))
	}

	if len(bp.Points) > 0 {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO blueprint_points (author, blueprint_name, x, y, position_index) VALUES (?, ?, ?, ?, ?)`,
		)
		if err != nil {
			return storageErr("saving blueprint", fmt.Errorf("preparing point insert: %w", err))
		}
		defer stmt.Close()

		for i, p := range bp.Points {
			if _, err := stmt.ExecContext(ctx, bp.Author, bp.Name, p.X, p.Y, i); err != nil {
				return storageErr("saving blueprint", fmt.Errorf("inserting point %d: %w", i, err))
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return storageErr("saving blueprint", fmt.Errorf("committing transaction: %w", err))
	}
	return nil
}

const sqliteSelectRows = `
	SELECT b.author, b.name, p.x, p.y
	FROM blueprints b
	LEFT JOIN blueprint_points p
		ON p.author = b.author AND p.blueprint_name = b.name`

// Get retrieves a single blueprint by author and name.
func (r *SQLiteRepository) Get(ctx context.Context, author, name string) (*Blueprint, error) {
	rows, err := r.queryRows(ctx, "getting blueprint",
		sqliteSelectRows+` WHERE b.author = ? AND b.name = ? ORDER BY p.position_index`,
		author, name,
	)
	if err != nil {
		return nil, err
	}

	blueprints := Fold(rows)
	if len(blueprints) == 0 {
		return nil, ErrBlueprintNotFound
	}
	return &blueprints[0], nil
}

// ListByAuthor retrieves every blueprint owned by author, ordered by name.
func (r *SQLiteRepository) ListByAuthor(ctx context.Context, author string) ([]Blueprint, error) {
	rows, err := r.queryRows(ctx, "listing blueprints by author",
		sqliteSelectRows+` WHERE b.author = ? ORDER BY b.name, p.position_index`,
		author,
	)
	if err != nil {
		return nil, err
	}

	blueprints := Fold(rows)
	if len(blueprints) == 0 {
		return nil, ErrBlueprintNotFound
	}
	return blueprints, nil
}

// List retrieves all blueprints ordered by author and name.
func (r *SQLiteRepository) List(ctx context.Context) ([]Blueprint, error) {
	rows, err := r.queryRows(ctx, "listing blueprints",
		sqliteSelectRows+` ORDER BY b.author, b.name, p.position_index`,
	)
	if err != nil {
		return nil, err
	}
	return Fold(rows), nil
}

func (r *SQLiteRepository) queryRows(ctx context.Context, op, query string, args ...any) ([]Row, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageErr(op, err)
	}
	defer rows.Close()

	var result []Row
	for rows.Next() {
		var (
			row  Row
			x, y sql.NullInt64
		)
		if err := rows.Scan(&row.Author, &row.Name, &x, &y); err != nil {
			return nil, storageErr(op, fmt.Errorf("scanning blueprint row: %w", err))
		}
		row.X = nullableInt(x)
		row.Y = nullableInt(y)
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(op, fmt.Errorf("iterating blueprint rows: %w", err))
	}
	return result, nil
}

func nullableInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}

// AppendPoint inserts p at the next position index. The header check, the
// index computation and the insert are one statement, which SQLite executes
// under its database write lock, so concurrent appends cannot collide.
func (r *SQLiteRepository) AppendPoint(ctx context.Context, author, name string, p Point) (int, error) {
	var index int
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO blueprint_points (author, blueprint_name, x, y, position_index)
		SELECT b.author, b.name, ?, ?,
			(SELECT COALESCE(MAX(position_index), -1) + 1
			 FROM blueprint_points
			 WHERE author = b.author AND blueprint_name = b.name)
		FROM blueprints b
		WHERE b.author = ? AND b.name = ?
		RETURNING position_index`,
		p.X, p.Y, author, name,
	).Scan(&index)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrBlueprintNotFound
		}
		return 0, storageErr("appending point", err)
	}
	return index, nil
}

// Delete removes a blueprint; its points are removed by the cascading foreign key.
func (r *SQLiteRepository) Delete(ctx context.Context, author, name string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM blueprints WHERE author = ? AND name = ?`,
		author, name,
	)
	if err != nil {
		return storageErr("deleting blueprint", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return storageErr("deleting blueprint", err)
	}
	if affected == 0 {
		return ErrBlueprintNotFound
	}

	return nil
}

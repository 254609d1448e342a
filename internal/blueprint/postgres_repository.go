package blueprint

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository implements Repository using pgxpool.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new Repository backed by the given connection pool.
func NewPostgresRepository(pool *pgxpool.Pool) Repository {
	return &PostgresRepository{pool: pool}
}

const postgresSchema = `
CREATE TABLE IF NOT EXISTS blueprints (
    author VARCHAR(120) NOT NULL,
    name VARCHAR(120) NOT NULL,
    PRIMARY KEY (author, name)
);

CREATE TABLE IF NOT EXISTS blueprint_points (
    id BIGSERIAL PRIMARY KEY,
    author VARCHAR(120) NOT NULL,
    blueprint_name VARCHAR(120) NOT NULL,
    x INT NOT NULL,
    y INT NOT NULL,
    position_index INT NOT NULL,
    CONSTRAINT fk_blueprint
        FOREIGN KEY (author, blueprint_name)
        REFERENCES blueprints(author, name)
        ON DELETE CASCADE
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_blueprint_points_position
    ON blueprint_points(author, blueprint_name, position_index);
`

// selectRows is the header LEFT JOIN points query shared by every read. Callers
// append a WHERE clause and the ORDER BY.
const selectRows = `
	SELECT b.author, b.name, p.x, p.y
	FROM blueprints b
	LEFT JOIN blueprint_points p
		ON p.author = b.author AND p.blueprint_name = b.name`

// EnsureSchema creates the blueprint tables if they are missing.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, postgresSchema); err != nil {
		return storageErr("creating schema", err)
	}
	return nil
}

// inTx runs fn in a transaction. Domain errors pass through; anything else is
// wrapped as a StorageError for op.
func (r *PostgresRepository) inTx(ctx context.Context, op string, fn func(tx pgx.Tx) error) error {
	err := pgx.BeginTxFunc(ctx, r.pool, pgx.TxOptions{}, fn)
	if err == nil {
		return nil
	}
	if KindOf(err) != KindStorage || errors.Is(err, ErrStorage) {
		return err
	}
	return storageErr(op, err)
}

// Save inserts the header and all points of bp in one transaction.
func (r *PostgresRepository) Save(ctx context.Context, bp *Blueprint) error {
	return r.inTx(ctx, "saving blueprint", func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO blueprints (author, name) VALUES ($1, $2)`,
			bp.Author, bp.Name,
		)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				return ErrDuplicateBlueprint
			}
			return fmt.Errorf("inserting blueprint header: %w", err)
		}

		if len(bp.Points) == 0 {
			return nil
		}

		_, err = tx.CopyFrom(ctx,
			pgx.Identifier{"blueprint_points"},
			[]string{"author", "blueprint_name", "x", "y", "position_index"},
			pgx.CopyFromSlice(len(bp.Points), func(i int) ([]any, error) {
				p := bp.Points[i]
				return []any{bp.Author, bp.Name, p.X, p.Y, i}, nil
			}),
		)
		if err != nil {
			return fmt.Errorf("inserting blueprint points: %w", err)
		}
		return nil
	})
}

// Get retrieves a single blueprint by author and name.
func (r *PostgresRepository) Get(ctx context.Context, author, name string) (*Blueprint, error) {
	rows, err := r.queryRows(ctx, "getting blueprint",
		selectRows+` WHERE b.author = $1 AND b.name = $2 ORDER BY p.position_index`,
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
func (r *PostgresRepository) ListByAuthor(ctx context.Context, author string) ([]Blueprint, error) {
	rows, err := r.queryRows(ctx, "listing blueprints by author",
		selectRows+` WHERE b.author = $1 ORDER BY b.name, p.position_index`,
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
func (r *PostgresRepository) List(ctx context.Context) ([]Blueprint, error) {
	rows, err := r.queryRows(ctx, "listing blueprints",
		selectRows+` ORDER BY b.author, b.name, p.position_index`,
	)
	if err != nil {
		return nil, err
	}
	return Fold(rows), nil
}

func (r *PostgresRepository) queryRows(ctx context.Context, op, query string, args ...any) ([]Row, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, storageErr(op, err)
	}
	defer rows.Close()

	var result []Row
	for rows.Next() {
		var row Row
		if err := rows.Scan(&row.Author, &row.Name, &row.X, &row.Y); err != nil {
			return nil, storageErr(op, fmt.Errorf("scanning blueprint row: %w", err))
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(op, fmt.Errorf("iterating blueprint rows: %w", err))
	}
	return result, nil
}

// AppendPoint locks the blueprint header and inserts p at the next position
// index. Concurrent appends to the same blueprint wait on the row lock.
func (r *PostgresRepository) AppendPoint(ctx context.Context, author, name string, p Point) (int, error) {
	var index int
	err := r.inTx(ctx, "appending point", func(tx pgx.Tx) error {
		var one int
		err := tx.QueryRow(ctx,
			`SELECT 1 FROM blueprints WHERE author = $1 AND name = $2 FOR UPDATE`,
			author, name,
		).Scan(&one)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrBlueprintNotFound
			}
			return fmt.Errorf("locking blueprint header: %w", err)
		}

		err = tx.QueryRow(ctx, `
			INSERT INTO blueprint_points (author, blueprint_name, x, y, position_index)
			SELECT $1::varchar, $2::varchar, $3::int, $4::int, COALESCE(MAX(position_index), -1) + 1
			FROM blueprint_points
			WHERE author = $1 AND blueprint_name = $2
			RETURNING position_index`,
			author, name, p.X, p.Y,
		).Scan(&index)
		if err != nil {
			return fmt.Errorf("inserting point: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return index, nil
}

// Delete removes a blueprint; its points are removed by the cascading foreign key.
func (r *PostgresRepository) Delete(ctx context.Context, author, name string) error {
	result, err := r.pool.Exec(ctx,
		`DELETE FROM blueprints WHERE author = $1 AND name = $2`,
		author, name,
	)
	if err != nil {
		return storageErr("deleting blueprint", err)
	}

	if result.RowsAffected() == 0 {
		return ErrBlueprintNotFound
	}

	return nil
}

package report

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iago/geo-visibility-back/internal/domain"
)

const reportsSchema = `
CREATE TABLE IF NOT EXISTS reports (
	id            TEXT PRIMARY KEY,
	file_name     TEXT NOT NULL UNIQUE,
	status        TEXT NOT NULL,
	error_message TEXT NOT NULL DEFAULT '',
	created_at    TIMESTAMPTZ NOT NULL,
	updated_at    TIMESTAMPTZ NOT NULL
)`

const reportColumns = `id, file_name, status, error_message, created_at, updated_at`

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create pg pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping pg: %w", err)
	}
	if _, err := pool.Exec(ctx, reportsSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure reports table: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) Create(ctx context.Context, report *domain.Report) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO reports (`+reportColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6)
	`,
		report.ID,
		report.FileName,
		string(report.Status),
		report.Error,
		report.CreatedAt,
		report.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateStatus(
	ctx context.Context,
	id string,
	status domain.ReportStatus,
	errMsg string,
	at time.Time,
) (*domain.Report, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE reports
		SET status = $2,
			error_message = COALESCE(NULLIF($3::text, ''), error_message),
			updated_at = $4
		WHERE id = $1
		RETURNING `+reportColumns,
		id, string(status), errMsg, at,
	)
	report, err := scanReport(row)
	if err != nil {
		return nil, fmt.Errorf("update report status: %w", err)
	}
	return report, nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*domain.Report, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+reportColumns+` FROM reports WHERE id = $1`, id)
	report, err := scanReport(row)
	if err != nil {
		return nil, fmt.Errorf("query report: %w", err)
	}
	return report, nil
}

func (s *PostgresStore) FindByFileName(ctx context.Context, fileName string) (*domain.Report, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+reportColumns+` FROM reports WHERE file_name = $1`, fileName)
	report, err := scanReport(row)
	if err != nil {
		return nil, fmt.Errorf("query report by file name: %w", err)
	}
	return report, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]*domain.Report, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+reportColumns+`
		FROM reports
		ORDER BY created_at DESC, file_name DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	items := make([]*domain.Report, 0)
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		items = append(items, report)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate reports: %w", rows.Err())
	}
	return items, nil
}

func scanReport(row pgx.Row) (*domain.Report, error) {
	var (
		report domain.Report
		status string
	)
	err := row.Scan(
		&report.ID,
		&report.FileName,
		&status,
		&report.Error,
		&report.CreatedAt,
		&report.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	report.Status = domain.ReportStatus(status)
	return &report, nil
}

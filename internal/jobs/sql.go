package jobs

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
	"resumatch/internal/config"
	"resumatch/internal/errors"
	"resumatch/internal/types"
)

const defaultQueryTimeout = 10 * time.Second

// SQLSource reads jobs from a table in SQLite or PostgreSQL. Only SELECT
// statements are issued. Columns missing from the table are left empty and
// extra columns are ignored.
type SQLSource struct {
	db      *sqlx.DB
	driver  string
	table   string
	timeout time.Duration
}

type jobRow struct {
	ID              column `db:"id"`
	Title           column `db:"job_title"`
	Company         column `db:"company_name"`
	Description     column `db:"job_description"`
	Location        column `db:"location"`
	JobType         column `db:"job_type"`
	SalaryRange     column `db:"salary_range"`
	ExperienceLevel column `db:"experience_level"`
	SkillsRequired  column `db:"skills_required"`
	Industry        column `db:"industry"`
	PostedDate      column `db:"posted_date"`
	EmploymentMode  column `db:"employment_mode"`
}

// column scans any driver value as text; NULL becomes "".
type column string

func (c *column) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*c = ""
	case string:
		*c = column(v)
	case []byte:
		*c = column(v)
	case time.Time:
		*c = column(v.Format("2006-01-02"))
	default:
		*c = column(fmt.Sprint(v))
	}
	return nil
}

func (r jobRow) record() types.JobRecord {
	return normalize(types.JobRecord{
		ID:              string(r.ID),
		Title:           string(r.Title),
		Company:         string(r.Company),
		Description:     string(r.Description),
		Location:        string(r.Location),
		JobType:         string(r.JobType),
		SalaryRange:     string(r.SalaryRange),
		ExperienceLevel: string(r.ExperienceLevel),
		SkillsRequired:  string(r.SkillsRequired),
		Industry:        string(r.Industry),
		PostedDate:      string(r.PostedDate),
		EmploymentMode:  string(r.EmploymentMode),
	})
}

// OpenSQL connects to the configured database and verifies it with a ping.
func OpenSQL(ctx context.Context, cfg config.JobsConfig) (*SQLSource, error) {
	driver, dsn, err := driverAndDSN(cfg)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, sourceFailed("failed to connect to jobs database", err)
	}

	maxOpen := cfg.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 4
	}
	if driver == "sqlite" {
		maxOpen = 1
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetConnMaxLifetime(5 * time.Minute)

	table := cfg.Table
	if table == "" {
		table = "jobs"
	}
	timeout := cfg.QueryTimeout
	if timeout <= 0 {
		timeout = defaultQueryTimeout
	}

	return &SQLSource{db: db.Unsafe(), driver: driver, table: table, timeout: timeout}, nil
}

func driverAndDSN(cfg config.JobsConfig) (string, string, error) {
	switch strings.ToLower(cfg.Source) {
	case "sqlite":
		if cfg.DSN != "" {
			return "sqlite", cfg.DSN, nil
		}
		if cfg.Path == "" {
			return "", "", errors.NewConfigError(errors.ErrCodeInvalidConfig, "sqlite job source needs a path or dsn", nil)
		}
		return "sqlite", fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", cfg.Path), nil
	case "postgres":
		if cfg.DSN == "" {
			return "", "", errors.NewConfigError(errors.ErrCodeInvalidConfig, "postgres job source needs a dsn", nil)
		}
		return "pgx", cfg.DSN, nil
	default:
		return "", "", errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("not a SQL job source: %s", cfg.Source), nil)
	}
}

func (s *SQLSource) Name() string {
	if s.driver == "pgx" {
		return "postgres"
	}
	return s.driver
}

func (s *SQLSource) List(ctx context.Context) ([]types.JobRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var rows []jobRow
	// The table name is validated as an identifier by config.Validate.
	query := fmt.Sprintf("SELECT * FROM %s", s.table)
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, sourceFailed("failed to list jobs", err)
	}

	jobs := make([]types.JobRecord, 0, len(rows))
	for _, r := range rows {
		jobs = append(jobs, r.record())
	}
	return jobs, nil
}

func (s *SQLSource) Get(ctx context.Context, id string) (types.JobRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var row jobRow
	query := s.db.Rebind(fmt.Sprintf("SELECT * FROM %s WHERE CAST(id AS TEXT) = ?", s.table))
	if err := s.db.GetContext(ctx, &row, query, id); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return types.JobRecord{}, notFound(id)
		}
		return types.JobRecord{}, sourceFailed("failed to load job", err)
	}
	return row.record(), nil
}

func (s *SQLSource) Close() error {
	return s.db.Close()
}

package marker

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/rxtech-lab/argo-backtest/internal/logger"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"go.uber.org/zap"
)

// DuckDBMarker records marks in an in-memory DuckDB table so they can be
// exported as parquet next to the other run results.
type DuckDBMarker struct {
	db     *sql.DB
	logger *logger.Logger
	sq     squirrel.StatementBuilderType
}

func NewDuckDBMarker(log *logger.Logger) (*DuckDBMarker, error) {
	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		log.Error("Failed to open database", zap.Error(err))

		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		log.Error("Failed to connect to database", zap.Error(err))
		db.Close()

		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	marker := &DuckDBMarker{
		db:     db,
		logger: log,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}

	if err := marker.initialize(); err != nil {
		db.Close()

		return nil, err
	}

	return marker, nil
}

func (m *DuckDBMarker) Mark(mark types.Mark) error {
	if m == nil || m.db == nil {
		return fmt.Errorf("marker database is nil")
	}

	var nextID int
	if err := m.db.QueryRow("SELECT nextval('mark_id_seq')").Scan(&nextID); err != nil {
		return fmt.Errorf("failed to get next ID from sequence: %w", err)
	}

	_, err := m.sq.
		Insert("marks").
		Columns("id", "bar_index", "time", "color", "shape", "title", "message", "category").
		Values(nextID, mark.BarIndex, mark.Time, string(mark.Color), string(mark.Shape), mark.Title, mark.Message, mark.Category).
		RunWith(m.db).
		Exec()
	if err != nil {
		return fmt.Errorf("failed to insert mark: %w", err)
	}

	return nil
}

func (m *DuckDBMarker) Marks() ([]types.Mark, error) {
	if m == nil || m.db == nil {
		return nil, fmt.Errorf("marker database is nil")
	}

	rows, err := m.sq.
		Select("bar_index", "time", "color", "shape", "title", "message", "category").
		From("marks").
		OrderBy("id ASC").
		RunWith(m.db).
		Query()
	if err != nil {
		return nil, fmt.Errorf("failed to query marks: %w", err)
	}
	defer rows.Close()

	var marks []types.Mark

	for rows.Next() {
		var mark types.Mark

		var color, shape string

		if err := rows.Scan(&mark.BarIndex, &mark.Time, &color, &shape, &mark.Title, &mark.Message, &mark.Category); err != nil {
			return nil, fmt.Errorf("failed to scan mark: %w", err)
		}

		mark.Color = types.MarkColor(color)
		mark.Shape = types.MarkShape(shape)
		marks = append(marks, mark)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating marks: %w", err)
	}

	return marks, nil
}

// Write exports the marks to marks.parquet under dir.
func (m *DuckDBMarker) Write(dir string) error {
	if m == nil || m.db == nil {
		return fmt.Errorf("marker database is nil")
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	marksPath := filepath.Join(dir, "marks.parquet")

	if _, err := m.db.Exec(fmt.Sprintf(`COPY (SELECT * FROM marks ORDER BY id) TO '%s' (FORMAT PARQUET)`, marksPath)); err != nil {
		return fmt.Errorf("failed to export marks to Parquet: %w", err)
	}

	m.logger.Debug("Exported marks", zap.String("path", marksPath))

	return nil
}

// Cleanup drops every mark and restarts the id sequence.
func (m *DuckDBMarker) Cleanup() error {
	if m == nil || m.db == nil {
		return fmt.Errorf("marker database is nil")
	}

	if _, err := m.db.Exec(`
		DROP TABLE IF EXISTS marks;
		DROP SEQUENCE IF EXISTS mark_id_seq;
	`); err != nil {
		return fmt.Errorf("failed to cleanup marks table: %w", err)
	}

	return m.initialize()
}

func (m *DuckDBMarker) Close() error {
	if m == nil || m.db == nil {
		return nil
	}

	return m.db.Close()
}

func (m *DuckDBMarker) initialize() error {
	if _, err := m.db.Exec(`CREATE SEQUENCE IF NOT EXISTS mark_id_seq`); err != nil {
		return fmt.Errorf("failed to create sequence: %w", err)
	}

	_, err := m.db.Exec(`
		CREATE TABLE IF NOT EXISTS marks (
			id INTEGER PRIMARY KEY,
			bar_index INTEGER,
			time TIMESTAMP,
			color TEXT,
			shape TEXT,
			title TEXT,
			message TEXT,
			category TEXT
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create marks table: %w", err)
	}

	return nil
}

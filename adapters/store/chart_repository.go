package store

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"vizgo/domain/chart"
	"vizgo/domain/core"
	"vizgo/domain/run"
	"vizgo/internal/errors"
	"vizgo/ports"

	"github.com/jmoiron/sqlx"
)

// ChartRepositoryImpl implements ChartRepository over sqlx
type ChartRepositoryImpl struct {
	db *sqlx.DB
}

var _ ports.ChartRepository = (*ChartRepositoryImpl)(nil)

// NewChartRepository creates a new chart repository
func NewChartRepository(db *sqlx.DB) *ChartRepositoryImpl {
	return &ChartRepositoryImpl{db: db}
}

// chartRow is the persisted form of a chart
type chartRow struct {
	ID             string         `db:"id"`
	RunID          string         `db:"run_id"`
	CandidateIndex int            `db:"candidate_index"`
	CandidateHash  string         `db:"candidate_hash"`
	Library        string         `db:"library"`
	Status         bool           `db:"status"`
	Code           string         `db:"code"`
	Spec           sql.NullString `db:"spec"`
	Raster         sql.NullString `db:"raster"`
	ErrorMessage   sql.NullString `db:"error_message"`
	Traceback      sql.NullString `db:"traceback"`
	CreatedAt      time.Time      `db:"created_at"`
}

func toRow(runID core.RunID, c chart.Chart, at time.Time) (chartRow, error) {
	row := chartRow{
		ID:             c.ID.String(),
		RunID:          runID.String(),
		CandidateIndex: c.CandidateIndex,
		CandidateHash:  c.CandidateHash.String(),
		Library:        c.Library.String(),
		Status:         c.Status,
		Code:           c.Code,
		Raster:         sql.NullString{String: c.Raster, Valid: c.Raster != ""},
		CreatedAt:      at,
	}
	if c.Spec != nil {
		raw, err := json.Marshal(c.Spec)
		if err != nil {
			return row, fmt.Errorf("encode spec of chart %s: %w", c.ID, err)
		}
		row.Spec = sql.NullString{String: string(raw), Valid: true}
	}
	if c.Error != nil {
		row.ErrorMessage = sql.NullString{String: c.Error.Message, Valid: true}
		row.Traceback = sql.NullString{String: c.Error.Traceback, Valid: true}
	}
	return row, nil
}

func (r chartRow) toChart() (chart.Chart, error) {
	c := chart.Chart{
		ID:             core.ChartID(r.ID),
		Raster:         r.Raster.String,
		Status:         r.Status,
		Code:           r.Code,
		Library:        chart.Library(r.Library),
		CandidateIndex: r.CandidateIndex,
		CandidateHash:  core.Hash(r.CandidateHash),
	}
	if r.Spec.Valid {
		if err := json.Unmarshal([]byte(r.Spec.String), &c.Spec); err != nil {
			return c, fmt.Errorf("decode spec of chart %s: %w", r.ID, err)
		}
	}
	if r.ErrorMessage.Valid {
		c.Error = &chart.Error{Message: r.ErrorMessage.String, Traceback: r.Traceback.String}
	}
	return c, nil
}

const runColumns = `id, dataset_name, question, visualization, library, debug, status,
	candidate_count, chart_count, success_count, fingerprint, error, started_at, completed_at`

const chartColumns = `id, run_id, candidate_index, candidate_hash, library, status, code,
	spec, raster, error_message, traceback, created_at`

// SaveRun upserts a run and replaces its charts in one transaction
func (r *ChartRepositoryImpl) SaveRun(ctx context.Context, rn *run.Run, charts []chart.Chart) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.WithCode(errors.CodeDatabaseError, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM charts WHERE run_id = ?`), rn.ID.String()); err != nil {
		return errors.Wrap(err, "failed to clear charts")
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM viz_runs WHERE id = ?`), rn.ID.String()); err != nil {
		return errors.Wrap(err, "failed to clear run")
	}

	if _, err := tx.NamedExecContext(ctx, `
		INSERT INTO viz_runs (`+runColumns+`) VALUES (
			:id, :dataset_name, :question, :visualization, :library, :debug, :status,
			:candidate_count, :chart_count, :success_count, :fingerprint, :error, :started_at, :completed_at
		)`, rn); err != nil {
		return errors.Wrap(err, "failed to insert run")
	}

	now := time.Now().UTC()
	for _, c := range charts {
		row, err := toRow(rn.ID, c, now)
		if err != nil {
			return err
		}
		if _, err := tx.NamedExecContext(ctx, `
			INSERT INTO charts (`+chartColumns+`) VALUES (
				:id, :run_id, :candidate_index, :candidate_hash, :library, :status, :code,
				:spec, :raster, :error_message, :traceback, :created_at
			)`, row); err != nil {
			return errors.Wrapf(err, "failed to insert chart %d", c.CandidateIndex)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.WithCode(errors.CodeDatabaseError, err)
	}
	return nil
}

// GetRun retrieves a run by ID
func (r *ChartRepositoryImpl) GetRun(ctx context.Context, id core.RunID) (*run.Run, error) {
	var rn run.Run
	err := r.db.GetContext(ctx, &rn, r.db.Rebind(`SELECT `+runColumns+` FROM viz_runs WHERE id = ?`), id.String())
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NotFound("run")
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get run")
	}
	return &rn, nil
}

// ListRuns returns runs newest first
func (r *ChartRepositoryImpl) ListRuns(ctx context.Context, limit, offset int) ([]*run.Run, error) {
	if limit <= 0 {
		limit = 50
	}
	var runs []*run.Run
	err := r.db.SelectContext(ctx, &runs, r.db.Rebind(`
		SELECT `+runColumns+` FROM viz_runs
		ORDER BY started_at DESC, id DESC
		LIMIT ? OFFSET ?`), limit, offset)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list runs")
	}
	return runs, nil
}

// ListCharts returns the charts of a run in candidate order
func (r *ChartRepositoryImpl) ListCharts(ctx context.Context, id core.RunID) ([]chart.Chart, error) {
	var rows []chartRow
	err := r.db.SelectContext(ctx, &rows, r.db.Rebind(`
		SELECT `+chartColumns+` FROM charts
		WHERE run_id = ?
		ORDER BY candidate_index`), id.String())
	if err != nil {
		return nil, errors.Wrap(err, "failed to list charts")
	}
	out := make([]chart.Chart, 0, len(rows))
	for _, row := range rows {
		c, err := row.toChart()
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// GetChart retrieves a single chart
func (r *ChartRepositoryImpl) GetChart(ctx context.Context, id core.ChartID) (*chart.Chart, error) {
	var row chartRow
	err := r.db.GetContext(ctx, &row, r.db.Rebind(`SELECT `+chartColumns+` FROM charts WHERE id = ?`), id.String())
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NotFound("chart")
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get chart")
	}
	c, err := row.toChart()
	if err != nil {
		return nil, err
	}
	return &c, nil
}

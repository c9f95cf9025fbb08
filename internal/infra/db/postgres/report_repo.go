package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	domain "github.com/bryanwahyu/animal-aid/internal/domain/reports"
)

type ReportRepository struct {
	db *sql.DB
}

func NewReportRepository(db *sql.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// Save inserts a report; reports are never updated
func (r *ReportRepository) Save(ctx context.Context, rep *domain.InjuryReport) error {
	const q = `
INSERT INTO injury_reports
  (report_id, user_id, image_key, image_url, location, latitude, longitude, report_data, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9);
`
	createdAt := rep.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, q,
		string(rep.ID), stringOrDash(rep.SubmitterID), rep.ImageKey, rep.ImageURL,
		rep.LocationRaw, rep.Latitude, rep.Longitude, rep.Analysis, createdAt,
	)
	return err
}

func (r *ReportRepository) Get(ctx context.Context, id domain.ReportID) (*domain.InjuryReport, error) {
	const q = `
SELECT report_id, user_id, image_key, image_url, location, latitude, longitude, report_data, created_at
FROM injury_reports
WHERE report_id=$1;`
	rep, err := scanReport(r.db.QueryRowContext(ctx, q, string(id)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return rep, err
}

// ListAll returns every report ordered by created_at desc
func (r *ReportRepository) ListAll(ctx context.Context) ([]*domain.InjuryReport, error) {
	const q = `
SELECT report_id, user_id, image_key, image_url, location, latitude, longitude, report_data, created_at
FROM injury_reports
ORDER BY created_at DESC, report_id DESC;`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*domain.InjuryReport{}
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rep)
	}
	return out, rows.Err()
}

func scanReport(s scanner) (*domain.InjuryReport, error) {
	var rep domain.InjuryReport
	var id string
	var created time.Time
	if err := s.Scan(&id, &rep.SubmitterID, &rep.ImageKey, &rep.ImageURL, &rep.LocationRaw,
		&rep.Latitude, &rep.Longitude, &rep.Analysis, &created); err != nil {
		return nil, err
	}
	rep.ID = domain.ReportID(id)
	rep.CreatedAt = created.UTC()
	return &rep, nil
}

package db

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/rwandatech/byaboneka-plus/internal/apperr"
	"github.com/rwandatech/byaboneka-plus/pkg/models"
)

// CreateScamReport persists a citizen's accusation against reportedUserID,
// pending operator review.
func (s *Store) CreateScamReport(r models.ScamReport) (models.ScamReport, error) {
	r.ID = uuid.NewString()
	r.CreatedAt = time.Now()
	_, err := s.pool.Exec(context.Background(), `
		INSERT INTO scam_reports (id, reported_user_id, reporter_user_id, reason, status, created_at)
		VALUES ($1,$2,$3,$4,'pending',$5)`,
		r.ID, r.ReportedUserID, r.ReporterUserID, r.Reason, r.CreatedAt)
	if err != nil {
		return models.ScamReport{}, err
	}
	r.Status = models.ScamReportPending
	return r, nil
}

// CountReportsByUserLastDay feeds the report_cap enforcement.
func (s *Store) CountReportsByUserLastDay(reporterID string) (int, error) {
	var count int
	err := s.pool.QueryRow(context.Background(), `
		SELECT COUNT(*) FROM scam_reports
		WHERE reporter_user_id=$1 AND created_at > now() - interval '24 hours'`, reporterID).Scan(&count)
	return count, err
}

// ScamReportByID implements the admin resolution read path.
func (s *Store) ScamReportByID(id string) (models.ScamReport, error) {
	var r models.ScamReport
	err := s.pool.QueryRow(context.Background(), `
		SELECT id, reported_user_id, reporter_user_id, reason, status, created_at, resolved_at
		FROM scam_reports WHERE id=$1`, id,
	).Scan(&r.ID, &r.ReportedUserID, &r.ReporterUserID, &r.Reason, &r.Status, &r.CreatedAt, &r.ResolvedAt)
	if err == pgx.ErrNoRows {
		return models.ScamReport{}, apperr.New(apperr.KindNotFound, "scam report not found")
	}
	return r, err
}

// ResolveScamReport closes out a pending report with the operator's
// verdict (confirmed or dismissed).
func (s *Store) ResolveScamReport(id string, status models.ScamReportStatus) error {
	_, err := s.pool.Exec(context.Background(), `
		UPDATE scam_reports SET status=$2, resolved_at=now() WHERE id=$1`, id, status)
	return err
}

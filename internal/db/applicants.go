package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/recruit-grader/internal/types"
)

// -----------------------------------------------------------------------------
// Applicant Methods
// -----------------------------------------------------------------------------

const applicantColumns = `id, anonymous_id, semester, first_name, last_name, COALESCE(pronouns, ''),
	email, phone_number, major, graduation_year, gender, spanish_fluent, can_attend_camp,
	status, total_score, created_at`

func scanApplicant(row pgx.Row) (*types.Applicant, error) {
	var (
		a      types.Applicant
		id     uuid.UUID
		status string
	)
	err := row.Scan(&id, &a.AnonymousID, &a.Cycle, &a.FirstName, &a.LastName, &a.Pronouns,
		&a.Email, &a.PhoneNumber, &a.Major, &a.GraduationYear, &a.Gender, &a.SpanishFluent,
		&a.CanAttendCamp, &status, &a.TotalScore, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	a.ID = types.ApplicantID(id.String())
	a.Status = types.Status(status)
	return &a, nil
}

// ListApplicants returns every applicant of a cycle ordered by anonymous ID
func (db *DB) ListApplicants(ctx context.Context, cycle string) ([]types.Applicant, error) {
	rows, err := db.q.Query(ctx,
		`SELECT `+applicantColumns+`
		 FROM applications WHERE semester = $1
		 ORDER BY anonymous_id, id`,
		cycle,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list applicants: %w", err)
	}
	defer rows.Close()

	var apps []types.Applicant
	for rows.Next() {
		a, err := scanApplicant(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan applicant: %w", err)
		}
		apps = append(apps, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list applicants: %w", err)
	}
	return apps, nil
}

// GetApplicant retrieves an applicant by ID
func (db *DB) GetApplicant(ctx context.Context, id types.ApplicantID) (*types.Applicant, error) {
	uid, err := uuid.Parse(string(id))
	if err != nil {
		// A malformed ID cannot match any row.
		return nil, nil
	}
	a, err := scanApplicant(db.q.QueryRow(ctx,
		`SELECT `+applicantColumns+` FROM applications WHERE id = $1`,
		uid,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get applicant: %w", err)
	}
	return a, nil
}

// UpdateApplicantScore stores the cached total score (NULL when score is nil)
func (db *DB) UpdateApplicantScore(ctx context.Context, id types.ApplicantID, score *float64) error {
	uid, err := parseID(id)
	if err != nil {
		return err
	}
	tag, err := db.q.Exec(ctx,
		`UPDATE applications SET total_score = $1 WHERE id = $2`,
		score, uid,
	)
	if err != nil {
		return fmt.Errorf("failed to update total score for %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to update total score for %s: no such applicant", id)
	}
	return nil
}

// UpdateApplicantStatus sets the status of one applicant
func (db *DB) UpdateApplicantStatus(ctx context.Context, id types.ApplicantID, status types.Status) error {
	uid, err := parseID(id)
	if err != nil {
		return err
	}
	tag, err := db.q.Exec(ctx,
		`UPDATE applications SET status = $1 WHERE id = $2`,
		string(status), uid,
	)
	if err != nil {
		return fmt.Errorf("failed to update status for %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to update status for %s: no such applicant", id)
	}
	return nil
}

// BulkUpdateApplicantStatus sets status on every listed applicant that is not
// already accepted or rejected
func (db *DB) BulkUpdateApplicantStatus(ctx context.Context, ids []types.ApplicantID, status types.Status) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	uids, err := parseIDs(ids)
	if err != nil {
		return 0, err
	}
	tag, err := db.q.Exec(ctx,
		`UPDATE applications SET status = $1
		 WHERE id = ANY($2) AND status NOT IN ('accepted', 'rejected')`,
		string(status), uids,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to update status to %s: %w", status, err)
	}
	return int(tag.RowsAffected()), nil
}

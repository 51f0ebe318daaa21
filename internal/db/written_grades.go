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
// Written Grade Methods
// -----------------------------------------------------------------------------

func scanWrittenGrade(row pgx.Row) (*types.WrittenGrade, error) {
	var (
		g                       types.WrittenGrade
		id, applicant, graderID uuid.UUID
	)
	if err := row.Scan(&id, &applicant, &graderID, &g.QuestionNumber, &g.Score, &g.CreatedAt); err != nil {
		return nil, err
	}
	g.ID = types.GradeID(id.String())
	g.ApplicantID = types.ApplicantID(applicant.String())
	g.GraderID = types.GraderID(graderID.String())
	return &g, nil
}

// ListWrittenGrades returns every written slot of the given applicants
func (db *DB) ListWrittenGrades(ctx context.Context, ids []types.ApplicantID) ([]types.WrittenGrade, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	uids, err := parseIDs(ids)
	if err != nil {
		return nil, err
	}
	rows, err := db.q.Query(ctx,
		`SELECT id, application_id, grader_id, question_number, score, created_at
		 FROM written_grades WHERE application_id = ANY($1)
		 ORDER BY application_id, grader_id, question_number`,
		uids,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list written grades: %w", err)
	}
	defer rows.Close()

	var grades []types.WrittenGrade
	for rows.Next() {
		g, err := scanWrittenGrade(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan written grade: %w", err)
		}
		grades = append(grades, *g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list written grades: %w", err)
	}
	return grades, nil
}

// CountWrittenGrades counts written slots (graded or not) for the given applicants
func (db *DB) CountWrittenGrades(ctx context.Context, ids []types.ApplicantID) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	uids, err := parseIDs(ids)
	if err != nil {
		return 0, err
	}
	var n int
	err = db.q.QueryRow(ctx,
		`SELECT COUNT(*) FROM written_grades WHERE application_id = ANY($1)`,
		uids,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count written grades: %w", err)
	}
	return n, nil
}

// GetWrittenGrade retrieves one written slot by ID
func (db *DB) GetWrittenGrade(ctx context.Context, id types.GradeID) (*types.WrittenGrade, error) {
	uid, err := uuid.Parse(string(id))
	if err != nil {
		return nil, nil
	}
	g, err := scanWrittenGrade(db.q.QueryRow(ctx,
		`SELECT id, application_id, grader_id, question_number, score, created_at
		 FROM written_grades WHERE id = $1`,
		uid,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get written grade: %w", err)
	}
	return g, nil
}

// BulkInsertWrittenGrades inserts unscored slots with COPY. The whole call
// succeeds or fails as one statement.
func (db *DB) BulkInsertWrittenGrades(ctx context.Context, rows []types.NewWrittenGrade) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	src := make([][]any, 0, len(rows))
	for _, r := range rows {
		applicant, err := parseID(r.ApplicantID)
		if err != nil {
			return 0, err
		}
		grader, err := parseID(r.GraderID)
		if err != nil {
			return 0, err
		}
		src = append(src, []any{applicant, grader, r.QuestionNumber})
	}
	n, err := db.q.CopyFrom(ctx,
		pgx.Identifier{"written_grades"},
		[]string{"application_id", "grader_id", "question_number"},
		pgx.CopyFromRows(src),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert written grades: %w", err)
	}
	return int(n), nil
}

// UpdateWrittenScore records the score of one written slot
func (db *DB) UpdateWrittenScore(ctx context.Context, id types.GradeID, score int) error {
	uid, err := parseID(id)
	if err != nil {
		return err
	}
	tag, err := db.q.Exec(ctx,
		`UPDATE written_grades SET score = $1 WHERE id = $2`,
		score, uid,
	)
	if err != nil {
		return fmt.Errorf("failed to update written score: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to update written score: no such grade %s", id)
	}
	return nil
}

// DeleteUngradedWrittenGrades removes the applicant's slots that carry no score
func (db *DB) DeleteUngradedWrittenGrades(ctx context.Context, id types.ApplicantID) (int, error) {
	uid, err := parseID(id)
	if err != nil {
		return 0, err
	}
	tag, err := db.q.Exec(ctx,
		`DELETE FROM written_grades WHERE application_id = $1 AND score IS NULL`,
		uid,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete ungraded written grades: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

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
// Interview Assignment Methods
// -----------------------------------------------------------------------------

// SubSections is the number of scored sub-sections per interview assignment.
const SubSections = 2

func scanAssignment(row pgx.Row) (*types.InterviewAssignment, error) {
	var (
		a                       types.InterviewAssignment
		id, applicant, graderID uuid.UUID
	)
	if err := row.Scan(&id, &applicant, &graderID, &a.Round, &a.CreatedAt); err != nil {
		return nil, err
	}
	a.ID = types.AssignmentID(id.String())
	a.ApplicantID = types.ApplicantID(applicant.String())
	a.GraderID = types.GraderID(graderID.String())
	return &a, nil
}

// ListInterviewAssignments returns the assignments of the given applicants
func (db *DB) ListInterviewAssignments(ctx context.Context, ids []types.ApplicantID) ([]types.InterviewAssignment, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	uids, err := parseIDs(ids)
	if err != nil {
		return nil, err
	}
	rows, err := db.q.Query(ctx,
		`SELECT id, application_id, grader_id, section, created_at
		 FROM interview_assignments WHERE application_id = ANY($1)
		 ORDER BY created_at, id`,
		uids,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list interview assignments: %w", err)
	}
	defer rows.Close()

	var out []types.InterviewAssignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan interview assignment: %w", err)
		}
		out = append(out, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list interview assignments: %w", err)
	}
	return out, nil
}

// GetInterviewAssignment retrieves one assignment by ID
func (db *DB) GetInterviewAssignment(ctx context.Context, id types.AssignmentID) (*types.InterviewAssignment, error) {
	uid, err := uuid.Parse(string(id))
	if err != nil {
		return nil, nil
	}
	a, err := scanAssignment(db.q.QueryRow(ctx,
		`SELECT id, application_id, grader_id, section, created_at
		 FROM interview_assignments WHERE id = $1`,
		uid,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get interview assignment: %w", err)
	}
	return a, nil
}

// InsertInterviewAssignments creates assignments and one unscored slot per
// sub-section, atomically
func (db *DB) InsertInterviewAssignments(ctx context.Context, rows []types.NewInterviewAssignment) ([]types.InterviewAssignment, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	out := make([]types.InterviewAssignment, 0, len(rows))
	err := db.atomically(ctx, func(q querier) error {
		for _, r := range rows {
			applicant, err := parseID(r.ApplicantID)
			if err != nil {
				return err
			}
			grader, err := parseID(r.GraderID)
			if err != nil {
				return err
			}
			a, err := scanAssignment(q.QueryRow(ctx,
				`INSERT INTO interview_assignments (application_id, grader_id, section)
				 VALUES ($1, $2, $3)
				 RETURNING id, application_id, grader_id, section, created_at`,
				applicant, grader, r.Round,
			))
			if err != nil {
				return fmt.Errorf("failed to insert interview assignment: %w", err)
			}
			out = append(out, *a)
		}

		batch := &pgx.Batch{}
		for _, a := range out {
			uid, _ := uuid.Parse(string(a.ID))
			for sub := 1; sub <= SubSections; sub++ {
				batch.Queue(
					`INSERT INTO interview_scores (assignment_id, sub_section) VALUES ($1, $2)`,
					uid, sub,
				)
			}
		}
		br := q.SendBatch(ctx, batch)
		for i := 0; i < batch.Len(); i++ {
			if _, err := br.Exec(); err != nil {
				_ = br.Close()
				return fmt.Errorf("failed to insert interview score slot: %w", err)
			}
		}
		return br.Close()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteAssignments removes the applicant's assignments for a round that carry
// no score and no notes
func (db *DB) DeleteAssignments(ctx context.Context, id types.ApplicantID, round int) (int, error) {
	uid, err := parseID(id)
	if err != nil {
		return 0, err
	}
	tag, err := db.q.Exec(ctx,
		`DELETE FROM interview_assignments ia
		 WHERE ia.application_id = $1 AND ia.section = $2
		   AND NOT EXISTS (SELECT 1 FROM interview_scores s
		                   WHERE s.assignment_id = ia.id AND s.score IS NOT NULL)
		   AND NOT EXISTS (SELECT 1 FROM interview_notes n
		                   WHERE n.assignment_id = ia.id AND btrim(n.notes) <> '')`,
		uid, round,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete interview assignments: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// -----------------------------------------------------------------------------
// Interview Score and Note Methods
// -----------------------------------------------------------------------------

// ListInterviewScores returns every score slot of the given assignments
func (db *DB) ListInterviewScores(ctx context.Context, ids []types.AssignmentID) ([]types.InterviewScore, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	uids, err := parseIDs(ids)
	if err != nil {
		return nil, err
	}
	rows, err := db.q.Query(ctx,
		`SELECT assignment_id, sub_section, score
		 FROM interview_scores WHERE assignment_id = ANY($1)
		 ORDER BY assignment_id, sub_section`,
		uids,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list interview scores: %w", err)
	}
	defer rows.Close()

	var out []types.InterviewScore
	for rows.Next() {
		var (
			s   types.InterviewScore
			aid uuid.UUID
		)
		if err := rows.Scan(&aid, &s.SubSection, &s.Score); err != nil {
			return nil, fmt.Errorf("failed to scan interview score: %w", err)
		}
		s.AssignmentID = types.AssignmentID(aid.String())
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list interview scores: %w", err)
	}
	return out, nil
}

// UpsertInterviewScore writes the score of one sub-section
func (db *DB) UpsertInterviewScore(ctx context.Context, id types.AssignmentID, subSection, score int) error {
	uid, err := parseID(id)
	if err != nil {
		return err
	}
	_, err = db.q.Exec(ctx,
		`INSERT INTO interview_scores (assignment_id, sub_section, score)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (assignment_id, sub_section) DO UPDATE SET score = EXCLUDED.score`,
		uid, subSection, score,
	)
	if err != nil {
		return fmt.Errorf("failed to save interview score: %w", err)
	}
	return nil
}

// ListInterviewNotes returns the notes of the given assignments
func (db *DB) ListInterviewNotes(ctx context.Context, ids []types.AssignmentID) ([]types.InterviewNote, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	uids, err := parseIDs(ids)
	if err != nil {
		return nil, err
	}
	rows, err := db.q.Query(ctx,
		`SELECT assignment_id, question_number, notes
		 FROM interview_notes WHERE assignment_id = ANY($1)
		 ORDER BY assignment_id, question_number`,
		uids,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list interview notes: %w", err)
	}
	defer rows.Close()

	var out []types.InterviewNote
	for rows.Next() {
		var (
			n   types.InterviewNote
			aid uuid.UUID
		)
		if err := rows.Scan(&aid, &n.QuestionNumber, &n.Notes); err != nil {
			return nil, fmt.Errorf("failed to scan interview note: %w", err)
		}
		n.AssignmentID = types.AssignmentID(aid.String())
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list interview notes: %w", err)
	}
	return out, nil
}

// UpsertInterviewNote writes the notes for one interview question
func (db *DB) UpsertInterviewNote(ctx context.Context, id types.AssignmentID, questionNumber int, notes string) error {
	uid, err := parseID(id)
	if err != nil {
		return err
	}
	_, err = db.q.Exec(ctx,
		`INSERT INTO interview_notes (assignment_id, question_number, notes)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (assignment_id, question_number) DO UPDATE SET notes = EXCLUDED.notes`,
		uid, questionNumber, notes,
	)
	if err != nil {
		return fmt.Errorf("failed to save interview note: %w", err)
	}
	return nil
}

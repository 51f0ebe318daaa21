package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jonathan/recruit-grader/internal/types"
)

// -----------------------------------------------------------------------------
// Decision and Reference Data Methods
// -----------------------------------------------------------------------------

// UpsertDecision records the current decision for an applicant, replacing any earlier one
func (db *DB) UpsertDecision(ctx context.Context, id types.ApplicantID, outcome types.Outcome, actor types.ActorID) error {
	uid, err := parseID(id)
	if err != nil {
		return err
	}
	_, err = db.q.Exec(ctx,
		`INSERT INTO decisions (application_id, decision, decided_by)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (application_id) DO UPDATE
		 SET decision = EXCLUDED.decision, decided_by = EXCLUDED.decided_by, created_at = NOW()`,
		uid, string(outcome), string(actor),
	)
	if err != nil {
		return fmt.Errorf("failed to save decision: %w", err)
	}
	return nil
}

// ListDecisions returns the current decisions of the given applicants
func (db *DB) ListDecisions(ctx context.Context, ids []types.ApplicantID) ([]types.Decision, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	uids, err := parseIDs(ids)
	if err != nil {
		return nil, err
	}
	rows, err := db.q.Query(ctx,
		`SELECT application_id, decision, decided_by, created_at
		 FROM decisions WHERE application_id = ANY($1)`,
		uids,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list decisions: %w", err)
	}
	defer rows.Close()

	var out []types.Decision
	for rows.Next() {
		var (
			d              types.Decision
			aid            uuid.UUID
			outcome, actor string
		)
		if err := rows.Scan(&aid, &outcome, &actor, &d.DecidedAt); err != nil {
			return nil, fmt.Errorf("failed to scan decision: %w", err)
		}
		d.ApplicantID = types.ApplicantID(aid.String())
		d.Outcome = types.Outcome(outcome)
		d.DecidedBy = types.ActorID(actor)
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list decisions: %w", err)
	}
	return out, nil
}

// ListGraderPool returns every user with the grader role, ordered by name
func (db *DB) ListGraderPool(ctx context.Context) ([]types.Grader, error) {
	rows, err := db.q.Query(ctx,
		`SELECT id, full_name, COALESCE(tc_name, '')
		 FROM users WHERE role = 'grader'
		 ORDER BY full_name, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list graders: %w", err)
	}
	defer rows.Close()

	var out []types.Grader
	for rows.Next() {
		var (
			g  types.Grader
			id uuid.UUID
		)
		if err := rows.Scan(&id, &g.FullName, &g.TCName); err != nil {
			return nil, fmt.Errorf("failed to scan grader: %w", err)
		}
		g.ID = types.GraderID(id.String())
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list graders: %w", err)
	}
	return out, nil
}

// ListRubrics returns the rubric entries of one question type
func (db *DB) ListRubrics(ctx context.Context, questionType types.QuestionType) ([]types.Rubric, error) {
	rows, err := db.q.Query(ctx,
		`SELECT id, question_number, question_type, section, question_text, COALESCE(rubric_content, '')
		 FROM rubrics WHERE question_type = $1
		 ORDER BY section NULLS FIRST, question_number`,
		string(questionType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list rubrics: %w", err)
	}
	defer rows.Close()

	var out []types.Rubric
	for rows.Next() {
		var (
			r  types.Rubric
			id uuid.UUID
			qt string
		)
		if err := rows.Scan(&id, &r.QuestionNumber, &qt, &r.Round, &r.Text, &r.Guideline); err != nil {
			return nil, fmt.Errorf("failed to scan rubric: %w", err)
		}
		r.ID = id.String()
		r.Type = types.QuestionType(qt)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list rubrics: %w", err)
	}
	return out, nil
}

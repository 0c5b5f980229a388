package submission

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
)

//go:embed schema.sql
var schemaSQL string

// Store reads submission records from SQLite.
type Store struct {
	db *sql.DB
}

// Open ensures the submission tables exist on db and returns a Store.
func Open(ctx context.Context, db *sql.DB) (*Store, error) {
	if db == nil {
		return nil, errors.New("submission store requires a database handle")
	}
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		return nil, fmt.Errorf("create submission schema: %w", err)
	}
	return &Store{db: db}, nil
}

// SubmissionByID returns the submission, or (nil, nil) when it no longer exists.
func (s *Store) SubmissionByID(ctx context.Context, id int64) (*Submission, error) {
	var sub Submission
	err := s.db.QueryRowContext(
		ctx,
		`SELECT id, assignment_id, user_id, group_id, attempt_number, status FROM submissions WHERE id = ?`,
		id,
	).Scan(&sub.ID, &sub.AssignmentID, &sub.UserID, &sub.GroupID, &sub.AttemptNumber, &sub.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get submission %d: %w", id, err)
	}
	return &sub, nil
}

// AssignmentByID resolves an assignment handle. A missing assignment is an
// error: submissions always reference an existing assignment.
func (s *Store) AssignmentByID(ctx context.Context, id int64) (*Assignment, error) {
	var a Assignment
	err := s.db.QueryRowContext(
		ctx,
		`SELECT id, course_module_id, context_id, name FROM assignments WHERE id = ?`,
		id,
	).Scan(&a.ID, &a.CourseModuleID, &a.ContextID, &a.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("assignment %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get assignment %d: %w", id, err)
	}
	return &a, nil
}

// ActiveMembers returns the ids of active members of a group, ordered by user id.
func (s *Store) ActiveMembers(ctx context.Context, groupID int64) ([]int64, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT user_id FROM group_members WHERE group_id = ? AND active = 1 ORDER BY user_id`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("list group %d members: %w", groupID, err)
	}
	defer rows.Close()

	var members []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan group member: %w", err)
		}
		members = append(members, id)
	}
	return members, rows.Err()
}

// SaveAssignment inserts or replaces an assignment record.
func (s *Store) SaveAssignment(ctx context.Context, a Assignment) error {
	if _, err := s.db.ExecContext(
		ctx,
		`INSERT INTO assignments (id, course_module_id, context_id, name) VALUES (?, ?, ?, ?)
         ON CONFLICT (id) DO UPDATE SET course_module_id = excluded.course_module_id,
             context_id = excluded.context_id, name = excluded.name`,
		a.ID, a.CourseModuleID, a.ContextID, a.Name,
	); err != nil {
		return fmt.Errorf("save assignment %d: %w", a.ID, err)
	}
	return nil
}

// SaveSubmission inserts or replaces a submission record.
func (s *Store) SaveSubmission(ctx context.Context, sub Submission) error {
	status := sub.Status
	if status == "" {
		status = "submitted"
	}
	if _, err := s.db.ExecContext(
		ctx,
		`INSERT INTO submissions (id, assignment_id, user_id, group_id, attempt_number, status) VALUES (?, ?, ?, ?, ?, ?)
         ON CONFLICT (id) DO UPDATE SET assignment_id = excluded.assignment_id, user_id = excluded.user_id,
             group_id = excluded.group_id, attempt_number = excluded.attempt_number, status = excluded.status`,
		sub.ID, sub.AssignmentID, sub.UserID, sub.GroupID, sub.AttemptNumber, status,
	); err != nil {
		return fmt.Errorf("save submission %d: %w", sub.ID, err)
	}
	return nil
}

// DeleteSubmission removes a submission record.
func (s *Store) DeleteSubmission(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM submissions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete submission %d: %w", id, err)
	}
	return nil
}

// SetGroupMember adds or updates a membership row.
func (s *Store) SetGroupMember(ctx context.Context, groupID, userID int64, active bool) error {
	activeVal := 0
	if active {
		activeVal = 1
	}
	if _, err := s.db.ExecContext(
		ctx,
		`INSERT INTO group_members (group_id, user_id, active) VALUES (?, ?, ?)
         ON CONFLICT (group_id, user_id) DO UPDATE SET active = excluded.active`,
		groupID, userID, activeVal,
	); err != nil {
		return fmt.Errorf("set group %d member %d: %w", groupID, userID, err)
	}
	return nil
}

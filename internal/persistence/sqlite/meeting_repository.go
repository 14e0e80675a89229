package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sweetyp18/meetpass-webapp/internal/persistence"
)

// MeetingRepository implements persistence.MeetingRepository using SQLite.
type MeetingRepository struct {
	pool *ConnectionPool
}

// NewMeetingRepository creates a new SQLite meeting repository.
func NewMeetingRepository(pool *ConnectionPool) *MeetingRepository {
	return &MeetingRepository{pool: pool}
}

const meetingColumns = "id, token, scheduler, participant_email, is_group, purpose, venue, start_time, end_time, status, approved_by, created_at, updated_at"

// CreateMeeting inserts a meeting request and its group participants. The
// token uniqueness constraint surfaces as ErrDuplicateToken so callers can
// regenerate and retry.
func (r *MeetingRepository) CreateMeeting(ctx context.Context, meeting persistence.Meeting) error {
	if meeting.ID == "" || meeting.Token == "" {
		return persistence.ErrConstraintViolation
	}

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		query := `
			INSERT INTO meetings (` + meetingColumns + `)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`

		_, err := tx.ExecContext(ctx, query,
			meeting.ID,
			meeting.Token,
			meeting.Scheduler,
			meeting.ParticipantEmail,
			meeting.IsGroup,
			meeting.Purpose,
			meeting.Venue,
			meeting.StartTime.UTC().Format(time.RFC3339Nano),
			meeting.EndTime.UTC().Format(time.RFC3339Nano),
			meeting.Status,
			meeting.ApprovedBy,
			meeting.CreatedAt.UTC().Format(time.RFC3339Nano),
			meeting.UpdatedAt.UTC().Format(time.RFC3339Nano),
		)
		if err != nil {
			return mapError(err)
		}

		for position, email := range meeting.Participants {
			_, err := tx.ExecContext(ctx,
				"INSERT INTO meeting_participants (meeting_id, email, position) VALUES (?, ?, ?)",
				meeting.ID, email, position,
			)
			if err != nil {
				return mapError(err)
			}
		}

		return nil
	})
}

// GetMeeting retrieves a meeting by ID including its group participants.
func (r *MeetingRepository) GetMeeting(ctx context.Context, id string) (persistence.Meeting, error) {
	if id == "" {
		return persistence.Meeting{}, persistence.ErrNotFound
	}

	query := "SELECT " + meetingColumns + " FROM meetings WHERE id = ?"

	meeting, err := scanMeeting(r.pool.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return persistence.Meeting{}, err
	}

	participants, err := r.loadParticipants(ctx, []string{meeting.ID})
	if err != nil {
		return persistence.Meeting{}, err
	}
	meeting.Participants = participants[meeting.ID]

	return meeting, nil
}

// ListMeetings returns meetings matching the filter ordered by start time then
// ID. The identity matches the scheduler, the primary participant, or a group
// participant.
func (r *MeetingRepository) ListMeetings(ctx context.Context, filter persistence.MeetingFilter) ([]persistence.Meeting, error) {
	query := `
		SELECT DISTINCT m.id, m.token, m.scheduler, m.participant_email, m.is_group,
			m.purpose, m.venue, m.start_time, m.end_time, m.status, m.approved_by,
			m.created_at, m.updated_at
		FROM meetings m
		LEFT JOIN meeting_participants mp ON mp.meeting_id = m.id
		WHERE 1 = 1
	`
	args := make([]any, 0, 4)

	if filter.Identity != "" {
		query += " AND (m.scheduler = ? OR m.participant_email = ? OR mp.email = ?)"
		args = append(args, filter.Identity, filter.Identity, filter.Identity)
	}
	if filter.StartsAfter != nil {
		query += " AND m.start_time > ?"
		args = append(args, filter.StartsAfter.UTC().Format(time.RFC3339Nano))
	}

	query += " ORDER BY m.start_time ASC, m.id ASC"

	rows, err := r.pool.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var meetings []persistence.Meeting
	var ids []string
	for rows.Next() {
		meeting, err := scanMeeting(rows)
		if err != nil {
			return nil, err
		}
		meetings = append(meetings, meeting)
		ids = append(ids, meeting.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}

	participants, err := r.loadParticipants(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range meetings {
		meetings[i].Participants = participants[meetings[i].ID]
	}

	return meetings, nil
}

// UpdateMeetingStatus transitions a meeting out of fromStatus. The WHERE
// clause on the current status makes the update conditional: a concurrent
// transition leaves zero rows affected and the caller gets ErrStaleStatus
// instead of silently overwriting the earlier decision.
func (r *MeetingRepository) UpdateMeetingStatus(ctx context.Context, id, fromStatus, toStatus, approvedBy string, updatedAt time.Time) error {
	if id == "" {
		return persistence.ErrNotFound
	}

	result, err := r.pool.db.ExecContext(ctx,
		"UPDATE meetings SET status = ?, approved_by = ?, updated_at = ? WHERE id = ? AND status = ?",
		toStatus,
		approvedBy,
		updatedAt.UTC().Format(time.RFC3339Nano),
		id,
		fromStatus,
	)
	if err != nil {
		return mapError(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		var exists bool
		if err := r.pool.db.QueryRowContext(ctx, "SELECT EXISTS (SELECT 1 FROM meetings WHERE id = ?)", id).Scan(&exists); err != nil {
			return mapError(err)
		}
		if !exists {
			return persistence.ErrNotFound
		}
		return persistence.ErrStaleStatus
	}

	return nil
}

func (r *MeetingRepository) loadParticipants(ctx context.Context, meetingIDs []string) (map[string][]string, error) {
	out := make(map[string][]string, len(meetingIDs))
	if len(meetingIDs) == 0 {
		return out, nil
	}

	query := "SELECT meeting_id, email FROM meeting_participants WHERE meeting_id IN (?"
	args := []any{meetingIDs[0]}
	for _, id := range meetingIDs[1:] {
		query += ", ?"
		args = append(args, id)
	}
	query += ") ORDER BY meeting_id, position ASC"

	rows, err := r.pool.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	for rows.Next() {
		var meetingID, email string
		if err := rows.Scan(&meetingID, &email); err != nil {
			return nil, mapError(err)
		}
		out[meetingID] = append(out[meetingID], email)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}

	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMeeting(row rowScanner) (persistence.Meeting, error) {
	var meeting persistence.Meeting
	var startTime, endTime, createdAt, updatedAt string

	err := row.Scan(
		&meeting.ID,
		&meeting.Token,
		&meeting.Scheduler,
		&meeting.ParticipantEmail,
		&meeting.IsGroup,
		&meeting.Purpose,
		&meeting.Venue,
		&startTime,
		&endTime,
		&meeting.Status,
		&meeting.ApprovedBy,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return persistence.Meeting{}, mapError(err)
	}

	if meeting.StartTime, err = time.Parse(time.RFC3339Nano, startTime); err != nil {
		return persistence.Meeting{}, fmt.Errorf("failed to parse start_time: %w", err)
	}
	if meeting.EndTime, err = time.Parse(time.RFC3339Nano, endTime); err != nil {
		return persistence.Meeting{}, fmt.Errorf("failed to parse end_time: %w", err)
	}
	if meeting.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return persistence.Meeting{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if meeting.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return persistence.Meeting{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}

	return meeting, nil
}

var _ persistence.MeetingRepository = (*MeetingRepository)(nil)

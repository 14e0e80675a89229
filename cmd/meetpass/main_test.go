package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sweetyp18/meetpass-webapp/internal/application"
	"github.com/sweetyp18/meetpass-webapp/internal/persistence"
)

func TestMapStorageError(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   error
		want error
	}{
		{name: "nil passes through", in: nil, want: nil},
		{name: "not found", in: persistence.ErrNotFound, want: application.ErrNotFound},
		{name: "duplicate account", in: persistence.ErrDuplicate, want: application.ErrAlreadyExists},
		{name: "duplicate meeting token", in: persistence.ErrDuplicateToken, want: application.ErrDuplicateMeetingToken},
		{name: "stale status", in: persistence.ErrStaleStatus, want: application.ErrStaleTransition},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := mapStorageError(tc.in)
			if tc.want == nil {
				if got != nil {
					t.Fatalf("expected nil, got %v", got)
				}
				return
			}
			if !errors.Is(got, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}

	t.Run("unknown errors pass through unchanged", func(t *testing.T) {
		t.Parallel()

		cause := errors.New("disk full")
		if got := mapStorageError(cause); !errors.Is(got, cause) {
			t.Fatalf("expected %v, got %v", cause, got)
		}
	})
}

type meetingRepoStub struct {
	meetings map[string]persistence.Meeting

	updateErr    error
	lastFrom     string
	lastTo       string
	lastApprover string
}

func (s *meetingRepoStub) CreateMeeting(ctx context.Context, meeting persistence.Meeting) error {
	if s.meetings == nil {
		s.meetings = make(map[string]persistence.Meeting)
	}
	s.meetings[meeting.ID] = meeting
	return nil
}

func (s *meetingRepoStub) GetMeeting(ctx context.Context, id string) (persistence.Meeting, error) {
	meeting, ok := s.meetings[id]
	if !ok {
		return persistence.Meeting{}, persistence.ErrNotFound
	}
	return meeting, nil
}

func (s *meetingRepoStub) ListMeetings(ctx context.Context, filter persistence.MeetingFilter) ([]persistence.Meeting, error) {
	return nil, nil
}

func (s *meetingRepoStub) UpdateMeetingStatus(ctx context.Context, id, fromStatus, toStatus, approvedBy string, updatedAt time.Time) error {
	s.lastFrom = fromStatus
	s.lastTo = toStatus
	s.lastApprover = approvedBy
	if s.updateErr != nil {
		return s.updateErr
	}
	meeting, ok := s.meetings[id]
	if !ok {
		return persistence.ErrNotFound
	}
	meeting.Status = toStatus
	meeting.ApprovedBy = approvedBy
	meeting.UpdatedAt = updatedAt
	s.meetings[id] = meeting
	return nil
}

func TestMeetingStore_UpdateMeetingStatus(t *testing.T) {
	t.Parallel()

	t.Run("transitions out of Pending and returns the stored row", func(t *testing.T) {
		t.Parallel()

		repo := &meetingRepoStub{meetings: map[string]persistence.Meeting{
			"m-1": {ID: "m-1", Status: string(application.StatusPending)},
		}}
		store := newMeetingStore(repo)

		decided := time.Date(2025, time.March, 10, 9, 30, 0, 0, time.UTC)
		meeting, err := store.UpdateMeetingStatus(context.Background(), "m-1", application.StatusApproved, "staff@univ.edu", decided)
		if err != nil {
			t.Fatalf("UpdateMeetingStatus returned error: %v", err)
		}

		if repo.lastFrom != string(application.StatusPending) {
			t.Fatalf("expected conditional update from Pending, got %q", repo.lastFrom)
		}
		if meeting.Status != application.StatusApproved {
			t.Fatalf("expected Approved, got %s", meeting.Status)
		}
		if meeting.ApprovedBy != "staff@univ.edu" {
			t.Fatalf("unexpected approver %q", meeting.ApprovedBy)
		}
	})

	t.Run("translates a lost race into a stale transition", func(t *testing.T) {
		t.Parallel()

		repo := &meetingRepoStub{
			meetings:  map[string]persistence.Meeting{"m-1": {ID: "m-1", Status: string(application.StatusRejected)}},
			updateErr: persistence.ErrStaleStatus,
		}
		store := newMeetingStore(repo)

		_, err := store.UpdateMeetingStatus(context.Background(), "m-1", application.StatusApproved, "staff@univ.edu", time.Now())
		if !errors.Is(err, application.ErrStaleTransition) {
			t.Fatalf("expected ErrStaleTransition, got %v", err)
		}
	})

	t.Run("translates a missing row into not found", func(t *testing.T) {
		t.Parallel()

		store := newMeetingStore(&meetingRepoStub{})

		_, err := store.UpdateMeetingStatus(context.Background(), "missing", application.StatusRejected, "staff@univ.edu", time.Now())
		if !errors.Is(err, application.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestUserStore_CredentialLookups(t *testing.T) {
	t.Parallel()

	t.Run("exposes the stored hash alongside the account", func(t *testing.T) {
		t.Parallel()

		repo := &userRepoStub{users: map[string]persistence.User{
			"1MP23CS001": {ID: "u-1", RegNo: "1MP23CS001", Email: "asha@univ.edu", PasswordHash: "hash", Role: "student"},
		}}
		store := newUserStore(repo)

		creds, err := store.GetUserCredentialsByRegNo(context.Background(), "1MP23CS001")
		if err != nil {
			t.Fatalf("GetUserCredentialsByRegNo returned error: %v", err)
		}
		if creds.PasswordHash != "hash" {
			t.Fatalf("expected stored hash, got %q", creds.PasswordHash)
		}
		if creds.User.Role != application.RoleStudent {
			t.Fatalf("expected student role, got %s", creds.User.Role)
		}
	})

	t.Run("translates a missing account into not found", func(t *testing.T) {
		t.Parallel()

		store := newUserStore(&userRepoStub{})

		if _, err := store.GetUserCredentialsByEmail(context.Background(), "nobody@univ.edu"); !errors.Is(err, application.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

type userRepoStub struct {
	users map[string]persistence.User
}

func (s *userRepoStub) CreateUser(ctx context.Context, user persistence.User) error {
	if s.users == nil {
		s.users = make(map[string]persistence.User)
	}
	if _, ok := s.users[user.RegNo]; ok {
		return persistence.ErrDuplicate
	}
	s.users[user.RegNo] = user
	return nil
}

func (s *userRepoStub) GetUser(ctx context.Context, id string) (persistence.User, error) {
	for _, user := range s.users {
		if user.ID == id {
			return user, nil
		}
	}
	return persistence.User{}, persistence.ErrNotFound
}

func (s *userRepoStub) GetUserByRegNo(ctx context.Context, regno string) (persistence.User, error) {
	user, ok := s.users[regno]
	if !ok {
		return persistence.User{}, persistence.ErrNotFound
	}
	return user, nil
}

func (s *userRepoStub) GetUserByEmail(ctx context.Context, email string) (persistence.User, error) {
	for _, user := range s.users {
		if user.Email == email {
			return user, nil
		}
	}
	return persistence.User{}, persistence.ErrNotFound
}

func (s *userRepoStub) UpdatePasswordHash(ctx context.Context, userID, passwordHash string, updatedAt time.Time) error {
	for regno, user := range s.users {
		if user.ID == userID {
			user.PasswordHash = passwordHash
			user.UpdatedAt = updatedAt
			s.users[regno] = user
			return nil
		}
	}
	return persistence.ErrNotFound
}

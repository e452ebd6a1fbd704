package events

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mingle-social/server/internal/authz"
)

type stubRepo struct {
	Repository

	events    map[int64]Event
	hosts     map[int64]authz.HostSet
	created   *CreateParams
	ownerID   int64
	updated   *UpdateParams
	deleted   []int64
	addedHost []int64
	removed   []int64
	rsvps     [][2]int64
	unrsvps   [][2]int64
	covers    []int64
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		events: map[int64]Event{},
		hosts:  map[int64]authz.HostSet{},
	}
}

func (s *stubRepo) Create(_ context.Context, params CreateParams, ownerID int64) (Event, error) {
	s.created = &params
	s.ownerID = ownerID
	return Event{ID: 1, Title: params.Title}, nil
}

func (s *stubRepo) GetByID(_ context.Context, id int64) (Event, error) {
	event, ok := s.events[id]
	if !ok {
		return Event{}, ErrNotFound
	}
	return event, nil
}

func (s *stubRepo) Update(_ context.Context, id int64, params UpdateParams) (Event, error) {
	s.updated = &params
	return s.events[id], nil
}

func (s *stubRepo) Delete(_ context.Context, id int64) error {
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *stubRepo) Hosts(_ context.Context, eventID int64) (authz.HostSet, error) {
	hosts, ok := s.hosts[eventID]
	if !ok {
		return authz.HostSet{}, nil
	}
	return hosts, nil
}

func (s *stubRepo) AddHost(_ context.Context, eventID, userID int64, _ HostRole) error {
	s.addedHost = append(s.addedHost, userID)
	return nil
}

func (s *stubRepo) RemoveHost(_ context.Context, eventID, userID int64) error {
	s.removed = append(s.removed, userID)
	return nil
}

func (s *stubRepo) RSVP(_ context.Context, userID, eventID int64) error {
	s.rsvps = append(s.rsvps, [2]int64{userID, eventID})
	return nil
}

func (s *stubRepo) UnRSVP(_ context.Context, userID, eventID int64) error {
	s.unrsvps = append(s.unrsvps, [2]int64{userID, eventID})
	return nil
}

func (s *stubRepo) SetCover(_ context.Context, eventID, uploaderID int64, _ CoverUpload) (int64, error) {
	s.covers = append(s.covers, eventID)
	return 42, nil
}

func seed(repo *stubRepo) {
	repo.events[1] = Event{ID: 1, Title: "Garden party"}
	repo.hosts[1] = authz.HostSet{10: authz.RoleOwner, 11: authz.RoleCohost}
}

func TestCreateSanitizesFields(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo)

	city := "<b>Toronto</b>"
	_, err := svc.Create(context.Background(), 10, CreateParams{
		Title:       "<script>x</script>Launch",
		Description: "Come <i>all</i>",
		City:        &city,
	})
	require.NoError(t, err)
	require.Equal(t, int64(10), repo.ownerID)
	require.Equal(t, "Launch", repo.created.Title)
	require.Equal(t, "Come all", repo.created.Description)
	require.Equal(t, "Toronto", *repo.created.City)
}

func TestUpdateAnyHost(t *testing.T) {
	repo := newStubRepo()
	seed(repo)
	svc := NewService(repo)

	title := "Renamed"
	_, err := svc.Update(context.Background(), 11, 1, UpdateParams{Title: &title})
	require.NoError(t, err, "cohost may edit")

	_, err = svc.Update(context.Background(), 99, 1, UpdateParams{Title: &title})
	require.ErrorIs(t, err, ErrForbidden)

	_, err = svc.Update(context.Background(), 10, 2, UpdateParams{Title: &title})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteOwnerOnly(t *testing.T) {
	repo := newStubRepo()
	seed(repo)
	svc := NewService(repo)

	require.ErrorIs(t, svc.Delete(context.Background(), 11, 1), ErrForbidden)
	require.NoError(t, svc.Delete(context.Background(), 10, 1))
	require.Equal(t, []int64{1}, repo.deleted)
}

func TestAddHost(t *testing.T) {
	repo := newStubRepo()
	seed(repo)
	svc := NewService(repo)

	require.ErrorIs(t, svc.AddHost(context.Background(), 11, 1, 12), ErrForbidden)

	require.NoError(t, svc.AddHost(context.Background(), 10, 1, 12))
	require.Equal(t, []int64{12}, repo.addedHost)

	require.NoError(t, svc.AddHost(context.Background(), 10, 1, 11), "re-adding a host is a no-op")
	require.Equal(t, []int64{12}, repo.addedHost)
}

func TestRemoveHost(t *testing.T) {
	repo := newStubRepo()
	seed(repo)
	svc := NewService(repo)

	require.ErrorIs(t, svc.RemoveHost(context.Background(), 11, 1, 10), ErrForbidden)
	require.ErrorIs(t, svc.RemoveHost(context.Background(), 10, 1, 10), ErrImmovableHost)
	require.ErrorIs(t, svc.RemoveHost(context.Background(), 10, 1, 99), ErrUserNotFound)

	require.NoError(t, svc.RemoveHost(context.Background(), 10, 1, 11))
	require.Equal(t, []int64{11}, repo.removed)
}

func TestSetCoverOwnerOnly(t *testing.T) {
	repo := newStubRepo()
	seed(repo)
	svc := NewService(repo)

	_, err := svc.SetCover(context.Background(), 11, 1, CoverUpload{Filename: "c.jpg"})
	require.ErrorIs(t, err, ErrForbidden)

	id, err := svc.SetCover(context.Background(), 10, 1, CoverUpload{Filename: "c.jpg"})
	require.NoError(t, err)
	require.Equal(t, int64(42), id)
}

func TestRSVPToggleDelegates(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo)

	require.NoError(t, svc.RSVP(context.Background(), 5, 1))
	require.NoError(t, svc.UnRSVP(context.Background(), 5, 1))
	require.Equal(t, [][2]int64{{5, 1}}, repo.rsvps)
	require.Equal(t, [][2]int64{{5, 1}}, repo.unrsvps)
}

func TestParseStartTime(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want time.Time
	}{
		{
			name: "bare date becomes midnight UTC",
			raw:  "2026-07-10",
			want: time.Date(2026, 7, 10, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "naive datetime taken as UTC",
			raw:  "2026-07-10T19:30:00",
			want: time.Date(2026, 7, 10, 19, 30, 0, 0, time.UTC),
		},
		{
			name: "offset datetime normalized to UTC",
			raw:  "2026-07-10T19:30:00-04:00",
			want: time.Date(2026, 7, 10, 23, 30, 0, 0, time.UTC),
		},
		{
			name: "space separated",
			raw:  "2026-07-10 19:30:00",
			want: time.Date(2026, 7, 10, 19, 30, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseStartTime(tt.raw)
			require.NoError(t, err)
			require.True(t, got.Equal(tt.want), "got %v want %v", got, tt.want)
		})
	}

	_, err := ParseStartTime("next tuesday")
	require.ErrorIs(t, err, ErrBadStartTime)

	_, err = ParseStartTime("")
	require.ErrorIs(t, err, ErrBadStartTime)
}

func TestTimeRangeValid(t *testing.T) {
	require.True(t, RangeUpcoming.Valid())
	require.True(t, RangePast.Valid())
	require.True(t, RangeAll.Valid())
	require.False(t, TimeRange("someday").Valid())
}

package events

import (
	"context"
	"fmt"

	"github.com/mingle-social/server/internal/authz"
	"github.com/mingle-social/server/internal/domain/users"
	"github.com/mingle-social/server/internal/sanitize"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create stores the event with the creator as its sole owner host.
func (s *Service) Create(ctx context.Context, creatorID int64, params CreateParams) (Event, error) {
	params.Title = sanitize.Text(params.Title)
	params.Description = sanitize.Text(params.Description)
	params.StreetAddress = sanitize.TextPtr(params.StreetAddress)
	params.City = sanitize.TextPtr(params.City)
	params.State = sanitize.TextPtr(params.State)
	params.Zipcode = sanitize.TextPtr(params.Zipcode)
	params.Country = sanitize.TextPtr(params.Country)
	return s.repo.Create(ctx, params, creatorID)
}

func (s *Service) Get(ctx context.Context, id int64) (Event, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]Event, error) {
	return s.repo.List(ctx)
}

// Update applies a partial edit. Any host of the event may edit.
func (s *Service) Update(ctx context.Context, requesterID, eventID int64, params UpdateParams) (Event, error) {
	hosts, err := s.hostsOf(ctx, eventID)
	if err != nil {
		return Event{}, err
	}
	if !hosts.IsHost(requesterID) {
		return Event{}, ErrForbidden
	}

	params.Title = sanitize.TextPtr(params.Title)
	params.Description = sanitize.TextPtr(params.Description)
	params.StreetAddress = sanitize.TextPtr(params.StreetAddress)
	params.City = sanitize.TextPtr(params.City)
	params.State = sanitize.TextPtr(params.State)
	params.Zipcode = sanitize.TextPtr(params.Zipcode)
	params.Country = sanitize.TextPtr(params.Country)
	return s.repo.Update(ctx, eventID, params)
}

// Delete removes the event and its edges. Owner only.
func (s *Service) Delete(ctx context.Context, requesterID, eventID int64) error {
	hosts, err := s.hostsOf(ctx, eventID)
	if err != nil {
		return err
	}
	if !hosts.IsEventOwner(requesterID) {
		return ErrForbidden
	}
	return s.repo.Delete(ctx, eventID)
}

// AddHost adds userID as a cohost. Owner only; adding an existing host
// succeeds silently.
func (s *Service) AddHost(ctx context.Context, requesterID, eventID, userID int64) error {
	hosts, err := s.hostsOf(ctx, eventID)
	if err != nil {
		return err
	}
	if !hosts.CanManageHosts(requesterID) {
		return ErrForbidden
	}
	if hosts.IsHost(userID) {
		return nil
	}
	return s.repo.AddHost(ctx, eventID, userID, authz.RoleCohost)
}

// RemoveHost removes a cohost. Owner only; the owner row and the
// requester themselves cannot be removed.
func (s *Service) RemoveHost(ctx context.Context, requesterID, eventID, userID int64) error {
	hosts, err := s.hostsOf(ctx, eventID)
	if err != nil {
		return err
	}
	if !hosts.CanManageHosts(requesterID) {
		return ErrForbidden
	}
	if !hosts.IsHost(userID) {
		return ErrUserNotFound
	}
	if !hosts.CanRemoveHost(requesterID, userID) {
		return ErrImmovableHost
	}
	return s.repo.RemoveHost(ctx, eventID, userID)
}

// RSVP is idempotent: repeating it succeeds silently.
func (s *Service) RSVP(ctx context.Context, userID, eventID int64) error {
	return s.repo.RSVP(ctx, userID, eventID)
}

// UnRSVP is idempotent: removing an absent RSVP succeeds silently.
func (s *Service) UnRSVP(ctx context.Context, userID, eventID int64) error {
	return s.repo.UnRSVP(ctx, userID, eventID)
}

func (s *Service) Attendees(ctx context.Context, eventID int64, offset, limit int) ([]users.Summary, int64, error) {
	if _, err := s.repo.GetByID(ctx, eventID); err != nil {
		return nil, 0, err
	}
	return s.repo.Attendees(ctx, eventID, offset, limit)
}

func (s *Service) Search(ctx context.Context, filters SearchFilters, offset, limit int) ([]Event, int64, error) {
	filters.Query = sanitize.Text(filters.Query)
	return s.repo.Search(ctx, filters, offset, limit)
}

func (s *Service) Hosting(ctx context.Context, userID int64, timeRange TimeRange, offset, limit int) ([]Event, int64, error) {
	return s.repo.Hosting(ctx, userID, timeRange, offset, limit)
}

func (s *Service) RSVPd(ctx context.Context, userID int64, timeRange TimeRange, offset, limit int) ([]Event, int64, error) {
	return s.repo.RSVPd(ctx, userID, timeRange, offset, limit)
}

// SetCover replaces the cover photo. Owner only.
func (s *Service) SetCover(ctx context.Context, requesterID, eventID int64, upload CoverUpload) (int64, error) {
	hosts, err := s.hostsOf(ctx, eventID)
	if err != nil {
		return 0, err
	}
	if !hosts.IsEventOwner(requesterID) {
		return 0, ErrForbidden
	}
	return s.repo.SetCover(ctx, eventID, requesterID, upload)
}

func (s *Service) hostsOf(ctx context.Context, eventID int64) (authz.HostSet, error) {
	hosts, err := s.repo.Hosts(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("load hosts for event %d: %w", eventID, err)
	}
	if len(hosts) == 0 {
		return nil, ErrNotFound
	}
	return hosts, nil
}

package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/mingle-social/server/internal/api/apierr"
	"github.com/mingle-social/server/internal/api/middleware"
	"github.com/mingle-social/server/internal/api/pagination"
	"github.com/mingle-social/server/internal/domain/events"
)

const (
	perPageAttendees   = 40
	perPageEventSearch = 10
	perPageEventLists  = 10
)

type EventHandler struct {
	events *events.Service
}

func NewEventHandler(eventsSvc *events.Service) *EventHandler {
	return &EventHandler{events: eventsSvc}
}

type hostPayload struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

type eventPayload struct {
	ID            int64         `json:"id"`
	CoverPhotoID  *int64        `json:"cover_photo_id"`
	Title         string        `json:"title"`
	Description   string        `json:"description"`
	StartTime     time.Time     `json:"start_time"`
	StreetAddress *string       `json:"street_address"`
	City          *string       `json:"city"`
	State         *string       `json:"state"`
	Zipcode       *string       `json:"zipcode"`
	Country       *string       `json:"country"`
	CreatedAt     time.Time     `json:"created_at"`
	Hosts         []hostPayload `json:"hosts"`
	AttendeeIDs   []int64       `json:"attendee_ids"`
}

func toEventPayload(event events.Event) eventPayload {
	hosts := make([]hostPayload, 0, len(event.Hosts))
	for _, host := range event.Hosts {
		hosts = append(hosts, hostPayload{UserID: host.UserID, Username: host.Username, Role: string(host.Role)})
	}
	attendees := event.AttendeeIDs
	if attendees == nil {
		attendees = []int64{}
	}
	return eventPayload{
		ID:            event.ID,
		CoverPhotoID:  event.CoverPhotoID,
		Title:         event.Title,
		Description:   event.Description,
		StartTime:     event.StartTime,
		StreetAddress: event.StreetAddress,
		City:          event.City,
		State:         event.State,
		Zipcode:       event.Zipcode,
		Country:       event.Country,
		CreatedAt:     event.CreatedAt,
		Hosts:         hosts,
		AttendeeIDs:   attendees,
	}
}

func toEventPayloads(list []events.Event) []eventPayload {
	out := make([]eventPayload, 0, len(list))
	for _, event := range list {
		out = append(out, toEventPayload(event))
	}
	return out
}

type createEventRequest struct {
	Title         string  `json:"title" validate:"required,max=150"`
	Description   string  `json:"description" validate:"max=2000"`
	StartTime     string  `json:"start_time" validate:"required"`
	StreetAddress *string `json:"street_address" validate:"omitempty,max=200"`
	City          *string `json:"city" validate:"omitempty,max=100"`
	State         *string `json:"state" validate:"omitempty,max=100"`
	Zipcode       *string `json:"zipcode" validate:"omitempty,max=20"`
	Country       *string `json:"country" validate:"omitempty,max=100"`
}

func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	var params events.CreateParams

	if isMultipart(r) {
		if !h.parseMultipartCreate(w, r, &params) {
			return
		}
	} else {
		var req createEventRequest
		if !decodeJSON(w, r, &req) || !checkValid(w, r, req) {
			return
		}
		start, err := events.ParseStartTime(req.StartTime)
		if err != nil {
			writeBadStartTime(w, r, err)
			return
		}
		params = events.CreateParams{
			Title:         req.Title,
			Description:   req.Description,
			StartTime:     start,
			StreetAddress: req.StreetAddress,
			City:          req.City,
			State:         req.State,
			Zipcode:       req.Zipcode,
			Country:       req.Country,
		}
	}

	event, err := h.events.Create(r.Context(), middleware.UserID(r.Context()), params)
	if err != nil {
		writeEventError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, toEventPayload(event))
}

func (h *EventHandler) parseMultipartCreate(w http.ResponseWriter, r *http.Request, params *events.CreateParams) bool {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		apierr.Write(w, r, http.StatusBadRequest, "Invalid multipart form", err)
		return false
	}

	params.Title = r.FormValue("title")
	if params.Title == "" {
		apierr.WriteFields(w, r, http.StatusBadRequest,
			map[string]string{"title": "This field is required"})
		return false
	}
	params.Description = r.FormValue("description")

	start, err := events.ParseStartTime(r.FormValue("start_time"))
	if err != nil {
		writeBadStartTime(w, r, err)
		return false
	}
	params.StartTime = start

	params.StreetAddress = optionalForm(r, "street_address")
	params.City = optionalForm(r, "city")
	params.State = optionalForm(r, "state")
	params.Zipcode = optionalForm(r, "zipcode")
	params.Country = optionalForm(r, "country")

	if headers := r.MultipartForm.File["cover_photo"]; len(headers) > 0 {
		file, err := headers[0].Open()
		if err != nil {
			apierr.Write(w, r, http.StatusBadRequest, "Unreadable file upload", err)
			return false
		}
		part, err := readPart(file, headers[0])
		file.Close()
		if err != nil {
			apierr.Write(w, r, http.StatusBadRequest, "Unreadable file upload", err)
			return false
		}
		params.Cover = &events.CoverUpload{
			Filename:    part.Filename,
			ContentType: part.ContentType,
			Data:        part.Data,
		}
	}
	return true
}

func optionalForm(r *http.Request, field string) *string {
	if value := r.FormValue(field); value != "" {
		return &value
	}
	return nil
}

func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.events.List(r.Context())
	if err != nil {
		writeEventError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toEventPayloads(list))
}

func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	eventID, ok := requirePathID(w, r, "id")
	if !ok {
		return
	}
	event, err := h.events.Get(r.Context(), eventID)
	if err != nil {
		writeEventError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toEventPayload(event))
}

type updateEventRequest struct {
	Title         *string `json:"title" validate:"omitempty,max=150"`
	Description   *string `json:"description" validate:"omitempty,max=2000"`
	StartTime     *string `json:"start_time"`
	StreetAddress *string `json:"street_address" validate:"omitempty,max=200"`
	City          *string `json:"city" validate:"omitempty,max=100"`
	State         *string `json:"state" validate:"omitempty,max=100"`
	Zipcode       *string `json:"zipcode" validate:"omitempty,max=20"`
	Country       *string `json:"country" validate:"omitempty,max=100"`
}

func (h *EventHandler) Update(w http.ResponseWriter, r *http.Request) {
	eventID, ok := requirePathID(w, r, "id")
	if !ok {
		return
	}
	var req updateEventRequest
	if !decodeJSON(w, r, &req) || !checkValid(w, r, req) {
		return
	}

	params := events.UpdateParams{
		Title:         req.Title,
		Description:   req.Description,
		StreetAddress: req.StreetAddress,
		City:          req.City,
		State:         req.State,
		Zipcode:       req.Zipcode,
		Country:       req.Country,
	}
	if req.StartTime != nil {
		start, err := events.ParseStartTime(*req.StartTime)
		if err != nil {
			writeBadStartTime(w, r, err)
			return
		}
		params.StartTime = &start
	}

	event, err := h.events.Update(r.Context(), middleware.UserID(r.Context()), eventID, params)
	if err != nil {
		writeEventError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toEventPayload(event))
}

func (h *EventHandler) Delete(w http.ResponseWriter, r *http.Request) {
	eventID, ok := requirePathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.events.Delete(r.Context(), middleware.UserID(r.Context()), eventID); err != nil {
		writeEventError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *EventHandler) AddHost(w http.ResponseWriter, r *http.Request) {
	eventID, ok := requirePathID(w, r, "id")
	if !ok {
		return
	}
	userID, ok := requirePathID(w, r, "userID")
	if !ok {
		return
	}
	if err := h.events.AddHost(r.Context(), middleware.UserID(r.Context()), eventID, userID); err != nil {
		writeEventError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]string{"message": "Host added"})
}

func (h *EventHandler) RemoveHost(w http.ResponseWriter, r *http.Request) {
	eventID, ok := requirePathID(w, r, "id")
	if !ok {
		return
	}
	userID, ok := requirePathID(w, r, "userID")
	if !ok {
		return
	}
	if err := h.events.RemoveHost(r.Context(), middleware.UserID(r.Context()), eventID, userID); err != nil {
		writeEventError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *EventHandler) RSVP(w http.ResponseWriter, r *http.Request) {
	h.toggleRSVP(w, r, h.events.RSVP)
}

func (h *EventHandler) UnRSVP(w http.ResponseWriter, r *http.Request) {
	h.toggleRSVP(w, r, h.events.UnRSVP)
}

func (h *EventHandler) toggleRSVP(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, userID, eventID int64) error) {
	eventID, ok := requirePathID(w, r, "id")
	if !ok {
		return
	}
	if err := op(r.Context(), middleware.UserID(r.Context()), eventID); err != nil {
		writeEventError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *EventHandler) Attendees(w http.ResponseWriter, r *http.Request) {
	eventID, ok := requirePathID(w, r, "id")
	if !ok {
		return
	}
	params := pagination.ParsePage(r.URL.Query(), perPageAttendees)
	results, total, err := h.events.Attendees(r.Context(), eventID, params.Offset(), params.PerPage)
	if err != nil {
		writeEventError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, pagination.NewEnvelope(toSummaryPayloads(results), params, total))
}

func (h *EventHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	filters := events.SearchFilters{
		Query:   query.Get("query_params"),
		City:    query.Get("city"),
		State:   query.Get("state"),
		Country: query.Get("country"),
		Zipcode: query.Get("zipcode"),
		From:    time.Now(),
	}
	if raw := query.Get("from"); raw != "" {
		from, err := events.ParseStartTime(raw)
		if err != nil {
			writeBadStartTime(w, r, err)
			return
		}
		filters.From = from
	}
	if raw := query.Get("to"); raw != "" {
		to, err := events.ParseStartTime(raw)
		if err != nil {
			writeBadStartTime(w, r, err)
			return
		}
		filters.To = &to
	}

	params := pagination.ParsePage(query, perPageEventSearch)
	results, total, err := h.events.Search(r.Context(), filters, params.Offset(), params.PerPage)
	if err != nil {
		writeEventError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, pagination.NewEnvelope(toEventPayloads(results), params, total))
}

func (h *EventHandler) Hosting(w http.ResponseWriter, r *http.Request) {
	h.listForMe(w, r, h.events.Hosting)
}

func (h *EventHandler) RSVPs(w http.ResponseWriter, r *http.Request) {
	h.listForMe(w, r, h.events.RSVPd)
}

func (h *EventHandler) listForMe(w http.ResponseWriter, r *http.Request,
	list func(ctx context.Context, userID int64, timeRange events.TimeRange, offset, limit int) ([]events.Event, int64, error)) {
	timeRange := events.TimeRange(r.URL.Query().Get("range"))
	if timeRange == "" {
		timeRange = events.RangeUpcoming
	}
	if !timeRange.Valid() {
		apierr.Write(w, r, http.StatusBadRequest, "Invalid range, expected upcoming, past or all", nil)
		return
	}

	params := pagination.ParsePage(r.URL.Query(), perPageEventLists)
	results, total, err := list(r.Context(), middleware.UserID(r.Context()), timeRange, params.Offset(), params.PerPage)
	if err != nil {
		writeEventError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, pagination.NewEnvelope(toEventPayloads(results), params, total))
}

func (h *EventHandler) UploadCover(w http.ResponseWriter, r *http.Request) {
	eventID, ok := requirePathID(w, r, "id")
	if !ok {
		return
	}
	part, ok := readUpload(w, r, "photo")
	if !ok {
		return
	}
	if len(part.Data) == 0 {
		apierr.Write(w, r, http.StatusBadRequest, "Empty file upload", nil)
		return
	}

	photoID, err := h.events.SetCover(r.Context(), middleware.UserID(r.Context()), eventID, events.CoverUpload{
		Filename:    part.Filename,
		ContentType: part.ContentType,
		Data:        part.Data,
	})
	if err != nil {
		writeEventError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, map[string]int64{"photo_id": photoID})
}

func writeBadStartTime(w http.ResponseWriter, r *http.Request, err error) {
	apierr.WriteFields(w, r, http.StatusBadRequest,
		map[string]string{"start_time": "Must be a YYYY-MM-DD date or ISO-8601 datetime"})
}

func writeEventError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, events.ErrNotFound):
		apierr.Write(w, r, http.StatusNotFound, "Event not found", err)
	case errors.Is(err, events.ErrUserNotFound):
		apierr.Write(w, r, http.StatusNotFound, "User not found", err)
	case errors.Is(err, events.ErrForbidden):
		apierr.Write(w, r, http.StatusForbidden, "You may not manage this event", err)
	case errors.Is(err, events.ErrImmovableHost):
		apierr.Write(w, r, http.StatusBadRequest, "This host cannot be removed", err)
	default:
		apierr.Internal(w, r, err)
	}
}

package rest

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/render"

	"github.com/baechuer/real-time-ressys/services/participation-service/internal/application/event"
	"github.com/baechuer/real-time-ressys/services/participation-service/internal/domain"
	"github.com/baechuer/real-time-ressys/services/participation-service/internal/transport/rest/dto"
	"github.com/baechuer/real-time-ressys/services/participation-service/internal/transport/rest/response"
)

type Handler struct {
	svc *event.Service
}

func NewHandler(svc *event.Service) *Handler {
	if svc == nil {
		panic("rest.NewHandler: nil service")
	}
	return &Handler{svc: svc}
}

// decode reads a JSON body into v and runs its validator tags.
func decode(r *http.Request, v any) error {
	if err := render.DecodeJSON(r.Body, v); err != nil {
		if domain.CodeOf(err) != "" {
			return err
		}
		return domain.ErrValidation("invalid body")
	}
	return dto.Validate(v)
}

func mustAuth(w http.ResponseWriter, r *http.Request) (AuthContext, bool) {
	a, ok := GetAuth(r.Context())
	if !ok {
		response.Fail(w, r, http.StatusUnauthorized, "unauthorized", "unauthorized", nil)
	}
	return a, ok
}

// --- public ---

func (h *Handler) ListPublic(w http.ResponseWriter, r *http.Request) {
	f, err := publicFilter(r.URL.Query())
	if err != nil {
		response.Err(w, r, err)
		return
	}
	views, err := h.svc.ListPublicEvents(r.Context(), f, clientIP(r))
	if err != nil {
		response.Err(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, dto.ToEventShorts(views))
}

func (h *Handler) GetPublic(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "eventID")
	if err != nil {
		response.Err(w, r, err)
		return
	}
	v, err := h.svc.GetPublicEvent(r.Context(), id, clientIP(r))
	if err != nil {
		response.Err(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, dto.ToEventFull(v))
}

// --- owner ---

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	a, ok := mustAuth(w, r)
	if !ok {
		return
	}
	var req dto.NewEventRequest
	if err := decode(r, &req); err != nil {
		response.Err(w, r, err)
		return
	}
	v, err := h.svc.CreateEvent(r.Context(), a.UserID, req.ToDraft())
	if err != nil {
		response.Err(w, r, err)
		return
	}
	response.Data(w, http.StatusCreated, dto.ToEventFull(v))
}

func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	a, ok := mustAuth(w, r)
	if !ok {
		return
	}
	from, size, err := page(r.URL.Query())
	if err != nil {
		response.Err(w, r, err)
		return
	}
	views, err := h.svc.ListOwnerEvents(r.Context(), a.UserID, from, size)
	if err != nil {
		response.Err(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, dto.ToEventShorts(views))
}

func (h *Handler) GetMine(w http.ResponseWriter, r *http.Request) {
	a, ok := mustAuth(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "eventID")
	if err != nil {
		response.Err(w, r, err)
		return
	}
	v, err := h.svc.GetOwnerEvent(r.Context(), a.UserID, id)
	if err != nil {
		response.Err(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, dto.ToEventFull(v))
}

func (h *Handler) UpdateMine(w http.ResponseWriter, r *http.Request) {
	a, ok := mustAuth(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "eventID")
	if err != nil {
		response.Err(w, r, err)
		return
	}
	patch, err := decodePatch(r)
	if err != nil {
		response.Err(w, r, err)
		return
	}
	v, err := h.svc.UpdateEventByOwner(r.Context(), a.UserID, id, patch)
	if err != nil {
		response.Err(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, dto.ToEventFull(v))
}

func decodePatch(r *http.Request) (domain.Patch, error) {
	var req dto.UpdateEventRequest
	if err := decode(r, &req); err != nil {
		return domain.Patch{}, err
	}
	return req.ToPatch()
}

func (h *Handler) EventRequests(w http.ResponseWriter, r *http.Request) {
	a, ok := mustAuth(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "eventID")
	if err != nil {
		response.Err(w, r, err)
		return
	}
	rs, err := h.svc.ListEventRequests(r.Context(), a.UserID, id)
	if err != nil {
		response.Err(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, dto.ToRequestViews(rs))
}

func (h *Handler) Moderate(w http.ResponseWriter, r *http.Request) {
	a, ok := mustAuth(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "eventID")
	if err != nil {
		response.Err(w, r, err)
		return
	}
	var req dto.ModerationRequest
	if err := decode(r, &req); err != nil {
		response.Err(w, r, err)
		return
	}
	d, err := h.svc.ModerateRequests(r.Context(), a.UserID, id, req.RequestIDs, domain.RequestStatus(req.Status))
	if err != nil {
		response.Err(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, dto.ToModerationResult(d))
}

// --- participant ---

func (h *Handler) CreateRequest(w http.ResponseWriter, r *http.Request) {
	a, ok := mustAuth(w, r)
	if !ok {
		return
	}
	eventID, err := strconv.ParseInt(strings.TrimSpace(r.URL.Query().Get("eventId")), 10, 64)
	if err != nil || eventID <= 0 {
		response.Err(w, r, badParam("eventId", "must be a positive integer"))
		return
	}
	pr, err := h.svc.CreateParticipationRequest(r.Context(), a.UserID, eventID)
	if err != nil {
		response.Err(w, r, err)
		return
	}
	response.Data(w, http.StatusCreated, dto.ToRequestView(*pr))
}

func (h *Handler) MyRequests(w http.ResponseWriter, r *http.Request) {
	a, ok := mustAuth(w, r)
	if !ok {
		return
	}
	rs, err := h.svc.ListUserRequests(r.Context(), a.UserID)
	if err != nil {
		response.Err(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, dto.ToRequestViews(rs))
}

func (h *Handler) CancelRequest(w http.ResponseWriter, r *http.Request) {
	a, ok := mustAuth(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "requestID")
	if err != nil {
		response.Err(w, r, err)
		return
	}
	pr, err := h.svc.CancelOwnRequest(r.Context(), a.UserID, id)
	if err != nil {
		response.Err(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, dto.ToRequestView(*pr))
}

// --- admin ---

func (h *Handler) AdminList(w http.ResponseWriter, r *http.Request) {
	f, err := adminFilter(r.URL.Query())
	if err != nil {
		response.Err(w, r, err)
		return
	}
	views, err := h.svc.ListEvents(r.Context(), f)
	if err != nil {
		response.Err(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, dto.ToEventFulls(views))
}

func (h *Handler) AdminUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "eventID")
	if err != nil {
		response.Err(w, r, err)
		return
	}
	patch, err := decodePatch(r)
	if err != nil {
		response.Err(w, r, err)
		return
	}
	v, err := h.svc.UpdateEventByAdmin(r.Context(), id, patch)
	if err != nil {
		response.Err(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, dto.ToEventFull(v))
}

func (h *Handler) AdminTransition(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "eventID")
	if err != nil {
		response.Err(w, r, err)
		return
	}
	var req dto.TransitionRequest
	if err := decode(r, &req); err != nil {
		response.Err(w, r, err)
		return
	}
	action, err := domain.ParseStateAction(req.StateAction)
	if err != nil {
		response.Err(w, r, err)
		return
	}
	v, err := h.svc.TransitionEvent(r.Context(), id, action)
	if err != nil {
		response.Err(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, dto.ToEventFull(v))
}

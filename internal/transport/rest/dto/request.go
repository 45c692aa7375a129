package dto

import (
	"github.com/baechuer/real-time-ressys/services/participation-service/internal/capacity"
	"github.com/baechuer/real-time-ressys/services/participation-service/internal/domain"
)

type ModerationRequest struct {
	RequestIDs []int64 `json:"requestIds" validate:"required,min=1,unique,dive,gt=0"`
	Status     string  `json:"status" validate:"required,oneof=CONFIRMED REJECTED"`
}

type RequestView struct {
	ID        int64  `json:"id"`
	Created   Time   `json:"created"`
	Event     int64  `json:"event"`
	Requester int64  `json:"requester"`
	Status    string `json:"status"`
}

type ModerationResult struct {
	ConfirmedRequests []RequestView `json:"confirmedRequests"`
	RejectedRequests  []RequestView `json:"rejectedRequests"`
}

func ToRequestView(r domain.ParticipationRequest) RequestView {
	return RequestView{
		ID:        r.ID,
		Created:   NewTime(r.Created),
		Event:     r.EventID,
		Requester: r.RequesterID,
		Status:    string(r.Status),
	}
}

func ToRequestViews(rs []domain.ParticipationRequest) []RequestView {
	out := make([]RequestView, len(rs))
	for i, r := range rs {
		out[i] = ToRequestView(r)
	}
	return out
}

func ToModerationResult(d capacity.Decision) ModerationResult {
	return ModerationResult{
		ConfirmedRequests: ToRequestViews(d.Confirmed),
		RejectedRequests:  ToRequestViews(d.Rejected),
	}
}

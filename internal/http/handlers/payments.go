package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/geocoder89/clubhub/internal/domain/registration"
	"github.com/geocoder89/clubhub/internal/domain/user"
)

type PaymentReviewer interface {
	ListForReview(ctx context.Context, actor user.Actor, status string) ([]registration.ReviewRow, error)
	Approve(ctx context.Context, eventID, registrationID string, actor user.Actor) (registration.PaymentReceipt, error)
	Reject(ctx context.Context, eventID, registrationID, reason string, actor user.Actor) (registration.PaymentReceipt, error)
}

type PaymentsHandler struct {
	review PaymentReviewer
}

func NewPaymentsHandler(review PaymentReviewer) *PaymentsHandler {
	return &PaymentsHandler{review: review}
}

type rejectRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// List serves both /admin/payments and /admin/payments/:status.
func (h *PaymentsHandler) List(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}

	cctx, cancel := withTimeout(ctx, requestTimeout)
	defer cancel()

	rows, err := h.review.ListForReview(cctx, actor, ctx.Param("status"))
	if err != nil {
		RespondErr(ctx, err)
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, gin.H{
		"count": len(rows),
		"items": rows,
	})
}

func (h *PaymentsHandler) Approve(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}

	cctx, cancel := withTimeout(ctx, requestTimeout)
	defer cancel()

	p, err := h.review.Approve(cctx, ctx.Param("eventId"), ctx.Param("registrationId"), actor)
	if err != nil {
		RespondErr(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, p)
}

func (h *PaymentsHandler) Reject(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}

	var req rejectRequest
	if !BindOptionalJSON(ctx, &req) {
		return
	}

	cctx, cancel := withTimeout(ctx, requestTimeout)
	defer cancel()

	p, err := h.review.Reject(cctx, ctx.Param("eventId"), ctx.Param("registrationId"), req.Reason, actor)
	if err != nil {
		RespondErr(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, p)
}

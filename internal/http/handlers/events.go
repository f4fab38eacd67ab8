package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/geocoder89/clubhub/internal/domain/event"
	"github.com/geocoder89/clubhub/internal/domain/user"
	"github.com/geocoder89/clubhub/internal/http/middlewares"
)

const requestTimeout = 5 * time.Second

type EventManager interface {
	Create(ctx context.Context, actor user.Actor, req event.CreateEventRequest) (event.Event, error)
	Get(ctx context.Context, id string) (event.View, error)
	Cancel(ctx context.Context, actor user.Actor, id string) (event.View, error)
}

type EventsHandler struct {
	events EventManager
}

func NewEventsHandler(events EventManager) *EventsHandler {
	return &EventsHandler{events: events}
}

func (h *EventsHandler) CreateEvent(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}

	var req event.CreateEventRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := withTimeout(ctx, requestTimeout)
	defer cancel()

	e, err := h.events.Create(cctx, actor, req)
	if err != nil {
		RespondErr(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, e)
}

func (h *EventsHandler) GetEventByID(ctx *gin.Context) {
	cctx, cancel := withTimeout(ctx, requestTimeout)
	defer cancel()

	v, err := h.events.Get(cctx, ctx.Param("id"))
	if err != nil {
		RespondErr(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, v)
}

func (h *EventsHandler) CancelEvent(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}

	cctx, cancel := withTimeout(ctx, requestTimeout)
	defer cancel()

	v, err := h.events.Cancel(cctx, actor, ctx.Param("id"))
	if err != nil {
		RespondErr(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, v)
}

// requireActor answers 401 itself when the auth middleware did not run.
func requireActor(ctx *gin.Context) (user.Actor, bool) {
	actor, ok := middlewares.ActorFromContext(ctx)
	if !ok {
		RespondUnauthorized(ctx, "Missing identity")
		return user.Actor{}, false
	}
	return actor, true
}

func withTimeout(ctx *gin.Context, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx.Request.Context(), d)
}

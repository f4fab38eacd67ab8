package handlers

import (
	"context"
	"mime"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/geocoder89/clubhub/internal/domain/user"
	"github.com/geocoder89/clubhub/internal/render"
	"github.com/geocoder89/clubhub/internal/services"
)

// pdf rendering drives a headless browser
const renderTimeout = 20 * time.Second

type ReceiptReader interface {
	Metadata(ctx context.Context, eventID string, actor user.Actor, userID string) (services.ReceiptMetadata, error)
	ViewProof(ctx context.Context, eventID string, actor user.Actor) (services.ProofRef, error)
	RenderOfficial(ctx context.Context, eventID string, actor user.Actor, format string) (render.Document, error)
	Share(ctx context.Context, eventID string, actor user.Actor) (services.ShareLink, error)
	ResolveShare(ctx context.Context, token, format string) (render.Document, error)
}

type ReceiptsHandler struct {
	receipts ReceiptReader
}

func NewReceiptsHandler(receipts ReceiptReader) *ReceiptsHandler {
	return &ReceiptsHandler{receipts: receipts}
}

func (h *ReceiptsHandler) Metadata(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}

	cctx, cancel := withTimeout(ctx, requestTimeout)
	defer cancel()

	md, err := h.receipts.Metadata(cctx, ctx.Param("eventId"), actor, ctx.Query("userId"))
	if err != nil {
		RespondErr(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, md)
}

func (h *ReceiptsHandler) Proof(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}

	cctx, cancel := withTimeout(ctx, requestTimeout)
	defer cancel()

	ref, err := h.receipts.ViewProof(cctx, ctx.Param("eventId"), actor)
	if err != nil {
		RespondErr(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, ref)
}

func (h *ReceiptsHandler) Download(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}

	cctx, cancel := withTimeout(ctx, renderTimeout)
	defer cancel()

	doc, err := h.receipts.RenderOfficial(cctx, ctx.Param("eventId"), actor, ctx.Query("format"))
	if err != nil {
		RespondErr(ctx, err)
		return
	}

	sendDocument(ctx, doc, "attachment")
}

func (h *ReceiptsHandler) Share(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}

	cctx, cancel := withTimeout(ctx, requestTimeout)
	defer cancel()

	link, err := h.receipts.Share(cctx, ctx.Param("eventId"), actor)
	if err != nil {
		RespondErr(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, link)
}

// Shared is public: the token is the credential.
func (h *ReceiptsHandler) Shared(ctx *gin.Context) {
	cctx, cancel := withTimeout(ctx, renderTimeout)
	defer cancel()

	doc, err := h.receipts.ResolveShare(cctx, ctx.Param("token"), ctx.Query("format"))
	if err != nil {
		RespondErr(ctx, err)
		return
	}

	sendDocument(ctx, doc, "inline")
}

func sendDocument(ctx *gin.Context, doc render.Document, disposition string) {
	ctx.Header("Content-Disposition", mime.FormatMediaType(disposition, map[string]string{"filename": doc.Filename}))
	ctx.Header("Cache-Control", "private, max-age=0")
	RespondDataWithETag(ctx, doc.ContentType, doc.Body)
}

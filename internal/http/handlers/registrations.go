package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/geocoder89/clubhub/internal/domain/registration"
	"github.com/geocoder89/clubhub/internal/domain/user"
)

// uploads get longer than plain requests: the proof is stored before the save
const registerTimeout = 30 * time.Second

// ProofField is the multipart field carrying the proof of payment.
const ProofField = "receipt"

type Registrar interface {
	Register(ctx context.Context, eventID string, actor user.Actor, form registration.Form, proof *registration.ProofFile) (registration.Registration, error)
	Unregister(ctx context.Context, eventID string, actor user.Actor) error
}

type RegistrationHandler struct {
	regs Registrar
}

func NewRegistrationHandler(regs Registrar) *RegistrationHandler {
	return &RegistrationHandler{regs: regs}
}

func (h *RegistrationHandler) Register(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}

	var form registration.Form
	if !BindForm(ctx, &form) {
		return
	}

	var proof *registration.ProofFile

	fh, err := ctx.FormFile(ProofField)
	switch {
	case err == nil:
		f, err := fh.Open()
		if err != nil {
			RespondBadRequest(ctx, "could not read receipt file", nil)
			return
		}
		defer f.Close()

		proof = &registration.ProofFile{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
			Body:        f,
		}
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		// free events need no file; the service decides
	default:
		RespondBadRequest(ctx, "could not read receipt file", nil)
		return
	}

	cctx, cancel := withTimeout(ctx, registerTimeout)
	defer cancel()

	reg, err := h.regs.Register(cctx, ctx.Param("id"), actor, form, proof)
	if err != nil {
		RespondErr(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, reg)
}

func (h *RegistrationHandler) Unregister(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}

	cctx, cancel := withTimeout(ctx, requestTimeout)
	defer cancel()

	if err := h.regs.Unregister(cctx, ctx.Param("id"), actor); err != nil {
		RespondErr(ctx, err)
		return
	}

	ctx.Status(http.StatusNoContent)
}

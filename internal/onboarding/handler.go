package onboarding

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"kyc-backend/internal/inspect"
	"kyc-backend/internal/shared/server/middleware"
	"kyc-backend/internal/shared/server/respond"
)

// Multipart field names of the upload form.
const (
	FormPANFile     = "panFile"
	FormAadhaarFile = "aadhaarFile"
)

// Room for two maximum-size files plus multipart framing.
const maxUploadBody = 2*inspect.MaxFileSize + 1<<20

// StatusRoute is the polling route, rate limited separately.
const StatusRoute = "/onboarding/:workflowId/status"

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches onboarding routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/onboarding/create", h.create)
	rg.POST("/onboarding/:workflowId/upload", h.upload)
	rg.GET(StatusRoute, h.status)
	rg.POST("/onboarding/:workflowId/webhook", h.webhook)
	rg.GET("/onboardings", h.list)
	rg.GET("/dashboard/stats", h.stats)
}

func (h *Handler) create(c *gin.Context) {
	rec, err := h.Svc.Create(c.Request.Context())
	if err != nil {
		h.fail(c, err, MsgInternal)
		return
	}
	c.Set(middleware.WorkflowIDKey, rec.WorkflowID)
	c.Set(middleware.StatusTransitionKey, "->"+string(rec.Status))

	respond.JSON(c, http.StatusOK, createResponse{
		Success:    true,
		Onboarding: rec,
		WorkflowID: rec.WorkflowID,
	})
}

func (h *Handler) upload(c *gin.Context) {
	workflowID := c.Param("workflowId")
	c.Set(middleware.WorkflowIDKey, workflowID)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBody)

	pan, err := formDocument(c, FormPANFile)
	if err != nil {
		h.rejectForm(c, err)
		return
	}
	aadhaar, err := formDocument(c, FormAadhaarFile)
	if err != nil {
		h.rejectForm(c, err)
		return
	}

	ctx := WithRequestID(c.Request.Context(), middleware.RequestIDFromContext(c))
	res, err := h.Svc.Upload(ctx, workflowID, pan, aadhaar)
	if err != nil {
		if errors.Is(err, ErrRelayFailed) {
			c.Set(middleware.StatusTransitionKey, "processing->failed")
		}
		h.fail(c, err, MsgInternal)
		return
	}
	c.Set(middleware.StatusTransitionKey, "->processing")

	respond.JSON(c, http.StatusOK, uploadResponse{
		Success:       true,
		Message:       MsgUploaded,
		WorkflowID:    workflowID,
		RelayResponse: res.RelayResponse,
	})
}

// formDocument reads one file field; a missing field yields nil.
func formDocument(c *gin.Context, field string) (*DocumentFile, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, err
	}
	return readDocument(fh)
}

func readDocument(fh *multipart.FileHeader) (*DocumentFile, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, inspect.MaxFileSize+1))
	if err != nil {
		return nil, err
	}
	return &DocumentFile{
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

func (h *Handler) rejectForm(c *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		respond.Error(c, http.StatusBadRequest, "validation_error", MsgFileTooLarge, nil)
		return
	}
	respond.Error(c, http.StatusBadRequest, "validation_error", MsgFilesRequired, nil)
}

func (h *Handler) status(c *gin.Context) {
	workflowID := c.Param("workflowId")
	c.Set(middleware.WorkflowIDKey, workflowID)

	view, err := h.Svc.Status(c.Request.Context(), workflowID)
	if err != nil {
		h.fail(c, err, MsgStatusFailed)
		return
	}
	respond.JSON(c, http.StatusOK, statusResponse{Success: true, Status: view})
}

func (h *Handler) webhook(c *gin.Context) {
	workflowID := c.Param("workflowId")
	c.Set(middleware.WorkflowIDKey, workflowID)

	// An empty body is an empty merge.
	var patch Patch
	err := c.ShouldBindJSON(&patch)
	if errors.Is(err, io.EOF) {
		patch, err = Patch{}, nil
	}
	if err != nil || patch == nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", MsgInvalidWebhook, nil)
		return
	}

	ctx := WithRequestID(c.Request.Context(), middleware.RequestIDFromContext(c))
	rec, err := h.Svc.ApplyWebhook(ctx, workflowID, patch)
	if err != nil {
		h.fail(c, err, MsgUpdateFailed)
		return
	}
	if status, ok := patch.Status(); ok {
		c.Set(middleware.StatusTransitionKey, "->"+string(status))
	}

	respond.JSON(c, http.StatusOK, webhookResponse{
		Success:    true,
		Message:    MsgStatusUpdated,
		Onboarding: rec,
	})
}

func (h *Handler) list(c *gin.Context) {
	recs, err := h.Svc.List(c.Request.Context(), c.Query("status"), parseLimit(c.Query("limit")))
	if err != nil {
		h.fail(c, err, MsgListFailed)
		return
	}
	if recs == nil {
		recs = []Record{}
	}
	respond.JSON(c, http.StatusOK, listResponse{Success: true, Onboardings: recs})
}

func (h *Handler) stats(c *gin.Context) {
	stats, err := h.Svc.Stats(c.Request.Context())
	if err != nil {
		h.fail(c, err, MsgStatsFailed)
		return
	}
	respond.JSON(c, http.StatusOK, statsResponse{Success: true, Stats: stats})
}

// fail maps service errors to HTTP responses. Unexpected errors get the
// route's generic message and no detail.
func (h *Handler) fail(c *gin.Context, err error, generic string) {
	var validationErr *ValidationError
	var relayErr *RelayError
	switch {
	case errors.As(err, &validationErr):
		respond.Error(c, http.StatusBadRequest, "validation_error", validationErr.Message, nil)
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", MsgNotFound, nil)
	case errors.As(err, &relayErr):
		respond.Error(c, http.StatusInternalServerError, "relay_failed", MsgRelayFailed, relayErr.Cause.Error())
	default:
		_ = c.Error(err)
		respond.Error(c, http.StatusInternalServerError, "internal_error", generic, nil)
	}
}

package httpx

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/prakritea/artisan-studio/internal/domain/studio"
	apperrors "github.com/prakritea/artisan-studio/internal/errors"
	"github.com/prakritea/artisan-studio/internal/http/ui/viewmodel"
	"github.com/prakritea/artisan-studio/internal/service"
)

const (
	// uploadFormOverhead covers multipart boundaries and the small fields
	// sent alongside the image.
	uploadFormOverhead = 1 << 20
	// uploadMemoryBytes is how much of a multipart body is kept in memory
	// before spilling to temp files.
	uploadMemoryBytes = 8 << 20
	imageCacheControl = "private, max-age=300"
)

// studioPage returns the template data for the studio page or panel.
func (h *UIHandlers) studioPage(r *http.Request, f studio.Flow, opts viewmodel.StudioOptions) map[string]any {
	opts.MaxUploadBytes = h.Studio.MaxUploadBytes()
	return h.pageData(r, PageMeta{Title: "Studio", CurrentPage: PageStudio, Protected: true}).
		With("Studio", viewmodel.NewStudio(f, opts)).
		Build()
}

// renderStudio answers htmx and the studio script with the panel alone and
// everything else with the full page.
func (h *UIHandlers) renderStudio(w http.ResponseWriter, r *http.Request, status int, f studio.Flow, opts viewmodel.StudioOptions) {
	data := h.studioPage(r, f, opts)
	if WantsPartial(r) {
		h.renderPartial(w, r, templateStudioPanel, status, data)
		return
	}
	h.render(w, r, status, data)
}

// studioFailure re-renders the panel with err next to the failing field, or
// as a general message. The flow is reloaded so the panel matches storage.
func (h *UIHandlers) studioFailure(w http.ResponseWriter, r *http.Request, flowID string, err error) {
	status := StatusForError(err)
	if status >= http.StatusInternalServerError {
		h.logger().ErrorContext(r.Context(), "studio request failed", "path", r.URL.Path, "error", err)
	}
	fe := NewFormErrors(err)
	f, flowErr := h.Studio.Flow(r.Context(), flowID)
	if flowErr != nil {
		h.logger().ErrorContext(r.Context(), "reloading flow failed", "error", flowErr)
		f = studio.NewFlow(flowID, time.Now())
	}
	h.renderStudio(w, r, status, f, viewmodel.StudioOptions{FieldErrors: fe.Fields, Error: fe.General})
}

// afterStudioAction finishes a successful POST: the panel for htmx and the
// studio script, a 303 back to /studio for plain forms.
func (h *UIHandlers) afterStudioAction(w http.ResponseWriter, r *http.Request, f studio.Flow, opts viewmodel.StudioOptions) {
	if !WantsPartial(r) {
		http.Redirect(w, r, "/studio", http.StatusSeeOther)
		return
	}
	h.renderStudio(w, r, http.StatusOK, f, opts)
}

// StudioPage renders the studio for the visitor's flow.
// GET /studio.
func (h *UIHandlers) StudioPage(w http.ResponseWriter, r *http.Request) {
	flowID := SessionIDFromContext(r.Context())
	f, err := h.Studio.Flow(r.Context(), flowID)
	if err != nil {
		h.logger().ErrorContext(r.Context(), "loading flow failed", "error", err)
		h.renderStudio(w, r, http.StatusInternalServerError, studio.NewFlow(flowID, time.Now()),
			viewmodel.StudioOptions{Error: apperrors.MsgSomethingWentWrong})
		return
	}
	h.renderStudio(w, r, http.StatusOK, f, viewmodel.StudioOptions{})
}

// UploadImage fills the content or style slot.
// POST /studio/images/{slot} with multipart fields "image" and "source".
func (h *UIHandlers) UploadImage(w http.ResponseWriter, r *http.Request) {
	flowID := SessionIDFromContext(r.Context())
	slot, ok := studio.ParseSlot(r.PathValue("slot"))
	if !ok {
		h.NotFound(w, r)
		return
	}

	upload, err := h.readUpload(w, r, slot)
	if err != nil {
		h.studioFailure(w, r, flowID, err)
		return
	}

	res, err := h.Studio.SetImage(r.Context(), flowID, upload)
	if err != nil {
		h.studioFailure(w, r, flowID, err)
		return
	}
	if res.Ignored {
		h.logger().DebugContext(r.Context(), "ignored non-image drop", "slot", slot)
	}
	h.afterStudioAction(w, r, res.Flow, viewmodel.StudioOptions{})
}

func (h *UIHandlers) readUpload(w http.ResponseWriter, r *http.Request, slot studio.Slot) (service.ImageUpload, error) {
	field := slot.FormField()
	maxBytes := h.Studio.MaxUploadBytes()

	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+uploadFormOverhead)
	if err := r.ParseMultipartForm(uploadMemoryBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return service.ImageUpload{}, apperrors.ValidationField(field, service.MsgImageTooLarge)
		}
		return service.ImageUpload{}, apperrors.ValidationField(field, service.MsgNotAnImage)
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		return service.ImageUpload{}, apperrors.ValidationField(field, service.MsgNotAnImage)
	}
	defer file.Close()

	// One byte past the limit is enough for the service to reject it.
	data, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
	if err != nil {
		return service.ImageUpload{}, apperrors.ValidationField(field, service.MsgNotAnImage)
	}

	return service.ImageUpload{
		Slot:     slot,
		Source:   studio.ParseSource(r.FormValue("source")),
		Filename: header.Filename,
		Data:     data,
	}, nil
}

// Generate submits both images. A backend failure comes back as a Failed
// flow, not an error; a second submission while one runs gets 409.
// POST /studio/generate.
func (h *UIHandlers) Generate(w http.ResponseWriter, r *http.Request) {
	flowID := SessionIDFromContext(r.Context())
	f, err := h.Studio.Generate(r.Context(), flowID)
	if err != nil {
		h.studioFailure(w, r, flowID, err)
		return
	}
	h.afterStudioAction(w, r, f, viewmodel.StudioOptions{})
}

// Reset starts a new composition.
// POST /studio/reset.
func (h *UIHandlers) Reset(w http.ResponseWriter, r *http.Request) {
	flowID := SessionIDFromContext(r.Context())
	f, err := h.Studio.Reset(r.Context(), flowID)
	if err != nil {
		h.studioFailure(w, r, flowID, err)
		return
	}
	h.afterStudioAction(w, r, f, viewmodel.StudioOptions{})
}

// CameraDenied shows the blocking notice after the browser refused camera
// access.
// POST /studio/camera/denied.
func (h *UIHandlers) CameraDenied(w http.ResponseWriter, r *http.Request) {
	flowID := SessionIDFromContext(r.Context())
	notice := h.Studio.CameraDenied(r.Context(), flowID, r.FormValue("reason"))

	f, err := h.Studio.Flow(r.Context(), flowID)
	if err != nil {
		h.studioFailure(w, r, flowID, err)
		return
	}
	h.renderStudio(w, r, http.StatusOK, f, viewmodel.StudioOptions{Notice: apperrors.UserMessage(notice)})
}

// StudioImage serves an uploaded image preview.
// GET /studio/images/{id}.
func (h *UIHandlers) StudioImage(w http.ResponseWriter, r *http.Request) {
	img, err := h.Studio.Image(r.Context(), SessionIDFromContext(r.Context()), r.PathValue("id"))
	if err != nil {
		h.imageFailure(w, r, err)
		return
	}
	writeImage(w, img, "")
}

// StudioResult serves the generated artwork inline.
// GET /studio/result.
func (h *UIHandlers) StudioResult(w http.ResponseWriter, r *http.Request) {
	img, err := h.Studio.Result(r.Context(), SessionIDFromContext(r.Context()))
	if err != nil {
		h.imageFailure(w, r, err)
		return
	}
	writeImage(w, img, "")
}

// DownloadResult serves the generated artwork as an attachment named after
// the moment of download.
// GET /studio/result/download.
func (h *UIHandlers) DownloadResult(w http.ResponseWriter, r *http.Request) {
	img, err := h.Studio.Result(r.Context(), SessionIDFromContext(r.Context()))
	if err != nil {
		h.imageFailure(w, r, err)
		return
	}
	disposition := mime.FormatMediaType("attachment", map[string]string{
		"filename": studio.ResultFilename(time.Now()),
	})
	writeImage(w, img, disposition)
}

func (h *UIHandlers) imageFailure(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusForError(err)
	if status >= http.StatusInternalServerError {
		h.logger().ErrorContext(r.Context(), "serving image failed", "path", r.URL.Path, "error", err)
	}
	h.renderErrorPage(w, r, status, apperrors.UserMessage(err))
}

func writeImage(w http.ResponseWriter, img studio.Image, disposition string) {
	contentType := img.ContentType
	if contentType == "" {
		contentType = http.DetectContentType(img.Data)
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(img.Data)))
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Cache-Control", imageCacheControl)
	if disposition != "" {
		w.Header().Set("Content-Disposition", disposition)
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(img.Data)
}

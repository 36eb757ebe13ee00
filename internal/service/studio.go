package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/prakritea/artisan-studio/internal/domain/studio"
	apperrors "github.com/prakritea/artisan-studio/internal/errors"
	"github.com/prakritea/artisan-studio/internal/observability/metrics"
	"github.com/prakritea/artisan-studio/internal/observability/statsd"
	"github.com/prakritea/artisan-studio/internal/ports"
)

// Messages shown on the studio page.
const (
	MsgGenerationFailed   = "Failed to generate artwork. Please try again."
	MsgNotAnImage         = "Please choose an image file"
	MsgImageTooLarge      = "That image is too large"
	MsgBothImagesRequired = "Please upload both images."
	MsgGenerationRunning  = "Your artwork is still being generated"
)

// DefaultMaxUploadBytes caps an uploaded image when no limit is configured.
const DefaultMaxUploadBytes = 10 << 20

// DefaultGenerationLease bounds how long an unfinished generation blocks its
// flow when no lease is configured.
const DefaultGenerationLease = 3 * time.Minute

// errLeaseLost means the flow moved on before a generation outcome arrived.
var errLeaseLost = errors.New("generation lease lost")

// StudioStores groups the persistence ports used by StudioService.
type StudioStores struct {
	Flows  ports.FlowStore
	Images ports.ImageStore
}

// StudioConfig holds tunables and optional collaborators.
type StudioConfig struct {
	MaxUploadBytes int64
	// GenerationLease is how long a submission may stay pending. After it,
	// the flow is treated as Failed so the visitor can retry or start over.
	GenerationLease time.Duration
	Logger          *slog.Logger
	Metrics         statsd.Sink
}

// StudioServiceOptions groups dependencies for StudioService.
type StudioServiceOptions struct {
	Backend ports.StyleTransferBackend // Required
	Stores  StudioStores               // Required
	Config  StudioConfig
}

// StudioService drives the style-transfer flow of one visitor: collecting a
// content and a style image, submitting them once, and keeping the result.
type StudioService struct {
	backend  ports.StyleTransferBackend
	flows    ports.FlowStore
	images   ports.ImageStore
	maxBytes int64
	lease    time.Duration
	logger   *slog.Logger
	metrics  statsd.Sink
	now      func() time.Time
}

// NewStudioService constructs a new StudioService.
func NewStudioService(opts StudioServiceOptions) *StudioService {
	if opts.Backend == nil {
		panic("StyleTransferBackend is required")
	}
	if opts.Stores.Flows == nil || opts.Stores.Images == nil {
		panic("flow and image stores are required")
	}
	maxBytes := opts.Config.MaxUploadBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	lease := opts.Config.GenerationLease
	if lease <= 0 {
		lease = DefaultGenerationLease
	}
	logger := opts.Config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &StudioService{
		backend:  opts.Backend,
		flows:    opts.Stores.Flows,
		images:   opts.Stores.Images,
		maxBytes: maxBytes,
		lease:    lease,
		logger:   logger.With("component", "studio_service"),
		metrics:  opts.Config.Metrics,
		now:      time.Now,
	}
}

// MaxUploadBytes is the largest accepted image.
func (s *StudioService) MaxUploadBytes() int64 { return s.maxBytes }

// Flow returns the visitor's flow, empty if none was started. A generation
// past its lease is reported as Failed; the next write persists that.
func (s *StudioService) Flow(ctx context.Context, flowID string) (studio.Flow, error) {
	now := s.now()
	f, err := s.flows.Get(ctx, flowID)
	if errors.Is(err, ports.ErrNotFound) {
		return studio.NewFlow(flowID, now), nil
	}
	if err != nil {
		return studio.Flow{}, fmt.Errorf("get flow: %w", err)
	}
	f.ExpireLease(s.lease, MsgGenerationFailed, now)
	return f, nil
}

// ImageUpload is one file offered for a slot.
type ImageUpload struct {
	Slot     studio.Slot
	Source   studio.Source
	Filename string
	Data     []byte
}

// SetImageResult reports the flow after an upload. Ignored is set when a
// dropped file was not an image and nothing changed.
type SetImageResult struct {
	Flow    studio.Flow
	Ignored bool
}

// SetImage validates an upload by sniffing its bytes and puts it in its slot.
// A superseded image, and any finished result, are deleted.
func (s *StudioService) SetImage(ctx context.Context, flowID string, in ImageUpload) (SetImageResult, error) {
	field := in.Slot.FormField()
	res, err := s.setImage(ctx, flowID, field, in)
	metrics.EmitUpload(s.metrics, string(in.Slot), string(in.Source), err)
	return res, err
}

func (s *StudioService) setImage(ctx context.Context, flowID, field string, in ImageUpload) (SetImageResult, error) {
	if int64(len(in.Data)) > s.maxBytes {
		return SetImageResult{}, apperrors.ValidationField(field, MsgImageTooLarge)
	}

	contentType := http.DetectContentType(in.Data)
	if len(in.Data) == 0 || !studio.IsImageMediaType(contentType) {
		if in.Source == studio.SourceDrop {
			f, err := s.Flow(ctx, flowID)
			return SetImageResult{Flow: f, Ignored: true}, err
		}
		return SetImageResult{}, apperrors.ValidationField(field, MsgNotAnImage)
	}

	now := s.now()
	img := studio.Image{
		ID:          uuid.NewString(),
		ContentType: contentType,
		Filename:    in.Filename,
		Data:        in.Data,
		CreatedAt:   now,
	}
	if err := s.images.Put(ctx, img); err != nil {
		return SetImageResult{}, fmt.Errorf("store image: %w", err)
	}

	var discarded []studio.ImageRef
	f, err := s.flows.Update(ctx, flowID, func(f *studio.Flow) error {
		f.ExpireLease(s.lease, MsgGenerationFailed, now)
		var setErr error
		discarded, setErr = f.SetImage(in.Slot, img.Ref(), now)
		return setErr
	})
	if err != nil {
		s.deleteImages(ctx, img.Ref())
		return SetImageResult{}, s.transitionError(err)
	}

	s.deleteImages(ctx, discarded...)
	return SetImageResult{Flow: f}, nil
}

// Generate submits both images to the style-transfer backend. At most one
// submission runs per flow; a concurrent call fails with a conflict wrapping
// studio.ErrSubmissionInFlight and sends nothing.
//
// Backend and transport failures are not returned: the flow comes back
// Failed with MsgGenerationFailed and the cause is logged. A submission left
// pending longer than the lease no longer blocks the flow.
func (s *StudioService) Generate(ctx context.Context, flowID string) (studio.Flow, error) {
	var discarded []studio.ImageRef
	startedAt := s.now()
	f, err := s.flows.Update(ctx, flowID, func(f *studio.Flow) error {
		f.ExpireLease(s.lease, MsgGenerationFailed, startedAt)
		var beginErr error
		discarded, beginErr = f.Begin(startedAt)
		return beginErr
	})
	if err != nil {
		return studio.Flow{}, s.transitionError(err)
	}
	s.deleteImages(ctx, discarded...)

	start := time.Now()
	result, err := s.runGeneration(ctx, f)
	// The outcome is recorded even if the visitor went away mid-request, so
	// the flow never stays Submitting.
	done := context.WithoutCancel(ctx)
	if err != nil {
		metrics.EmitGeneration(s.metrics, metrics.GenerationMetric{Duration: time.Since(start), Err: err})
		s.logger.WarnContext(ctx, "style transfer failed", "flow_id", flowID, "error", err)
		final, _, finishErr := s.finish(done, flowID, startedAt, func(f *studio.Flow) error {
			return f.Fail(MsgGenerationFailed, s.now())
		})
		return final, finishErr
	}

	metrics.EmitGeneration(s.metrics, metrics.GenerationMetric{Duration: time.Since(start), ResultBytes: len(result.Data)})
	final, recorded, err := s.finish(done, flowID, startedAt, func(f *studio.Flow) error {
		return f.Succeed(result.Ref(), s.now())
	})
	if err != nil || !recorded {
		s.deleteImages(done, result.Ref())
	}
	return final, err
}

func (s *StudioService) runGeneration(ctx context.Context, f studio.Flow) (studio.Image, error) {
	var content, style studio.Image
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		content, err = s.images.Get(gctx, f.Content.ID)
		if err != nil {
			return fmt.Errorf("load content image: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		style, err = s.images.Get(gctx, f.Style.ID)
		if err != nil {
			return fmt.Errorf("load style image: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return studio.Image{}, err
	}

	out, err := s.backend.StyleTransfer(ctx, content, style)
	if err != nil {
		return studio.Image{}, err
	}

	now := s.now()
	out.ID = uuid.NewString()
	out.Filename = studio.ResultFilename(now)
	out.CreatedAt = now
	if out.ContentType == "" {
		out.ContentType = http.DetectContentType(out.Data)
	}
	if err := s.images.Put(context.WithoutCancel(ctx), out); err != nil {
		return studio.Image{}, fmt.Errorf("store result: %w", err)
	}
	return out, nil
}

// finish records an outcome for the submission begun at startedAt. When the
// flow has moved on (the lease expired, or it was reset and resubmitted) the
// outcome is dropped and recorded is false.
func (s *StudioService) finish(ctx context.Context, flowID string, startedAt time.Time, fn func(*studio.Flow) error) (studio.Flow, bool, error) {
	f, err := s.flows.Update(ctx, flowID, func(f *studio.Flow) error {
		if !f.HoldsLease(startedAt) {
			return errLeaseLost
		}
		return fn(f)
	})
	if errors.Is(err, errLeaseLost) {
		s.logger.WarnContext(ctx, "generation outcome arrived after its lease", "flow_id", flowID)
		current, getErr := s.Flow(ctx, flowID)
		return current, false, getErr
	}
	if err != nil {
		return studio.Flow{}, false, fmt.Errorf("record generation outcome: %w", err)
	}
	return f, true, nil
}

// Reset empties the flow and deletes every image it held.
func (s *StudioService) Reset(ctx context.Context, flowID string) (studio.Flow, error) {
	var discarded []studio.ImageRef
	now := s.now()
	f, err := s.flows.Update(ctx, flowID, func(f *studio.Flow) error {
		f.ExpireLease(s.lease, MsgGenerationFailed, now)
		var resetErr error
		discarded, resetErr = f.Reset(now)
		return resetErr
	})
	if err != nil {
		return studio.Flow{}, s.transitionError(err)
	}
	s.deleteImages(ctx, discarded...)
	return f, nil
}

// Image returns one of the flow's images. Images belonging to other flows are
// reported as not found.
func (s *StudioService) Image(ctx context.Context, flowID, imageID string) (studio.Image, error) {
	f, err := s.Flow(ctx, flowID)
	if err != nil {
		return studio.Image{}, err
	}
	if !f.Owns(imageID) {
		return studio.Image{}, apperrors.NotFound("Image not found")
	}
	return s.loadImage(ctx, imageID)
}

// Result returns the generated image of a Succeeded flow.
func (s *StudioService) Result(ctx context.Context, flowID string) (studio.Image, error) {
	f, err := s.Flow(ctx, flowID)
	if err != nil {
		return studio.Image{}, err
	}
	if f.State() != studio.StateSucceeded || f.Generation.Result == nil {
		return studio.Image{}, apperrors.NotFound("No artwork has been generated yet")
	}
	return s.loadImage(ctx, f.Generation.Result.ID)
}

// CameraDenied records that the browser refused camera access and returns
// the blocking notice to show.
func (s *StudioService) CameraDenied(ctx context.Context, flowID, reason string) error {
	s.logger.InfoContext(ctx, "camera access denied", "flow_id", flowID, "reason", reason)
	if s.metrics != nil {
		s.metrics.Count("studio.camera_denied", 1, nil)
	}
	return apperrors.MediaAccess(reason)
}

func (s *StudioService) loadImage(ctx context.Context, id string) (studio.Image, error) {
	img, err := s.images.Get(ctx, id)
	if errors.Is(err, ports.ErrNotFound) {
		return studio.Image{}, apperrors.NotFound("Image not found")
	}
	if err != nil {
		return studio.Image{}, fmt.Errorf("load image: %w", err)
	}
	return img, nil
}

// transitionError maps state-machine refusals to application errors while
// keeping the sentinel reachable through errors.Is.
func (s *StudioService) transitionError(err error) error {
	switch {
	case errors.Is(err, studio.ErrSubmissionInFlight):
		return apperrors.Wrap(err, apperrors.ErrCodeConflict, MsgGenerationRunning)
	case errors.Is(err, studio.ErrNotReady):
		return apperrors.Wrap(err, apperrors.ErrCodeValidation, MsgBothImagesRequired)
	case errors.Is(err, studio.ErrInvalidTransition):
		return apperrors.Wrap(err, apperrors.ErrCodeConflict, apperrors.MsgSomethingWentWrong)
	default:
		return fmt.Errorf("update flow: %w", err)
	}
}

// deleteImages is best effort; image keys also expire on their own.
func (s *StudioService) deleteImages(ctx context.Context, refs ...studio.ImageRef) {
	if len(refs) == 0 {
		return
	}
	ids := make([]string, 0, len(refs))
	for _, r := range refs {
		ids = append(ids, r.ID)
	}
	if err := s.images.Delete(context.WithoutCancel(ctx), ids...); err != nil {
		s.logger.WarnContext(ctx, "delete superseded images failed", "count", len(ids), "error", err)
	}
}

package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/prakritea/artisan-studio/internal/adapters/memory"
	"github.com/prakritea/artisan-studio/internal/domain/studio"
	apperrors "github.com/prakritea/artisan-studio/internal/errors"
	"github.com/prakritea/artisan-studio/internal/mocks"
	"github.com/prakritea/artisan-studio/internal/ports"
	"github.com/prakritea/artisan-studio/internal/testutil"
)

var (
	pngBytes  = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01")
	jpegBytes = []byte("\xff\xd8\xff\xe0\x00\x10JFIF\x00")
)

type studioFixture struct {
	svc     *StudioService
	backend *mocks.MockStyleTransferBackend
	images  *memory.ImageStore
	flows   *memory.FlowStore
}

func newStudioFixture(t *testing.T) studioFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	backend := mocks.NewMockStyleTransferBackend(ctrl)
	images := memory.NewImageStore(0)
	flows := memory.NewFlowStore(0)
	svc := NewStudioService(StudioServiceOptions{
		Backend: backend,
		Stores:  StudioStores{Flows: flows, Images: images},
		Config:  StudioConfig{MaxUploadBytes: 1024},
	})
	return studioFixture{svc: svc, backend: backend, images: images, flows: flows}
}

func (f studioFixture) load(t *testing.T, flowID string) studio.Flow {
	t.Helper()
	ctx := context.Background()
	_, err := f.svc.SetImage(ctx, flowID, ImageUpload{Slot: studio.SlotContent, Source: studio.SourcePicker, Filename: "c.png", Data: pngBytes})
	require.NoError(t, err)
	res, err := f.svc.SetImage(ctx, flowID, ImageUpload{Slot: studio.SlotStyle, Source: studio.SourceCamera, Data: jpegBytes})
	require.NoError(t, err)
	require.Equal(t, studio.StateReady, res.Flow.State())
	return res.Flow
}

func TestStudioService_SetImage(t *testing.T) {
	f := newStudioFixture(t)
	ctx := context.Background()

	res, err := f.svc.SetImage(ctx, "f1", ImageUpload{Slot: studio.SlotContent, Source: studio.SourcePicker, Filename: "c.png", Data: pngBytes})
	require.NoError(t, err)
	assert.False(t, res.Ignored)
	assert.Equal(t, studio.StatePartiallyLoaded, res.Flow.State())
	assert.False(t, res.Flow.CanSubmit())
	require.NotNil(t, res.Flow.Content)
	assert.Equal(t, "image/png", res.Flow.Content.ContentType)

	img, err := f.svc.Image(ctx, "f1", res.Flow.Content.ID)
	require.NoError(t, err)
	assert.Equal(t, pngBytes, img.Data)
}

func TestStudioService_SetImage_ReplacesAndDeletes(t *testing.T) {
	f := newStudioFixture(t)
	ctx := context.Background()

	first, err := f.svc.SetImage(ctx, "f1", ImageUpload{Slot: studio.SlotStyle, Source: studio.SourcePicker, Data: pngBytes})
	require.NoError(t, err)
	oldID := first.Flow.Style.ID

	second, err := f.svc.SetImage(ctx, "f1", ImageUpload{Slot: studio.SlotStyle, Source: studio.SourceDrop, Data: jpegBytes})
	require.NoError(t, err)
	assert.NotEqual(t, oldID, second.Flow.Style.ID)

	_, err = f.images.Get(ctx, oldID)
	assert.ErrorIs(t, err, ports.ErrNotFound, "superseded image deleted")

	_, err = f.svc.Image(ctx, "f1", oldID)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestStudioService_SetImage_NonImage(t *testing.T) {
	f := newStudioFixture(t)
	ctx := context.Background()
	text := []byte("just some text, not an image")

	res, err := f.svc.SetImage(ctx, "f1", ImageUpload{Slot: studio.SlotContent, Source: studio.SourceDrop, Data: text})
	require.NoError(t, err, "drop of a non-image is ignored silently")
	assert.True(t, res.Ignored)
	assert.Equal(t, studio.StateEmpty, res.Flow.State())

	for _, src := range []studio.Source{studio.SourcePicker, studio.SourceCamera} {
		_, err = f.svc.SetImage(ctx, "f1", ImageUpload{Slot: studio.SlotContent, Source: src, Data: text})
		require.Error(t, err)
		assert.True(t, apperrors.IsValidation(err))
		assert.Equal(t, "content_image", apperrors.GetField(err))
	}

	_, err = f.svc.SetImage(ctx, "f1", ImageUpload{Slot: studio.SlotStyle, Source: studio.SourcePicker, Data: make([]byte, 2048)})
	assert.Equal(t, MsgImageTooLarge, apperrors.UserMessage(err))
}

func TestStudioService_Generate_Success(t *testing.T) {
	f := newStudioFixture(t)
	ctx := context.Background()
	f.load(t, "f1")

	f.backend.EXPECT().
		StyleTransfer(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, content, style studio.Image) (studio.Image, error) {
			assert.Equal(t, pngBytes, content.Data)
			assert.Equal(t, jpegBytes, style.Data)
			return studio.Image{ContentType: "image/png", Data: pngBytes}, nil
		})

	flow, err := f.svc.Generate(ctx, "f1")
	require.NoError(t, err)
	assert.Equal(t, studio.StateSucceeded, flow.State())
	require.NotNil(t, flow.Generation.Result)

	result, err := f.svc.Result(ctx, "f1")
	require.NoError(t, err)
	assert.Equal(t, pngBytes, result.Data)
	assert.Regexp(t, `^artisan-studio-\d+\.png$`, result.Filename)
}

func TestStudioService_Generate_BackendFailure(t *testing.T) {
	f := newStudioFixture(t)
	ctx := context.Background()
	f.load(t, "f1")

	f.backend.EXPECT().StyleTransfer(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(studio.Image{}, errors.New("500 Internal Server Error"))

	flow, err := f.svc.Generate(ctx, "f1")
	require.NoError(t, err)
	assert.Equal(t, studio.StateFailed, flow.State())
	assert.Equal(t, MsgGenerationFailed, flow.Generation.Failure)
	assert.True(t, flow.CanSubmit(), "trigger re-enabled for a manual retry")
	assert.NotNil(t, flow.Content)
	assert.NotNil(t, flow.Style)

	_, err = f.svc.Result(ctx, "f1")
	assert.True(t, apperrors.IsNotFound(err))

	f.backend.EXPECT().StyleTransfer(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(studio.Image{ContentType: "image/png", Data: pngBytes}, nil)
	flow, err = f.svc.Generate(ctx, "f1")
	require.NoError(t, err)
	assert.Equal(t, studio.StateSucceeded, flow.State())
}

func TestStudioService_Generate_NotReady(t *testing.T) {
	f := newStudioFixture(t)
	ctx := context.Background()

	_, err := f.svc.Generate(ctx, "f1")
	require.Error(t, err)
	assert.ErrorIs(t, err, studio.ErrNotReady)
	assert.Equal(t, MsgBothImagesRequired, apperrors.UserMessage(err))
}

func TestStudioService_Generate_SingleFlight(t *testing.T) {
	f := newStudioFixture(t)
	ctx := context.Background()
	f.load(t, "f1")

	entered := make(chan struct{})
	release := make(chan struct{})
	f.backend.EXPECT().StyleTransfer(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, studio.Image, studio.Image) (studio.Image, error) {
			close(entered)
			<-release
			return studio.Image{ContentType: "image/png", Data: pngBytes}, nil
		}).Times(1)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := f.svc.Generate(ctx, "f1")
		assert.NoError(t, err)
	}()
	<-entered

	_, err := f.svc.Generate(ctx, "f1")
	require.Error(t, err)
	assert.ErrorIs(t, err, studio.ErrSubmissionInFlight)
	assert.True(t, apperrors.IsConflict(err))

	_, err = f.svc.Reset(ctx, "f1")
	assert.ErrorIs(t, err, studio.ErrSubmissionInFlight)

	_, err = f.svc.SetImage(ctx, "f1", ImageUpload{Slot: studio.SlotContent, Source: studio.SourcePicker, Data: pngBytes})
	assert.ErrorIs(t, err, studio.ErrSubmissionInFlight)

	close(release)
	wg.Wait()

	flow, err := f.svc.Flow(ctx, "f1")
	require.NoError(t, err)
	assert.Equal(t, studio.StateSucceeded, flow.State())
}

func TestStudioService_Generate_CancelledLeavesFailed(t *testing.T) {
	f := newStudioFixture(t)
	f.load(t, "f1")

	ctx, cancel := context.WithCancel(context.Background())
	f.backend.EXPECT().StyleTransfer(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _, _ studio.Image) (studio.Image, error) {
			cancel()
			return studio.Image{}, ctx.Err()
		})

	flow, err := f.svc.Generate(ctx, "f1")
	require.NoError(t, err)
	assert.Equal(t, studio.StateFailed, flow.State())

	stored, err := f.svc.Flow(context.Background(), "f1")
	require.NoError(t, err)
	assert.NotEqual(t, studio.StateSubmitting, stored.State())
}

// flakyFlowStore fails the failAt-th Update call (1-based) with err.
type flakyFlowStore struct {
	*memory.FlowStore
	mu     sync.Mutex
	calls  int
	failAt int
	err    error
}

func (s *flakyFlowStore) Update(ctx context.Context, id string, fn func(*studio.Flow) error) (studio.Flow, error) {
	s.mu.Lock()
	s.calls++
	fail := s.calls == s.failAt
	s.mu.Unlock()
	if fail {
		return studio.Flow{}, s.err
	}
	return s.FlowStore.Update(ctx, id, fn)
}

func newLeasedFixture(t *testing.T, flows ports.FlowStore, lease time.Duration) (studioFixture, *testutil.Clock) {
	t.Helper()
	ctrl := gomock.NewController(t)
	backend := mocks.NewMockStyleTransferBackend(ctrl)
	images := memory.NewImageStore(0)
	svc := NewStudioService(StudioServiceOptions{
		Backend: backend,
		Stores:  StudioStores{Flows: flows, Images: images},
		Config:  StudioConfig{MaxUploadBytes: 1024, GenerationLease: lease},
	})
	clock := testutil.NewClock(testutil.TestTime())
	svc.now = clock.Now
	return studioFixture{svc: svc, backend: backend, images: images}, clock
}

func TestStudioService_Generate_UnrecordedOutcomeExpires(t *testing.T) {
	// Updates: two uploads, Begin, then the outcome write fails.
	flows := &flakyFlowStore{FlowStore: memory.NewFlowStore(0), failAt: 4, err: errors.New("redis: connection reset")}
	f, clock := newLeasedFixture(t, flows, time.Minute)
	ctx := context.Background()
	f.load(t, "f1")

	f.backend.EXPECT().StyleTransfer(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(studio.Image{}, errors.New("500 Internal Server Error"))
	_, err := f.svc.Generate(ctx, "f1")
	require.Error(t, err)
	assert.ErrorContains(t, err, "record generation outcome")

	flow, err := f.svc.Flow(ctx, "f1")
	require.NoError(t, err)
	assert.Equal(t, studio.StateSubmitting, flow.State())
	_, err = f.svc.Reset(ctx, "f1")
	assert.ErrorIs(t, err, studio.ErrSubmissionInFlight)

	clock.Advance(time.Minute)

	flow, err = f.svc.Flow(ctx, "f1")
	require.NoError(t, err)
	assert.Equal(t, studio.StateFailed, flow.State())
	assert.Equal(t, MsgGenerationFailed, flow.Generation.Failure)
	assert.True(t, flow.CanSubmit())

	f.backend.EXPECT().StyleTransfer(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(studio.Image{ContentType: "image/png", Data: pngBytes}, nil)
	flow, err = f.svc.Generate(ctx, "f1")
	require.NoError(t, err)
	assert.Equal(t, studio.StateSucceeded, flow.State())
}

func TestStudioService_Reset_AfterLeaseExpires(t *testing.T) {
	flows := &flakyFlowStore{FlowStore: memory.NewFlowStore(0), failAt: 4, err: errors.New("redis: connection reset")}
	f, clock := newLeasedFixture(t, flows, time.Minute)
	ctx := context.Background()
	f.load(t, "f1")

	f.backend.EXPECT().StyleTransfer(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(studio.Image{}, errors.New("timeout"))
	_, err := f.svc.Generate(ctx, "f1")
	require.Error(t, err)

	clock.Advance(2 * time.Minute)
	flow, err := f.svc.Reset(ctx, "f1")
	require.NoError(t, err)
	assert.Equal(t, studio.StateEmpty, flow.State())
}

func TestStudioService_Generate_LateOutcomeIsDropped(t *testing.T) {
	f, clock := newLeasedFixture(t, memory.NewFlowStore(0), time.Minute)
	ctx := context.Background()
	f.load(t, "f1")

	f.backend.EXPECT().StyleTransfer(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, studio.Image, studio.Image) (studio.Image, error) {
			// The visitor gives up on a stuck submission and starts over.
			clock.Advance(time.Minute)
			_, err := f.svc.Reset(ctx, "f1")
			require.NoError(t, err)
			return studio.Image{ContentType: "image/png", Data: pngBytes}, nil
		})

	flow, err := f.svc.Generate(ctx, "f1")
	require.NoError(t, err)
	assert.Equal(t, studio.StateEmpty, flow.State())
	assert.Nil(t, flow.Generation.Result)

	stored, err := f.svc.Flow(ctx, "f1")
	require.NoError(t, err)
	assert.Equal(t, studio.StateEmpty, stored.State())
}

func TestStudioService_Reset(t *testing.T) {
	f := newStudioFixture(t)
	ctx := context.Background()
	loaded := f.load(t, "f1")

	flow, err := f.svc.Reset(ctx, "f1")
	require.NoError(t, err)
	assert.Equal(t, studio.StateEmpty, flow.State())

	for _, id := range []string{loaded.Content.ID, loaded.Style.ID} {
		_, err := f.images.Get(ctx, id)
		assert.ErrorIs(t, err, ports.ErrNotFound)
	}
}

func TestStudioService_NewImageAfterSuccessStartsOver(t *testing.T) {
	f := newStudioFixture(t)
	ctx := context.Background()
	f.load(t, "f1")

	f.backend.EXPECT().StyleTransfer(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(studio.Image{ContentType: "image/png", Data: pngBytes}, nil)
	done, err := f.svc.Generate(ctx, "f1")
	require.NoError(t, err)
	resultID := done.Generation.Result.ID

	res, err := f.svc.SetImage(ctx, "f1", ImageUpload{Slot: studio.SlotContent, Source: studio.SourcePicker, Data: jpegBytes})
	require.NoError(t, err)
	assert.Equal(t, studio.StateReady, res.Flow.State())
	assert.Nil(t, res.Flow.Generation.Result)

	_, err = f.images.Get(ctx, resultID)
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func TestStudioService_ImageOwnership(t *testing.T) {
	f := newStudioFixture(t)
	ctx := context.Background()
	loaded := f.load(t, "owner")

	_, err := f.svc.Image(ctx, "intruder", loaded.Content.ID)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestStudioService_CameraDenied(t *testing.T) {
	f := newStudioFixture(t)
	err := f.svc.CameraDenied(context.Background(), "f1", "NotAllowedError")
	assert.True(t, apperrors.IsMediaAccess(err))
	assert.Equal(t, apperrors.MsgCameraRequired, apperrors.UserMessage(err))
}

package metrics

import (
	"time"

	obserrors "github.com/prakritea/artisan-studio/internal/observability/errors"
	"github.com/prakritea/artisan-studio/internal/observability/statsd"
)

// Result constants for metric tagging.
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

// Auth operations.
const (
	OpLogin  = "login"
	OpSignup = "signup"
	OpLogout = "logout"
)

// AuthMetric captures one sign-in, sign-up or sign-out attempt.
type AuthMetric struct {
	Operation string
	Duration  time.Duration
	Err       error
}

// EmitAuthAttempt emits a counter and, when measured, a timing for an auth call.
func EmitAuthAttempt(sink statsd.Sink, in AuthMetric) {
	if sink == nil {
		return
	}

	tags := map[string]string{
		"operation": in.Operation,
		"result":    resultOf(in.Err),
	}
	if in.Err != nil {
		tags["error_class"] = obserrors.Classify(in.Err)
	}

	sink.Count("auth.attempt", 1, tags)
	if in.Duration > 0 {
		sink.Timing("auth.duration", in.Duration, CloneTags(tags))
	}
}

// GenerationMetric captures the outcome of one style-transfer submission.
type GenerationMetric struct {
	Duration    time.Duration
	ResultBytes int
	Err         error
}

// EmitGeneration emits style-transfer outcome metrics.
func EmitGeneration(sink statsd.Sink, in GenerationMetric) {
	if sink == nil {
		return
	}

	tags := map[string]string{"result": resultOf(in.Err)}
	if in.Err != nil {
		tags["error_class"] = obserrors.Classify(in.Err)
	}

	sink.Count("studio.generation", 1, tags)
	if in.Duration > 0 {
		sink.Timing("studio.generation.duration", in.Duration, CloneTags(tags))
	}
	if in.ResultBytes > 0 {
		sink.Count("studio.generation.bytes", int64(in.ResultBytes), nil)
	}
}

// EmitUpload counts an accepted or rejected image upload.
func EmitUpload(sink statsd.Sink, slot, source string, err error) {
	if sink == nil {
		return
	}
	tags := map[string]string{
		"slot":   slot,
		"source": source,
		"result": resultOf(err),
	}
	if err != nil {
		tags["error_class"] = obserrors.Classify(err)
	}
	sink.Count("studio.upload", 1, tags)
}

func resultOf(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultSuccess
}

// CloneTags creates a shallow copy of a tag map.
func CloneTags(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

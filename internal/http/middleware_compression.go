package httpx

import (
	"compress/gzip"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
)

// CompressionConfig holds configuration for the compression middleware.
type CompressionConfig struct {
	Level   int // Compression level (1-9, where 6 is default)
	MinSize int // Minimum response size to compress (bytes, 0 = always compress)
	Logger  *slog.Logger

	pool          *sync.Pool
	compressTypes map[string]bool
}

// compressibleTypes are text formats worth compressing. Images are already
// compressed, and event streams must reach the client unbuffered.
func compressibleTypes() map[string]bool {
	return map[string]bool{
		"text/html":              true,
		"text/css":               true,
		"text/plain":             true,
		"text/javascript":        true,
		"application/javascript": true,
		"application/json":       true,
		"image/svg+xml":          true,
	}
}

// Compression returns a middleware that compresses HTTP responses using gzip.
// It compresses responses only when:
// - Client accepts gzip encoding (via Accept-Encoding header).
// - Content-Type is compressible.
// - Response status is not 1xx, 204, or 304.
// - Request method is not HEAD.
// - Response size reaches MinSize (if configured).
func Compression(cfg CompressionConfig) func(http.Handler) http.Handler {
	if cfg.Level < gzip.BestSpeed || cfg.Level > gzip.BestCompression {
		cfg.Level = gzip.DefaultCompression
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.compressTypes == nil {
		cfg.compressTypes = compressibleTypes()
	}
	level := cfg.Level
	cfg.pool = &sync.Pool{New: func() any {
		w, err := gzip.NewWriterLevel(io.Discard, level)
		if err != nil {
			return gzip.NewWriter(io.Discard)
		}
		return w
	}}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodHead || !acceptsGzip(r.Header.Get("Accept-Encoding")) {
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Add("Vary", "Accept-Encoding")
			gzw := &gzipResponseWriter{ResponseWriter: w, request: r, config: &cfg}
			next.ServeHTTP(gzw, r)
			gzw.finish()
		})
	}
}

// acceptsGzip checks if the client accepts gzip encoding, honouring an explicit q=0.
func acceptsGzip(acceptEncoding string) bool {
	for _, part := range strings.Split(acceptEncoding, ",") {
		part = strings.TrimSpace(part)
		encoding, params, _ := strings.Cut(part, ";")
		if !strings.EqualFold(strings.TrimSpace(encoding), "gzip") {
			continue
		}
		q := strings.ReplaceAll(strings.TrimSpace(params), " ", "")
		return q != "q=0" && q != "q=0.0" && q != "q=0.00" && q != "q=0.000"
	}
	return false
}

// isCompressibleContentType checks if the content type should be compressed.
func isCompressibleContentType(contentType string, compressTypes map[string]bool) bool {
	mediaType, _, _ := strings.Cut(contentType, ";")
	return compressTypes[strings.TrimSpace(strings.ToLower(mediaType))]
}

// gzipResponseWriter decides at WriteHeader time whether to compress.
type gzipResponseWriter struct {
	http.ResponseWriter
	request       *http.Request
	config        *CompressionConfig
	gz            *gzip.Writer
	headerWritten bool
	status        int
	// pending holds output until MinSize is reached.
	pending []byte
}

func (w *gzipResponseWriter) WriteHeader(statusCode int) {
	if w.headerWritten {
		return
	}
	w.headerWritten = true
	w.status = statusCode

	if statusCode < http.StatusOK || statusCode == http.StatusNoContent || statusCode == http.StatusNotModified ||
		w.Header().Get("Content-Encoding") != "" ||
		!isCompressibleContentType(w.Header().Get("Content-Type"), w.config.compressTypes) {
		w.ResponseWriter.WriteHeader(statusCode)
		return
	}

	if w.config.MinSize > 0 {
		// Defer the decision until MinSize bytes arrive or the handler returns.
		w.pending = make([]byte, 0, w.config.MinSize)
		return
	}
	w.startGzip()
}

func (w *gzipResponseWriter) startGzip() {
	gz, ok := w.config.pool.Get().(*gzip.Writer)
	if !ok {
		gz = gzip.NewWriter(io.Discard)
	}
	gz.Reset(w.ResponseWriter)
	w.gz = gz
	w.Header().Set("Content-Encoding", "gzip")
	w.Header().Del("Content-Length")
	w.ResponseWriter.WriteHeader(w.status)
}

func (w *gzipResponseWriter) Write(b []byte) (int, error) {
	if !w.headerWritten {
		if w.Header().Get("Content-Type") == "" {
			w.Header().Set("Content-Type", http.DetectContentType(b))
		}
		w.WriteHeader(http.StatusOK)
	}

	if w.pending != nil {
		w.pending = append(w.pending, b...)
		if len(w.pending) < w.config.MinSize {
			return len(b), nil
		}
		buffered := w.pending
		w.pending = nil
		w.startGzip()
		if _, err := w.gz.Write(buffered); err != nil {
			return 0, err
		}
		return len(b), nil
	}

	if w.gz != nil {
		return w.gz.Write(b)
	}
	return w.ResponseWriter.Write(b)
}

// finish flushes a short buffered body uncompressed, or closes the gzip stream.
func (w *gzipResponseWriter) finish() {
	if w.pending != nil {
		w.ResponseWriter.WriteHeader(w.status)
		if _, err := w.ResponseWriter.Write(w.pending); err != nil {
			w.config.Logger.DebugContext(w.request.Context(), "writing short response failed", "error", err)
		}
		w.pending = nil
		return
	}
	if w.gz == nil {
		return
	}
	if err := w.gz.Close(); err != nil {
		w.config.Logger.ErrorContext(w.request.Context(), "closing gzip writer failed", "error", err)
	}
	w.gz.Reset(io.Discard)
	w.config.pool.Put(w.gz)
	w.gz = nil
}

// Flush implements http.Flusher for streaming support.
func (w *gzipResponseWriter) Flush() {
	if w.gz != nil {
		if err := w.gz.Flush(); err != nil {
			w.config.Logger.ErrorContext(w.request.Context(), "flushing gzip writer failed", "error", err)
		}
	}
	if flusher, ok := w.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (w *gzipResponseWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }

package middleware

import (
	"time"

	"github.com/annel0/voxel-map/internal/logging"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// TraceIDKey ключ trace-ID в gin.Context
const TraceIDKey = "trace_id"

// RequestLogger снабжает каждый HTTP-запрос trace-ID и пишет краткие логи.
// Служебные пути (/health, /metrics) пишутся на уровне Debug.
type RequestLogger struct {
	log   *logging.Logger
	quiet map[string]bool
}

func NewRequestLogger(log *logging.Logger) *RequestLogger {
	if log == nil {
		log = logging.GetAPILogger()
	}
	return &RequestLogger{
		log:   log,
		quiet: map[string]bool{"/health": true, "/metrics": true},
	}
}

func (rl *RequestLogger) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		// trace-id из OpenTelemetry (otelgin), иначе случайный
		span := trace.SpanFromContext(c.Request.Context())
		var traceID string
		if span.SpanContext().IsValid() {
			traceID = span.SpanContext().TraceID().String()
		} else {
			traceID = uuid.NewString()
		}
		c.Set(TraceIDKey, traceID)
		c.Header("X-Trace-Id", traceID)

		start := time.Now()
		method := c.Request.Method
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		c.Next()

		logf := rl.log.Info
		if rl.quiet[path] {
			logf = rl.log.Debug
		}
		logf("[HTTP] %s %s %d %s ip=%s trace=%s", method, path, c.Writer.Status(), time.Since(start), c.ClientIP(), traceID)
	}
}

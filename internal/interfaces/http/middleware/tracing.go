package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// untracedPaths are polled too often to be worth a span
var untracedPaths = map[string]bool{
	"/health":  true,
	"/metrics": true,
}

// Tracing starts a server span per request on the global tracer provider
// and tags it with the request id
func Tracing(serviceName string) []gin.HandlerFunc {
	return []gin.HandlerFunc{
		otelgin.Middleware(serviceName, otelgin.WithFilter(func(r *http.Request) bool {
			return !untracedPaths[r.URL.Path]
		})),
		func(c *gin.Context) {
			span := trace.SpanFromContext(c.Request.Context())
			if span.IsRecording() {
				span.SetAttributes(attribute.String("request.id", GetRequestID(c)))
			}
			c.Next()
		},
	}
}

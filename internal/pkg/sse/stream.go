// Package sse writes server-sent event streams from gin handlers. Used by
// the enrichment endpoints to deliver a placeholder-filled result list
// first and patch poster URLs in as they resolve.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Event is one named SSE message. Data is JSON-encoded on write.
type Event struct {
	Name string
	Data interface{}
}

// Writer sends events over one client connection.
type Writer struct {
	c       *gin.Context
	flusher http.Flusher
}

// NewWriter prepares the response for event streaming. It fails when the
// underlying writer cannot flush, which means the client went through a
// buffering proxy that SSE cannot traverse.
func NewWriter(c *gin.Context) (*Writer, error) {
	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("response writer does not support streaming")
	}

	header := c.Writer.Header()
	header.Set("Content-Type", "text/event-stream")
	header.Set("Cache-Control", "no-cache")
	header.Set("Connection", "keep-alive")
	header.Set("X-Accel-Buffering", "no")
	c.Writer.WriteHeader(http.StatusOK)
	flusher.Flush()

	return &Writer{c: c, flusher: flusher}, nil
}

// Send writes one event and flushes it to the client.
func (w *Writer) Send(event Event) error {
	payload, err := json.Marshal(event.Data)
	if err != nil {
		return fmt.Errorf("encode event %q: %w", event.Name, err)
	}
	if _, err := fmt.Fprintf(w.c.Writer, "event: %s\ndata: %s\n\n", event.Name, payload); err != nil {
		return err
	}
	w.flusher.Flush()
	return nil
}

// Closed returns a channel that closes when the client goes away.
func (w *Writer) Closed() <-chan struct{} {
	return w.c.Request.Context().Done()
}

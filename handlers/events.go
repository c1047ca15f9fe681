package handlers

import (
	"bufio"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
)

// StreamEvents pushes roster and status changes for one tournament over SSE.
// This is the outward half of the notification contract: the service
// announces, subscribers (the real-time layer, polling clients) consume.
func (h *TournamentHandler) StreamEvents(c *fiber.Ctx) error {
	tournamentID := c.Params("id")
	if _, err := h.Service.Get(tournamentID); err != nil {
		return respondErr(c, err)
	}

	events, cancel := h.Service.Events.Subscribe(tournamentID)

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("X-Accel-Buffering", "no") // nginx

	ctx := c.Context()
	ctx.SetBodyStreamWriter(func(w *bufio.Writer) {
		defer cancel()

		keepalive := time.NewTicker(15 * time.Second)
		defer keepalive.Stop()

		// Initial keepalive so proxies commit to the stream.
		w.WriteString(":\n\n")
		if err := w.Flush(); err != nil {
			return
		}

		for {
			select {
			case ev, ok := <-events:
				if !ok {
					return
				}
				payload, _ := json.Marshal(ev)
				fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, payload)
				if err := w.Flush(); err != nil {
					return // client disconnected
				}
			case <-keepalive.C:
				w.WriteString(":\n\n")
				if err := w.Flush(); err != nil {
					return
				}
			case <-ctx.Done():
				return
			}
		}
	})

	return nil
}

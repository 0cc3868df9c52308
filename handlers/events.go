package handlers

import (
	"bufio"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const activityPollInterval = 2 * time.Second

// SetupEventRoutes streams the caller's new log entries (quest completions,
// habit streaks, chat rewards) as server-sent events.
func SetupEventRoutes(r fiber.Router, svc Services, log *zap.Logger) {
	r.Get("/character/events", func(c *fiber.Ctx) error {
		ch, err := currentCharacter(c, svc)
		if err != nil {
			return fail(c, err)
		}
		characterID := ch.ID
		reqCtx := c.Context()

		c.Set("Content-Type", "text/event-stream")
		c.Set("Cache-Control", "no-cache")
		c.Set("Connection", "keep-alive")
		c.Set("X-Accel-Buffering", "no")

		reqCtx.SetBodyStreamWriter(func(w *bufio.Writer) {
			ticker := svc.Progression.Clock.NewTicker(activityPollInterval)
			defer ticker.Stop()

			_, cursor, err := svc.Progression.LogsAfter(reqCtx, characterID, time.Time{})
			if err != nil {
				log.Warn("activity stream init", zap.String("character_id", characterID), zap.Error(err))
			}

			// keepalive comment so proxies open the stream
			_, _ = w.WriteString(":\n\n")
			if err := w.Flush(); err != nil {
				return
			}

			for {
				select {
				case <-ticker.Chan():
					entries, next, err := svc.Progression.LogsAfter(reqCtx, characterID, cursor)
					if err != nil {
						log.Warn("activity stream query", zap.String("character_id", characterID), zap.Error(err))
						continue
					}
					cursor = next
					if len(entries) == 0 {
						continue
					}
					for _, e := range entries {
						payload, _ := json.Marshal(e)
						fmt.Fprintf(w, "event: %s\ndata: %s\n\n", e.ActionType, payload)
					}
					if err := w.Flush(); err != nil {
						// client went away
						return
					}
				case <-reqCtx.Done():
					return
				}
			}
		})
		return nil
	})
}

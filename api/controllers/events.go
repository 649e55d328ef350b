package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/genericsdirect/dealtracker/api/responses"
	"github.com/genericsdirect/dealtracker/api/validators"
	"github.com/genericsdirect/dealtracker/internal/events"
	"github.com/genericsdirect/dealtracker/internal/scenarios"
	pkgerrors "github.com/genericsdirect/dealtracker/pkg/errors"
	"github.com/genericsdirect/dealtracker/pkg/logger"
)

// DefaultHeartbeat is the keep-alive interval of the event stream.
const DefaultHeartbeat = 30 * time.Second

type eventSubscriber interface {
	Subscribe(scenarioID uuid.UUID) (<-chan events.Event, func())
}

// ScenarioEvents streams membership changes of an open scenario as server-sent
// events. The stream ends with a closed message once the workspace goes away.
func ScenarioEvents(svc scenarios.Service, hub eventSubscriber, heartbeat time.Duration, logg *logger.Logger) http.HandlerFunc {
	if heartbeat <= 0 {
		heartbeat = DefaultHeartbeat
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil || hub == nil {
			unavailable(logg, w, r)
			return
		}
		id, err := validators.ParseUUIDParam(r, scenarioIDParam)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if _, err := svc.Board(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		flusher, ok := w.(http.Flusher)
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "streaming not supported"))
			return
		}

		ctx := logg.WithScenarioID(r.Context(), id.String())
		stream, cancel := hub.Subscribe(id)
		defer cancel()

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)

		fmt.Fprintf(w, "event: connected\n")
		fmt.Fprintf(w, "data: {\"scenario_id\":%q}\n\n", id.String())
		flusher.Flush()
		logg.Info(ctx, "event stream connected")

		ticker := time.NewTicker(heartbeat)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				logg.Info(ctx, "event stream disconnected")
				return
			case evt, open := <-stream:
				if !open {
					fmt.Fprintf(w, "event: closed\n")
					fmt.Fprintf(w, "data: {\"scenario_id\":%q}\n\n", id.String())
					flusher.Flush()
					logg.Info(ctx, "event stream closed with workspace")
					return
				}
				payload, err := json.Marshal(evt)
				if err != nil {
					logg.Error(ctx, "failed to marshal event", err)
					continue
				}
				fmt.Fprintf(w, "event: %s\n", evt.Kind)
				fmt.Fprintf(w, "data: %s\n\n", payload)
				flusher.Flush()
			case now := <-ticker.C:
				fmt.Fprintf(w, "event: heartbeat\n")
				fmt.Fprintf(w, "data: {\"timestamp\":%q}\n\n", now.UTC().Format(time.RFC3339))
				flusher.Flush()
			}
		}
	}
}

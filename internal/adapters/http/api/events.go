package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/okian/tagboard/internal/domain/model"
	"github.com/okian/tagboard/internal/domain/types"
)

const maxEventBody = 1 << 20

// EventDependencies defines the interface for event processing dependencies.
type EventDependencies interface {
	HasPlayer(player string) bool
	Append(ctx context.Context, events []model.TagEvent) (types.AppendResult, error)
}

// EventsHandler handles event requests.
type EventsHandler struct {
	deps EventDependencies
}

// NewEventsHandler creates a new events handler.
func NewEventsHandler(deps EventDependencies) *EventsHandler {
	return &EventsHandler{deps: deps}
}

// eventRequest mirrors the OpenAPI schema for POST /events.
type eventRequest struct {
	Player string `json:"player"`
	TS     string `json:"ts"`
}

func (e eventRequest) toEvent() (model.TagEvent, error) {
	switch {
	case strings.TrimSpace(e.Player) == "":
		return model.TagEvent{}, errors.New("missing player")
	case strings.TrimSpace(e.TS) == "":
		return model.TagEvent{}, errors.New("missing ts")
	}
	at, err := time.Parse(time.RFC3339, e.TS)
	if err != nil {
		return model.TagEvent{}, errors.New("invalid ts; must be RFC3339")
	}
	return model.TagEvent{At: at, Player: model.Player(e.Player)}, nil
}

// decodeEvents accepts a single event object or an array of them.
func decodeEvents(r io.Reader) ([]eventRequest, error) {
	body, err := io.ReadAll(io.LimitReader(r, maxEventBody))
	if err != nil {
		return nil, err
	}
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, errors.New("empty body")
	}
	if body[0] == '[' {
		var reqs []eventRequest
		if err := json.Unmarshal(body, &reqs); err != nil {
			return nil, err
		}
		if len(reqs) == 0 {
			return nil, errors.New("no events")
		}
		return reqs, nil
	}
	var req eventRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, err
	}
	return []eventRequest{req}, nil
}

// HandlePostEvent handles POST /events requests.
func (h *EventsHandler) HandlePostEvent(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_event"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	reqs, err := decodeEvents(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	events := make([]model.TagEvent, 0, len(reqs))
	for i, req := range reqs {
		e, err := req.toEvent()
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, fmt.Errorf("event %d: %w", i, err)))
			return
		}
		if !h.deps.HasPlayer(req.Player) {
			writeError(w, http.StatusBadRequest, "unknown_player", WrapKind(op, ErrUnknownPlayer, fmt.Errorf("%q", req.Player)))
			return
		}
		events = append(events, e)
	}

	res, err := h.deps.Append(r.Context(), events)
	if err != nil {
		writeUpstreamError(w, op, err)
		return
	}
	status := http.StatusAccepted
	if res.Accepted == 0 {
		status = http.StatusOK
	}
	writeJSON(w, status, res)
}

package relay

import (
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/voterelay/go/internal/relay/events"
)

// broadcastToClients encodes the batch once and sends the same payload to
// every registered client except exclude.
func (r *Router) broadcastToClients(batch []events.Event, exclude Connection) {
	payload, err := events.Encode(batch...)
	if err != nil {
		log.Error().Err(err).Msg("failed to encode broadcast")
		return
	}

	sent := 0
	for _, client := range r.registry.Clients() {
		if exclude != nil && client == exclude {
			continue
		}
		client.Send(payload)
		sent++
	}

	log.Debug().
		Str("event_type", batch[0].Type).
		Int("events", len(batch)).
		Int("clients", sent).
		Msg("events broadcasted")
}

// unicastToHost sends the batch to the host, if one is registered
func (r *Router) unicastToHost(batch []events.Event) {
	host, ok := r.registry.Host()
	if !ok {
		log.Warn().
			Str("event_type", batch[0].Type).
			Msg("no host registered, dropping host event")
		return
	}

	payload, err := events.Encode(batch...)
	if err != nil {
		log.Error().Err(err).Msg("failed to encode host event")
		return
	}

	host.Send(payload)
	log.Debug().
		Str("connection_id", host.ID()).
		Str("event_type", batch[0].Type).
		Msg("event sent to host")
}

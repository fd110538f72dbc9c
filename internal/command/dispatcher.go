package command

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/distrobmj-cmd/julianarbitraje/internal/notify"
)

// Result classifies what the dispatcher did with an inbound item.
type Result int

const (
	// Ignored covers unauthorized senders and unrecognized text. No
	// information is disclosed to the sender in either case.
	Ignored Result = iota
	// Handled means a command matched and its reply was delivered.
	Handled
)

// Handler produces the reply for one recognized command token.
type Handler func(ctx context.Context) string

// Dispatcher matches inbound free-text commands against a closed token
// set. A monotonically increasing cursor guards against reprocessing: an
// item is considered only when its id strictly exceeds the cursor, and
// the cursor advances only after a recognized command is handled and its
// reply sent. Unrecognized items therefore never advance the cursor and
// are re-fetched every cycle; see the hazard warning in Poll.
type Dispatcher struct {
	source    notify.UpdateSource
	notifier  notify.Notifier
	recipient string
	handlers  map[string]Handler
	logger    zerolog.Logger

	cursor  int64
	maxSeen int64
}

// NewDispatcher builds a dispatcher bound to the single authorized recipient.
func NewDispatcher(source notify.UpdateSource, notifier notify.Notifier, recipient string, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		source:    source,
		notifier:  notifier,
		recipient: recipient,
		handlers:  make(map[string]Handler),
		logger:    logger.With().Str("component", "dispatcher").Logger(),
	}
}

// Register binds a command token to a handler. Tokens are matched
// case-insensitively, with or without a leading slash.
func (d *Dispatcher) Register(token string, h Handler) {
	d.handlers[normalize(token)] = h
}

// Cursor returns the id of the last successfully handled item.
func (d *Dispatcher) Cursor() int64 {
	return d.cursor
}

// Poll fetches pending inbound items past the cursor and dispatches each.
func (d *Dispatcher) Poll(ctx context.Context) error {
	updates, err := d.source.FetchUpdates(ctx, d.cursor)
	if err != nil {
		return err
	}

	for _, u := range updates {
		if u.ID <= d.maxSeen {
			// The cursor is pinned behind items that never matched a
			// command, so the same inbound text keeps coming back.
			d.logger.Warn().Int64("update_id", u.ID).Int64("cursor", d.cursor).Msg("reprocessing inbound item; cursor pinned by unrecognized messages")
		} else {
			d.maxSeen = u.ID
		}
		d.Dispatch(ctx, u)
	}
	return nil
}

// Dispatch runs a single inbound item through the sender check, token
// match, and reply delivery.
func (d *Dispatcher) Dispatch(ctx context.Context, u notify.Update) Result {
	if u.ID <= d.cursor {
		return Ignored
	}
	if u.SenderID != d.recipient {
		d.logger.Debug().Str("sender", u.SenderID).Int64("update_id", u.ID).Msg("ignoring message from unauthorized sender")
		return Ignored
	}

	handler, ok := d.handlers[normalize(u.Text)]
	if !ok {
		d.logger.Info().Int64("update_id", u.ID).Msg("unrecognized command")
		return Ignored
	}

	reply := handler(ctx)
	if err := d.notifier.Send(ctx, reply); err != nil {
		d.logger.Error().Err(err).Int64("update_id", u.ID).Msg("failed to deliver command reply")
		return Ignored
	}

	d.cursor = u.ID
	d.logger.Info().Int64("update_id", u.ID).Msg("command handled")
	return Handled
}

func normalize(text string) string {
	token := strings.ToLower(strings.TrimSpace(text))
	token = strings.TrimPrefix(token, "/")
	// Group chats address commands as /token@botname.
	if at := strings.IndexByte(token, '@'); at > 0 {
		token = token[:at]
	}
	return token
}

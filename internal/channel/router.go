package channel

import (
	"context"
	"errors"
	"log"
	"time"

	"medoryx/internal/transcript"
)

// Responder produces one reply turn for an inbound question. The agent
// satisfies this.
type Responder interface {
	Converse(ctx context.Context, sess *transcript.Session, text string) (transcript.Turn, error)
}

const replyTimeout = 2 * time.Minute

// Router connects channels to the agent. Every chat gets its own
// transcript session, keyed by channel name and chat ID, so concurrent
// Telegram chats and the console never share history.
type Router struct {
	responder Responder
	store     *transcript.Store
}

func NewRouter(responder Responder, store *transcript.Store) *Router {
	return &Router{responder: responder, store: store}
}

// Attach subscribes the router to a channel's inbound messages.
func (r *Router) Attach(ch Channel) {
	ch.OnMessage(func(msg InboundMessage) {
		go r.handle(ch, msg)
	})
}

func (r *Router) handle(ch Channel, msg InboundMessage) {
	ctx, cancel := context.WithTimeout(context.Background(), replyTimeout)
	defer cancel()

	sess := r.store.Get(msg.ChannelName + ":" + msg.ChatID)
	turn, err := r.responder.Converse(ctx, sess, msg.Text)
	if errors.Is(err, transcript.ErrEmptyMessage) {
		return
	}
	if err != nil {
		log.Printf("[channel] %s chat %s: %v", msg.ChannelName, msg.ChatID, err)
	}

	// Error turns carry user-facing text, send them like any reply.
	if sendErr := ch.Send(ctx, OutboundMessage{ChatID: msg.ChatID, Text: turn.Text}); sendErr != nil {
		log.Printf("[channel] send via %s failed: %v", msg.ChannelName, sendErr)
	}
}

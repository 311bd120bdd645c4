// Package widget implements the chat widget's delivery loop: a polling
// state machine that keeps an open conversation in sync with the server
// and shows locally-composed messages before the server confirms them.
//
// While the message log is visible the widget polls the conversation on
// a fixed interval, starting with an immediate fetch on open. Closing or
// minimizing the widget stops the poll timer; a minimized widget shows
// only the header, so there is nothing to keep fresh.
package widget

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"CareDesk/models"

	"github.com/google/uuid"
)

// DefaultPollInterval matches the production widget's 3-second tick.
const DefaultPollInterval = 3 * time.Second

// State is the widget's lifecycle state.
type State int

const (
	StateClosed State = iota
	StateOpenEmpty
	StateOpenLoaded
	StateMinimized
)

// ErrEmptyMessage is returned by Send for blank input.
var ErrEmptyMessage = errors.New("message is empty")

// Entry is one row of the widget's message log. A locally-composed
// message starts out Pending under a client-generated local id and is
// confirmed in place once the server acknowledges it (or shows up in a
// poll first). A failed send stays visible but marked, instead of
// silently pretending it was delivered.
type Entry struct {
	Message models.Message
	LocalID string
	Pending bool
	Failed  bool
}

// Options configures a widget instance.
type Options struct {
	// ConversationID may be empty when identity resolution has not
	// finished; sends are then deferred until SetConversation.
	ConversationID string
	SenderRole     string
	SenderName     string
	PollInterval   time.Duration
}

// Widget is the client-side delivery loop for one open conversation.
// All methods are safe for concurrent use.
type Widget struct {
	client    *Client
	pollEvery time.Duration
	role      string
	name      string

	// OnUpdate fires after every change to the message log, so the
	// rendering surface can repaint and scroll to the newest message.
	// Set before Open.
	OnUpdate func(entries []Entry)

	mu             sync.Mutex
	state          State
	conversationID string
	entries        []Entry
	ctx            context.Context // base ctx from Open, for restarts
	cancelPoll     context.CancelFunc
}

// New creates a widget in the closed state.
func New(client *Client, opts Options) *Widget {
	interval := opts.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	role := opts.SenderRole
	if role == "" {
		role = models.RoleGuest
	}
	name := opts.SenderName
	if name == "" {
		name = models.DefaultSenderName
	}
	return &Widget{
		client:         client,
		pollEvery:      interval,
		role:           role,
		name:           name,
		conversationID: opts.ConversationID,
		state:          StateClosed,
	}
}

// State returns the current lifecycle state.
func (w *Widget) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Entries returns a snapshot of the message log.
func (w *Widget) Entries() []Entry {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]Entry, len(w.entries))
	copy(out, w.entries)
	return out
}

// Open shows the widget and starts polling. The first fetch fires
// immediately; subsequent fetches tick on the poll interval until the
// widget is closed or minimized.
func (w *Widget) Open(ctx context.Context) {
	w.mu.Lock()
	if w.state != StateClosed {
		w.mu.Unlock()
		return
	}
	w.state = StateOpenEmpty
	w.ctx = ctx
	w.mu.Unlock()

	w.startPolling()
}

// Minimize collapses the widget to its header. The message log is no
// longer visible, so polling stops.
func (w *Widget) Minimize() {
	w.mu.Lock()
	if w.state != StateOpenEmpty && w.state != StateOpenLoaded {
		w.mu.Unlock()
		return
	}
	w.state = StateMinimized
	w.stopPollingLocked()
	w.mu.Unlock()
}

// Restore re-expands a minimized widget and resumes polling.
func (w *Widget) Restore() {
	w.mu.Lock()
	if w.state != StateMinimized {
		w.mu.Unlock()
		return
	}
	if len(w.entries) > 0 {
		w.state = StateOpenLoaded
	} else {
		w.state = StateOpenEmpty
	}
	w.mu.Unlock()

	w.startPolling()
}

// Close hides the widget and stops polling.
func (w *Widget) Close() {
	w.mu.Lock()
	if w.state == StateClosed {
		w.mu.Unlock()
		return
	}
	w.state = StateClosed
	w.stopPollingLocked()
	w.mu.Unlock()
}

// SetConversation supplies the resolved conversation id. Sends composed
// before resolution finished are dispatched now, and polling starts if
// the log is visible and was waiting on the id.
func (w *Widget) SetConversation(conversationID string) {
	w.mu.Lock()
	if w.conversationID != "" || conversationID == "" {
		w.mu.Unlock()
		return
	}
	w.conversationID = conversationID

	var deferred []Entry
	for i := range w.entries {
		if w.entries[i].Pending {
			w.entries[i].Message.ConversationID = conversationID
			deferred = append(deferred, w.entries[i])
		}
	}
	visible := w.state == StateOpenEmpty || w.state == StateOpenLoaded
	polling := w.cancelPoll != nil
	w.mu.Unlock()

	for _, e := range deferred {
		w.dispatch(e)
	}
	if visible && !polling {
		w.startPolling()
	}
}

// Send validates the input, appends an optimistic pending entry, and
// posts it in the background. With no conversation id yet, the entry
// stays pending until SetConversation dispatches it.
func (w *Widget) Send(text string) error {
	content := strings.TrimSpace(text)
	if content == "" {
		return ErrEmptyMessage
	}

	entry := Entry{
		LocalID: uuid.NewString(),
		Pending: true,
		Message: models.Message{
			ConversationID: w.conversationIDSnapshot(),
			SenderRole:     w.role,
			SenderName:     w.name,
			Content:        content,
			CreatedAt:      time.Now(),
		},
	}

	w.mu.Lock()
	w.entries = append(w.entries, entry)
	w.mu.Unlock()
	w.notify()

	if entry.Message.ConversationID == "" {
		return nil // deferred until identity resolution completes
	}
	w.dispatch(entry)
	return nil
}

func (w *Widget) conversationIDSnapshot() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conversationID
}

// dispatch posts one pending entry and reconciles the result.
func (w *Widget) dispatch(entry Entry) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		msg, err := w.client.SendMessage(ctx, SendRequest{
			ConversationID: entry.Message.ConversationID,
			SenderRole:     entry.Message.SenderRole,
			SenderName:     entry.Message.SenderName,
			Content:        entry.Message.Content,
		})
		if err != nil {
			log.Printf("[widget] send failed: %v", err)
			w.markFailed(entry.LocalID)
			return
		}
		w.confirm(entry.LocalID, msg)
	}()
}

func (w *Widget) confirm(localID string, msg models.Message) {
	w.mu.Lock()
	for i := range w.entries {
		if w.entries[i].LocalID == localID {
			w.entries[i].Message = msg
			w.entries[i].Pending = false
			break
		}
	}
	w.mu.Unlock()
	w.notify()
}

func (w *Widget) markFailed(localID string) {
	w.mu.Lock()
	for i := range w.entries {
		if w.entries[i].LocalID == localID {
			w.entries[i].Pending = false
			w.entries[i].Failed = true
			break
		}
	}
	w.mu.Unlock()
	w.notify()
}

// startPolling begins the fetch loop. Each fetch runs in its own
// goroutine: a slow response may overlap the next tick, and results are
// applied in arrival order; the next tick self-corrects any regression.
func (w *Widget) startPolling() {
	w.mu.Lock()
	if w.cancelPoll != nil || w.conversationID == "" || w.ctx == nil {
		w.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(w.ctx)
	w.cancelPoll = cancel
	conversationID := w.conversationID
	w.mu.Unlock()

	go func() {
		ticker := time.NewTicker(w.pollEvery)
		defer ticker.Stop()

		go w.pollOnce(ctx, conversationID) // no initial delay
		for {
			select {
			case <-ticker.C:
				go w.pollOnce(ctx, conversationID)
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (w *Widget) stopPollingLocked() {
	if w.cancelPoll != nil {
		w.cancelPoll()
		w.cancelPoll = nil
	}
}

func (w *Widget) pollOnce(ctx context.Context, conversationID string) {
	msgs, err := w.client.ListMessages(ctx, conversationID)
	if err != nil {
		if ctx.Err() == nil {
			log.Printf("[widget] poll failed: %v", err)
		}
		return
	}
	w.applyServerList(msgs)
}

// applyServerList replaces the confirmed portion of the log with the
// server's ordered list and re-appends unresolved local entries. A
// pending entry whose message already shows up in the poll (same role
// and content, created within a poll interval of the local copy) is
// treated as confirmed rather than duplicated.
func (w *Widget) applyServerList(msgs []models.Message) {
	w.mu.Lock()
	if w.state == StateClosed {
		w.mu.Unlock()
		return
	}

	merged := make([]Entry, 0, len(msgs)+2)
	for _, m := range msgs {
		merged = append(merged, Entry{Message: m})
	}
	for _, e := range w.entries {
		if e.Pending && w.matchesServerLocked(e, msgs) {
			continue
		}
		if e.Pending || e.Failed {
			merged = append(merged, e)
		}
	}
	w.entries = merged

	if w.state == StateOpenEmpty {
		w.state = StateOpenLoaded
	}
	w.mu.Unlock()
	w.notify()
}

func (w *Widget) matchesServerLocked(e Entry, msgs []models.Message) bool {
	window := 2 * w.pollEvery
	for _, m := range msgs {
		if m.Content == e.Message.Content &&
			m.SenderRole == e.Message.SenderRole &&
			absDuration(m.CreatedAt.Sub(e.Message.CreatedAt)) <= window {
			return true
		}
	}
	return false
}

func (w *Widget) notify() {
	if w.OnUpdate == nil {
		return
	}
	w.OnUpdate(w.Entries())
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

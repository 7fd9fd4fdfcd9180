package dispatcher

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/JRI98/widgetbridge/internal/envelope"
	"github.com/JRI98/widgetbridge/internal/history"
)

// Handler receives every dispatched message. Implementations type-switch
// over the envelope variants.
type Handler interface {
	Handle(msg envelope.Message)
}

type HandlerFunc func(msg envelope.Message)

func (f HandlerFunc) Handle(msg envelope.Message) {
	f(msg)
}

// Callbacks is a Handler with one optional slot per kind. Nil slots are
// skipped.
type Callbacks struct {
	OnGotoPage    func(pageName, caseID string)
	OnChatMessage func(msg envelope.ChatMessage)
	OnLog         func(msg envelope.Log)
	OnError       func(msg envelope.Error)
	OnUnknown     func(msg envelope.Unrecognized)
}

func (c *Callbacks) Handle(msg envelope.Message) {
	if c == nil {
		return
	}

	switch m := msg.(type) {
	case envelope.GotoPage:
		if c.OnGotoPage != nil {
			c.OnGotoPage(m.PageName, m.CaseID)
		}
	case envelope.ChatMessage:
		if c.OnChatMessage != nil {
			c.OnChatMessage(m)
		}
	case envelope.Log:
		if c.OnLog != nil {
			c.OnLog(m)
		}
	case envelope.Error:
		if c.OnError != nil {
			c.OnError(m)
		}
	case envelope.Unrecognized:
		if c.OnUnknown != nil {
			c.OnUnknown(m)
		}
	}
}

type Option func(*Dispatcher)

func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) {
		d.now = now
	}
}

type Dispatcher struct {
	mu      sync.Mutex
	history *history.Store
	logger  *slog.Logger
	now     func() time.Time
}

func New(store *history.Store, logger *slog.Logger, opts ...Option) *Dispatcher {
	if store == nil {
		store = history.New(history.DefaultCapacity)
	}
	if logger == nil {
		logger = slog.Default()
	}

	d := &Dispatcher{
		history: store,
		logger:  logger.With(slog.String("component", "dispatcher")),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Dispatch classifies msg, hands it to h and records one history entry.
// If h panics the entry is recorded as unhandled and the panic continues
// up to the caller.
func (d *Dispatcher) Dispatch(msg envelope.Message, h Handler) history.Entry {
	d.mu.Lock()
	defer d.mu.Unlock()

	entry := history.Entry{
		Timestamp: d.now().UTC(),
		Kind:      msg.Kind(),
		Data:      msg.Data(),
	}

	d.logger.Debug("Handling message", slog.String("kind", entry.Kind))

	completed := false
	defer func() {
		if !completed {
			entry.Handled = false
			d.record(entry)
		}
	}()

	entry.Handled = d.observe(msg)

	if h != nil {
		h.Handle(msg)
	}
	completed = true

	d.record(entry)
	return entry
}

func (d *Dispatcher) record(entry history.Entry) {
	d.history.Append(entry)
	d.logger.Debug("Message logged",
		slog.String("kind", entry.Kind),
		slog.Bool("handled", entry.Handled),
		slog.Time("timestamp", entry.Timestamp),
	)
}

// observe logs the branch taken for msg and reports whether its kind is known.
func (d *Dispatcher) observe(msg envelope.Message) bool {
	switch m := msg.(type) {
	case envelope.GotoPage:
		d.logger.Info("Navigation request",
			slog.String("page_name", m.PageName),
			slog.String("case_id", m.CaseID),
		)
		return true
	case envelope.ChatMessage:
		d.logger.Info("New chat message", slog.String("timestamp", m.Timestamp))
		if nav, ok := m.EmbeddedNavigation(); ok {
			d.logger.Info("Embedded navigation in chat message",
				slog.String("page_name", nav.PageName),
				slog.String("case_id", nav.CaseID),
			)
		}
		return true
	case envelope.Log:
		d.logger.Log(context.Background(), widgetLevel(m.Level), "Widget log",
			slog.String("message", m.Message),
			slog.String("timestamp", m.Timestamp),
		)
		return true
	case envelope.Error:
		d.logger.Error("Widget error",
			slog.String("error", m.Error),
			slog.String("timestamp", m.Timestamp),
		)
		return true
	case envelope.Unrecognized:
		d.logger.Warn("Unknown message type", slog.String("process", m.Process))
		return false
	default:
		panic("dispatcher: unexpected message type")
	}
}

func widgetLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (d *Dispatcher) History() *history.Store {
	return d.history
}

func (d *Dispatcher) Stats() history.Stats {
	return d.history.Stats()
}

func (d *Dispatcher) ClearHistory() {
	d.history.Clear()
	d.logger.Info("Message history cleared")
}

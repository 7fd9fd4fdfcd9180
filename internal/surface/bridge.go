package surface

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/JRI98/widgetbridge/internal/dispatcher"
	"github.com/JRI98/widgetbridge/internal/envelope"
	"github.com/JRI98/widgetbridge/internal/history"
)

// WidgetPrefix marks messages relayed from the widget iframe rather than
// posted by the host page itself.
const WidgetPrefix = "chatwoot-widget:"

const forwardEvent = "forwardToReactNative"

var ErrMalformedPayload = envelope.ErrMalformedPayload

type Result struct {
	Entry   history.Entry
	Message envelope.Message
	Ignored bool
}

// Bridge feeds raw widget text into a dispatcher.
type Bridge struct {
	dispatcher *dispatcher.Dispatcher
	logger     *slog.Logger

	// OnNavigationRequest is called for GotoPage instructions embedded in
	// chat messages, with the page name already converted by ScreenName.
	OnNavigationRequest func(pageName, caseID string)

	// OnMessage is called after every dispatch.
	OnMessage func(msg envelope.Message, entry history.Entry)
}

func NewBridge(d *dispatcher.Dispatcher, logger *slog.Logger) *Bridge {
	if logger == nil {
		logger = slog.Default()
	}

	return &Bridge{
		dispatcher: d,
		logger:     logger.With(slog.String("component", "surface")),
	}
}

type widgetEvent struct {
	Event string          `json:"event"`
	Type  string          `json:"type"`
	Data  json.RawMessage `json:"data"`
}

// HandleText decodes one raw event and dispatches it to h. Malformed text is
// logged and returned as ErrMalformedPayload without reaching the dispatcher.
func (b *Bridge) HandleText(raw []byte, h dispatcher.Handler) (Result, error) {
	raw = bytes.TrimSpace(raw)

	if bytes.HasPrefix(raw, []byte(WidgetPrefix)) {
		translated, ok, err := translateWidgetEvent(raw[len(WidgetPrefix):])
		if err != nil {
			b.logger.Error("Error parsing widget relay message", slog.Any("err", err), slog.String("raw", string(raw)))
			return Result{}, err
		}
		if !ok {
			b.logger.Debug("Ignoring widget relay message", slog.String("raw", string(raw)))
			return Result{Ignored: true}, nil
		}
		raw = translated
	}

	msg, err := envelope.Decode(raw)
	if err != nil {
		b.logger.Error("Error parsing widget message", slog.Any("err", err), slog.String("raw", string(raw)))
		return Result{}, err
	}

	b.logger.Debug("Widget message received", slog.String("kind", msg.Kind()))

	entry := b.dispatcher.Dispatch(msg, h)

	if chat, ok := msg.(envelope.ChatMessage); ok && b.OnNavigationRequest != nil {
		if nav, ok := chat.EmbeddedNavigation(); ok {
			screen := ScreenName(nav.PageName)
			b.logger.Info("Navigation found in chat message", slog.String("screen", screen), slog.String("case_id", nav.CaseID))
			b.OnNavigationRequest(screen, nav.CaseID)
		}
	}

	if b.OnMessage != nil {
		b.OnMessage(msg, entry)
	}

	return Result{Entry: entry, Message: msg}, nil
}

// translateWidgetEvent turns a forwardToReactNative relay event into a wire
// envelope. Any other relay event reports false.
func translateWidgetEvent(raw []byte) ([]byte, bool, error) {
	var event widgetEvent
	if err := json.Unmarshal(raw, &event); err != nil {
		return nil, false, fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}

	if event.Event != forwardEvent {
		return nil, false, nil
	}

	kind := event.Type
	if kind == "" {
		kind = envelope.KindGotoPage
	}

	data := event.Data
	if len(data) == 0 {
		data = json.RawMessage("null")
	}

	translated, err := envelope.Encode(kind, data)
	if err != nil {
		return nil, false, fmt.Errorf("could not translate widget event: %w", err)
	}

	return translated, true, nil
}

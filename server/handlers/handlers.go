package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/JRI98/widgetbridge/internal/dispatcher"
	"github.com/JRI98/widgetbridge/internal/envelope"
	"github.com/JRI98/widgetbridge/internal/history"
	"github.com/JRI98/widgetbridge/internal/navigation"
	"github.com/JRI98/widgetbridge/internal/surface"
	"github.com/labstack/echo/v4"
)

type Publisher interface {
	Publish(ctx context.Context, entry history.Entry) error
}

type Options struct {
	HistoryCapacity int
	ChatwootBaseURL string
	Screens         []string
	// Publisher is optional.
	Publisher Publisher
	Logger    *slog.Logger
}

type Handler struct {
	Dispatcher *dispatcher.Dispatcher
	Bridge     *surface.Bridge
	Pending    *navigation.Pending
	Router     *navigation.Router
	Links      surface.LinkPolicy
	Publisher  Publisher
	Pool       *ConnectionPool

	callbacks *dispatcher.Callbacks
	logger    *slog.Logger
}

func NewHandler(opts Options) *Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	d := dispatcher.New(history.New(opts.HistoryCapacity), logger)

	h := &Handler{
		Dispatcher: d,
		Bridge:     surface.NewBridge(d, logger),
		Pending:    navigation.NewPending(),
		Router:     navigation.NewRouter(opts.Screens...),
		Links:      surface.LinkPolicy{BaseURL: opts.ChatwootBaseURL},
		Publisher:  opts.Publisher,
		Pool:       NewConnectionPool(logger),
		logger:     logger.With(slog.String("component", "handlers")),
	}

	h.callbacks = &dispatcher.Callbacks{
		OnGotoPage: h.requestNavigation,
		OnChatMessage: func(msg envelope.ChatMessage) {
			h.logger.Debug("New chat message received", slog.String("timestamp", msg.Timestamp))
		},
		OnError: func(msg envelope.Error) {
			h.logger.Warn("Widget reported an error", slog.String("error", msg.Error))
		},
		OnUnknown: func(msg envelope.Unrecognized) {
			h.logger.Warn("Unknown message type", slog.String("process", msg.Process))
		},
	}
	h.Bridge.OnNavigationRequest = h.requestNavigation
	h.Bridge.OnMessage = func(msg envelope.Message, entry history.Entry) {
		h.Pool.Broadcast(ProcessedEvent{Type: EventProcessed, Kind: entry.Kind, Handled: entry.Handled})
	}

	return h
}

func (h *Handler) Cleanup() {
	h.Pool.CloseAll()
	if closer, ok := h.Publisher.(interface{ Close() }); ok {
		closer.Close()
	}
}

func (h *Handler) Routes(api *echo.Group) {
	api.POST("/messages", h.PostMessage)
	api.GET("/ws", h.WebSocket)
	api.GET("/history", h.GetHistory)
	api.DELETE("/history", h.ClearHistory)
	api.GET("/stats", h.GetStats)
	api.GET("/navigation/pending", h.GetPendingNavigation)
	api.POST("/navigation/confirm", h.ConfirmNavigation)
	api.POST("/navigation/cancel", h.CancelNavigation)
	api.GET("/links/decision", h.LinkDecision)
}

func (h *Handler) requestNavigation(pageName, caseID string) {
	req := h.Pending.Request(pageName, caseID)
	h.logger.Info("Navigation pending confirmation", slog.String("page_name", pageName), slog.String("case_id", caseID))
	h.Pool.Broadcast(NavigationEvent{Type: EventNavigationRequest, Request: req})
}

// process runs one raw widget event through the bridge and publishes the
// resulting history entry.
func (h *Handler) process(ctx context.Context, raw []byte) (surface.Result, error) {
	res, err := h.Bridge.HandleText(raw, h.callbacks)
	if err != nil {
		return surface.Result{}, err
	}

	if !res.Ignored && h.Publisher != nil {
		if err := h.Publisher.Publish(ctx, res.Entry); err != nil {
			h.logger.Warn("Could not publish message", slog.Any("err", err), slog.String("kind", res.Entry.Kind))
		}
	}

	return res, nil
}

func validateData[T any](c echo.Context) (*T, error) {
	res := new(T)

	if err := c.Bind(res); err != nil {
		return nil, err
	}

	if err := c.Validate(res); err != nil {
		return nil, err
	}

	return res, nil
}

func newEchoHTTPError(code int, message string, err *error) *echo.HTTPError {
	if err != nil {
		return echo.NewHTTPError(code, message).SetInternal(*err)
	}
	return echo.NewHTTPError(code, message)
}

type MessageResponse struct {
	Kind    string `json:"kind,omitempty"`
	Handled bool   `json:"handled"`
	Ignored bool   `json:"ignored"`
}

func newMessageResponse(res surface.Result) MessageResponse {
	if res.Ignored {
		return MessageResponse{Ignored: true}
	}
	return MessageResponse{Kind: res.Entry.Kind, Handled: res.Entry.Handled}
}

func (h *Handler) PostMessage(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return newEchoHTTPError(http.StatusInternalServerError, "Could not read body", &err)
	}

	res, err := h.process(c.Request().Context(), body)
	if err != nil {
		if errors.Is(err, envelope.ErrMalformedPayload) {
			return newEchoHTTPError(http.StatusBadRequest, "Malformed message", &err)
		}
		return newEchoHTTPError(http.StatusInternalServerError, "Could not handle message", &err)
	}

	return c.JSON(http.StatusAccepted, newMessageResponse(res))
}

type HistoryQuery struct {
	Last int `query:"last" validate:"min=0"`
}

type HistoryResponse struct {
	Entries  []history.Entry `json:"entries"`
	Capacity int             `json:"capacity"`
}

// GetHistory returns the whole history, or the newest `last` entries when
// last is positive.
func (h *Handler) GetHistory(c echo.Context) error {
	query, err := validateData[HistoryQuery](c)
	if err != nil {
		return fmt.Errorf("could not validate data: %w", err)
	}

	store := h.Dispatcher.History()

	var entries []history.Entry
	if query.Last > 0 {
		entries = store.Last(query.Last)
	} else {
		entries = store.All()
	}

	return c.JSON(http.StatusOK, HistoryResponse{Entries: entries, Capacity: store.Capacity()})
}

func (h *Handler) ClearHistory(c echo.Context) error {
	h.Dispatcher.ClearHistory()
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) GetStats(c echo.Context) error {
	return c.JSON(http.StatusOK, h.Dispatcher.Stats())
}

func (h *Handler) GetPendingNavigation(c echo.Context) error {
	req, ok := h.Pending.Current()
	if !ok {
		return c.NoContent(http.StatusNoContent)
	}
	return c.JSON(http.StatusOK, req)
}

type ConfirmResponse struct {
	Request navigation.Request `json:"request"`
	Route   navigation.Route   `json:"route"`
}

func (h *Handler) ConfirmNavigation(c echo.Context) error {
	req, err := h.Pending.Confirm()
	if err != nil {
		if errors.Is(err, navigation.ErrNothingPending) {
			return newEchoHTTPError(http.StatusConflict, "No pending navigation", &err)
		}
		return newEchoHTTPError(http.StatusInternalServerError, "Could not confirm navigation", &err)
	}

	route, err := h.Router.Resolve(req.PageName, req.CaseID)
	if err != nil {
		if errors.Is(err, navigation.ErrUnknownPage) {
			return newEchoHTTPError(http.StatusUnprocessableEntity, "Unknown page", &err)
		}
		return newEchoHTTPError(http.StatusInternalServerError, "Could not resolve page", &err)
	}

	h.logger.Info("Navigating", slog.String("screen", route.Screen), slog.String("case_id", route.CaseID))

	return c.JSON(http.StatusOK, ConfirmResponse{Request: req, Route: route})
}

type CancelResponse struct {
	Cancelled bool `json:"cancelled"`
}

func (h *Handler) CancelNavigation(c echo.Context) error {
	return c.JSON(http.StatusOK, CancelResponse{Cancelled: h.Pending.Cancel()})
}

type LinkQuery struct {
	URL string `query:"url" validate:"required"`
}

func (h *Handler) LinkDecision(c echo.Context) error {
	query, err := validateData[LinkQuery](c)
	if err != nil {
		return fmt.Errorf("could not validate data: %w", err)
	}

	return c.JSON(http.StatusOK, h.Links.Decide(query.URL))
}

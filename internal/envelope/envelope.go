package envelope

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Process values the dispatcher knows how to handle.
const (
	KindGotoPage    = "GotoPage"
	KindChatMessage = "ChatMessage"
	KindLog         = "Log"
	KindError       = "Error"
)

// ErrMalformedPayload is returned when an event is not a JSON object.
var ErrMalformedPayload = errors.New("malformed payload")

// Message is one of GotoPage, ChatMessage, Log, Error or Unrecognized.
type Message interface {
	Kind() string
	Data() json.RawMessage
	isMessage()
}

type payload struct {
	data json.RawMessage
}

func (p payload) Data() json.RawMessage {
	return p.data
}

func (payload) isMessage() {}

type GotoPage struct {
	payload
	PageName string
	CaseID   string
}

func (GotoPage) Kind() string { return KindGotoPage }

type ChatMessage struct {
	payload
	Message   json.RawMessage
	Timestamp string
}

func (ChatMessage) Kind() string { return KindChatMessage }

type Log struct {
	payload
	Level     string
	Message   string
	Timestamp string
}

func (Log) Kind() string { return KindLog }

type Error struct {
	payload
	Error     string
	Timestamp string
}

func (Error) Kind() string { return KindError }

// Unrecognized carries an envelope whose Process matched none of the known
// kinds. A Process that is not a JSON string keeps its raw token; a missing
// one is empty.
type Unrecognized struct {
	payload
	Process string
}

func (u Unrecognized) Kind() string { return u.Process }

type wireEnvelope struct {
	Process string          `json:"Process"`
	Data    json.RawMessage `json:"Data"`
}

type gotoPageData struct {
	PageName string `json:"pageName"`
	CaseID   string `json:"caseId"`
}

type chatMessageData struct {
	Message   json.RawMessage `json:"message"`
	Timestamp string          `json:"timestamp"`
}

type logData struct {
	Level     string `json:"level"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

type errorData struct {
	Error     string `json:"error"`
	Timestamp string `json:"timestamp"`
}

// Decode parses a single widget event. Only text that is not a JSON object
// is rejected; a known kind whose Data has the wrong shape decodes to zero
// values. The Process and Data keys are matched exactly.
func Decode(raw []byte) (Message, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}
	if fields == nil {
		return nil, fmt.Errorf("%w: null envelope", ErrMalformedPayload)
	}

	data := fields["Data"]
	p := payload{data: data}

	process, ok := processOf(fields["Process"])
	if !ok {
		return Unrecognized{payload: p, Process: process}, nil
	}

	switch process {
	case KindGotoPage:
		var d gotoPageData
		unmarshalLenient(data, &d)
		return GotoPage{payload: p, PageName: d.PageName, CaseID: d.CaseID}, nil
	case KindChatMessage:
		var d chatMessageData
		unmarshalLenient(data, &d)
		return ChatMessage{payload: p, Message: d.Message, Timestamp: d.Timestamp}, nil
	case KindLog:
		var d logData
		unmarshalLenient(data, &d)
		return Log{payload: p, Level: d.Level, Message: d.Message, Timestamp: d.Timestamp}, nil
	case KindError:
		var d errorData
		unmarshalLenient(data, &d)
		return Error{payload: p, Error: d.Error, Timestamp: d.Timestamp}, nil
	default:
		return Unrecognized{payload: p, Process: process}, nil
	}
}

// processOf reports false when the discriminator is missing or not a string,
// returning its raw token instead.
func processOf(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 {
		return "", false
	}

	var process string
	if err := json.Unmarshal(raw, &process); err != nil {
		return string(raw), false
	}

	return process, true
}

// A partially decoded struct keeps whatever fields matched before the error.
func unmarshalLenient(data json.RawMessage, v any) {
	if len(data) == 0 {
		return
	}
	_ = json.Unmarshal(data, v)
}

// Encode builds the wire form of an envelope.
func Encode(kind string, data any) ([]byte, error) {
	rawData, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("could not marshal data: %w", err)
	}

	raw, err := json.Marshal(wireEnvelope{Process: kind, Data: rawData})
	if err != nil {
		return nil, fmt.Errorf("could not marshal envelope: %w", err)
	}

	return raw, nil
}

package main

import (
	"bufio"
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/JRI98/widgetbridge/internal/ed25519"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	method string
	uri    string
	body   string
}

type recorder struct {
	mu       sync.Mutex
	requests []recordedRequest
}

func (r *recorder) add(req recordedRequest) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = append(r.requests, req)
}

func (r *recorder) list() []recordedRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]recordedRequest(nil), r.requests...)
}

func newTestProgram(t *testing.T, input string) (Program, *bytes.Buffer, *recorder) {
	t.Helper()

	requests := &recorder{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)

		_, err = ed25519.VerifyAuthorization(r.Header.Get("Authorization"), body)
		require.NoError(t, err)

		requests.add(recordedRequest{method: r.Method, uri: r.URL.RequestURI(), body: string(body)})
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(`{"kind":"Log","handled":true}`))
	}))
	t.Cleanup(server.Close)

	_, privateKey, err := ed25519.Generate()
	require.NoError(t, err)

	var out bytes.Buffer
	return Program{
		serverURL:  server.URL,
		privateKey: privateKey,
		stdin:      bufio.NewReader(strings.NewReader(input)),
		stdout:     &out,
	}, &out, requests
}

func TestMainScreenPostsMessagesAndCommands(t *testing.T) {
	input := strings.Join([]string{
		`{"Process":"Log","Data":{"message":"hi"}}`,
		"",
		":history 5",
		":stats",
		":link https://example.com/a b",
		":confirm",
		":quit",
		":stats",
	}, "\n") + "\n"

	program, out, requests := newTestProgram(t, input)

	require.NoError(t, program.mainScreen())

	require.Equal(t, []recordedRequest{
		{method: http.MethodPost, uri: "/api/messages", body: `{"Process":"Log","Data":{"message":"hi"}}`},
		{method: http.MethodGet, uri: "/api/history?last=5"},
		{method: http.MethodGet, uri: "/api/stats"},
		{method: http.MethodGet, uri: "/api/links/decision?url=https%3A%2F%2Fexample.com%2Fa+b"},
		{method: http.MethodPost, uri: "/api/navigation/confirm"},
	}, requests.list())
	require.Contains(t, out.String(), `"handled": true`)
}

func TestHandleLineErrors(t *testing.T) {
	program, _, requests := newTestProgram(t, "")

	_, err := program.handleLine(":history many")
	require.Error(t, err)

	_, err = program.handleLine(":bogus")
	require.Error(t, err)

	require.Empty(t, requests.list())
}

func TestMainScreenStopsAtEOF(t *testing.T) {
	program, _, requests := newTestProgram(t, `{"Process":"Log"}`)

	err := program.mainScreen()
	require.ErrorIs(t, err, io.EOF)
	require.Len(t, requests.list(), 1)
}

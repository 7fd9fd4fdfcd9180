package envelope

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeGotoPage(t *testing.T) {
	msg, err := Decode([]byte(`{"Process":"GotoPage","Data":{"pageName":"Addresses","caseId":"case-123"}}`))
	require.NoError(t, err)

	gotoPage, ok := msg.(GotoPage)
	require.True(t, ok)
	require.Equal(t, "Addresses", gotoPage.PageName)
	require.Equal(t, "case-123", gotoPage.CaseID)
	require.Equal(t, KindGotoPage, gotoPage.Kind())
	require.JSONEq(t, `{"pageName":"Addresses","caseId":"case-123"}`, string(gotoPage.Data()))
}

func TestDecodeGotoPagePascalCaseFields(t *testing.T) {
	msg, err := Decode([]byte(`{"Process":"GotoPage","Data":{"PageName":"Orders","CaseId":"42"}}`))
	require.NoError(t, err)

	gotoPage := msg.(GotoPage)
	require.Equal(t, "Orders", gotoPage.PageName)
	require.Equal(t, "42", gotoPage.CaseID)
}

func TestDecodeKnownKinds(t *testing.T) {
	msg, err := Decode([]byte(`{"Process":"Log","Data":{"level":"warn","message":"slow","timestamp":"2024-01-01T00:00:00Z"}}`))
	require.NoError(t, err)
	logMsg := msg.(Log)
	require.Equal(t, "warn", logMsg.Level)
	require.Equal(t, "slow", logMsg.Message)
	require.Equal(t, "2024-01-01T00:00:00Z", logMsg.Timestamp)

	msg, err = Decode([]byte(`{"Process":"Error","Data":{"error":"boom","timestamp":"t"}}`))
	require.NoError(t, err)
	require.Equal(t, "boom", msg.(Error).Error)
	require.Equal(t, "t", msg.(Error).Timestamp)

	msg, err = Decode([]byte(`{"Process":"ChatMessage","Data":{"message":{"id":7},"timestamp":"t"}}`))
	require.NoError(t, err)
	chat := msg.(ChatMessage)
	require.JSONEq(t, `{"id":7}`, string(chat.Message))
	require.Equal(t, "t", chat.Timestamp)
}

func TestDecodeIsCaseSensitiveOnKind(t *testing.T) {
	msg, err := Decode([]byte(`{"Process":"gotopage","Data":{"pageName":"Addresses"}}`))
	require.NoError(t, err)

	unknown, ok := msg.(Unrecognized)
	require.True(t, ok)
	require.Equal(t, "gotopage", unknown.Kind())
	require.JSONEq(t, `{"pageName":"Addresses"}`, string(unknown.Data()))
}

func TestDecodeMatchesEnvelopeKeysExactly(t *testing.T) {
	msg, err := Decode([]byte(`{"process":"GotoPage","data":{"pageName":"Addresses","caseId":"c"}}`))
	require.NoError(t, err)
	unknown, ok := msg.(Unrecognized)
	require.True(t, ok)
	require.Equal(t, "", unknown.Kind())
	require.Nil(t, unknown.Data())

	msg, err = Decode([]byte(`{"Process":"Bogus","process":"GotoPage","Data":{}}`))
	require.NoError(t, err)
	unknown, ok = msg.(Unrecognized)
	require.True(t, ok)
	require.Equal(t, "Bogus", unknown.Kind())
}

func TestDecodeNonStringProcessIsUnrecognized(t *testing.T) {
	msg, err := Decode([]byte(`{"Process":5,"Data":{}}`))
	require.NoError(t, err)
	unknown, ok := msg.(Unrecognized)
	require.True(t, ok)
	require.Equal(t, "5", unknown.Kind())
	require.JSONEq(t, `{}`, string(unknown.Data()))

	msg, err = Decode([]byte(`{"Data":{"pageName":"Addresses"}}`))
	require.NoError(t, err)
	require.IsType(t, Unrecognized{}, msg)
	require.Equal(t, "", msg.Kind())
}

func TestDecodeMalformedDataYieldsZeroValues(t *testing.T) {
	msg, err := Decode([]byte(`{"Process":"GotoPage","Data":"not an object"}`))
	require.NoError(t, err)
	require.Equal(t, "", msg.(GotoPage).PageName)

	msg, err = Decode([]byte(`{"Process":"Log"}`))
	require.NoError(t, err)
	require.Empty(t, msg.(Log).Message)
	require.Nil(t, msg.Data())
}

func TestDecodeMalformedPayload(t *testing.T) {
	for _, raw := range []string{``, `{`, `"text"`, `[1,2]`, `null`} {
		_, err := Decode([]byte(raw))
		require.ErrorIs(t, err, ErrMalformedPayload, "input %q", raw)
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	raw, err := Encode(KindError, map[string]string{"error": "boom"})
	require.NoError(t, err)

	var wire map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &wire))
	require.JSONEq(t, `"Error"`, string(wire["Process"]))

	msg, err := Decode(raw)
	require.NoError(t, err)
	require.Equal(t, "boom", msg.(Error).Error)
}

func TestEmbeddedNavigation(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    Navigation
		ok      bool
	}{
		{
			name:    "snake case",
			message: `{"content_attributes":{"navigation_action":true,"navigation_data":{"process":"GotoPage","data":{"page_name":"addresses_screen","case_id":"c1"}}}}`,
			want:    Navigation{PageName: "addresses_screen", CaseID: "c1"},
			ok:      true,
		},
		{
			name:    "camel case",
			message: `{"contentAttributes":{"navigationAction":"go","navigationData":{"process":"GotoPage","data":{"pageName":"Orders","caseId":"c2"}}}}`,
			want:    Navigation{PageName: "Orders", CaseID: "c2"},
			ok:      true,
		},
		{
			name:    "action disabled",
			message: `{"content_attributes":{"navigation_action":false,"navigation_data":{"process":"GotoPage","data":{"page_name":"x"}}}}`,
		},
		{
			name:    "other process",
			message: `{"content_attributes":{"navigation_action":true,"navigation_data":{"process":"OpenUrl"}}}`,
		},
		{
			name:    "no attributes",
			message: `{"content":"hello"}`,
		},
		{
			name:    "message not an object",
			message: `"hello"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := Encode(KindChatMessage, map[string]json.RawMessage{"message": json.RawMessage(tt.message)})
			require.NoError(t, err)

			msg, err := Decode(raw)
			require.NoError(t, err)

			nav, ok := msg.(ChatMessage).EmbeddedNavigation()
			require.Equal(t, tt.ok, ok)
			require.Equal(t, tt.want, nav)
		})
	}
}

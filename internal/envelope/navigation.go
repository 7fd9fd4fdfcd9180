package envelope

import "encoding/json"

// Navigation is a GotoPage instruction carried inside a chat message's
// content attributes.
type Navigation struct {
	PageName string
	CaseID   string
}

type navigationTarget struct {
	PageName      string `json:"page_name"`
	PageNameCamel string `json:"pageName"`
	CaseID        string `json:"case_id"`
	CaseIDCamel   string `json:"caseId"`
}

type navigationData struct {
	Process string           `json:"process"`
	Data    navigationTarget `json:"data"`
}

type contentAttributes struct {
	NavigationAction      json.RawMessage `json:"navigation_action"`
	NavigationActionCamel json.RawMessage `json:"navigationAction"`
	NavigationData        *navigationData `json:"navigation_data"`
	NavigationDataCamel   *navigationData `json:"navigationData"`
}

type chatMessageBody struct {
	ContentAttributes      *contentAttributes `json:"content_attributes"`
	ContentAttributesCamel *contentAttributes `json:"contentAttributes"`
}

// EmbeddedNavigation reports the GotoPage instruction attached to the chat
// message, if any. The widget sends snake_case attributes; camelCase is
// accepted as well.
func (m ChatMessage) EmbeddedNavigation() (Navigation, bool) {
	if len(m.Message) == 0 {
		return Navigation{}, false
	}

	var body chatMessageBody
	unmarshalLenient(m.Message, &body)

	attrs := body.ContentAttributes
	if attrs == nil {
		attrs = body.ContentAttributesCamel
	}
	if attrs == nil {
		return Navigation{}, false
	}

	action := attrs.NavigationAction
	if len(action) == 0 {
		action = attrs.NavigationActionCamel
	}
	if !truthy(action) {
		return Navigation{}, false
	}

	nav := attrs.NavigationData
	if nav == nil {
		nav = attrs.NavigationDataCamel
	}
	if nav == nil || nav.Process != KindGotoPage {
		return Navigation{}, false
	}

	return Navigation{
		PageName: firstNonEmpty(nav.Data.PageName, nav.Data.PageNameCamel),
		CaseID:   firstNonEmpty(nav.Data.CaseID, nav.Data.CaseIDCamel),
	}, true
}

// truthy follows the widget's loose flag semantics: absent, null, false,
// 0 and "" are all false.
func truthy(raw json.RawMessage) bool {
	if len(raw) == 0 {
		return false
	}

	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return false
	}

	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return t != ""
	default:
		return true
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

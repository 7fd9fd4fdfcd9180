package navigation

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownPage = errors.New("unknown page")

type Route struct {
	Screen string `json:"screen"`
	CaseID string `json:"case_id"`
}

type Router struct {
	screens map[string]string
}

var DefaultScreens = []string{"Addresses", "Orders", "Profile"}

func NewRouter(screens ...string) *Router {
	if len(screens) == 0 {
		screens = DefaultScreens
	}

	r := &Router{screens: make(map[string]string, len(screens))}
	for _, screen := range screens {
		r.screens[screen] = screen
	}
	return r
}

// Resolve maps a page name to a screen. "OrdersScreen" and "Orders" resolve
// to the same route.
func (r *Router) Resolve(pageName, caseID string) (Route, error) {
	name := strings.TrimSuffix(pageName, "Screen")
	screen, ok := r.screens[name]
	if !ok {
		return Route{}, fmt.Errorf("%w: %q", ErrUnknownPage, pageName)
	}

	return Route{Screen: screen, CaseID: caseID}, nil
}

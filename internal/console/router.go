package console

import (
	"context"
	"fmt"
	"sync"
)

// Panel identifies one section of the console. Exactly one is active.
type Panel string

const (
	PanelOverview    Panel = "overview"
	PanelCatalog     Panel = "catalog"
	PanelWatchlists  Panel = "watchlists"
	PanelCredentials Panel = "credentials"
	PanelUsers       Panel = "users"

	DefaultPanel = PanelOverview
)

// Panels lists the panels in navigation order.
var Panels = []Panel{PanelOverview, PanelCatalog, PanelWatchlists, PanelCredentials, PanelUsers}

// PlaceholderText is shown in place of panel content while logged out.
const PlaceholderText = "Please log in to view this panel."

// AdminOnlyText replaces an admin panel for a session known to lack the
// admin role.
const AdminOnlyText = "Admin access is required to view this panel."

// adminPanels need the admin role once the session's roles are known.
var adminPanels = map[Panel]bool{PanelCredentials: true, PanelUsers: true}

func ParsePanel(id string) (Panel, error) {
	for _, p := range Panels {
		if string(p) == id {
			return p, nil
		}
	}
	return "", validation(fmt.Sprintf("Unknown panel %q", id), ErrUnknownPanel)
}

// loadPolicy runs a panel's lazy load on activation.
type loadPolicy func(ctx context.Context) error

// Router is the panel state machine. Activating the active panel again
// re-runs its load policy, which is how the operator asks for a refresh.
type Router struct {
	// access returns the placeholder to show instead of p, or "" when p may
	// load.
	access   func(p Panel) string
	surfaces *Surfaces
	policies map[Panel]loadPolicy

	mu     sync.Mutex
	active Panel
}

func newRouter(access func(Panel) string, surfaces *Surfaces, policies map[Panel]loadPolicy) *Router {
	return &Router{
		access:   access,
		surfaces: surfaces,
		policies: policies,
		active:   DefaultPanel,
	}
}

// Activate switches to the panel named id. An empty id does nothing. While
// logged out, or without the role an admin panel needs, only the active
// panel changes; no data is loaded.
func (r *Router) Activate(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	p, err := ParsePanel(id)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.active = p
	r.mu.Unlock()
	r.surfaces.announcePanel(p)

	if r.access(p) != "" {
		return nil
	}
	if policy := r.policies[p]; policy != nil {
		return policy(ctx)
	}
	return nil
}

func (r *Router) Active() Panel {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// RouterView is what the page needs to draw navigation.
type RouterView struct {
	Active      Panel  `json:"active"`
	Placeholder bool   `json:"placeholder"`
	Message     string `json:"message,omitempty"`
}

func (r *Router) View() RouterView {
	v := RouterView{Active: r.Active()}
	if msg := r.access(v.Active); msg != "" {
		v.Placeholder = true
		v.Message = msg
	}
	return v
}

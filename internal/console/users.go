package console

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/dgnsrekt/kite_console/internal/backend"
)

// Roles are the role names a user can hold.
var Roles = []string{"client", "admin"}

const noUsersText = "No users found."

// DirectoryView is the loaded user directory and the search that produced it.
type DirectoryView struct {
	Search string         `json:"search,omitempty"`
	Users  []backend.User `json:"users"`
	Loaded bool           `json:"loaded"`
}

// Users is the admin user directory. A mutation of one user always reloads
// the whole directory.
type Users struct {
	client     *backend.Client
	surfaces   *Surfaces
	invalidate invalidateFunc

	mu     sync.Mutex
	gen    uint64
	search string
	users  []backend.User
	loaded bool
}

func newUsers(client *backend.Client, surfaces *Surfaces, invalidate invalidateFunc) *Users {
	return &Users{client: client, surfaces: surfaces, invalidate: invalidate}
}

func (u *Users) View() DirectoryView {
	u.mu.Lock()
	defer u.mu.Unlock()
	return DirectoryView{
		Search: u.search,
		Users:  append([]backend.User(nil), u.users...),
		Loaded: u.loaded,
	}
}

// SearchTerm is the filter used by the last load.
func (u *Users) SearchTerm() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.search
}

func (u *Users) Load(ctx context.Context, search string) error {
	return u.load(ctx, strings.TrimSpace(search), interactive)
}

func (u *Users) reload(ctx context.Context) error {
	return u.load(ctx, u.SearchTerm(), silent)
}

func (u *Users) load(ctx context.Context, search string, mode loadMode) error {
	u.mu.Lock()
	u.gen++
	gen := u.gen
	u.search = search
	u.mu.Unlock()

	mode.report(u.surfaces, SurfaceUsers, "Loading users…", ToneInfo)
	users, err := u.client.ListUsers(ctx, search)
	if err != nil {
		if !u.current(gen) {
			slog.Debug("dropping stale user directory failure", "generation", gen, "error", err)
			return nil
		}
		mode.reportError(u.surfaces, SurfaceUsers, err)
		return err
	}

	u.mu.Lock()
	if gen != u.gen {
		u.mu.Unlock()
		slog.Debug("discarding stale user directory", "generation", gen)
		return nil
	}
	u.users = users
	u.loaded = true
	u.mu.Unlock()

	if len(users) == 0 {
		mode.report(u.surfaces, SurfaceUsers, noUsersText, ToneInfo)
		return nil
	}
	mode.report(u.surfaces, SurfaceUsers, fmt.Sprintf("Loaded %d users.", len(users)), ToneSuccess)
	return nil
}

func (u *Users) current(gen uint64) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return gen == u.gen
}

// SaveRoles replaces a user's role set. An empty set never reaches the
// network.
func (u *Users) SaveRoles(ctx context.Context, userID string, roles []string) error {
	clean, err := normalizeRoles(roles)
	if err != nil {
		u.surfaces.ReportError(SurfaceUsers, err)
		return err
	}
	if err := u.client.RequireAuthenticated(); err != nil {
		u.surfaces.ReportError(SurfaceUsers, err)
		return err
	}
	u.surfaces.Report(SurfaceUsers, "Saving roles…", ToneInfo)
	if _, err := u.client.UpdateUserRoles(ctx, userID, clean); err != nil {
		u.surfaces.ReportError(SurfaceUsers, err)
		return err
	}
	u.surfaces.Report(SurfaceUsers, "Roles updated.", ToneSuccess)
	u.invalidate(ctx, ActionUserRolesSaved)
	return nil
}

func (u *Users) SetApproval(ctx context.Context, userID string, approved bool) error {
	if err := u.client.RequireAuthenticated(); err != nil {
		u.surfaces.ReportError(SurfaceUsers, err)
		return err
	}
	detail, err := u.client.SetUserApproval(ctx, userID, approved)
	if err != nil {
		u.surfaces.ReportError(SurfaceUsers, err)
		return err
	}
	done := "User approved."
	if !approved {
		done = "User approval revoked."
	}
	u.surfaces.Report(SurfaceUsers, detailOr(detail, done), ToneSuccess)
	u.invalidate(ctx, ActionUserApprovalSet)
	return nil
}

// normalizeRoles lowercases, de-duplicates and checks roles against Roles.
func normalizeRoles(roles []string) ([]string, error) {
	seen := make(map[string]bool, len(roles))
	var out []string
	for _, r := range roles {
		r = strings.ToLower(strings.TrimSpace(r))
		if r == "" || seen[r] {
			continue
		}
		if !knownRole(r) {
			return nil, validation(fmt.Sprintf("Unknown role %q", r), nil)
		}
		seen[r] = true
		out = append(out, r)
	}
	if len(out) == 0 {
		return nil, validation("Select at least one role", ErrEmptyRoleSet)
	}
	return out, nil
}

func knownRole(r string) bool {
	for _, known := range Roles {
		if r == known {
			return true
		}
	}
	return false
}

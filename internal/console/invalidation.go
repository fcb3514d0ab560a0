package console

import "context"

// Action names a confirmed mutation.
type Action string

const (
	ActionWatchlistCreated     Action = "watchlist.created"
	ActionWatchlistRenamed     Action = "watchlist.renamed"
	ActionWatchlistDeleted     Action = "watchlist.deleted"
	ActionWatchlistItemAdded   Action = "watchlist.item_added"
	ActionWatchlistItemRemoved Action = "watchlist.item_removed"
	ActionCredentialSaved      Action = "credential.saved"
	ActionCredentialCleared    Action = "credential.cleared"
	ActionCredentialTested     Action = "credential.tested"
	ActionKiteSessionCompleted Action = "credential.session_completed"
	ActionUserRolesSaved       Action = "user.roles_saved"
	ActionUserApprovalSet      Action = "user.approval_set"
	ActionCatalogCleared       Action = "catalog.cleared"
	ActionCatalogImported      Action = "catalog.imported"
)

// Entity names a piece of console state that can be reloaded silently.
type Entity string

const (
	EntityDashboard        Entity = "dashboard"
	EntityWatchlists       Entity = "watchlists"
	EntityWatchlistItems   Entity = "watchlist_items"
	EntityCredentialStatus Entity = "credential_status"
	EntityUserDirectory    Entity = "user_directory"
	EntityCatalog          Entity = "catalog"
	EntityImports          Entity = "imports"
)

// Invalidations maps each action to the entities it makes stale, in the
// order they are reloaded.
type Invalidations map[Action][]Entity

// DefaultInvalidations reflects what the backend's dashboard totals and
// watchlist item resolution depend on.
var DefaultInvalidations = Invalidations{
	ActionWatchlistCreated:     {EntityWatchlists},
	ActionWatchlistRenamed:     {EntityWatchlists},
	ActionWatchlistDeleted:     {EntityWatchlists, EntityDashboard},
	ActionWatchlistItemAdded:   {EntityWatchlistItems, EntityDashboard},
	ActionWatchlistItemRemoved: {EntityWatchlistItems, EntityDashboard},
	ActionCredentialSaved:      {EntityCredentialStatus, EntityDashboard},
	ActionCredentialCleared:    {EntityCredentialStatus, EntityDashboard},
	ActionCredentialTested:     {EntityCredentialStatus, EntityDashboard},
	ActionKiteSessionCompleted: {EntityCredentialStatus, EntityDashboard},
	ActionUserRolesSaved:       {EntityUserDirectory},
	ActionUserApprovalSet:      {EntityUserDirectory, EntityDashboard},
	ActionCatalogCleared:       {EntityDashboard, EntityWatchlistItems},
	ActionCatalogImported:      {EntityImports, EntityDashboard, EntityCatalog, EntityWatchlistItems},
}

func (t Invalidations) Entities(a Action) []Entity {
	return append([]Entity(nil), t[a]...)
}

// invalidateFunc is how a controller announces a confirmed mutation.
type invalidateFunc func(ctx context.Context, a Action)

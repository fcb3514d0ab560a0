package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/dgnsrekt/kite_console/internal/backend"
	"github.com/dgnsrekt/kite_console/internal/console"
)

func registerWatchlistHandlers(api huma.API, svc Service) {
	type collectionOutput struct {
		Body console.WatchlistCollection
	}
	huma.Register(api, huma.Operation{OperationID: "list-watchlists", Method: http.MethodGet, Path: "/api/v1/watchlists", Summary: "Reload watchlists, keeping the selection when still present", Tags: []string{"Watchlists"}},
		func(ctx context.Context, input *struct{}) (*collectionOutput, error) {
			if err := svc.RefreshWatchlists(ctx); err != nil {
				return nil, mapErr(err)
			}
			return &collectionOutput{Body: svc.View().Watchlists}, nil
		})

	type watchlistOutput struct {
		Body backend.Watchlist
	}
	type nameInput struct {
		Body struct {
			Name string `json:"name" required:"true"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "create-watchlist", Method: http.MethodPost, Path: "/api/v1/watchlists", Summary: "Create a watchlist and select it", Tags: []string{"Watchlists"}},
		func(ctx context.Context, input *nameInput) (*watchlistOutput, error) {
			wl, err := svc.CreateWatchlist(ctx, input.Body.Name)
			if err != nil {
				return nil, mapErr(err)
			}
			return &watchlistOutput{Body: wl}, nil
		})

	type itemsOutput struct {
		Body console.ItemsView
	}
	huma.Register(api, huma.Operation{OperationID: "select-watchlist", Method: http.MethodPut, Path: "/api/v1/watchlists/selected", Summary: "Select a watchlist and load its items", Tags: []string{"Watchlists"}},
		func(ctx context.Context, input *struct {
			Body struct {
				ID string `json:"id" required:"true"`
			}
		}) (*itemsOutput, error) {
			if err := svc.SelectWatchlist(ctx, input.Body.ID); err != nil {
				return nil, mapErr(err)
			}
			return &itemsOutput{Body: svc.View().Items}, nil
		})

	huma.Register(api, huma.Operation{OperationID: "rename-watchlist", Method: http.MethodPatch, Path: "/api/v1/watchlists/selected", Summary: "Rename the selected watchlist", Tags: []string{"Watchlists"}},
		func(ctx context.Context, input *nameInput) (*collectionOutput, error) {
			if err := svc.RenameWatchlist(ctx, input.Body.Name); err != nil {
				return nil, mapErr(err)
			}
			return &collectionOutput{Body: svc.View().Watchlists}, nil
		})

	huma.Register(api, huma.Operation{OperationID: "delete-watchlist", Method: http.MethodDelete, Path: "/api/v1/watchlists/selected", Summary: "Delete the selected watchlist", Tags: []string{"Watchlists"}},
		func(ctx context.Context, input *struct{}) (*collectionOutput, error) {
			if err := svc.DeleteWatchlist(ctx); err != nil {
				return nil, mapErr(err)
			}
			return &collectionOutput{Body: svc.View().Watchlists}, nil
		})

	huma.Register(api, huma.Operation{OperationID: "get-watchlist-items", Method: http.MethodGet, Path: "/api/v1/watchlists/selected/items", Summary: "Items of the selected watchlist", Tags: []string{"Watchlists"}},
		func(ctx context.Context, input *struct{}) (*itemsOutput, error) {
			return &itemsOutput{Body: svc.View().Items}, nil
		})

	huma.Register(api, huma.Operation{OperationID: "add-watchlist-item", Method: http.MethodPost, Path: "/api/v1/watchlists/selected/items", Summary: "Add an instrument to the selected watchlist", Tags: []string{"Watchlists"}},
		func(ctx context.Context, input *struct {
			Body struct {
				InstrumentID string `json:"instrument_id" required:"true"`
			}
		}) (*itemsOutput, error) {
			if err := svc.AddWatchlistItem(ctx, input.Body.InstrumentID); err != nil {
				return nil, mapErr(err)
			}
			return &itemsOutput{Body: svc.View().Items}, nil
		})

	huma.Register(api, huma.Operation{OperationID: "remove-watchlist-item", Method: http.MethodDelete, Path: "/api/v1/watchlists/selected/items/{item_id}", Summary: "Remove an entry from the selected watchlist", Tags: []string{"Watchlists"}},
		func(ctx context.Context, input *struct {
			ItemID string `path:"item_id"`
		}) (*itemsOutput, error) {
			if err := svc.RemoveWatchlistItem(ctx, input.ItemID); err != nil {
				return nil, mapErr(err)
			}
			return &itemsOutput{Body: svc.View().Items}, nil
		})
}

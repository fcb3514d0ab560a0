package backend

import (
	"context"
	"net/http"
	"net/url"
)

func (c *Client) ListWatchlists(ctx context.Context) ([]Watchlist, error) {
	var out []Watchlist
	err := c.do(ctx, http.MethodGet, "/watchlists", requestOptions{route: "/watchlists"}, &out)
	return out, err
}

func (c *Client) CreateWatchlist(ctx context.Context, name string) (Watchlist, error) {
	var out Watchlist
	err := c.do(ctx, http.MethodPost, "/watchlists", requestOptions{
		route: "/watchlists",
		body:  map[string]string{"name": name},
	}, &out)
	return out, err
}

func (c *Client) RenameWatchlist(ctx context.Context, id, name string) (Watchlist, error) {
	var out Watchlist
	err := c.do(ctx, http.MethodPut, "/watchlists/"+url.PathEscape(id), requestOptions{
		route: "/watchlists/{id}",
		body:  map[string]string{"name": name},
	}, &out)
	return out, err
}

func (c *Client) DeleteWatchlist(ctx context.Context, id string) (Detail, error) {
	var out Detail
	err := c.do(ctx, http.MethodDelete, "/watchlists/"+url.PathEscape(id), requestOptions{route: "/watchlists/{id}"}, &out)
	return out, err
}

func (c *Client) WatchlistItems(ctx context.Context, id string) (WatchlistItems, error) {
	var out WatchlistItems
	err := c.do(ctx, http.MethodGet, "/watchlists/"+url.PathEscape(id)+"/items", requestOptions{route: "/watchlists/{id}/items"}, &out)
	return out, err
}

// AddWatchlistItem returns the created entry; the backend answers 409 when
// the instrument is already in the watchlist.
func (c *Client) AddWatchlistItem(ctx context.Context, id, instrumentID string) (WatchlistItem, error) {
	var out struct {
		ID           string `json:"id"`
		InstrumentID string `json:"instrument_id"`
	}
	err := c.do(ctx, http.MethodPost, "/watchlists/"+url.PathEscape(id)+"/items", requestOptions{
		route: "/watchlists/{id}/items",
		body:  map[string]string{"instrument_id": instrumentID},
	}, &out)
	return WatchlistItem{ItemID: out.ID, InstrumentID: out.InstrumentID}, err
}

func (c *Client) RemoveWatchlistItem(ctx context.Context, id, itemID string) (Detail, error) {
	var out Detail
	path := "/watchlists/" + url.PathEscape(id) + "/items/" + url.PathEscape(itemID)
	err := c.do(ctx, http.MethodDelete, path, requestOptions{route: "/watchlists/{id}/items/{item_id}"}, &out)
	return out, err
}

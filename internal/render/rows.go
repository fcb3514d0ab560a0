// Package render turns console state into rows and HTML. Everything here is
// a pure function of its input.
package render

import (
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/dgnsrekt/kite_console/internal/backend"
	"github.com/dgnsrekt/kite_console/internal/console"
)

// Row actions.
const (
	ActionAdd     = "add"
	ActionRemove  = "remove"
	ActionApprove = "approve"
	ActionRevoke  = "revoke"
	ActionRoles   = "save_roles"
)

const priceScale = 2

type CatalogRow struct {
	ID        string
	Symbol    string
	Name      string
	Exchange  string
	Segment   string
	Type      string
	Expiry    string
	Strike    string
	LotSize   string
	LastPrice string
	Actions   []string
}

func CatalogRows(st console.SearchState) []CatalogRow {
	rows := make([]CatalogRow, 0, len(st.Rows))
	for _, in := range st.Rows {
		rows = append(rows, CatalogRow{
			ID:        in.ID,
			Symbol:    in.TradingSymbol,
			Name:      in.Name,
			Exchange:  in.Exchange,
			Segment:   in.Segment,
			Type:      in.InstrumentType,
			Expiry:    in.Expiry,
			Strike:    nullPrice(in.Strike),
			LotSize:   strconv.Itoa(in.LotSize),
			LastPrice: price(in.LastPrice),
			Actions:   []string{ActionAdd},
		})
	}
	return rows
}

// WatchlistRow is one watchlist entry. Missing rows carry only identifiers
// and the remove action.
type WatchlistRow struct {
	ItemID       string
	InstrumentID string
	Missing      bool
	Symbol       string
	Name         string
	Exchange     string
	Price        string
	QuoteSource  string
	QuoteAt      string
	Actions      []string
}

func WatchlistRows(v console.ItemsView) []WatchlistRow {
	rows := make([]WatchlistRow, 0, len(v.Items))
	for _, it := range v.Items {
		if it.Missing {
			rows = append(rows, WatchlistRow{
				ItemID:       it.ItemID,
				InstrumentID: it.InstrumentID,
				Missing:      true,
				Actions:      []string{ActionRemove},
			})
			continue
		}
		rows = append(rows, WatchlistRow{
			ItemID:       it.ItemID,
			InstrumentID: it.InstrumentID,
			Symbol:       it.TradingSymbol,
			Name:         it.Name,
			Exchange:     it.Exchange,
			Price:        quote(it),
			QuoteSource:  it.QuoteSource,
			QuoteAt:      it.QuoteTimestamp,
			Actions:      []string{ActionRemove},
		})
	}
	return rows
}

// quote prefers the live price and falls back to the catalog's last price.
func quote(it backend.WatchlistItem) string {
	if it.LivePrice.Valid {
		return price(it.LivePrice.Decimal)
	}
	return price(it.LastPrice)
}

func price(d decimal.Decimal) string {
	return d.StringFixed(priceScale)
}

func nullPrice(d decimal.NullDecimal) string {
	if !d.Valid {
		return ""
	}
	return price(d.Decimal)
}

type RoleBox struct {
	Role    string
	Checked bool
}

// UserRow is one directory entry, or the placeholder row when Placeholder is
// set.
type UserRow struct {
	Placeholder bool
	Text        string
	ID          string
	Name        string
	Email       string
	Roles       []RoleBox
	Approved    bool
	CreatedAt   string
	Actions     []string
}

const NoUsersText = "No users found."

func UserRows(d console.DirectoryView) []UserRow {
	if len(d.Users) == 0 {
		return []UserRow{{Placeholder: true, Text: NoUsersText}}
	}
	rows := make([]UserRow, 0, len(d.Users))
	for _, u := range d.Users {
		held := make(map[string]bool, len(u.Roles))
		for _, r := range u.Roles {
			held[r] = true
		}
		boxes := make([]RoleBox, 0, len(console.Roles))
		for _, r := range console.Roles {
			boxes = append(boxes, RoleBox{Role: r, Checked: held[r]})
		}
		action := ActionApprove
		if u.Approved {
			action = ActionRevoke
		}
		rows = append(rows, UserRow{
			ID:        u.ID,
			Name:      u.Name,
			Email:     u.Email,
			Roles:     boxes,
			Approved:  u.Approved,
			CreatedAt: u.CreatedAt,
			Actions:   []string{ActionRoles, action},
		})
	}
	return rows
}

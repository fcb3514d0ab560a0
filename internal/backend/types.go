package backend

import "github.com/shopspring/decimal"

// Instrument is a catalog row as returned by the instruments search.
type Instrument struct {
	ID              string              `json:"id"`
	InstrumentToken string              `json:"instrument_token"`
	ExchangeToken   string              `json:"exchange_token,omitempty"`
	TradingSymbol   string              `json:"tradingsymbol"`
	Name            string              `json:"name,omitempty"`
	LastPrice       decimal.Decimal     `json:"last_price"`
	Expiry          string              `json:"expiry,omitempty"`
	Strike          decimal.NullDecimal `json:"strike"`
	TickSize        decimal.Decimal     `json:"tick_size"`
	LotSize         int                 `json:"lot_size"`
	InstrumentType  string              `json:"instrument_type"`
	Segment         string              `json:"segment"`
	Exchange        string              `json:"exchange"`
}

// SearchQuery is one page request. Cursor is nil for the first page.
type SearchQuery struct {
	Query    string
	Segment  string
	Exchange string
	Type     string
	Limit    int
	Cursor   *string
}

// SearchPage is one page of instruments. Total is nil when the backend omits it.
type SearchPage struct {
	Items      []Instrument `json:"items"`
	NextCursor *string      `json:"next_cursor"`
	Total      *int         `json:"total"`
}

type Watchlist struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	UserID    string `json:"user_id,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

// WatchlistItem is either a resolved instrument with a quote or, when Missing
// is set, only the identifiers of an entry whose instrument left the catalog.
type WatchlistItem struct {
	ItemID          string              `json:"item_id"`
	InstrumentID    string              `json:"instrument_id"`
	Missing         bool                `json:"missing,omitempty"`
	InstrumentToken string              `json:"instrument_token,omitempty"`
	TradingSymbol   string              `json:"tradingsymbol,omitempty"`
	Name            string              `json:"name,omitempty"`
	Exchange        string              `json:"exchange,omitempty"`
	Segment         string              `json:"segment,omitempty"`
	InstrumentType  string              `json:"instrument_type,omitempty"`
	LotSize         int                 `json:"lot_size,omitempty"`
	TickSize        decimal.Decimal     `json:"tick_size"`
	LastPrice       decimal.Decimal     `json:"last_price"`
	LivePrice       decimal.NullDecimal `json:"live_price"`
	QuoteSource     string              `json:"quote_source,omitempty"`
	QuoteTimestamp  string              `json:"quote_timestamp,omitempty"`
}

type WatchlistItems struct {
	Watchlist         *Watchlist        `json:"watchlist,omitempty"`
	Items             []WatchlistItem   `json:"items"`
	QuotesRefreshedAt string            `json:"quotes_refreshed_at,omitempty"`
	KiteStatus        *CredentialStatus `json:"kite_status,omitempty"`
}

// CredentialStatus is the broker credential fact. Optional fields are empty
// when the backend sends null.
type CredentialStatus struct {
	Configured       bool   `json:"configured"`
	APIKeyLast4      string `json:"api_key_last4,omitempty"`
	AccessTokenLast4 string `json:"access_token_last4,omitempty"`
	ValidTill        string `json:"valid_till,omitempty"`
	UpdatedAt        string `json:"updated_at,omitempty"`
	RequestToken     string `json:"request_token,omitempty"`
	RequestTokenAt   string `json:"request_token_at,omitempty"`
	BaseURL          string `json:"base_url,omitempty"`
}

type CredentialInput struct {
	APIKey      string `json:"api_key"`
	AccessToken string `json:"access_token"`
	ValidTill   string `json:"valid_till,omitempty"`
}

// Detail is the generic mutation acknowledgement body.
type Detail struct {
	Detail string `json:"detail,omitempty"`
}

type Totals struct {
	Users          int `json:"users"`
	Instruments    int `json:"instruments"`
	Watchlists     int `json:"watchlists"`
	WatchlistItems int `json:"watchlist_items"`
	Orders         int `json:"orders"`
	Positions      int `json:"positions"`
}

type ImportSummary struct {
	ID         string `json:"id"`
	Source     string `json:"source"`
	Status     string `json:"status"`
	RowsIn     int    `json:"rows_in"`
	RowsOK     int    `json:"rows_ok"`
	RowsErr    int    `json:"rows_err"`
	StartedAt  string `json:"started_at,omitempty"`
	FinishedAt string `json:"finished_at,omitempty"`
}

type DashboardSummary struct {
	Totals       Totals           `json:"totals"`
	KiteStatus   CredentialStatus `json:"kite_status"`
	LatestImport *ImportSummary   `json:"latest_import,omitempty"`
}

type ImportRecord struct {
	ImportSummary
	Errors []string `json:"errors,omitempty"`
	LogURL string   `json:"log_url,omitempty"`
}

type ImportResult struct {
	ImportID string   `json:"import_id"`
	Status   string   `json:"status"`
	RowsIn   int      `json:"rows_in"`
	RowsOK   int      `json:"rows_ok"`
	RowsErr  int      `json:"rows_err"`
	Errors   []string `json:"errors,omitempty"`
	Replaced bool     `json:"replaced"`
}

// ImportUpload is a CSV file headed for the instruments import endpoint.
type ImportUpload struct {
	Source   string
	Filename string
	Data     []byte
	Replace  bool
}

type User struct {
	ID        string   `json:"id"`
	Name      string   `json:"name,omitempty"`
	Email     string   `json:"email"`
	Roles     []string `json:"roles"`
	Approved  bool     `json:"approved"`
	CreatedAt string   `json:"created_at,omitempty"`
}

package backend

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
)

// SearchInstruments fetches one page of the catalog. The cursor is sent only
// when present.
func (c *Client) SearchInstruments(ctx context.Context, q SearchQuery) (SearchPage, error) {
	query := url.Values{}
	if q.Query != "" {
		query.Set("q", q.Query)
	}
	if q.Segment != "" {
		query.Set("segment", q.Segment)
	}
	if q.Exchange != "" {
		query.Set("exchange", q.Exchange)
	}
	if q.Type != "" {
		query.Set("type", q.Type)
	}
	if q.Limit > 0 {
		query.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Cursor != nil {
		query.Set("cursor", *q.Cursor)
	}

	var out SearchPage
	err := c.do(ctx, http.MethodGet, "/instruments", requestOptions{route: "/instruments", query: query}, &out)
	return out, err
}

type deleteInstrumentsResponse struct {
	Detail  string `json:"detail"`
	Deleted int    `json:"deleted"`
}

// DeleteInstruments removes every instrument from the catalog.
func (c *Client) DeleteInstruments(ctx context.Context) (Detail, int, error) {
	var out deleteInstrumentsResponse
	err := c.do(ctx, http.MethodDelete, "/instruments", requestOptions{route: "/instruments"}, &out)
	return Detail{Detail: out.Detail}, out.Deleted, err
}

func (c *Client) ListImports(ctx context.Context) ([]ImportRecord, error) {
	var out []ImportRecord
	err := c.do(ctx, http.MethodGet, "/instruments/imports", requestOptions{route: "/instruments/imports"}, &out)
	return out, err
}

// ImportInstruments uploads a CSV file as multipart form field "file".
func (c *Client) ImportInstruments(ctx context.Context, up ImportUpload) (ImportResult, error) {
	if err := c.RequireAuthenticated(); err != nil {
		return ImportResult{}, err
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", up.Filename)
	if err != nil {
		return ImportResult{}, newError(CodeTransportFailure, "encode upload", err)
	}
	if _, err := part.Write(up.Data); err != nil {
		return ImportResult{}, newError(CodeTransportFailure, "encode upload", err)
	}
	if err := mw.Close(); err != nil {
		return ImportResult{}, newError(CodeTransportFailure, "encode upload", err)
	}

	query := url.Values{
		"source":           {up.Source},
		"replace_existing": {strconv.FormatBool(up.Replace)},
	}
	var out ImportResult
	err = c.do(ctx, http.MethodPost, "/instruments/import", requestOptions{
		route:       "/instruments/import",
		query:       query,
		raw:         &buf,
		contentType: mw.FormDataContentType(),
	}, &out)
	return out, err
}

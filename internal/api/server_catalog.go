package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/dgnsrekt/kite_console/internal/backend"
	"github.com/dgnsrekt/kite_console/internal/console"
)

func registerCatalogHandlers(api huma.API, svc Service) {
	type searchOutput struct {
		Body console.SearchState
	}
	huma.Register(api, huma.Operation{OperationID: "get-catalog", Method: http.MethodGet, Path: "/api/v1/catalog", Summary: "Loaded catalog rows and cursor", Tags: []string{"Catalog"}},
		func(ctx context.Context, input *struct{}) (*searchOutput, error) {
			return &searchOutput{Body: svc.View().Search}, nil
		})

	huma.Register(api, huma.Operation{OperationID: "search-catalog", Method: http.MethodPost, Path: "/api/v1/catalog/search", Summary: "Run a fresh instrument search", Tags: []string{"Catalog"}},
		func(ctx context.Context, input *struct {
			Body console.SearchParams
		}) (*searchOutput, error) {
			if err := svc.SearchCatalog(ctx, input.Body); err != nil {
				return nil, mapErr(err)
			}
			return &searchOutput{Body: svc.View().Search}, nil
		})

	huma.Register(api, huma.Operation{OperationID: "load-more-catalog", Method: http.MethodPost, Path: "/api/v1/catalog/more", Summary: "Append the next page of results", Tags: []string{"Catalog"}},
		func(ctx context.Context, input *struct{}) (*searchOutput, error) {
			if err := svc.LoadMoreCatalog(ctx); err != nil {
				return nil, mapErr(err)
			}
			return &searchOutput{Body: svc.View().Search}, nil
		})

	huma.Register(api, huma.Operation{OperationID: "clear-catalog", Method: http.MethodDelete, Path: "/api/v1/catalog", Summary: "Delete every instrument", Tags: []string{"Catalog"}},
		func(ctx context.Context, input *struct{}) (*searchOutput, error) {
			if err := svc.ClearCatalog(ctx); err != nil {
				return nil, mapErr(err)
			}
			return &searchOutput{Body: svc.View().Search}, nil
		})

	type importsOutput struct {
		Body struct {
			Imports []backend.ImportRecord `json:"imports"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "list-imports", Method: http.MethodGet, Path: "/api/v1/imports", Summary: "Reload catalog import history", Tags: []string{"Catalog"}},
		func(ctx context.Context, input *struct{}) (*importsOutput, error) {
			if err := svc.RefreshImports(ctx); err != nil {
				return nil, mapErr(err)
			}
			out := &importsOutput{}
			out.Body.Imports = svc.View().Imports
			return out, nil
		})

	type importOutput struct {
		Body backend.ImportResult
	}
	huma.Register(api, huma.Operation{OperationID: "upload-import", Method: http.MethodPost, Path: "/api/v1/imports", Summary: "Upload an instruments CSV", Tags: []string{"Catalog"}},
		func(ctx context.Context, input *struct {
			Source   string `query:"source" enum:"upstox,zerodha,dhan,custom" required:"true"`
			Filename string `query:"filename"`
			Replace  bool   `query:"replace" doc:"Replace the existing catalog"`
			RawBody  []byte
		}) (*importOutput, error) {
			res, err := svc.UploadImport(ctx, backend.ImportUpload{
				Source:   input.Source,
				Filename: input.Filename,
				Data:     input.RawBody,
				Replace:  input.Replace,
			})
			if err != nil {
				return nil, mapErr(err)
			}
			return &importOutput{Body: res}, nil
		})
}

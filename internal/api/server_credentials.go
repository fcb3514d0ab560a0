package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/dgnsrekt/kite_console/internal/backend"
	"github.com/dgnsrekt/kite_console/internal/console"
)

func registerCredentialHandlers(api huma.API, svc Service) {
	type credentialOutput struct {
		Body console.CredentialView
	}
	current := func() *credentialOutput {
		return &credentialOutput{Body: svc.View().Credential}
	}

	huma.Register(api, huma.Operation{OperationID: "get-credentials", Method: http.MethodGet, Path: "/api/v1/credentials", Summary: "Refresh and describe the Kite credential", Tags: []string{"Credentials"}},
		func(ctx context.Context, input *struct{}) (*credentialOutput, error) {
			if err := svc.RefreshCredential(ctx); err != nil {
				return nil, mapErr(err)
			}
			return current(), nil
		})

	huma.Register(api, huma.Operation{OperationID: "save-credentials", Method: http.MethodPut, Path: "/api/v1/credentials", Summary: "Store a Kite API key and access token", Tags: []string{"Credentials"}},
		func(ctx context.Context, input *struct {
			Body backend.CredentialInput
		}) (*credentialOutput, error) {
			if err := svc.SaveCredential(ctx, input.Body); err != nil {
				return nil, mapErr(err)
			}
			return current(), nil
		})

	huma.Register(api, huma.Operation{OperationID: "clear-credentials", Method: http.MethodDelete, Path: "/api/v1/credentials", Summary: "Remove the stored Kite credential", Tags: []string{"Credentials"}},
		func(ctx context.Context, input *struct{}) (*credentialOutput, error) {
			if err := svc.ClearCredential(ctx); err != nil {
				return nil, mapErr(err)
			}
			return current(), nil
		})

	huma.Register(api, huma.Operation{OperationID: "test-credentials", Method: http.MethodPost, Path: "/api/v1/credentials/test", Summary: "Ping Kite with the stored credential", Tags: []string{"Credentials"}},
		func(ctx context.Context, input *struct{}) (*credentialOutput, error) {
			if err := svc.TestCredential(ctx); err != nil {
				return nil, mapErr(err)
			}
			return current(), nil
		})

	huma.Register(api, huma.Operation{OperationID: "complete-kite-session", Method: http.MethodPost, Path: "/api/v1/credentials/session", Summary: "Exchange a Kite request token for an access token", Tags: []string{"Credentials"}},
		func(ctx context.Context, input *struct {
			Body struct {
				RequestToken string `json:"request_token" required:"true"`
			}
		}) (*credentialOutput, error) {
			if err := svc.CompleteKiteSession(ctx, input.Body.RequestToken); err != nil {
				return nil, mapErr(err)
			}
			return current(), nil
		})
}

package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/dgnsrekt/kite_console/internal/console"
)

func registerSessionHandlers(api huma.API, svc Service) {
	type sessionOutput struct {
		Body console.SessionView
	}
	huma.Register(api, huma.Operation{OperationID: "get-session", Method: http.MethodGet, Path: "/api/v1/session", Summary: "Current login state", Tags: []string{"Session"}},
		func(ctx context.Context, input *struct{}) (*sessionOutput, error) {
			return &sessionOutput{Body: svc.View().Session}, nil
		})

	huma.Register(api, huma.Operation{OperationID: "login", Method: http.MethodPost, Path: "/api/v1/session", Summary: "Log in to the backend", Tags: []string{"Session"}},
		func(ctx context.Context, input *struct {
			Body struct {
				Email    string `json:"email" required:"true"`
				Password string `json:"password" required:"true"`
			}
		}) (*sessionOutput, error) {
			if err := svc.Login(ctx, input.Body.Email, input.Body.Password); err != nil {
				return nil, mapErr(err)
			}
			return &sessionOutput{Body: svc.View().Session}, nil
		})

	type stateOutput struct {
		Body console.State
	}
	huma.Register(api, huma.Operation{OperationID: "get-state", Method: http.MethodGet, Path: "/api/v1/state", Summary: "Full console state", Tags: []string{"Session"}},
		func(ctx context.Context, input *struct{}) (*stateOutput, error) {
			return &stateOutput{Body: svc.View()}, nil
		})

	type routerOutput struct {
		Body console.RouterView
	}
	huma.Register(api, huma.Operation{OperationID: "activate-panel", Method: http.MethodPut, Path: "/api/v1/panels/{panel}", Summary: "Activate a panel and run its load policy", Tags: []string{"Session"}},
		func(ctx context.Context, input *struct {
			Panel string `path:"panel" enum:"overview,catalog,watchlists,credentials,users"`
		}) (*routerOutput, error) {
			if err := svc.ActivatePanel(ctx, input.Panel); err != nil {
				return nil, mapErr(err)
			}
			return &routerOutput{Body: svc.View().Router}, nil
		})
}

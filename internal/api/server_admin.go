package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/dgnsrekt/kite_console/internal/backend"
	"github.com/dgnsrekt/kite_console/internal/console"
	"github.com/dgnsrekt/kite_console/internal/relay"
)

func registerAdminHandlers(api huma.API, svc Service) {
	type dashboardOutput struct {
		Body struct {
			Summary      *backend.DashboardSummary `json:"summary"`
			Kite         string                    `json:"kite"`
			LatestImport string                    `json:"latest_import"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "get-dashboard", Method: http.MethodGet, Path: "/api/v1/dashboard", Summary: "Reload the dashboard summary", Tags: []string{"Admin"}},
		func(ctx context.Context, input *struct{}) (*dashboardOutput, error) {
			if err := svc.RefreshDashboard(ctx); err != nil {
				return nil, mapErr(err)
			}
			st := svc.View()
			out := &dashboardOutput{}
			out.Body.Summary = st.Dashboard
			out.Body.Kite = st.Surfaces.Labels[console.LabelDashboardKite]
			out.Body.LatestImport = st.Surfaces.Labels[console.LabelDashboardImport]
			return out, nil
		})

	type directoryOutput struct {
		Body console.DirectoryView
	}
	huma.Register(api, huma.Operation{OperationID: "list-users", Method: http.MethodGet, Path: "/api/v1/users", Summary: "Reload the user directory", Tags: []string{"Admin"}},
		func(ctx context.Context, input *struct {
			Search string `query:"search" doc:"Case-insensitive filter on name or email"`
		}) (*directoryOutput, error) {
			if err := svc.LoadUsers(ctx, input.Search); err != nil {
				return nil, mapErr(err)
			}
			return &directoryOutput{Body: svc.View().Users}, nil
		})

	huma.Register(api, huma.Operation{OperationID: "save-user-roles", Method: http.MethodPut, Path: "/api/v1/users/{user_id}/roles", Summary: "Replace a user's roles", Tags: []string{"Admin"}},
		func(ctx context.Context, input *struct {
			UserID string `path:"user_id"`
			Body   struct {
				Roles []string `json:"roles" required:"true"`
			}
		}) (*directoryOutput, error) {
			if err := svc.SaveUserRoles(ctx, input.UserID, input.Body.Roles); err != nil {
				return nil, mapErr(err)
			}
			return &directoryOutput{Body: svc.View().Users}, nil
		})

	huma.Register(api, huma.Operation{OperationID: "set-user-approval", Method: http.MethodPut, Path: "/api/v1/users/{user_id}/approval", Summary: "Approve or revoke a user", Tags: []string{"Admin"}},
		func(ctx context.Context, input *struct {
			UserID string `path:"user_id"`
			Body   struct {
				Approved bool `json:"approved"`
			}
		}) (*directoryOutput, error) {
			if err := svc.SetUserApproval(ctx, input.UserID, input.Body.Approved); err != nil {
				return nil, mapErr(err)
			}
			return &directoryOutput{Body: svc.View().Users}, nil
		})
}

func registerLiveHandlers(api huma.API, live LivePrices) {
	type liveOutput struct {
		Body struct {
			Feeds map[string]relay.Tick `json:"feeds"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "get-live-prices", Method: http.MethodGet, Path: "/api/v1/live-prices", Summary: "Latest tick per configured live feed", Tags: []string{"Live"}},
		func(ctx context.Context, input *struct{}) (*liveOutput, error) {
			out := &liveOutput{}
			out.Body.Feeds = map[string]relay.Tick{}
			if live != nil {
				out.Body.Feeds = live.Last()
			}
			return out, nil
		})
}

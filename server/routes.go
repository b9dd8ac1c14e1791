package server

import "net/http"

func (s *Server) initRoutes() {
	s.RegisterRouteFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, RouteSellerDashboard, http.StatusSeeOther)
	})

	s.RegisterRouteHandler("GET "+RouteSellerLogin, ChainMiddleware(s.LoginPageHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("POST "+RouteSellerLogin, ChainMiddleware(s.LoginSubmissionHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("POST "+RouteSellerLogout, ChainMiddleware(s.LogoutHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("GET "+RouteSellerDashboard, ChainMiddleware(s.DashboardHandler(), s.HTMLMiddleWare()...))

	s.RegisterRouteHandler("POST "+RouteSellerActivity, ChainMiddleware(s.ActivityHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteSellerSession, ChainMiddleware(s.SessionStatusHandler(), s.APIMiddleware()...))
}

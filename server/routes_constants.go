package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	// Seller pages
	RouteSellerLogin     = "/seller/login"
	RouteSellerLogout    = "/seller/logout"
	RouteSellerDashboard = "/seller/dashboard"

	// Scripts called from seller pages
	RouteSellerActivity = "/seller/activity"
	RouteSellerSession  = "/seller/session"
)

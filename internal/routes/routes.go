package routes

const (
	// Health
	Health = "/health"

	// Public auth endpoints
	AuthRegister   = "/api/v1/auth/register"
	AuthLogin      = "/api/v1/auth/login"
	AuthIntrospect = "/api/v1/auth/introspect"

	// Protected auth endpoints
	AuthLogout = "/api/v1/auth/logout"

	// Admin blacklist endpoints
	AdminBlacklistStats           = "/api/v1/admin/blacklist/stats"
	AdminBlacklistCleanup         = "/api/v1/admin/blacklist/cleanup"
	AdminBlacklistCleanupOrphaned = "/api/v1/admin/blacklist/cleanup-orphaned"
	AdminBlacklistUserCount       = "/api/v1/admin/blacklist/user/{userId}/count"
	AdminBlacklistForceLogout     = "/api/v1/admin/blacklist/user/{userId}/force-logout"
	AdminBlacklistUserActive      = "/api/v1/admin/blacklist/user/{userId}/active-tokens"
)

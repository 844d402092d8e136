package dtos

// ----------------------
// Blacklist administration
// ----------------------

type CleanupResponse struct {
	DeletedCount int64  `json:"deleted_count"`
	Message      string `json:"message"`
}

type BlacklistCountResponse struct {
	UserID string `json:"user_id"`
	Count  int64  `json:"count"`
}

type ForceLogoutResponse struct {
	Message string `json:"message"`
}

type HealthCheckResponse struct {
	Status string `json:"status"`
}

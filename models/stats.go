package models

// LeaderboardEntry is one row of the deposit leaderboard
type LeaderboardEntry struct {
	Rank           int    `json:"rank"`
	TelegramID     int64  `json:"telegram_id"`
	Name           string `json:"name"`
	Username       string `json:"username"`
	PhotoURL       string `json:"photo_url"`
	TotalDeposited int64  `json:"total_deposited"`
}

// PlatformStats summarizes the whole platform for the admin dashboard
type PlatformStats struct {
	TotalUsers     int64 `json:"total_users"`
	Online24h      int64 `json:"online_24h"`
	OnlineNow      int64 `json:"online_now"`
	TotalDeposited int64 `json:"total_deposited"`
}

// ReferralSummary lists a user's referred accounts and accrued commission
type ReferralSummary struct {
	Referrals     []ReferralEntry `json:"referrals"`
	TotalReferred int             `json:"total_referred"`
	RefBalance    int64           `json:"ref_balance"`
	RefPercent    float64         `json:"ref_percent"`
}

// ReferralEntry is one referred account in a ReferralSummary
type ReferralEntry struct {
	Name           string `json:"name"`
	Username       string `json:"username"`
	TotalDeposited int64  `json:"total_deposited"`
}

// UserDetail is the admin view of one user with recent activity
type UserDetail struct {
	User           *User
	Referrals      []ReferralEntry
	RecentActivity []*Settlement
}

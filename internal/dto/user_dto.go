package dto

type WeeklyUsageDTO struct {
	Used      int64 `json:"used"`
	Limit     int64 `json:"limit"`
	Unlimited bool  `json:"unlimited"`
}

type ProfileResponse struct {
	User        UserDTO        `json:"user"`
	IsAdmin     bool           `json:"is_admin"`
	WeeklyUsage WeeklyUsageDTO `json:"weekly_usage"`
}

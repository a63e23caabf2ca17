package validators

type GreenGoalsRequest struct {
	MonthlyCO2Target   *float64 `json:"monthly_co2_target" validate:"omitempty,gt=0"`
	MonthlyRidesTarget *int     `json:"monthly_rides_target" validate:"omitempty,gt=0"`
	GreenPointsTarget  *int     `json:"green_points_target" validate:"omitempty,gt=0"`
}

type AchievementRequest struct {
	Type        string `json:"type" validate:"required,not_blank,max=50"`
	Name        string `json:"name" validate:"required,not_blank,max=100"`
	Description string `json:"description" validate:"required,max=500"`
	Icon        string `json:"icon" validate:"required,max=100"`
}

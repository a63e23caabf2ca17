package validators

type RegisterRequest struct {
	Name     string `json:"name" validate:"required,not_blank,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=128"`
	Phone    string `json:"phone,omitempty" validate:"omitempty,phone_number"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RateUserRequest struct {
	Rating float64 `json:"rating" validate:"required,rating_value"`
}

// GreenPointsRequest is an operator grant of green points to one user.
type GreenPointsRequest struct {
	Points int `json:"points" validate:"required,gt=0,lte=100000"`
}

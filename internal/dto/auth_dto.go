package dto

import "gorm.io/datatypes"

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type VerifyEmailRequest struct {
	Email            string `json:"email" validate:"required,email"`
	VerificationCode string `json:"verification_code" validate:"required,len=6"`
}

type ChangePasswordRequest struct {
	CurrentPassword    string `json:"current_password" validate:"required"`
	NewPassword        string `json:"new_password" validate:"required,min=8"`
	ConfirmNewPassword string `json:"confirm_new_password" validate:"required"`
}

type CheckEmailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type TokenPairResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type UserProfileResponse struct {
	Email                    string                      `json:"email"`
	SubscriptionPlan         string                      `json:"subscription_plan"`
	TotalGenerations         int                         `json:"total_generations"`
	RemainingGenerations     int                         `json:"remaining_generations"`
	IsVerified               bool                        `json:"is_verified"`
	CurrentGeneratingBeats   datatypes.JSONSlice[string] `json:"current_generating_beats"`
	SuccessfulGeneratedBeats datatypes.JSONSlice[string] `json:"successful_generated_beats"`
}

type CheckEmailResponse struct {
	Exists     bool `json:"exists"`
	IsVerified bool `json:"is_verified,omitempty"`
}

// MessageResponse is the uniform `{msg}` envelope for status and error
// replies.
type MessageResponse struct {
	Msg string `json:"msg"`
}

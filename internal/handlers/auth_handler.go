package handlers

import (
	"errors"

	"github.com/beatforge/beatforge-backend/internal/dto"
	"github.com/beatforge/beatforge-backend/internal/middleware"
	"github.com/beatforge/beatforge-backend/internal/services"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

type AuthHandler struct {
	authService *services.AuthService
}

func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.MessageResponse{Msg: "Invalid request body"})
	}
	if err := validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.MessageResponse{Msg: "Email required and password must be at least 8 characters"})
	}

	if _, err := h.authService.Register(&req); err != nil {
		if errors.Is(err, services.ErrEmailTaken) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.MessageResponse{Msg: "User already exists"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.MessageResponse{Msg: "Internal server error"})
	}

	return c.Status(fiber.StatusCreated).JSON(dto.MessageResponse{
		Msg: "User created successfully, verification code sent to email",
	})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.MessageResponse{Msg: "Invalid request body"})
	}
	if err := validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.MessageResponse{Msg: "Email and password are required"})
	}

	resp, err := h.authService.Login(&req)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.MessageResponse{Msg: "User not found"})
		}
		if errors.Is(err, services.ErrInvalidCredentials) {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.MessageResponse{Msg: "Incorrect password"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.MessageResponse{Msg: "Internal server error"})
	}

	return c.JSON(resp)
}

func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var req dto.RefreshRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.MessageResponse{Msg: "Invalid request body"})
	}

	resp, err := h.authService.Refresh(&req)
	if err != nil {
		if errors.Is(err, services.ErrInvalidToken) {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.MessageResponse{Msg: err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.MessageResponse{Msg: "Internal server error"})
	}

	return c.JSON(resp)
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	var req dto.LogoutRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.MessageResponse{Msg: "Invalid request body"})
	}

	if err := h.authService.Logout(&req); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.MessageResponse{Msg: "Failed to logout"})
	}

	return c.JSON(dto.MessageResponse{Msg: "Successfully logged out"})
}

func (h *AuthHandler) GetUser(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.MessageResponse{Msg: "Token is invalid"})
	}

	user, err := h.authService.Profile(userID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.MessageResponse{Msg: "User not found"})
	}

	return c.JSON(dto.UserProfileResponse{
		Email:                    user.Email,
		SubscriptionPlan:         user.SubscriptionPlan.Name,
		TotalGenerations:         user.TotalGenerations,
		RemainingGenerations:     user.RemainingGenerations(),
		IsVerified:               user.IsVerified,
		CurrentGeneratingBeats:   user.CurrentGeneratingBeats,
		SuccessfulGeneratedBeats: user.SuccessfulGeneratedBeats,
	})
}

func (h *AuthHandler) VerifyEmail(c *fiber.Ctx) error {
	var req dto.VerifyEmailRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.MessageResponse{Msg: "Invalid request body"})
	}

	if err := h.authService.VerifyEmail(&req); err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.MessageResponse{Msg: "User not found"})
		}
		if errors.Is(err, services.ErrInvalidCode) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.MessageResponse{Msg: "Invalid or expired verification code"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.MessageResponse{Msg: "Internal server error"})
	}

	return c.JSON(dto.MessageResponse{Msg: "Email verified successfully"})
}

func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.MessageResponse{Msg: "Unauthorized"})
	}

	var req dto.ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.MessageResponse{Msg: "Invalid request body"})
	}
	if err := validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.MessageResponse{Msg: "New password and confirmation are required"})
	}

	if err := h.authService.ChangePassword(userID, &req); err != nil {
		if errors.Is(err, services.ErrPasswordMismatch) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.MessageResponse{Msg: "New passwords do not match"})
		}
		if errors.Is(err, services.ErrInvalidCredentials) {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.MessageResponse{Msg: "Current password is incorrect"})
		}
		if errors.Is(err, services.ErrUserNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.MessageResponse{Msg: "User not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.MessageResponse{Msg: "Internal server error"})
	}

	return c.JSON(dto.MessageResponse{Msg: "Password updated successfully"})
}

func (h *AuthHandler) CheckEmail(c *fiber.Ctx) error {
	var req dto.CheckEmailRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.MessageResponse{Msg: "Invalid request body"})
	}
	if err := validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.MessageResponse{Msg: "Email is required"})
	}

	exists, verified, err := h.authService.CheckEmail(req.Email)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.MessageResponse{Msg: "Internal server error"})
	}

	return c.JSON(dto.CheckEmailResponse{Exists: exists, IsVerified: verified})
}

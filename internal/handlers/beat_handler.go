package handlers

import (
	"errors"
	"log/slog"

	"github.com/beatforge/beatforge-backend/internal/dto"
	"github.com/beatforge/beatforge-backend/internal/middleware"
	"github.com/beatforge/beatforge-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

type BeatHandler struct {
	beatService  *services.BeatService
	genreService *services.GenreService
}

func NewBeatHandler(beatService *services.BeatService, genreService *services.GenreService) *BeatHandler {
	return &BeatHandler{beatService: beatService, genreService: genreService}
}

// CreateByGenre handles POST /beats/create-by-genre.
func (h *BeatHandler) CreateByGenre(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.MessageResponse{Msg: "Unauthorized"})
	}

	var req dto.CreateBeatRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.MessageResponse{Msg: "Invalid request body"})
	}
	if err := validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.MessageResponse{Msg: "Genre is required"})
	}

	result, err := h.beatService.CreateByGenre(c.Context(), userID, req.Genre)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUserNotFound):
			return c.Status(fiber.StatusNotFound).JSON(dto.MessageResponse{Msg: "User not found"})
		case errors.Is(err, services.ErrNoGenerations):
			return c.Status(fiber.StatusForbidden).JSON(dto.MessageResponse{
				Msg: "No available generations left. Please purchase a generation package.",
			})
		case errors.Is(err, services.ErrGenreNotFound):
			return c.Status(fiber.StatusBadRequest).JSON(dto.MessageResponse{Msg: "Invalid genre"})
		default:
			slog.Error("beat creation failed", "user_id", userID.String(), "genre", req.Genre, "error", err.Error())
			return c.Status(fiber.StatusInternalServerError).JSON(dto.MessageResponse{Msg: "Failed to generate beat"})
		}
	}

	if result.Reused {
		return c.JSON(dto.ReusedBeatResponse{
			Msg:    "Beat found without user, now assigned to you.",
			BeatID: result.UserBeat.ID.String(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(dto.CreateBeatResponse{
		Msg:          "Beat generation started",
		UserBeatID:   result.UserBeat.ID.String(),
		NoUserBeatID: result.PoolBeat.ID.String(),
	})
}

// List handles GET /beats/list.
func (h *BeatHandler) List(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.MessageResponse{Msg: "Unauthorized"})
	}

	completed, inProgress, err := h.beatService.ListByUser(userID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.MessageResponse{Msg: "User not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.MessageResponse{Msg: "Internal server error"})
	}

	resp := dto.BeatListResponse{
		Completed:  make([]dto.CompletedBeatItem, 0, len(completed)),
		InProgress: make([]dto.InProgressBeatItem, 0, len(inProgress)),
	}
	for _, b := range completed {
		resp.Completed = append(resp.Completed, dto.CompletedBeatItem{
			ID:        b.ID.String(),
			Genre:     b.Genre,
			URL:       b.URL,
			Name:      b.Title,
			ImgURL:    b.ImageURL,
			CreatedAt: b.CreatedAt,
		})
	}
	for _, b := range inProgress {
		resp.InProgress = append(resp.InProgress, dto.InProgressBeatItem{
			ID:        b.ID.String(),
			Genre:     b.Genre,
			CreatedAt: b.CreatedAt,
		})
	}

	return c.JSON(resp)
}

// Genres handles GET /beats/genres.
func (h *BeatHandler) Genres(c *fiber.Ctx) error {
	genres, err := h.genreService.List()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.MessageResponse{Msg: "Internal server error"})
	}

	items := make([]dto.GenreItem, 0, len(genres))
	for _, g := range genres {
		items = append(items, dto.GenreItem{ID: g.ID.String(), Genre: g.Genre})
	}
	return c.JSON(items)
}

// UpdateBeats handles GET /beats/update-beats, the user-triggered sweep.
func (h *BeatHandler) UpdateBeats(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.MessageResponse{Msg: "Unauthorized"})
	}

	summary, err := h.beatService.Sweep(c.Context(), userID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.MessageResponse{Msg: "User not found"})
		}
		if errors.Is(err, services.ErrNoBeatsInProgress) {
			return c.Status(fiber.StatusNotFound).JSON(dto.MessageResponse{Msg: "No beats found in progress"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.MessageResponse{Msg: "Internal server error"})
	}

	slog.Info("sweep finished",
		"user_id", userID.String(),
		"processed", summary.Processed,
		"completed", summary.Completed,
		"expired", summary.Expired,
		"skipped", summary.Skipped)

	return c.JSON(dto.MessageResponse{Msg: "Beats updated successfully"})
}

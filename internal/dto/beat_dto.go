package dto

import "time"

type CreateBeatRequest struct {
	Genre string `json:"genre" validate:"required"`
}

// CreateBeatResponse is returned when a fresh generation was submitted:
// two rows share one provider task.
type CreateBeatResponse struct {
	Msg          string `json:"msg"`
	UserBeatID   string `json:"user_beat_id"`
	NoUserBeatID string `json:"no_user_beat_id"`
}

// ReusedBeatResponse is returned when an unclaimed pool beat of the
// requested genre was reassigned instead of calling the provider.
type ReusedBeatResponse struct {
	Msg    string `json:"msg"`
	BeatID string `json:"beat_id"`
}

type CompletedBeatItem struct {
	ID        string    `json:"id"`
	Genre     string    `json:"genre"`
	URL       string    `json:"url"`
	Name      string    `json:"name"`
	ImgURL    string    `json:"img_url"`
	CreatedAt time.Time `json:"created_at"`
}

// InProgressBeatItem deliberately omits result fields: they are not
// populated until the sweep observes completion.
type InProgressBeatItem struct {
	ID        string    `json:"id"`
	Genre     string    `json:"genre"`
	CreatedAt time.Time `json:"created_at"`
}

type BeatListResponse struct {
	Completed  []CompletedBeatItem  `json:"completed"`
	InProgress []InProgressBeatItem `json:"in_progress"`
}

type GenreItem struct {
	ID    string `json:"id"`
	Genre string `json:"genre"`
}

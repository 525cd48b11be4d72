package types

// CreateScheduleRequest is the wire payload of POST /schedules on the remote API.
type CreateScheduleRequest struct {
	Title  string                      `json:"title"`
	Date   string                      `json:"date"`
	UserID int64                       `json:"user_id"`
	Items  []CreateScheduleItemRequest `json:"items"`
}

type CreateScheduleItemRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	PlaceID     *int64 `json:"place_id"`
}

// CreatedSchedule is the remote API's answer to a schedule creation.
type CreatedSchedule struct {
	ID int64 `json:"id"`
}

// Schedule is a persisted itinerary as returned by GET /schedules/user/{id}.
type Schedule struct {
	ID    int64          `json:"id"`
	Title string         `json:"title"`
	Date  string         `json:"date"`
	Items []ScheduleItem `json:"items"`
}

type ScheduleItem struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	Description string `json:"description,omitempty"`
	Place       *Place `json:"place,omitempty"`
}

// SubmitResponse is returned to the client after a successful submission.
type SubmitResponse struct {
	ScheduleID int64  `json:"schedule_id"`
	Message    string `json:"message"`
}

// Directions is one navigable stop of a persisted schedule.
type Directions struct {
	ItemID    int64  `json:"item_id"`
	Title     string `json:"title"`
	PlaceName string `json:"place_name"`
	URL       string `json:"url"`
}

type DirectionsResponse struct {
	ScheduleID int64        `json:"schedule_id"`
	Notice     string       `json:"notice,omitempty"`
	Stops      []Directions `json:"stops"`
}

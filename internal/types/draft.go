package types

import (
	"fmt"

	"github.com/google/uuid"
)

// Activity is one timed entry of an itinerary draft.
type Activity struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	StartTime   string `json:"startTime"`
	EndTime     string `json:"endTime"`
	Description string `json:"description"`
	PlaceID     *int64 `json:"placeId,omitempty"`
}

// Resolved reports whether a place has been chosen for the activity.
func (a Activity) Resolved() bool {
	return a.PlaceID != nil
}

// Draft is the in-progress itinerary of one session.
type Draft struct {
	ID         uuid.UUID  `json:"draftId"`
	Title      string     `json:"title"`
	Date       string     `json:"date"`
	Activities []Activity `json:"items"`
}

// NewDraft returns an empty draft with a fresh identity.
func NewDraft() Draft {
	return Draft{ID: uuid.New(), Activities: []Activity{}}
}

// ActivityIndex returns the position of the activity with the given id, or -1.
func (d Draft) ActivityIndex(id int64) int {
	for i := range d.Activities {
		if d.Activities[i].ID == id {
			return i
		}
	}
	return -1
}

// Clone deep-copies the draft so callers can mutate it freely.
func (d Draft) Clone() Draft {
	c := d
	c.Activities = make([]Activity, len(d.Activities))
	for i, a := range d.Activities {
		if a.PlaceID != nil {
			p := *a.PlaceID
			a.PlaceID = &p
		}
		c.Activities[i] = a
	}
	return c
}

// ActivityField names the editable text fields of an Activity.
type ActivityField string

const (
	FieldTitle       ActivityField = "title"
	FieldStartTime   ActivityField = "startTime"
	FieldEndTime     ActivityField = "endTime"
	FieldDescription ActivityField = "description"
)

// ParseActivityField validates a field name received from a client.
func ParseActivityField(s string) (ActivityField, error) {
	switch f := ActivityField(s); f {
	case FieldTitle, FieldStartTime, FieldEndTime, FieldDescription:
		return f, nil
	}
	return "", NewValidationError("field", fmt.Sprintf("%q is not an editable activity field", s))
}

// Set writes value into the named field.
func (a *Activity) Set(field ActivityField, value string) {
	switch field {
	case FieldTitle:
		a.Title = value
	case FieldStartTime:
		a.StartTime = value
	case FieldEndTime:
		a.EndTime = value
	case FieldDescription:
		a.Description = value
	}
}

// SelectionToken names the activity currently waiting for a place. DraftID
// ties it to the draft it was issued for so it cannot attach to a later one.
type SelectionToken struct {
	ActivityID int64     `json:"schedule_item_id"`
	DraftID    uuid.UUID `json:"draft_id,omitempty"`
}

// Request bodies of the draft editor.

type SetTitleRequest struct {
	Title string `json:"title"`
}

type SetDateRequest struct {
	Date string `json:"date"`
}

type UpdateActivityFieldRequest struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

type CompleteSelectionRequest struct {
	ScheduleItemID int64     `json:"schedule_item_id"`
	DraftID        uuid.UUID `json:"draft_id,omitempty"`
	PlaceID        int64     `json:"place_id"`
}

// NavigationResponse tells the client where to go next.
type NavigationResponse struct {
	Next    string `json:"next"`
	Applied bool   `json:"applied"`
}

// DraftMutationResponse is returned by every draft editor endpoint. Changed is
// false when the targeted activity no longer exists.
type DraftMutationResponse struct {
	Draft      Draft `json:"draft"`
	Changed    bool  `json:"changed"`
	ActivityID int64 `json:"activity_id,omitempty"`
}

// BeginSelectionResponse carries the token and the recommender location that
// encodes it.
type BeginSelectionResponse struct {
	Token SelectionToken `json:"token"`
	Next  string         `json:"next"`
}

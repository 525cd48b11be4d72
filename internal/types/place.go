package types

// Place is a point of interest served by the remote roteiro API. It is
// read-only on this side; activities reference it by ID.
type Place struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	ImageURL    *string `json:"image_url,omitempty"`
}

func (p Place) Coordinate() Coordinate {
	return Coordinate{Lat: p.Latitude, Lon: p.Longitude}
}

// PlaceFilter is passed through to GET /places.
type PlaceFilter struct {
	Filter string `json:"filter,omitempty"`
}

// Preference is an entry of the remote preference catalogue.
type Preference struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// SavePreferencesRequest is the body accepted by PUT /api/v1/preferences.
type SavePreferencesRequest struct {
	Preferences []string `json:"preferences"`
}

// RankedPlace is a Place as shown by the recommender, with its distance from
// the user when the user's position is known.
type RankedPlace struct {
	Place
	DistanceKm *float64 `json:"distance_km,omitempty"`
}

// RecommendationsView is everything the recommender screen renders.
type RecommendationsView struct {
	Places              []RankedPlace `json:"places"`
	SortedByDistance    bool          `json:"sorted_by_distance"`
	Notice              string        `json:"notice,omitempty"`
	ChooseEnabled       bool          `json:"choose_enabled"`
	ScheduleItemID      *int64        `json:"schedule_item_id,omitempty"`
	PreferenceOptions   []Preference  `json:"preference_options"`
	SelectedPreferences []string      `json:"selected_preferences"`
}

// PreferencesResponse lists the catalogue and the names the user picked.
type PreferencesResponse struct {
	Options  []Preference `json:"options"`
	Selected []string     `json:"selected"`
}

// ViewedPlaceResponse feeds the single-place map screen.
type ViewedPlaceResponse struct {
	Place         Place  `json:"place"`
	DirectionsURL string `json:"directions_url"`
}

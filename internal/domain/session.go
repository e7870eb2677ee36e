package domain

// Session is the per-browser state kept between requests: whether the club
// password was entered, whether admin mode is on, and the trip currently
// being edited. It lives only as long as the browser session.
type Session struct {
	Authenticated bool  `json:"authenticated"`
	Admin         bool  `json:"admin"`
	EditingTrip   *Trip `json:"editingTrip,omitempty"`
}

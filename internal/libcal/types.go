package libcal

// Wire shapes for the LibCal v1.1 API.

// hoursLocation is one element of the Hours endpoint response.
type hoursLocation struct {
	LID   int                 `json:"lid"`
	Dates map[string]hoursDay `json:"dates"`
}

// hoursDay describes one calendar day for a location. Status is "open",
// "closed" or "24hours"; Hours is present only for open days.
type hoursDay struct {
	Status string       `json:"status"`
	Hours  []hoursRange `json:"hours"`
}

// hoursRange is a single open range in the vendor's 12-hour clock format,
// e.g. "9:00am" / "10:30pm".
type hoursRange struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// bookingEntry is one element of the space bookings response. Timestamps are
// ISO 8601 with offset.
type bookingEntry struct {
	BookID   string `json:"bookId"`
	EID      int    `json:"eid"`
	FromDate string `json:"fromDate"`
	ToDate   string `json:"toDate"`
	Status   string `json:"status"`
}

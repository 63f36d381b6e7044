package dto

// CreateTicketRequest payload. Field names match the wire contract the
// dashboard clients already speak.
type CreateTicketRequest struct {
	ResidentName string `json:"residentName"`
	ResidentAge  int    `json:"residentAge"`
	Description  string `json:"description"`
	Image        string `json:"image"`
	Location     string `json:"location"`
}

// UpdateStatusRequest payload.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// FeedbackRequest payload.
type FeedbackRequest struct {
	Rating   int    `json:"rating"`
	Feedback string `json:"feedback"`
}

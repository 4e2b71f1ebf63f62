package api

// ImportRequest is the body of POST /api/questions/import.
type ImportRequest struct {
	// Content is the raw question text to import.
	Content string `json:"content" validate:"required"`

	// Mode is "add" (default) or "replace". Case and surrounding spaces are ignored.
	Mode string `json:"mode" validate:"omitempty,max=16"`

	// BankID optionally names the question bank receiving the records.
	BankID string `json:"bankId" validate:"omitempty,max=64"`
}

// ImportAcceptedResponse is returned with 202 Accepted once an import is queued.
type ImportAcceptedResponse struct {
	Message  string `json:"message"`
	JobToken string `json:"jobToken"`
	Mode     string `json:"mode"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

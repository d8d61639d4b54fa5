package web

// RunResponse is returned by the synchronous run endpoint.
type RunResponse struct {
	OK      bool   `json:"ok"`
	RunID   string `json:"runId,omitempty"`
	Status  string `json:"status,omitempty"`
	Report  string `json:"report,omitempty"`
	Message string `json:"message,omitempty"`
}

// RunAcceptedResponse is returned when a background run was queued.
type RunAcceptedResponse struct {
	RunID string `json:"runId"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

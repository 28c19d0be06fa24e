package models

// Todo represents a single task record owned by a user.
type Todo struct {
	ID          string `json:"_id"`
	Text        string `json:"text"`
	Completed   bool   `json:"completed"`
	CompletedAt *int64 `json:"completedAt"` // unix millis, set only while completed
	Owner       string `json:"owner"`
}

// TodoPatch carries the only two fields a PATCH request may change.
// Nil means the field was absent from the request body.
type TodoPatch struct {
	Text      *string `json:"text"`
	Completed *bool   `json:"completed"`
}

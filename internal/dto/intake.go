package dto

// UploadField documents one expected multipart field on the upload form.
type UploadField struct {
	Name     string `json:"name"`
	Required bool   `json:"required"`
}

// IntakeOverview backs the root view: which files the upload expects and how
// many records each collection currently holds.
type IntakeOverview struct {
	UploadFields []UploadField  `json:"upload_fields"`
	Counts       map[string]int `json:"counts"`
	Error        string         `json:"error,omitempty"`
}

// IngestSummary reports how many records each completed cycle inserted.
type IngestSummary struct {
	Teachers  int `json:"teachers"`
	Subjects  int `json:"subjects"`
	Rooms     int `json:"rooms"`
	Divisions int `json:"divisions"`
}

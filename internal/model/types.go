package model

// Alert statuses stored on EmergencyAlert.Status
const (
	AlertStatusPending = "pending"
	AlertStatusSent    = "sent"
	AlertStatusFailed  = "failed"
)

// User represents an account. Present in the schema, not used by the current flows.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Password string `json:"-"`
}

// EmergencyContact is the phone number a user registered for SOS alerts
type EmergencyContact struct {
	ID          int64  `json:"id"`
	CountryCode string `json:"countryCode"`
	PhoneNumber string `json:"phoneNumber"`
	UserID      *int64 `json:"userId"`
}

// VideoRecording is the metadata of a recording the client tried to upload
type VideoRecording struct {
	ID           int64  `json:"id"`
	FileName     string `json:"fileName"`
	MimeType     string `json:"mimeType"`
	UploadStatus bool   `json:"uploadStatus"`
	UserID       *int64 `json:"userId"`
}

// EmergencyAlert is a recorded SOS request with the reported coordinates
type EmergencyAlert struct {
	ID        int64  `json:"id"`
	Latitude  string `json:"latitude"`
	Longitude string `json:"longitude"`
	UserID    *int64 `json:"userId"`
	ContactID *int64 `json:"contactId"`
	Status    string `json:"status"`
}

// NewContact holds the fields accepted when saving a contact
type NewContact struct {
	CountryCode string
	PhoneNumber string
}

// NewVideoRecording holds the fields accepted when saving a recording.
// UploadStatus is set by the service from the upload outcome.
type NewVideoRecording struct {
	FileName     string
	MimeType     string
	UploadStatus bool
}

// NewEmergencyAlert holds the fields accepted when saving an alert.
// An empty Status is stored as AlertStatusFailed.
type NewEmergencyAlert struct {
	Latitude  string
	Longitude string
	Status    string
}

// NewUser holds the fields accepted when creating a user
type NewUser struct {
	Username string
	Password string
}

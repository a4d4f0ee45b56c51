package models

// Upload represents one client-submitted audio file for the lifetime of a request.
type Upload struct {
	Path         string `json:"path"`
	MimeType     string `json:"mime_type"`
	OriginalName string `json:"original_name"`
	Size         int64  `json:"size"`
}

// Transcript is the response body returned for a successful transcription.
type Transcript struct {
	Transcription string `json:"transcription"`
	OriginalName  string `json:"originalName"`
	Success       bool   `json:"success"`
}

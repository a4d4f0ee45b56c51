package audio

import (
	"fmt"
	"strings"
)

// MaxUploadBytes is the largest audio upload accepted (25 MiB).
const MaxUploadBytes = 25 << 20

// Browsers do not agree on audio MIME types. Safari and iOS MediaRecorder
// produce audio-only MP4 labelled video/mp4, Chrome and Firefox can report
// video/webm for microphone-only recordings, and some platforms send Ogg Opus
// as application/ogg. The non-audio entries stay outside the extension table,
// so those files are forwarded under their original extensionless name.
var allowedMimeTypes = map[string]struct{}{
	"audio/webm":      {},
	"audio/mp4":       {},
	"audio/mpeg":      {},
	"audio/wav":       {},
	"audio/x-m4a":     {},
	"audio/m4a":       {},
	"audio/ogg":       {},
	"video/webm":      {},
	"video/mp4":       {},
	"application/ogg": {},
}

// ValidationError reports an upload rejected before it was stored.
type ValidationError struct {
	Reason   string
	TooLarge bool
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// BaseMimeType strips parameters such as ";codecs=opus" from a declared type.
// MediaRecorder commonly sends "audio/webm;codecs=opus", which must match the
// same allow-list and extension entries as plain "audio/webm".
func BaseMimeType(mimeType string) string {
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = mimeType[:i]
	}
	return strings.TrimSpace(mimeType)
}

// IsAllowedMimeType reports whether the declared type looks like audio. The
// client's declaration is trusted; the payload is not sniffed.
func IsAllowedMimeType(mimeType string) bool {
	base := BaseMimeType(mimeType)
	if strings.HasPrefix(base, "audio/") {
		return true
	}
	_, ok := allowedMimeTypes[base]
	return ok
}

// ValidateUpload checks the declared type and size of an incoming file.
func ValidateUpload(mimeType string, size int64) error {
	if size > MaxUploadBytes {
		return &ValidationError{
			Reason:   fmt.Sprintf("file too large: %d bytes exceeds limit of %d", size, MaxUploadBytes),
			TooLarge: true,
		}
	}
	if !IsAllowedMimeType(mimeType) {
		return &ValidationError{Reason: "Only audio files are allowed"}
	}
	return nil
}

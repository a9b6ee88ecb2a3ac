package meeting

import (
	"strings"

	apperrors "github.com/johnquangdev/meeting-functions/errors"
)

const googleMeetHost = "meet.google.com"

// ValidateMeetingURL rejects URLs of platforms the bot gateway is not used for
func ValidateMeetingURL(meetingURL string) error {
	if !strings.Contains(meetingURL, googleMeetHost) {
		return apperrors.ErrUnsupportedPlatform(meetingURL)
	}
	return nil
}

// NativeMeetingID returns the last path segment of the URL without its query string,
// e.g. https://meet.google.com/abc-defg-hij?authuser=0 -> abc-defg-hij
func NativeMeetingID(meetingURL string) string {
	segment := meetingURL
	if idx := strings.LastIndex(segment, "/"); idx != -1 {
		segment = segment[idx+1:]
	}
	if idx := strings.Index(segment, "?"); idx != -1 {
		segment = segment[:idx]
	}
	return segment
}

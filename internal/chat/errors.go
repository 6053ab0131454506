package chat

import "errors"

// Failure kinds for the turn pipeline. A failed turn carries exactly one
// of these, wrapped with detail; callers branch with errors.Is.
var (
	// ErrEmbedding means the capability could not vectorize text.
	ErrEmbedding = errors.New("embedding failed")
	// ErrGeneration means the capability could not produce a reply.
	ErrGeneration = errors.New("ai generation failed")
	// ErrStore means a durable store read, write or delete failed.
	ErrStore = errors.New("memory store failed")
)

// UserFacingMessage maps a turn failure to the reply shown to the human
// initiator. A fatal turn still answers; it never drops silently.
func UserFacingMessage(err error) string {
	switch {
	case errors.Is(err, ErrEmbedding):
		return "I couldn't make sense of that message right now. Please try again in a moment."
	case errors.Is(err, ErrGeneration):
		return "I'm having trouble thinking of a reply right now. Please try again in a moment."
	case errors.Is(err, ErrStore):
		return "My memory is acting up right now. Please try again in a moment."
	default:
		return "Something went wrong on my side. Please try again in a moment."
	}
}

package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrSessionActive      ErrCode = "SESSION_ALREADY_ACTIVE"
	ErrSessionInvalidated ErrCode = "SESSION_INVALIDATED"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"
	ErrTokenExpired       ErrCode = "TOKEN_EXPIRED"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden           ErrCode = "FORBIDDEN"
	ErrCandidateAccessOnly ErrCode = "CANDIDATE_ACCESS_ONLY"
	ErrAuthorAccessOnly    ErrCode = "AUTHOR_ACCESS_ONLY"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"
	ErrConflict ErrCode = "CONFLICT"

	// ─── Engine ────────────────────────────────────────────────────────
	ErrDefinitionNotFound  ErrCode = "DEFINITION_NOT_FOUND"
	ErrMalformedDefinition ErrCode = "MALFORMED_DEFINITION"
	ErrInvalidAnswerFormat ErrCode = "INVALID_ANSWER_FORMAT"
	ErrSectionLocked       ErrCode = "SECTION_LOCKED"
	ErrInvalidTransition   ErrCode = "INVALID_TRANSITION"
	ErrUnknownQuestion     ErrCode = "UNKNOWN_QUESTION"
	ErrAttemptNotFound     ErrCode = "ATTEMPT_NOT_FOUND"
	ErrAttemptCompleted    ErrCode = "ATTEMPT_COMPLETED"

	// ─── Assessment management ─────────────────────────────────────────
	ErrAssessmentNotDraft     ErrCode = "ASSESSMENT_NOT_DRAFT"
	ErrAssessmentNotPublished ErrCode = "ASSESSMENT_NOT_PUBLISHED"
	ErrNotAssessmentAuthor    ErrCode = "NOT_ASSESSMENT_AUTHOR"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrInvalidCredentials:
		return "Invalid username/email or password."
	case ErrSessionActive:
		return "You are already logged in on another device."
	case ErrSessionInvalidated:
		return "Your session has ended. Please log in again."
	case ErrTokenRequired:
		return "An authentication token is required."
	case ErrTokenInvalid:
		return "The authentication token is invalid."
	case ErrTokenExpired:
		return "The authentication token has expired."

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrForbidden:
		return "You do not have permission to access this resource."
	case ErrCandidateAccessOnly:
		return "This resource is restricted to candidates."
	case ErrAuthorAccessOnly:
		return "This resource is restricted to authors."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "Invalid ID format."
	case ErrInvalidPayload:
		return "Invalid request payload."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Resource not found."
	case ErrConflict:
		return "Resource already exists."

	// ─── Engine ────────────────────────────────────────────────────────
	case ErrDefinitionNotFound:
		return "The assessment definition could not be found."
	case ErrMalformedDefinition:
		return "The assessment definition is malformed."
	case ErrInvalidAnswerFormat:
		return "The submitted answer does not match the question's expected format."
	case ErrSectionLocked:
		return "This section is locked; its answers can no longer change."
	case ErrInvalidTransition:
		return "This action is not valid in the attempt's current state."
	case ErrUnknownQuestion:
		return "The question is not part of the active section."
	case ErrAttemptNotFound:
		return "No attempt found. Start the assessment first."
	case ErrAttemptCompleted:
		return "This attempt is already completed."

	// ─── Assessment management ─────────────────────────────────────────
	case ErrAssessmentNotDraft:
		return "The assessment is not in DRAFT status."
	case ErrAssessmentNotPublished:
		return "The assessment is not published."
	case ErrNotAssessmentAuthor:
		return "You are not the author of this assessment."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "An internal server error occurred."
	default:
		return "An unexpected error occurred."
	}
}

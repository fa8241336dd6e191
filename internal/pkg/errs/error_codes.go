/*
Package errs provides custom error types and application-level error code constants.

These error codes are used to clearly identify specific business or system errors
both internally within the server and in communication with clients.
*/
package errs

// 1xxx: General Request Handling Errors
const (
	// ErrInvalidParams indicates that a required field is missing, blank or malformed.
	ErrInvalidParams = 1001

	// ErrUnsupportedMediaType indicates that the request header Content-Type is not supported.
	ErrUnsupportedMediaType = 1002

	// ErrInvalidJSONFormat indicates that the request body JSON format is incorrect (e.g., syntax error).
	ErrInvalidJSONFormat = 1003

	// ErrExtraContentInBody indicates that the request body contained extra content after valid JSON data.
	ErrExtraContentInBody = 1004

	// ErrFormParseFailed indicates failure to parse multipart or URL-encoded form data.
	ErrFormParseFailed = 1005

	// ErrRequestEntityTooLarge indicates that the request body size exceeded the server limit.
	ErrRequestEntityTooLarge = 1006

	// ErrRateLimitExceeded indicates that the request rate has exceeded the set limit.
	ErrRateLimitExceeded = 1007
)

// 2xxx: Messaging and Attachment Errors
const (
	// ErrMessageContentTooLong indicates that the message content exceeded the maximum length limit.
	ErrMessageContentTooLong = 2201

	// ErrInvalidMessageType indicates that the message type tag is not one of the known types.
	ErrInvalidMessageType = 2202

	// ErrMessageNotFound indicates that the referenced message does not exist.
	ErrMessageNotFound = 2203

	// ErrMessageSendFailed is reported on the realtime channel when a send could not be persisted.
	ErrMessageSendFailed = 2204

	// ErrInvalidEventFormat indicates a realtime event that could not be decoded.
	ErrInvalidEventFormat = 2205

	// ErrMessageNotRecipient indicates an attempt to mark someone else's message read.
	ErrMessageNotRecipient = 2206

	// ErrFileEmpty indicates that an uploaded file has no content.
	ErrFileEmpty = 2301

	// ErrFileTooLarge indicates that an uploaded file exceeds the size ceiling.
	ErrFileTooLarge = 2302

	// ErrFileTypeInvalid indicates that the file content type does not match its category.
	ErrFileTypeInvalid = 2303

	// ErrFileNotFound indicates that the requested file does not exist.
	ErrFileNotFound = 2304
)

// 3xxx: User, Session, and Security Errors
const (
	// ErrPowChallengeRequired indicates the client must complete a Proof-of-Work challenge first.
	ErrPowChallengeRequired = 3001

	// ErrPowChallengeInvalid indicates that the PoW proof provided by the client is invalid or incorrect.
	ErrPowChallengeInvalid = 3002

	// ErrSessionReplaced indicates that the realtime connection was replaced by a newer one.
	ErrSessionReplaced = 3004

	// ErrUserAlreadyExists indicates that the username is already registered.
	ErrUserAlreadyExists = 3101

	// ErrInvalidCredentials covers both an unknown username and a wrong password.
	ErrInvalidCredentials = 3102

	// ErrUserNotFound indicates that the referenced user does not exist.
	ErrUserNotFound = 3103

	// ErrUnauthorized indicates a missing, invalid or expired bearer token.
	ErrUnauthorized = 3104

	// ErrForbidden indicates that the token holder may not act on the target resource.
	ErrForbidden = 3105
)

// 5xxx: Internal System Errors
const (
	// ErrUnknown represents an unclassified, general server internal error.
	ErrUnknown = 5000

	// ErrStorage indicates that the underlying store was unreachable or a write failed.
	ErrStorage = 5001

	// ErrFileStorageFailed indicates that the file backend could not store or read a file.
	ErrFileStorageFailed = 5002

	// ErrServerShuttingDown is reported for work refused while the server drains.
	ErrServerShuttingDown = 5003
)

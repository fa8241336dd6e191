/*
Package errs provides custom error types and application-level error code constants.

This file defines the map from error codes to the CustomError struct, used to standardize
HTTP responses and internal error handling.
*/
package errs

import "net/http"

// errorMap stores the detailed CustomError struct corresponding to every application error code.
// Entries without an explicit Status answer 400.
var errorMap = map[int]CustomError{
	// 1xxx: General Request Handling Errors
	ErrInvalidParams:         {Code: ErrInvalidParams, Message: "Invalid request parameters."},
	ErrUnsupportedMediaType:  {Code: ErrUnsupportedMediaType, Message: "Unsupported request format."},
	ErrInvalidJSONFormat:     {Code: ErrInvalidJSONFormat, Message: "Unsupported request format."},
	ErrExtraContentInBody:    {Code: ErrExtraContentInBody, Message: "Request contains unexpected data."},
	ErrFormParseFailed:       {Code: ErrFormParseFailed, Message: "Failed to process uploaded data."},
	ErrRequestEntityTooLarge: {Code: ErrRequestEntityTooLarge, Message: "Request size is too large."},
	ErrRateLimitExceeded:     {Code: ErrRateLimitExceeded, Message: "Too many requests. Please try again later.", Status: http.StatusTooManyRequests},

	// 2xxx: Messaging and Attachment Errors
	ErrMessageContentTooLong: {Code: ErrMessageContentTooLong, Message: "Message is too long."},
	ErrInvalidMessageType:    {Code: ErrInvalidMessageType, Message: "Unknown message type."},
	ErrMessageNotFound:       {Code: ErrMessageNotFound, Message: "Message not found.", Status: http.StatusNotFound},
	ErrMessageSendFailed:     {Code: ErrMessageSendFailed, Message: "Failed to send message"},
	ErrInvalidEventFormat:    {Code: ErrInvalidEventFormat, Message: "Invalid message format"},
	ErrMessageNotRecipient:   {Code: ErrMessageNotRecipient, Message: "Only the recipient can mark a message read.", Status: http.StatusForbidden},
	ErrFileEmpty:             {Code: ErrFileEmpty, Message: "File is empty"},
	ErrFileTooLarge:          {Code: ErrFileTooLarge, Message: "File size exceeds %dMB limit"},
	ErrFileTypeInvalid:       {Code: ErrFileTypeInvalid, Message: "Invalid file type for %s"},
	ErrFileNotFound:          {Code: ErrFileNotFound, Message: "File not found.", Status: http.StatusNotFound},

	// 3xxx: User, Session, and Security Errors
	ErrPowChallengeRequired: {Code: ErrPowChallengeRequired, Message: "Verification required. Please try again."},
	ErrPowChallengeInvalid:  {Code: ErrPowChallengeInvalid, Message: "Verification failed. Please try again."},
	ErrSessionReplaced:      {Code: ErrSessionReplaced, Message: "Session replaced by new connection"},
	ErrUserAlreadyExists:    {Code: ErrUserAlreadyExists, Message: "Username already exists"},
	ErrInvalidCredentials:   {Code: ErrInvalidCredentials, Message: "Invalid credentials"},
	ErrUserNotFound:         {Code: ErrUserNotFound, Message: "User not found.", Status: http.StatusNotFound},
	ErrUnauthorized:         {Code: ErrUnauthorized, Message: "Invalid or expired token", Status: http.StatusUnauthorized},
	ErrForbidden:            {Code: ErrForbidden, Message: "Not allowed to modify another user.", Status: http.StatusUnauthorized},

	// 5xxx: Internal System Errors
	ErrUnknown:            {Code: ErrUnknown, Message: "Something went wrong. Please try again.", Status: http.StatusInternalServerError},
	ErrStorage:            {Code: ErrStorage, Message: "Service temporarily unavailable.", Status: http.StatusInternalServerError},
	ErrFileStorageFailed:  {Code: ErrFileStorageFailed, Message: "File upload failed. Please try again.", Status: http.StatusInternalServerError},
	ErrServerShuttingDown: {Code: ErrServerShuttingDown, Message: "Server is shutting down.", Status: http.StatusServiceUnavailable},
}

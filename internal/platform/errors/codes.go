// Package errors provides structured error handling for the sheet service.
package errors

import "net/http"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Character errors
	CodeCharacterNotFound Code = "CHARACTER_NOT_FOUND"
	CodeCharacterEmptyID  Code = "CHARACTER_EMPTY_ID"

	// Mutation input errors
	CodeInvalidBody      Code = "INVALID_BODY"
	CodeInvalidAmount    Code = "INVALID_AMOUNT"
	CodeItemEmptyName    Code = "ITEM_EMPTY_NAME"
	CodeItemInvalidCount Code = "ITEM_INVALID_COUNT"
	CodeItemInvalidIndex Code = "ITEM_INVALID_INDEX"
	CodeItemNotFound     Code = "ITEM_NOT_FOUND"
	CodeSkillEmptyName   Code = "SKILL_EMPTY_NAME"

	// Credential errors
	CodeUnauthorized Code = "UNAUTHORIZED"

	// Storage errors
	CodeStorageFailure Code = "STORAGE_FAILURE"
)

// HTTPStatus maps domain codes to HTTP status codes.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeCharacterNotFound, CodeItemNotFound:
		return http.StatusNotFound
	case CodeCharacterEmptyID,
		CodeInvalidBody,
		CodeInvalidAmount,
		CodeItemEmptyName,
		CodeItemInvalidCount,
		CodeItemInvalidIndex,
		CodeSkillEmptyName:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeStorageFailure:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

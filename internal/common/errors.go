// Package common contains shared sentinel errors used across
// trade-identity components.
package common

import "errors"

var (

	// repository specific errors
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")

	// service specific errors
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrInvalidToken       = errors.New("invalid token")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInternal           = errors.New("internal error")
)

package util

import "errors"

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrItemNotFound       = errors.New("item not found")
	ErrEmailRegistered    = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserDisabled       = errors.New("user disabled")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrValidation         = errors.New("validation error")
	ErrConflict           = errors.New("concurrent update conflict")
	ErrUnsupportedFile    = errors.New("unsupported file type")
)

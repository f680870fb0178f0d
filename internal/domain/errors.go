package domain

import (
	"errors"
	"fmt"
)

var (
	ErrCharacterNotFound = errors.New("character not found")
	ErrNameRequired      = errors.New("name required")
	ErrNegativeHP        = errors.New("HP must be a non-negative number")
	ErrInvalidSettings   = errors.New("invalid settings payload")
)

// UnknownSettingError reports a settings patch key that is not part of the
// settings schema. The whole patch is rejected when one occurs.
type UnknownSettingError struct {
	Key string
}

func (e *UnknownSettingError) Error() string {
	return fmt.Sprintf("This key is not a setting: %s", e.Key)
}

package utils

import (
	"fmt"
	"strings"
)

// FirstError returns the first non-nil error, or nil
func FirstError(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// CombineErrors combines multiple errors into one
func CombineErrors(errs ...error) error {
	var messages []string
	for _, err := range errs {
		if err != nil {
			messages = append(messages, err.Error())
		}
	}
	if len(messages) == 0 {
		return nil
	}
	return fmt.Errorf("multiple errors: %s", strings.Join(messages, "; "))
}

package models

// ValidationError is returned for input that fails field checks. Handlers
// answer it with 400.
type ValidationError string

func (e ValidationError) Error() string { return string(e) }

package models

import "fmt"

// ConfigError reports missing or invalid configuration
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return "config: " + e.Reason
	}
	return fmt.Sprintf("config: %s: %s", e.Field, e.Reason)
}

// FetchError reports a failed indicator or price retrieval
type FetchError struct {
	Source string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Source, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// AuthError reports that the SMTP server rejected the credentials
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("smtp auth: %v", e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// DeliveryError reports an SMTP failure outside authentication
type DeliveryError struct {
	Stage string // dial, tls, mail, rcpt, data
	Err   error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("smtp %s: %v", e.Stage, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

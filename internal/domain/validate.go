package domain

import (
	"net/url"
	"strings"
	"unicode/utf8"
)

// Field limits.
const (
	MaxNameLen        = 100
	MaxDescriptionLen = 200
)

// Field names as they appear in validation errors.
const (
	FieldName        = "name"
	FieldURL         = "url"
	FieldDescription = "description"
	FieldOrder       = "order"
)

// ValidateCreate checks every rule of a create input and reports all violations at once.
func ValidateCreate(in CreateInput) error {
	ve := &ValidationError{}
	checkName(ve, in.Name)
	checkURL(ve, in.URL)
	if in.Description != nil {
		checkDescription(ve, *in.Description)
	}
	if in.Order != nil {
		checkOrder(ve, *in.Order)
	}
	return ve.orNil()
}

// ValidateUpdate checks only the fields that are present.
func ValidateUpdate(in UpdateInput) error {
	ve := &ValidationError{}
	if in.Name != nil {
		checkName(ve, *in.Name)
	}
	if in.URL != nil {
		checkURL(ve, *in.URL)
	}
	if in.Description.Set && in.Description.Value != nil {
		checkDescription(ve, *in.Description.Value)
	}
	if in.Order != nil {
		checkOrder(ve, *in.Order)
	}
	return ve.orNil()
}

func checkName(ve *ValidationError, name string) {
	name = strings.TrimSpace(name)
	if name == "" {
		ve.add(FieldName, "Name is required")
		return
	}
	if utf8.RuneCountInString(name) > MaxNameLen {
		ve.add(FieldName, "Name must be 100 characters or less")
	}
}

func checkURL(ve *ValidationError, raw string) {
	if !IsAbsoluteURL(strings.TrimSpace(raw)) {
		ve.add(FieldURL, "Please enter a valid URL")
	}
}

func checkDescription(ve *ValidationError, desc string) {
	if utf8.RuneCountInString(desc) > MaxDescriptionLen {
		ve.add(FieldDescription, "Description must be 200 characters or less")
	}
}

func checkOrder(ve *ValidationError, order int) {
	switch {
	case order < 0:
		ve.add(FieldOrder, "Order must be a non-negative integer")
	case order > MaxOrder:
		ve.add(FieldOrder, "Order must be 2147483647 or less")
	}
}

// IsAbsoluteURL reports whether raw parses with both a scheme and a host.
func IsAbsoluteURL(raw string) bool {
	if raw == "" {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return u.Scheme != "" && u.Host != ""
}

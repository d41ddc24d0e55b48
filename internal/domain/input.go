package domain

import (
	"bytes"
	"encoding/json"
	"strings"
)

// CreateInput carries the caller-supplied fields of a new item.
// ID, ClickCount and CreatedAt are always assigned by the store.
type CreateInput struct {
	Name        string  `json:"name"`
	URL         string  `json:"url"`
	Description *string `json:"description,omitempty"`
	Order       *int    `json:"order,omitempty"`
}

// UpdateInput is a partial update. Nil fields (and an unset Description) are left untouched.
// id, createdAt and clickCount cannot be expressed here.
type UpdateInput struct {
	Name        *string        `json:"name,omitempty"`
	URL         *string        `json:"url,omitempty"`
	Description OptionalString `json:"description"`
	Order       *int           `json:"order,omitempty"`
}

// IsEmpty reports whether the update carries no field at all.
func (u UpdateInput) IsEmpty() bool {
	return u.Name == nil && u.URL == nil && !u.Description.Set && u.Order == nil
}

// OptionalString distinguishes "key absent" from "key present with null".
//
//	{}                    -> Set=false
//	{"description": null} -> Set=true, Value=nil (clears)
//	{"description": "x"}  -> Set=true, Value="x"
type OptionalString struct {
	Set   bool
	Value *string
}

// SomeString returns an OptionalString holding s.
func SomeString(s string) OptionalString {
	return OptionalString{Set: true, Value: &s}
}

// NullString returns an OptionalString that clears the field.
func NullString() OptionalString {
	return OptionalString{Set: true}
}

func (o *OptionalString) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	o.Value = &s
	return nil
}

func (o OptionalString) MarshalJSON() ([]byte, error) {
	if !o.Set || o.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*o.Value)
}

// Normalize trims name and url the way validation measures them.
func (in CreateInput) Normalize() CreateInput {
	in.Name = strings.TrimSpace(in.Name)
	in.URL = strings.TrimSpace(in.URL)
	return in
}

// Normalize trims the supplied name and url.
func (u UpdateInput) Normalize() UpdateInput {
	if u.Name != nil {
		n := strings.TrimSpace(*u.Name)
		u.Name = &n
	}
	if u.URL != nil {
		s := strings.TrimSpace(*u.URL)
		u.URL = &s
	}
	return u
}

package domain

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// Profile is the typed shape of the collected fields as persisted to the
// remote document store. Password fields are deliberately absent: they
// belong to the account service only.
type Profile struct {
	Name          string `mapstructure:"name" json:"name"`
	Phone         string `mapstructure:"phone" json:"phone"`
	Email         string `mapstructure:"email" json:"email"`
	Gender        string `mapstructure:"gender" json:"gender"`
	DOB           string `mapstructure:"dob" json:"dob"`
	Religion      string `mapstructure:"religion" json:"religion"`
	Caste         string `mapstructure:"caste" json:"caste"`
	MotherTongue  string `mapstructure:"mother_tongue" json:"mother_tongue"`
	MaritalStatus string `mapstructure:"marital_status" json:"marital_status"`
	State         string `mapstructure:"state" json:"state"`
	District      string `mapstructure:"district" json:"district"`
	City          string `mapstructure:"city" json:"city"`
	Education     string `mapstructure:"education" json:"education"`
	Occupation    string `mapstructure:"occupation" json:"occupation"`
	Income        string `mapstructure:"income" json:"income"`
	Bio           string `mapstructure:"bio" json:"bio"`
	Expectations  string `mapstructure:"expectations" json:"expectations"`
	PhotoID       string `mapstructure:"photo_id" json:"photo_id"`
}

// ProfileFromFields decodes accumulated wizard fields into a Profile.
// Unknown keys (passwords, skip flags) are ignored.
func ProfileFromFields(fields map[string]any) (*Profile, error) {
	var p Profile
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &p,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build profile decoder: %w", err)
	}
	if err := dec.Decode(fields); err != nil {
		return nil, fmt.Errorf("failed to decode profile fields: %w", err)
	}
	return &p, nil
}

// Fields flattens the profile back into a document field map, used when
// patching the remote profile document.
func (p *Profile) Fields() map[string]any {
	out := map[string]any{}
	if err := mapstructure.Decode(p, &out); err != nil {
		// Decode of a plain struct into a map cannot fail in practice.
		return out
	}
	return out
}

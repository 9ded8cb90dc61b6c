package registry

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/sangamhq/vivah/pkg/domain"
	"github.com/sangamhq/vivah/pkg/ports"
	"github.com/sangamhq/vivah/pkg/refdata"
	"github.com/sangamhq/vivah/pkg/schema"
)

// Collection and bucket names on the hosted backend.
const (
	ProfileCollection = "profiles"
	PhotoBucket       = "profile-photos"
)

// RequiredAge returns the minimum age for the given gender value.
// The comparison is case-insensitive: the UI submits "Male"/"Female"
// while older clients submitted lowercase, and both must hit the same
// threshold.
func RequiredAge(gender string) int {
	if strings.EqualFold(gender, "male") {
		return 21
	}
	return 18
}

// Matrimonial returns the production registration wizard: account
// creation, personal details, location and education, and the free-text
// profile section.
func Matrimonial() *Registry {
	return New(accountStep(), personalStep(), locationStep(), aboutStep())
}

func accountStep() Step {
	return Step{
		Name:        "account",
		Title:       "Create your account",
		Description: "Tell us who you are and choose a password.",
		Schema: func(prior map[string]any) schema.Schema {
			return schema.Schema{
				{Name: "name", Rules: []schema.Rule{schema.MinLen(4), schema.MaxLen(80)}},
				{Name: "phone", Rules: []schema.Rule{schema.Digits(10)}},
				{Name: "email", Rules: []schema.Rule{schema.Email()}},
				{Name: "gender", Rules: []schema.Rule{schema.Enum(refdata.Genders()...)}},
				{Name: "password", Rules: []schema.Rule{schema.MinLen(8), schema.MaxLen(128)}},
				{Name: "confirm_password"},
			}
		},
		Refine: func(values, prior map[string]any) schema.Errors {
			if str(values, "password") != str(values, "confirm_password") {
				return schema.Errors{{Field: "confirm_password", Message: "passwords do not match"}}
			}
			return nil
		},
		Effect:    accountEffect,
		EffectOp:  "create_account",
		Sensitive: []string{"password", "confirm_password"},
	}
}

func personalStep() Step {
	return Step{
		Name:        "personal",
		Title:       "Personal details",
		Description: "Your date of birth, faith and background.",
		DependsOn:   []string{"gender", "account_id"},
		Schema: func(prior map[string]any) schema.Schema {
			minAge := RequiredAge(str(prior, "gender"))
			return schema.Schema{
				{Name: "dob", Rules: []schema.Rule{schema.MinAge(minAge)}},
				{Name: "religion", Rules: []schema.Rule{schema.Enum(refdata.Religions()...)}},
				{Name: "caste", Rules: []schema.Rule{schema.Enum(refdata.Castes()...)}},
				{Name: "mother_tongue", Rules: []schema.Rule{schema.Enum(refdata.MotherTongues()...)}},
				{Name: "marital_status", Rules: []schema.Rule{schema.Enum(refdata.MaritalStatuses()...)}},
			}
		},
		Effect:   profileCreateEffect,
		EffectOp: "create_profile",
	}
}

func locationStep() Step {
	return Step{
		Name:        "location",
		Title:       "Where you live",
		Description: "Your location, education and work.",
		DependsOn:   []string{"account_id"},
		Schema: func(prior map[string]any) schema.Schema {
			return schema.Schema{
				{Name: "state", Rules: []schema.Rule{schema.Enum(refdata.States()...)}},
				{Name: "district"},
				{Name: "city"},
				{Name: "education", Rules: []schema.Rule{schema.Enum(refdata.Educations()...)}},
				{Name: "occupation", Rules: []schema.Rule{schema.MinLen(2), schema.MaxLen(80)}},
				{Name: "income", Rules: []schema.Rule{schema.Enum(refdata.IncomeBands()...)}},
			}
		},
		Normalize: clearStaleDescendants,
		Refine: func(values, prior map[string]any) schema.Errors {
			var errs schema.Errors
			state := str(values, "state")
			district := str(values, "district")
			city := str(values, "city")
			if !refdata.IsDistrictOf(state, district) {
				errs = append(errs, &schema.FieldError{Field: "district", Message: "district does not belong to the selected state"})
			} else if !refdata.IsCityOf(state, district, city) {
				errs = append(errs, &schema.FieldError{Field: "city", Message: "city does not belong to the selected district"})
			}
			return errs
		},
		Effect:   profilePatchEffect,
		EffectOp: "update_profile",
	}
}

func aboutStep() Step {
	return Step{
		Name:        "about",
		Title:       "About you",
		Description: "A few words about yourself, and a photo if you like.",
		DependsOn:   []string{"account_id"},
		Schema: func(prior map[string]any) schema.Schema {
			return schema.Schema{
				{Name: "bio", Rules: []schema.Rule{schema.MinLen(20), schema.MaxLen(2000)}, SuppressedWhen: "skip_bio"},
				{Name: "expectations", Optional: true, Rules: []schema.Rule{schema.MaxLen(2000)}},
				{Name: "photo_b64", Optional: true},
			}
		},
		Effect:    aboutEffect,
		EffectOp:  "finalize_profile",
		Sensitive: []string{"photo_b64"},
	}
}

// clearStaleDescendants enforces the cascading selection invariant:
// when the submitted state no longer covers the submitted district (or
// the district no longer covers the city), the stale descendants are
// cleared before validation runs.
func clearStaleDescendants(values, prior map[string]any) {
	state := str(values, "state")
	district := str(values, "district")
	if district != "" && !refdata.IsDistrictOf(state, district) {
		values["district"] = ""
		values["city"] = ""
		return
	}
	city := str(values, "city")
	if city != "" && !refdata.IsCityOf(state, district, city) {
		values["city"] = ""
	}
}

// --- Side effects ---

// accountEffect creates the remote account and opens a session. If a
// session is already active (the user resubmitted after a transient
// failure), it is reused instead of creating a duplicate account.
func accountEffect(ctx context.Context, b *ports.Backend, values, prior map[string]any) (map[string]any, error) {
	if b == nil || b.Accounts == nil {
		return nil, nil
	}

	if sess, err := b.Accounts.CurrentSession(ctx); err != nil {
		return nil, fmt.Errorf("failed to check active session: %w", err)
	} else if sess != nil {
		return map[string]any{"account_id": sess.AccountID}, nil
	}

	email := str(values, "email")
	acct, err := b.Accounts.CreateAccount(ctx, AccountID(email), email, str(values, "password"), str(values, "name"))
	if err != nil {
		return nil, err
	}
	if _, err := b.Accounts.CreateSession(ctx, email, str(values, "password")); err != nil {
		return nil, fmt.Errorf("account created but login failed: %w", err)
	}
	return map[string]any{"account_id": acct.ID}, nil
}

// profileCreateEffect creates the profile document, or patches it when a
// previous submission already created it.
func profileCreateEffect(ctx context.Context, b *ports.Backend, values, prior map[string]any) (map[string]any, error) {
	if b == nil || b.Documents == nil {
		return nil, nil
	}
	accountID := str(prior, "account_id")
	if accountID == "" {
		return nil, fmt.Errorf("no account for profile: %w", domain.ErrNotFound)
	}

	fields := profileFields(values, prior)
	if _, err := b.Documents.GetDocument(ctx, ProfileCollection, accountID); err == nil {
		_, err = b.Documents.UpdateDocument(ctx, ProfileCollection, accountID, fields)
		return nil, err
	}
	_, err := b.Documents.CreateDocument(ctx, ProfileCollection, accountID, fields)
	return nil, err
}

// profilePatchEffect patches the existing profile document.
func profilePatchEffect(ctx context.Context, b *ports.Backend, values, prior map[string]any) (map[string]any, error) {
	if b == nil || b.Documents == nil {
		return nil, nil
	}
	accountID := str(prior, "account_id")
	if accountID == "" {
		return nil, fmt.Errorf("no account for profile: %w", domain.ErrNotFound)
	}
	_, err := b.Documents.UpdateDocument(ctx, ProfileCollection, accountID, profileFields(values, prior))
	return nil, err
}

// aboutEffect uploads the optional photo and patches the final profile
// fields. Re-uploads replace the previous photo rather than accumulating
// duplicates.
func aboutEffect(ctx context.Context, b *ports.Backend, values, prior map[string]any) (map[string]any, error) {
	if b == nil || b.Documents == nil {
		return nil, nil
	}
	accountID := str(prior, "account_id")
	if accountID == "" {
		return nil, fmt.Errorf("no account for profile: %w", domain.ErrNotFound)
	}

	extra := map[string]any{}
	if encoded := str(values, "photo_b64"); encoded != "" && b.Files != nil {
		data, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, fmt.Errorf("invalid photo payload: %w", err)
		}
		// Replace any earlier upload for this account.
		_ = b.Files.Delete(ctx, PhotoBucket, accountID)
		ref, err := b.Files.Upload(ctx, PhotoBucket, accountID, data)
		if err != nil {
			return nil, err
		}
		extra["photo_id"] = ref.ID
	}

	fields := profileFields(values, prior)
	delete(fields, "photo_b64")
	for k, v := range extra {
		fields[k] = v
	}
	if _, err := b.Documents.UpdateDocument(ctx, ProfileCollection, accountID, fields); err != nil {
		return nil, err
	}
	return extra, nil
}

// profileFields builds the document patch for a step from the merged
// view of collected and just-submitted values.
func profileFields(values, prior map[string]any) map[string]any {
	merged := make(map[string]any, len(prior)+len(values))
	for k, v := range prior {
		merged[k] = v
	}
	for k, v := range values {
		merged[k] = v
	}
	p, err := domain.ProfileFromFields(merged)
	if err != nil {
		// Collected fields are engine-normalized strings; decoding them
		// into the profile shape cannot fail with well-formed steps.
		return map[string]any{}
	}
	fields := p.Fields()
	// Only send keys the current submission actually touched, plus
	// identity fields the document is keyed on.
	out := map[string]any{}
	for k := range values {
		if v, ok := fields[k]; ok {
			out[k] = v
		}
	}
	out["email"] = p.Email
	out["name"] = p.Name
	return out
}

// AccountID derives a stable account ID from the email address, so a
// retried create targets the same resource instead of minting a new one.
func AccountID(email string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(email))))
	return hex.EncodeToString(sum[:])[:20]
}

func str(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	s, _ := m[key].(string)
	return s
}

package vivah_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sangamhq/vivah"
)

func newRunner(input string) (*vivah.Runner, *bytes.Buffer) {
	out := &bytes.Buffer{}
	r := vivah.NewRunner()
	r.Input = strings.NewReader(input)
	r.Output = out
	return r, out
}

func TestRunner_FullRegistration(t *testing.T) {
	eng, err := vivah.New()
	require.NoError(t, err)
	ctrl := eng.Wizard(context.Background(), "w1")

	input := strings.Join([]string{
		// account
		"Asha Kulkarni",
		"9876543210",
		"asha@example.com",
		"Female",
		"s3cret-password",
		"s3cret-password",
		// personal
		"1995-02-10",
		"Hindu",
		"Maratha",
		"Marathi",
		"Never Married",
		// location
		"Maharashtra",
		"Pune",
		"Pune City",
		"Masters",
		"Software Engineer",
		"10-20 LPA",
		// about: answer the skip question, then the bio
		"n",
		"I enjoy reading, trekking and quiet weekends at home.",
		"", // expectations
		"", // photo
	}, "\n") + "\n"

	r, out := newRunner(input)
	require.NoError(t, r.Run(context.Background(), ctrl))

	assert.True(t, ctrl.Completed())
	assert.Contains(t, out.String(), "Registration complete")

	state := ctrl.State()
	assert.Equal(t, "Asha Kulkarni", state.Fields["name"])
	assert.NotContains(t, state.Fields, "password")
}

func TestRunner_ValidationErrorsReprompt(t *testing.T) {
	eng, err := vivah.New()
	require.NoError(t, err)
	ctrl := eng.Wizard(context.Background(), "w1")

	input := strings.Join([]string{
		"Asha Kulkarni",
		"123", // bad phone
		"asha@example.com",
		"Female",
		"s3cret-password",
		"s3cret-password",
		"/quit",
	}, "\n") + "\n"

	r, out := newRunner(input)
	require.NoError(t, r.Run(context.Background(), ctrl))

	assert.Contains(t, out.String(), "Please fix the following")
	assert.Contains(t, out.String(), "phone")
	assert.Equal(t, 1, ctrl.State().StepIndex)
}

func TestRunner_QuitSavesProgress(t *testing.T) {
	eng, err := vivah.New()
	require.NoError(t, err)
	ctrl := eng.Wizard(context.Background(), "w1")

	r, out := newRunner("/quit\n")
	require.NoError(t, r.Run(context.Background(), ctrl))
	assert.Contains(t, out.String(), "Progress saved")
}

func TestRunner_Reset(t *testing.T) {
	eng, err := vivah.New()
	require.NoError(t, err)
	ctrl := eng.Wizard(context.Background(), "w1")

	r, out := newRunner("/reset\n/quit\n")
	require.NoError(t, r.Run(context.Background(), ctrl))
	assert.Contains(t, out.String(), "Starting over")
	assert.Equal(t, 1, ctrl.State().StepIndex)
}

func TestRunner_EOFQuits(t *testing.T) {
	eng, err := vivah.New()
	require.NoError(t, err)
	ctrl := eng.Wizard(context.Background(), "w1")

	r, out := newRunner("")
	require.NoError(t, r.Run(context.Background(), ctrl))
	assert.Contains(t, out.String(), "Progress saved")
}

func TestRunner_SkipBio(t *testing.T) {
	eng, err := vivah.New()
	require.NoError(t, err)
	ctrl := eng.Wizard(context.Background(), "w1")

	input := strings.Join([]string{
		"Asha Kulkarni",
		"9876543210",
		"asha@example.com",
		"Female",
		"s3cret-password",
		"s3cret-password",
		"1995-02-10",
		"Hindu",
		"Maratha",
		"Marathi",
		"Never Married",
		"Maharashtra",
		"Pune",
		"Pune City",
		"Masters",
		"Software Engineer",
		"10-20 LPA",
		"y", // fill the bio in later
		"",  // expectations
		"",  // photo
	}, "\n") + "\n"

	r, out := newRunner(input)
	require.NoError(t, r.Run(context.Background(), ctrl))

	assert.Contains(t, out.String(), "bio - fill in later? (y/N)")
	assert.True(t, ctrl.Completed())
	state := ctrl.State()
	assert.Equal(t, "", state.Fields["bio"])
	assert.Equal(t, true, state.Fields["skip_bio"])
}

func TestRunner_PasswordReader(t *testing.T) {
	eng, err := vivah.New()
	require.NoError(t, err)
	ctrl := eng.Wizard(context.Background(), "w1")

	input := strings.Join([]string{
		"Asha Kulkarni",
		"9876543210",
		"asha@example.com",
		"Female",
		// password and confirm come from the secret reader
		"/quit",
	}, "\n") + "\n"

	r, _ := newRunner(input)
	r.ReadPassword = func() (string, error) { return "s3cret-password", nil }

	require.NoError(t, r.Run(context.Background(), ctrl))
	assert.Equal(t, 2, ctrl.State().StepIndex)
}

func TestRunner_RequiresIO(t *testing.T) {
	eng, err := vivah.New()
	require.NoError(t, err)
	ctrl := eng.Wizard(context.Background(), "w1")

	r := vivah.NewRunner()
	assert.Error(t, r.Run(context.Background(), ctrl))
}

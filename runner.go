package vivah

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sangamhq/vivah/pkg/domain"
	"github.com/sangamhq/vivah/pkg/schema"
	"github.com/sangamhq/vivah/pkg/wizard"
)

// ContentRenderer transforms step descriptions before output. This
// allows terminal rendering (markdown to ANSI) without coupling the
// core package to a TUI library.
type ContentRenderer func(string) (string, error)

// PasswordReader reads a secret without echoing it. When nil, the
// runner falls back to a plain line read.
type PasswordReader func() (string, error)

// Runner drives a wizard controller interactively over provided IO.
// This allows for easy testing and integration with different frontends.
type Runner struct {
	Input        io.Reader
	Output       io.Writer
	Renderer     ContentRenderer
	ReadPassword PasswordReader
}

// NewRunner creates a Runner. Input and Output must be set before Run
// (use os.Stdin / os.Stdout).
func NewRunner() *Runner {
	return &Runner{}
}

// Run executes the wizard loop until completion or quit.
// At any prompt the user can type /back, /reset or /quit.
func (r *Runner) Run(ctx context.Context, ctrl *wizard.Controller) error {
	if r.Input == nil {
		return fmt.Errorf("input reader must be set (use os.Stdin)")
	}
	if r.Output == nil {
		return fmt.Errorf("output writer must be set (use os.Stdout)")
	}
	lines := bufio.NewReader(r.Input)

	for !ctrl.Completed() {
		step := ctrl.CurrentStep()
		if step == nil {
			break
		}

		state := ctrl.State()
		fmt.Fprintf(r.Output, "\n[%d/%d] %s\n", state.StepIndex, ctrl.TotalSteps(), step.Title)
		r.renderContent(step.Description)

		values, cmd, err := r.collect(lines, step.Schema(state.Fields), state.Fields)
		if err != nil {
			return err
		}
		switch cmd {
		case "/quit":
			fmt.Fprintln(r.Output, "Progress saved. Come back any time.")
			return nil
		case "/back":
			ctrl.GoBack(ctx)
			continue
		case "/reset":
			ctrl.Reset(ctx)
			fmt.Fprintln(r.Output, "Starting over.")
			continue
		}

		if err := ctrl.SubmitStep(ctx, state.StepIndex, values); err != nil {
			r.printSubmitError(err)
			continue
		}
	}

	if ctrl.Completed() {
		fmt.Fprintln(r.Output, "\nRegistration complete. Welcome aboard!")
	}
	return nil
}

// collect prompts for each field of the step. It returns the submitted
// values, or a command string when the user typed one.
func (r *Runner) collect(lines *bufio.Reader, s schema.Schema, prior map[string]any) (map[string]any, string, error) {
	values := make(map[string]any, len(s))

	for _, f := range s {
		// A conditional field asks its skip flag first.
		if f.SuppressedWhen != "" {
			fmt.Fprintf(r.Output, "  %s - fill in later? (y/N): ", label(f.Name))
			answer, cmd, err := r.readLine(lines)
			if err != nil || cmd != "" {
				return nil, cmd, err
			}
			if strings.EqualFold(answer, "y") || strings.EqualFold(answer, "yes") {
				values[f.SuppressedWhen] = true
				continue
			}
			values[f.SuppressedWhen] = false
		}

		prompt := label(f.Name)
		if opts := enumOptions(f); len(opts) > 0 {
			prompt += " (" + strings.Join(opts, " | ") + ")"
		}
		if cur, ok := prior[f.Name].(string); ok && cur != "" {
			prompt += fmt.Sprintf(" [%s]", cur)
		}
		fmt.Fprintf(r.Output, "  %s: ", prompt)

		var (
			val string
			cmd string
			err error
		)
		if isSecret(f.Name) && r.ReadPassword != nil {
			val, err = r.ReadPassword()
			fmt.Fprintln(r.Output)
		} else {
			val, cmd, err = r.readLine(lines)
		}
		if err != nil || cmd != "" {
			return nil, cmd, err
		}

		// Empty input keeps the previously collected value.
		if val == "" {
			if cur, ok := prior[f.Name].(string); ok {
				val = cur
			}
		}
		values[f.Name] = val
	}
	return values, "", nil
}

func (r *Runner) readLine(lines *bufio.Reader) (string, string, error) {
	raw, err := lines.ReadString('\n')
	if err != nil && raw == "" {
		if err == io.EOF {
			return "", "/quit", nil
		}
		return "", "", err
	}
	val := strings.TrimSpace(raw)
	if strings.HasPrefix(val, "/") {
		switch val {
		case "/back", "/reset", "/quit":
			return "", val, nil
		}
	}
	return val, "", nil
}

func (r *Runner) renderContent(md string) {
	if md == "" {
		return
	}
	out := md
	if r.Renderer != nil {
		if rendered, err := r.Renderer(md); err == nil {
			out = rendered
		}
	}
	fmt.Fprintln(r.Output, out)
}

func (r *Runner) printSubmitError(err error) {
	if fieldErrs := schema.FieldErrors(err); fieldErrs != nil {
		fmt.Fprintln(r.Output, "Please fix the following:")
		for _, fe := range fieldErrs {
			fmt.Fprintf(r.Output, "  - %s: %s\n", label(fe.Field), fe.Message)
		}
		return
	}

	var effErr *domain.SideEffectError
	switch {
	case domain.IsConflict(err):
		fmt.Fprintln(r.Output, "This email is already registered — log in instead.")
	case errors.As(err, &effErr):
		fmt.Fprintln(r.Output, "Could not reach the registration service. Please try again.")
	default:
		fmt.Fprintf(r.Output, "Something went wrong: %v\n", err)
	}
}

// enumOptions extracts choice values from a field's rules, if any.
func enumOptions(f schema.Field) []string {
	for _, rule := range f.Rules {
		if e, ok := rule.(interface{ Options() []string }); ok {
			return e.Options()
		}
	}
	return nil
}

func isSecret(name string) bool {
	return strings.Contains(name, "password")
}

func label(name string) string {
	return strings.ReplaceAll(name, "_", " ")
}

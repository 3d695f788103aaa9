// Package prompt reads credentials and choices from an interactive terminal.
package prompt

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/manifoldco/promptui"
	"golang.org/x/term"

	"github.com/fintrack-dev/fintrack/internal/cli/client"
)

// Terminal prompts on the process's stdin/stderr
type Terminal struct{}

// Interactive reports whether stdin is a terminal (not piped)
func (Terminal) Interactive() bool {
	return term.IsTerminal(int(syscall.Stdin))
}

// Email asks for an email address, pre-filled with def
func (Terminal) Email(def string) (string, error) {
	p := promptui.Prompt{
		Label:     "Email",
		Default:   def,
		AllowEdit: true,
		Validate:  notBlank("email"),
	}

	value, err := p.Run()
	if err != nil {
		return "", fmt.Errorf("email prompt cancelled: %w", err)
	}
	return strings.TrimSpace(value), nil
}

// Password reads a secret without echoing it
func (Terminal) Password(label string) (string, error) {
	fmt.Fprintf(os.Stderr, "%s: ", label)
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr) // New line after password input
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(bytePassword), nil
}

// SelectCategory shows an interactive list of categories
func (Terminal) SelectCategory(categories []client.Category) (*client.Category, error) {
	if len(categories) == 0 {
		return nil, errors.New("no categories to choose from")
	}

	templates := &promptui.SelectTemplates{
		Label:    "{{ . }}",
		Active:   "> {{ .Name | cyan }}",
		Inactive: "  {{ .Name }}",
		Selected: "{{ .Name | green }}",
	}

	p := promptui.Select{
		Label:     "Select a category",
		Items:     categories,
		Templates: templates,
		Size:      10,
		Searcher:  categorySearcher(categories),
	}

	index, _, err := p.Run()
	if err != nil {
		return nil, fmt.Errorf("category selection cancelled: %w", err)
	}

	return &categories[index], nil
}

// categorySearcher matches typed input against category names, case-insensitively
func categorySearcher(categories []client.Category) func(string, int) bool {
	return func(input string, index int) bool {
		name := strings.ToLower(categories[index].Name)
		return strings.Contains(name, strings.ToLower(strings.TrimSpace(input)))
	}
}

func notBlank(field string) promptui.ValidateFunc {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}

// Package testutil provides flow fixtures for wizard tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// OnboardingFlow is a three-step flow exercising field rules, an optional
// step, a leave confirmation and an enter requirement.
const OnboardingFlow = `name: onboarding
title: Account setup
steps:
  - id: account
    title: Account
    description: Who are you?
    fields:
      - name: email
        label: Email
        required: true
        pattern: '^[^@\s]+@[^@\s]+$'
        message: must be an email address
      - name: age
        label: Age
        type: int
    before_leave:
      confirm: Continue with this account?
  - id: profile
    title: Profile
    optional: true
    fields:
      - name: nickname
        label: Nickname
        max_length: 12
      - name: newsletter
        type: bool
        default: false
  - id: plan
    title: Plan
    fields:
      - name: tier
        label: Tier
        type: select
        required: true
        options: [free, pro]
        default: free
    before_enter:
      require_steps: [account]
`

// OnboardingAnswers completes OnboardingFlow, skipping the optional step.
const OnboardingAnswers = `account:
  email: ada@example.com
  age: 36
plan:
  tier: pro
`

// InvalidFlow has several structural problems.
const InvalidFlow = `name: ""
steps:
  - id: a
    fields:
      - name: x
        type: color
  - id: a
`

// WriteFile writes content to name inside a new temporary directory and
// returns the full path.
func WriteFile(t *testing.T, name, content string) string {
	t.Helper()
	return WriteFiles(t, map[string]string{name: content})[name]
}

// WriteFiles writes every file into one temporary directory and returns the
// full path of each, keyed by name.
func WriteFiles(t *testing.T, files map[string]string) map[string]string {
	t.Helper()

	dir := t.TempDir()
	paths := make(map[string]string, len(files))
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("failed to create directory for %s: %v", name, err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
		paths[name] = path
	}
	return paths
}

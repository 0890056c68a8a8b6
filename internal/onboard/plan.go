package onboard

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/hypercube-linux/hypercube-utils/internal/config"
	"github.com/hypercube-linux/hypercube-utils/internal/executor"
	"github.com/hypercube-linux/hypercube-utils/internal/system"
)

// SelectedPackage is a package the user left enabled.
type SelectedPackage struct {
	Category string
	Item     config.PackageItem
}

// Plan is everything the wizard collected, ready to be turned into one
// batch.
type Plan struct {
	User system.User
	// Choices holds the picker values keyed by step. A step appears at most
	// once, so choosing twice yields one task.
	Choices  map[config.StepKind]string
	NTP      bool
	Packages []SelectedPackage
	Finalize bool
}

// Tasks builds the batch. Every task depends on the account existing;
// package commands additionally run one after another since package
// managers hold a global lock. Finalize only depends on the account, so a
// failed package does not keep the first-boot login around.
func (p Plan) Tasks(ops *system.Ops) []executor.Task {
	tasks := []executor.Task{ops.CreateUser(p.User)}
	after := []string{system.TaskCreateUser}

	if v := p.Choices[config.StepLocale]; v != "" {
		tasks = append(tasks, ops.SetLocale(v, after...))
	}
	if v := p.Choices[config.StepKeyboard]; v != "" {
		tasks = append(tasks, ops.SetKeymap(v, after...))
	}
	if v := p.Choices[config.StepTimezone]; v != "" {
		tasks = append(tasks, ops.SetTimezone(v, after...))
	}
	if p.NTP {
		tasks = append(tasks, ops.SetNTP(true, after...))
	}

	prev := system.TaskCreateUser
	n := 0
	for _, sp := range p.Packages {
		for i, c := range sp.Item.Commands {
			n++
			label := sp.Item.Title
			if c.Name != "" {
				label += ": " + c.Name
			} else if len(sp.Item.Commands) > 1 {
				label += fmt.Sprintf(" (%d/%d)", i+1, len(sp.Item.Commands))
			}
			key := fmt.Sprintf("%02d-%s", n, slug(sp.Category+"-"+sp.Item.Title))
			task := ops.RunPackage(system.PackageCommand{
				Key:    key,
				Label:  label,
				Argv:   c.Command,
				AsRoot: c.Sudo,
				User:   p.User.Name,
			}, prev)
			tasks = append(tasks, task)
			prev = task.ID
		}
	}

	if p.Finalize {
		tasks = append(tasks, ops.Finalize(system.TaskCreateUser))
	}
	return tasks
}

// slug lowercases s and replaces runs of anything but letters and digits
// with a single dash.
func slug(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sourceplane/obconsole/internal/form"
	"github.com/sourceplane/obconsole/internal/model"
)

// Describe summarizes what a function does
func Describe(fn *form.FunctionForm) string {
	title := fn.Kind.Title()
	switch fn.Kind {
	case model.KindStartJobInstance:
		switch {
		case fn.Job != "" && fn.Entity != "":
			return fmt.Sprintf("%s: %s on %s", title, fn.Job, fn.Entity)
		case fn.Job != "":
			return fmt.Sprintf("%s: %s", title, fn.Job)
		}
	case model.KindStopJobInstances:
		if len(fn.JobIDs) > 0 {
			return fmt.Sprintf("%s: %s", title, joinInts(fn.JobIDs))
		}
	case model.KindStartScenarioInstance:
		if fn.ScenarioName != "" {
			return fmt.Sprintf("%s: %s", title, fn.ScenarioName)
		}
	case model.KindStopScenarioInstance:
		return fmt.Sprintf("%s: %d", title, fn.ScenarioID)
	}
	return title
}

// FunctionLabel is the label of a function, or its description when it has none
func FunctionLabel(fn *form.FunctionForm) string {
	if fn.Label != "" {
		return fn.Label
	}
	return Describe(fn)
}

// Heading prefixes the function label with its id
func Heading(fn *form.FunctionForm) string {
	return fmt.Sprintf("%d: %s", fn.ID, FunctionLabel(fn))
}

// ReferenceLabel renders a referenced id. An id no function carries is
// rendered as the bare number.
func ReferenceLabel(f *form.ScenarioForm, id int) string {
	if fn, ok := f.Function(id); ok {
		return Heading(fn)
	}
	return strconv.Itoa(id)
}

func joinInts(ids []int) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, strconv.Itoa(id))
	}
	return strings.Join(parts, ", ")
}

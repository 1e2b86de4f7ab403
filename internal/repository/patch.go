package repository

import "github.com/sakif/pm-tracker/internal/model"

// Assignment is one "column = value" pair of a partial UPDATE.
type Assignment struct {
	Column string
	Value  any
}

// ProjectAssignments lists the columns a patch touches, in a fixed order.
// Column names come from this fixed set, never from input, so backends may
// splice them into SQL; values always go through placeholders.
func ProjectAssignments(p model.ProjectPatch) []Assignment {
	var out []Assignment
	if p.Title != nil {
		out = append(out, Assignment{Column: "title", Value: *p.Title})
	}
	if p.Description != nil {
		out = append(out, Assignment{Column: "description", Value: *p.Description})
	}
	if p.Status != nil {
		out = append(out, Assignment{Column: "status", Value: string(*p.Status)})
	}
	return out
}

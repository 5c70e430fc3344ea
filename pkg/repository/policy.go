package repository

import (
	"fmt"
	"strings"
)

// DeletePolicy decides what happens to the rows referencing a deleted parent.
type DeletePolicy int

const (
	// DeleteChildren deletes the referencing rows with the parent.
	DeleteChildren DeletePolicy = iota
	// DetachChildren clears the referencing rows' back-reference and keeps them.
	DetachChildren
)

func (p DeletePolicy) String() string {
	switch p {
	case DeleteChildren:
		return "delete"
	case DetachChildren:
		return "detach"
	default:
		return fmt.Sprintf("DeletePolicy(%d)", int(p))
	}
}

// ParseDeletePolicy parses "delete" or "detach".
func ParseDeletePolicy(s string) (DeletePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "delete":
		return DeleteChildren, nil
	case "detach":
		return DetachChildren, nil
	default:
		return 0, fmt.Errorf("unknown delete policy %q", s)
	}
}

// Policies holds the delete policy of each one-to-many and one-to-one pair.
// Master and Kitty are associated many-to-many; deleting either side only
// removes the association rows.
type Policies struct {
	BrandModels  DeletePolicy
	EmployeeTask DeletePolicy
	StreetHouses DeletePolicy
}

// DefaultPolicies returns the historical behavior: a brand takes its models
// with it, while tasks and houses are kept and detached.
func DefaultPolicies() Policies {
	return Policies{
		BrandModels:  DeleteChildren,
		EmployeeTask: DetachChildren,
		StreetHouses: DetachChildren,
	}
}

package storyedit

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"storyquest-server/internal/models"

	"github.com/go-playground/validator/v10"
)

// ValidationError lists every problem found in a story graph.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", models.ErrInvalidStoryGraph, strings.Join(e.Problems, "; "))
}

func (e *ValidationError) Unwrap() error {
	return models.ErrInvalidStoryGraph
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report json field names so problems match what the admin typed.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate runs schema checks (required fields) and graph checks (unique
// node ids, every choice.next resolvable). Cycles and unreachable nodes are allowed.
func Validate(story *models.Story) error {
	var problems []string

	if err := validate.Struct(story); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return err
		}
		for _, fe := range fieldErrs {
			problems = append(problems, describeFieldError(fe))
		}
	}

	seen := make(map[string]int, len(story.Nodes))
	for i, n := range story.Nodes {
		if n.ID == "" {
			continue
		}
		if first, dup := seen[n.ID]; dup {
			problems = append(problems, fmt.Sprintf("nodes[%d].id %q duplicates nodes[%d]", i, n.ID, first))
			continue
		}
		seen[n.ID] = i
	}
	for i, n := range story.Nodes {
		for j, c := range n.Choices {
			if c.Next == "" {
				continue
			}
			if _, ok := seen[c.Next]; !ok {
				problems = append(problems, fmt.Sprintf("nodes[%d].choices[%d].next %q does not match any node id", i, j, c.Next))
			}
		}
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

func describeFieldError(fe validator.FieldError) string {
	field := strings.TrimPrefix(fe.Namespace(), "Story.")
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "min":
		return fmt.Sprintf("%s must contain at least %s item(s)", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be >= %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %q check", field, fe.Tag())
	}
}

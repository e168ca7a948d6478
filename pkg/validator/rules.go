package validator

import (
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

func Required(field, value string) Rule {
	return Rule{
		Check: func() bool { return strings.TrimSpace(value) != "" },
		Error: ValidationError{Field: field, Message: "is required"},
	}
}

// MaxLen counts runes, not bytes.
func MaxLen(field, value string, max int) Rule {
	return Rule{
		Check: func() bool { return utf8.RuneCountInString(value) <= max },
		Error: ValidationError{Field: field, Message: fmt.Sprintf("must be at most %d characters", max)},
	}
}

// UUID requires a parseable, non-nil UUID in canonical form.
func UUID(field, value string) Rule {
	return Rule{
		Check: func() bool {
			if len(value) != 36 {
				return false
			}
			id, err := uuid.Parse(value)
			return err == nil && id != uuid.Nil
		},
		Error: ValidationError{Field: field, Message: "must be a valid UUID"},
	}
}

// OneOf requires value to be one of options.
func OneOf[T comparable](field string, value T, options ...T) Rule {
	return Rule{
		Check: func() bool { return slices.Contains(options, value) },
		Error: ValidationError{Field: field, Message: fmt.Sprintf("must be one of %v", options)},
	}
}

// NotZeroTime requires a set timestamp.
func NotZeroTime(field string, value time.Time) Rule {
	return Rule{
		Check: func() bool { return !value.IsZero() },
		Error: ValidationError{Field: field, Message: "is required"},
	}
}

// FutureTime requires value to be after now minus grace.
func FutureTime(field string, value, now time.Time, grace time.Duration) Rule {
	return Rule{
		Check: func() bool { return value.After(now.Add(-grace)) },
		Error: ValidationError{Field: field, Message: "must be in the future"},
	}
}

// NotBefore requires value to be equal to or after min.
func NotBefore(field string, value, min time.Time) Rule {
	return Rule{
		Check: func() bool { return !value.Before(min) },
		Error: ValidationError{Field: field, Message: fmt.Sprintf("must not be before %s", min.Format(time.RFC3339))},
	}
}

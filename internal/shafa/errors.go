package shafa

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrNoCSRFToken is returned when the stored session has no csrftoken cookie.
var ErrNoCSRFToken = errors.New("csrftoken cookie not found, log in first")

// GraphQLError is one entry of a top-level GraphQL "errors" array.
type GraphQLError struct {
	Message string `json:"message"`
}

// GraphQLErrors is returned when the response carries top-level errors.
type GraphQLErrors []GraphQLError

func (e GraphQLErrors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, ge := range e {
		msgs = append(msgs, ge.Message)
	}
	return "graphql errors: " + strings.Join(msgs, "; ")
}

var invalidColorRes = []*regexp.Regexp{
	regexp.MustCompile(`Value '([^']+)' does not exist in 'ColorEnum'`),
	regexp.MustCompile(`got invalid value '([^']+)' at 'colors\[\d+\]'`),
}

// InvalidColors returns the color enum values the server rejected, in order
// of appearance.
func (e GraphQLErrors) InvalidColors() []string {
	var out []string
	seen := map[string]bool{}
	for _, ge := range e {
		for _, re := range invalidColorRes {
			for _, m := range re.FindAllStringSubmatch(ge.Message, -1) {
				if !seen[m[1]] {
					seen[m[1]] = true
					out = append(out, m[1])
				}
			}
		}
	}
	return out
}

// FieldMessage explains why a field was rejected.
type FieldMessage struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// FieldError is a validation error the marketplace reports for one field.
type FieldError struct {
	Field    string         `json:"field"`
	Messages []FieldMessage `json:"messages"`
}

// FieldErrors is returned when a mutation succeeds at the GraphQL level but
// the marketplace rejects some of the submitted fields.
type FieldErrors []FieldError

func (e FieldErrors) Error() string {
	parts := make([]string, 0, len(e))
	for _, fe := range e {
		var codes []string
		for _, m := range fe.Messages {
			if m.Message != "" {
				codes = append(codes, m.Message)
			} else {
				codes = append(codes, m.Code)
			}
		}
		parts = append(parts, fmt.Sprintf("%s: %s", fe.Field, strings.Join(codes, ", ")))
	}
	return "rejected fields: " + strings.Join(parts, "; ")
}

// Has reports whether field is among the rejected ones.
func (e FieldErrors) Has(field string) bool {
	for _, fe := range e {
		if strings.EqualFold(fe.Field, field) {
			return true
		}
	}
	return false
}

// IsFieldError reports whether err carries a rejection of field.
func IsFieldError(err error, field string) bool {
	var fe FieldErrors
	return errors.As(err, &fe) && fe.Has(field)
}

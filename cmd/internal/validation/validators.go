package validation

import (
	"k8s.io/utils/strings/slices"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

var idFormat = regexp.MustCompile(`^[a-zA-Z0-9_\-][a-zA-Z0-9_\-.]*$`)

const maxIdLength = 255

type options struct {
	label   string
	message string
}

// Option customises the field label or the whole message of a validator.
type Option func(*options)

// Label replaces the humanized field name, e.g. Label("URL") for the "url" field.
func Label(label string) Option {
	return func(o *options) {
		o.label = label
	}
}

// Message replaces the generated message entirely.
func Message(message string) Option {
	return func(o *options) {
		o.message = message
	}
}

func buildOptions(field string, opts []Option) options {
	o := options{label: HumanizeField(field)}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o options) or(message string) string {
	if o.message != "" {
		return o.message
	}
	return message
}

// Presence records "X must be present" when value is blank.
func Presence(errs *Errors, field string, value string, opts ...Option) bool {
	if strings.TrimSpace(value) != "" {
		return true
	}

	o := buildOptions(field, opts)
	errs.Add(field, o.or(MustBePresent(o.label)))
	return false
}

// Format records "X format is invalid" when a non blank value does not match pattern.
func Format(errs *Errors, field string, value string, pattern *regexp.Regexp, opts ...Option) bool {
	if value == "" || pattern.MatchString(value) {
		return true
	}

	o := buildOptions(field, opts)
	errs.Add(field, o.or(FormatInvalid(o.label)))
	return false
}

// HttpUrl records an error when a non blank value is not an absolute http or https url.
func HttpUrl(errs *Errors, field string, value string, opts ...Option) bool {
	if value == "" {
		return true
	}

	parsed, err := url.Parse(value)
	if err == nil && (parsed.Scheme == "http" || parsed.Scheme == "https") && parsed.Host != "" {
		return true
	}

	o := buildOptions(field, opts)
	errs.Add(field, o.or(MustBeUrl(o.label)))
	return false
}

func MaxLength(errs *Errors, field string, value string, length int, opts ...Option) bool {
	if utf8.RuneCountInString(value) <= length {
		return true
	}

	o := buildOptions(field, opts)
	errs.Add(field, o.or(MustNotExceed(o.label, length)))
	return false
}

// PositiveInteger accepts blank values and integers greater than zero.
func PositiveInteger(errs *Errors, field string, value string, opts ...Option) bool {
	if value == "" {
		return true
	}

	if number, err := strconv.Atoi(value); err == nil && number > 0 {
		return true
	}

	o := buildOptions(field, opts)
	errs.Add(field, o.or(MustBePositiveInteger(o.label)))
	return false
}

// IdFormat applies the server's rules for names used as identifiers (pipelines, stages, jobs, environments).
func IdFormat(errs *Errors, field string, value string, opts ...Option) bool {
	if value == "" {
		return true
	}

	if len(value) <= maxIdLength && idFormat.MatchString(value) {
		return true
	}

	o := buildOptions(field, opts)
	errs.Add(field, o.or(IdFormatMessage))
	return false
}

// Inclusion records an error for every value not found in allowed.
func Inclusion(errs *Errors, field string, values []string, allowed []string, opts ...Option) bool {
	valid := true
	for _, value := range values {
		if !slices.Contains(allowed, value) {
			valid = false
		}
	}

	if !valid {
		o := buildOptions(field, opts)
		errs.Add(field, o.or(MustBeOneOf(o.label, allowed)))
	}

	return valid
}

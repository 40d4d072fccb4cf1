package validation

import (
	"regexp"
	"strconv"
	"strings"
)

const IdFormatMessage = "Invalid id. This must be alphanumeric and can contain hyphens, underscores and periods " +
	"(however, it cannot start with a period). The maximum allowed length is 255 characters."

var camelBoundary = regexp.MustCompile(`([a-z0-9])([A-Z])`)

// HumanizeField turns pluginId, PluginId, plugin_id and "plugin id" into "Plugin id".
func HumanizeField(field string) string {
	spaced := camelBoundary.ReplaceAllString(field, "${1} ${2}")
	spaced = strings.NewReplacer("_", " ", "-", " ").Replace(spaced)
	words := strings.Fields(strings.ToLower(spaced))

	if len(words) == 0 {
		return ""
	}

	joined := strings.Join(words, " ")
	return strings.ToUpper(joined[:1]) + joined[1:]
}

func MustBePresent(label string) string {
	return label + " must be present"
}

func Duplicate(label string) string {
	return label + " is a duplicate"
}

func FormatInvalid(label string) string {
	return label + " format is invalid"
}

func MustBeUrl(label string) string {
	return label + " must be a valid http(s) url"
}

func MustNotExceed(label string, length int) string {
	return label + " must not exceed length " + strconv.Itoa(length)
}

func MustBePositiveInteger(label string) string {
	return label + " must be a positive integer"
}

func MustBeOneOf(label string, values []string) string {
	return label + " must be one of " + strings.Join(values, ", ")
}

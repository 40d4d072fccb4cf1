package converters

import (
	"github.com/OctopusSolutionsEngineering/GoCDTerraformExport/cmd/internal/model/gocd"
	"go.uber.org/zap"
	"golang.org/x/exp/slices"
	"regexp"
	"strings"
)

type DefaultExcluder struct {
}

func (e DefaultExcluder) IsResourceExcluded(resourceName string, excludeAll bool, excludeThese []string, excludeAllButThese []string) bool {
	if strings.TrimSpace(resourceName) == "" {
		return true
	}

	if excludeAll {
		return true
	}

	if excludeThese != nil && slices.Index(excludeThese, resourceName) != -1 {
		return true
	}

	if excludeAllButThese != nil && len(excludeAllButThese) != 0 && slices.Index(excludeAllButThese, resourceName) == -1 {
		return true
	}

	return false
}

// IsResourceExcludedWithRegex extends IsResourceExcluded with a list of regular expressions. A resource whose
// name matches any of them is excluded. Invalid expressions are logged and ignored.
func (e DefaultExcluder) IsResourceExcludedWithRegex(resourceName string, excludeAll bool, excludeThese []string, excludeTheseRegexes []string, excludeAllButThese []string) bool {
	if e.IsResourceExcluded(resourceName, excludeAll, excludeThese, excludeAllButThese) {
		return true
	}

	return slices.IndexFunc(excludeTheseRegexes, func(expression string) bool {
		match, err := regexp.MatchString(expression, resourceName)
		if err != nil {
			zap.L().Error("Invalid exclusion regex " + expression + ": " + err.Error())
			return false
		}
		return match
	}) != -1
}

// IsOriginExcluded returns true when config repository resources are excluded and the origin is a config repository.
// The server refuses to modify these resources through the admin API, so managing them from Terraform fails.
func (e DefaultExcluder) IsOriginExcluded(origin *gocd.Origin, excludeConfigRepoResources bool) bool {
	return excludeConfigRepoResources && origin.IsDefinedInConfigRepo()
}

package converters

import "github.com/OctopusSolutionsEngineering/GoCDTerraformExport/cmd/internal/model/gocd"

// ExcludeByName has logic for excluding resources based on some filters. Excluded resources are typically supplied
// from the command line.
type ExcludeByName interface {
	IsResourceExcluded(resourceName string, excludeAll bool, excludeThese []string, excludeAllButThese []string) bool
	IsResourceExcludedWithRegex(resourceName string, excludeAll bool, excludeThese []string, excludeTheseRegexes []string, excludeAllButThese []string) bool
	IsOriginExcluded(origin *gocd.Origin, excludeConfigRepoResources bool) bool
}

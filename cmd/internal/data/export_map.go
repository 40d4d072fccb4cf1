package data

import (
	"github.com/OctopusSolutionsEngineering/GoCDTerraformExport/cmd/internal/hash"
	"go.uber.org/zap"
	"sync"
)

type ToHcl func() (string, error)

// ResourceDetails is used to capture the resources that are exported and the references between them.
// The process works like this:
// 1. Every exported pipeline is captured in a ResourceDetails from the admin API.
// 2. Every exported environment is captured in its own ResourceDetails.
// 3. Once all resources are captured, run ToHcl on each of them.
// 4. ToHcl converts the object to HCL, and uses the Lookup field of another ResourceDetails to reference it,
// e.g. an environment association references the pipeline it links when that pipeline was also exported.
type ResourceDetails struct {
	// Id is a stable identifier of the exported resource, derived from its type and name by ResourceId.
	// It is filled in by AddResource when left empty.
	Id string
	// Name is the GoCD name of the resource
	Name string
	// ResourceType is the type of GoCD resource, e.g. Environments or Pipelines
	ResourceType string
	// Lookup is the Terraform expression that references the resource, without the surrounding ${}
	Lookup string
	// FileName is the file that contains the exported resource
	FileName string
	// ToHcl is a function that generates the file contents for the resource
	ToHcl ToHcl
}

// ResourceDetailsCollection is shared by converters running in parallel, so it must be passed by pointer.
type ResourceDetailsCollection struct {
	Resources []ResourceDetails
	mu        sync.Mutex
}

// HasResource returns true if the resource with the name and resourceType exist in the collection, and false otherwise
func (c *ResourceDetailsCollection) HasResource(name string, resourceType string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.hasId(ResourceId(resourceType, name))
}

// AddResource adds resources to the collection. A resource that was already added is ignored, which happens
// when two exported environments reference the same pipeline.
func (c *ResourceDetailsCollection) AddResource(resource ...ResourceDetails) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.Resources == nil {
		c.Resources = []ResourceDetails{}
	}

	for _, r := range resource {
		if r.Id == "" {
			r.Id = ResourceId(r.ResourceType, r.Name)
		}

		if c.hasId(r.Id) {
			zap.L().Debug("Skipping duplicate " + r.ResourceType + " resource " + r.Name)
			continue
		}

		c.Resources = append(c.Resources, r)
	}
}

func (c *ResourceDetailsCollection) hasId(id string) bool {
	for _, r := range c.Resources {
		if r.Id == id {
			return true
		}
	}

	return false
}

// ResourceId is the stable identifier of a resource of the given type and name.
func ResourceId(resourceType string, name string) string {
	return hash.StableId(resourceType, name)
}

// GetAllResource returns a slice of resources in the collection of type resourceType
func (c *ResourceDetailsCollection) GetAllResource(resourceType string) []ResourceDetails {
	c.mu.Lock()
	defer c.mu.Unlock()

	resources := make([]ResourceDetails, 0)
	for _, r := range c.Resources {
		if r.ResourceType == resourceType {
			resources = append(resources, r)
		}
	}

	return resources
}

// GetResource returns the terraform reference for a given resource type and name.
// If the resource is not found, an empty string is returned and the caller is expected to fall back to the
// plain name of the resource.
func (c *ResourceDetailsCollection) GetResource(resourceType string, name string) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, r := range c.Resources {
		if r.Name == name && r.ResourceType == resourceType {
			return r.Lookup
		}
	}

	zap.L().Debug("No exported " + resourceType + " resource called " + name)

	return ""
}

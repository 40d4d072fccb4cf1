package gocd

import (
	"github.com/samber/lo"
	"strings"
)

type JobStructure struct {
	Name string `json:"name"`
}

type StageStructure struct {
	Name string         `json:"name"`
	Jobs []JobStructure `json:"jobs"`
}

type PipelineStructureEntry struct {
	Name   string           `json:"name"`
	Stages []StageStructure `json:"stages"`
}

type PipelineGroupStructure struct {
	Name      string                   `json:"name"`
	Pipelines []PipelineStructureEntry `json:"pipelines"`
}

type TemplateStructure struct {
	Name       string           `json:"name"`
	Parameters []string         `json:"parameters,omitempty"`
	Stages     []StageStructure `json:"stages"`
}

// PipelineStructure is the response of GET /api/internal/pipeline_structure: every pipeline group, the
// pipelines in it and their stages and jobs.
type PipelineStructure struct {
	Groups    []PipelineGroupStructure `json:"groups"`
	Templates []TemplateStructure      `json:"templates"`
}

// PipelineReference identifies a pipeline and the group it belongs to.
type PipelineReference struct {
	Group string
	Name  string
}

func (p PipelineReference) GetName() string {
	return p.Name
}

// Pipelines flattens the groups into pipeline references, in server order.
func (s PipelineStructure) Pipelines() []PipelineReference {
	return lo.FlatMap(s.Groups, func(group PipelineGroupStructure, index int) []PipelineReference {
		return lo.Map(group.Pipelines, func(pipeline PipelineStructureEntry, index int) PipelineReference {
			return PipelineReference{Group: group.Name, Name: pipeline.Name}
		})
	})
}

// FindPipeline matches names case insensitively, as the server does.
func (s PipelineStructure) FindPipeline(name string) (PipelineStructureEntry, bool) {
	for _, group := range s.Groups {
		for _, pipeline := range group.Pipelines {
			if strings.EqualFold(pipeline.Name, name) {
				return pipeline, true
			}
		}
	}

	return PipelineStructureEntry{}, false
}

// HasStage is used to check the upstream references of dependency materials and fetch tasks.
func (s PipelineStructure) HasStage(pipeline string, stage string) bool {
	entry, found := s.FindPipeline(pipeline)
	return found && lo.ContainsBy(entry.Stages, func(item StageStructure) bool {
		return strings.EqualFold(item.Name, stage)
	})
}

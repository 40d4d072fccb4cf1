package entry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/OctopusSolutionsEngineering/GoCDTerraformExport/cmd/internal/args"
	"github.com/OctopusSolutionsEngineering/GoCDTerraformExport/cmd/internal/client"
	"github.com/OctopusSolutionsEngineering/GoCDTerraformExport/cmd/internal/model/gocd"
	"github.com/OctopusSolutionsEngineering/GoCDTerraformExport/cmd/internal/validation"
	"go.uber.org/zap"
	"strings"
)

// ApplyEnvironmentEdits creates, deletes or changes the associations of each environment named by the
// -environment arguments.
func ApplyEnvironmentEdits(ctx context.Context, gocdClient client.GoCDClient, parseArgs args.Arguments) error {
	var agents []gocd.Agent

	if len(parseArgs.AddAgents) != 0 || len(parseArgs.RemoveAgents) != 0 {
		allAgents, err := gocdClient.GetAgents(ctx)

		if err != nil {
			return err
		}

		agents = allAgents
	}

	var structure *gocd.PipelineStructure

	if len(parseArgs.AddPipelines) != 0 {
		pipelineStructure, err := gocdClient.GetPipelineStructure(ctx)

		if err != nil {
			return err
		}

		structure = &pipelineStructure
	}

	for _, name := range parseArgs.Environments {
		if parseArgs.DeleteEnvironment {
			if err := deleteEnvironment(ctx, gocdClient, name); err != nil {
				return err
			}

			continue
		}

		if err := editEnvironment(ctx, gocdClient, name, agents, structure, parseArgs); err != nil {
			return err
		}
	}

	return nil
}

func deleteEnvironment(ctx context.Context, gocdClient client.GoCDClient, name string) error {
	message, err := gocdClient.DeleteEnvironment(ctx, name)

	var apiError *client.ApiError
	if errors.As(err, &apiError) && apiError.IsNotFound() {
		zap.L().Warn("Environment " + name + " does not exist")
		return nil
	}

	if err != nil {
		return err
	}

	zap.L().Info(message)
	return nil
}

func editEnvironment(ctx context.Context, gocdClient client.GoCDClient, name string, agents []gocd.Agent, structure *gocd.PipelineStructure, parseArgs args.Arguments) error {
	environment, exists, err := gocdClient.GetEnvironment(ctx, name)

	if err != nil {
		return err
	}

	if !exists {
		if !parseArgs.CreateEnvironment {
			return errors.New("the environment " + name + " does not exist, use -createEnvironment to create it")
		}

		environment, err = createEnvironment(ctx, gocdClient, name)

		if err != nil {
			return err
		}
	}

	updated, err := cloneEnvironment(environment)

	if err != nil {
		return err
	}

	for _, pipeline := range parseArgs.AddPipelines {
		pipelineName := pipeline

		if structure != nil {
			entry, found := structure.FindPipeline(pipeline)

			if !found {
				return errors.New("the pipeline " + pipeline + " does not exist")
			}

			pipelineName = entry.Name
		}

		updated.AddPipeline(pipelineName)
	}

	for _, pipeline := range parseArgs.RemovePipelines {
		if err := updated.RemovePipeline(pipeline); err != nil {
			return err
		}
	}

	for _, value := range parseArgs.AddAgents {
		agent, found := gocd.FindAgent(agents, value)

		if !found {
			return errors.New("the agent " + value + " does not exist")
		}

		if !agent.IsEnabled() {
			zap.L().Warn("Agent " + agent.Hostname + " is " + agent.AgentConfigState + " and will not run jobs in environment " + name + " until it is enabled")
		}

		updated.AddAgent(agent.Uuid, agent.Hostname)
	}

	for _, value := range parseArgs.RemoveAgents {
		uuid := value
		if agent, found := gocd.FindAgent(agents, value); found {
			uuid = agent.Uuid
		}

		if err := updated.RemoveAgent(uuid); err != nil {
			return err
		}
	}

	report := validation.Report{}
	updated.CollectErrors("", report)

	if !report.IsEmpty() {
		return fmt.Errorf("the environment %s is invalid:\n%s", name, report.String())
	}

	patch := gocd.DiffEnvironments(environment, updated)

	if patch.IsEmpty() {
		zap.L().Info("Environment " + name + " is unchanged")
		return nil
	}

	_, err = gocdClient.PatchEnvironment(ctx, name, patch)

	var apiError *client.ApiError
	if errors.As(err, &apiError) && apiError.IsPreconditionFailed() {
		return fmt.Errorf("the environment %s was changed on the server while it was being edited, run the command again: %w", name, err)
	}

	if err != nil {
		return err
	}

	zap.L().Info("Updated environment " + name + ": " + patchSummary(patch))
	return nil
}

func createEnvironment(ctx context.Context, gocdClient client.GoCDClient, name string) (*gocd.Environment, error) {
	environment := gocd.NewEnvironment(name)

	report := validation.Report{}
	environment.CollectErrors("", report)

	if !report.IsEmpty() {
		return nil, fmt.Errorf("the environment %s is invalid:\n%s", name, report.String())
	}

	created, err := gocdClient.CreateEnvironment(ctx, environment)

	if err != nil {
		if created != nil {
			serverReport := validation.Report{}
			created.CollectErrors("", serverReport)

			if !serverReport.IsEmpty() {
				return nil, fmt.Errorf("the server rejected the environment %s:\n%s", name, serverReport.String())
			}
		}

		return nil, err
	}

	zap.L().Info("Created environment " + name)
	return created, nil
}

// cloneEnvironment copies the environment so the edits can be compared with the server's copy.
func cloneEnvironment(environment *gocd.Environment) (*gocd.Environment, error) {
	content, err := json.Marshal(environment)

	if err != nil {
		return nil, err
	}

	clone := &gocd.Environment{}
	if err := json.Unmarshal(content, clone); err != nil {
		return nil, err
	}

	return clone, nil
}

func patchSummary(patch gocd.EnvironmentPatch) string {
	changes := []string{}

	appendChanges := func(action string, kind string, items []string) {
		if len(items) != 0 {
			changes = append(changes, action+" "+kind+" "+strings.Join(items, ", "))
		}
	}

	appendChanges("added", "pipelines", patch.Pipelines.Add)
	appendChanges("removed", "pipelines", patch.Pipelines.Remove)
	appendChanges("added", "agents", patch.Agents.Add)
	appendChanges("removed", "agents", patch.Agents.Remove)

	return strings.Join(changes, "; ")
}

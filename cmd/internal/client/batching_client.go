package client

import (
	"context"
	"github.com/OctopusSolutionsEngineering/GoCDTerraformExport/cmd/internal/model/gocd"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

type BatchingGoCDApiClient struct {
	Client GoCDClient
	// BatchSize is the number of pipeline configs requested concurrently. Defaults to 10.
	BatchSize int
}

type ResultError[T any] struct {
	Res T
	Err error
}

// GetPipelineConfigsBatch retrieves the configs of the named pipelines in small concurrent batches.
// Pipelines that no longer exist are skipped. The first error is sent on the channel and ends the stream.
func (c *BatchingGoCDApiClient) GetPipelineConfigsBatch(ctx context.Context, done <-chan struct{}, names []string) <-chan ResultError[*gocd.Pipeline] {
	batchSize := lo.Ternary(c.BatchSize <= 0, 10, c.BatchSize)
	chnl := make(chan ResultError[*gocd.Pipeline])

	go func() {
		defer func() {
			close(chnl)
		}()

		for _, batch := range lo.Chunk(names, batchSize) {
			pipelines := make([]*gocd.Pipeline, len(batch))

			g, groupCtx := errgroup.WithContext(ctx)
			for i, name := range batch {
				i, name := i, name
				g.Go(func() error {
					pipeline, exists, err := c.Client.GetPipelineConfig(groupCtx, name)
					if err != nil {
						return err
					}

					if exists {
						pipelines[i] = pipeline
					}

					return nil
				})
			}

			if err := g.Wait(); err != nil {
				select {
				case <-done:
				case chnl <- ResultError[*gocd.Pipeline]{Err: err}:
				}
				return
			}

			for _, pipeline := range pipelines {
				if pipeline == nil {
					continue
				}

				select {
				case <-done:
					// Any signal on the done channel means we should stop processing
					return
				case chnl <- ResultError[*gocd.Pipeline]{Res: pipeline}:
				}
			}
		}
	}()

	return chnl
}

package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

// WarmupWorkflowID is the fixed workflow ID so only one warm-up runs at a time.
const WarmupWorkflowID = "pokemap-catalog-warmup"

// WarmupInput is the input for the catalog warm-up workflow.
type WarmupInput struct {
	StartOffset int
	PageSize    int
	MaxPages    int // 0 means until the catalog is exhausted
}

// WarmupResult summarises a warm-up run.
type WarmupResult struct {
	Pages  int
	Warmed int
	Failed []string
}

// pagesPerRun bounds the history of a single run before continuing as new.
const pagesPerRun = 50

// CatalogWarmupWorkflow pages through the upstream catalog and loads every
// entity into the cache. Upstream failures are retried by the activity retry
// policy; entities that still fail are reported, not fatal.
func CatalogWarmupWorkflow(ctx workflow.Context, input WarmupInput) (*WarmupResult, error) {
	logger := workflow.GetLogger(ctx)
	if input.PageSize <= 0 {
		input.PageSize = 50
	}
	logger.Info("Starting catalog warm-up", "offset", input.StartOffset, "pageSize", input.PageSize)

	actOpts := workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:        time.Second,
			BackoffCoefficient:     2,
			MaximumAttempts:        5,
			NonRetryableErrorTypes: []string{ErrTypeInvalidArgument},
		},
	}
	ctx = workflow.WithActivityOptions(ctx, actOpts)

	result := &WarmupResult{}
	offset := input.StartOffset

	for {
		if input.MaxPages > 0 && result.Pages >= input.MaxPages {
			break
		}
		if result.Pages > 0 && result.Pages%pagesPerRun == 0 && input.MaxPages == 0 {
			logger.Info("Continuing warm-up as new", "offset", offset)
			return nil, workflow.NewContinueAsNewError(ctx, CatalogWarmupWorkflow, WarmupInput{
				StartOffset: offset,
				PageSize:    input.PageSize,
			})
		}

		var names []string
		if err := workflow.ExecuteActivity(ctx, "FetchNamesPage", offset, input.PageSize).Get(ctx, &names); err != nil {
			return result, err
		}
		if len(names) == 0 {
			break
		}

		var page WarmPageResult
		if err := workflow.ExecuteActivity(ctx, "WarmPokemon", names).Get(ctx, &page); err != nil {
			return result, err
		}
		result.Pages++
		result.Warmed += page.Warmed
		result.Failed = append(result.Failed, page.Failed...)

		offset += len(names)
		if len(names) < input.PageSize {
			break
		}
	}

	// Best effort: connected clients learn that the catalog is hot.
	if err := workflow.ExecuteActivity(ctx, "AnnounceWarmup", *result).Get(ctx, nil); err != nil {
		logger.Warn("warm-up announcement failed", "error", err)
	}

	logger.Info("Catalog warm-up finished", "pages", result.Pages, "warmed", result.Warmed, "failed", len(result.Failed))
	return result, nil
}

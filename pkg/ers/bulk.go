package ers

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/nuuday/NDCiscoISE/pkg/category"
)

// Bulk execution statuses reported by ERS.
const (
	BulkStatusCompleted  = "COMPLETED"
	BulkStatusInProgress = "IN_PROGRESS"
	BulkStatusFailed     = "FAIL"
)

// defaultBulkPollInterval paces WaitBulk's status polling. Polling is
// client-side waiting, but each poll is still a real API call and goes
// through the admission gate like everything else.
const defaultBulkPollInterval = 2 * time.Second

// SubmitBulk submits an asynchronous bulk request (up to 500 objects or
// 5000 single-id operations) to a category's bulk subtree. The payload
// is the pre-encoded XML bulk request body. Returns the server-assigned
// bulk id extracted from the 202 Location header.
func (c *Client) SubmitBulk(ctx context.Context, categoryName string, payload []byte) (string, error) {
	cat, err := category.Resolve(categoryName)
	if err != nil {
		return "", err
	}
	if !cat.SupportsBulk {
		return "", fmt.Errorf("%w: %s", ErrBulkUnsupported, categoryName)
	}
	if len(payload) == 0 {
		return "", fmt.Errorf("bulk payload cannot be empty")
	}

	outcome := c.executor.Execute(ctx, Descriptor{
		Verb:     VerbPut,
		URL:      c.baseURL + "/" + cat.BasePath + "/bulk/submit",
		Body:     RawBody(category.ContentTypeXML, payload),
		Category: categoryName,
	})
	if !outcome.OK() {
		return "", fmt.Errorf("submit bulk for %s: %w", categoryName, outcome.Err)
	}
	if outcome.BulkID == "" {
		return "", fmt.Errorf("submit bulk for %s: no bulk id in response (status %d)", categoryName, outcome.HTTPStatus)
	}

	c.logger.Info().
		Str("category", categoryName).
		Str("bulk_id", outcome.BulkID).
		Msg("Bulk request submitted")

	return outcome.BulkID, nil
}

// BulkStatus fetches the BulkStatus envelope for a submitted bulk
// request: execution status, per-resource results, success/fail counts.
func (c *Client) BulkStatus(ctx context.Context, categoryName, bulkID string) (Resource, error) {
	cat, err := category.Resolve(categoryName)
	if err != nil {
		return nil, err
	}
	if bulkID == "" {
		return nil, fmt.Errorf("bulk id cannot be empty")
	}

	outcome := c.executor.Execute(ctx, Descriptor{
		Verb:     VerbGet,
		URL:      c.baseURL + "/" + cat.BasePath + "/bulk/" + bulkID,
		Category: categoryName,
	})
	if !outcome.OK() {
		return nil, fmt.Errorf("bulk status %s/%s: %w", categoryName, bulkID, outcome.Err)
	}

	status, ok := outcome.Payload["BulkStatus"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("bulk status %s/%s: response missing BulkStatus envelope", categoryName, bulkID)
	}
	return status, nil
}

// WaitBulk polls BulkStatus until the request leaves IN_PROGRESS or the
// context expires. Returns the final BulkStatus envelope; a terminal
// state other than COMPLETED additionally reports ErrBulkIncomplete,
// with the envelope still returned for inspection.
func (c *Client) WaitBulk(ctx context.Context, categoryName, bulkID string) (Resource, error) {
	limiter := rate.NewLimiter(rate.Every(defaultBulkPollInterval), 1)

	for {
		if err := limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("wait for bulk %s/%s: %w", categoryName, bulkID, err)
		}

		status, err := c.BulkStatus(ctx, categoryName, bulkID)
		if err != nil {
			return nil, err
		}

		state, _ := status["executionStatus"].(string)
		if state == BulkStatusInProgress || state == "" {
			continue
		}

		c.logger.Info().
			Str("category", categoryName).
			Str("bulk_id", bulkID).
			Str("execution_status", state).
			Msg("Bulk request finished")

		if state != BulkStatusCompleted {
			return status, fmt.Errorf("bulk %s/%s finished %s: %w", categoryName, bulkID, state, ErrBulkIncomplete)
		}
		return status, nil
	}
}

package ers

import (
	"context"
	"fmt"
	"strings"

	"github.com/nuuday/NDCiscoISE/pkg/category"
)

// Special-purpose ERS endpoints that do not follow the generic category
// CRUD shape. All route through the pass-through path, so they obey the
// same gate as everything else.

// Version returns current and supported API versions for a category's
// subtree.
func (c *Client) Version(ctx context.Context, categoryName string) (Resource, error) {
	cat, err := category.Resolve(categoryName)
	if err != nil {
		return nil, err
	}

	outcome := c.Raw(ctx, VerbGet, cat.BasePath+"/versioninfo", NoBody)
	if !outcome.OK() {
		return nil, fmt.Errorf("version info for %s: %w", categoryName, outcome.Err)
	}

	info, ok := outcome.Payload["VersionInfo"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("version info for %s: response missing VersionInfo envelope", categoryName)
	}
	return info, nil
}

// ACIBindings retrieves all bindings exchanged between ISE and ACI.
// The optional filter supports only the CONTAINS mode, on one attribute
// (ip, sgt, vn, psn, learnedFrom, learnedBy).
func (c *Client) ACIBindings(ctx context.Context, filter string) ([]Resource, error) {
	path := "config/acibindings/getall"
	if filter != "" {
		if !strings.Contains(strings.ToLower(filter), "contains") {
			c.logger.Warn().Msg("ACI bindings only support the CONTAINS filter mode, ignoring filter")
		} else {
			if !strings.HasPrefix(filter, "filter=") {
				filter = "filter=" + filter
			}
			path += "?" + filter
		}
	}

	outcome := c.Raw(ctx, VerbGet, path, NoBody)
	if !outcome.OK() {
		return nil, fmt.Errorf("get ACI bindings: %w", outcome.Err)
	}

	raw, _ := outcome.Payload["ArrayList"].([]any)
	bindings := make([]Resource, 0, len(raw))
	for _, r := range raw {
		if m, ok := r.(map[string]any); ok {
			bindings = append(bindings, m)
		}
	}
	return bindings, nil
}

// RejectedEndpoints returns the endpoints currently rejected by ISE.
func (c *Client) RejectedEndpoints(ctx context.Context) ([]Resource, error) {
	outcome := c.Raw(ctx, VerbGet, "config/endpoint/getrejectedendpoints", NoBody)
	if !outcome.OK() {
		return nil, fmt.Errorf("get rejected endpoints: %w", outcome.Err)
	}

	operationResult, _ := outcome.Payload["OperationResult"].(map[string]any)
	raw, _ := operationResult["resultValue"].([]any)
	results := make([]Resource, 0, len(raw))
	for _, r := range raw {
		if m, ok := r.(map[string]any); ok {
			results = append(results, m)
		}
	}
	return results, nil
}

// ReleaseRejectedEndpoints releases one rejected endpoint per id,
// returning per-item outcomes in input order.
func (c *Client) ReleaseRejectedEndpoints(ctx context.Context, ids []string) (AggregatedResult, error) {
	return c.endpointAction(ctx, ids, "releaserejectedendpoint")
}

// DeregisterEndpoints de-registers one endpoint per id, returning
// per-item outcomes in input order.
func (c *Client) DeregisterEndpoints(ctx context.Context, ids []string) (AggregatedResult, error) {
	return c.endpointAction(ctx, ids, "deregister")
}

// RegisterEndpoints registers one endpoint per payload. The full
// endpoint payload is required.
func (c *Client) RegisterEndpoints(ctx context.Context, payloads []Resource) (AggregatedResult, error) {
	if len(payloads) == 0 {
		return AggregatedResult{}, ErrEmptyBatch
	}

	descriptors := make([]Descriptor, len(payloads))
	for i, payload := range payloads {
		descriptors[i] = Descriptor{
			Verb:     VerbPut,
			URL:      c.baseURL + "/config/endpoint/register",
			Body:     JSONBody(payload),
			Category: "endpoint",
		}
	}
	result := c.runFanOut(ctx, "endpoint", "register", descriptors)
	c.invalidate(ctx, "endpoint")
	return result, nil
}

// endpointAction fans out a body-less PUT action per endpoint id.
func (c *Client) endpointAction(ctx context.Context, ids []string, action string) (AggregatedResult, error) {
	if len(ids) == 0 {
		return AggregatedResult{}, ErrEmptyBatch
	}

	descriptors := make([]Descriptor, len(ids))
	for i, id := range ids {
		descriptors[i] = Descriptor{
			Verb:     VerbPut,
			URL:      c.baseURL + "/config/endpoint/" + id + "/" + action,
			Category: "endpoint",
		}
	}
	result := c.runFanOut(ctx, "endpoint", action, descriptors)
	c.invalidate(ctx, "endpoint")
	return result, nil
}

package ers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/nuuday/NDCiscoISE/pkg/auth"
	"github.com/nuuday/NDCiscoISE/pkg/ratelimit"
	"github.com/nuuday/NDCiscoISE/pkg/transport"
)

// Prometheus metrics for call execution.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ise_requests_total",
		Help: "Total ERS calls by verb and outcome",
	}, []string{"verb", "outcome"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ise_request_duration_seconds",
		Help:    "ERS call duration in seconds by verb",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
	}, []string{"verb"})
)

// Executor issues one physical call per Execute: acquire a gate ticket,
// send through the transport, classify the response. The ticket is
// always released before returning, success or failure.
type Executor struct {
	transport transport.Sender
	gate      *ratelimit.Gate
	creds     auth.Provider
	logger    zerolog.Logger
}

// NewExecutor creates an executor. Every call it makes passes through
// the gate; there is no bypass path.
func NewExecutor(sender transport.Sender, gate *ratelimit.Gate, creds auth.Provider, logger zerolog.Logger) *Executor {
	return &Executor{
		transport: sender,
		gate:      gate,
		creds:     creds,
		logger:    logger,
	}
}

// Execute performs one call and returns its classified outcome. Failure
// modes never escape as errors: cancellation while waiting at the gate,
// connection failures, and every HTTP status family all map to a
// CallOutcome value.
func (e *Executor) Execute(ctx context.Context, d Descriptor) CallOutcome {
	start := time.Now()
	defer func() {
		requestDuration.WithLabelValues(string(d.Verb)).Observe(time.Since(start).Seconds())
	}()

	body, err := d.Body.Encode()
	if err != nil {
		return e.record(d, CallOutcome{
			Status: StatusValidation,
			Err:    &APIError{Class: ErrorClassValidation, Message: "encode request body", Err: err},
		})
	}

	ticket, err := e.gate.Acquire(ctx)
	if err != nil {
		return e.record(d, CallOutcome{
			Status: StatusTransport,
			Err:    &APIError{Class: ErrorClassTransport, Message: "cancelled waiting for gate admission", Err: err},
		})
	}
	defer e.gate.Release(ticket)

	header := make(http.Header)
	header.Set("Content-Type", d.Body.ContentType())
	header.Set("Accept", "application/json")
	header.Set("Cache-Control", "no-cache")
	e.creds.Apply(header)

	// Once admitted, the exchange runs to completion even if the caller
	// cancels; the transport timeout still bounds it. Abandoned results
	// are discarded by the caller.
	resp, err := e.transport.Send(context.WithoutCancel(ctx), string(d.Verb), d.URL, header, body)
	if err != nil {
		return e.record(d, CallOutcome{
			Status: StatusTransport,
			Err:    &APIError{Class: ErrorClassTransport, Message: "transport failure", Err: err},
		})
	}

	return e.record(d, e.classifyResponse(d, resp))
}

// classifyResponse maps one HTTP response to a CallOutcome following
// ERS status semantics.
func (e *Executor) classifyResponse(d Descriptor, resp *transport.Response) CallOutcome {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return e.classifySuccess(resp)

	case resp.StatusCode == http.StatusNotFound:
		return CallOutcome{
			Status:     StatusNotFound,
			HTTPStatus: resp.StatusCode,
			Err: &APIError{
				StatusCode: resp.StatusCode,
				Class:      ErrorClassNotFound,
				Message:    "resource not found",
			},
		}

	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		operation, detail := errorDetail(resp.Body)
		return CallOutcome{
			Status:     StatusValidation,
			HTTPStatus: resp.StatusCode,
			Err: &APIError{
				StatusCode: resp.StatusCode,
				Class:      ErrorClassValidation,
				Operation:  operation,
				Message:    detail,
			},
		}

	default:
		_, detail := errorDetail(resp.Body)
		return CallOutcome{
			Status:     StatusServer,
			HTTPStatus: resp.StatusCode,
			Err: &APIError{
				StatusCode: resp.StatusCode,
				Class:      ErrorClassServer,
				Message:    detail,
			},
		}
	}
}

// classifySuccess handles the 2xx family:
//
//	200 with body -> decoded payload
//	201 Created   -> created id from the Location header
//	202 Accepted  -> bulk id from the Location header (segment after "submit/")
//	204 NoContent -> empty payload
func (e *Executor) classifySuccess(resp *transport.Response) CallOutcome {
	outcome := CallOutcome{Status: StatusSuccess, HTTPStatus: resp.StatusCode}

	switch resp.StatusCode {
	case http.StatusCreated:
		location := resp.Header.Get("Location")
		if idx := strings.LastIndex(location, "/"); idx >= 0 {
			outcome.Payload = Resource{"id": location[idx+1:]}
		}
		return outcome

	case http.StatusAccepted:
		location := resp.Header.Get("Location")
		if _, after, found := strings.Cut(location, "submit/"); found {
			outcome.BulkID = after
		}
		return outcome

	case http.StatusNoContent:
		return outcome
	}

	if len(resp.Body) == 0 {
		return outcome
	}

	var payload Resource
	if err := json.Unmarshal(resp.Body, &payload); err != nil {
		e.logger.Warn().
			Err(err).
			Int("status", resp.StatusCode).
			Msg("Response body is not valid JSON")
		return outcome
	}
	outcome.Payload = payload
	return outcome
}

// record updates metrics and logs, then passes the outcome through.
func (e *Executor) record(d Descriptor, outcome CallOutcome) CallOutcome {
	requestsTotal.WithLabelValues(string(d.Verb), string(outcome.Status)).Inc()

	if outcome.OK() {
		e.logger.Debug().
			Str("verb", string(d.Verb)).
			Str("category", d.Category).
			Int("status", outcome.HTTPStatus).
			Msg("Call complete")
		return outcome
	}

	e.logger.Warn().
		Err(outcome.Err).
		Str("verb", string(d.Verb)).
		Str("category", d.Category).
		Str("outcome", string(outcome.Status)).
		Int("status", outcome.HTTPStatus).
		Msg("Call failed")
	return outcome
}

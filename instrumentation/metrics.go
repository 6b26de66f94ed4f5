package instrumentation

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the metric instruments for the server engines. All Record*
// methods are safe on a nil receiver, which is how uninstrumented servers run.
type Metrics struct {
	// Client engine
	ClientsRegistered       metric.Int64Counter
	ClientValidationsFailed metric.Int64Counter

	// Authorization code engine
	CodesIssued       metric.Int64Counter
	CodesExchanged    metric.Int64Counter
	CodeReuseDetected metric.Int64Counter
	PKCEFailures      metric.Int64Counter

	// Token engine
	TokensIssued      metric.Int64Counter
	TokensRevoked     metric.Int64Counter
	TokenValidations  metric.Int64Counter
	IntrospectionHits metric.Int64Counter

	// Grant dispatch
	GrantRequests metric.Int64Counter

	// Registration throttling
	RateLimitExceeded metric.Int64Counter
}

// newMetrics creates and registers all instruments against the given meter.
func newMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	m.ClientsRegistered, err = meter.Int64Counter(
		"oauth.client.registered",
		metric.WithDescription("Number of clients registered"),
		metric.WithUnit("{client}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create client.registered counter: %w", err)
	}

	m.ClientValidationsFailed, err = meter.Int64Counter(
		"oauth.client.validation.failed",
		metric.WithDescription("Number of failed client secret validations"),
		metric.WithUnit("{failure}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create client.validation.failed counter: %w", err)
	}

	m.CodesIssued, err = meter.Int64Counter(
		"oauth.code.issued",
		metric.WithDescription("Number of authorization codes issued"),
		metric.WithUnit("{code}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create code.issued counter: %w", err)
	}

	m.CodesExchanged, err = meter.Int64Counter(
		"oauth.code.exchanged",
		metric.WithDescription("Number of authorization codes exchanged for tokens"),
		metric.WithUnit("{exchange}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create code.exchanged counter: %w", err)
	}

	m.CodeReuseDetected, err = meter.Int64Counter(
		"oauth.code.reuse.detected",
		metric.WithDescription("Number of attempts to replay a consumed authorization code"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create code.reuse.detected counter: %w", err)
	}

	m.PKCEFailures, err = meter.Int64Counter(
		"oauth.pkce.validation.failed",
		metric.WithDescription("Number of failed PKCE verifier checks"),
		metric.WithUnit("{failure}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create pkce.validation.failed counter: %w", err)
	}

	m.TokensIssued, err = meter.Int64Counter(
		"oauth.token.issued",
		metric.WithDescription("Number of token pairs issued"),
		metric.WithUnit("{token}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create token.issued counter: %w", err)
	}

	m.TokensRevoked, err = meter.Int64Counter(
		"oauth.token.revoked",
		metric.WithDescription("Number of tokens revoked"),
		metric.WithUnit("{revocation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create token.revoked counter: %w", err)
	}

	m.TokenValidations, err = meter.Int64Counter(
		"oauth.token.validated",
		metric.WithDescription("Number of token validations, by outcome"),
		metric.WithUnit("{validation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create token.validated counter: %w", err)
	}

	m.IntrospectionHits, err = meter.Int64Counter(
		"oauth.token.introspected",
		metric.WithDescription("Number of introspection requests, by active flag"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create token.introspected counter: %w", err)
	}

	m.GrantRequests, err = meter.Int64Counter(
		"oauth.grant.requests",
		metric.WithDescription("Number of token grant requests, by grant type"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create grant.requests counter: %w", err)
	}

	m.RateLimitExceeded, err = meter.Int64Counter(
		"oauth.ratelimit.exceeded",
		metric.WithDescription("Number of registrations rejected by the rate limiter"),
		metric.WithUnit("{rejection}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create ratelimit.exceeded counter: %w", err)
	}

	return m, nil
}

// RecordClientRegistered increments the client registration counter.
func (m *Metrics) RecordClientRegistered(ctx context.Context) {
	if m == nil {
		return
	}
	m.ClientsRegistered.Add(ctx, 1)
}

// RecordClientValidationFailed increments the failed validation counter.
func (m *Metrics) RecordClientValidationFailed(ctx context.Context) {
	if m == nil {
		return
	}
	m.ClientValidationsFailed.Add(ctx, 1)
}

// RecordCodeIssued increments the code issuance counter.
func (m *Metrics) RecordCodeIssued(ctx context.Context) {
	if m == nil {
		return
	}
	m.CodesIssued.Add(ctx, 1)
}

// RecordCodeExchanged increments the code exchange counter.
func (m *Metrics) RecordCodeExchanged(ctx context.Context) {
	if m == nil {
		return
	}
	m.CodesExchanged.Add(ctx, 1)
}

// RecordCodeReuse increments the replay detection counter.
func (m *Metrics) RecordCodeReuse(ctx context.Context) {
	if m == nil {
		return
	}
	m.CodeReuseDetected.Add(ctx, 1)
}

// RecordPKCEFailure increments the PKCE failure counter.
func (m *Metrics) RecordPKCEFailure(ctx context.Context) {
	if m == nil {
		return
	}
	m.PKCEFailures.Add(ctx, 1)
}

// RecordTokenIssued increments the token issuance counter for a grant type.
func (m *Metrics) RecordTokenIssued(ctx context.Context, grantType string) {
	if m == nil {
		return
	}
	m.TokensIssued.Add(ctx, 1, metric.WithAttributes(attribute.String("grant_type", grantType)))
}

// RecordTokenRevoked increments the revocation counter.
func (m *Metrics) RecordTokenRevoked(ctx context.Context) {
	if m == nil {
		return
	}
	m.TokensRevoked.Add(ctx, 1)
}

// RecordTokenValidation increments the validation counter with the outcome.
func (m *Metrics) RecordTokenValidation(ctx context.Context, valid bool) {
	if m == nil {
		return
	}
	m.TokenValidations.Add(ctx, 1, metric.WithAttributes(attribute.Bool("valid", valid)))
}

// RecordIntrospection increments the introspection counter with the result.
func (m *Metrics) RecordIntrospection(ctx context.Context, active bool) {
	if m == nil {
		return
	}
	m.IntrospectionHits.Add(ctx, 1, metric.WithAttributes(attribute.Bool("active", active)))
}

// RecordGrantRequest increments the grant dispatch counter for a grant type.
func (m *Metrics) RecordGrantRequest(ctx context.Context, grantType string) {
	if m == nil {
		return
	}
	m.GrantRequests.Add(ctx, 1, metric.WithAttributes(attribute.String("grant_type", grantType)))
}

// RecordRateLimitExceeded increments the registration throttle counter.
func (m *Metrics) RecordRateLimitExceeded(ctx context.Context) {
	if m == nil {
		return
	}
	m.RateLimitExceeded.Add(ctx, 1)
}

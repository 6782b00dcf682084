package billing

import (
	"context"

	"license-sync/pkg/config"
	"license-sync/pkg/errutil"
	"license-sync/services/license"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Service turns verified provider deliveries into license reconciliations.
// The error it returns decides the acknowledgment: nil means the delivery is
// acked even when the event itself was dropped, because a redelivery would
// fail the same way. Only signature failures and storage faults come back as
// errors, those are worth the provider retrying.
type Service struct {
	verifier *Verifier
	resolver CustomerResolver
	deduper  Deduper
	licenses *license.Service
}

type ServiceParams struct {
	fx.In
	Config   *config.Config
	Resolver CustomerResolver
	Deduper  Deduper `optional:"true"`
	Licenses *license.Service
}

func NewService(p ServiceParams) *Service {
	return &Service{
		verifier: NewVerifier(p.Config.Stripe.WebhookSecret, p.Config.Stripe.SignatureTolerance),
		resolver: p.Resolver,
		deduper:  p.Deduper,
		licenses: p.Licenses,
	}
}

// HandleEvent verifies, decodes, and applies one webhook delivery. payload
// must be the raw request body bytes.
func (s *Service) HandleEvent(ctx context.Context, payload []byte, signatureHeader string) error {
	zapLog := zap.L().With(traceFields(ctx)...)

	if err := s.verifier.Verify(payload, signatureHeader); err != nil {
		zapLog.Warn("webhook signature rejected", zap.Error(err))
		return errutil.BadRequest("webhook signature verification failed", err)
	}

	event, err := ParseEvent(payload)
	if err != nil {
		// Shape errors are terminal; redelivery would fail identically.
		zapLog.Warn("webhook payload dropped", zap.Error(err))
		return nil
	}

	if event.Kind == EventUnrecognized {
		zapLog.Debug("ignoring unrecognized event type", zap.String("event_id", event.ID))
		return nil
	}

	if s.deduper != nil {
		seen, err := s.deduper.Seen(ctx, event.ID)
		if err != nil {
			// Reconciliation is idempotent, so process anyway.
			zapLog.Warn("event dedup unavailable", zap.Error(err))
		} else if seen {
			zapLog.Info("skipping already processed event", zap.String("event_id", event.ID))
			return nil
		}
	}

	if err := s.apply(ctx, event); err != nil {
		// Not marked: the provider's retry must reach apply again.
		return err
	}

	if s.deduper != nil {
		if err := s.deduper.Mark(ctx, event.ID); err != nil {
			zapLog.Warn("failed to record processed event", zap.Error(err))
		}
	}

	return nil
}

func (s *Service) apply(ctx context.Context, event *Event) error {
	zapLog := zap.L().With(traceFields(ctx)...).With(
		zap.String("event_id", event.ID),
		zap.String("event_kind", string(event.Kind)),
	)

	switch event.Kind {
	case EventCheckoutCompleted:
		checkout := event.CheckoutCompleted

		email := checkout.Email
		if email == "" {
			resolved, err := s.resolver.Email(ctx, checkout.CustomerID)
			if err != nil {
				zapLog.Warn("dropping event, cannot resolve identity", zap.Error(err))
				return nil
			}
			email = resolved
		}

		if _, err := s.licenses.Activate(ctx, email, checkout.CustomerID, checkout.SubscriptionID); err != nil {
			return err
		}

	case EventInvoicePaid:
		invoice := event.InvoicePaid

		email, err := s.resolver.Email(ctx, invoice.CustomerID)
		if err != nil {
			zapLog.Warn("dropping event, cannot resolve identity", zap.Error(err))
			return nil
		}

		if _, err := s.licenses.Activate(ctx, email, invoice.CustomerID, invoice.SubscriptionID); err != nil {
			return err
		}

	case EventSubscriptionCanceled:
		canceled := event.SubscriptionCanceled

		email, err := s.resolver.Email(ctx, canceled.CustomerID)
		if err != nil {
			zapLog.Warn("dropping event, cannot resolve identity", zap.Error(err))
			return nil
		}

		if _, err := s.licenses.Deactivate(ctx, email); err != nil {
			return err
		}
	}

	zapLog.Info("billing event applied")
	return nil
}

func traceFields(ctx context.Context) []zap.Field {
	span := trace.SpanFromContext(ctx)
	if !span.SpanContext().IsValid() {
		return nil
	}

	return []zap.Field{
		zap.String("trace_id", span.SpanContext().TraceID().String()),
		zap.String("span_id", span.SpanContext().SpanID().String()),
	}
}

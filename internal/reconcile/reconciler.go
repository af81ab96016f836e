// Package reconcile converges IAM roles, managed policies and role
// attachments to a desired state.
//
// Each operation builds its own IAM client, then runs its steps inside a
// bounded retry loop. Permission and invalid-parameter failures end the loop
// at once; anything else is retried. Nothing is rolled back: a failure
// midway leaves whatever the provider already accepted.
package reconcile

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"

	awsiam "tasnim.dev/iamsync/internal/aws/iam"
	"tasnim.dev/iamsync/internal/metrics"
	"tasnim.dev/iamsync/internal/retry"
	"tasnim.dev/iamsync/internal/theme"
)

const (
	opEnsurePolicy   = "ensure_policy"
	opEnsureRole     = "ensure_role"
	opEnsureAttached = "ensure_attached"
	opGrant          = "grant"
)

// ClientFactory builds a fresh IAM client. It is called once per operation.
type ClientFactory func(ctx context.Context) (*awsiam.Client, error)

// Reconciler runs reconcile operations. It holds no per-call state and is
// safe for concurrent use; calls for the same role or policy are not
// coordinated with each other.
type Reconciler struct {
	newClient ClientFactory
	policy    retry.Policy
	logger    *zap.Logger
	out       io.Writer
}

type Option func(*Reconciler)

// WithRetryPolicy overrides retry.DefaultPolicy.
func WithRetryPolicy(p retry.Policy) Option {
	return func(r *Reconciler) { r.policy = p }
}

func WithLogger(l *zap.Logger) Option {
	return func(r *Reconciler) {
		if l != nil {
			r.logger = l.Named("reconcile")
		}
	}
}

// WithOutput sets where retry notices are printed. nil silences them.
func WithOutput(w io.Writer) Option {
	return func(r *Reconciler) { r.out = w }
}

func New(newClient ClientFactory, opts ...Option) *Reconciler {
	r := &Reconciler{
		newClient: newClient,
		policy:    retry.DefaultPolicy(),
		logger:    zap.NewNop(),
		out:       os.Stderr,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// retryable keeps retrying everything except errors guaranteed to repeat.
func retryable(err error) bool {
	return !awsiam.IsFatal(err)
}

type attemptFunc func(ctx context.Context, c *awsiam.Client) error

// run builds one client and drives step through the retry loop.
func (r *Reconciler) run(ctx context.Context, operation string, fields []zap.Field, step attemptFunc) error {
	c, err := r.newClient(ctx)
	if err != nil {
		err = fmt.Errorf("building IAM client: %w", err)
		r.record(operation, err)
		return err
	}

	notify := func(attempt int, err error, next time.Duration) {
		metrics.ReconcileRetriesTotal.WithLabelValues(operation).Inc()
		r.logger.Debug("attempt failed, retrying", append([]zap.Field{
			zap.String("operation", operation),
			zap.Int("attempt", attempt),
			zap.Duration("next", next),
			zap.Error(err),
		}, fields...)...)
		theme.Retry(r.out, attempt)
	}

	err = retry.Do(ctx, r.policy, retryable, notify, func(ctx context.Context, attempt int) error {
		return step(ctx, c)
	})
	r.record(operation, err)
	return err
}

func (r *Reconciler) record(operation string, err error) {
	result := "success"
	if err != nil {
		result = "error"
		if awsiam.KindOf(err) == awsiam.KindPermissionDenied {
			result = "denied"
		}
	}
	metrics.ReconcileTotal.WithLabelValues(operation, result).Inc()
}

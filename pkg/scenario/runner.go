package scenario

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/marmos91/sharecheck/internal/logger"
	"github.com/marmos91/sharecheck/internal/telemetry"
	"github.com/marmos91/sharecheck/pkg/apiclient"
	"github.com/marmos91/sharecheck/pkg/envelope"
	"github.com/marmos91/sharecheck/pkg/metrics"
	"github.com/marmos91/sharecheck/pkg/session"
)

// Defaults for runner options.
const (
	DefaultWorkers          = 1
	DefaultTeardownTimeout  = 60 * time.Second
	DefaultTeardownRetries  = 5
	DefaultTeardownInterval = 200 * time.Millisecond
)

// SessionProvider hands out the shared session. *session.Manager
// satisfies it.
type SessionProvider interface {
	Get(ctx context.Context) (*session.Session, error)
	Invalidate(s *session.Session)
}

// Runner executes cases against one appliance.
type Runner struct {
	sessions SessionProvider
	base     *apiclient.Client
	metrics  *metrics.Metrics
	namer    *Namer

	workers          int
	teardownTimeout  time.Duration
	teardownRetries  uint64
	teardownInterval time.Duration
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithWorkers sets how many cases run concurrently. Values below 1 are
// treated as 1.
func WithWorkers(n int) RunnerOption {
	return func(r *Runner) {
		if n < 1 {
			n = 1
		}
		r.workers = n
	}
}

// WithMetrics enables metrics collection.
func WithMetrics(m *metrics.Metrics) RunnerOption {
	return func(r *Runner) {
		r.metrics = m
	}
}

// WithTeardownTimeout bounds the teardown of one case.
func WithTeardownTimeout(d time.Duration) RunnerOption {
	return func(r *Runner) {
		if d > 0 {
			r.teardownTimeout = d
		}
	}
}

// WithTeardownRetry sets how often a teardown delete that failed in
// transport is retried, and the initial backoff interval.
func WithTeardownRetry(retries uint64, initial time.Duration) RunnerOption {
	return func(r *Runner) {
		r.teardownRetries = retries
		if initial > 0 {
			r.teardownInterval = initial
		}
	}
}

// WithNamer replaces the fresh name generator.
func WithNamer(n *Namer) RunnerOption {
	return func(r *Runner) {
		if n != nil {
			r.namer = n
		}
	}
}

// NewRunner creates a Runner. base carries the API address and transport
// settings; session cookies are added per request.
func NewRunner(sessions SessionProvider, base *apiclient.Client, opts ...RunnerOption) *Runner {
	r := &Runner{
		sessions:         sessions,
		base:             base,
		namer:            NewNamer(),
		workers:          DefaultWorkers,
		teardownTimeout:  DefaultTeardownTimeout,
		teardownRetries:  DefaultTeardownRetries,
		teardownInterval: DefaultTeardownInterval,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes cases and returns one Result per case, in declaration order.
//
// Assertion failures, transport failures and malformed responses are
// recorded on the case and the run continues. Malformed responses are also
// joined into the returned error. A login failure aborts the run: cases not
// yet started are marked skipped and the AuthenticationError is returned.
func (r *Runner) Run(ctx context.Context, cases []Case) ([]Result, error) {
	if err := ValidateMatrix(cases); err != nil {
		return nil, err
	}
	if r.workers > 1 {
		if err := checkLiteralConflicts(cases); err != nil {
			return nil, err
		}
	}
	for _, c := range cases {
		r.namer.Reserve(c.literals()...)
	}

	runID := uuid.NewString()
	ctx, span := telemetry.StartSpan(ctx, telemetry.SpanRun)
	defer span.End()
	telemetry.SetAttributes(ctx, telemetry.RunID(runID))
	ctx = logger.WithContext(ctx, logger.NewLogContext(runID).WithTrace(telemetry.TraceID(ctx)))

	logger.InfoCtx(ctx, "Run started", logger.KeyCases, len(cases), logger.KeyWorkers, r.workers)
	start := time.Now()

	results := make([]Result, len(cases))
	for i, c := range cases {
		results[i] = Result{Case: c, Skipped: true}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i := range cases {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			res := r.runCase(gctx, cases[i])
			results[i] = res
			if session.IsAuthenticationError(res.Err) {
				return res.Err
			}
			return nil
		})
	}
	abortErr := g.Wait()

	var runErr error
	if abortErr != nil {
		runErr = fmt.Errorf("%w: %w", ErrAborted, abortErr)
	} else if ctx.Err() != nil {
		runErr = fmt.Errorf("%w: %w", ErrAborted, ctx.Err())
	}
	for _, res := range results {
		if res.Err != nil && envelope.IsMalformed(res.Err) {
			runErr = multierr.Append(runErr, fmt.Errorf("case %q: %w", res.Case.Label, res.Err))
		}
	}

	sum := Summarize(results)
	r.metrics.ObserveRun(sum.OK(), time.Now())
	logger.InfoCtx(ctx, "Run finished",
		"passed", sum.Passed,
		"failed", sum.Failed,
		"errored", sum.Errored,
		"skipped", sum.Skipped,
		logger.DurationMs(logger.Duration(start)))
	if runErr != nil {
		telemetry.RecordError(ctx, runErr)
	}
	return results, runErr
}

// runCase executes one case. Teardown always runs before it returns.
func (r *Runner) runCase(ctx context.Context, c Case) (res Result) {
	start := time.Now()
	res.Case = c

	ctx = logger.WithContext(ctx, logger.FromContext(ctx).WithCase(c.Label))
	ctx, span := telemetry.StartCaseSpan(ctx, c.Label, c.Expect)
	defer span.End()

	scope := NewScope()
	defer func() {
		res.TeardownErr = r.teardown(ctx, scope)
		res.Duration = time.Since(start)
		r.record(ctx, res)
	}()

	names, err := r.resolveNames(c)
	if err != nil {
		res.Err = err
		return res
	}
	res.Names = names

	for i, st := range c.Setup {
		out, err := r.execute(ctx, scope, st, names)
		if err != nil {
			res.Err = fmt.Errorf("setup step %d (%s): %w", i, st.Op, err)
			return res
		}
		logger.DebugCtx(ctx, "Setup step done", logger.Operation(string(st.Op)), logger.ReturnCode(out.Code))
	}

	out, err := r.execute(ctx, scope, c.Test, names)
	if err != nil {
		res.Err = err
		return res
	}
	res.Outcome = out
	if c.Schema != nil {
		res.Violations = c.Schema.Verify(out)
	}
	res.Passed = out.Code == c.Expect && len(res.Violations) == 0
	return res
}

func (r *Runner) resolveNames(c Case) (map[string]string, error) {
	if len(c.Fresh) == 0 {
		return nil, nil
	}
	names := make(map[string]string, len(c.Fresh))
	for _, ref := range c.freshRefs() {
		name, err := r.namer.Name(c.Fresh[ref])
		if err != nil {
			return nil, fmt.Errorf("fresh name %q: %w", ref, err)
		}
		names[ref] = name
	}
	return names, nil
}

func resolve(st Step, names map[string]string) string {
	if ref, ok := st.ref(); ok {
		return names[ref]
	}
	return st.Name
}

// execute performs one step. A create registers the teardown delete before
// the request is sent, so a folder created by a request whose response is
// lost is still removed. The registration is dropped again when the
// appliance answers with a non-zero code, since nothing was created.
func (r *Runner) execute(ctx context.Context, scope *Scope, st Step, names map[string]string) (envelope.Outcome, error) {
	name := resolve(st, names)
	if st.Op != OpCreate {
		return r.call(ctx, st, name)
	}

	target := strings.TrimSpace(name)
	added := scope.Defer(target, func(ctx context.Context) error {
		return r.deleteWithRetry(ctx, target)
	})
	out, err := r.call(ctx, st, name)
	if added && err == nil && out.Code != envelope.CodeSuccess {
		scope.Forget(target)
	}
	return out, err
}

// call sends st and decodes the response. When the appliance rejects the
// session the session is invalidated and the request is sent once more
// with a fresh login.
func (r *Runner) call(ctx context.Context, st Step, name string) (envelope.Outcome, error) {
	op := string(st.Op)
	ctx = logger.WithContext(ctx, logger.FromContext(ctx).WithOperation(op, name))

	for attempt := 0; ; attempt++ {
		sess, err := r.sessions.Get(ctx)
		if err != nil {
			return envelope.Outcome{}, err
		}

		start := time.Now()
		raw, err := r.send(ctx, sess.Client(r.base), st, name)
		elapsed := time.Since(start)
		if err != nil {
			var te *apiclient.TransportError
			if errors.As(err, &te) && te.IsAuthError() {
				r.metrics.ObserveRequestFailure(op, metrics.OutcomeUnauthorized, elapsed)
				r.sessions.Invalidate(sess)
				if attempt == 0 {
					r.metrics.IncRelogin()
					logger.InfoCtx(ctx, "Session rejected, logging in again", logger.HTTPStatus(te.StatusCode))
					continue
				}
			} else {
				r.metrics.ObserveRequestFailure(op, metrics.OutcomeTransport, elapsed)
			}
			logger.WarnCtx(ctx, "Request failed", logger.Err(err))
			return envelope.Outcome{}, err
		}

		out, err := envelope.Decode(raw.Body, st.Op.Shape())
		if err != nil {
			r.metrics.ObserveRequestFailure(op, metrics.OutcomeMalformed, elapsed)
			logger.WarnCtx(ctx, "Malformed response", logger.HTTPStatus(raw.StatusCode), logger.Err(err))
			return envelope.Outcome{}, err
		}

		r.metrics.ObserveRequest(op, out.Code, elapsed)
		logger.DebugCtx(ctx, "Request done", logger.ReturnCode(out.Code), logger.DurationMs(float64(elapsed.Microseconds())/1000))
		return out, nil
	}
}

func (r *Runner) send(ctx context.Context, c *apiclient.Client, st Step, name string) (*apiclient.RawResponse, error) {
	switch st.Op {
	case OpCreate:
		return c.CreateSharedFolder(ctx, st.folder(name))
	case OpDelete:
		return c.DeleteSharedFolder(ctx, name)
	case OpEdit:
		return c.EditSharedFolder(ctx, st.folder(name))
	case OpStatistics:
		return c.GetRealtimeStatistic(ctx, st.category())
	default:
		return nil, fmt.Errorf("unknown operation %q", st.Op)
	}
}

// teardown closes scope on a context that survives cancellation of the run,
// bounded by the teardown timeout.
func (r *Runner) teardown(ctx context.Context, scope *Scope) error {
	if len(scope.Keys()) == 0 {
		return nil
	}
	tctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.teardownTimeout)
	defer cancel()
	return scope.Close(tctx)
}

// deleteWithRetry removes a folder created by a case. Return codes 0 and 34
// both mean the folder is gone. Transport failures are retried with
// exponential backoff; anything else is permanent.
func (r *Runner) deleteWithRetry(ctx context.Context, name string) error {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = r.teardownInterval
	eb.MaxElapsedTime = 0
	var b backoff.BackOff = backoff.WithContext(backoff.WithMaxRetries(eb, r.teardownRetries), ctx)

	op := func() error {
		out, err := r.call(ctx, Step{Op: OpDelete}, name)
		if err != nil {
			if apiclient.IsTransportError(err) {
				return err
			}
			return backoff.Permanent(err)
		}
		if out.Code != envelope.CodeSuccess && out.Code != envelope.CodeNotFound {
			return backoff.Permanent(fmt.Errorf("return code %d", out.Code))
		}
		return nil
	}
	notify := func(err error, next time.Duration) {
		r.metrics.IncTeardownRetry()
		logger.WarnCtx(ctx, "Teardown delete failed, retrying",
			logger.Folder(name), logger.KeyRetryIn, next.String(), logger.Err(err))
	}

	if err := backoff.RetryNotify(op, b, notify); err != nil {
		r.metrics.IncTeardownFailure()
		logger.ErrorCtx(ctx, "Teardown delete gave up", logger.Folder(name), logger.Err(err))
		return fmt.Errorf("delete %q: %w", name, err)
	}
	return nil
}

// record emits the log line, span attributes and metrics of a finished case.
func (r *Runner) record(ctx context.Context, res Result) {
	status := res.Status()
	telemetry.SetAttributes(ctx, telemetry.Passed(res.Passed))
	if res.Err != nil {
		telemetry.RecordError(ctx, res.Err)
	} else {
		telemetry.SetAttributes(ctx, telemetry.ReturnCode(res.Outcome.Code))
	}

	result := metrics.ResultPassed
	switch status {
	case StatusFailed:
		result = metrics.ResultFailed
	case StatusErrored:
		result = metrics.ResultErrored
	}
	r.metrics.ObserveCase(result, res.Duration)
	r.metrics.AddViolations(len(res.Violations))

	args := []any{
		logger.Expected(res.Case.Expect),
		logger.Passed(res.Passed),
		logger.DurationMs(float64(res.Duration.Microseconds()) / 1000),
	}
	switch status {
	case StatusPassed:
		logger.InfoCtx(ctx, "Case passed", append(args, logger.ReturnCode(res.Outcome.Code))...)
	case StatusFailed:
		args = append(args, logger.ReturnCode(res.Outcome.Code))
		if len(res.Violations) > 0 {
			args = append(args, logger.KeyViolations, len(res.Violations))
		}
		logger.WarnCtx(ctx, "Case failed", args...)
	default:
		logger.ErrorCtx(ctx, "Case errored", append(args, logger.Err(res.Err))...)
	}
	if res.TeardownErr != nil {
		logger.WarnCtx(ctx, "Case left folders behind", logger.Err(res.TeardownErr))
	}
}

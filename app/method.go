// Package app provides application services that orchestrate domain logic.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/artpar/scoreapi/core/schema"
	"github.com/artpar/scoreapi/core/validation"
	"github.com/artpar/scoreapi/domain/auth"
	"github.com/artpar/scoreapi/domain/method"
	"github.com/artpar/scoreapi/domain/rpc"
	"github.com/artpar/scoreapi/ports"
	"github.com/rs/zerolog"
)

// ReasonUnknownMethod is the auth failure reason for an unregistered method.
const ReasonUnknownMethod = "unknown_method"

// MethodDeps contains dependencies for MethodService.
type MethodDeps struct {
	Clock  ports.Clock
	Digest ports.Digest
	Scorer ports.Scorer
}

// MethodConfig contains configuration for MethodService.
type MethodConfig struct {
	Secrets auth.Secrets
}

// Call is one authenticated method invocation.
type Call struct {
	Envelope method.Envelope
	Admin    bool
	Context  *rpc.Context
}

// HandlerFunc runs one method. A returned *rpc.Error is sent to the
// client as is; any other error becomes INTERNAL_ERROR.
type HandlerFunc func(ctx context.Context, call Call) (any, error)

// MethodService authenticates method requests and dispatches them.
type MethodService struct {
	clock     ports.Clock
	digest    ports.Digest
	scorer    ports.Scorer
	validator *validation.Validator
	secrets   auth.Secrets
	handlers  map[string]HandlerFunc
	logger    zerolog.Logger
}

// NewMethodService creates a new method service with online_score and
// clients_interests registered.
func NewMethodService(deps MethodDeps, cfg MethodConfig, logger zerolog.Logger) *MethodService {
	s := &MethodService{
		clock:     deps.Clock,
		digest:    deps.Digest,
		scorer:    deps.Scorer,
		validator: validation.New(deps.Clock),
		secrets:   cfg.Secrets,
		logger:    logger,
	}
	s.handlers = map[string]HandlerFunc{
		method.OnlineScore:      s.onlineScore,
		method.ClientsInterests: s.clientsInterests,
	}
	return s
}

// Known reports whether name is a registered method.
func (s *MethodService) Known(name string) bool {
	_, ok := s.handlers[name]
	return ok
}

// Outcome represents the result of handling a method request.
type Outcome struct {
	Response any
	Error    *rpc.Error

	// Metadata (for logging and metrics)
	Method        string
	AuthFailure   string // reason, when authentication or routing failed
	InvalidSchema string // schema name, when validation failed
}

// Code returns the status code of the outcome.
func (o Outcome) Code() int {
	if o.Error != nil {
		return o.Error.Code
	}
	return rpc.OK
}

// Handle validates, authenticates and dispatches a decoded request body.
// Handler panics are recovered as INTERNAL_ERROR.
func (s *MethodService) Handle(ctx context.Context, body map[string]any, rctx *rpc.Context) (out Outcome) {
	if rctx == nil {
		rctx = rpc.NewContext("")
	}

	// 1. Validate envelope (PURE)
	record, errs := s.validator.Bind(method.EnvelopeSchema, body)
	if !errs.Empty() {
		return invalid(method.EnvelopeSchema, errs)
	}
	env := method.EnvelopeFrom(record)
	out.Method = env.Method

	// 2. Authenticate (PURE)
	result := auth.Check(env.Credentials(), s.secrets, s.clock.Now(), s.digest.Sum)
	if !result.Valid {
		out.Error = rpc.ErrForbidden
		out.AuthFailure = result.Reason
		return out
	}

	// 3. Route
	handler, ok := s.handlers[env.Method]
	if !ok {
		out.Error = rpc.ErrForbidden
		out.AuthFailure = ReasonUnknownMethod
		return out
	}

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().
				Str("request_id", rctx.RequestID).
				Str("method", env.Method).
				Interface("panic", r).
				Msg("method handler panicked")
			out.Response = nil
			out.Error = rpc.ErrInternal
		}
	}()

	// 4. Run handler (I/O)
	resp, err := handler(ctx, Call{Envelope: env, Admin: result.Admin, Context: rctx})
	if err != nil {
		var serr *schemaError
		if errors.As(err, &serr) {
			out.Error = rpc.Invalid(serr.Error())
			out.InvalidSchema = serr.schema
			return out
		}
		var rerr *rpc.Error
		if errors.As(err, &rerr) {
			out.Error = rerr
			return out
		}
		s.logger.Error().
			Err(err).
			Str("request_id", rctx.RequestID).
			Str("method", env.Method).
			Msg("method handler failed")
		out.Error = rpc.ErrInternal
		return out
	}

	out.Response = resp
	return out
}

// bind validates arguments against a method schema.
func (s *MethodService) bind(sc schema.Schema, args map[string]any) (schema.Record, error) {
	record, errs := s.validator.Bind(sc, args)
	if !errs.Empty() {
		return nil, &schemaError{schema: sc.Name(), errs: errs}
	}
	return record, nil
}

func (s *MethodService) onlineScore(ctx context.Context, call Call) (any, error) {
	record, err := s.bind(method.OnlineScoreSchema, call.Envelope.Arguments)
	if err != nil {
		return nil, err
	}

	args := method.ScoreArgsFrom(record)
	call.Context.Set("has", args.Has())

	if call.Admin {
		return map[string]any{"score": method.AdminScore}, nil
	}

	if !args.Scorable() {
		return nil, &schemaError{
			schema: method.OnlineScoreSchema.Name(),
			gating: method.UnmetMessage(args.Unmet()),
		}
	}

	return map[string]any{"score": s.scorer.Score(ctx, args.Profile())}, nil
}

func (s *MethodService) clientsInterests(ctx context.Context, call Call) (any, error) {
	record, err := s.bind(method.ClientsInterestsSchema, call.Envelope.Arguments)
	if err != nil {
		return nil, err
	}

	args := method.InterestsArgsFrom(record)
	call.Context.Set("nclients", len(args.ClientIDs))

	resp := make(map[string]any, len(args.ClientIDs))
	for _, id := range args.ClientIDs {
		interests, err := s.scorer.Interests(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("interests of client %d: %w", id, err)
		}
		resp[method.ClientKey(id)] = interests
	}
	return resp, nil
}

// schemaError is an INVALID_REQUEST outcome that remembers which schema
// rejected the input.
type schemaError struct {
	schema string
	errs   schema.Errors
	gating string
}

func (e *schemaError) Error() string {
	if e.gating != "" {
		return e.gating
	}
	return e.errs.Error()
}

func invalid(sc schema.Schema, errs schema.Errors) Outcome {
	return Outcome{Error: rpc.Invalid(errs.Error()), InvalidSchema: sc.Name()}
}

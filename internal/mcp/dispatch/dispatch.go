// Package dispatch resolves named operation invocations against the sealed
// registry, validates and coerces arguments, and wraps every outcome into a
// response envelope. Failures never escape the dispatcher: an invocation
// always terminates in exactly one response.
package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/clinovate/cliniko-mcp/internal/cliniko"
	"github.com/clinovate/cliniko-mcp/internal/mcp/registry"
)

// FaultKind classifies a failed invocation.
type FaultKind string

const (
	FaultUnknownOperation    FaultKind = "unknown_operation"
	FaultInvalidArgument     FaultKind = "invalid_argument"
	FaultNotFound            FaultKind = "not_found"
	FaultUnauthorized        FaultKind = "unauthorized"
	FaultUpstreamUnavailable FaultKind = "upstream_unavailable"
	FaultUpstreamRejected    FaultKind = "upstream_rejected"
	FaultTimeout             FaultKind = "timeout"
	FaultUnknown             FaultKind = "unknown"
)

// Fault describes why an invocation failed.
type Fault struct {
	Kind    FaultKind `json:"kind"`
	Message string    `json:"message"`
}

// Response is the envelope produced for every invocation.
type Response struct {
	OK      bool   `json:"ok"`
	Payload any    `json:"payload,omitempty"`
	Err     *Fault `json:"error,omitempty"`
}

// Dispatcher maps invocations onto registered operation handlers.
type Dispatcher struct {
	reg *registry.Registry
}

// New creates a dispatcher over a registry. The registry is expected to be
// sealed before the first Invoke.
func New(reg *registry.Registry) *Dispatcher {
	return &Dispatcher{reg: reg}
}

// Invoke resolves name, validates args against the operation's parameter
// schema, runs the handler, and returns the response envelope. Handler and
// gateway failures are classified into fault kinds; they are never returned
// as errors.
func (d *Dispatcher) Invoke(ctx context.Context, name string, args map[string]any) Response {
	op, err := d.reg.Resolve(name)
	if err != nil {
		return faultResponse(FaultUnknownOperation, fmt.Sprintf("operation %q is not registered", name))
	}

	coerced, fault := coerceArguments(op, args)
	if fault != nil {
		return Response{Err: fault}
	}

	payload, err := op.Handler(ctx, coerced)
	if err != nil {
		return Response{Err: classify(err)}
	}
	return Response{OK: true, Payload: payload}
}

// coerceArguments applies defaults, checks required parameters, and coerces
// values to their declared types. Unknown extra arguments are dropped; the
// handler only ever sees declared parameters.
func coerceArguments(op registry.Operation, args map[string]any) (map[string]any, *Fault) {
	coerced := make(map[string]any, len(op.Params))
	for _, param := range op.Params {
		value, present := args[param.Name]
		if !present || value == nil {
			if param.Required {
				return nil, &Fault{
					Kind:    FaultInvalidArgument,
					Message: fmt.Sprintf("missing required parameter %q", param.Name),
				}
			}
			if param.Default != nil {
				coerced[param.Name] = param.Default
			}
			continue
		}
		converted, err := coerceValue(param.Type, value)
		if err != nil {
			return nil, &Fault{
				Kind:    FaultInvalidArgument,
				Message: fmt.Sprintf("parameter %q: %v", param.Name, err),
			}
		}
		coerced[param.Name] = converted
	}
	return coerced, nil
}

// coerceValue converts a loosely-typed JSON value to the declared parameter
// type. Identifiers arrive as float64 from generic JSON decoding and as
// strings from some agent clients; both are accepted.
func coerceValue(t registry.ParamType, value any) (any, error) {
	switch t {
	case registry.TypeString:
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("expected string, got %T", value)
		}
		return s, nil
	case registry.TypeInt:
		switch v := value.(type) {
		case int64:
			return v, nil
		case int:
			return int64(v), nil
		case float64:
			n := int64(v)
			if float64(n) != v {
				return nil, fmt.Errorf("expected integer, got %v", v)
			}
			return n, nil
		case json.Number:
			n, err := v.Int64()
			if err != nil {
				return nil, fmt.Errorf("expected integer, got %q", v.String())
			}
			return n, nil
		case string:
			n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
			if err != nil {
				return nil, fmt.Errorf("expected integer, got %q", v)
			}
			return n, nil
		default:
			return nil, fmt.Errorf("expected integer, got %T", value)
		}
	case registry.TypeObject:
		m, ok := value.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("expected object, got %T", value)
		}
		return m, nil
	default:
		return nil, fmt.Errorf("unsupported parameter type %d", t)
	}
}

// classify maps a handler failure into a fault kind. Gateway errors carry
// their own classification; everything else degrades to timeout or unknown.
func classify(err error) *Fault {
	var upstream *cliniko.Error
	if errors.As(err, &upstream) {
		kind := FaultUnknown
		switch upstream.Kind {
		case cliniko.KindNotFound:
			kind = FaultNotFound
		case cliniko.KindUnauthorized:
			kind = FaultUnauthorized
		case cliniko.KindUnavailable:
			kind = FaultUpstreamUnavailable
		case cliniko.KindRejected:
			kind = FaultUpstreamRejected
		case cliniko.KindTimeout:
			kind = FaultTimeout
		}
		return &Fault{Kind: kind, Message: upstream.Message}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &Fault{Kind: FaultTimeout, Message: err.Error()}
	}
	return &Fault{Kind: FaultUnknown, Message: err.Error()}
}

func faultResponse(kind FaultKind, message string) Response {
	return Response{Err: &Fault{Kind: kind, Message: message}}
}

// Package dispatch routes gateway-style requests to operation handlers and
// guarantees every call ends in a structured response.
package dispatch

import (
	"context"
	"encoding/json"
	"net/http"
	"runtime/debug"

	"go.uber.org/zap"

	"github.com/spec-kit/user-service/internal/domain"
	apperrors "github.com/spec-kit/user-service/pkg/util/errorutil"
)

// Resource templates served by the users API.
const (
	ResourceUsers      = "/user"
	ResourceCreateUser = "/user/create"
	ResourceUserByID   = "/user/{userId}"
)

const (
	MsgNoSuchMethod  = "No Such Method"
	MsgInternalError = "Internal Error Occured"
)

// Request is one inbound call: the matched resource template plus everything
// the handlers read from it.
type Request struct {
	Method                string
	Resource              string
	PathParameters        map[string]string
	QueryStringParameters map[string]string
	Body                  string
	Caller                *domain.Principal
}

// PathParam returns a path parameter or "".
func (r Request) PathParam(name string) string {
	return r.PathParameters[name]
}

// Query returns a query parameter and whether it was sent.
func (r Request) Query(name string) (string, bool) {
	val, ok := r.QueryStringParameters[name]
	return val, ok
}

// Response is the transport-neutral envelope. Body is serialized JSON.
type Response struct {
	StatusCode int    `json:"statusCode"`
	Body       string `json:"body"`
}

type messageBody struct {
	Message string `json:"message"`
}

// Respond builds a response with payload serialized as JSON.
func Respond(status int, payload any) Response {
	body, err := json.Marshal(payload)
	if err != nil {
		body, _ = json.Marshal(messageBody{Message: MsgInternalError})
		status = http.StatusInternalServerError
	}
	return Response{StatusCode: status, Body: string(body)}
}

// Message builds a response whose body is {"message": msg}.
func Message(status int, msg string) Response {
	return Respond(status, messageBody{Message: msg})
}

// HandlerFunc implements one operation. Returned DomainErrors below 500 are
// rendered with their own status and message; anything else becomes a
// generic 500.
type HandlerFunc func(ctx context.Context, req Request) (Response, error)

type route struct {
	resource string
	method   string
}

// Dispatcher maps (resource, method) pairs to handlers.
type Dispatcher struct {
	routes map[route]HandlerFunc
	logger *zap.Logger
}

// New returns an empty dispatcher.
func New(logger *zap.Logger) *Dispatcher {
	return &Dispatcher{routes: make(map[route]HandlerFunc), logger: logger.Named("dispatch")}
}

// Handle registers h for resource and method.
func (d *Dispatcher) Handle(resource, method string, h HandlerFunc) {
	d.routes[route{resource: resource, method: method}] = h
}

// Has reports whether a handler is registered for resource and method.
func (d *Dispatcher) Has(resource, method string) bool {
	_, ok := d.routes[route{resource: resource, method: method}]
	return ok
}

// Dispatch runs the handler for req and never panics.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) (resp Response) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("panic recovered",
				zap.String("resource", req.Resource),
				zap.String("method", req.Method),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()))
			resp = Message(http.StatusInternalServerError, MsgInternalError)
		}
	}()

	h, ok := d.routes[route{resource: req.Resource, method: req.Method}]
	if !ok {
		return Message(http.StatusNotFound, MsgNoSuchMethod)
	}

	resp, err := h(ctx, req)
	if err != nil {
		return d.renderError(req, err)
	}
	return resp
}

func (d *Dispatcher) renderError(req Request, err error) Response {
	if domainErr, ok := apperrors.AsDomainError(err); ok && domainErr.HTTPStatus < http.StatusInternalServerError {
		return Message(domainErr.HTTPStatus, domainErr.Message)
	}
	d.logger.Error("request failed",
		zap.String("resource", req.Resource),
		zap.String("method", req.Method),
		zap.Error(err))
	return Message(http.StatusInternalServerError, MsgInternalError)
}

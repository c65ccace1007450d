package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/user-service/internal/api/dispatch"
	"github.com/spec-kit/user-service/internal/auth"
)

// gateway adapts fiber requests to the transport-neutral dispatcher. Every
// method is accepted; unsupported pairs answer No Such Method before the
// caller is authenticated.
func gateway(d *dispatch.Dispatcher, authn *auth.AuthMiddleware, resource string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !d.Has(resource, c.Method()) {
			return noSuchMethod(c)
		}
		if err := authn.Authenticate(c); err != nil {
			return err
		}

		req := dispatch.Request{
			Method:                c.Method(),
			Resource:              resource,
			PathParameters:        map[string]string{},
			QueryStringParameters: c.Queries(),
			Body:                  string(c.Body()),
		}
		if userID := c.Params("userId"); userID != "" {
			req.PathParameters["userId"] = userID
		}
		if caller, ok := auth.PrincipalFromContext(c); ok {
			req.Caller = caller
		}

		resp := d.Dispatch(c.UserContext(), req)
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSONCharsetUTF8)
		return c.Status(resp.StatusCode).SendString(resp.Body)
	}
}

func noSuchMethod(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": dispatch.MsgNoSuchMethod})
}

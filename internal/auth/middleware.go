package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

const actorLocalKey = "actor"

// Authenticate validates the bearer token and stores the resulting Actor in
// the request locals for downstream handlers.
func Authenticate(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(header, "Bearer ") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing bearer token"})
		}

		actor, err := ParseToken(secret, strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid token"})
		}

		c.Locals(actorLocalKey, actor)
		return c.Next()
	}
}

// Authorize restricts a route to the given roles. Must run after
// Authenticate.
func Authorize(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok := c.Locals(actorLocalKey).(Actor)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing bearer token"})
		}
		for _, role := range roles {
			if actor.Role == role {
				return c.Next()
			}
		}
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden"})
	}
}

// ActorFromCtx returns the authenticated actor placed by Authenticate.
func ActorFromCtx(c *fiber.Ctx) (Actor, bool) {
	actor, ok := c.Locals(actorLocalKey).(Actor)
	return actor, ok
}

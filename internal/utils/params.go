package utils

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// CopyParam returns a route parameter that stays valid after the request completes.
func CopyParam(c *fiber.Ctx, key string) string {
	return strings.Clone(c.Params(key))
}

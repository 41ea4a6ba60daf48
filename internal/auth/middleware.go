package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"culturecompass/internal/route"
)

const identityKey = "identity"

// JWTMiddleware validates bearer access tokens and stores user_id and the
// caller identity in locals.
func JWTMiddleware(secret string) fiber.Handler {
	return jwtMiddleware([]byte(secret), true)
}

// OptionalJWTMiddleware is JWTMiddleware for routes that also serve
// anonymous callers. A missing token passes through; a bad one is rejected.
func OptionalJWTMiddleware(secret string) fiber.Handler {
	return jwtMiddleware([]byte(secret), false)
}

func jwtMiddleware(secret []byte, required bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := bearerFromHeader(c.Get("Authorization"))
		if token == "" {
			if required {
				return fiber.NewError(fiber.StatusUnauthorized, "missing bearer token")
			}
			return c.Next()
		}

		parsed, err := parseMiddlewareClaimsFn(token, &Claims{}, func(_ *jwt.Token) (interface{}, error) {
			return secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, err.Error())
		}

		claims, ok := parsed.Claims.(*Claims)
		if !ok || !parsed.Valid || claims.Purpose != "" {
			return fiber.NewError(fiber.StatusUnauthorized, "token invalid")
		}

		SetIdentity(c, route.Identity{
			ID:          claims.UserID,
			DisplayName: claims.DisplayName,
			AvatarURL:   claims.AvatarURL,
		})
		return c.Next()
	}
}

var parseMiddlewareClaimsFn = jwt.ParseWithClaims

// SetIdentity stores the caller for downstream handlers.
func SetIdentity(c *fiber.Ctx, id route.Identity) {
	c.Locals("user_id", id.ID)
	c.Locals(identityKey, id)
}

// IdentityFrom returns the caller set by the middleware, or the zero
// identity for anonymous requests.
func IdentityFrom(c *fiber.Ctx) route.Identity {
	id, _ := c.Locals(identityKey).(route.Identity)
	return id
}

func bearerFromHeader(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

package serverutils

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// Locals keys set by JwtMiddleware.
const (
	LocalUserID = "user_id"
	LocalBearer = "bearer"
)

// JwtMiddleware verifies the bearer token and stores the caller's id under
// LocalUserID. The raw token is kept under LocalBearer so it can be forwarded
// to the commerce backend.
func JwtMiddleware(secret string) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		authHeader := ctx.Get("Authorization")
		if len(authHeader) < 7 || !strings.EqualFold(authHeader[:7], "Bearer ") {
			return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(fiber.StatusUnauthorized, "Missing token"))
		}
		tokenStr := strings.TrimSpace(authHeader[7:])

		token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
			return []byte(secret), nil
		}, jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}))
		if err != nil || !token.Valid {
			return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(fiber.StatusUnauthorized, "Invalid token"))
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(fiber.StatusUnauthorized, "Invalid claims"))
		}
		userID := claimUserID(claims)
		if userID == "" {
			return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(fiber.StatusUnauthorized, "Invalid claims"))
		}

		ctx.Locals(LocalUserID, userID)
		ctx.Locals(LocalBearer, tokenStr)
		return ctx.Next()
	}
}

// claimUserID reads user_id, falling back to sub. Numeric ids become strings.
func claimUserID(claims jwt.MapClaims) string {
	for _, key := range []string{"user_id", "sub"} {
		switch v := claims[key].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return fmt.Sprintf("%.0f", v)
		}
	}
	return ""
}

// UserID returns the id stored by JwtMiddleware.
func UserID(ctx *fiber.Ctx) string {
	id, _ := ctx.Locals(LocalUserID).(string)
	return id
}

// Bearer returns the raw token stored by JwtMiddleware.
func Bearer(ctx *fiber.Ctx) string {
	tok, _ := ctx.Locals(LocalBearer).(string)
	return tok
}

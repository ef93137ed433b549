package serverutils

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const accountIDKey = "account_id"

// JwtMiddleware accepts HS256 bearer tokens signed with secret and stores the
// organizer's account id from the account_id claim.
func JwtMiddleware(secret string) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		authHeader := ctx.Get("Authorization")
		if len(authHeader) < 7 || authHeader[:7] != "Bearer " {
			return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(fiber.StatusUnauthorized, "Missing token"))
		}
		tokenStr := authHeader[7:]

		token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(fiber.StatusUnauthorized, "Invalid token"))
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(fiber.StatusUnauthorized, "Invalid claims"))
		}
		raw, _ := claims[accountIDKey].(string)
		accountId, err := uuid.Parse(raw)
		if err != nil {
			return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(fiber.StatusUnauthorized, "Invalid claims"))
		}

		ctx.Locals(accountIDKey, accountId)
		return ctx.Next()
	}
}

// AccountID returns the account set by JwtMiddleware, or uuid.Nil.
func AccountID(ctx *fiber.Ctx) uuid.UUID {
	id, _ := ctx.Locals(accountIDKey).(uuid.UUID)
	return id
}

// SignToken issues a token JwtMiddleware accepts. Used by tooling and tests.
func SignToken(secret string, accountId uuid.UUID) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		accountIDKey: accountId.String(),
	}).SignedString([]byte(secret))
}

package middleware

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/golang-jwt/jwt/v4"
)

// GetManagerIDFromContext извлекает manager_id из claims токена.
// Числовые claims приходят как float64, но допускаем и строку.
func GetManagerIDFromContext(ctx context.Context) (int, error) {
	claims, ok := ctx.Value(managerContextKey).(jwt.MapClaims)
	if !ok {
		return 0, errors.New("manager claims not found in context or invalid type")
	}

	idClaim, ok := claims[jwtClaimManagerID]
	if !ok {
		return 0, fmt.Errorf("missing '%s' claim in token", jwtClaimManagerID)
	}

	idFloat, ok := idClaim.(float64)
	if !ok {
		if idStr, okStr := idClaim.(string); okStr {
			if id, err := strconv.Atoi(idStr); err == nil && id > 0 {
				return id, nil
			}
		}
		return 0, fmt.Errorf("invalid type for '%s' claim: expected float64 or string, got %T", jwtClaimManagerID, idClaim)
	}

	if idFloat != float64(int(idFloat)) {
		return 0, fmt.Errorf("'%s' claim is not an integer: %f", jwtClaimManagerID, idFloat)
	}
	id := int(idFloat)
	if id <= 0 {
		return 0, fmt.Errorf("invalid manager ID value in '%s' claim: %d", jwtClaimManagerID, id)
	}
	return id, nil
}

// WithManagerID — для тестов и внутренних вызовов.
func WithManagerID(ctx context.Context, managerID int) context.Context {
	return context.WithValue(ctx, managerContextKey, jwt.MapClaims{
		jwtClaimManagerID: float64(managerID),
	})
}

package shared

import "context"

// Claims are stored in the request context by the authentication middleware.
const ClaimsKey = "claims"

func GetUserId(ctx context.Context) string {
	claims, ok := ctx.Value(ClaimsKey).(map[string]interface{})
	if !ok {
		return ""
	}
	userId, _ := claims["userId"].(string)
	return userId
}

func GetRoles(ctx context.Context) []string {
	claims, ok := ctx.Value(ClaimsKey).(map[string]interface{})
	if !ok {
		return nil
	}
	switch v := claims["roles"].(type) {
	case []string:
		return v
	case []interface{}:
		roles := make([]string, 0, len(v))
		for _, role := range v {
			if s, ok := role.(string); ok {
				roles = append(roles, s)
			}
		}
		return roles
	}
	return nil
}

func HasRole(ctx context.Context, role string) bool {
	for _, r := range GetRoles(ctx) {
		if r == role {
			return true
		}
	}
	return false
}

func ContextWithClaims(ctx context.Context, userId string, roles []string) context.Context {
	return context.WithValue(ctx, ClaimsKey, map[string]interface{}{
		"userId": userId,
		"roles":  roles,
	})
}

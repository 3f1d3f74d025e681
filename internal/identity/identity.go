package identity

import (
	"fmt"
	"strconv"

	"replyhub/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

// ActorFromToken derives the local user from the bearer credential issued
// by the external auth collaborator. Signature verification belongs to that
// collaborator and the server re-checks every request, so only the claims
// are read here.
func ActorFromToken(token string) (models.UserSummary, error) {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return models.UserSummary{}, fmt.Errorf("identity: parse bearer token: %w", err)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return models.UserSummary{}, fmt.Errorf("identity: unexpected claims type")
	}

	userID := subjectClaim(claims)
	if userID == "" {
		return models.UserSummary{}, fmt.Errorf("identity: token has no subject claim")
	}

	actor := models.UserSummary{
		ID:          userID,
		Username:    stringClaim(claims, "username"),
		DisplayName: stringClaim(claims, "display_name"),
	}
	if actor.DisplayName == "" {
		actor.DisplayName = stringClaim(claims, "name")
	}
	if avatar := stringClaim(claims, "avatar_url"); avatar != "" {
		actor.AvatarURL = &avatar
	}
	return actor, nil
}

func subjectClaim(claims jwt.MapClaims) string {
	switch sub := claims["sub"].(type) {
	case string:
		return sub
	case float64:
		return strconv.FormatInt(int64(sub), 10)
	default:
		return ""
	}
}

func stringClaim(claims jwt.MapClaims, key string) string {
	if v, ok := claims[key].(string); ok {
		return v
	}
	return ""
}

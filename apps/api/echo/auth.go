package echoapi

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/coursehub/core/policy"
	"github.com/trezcool/coursehub/core/token"
)

const (
	authScheme         = "Bearer"
	contextIdentityKey = "identity"
)

// authMiddleware rejects requests without a valid bearer token and stores the caller's Identity in the context.
func authMiddleware(tokens *token.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			tkn, ok := bearerToken(ctx.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				return errMissingToken
			}
			id, err := tokens.Verify(tkn)
			if err != nil {
				return errInvalidToken
			}
			ctx.Set(contextIdentityKey, id)
			return next(ctx)
		}
	}
}

func bearerToken(header string) (string, bool) {
	l := len(authScheme)
	if len(header) > l+1 && strings.EqualFold(header[:l], authScheme) && header[l] == ' ' {
		if tkn := strings.TrimSpace(header[l+1:]); tkn != "" {
			return tkn, true
		}
	}
	return "", false
}

func getContextIdentity(ctx echo.Context) (token.Identity, bool) {
	id, ok := ctx.Get(contextIdentityKey).(token.Identity)
	return id, ok
}

// getContextCaller returns the policy view of the caller; anonymous when no token was verified.
func getContextCaller(ctx echo.Context) policy.Caller {
	id, ok := getContextIdentity(ctx)
	if !ok {
		return policy.Caller{}
	}
	return policy.Caller{ID: id.UserID, Role: id.Role, Authenticated: true}
}

// authorize fails with errHttpForbidden unless the policy allows the caller to perform op.
func authorize(ctx echo.Context, op policy.Operation, facts policy.Facts) error {
	if policy.Authorize(op, getContextCaller(ctx), facts) == policy.Allow {
		return nil
	}
	return errHttpForbidden
}

package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/auth0/go-jwt-middleware/v2"
	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/gin-gonic/gin"
	"github.com/washwala/laundry-api/config"
	"github.com/washwala/laundry-api/logging"
	"github.com/washwala/laundry-api/models"
	"github.com/washwala/laundry-api/services"
)

const actorKey = "actor"

// CustomClaims contains the application claims carried next to "sub".
type CustomClaims struct {
	Role      string `json:"role"`
	LaundryID uint   `json:"laundry_id,omitempty"`
}

// Validate rejects tokens whose role cannot be mapped to an actor.
func (c *CustomClaims) Validate(ctx context.Context) error {
	switch c.Role {
	case models.RoleCustomer, models.RoleAdmin:
		return nil
	case models.RoleLaundry:
		if c.LaundryID == 0 {
			return errors.New("laundry token without laundry_id")
		}
		return nil
	default:
		return fmt.Errorf("unknown role %q", c.Role)
	}
}

// NewValidator builds the HS256 token validator shared by the middleware and tests.
func NewValidator(cfg *config.Config) (*validator.Validator, error) {
	secret := []byte(cfg.JWTSecret)
	return validator.New(
		func(context.Context) (interface{}, error) { return secret, nil },
		validator.HS256,
		cfg.JWTIssuer,
		[]string{cfg.JWTAudience},
		validator.WithCustomClaims(func() validator.CustomClaims {
			return &CustomClaims{}
		}),
		validator.WithAllowedClockSkew(time.Minute),
	)
}

// EnsureValidToken is a middleware that validates the bearer JWT and stores
// the resulting actor in the Gin context.
func EnsureValidToken(cfg *config.Config) (gin.HandlerFunc, error) {
	jwtValidator, err := NewValidator(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to set up the jwt validator: %w", err)
	}

	errorHandler := func(w http.ResponseWriter, r *http.Request, err error) {
		logging.FromContext(r.Context(), nil).Warn("rejected token", "error", err)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"success":false,"error":{"code":"INVALID_TOKEN","message":"Failed to validate JWT."}}`))
	}

	checker := jwtmiddleware.New(
		jwtValidator.ValidateToken,
		jwtmiddleware.WithErrorHandler(errorHandler),
	)

	return func(c *gin.Context) {
		passed := false
		var handler http.HandlerFunc = func(w http.ResponseWriter, r *http.Request) {
			passed = true
			claims := r.Context().Value(jwtmiddleware.ContextKey{}).(*validator.ValidatedClaims)

			actor, err := actorFromClaims(claims)
			if err != nil {
				abortUnauthorized(c, "INVALID_TOKEN", err.Error())
				return
			}
			SetActor(c, actor)
			c.Next()
		}

		checker.CheckJWT(handler).ServeHTTP(c.Writer, c.Request)
		if !passed {
			c.Abort()
		}
	}, nil
}

func actorFromClaims(claims *validator.ValidatedClaims) (services.Actor, error) {
	userID, err := strconv.ParseUint(claims.RegisteredClaims.Subject, 10, 64)
	if err != nil || userID == 0 {
		return services.Actor{}, errors.New("subject is not a user id")
	}
	custom, ok := claims.CustomClaims.(*CustomClaims)
	if !ok {
		return services.Actor{}, errors.New("missing custom claims")
	}

	switch custom.Role {
	case models.RoleCustomer:
		return services.Customer(uint(userID)), nil
	case models.RoleLaundry:
		return services.LaundryOwner(uint(userID), custom.LaundryID), nil
	case models.RoleAdmin:
		return services.Admin(uint(userID)), nil
	}
	return services.Actor{}, fmt.Errorf("unknown role %q", custom.Role)
}

// SetActor stores the authenticated caller in the Gin context
func SetActor(c *gin.Context, actor services.Actor) {
	c.Set(actorKey, actor)
	if c.Request == nil {
		return
	}
	ctx := c.Request.Context()
	log := logging.FromContext(ctx, nil).With("user_id", actor.UserID, "role", actor.Kind.String())
	c.Request = c.Request.WithContext(logging.WithLogger(ctx, log))
}

// ActorFromContext returns the caller stored by EnsureValidToken
func ActorFromContext(c *gin.Context) (services.Actor, error) {
	value, exists := c.Get(actorKey)
	if !exists {
		return services.Actor{}, &AuthError{Code: "MISSING_ACTOR", Message: "Caller not found in context"}
	}
	actor, ok := value.(services.Actor)
	if !ok {
		return services.Actor{}, &AuthError{Code: "INVALID_ACTOR", Message: "Caller is not in the expected format"}
	}
	return actor, nil
}

// RequireRole is a middleware that lets only the given roles through
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, err := ActorFromContext(c)
		if err != nil {
			abortUnauthorized(c, "UNAUTHORIZED", "Could not retrieve caller")
			return
		}

		if !slices.Contains(roles, actor.Kind.String()) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "FORBIDDEN",
					"message": "Insufficient permissions to access this resource",
				},
			})
			return
		}

		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, code, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

// AuthError represents an authentication error
type AuthError struct {
	Code    string
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}

package auth

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"workspace-cluster-manager/pkg/config"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

const (
	// CookieName is the cookie carrying the session token
	CookieName = "token"
	tokenTTL   = 24 * time.Hour
	issuer     = "workspace-cluster-manager"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// publicPrefixes are reachable without a session
var publicPrefixes = []string{"/login", "/api/login", "/static/", "/healthz", "/metrics"}

// Claims represents JWT claims
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Auth handles authentication operations
type Auth struct {
	config *config.AuthConfig
	now    func() time.Time
}

// New creates a new Auth instance
func New(cfg *config.AuthConfig) *Auth {
	return &Auth{config: cfg, now: time.Now}
}

// ValidateCredentials validates username and password
func (a *Auth) ValidateCredentials(username, password string) error {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(a.config.Username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(a.config.Password)) == 1
	if userOK && passOK {
		return nil
	}
	return ErrInvalidCredentials
}

// GenerateToken generates a JWT token for the user
func (a *Auth) GenerateToken(username string) (string, error) {
	now := a.now()
	claims := &Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
			Subject:   username,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(a.config.JWTSecret))
}

// ValidateToken validates a JWT token and returns the claims
func (a *Auth) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(a.config.JWTSecret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidToken, err.Error())
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}
	return nil, ErrInvalidToken
}

// Middleware returns a Gin middleware for authentication
func (a *Auth) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if isPublic(c.Request.URL.Path) {
			c.Next()
			return
		}

		claims, err := a.ValidateToken(tokenFromRequest(c))
		if err != nil {
			reject(c)
			return
		}

		c.Set("username", claims.Username)
		c.Next()
	}
}

func isPublic(path string) bool {
	for _, prefix := range publicPrefixes {
		if path == prefix || (strings.HasSuffix(prefix, "/") && strings.HasPrefix(path, prefix)) {
			return true
		}
	}
	return false
}

// tokenFromRequest reads the token from the cookie, then the Authorization header
func tokenFromRequest(c *gin.Context) string {
	if token, err := c.Cookie(CookieName); err == nil && token != "" {
		return token
	}
	if header := c.GetHeader("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}

// reject redirects page requests to the login page and answers API requests
// with 401.
func reject(c *gin.Context) {
	if c.GetHeader("HX-Request") == "" && !strings.HasPrefix(c.Request.URL.Path, "/api/") {
		c.Redirect(http.StatusTemporaryRedirect, "/login")
		c.Abort()
		return
	}
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
}

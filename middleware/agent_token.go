package middleware

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/json"
	"math/big"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// apiToken is the shape of the locally persisted agent credential file.
type apiToken struct {
	Token     string `json:"token"`
	CreatedAt string `json:"created_at"`
}

// LoadAPIToken reads the shared agent token from the token file.
func LoadAPIToken(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	var t apiToken
	if err := json.Unmarshal(data, &t); err != nil {
		return "", err
	}
	return t.Token, nil
}

// GenerateAPIToken writes a fresh random token to the token file and returns it.
func GenerateAPIToken(path string) (string, error) {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	length := 32
	b := make([]byte, length)
	for i := range b {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		b[i] = charset[num.Int64()]
	}

	t := apiToken{
		Token:     string(b),
		CreatedAt: time.Now().Format(time.RFC3339),
	}
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return "", err
	}
	return t.Token, nil
}

// AgentTokenRequired guards agent ingress with the static token from the
// token file: "Authorization: Token <value>". The file is re-read on each
// request so rotating the token does not need a restart.
func AgentTokenRequired(tokenFile string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		presented := ""
		if strings.HasPrefix(authHeader, "Token ") {
			presented = strings.TrimSpace(strings.TrimPrefix(authHeader, "Token "))
		}

		if presented == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}

		expected, err := LoadAPIToken(tokenFile)
		if err != nil || expected == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		if subtle.ConstantTimeCompare([]byte(presented), []byte(expected)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		c.Next()
	}
}

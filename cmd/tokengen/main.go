// Package main provides a CLI for generating gatekeeper bearer tokens and admin
// token hashes for local development and testing.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"gatekeeper/pkg/platform/middleware/admin"
	"gatekeeper/pkg/platform/middleware/auth"
)

const (
	// Used when neither -key nor JWT_SIGNING_KEY is set.
	devSigningKey = "dev-secret-key-change-in-production"

	// Matches the server default outside production.
	devAdminToken = "demo-admin-token"

	defaultTokenTTL = time.Hour
)

type tokenOutput struct {
	Token     string            `json:"token"`
	Type      string            `json:"type"`
	ExpiresIn string            `json:"expires_in,omitempty"`
	Claims    map[string]any    `json:"claims,omitempty"`
	Usage     map[string]string `json:"usage"`
}

func main() {
	userCmd := flag.NewFlagSet("user", flag.ExitOnError)
	userID := userCmd.String("user-id", "", "User ID. Generated if empty.")
	userRole := userCmd.String("role", "user", `Role claim ("admin" is exempt from rate limiting)`)
	userTTL := userCmd.Duration("ttl", defaultTokenTTL, "Token time-to-live")
	userKey := userCmd.String("key", "", "HS256 signing key. Defaults to $JWT_SIGNING_KEY, then the dev key.")
	userJSON := userCmd.Bool("json", false, "Output as JSON")

	adminCmd := flag.NewFlagSet("admin", flag.ExitOnError)
	adminJSON := adminCmd.Bool("json", false, "Output as JSON")

	hashCmd := flag.NewFlagSet("hash", flag.ExitOnError)
	hashToken := hashCmd.String("token", "", "Admin token to hash for ADMIN_TOKEN_HASH")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "user":
		_ = userCmd.Parse(os.Args[2:])
		generateUserToken(*userID, *userRole, *userKey, *userTTL, *userJSON)
	case "admin":
		_ = adminCmd.Parse(os.Args[2:])
		showAdminToken(*adminJSON)
	case "hash":
		_ = hashCmd.Parse(os.Args[2:])
		hashAdminToken(*hashToken)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`tokengen - Generate test credentials for gatekeeper

WARNING: Tokens signed with the dev key will NOT work against a server
         configured with its own JWT_SIGNING_KEY.

Usage:
  tokengen <command> [flags]

Commands:
  user      Generate a bearer token (HS256 JWT) for a user
  admin     Show the development admin token
  hash      Hash an admin token for ADMIN_TOKEN_HASH

Examples:
  # Token for a generated user id
  tokengen user

  # Token for user u1, keyed per user by the rate limiter
  tokengen user -user-id u1 -ttl 15m

  # Admin-role token (exempt from rate limiting)
  tokengen user -role admin

  # Hash a production admin token
  tokengen hash -token "$(openssl rand -hex 32)"

Use "tokengen <command> -h" for more information about a command.`)
}

func generateUserToken(userID, role, key string, ttl time.Duration, jsonOutput bool) {
	keyType := "flag"
	if key == "" {
		key = os.Getenv("JWT_SIGNING_KEY")
		keyType = "env"
	}
	if key == "" {
		key = devSigningKey
		keyType = "dev"
	}
	if userID == "" {
		userID = uuid.NewString()
	}

	token, err := auth.NewHS256Validator(key).Issue(userID, role, ttl, time.Now())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating token: %v\n", err)
		os.Exit(1)
	}

	if jsonOutput {
		printJSON(tokenOutput{
			Token:     token,
			Type:      "bearer",
			ExpiresIn: ttl.String(),
			Claims: map[string]any{
				"user_id": userID,
				"role":    role,
			},
			Usage: map[string]string{
				"header":      "Authorization: Bearer <token>",
				"signing_key": keyType,
			},
		})
		return
	}

	fmt.Println("Bearer Token (JWT)")
	fmt.Println("==================")
	fmt.Printf("Signing Key: %s\n", keyType)
	fmt.Printf("Expires In:  %s\n", ttl)
	fmt.Printf("User ID:     %s\n", userID)
	fmt.Printf("Role:        %s\n", role)
	fmt.Println()
	fmt.Println("Token:")
	fmt.Println(token)
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  curl -H \"Authorization: Bearer <token>\" http://localhost:8080/api/...")
}

func showAdminToken(jsonOutput bool) {
	if jsonOutput {
		printJSON(tokenOutput{
			Token: devAdminToken,
			Type:  "admin_token",
			Usage: map[string]string{
				"header": admin.HeaderToken + ": " + devAdminToken,
				"note":   "Works when ENVIRONMENT is not production and ADMIN_TOKEN is unset",
			},
		})
		return
	}
	fmt.Println("Admin API Token")
	fmt.Println("===============")
	fmt.Printf("Token: %s\n", devAdminToken)
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Printf("  curl -H \"%s: %s\" http://localhost:8080/admin/rate-limit/policies\n", admin.HeaderToken, devAdminToken)
}

func hashAdminToken(token string) {
	if token == "" {
		fmt.Fprintln(os.Stderr, "-token is required")
		os.Exit(1)
	}
	hash, err := admin.HashToken(token)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error hashing token: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(hash)
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding JSON: %v\n", err)
		os.Exit(1)
	}
}

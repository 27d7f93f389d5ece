// Command issue-token prints a bearer token for the attendance API.
//
//	issue-token -subject front-desk -role kiosk
package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/spec-kit/attendance-service/internal/auth"
	"github.com/spec-kit/attendance-service/internal/config"
)

func main() {
	subject := flag.String("subject", "admin", "token subject")
	role := flag.String("role", string(auth.RoleAdmin), "admin or kiosk")
	ttl := flag.Int("ttl", 0, "lifetime in minutes; defaults to AUTH_ACCESS_TOKEN_TTL_MINUTES")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	minutes := cfg.Auth.AccessTokenTTLMinutes
	if *ttl > 0 {
		minutes = *ttl
	}

	token, expiresAt, err := auth.NewTokenManager(cfg.Auth.JWTSecret, minutes).GenerateToken(*subject, auth.Role(*role))
	if err != nil {
		log.Fatalf("failed to issue token: %v", err)
	}
	fmt.Println(token)
	log.Printf("expires %s", expiresAt.UTC().Format(time.RFC3339))
}

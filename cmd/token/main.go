// Command token mints a signed access token for local testing of the API.
package main

import (
	"dojo-service/internal/config"
	"dojo-service/pkg/middleware/mwAuth"
	"flag"
	"fmt"
	"log"
	"time"
)

func main() {
	var (
		userID = flag.Int64("user", 1, "user id placed in the sub claim")
		role   = flag.String("role", mwAuth.RoleInstructor, "admin, instructor or member")
		ttl    = flag.Duration("ttl", 24*time.Hour, "token lifetime")
	)
	flag.Parse()

	cfg := config.MustLoad()

	token, err := mwAuth.IssueToken([]byte(cfg.Auth.JWTSecret), mwAuth.User{ID: *userID, Role: *role}, *ttl)
	if err != nil {
		log.Fatalf("Failed to issue token: %v", err)
	}

	fmt.Println(token)
}

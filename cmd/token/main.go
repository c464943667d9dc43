// Command token issues a bearer token for a user email, signed with the
// configured JWT secret. Used by operators and for local testing when the
// identity provider is not available.
// Usage: go run ./cmd/token -email alice@example.com
package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/rotisserie/eris"

	"pasassistant/internal/config"
	"pasassistant/internal/service"
)

func main() {
	email := flag.String("email", "", "user email carried by the token")
	expiry := flag.Duration("expiry", 0, "token lifetime (default from config)")
	flag.Parse()

	if err := run(*email, *expiry); err != nil {
		log.Fatal(err)
	}
}

func run(email string, expiry time.Duration) error {
	cfg, err := config.Load()
	if err != nil {
		return eris.Wrap(err, "load config")
	}
	if expiry > 0 {
		cfg.JWT.Expiry = expiry
	}

	token, expiresAt, err := service.NewAuthService(cfg.JWT).IssueToken(email)
	if err != nil {
		return eris.Wrap(err, "issue token")
	}
	fmt.Println(token)
	log.Printf("token for %s expires at %s", email, expiresAt.Format(time.RFC3339))
	return nil
}

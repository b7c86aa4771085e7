// mktoken mints an access token for an existing user. The API has no login
// endpoint; tokens are issued out of band by an operator.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/sitetrack/sitetrack-backend/internal/platform/auth"
	"github.com/sitetrack/sitetrack-backend/internal/repo/postgres"
	"github.com/sitetrack/sitetrack-backend/internal/utils"
	"github.com/sitetrack/sitetrack-backend/pkg/config"
	"github.com/sitetrack/sitetrack-backend/pkg/database"
)

func main() {
	email := flag.String("email", "", "email of the user to mint a token for")
	ttl := flag.Duration("ttl", 0, "token lifetime (default: ACCESS_TOKEN_TTL)")
	flag.Parse()

	if *email == "" {
		fmt.Fprintln(os.Stderr, "usage: mktoken -email user@example.com [-ttl 12h]")
		os.Exit(2)
	}

	_ = godotenv.Load()
	cfg := config.Load()
	if *ttl == 0 {
		*ttl = cfg.Auth.AccessTokenTTL
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		fmt.Fprintln(os.Stderr, "database:", err)
		os.Exit(1)
	}
	defer pool.Close()

	users := postgres.NewUserRepository(pool)
	u, err := users.FindByEmail(ctx, utils.NormalizeEmail(*email))
	if err != nil {
		fmt.Fprintln(os.Stderr, "lookup:", err)
		os.Exit(1)
	}
	if u == nil {
		fmt.Fprintln(os.Stderr, "no user with email", *email)
		os.Exit(1)
	}
	if !u.Active {
		fmt.Fprintln(os.Stderr, "user is deactivated")
		os.Exit(1)
	}

	token, err := auth.NewAccessToken(u.ID, u.Email, string(u.Role), *ttl)
	if err != nil {
		fmt.Fprintln(os.Stderr, "sign:", err)
		os.Exit(1)
	}
	fmt.Println(token)
}

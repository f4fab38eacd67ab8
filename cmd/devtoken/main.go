// Command devtoken prints an access token signed with JWT_SECRET, for calling a local API by hand.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/geocoder89/clubhub/internal/auth"
	"github.com/geocoder89/clubhub/internal/config"
	"github.com/geocoder89/clubhub/internal/domain/user"
)

func main() {
	var a user.Actor

	flag.StringVar(&a.ID, "id", uuid.NewString(), "user id")
	flag.StringVar(&a.Email, "email", "member@clubhub.local", "user email")
	flag.StringVar(&a.Name, "name", "Dev Member", "display name")
	flag.StringVar(&a.Role, "role", "member", "role (member or admin)")
	flag.Parse()

	cfg := config.Load()
	if cfg.Env != "dev" && cfg.Env != "test" {
		fmt.Fprintf(os.Stderr, "refusing to mint tokens with APP_ENV=%s\n", cfg.Env)
		os.Exit(2)
	}

	token, err := auth.NewManager(cfg.JWTSecret, cfg.JWTAccessTTL).GenerateAccessToken(a)
	if err != nil {
		fmt.Fprintln(os.Stderr, "sign token:", err)
		os.Exit(1)
	}

	fmt.Println(token)
}

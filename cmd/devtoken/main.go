// Command devtoken mints a signed API token for local development.
//
//	go run ./cmd/devtoken -user 1 -role CUSTOMER
//	go run ./cmd/devtoken -user 3 -role LAUNDRY -laundry 1
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/washwala/laundry-api/config"
	"github.com/washwala/laundry-api/middleware"
	"github.com/washwala/laundry-api/models"
	"github.com/washwala/laundry-api/services"
)

func main() {
	userID := flag.Uint("user", 0, "user id placed in the token subject")
	role := flag.String("role", models.RoleCustomer, "CUSTOMER, LAUNDRY or ADMIN")
	laundryID := flag.Uint("laundry", 0, "laundry id, required for LAUNDRY")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	if cfg.IsProduction() {
		slog.Error("refusing to mint development tokens in production")
		os.Exit(1)
	}

	var actor services.Actor
	switch *role {
	case models.RoleCustomer:
		actor = services.Customer(*userID)
	case models.RoleLaundry:
		if *laundryID == 0 {
			slog.Error("-laundry is required for LAUNDRY tokens")
			os.Exit(2)
		}
		actor = services.LaundryOwner(*userID, *laundryID)
	case models.RoleAdmin:
		actor = services.Admin(*userID)
	default:
		slog.Error("unknown role", "role", *role)
		os.Exit(2)
	}

	token, err := middleware.IssueToken(cfg, actor, *ttl)
	if err != nil {
		slog.Error("failed to issue token", "error", err)
		os.Exit(1)
	}
	fmt.Println(token)
}

// Command seed populates a running storefront with a demo catalog, a few
// shoppers and their ratings and reviews. It talks to the public HTTP API
// only, so it works against any store driver.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/mustafakutlankale/my-ecommerce-app/internal/domain"
	pkgconfig "github.com/mustafakutlankale/my-ecommerce-app/pkg/config"
	apperrors "github.com/mustafakutlankale/my-ecommerce-app/pkg/errors"
	"github.com/mustafakutlankale/my-ecommerce-app/pkg/httpclient"
	"github.com/mustafakutlankale/my-ecommerce-app/pkg/logger"
)

type seedConfig struct {
	BaseURL        string        `env:"STOREFRONT_URL" envDefault:"http://localhost:8080"`
	AdminUsername  string        `env:"BOOTSTRAP_ADMIN_USERNAME" envDefault:"admin"`
	AdminPassword  string        `env:"BOOTSTRAP_ADMIN_PASSWORD,required"`
	ShopperPass    string        `env:"SEED_SHOPPER_PASSWORD" envDefault:"shopper-pass-1"`
	RequestTimeout time.Duration `env:"SEED_TIMEOUT" envDefault:"2m"`
	LogLevel       string        `env:"LOG_LEVEL" envDefault:"info"`
}

func main() {
	if err := pkgconfig.LoadDotEnv(); err != nil {
		slog.Error("failed to load .env", slog.String("error", err.Error()))
		os.Exit(1)
	}
	var cfg seedConfig
	if err := pkgconfig.Load(&cfg); err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	log := logger.New("storefront-seed", cfg.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout)
	defer cancel()

	api := newAPI(cfg.BaseURL, log)
	if err := run(ctx, api, cfg, log); err != nil {
		log.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	log.Info("seed complete")
}

func run(ctx context.Context, api *api, cfg seedConfig, log *slog.Logger) error {
	admin, err := api.login(ctx, cfg.AdminUsername, cfg.AdminPassword)
	if err != nil {
		return fmt.Errorf("admin login: %w", err)
	}

	items := make(map[string]string, len(catalog))
	for _, it := range catalog {
		id, err := api.createItem(ctx, admin, it)
		if err != nil {
			return fmt.Errorf("create item %q: %w", it.Name, err)
		}
		items[it.Name] = id
		log.Info("item created", slog.String("name", it.Name), slog.String("id", id))
	}

	for _, s := range shoppers {
		err := api.createUser(ctx, admin, s.username, cfg.ShopperPass)
		if err != nil && !errors.Is(err, apperrors.ErrAlreadyExists) {
			return fmt.Errorf("create user %q: %w", s.username, err)
		}
		token, err := api.login(ctx, s.username, cfg.ShopperPass)
		if err != nil {
			return fmt.Errorf("login %q: %w", s.username, err)
		}

		for _, op := range s.opinions {
			id := items[op.item]
			if op.rating > 0 {
				if _, err := api.rate(ctx, token, id, op.rating); err != nil {
					return fmt.Errorf("%s rates %q: %w", s.username, op.item, err)
				}
			}
			if op.review != "" {
				if err := api.review(ctx, token, id, op.review); err != nil {
					return fmt.Errorf("%s reviews %q: %w", s.username, op.item, err)
				}
			}
		}
		log.Info("shopper seeded", slog.String("username", s.username), slog.Int("opinions", len(s.opinions)))
	}
	return nil
}

// api is a thin typed client over the storefront HTTP API.
type api struct {
	base string
	do   httpclient.Doer
}

func newAPI(base string, log *slog.Logger) *api {
	client := httpclient.New(httpclient.DefaultConfig())
	return &api{
		base: base,
		do:   httpclient.NewBreaker(client, httpclient.DefaultBreakerConfig("storefront-api"), log),
	}
}

func (a *api) login(ctx context.Context, username, password string) (string, error) {
	var out struct {
		Tokens domain.TokenPair `json:"tokens"`
	}
	err := httpclient.JSON(ctx, a.do, http.MethodPost, a.base+"/api/v1/auth/login", "",
		map[string]string{"username": username, "password": password}, &out)
	return out.Tokens.AccessToken, err
}

func (a *api) createUser(ctx context.Context, token, username, password string) error {
	return httpclient.JSON(ctx, a.do, http.MethodPost, a.base+"/api/v1/admin/users", token,
		map[string]string{"username": username, "password": password, "role": domain.RoleUser}, nil)
}

func (a *api) createItem(ctx context.Context, token string, it itemSeed) (string, error) {
	var out domain.Item
	err := httpclient.JSON(ctx, a.do, http.MethodPost, a.base+"/api/v1/admin/items", token, map[string]any{
		"name":        it.Name,
		"description": it.Description,
		"price":       it.Price,
		"seller":      it.Seller,
		"image":       it.Image,
		"category":    it.Category,
		"attributes":  it.Attributes,
	}, &out)
	return out.ID, err
}

func (a *api) rate(ctx context.Context, token, itemID string, rating int) (float64, error) {
	var out struct {
		AvgRating float64 `json:"avgRating"`
	}
	err := httpclient.JSON(ctx, a.do, http.MethodPost, a.base+"/api/v1/items/"+itemID+"/rating", token,
		map[string]int{"rating": rating}, &out)
	return out.AvgRating, err
}

func (a *api) review(ctx context.Context, token, itemID, text string) error {
	return httpclient.JSON(ctx, a.do, http.MethodPost, a.base+"/api/v1/items/"+itemID+"/review", token,
		map[string]string{"text": text}, nil)
}

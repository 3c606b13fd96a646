// Package app assembles the domain services shared by the api binary and its tests.
package app

import (
	"fmt"

	"github.com/angelmondragon/foodgram-backend/internal/auth"
	"github.com/angelmondragon/foodgram-backend/internal/cart"
	"github.com/angelmondragon/foodgram-backend/internal/ingredients"
	"github.com/angelmondragon/foodgram-backend/internal/media"
	"github.com/angelmondragon/foodgram-backend/internal/memberships"
	"github.com/angelmondragon/foodgram-backend/internal/recipes"
	"github.com/angelmondragon/foodgram-backend/internal/shortlinks"
	"github.com/angelmondragon/foodgram-backend/internal/subscriptions"
	"github.com/angelmondragon/foodgram-backend/internal/tags"
	"github.com/angelmondragon/foodgram-backend/internal/users"
	"github.com/angelmondragon/foodgram-backend/pkg/auth/session"
	"github.com/angelmondragon/foodgram-backend/pkg/config"
	"github.com/angelmondragon/foodgram-backend/pkg/db"
	"github.com/angelmondragon/foodgram-backend/pkg/logger"
	"github.com/angelmondragon/foodgram-backend/pkg/metrics"
	"github.com/angelmondragon/foodgram-backend/pkg/shortlink"
)

// Params holds the infrastructure the services are built on.
type Params struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       *db.Client
	Sessions *session.Manager
	Media    *media.Store
	Metrics  *metrics.DomainMetrics
}

// Services is the full set of domain services.
type Services struct {
	Auth          auth.Service
	Users         users.Service
	Tags          tags.Service
	Ingredients   ingredients.Service
	Recipes       recipes.Service
	Memberships   memberships.Service
	Cart          cart.Service
	Subscriptions subscriptions.Service
	ShortLinks    shortlinks.Service
}

func NewServices(p Params) (*Services, error) {
	if p.Config == nil || p.DB == nil {
		return nil, fmt.Errorf("config and db are required")
	}
	if p.Sessions == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	if p.Media == nil {
		return nil, fmt.Errorf("media store is required")
	}
	cfg := p.Config
	conn := p.DB.DB()

	generator, err := shortlink.NewGenerator(shortlink.Options{
		Length:      cfg.Slug.Length,
		MaxAttempts: cfg.Slug.MaxAttempts,
		Recorder:    p.Metrics,
	})
	if err != nil {
		return nil, fmt.Errorf("slug generator: %w", err)
	}

	userRepo := users.NewRepository(conn)
	usersSvc, err := users.NewService(users.ServiceParams{
		Repo:           userRepo,
		Subscriptions:  subscriptions.NewRepository(conn),
		Media:          p.Media,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("users service: %w", err)
	}

	authSvc, err := auth.NewService(auth.ServiceParams{
		UserRepo:       userRepo,
		SessionManager: p.Sessions,
		JWTConfig:      cfg.JWT,
	})
	if err != nil {
		return nil, fmt.Errorf("auth service: %w", err)
	}

	tagsSvc, err := tags.NewService(tags.NewRepository(conn))
	if err != nil {
		return nil, fmt.Errorf("tags service: %w", err)
	}

	ingredientsSvc, err := ingredients.NewService(ingredients.NewRepository(conn))
	if err != nil {
		return nil, fmt.Errorf("ingredients service: %w", err)
	}

	recipesSvc, err := recipes.NewService(recipes.ServiceParams{
		DB:      p.DB,
		Authors: usersSvc,
		Media:   p.Media,
		Slugs:   generator,
		Logger:  p.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("recipes service: %w", err)
	}

	membershipsSvc, err := memberships.NewService(p.DB, p.Metrics)
	if err != nil {
		return nil, fmt.Errorf("memberships service: %w", err)
	}

	renderer, err := cart.NewRenderer()
	if err != nil {
		return nil, fmt.Errorf("shopping list renderer: %w", err)
	}
	cartSvc, err := cart.NewService(cart.ServiceParams{
		Repo:     cart.NewRepository(conn),
		Renderer: renderer,
		Metrics:  p.Metrics,
	})
	if err != nil {
		return nil, fmt.Errorf("cart service: %w", err)
	}

	subscriptionsSvc, err := subscriptions.NewService(subscriptions.ServiceParams{
		DB:      p.DB,
		Metrics: p.Metrics,
	})
	if err != nil {
		return nil, fmt.Errorf("subscriptions service: %w", err)
	}

	shortLinksSvc, err := shortlinks.NewService(shortlinks.ServiceParams{
		Store:     recipes.NewRepository(conn),
		Generator: generator,
		BaseURL:   cfg.App.BaseURL(),
	})
	if err != nil {
		return nil, fmt.Errorf("shortlinks service: %w", err)
	}

	return &Services{
		Auth:          authSvc,
		Users:         usersSvc,
		Tags:          tagsSvc,
		Ingredients:   ingredientsSvc,
		Recipes:       recipesSvc,
		Memberships:   membershipsSvc,
		Cart:          cartSvc,
		Subscriptions: subscriptionsSvc,
		ShortLinks:    shortLinksSvc,
	}, nil
}

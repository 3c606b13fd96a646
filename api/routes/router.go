package routes

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/angelmondragon/foodgram-backend/api/controllers"
	"github.com/angelmondragon/foodgram-backend/api/middleware"
	"github.com/angelmondragon/foodgram-backend/internal/auth"
	"github.com/angelmondragon/foodgram-backend/internal/cart"
	"github.com/angelmondragon/foodgram-backend/internal/ingredients"
	"github.com/angelmondragon/foodgram-backend/internal/memberships"
	"github.com/angelmondragon/foodgram-backend/internal/recipes"
	"github.com/angelmondragon/foodgram-backend/internal/shortlinks"
	"github.com/angelmondragon/foodgram-backend/internal/subscriptions"
	"github.com/angelmondragon/foodgram-backend/internal/tags"
	"github.com/angelmondragon/foodgram-backend/internal/users"
	"github.com/angelmondragon/foodgram-backend/pkg/auth/session"
	"github.com/angelmondragon/foodgram-backend/pkg/config"
	"github.com/angelmondragon/foodgram-backend/pkg/enums"
	"github.com/angelmondragon/foodgram-backend/pkg/logger"
	"github.com/angelmondragon/foodgram-backend/pkg/metrics"
	"github.com/angelmondragon/foodgram-backend/pkg/redis"
)

// MediaServer exposes uploaded files under a public prefix.
type MediaServer interface {
	Prefix() string
	Handler() http.Handler
}

// Dependencies carries everything the router wires into handlers.
type Dependencies struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       controllers.Pinger
	Redis    *redis.Client
	Sessions session.AccessSessionChecker

	HTTPMetrics    *metrics.HTTPMetrics
	MetricsHandler http.Handler
	Media          MediaServer

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

func NewRouter(deps Dependencies) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(deps.HTTPMetrics),
		middleware.CORS(cfg.App.CORSOrigins),
		middleware.RateLimit(cfg.HTTPRateLimit, logg),
		chimw.StripSlashes,
	)

	requireAuth := middleware.Auth(cfg.JWT, deps.Sessions, logg)
	optionalAuth := middleware.OptionalAuth(cfg.JWT, deps.Sessions, logg)

	loginLimit := middleware.AuthRateLimit(middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	), rateLimitStore(deps.Redis), logg)
	registerLimit := middleware.AuthRateLimit(middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	), rateLimitStore(deps.Redis), logg)
	idempotent := middleware.Idempotency(idempotencyStore(deps.Redis), logg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readinessDeps(deps)))
	})

	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	if deps.Media != nil {
		prefix := strings.TrimRight(deps.Media.Prefix(), "/")
		r.Handle(prefix+"/*", deps.Media.Handler())
	}

	r.Get(shortlinks.PathPrefix+"{slug}", controllers.ShortLinkRedirect(deps.ShortLinks, logg))

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth/token", func(r chi.Router) {
			r.With(loginLimit).Post("/login", controllers.AuthLogin(deps.Auth, logg))
			r.Post("/refresh", controllers.AuthRefresh(deps.Auth, logg))
			r.With(requireAuth).Post("/logout", controllers.AuthLogout(deps.Auth, logg))
		})

		r.Route("/users", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(optionalAuth)
				r.Get("/", controllers.UserList(deps.Users, cfg, logg))
				r.With(registerLimit, idempotent).Post("/", controllers.UserRegister(deps.Users, logg))
				r.Get("/{id}", controllers.UserGet(deps.Users, logg))
			})
			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Get("/me", controllers.UserMe(deps.Users, logg))
				r.Put("/me/avatar", controllers.UserSetAvatar(deps.Users, logg))
				r.Delete("/me/avatar", controllers.UserDeleteAvatar(deps.Users, logg))
				r.Post("/set_password", controllers.UserSetPassword(deps.Users, logg))
				r.Get("/subscriptions", controllers.SubscriptionList(deps.Subscriptions, cfg, logg))
				r.Post("/{id}/subscribe", controllers.Subscribe(deps.Subscriptions, logg))
				r.Delete("/{id}/subscribe", controllers.Unsubscribe(deps.Subscriptions, logg))
			})
		})

		r.Route("/tags", func(r chi.Router) {
			r.Get("/", controllers.TagList(deps.Tags, logg))
			r.Get("/{id}", controllers.TagGet(deps.Tags, logg))
		})

		r.Route("/ingredients", func(r chi.Router) {
			r.Get("/", controllers.IngredientList(deps.Ingredients, logg))
			r.Get("/{id}", controllers.IngredientGet(deps.Ingredients, logg))
		})

		r.Route("/recipes", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(optionalAuth)
				r.Get("/", controllers.RecipeList(deps.Recipes, cfg, logg))
				r.Get("/{id}", controllers.RecipeGet(deps.Recipes, logg))
				r.Get("/{id}/get-link", controllers.RecipeLink(deps.ShortLinks, logg))
			})
			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.With(idempotent).Post("/", controllers.RecipeCreate(deps.Recipes, logg))
				r.Get("/download_shopping_cart", controllers.ShoppingCartDownload(deps.Cart, logg))
				r.Patch("/{id}", controllers.RecipeUpdate(deps.Recipes, logg))
				r.Delete("/{id}", controllers.RecipeDelete(deps.Recipes, logg))

				favorite := enums.MembershipListFavorite
				r.Post("/{id}/favorite", controllers.MembershipAdd(deps.Memberships, favorite, logg))
				r.Delete("/{id}/favorite", controllers.MembershipRemove(deps.Memberships, favorite, logg))

				shoppingCart := enums.MembershipListShoppingCart
				r.Post("/{id}/shopping_cart", controllers.MembershipAdd(deps.Memberships, shoppingCart, logg))
				r.Delete("/{id}/shopping_cart", controllers.MembershipRemove(deps.Memberships, shoppingCart, logg))
			})
		})
	})

	return r
}

func readinessDeps(deps Dependencies) map[string]controllers.Pinger {
	out := map[string]controllers.Pinger{}
	if deps.DB != nil {
		out["database"] = deps.DB
	}
	if deps.Redis != nil {
		out["redis"] = deps.Redis
	}
	return out
}

// The helpers keep a nil client from becoming a non-nil interface.
func rateLimitStore(client *redis.Client) middleware.RateLimiterStore {
	if client == nil {
		return nil
	}
	return client
}

func idempotencyStore(client *redis.Client) redis.IdempotencyStore {
	if client == nil {
		return nil
	}
	return client
}

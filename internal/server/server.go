package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/cors"

	"github.com/dukerupert/foodgram/internal/auth"
	"github.com/dukerupert/foodgram/internal/handler"
	"github.com/dukerupert/foodgram/internal/media"
	"github.com/dukerupert/foodgram/internal/middleware"
	"github.com/dukerupert/foodgram/internal/shopping"
	"github.com/dukerupert/foodgram/internal/store"
	ws "github.com/dukerupert/foodgram/internal/websocket"
)

const loginRateLimit = 10

var (
	loginPolicy    = middleware.Policy{Name: "login", Limit: loginRateLimit, Window: time.Minute}
	registerPolicy = middleware.Policy{Name: "register", Limit: 10, Window: time.Minute}
)

// Config holds the HTTP-facing settings.
type Config struct {
	BaseURL     string
	CORSOrigins []string
	PDF         shopping.PDFOptions
}

type Server struct {
	db          *sql.DB
	hub         *ws.Hub
	cfg         Config
	storage     media.Storage
	authH       *handler.AuthHandler
	userH       *handler.UserHandler
	tagH        *handler.TagHandler
	ingredientH *handler.IngredientHandler
	recipeH     *handler.RecipeHandler
	favoriteH   *handler.RecipeListHandler
	cartH       *handler.RecipeListHandler
	subH        *handler.SubscriptionHandler
	shoppingH   *handler.ShoppingHandler
	userStore   *store.UserStore
	tokenStore  *store.TokenStore
	rateLimiter *middleware.RateLimiter
	logger      *slog.Logger
}

func New(db *sql.DB, storage media.Storage, cfg Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	userStore := store.NewUserStore(db)
	tokenStore := store.NewTokenStore(db)
	tagStore := store.NewTagStore(db)
	ingredientStore := store.NewIngredientStore(db)
	recipeStore := store.NewRecipeStore(db)
	favoriteStore := store.NewFavoriteStore(db)
	cartStore := store.NewCartStore(db)
	subStore := store.NewSubscriptionStore(db)

	images := media.NewProcessor(storage, logger.With("component", "media"))
	presenter := handler.NewPresenter(userStore, recipeStore, subStore, favoriteStore, cartStore, images)

	return &Server{
		db:          db,
		hub:         hub,
		cfg:         cfg,
		storage:     storage,
		authH:       handler.NewAuthHandler(userStore, tokenStore, logger.With("component", "auth")),
		userH:       handler.NewUserHandler(userStore, presenter, cfg.BaseURL, logger.With("component", "user")),
		tagH:        handler.NewTagHandler(tagStore, logger.With("component", "tag")),
		ingredientH: handler.NewIngredientHandler(ingredientStore, logger.With("component", "ingredient")),
		recipeH:     handler.NewRecipeHandler(recipeStore, tagStore, ingredientStore, subStore, images, presenter, hub, cfg.BaseURL, logger.With("component", "recipe")),
		favoriteH:   handler.NewRecipeListHandler(favoriteStore, recipeStore, presenter, "favorites", logger.With("component", "favorite")),
		cartH:       handler.NewRecipeListHandler(cartStore, recipeStore, presenter, "shopping cart", logger.With("component", "cart")),
		subH:        handler.NewSubscriptionHandler(subStore, userStore, presenter, cfg.BaseURL, logger.With("component", "subscription")),
		shoppingH:   handler.NewShoppingHandler(shopping.NewAggregator(cartStore), cfg.PDF, logger.With("component", "shopping")),
		userStore:   userStore,
		tokenStore:  tokenStore,
		rateLimiter: middleware.NewRateLimiter(),
		logger:      logger,
	}
}

// TokenStore returns the token store for cleanup tasks.
func (s *Server) TokenStore() *store.TokenStore {
	return s.tokenStore
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

// Hub returns the live feed hub.
func (s *Server) Hub() *ws.Hub {
	return s.hub
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.healthHandler)
	if disk, ok := s.storage.(*media.DiskStorage); ok {
		mux.Handle("GET /media/", http.StripPrefix("/media/", http.FileServer(http.Dir(disk.Dir()))))
	}

	// Auth
	mux.HandleFunc("POST /api/auth/token/login/{$}", s.rateLimited(loginPolicy, s.authH.Login))
	mux.Handle("POST /api/auth/token/logout/{$}", requireAuth(s.authH.Logout))

	// Users and subscriptions
	mux.HandleFunc("POST /api/users/{$}", s.rateLimited(registerPolicy, s.userH.Register))
	mux.HandleFunc("GET /api/users/{$}", s.userH.List)
	mux.HandleFunc("GET /api/users/{id}/{$}", s.userH.Get)
	mux.Handle("GET /api/users/me/{$}", requireAuth(s.userH.Me))
	mux.Handle("POST /api/users/set_password/{$}", requireAuth(s.userH.SetPassword))
	mux.Handle("GET /api/users/subscriptions/{$}", requireAuth(s.subH.List))
	mux.Handle("POST /api/users/{id}/subscribe/{$}", requireAuth(s.subH.Subscribe))
	mux.Handle("DELETE /api/users/{id}/subscribe/{$}", requireAuth(s.subH.Unsubscribe))

	// Reference data
	mux.HandleFunc("GET /api/tags/{$}", s.tagH.List)
	mux.HandleFunc("GET /api/tags/{id}/{$}", s.tagH.Get)
	mux.HandleFunc("GET /api/ingredients/{$}", s.ingredientH.List)
	mux.HandleFunc("GET /api/ingredients/{id}/{$}", s.ingredientH.Get)

	// Recipes
	mux.HandleFunc("GET /api/recipes/{$}", s.recipeH.List)
	mux.Handle("POST /api/recipes/{$}", requireAuth(s.recipeH.Create))
	mux.HandleFunc("GET /api/recipes/{id}/{$}", s.recipeH.Get)
	mux.Handle("PATCH /api/recipes/{id}/{$}", requireAuth(s.recipeH.Update))
	mux.Handle("DELETE /api/recipes/{id}/{$}", requireAuth(s.recipeH.Delete))
	mux.Handle("POST /api/recipes/{id}/favorite/{$}", requireAuth(s.favoriteH.Add))
	mux.Handle("DELETE /api/recipes/{id}/favorite/{$}", requireAuth(s.favoriteH.Remove))
	mux.Handle("POST /api/recipes/{id}/shopping_cart/{$}", requireAuth(s.cartH.Add))
	mux.Handle("DELETE /api/recipes/{id}/shopping_cart/{$}", requireAuth(s.cartH.Remove))
	mux.Handle("GET /api/recipes/download_shopping_cart/{$}", requireAuth(s.shoppingH.Download))

	// Live feed
	mux.HandleFunc("GET /ws/feed", ws.HandleFeed(s.hub, feedUser, originHosts(s.cfg.CORSOrigins), s.logger.With("component", "feed")))

	authenticate := middleware.Authenticate(s.tokenStore, s.userStore, s.logger.With("component", "auth"))
	c := cors.New(cors.Options{
		AllowedOrigins: s.cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		ExposedHeaders: []string{"Content-Disposition"},
	})

	return middleware.RequestLogger(s.logger.With("component", "http"))(c.Handler(authenticate(mux)))
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	status, code := "ok", http.StatusOK
	if err := s.db.PingContext(r.Context()); err != nil {
		status, code = "database unavailable", http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"status": status})
}

func (s *Server) rateLimited(p middleware.Policy, h http.HandlerFunc) http.HandlerFunc {
	return middleware.RateLimit(s.rateLimiter, p, middleware.RealIP)(h).ServeHTTP
}

func requireAuth(h http.HandlerFunc) http.Handler {
	return middleware.RequireAuth(h)
}

func feedUser(r *http.Request) (int64, bool) {
	id := auth.UserID(r.Context())
	return id, id != 0
}

// originHosts converts CORS origins (scheme://host) into the host patterns
// the websocket handshake checks against.
func originHosts(origins []string) []string {
	hosts := make([]string, 0, len(origins))
	for _, o := range origins {
		if o == "*" {
			return []string{"*"}
		}
		if u, err := url.Parse(o); err == nil && u.Host != "" {
			hosts = append(hosts, u.Host)
		}
	}
	return hosts
}

package services

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/lumeboard/lumeboard/backend/models"
	"github.com/lumeboard/lumeboard/backend/repository"
	"github.com/lumeboard/lumeboard/backend/secrets"
	ws "github.com/lumeboard/lumeboard/backend/websocket"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all server dependencies
type Server struct {
	config *Config
	gormDB *repository.GORMRepository
	rawDB  interface{} // Store the raw GORM DB for services that need it

	cipher *secrets.Cipher
	cache  *redis.Client

	authService       *AuthService
	billingService    *BillingService
	oauthService      *OAuthService
	assistantService  *AssistantService
	chatProcessor     *ChatProcessor
	websocketHandler  *WebSocketHandler
	mailService       *MailService
	prService         *PullRequestService
	newsService       *NewsService
	mailer            *Mailer
	jobScheduler      *JobScheduler
	authEndpoints     *AuthEndpoints
	billingEndpoints  *BillingEndpoints
	oauthEndpoints    *OAuthEndpoints
	agentEndpoints    *AgentEndpoints
	chatEndpoints     *ChatEndpoints
	mailEndpoints     *MailEndpoints
	prEndpoints       *PullRequestEndpoints
	newsEndpoints     *NewsEndpoints
	settingsEndpoints *SettingsEndpoints

	wsHub    *ws.Hub
	upgrader websocket.Upgrader
}

// NewServer creates a new server instance
func NewServer(config *Config) *Server {
	return &Server{
		config: config,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return CheckOrigin(r, config.WebSocket.AllowedOrigins)
			},
		},
	}
}

// SetDatabase sets the database connection
func (s *Server) SetDatabase(db *repository.GORMRepository, rawDB interface{}) {
	s.gormDB = db
	s.rawDB = rawDB
}

// InitializeServices initializes all server services
func (s *Server) InitializeServices() error {
	if s.config.Database.URL != "" {
		slog.Info("Database connection will be initialized in main.go")
	} else {
		slog.Warn("Database URL not configured, running without database")
	}

	// Token encryption for OAuth and IMAP credentials
	if s.config.Secrets.EncryptionKey != "" {
		cipher, err := secrets.NewCipherFromBase64(s.config.Secrets.EncryptionKey)
		if err != nil {
			return err
		}
		s.cipher = cipher
		slog.Info("Token cipher initialized")
	} else {
		slog.Warn("Encryption key not configured, OAuth connections disabled")
	}

	if s.config.Redis.Addr != "" {
		s.cache = redis.NewClient(&redis.Options{
			Addr:     s.config.Redis.Addr,
			Password: s.config.Redis.Password,
			DB:       s.config.Redis.DB,
		})
		slog.Info("Redis cache initialized", "addr", s.config.Redis.Addr)
	} else {
		slog.Warn("Redis not configured, caching disabled")
	}

	if s.config.AI.GeminiAPIKey != "" {
		s.assistantService = NewAssistantService(s.config.AI.GeminiAPIKey)
		slog.Info("Assistant service initialized")
	}

	if s.gormDB != nil {
		s.billingService = NewBillingService(s.gormDB, s.config)
		s.billingEndpoints = NewBillingEndpoints(s.billingService)
		slog.Info("Billing service initialized")
	}

	if s.gormDB != nil && s.cipher != nil {
		s.oauthService = NewOAuthService(s.gormDB, s.cipher, s.config)
		s.oauthEndpoints = NewOAuthEndpoints(s.oauthService, s.gormDB, s.config)
		s.mailService = NewMailService(s.gormDB, s.oauthService, s.cipher)
		s.mailEndpoints = NewMailEndpoints(s.gormDB, s.mailService)
		s.prService = NewPullRequestService(s.gormDB, s.oauthService)
		s.prEndpoints = NewPullRequestEndpoints(s.prService)
		slog.Info("OAuth, mail and pull request services initialized")
	}

	if s.gormDB != nil {
		s.newsService = NewNewsService(s.gormDB, s.cache, s.config)
		s.newsEndpoints = NewNewsEndpoints(s.newsService, s.gormDB, s.config)
		s.settingsEndpoints = NewSettingsEndpoints(s.gormDB)
		s.agentEndpoints = NewAgentEndpoints(s.gormDB)
		s.chatEndpoints = NewChatEndpoints(s.gormDB, s.assistantService)
		slog.Info("News, settings and chat endpoints initialized")
	}

	// Chat processor drives the WebSocket assistant flow
	if s.assistantService != nil && s.billingService != nil && s.gormDB != nil {
		s.chatProcessor = NewChatProcessor(s.assistantService, s.billingService, s.gormDB)
		s.websocketHandler = NewWebSocketHandler(s.chatProcessor)
		slog.Info("Chat processor initialized")
	}

	// Authentication
	if s.config.JWT.Secret != "" && s.gormDB != nil {
		s.authService = NewAuthService(s.gormDB, s.config.JWT.Secret)
		s.authEndpoints = NewAuthEndpoints(s.authService, s.billingService)
		slog.Info("Authentication service initialized")
	}

	s.mailer = NewMailer(s.config)
	if s.mailer != nil {
		slog.Info("SMTP mailer initialized", "host", s.config.SMTP.Host)
	}

	if s.gormDB != nil && s.billingService != nil && s.newsService != nil {
		s.jobScheduler = NewJobScheduler(s.gormDB, s.billingService, s.newsService, s.mailer)
		if err := s.jobScheduler.Start(); err != nil {
			return err
		}
		slog.Info("Job scheduler started")
	}

	s.wsHub = ws.NewHub()
	go s.wsHub.Run()

	return nil
}

// SetupRoutes configures all HTTP routes
func (s *Server) SetupRoutes() *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health endpoint
	r.Get("/health", s.healthHandler)

	// API v1 route group
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/", s.apiV1Handler)

		// WebSocket route (protected)
		if s.authService != nil {
			r.Group(func(r chi.Router) {
				r.Use(s.authService.Middleware)
				r.Get("/ws", s.websocketHandlerFunc)
			})
		} else {
			r.Get("/ws", s.websocketHandlerFunc)
		}

		// Authentication routes
		if s.authEndpoints != nil {
			r.Route("/auth", func(r chi.Router) {
				// Public auth routes (no middleware)
				r.Post("/login", s.authEndpoints.LoginHandler)
				r.Post("/signup", s.authEndpoints.SignupHandler)
				r.Post("/refresh", s.authEndpoints.RefreshHandler)

				// Protected auth routes (with middleware); logout needs the
				// authenticated user to revoke its stored tokens
				r.Group(func(r chi.Router) {
					r.Use(s.authService.Middleware)
					r.Post("/logout", s.authEndpoints.LogoutHandler)
					r.Get("/me", s.authEndpoints.MeHandler)
				})
			})
		}

		// Stripe webhook (signature-verified, no cookie auth)
		if s.billingEndpoints != nil {
			s.billingEndpoints.RegisterWebhookRoutes(r)
		}

		// Scheduled news refresh trigger (bearer secret, no cookie auth)
		if s.newsEndpoints != nil {
			s.newsEndpoints.RegisterRefreshRoutes(r)
		}

		// Protected route groups
		if s.authService != nil {
			protected := []interface{ RegisterRoutes(chi.Router) }{}
			if s.billingEndpoints != nil {
				protected = append(protected, s.billingEndpoints)
			}
			if s.oauthEndpoints != nil {
				protected = append(protected, s.oauthEndpoints)
			}
			if s.agentEndpoints != nil {
				protected = append(protected, s.agentEndpoints)
			}
			if s.chatEndpoints != nil {
				protected = append(protected, s.chatEndpoints)
			}
			if s.mailEndpoints != nil {
				protected = append(protected, s.mailEndpoints)
			}
			if s.prEndpoints != nil {
				protected = append(protected, s.prEndpoints)
			}
			if s.newsEndpoints != nil {
				protected = append(protected, s.newsEndpoints)
			}
			if s.settingsEndpoints != nil {
				protected = append(protected, s.settingsEndpoints)
			}

			for _, endpoints := range protected {
				endpoints := endpoints
				r.Group(func(r chi.Router) {
					r.Use(s.authService.Middleware)
					endpoints.RegisterRoutes(r)
				})
			}
		}
	})

	return r
}

// Start starts the HTTP server
func (s *Server) Start() {
	port := s.config.Server.Port
	if port == "" {
		port = "8080"
	}

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: s.SetupRoutes(),
	}

	// Graceful shutdown
	go func() {
		slog.Info("Starting server", "port", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if s.jobScheduler != nil {
		s.jobScheduler.Stop()
	}

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	slog.Info("Server exited")
}

// CheckOrigin validates the origin of WebSocket connections to prevent CSRF attacks
func CheckOrigin(r *http.Request, allowedOriginsStr string) bool {
	origin := r.Header.Get("Origin")

	// If no allowed origins are configured, deny all requests for security
	if allowedOriginsStr == "" {
		slog.Warn("WebSocket connection rejected: no allowed origins configured", "origin", origin)
		return false
	}

	// Parse allowed origins (comma-separated list)
	allowedOrigins := strings.Split(allowedOriginsStr, ",")

	for i := range allowedOrigins {
		allowedOrigins[i] = strings.TrimSpace(allowedOrigins[i])
	}

	for _, allowed := range allowedOrigins {
		if allowed == origin {
			return true
		}
	}

	slog.Warn("WebSocket connection rejected: origin not allowed", "origin", origin, "allowed_origins", allowedOriginsStr)
	return false
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	dbStatus := "not configured"

	if s.rawDB != nil {
		if gormDB, ok := s.rawDB.(*gorm.DB); ok {
			if sqlDB, err := gormDB.DB(); err == nil {
				if err := sqlDB.Ping(); err != nil {
					dbStatus = "down"
					status = "degraded"
				} else {
					dbStatus = "up"
				}
			} else {
				dbStatus = "down"
				status = "degraded"
			}
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"` + status + `","database":"` + dbStatus + `"}`))
}

func (s *Server) apiV1Handler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"message":"API v1","version":"1.0.0"}`))
}

func (s *Server) websocketHandlerFunc(w http.ResponseWriter, r *http.Request) {
	// Get user from context (set by auth middleware)
	user, ok := r.Context().Value("user").(*models.User)
	if !ok {
		slog.Error("WebSocket connection failed - user not found in context")
		http.Error(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	// The conversation must exist and belong to the user before upgrading
	conversationID := r.URL.Query().Get("conversation_id")
	if conversationID == "" {
		http.Error(w, "conversation_id is required", http.StatusBadRequest)
		return
	}
	if s.gormDB != nil {
		conversation, err := s.gormDB.GetConversation(r.Context(), conversationID, user.ID)
		if err != nil {
			http.Error(w, "Failed to load conversation", http.StatusInternalServerError)
			return
		}
		if conversation == nil {
			http.Error(w, "Conversation not found", http.StatusNotFound)
			return
		}
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("WebSocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	slog.Info("WebSocket connection established", "user_id", user.ID, "conversation_id", conversationID)

	// Register client with hub
	client := s.wsHub.RegisterClient(conn, user.ID, conversationID)

	if s.websocketHandler != nil {
		client.MessageHandler = func(c *ws.Client, messageBytes []byte) {
			s.websocketHandler.HandleWebSocketMessage(c, messageBytes)
		}
	}

	go client.WritePump()

	// Greet on first connect to an empty conversation
	if s.websocketHandler != nil {
		go s.websocketHandler.HandleWebSocketConnection(client)
	}

	// Blocks until the peer disconnects; the read pump unregisters the client
	client.ReadPump()
}

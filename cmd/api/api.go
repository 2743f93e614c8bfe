package main

import (
	"context"
	"errors"
	"expvar"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"backoffice/docs" //this is required to generate swagger docs
	"backoffice/internal/auth"
	"backoffice/internal/domain/partners"
	"backoffice/internal/mailer"
	"backoffice/internal/ratelimiter"
	"backoffice/internal/store"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
)

type application struct {
	config        config
	store         store.Storage
	logger        *zap.SugaredLogger
	cld           *cloudinary.Cloudinary
	mailer        mailer.Client
	authenticator auth.Authenticator
	rateLimiter   ratelimiter.Limiter
	refCodes      *partners.RefCodeGenerator
}

type config struct {
	addr        string
	db          dbConfig
	env         string
	apiURL      string
	mail        mailConfig
	frontendURL string
	auth        authConfig
	rateLimiter ratelimiter.Config
	bootstrap   bootstrapConfig
}

type authConfig struct {
	basic  basicConfig
	token  tokenConfig
	cookie cookieConfig
}

type tokenConfig struct {
	refreshSecret   string
	secret          string
	accessTokenExp  time.Duration
	refreshTokenExp time.Duration
	iss             string
}

type basicConfig struct {
	user string
	pass string
}

// cookieConfig controls the refresh-token cookie. The path is scoped to
// the refresh endpoint so browsers never send the long-lived token
// anywhere else.
type cookieConfig struct {
	name string
	path string
}

type mailConfig struct {
	resetExp  time.Duration
	fromEmail string
	smtp      smtpConfig
}

type smtpConfig struct {
	host     string
	port     int
	username string
	password string
}

type dbConfig struct {
	addr        string
	maxConns    int
	maxIdleTime string
}

type bootstrapConfig struct {
	adminName     string
	adminEmail    string
	adminPassword string
}

func (app *application) mount() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(app.RateLimiterMiddleware)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{app.config.frontendURL},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Use(middleware.Timeout(60 * time.Second))

	r.Route("/v1", func(r chi.Router) {
		r.With(app.BasicAuthMiddleware()).Get("/health", app.healthCheckHandler)
		docsURL := fmt.Sprintf("%s/swagger/doc.json", app.config.addr)
		r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL(docsURL)))

		r.With(app.BasicAuthMiddleware()).Get("/debug/vars", expvar.Handler().ServeHTTP)

		// Public: these establish or tear down the token, so no gates.
		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", app.loginHandler)
			r.Post("/refresh", app.refreshHandler)
			r.Post("/logout", app.logoutHandler)
			r.Post("/forgot-password", app.forgotPasswordHandler)
			r.Post("/reset-password", app.resetPasswordHandler)
			r.Post("/verify-reset-token", app.verifyResetTokenHandler)
		})

		r.Group(func(r chi.Router) {
			r.Use(app.AuthTokenMiddleware)

			r.Get("/auth/me", app.currentUserHandler)

			r.Route("/users", func(r chi.Router) {
				r.With(app.RequirePermissions("users.read")).Get("/", app.listUsersHandler)
				r.With(app.RequirePermissions("users.create")).Post("/", app.createUserHandler)
				r.With(app.RequirePermissions("users.delete")).Post("/bulk-delete", app.softDeleteUsersHandler)
				r.With(app.RequirePermissions("users.delete")).Post("/bulk-restore", app.restoreUsersHandler)
				r.With(app.RequireRoles("admin"), app.RequirePermissions("users.delete")).Post("/bulk-destroy", app.hardDeleteUsersHandler)
				r.Post("/profile-picture", app.uploadProfilePictureHandler)

				r.Route("/{userID}", func(r chi.Router) {
					r.With(app.RequirePermissions("users.read")).Get("/", app.getUserHandler)
					r.With(app.RequirePermissions("users.update")).Put("/", app.updateUserHandler)
					r.With(app.RequirePermissions("users.update")).Put("/password", app.changePasswordHandler)

					r.Route("/overrides", func(r chi.Router) {
						r.With(app.RequirePermissions("permissions.read")).Get("/", app.listOverridesHandler)
						r.With(app.RequireRoles("admin")).Put("/", app.upsertOverrideHandler)
						r.With(app.RequireRoles("admin")).Delete("/{permissionID}", app.clearOverrideHandler)
					})
				})
			})

			r.Route("/roles", func(r chi.Router) {
				r.With(app.RequirePermissions("roles.read")).Get("/", app.listRolesHandler)
				r.With(app.RequirePermissions("roles.create")).Post("/", app.createRoleHandler)
				r.With(app.RequirePermissions("roles.read")).Get("/{roleID}", app.getRoleHandler)
				r.With(app.RequirePermissions("roles.update")).Put("/{roleID}", app.updateRoleHandler)
				r.With(app.RequirePermissions("roles.delete")).Delete("/{roleID}", app.deleteRoleHandler)
			})

			r.Route("/permissions", func(r chi.Router) {
				r.With(app.RequirePermissions("permissions.read")).Get("/", app.listPermissionsHandler)
				r.With(app.RequirePermissions("permissions.create")).Post("/", app.createPermissionHandler)
				r.With(app.RequirePermissions("permissions.read")).Get("/tree", app.permissionTreeHandler)

				r.Route("/modules", func(r chi.Router) {
					r.With(app.RequirePermissions("permissions.read")).Get("/", app.listPermissionModulesHandler)
					r.With(app.RequirePermissions("permissions.create")).Post("/", app.createPermissionModuleHandler)
					r.With(app.RequirePermissions("permissions.update")).Put("/{moduleID}", app.updatePermissionModuleHandler)
					r.With(app.RequirePermissions("permissions.delete")).Delete("/{moduleID}", app.deletePermissionModuleHandler)
				})

				r.With(app.RequirePermissions("permissions.update")).Put("/{permissionID}", app.updatePermissionHandler)
				r.With(app.RequirePermissions("permissions.delete")).Delete("/{permissionID}", app.deletePermissionHandler)
			})

			r.Route("/suppliers", func(r chi.Router) {
				r.With(app.RequirePermissions("suppliers.read")).Get("/", app.listSuppliersHandler)
				r.With(app.RequirePermissions("suppliers.create")).Post("/", app.createSupplierHandler)
				r.With(app.RequirePermissions("suppliers.read")).Get("/{supplierID}", app.getSupplierHandler)
				r.With(app.RequirePermissions("suppliers.update")).Put("/{supplierID}", app.updateSupplierHandler)
				r.With(app.RequirePermissions("suppliers.delete")).Delete("/{supplierID}", app.deleteSupplierHandler)
				r.With(app.RequirePermissions("suppliers.update")).Post("/{supplierID}/restore", app.restoreSupplierHandler)
			})

			r.Route("/customers", func(r chi.Router) {
				r.With(app.RequirePermissions("customers.read")).Get("/", app.listCustomersHandler)
				r.With(app.RequirePermissions("customers.create")).Post("/", app.createCustomerHandler)
				r.With(app.RequirePermissions("customers.read")).Get("/{customerID}", app.getCustomerHandler)
				r.With(app.RequirePermissions("customers.update")).Put("/{customerID}", app.updateCustomerHandler)
				r.With(app.RequirePermissions("customers.delete")).Delete("/{customerID}", app.deleteCustomerHandler)
				r.With(app.RequirePermissions("customers.update")).Post("/{customerID}/restore", app.restoreCustomerHandler)
			})

			r.Route("/partners", func(r chi.Router) {
				r.With(app.RequirePermissions("partners.read")).Get("/", app.listPartnersHandler)
				r.With(app.RequirePermissions("partners.create")).Post("/", app.createPartnerHandler)
				r.With(app.RequirePermissions("partners.read")).Get("/{partnerID}", app.getPartnerHandler)
				r.With(app.RequirePermissions("partners.update")).Put("/{partnerID}", app.updatePartnerHandler)
				r.With(app.RequirePermissions("partners.delete")).Delete("/{partnerID}", app.deletePartnerHandler)
				r.With(app.RequirePermissions("partners.update")).Post("/{partnerID}/restore", app.restorePartnerHandler)
			})

			r.Route("/document-types", func(r chi.Router) {
				r.With(app.RequirePermissions("document_types.read")).Get("/", app.listDocumentTypesHandler)
				r.With(app.RequirePermissions("document_types.create")).Post("/", app.createDocumentTypeHandler)
				r.With(app.RequirePermissions("document_types.read")).Get("/{docTypeID}", app.getDocumentTypeHandler)
				r.With(app.RequirePermissions("document_types.update")).Put("/{docTypeID}", app.updateDocumentTypeHandler)
				r.With(app.RequirePermissions("document_types.delete")).Delete("/{docTypeID}", app.deleteDocumentTypeHandler)
				r.With(app.RequirePermissions("document_types.update")).Post("/{docTypeID}/restore", app.restoreDocumentTypeHandler)
			})

			r.Route("/keys", func(r chi.Router) {
				r.With(app.RequirePermissions("keys.read")).Get("/", app.listOperationKeysHandler)
				r.With(app.RequireRoles("admin"), app.RequirePermissions("keys.create")).Post("/", app.rotateOperationKeyHandler)
				r.With(app.RequirePermissions("keys.validate")).Post("/validate", app.validateOperationKeyHandler)
			})
		})
	})
	return r
}

func (app *application) run(mux http.Handler) error {
	// Docs
	docs.SwaggerInfo.Version = version
	docs.SwaggerInfo.Host = app.config.apiURL
	docs.SwaggerInfo.BasePath = "/v1"

	srv := &http.Server{
		Addr:         app.config.addr,
		Handler:      mux,
		WriteTimeout: time.Second * 30,
		ReadTimeout:  time.Second * 10,
		IdleTimeout:  time.Minute,
	}

	shutdown := make(chan error)

	go func() {
		quit := make(chan os.Signal, 1)

		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		app.logger.Infow("signal caught", "signal", s.String())

		shutdown <- srv.Shutdown(ctx)
	}()

	app.logger.Infow("server has started", "addr", app.config.addr, "env", app.config.env)

	err := srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	err = <-shutdown
	if err != nil {
		return err
	}

	app.logger.Infow("server has stopped", "addr", app.config.addr, "env", app.config.env)

	return nil
}

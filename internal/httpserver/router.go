// Package httpserver wires the HTTP handlers onto echo routes. Handlers are
// grouped by concern and share dependencies through Deps.
package httpserver

import (
	"net/http"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"

	"github.com/elefund/elephant-raiser/internal/auth"
	"github.com/elefund/elephant-raiser/internal/checkout"
	"github.com/elefund/elephant-raiser/internal/events"
	"github.com/elefund/elephant-raiser/internal/mailer"
	authmw "github.com/elefund/elephant-raiser/internal/middleware/auth"
	"github.com/elefund/elephant-raiser/internal/repo"
	"github.com/elefund/elephant-raiser/internal/session"
)

type Deps struct {
	Repo           *repo.GormRepo
	Auth           *auth.Service
	Sessions       *session.Store
	Checkout       *checkout.Service
	Prices         PriceCreator
	Mailer         *mailer.Mailer
	Producer       *events.Producer
	ES             *elasticsearch.Client
	SearchIndex    string
	PublishableKey string
}

func Register(e *echo.Echo, d *Deps) {
	guard := &authmw.Guard{Auth: d.Auth}

	authH := &AuthHTTP{Repo: d.Repo, Auth: d.Auth, Sessions: d.Sessions, Producer: d.Producer}
	catalogH := &CatalogHTTP{Repo: d.Repo}
	raiseH := &RaiseListHTTP{Repo: d.Repo, Sessions: d.Sessions, Producer: d.Producer}
	checkoutH := &CheckoutHTTP{
		Svc:            d.Checkout,
		Repo:           d.Repo,
		Sessions:       d.Sessions,
		PublishableKey: d.PublishableKey,
		Producer:       d.Producer,
	}
	contactH := &ContactHTTP{Mailer: d.Mailer}
	searchH := &SearchHTTP{ES: d.ES, Index: d.SearchIndex}
	adminH := &AdminHTTP{Repo: d.Repo, Prices: d.Prices, ES: d.ES, Index: d.SearchIndex, Producer: d.Producer}

	e.GET("/health/live", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	e.GET("/health/ready", func(c echo.Context) error {
		sqlDB, err := d.Repo.DB.DB()
		if err != nil || sqlDB.PingContext(c.Request().Context()) != nil {
			return c.NoContent(http.StatusServiceUnavailable)
		}
		return c.NoContent(http.StatusOK)
	})

	e.GET("/", catalogH.Home)
	e.GET("/browse", catalogH.Browse)
	e.GET("/elephants/:id", catalogH.GetElephant)
	e.GET("/search", searchH.Search)

	e.POST("/register", authH.Register)
	e.POST("/login", authH.Login)
	e.GET("/logout", authH.Logout)

	e.GET("/config", checkoutH.Config)
	e.POST("/contact", contactH.Contact)

	// The provider authenticates itself through the payload signature.
	e.POST("/webhook", checkoutH.Webhook)

	loggedIn := e.Group("", guard.RequireLogin)
	loggedIn.GET("/info", catalogH.Info)
	loggedIn.GET("/raise-list", raiseH.List)
	loggedIn.POST("/add-to-raise-list/:id", raiseH.Add)
	loggedIn.POST("/remove-from-raise-list/:id", raiseH.Remove)
	loggedIn.POST("/create-checkout-session", checkoutH.CreateCheckoutSession)
	loggedIn.GET("/success", checkoutH.Success)
	loggedIn.GET("/cancel", checkoutH.Cancel)

	admin := e.Group("/admin", guard.RequireAdmin)
	admin.POST("/elephants", adminH.CreateElephant)
	admin.PATCH("/elephants/:id", adminH.PatchElephant)
	admin.DELETE("/elephants/:id", adminH.DeleteElephant)
}

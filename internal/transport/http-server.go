package transport

import (
	"context"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/config"
	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/service"
)

const (
	identityKey  = "identity"
	maxPageLimit = 100
)

var (
	usernameRe = regexp.MustCompile(`^[\w.@+-]+$`)
	slugRe     = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)
)

type (
	CustomValidator struct {
		validator *validator.Validate
	}

	Params struct {
		fx.In

		Config    *config.Config
		General   *service.General
		Catalog   *service.Catalog
		Recipes   *service.Recipes
		Query     *service.RecipeQuery
		Relations *service.Relations
		Shopping  *service.ShoppingList
		Logger    *zap.SugaredLogger
	}

	HTTPServer struct {
		echo      *echo.Echo
		cfg       *config.Config
		general   *service.General
		catalog   *service.Catalog
		recipes   *service.Recipes
		query     *service.RecipeQuery
		relations *service.Relations
		shopping  *service.ShoppingList
		logger    *zap.SugaredLogger
	}
)

func NewHTTPServer(lc fx.Lifecycle, p Params) *HTTPServer {
	instance := newHTTPServer(p)
	e := instance.echo

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				listen := p.Config.Host + ":" + p.Config.Port
				if err := e.Start(listen); err != nil && err != http.ErrServerClosed {
					p.Logger.Fatalw("shutting down the server", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			p.Logger.Info("Stopping HTTP server.")
			return e.Shutdown(ctx)
		},
	})

	return instance
}

func newHTTPServer(p Params) *HTTPServer {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	instance := HTTPServer{
		echo:      e,
		cfg:       p.Config,
		general:   p.General,
		catalog:   p.Catalog,
		recipes:   p.Recipes,
		query:     p.Query,
		relations: p.Relations,
		shopping:  p.Shopping,
		logger:    p.Logger,
	}

	e.POST("/auth/register", instance.Register)
	e.POST("/auth/login", instance.Login)
	e.POST("/auth/logout", instance.Logout)

	userG := e.Group("/users")
	userG.GET("", instance.UserList)
	userG.GET("/me", instance.UserMe)
	userG.PUT("/me/avatar", instance.AvatarSet)
	userG.DELETE("/me/avatar", instance.AvatarDelete)
	userG.GET("/subscriptions", instance.SubscriptionList)
	userG.POST("/set_password", instance.SetPassword)
	userG.GET("/:id", instance.UserGet)
	userG.DELETE("/:id", instance.UserDelete)
	userG.POST("/:id/subscribe", instance.Subscribe)
	userG.DELETE("/:id/subscribe", instance.Unsubscribe)

	tagG := e.Group("/tags")
	tagG.GET("", instance.TagList)
	tagG.GET("/:id", instance.TagGet)
	tagG.POST("", instance.TagCreate)
	tagG.DELETE("/:id", instance.TagDelete)

	ingredientG := e.Group("/ingredients")
	ingredientG.GET("", instance.IngredientList)
	ingredientG.GET("/:id", instance.IngredientGet)
	ingredientG.POST("", instance.IngredientCreate)
	ingredientG.DELETE("/:id", instance.IngredientDelete)

	recipeG := e.Group("/recipes")
	recipeG.GET("", instance.RecipeList)
	recipeG.POST("", instance.RecipeCreate)
	recipeG.GET("/download_shopping_cart", instance.ShoppingCartDownload)
	recipeG.GET("/:id", instance.RecipeGet)
	recipeG.PATCH("/:id", instance.RecipeUpdate)
	recipeG.DELETE("/:id", instance.RecipeDelete)
	recipeG.DELETE("/:id/image", instance.RecipeImageDelete)
	recipeG.GET("/:id/get-link", instance.RecipeShortLink)
	recipeG.POST("/:id/favorite", instance.FavoriteAdd)
	recipeG.DELETE("/:id/favorite", instance.FavoriteRemove)
	recipeG.POST("/:id/shopping_cart", instance.ShoppingCartAdd)
	recipeG.DELETE("/:id/shopping_cart", instance.ShoppingCartRemove)

	e.GET("/s/:code", instance.ShortLinkRedirect)
	e.GET("/ping", func(c echo.Context) error { return c.String(http.StatusOK, "pong") })

	e.Use(middleware.CORS())
	e.Use(RequestLogger(p.Logger))
	e.Use(middleware.Recover())

	e.Use(instance.AuthMiddleware)

	e.Validator = newValidator()
	e.HTTPErrorHandler = instance.errorHandler

	echo.NotFoundHandler = func(c echo.Context) error {
		return c.NoContent(http.StatusNotFound)
	}

	return &instance
}

// AuthMiddleware resolves the caller from the X-Token header (or "Authorization: Token <t>").
// Requests without a token proceed as Anonymous; an unknown token is rejected.
func (s *HTTPServer) AuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if c.Path() == "/ping" {
			return next(c)
		}
		token := tokenFromRequest(c.Request())
		identity, err := s.general.Identify(c.Request().Context(), token)
		if err != nil {
			if errors.Is(err, service.ErrNotFound) {
				return c.NoContent(http.StatusUnauthorized)
			}
			return err
		}

		c.Set(identityKey, identity)
		return next(c)
	}
}

func tokenFromRequest(r *http.Request) string {
	if token := r.Header.Get("X-Token"); token != "" {
		return token
	}
	auth := r.Header.Get(echo.HeaderAuthorization)
	if strings.HasPrefix(auth, "Token ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Token "))
	}
	return ""
}

////////

func newValidator() *CustomValidator {
	v := validator.New()
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernameRe.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return slugRe.MatchString(fl.Field().String())
	})
	return &CustomValidator{validator: v}
}

func (cv *CustomValidator) Validate(i interface{}) error {
	if err := cv.validator.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

func BindAndValidate(c echo.Context, v interface{}) error {
	var err error
	if err = c.Bind(v); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err = c.Validate(v); err != nil {
		return err
	}
	return nil
}

func GetIdentity(c echo.Context) service.Identity {
	identity, ok := c.Get(identityKey).(service.Identity)
	if !ok {
		return service.Anonymous
	}
	return identity
}

func GetParam(c echo.Context, name string) (string, error) {
	value := c.Param(name)
	if value == "" {
		return "", echo.NewHTTPError(http.StatusBadRequest, "invalid path param '"+name+"'")
	}
	return value, nil
}

func GetAndParseParam(c echo.Context, name string) (uint64, error) {
	v, e := GetParam(c, name)
	if e != nil {
		return 0, e
	}
	vv, e := strconv.ParseUint(v, 10, 64)
	if e != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid path param '"+name+"'")
	}
	return vv, nil
}

func queryBool(c echo.Context, name string) (bool, error) {
	v := c.QueryParam(name)
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, echo.NewHTTPError(http.StatusBadRequest, "invalid query param '"+name+"'")
	}
	return b, nil
}

func queryInt(c echo.Context, name string, def int) (int, error) {
	v := c.QueryParam(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid query param '"+name+"'")
	}
	return n, nil
}

// pageFromQuery reads page/limit; limit defaults to the configured page size.
func (s *HTTPServer) pageFromQuery(c echo.Context) (service.Page, error) {
	page, err := queryInt(c, "page", 1)
	if err != nil {
		return service.Page{}, err
	}
	limit, err := queryInt(c, "limit", s.cfg.PageSize)
	if err != nil {
		return service.Page{}, err
	}
	if limit == 0 || limit > maxPageLimit {
		limit = maxPageLimit
	}
	return service.NewPage(page, limit), nil
}

package transport

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/models"
	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/service"
)

const shoppingListFilename = "shopping_cart.txt"

func (s *HTTPServer) RecipeList(c echo.Context) error {
	page, err := s.pageFromQuery(c)
	if err != nil {
		return err
	}
	filter := service.RecipeFilter{
		Tags: c.QueryParams()["tags"],
		Page: page,
	}
	if author := c.QueryParam("author"); author != "" {
		id, err := strconv.ParseUint(author, 10, 64)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid query param 'author'")
		}
		filter.Author = &id
	}
	if filter.IsFavorited, err = queryBool(c, "is_favorited"); err != nil {
		return err
	}
	if filter.IsInShoppingCart, err = queryBool(c, "is_in_shopping_cart"); err != nil {
		return err
	}

	ctx := c.Request().Context()
	viewer := GetIdentity(c)

	recipes, total, err := s.query.Query(ctx, viewer, filter)
	if err != nil {
		return err
	}
	res, err := s.recipeResps(ctx, viewer, recipes)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, models.PageResp{Count: total, Results: res})
}

func (s *HTTPServer) RecipeGet(c echo.Context) error {
	id, err := GetAndParseParam(c, "id")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	recipe, err := s.recipes.Get(ctx, id)
	if err != nil {
		return err
	}
	res, err := s.recipeResp(ctx, GetIdentity(c), recipe)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

func (s *HTTPServer) RecipeCreate(c echo.Context) error {
	identity := GetIdentity(c)
	if _, err := identity.RequireAuthenticated(); err != nil {
		return err
	}
	var req models.RecipeReq
	if err := BindAndValidate(c, &req); err != nil {
		return err
	}
	ctx := c.Request().Context()

	recipe, err := s.recipes.Create(ctx, identity, toRecipeInput(req))
	if err != nil {
		return err
	}
	res, err := s.recipeResp(ctx, identity, recipe)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, res)
}

func (s *HTTPServer) RecipeUpdate(c echo.Context) error {
	identity := GetIdentity(c)
	if _, err := identity.RequireAuthenticated(); err != nil {
		return err
	}
	id, err := GetAndParseParam(c, "id")
	if err != nil {
		return err
	}
	// Field rules live in the service so the author check runs first.
	var req models.RecipeReq
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	ctx := c.Request().Context()

	recipe, err := s.recipes.Update(ctx, identity, id, toRecipeInput(req))
	if err != nil {
		return err
	}
	res, err := s.recipeResp(ctx, identity, recipe)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

func (s *HTTPServer) RecipeDelete(c echo.Context) error {
	id, err := GetAndParseParam(c, "id")
	if err != nil {
		return err
	}
	if err := s.recipes.Delete(c.Request().Context(), GetIdentity(c), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *HTTPServer) RecipeImageDelete(c echo.Context) error {
	id, err := GetAndParseParam(c, "id")
	if err != nil {
		return err
	}
	if err := s.recipes.DeleteImage(c.Request().Context(), GetIdentity(c), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *HTTPServer) RecipeShortLink(c echo.Context) error {
	id, err := GetAndParseParam(c, "id")
	if err != nil {
		return err
	}
	link, err := s.recipes.ShortLink(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, models.ShortLinkResp{ShortLink: link})
}

func (s *HTTPServer) ShortLinkRedirect(c echo.Context) error {
	code, err := GetParam(c, "code")
	if err != nil {
		return err
	}
	id, err := s.recipes.ResolveShortLink(c.Request().Context(), code)
	if err != nil {
		return err
	}
	return c.Redirect(http.StatusFound, "/recipes/"+strconv.FormatUint(id, 10))
}

func (s *HTTPServer) FavoriteAdd(c echo.Context) error {
	return s.addRecipeRelation(c, service.RelationFavorite)
}

func (s *HTTPServer) FavoriteRemove(c echo.Context) error {
	return s.removeRecipeRelation(c, service.RelationFavorite)
}

func (s *HTTPServer) ShoppingCartAdd(c echo.Context) error {
	return s.addRecipeRelation(c, service.RelationCart)
}

func (s *HTTPServer) ShoppingCartRemove(c echo.Context) error {
	return s.removeRecipeRelation(c, service.RelationCart)
}

func (s *HTTPServer) ShoppingCartDownload(c echo.Context) error {
	userID, err := GetIdentity(c).RequireAuthenticated()
	if err != nil {
		return err
	}
	items, err := s.shopping.Compute(c.Request().Context(), userID)
	if err != nil {
		return err
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+shoppingListFilename+`"`)
	return c.Blob(http.StatusOK, "text/plain; charset=utf-8", service.RenderShoppingList(items))
}

func (s *HTTPServer) addRecipeRelation(c echo.Context, kind service.RelationKind) error {
	userID, err := GetIdentity(c).RequireAuthenticated()
	if err != nil {
		return err
	}
	recipeID, err := GetAndParseParam(c, "id")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	if _, err := s.relations.Add(ctx, kind, userID, recipeID); err != nil {
		return err
	}
	recipe, err := s.recipes.Get(ctx, recipeID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toRecipeShortResp(*recipe))
}

func (s *HTTPServer) removeRecipeRelation(c echo.Context, kind service.RelationKind) error {
	userID, err := GetIdentity(c).RequireAuthenticated()
	if err != nil {
		return err
	}
	recipeID, err := GetAndParseParam(c, "id")
	if err != nil {
		return err
	}
	if err := s.relations.Remove(c.Request().Context(), kind, userID, recipeID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

package transport

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/models"
)

func (s *HTTPServer) TagList(c echo.Context) error {
	tags, err := s.catalog.ListTags(c.Request().Context(), c.QueryParam("name"))
	if err != nil {
		return err
	}
	res := make([]models.TagResp, 0, len(tags))
	for _, t := range tags {
		res = append(res, toTagResp(t))
	}
	return c.JSON(http.StatusOK, res)
}

func (s *HTTPServer) TagGet(c echo.Context) error {
	id, err := GetAndParseParam(c, "id")
	if err != nil {
		return err
	}
	tag, err := s.catalog.GetTag(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toTagResp(*tag))
}

func (s *HTTPServer) TagCreate(c echo.Context) error {
	var req models.TagReq
	if err := BindAndValidate(c, &req); err != nil {
		return err
	}
	tag, err := s.catalog.CreateTag(c.Request().Context(), GetIdentity(c), req.Name, req.Slug)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toTagResp(*tag))
}

func (s *HTTPServer) TagDelete(c echo.Context) error {
	id, err := GetAndParseParam(c, "id")
	if err != nil {
		return err
	}
	if err := s.catalog.DeleteTag(c.Request().Context(), GetIdentity(c), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *HTTPServer) IngredientList(c echo.Context) error {
	ingredients, err := s.catalog.ListIngredients(c.Request().Context(), c.QueryParam("name"))
	if err != nil {
		return err
	}
	res := make([]models.IngredientResp, 0, len(ingredients))
	for _, i := range ingredients {
		res = append(res, toIngredientResp(i))
	}
	return c.JSON(http.StatusOK, res)
}

func (s *HTTPServer) IngredientGet(c echo.Context) error {
	id, err := GetAndParseParam(c, "id")
	if err != nil {
		return err
	}
	ingredient, err := s.catalog.GetIngredient(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toIngredientResp(*ingredient))
}

func (s *HTTPServer) IngredientCreate(c echo.Context) error {
	var req models.IngredientReq
	if err := BindAndValidate(c, &req); err != nil {
		return err
	}
	ingredient, err := s.catalog.CreateIngredient(c.Request().Context(), GetIdentity(c), req.Name, req.MeasurementUnit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toIngredientResp(*ingredient))
}

func (s *HTTPServer) IngredientDelete(c echo.Context) error {
	id, err := GetAndParseParam(c, "id")
	if err != nil {
		return err
	}
	if err := s.catalog.DeleteIngredient(c.Request().Context(), GetIdentity(c), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

package transport

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/db"
	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/models"
	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/service"
)

func (s *HTTPServer) Register(c echo.Context) error {
	var req models.UserReq
	if err := BindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := s.general.Register(c.Request().Context(), service.RegisterParams{
		Email:     req.Email,
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  req.Password,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, toUserResp(*user, false))
}

func (s *HTTPServer) Login(c echo.Context) error {
	var req models.LoginReq
	if err := BindAndValidate(c, &req); err != nil {
		return err
	}

	token, err := s.general.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, models.TokenResp{Token: token})
}

func (s *HTTPServer) Logout(c echo.Context) error {
	userID, err := GetIdentity(c).RequireAuthenticated()
	if err != nil {
		return err
	}
	if err := s.general.Logout(c.Request().Context(), userID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *HTTPServer) SetPassword(c echo.Context) error {
	userID, err := GetIdentity(c).RequireAuthenticated()
	if err != nil {
		return err
	}
	var req models.SetPasswordReq
	if err := BindAndValidate(c, &req); err != nil {
		return err
	}
	if err := s.general.SetPassword(c.Request().Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *HTTPServer) UserList(c echo.Context) error {
	page, err := s.pageFromQuery(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	users, total, err := s.general.ListUsers(ctx, page)
	if err != nil {
		return err
	}
	res, err := s.userResps(ctx, GetIdentity(c), users)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, models.PageResp{Count: total, Results: res})
}

func (s *HTTPServer) UserMe(c echo.Context) error {
	userID, err := GetIdentity(c).RequireAuthenticated()
	if err != nil {
		return err
	}
	user, err := s.general.GetUser(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserResp(*user, false))
}

func (s *HTTPServer) UserGet(c echo.Context) error {
	id, err := GetAndParseParam(c, "id")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	user, err := s.general.GetUser(ctx, id)
	if err != nil {
		return err
	}
	subscribed, err := s.viewerFlags(ctx, service.RelationSubscription, GetIdentity(c), []uint64{id})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, toUserResp(*user, subscribed[id]))
}

func (s *HTTPServer) UserDelete(c echo.Context) error {
	id, err := GetAndParseParam(c, "id")
	if err != nil {
		return err
	}
	if err := s.general.DeleteUser(c.Request().Context(), GetIdentity(c), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *HTTPServer) AvatarSet(c echo.Context) error {
	userID, err := GetIdentity(c).RequireAuthenticated()
	if err != nil {
		return err
	}
	var req models.AvatarReq
	if err := BindAndValidate(c, &req); err != nil {
		return err
	}
	if err := s.general.SetAvatar(c.Request().Context(), userID, &req.Avatar); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, req)
}

func (s *HTTPServer) AvatarDelete(c echo.Context) error {
	userID, err := GetIdentity(c).RequireAuthenticated()
	if err != nil {
		return err
	}
	if err := s.general.SetAvatar(c.Request().Context(), userID, nil); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *HTTPServer) SubscriptionList(c echo.Context) error {
	identity := GetIdentity(c)
	userID, err := identity.RequireAuthenticated()
	if err != nil {
		return err
	}
	page, err := s.pageFromQuery(c)
	if err != nil {
		return err
	}
	recipesLimit, err := queryInt(c, "recipes_limit", 0)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	authors, total, err := s.relations.Subscriptions(ctx, userID, page)
	if err != nil {
		return err
	}
	res, err := s.subscriptionResps(ctx, identity, authors, recipesLimit)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, models.PageResp{Count: total, Results: res})
}

func (s *HTTPServer) Subscribe(c echo.Context) error {
	identity := GetIdentity(c)
	userID, err := identity.RequireAuthenticated()
	if err != nil {
		return err
	}
	authorID, err := GetAndParseParam(c, "id")
	if err != nil {
		return err
	}
	recipesLimit, err := queryInt(c, "recipes_limit", 0)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	if _, err := s.relations.Add(ctx, service.RelationSubscription, userID, authorID); err != nil {
		return err
	}
	author, err := s.general.GetUser(ctx, authorID)
	if err != nil {
		return err
	}
	res, err := s.subscriptionResps(ctx, identity, []db.User{*author}, recipesLimit)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, res[0])
}

func (s *HTTPServer) Unsubscribe(c echo.Context) error {
	userID, err := GetIdentity(c).RequireAuthenticated()
	if err != nil {
		return err
	}
	authorID, err := GetAndParseParam(c, "id")
	if err != nil {
		return err
	}
	if err := s.relations.Remove(c.Request().Context(), service.RelationSubscription, userID, authorID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

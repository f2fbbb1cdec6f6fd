package transport

import (
	"context"

	"github.com/pkg/errors"

	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/db"
	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/models"
	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/service"
)

func toTagResp(t db.Tag) models.TagResp {
	return models.TagResp{ID: t.ID, Name: t.Name, Slug: t.Slug}
}

func toIngredientResp(i db.Ingredient) models.IngredientResp {
	return models.IngredientResp{ID: i.ID, Name: i.Name, MeasurementUnit: i.MeasurementUnit}
}

func toUserResp(u db.User, subscribed bool) models.UserResp {
	return models.UserResp{
		ID:           u.ID,
		Email:        u.Email,
		Username:     u.Username,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		IsSubscribed: subscribed,
		Avatar:       u.Avatar,
	}
}

func toRecipeShortResp(r db.Recipe) models.RecipeShortResp {
	return models.RecipeShortResp{ID: r.ID, Name: r.Name, Image: r.Image, CookingTime: r.CookingTime}
}

func toRecipeInput(req models.RecipeReq) service.RecipeInput {
	in := service.RecipeInput{
		Name:        req.Name,
		Text:        req.Text,
		Image:       req.Image,
		CookingTime: req.CookingTime,
		Tags:        req.Tags,
	}
	if req.Ingredients != nil {
		in.Ingredients = make([]service.IngredientAmount, 0, len(req.Ingredients))
		for _, line := range req.Ingredients {
			in.Ingredients = append(in.Ingredients, service.IngredientAmount{ID: line.ID, Amount: line.Amount})
		}
	}
	return in
}

// viewerFlags loads the viewer's relation to each id; anonymous viewers get an empty set.
func (s *HTTPServer) viewerFlags(ctx context.Context, kind service.RelationKind, viewer service.Identity, ids []uint64) (map[uint64]bool, error) {
	if !viewer.Authenticated() || len(ids) == 0 {
		return map[uint64]bool{}, nil
	}
	flags, err := s.relations.Among(ctx, kind, viewer.UserID, ids)
	if err != nil {
		return nil, errors.Wrapf(err, "load %s flags", kind)
	}
	return flags, nil
}

func (s *HTTPServer) userResps(ctx context.Context, viewer service.Identity, users []db.User) ([]models.UserResp, error) {
	ids := make([]uint64, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	subscribed, err := s.viewerFlags(ctx, service.RelationSubscription, viewer, ids)
	if err != nil {
		return nil, err
	}

	res := make([]models.UserResp, 0, len(users))
	for _, u := range users {
		res = append(res, toUserResp(u, subscribed[u.ID]))
	}
	return res, nil
}

func (s *HTTPServer) recipeResps(ctx context.Context, viewer service.Identity, recipes []db.Recipe) ([]models.RecipeResp, error) {
	ids := make([]uint64, 0, len(recipes))
	authorIDs := make([]uint64, 0, len(recipes))
	for _, r := range recipes {
		ids = append(ids, r.ID)
		authorIDs = append(authorIDs, r.AuthorID)
	}

	favorited, err := s.viewerFlags(ctx, service.RelationFavorite, viewer, ids)
	if err != nil {
		return nil, err
	}
	inCart, err := s.viewerFlags(ctx, service.RelationCart, viewer, ids)
	if err != nil {
		return nil, err
	}
	subscribed, err := s.viewerFlags(ctx, service.RelationSubscription, viewer, authorIDs)
	if err != nil {
		return nil, err
	}

	res := make([]models.RecipeResp, 0, len(recipes))
	for _, r := range recipes {
		item := models.RecipeResp{
			ID:               r.ID,
			Tags:             make([]models.TagResp, 0, len(r.Tags)),
			Author:           toUserResp(r.Author, subscribed[r.AuthorID]),
			Ingredients:      make([]models.RecipeIngredientResp, 0, len(r.Ingredients)),
			IsFavorited:      favorited[r.ID],
			IsInShoppingCart: inCart[r.ID],
			Name:             r.Name,
			Image:            r.Image,
			Text:             r.Text,
			CookingTime:      r.CookingTime,
		}
		for _, t := range r.Tags {
			item.Tags = append(item.Tags, toTagResp(t))
		}
		for _, line := range r.Ingredients {
			item.Ingredients = append(item.Ingredients, models.RecipeIngredientResp{
				ID:              line.IngredientID,
				Name:            line.Ingredient.Name,
				MeasurementUnit: line.Ingredient.MeasurementUnit,
				Amount:          line.Amount,
			})
		}
		res = append(res, item)
	}
	return res, nil
}

func (s *HTTPServer) recipeResp(ctx context.Context, viewer service.Identity, recipe *db.Recipe) (*models.RecipeResp, error) {
	res, err := s.recipeResps(ctx, viewer, []db.Recipe{*recipe})
	if err != nil {
		return nil, err
	}
	return &res[0], nil
}

// subscriptionResps renders authors with up to recipesLimit of their recipes; a zero limit means all.
func (s *HTTPServer) subscriptionResps(ctx context.Context, viewer service.Identity, authors []db.User, recipesLimit int) ([]models.SubscriptionResp, error) {
	users, err := s.userResps(ctx, viewer, authors)
	if err != nil {
		return nil, err
	}

	ids := make([]uint64, 0, len(authors))
	for _, a := range authors {
		ids = append(ids, a.ID)
	}
	counts, err := s.recipes.CountByAuthor(ctx, ids)
	if err != nil {
		return nil, err
	}

	res := make([]models.SubscriptionResp, 0, len(authors))
	for i, a := range authors {
		recipes, err := s.recipes.AuthorRecipes(ctx, a.ID, recipesLimit)
		if err != nil {
			return nil, err
		}
		short := make([]models.RecipeShortResp, 0, len(recipes))
		for _, r := range recipes {
			short = append(short, toRecipeShortResp(r))
		}
		res = append(res, models.SubscriptionResp{
			UserResp:     users[i],
			Recipes:      short,
			RecipesCount: counts[a.ID],
		})
	}
	return res, nil
}

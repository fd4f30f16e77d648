package handler

import (
	"context"

	"github.com/dukerupert/foodgram/internal/media"
	"github.com/dukerupert/foodgram/internal/model"
	"github.com/dukerupert/foodgram/internal/store"
)

type userView struct {
	Email        string `json:"email"`
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	IsSubscribed bool   `json:"is_subscribed"`
}

type recipeView struct {
	ID               int64                    `json:"id"`
	Tags             []model.Tag              `json:"tags"`
	Author           userView                 `json:"author"`
	Ingredients      []model.RecipeIngredient `json:"ingredients"`
	IsFavorited      bool                     `json:"is_favorited"`
	IsInShoppingCart bool                     `json:"is_in_shopping_cart"`
	Name             string                   `json:"name"`
	Image            string                   `json:"image"`
	Text             string                   `json:"text"`
	CookingTime      int                      `json:"cooking_time"`
}

type shortRecipeView struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Image       string `json:"image"`
	CookingTime int    `json:"cooking_time"`
}

type subscriptionView struct {
	userView
	Recipes      []shortRecipeView `json:"recipes"`
	RecipesCount int               `json:"recipes_count"`
}

// Presenter turns stored rows into API representations, resolving the
// viewer-relative flags (is_subscribed, is_favorited, is_in_shopping_cart).
// A viewerID of 0 is an anonymous viewer and gets every flag false.
type Presenter struct {
	users     *store.UserStore
	recipes   *store.RecipeStore
	subs      *store.SubscriptionStore
	favorites *store.FavoriteStore
	cart      *store.CartStore
	images    *media.Processor
}

func NewPresenter(us *store.UserStore, rs *store.RecipeStore, ss *store.SubscriptionStore, fs *store.FavoriteStore, cs *store.CartStore, images *media.Processor) *Presenter {
	return &Presenter{users: us, recipes: rs, subs: ss, favorites: fs, cart: cs, images: images}
}

func newUserView(u *model.User, subscribed bool) userView {
	return userView{
		Email:        u.Email,
		ID:           u.ID,
		Username:     u.Username,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		IsSubscribed: subscribed,
	}
}

func (p *Presenter) User(ctx context.Context, viewerID int64, u *model.User) (userView, error) {
	views, err := p.Users(ctx, viewerID, []model.User{*u})
	if err != nil {
		return userView{}, err
	}
	return views[0], nil
}

func (p *Presenter) Users(ctx context.Context, viewerID int64, users []model.User) ([]userView, error) {
	ids := make([]int64, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}
	subscribed, err := p.subs.SubscribedTo(ctx, viewerID, ids)
	if err != nil {
		return nil, err
	}
	views := make([]userView, len(users))
	for i := range users {
		views[i] = newUserView(&users[i], subscribed[users[i].ID])
	}
	return views, nil
}

func (p *Presenter) ShortRecipe(r *model.Recipe) shortRecipeView {
	return shortRecipeView{
		ID:          r.ID,
		Name:        r.Name,
		Image:       p.images.URL(r.Image),
		CookingTime: r.CookingTime,
	}
}

func (p *Presenter) Recipe(ctx context.Context, viewerID int64, r *model.Recipe) (recipeView, error) {
	views, err := p.Recipes(ctx, viewerID, []model.Recipe{*r})
	if err != nil {
		return recipeView{}, err
	}
	return views[0], nil
}

func (p *Presenter) Recipes(ctx context.Context, viewerID int64, recipes []model.Recipe) ([]recipeView, error) {
	recipeIDs := make([]int64, 0, len(recipes))
	authors := make(map[int64]*model.User)
	var authorIDs []int64
	for _, r := range recipes {
		recipeIDs = append(recipeIDs, r.ID)
		if _, ok := authors[r.AuthorID]; ok {
			continue
		}
		u, err := p.users.GetByID(ctx, r.AuthorID)
		if err != nil {
			return nil, err
		}
		if u == nil {
			u = &model.User{ID: r.AuthorID}
		}
		authors[r.AuthorID] = u
		authorIDs = append(authorIDs, r.AuthorID)
	}

	subscribed, err := p.subs.SubscribedTo(ctx, viewerID, authorIDs)
	if err != nil {
		return nil, err
	}
	favorited, err := p.favorites.ContainsAny(ctx, viewerID, recipeIDs)
	if err != nil {
		return nil, err
	}
	inCart, err := p.cart.ContainsAny(ctx, viewerID, recipeIDs)
	if err != nil {
		return nil, err
	}

	views := make([]recipeView, len(recipes))
	for i, r := range recipes {
		tags := r.Tags
		if tags == nil {
			tags = []model.Tag{}
		}
		ingredients := r.Ingredients
		if ingredients == nil {
			ingredients = []model.RecipeIngredient{}
		}
		views[i] = recipeView{
			ID:               r.ID,
			Tags:             tags,
			Author:           newUserView(authors[r.AuthorID], subscribed[r.AuthorID]),
			Ingredients:      ingredients,
			IsFavorited:      favorited[r.ID],
			IsInShoppingCart: inCart[r.ID],
			Name:             r.Name,
			Image:            p.images.URL(r.Image),
			Text:             r.Text,
			CookingTime:      r.CookingTime,
		}
	}
	return views, nil
}

// Subscription renders a followed author with up to recipesLimit of their
// newest recipes. A negative recipesLimit means all.
func (p *Presenter) Subscription(ctx context.Context, author *model.User, recipesLimit int) (subscriptionView, error) {
	recipes, err := p.recipes.ListByAuthor(ctx, author.ID, recipesLimit)
	if err != nil {
		return subscriptionView{}, err
	}
	count, err := p.recipes.CountByAuthor(ctx, author.ID)
	if err != nil {
		return subscriptionView{}, err
	}
	short := make([]shortRecipeView, len(recipes))
	for i := range recipes {
		short[i] = p.ShortRecipe(&recipes[i])
	}
	return subscriptionView{
		userView:     newUserView(author, true),
		Recipes:      short,
		RecipesCount: count,
	}, nil
}

package controller

import (
	"net/http"

	"github.com/gorilla/mux"

	"iotguardian/internal/service"
	"iotguardian/internal/utils"
)

// ShopController serves the public catalog, the troubleshooting guide and the user's cart.
type ShopController struct {
	catalog *service.CatalogService
	carts   *service.CartService
	issues  *service.IssueService
}

func NewShopController(catalog *service.CatalogService, carts *service.CartService, issues *service.IssueService) *ShopController {
	return &ShopController{catalog: catalog, carts: carts, issues: issues}
}

func (c *ShopController) HandleListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	utils.RespondWithJSON(w, http.StatusOK, c.catalog.List(q.Get("q"), q.Get("category")))
}

func (c *ShopController) HandleGetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := c.catalog.Get(mux.Vars(r)["id"])
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, p)
}

func (c *ShopController) HandleListIssues(w http.ResponseWriter, r *http.Request) {
	utils.RespondWithJSON(w, http.StatusOK, c.issues.List(r.URL.Query().Get("q")))
}

func (c *ShopController) HandleGetIssue(w http.ResponseWriter, r *http.Request) {
	is, err := c.issues.Get(mux.Vars(r)["id"])
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, is)
}

type cartItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

func (c *ShopController) HandleGetCart(w http.ResponseWriter, r *http.Request) {
	utils.RespondWithJSON(w, http.StatusOK, c.carts.Get(userID(r)))
}

func (c *ShopController) HandleAddToCart(w http.ResponseWriter, r *http.Request) {
	var req cartItemRequest
	if !utils.DecodeJSON(w, r, &req) {
		return
	}
	cart, err := c.carts.Add(userID(r), req.ProductID, req.Quantity)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, cart)
}

func (c *ShopController) HandleUpdateCartItem(w http.ResponseWriter, r *http.Request) {
	var req cartItemRequest
	if !utils.DecodeJSON(w, r, &req) {
		return
	}
	cart, err := c.carts.SetQuantity(userID(r), mux.Vars(r)["productId"], req.Quantity)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, cart)
}

func (c *ShopController) HandleRemoveCartItem(w http.ResponseWriter, r *http.Request) {
	cart, err := c.carts.Remove(userID(r), mux.Vars(r)["productId"])
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, cart)
}

func (c *ShopController) HandleClearCart(w http.ResponseWriter, r *http.Request) {
	c.carts.Clear(userID(r))
	w.WriteHeader(http.StatusNoContent)
}

func (c *ShopController) HandleCheckout(w http.ResponseWriter, r *http.Request) {
	order, err := c.carts.Checkout(userID(r))
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, order)
}

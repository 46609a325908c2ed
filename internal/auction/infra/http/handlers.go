package http

import (
	"context"

	"github.com/bidstation/engine/internal/auction/application"
	"github.com/bidstation/engine/internal/auction/domain"
	"github.com/bidstation/engine/internal/auth"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// AuctionHandler exposes the auction module over REST.
type AuctionHandler struct {
	auctionService application.AuctionService
}

func NewAuctionHandler(auctionService application.AuctionService) *AuctionHandler {
	return &AuctionHandler{auctionService: auctionService}
}

// RegisterRoutes mounts the authenticated API. Lifecycle writes require the
// auctioneer or admin role; bidding requires bidder or admin; reads are
// open to any authenticated user.
func (h *AuctionHandler) RegisterRoutes(app *fiber.App, jwtSecret string) {
	api := app.Group("/", auth.Authenticate(jwtSecret))

	api.Post("/auctions", auth.Authorize(auth.RoleAuctioneer, auth.RoleAdmin), h.createAuction)
	api.Get("/auctions", h.listAuctions)
	api.Get("/auctions/:id", h.getAuction)
	api.Get("/auctions/:id/lots", h.listAuctionLots)
	api.Post("/auctions/:id/lots", auth.Authorize(auth.RoleAuctioneer, auth.RoleAdmin), h.addLot)
	api.Post("/auctions/:id/start", auth.Authorize(auth.RoleAuctioneer, auth.RoleAdmin), h.startAuction)
	api.Post("/auctions/:id/end", auth.Authorize(auth.RoleAuctioneer, auth.RoleAdmin), h.endAuction)
	api.Post("/auctions/:id/cancel", auth.Authorize(auth.RoleAuctioneer, auth.RoleAdmin), h.cancelAuction)

	api.Get("/lots/:id", h.getLotState)
	api.Post("/lots/:id/close", auth.Authorize(auth.RoleAuctioneer, auth.RoleAdmin), h.closeLot)
	api.Post("/lots/:id/bids", auth.Authorize(auth.RoleBidder, auth.RoleAdmin), h.placeBid)
	api.Get("/lots/:id/bids", h.getLotBids)
}

func (h *AuctionHandler) createAuction(c *fiber.Ctx) error {
	actor, _ := auth.ActorFromCtx(c)

	var req createAuctionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	auction, err := h.auctionService.CreateAuction(c.Context(), application.CreateAuctionDTO{
		Title:        req.Title,
		Description:  req.Description,
		Kind:         domain.AuctionKind(req.Kind),
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		MinIncrement: req.MinIncrement,
		CreatorID:    actor.ID,
		Teams:        req.Teams,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toAuctionResponse(auction))
}

func (h *AuctionHandler) listAuctions(c *fiber.Ctx) error {
	status := domain.AuctionStatus(c.Query("status"))
	auctions, err := h.auctionService.ListAuctions(c.Context(), status)
	if err != nil {
		return respondError(c, err)
	}
	out := make([]auctionResponse, 0, len(auctions))
	for _, a := range auctions {
		out = append(out, toAuctionResponse(a))
	}
	return c.JSON(out)
}

func (h *AuctionHandler) getAuction(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid auction id"})
	}
	auction, err := h.auctionService.GetAuction(c.Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(toAuctionResponse(auction))
}

func (h *AuctionHandler) listAuctionLots(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid auction id"})
	}
	lots, err := h.auctionService.ListAuctionLots(c.Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	out := make([]lotResponse, 0, len(lots))
	for _, lot := range lots {
		out = append(out, toLotResponse(lot))
	}
	return c.JSON(out)
}

func (h *AuctionHandler) addLot(c *fiber.Ctx) error {
	actor, _ := auth.ActorFromCtx(c)
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid auction id"})
	}

	var req addLotRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	lot, err := h.auctionService.AddLot(c.Context(), application.AddLotDTO{
		AuctionID:   id,
		Name:        req.Name,
		Description: req.Description,
		BasePrice:   req.BasePrice,
	}, actor)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toLotResponse(lot))
}

func (h *AuctionHandler) startAuction(c *fiber.Ctx) error {
	return h.transition(c, h.auctionService.StartAuction)
}

func (h *AuctionHandler) endAuction(c *fiber.Ctx) error {
	return h.transition(c, h.auctionService.EndAuction)
}

func (h *AuctionHandler) cancelAuction(c *fiber.Ctx) error {
	return h.transition(c, h.auctionService.CancelAuction)
}

func (h *AuctionHandler) transition(c *fiber.Ctx, op func(ctx context.Context, id uuid.UUID, actor auth.Actor) (*domain.Auction, error)) error {
	actor, _ := auth.ActorFromCtx(c)
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid auction id"})
	}
	auction, err := op(c.Context(), id, actor)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(toAuctionResponse(auction))
}

func (h *AuctionHandler) getLotState(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid lot id"})
	}
	state, err := h.auctionService.GetLotState(c.Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(state)
}

func (h *AuctionHandler) closeLot(c *fiber.Ctx) error {
	actor, _ := auth.ActorFromCtx(c)
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid lot id"})
	}
	lot, err := h.auctionService.CloseLot(c.Context(), id, actor)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(toLotResponse(lot))
}

func (h *AuctionHandler) placeBid(c *fiber.Ctx) error {
	actor, _ := auth.ActorFromCtx(c)
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid lot id"})
	}

	var req placeBidRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	bid, err := h.auctionService.PlaceBid(c.Context(), application.PlaceBidDTO{
		LotID:    id,
		BidderID: actor.ID,
		Team:     req.Team,
		Amount:   req.Amount,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"bid":           toBidResponse(bid),
		"current_price": bid.Amount,
	})
}

func (h *AuctionHandler) getLotBids(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid lot id"})
	}
	bids, err := h.auctionService.GetLotBids(c.Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	out := make([]bidResponse, 0, len(bids))
	for _, b := range bids {
		out = append(out, toBidResponse(b))
	}
	return c.JSON(out)
}

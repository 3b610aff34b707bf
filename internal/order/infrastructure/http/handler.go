package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	catalogapp "github.com/watchara-p/inventory-order-service/internal/catalog/application"
	"github.com/watchara-p/inventory-order-service/internal/order/application"
	"github.com/watchara-p/inventory-order-service/internal/order/domain"
)

type Handler struct {
	log     *slog.Logger
	service *application.Service
	tracer  trace.Tracer
}

func NewHandler(log *slog.Logger, service *application.Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
		tracer:  otel.Tracer("order-http"),
	}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.listOrders)
	r.Get("/{id}", h.getOrder)
	r.Post("/createOrder", h.createOrder)
	r.Put("/updateOrder/{id}", h.updateOrder)
	r.Delete("/deleteOrder/{id}", h.deleteOrder)
	return r
}

type orderRequest struct {
	CustomerName string        `json:"customerName"`
	PhoneNumber  string        `json:"phoneNumber"`
	Address      string        `json:"address"`
	CODService   bool          `json:"codService"`
	Products     []lineItemReq `json:"products"`
}

type lineItemReq struct {
	Product  string `json:"product"`
	Quantity int    `json:"quantity"`
}

func (req orderRequest) toDomain() (domain.Order, error) {
	o := domain.Order{
		CustomerName: req.CustomerName,
		PhoneNumber:  req.PhoneNumber,
		Address:      req.Address,
		CODService:   req.CODService,
		Items:        make([]domain.LineItem, 0, len(req.Products)),
	}
	for _, item := range req.Products {
		oid, err := primitive.ObjectIDFromHex(item.Product)
		if err != nil {
			return domain.Order{}, fmt.Errorf("%w: invalid product id %q", domain.ErrValidation, item.Product)
		}
		o.Items = append(o.Items, domain.LineItem{Product: oid, Quantity: item.Quantity})
	}
	return o, nil
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ListOrders")
	defer span.End()

	orders, err := h.service.ListOrders(ctx)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "GetOrder")
	defer span.End()

	order, err := h.service.GetOrder(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "CreateOrder")
	defer span.End()

	var req orderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	o, err := req.toDomain()
	if err != nil {
		h.writeError(w, err)
		return
	}

	created, err := h.service.CreateOrder(ctx, o)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) updateOrder(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "UpdateOrder")
	defer span.End()

	var req orderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	o, err := req.toDomain()
	if err != nil {
		h.writeError(w, err)
		return
	}

	updated, err := h.service.UpdateOrder(ctx, chi.URLParam(r, "id"), o)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *Handler) deleteOrder(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "DeleteOrder")
	defer span.End()

	if err := h.service.DeleteOrder(ctx, chi.URLParam(r, "id")); err != nil {
		h.writeError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "order deleted successfully")
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, application.ErrOrderNotFound),
		errors.Is(err, catalogapp.ErrProductNotFound):
		status = http.StatusNotFound
	case errors.Is(err, catalogapp.ErrInsufficientStock),
		errors.Is(err, domain.ErrValidation):
		status = http.StatusBadRequest
	default:
		h.log.Error("order request failed", "err", err)
	}
	writeMessage(w, status, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

package floor

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/telemetry"
	"github.com/go-chi/chi/v5"
)

const MaxBodyBytes = 1 << 20

// Handler exposes the store over HTTP. It holds no state of its own.
type Handler struct {
	store  *Store
	logger apt.Logger
	tlm    *telemetry.HTTP
}

func NewHandler(store *Store, logger apt.Logger) *Handler {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Handler{
		store:  store,
		logger: logger,
		tlm:    telemetry.NewHTTP(),
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/tables", func(r chi.Router) {
		r.Get("/", h.ListTables)
		r.Put("/", h.SetTables)
		r.Get("/{id}", h.GetTable)
		r.Patch("/{id}", h.UpdateTable)

		r.Post("/{id}/order", h.OpenOrder)
		r.Get("/{id}/order", h.GetOpenOrder)
		r.Get("/{id}/orders", h.ListTableOrders)
		r.Put("/{id}/session", h.SyncSession)
	})

	r.Route("/orders", func(r chi.Router) {
		r.Get("/", h.ListOrders)
		r.Get("/{id}", h.GetOrder)
		r.Post("/{id}/close", h.CloseOrder)
	})

	r.Route("/reservations", func(r chi.Router) {
		r.Get("/", h.ListReservations)
		r.Post("/", h.CreateReservation)
		r.Put("/", h.SetReservations)
		r.Get("/{id}", h.GetReservation)
		r.Patch("/{id}", h.UpdateReservation)
		r.Delete("/{id}", h.DeleteReservation)
		r.Post("/{id}/assign", h.AssignReservation)
		r.Post("/{id}/seat", h.SeatReservation)
		r.Post("/{id}/cancel", h.CancelReservation)
		r.Post("/{id}/no-show", h.MarkReservationNoShow)
	})

	r.Route("/waitlist", func(r chi.Router) {
		r.Get("/", h.ListWaitlist)
		r.Post("/", h.AddToWaitlist)
		r.Patch("/{id}", h.UpdateWaitlistEntry)
		r.Delete("/{id}", h.RemoveFromWaitlist)
	})
}

// Table Handlers

func (h *Handler) ListTables(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ListTables")
	defer finish()

	tables := h.store.GetTables()
	if status := r.URL.Query().Get("status"); status != "" {
		filtered := make([]Table, 0, len(tables))
		for _, t := range tables {
			if t.Status == status {
				filtered = append(filtered, t)
			}
		}
		tables = filtered
	}

	apt.RespondSuccess(w, tables)
}

func (h *Handler) SetTables(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.SetTables")
	defer finish()

	log := h.log(r)

	tables, ok := decodePayload[[]Table](w, r, log)
	if !ok {
		return
	}

	validationErrors := ValidateTables(tables)
	if len(validationErrors) > 0 {
		log.Debug("validation failed", "errors", validationErrors)
		apt.RespondError(w, http.StatusBadRequest, "Validation failed")
		return
	}

	h.store.SetTables(tables)
	apt.RespondSuccess(w, h.store.GetTables())
}

func (h *Handler) GetTable(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetTable")
	defer finish()

	log := h.log(r)

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	table, found := h.store.GetTable(id)
	if !found {
		apt.RespondError(w, http.StatusNotFound, "Table not found")
		return
	}

	apt.RespondSuccess(w, table)
}

func (h *Handler) UpdateTable(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.UpdateTable")
	defer finish()

	log := h.log(r)

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	patch, ok := decodePayload[TablePatch](w, r, log)
	if !ok {
		return
	}

	validationErrors := ValidateTablePatch(patch)
	if len(validationErrors) > 0 {
		log.Debug("validation failed", "errors", validationErrors)
		apt.RespondError(w, http.StatusBadRequest, "Validation failed")
		return
	}

	table, found := h.store.UpdateTable(id, patch)
	if !found {
		apt.RespondError(w, http.StatusNotFound, "Table not found")
		return
	}

	apt.RespondSuccess(w, table)
}

// Order Handlers

func (h *Handler) OpenOrder(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.OpenOrder")
	defer finish()

	log := h.log(r)

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	var req OpenOrderRequest
	if r.ContentLength != 0 {
		req, ok = decodePayload[OpenOrderRequest](w, r, log)
		if !ok {
			return
		}
	}

	validationErrors := ValidateOpenOrder(req)
	if len(validationErrors) > 0 {
		log.Debug("validation failed", "errors", validationErrors)
		apt.RespondError(w, http.StatusBadRequest, "Validation failed")
		return
	}

	orderID, opened := h.store.OpenOrderForTable(id, req.GuestCount)
	if !opened {
		apt.RespondError(w, http.StatusNotFound, "Table not found")
		return
	}

	order, found := h.store.GetOrderByID(orderID)
	if !found {
		log.Error("opened order missing from store", "order_id", orderID)
		apt.RespondError(w, http.StatusInternalServerError, "Could not open order")
		return
	}

	apt.RespondSuccess(w, order)
}

func (h *Handler) GetOpenOrder(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetOpenOrder")
	defer finish()

	log := h.log(r)

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	order, found := h.store.GetOpenOrderForTable(id)
	if !found {
		apt.RespondError(w, http.StatusNotFound, "Open order not found")
		return
	}

	apt.RespondSuccess(w, order)
}

func (h *Handler) ListTableOrders(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ListTableOrders")
	defer finish()

	log := h.log(r)

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	if _, found := h.store.GetTable(id); !found {
		apt.RespondError(w, http.StatusNotFound, "Table not found")
		return
	}

	apt.RespondSuccess(w, h.store.GetOrdersForTable(id))
}

func (h *Handler) SyncSession(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.SyncSession")
	defer finish()

	log := h.log(r)

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	session, ok := decodePayload[Session](w, r, log)
	if !ok {
		return
	}

	validationErrors := ValidateSession(session)
	if len(validationErrors) > 0 {
		log.Debug("validation failed", "errors", validationErrors)
		apt.RespondError(w, http.StatusBadRequest, "Validation failed")
		return
	}

	if !HasSessionData(session) {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	orderID, synced := h.store.SyncOrderSession(id, session)
	if !synced {
		apt.RespondError(w, http.StatusNotFound, "Table not found")
		return
	}

	order, _ := h.store.GetOrderByID(orderID)
	apt.RespondSuccess(w, order)
}

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ListOrders")
	defer finish()

	if r.URL.Query().Get("status") == OrderOpen {
		apt.RespondSuccess(w, h.store.GetOpenOrders())
		return
	}

	apt.RespondSuccess(w, h.store.GetOrders())
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetOrder")
	defer finish()

	log := h.log(r)

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	order, found := h.store.GetOrderByID(id)
	if !found {
		apt.RespondError(w, http.StatusNotFound, "Order not found")
		return
	}

	apt.RespondSuccess(w, order)
}

func (h *Handler) CloseOrder(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.CloseOrder")
	defer finish()

	log := h.log(r)

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	var req CloseOrderRequest
	if r.ContentLength != 0 {
		req, ok = decodePayload[CloseOrderRequest](w, r, log)
		if !ok {
			return
		}
	}

	if _, found := h.store.GetOrderByID(id); !found {
		apt.RespondError(w, http.StatusNotFound, "Order not found")
		return
	}

	if !h.store.CloseOrder(id, req.Bill) {
		log.Debug("order already closed", "order_id", id)
	}

	order, _ := h.store.GetOrderByID(id)
	apt.RespondSuccess(w, order)
}

// Reservation Handlers

func (h *Handler) ListReservations(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ListReservations")
	defer finish()

	reservations := h.store.GetReservations()
	if date := r.URL.Query().Get("date"); date != "" {
		filtered := make([]Reservation, 0, len(reservations))
		for _, res := range reservations {
			if res.Date == date {
				filtered = append(filtered, res)
			}
		}
		reservations = filtered
	}

	apt.RespondSuccess(w, reservations)
}

func (h *Handler) CreateReservation(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.CreateReservation")
	defer finish()

	log := h.log(r)

	req, ok := decodePayload[ReservationCreateRequest](w, r, log)
	if !ok {
		return
	}

	validationErrors := ValidateReservationCreate(req)
	if len(validationErrors) > 0 {
		log.Debug("validation failed", "errors", validationErrors)
		apt.RespondError(w, http.StatusBadRequest, "Validation failed")
		return
	}

	reservation := h.store.CreateReservation(req.toReservation())

	w.WriteHeader(http.StatusCreated)
	apt.RespondSuccess(w, reservation)
}

func (h *Handler) SetReservations(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.SetReservations")
	defer finish()

	log := h.log(r)

	reservations, ok := decodePayload[[]Reservation](w, r, log)
	if !ok {
		return
	}

	h.store.SetReservations(reservations)
	apt.RespondSuccess(w, h.store.GetReservations())
}

func (h *Handler) GetReservation(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetReservation")
	defer finish()

	log := h.log(r)

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	reservation, found := h.store.GetReservation(id)
	if !found {
		apt.RespondError(w, http.StatusNotFound, "Reservation not found")
		return
	}

	apt.RespondSuccess(w, reservation)
}

func (h *Handler) UpdateReservation(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.UpdateReservation")
	defer finish()

	log := h.log(r)

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	patch, ok := decodePayload[ReservationPatch](w, r, log)
	if !ok {
		return
	}

	validationErrors := ValidateReservationPatch(patch)
	if len(validationErrors) > 0 {
		log.Debug("validation failed", "errors", validationErrors)
		apt.RespondError(w, http.StatusBadRequest, "Validation failed")
		return
	}

	reservation, found := h.store.UpdateReservation(id, patch)
	if !found {
		apt.RespondError(w, http.StatusNotFound, "Reservation not found")
		return
	}

	apt.RespondSuccess(w, reservation)
}

func (h *Handler) DeleteReservation(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.DeleteReservation")
	defer finish()

	log := h.log(r)

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	if !h.store.DeleteReservation(id) {
		apt.RespondError(w, http.StatusNotFound, "Reservation not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) AssignReservation(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.AssignReservation")
	defer finish()

	log := h.log(r)

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	req, ok := decodePayload[AssignReservationRequest](w, r, log)
	if !ok {
		return
	}

	if strings.TrimSpace(req.TableID) == "" {
		apt.RespondError(w, http.StatusBadRequest, "tableId is required")
		return
	}

	if !h.store.AssignReservationToTable(id, req.TableID) {
		apt.RespondError(w, http.StatusNotFound, "Reservation not found")
		return
	}

	reservation, _ := h.store.GetReservation(id)
	apt.RespondSuccess(w, reservation)
}

func (h *Handler) SeatReservation(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.SeatReservation")
	defer finish()

	h.transitionReservation(w, r, h.store.SeatReservation)
}

func (h *Handler) CancelReservation(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.CancelReservation")
	defer finish()

	h.transitionReservation(w, r, h.store.CancelReservation)
}

func (h *Handler) MarkReservationNoShow(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.MarkReservationNoShow")
	defer finish()

	h.transitionReservation(w, r, h.store.MarkReservationNoShow)
}

// transitionReservation answers with the reservation after move. A move that
// changes nothing still answers 200 with the current reservation.
func (h *Handler) transitionReservation(w http.ResponseWriter, r *http.Request, move func(id string) bool) {
	log := h.log(r)

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	if !move(id) {
		log.Debug("reservation unchanged", "reservation_id", id)
	}

	reservation, found := h.store.GetReservation(id)
	if !found {
		apt.RespondError(w, http.StatusNotFound, "Reservation not found")
		return
	}

	apt.RespondSuccess(w, reservation)
}

// Waitlist Handlers

func (h *Handler) ListWaitlist(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ListWaitlist")
	defer finish()

	apt.RespondSuccess(w, h.store.GetWaitlist())
}

func (h *Handler) AddToWaitlist(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.AddToWaitlist")
	defer finish()

	log := h.log(r)

	req, ok := decodePayload[WaitlistCreateRequest](w, r, log)
	if !ok {
		return
	}

	validationErrors := ValidateWaitlistCreate(req)
	if len(validationErrors) > 0 {
		log.Debug("validation failed", "errors", validationErrors)
		apt.RespondError(w, http.StatusBadRequest, "Validation failed")
		return
	}

	entry := h.store.AddToWaitlist(req.toEntry())

	w.WriteHeader(http.StatusCreated)
	apt.RespondSuccess(w, entry)
}

func (h *Handler) UpdateWaitlistEntry(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.UpdateWaitlistEntry")
	defer finish()

	log := h.log(r)

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	patch, ok := decodePayload[WaitlistPatch](w, r, log)
	if !ok {
		return
	}

	entry, found := h.store.UpdateWaitlistEntry(id, patch)
	if !found {
		apt.RespondError(w, http.StatusNotFound, "Waitlist entry not found")
		return
	}

	apt.RespondSuccess(w, entry)
}

func (h *Handler) RemoveFromWaitlist(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.RemoveFromWaitlist")
	defer finish()

	log := h.log(r)

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	if !h.store.RemoveFromWaitlist(id) {
		apt.RespondError(w, http.StatusNotFound, "Waitlist entry not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Helper methods

func (h *Handler) log(r *http.Request) apt.Logger {
	return h.logger.With("request_id", r.Context().Value("request_id"))
}

func (h *Handler) parseIDParam(w http.ResponseWriter, r *http.Request, log apt.Logger) (string, bool) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		log.Debug("missing id parameter")
		apt.RespondError(w, http.StatusBadRequest, "Missing id parameter")
		return "", false
	}
	return id, true
}

func decodePayload[T any](w http.ResponseWriter, r *http.Request, log apt.Logger) (T, bool) {
	var req T

	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	defer r.Body.Close()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Debug("error reading request body", "error", err)
		apt.RespondError(w, http.StatusBadRequest, "Could not read request body")
		return req, false
	}

	if len(strings.TrimSpace(string(body))) == 0 {
		apt.RespondError(w, http.StatusBadRequest, "Request body is empty")
		return req, false
	}

	if err := json.Unmarshal(body, &req); err != nil {
		log.Debug("error decoding JSON", "error", err)
		apt.RespondError(w, http.StatusBadRequest, "Invalid JSON payload")
		return req, false
	}

	return req, true
}

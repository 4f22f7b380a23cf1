package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"

	"pitstop/internal/parkingspaces/service"
	apperrors "pitstop/pkg/errors"
	httputil "pitstop/pkg/http"
	"pitstop/pkg/logger"
	"pitstop/pkg/model"
)

type ParkingSpaceHandler struct {
	service service.ParkingSpaceService
	log     *logger.Logger
}

func NewParkingSpaceHandler(service service.ParkingSpaceService, log *logger.Logger) *ParkingSpaceHandler {
	return &ParkingSpaceHandler{
		service: service,
		log:     log,
	}
}

func (h *ParkingSpaceHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ownerID := httputil.UserID(r)
	if ownerID == "" {
		if writeErr := httputil.WriteError(w, apperrors.InvalidInput("X-User-ID header is required")); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Create", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	var space model.ParkingSpace
	if err := json.NewDecoder(r.Body).Decode(&space); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Create", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}
	space.OwnerID = ownerID

	if err := h.service.Create(r.Context(), &space); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Create", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteCreated(w, space); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *ParkingSpaceHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")

	space, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetByID", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, space); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ParkingSpaceHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetAll", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	spaces, total, err := h.service.GetAll(r.Context(), limit, offset)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetAll", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WritePaginated(w, spaces, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "GetAll", "operation", "WritePaginated", "error", err)
	}
}

func (h *ParkingSpaceHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")
	ownerID := httputil.UserID(r)

	var updates model.ParkingSpaceUpdate
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Update", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	if err := h.service.Update(r.Context(), id, ownerID, &updates); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Update", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	httputil.WriteNoContent(w)
}

func (h *ParkingSpaceHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")
	ownerID := httputil.UserID(r)

	if err := h.service.Delete(r.Context(), id, ownerID); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Delete", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	httputil.WriteNoContent(w)
}

func (h *ParkingSpaceHandler) Search(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	query := r.URL.Query()

	search := &model.SpaceSearch{
		OnlyAvailable:    query.Get("available") == "true",
		RequireRoof:      query.Get("has_roof") == "true",
		LargeVehicleOnly: query.Get("large_vehicles") == "true",
	}

	if maxHour := query.Get("max_price_per_hour"); maxHour != "" {
		parsed, err := strconv.ParseFloat(maxHour, 64)
		if err != nil {
			if writeErr := httputil.WriteError(w, apperrors.InvalidInput(fmt.Sprintf("invalid max_price_per_hour parameter: %s", maxHour))); writeErr != nil {
				h.log.Error("failed to write error response", "handler", "Search", "operation", "WriteError", "error", writeErr)
			}
			return
		}
		search.MaxPricePerHour = &parsed
	}
	if maxDay := query.Get("max_price_per_day"); maxDay != "" {
		parsed, err := strconv.ParseFloat(maxDay, 64)
		if err != nil {
			if writeErr := httputil.WriteError(w, apperrors.InvalidInput(fmt.Sprintf("invalid max_price_per_day parameter: %s", maxDay))); writeErr != nil {
				h.log.Error("failed to write error response", "handler", "Search", "operation", "WriteError", "error", writeErr)
			}
			return
		}
		search.MaxPricePerDay = &parsed
	}

	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Search", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	spaces, total, err := h.service.Search(r.Context(), search, limit, offset)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Search", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WritePaginated(w, spaces, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "Search", "operation", "WritePaginated", "error", err)
	}
}

func (h *ParkingSpaceHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/parking-spaces", h.Create)
	router.GET("/api/v1/parking-spaces", h.GetAll)
	router.GET("/api/v1/parking-spaces/id/:id", h.GetByID)
	router.PATCH("/api/v1/parking-spaces/id/:id", h.Update)
	router.DELETE("/api/v1/parking-spaces/id/:id", h.Delete)
	router.GET("/api/v1/parking-spaces/search", h.Search)
}

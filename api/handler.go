package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"

	"evstation/internal"
	"evstation/internal/config"
	"evstation/ocpp/smartcharging"
	"evstation/types"
)

// StationState is what the local API reads from the running station.
type StationState interface {
	InstalledProfiles() []internal.ChargingProfileRecord
	OnGetCompositeSchedule(request *smartcharging.GetCompositeScheduleRequest) (*smartcharging.GetCompositeScheduleConfirmation, error)
}

type Handler struct {
	station StationState
}

func (h *Handler) profiles(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	writeJson(w, h.station.InstalledProfiles())
}

func (h *Handler) schedule(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	connectorId, err := strconv.Atoi(params.ByName("connectorId"))
	if err != nil {
		http.Error(w, "invalid connector id", http.StatusBadRequest)
		return
	}
	duration := 3600
	if value := r.URL.Query().Get("duration"); value != "" {
		duration, err = strconv.Atoi(value)
		if err != nil {
			http.Error(w, "invalid duration", http.StatusBadRequest)
			return
		}
	}
	request := smartcharging.NewGetCompositeScheduleRequest(connectorId, duration)
	if unit := r.URL.Query().Get("unit"); unit != "" {
		request.ChargingRateUnit = types.ChargingRateUnitType(unit)
	}
	confirmation, err := h.station.OnGetCompositeSchedule(request)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJson(w, confirmation)
}

func writeJson(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Println("api: encode response;", err)
	}
}

// Listen serves the local status API until the listener fails.
func Listen(conf *config.Config, station StationState) error {
	if !conf.Api.Enabled {
		return nil
	}
	handler := &Handler{station: station}
	router := httprouter.New()
	router.GET("/api/v1/profiles", handler.profiles)
	router.GET("/api/v1/schedule/:connectorId", handler.schedule)
	address := conf.Api.BindIP + ":" + conf.Api.Port
	log.Println("starting api server on " + address)
	return http.ListenAndServe(address, router)
}

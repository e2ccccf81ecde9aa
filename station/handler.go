package station

import (
	"fmt"
	"sync"
	"time"

	"evstation/charging"
	"evstation/internal"
	"evstation/internal/config"
	"evstation/metrics/counters"
	"evstation/models"
	"evstation/ocpp/smartcharging"
	"evstation/types"
	"evstation/utility"
)

// SystemHandler owns the station's smart charging state: the connector
// scopes, the installed profiles and the rules for admitting, clearing and
// merging them. Protocol handlers below run one at a time.
type SystemHandler struct {
	conf       *config.Config
	registry   *charging.ConnectorRegistry
	store      *charging.ProfileStore
	validator  *charging.Validator
	calculator *charging.Calculator
	database   internal.Database
	logger     internal.LogHandler
	mux        sync.Mutex
}

func NewSystemHandler(conf *config.Config) *SystemHandler {
	registry := charging.NewConnectorRegistry()
	phaseType := models.PhaseType(conf.Station.PhaseType)
	if !utility.Contains([]string{string(models.PhaseTypeAC), string(models.PhaseTypeDC)}, conf.Station.PhaseType) {
		phaseType = models.PhaseTypeUnknown
	}
	// Connector 0 stands for the station itself.
	registry.Add(&models.Connector{Id: 0, PhaseType: phaseType, IsEnabled: true})
	for i := 1; i <= conf.Station.Connectors; i++ {
		registry.Add(&models.Connector{Id: i, PhaseType: phaseType, IsEnabled: true, Status: "Available"})
	}

	limits := charging.Limits{
		MaxStackLevel:        conf.Charging.MaxStackLevel,
		MaxProfiles:          conf.Charging.MaxProfiles,
		MaxSchedulePeriods:   conf.Charging.MaxSchedulePeriods,
		AllowNoStartSchedule: conf.Charging.AllowNoStartSchedule,
		IgnoreNoTransaction:  conf.Charging.IgnoreNoTransaction,
	}
	for _, unit := range conf.Charging.RateUnits {
		limits.AllowedRateUnits = append(limits.AllowedRateUnits, types.ChargingRateUnitType(unit))
	}

	store := charging.NewProfileStore()
	return &SystemHandler{
		conf:       conf,
		registry:   registry,
		store:      store,
		validator:  charging.NewValidator(registry, store, limits),
		calculator: charging.NewCalculator(registry),
	}
}

func (h *SystemHandler) SetDatabase(database internal.Database) {
	h.database = database
}

func (h *SystemHandler) SetLogger(logger internal.LogHandler) {
	h.logger = logger
	h.calculator.SetLogger(logger)
}

// OnStart loads persisted profiles back into the store.
func (h *SystemHandler) OnStart() error {
	if h.database == nil {
		return nil
	}
	h.mux.Lock()
	defer h.mux.Unlock()
	records, err := h.database.GetChargingProfiles()
	if err != nil {
		return err
	}
	for i := range records {
		profile := records[i].Profile
		h.store.Add(records[i].ConnectorId, &profile)
	}
	counters.ObserveProfilesInstalled(h.store.Count())
	if len(records) > 0 {
		h.featureLog("Start", fmt.Sprintf("restored %d charging profiles", len(records)))
	}
	return nil
}

func (h *SystemHandler) featureLog(feature, text string) {
	if h.logger != nil {
		h.logger.FeatureEvent(feature, h.conf.Station.Id, text)
	}
}

func (h *SystemHandler) OnSetChargingProfile(request *smartcharging.SetChargingProfileRequest) (*smartcharging.SetChargingProfileConfirmation, error) {
	h.mux.Lock()
	defer h.mux.Unlock()

	profile := request.ChargingProfile
	if profile == nil {
		counters.ObserveProfileRejected("MissingProfile")
		return smartcharging.NewSetChargingProfileConfirmation(smartcharging.ChargingProfileStatusRejected), nil
	}

	scope, _ := h.registry.Scope(request.ConnectorId)
	charging.NormalizeProfileSchedules(profile, scope)

	result := h.validator.ValidateProfile(profile, request.ConnectorId)
	if !result.IsValid() {
		counters.ObserveProfileRejected(result.String())
		h.featureLog(smartcharging.SetChargingProfileFeatureName,
			fmt.Sprintf("profile %d rejected: %s", profile.ChargingProfileId, result))
		return smartcharging.NewSetChargingProfileConfirmation(smartcharging.ChargingProfileStatusRejected), nil
	}

	// A profile admitted without a start schedule anchors at receipt time.
	if profile.ChargingProfileKind != types.ChargingProfileKindRelative {
		for _, schedule := range profile.Schedules() {
			if schedule.StartSchedule == nil {
				schedule.StartSchedule = types.NewDateTime(time.Now().UTC().Truncate(time.Second))
			}
		}
	}

	h.store.Add(request.ConnectorId, profile)
	if h.database != nil {
		record := &internal.ChargingProfileRecord{
			ProfileId:   profile.ChargingProfileId,
			ConnectorId: request.ConnectorId,
			Profile:     *profile,
		}
		if err := h.database.UpsertChargingProfile(record); err != nil && h.logger != nil {
			h.logger.Error("persist charging profile", err)
		}
	}

	counters.ObserveProfileAccepted(string(profile.ChargingProfilePurpose))
	counters.ObserveProfilesInstalled(h.store.Count())
	h.featureLog(smartcharging.SetChargingProfileFeatureName,
		fmt.Sprintf("profile %d (%s, stack %d) installed on connector %d",
			profile.ChargingProfileId, profile.ChargingProfilePurpose, profile.StackLevel, request.ConnectorId))
	return smartcharging.NewSetChargingProfileConfirmation(smartcharging.ChargingProfileStatusAccepted), nil
}

func (h *SystemHandler) OnGetCompositeSchedule(request *smartcharging.GetCompositeScheduleRequest) (*smartcharging.GetCompositeScheduleConfirmation, error) {
	h.mux.Lock()
	defer h.mux.Unlock()

	if _, ok := h.registry.Scope(request.ConnectorId); !ok || request.Duration <= 0 {
		counters.ObserveCompositeRequest(string(smartcharging.GetCompositeScheduleStatusRejected))
		h.featureLog(smartcharging.GetCompositeScheduleFeatureName,
			fmt.Sprintf("rejected request for connector %d, duration %d", request.ConnectorId, request.Duration))
		return smartcharging.NewGetCompositeScheduleConfirmation(smartcharging.GetCompositeScheduleStatusRejected), nil
	}

	unit := request.ChargingRateUnit
	if unit == "" {
		unit = types.ChargingRateUnitAmperes
	}
	start := time.Now().UTC().Truncate(time.Second)
	end := start.Add(time.Duration(request.Duration) * time.Second)

	profiles := h.store.Relevant(request.ConnectorId)
	composite := h.calculator.CompositeSchedule(profiles, start, end, request.ConnectorId, unit)

	confirmation := smartcharging.NewGetCompositeScheduleConfirmation(smartcharging.GetCompositeScheduleStatusAccepted)
	connectorId := composite.ConnectorId
	duration := composite.Duration
	confirmation.ConnectorId = &connectorId
	confirmation.ScheduleStart = composite.ScheduleStart
	confirmation.ChargingSchedule = &types.ChargingSchedule{
		Duration:               &duration,
		StartSchedule:          composite.ScheduleStart,
		ChargingRateUnit:       composite.ChargingRateUnit,
		ChargingSchedulePeriod: composite.ChargingSchedulePeriod,
	}

	counters.ObserveCompositeRequest(string(smartcharging.GetCompositeScheduleStatusAccepted))
	h.featureLog(smartcharging.GetCompositeScheduleFeatureName,
		fmt.Sprintf("connector %d: %d periods over %ds", request.ConnectorId, len(composite.ChargingSchedulePeriod), composite.Duration))
	return confirmation, nil
}

func (h *SystemHandler) OnClearChargingProfile(request *smartcharging.ClearChargingProfileRequest) (*smartcharging.ClearChargingProfileConfirmation, error) {
	h.mux.Lock()
	defer h.mux.Unlock()

	// An id with no other criteria clears that one profile wherever it is.
	matchIdOnly := request.Id != nil && request.ChargingProfilePurpose == "" &&
		request.StackLevel == nil && request.ConnectorId == nil

	removed := h.store.ClearWithFilter(request.Id, request.ChargingProfilePurpose, request.StackLevel, request.ConnectorId, matchIdOnly)
	if len(removed) == 0 {
		return smartcharging.NewClearChargingProfileConfirmation(smartcharging.ClearChargingProfileStatusUnknown), nil
	}

	if h.database != nil {
		for _, profile := range removed {
			if err := h.database.DeleteChargingProfile(profile.ChargingProfileId); err != nil && h.logger != nil {
				h.logger.Error("delete charging profile", err)
			}
		}
	}

	counters.ObserveProfilesCleared(len(removed))
	counters.ObserveProfilesInstalled(h.store.Count())
	h.featureLog(smartcharging.ClearChargingProfileFeatureName,
		fmt.Sprintf("removed %d charging profiles", len(removed)))
	return smartcharging.NewClearChargingProfileConfirmation(smartcharging.ClearChargingProfileStatusAccepted), nil
}

// SetTransaction binds an active session to a connector.
func (h *SystemHandler) SetTransaction(connectorId int, transaction *models.Transaction) error {
	if !h.registry.SetTransaction(connectorId, transaction) {
		return fmt.Errorf("unknown connector %d", connectorId)
	}
	return nil
}

func (h *SystemHandler) ClearTransaction(connectorId int) {
	h.registry.ClearTransaction(connectorId)
}

// InstalledProfiles reports the current store contents for the local API.
func (h *SystemHandler) InstalledProfiles() []internal.ChargingProfileRecord {
	h.mux.Lock()
	defer h.mux.Unlock()
	scoped := h.store.AllScoped()
	records := make([]internal.ChargingProfileRecord, 0, len(scoped))
	for _, entry := range scoped {
		records = append(records, internal.ChargingProfileRecord{
			ProfileId:   entry.Profile.ChargingProfileId,
			ConnectorId: entry.ScopeID,
			Profile:     *entry.Profile,
		})
	}
	return records
}

package counters

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var profilesAccepted = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "ocpp",
	Name:      "charging_profiles_accepted",
	Help:      "Total number of accepted charging profiles by purpose.",
}, []string{"purpose"})

var profilesRejected = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "ocpp",
	Name:      "charging_profiles_rejected",
	Help:      "Total number of rejected charging profiles by reason.",
}, []string{"reason"})

var profilesInstalled = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "ocpp",
	Name:      "charging_profiles_installed",
	Help:      "Number of currently installed charging profiles.",
})

var profilesCleared = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "ocpp",
	Name:      "charging_profiles_cleared",
	Help:      "Total number of charging profiles removed by ClearChargingProfile.",
})

var compositeRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "ocpp",
	Name:      "composite_schedule_requests",
	Help:      "Total number of GetCompositeSchedule requests by status.",
}, []string{"status"})

func ObserveProfileAccepted(purpose string) {
	if len(purpose) == 0 {
		return
	}
	profilesAccepted.With(prometheus.Labels{"purpose": purpose}).Inc()
}

func ObserveProfileRejected(reason string) {
	if len(reason) == 0 {
		return
	}
	profilesRejected.With(prometheus.Labels{"reason": reason}).Inc()
}

func ObserveProfilesInstalled(count int) {
	profilesInstalled.Set(float64(count))
}

func ObserveProfilesCleared(count int) {
	if count <= 0 {
		return
	}
	profilesCleared.Add(float64(count))
}

func ObserveCompositeRequest(status string) {
	if len(status) == 0 {
		return
	}
	compositeRequests.With(prometheus.Labels{"status": status}).Inc()
}

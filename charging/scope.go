package charging

import (
	"evstation/models"
	"sync"
)

// StationWideID addresses the whole station instead of a single connection point.
const StationWideID = 0

// Scope is a connection point a profile may target: a connector, an EVSE,
// or the station itself. Protocol revisions index these differently, so the
// rest of the package only ever sees this capability.
type Scope interface {
	ID() int
	PhaseType() models.PhaseType
	ActiveTransaction() *models.Transaction
}

// ScopeRegistry resolves scope identifiers to known connection points.
type ScopeRegistry interface {
	Scope(id int) (Scope, bool)
}

// ConnectorScope adapts a 1.6-style connector record to the Scope capability.
type ConnectorScope struct {
	connector   *models.Connector
	transaction *models.Transaction
	mux         sync.Mutex
}

func (c *ConnectorScope) ID() int {
	return c.connector.Id
}

func (c *ConnectorScope) PhaseType() models.PhaseType {
	return c.connector.PhaseType
}

func (c *ConnectorScope) ActiveTransaction() *models.Transaction {
	c.mux.Lock()
	defer c.mux.Unlock()
	if c.transaction == nil || c.transaction.IsFinished {
		return nil
	}
	return c.transaction
}

// ConnectorRegistry is the connector-indexed ScopeRegistry used with OCPP 1.6
// stations. Id 0 is registered by the station itself for station-wide profiles.
type ConnectorRegistry struct {
	connectors map[int]*ConnectorScope
}

func NewConnectorRegistry() *ConnectorRegistry {
	return &ConnectorRegistry{
		connectors: make(map[int]*ConnectorScope),
	}
}

func (r *ConnectorRegistry) Add(connector *models.Connector) *ConnectorScope {
	scope := &ConnectorScope{connector: connector}
	r.connectors[connector.Id] = scope
	return scope
}

func (r *ConnectorRegistry) Scope(id int) (Scope, bool) {
	scope, ok := r.connectors[id]
	if !ok {
		return nil, false
	}
	return scope, true
}

func (r *ConnectorRegistry) Count() int {
	return len(r.connectors)
}

// SetTransaction attaches an active session to a connector, making it
// visible to Relative profiles and TxProfile validation.
func (r *ConnectorRegistry) SetTransaction(connectorId int, transaction *models.Transaction) bool {
	scope, ok := r.connectors[connectorId]
	if !ok {
		return false
	}
	scope.mux.Lock()
	defer scope.mux.Unlock()
	scope.transaction = transaction
	return true
}

func (r *ConnectorRegistry) ClearTransaction(connectorId int) {
	scope, ok := r.connectors[connectorId]
	if !ok {
		return
	}
	scope.mux.Lock()
	defer scope.mux.Unlock()
	scope.transaction = nil
}

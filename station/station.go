package station

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"evstation/api"
	"evstation/internal"
	"evstation/internal/config"
	"evstation/metrics"
	"evstation/ocpp"
	"evstation/ocpp/core"
	"evstation/ocpp/smartcharging"
	"evstation/types"
	"evstation/utility"
)

const reconnectDelay = 10 * time.Second

// Station is the charge point side of the OCPP-J connection: it dials the
// central system, keeps the link alive with heartbeats and serves the smart
// charging requests arriving over it.
type Station struct {
	conf    *config.Config
	logger  *internal.Logger
	handler *SystemHandler

	conn    *websocket.Conn
	sendMux sync.Mutex

	pending    map[string]string
	pendingMux sync.Mutex

	heartbeatInterval time.Duration
}

func NewStation() (*Station, error) {
	conf, err := config.GetConfig()
	if err != nil {
		return nil, err
	}

	location, err := time.LoadLocation(conf.TimeZone)
	if err != nil {
		location = time.UTC
	}
	logger := internal.NewLogger(location)
	if conf.IsDebug != nil {
		logger.SetDebugMode(*conf.IsDebug)
	}

	var database internal.Database
	mongo, err := internal.NewMongoClient(conf)
	if err != nil {
		return nil, err
	}
	if mongo != nil {
		database = mongo
	} else {
		database = internal.NewMemDB()
	}
	logger.SetDatabase(database)

	handler := NewSystemHandler(conf)
	handler.SetDatabase(database)
	handler.SetLogger(logger)
	if err = handler.OnStart(); err != nil {
		return nil, err
	}

	station := &Station{
		conf:              conf,
		logger:            logger,
		handler:           handler,
		pending:           make(map[string]string),
		heartbeatInterval: time.Duration(conf.Station.HeartbeatInterval) * time.Second,
	}

	go func() {
		if err := metrics.Listen(conf); err != nil {
			logger.Error("metrics server", err)
		}
	}()
	go func() {
		if err := api.Listen(conf, handler); err != nil {
			logger.Error("api server", err)
		}
	}()

	return station, nil
}

func (s *Station) Handler() *SystemHandler {
	return s.handler
}

// Start connects to the central system and serves the link until it drops,
// then reconnects. It blocks forever.
func (s *Station) Start() {
	dialer := websocket.Dialer{
		Subprotocols:     []string{types.SubProtocol16},
		HandshakeTimeout: 30 * time.Second,
	}
	url := fmt.Sprintf("%s/%s", s.conf.Station.CentralSystemUrl, s.conf.Station.Id)
	for {
		conn, _, err := dialer.Dial(url, nil)
		if err != nil {
			s.logger.Error("connect to central system", err)
			time.Sleep(reconnectDelay)
			continue
		}
		s.logger.Debug(fmt.Sprintf("connected to %s", url))
		s.conn = conn
		s.serve(conn)
		s.conn = nil
		time.Sleep(reconnectDelay)
	}
}

func (s *Station) serve(conn *websocket.Conn) {
	defer func() {
		if err := conn.Close(); err != nil {
			s.logger.Error("close connection", err)
		}
	}()

	if err := s.sendRequest(core.NewBootNotificationRequest(s.conf.Station.Vendor, s.conf.Station.Model)); err != nil {
		s.logger.Error("send boot notification", err)
		return
	}

	stop := make(chan struct{})
	defer close(stop)
	go s.heartbeat(stop)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			s.logger.Error("read message", err)
			return
		}
		s.logger.RawDataEvent("received", string(data))

		fields, err := utility.ParseJson(data)
		if err != nil {
			s.logger.Error("parse message", err)
			continue
		}
		if len(fields) == 0 {
			continue
		}
		typeId, ok := fields[0].(float64)
		if !ok {
			s.logger.Warn("message without a type id")
			continue
		}
		switch CallType(typeId) {
		case CallTypeRequest:
			s.handleCall(fields)
		case CallTypeResult:
			s.handleResult(fields)
		case CallTypeError:
			s.handleCallError(fields)
		default:
			s.logger.Warn(fmt.Sprintf("unsupported message type id: %v", typeId))
		}
	}
}

func (s *Station) heartbeat(stop chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case <-time.After(s.heartbeatInterval):
			if err := s.sendRequest(core.NewHeartbeatRequest()); err != nil {
				s.logger.Error("send heartbeat", err)
				return
			}
		}
	}
}

func (s *Station) handleCall(fields []interface{}) {
	callRequest, err := ParseRequest(fields)
	if err != nil {
		s.logger.Error("parse request", err)
		if len(fields) > 1 {
			if uniqueId, ok := fields[1].(string); ok {
				s.sendCallError(uniqueId, ErrorFormationViolation, err.Error())
			}
		}
		return
	}

	if err = types.Validate.Struct(callRequest.Payload); err != nil {
		s.logger.Error("invalid payload", err)
		s.sendCallError(callRequest.UniqueId, ErrorFormationViolation, err.Error())
		return
	}

	var confirmation ocpp.Response
	switch request := callRequest.Payload.(type) {
	case *smartcharging.SetChargingProfileRequest:
		confirmation, err = s.handler.OnSetChargingProfile(request)
	case *smartcharging.GetCompositeScheduleRequest:
		confirmation, err = s.handler.OnGetCompositeSchedule(request)
	case *smartcharging.ClearChargingProfileRequest:
		confirmation, err = s.handler.OnClearChargingProfile(request)
	default:
		s.sendCallError(callRequest.UniqueId, ErrorNotSupported, fmt.Sprintf("unsupported feature: %s", callRequest.GetFeatureName()))
		return
	}
	if err != nil {
		s.logger.Error(fmt.Sprintf("handle %s", callRequest.GetFeatureName()), err)
		s.sendCallError(callRequest.UniqueId, ErrorInternalError, err.Error())
		return
	}

	callResult := CreateCallResult(confirmation, callRequest.UniqueId)
	if err = s.writeMessage(callResult); err != nil {
		s.logger.Error("send call result", err)
	}
}

func (s *Station) handleResult(fields []interface{}) {
	uniqueId, payload, err := ParseResult(fields)
	if err != nil {
		s.logger.Error("parse result", err)
		return
	}
	feature := s.takePending(uniqueId)
	switch feature {
	case core.BootNotificationFeatureName:
		var response core.BootNotificationResponse
		if err = decodePayload(payload, &response); err != nil {
			s.logger.Error("parse boot notification response", err)
			return
		}
		if response.Interval > 0 {
			s.heartbeatInterval = time.Duration(response.Interval) * time.Second
		}
		s.logger.FeatureEvent(core.BootNotificationFeatureName, s.conf.Station.Id, fmt.Sprintf("registration status: %s", response.Status))
	case core.HeartbeatFeatureName:
		s.logger.Debug("heartbeat confirmed")
	case "":
		s.logger.Warn(fmt.Sprintf("result for unknown request %s", uniqueId))
	}
}

func (s *Station) handleCallError(fields []interface{}) {
	uniqueId, code, description, err := ParseCallError(fields)
	if err != nil {
		s.logger.Error("parse call error", err)
		return
	}
	feature := s.takePending(uniqueId)
	s.logger.Warn(fmt.Sprintf("%s failed: %s (%s)", feature, code, description))
}

func decodePayload(raw interface{}, target interface{}) error {
	data, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, target)
}

func (s *Station) sendRequest(request ocpp.Request) error {
	uniqueId := utility.NewUUID()
	call := CreateCall(request, uniqueId)
	s.pendingMux.Lock()
	s.pending[uniqueId] = request.GetFeatureName()
	s.pendingMux.Unlock()
	return s.writeMessage(call)
}

func (s *Station) takePending(uniqueId string) string {
	s.pendingMux.Lock()
	defer s.pendingMux.Unlock()
	feature := s.pending[uniqueId]
	delete(s.pending, uniqueId)
	return feature
}

func (s *Station) sendCallError(uniqueId, code, description string) {
	if err := s.writeMessage(CreateCallError(uniqueId, code, description)); err != nil {
		s.logger.Error("send call error", err)
	}
}

func (s *Station) writeMessage(message interface{}) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}
	s.sendMux.Lock()
	defer s.sendMux.Unlock()
	if s.conn == nil {
		return fmt.Errorf("no connection to central system")
	}
	s.logger.RawDataEvent("sent", string(data))
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

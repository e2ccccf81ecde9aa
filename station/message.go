package station

import (
	"encoding/json"
	"evstation/ocpp"
	"evstation/ocpp/smartcharging"
	"evstation/utility"
	"fmt"
	"reflect"
)

type CallType int

const (
	CallTypeRequest CallType = 2
	CallTypeResult  CallType = 3
	CallTypeError   CallType = 4
)

const (
	ErrorNotSupported       = "NotSupported"
	ErrorFormationViolation = "FormationViolation"
	ErrorInternalError      = "InternalError"
)

// Call An OCPP-J Call message, carrying an outgoing OCPP Request.
type Call struct {
	TypeId   CallType
	UniqueId string
	Action   string
	Payload  ocpp.Request
}

func (call *Call) MarshalJSON() ([]byte, error) {
	fields := make([]interface{}, 4)
	fields[0] = int(call.TypeId)
	fields[1] = call.UniqueId
	fields[2] = call.Action
	fields[3] = call.Payload
	return json.Marshal(fields)
}

func CreateCall(request ocpp.Request, uniqueId string) *Call {
	return &Call{
		TypeId:   CallTypeRequest,
		UniqueId: uniqueId,
		Action:   request.GetFeatureName(),
		Payload:  request,
	}
}

// CallResult An OCPP-J CallResult message, containing an OCPP Response.
type CallResult struct {
	TypeId   CallType
	UniqueId string
	Payload  ocpp.Response
}

func (callResult *CallResult) MarshalJSON() ([]byte, error) {
	fields := make([]interface{}, 3)
	fields[0] = int(callResult.TypeId)
	fields[1] = callResult.UniqueId
	fields[2] = callResult.Payload
	return json.Marshal(fields)
}

func CreateCallResult(confirmation ocpp.Response, uniqueId string) *CallResult {
	return &CallResult{
		TypeId:   CallTypeResult,
		UniqueId: uniqueId,
		Payload:  confirmation,
	}
}

// CallError An OCPP-J CallError message, reporting a request the station
// could not serve.
type CallError struct {
	TypeId           CallType
	UniqueId         string
	ErrorCode        string
	ErrorDescription string
}

func (callError *CallError) MarshalJSON() ([]byte, error) {
	fields := make([]interface{}, 5)
	fields[0] = int(callError.TypeId)
	fields[1] = callError.UniqueId
	fields[2] = callError.ErrorCode
	fields[3] = callError.ErrorDescription
	fields[4] = struct{}{}
	return json.Marshal(fields)
}

func CreateCallError(uniqueId, code, description string) *CallError {
	return &CallError{
		TypeId:           CallTypeError,
		UniqueId:         uniqueId,
		ErrorCode:        code,
		ErrorDescription: description,
	}
}

type CallRequest struct {
	TypeId   CallType
	UniqueId string
	feature  string
	Payload  ocpp.Request
}

func (callRequest *CallRequest) GetFeatureName() string {
	return callRequest.feature
}

func ParseRequest(data []interface{}) (*CallRequest, error) {
	if len(data) != 4 {
		return nil, utility.Err("unsupported request format; expected length: 4 elements")
	}
	rawTypeId, ok := data[0].(float64)
	if !ok {
		return nil, utility.Err("invalid message type in request")
	}
	typeId := CallType(rawTypeId)
	if typeId != CallTypeRequest {
		return nil, utility.Err(fmt.Sprintf("invalid request type id: %v", typeId))
	}
	uniqueId, ok := data[1].(string)
	if !ok {
		return nil, utility.Err("invalid message unique id in request")
	}
	action, ok := data[2].(string)
	if !ok {
		return nil, utility.Err("invalid action in request")
	}

	requestType, err := getRequestType(action)
	if err != nil {
		return nil, err
	}
	request, err := ocpp.ParseRawJsonRequest(data[3], requestType)
	if err != nil {
		return nil, err
	}
	callRequest := CallRequest{
		TypeId:   typeId,
		UniqueId: uniqueId,
		feature:  action,
		Payload:  request,
	}
	return &callRequest, nil
}

func getRequestType(action string) (requestType reflect.Type, err error) {
	switch action {
	case smartcharging.SetChargingProfileFeatureName:
		requestType = reflect.TypeOf(smartcharging.SetChargingProfileRequest{})
	case smartcharging.GetCompositeScheduleFeatureName:
		requestType = reflect.TypeOf(smartcharging.GetCompositeScheduleRequest{})
	case smartcharging.ClearChargingProfileFeatureName:
		requestType = reflect.TypeOf(smartcharging.ClearChargingProfileRequest{})
	default:
		return nil, utility.Err(fmt.Sprintf("unsupported action requested: %s", action))
	}
	return requestType, nil
}

// ParseResult reads a CallResult frame for a request the station sent
// earlier. The payload stays raw; the caller decodes it once the pending
// feature is known.
func ParseResult(data []interface{}) (uniqueId string, payload interface{}, err error) {
	if len(data) != 3 {
		return "", nil, utility.Err("unsupported result format; expected length: 3 elements")
	}
	uniqueId, ok := data[1].(string)
	if !ok {
		return "", nil, utility.Err("invalid message unique id in result")
	}
	return uniqueId, data[2], nil
}

// ParseCallError reads a CallError frame for a request the station sent.
func ParseCallError(data []interface{}) (uniqueId, code, description string, err error) {
	if len(data) < 4 {
		return "", "", "", utility.Err("unsupported error format; expected length: 5 elements")
	}
	uniqueId, _ = data[1].(string)
	code, _ = data[2].(string)
	description, _ = data[3].(string)
	if uniqueId == "" {
		return "", "", "", utility.Err("invalid message unique id in error")
	}
	return uniqueId, code, description, nil
}

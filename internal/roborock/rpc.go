package roborock

import (
	"encoding/json"
	"time"
)

// RpcRequest is the JSON body carried inside a GeneralRequest frame's
// payload, itself wrapped in the device's "dps" envelope.
type RpcRequest struct {
	ID     uint32          `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params"`
}

// NewRpcRequest builds an RpcRequest, marshaling params with json.Marshal.
func NewRpcRequest(id uint32, method string, params any) (RpcRequest, error) {
	raw, err := json.Marshal(params)
	if err != nil {
		return RpcRequest{}, err
	}
	return RpcRequest{ID: id, Method: method, Params: raw}, nil
}

// ToPayload renders the request as the dps-wrapped JSON body the GeneralRequest
// frame carries as its (pre-encryption) payload.
func (r RpcRequest) ToPayload() ([]byte, error) {
	inner, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	outer := struct {
		Dps map[string]string `json:"dps"`
		T   uint32            `json:"t"`
	}{
		Dps: map[string]string{"101": string(inner)},
		T:   unixTimestamp(),
	}
	return json.Marshal(outer)
}

// RpcResponse is the decoded result of a GeneralResponse/RpcResponse frame.
type RpcResponse struct {
	ID     *uint32
	Result json.RawMessage
	Err    error // one of the Err* sentinels, nil on success
}

// DecodeRpcResponse parses a response payload's dps["102"] data point.
func DecodeRpcResponse(payload []byte) (RpcResponse, error) {
	var outer struct {
		Dps map[string]json.RawMessage `json:"dps"`
	}
	if err := json.Unmarshal(payload, &outer); err != nil {
		return RpcResponse{}, err
	}
	if outer.Dps == nil {
		return RpcResponse{}, ErrMissingDps
	}
	raw, ok := outer.Dps["102"]
	if !ok {
		return RpcResponse{}, ErrMissingResponse
	}
	var dataPoint string
	if err := json.Unmarshal(raw, &dataPoint); err != nil {
		return RpcResponse{}, ErrMissingResponse
	}

	var inner struct {
		ID     *uint32         `json:"id"`
		Result json.RawMessage `json:"result"`
		Error  *string         `json:"error"`
	}
	if err := json.Unmarshal([]byte(dataPoint), &inner); err != nil {
		return RpcResponse{}, err
	}

	var rpcErr error
	if inner.Error != nil {
		if *inner.Error == "unknown_method" {
			rpcErr = ErrUnknownMethod
		} else {
			rpcErr = ErrDeviceError
		}
	}

	result := json.RawMessage(`{}`)
	switch {
	case len(inner.Result) == 0:
		if rpcErr == nil {
			rpcErr = ErrMissingResult
		}
	case isJSONString(inner.Result):
		var s string
		_ = json.Unmarshal(inner.Result, &s)
		if s == "ok" {
			// result stays {}
		} else if rpcErr == nil {
			if s == "unknown_method" {
				rpcErr = ErrUnknownMethod
			} else {
				rpcErr = ErrUnexpectedResult
			}
		}
	case isJSONObjectArrayOrNumber(inner.Result):
		result = inner.Result
	default:
		if rpcErr == nil {
			rpcErr = ErrInvalidResultType
		}
	}

	return RpcResponse{ID: inner.ID, Result: result, Err: rpcErr}, nil
}

func isJSONString(raw json.RawMessage) bool {
	for _, b := range raw {
		if b == ' ' || b == '\t' || b == '\n' || b == '\r' {
			continue
		}
		return b == '"'
	}
	return false
}

func isJSONObjectArrayOrNumber(raw json.RawMessage) bool {
	for _, b := range raw {
		if b == ' ' || b == '\t' || b == '\n' || b == '\r' {
			continue
		}
		return b == '{' || b == '[' || b == '-' || (b >= '0' && b <= '9')
	}
	return false
}

func unixTimestamp() uint32 {
	return uint32(time.Now().Unix())
}

package roborock

import (
	"encoding/json"
	"testing"
)

func TestDecodeRpcResponse_Ok(t *testing.T) {
	payload := []byte(`{"dps":{"102":"{\"id\":123,\"result\":{\"ok\":true}}"}}`)
	response, err := DecodeRpcResponse(payload)
	if err != nil {
		t.Fatalf("DecodeRpcResponse() error = %v", err)
	}
	if response.ID == nil || *response.ID != 123 {
		t.Fatalf("response.ID = %v, want 123", response.ID)
	}
	if response.Err != nil {
		t.Errorf("response.Err = %v, want nil", response.Err)
	}

	var result map[string]bool
	if err := json.Unmarshal(response.Result, &result); err != nil {
		t.Fatalf("unmarshal result: %v", err)
	}
	if !result["ok"] {
		t.Errorf("result = %+v, want ok=true", result)
	}
}

func TestDecodeRpcResponse_ErrorField(t *testing.T) {
	payload := []byte(`{"dps":{"102":"{\"id\":321,\"error\":\"unknown_method\"}"}}`)
	response, err := DecodeRpcResponse(payload)
	if err != nil {
		t.Fatalf("DecodeRpcResponse() error = %v", err)
	}
	if response.ID == nil || *response.ID != 321 {
		t.Fatalf("response.ID = %v, want 321", response.ID)
	}
	if response.Err != ErrUnknownMethod {
		t.Errorf("response.Err = %v, want %v", response.Err, ErrUnknownMethod)
	}
}

func TestDecodeRpcResponse_UnknownMethodResult(t *testing.T) {
	payload := []byte(`{"dps":{"102":"{\"id\":555,\"result\":\"unknown_method\"}"}}`)
	response, err := DecodeRpcResponse(payload)
	if err != nil {
		t.Fatalf("DecodeRpcResponse() error = %v", err)
	}
	if response.ID == nil || *response.ID != 555 {
		t.Fatalf("response.ID = %v, want 555", response.ID)
	}
	if response.Err != ErrUnknownMethod {
		t.Errorf("response.Err = %v, want %v", response.Err, ErrUnknownMethod)
	}
	if string(response.Result) != "{}" {
		t.Errorf("response.Result = %s, want {}", response.Result)
	}
}

func TestDecodeRpcResponse_MissingResult(t *testing.T) {
	payload := []byte(`{"dps":{"102":"{\"id\":1}"}}`)
	response, err := DecodeRpcResponse(payload)
	if err != nil {
		t.Fatalf("DecodeRpcResponse() error = %v", err)
	}
	if response.Err != ErrMissingResult {
		t.Errorf("response.Err = %v, want %v", response.Err, ErrMissingResult)
	}
}

func TestDecodeRpcResponse_MissingDps(t *testing.T) {
	_, err := DecodeRpcResponse([]byte(`{}`))
	if err != ErrMissingDps {
		t.Errorf("DecodeRpcResponse() error = %v, want %v", err, ErrMissingDps)
	}
}

func TestRpcRequest_ToPayload(t *testing.T) {
	request, err := NewRpcRequest(7, "get_status", []any{})
	if err != nil {
		t.Fatalf("NewRpcRequest() error = %v", err)
	}
	payload, err := request.ToPayload()
	if err != nil {
		t.Fatalf("ToPayload() error = %v", err)
	}

	var outer struct {
		Dps map[string]string `json:"dps"`
	}
	if err := json.Unmarshal(payload, &outer); err != nil {
		t.Fatalf("unmarshal outer: %v", err)
	}
	var inner struct {
		ID     uint32 `json:"id"`
		Method string `json:"method"`
	}
	if err := json.Unmarshal([]byte(outer.Dps["101"]), &inner); err != nil {
		t.Fatalf("unmarshal inner: %v", err)
	}
	if inner.ID != 7 || inner.Method != "get_status" {
		t.Errorf("inner = %+v, want id=7 method=get_status", inner)
	}
}

package api

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// OperationRequest is the POST body
type OperationRequest struct {
	Op    string `json:"op" validate:"required,oneof=add replace remove"`
	Path  string `json:"path" validate:"required,startswith=/,max=512,xrl_safe"`
	Value Scalar `json:"value" validate:"required,max=256,xrl_safe"`
}

// Scalar is a JSON string or number kept as its text form. VLAN ids are often sent as numbers.
type Scalar string

// UnmarshalJSON accepts a string, a number or null
func (s *Scalar) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*s = ""
		return nil
	case len(data) > 0 && data[0] == '"':
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = Scalar(str)
		return nil
	}

	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return fmt.Errorf("value must be a string or a number, got %s", data)
	}
	*s = Scalar(num.String())
	return nil
}

// EchoResponse mirrors the request back to the caller
type EchoResponse struct {
	Path      string            `json:"path"`
	QueryData map[string]string `json:"query_data"`
	PostData  string            `json:"post_data"`
	FormData  map[string]string `json:"form_data"`
	Cookies   map[string]string `json:"cookies"`
}

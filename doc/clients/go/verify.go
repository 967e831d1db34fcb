// sample implementation, do not build or test
//go:build ignore

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
)

type VerifyRequest struct {
	Token string `json:"token"`
}

type VerifyResponse struct {
	Valid bool `json:"valid"`
	Data  *struct {
		HWID string `json:"hwid"`
		Exp  int64  `json:"exp"`
	} `json:"data"`
	Error string `json:"error"`
}

// Verify checks a stored token against the server. A false result with
// error "expired" means the machine must re-activate; any other error
// means the token is unusable.
func Verify(baseURL, token string) (*VerifyResponse, error) {
	body, err := json.Marshal(VerifyRequest{Token: token})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	resp, err := http.Post(baseURL+"/verificar", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	var result VerifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &result, nil
}

// sample implementation, do not build or test
//go:build ignore

package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

type ActivateRequest struct {
	HWID string `json:"hwid"`
}

type ActivateResponse struct {
	OK    bool   `json:"ok"`
	Token string `json:"token"`
	Error string `json:"error"`
}

// Activate requests a license token for this machine. The returned
// token should be stored locally and re-verified with /verificar on
// each startup.
func Activate(baseURL string) (string, error) {
	body, err := json.Marshal(ActivateRequest{HWID: GetHWID()})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	resp, err := http.Post(baseURL+"/activar", "application/json", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	var result ActivateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	if !result.OK {
		return "", errors.New("activation refused: " + result.Error)
	}
	return result.Token, nil
}

package client

// ActivateRequest is the body of POST /activar.
type ActivateRequest struct {
	HWID string `json:"hwid"`
}

// ActivateResponse mirrors the original wire format: ok plus either a
// token or a short error code.
type ActivateResponse struct {
	OK    bool   `json:"ok"`
	Token string `json:"token,omitempty"`
	Error string `json:"error,omitempty"`
}

// VerifyRequest is the body of POST /verificar.
type VerifyRequest struct {
	Token string `json:"token"`
}

// TokenData is the claim set echoed back on successful verification.
type TokenData struct {
	HWID string `json:"hwid"`
	Exp  int64  `json:"exp"`
}

type VerifyResponse struct {
	Valid bool       `json:"valid"`
	Data  *TokenData `json:"data,omitempty"`
	Error string     `json:"error,omitempty"`
}

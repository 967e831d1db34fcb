package admin

import (
	"hwidlock.io/actserver/internal/expiry"
	"hwidlock.io/actserver/internal/hwid"
)

// AddOrUpdateRequest registers or re-registers a HWID. Days takes
// priority over Expires when both are present; Expires accepts an
// epoch integer or an ISO date string.
type AddOrUpdateRequest struct {
	HWID    string `json:"hwid"`
	Days    *int   `json:"days"`
	Expires any    `json:"expires"`
}

type AddOrUpdateResponse struct {
	OK      bool          `json:"ok"`
	Message string        `json:"message,omitempty"`
	HWID    string        `json:"hwid,omitempty"`
	Expires expiry.Expiry `json:"expires"`
	Error   string        `json:"error,omitempty"`
}

type RemoveRequest struct {
	HWID string `json:"hwid"`
}

type RemoveResponse struct {
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
	HWID    string `json:"hwid,omitempty"`
	Error   string `json:"error,omitempty"`
}

type ListResponse struct {
	HWIDs []hwid.Status `json:"hwids"`
}

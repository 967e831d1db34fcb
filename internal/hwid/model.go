package hwid

import "hwidlock.io/actserver/internal/expiry"

// Record is a single authorized hardware identifier. Expires of Never
// means the HWID does not expire. Expired records stay listed until an
// admin removes them.
type Record struct {
	HWID    string       `json:"hwid"`
	Expires expiry.Expiry `json:"expires"`
}

// Status is a Record with its expiration evaluated at list time.
type Status struct {
	Record
	Expired bool `json:"expired"`
}

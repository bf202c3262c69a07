package model

import (
	"fmt"
	"time"
)

// SecurityKey identifies a listed security by exchange and local code.
type SecurityKey struct {
	Exchange string `json:"exchange"`
	Code     string `json:"code"`
}

// String renders the key in CODE.EXCH form, e.g. 600519.SH.
func (k SecurityKey) String() string {
	return fmt.Sprintf("%s.%s", k.Code, k.Exchange)
}

// IsZero reports whether the key is unset.
func (k SecurityKey) IsZero() bool {
	return k.Exchange == "" && k.Code == ""
}

// SecurityProfile holds descriptive reference data for a security.
type SecurityProfile struct {
	Key      SecurityKey
	Name     string
	FullName string
	Industry string
	Market   string
	ListDate time.Time
}

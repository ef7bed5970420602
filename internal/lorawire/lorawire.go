// Package lorawire frames radio messages as LoRaWAN unconfirmed uplinks.
//
// The relay uses it to wrap raw frames read from the station's serial link
// before forwarding them to a network server over UDP. Keys and the device
// address are static session parameters, the way an ABP device holds them.
package lorawire

import (
	"errors"
	"fmt"

	"github.com/brocaar/lorawan"
)

// Context holds the session state for one device on the LoRaWAN side.
type Context struct {
	DevAddr lorawan.DevAddr
	AppSKey lorawan.AES128Key
	NwkSKey lorawan.AES128Key
	FPort   uint8
	FCnt    uint32
}

// Encode wraps data into an encrypted unconfirmed uplink and returns the
// base64 text form. The caller advances FCnt between frames.
func (c *Context) Encode(data []byte) (string, error) {
	fport := c.FPort
	phy := lorawan.PHYPayload{
		MHDR: lorawan.MHDR{
			MType: lorawan.UnconfirmedDataUp,
			Major: lorawan.LoRaWANR1,
		},
		MACPayload: &lorawan.MACPayload{
			FHDR: lorawan.FHDR{
				DevAddr: c.DevAddr,
				FCnt:    c.FCnt,
			},
			FPort:      &fport,
			FRMPayload: []lorawan.Payload{&lorawan.DataPayload{Bytes: data}},
		},
	}

	if err := phy.EncryptFRMPayload(c.AppSKey); err != nil {
		return "", fmt.Errorf("encrypt frame payload: %w", err)
	}
	if err := phy.SetUplinkDataMIC(lorawan.LoRaWAN1_0, 0, 0, 0, c.NwkSKey, lorawan.AES128Key{}); err != nil {
		return "", fmt.Errorf("set uplink MIC: %w", err)
	}

	text, err := phy.MarshalText()
	if err != nil {
		return "", fmt.Errorf("marshal uplink: %w", err)
	}
	return string(text), nil
}

// Decode parses a base64 uplink, checks the MIC and returns the decrypted
// application payload. Frames for another DevAddr are rejected.
func (c *Context) Decode(text string) ([]byte, error) {
	var phy lorawan.PHYPayload
	if err := phy.UnmarshalText([]byte(text)); err != nil {
		return nil, fmt.Errorf("unmarshal uplink: %w", err)
	}

	mac, ok := phy.MACPayload.(*lorawan.MACPayload)
	if !ok {
		return nil, errors.New("payload is not a MAC payload")
	}
	if mac.FHDR.DevAddr != c.DevAddr {
		return nil, fmt.Errorf("frame for %s, want %s", mac.FHDR.DevAddr, c.DevAddr)
	}

	ok, err := phy.ValidateUplinkDataMIC(lorawan.LoRaWAN1_0, 0, 0, 0, c.NwkSKey, lorawan.AES128Key{})
	if err != nil {
		return nil, fmt.Errorf("validate uplink MIC: %w", err)
	}
	if !ok {
		return nil, errors.New("invalid MIC")
	}

	if err := phy.DecryptFRMPayload(c.AppSKey); err != nil {
		return nil, fmt.Errorf("decrypt frame payload: %w", err)
	}
	if len(mac.FRMPayload) == 0 {
		return nil, errors.New("empty frame payload")
	}
	data, ok := mac.FRMPayload[0].(*lorawan.DataPayload)
	if !ok {
		return nil, errors.New("frame payload is not application data")
	}
	return data.Bytes, nil
}

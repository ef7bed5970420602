package lorawire

import (
	"bytes"
	"testing"

	"github.com/brocaar/lorawan"
)

func testContext() Context {
	return Context{
		DevAddr: lorawan.DevAddr{0x01, 0x00, 0x00, 0x01},
		AppSKey: lorawan.AES128Key{
			0x10, 0x11, 0x12, 0x13, 0x14, 0x15, 0x16, 0x17,
			0x18, 0x19, 0x1A, 0x1B, 0x1C, 0x1D, 0x1E, 0x1F},
		NwkSKey: lorawan.AES128Key{
			0x20, 0x21, 0x22, 0x23, 0x24, 0x25, 0x26, 0x27,
			0x28, 0x29, 0x2A, 0x2B, 0x2C, 0x2D, 0x2E, 0x2F},
		FPort: 10,
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	ctx := testContext()
	frame := []byte(`{"id":1,"sid":100,"tid":0,"type":"complete"}`)

	ctx.FCnt = 1
	uplink, err := ctx.Encode(frame)
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Contains([]byte(uplink), frame) {
		t.Fatal("payload visible in the encoded uplink")
	}

	got, err := ctx.Decode(uplink)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, frame) {
		t.Fatalf("decoded %q, want %q", got, frame)
	}
}

func TestDecodeRejectsWrongNetworkKey(t *testing.T) {
	ctx := testContext()
	ctx.FCnt = 1
	uplink, err := ctx.Encode([]byte("hello"))
	if err != nil {
		t.Fatal(err)
	}

	tampered := ctx
	tampered.NwkSKey[0] ^= 0xFF
	if _, err := tampered.Decode(uplink); err == nil {
		t.Fatal("frame accepted with the wrong network session key")
	}
}

func TestDecodeRejectsForeignDevAddr(t *testing.T) {
	ctx := testContext()
	ctx.FCnt = 1
	uplink, err := ctx.Encode([]byte("hello"))
	if err != nil {
		t.Fatal(err)
	}

	other := ctx
	other.DevAddr = lorawan.DevAddr{0x02, 0x00, 0x00, 0x02}
	if _, err := other.Decode(uplink); err == nil {
		t.Fatal("frame for another device accepted")
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	ctx := testContext()
	for _, s := range []string{"", "not base64!!", "aGVsbG8="} {
		if _, err := ctx.Decode(s); err == nil {
			t.Errorf("Decode(%q) accepted garbage", s)
		}
	}
}

func TestWrongAppKeyScramblesPayloadOnly(t *testing.T) {
	// the MIC covers the encrypted payload, so a wrong AppSKey still passes
	// MIC validation but yields scrambled bytes
	ctx := testContext()
	ctx.FCnt = 1
	frame := []byte("telemetry")
	uplink, err := ctx.Encode(frame)
	if err != nil {
		t.Fatal(err)
	}

	eavesdropper := ctx
	eavesdropper.AppSKey[0] ^= 0xFF
	got, err := eavesdropper.Decode(uplink)
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Equal(got, frame) {
		t.Fatal("wrong application key still produced the plaintext")
	}
}

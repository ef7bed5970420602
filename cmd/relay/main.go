// LoRaWAN uplink relay: tails the station's radio serial link and forwards
// every frame to a network server over UDP, wrapped as an encrypted
// unconfirmed uplink. Lets an off-site server observe the fleet traffic
// without sitting on the half-duplex link itself.
package main

import (
	"encoding/hex"
	"flag"
	"log"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"FleetLink/internal/device"
	"FleetLink/internal/lorawire"
	"FleetLink/internal/util"
)

func main() {
	util.SetupLogger()

	dev := flag.String("dev", "/dev/ttyUSB0", "radio serial device")
	baud := flag.Int("baud", 57600, "radio baudrate")
	server := flag.String("server", "127.0.0.1:10001", "network server udp address")
	devAddrHex := flag.String("devaddr", "01000001", "device address, 4 bytes hex")
	appSKeyHex := flag.String("appskey", "101112131415161718191a1b1c1d1e1f", "application session key, 16 bytes hex")
	nwkSKeyHex := flag.String("nwkskey", "202122232425262728292a2b2c2d2e2f", "network session key, 16 bytes hex")
	fport := flag.Uint("fport", 10, "frame port")
	flag.Parse()

	ctx := lorawire.Context{FPort: uint8(*fport)}
	mustHex(*devAddrHex, ctx.DevAddr[:])
	mustHex(*appSKeyHex, ctx.AppSKey[:])
	mustHex(*nwkSKeyHex, ctx.NwkSKey[:])

	d, err := device.NewSerialDevice(*dev, *baud)
	if err != nil {
		log.Fatalf("open radio: %v", err)
	}
	defer func() {
		if cerr := d.Close(); cerr != nil {
			log.Printf("warning: close radio err: %v", cerr)
		}
	}()

	addr, err := net.ResolveUDPAddr("udp", *server)
	if err != nil {
		log.Fatal(err)
	}
	conn, err := net.DialUDP("udp", nil, addr)
	if err != nil {
		log.Fatal(err)
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			log.Printf("warning: close connection err: %v", cerr)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	log.Printf("relay start: radio=%s server=%s devaddr=%s", *dev, *server, ctx.DevAddr)

	frames := make(chan string, 64)
	go func() {
		for {
			line, err := d.ReadLine(0)
			if err != nil {
				time.Sleep(100 * time.Millisecond)
				continue
			}
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			select {
			case frames <- line:
			default:
				log.Printf("relay backlog full, frame dropped")
			}
		}
	}()

	for {
		select {
		case <-stop:
			log.Println("relay stopping")
			return
		case line := <-frames:
			ctx.FCnt++
			encoded, err := ctx.Encode([]byte(line))
			if err != nil {
				log.Printf("encode uplink: %v", err)
				continue
			}
			if n, err := conn.Write([]byte(encoded)); err != nil {
				log.Printf("relay send error to %s: %v", conn.RemoteAddr(), err)
			} else {
				log.Printf("relay sent %d bytes, fcnt=%d", n, ctx.FCnt)
			}
		}
	}
}

// mustHex decodes s into dst, exiting on bad input since the keys come from
// the command line.
func mustHex(s string, dst []byte) {
	b, err := hex.DecodeString(s)
	if err != nil || len(b) != len(dst) {
		log.Fatalf("bad hex value %q: want %d bytes", s, len(dst))
	}
	copy(dst, b)
}

package wire

import (
	"io"
	"net"
	"time"

	"github.com/ltcsuite/ltcspv/er"
	"github.com/ltcsuite/ltcspv/wire/protocol"
)

// maxNetAddressPayload is the maximum serialized size of a NetAddress: 4
// time + 8 services + 16 ip + 2 port.
const maxNetAddressPayload = 30

// NetAddress defines information about a peer on the network, including
// the time it was last seen, the services it supports, its IP address,
// and port.
type NetAddress struct {
	Timestamp time.Time
	Services  protocol.ServiceFlag
	IP        net.IP
	Port      uint16
}

// NewNetAddressIPPort returns a new NetAddress using the provided IP,
// port, and supported services with defaults for the remaining fields.
func NewNetAddressIPPort(ip net.IP, port uint16, services protocol.ServiceFlag) *NetAddress {
	return &NetAddress{
		Timestamp: time.Unix(time.Now().Unix(), 0),
		Services:  services,
		IP:        ip,
		Port:      port,
	}
}

func readNetAddress(r io.Reader, pver uint32, na *NetAddress, ts bool) er.R {
	var ip [16]byte

	if ts {
		var t uint32
		if err := readElement(r, &t); err != nil {
			return err
		}
		na.Timestamp = time.Unix(int64(t), 0)
	}

	var services uint64
	if err := readElement(r, &services); err != nil {
		return err
	}
	na.Services = protocol.ServiceFlag(services)
	if _, errr := io.ReadFull(r, ip[:]); errr != nil {
		return er.E(errr)
	}
	na.IP = net.IP(append([]byte(nil), ip[:]...))

	var port [2]byte
	if _, errr := io.ReadFull(r, port[:]); errr != nil {
		return er.E(errr)
	}
	na.Port = uint16(port[0])<<8 | uint16(port[1])
	return nil
}

func writeNetAddress(w io.Writer, pver uint32, na *NetAddress, ts bool) er.R {
	if ts {
		if err := writeElement(w, uint32(na.Timestamp.Unix())); err != nil {
			return err
		}
	}

	if err := writeElement(w, uint64(na.Services)); err != nil {
		return err
	}

	var ip [16]byte
	if na.IP != nil {
		copy(ip[:], na.IP.To16())
	}
	if _, errr := w.Write(ip[:]); errr != nil {
		return er.E(errr)
	}

	port := [2]byte{byte(na.Port >> 8), byte(na.Port)}
	_, errr := w.Write(port[:])
	return er.E(errr)
}

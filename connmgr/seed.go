// Copyright (c) 2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package connmgr

import (
	"bufio"
	"fmt"
	mrand "math/rand"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ltcsuite/ltcspv/chaincfg"
	"github.com/ltcsuite/ltcspv/er"
	"github.com/ltcsuite/ltcspv/wire"
	"github.com/ltcsuite/ltcspv/wire/protocol"
)

const (
	// These constants are used by the DNS seed code to pick a random last
	// seen time.
	secondsIn3Days int32 = 24 * 60 * 60 * 3
	secondsIn4Days int32 = 24 * 60 * 60 * 4

	// seedTimeout bounds how long a single discovery source (one DNS
	// seed, one HTTP seed) is given to respond before it's abandoned,
	// per PeerGroup's discovery-phase budget.
	seedTimeout = 5 * time.Second
)

// OnSeed is the signature of the callback function which is invoked when
// a discovery source yields addresses.
type OnSeed func(addrs []*wire.NetAddress)

// LookupFunc is the signature of the DNS lookup function.
type LookupFunc func(string) ([]net.IP, er.R)

// DefaultLookup is the LookupFunc backed by the system resolver.
func DefaultLookup(host string) ([]net.IP, er.R) {
	ips, err := net.LookupIP(host)
	if err != nil {
		return nil, er.E(err)
	}
	return ips, nil
}

func randomPastTimestamp() time.Time {
	randSource := mrand.New(mrand.NewSource(time.Now().UnixNano()))
	return time.Now().Add(-1 * time.Second * time.Duration(secondsIn3Days+randSource.Int31n(secondsIn4Days)))
}

func addressesFromIPs(ips []net.IP, port uint16) []*wire.NetAddress {
	addrs := make([]*wire.NetAddress, len(ips))
	for i, ip := range ips {
		addrs[i] = &wire.NetAddress{
			Timestamp: randomPastTimestamp(),
			Services:  0,
			IP:        ip,
			Port:      port,
		}
	}
	return addrs
}

// SeedFromDNS uses the network's configured DNS seeds to populate the
// address pool with peers. Each seed is resolved independently and
// concurrently, with a seedTimeout budget; a seed that fails or times
// out is logged and skipped, never blocking the others.
func SeedFromDNS(chainParams *chaincfg.Params, reqServices protocol.ServiceFlag,
	lookupFn LookupFunc, seedFn OnSeed) {

	intPort, _ := strconv.Atoi(chainParams.DefaultPort)
	if intPort == 0 {
		panic("SeedFromDNS: failed to parse DefaultPort")
	}

	for _, dnsseed := range chainParams.DNSSeeds {
		var host string
		if !dnsseed.HasFiltering || reqServices == protocol.SFNodeNetwork {
			host = dnsseed.Host
		} else {
			host = fmt.Sprintf("x%x.%s", uint64(reqServices), dnsseed.Host)
		}

		go func(host string) {
			done := make(chan struct{})
			var seedpeers []net.IP
			var lookupErr er.R
			go func() {
				seedpeers, lookupErr = lookupFn(host)
				close(done)
			}()

			select {
			case <-done:
			case <-time.After(seedTimeout):
				log.Infof("DNS seed %s did not respond within %s", host, seedTimeout)
				return
			}

			if lookupErr != nil {
				log.Infof("DNS discovery failed on seed %s: %v", host, lookupErr)
				return
			}
			if len(seedpeers) == 0 {
				return
			}
			log.Infof("%d addresses found from DNS seed %s", len(seedpeers), host)
			seedFn(addressesFromIPs(seedpeers, uint16(intPort)))
		}(host)
	}
}

// SeedFromHTTP fetches a newline-delimited list of `host:port` peer
// addresses from seedURL. Each line that fails to parse is skipped
// rather than aborting the whole fetch.
func SeedFromHTTP(chainParams *chaincfg.Params, seedURL string, seedFn OnSeed) {
	go func() {
		client := http.Client{Timeout: seedTimeout}
		resp, err := client.Get(seedURL)
		if err != nil {
			log.Infof("HTTP seed %s unreachable: %v", seedURL, err)
			return
		}
		defer resp.Body.Close()

		var addrs []*wire.NetAddress
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			host, portStr, err := net.SplitHostPort(line)
			if err != nil {
				continue
			}
			port, err := strconv.Atoi(portStr)
			if err != nil || port <= 0 || port > 65535 {
				continue
			}
			ips, err := net.LookupIP(host)
			if err != nil || len(ips) == 0 {
				continue
			}
			addrs = append(addrs, &wire.NetAddress{
				Timestamp: randomPastTimestamp(),
				IP:        ips[0],
				Port:      uint16(port),
			})
		}

		if len(addrs) == 0 {
			return
		}
		log.Infof("%d addresses found from HTTP seed %s", len(addrs), seedURL)
		seedFn(addrs)
	}()
}

// SeedFromAddrs turns a caller-supplied list of "host:port" strings
// (e.g. from configuration) directly into NetAddresses, with no network
// round trip beyond resolving each host.
func SeedFromAddrs(explicit []string, defaultPort uint16, seedFn OnSeed) {
	var addrs []*wire.NetAddress
	for _, hostport := range explicit {
		host, portStr, err := net.SplitHostPort(hostport)
		port := defaultPort
		if err != nil {
			host = hostport
		} else if p, perr := strconv.Atoi(portStr); perr == nil {
			port = uint16(p)
		}

		ips, err := net.LookupIP(host)
		if err != nil || len(ips) == 0 {
			log.Infof("explicit peer %s did not resolve: %v", hostport, err)
			continue
		}
		addrs = append(addrs, &wire.NetAddress{
			Timestamp: time.Now(),
			IP:        ips[0],
			Port:      port,
		})
	}
	if len(addrs) > 0 {
		seedFn(addrs)
	}
}

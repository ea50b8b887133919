package protocol_test

import (
	"testing"

	"github.com/ltcsuite/ltcspv/wire/protocol"
)

// TestServiceFlagStringer tests the stringized output for service flag types.
func TestServiceFlagStringer(t *testing.T) {
	tests := []struct {
		in   protocol.ServiceFlag
		want string
	}{
		{0, "0x0"},
		{protocol.SFNodeNetwork, "SFNodeNetwork"},
		{protocol.SFNodeGetUTXO, "SFNodeGetUTXO"},
		{protocol.SFNodeBloom, "SFNodeBloom"},
		{protocol.SFNodeWitness, "SFNodeWitness"},
		{protocol.SFNodeXthin, "SFNodeXthin"},
		{protocol.SFNodeBit5, "SFNodeBit5"},
		{protocol.SFNodeCF, "SFNodeCF"},
		{protocol.SFNode2X, "SFNode2X"},
		{0xffffffff, "SFNodeNetwork|SFNodeGetUTXO|SFNodeBloom|SFNodeWitness|SFNodeXthin|SFNodeBit5|SFNodeCF|SFNode2X|0xffffff00"},
	}

	t.Logf("Running %d tests", len(tests))
	for i, test := range tests {
		result := test.in.String()
		if result != test.want {
			t.Errorf("String #%d\n got: %s want: %s", i, result,
				test.want)
			continue
		}
	}
}

// TestBitcoinNetStringer tests the stringized output for the network magics
// this module actually defines.
func TestBitcoinNetStringer(t *testing.T) {
	tests := []struct {
		in   protocol.BitcoinNet
		want string
	}{
		{protocol.MainNet, "MainNet"},
		{protocol.TestNet3, "TestNet3"},
		{protocol.RegTest, "RegTest"},
		{protocol.SigNet, "SigNet"},
		{0xffffffff, "Unknown BitcoinNet (4294967295)"},
	}

	t.Logf("Running %d tests", len(tests))
	for i, test := range tests {
		result := test.in.String()
		if result != test.want {
			t.Errorf("String #%d\n got: %s want: %s", i, result,
				test.want)
			continue
		}
	}
}

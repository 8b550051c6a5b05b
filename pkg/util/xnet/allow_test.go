package xnet

import (
	"net"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRange(t *testing.T) {
	tests := []struct {
		in       string
		from, to string
		err      error
	}{
		{in: "192.168.1.10", from: "192.168.1.10", to: "192.168.1.10"},
		{in: " 10.1.2.3/8 ", from: "10.0.0.0", to: "10.255.255.255"},
		{in: "192.168.1.1 - 192.168.1.100", from: "192.168.1.1", to: "192.168.1.100"},
		{in: "::ffff:127.0.0.1", from: "127.0.0.1", to: "127.0.0.1"},
		{in: "::ffff:10.0.0.0/104", from: "10.0.0.0", to: "10.255.255.255"},
		{in: "2001:db8::/126", from: "2001:db8::", to: "2001:db8::3"},
		{in: "fe80::1%eth0", err: ErrZoneNotSupported},
		{in: "10.0.0.9-10.0.0.1", err: ErrInvalidRange},
		{in: "10.0.0.1-::1", err: ErrInvalidRange},
		{in: "x-10.0.0.1", err: ErrInvalidRange},
		{in: "10.0.0.1-y", err: ErrInvalidRange},
		{in: "10.0.0.0/33", err: ErrInvalidRange},
		{in: "localhost", err: ErrInvalidRange},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			r, err := ParseRange(tt.in)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.from, r.From().String())
			assert.Equal(t, tt.to, r.To().String())
		})
	}
}

func TestAllowList(t *testing.T) {
	l, err := ParseAllowList([]string{"127.0.0.1", "", "10.0.0.0/24", "10.0.1.0/24", "::1"})
	require.NoError(t, err)
	require.NotNil(t, l)

	assert.True(t, l.Contains(netip.MustParseAddr("127.0.0.1")))
	assert.True(t, l.Contains(netip.MustParseAddr("::ffff:127.0.0.1")))
	assert.True(t, l.Contains(netip.MustParseAddr("10.0.1.200")))
	assert.True(t, l.Contains(netip.MustParseAddr("::1")))
	assert.False(t, l.Contains(netip.MustParseAddr("10.0.2.1")))
	assert.False(t, l.Contains(netip.Addr{}))

	assert.True(t, l.AllowsConn(&net.TCPAddr{IP: net.ParseIP("10.0.0.5"), Port: 5555}))
	assert.False(t, l.AllowsConn(&net.TCPAddr{IP: net.ParseIP("192.168.0.5"), Port: 5555}))
	assert.True(t, l.AllowsConn(&net.UDPAddr{IP: net.ParseIP("127.0.0.1")}))
	assert.False(t, l.AllowsConn(&net.UnixAddr{Name: "/tmp/x", Net: "unix"}))

	// 相邻 /24 合并为 /23
	assert.Equal(t, "10.0.0.0/23,127.0.0.1/32,::1/128", l.String())
}

func TestAllowList_EmptyAllowsAll(t *testing.T) {
	l, err := ParseAllowList([]string{" ", ""})
	require.NoError(t, err)
	assert.Nil(t, l)
	assert.True(t, l.Contains(netip.MustParseAddr("8.8.8.8")))
	assert.True(t, l.AllowsConn(&net.UnixAddr{Name: "x"}))
	assert.Equal(t, "*", l.String())
	assert.Nil(t, l.Prefixes())

	_, err = ParseAllowList([]string{"10.0.0.1", "bogus"})
	assert.ErrorIs(t, err, ErrInvalidRange)
}

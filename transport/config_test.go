package transport

import (
	"testing"
	"time"

	"github.com/arloliu/gstream/channel"
	"github.com/stretchr/testify/require"
)

func TestNewConfig_Defaults(t *testing.T) {
	require := require.New(t)

	cfg, err := NewConfig("", 115200)
	require.NoError(err)
	require.Equal(channel.SimulatedPort, cfg.Port())
	require.Equal(115200, cfg.BaudRate())
	require.Equal(DefaultPollInterval, cfg.PollInterval())
	require.Equal(DefaultAckDelay, cfg.AckDelay())
	require.Equal(DefaultCloseTimeout, cfg.CloseTimeout())
	require.NotNil(cfg.GetLogger())
	require.True(cfg.Identity().IsSimulated())
}

func TestNewConfig_BaudRate(t *testing.T) {
	require := require.New(t)

	_, err := NewConfig("/dev/ttyUSB0", 0)
	require.Error(err)

	_, err = NewConfig("/dev/ttyUSB0", -9600)
	require.Error(err)

	cfg, err := NewConfig("/dev/ttyUSB0", 38400)
	require.NoError(err)
	require.Equal(channel.Identity{Port: "/dev/ttyUSB0", BaudRate: 38400}, cfg.Identity())
}

func TestNewConfig_Ranges(t *testing.T) {
	tests := []struct {
		name    string
		opt     ConnOption
		wantErr bool
	}{
		{"poll min", WithPollInterval(MinPollInterval), false},
		{"poll below", WithPollInterval(MinPollInterval - 1), true},
		{"poll above", WithPollInterval(MaxPollInterval + 1), true},
		{"ack ok", WithAckDelay(20 * time.Millisecond), false},
		{"ack zero", WithAckDelay(0), true},
		{"ack above", WithAckDelay(MaxAckDelay + 1), true},
		{"close max", WithCloseTimeout(MaxCloseTimeout), false},
		{"close below", WithCloseTimeout(time.Millisecond), true},
		{"nil factory", WithChannelFactory(nil), true},
		{"nil logger", WithLogger(nil), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewConfig("SIMULATED", 115200, tt.opt)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

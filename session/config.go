package session

import (
	"time"

	"github.com/peyitv/peyitv/buffer"
	"github.com/peyitv/peyitv/key"
	"github.com/peyitv/peyitv/metrics"
	"github.com/peyitv/peyitv/network"
	"github.com/peyitv/peyitv/player"
	"github.com/spf13/viper"
)

// OptionsFromConfig builds session options from the loaded configuration.
// m may be nil.
func OptionsFromConfig(m *metrics.Metrics) (Options, error) {
	policy, err := buffer.FromConfig()
	if err != nil {
		return Options{}, err
	}

	timeout := time.Duration(viper.GetInt(key.NetworkTimeoutSecs)) * time.Second
	backend := viper.GetString(key.Player)

	return Options{
		Factory: func() (player.Player, error) {
			return player.New(backend)
		},
		Client:                network.NewClient(timeout, viper.GetBool(key.NetworkTLSFingerprint)),
		Timeout:               timeout,
		DefaultIdentification: viper.GetString(key.NetworkUserAgent),
		Policy:                policy,
		Surface: player.Surface{
			Fullscreen: viper.GetBool(key.PlayerFullscreen),
			KeepAwake:  viper.GetBool(key.PlayerKeepAwake),
		},
		Metrics: m,
	}, nil
}

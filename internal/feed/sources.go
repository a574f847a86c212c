package feed

import (
	"fmt"
	"strings"

	"github.com/Dicklesworthstone/netfall/internal/config"
)

// FromConfig builds the sources selected by the [feed] section. The "none"
// source yields no sources, leaving the store to be filled by other means.
func FromConfig(fc config.FeedConfig) ([]Source, error) {
	switch strings.ToLower(strings.TrimSpace(fc.Source)) {
	case config.SourceSimulate, "":
		return []Source{NewSimulator(SimulatorConfig{
			Interval:    fc.Interval(),
			MinDuration: fc.MinDuration(),
			MaxDuration: fc.MaxDuration(),
			ErrorRate:   fc.ErrorRate,
		})}, nil

	case config.SourceReplay:
		script, err := LoadScript(config.ExpandHome(fc.ReplayFile))
		if err != nil {
			return nil, err
		}
		return []Source{NewReplay(script, nil)}, nil

	case config.SourceKafka:
		k, err := NewKafka(KafkaConfig{
			Brokers: fc.KafkaBrokers,
			Topic:   fc.KafkaTopic,
			GroupID: fc.KafkaGroup,
		})
		if err != nil {
			return nil, err
		}
		return []Source{k}, nil

	case config.SourceNone:
		return nil, nil
	}
	return nil, fmt.Errorf("unknown feed source %q", fc.Source)
}

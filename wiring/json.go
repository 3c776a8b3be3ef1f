package wiring

import (
	"encoding/json"
	"io"

	"github.com/pkg/errors"

	"github.com/sarchlab/bridgesim/token"
)

type jsonChannelFile struct {
	Channels []jsonChannel `json:"channels"`
}

type jsonChannel struct {
	Name    string   `json:"name"`
	Kind    string   `json:"kind"`
	Latency int      `json:"latency"`
	Count   int      `json:"count"`
	Sources []string `json:"sources"`
	Sinks   []string `json:"sinks"`

	ValidSource string `json:"valid_source"`
	ReadySink   string `json:"ready_sink"`
	ValidSink   string `json:"valid_sink"`
	ReadySource string `json:"ready_source"`
}

// LoadDescriptors reads the channel list the elaboration toolchain emits
// alongside a build.
func LoadDescriptors(r io.Reader) ([]ConnectionDescriptor, error) {
	var file jsonChannelFile

	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&file); err != nil {
		return nil, errors.Wrap(err, "decoding channel descriptors")
	}

	descs := make([]ConnectionDescriptor, 0, len(file.Channels))
	for _, c := range file.Channels {
		kind, err := decodeKind(c)
		if err != nil {
			return nil, err
		}

		descs = append(descs, ConnectionDescriptor{
			GlobalName: c.Name,
			Kind:       kind,
			SourceRefs: c.Sources,
			SinkRefs:   c.Sinks,
		})
	}

	return descs, nil
}

func decodeKind(c jsonChannel) (token.ChannelKind, error) {
	switch c.Kind {
	case "pipe":
		return token.Pipe{Latency: c.Latency}, nil
	case "ready-valid":
		return token.ReadyValidForward{
			ValidSourceRef: c.ValidSource,
			ReadySinkRef:   c.ReadySink,
			ValidSinkRef:   c.ValidSink,
			ReadySourceRef: c.ReadySource,
		}, nil
	case "clock-control":
		return token.ClockControl{}, nil
	case "target-clock":
		return token.TargetClock{Count: c.Count}, nil
	default:
		return nil, &WiringError{
			Channel: c.Name,
			Reason:  "unknown channel kind " + c.Kind,
		}
	}
}

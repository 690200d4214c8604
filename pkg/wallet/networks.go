package wallet

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/goliatone/go-state-migrate/internal/hydrate"
	"github.com/goliatone/go-state-migrate/tree"
)

// Network is the typed view of a main.networks entry.
type Network struct {
	ID         int        `json:"id"`
	Type       string     `json:"type"`
	Name       string     `json:"name"`
	Layer      string     `json:"layer"`
	Symbol     string     `json:"symbol"`
	Explorer   string     `json:"explorer"`
	On         bool       `json:"on"`
	IsTestnet  bool       `json:"isTestnet"`
	Connection Connection `json:"connection"`
}

// Connection holds the two RPC connection slots of a network.
type Connection struct {
	Primary   ConnectionSlot `json:"primary"`
	Secondary ConnectionSlot `json:"secondary"`
}

// ConnectionSlot is one RPC connection preference.
type ConnectionSlot struct {
	On        bool   `json:"on"`
	Current   string `json:"current"`
	Status    string `json:"status"`
	Connected bool   `json:"connected"`
	Custom    string `json:"custom"`
}

// ErrUnknownPreset reports a connection slot naming a preset this wallet
// does not ship.
var ErrUnknownPreset = errors.New("wallet: unknown connection preset")

var knownPresets = map[string]bool{
	PresetInfura: true,
	PresetCustom: true,
	PresetLocal:  true,
	PresetMatic:  true,
}

var networkDecoder = hydrate.NewDecoder(
	hydrate.WithPreHook[Network](identifyNetwork),
	hydrate.WithPostHook[Network](checkConnectionPresets),
)

// Networks decodes every well-formed network entry of state, ordered by
// chain type then chain id key. Entries missing an id or type take them from
// their position in the tree. A slot whose current preset is not known fails
// with ErrUnknownPreset; an empty preset is allowed.
func Networks(state map[string]any) ([]Network, error) {
	networks, ok := tree.Map(state, "main", "networks")
	if !ok {
		return nil, nil
	}
	var out []Network
	for _, chainType := range tree.SortedKeys(networks) {
		decoded, err := networkDecoder.DecodeChildren(state, "main", "networks", chainType)
		if err != nil {
			return nil, err
		}
		out = append(out, decoded...)
	}
	return out, nil
}

// identifyNetwork fills id and type from the entry's path when they are
// absent or not usable.
func identifyNetwork(ctx hydrate.Context, node map[string]any) (map[string]any, error) {
	segments := tree.SplitPath(ctx.Path)
	if len(segments) >= 2 {
		if _, ok := node["type"].(string); !ok {
			node["type"] = segments[len(segments)-2]
		}
	}
	if _, ok := node["id"].(float64); ok {
		return node, nil
	}
	if _, ok := node["id"].(int); ok {
		return node, nil
	}
	if id, err := strconv.Atoi(ctx.Key); err == nil {
		node["id"] = id
	} else {
		delete(node, "id")
	}
	return node, nil
}

// checkConnectionPresets lowercases the slot presets and rejects unknown ones.
func checkConnectionPresets(ctx hydrate.Context, n *Network) error {
	for _, slot := range []struct {
		name string
		ref  *ConnectionSlot
	}{
		{"primary", &n.Connection.Primary},
		{"secondary", &n.Connection.Secondary},
	} {
		current := strings.ToLower(strings.TrimSpace(slot.ref.Current))
		if current != "" && !knownPresets[current] {
			return fmt.Errorf("%w: %s slot of %s uses %q", ErrUnknownPreset, slot.name, ctx.Path, slot.ref.Current)
		}
		slot.ref.Current = current
	}
	return nil
}

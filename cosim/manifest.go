package cosim

import (
	"sort"

	"github.com/sarchlab/bridgesim/wiring"
)

// A BridgeEntry names one bridge instance of the target design. The factory
// runs once at driver construction; it receives the wrapper so the bridge can
// bind to its ports.
type BridgeEntry struct {
	Type  string
	Index int
	New   func(w *wiring.Wrapper) BridgeDriver
}

// A ModelEntry names one FPGA model instance of the target design.
type ModelEntry struct {
	Type  string
	Index int
	New   func(w *wiring.Wrapper) FPGAModel
}

// A Manifest is the explicit, ordered list of module instances present in a
// build. The elaboration toolchain generates it alongside the connection
// descriptors; the driver iterates it instead of branching on build-time
// presence switches.
type Manifest struct {
	Bridges []BridgeEntry
	Models  []ModelEntry
}

// instantiate creates every handle in a fixed, deterministic order: module
// types keep their order of first appearance, and instances of the same type
// are ordered by index.
func (m Manifest) instantiate(
	w *wiring.Wrapper,
) ([]BridgeDriver, []FPGAModel) {
	bridgeEntries := make([]BridgeEntry, len(m.Bridges))
	copy(bridgeEntries, m.Bridges)

	bridgeGroup := typeGroupOrder(len(bridgeEntries), func(i int) string {
		return bridgeEntries[i].Type
	})
	sort.SliceStable(bridgeEntries, func(i, j int) bool {
		gi := bridgeGroup[bridgeEntries[i].Type]
		gj := bridgeGroup[bridgeEntries[j].Type]
		if gi != gj {
			return gi < gj
		}

		return bridgeEntries[i].Index < bridgeEntries[j].Index
	})

	modelEntries := make([]ModelEntry, len(m.Models))
	copy(modelEntries, m.Models)

	modelGroup := typeGroupOrder(len(modelEntries), func(i int) string {
		return modelEntries[i].Type
	})
	sort.SliceStable(modelEntries, func(i, j int) bool {
		gi := modelGroup[modelEntries[i].Type]
		gj := modelGroup[modelEntries[j].Type]
		if gi != gj {
			return gi < gj
		}

		return modelEntries[i].Index < modelEntries[j].Index
	})

	bridges := make([]BridgeDriver, 0, len(bridgeEntries))
	for _, e := range bridgeEntries {
		bridges = append(bridges, e.New(w))
	}

	models := make([]FPGAModel, 0, len(modelEntries))
	for _, e := range modelEntries {
		models = append(models, e.New(w))
	}

	return bridges, models
}

func typeGroupOrder(n int, typeOf func(i int) string) map[string]int {
	order := map[string]int{}
	for i := 0; i < n; i++ {
		t := typeOf(i)
		if _, seen := order[t]; !seen {
			order[t] = len(order)
		}
	}

	return order
}

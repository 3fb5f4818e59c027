package plugin

import "fmt"

// Category classifies the plugin for host browsers.
type Category int

const (
	CategoryUnknown Category = iota
	CategoryEffect
	CategorySynth
	CategoryAnalysis
	CategoryMastering
	CategorySpatializer
	CategoryRoomFx
	CategorySurroundFx
	CategoryRestoration
	CategoryOfflineProcess
	CategoryShell
	CategoryGenerator
)

var categoryNames = [...]string{
	CategoryUnknown:        "Unknown",
	CategoryEffect:         "Effect",
	CategorySynth:          "Synth",
	CategoryAnalysis:       "Analysis",
	CategoryMastering:      "Mastering",
	CategorySpatializer:    "Spatializer",
	CategoryRoomFx:         "RoomFx",
	CategorySurroundFx:     "SurroundFx",
	CategoryRestoration:    "Restoration",
	CategoryOfflineProcess: "OfflineProcess",
	CategoryShell:          "Shell",
	CategoryGenerator:      "Generator",
}

func (c Category) String() string {
	if c < 0 || int(c) >= len(categoryNames) {
		return fmt.Sprintf("Category(%d)", int(c))
	}

	return categoryNames[c]
}

// Identity of the processor as declared to hosts.
const (
	Name     = "Duck Comp"
	Vendor   = "Trls Audio"
	UniqueID = 61692745
	Version  = 1
)

// Info contains the metadata a host reads before instantiating the plugin.
type Info struct {
	Name       string
	Vendor     string
	UniqueID   int32 // Stable numeric identity, never reuse for another plugin
	Version    int32
	Inputs     int
	Outputs    int
	Parameters int
	Category   Category
}

// String renders a one-line summary, e.g. for logs.
func (i Info) String() string {
	return fmt.Sprintf("%s by %s (id %d, v%d, %d in/%d out, %d params, %s)",
		i.Name, i.Vendor, i.UniqueID, i.Version, i.Inputs, i.Outputs, i.Parameters, i.Category)
}

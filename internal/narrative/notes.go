package narrative

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// NoteSet is the jurisdiction-specific wording of the regulatory notes.
// "{voltage}" in any note is replaced by the system voltage.
type NoteSet struct {
	Name             string  `yaml:"name" json:"name"`
	VoltageThreshold float64 `yaml:"voltage_threshold" json:"voltage_threshold"`
	HighVoltage      string  `yaml:"high_voltage" json:"high_voltage"`
	LowVoltage       string  `yaml:"low_voltage" json:"low_voltage"`
	Isolation        string  `yaml:"isolation" json:"isolation"`
	Earthing         string  `yaml:"earthing" json:"earthing"`
	Outdoor          string  `yaml:"outdoor" json:"outdoor"`
}

// BS7671 returns the notes for installations under the IET Wiring Regulations.
func BS7671() NoteSet {
	return NoteSet{
		Name:             "BS 7671",
		VoltageThreshold: 48,
		HighVoltage:      "{voltage}V DC system: BS 7671 Section 712 and the IET Code of Practice for Electrical Energy Storage Systems apply. Use DC-rated switchgear and consider DC fault currents when selecting RCDs.",
		LowVoltage:       "{voltage}V extra-low voltage DC system: size cables for the high DC currents involved and keep battery-to-inverter runs short to limit volt drop.",
		Isolation:        "Provide DC isolation and overcurrent protection (fuse or DC-rated circuit breaker) at the battery terminals (BS 7671 Reg 712.537).",
		Earthing:         "Earthing and protective bonding must comply with BS 7671 Chapter 54; confirm the inverter's earthing arrangement with the manufacturer.",
		Outdoor:          "Outdoor installation: battery and inverter enclosures must be rated IP65 or better and shielded from direct sunlight.",
	}
}

// LoadNotes reads a YAML note set. Fields left out keep the BS 7671 wording.
func LoadNotes(r io.Reader) (NoteSet, error) {
	var override NoteSet
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&override); err != nil && !errors.Is(err, io.EOF) {
		return NoteSet{}, fmt.Errorf("parsing notes YAML: %w", err)
	}

	n := BS7671()
	if override.Name != "" {
		n.Name = override.Name
	}
	if override.VoltageThreshold > 0 {
		n.VoltageThreshold = override.VoltageThreshold
	}
	if override.HighVoltage != "" {
		n.HighVoltage = override.HighVoltage
	}
	if override.LowVoltage != "" {
		n.LowVoltage = override.LowVoltage
	}
	if override.Isolation != "" {
		n.Isolation = override.Isolation
	}
	if override.Earthing != "" {
		n.Earthing = override.Earthing
	}
	if override.Outdoor != "" {
		n.Outdoor = override.Outdoor
	}
	return n, nil
}

// LoadNotesFile reads a note set from a YAML file.
func LoadNotesFile(path string) (NoteSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return NoteSet{}, fmt.Errorf("opening notes file: %w", err)
	}
	defer f.Close()
	return LoadNotes(f)
}

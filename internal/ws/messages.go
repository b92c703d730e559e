package ws

import (
	"encoding/json"

	"battery_sizer/internal/catalog"
	"battery_sizer/internal/model"
	"battery_sizer/internal/sizing"
)

// Envelope wraps all WebSocket messages with a type discriminator.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Message type constants
const (
	// Client -> Server
	TypeSizingCalculate = "sizing:calculate"
	TypeCatalogGet      = "catalog:get"

	// Server -> Client
	TypeSizingResult  = "sizing:result"
	TypeSizingInvalid = "sizing:invalid"
	TypeCatalogLoaded = "catalog:loaded"
)

// Client -> Server messages

// CalculatePayload requests one sizing. Tariff overrides the server's rates
// for this request only.
type CalculatePayload struct {
	RequestID string            `json:"request_id,omitempty"`
	Input     model.SizingInput `json:"input"`
	Tariff    *sizing.Tariff    `json:"tariff,omitempty"`
}

// Server -> Client messages

type ResultPayload struct {
	RequestID string             `json:"request_id"`
	Result    model.SizingResult `json:"result"`
	Clipboard string             `json:"clipboard"`
}

type InvalidPayload struct {
	RequestID string              `json:"request_id"`
	Errors    []sizing.FieldError `json:"errors"`
}

type ChemistryInfo struct {
	Key model.Chemistry `json:"key"`
	model.ChemistryProfile
}

type EnvironmentInfo struct {
	Key   model.Environment `json:"key"`
	Label string            `json:"label"`
}

type CatalogPayload struct {
	Chemistries        []ChemistryInfo                                   `json:"chemistries"`
	Environments       []EnvironmentInfo                                 `json:"environments"`
	Factors            map[model.Chemistry]map[model.Environment]float64 `json:"factors"`
	DefaultChemistry   model.Chemistry                                   `json:"default_chemistry"`
	DefaultEnvironment model.Environment                                 `json:"default_environment"`
}

func NewEnvelope(msgType string, payload any) ([]byte, error) {
	var raw json.RawMessage
	if payload != nil {
		var err error
		raw, err = json.Marshal(payload)
		if err != nil {
			return nil, err
		}
	}
	return json.Marshal(Envelope{Type: msgType, Payload: raw})
}

// CatalogFromTables lists chemistries and environments in display order with
// the resolved derating for every pair.
func CatalogFromTables(t *catalog.Tables) CatalogPayload {
	chems := t.ChemistryKeys()
	envs := t.EnvironmentKeys()

	p := CatalogPayload{
		Chemistries:        make([]ChemistryInfo, 0, len(chems)),
		Environments:       make([]EnvironmentInfo, 0, len(envs)),
		Factors:            make(map[model.Chemistry]map[model.Environment]float64, len(chems)),
		DefaultChemistry:   model.DefaultChemistry,
		DefaultEnvironment: model.DefaultEnvironment,
	}
	for _, c := range chems {
		p.Chemistries = append(p.Chemistries, ChemistryInfo{Key: c, ChemistryProfile: t.Profile(c)})
		row := make(map[model.Environment]float64, len(envs))
		for _, e := range envs {
			row[e] = t.Factor(c, e).TempFactor
		}
		p.Factors[c] = row
	}
	for _, e := range envs {
		p.Environments = append(p.Environments, EnvironmentInfo{
			Key:   e,
			Label: t.Factor(model.DefaultChemistry, e).Label,
		})
	}
	return p
}

package types

import "encoding/json"

// Known preference keys. Anything else round-trips through Extra so that
// newer server or UI versions can add settings without this client
// discarding them.
const (
	prefKeySound   = "sound"
	prefKeyDesktop = "desktop"
	prefKeyEmail   = "email"
	prefKeyInApp   = "inApp"
	prefKeyDigest  = "digestFrequency"
)

// Preferences holds the user-toggleable delivery channels and digest
// frequency. Unknown keys are preserved across load/store cycles.
type Preferences struct {
	Sound           bool
	Desktop         bool
	Email           bool
	InApp           bool
	DigestFrequency string
	Extra           map[string]json.RawMessage
}

// DefaultPreferences returns the out-of-the-box preference set: every
// channel enabled, immediate digests.
func DefaultPreferences() Preferences {
	return Preferences{
		Sound:           true,
		Desktop:         true,
		Email:           true,
		InApp:           true,
		DigestFrequency: "immediate",
	}
}

// MarshalJSON flattens the known fields and any preserved unknown keys into
// a single object.
func (p Preferences) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(p.Extra)+5)
	for k, v := range p.Extra {
		out[k] = v
	}

	var err error
	if out[prefKeySound], err = json.Marshal(p.Sound); err != nil {
		return nil, err
	}
	if out[prefKeyDesktop], err = json.Marshal(p.Desktop); err != nil {
		return nil, err
	}
	if out[prefKeyEmail], err = json.Marshal(p.Email); err != nil {
		return nil, err
	}
	if out[prefKeyInApp], err = json.Marshal(p.InApp); err != nil {
		return nil, err
	}
	if out[prefKeyDigest], err = json.Marshal(p.DigestFrequency); err != nil {
		return nil, err
	}

	return json.Marshal(out)
}

// UnmarshalJSON fills the known fields and keeps everything else in Extra.
func (p *Preferences) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*p = DefaultPreferences()
	p.applyRaw(raw)
	return nil
}

// Merge returns a copy of p with the partial update applied as a shallow
// merge. Unknown keys are stored, not validated.
func (p Preferences) Merge(partial map[string]json.RawMessage) Preferences {
	merged := p
	merged.Extra = make(map[string]json.RawMessage, len(p.Extra)+len(partial))
	for k, v := range p.Extra {
		merged.Extra[k] = v
	}
	merged.applyRaw(partial)
	return merged
}

// applyRaw assigns known keys to their fields and stashes the rest. Values
// of the wrong JSON type for a known key are ignored rather than rejected.
func (p *Preferences) applyRaw(raw map[string]json.RawMessage) {
	for k, v := range raw {
		switch k {
		case prefKeySound:
			_ = json.Unmarshal(v, &p.Sound)
		case prefKeyDesktop:
			_ = json.Unmarshal(v, &p.Desktop)
		case prefKeyEmail:
			_ = json.Unmarshal(v, &p.Email)
		case prefKeyInApp:
			_ = json.Unmarshal(v, &p.InApp)
		case prefKeyDigest:
			_ = json.Unmarshal(v, &p.DigestFrequency)
		default:
			if p.Extra == nil {
				p.Extra = make(map[string]json.RawMessage)
			}
			p.Extra[k] = v
		}
	}
}

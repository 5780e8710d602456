package armature

import "encoding/json"

type armatureJSON struct {
	Bones []*Bone `json:"bones"`
}

// MarshalJSON encodes the armature as its bones in insertion order, the
// order bones were generated in.
func (a *Armature) MarshalJSON() ([]byte, error) {
	doc := armatureJSON{Bones: make([]*Bone, 0, len(a.order))}
	for _, name := range a.order {
		doc.Bones = append(doc.Bones, a.bones[name])
	}
	return json.Marshal(doc)
}

// UnmarshalJSON rebuilds the armature from an encoded bone list.
func (a *Armature) UnmarshalJSON(data []byte) error {
	var doc armatureJSON
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	a.bones = make(map[string]*Bone, len(doc.Bones))
	a.order = a.order[:0]
	for _, b := range doc.Bones {
		if _, err := a.AddBone(b); err != nil {
			return err
		}
	}
	return nil
}

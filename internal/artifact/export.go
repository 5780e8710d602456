package artifact

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"rigcore/pkg/armature"
)

// ExportRig serializes a generated bone graph as indented JSON and stores
// it under rigs/<name>.json.
func ExportRig(ctx context.Context, store Store, name string, arm *armature.Armature) (Info, error) {
	if name == "" {
		return Info{}, fmt.Errorf("artifact: empty rig name")
	}
	data, err := json.MarshalIndent(arm, "", "  ")
	if err != nil {
		return Info{}, fmt.Errorf("artifact: encode rig %s: %w", name, err)
	}
	key := "rigs/" + name + ".json"
	return store.Put(ctx, key, bytes.NewReader(data), PutOptions{
		ContentType: "application/json",
		Metadata:    map[string]string{"rig": name},
	})
}

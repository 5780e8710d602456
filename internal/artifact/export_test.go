package artifact

import (
	"context"
	"encoding/json"
	"io"
	"testing"

	"rigcore/pkg/armature"
)

func TestExportRig(t *testing.T) {
	arm := armature.New()
	if _, err := arm.AddBone(&armature.Bone{
		Name:     "brow.L",
		Tail:     armature.Vec3{0, 1, 0},
		Rotation: armature.QuatIdent(),
	}); err != nil {
		t.Fatalf("AddBone: %v", err)
	}

	store := NewMemory()
	info, err := ExportRig(context.Background(), store, "face", arm)
	if err != nil {
		t.Fatalf("ExportRig: %v", err)
	}
	if info.Key != "rigs/face.json" {
		t.Fatalf("exported key = %q", info.Key)
	}
	if info.ContentType != "application/json" {
		t.Fatalf("exported content type = %q", info.ContentType)
	}
	if info.Metadata["rig"] != "face" {
		t.Fatalf("exported metadata = %v", info.Metadata)
	}

	_, rc, err := store.Get(context.Background(), "rigs/face.json")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	data, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		t.Fatalf("read payload: %v", err)
	}

	decoded := armature.New()
	if err := json.Unmarshal(data, decoded); err != nil {
		t.Fatalf("payload is not a rig document: %v", err)
	}
	if _, ok := decoded.Bone("brow.L"); !ok {
		t.Fatal("exported payload lost brow.L")
	}

	if _, err := ExportRig(context.Background(), store, "face", arm); err == nil {
		t.Fatal("re-export over an existing key succeeded")
	}
}

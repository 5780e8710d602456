package metarig

import (
	"testing"

	"rigcore/testutil"
)

func TestMetarigDoesNotImportInternal(t *testing.T) {
	testutil.AssertNoDirectImports(t, ".", testutil.InternalImportForbidden,
		"pkg/metarig must stay independent of internal packages")
}

package domain

import (
	"testing"

	"clientcore/testutil"
)

// The domain layer holds only types and rules; storage, transport and
// logging live behind it in internal packages.
func TestDomainImportsOnlyStdlib(t *testing.T) {
	testutil.AssertNoDirectImports(t, ".", testutil.AnyOf(testutil.InternalImport, testutil.ThirdPartyImport),
		"pkg/domain must depend on the standard library only")
}

func TestDomainHasNoTransitiveModuleDeps(t *testing.T) {
	if testing.Short() {
		t.Skip("shells out to go list")
	}
	testutil.AssertNoTransitiveDependency(t, ".", testutil.AnyOf(testutil.InternalImport, testutil.ThirdPartyImport),
		"pkg/domain must not pull internal or third-party packages")
}

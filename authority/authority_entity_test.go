package authority_test

import (
	"testing"

	"periodico/authority"

	. "github.com/onsi/gomega"
)

func TestPermissionsHasPermission(t *testing.T) {
	RegisterTestingT(t)

	t.Run("should match permission descriptions case insensitively", func(t *testing.T) {
		perms := authority.Permissions{authority.PermEditPublication}
		Expect(perms.HasPermission("edit_publication")).To(BeTrue())
		Expect(perms.HasPermission("Edit_Publication")).To(BeTrue())
		Expect(perms.HasPermission(authority.PermDeletePublication)).To(BeFalse())
		Expect(authority.Permissions{}.HasPermission("edit_publication")).To(BeFalse())
	})
}
